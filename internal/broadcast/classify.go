package broadcast

import "strings"

// Failure is the outcome class of a failed send.
type Failure int

const (
	// FailureTransient keeps the destination; the broadcast moves on.
	FailureTransient Failure = iota
	// FailurePermanent means the destination is gone and must be pruned.
	FailurePermanent
)

func (f Failure) String() string {
	switch f {
	case FailurePermanent:
		return "permanent"
	default:
		return "transient"
	}
}

// Classifier maps a send error onto the failure taxonomy.
type Classifier func(err error) Failure

// permanentMarkers are platform descriptions of destinations that will never
// accept a message again. Matched case-insensitively.
var permanentMarkers = []string{
	"chat not found",
	"bot was blocked by the user",
	"bot was kicked",
	"user is deactivated",
	"bot is not a member",
	"group chat was deleted",
	"chat_id is empty",
}

// ClassifyByMessage is the fallback used when the sender exposes no
// structured error: it inspects the error text only.
func ClassifyByMessage(err error) Failure {
	if err == nil {
		return FailureTransient
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range permanentMarkers {
		if strings.Contains(msg, marker) {
			return FailurePermanent
		}
	}
	return FailureTransient
}
