package domain

import (
	"strings"
	"time"
)

// Kind is the chat type reported by the messaging platform.
type Kind string

const (
	// KindPrivate is a one-to-one chat between a user and the bot.
	KindPrivate Kind = "private"
	// KindGroup is a basic group chat.
	KindGroup Kind = "group"
	// KindSupergroup is a large or upgraded group chat.
	KindSupergroup Kind = "supergroup"

	// KindUnknown marks destinations loaded from storage, which keeps ids only.
	KindUnknown Kind = ""
)

// kindDirect is the platform-neutral name of a one-to-one chat.
const kindDirect = "direct"

// ParseKind maps a platform chat type onto a registrable Kind.
// Only private (alias direct), group and supergroup chats can be
// registered; channels and anything else report false.
func ParseKind(raw string) (Kind, bool) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(raw))); k {
	case KindPrivate, KindGroup, KindSupergroup:
		return k, true
	case kindDirect:
		return KindPrivate, true
	default:
		return "", false
	}
}

// Destination is a chat that receives broadcasts.
//
// A Destination is uniquely identified by its ID.
type Destination struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the opaque chat identifier assigned by the platform.
	// Example: "-1001234567890"
	ID string

	// Kind is the chat type at registration time, KindUnknown after a reload.
	Kind Kind

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	// RegisteredAt is informational only. Zero after a reload.
	RegisteredAt time.Time
}

// KindLabel names the kind for logs and health output.
func (d Destination) KindLabel() string {
	if d.Kind == KindUnknown {
		return "unknown"
	}
	return string(d.Kind)
}

// BroadcastResult summarises one broadcast.
type BroadcastResult struct {
	// SentCount is the number of destinations that accepted the message.
	SentCount int

	// TotalChats is the number of destinations attempted.
	TotalChats int
}
