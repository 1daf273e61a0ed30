package telegram

import (
	"errors"

	"github.com/go-telegram/bot"

	"github.com/MrSnakeDoc/chatrelay/internal/broadcast"
)

// ClassifyError maps Bot API errors onto the broadcast failure taxonomy.
//
// 403 means the bot was blocked or removed and the chat is gone for good.
// 400 is only permanent when its description says the chat does not exist.
// 401 is a credential problem, not a destination problem.
// A migrated group id never works again; SendText already moved the
// registration to the new id, so the old one can go.
// Errors without a status fall back to text matching.
func ClassifyError(err error) broadcast.Failure {
	var migrated *bot.MigrateError
	switch {
	case err == nil:
		return broadcast.FailureTransient
	case errors.As(err, &migrated):
		return broadcast.FailurePermanent
	case errors.Is(err, bot.ErrorForbidden):
		return broadcast.FailurePermanent
	case errors.Is(err, bot.ErrorBadRequest):
		return broadcast.ClassifyByMessage(err)
	case errors.Is(err, bot.ErrorUnauthorized):
		return broadcast.FailureTransient
	default:
		return broadcast.ClassifyByMessage(err)
	}
}
