package telegram

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/MrSnakeDoc/chatrelay/internal/logger"
)

// Middleware logs one line per processed update.
func Middleware(log logger.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			start := time.Now()

			next(ctx, b, update)

			updateType, chatID := describe(update)
			log.Debug("telegram_update",
				logger.Int64("update_id", update.ID),
				logger.String("update_type", updateType),
				logger.Int64("chat_id", chatID),
				logger.Duration("duration", time.Since(start)),
			)
		}
	}
}

func describe(update *models.Update) (string, int64) {
	switch {
	case update.Message != nil:
		return "message", update.Message.Chat.ID
	case update.MyChatMember != nil:
		return "my_chat_member", update.MyChatMember.Chat.ID
	case update.CallbackQuery != nil:
		return "callback_query", 0
	default:
		return "other", 0
	}
}
