package telegram

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/MrSnakeDoc/chatrelay/internal/logger"
)

const startCommand = "start"

func registerHandlers(b *Bot) {
	b.api.RegisterHandlerMatchFunc(b.isStart, b.handleStart)
	b.api.RegisterHandlerMatchFunc(isMembersAdded, b.handleMembersAdded)
	b.api.RegisterHandlerMatchFunc(isMigratedFrom, b.handleMigratedFrom)
}

// isStart matches "/start" and "/start@botname" sent as a bot command at the
// start of the message. With a configured username, commands addressed to
// another bot are ignored.
func (b *Bot) isStart(update *models.Update) bool {
	msg := update.Message
	if msg == nil {
		return false
	}
	for _, e := range msg.Entities {
		if e.Type != models.MessageEntityTypeBotCommand || e.Offset != 0 {
			continue
		}
		cmd, target := parseCommand(msg.Text, e.Length)
		if cmd != startCommand {
			return false
		}
		return target == "" || b.opts.Username == "" ||
			strings.EqualFold(target, strings.TrimPrefix(b.opts.Username, "@"))
	}
	return false
}

// parseCommand splits the leading "/cmd@target" of text. length is the
// entity length in UTF-16 units; commands are ASCII so it equals bytes.
func parseCommand(text string, length int) (cmd, target string) {
	if length > len(text) {
		length = len(text)
	}
	raw := strings.TrimPrefix(text[:length], "/")
	cmd, target, _ = strings.Cut(raw, "@")
	return strings.ToLower(cmd), target
}

// isMembersAdded matches service messages announcing new chat members,
// which is how Telegram reports the bot being added to a group.
func isMembersAdded(update *models.Update) bool {
	return update.Message != nil && len(update.Message.NewChatMembers) > 0
}

// isMigratedFrom matches the service message posted in a supergroup created
// by upgrading a group.
func isMigratedFrom(update *models.Update) bool {
	return update.Message != nil && update.Message.MigrateFromChatID != 0
}

func (b *Bot) handleStart(ctx context.Context, api *bot.Bot, update *models.Update) {
	msg := update.Message
	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	added := b.registrar.Add(ctx, chatID, string(msg.Chat.Type))
	b.log.Info("handled /start",
		logger.String("chat_id", chatID),
		logger.String("kind", string(msg.Chat.Type)),
		logger.Bool("added", added))

	if b.opts.WelcomeMessage == "" {
		return
	}
	if _, err := api.SendMessage(ctx, &bot.SendMessageParams{ChatID: msg.Chat.ID, Text: b.opts.WelcomeMessage}); err != nil {
		b.log.Warn("failed to send welcome message", logger.String("chat_id", chatID), logger.Error(err))
	}
}

func (b *Bot) handleMembersAdded(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	chatID := strconv.FormatInt(msg.Chat.ID, 10)

	added := b.registrar.Add(ctx, chatID, string(msg.Chat.Type))
	b.log.Info("handled members added",
		logger.String("chat_id", chatID),
		logger.String("kind", string(msg.Chat.Type)),
		logger.Int("members", len(msg.NewChatMembers)),
		logger.Bool("added", added))
}

func (b *Bot) handleMigratedFrom(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	oldID := strconv.FormatInt(msg.MigrateFromChatID, 10)
	newID := strconv.FormatInt(msg.Chat.ID, 10)

	moved := b.registrar.Replace(ctx, oldID, newID)
	b.log.Info("handled group migration",
		logger.String("from", oldID),
		logger.String("to", newID),
		logger.Bool("moved", moved))
}

func (b *Bot) handleDefault(_ context.Context, _ *bot.Bot, update *models.Update) {
	b.log.Debug("ignoring update", logger.Int64("update_id", update.ID))
}
