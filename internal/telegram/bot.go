// Package telegram connects the relay to the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"

	"github.com/MrSnakeDoc/chatrelay/internal/logger"
)

const (
	TransportPolling = "polling"
	TransportWebhook = "webhook"
)

// Registrar records chats that ask to receive broadcasts.
type Registrar interface {
	Add(ctx context.Context, id, kind string) bool
	// Replace moves a registration when a group is upgraded to a supergroup.
	Replace(ctx context.Context, oldID, newID string) bool
}

// Options configures the bot.
type Options struct {
	Token          string
	Transport      string // polling | webhook
	PublicURL      string // ex: https://relay.example.com
	WebhookPath    string // ex: /telegram/webhook
	WebhookSecret  string // optional X-Telegram-Bot-Api-Secret-Token
	WelcomeMessage string // reply to /start, empty = no reply
	Username       string // bot username; when set, /start@other_bot is ignored
	ServerURL      string // Bot API base URL override (local bot API server, tests)
	SkipGetMe      bool   // do not call getMe on startup
	SyncHandlers   bool   // run handlers on the receiving goroutine
}

// Bot wraps the go-telegram client with the relay's handlers.
type Bot struct {
	api       *bot.Bot
	opts      Options
	registrar Registrar
	log       logger.Logger
}

// New creates the client and registers the registration handlers.
func New(opts Options, registrar Registrar, log logger.Logger) (*Bot, error) {
	if opts.Token == "" {
		return nil, errors.New("telegram bot token cannot be empty")
	}
	if opts.Transport == "" {
		opts.Transport = TransportPolling
	}
	if opts.Transport != TransportPolling && opts.Transport != TransportWebhook {
		return nil, fmt.Errorf("unknown telegram transport %q", opts.Transport)
	}

	b := &Bot{
		opts:      opts,
		registrar: registrar,
		log:       log.With(logger.String("component", "telegram")),
	}

	botOpts := []bot.Option{
		bot.WithMiddlewares(Middleware(b.log)),
		bot.WithDefaultHandler(b.handleDefault),
		bot.WithErrorsHandler(func(err error) {
			b.log.Warn("telegram client error", logger.Error(err))
		}),
	}
	if opts.ServerURL != "" {
		botOpts = append(botOpts, bot.WithServerURL(opts.ServerURL))
	}
	if opts.SkipGetMe {
		botOpts = append(botOpts, bot.WithSkipGetMe())
	}
	if opts.SyncHandlers {
		botOpts = append(botOpts, bot.WithNotAsyncHandlers())
	}
	if opts.WebhookSecret != "" {
		botOpts = append(botOpts, bot.WithWebhookSecretToken(opts.WebhookSecret))
	}

	api, err := bot.New(opts.Token, botOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	b.api = api

	registerHandlers(b)

	b.log.Info("telegram bot created", logger.String("transport", opts.Transport))
	return b, nil
}

// Transport returns the configured update transport.
func (b *Bot) Transport() string { return b.opts.Transport }

// Run consumes updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	switch b.opts.Transport {
	case TransportWebhook:
		b.log.Info("waiting for webhook updates", logger.String("path", b.opts.WebhookPath))
		b.api.StartWebhook(ctx)
	default:
		// getUpdates is refused while a webhook is set
		if _, err := b.api.DeleteWebhook(ctx, &bot.DeleteWebhookParams{}); err != nil {
			b.log.Warn("failed to delete webhook before polling", logger.Error(err))
		}
		b.log.Info("polling for updates")
		b.api.Start(ctx)
	}

	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	b.log.Info("telegram update loop stopped")
	return nil
}

// WebhookHandler returns the update intake handler, or nil when polling.
func (b *Bot) WebhookHandler() http.Handler {
	if b.opts.Transport != TransportWebhook {
		return nil
	}
	return b.api.WebhookHandler()
}

// WebhookURL is the public URL Telegram should post updates to.
func (b *Bot) WebhookURL() string {
	if b.opts.PublicURL == "" {
		return ""
	}
	return strings.TrimRight(b.opts.PublicURL, "/") + b.opts.WebhookPath
}

// SetWebhook registers WebhookURL with Telegram.
func (b *Bot) SetWebhook(ctx context.Context) error {
	url := b.WebhookURL()
	if url == "" {
		return errors.New("public URL is not configured")
	}

	ok, err := b.api.SetWebhook(ctx, &bot.SetWebhookParams{
		URL:         url,
		SecretToken: b.opts.WebhookSecret,
	})
	if err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	if !ok {
		return fmt.Errorf("telegram refused webhook %s", url)
	}

	b.log.Info("webhook registered", logger.String("url", url))
	return nil
}

// SendText sends a plain text message. Numeric ids are sent as integers,
// anything else (ex: @channelname) as-is.
// A group upgraded to a supergroup is re-registered under its new id and
// the message is sent there once.
func (b *Bot) SendText(ctx context.Context, chatID, text string) error {
	err := b.send(ctx, chatTarget(chatID), text)

	var migrated *bot.MigrateError
	if !errors.As(err, &migrated) || migrated.MigrateToChatID == 0 {
		return err
	}

	newID := strconv.Itoa(migrated.MigrateToChatID)
	b.registrar.Replace(ctx, chatID, newID)
	b.log.Info("chat migrated to supergroup, resending",
		logger.String("from", chatID),
		logger.String("to", newID))
	return b.send(ctx, int64(migrated.MigrateToChatID), text)
}

func (b *Bot) send(ctx context.Context, chatID any, text string) error {
	_, err := b.api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	return err
}

func chatTarget(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}
