package deps

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/chatrelay/internal/domain"
	"github.com/MrSnakeDoc/chatrelay/internal/logger"
)

// Registry is the read side of the chat registry.
type Registry interface {
	List() []string
	Destinations() []domain.Destination
	LastChange() time.Time
	StoreName() string
}

// Dispatcher delivers one message to a list of destinations.
type Dispatcher interface {
	SendAll(ctx context.Context, message string, ids []string) domain.BroadcastResult
}

// Webhook registers the relay's public webhook URL with Telegram.
type Webhook interface {
	SetWebhook(ctx context.Context) error
}

// Pinger is implemented by stores that can check their backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time // for testing, defaults to time.Now
	AllowedCIDRS   []string         // IPs allowed to access /healthz
	TrustProxy     bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	Registry       Registry
	StorePinger    Pinger // optional, reported by /healthz
	StoreLocation  string // redis key or file path, reported by /healthz
	Dispatcher     Dispatcher
	Webhook        Webhook
	Transport      string       // polling | webhook
	WebhookPath    string       // path Telegram posts updates to
	WebhookHandler http.Handler // nil when polling
}

// Now returns the current time using TimeNow when set.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
