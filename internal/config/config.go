package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const redacted = "***REDACTED***"

type Config struct {
	ListenPort      string        `yaml:"listen_port" validate:"required"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`

	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn error"`
	PrettyLog bool   `yaml:"pretty_log"` // true => zap dev (color), false => zap prod (JSON)

	// Telegram
	BotToken       string `yaml:"bot_token" validate:"required"`
	Transport      string `yaml:"transport" validate:"oneof=polling webhook"`
	PublicURL      string `yaml:"public_url" validate:"omitempty,url"` // required for webhook transport
	WebhookPath    string `yaml:"webhook_path" validate:"required,startswith=/"`
	WebhookSecret  string `yaml:"webhook_secret"`
	WelcomeMessage string `yaml:"welcome_message"` // reply to /start, empty = no reply
	BotUsername    string `yaml:"bot_username"`    // when set, /start@other_bot is ignored

	// Destination store
	StoreDriver string `yaml:"store_driver" validate:"oneof=redis file sqlite"`
	StoreFile   string `yaml:"store_file" validate:"required_if=StoreDriver file"`
	SQLitePath  string `yaml:"sqlite_path" validate:"required_if=StoreDriver sqlite"`

	// Redis
	RedisAddr             string        `yaml:"redis_addr" validate:"required_if=StoreDriver redis"` // ex: "localhost:6379"
	RedisUser             string        `yaml:"redis_username"`
	RedisPassword         string        `yaml:"redis_password"`
	RedisPasswordRequired bool          `yaml:"redis_password_required"` // true => refuse an empty password
	RedisDB               int           `yaml:"redis_db" validate:"gte=0"`
	RedisKey              string        `yaml:"redis_key" validate:"required_if=StoreDriver redis"`
	RedisDT               time.Duration `yaml:"redis_dial_timeout"`
	RedisRT               time.Duration `yaml:"redis_read_timeout"`
	RedisWT               time.Duration `yaml:"redis_write_timeout"`
	RedisMaxWait          time.Duration `yaml:"redis_max_wait"`
	RedisPingTimeout      time.Duration `yaml:"redis_ping_timeout"`
	RedisPoolSize         int           `yaml:"redis_pool_size"`
	RedisConnectTimeout   time.Duration `yaml:"redis_connect_timeout"`
	RedisRetryInterval    time.Duration `yaml:"redis_retry_interval"`
	RedisWarnThreshold    int           `yaml:"redis_warn_threshold"`

	AllowedCIDRS []string `yaml:"allowed_cidrs" validate:"dive,cidr|ip"` // restricts /healthz, empty = open
	TrustProxy   bool     `yaml:"trust_proxy"`                          // true => trust X-Forwarded-For headers
}

func defaults() *Config {
	return &Config{
		ListenPort:      ":8080",
		ShutdownTimeout: 5 * time.Second,
		LogLevel:        "info",
		PrettyLog:       false,

		Transport:   "polling",
		WebhookPath: "/telegram/webhook",

		StoreDriver: "redis",
		StoreFile:   "/data/destinations.json",
		SQLitePath:  "/data/chatrelay.db",

		RedisAddr:           "localhost:6379",
		RedisUser:           "default",
		RedisKey:            "chatrelay:destinations",
		RedisDT:             5 * time.Second,
		RedisRT:             3 * time.Second,
		RedisWT:             3 * time.Second,
		RedisMaxWait:        10 * time.Second,
		RedisPingTimeout:    5 * time.Second,
		RedisPoolSize:       10,
		RedisConnectTimeout: 30 * time.Second,
		RedisRetryInterval:  2 * time.Second,
		RedisWarnThreshold:  3,

		TrustProxy: false,
	}
}

// Load builds the configuration from defaults, the optional YAML file named by
// RELAY_CONFIG_FILE, then environment variables, in that order of precedence.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("RELAY_CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	// Server settings
	cfg.ListenPort = getenv("RELAY_LISTEN_PORT", cfg.ListenPort)
	cfg.ShutdownTimeout = mustDuration("RELAY_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	// Logging
	cfg.LogLevel = getenv("RELAY_LOG_LEVEL", cfg.LogLevel)
	cfg.PrettyLog = mustBool("RELAY_PRETTY_LOG", cfg.PrettyLog)

	// Telegram
	cfg.BotToken = getenv("RELAY_BOT_TOKEN", cfg.BotToken)
	cfg.Transport = strings.ToLower(getenv("RELAY_TRANSPORT", cfg.Transport))
	cfg.PublicURL = getenv("RELAY_PUBLIC_URL", cfg.PublicURL)
	cfg.WebhookPath = getenv("RELAY_WEBHOOK_PATH", cfg.WebhookPath)
	cfg.WebhookSecret = getenv("RELAY_WEBHOOK_SECRET", cfg.WebhookSecret)
	cfg.WelcomeMessage = getenv("RELAY_WELCOME_MESSAGE", cfg.WelcomeMessage)
	cfg.BotUsername = getenv("RELAY_BOT_USERNAME", cfg.BotUsername)

	// Store
	cfg.StoreDriver = strings.ToLower(getenv("RELAY_STORE_DRIVER", cfg.StoreDriver))
	cfg.StoreFile = getenv("RELAY_STORE_FILE", cfg.StoreFile)
	cfg.SQLitePath = getenv("RELAY_SQLITE_PATH", cfg.SQLitePath)

	// Redis settings
	cfg.RedisAddr = getenv("RELAY_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisUser = getenv("RELAY_REDIS_USERNAME", cfg.RedisUser)
	cfg.RedisPassword = getenv("RELAY_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisPasswordRequired = mustBool("RELAY_REDIS_PASSWORD_REQUIRED", cfg.RedisPasswordRequired)
	cfg.RedisDB = getenvInt("RELAY_REDIS_DB", cfg.RedisDB)
	cfg.RedisKey = getenv("RELAY_REDIS_KEY", cfg.RedisKey)
	cfg.RedisDT = mustDuration("REDIS_DIAL_TIMEOUT", cfg.RedisDT)
	cfg.RedisRT = mustDuration("REDIS_READ_TIMEOUT", cfg.RedisRT)
	cfg.RedisWT = mustDuration("REDIS_WRITE_TIMEOUT", cfg.RedisWT)
	cfg.RedisMaxWait = mustDuration("REDIS_MAX_WAIT", cfg.RedisMaxWait)
	cfg.RedisPingTimeout = mustDuration("REDIS_PING_TIMEOUT", cfg.RedisPingTimeout)
	cfg.RedisPoolSize = getenvInt("REDIS_POOL_SIZE", cfg.RedisPoolSize)
	cfg.RedisConnectTimeout = mustDuration("REDIS_CONNECT_TIMEOUT", cfg.RedisConnectTimeout)
	cfg.RedisRetryInterval = mustDuration("REDIS_RETRY_INTERVAL", cfg.RedisRetryInterval)
	cfg.RedisWarnThreshold = getenvInt("REDIS_WARN_THRESHOLD", cfg.RedisWarnThreshold)

	// Access restrictions
	if v := os.Getenv("RELAY_ALLOWED_CIDRS"); v != "" {
		cfg.AllowedCIDRS = parseAllowedIPs(v)
	}
	cfg.TrustProxy = mustBool("RELAY_TRUST_PROXY", cfg.TrustProxy)
}

// Validate checks struct tags and the rules that span several fields.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Transport == "webhook" && c.PublicURL == "" {
		return errors.New("invalid configuration: RELAY_PUBLIC_URL is required when RELAY_TRANSPORT=webhook")
	}
	if c.StoreDriver == "redis" && c.RedisPasswordRequired && c.RedisPassword == "" {
		return errors.New("invalid configuration: RELAY_REDIS_PASSWORD is required when RELAY_REDIS_PASSWORD_REQUIRED=true")
	}
	return nil
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	c.AllowedCIDRS = append([]string(nil), c.AllowedCIDRS...)
	if c.BotToken != "" {
		c.BotToken = redacted
	}
	if c.WebhookSecret != "" {
		c.WebhookSecret = redacted
	}
	if c.RedisPassword != "" {
		c.RedisPassword = redacted
	}
	if c.RedisUser != "" {
		c.RedisUser = redacted
	}
	return c
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
