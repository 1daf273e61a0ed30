package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate clears every variable Load reads so the host environment cannot leak in.
func isolate(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "RELAY_") || strings.HasPrefix(key, "REDIS_") {
			t.Setenv(key, "")
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	t.Setenv("RELAY_BOT_TOKEN", "123:abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %q, want :8080", cfg.ListenPort)
	}
	if cfg.Transport != "polling" {
		t.Errorf("Transport = %q, want polling", cfg.Transport)
	}
	if cfg.StoreDriver != "redis" {
		t.Errorf("StoreDriver = %q, want redis", cfg.StoreDriver)
	}
	if cfg.RedisKey != "chatrelay:destinations" {
		t.Errorf("RedisKey = %q", cfg.RedisKey)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 5s", cfg.ShutdownTimeout)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing bot token",
			env:  map[string]string{},
		},
		{
			name: "webhook without public url",
			env:  map[string]string{"RELAY_BOT_TOKEN": "1:x", "RELAY_TRANSPORT": "webhook"},
		},
		{
			name: "unknown transport",
			env:  map[string]string{"RELAY_BOT_TOKEN": "1:x", "RELAY_TRANSPORT": "smoke-signals"},
		},
		{
			name: "unknown store driver",
			env:  map[string]string{"RELAY_BOT_TOKEN": "1:x", "RELAY_STORE_DRIVER": "etcd"},
		},
		{
			name: "invalid cidr",
			env:  map[string]string{"RELAY_BOT_TOKEN": "1:x", "RELAY_ALLOWED_CIDRS": "10.0.0.0/8, not-an-ip"},
		},
		{
			name: "webhook path without slash",
			env:  map[string]string{"RELAY_BOT_TOKEN": "1:x", "RELAY_WEBHOOK_PATH": "hook"},
		},
		{
			name: "redis password required",
			env:  map[string]string{"RELAY_BOT_TOKEN": "1:x", "RELAY_REDIS_PASSWORD_REQUIRED": "true"},
		},
		{
			name: "bad log level",
			env:  map[string]string{"RELAY_BOT_TOKEN": "1:x", "RELAY_LOG_LEVEL": "verbose"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			if _, err := Load(); err == nil {
				t.Error("Load() expected error")
			}
		})
	}
}

func TestLoadWebhook(t *testing.T) {
	isolate(t)
	t.Setenv("RELAY_BOT_TOKEN", "1:x")
	t.Setenv("RELAY_TRANSPORT", "WEBHOOK")
	t.Setenv("RELAY_PUBLIC_URL", "https://relay.example.com")
	t.Setenv("RELAY_ALLOWED_CIDRS", `"10.0.0.0/8", 127.0.0.1`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Transport != "webhook" {
		t.Errorf("Transport = %q, want webhook", cfg.Transport)
	}
	if len(cfg.AllowedCIDRS) != 2 || cfg.AllowedCIDRS[0] != "10.0.0.0/8" || cfg.AllowedCIDRS[1] != "127.0.0.1" {
		t.Errorf("AllowedCIDRS = %v", cfg.AllowedCIDRS)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "chatrelay.yaml")
	yaml := `
listen_port: ":9090"
bot_token: "from-file"
store_driver: sqlite
sqlite_path: /var/lib/chatrelay/relay.db
shutdown_timeout: 12s
welcome_message: "subscribed"
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("RELAY_CONFIG_FILE", path)
	t.Setenv("RELAY_LISTEN_PORT", ":7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ListenPort != ":7070" {
		t.Errorf("ListenPort = %q, env should win over file", cfg.ListenPort)
	}
	if cfg.BotToken != "from-file" {
		t.Errorf("BotToken = %q, want from-file", cfg.BotToken)
	}
	if cfg.StoreDriver != "sqlite" || cfg.SQLitePath != "/var/lib/chatrelay/relay.db" {
		t.Errorf("store = %s %s", cfg.StoreDriver, cfg.SQLitePath)
	}
	if cfg.ShutdownTimeout != 12*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 12s", cfg.ShutdownTimeout)
	}
	if cfg.WelcomeMessage != "subscribed" {
		t.Errorf("WelcomeMessage = %q", cfg.WelcomeMessage)
	}
}

func TestLoadFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		isolate(t)
		t.Setenv("RELAY_CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
		if _, err := Load(); err == nil {
			t.Error("Load() expected error for missing file")
		}
	})

	t.Run("file driver without path", func(t *testing.T) {
		isolate(t)
		path := filepath.Join(t.TempDir(), "chatrelay.yaml")
		if err := os.WriteFile(path, []byte("bot_token: x\nstore_driver: file\nstore_file: \"\"\n"), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}
		t.Setenv("RELAY_CONFIG_FILE", path)
		if _, err := Load(); err == nil {
			t.Error("Load() expected error for empty store_file")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		isolate(t)
		path := filepath.Join(t.TempDir(), "chatrelay.yaml")
		if err := os.WriteFile(path, []byte("listen_port: [unclosed"), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}
		t.Setenv("RELAY_CONFIG_FILE", path)
		if _, err := Load(); err == nil {
			t.Error("Load() expected error for malformed yaml")
		}
	})
}

func TestRedacted(t *testing.T) {
	cfg := Config{
		BotToken:      "123:secret",
		WebhookSecret: "hook-secret",
		RedisUser:     "relay",
		RedisPassword: "hunter2",
		AllowedCIDRS:  []string{"10.0.0.0/8"},
	}

	r := cfg.Redacted()
	for name, v := range map[string]string{
		"BotToken":      r.BotToken,
		"WebhookSecret": r.WebhookSecret,
		"RedisUser":     r.RedisUser,
		"RedisPassword": r.RedisPassword,
	} {
		if v != redacted {
			t.Errorf("%s = %q, want redacted", name, v)
		}
	}
	if cfg.BotToken != "123:secret" {
		t.Error("Redacted() must not modify the original")
	}

	r.AllowedCIDRS[0] = "0.0.0.0/0"
	if cfg.AllowedCIDRS[0] != "10.0.0.0/8" {
		t.Error("Redacted() must copy AllowedCIDRS")
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{name: "true value", key: "TEST_BOOL", value: "true", def: false, expected: true},
		{name: "false value", key: "TEST_BOOL_FALSE", value: "false", def: true, expected: false},
		{name: "invalid value uses default", key: "TEST_BOOL_INVALID", value: "invalid", def: true, expected: true},
		{name: "missing variable uses default", key: "TEST_BOOL_MISSING", value: "", def: false, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			result := mustBool(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestGetenvInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_INT_INVALID", "forty-two")

	if got := getenvInt("TEST_INT", 1); got != 42 {
		t.Errorf("getenvInt() = %d, want 42", got)
	}
	if got := getenvInt("TEST_INT_INVALID", 7); got != 7 {
		t.Errorf("getenvInt() = %d, want default 7", got)
	}
}
