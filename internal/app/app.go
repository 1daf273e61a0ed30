package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/chatrelay/internal/broadcast"
	"github.com/MrSnakeDoc/chatrelay/internal/config"
	"github.com/MrSnakeDoc/chatrelay/internal/httpserver"
	"github.com/MrSnakeDoc/chatrelay/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chatrelay/internal/logger"
	"github.com/MrSnakeDoc/chatrelay/internal/redis"
	"github.com/MrSnakeDoc/chatrelay/internal/registry"
	"github.com/MrSnakeDoc/chatrelay/internal/store/file"
	redisstore "github.com/MrSnakeDoc/chatrelay/internal/store/redis"
	"github.com/MrSnakeDoc/chatrelay/internal/store/sqlite"
	"github.com/MrSnakeDoc/chatrelay/internal/telegram"
	"github.com/MrSnakeDoc/chatrelay/internal/utils"
	"github.com/MrSnakeDoc/chatrelay/internal/version"
)

// store is a registry backend that holds a resource to release on shutdown.
type store interface {
	registry.Store
	io.Closer
}

type App struct {
	cfg      *config.Config
	logger   logger.Logger
	server   *httpserver.Server
	bot      *telegram.Bot
	store    store
	registry *registry.Registry
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	if cfg.LogLevel == "debug" {
		loggerClient.Debugf("cfg: %+v", cfg.Redacted())
	}

	st, err := openStore(context.Background(), cfg, loggerClient)
	if err != nil {
		return nil, err
	}
	location := storeLocation(st)
	loggerClient.Info("destination store ready",
		logger.String("driver", st.Name()),
		logger.String("location", location))

	reg := registry.New(st, loggerClient)
	reg.Load(context.Background())

	bot, err := telegram.New(telegram.Options{
		Token:          cfg.BotToken,
		Transport:      cfg.Transport,
		PublicURL:      cfg.PublicURL,
		WebhookPath:    cfg.WebhookPath,
		WebhookSecret:  cfg.WebhookSecret,
		WelcomeMessage: cfg.WelcomeMessage,
		Username:       cfg.BotUsername,
	}, reg, loggerClient)
	if err != nil {
		utils.MustClose(st, loggerClient, "store")
		return nil, err
	}

	dispatcher := broadcast.New(bot, reg, telegram.ClassifyError, loggerClient)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		Registry:       reg,
		StoreLocation:  location,
		Dispatcher:     dispatcher,
		Webhook:        bot,
		Transport:      bot.Transport(),
		WebhookPath:    cfg.WebhookPath,
		WebhookHandler: bot.WebhookHandler(),
	}

	if p, ok := st.(deps.Pinger); ok {
		d.StorePinger = p
	}

	return &App{
		cfg:      cfg,
		logger:   loggerClient,
		server:   httpserver.New(cfg.ListenPort, loggerClient, d),
		bot:      bot,
		store:    st,
		registry: reg,
	}, nil
}

// openStore connects the backend selected by StoreDriver.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store, error) {
	switch cfg.StoreDriver {
	case "file":
		st, err := file.NewStore(cfg.StoreFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open file store: %w", err)
		}
		return st, nil

	case "sqlite":
		st, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return st, nil

	case "redis":
		// fail fast if unavailable
		client, err := redis.Connect(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return redisstore.NewStore(client, cfg.RedisKey), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// storeLocation names where the backend keeps the destination set.
func storeLocation(st store) string {
	switch s := st.(type) {
	case *redisstore.Store:
		return s.Key()
	case *file.Store:
		return s.Path()
	case *sqlite.Store:
		return s.Path()
	default:
		return ""
	}
}

func (a *App) Run() error {
	a.logger.Info("starting chatrelay",
		logger.String("version", version.Version),
		logger.String("commit", version.Commit),
		logger.String("built", version.BuildDate),
		logger.String("go", version.GoVersion),
		logger.String("addr", a.cfg.ListenPort),
		logger.String("transport", a.bot.Transport()),
		logger.Int("destinations", a.registry.Count()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.server.Start(); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.bot.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := a.server.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop server: %w", err)
		}
		return nil
	})

	err := g.Wait()
	utils.MustClose(a.store, a.logger, "store")
	_ = a.logger.Sync()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.logger.Info("chatrelay stopped cleanly")
	return nil
}
