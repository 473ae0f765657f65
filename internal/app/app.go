package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"

	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/shortlink/internal/adapter/qrcode"
	"github.com/vadimbarashkov/shortlink/internal/adapter/repository/memory"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/shortcode"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
	"github.com/vadimbarashkov/shortlink/migrations"
	"github.com/vadimbarashkov/shortlink/pkg/postgres"
	"github.com/vadimbarashkov/shortlink/pkg/redis"
	"golang.org/x/sync/errgroup"

	delivery "github.com/vadimbarashkov/shortlink/internal/adapter/delivery/http"
	pgrepo "github.com/vadimbarashkov/shortlink/internal/adapter/repository/postgres"
	redisrepo "github.com/vadimbarashkov/shortlink/internal/adapter/repository/redis"
)

const serviceName = "url-shortener"

type urlRepository interface {
	InsertIfAbsent(ctx context.Context, url *entity.URL) (*entity.URL, error)
	Get(ctx context.Context, shortCode string) (*entity.URL, error)
	IncrementClicks(ctx context.Context, shortCode string) (int64, error)
	Delete(ctx context.Context, shortCode string) error
	ListAll(ctx context.Context, limit int) ([]*entity.URL, error)
}

// NewLogger builds the service logger from the log section of the config.
func NewLogger(cfg *config.Config) *httplog.Logger {
	return httplog.NewLogger(serviceName, httplog.Options{
		JSON:     cfg.Log.JSON,
		LogLevel: cfg.Log.SlogLevel(),
		Concise:  cfg.Log.Concise,
		Tags: map[string]string{
			"env": cfg.Env,
		},
		Writer: os.Stdout,
	})
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (urlRepository, func() error, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if err := postgres.RunMigrations(migrations.FS, cfg.Postgres.DSN()); err != nil {
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		db, err := postgres.New(
			ctx,
			cfg.Postgres.DSN(),
			postgres.WithConnectTimeout(cfg.Postgres.ConnectTimeout),
			postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
			postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
			postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
			postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		return pgrepo.NewURLRepository(db), db.Close, nil

	case config.DriverRedis:
		client, err := redis.New(
			ctx,
			cfg.Redis.Addr,
			redis.WithPassword(cfg.Redis.Password),
			redis.WithDB(cfg.Redis.DB),
			redis.WithDialTimeout(cfg.Redis.DialTimeout),
			redis.WithReadTimeout(cfg.Redis.ReadTimeout),
			redis.WithWriteTimeout(cfg.Redis.WriteTimeout),
			redis.WithPoolSize(cfg.Redis.PoolSize),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		if err := redis.CheckDurability(ctx, client); err != nil {
			logger.WarnContext(ctx, "redis writes may be lost on crash", slog.Any("err", err))
		}

		return redisrepo.NewURLRepository(client, cfg.Redis.KeyPrefix), client.Close, nil

	case config.DriverMemory:
		logger.WarnContext(ctx, "using in-memory storage, urls will not survive a restart")

		return memory.NewURLRepository(), func() error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.Storage.Driver)
	}
}

// newHandler assembles the use case over urlRepo and mounts it on the router.
func newHandler(cfg *config.Config, logger *httplog.Logger, urlRepo urlRepository) (http.Handler, error) {
	level, err := qrcode.ParseRecoveryLevel(cfg.QRCode.RecoveryLevel)
	if err != nil {
		return nil, err
	}

	urlUseCase := usecase.New(
		urlRepo,
		shortcode.New(shortcode.WithLength(cfg.ShortCode.Length)),
		qrcode.New(cfg.QRCode.Size, level),
		logger.Logger,
		usecase.WithBaseURL(cfg.BaseURL),
		usecase.WithMaxRetries(cfg.ShortCode.MaxRetries),
		usecase.WithListLimit(cfg.ListLimit),
	)

	return delivery.NewRouter(logger, urlUseCase), nil
}

func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := NewLogger(cfg)

	urlRepo, closeStore, err := openStore(ctx, cfg, logger.Logger)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer closeStore()

	handler, err := newHandler(cfg, logger, urlRepo)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        handler,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.InfoContext(ctx, "starting server",
			slog.String("addr", server.Addr),
			slog.String("storage", cfg.Storage.Driver),
		)

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		logger.InfoContext(ctx, "shutting down server")

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}
