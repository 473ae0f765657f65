// Package redis opens Redis clients for the URL store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotDurable = errors.New("redis is not configured with appendfsync always")

type settings struct {
	password     string
	db           int
	dialTimeout  time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
	poolSize     int
}

var defaultSettings = settings{
	dialTimeout:  5 * time.Second,
	readTimeout:  3 * time.Second,
	writeTimeout: 3 * time.Second,
	poolSize:     10,
}

type Option func(*settings)

func WithPassword(password string) Option {
	return func(s *settings) {
		s.password = password
	}
}

func WithDB(db int) Option {
	return func(s *settings) {
		s.db = db
	}
}

func WithDialTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.dialTimeout = d
		}
	}
}

func WithReadTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.readTimeout = d
		}
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

func WithPoolSize(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.poolSize = n
		}
	}
}

func newOptions(addr string, s settings) *redis.Options {
	return &redis.Options{
		Addr:         addr,
		Password:     s.password,
		DB:           s.db,
		DialTimeout:  s.dialTimeout,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
		PoolSize:     s.poolSize,
	}
}

// New connects to addr and pings the server before returning the client.
func New(ctx context.Context, addr string, opts ...Option) (*redis.Client, error) {
	const op = "redis.New"

	s := defaultSettings
	for _, opt := range opts {
		opt(&s)
	}

	client := redis.NewClient(newOptions(addr, s))

	ctx, cancel := context.WithTimeout(ctx, s.dialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%s: failed to ping redis: %w", op, err)
	}

	return client, nil
}

// CheckDurability reports ErrNotDurable unless AOF is enabled with an fsync per write.
func CheckDurability(ctx context.Context, client redis.Cmdable) error {
	const op = "redis.CheckDurability"

	cfg, err := client.ConfigGet(ctx, "append*").Result()
	if err != nil {
		return fmt.Errorf("%s: failed to read server config: %w", op, err)
	}

	if cfg["appendonly"] != "yes" || cfg["appendfsync"] != "always" {
		return fmt.Errorf("%s: %w: appendonly=%q appendfsync=%q",
			op, ErrNotDurable, cfg["appendonly"], cfg["appendfsync"])
	}

	return nil
}
