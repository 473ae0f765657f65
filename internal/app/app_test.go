package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadimbarashkov/shortlink/internal/adapter/repository/memory"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

func TestOpenStore(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("memory", func(t *testing.T) {
		cfg := &config.Config{Storage: config.Storage{Driver: config.DriverMemory}}

		repo, closeStore, err := openStore(context.Background(), cfg, logger)

		require.NoError(t, err)
		assert.IsType(t, &memory.URLRepository{}, repo)
		assert.NoError(t, closeStore())

		_, err = repo.InsertIfAbsent(context.Background(), &entity.URL{
			ShortCode:   "abc",
			OriginalURL: "https://example.com",
			CreatedAt:   time.Now(),
		})
		assert.NoError(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := &config.Config{Storage: config.Storage{Driver: "mongo"}}

		repo, closeStore, err := openStore(context.Background(), cfg, logger)

		assert.ErrorIs(t, err, config.ErrUnknownDriver)
		assert.Nil(t, repo)
		assert.Nil(t, closeStore)
	})
}

func TestRun(t *testing.T) {
	t.Run("invalid qr recovery level", func(t *testing.T) {
		cfg := &config.Config{
			Storage: config.Storage{Driver: config.DriverMemory},
			QRCode:  config.QRCode{RecoveryLevel: "extreme"},
			Log:     config.Log{Level: "error"},
		}

		err := Run(context.Background(), cfg)

		assert.Error(t, err)
	})

	t.Run("stops on cancel", func(t *testing.T) {
		cfg := &config.Config{
			Storage:    config.Storage{Driver: config.DriverMemory},
			HTTPServer: config.HTTPServer{Port: 0},
			QRCode:     config.QRCode{Size: 64, RecoveryLevel: "low"},
			Log:        config.Log{Level: "error"},
		}

		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() {
			done <- Run(ctx, cfg)
		}()

		time.Sleep(100 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("server did not stop")
		}
	})
}
