package http

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

// MockUrlUseCase is a testify mock of the use case consumed by the HTTP handlers.
type MockUrlUseCase struct {
	mock.Mock
}

func (m *MockUrlUseCase) ShortenURL(ctx context.Context, originalURL, customCode string) (*entity.ShortenedURL, error) {
	args := m.Called(ctx, originalURL, customCode)
	url, _ := args.Get(0).(*entity.ShortenedURL)
	return url, args.Error(1)
}

func (m *MockUrlUseCase) ResolveShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	args := m.Called(ctx, shortCode)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}

func (m *MockUrlUseCase) DeleteURL(ctx context.Context, shortCode string) error {
	args := m.Called(ctx, shortCode)
	return args.Error(0)
}

func (m *MockUrlUseCase) ListURLs(ctx context.Context) ([]*entity.ShortenedURL, error) {
	args := m.Called(ctx)
	urls, _ := args.Get(0).([]*entity.ShortenedURL)
	return urls, args.Error(1)
}

func (m *MockUrlUseCase) GetURLStats(ctx context.Context, shortCode string) (*entity.URL, error) {
	args := m.Called(ctx, shortCode)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}

func (m *MockUrlUseCase) QRCode(ctx context.Context, shortCode string) ([]byte, error) {
	args := m.Called(ctx, shortCode)
	png, _ := args.Get(0).([]byte)
	return png, args.Error(1)
}

// NewMockUrlUseCase creates a new MockUrlUseCase and asserts its expectations on cleanup.
func NewMockUrlUseCase(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUrlUseCase {
	m := &MockUrlUseCase{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
