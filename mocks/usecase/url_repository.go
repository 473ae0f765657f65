package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

// MockUrlRepository is a testify mock of the use case URL repository.
type MockUrlRepository struct {
	mock.Mock
}

func (m *MockUrlRepository) InsertIfAbsent(ctx context.Context, url *entity.URL) (*entity.URL, error) {
	args := m.Called(ctx, url)
	res, _ := args.Get(0).(*entity.URL)
	return res, args.Error(1)
}

func (m *MockUrlRepository) Get(ctx context.Context, shortCode string) (*entity.URL, error) {
	args := m.Called(ctx, shortCode)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}

func (m *MockUrlRepository) IncrementClicks(ctx context.Context, shortCode string) (int64, error) {
	args := m.Called(ctx, shortCode)
	clicks, _ := args.Get(0).(int64)
	return clicks, args.Error(1)
}

func (m *MockUrlRepository) Delete(ctx context.Context, shortCode string) error {
	args := m.Called(ctx, shortCode)
	return args.Error(0)
}

func (m *MockUrlRepository) ListAll(ctx context.Context, limit int) ([]*entity.URL, error) {
	args := m.Called(ctx, limit)
	urls, _ := args.Get(0).([]*entity.URL)
	return urls, args.Error(1)
}

// NewMockUrlRepository creates a new MockUrlRepository and asserts its expectations on cleanup.
func NewMockUrlRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUrlRepository {
	m := &MockUrlRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
