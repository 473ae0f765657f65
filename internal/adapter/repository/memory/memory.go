// Package memory implements the URL store as a process-local map.
//
// Records do not survive a restart, so the store is meant for local
// development and tests only.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type URLRepository struct {
	mu   sync.RWMutex
	urls map[string]*entity.URL
}

func NewURLRepository() *URLRepository {
	return &URLRepository{
		urls: make(map[string]*entity.URL),
	}
}

func clone(url *entity.URL) *entity.URL {
	c := *url
	return &c
}

func (r *URLRepository) InsertIfAbsent(ctx context.Context, url *entity.URL) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.InsertIfAbsent"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.urls[url.ShortCode]; ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
	}

	rec := clone(url)
	rec.Clicks = 0
	r.urls[rec.ShortCode] = rec

	return clone(rec), nil
}

func (r *URLRepository) Get(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.Get"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.urls[shortCode]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	return clone(rec), nil
}

func (r *URLRepository) IncrementClicks(ctx context.Context, shortCode string) (int64, error) {
	const op = "adapter.repository.memory.URLRepository.IncrementClicks"

	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.urls[shortCode]
	if !ok {
		return 0, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	rec.Clicks++

	return rec.Clicks, nil
}

func (r *URLRepository) Delete(ctx context.Context, shortCode string) error {
	const op = "adapter.repository.memory.URLRepository.Delete"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.urls[shortCode]; !ok {
		return fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	delete(r.urls, shortCode)

	return nil
}

func (r *URLRepository) ListAll(ctx context.Context, limit int) ([]*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.ListAll"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.RLock()
	urls := make([]*entity.URL, 0, len(r.urls))
	for _, rec := range r.urls {
		urls = append(urls, clone(rec))
	}
	r.mu.RUnlock()

	sort.Slice(urls, func(i, j int) bool {
		if !urls[i].CreatedAt.Equal(urls[j].CreatedAt) {
			return urls[i].CreatedAt.After(urls[j].CreatedAt)
		}
		return urls[i].ShortCode < urls[j].ShortCode
	})

	if limit > 0 && len(urls) > limit {
		urls = urls[:limit]
	}

	return urls, nil
}
