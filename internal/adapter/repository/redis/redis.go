// Package redis implements the URL store on top of Redis.
//
// Every URL is a hash under "<prefix>url:<code>" and a member of the sorted
// set "<prefix>urls" scored by its creation time in microseconds. Atomic
// check-and-set and guarded increments are Lua scripts, so the server runs
// them without interleaving. Run Redis with appendfsync always for writes to
// be durable once acknowledged.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const DefaultKeyPrefix = "shortlink:"

const (
	fieldOriginalURL = "original_url"
	fieldClicks      = "clicks"
	fieldCreatedAt   = "created_at"
	fieldIsCustom    = "is_custom"
)

var insertIfAbsentScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1], 'original_url', ARGV[1], 'clicks', 0, 'created_at', ARGV[2], 'is_custom', ARGV[3])
redis.call('ZADD', KEYS[2], ARGV[4], ARGV[5])
return 1
`)

var incrementClicksScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
return redis.call('HINCRBY', KEYS[1], 'clicks', 1)
`)

var errMalformedRecord = errors.New("malformed url record")

type URLRepository struct {
	client    redis.UniversalClient
	keyPrefix string
}

func NewURLRepository(client redis.UniversalClient, keyPrefix string) *URLRepository {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}

	return &URLRepository{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (r *URLRepository) urlKey(shortCode string) string {
	return r.keyPrefix + "url:" + shortCode
}

func (r *URLRepository) indexKey() string {
	return r.keyPrefix + "urls"
}

func (r *URLRepository) InsertIfAbsent(ctx context.Context, url *entity.URL) (*entity.URL, error) {
	const op = "adapter.repository.redis.URLRepository.InsertIfAbsent"

	createdAt := url.CreatedAt.UTC()

	inserted, err := insertIfAbsentScript.Run(ctx, r.client,
		[]string{r.urlKey(url.ShortCode), r.indexKey()},
		url.OriginalURL,
		createdAt.Format(time.RFC3339Nano),
		formatBool(url.IsCustom),
		createdAt.UnixMicro(),
		url.ShortCode,
	).Int64()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to run insert script: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	if inserted == 0 {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
	}

	return &entity.URL{
		ShortCode:   url.ShortCode,
		OriginalURL: url.OriginalURL,
		CreatedAt:   createdAt,
		IsCustom:    url.IsCustom,
	}, nil
}

func (r *URLRepository) Get(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.redis.URLRepository.Get"

	fields, err := r.client.HGetAll(ctx, r.urlKey(shortCode)).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read url hash: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	url, err := decodeURL(shortCode, fields)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	return url, nil
}

func (r *URLRepository) IncrementClicks(ctx context.Context, shortCode string) (int64, error) {
	const op = "adapter.repository.redis.URLRepository.IncrementClicks"

	clicks, err := incrementClicksScript.Run(ctx, r.client, []string{r.urlKey(shortCode)}).Int64()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to run increment script: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	if clicks < 0 {
		return 0, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	return clicks, nil
}

// Delete removes the hash and its index entry in one MULTI/EXEC transaction.
func (r *URLRepository) Delete(ctx context.Context, shortCode string) error {
	const op = "adapter.repository.redis.URLRepository.Delete"

	var del *redis.IntCmd

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, r.urlKey(shortCode))
		pipe.ZRem(ctx, r.indexKey(), shortCode)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: failed to delete url: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	if del.Val() == 0 {
		return fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	return nil
}

func (r *URLRepository) ListAll(ctx context.Context, limit int) ([]*entity.URL, error) {
	const op = "adapter.repository.redis.URLRepository.ListAll"

	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	codes, err := r.client.ZRevRange(ctx, r.indexKey(), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read url index: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	if len(codes) == 0 {
		return []*entity.URL{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(codes))

	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, code := range codes {
			cmds[i] = pipe.HGetAll(ctx, r.urlKey(code))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read url hashes: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	urls := make([]*entity.URL, 0, len(codes))
	for i, code := range codes {
		fields := cmds[i].Val()
		// Deleted between the index read and the pipeline.
		if len(fields) == 0 {
			continue
		}

		url, err := decodeURL(code, fields)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, entity.ErrStoreUnavailable, err)
		}

		urls = append(urls, url)
	}

	sort.SliceStable(urls, func(i, j int) bool {
		if !urls[i].CreatedAt.Equal(urls[j].CreatedAt) {
			return urls[i].CreatedAt.After(urls[j].CreatedAt)
		}
		return urls[i].ShortCode < urls[j].ShortCode
	})

	return urls, nil
}

func decodeURL(shortCode string, fields map[string]string) (*entity.URL, error) {
	originalURL, ok := fields[fieldOriginalURL]
	if !ok {
		return nil, fmt.Errorf("%w: %s: missing %s", errMalformedRecord, shortCode, fieldOriginalURL)
	}

	clicks, err := strconv.ParseInt(fields[fieldClicks], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s: %w", errMalformedRecord, shortCode, fieldClicks, err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, fields[fieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s: %w", errMalformedRecord, shortCode, fieldCreatedAt, err)
	}

	return &entity.URL{
		ShortCode:   shortCode,
		OriginalURL: originalURL,
		Clicks:      clicks,
		CreatedAt:   createdAt,
		IsCustom:    fields[fieldIsCustom] == "1",
	}, nil
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
