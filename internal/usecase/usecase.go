package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const (
	DefaultMaxRetries = 5
	DefaultListLimit  = 1000
	MaxURLLength      = 2048
)

const qrWarning = "qr code generation failed"

var urlPattern = regexp.MustCompile(`^https?://.+`)

type urlRepository interface {
	InsertIfAbsent(ctx context.Context, url *entity.URL) (*entity.URL, error)
	Get(ctx context.Context, shortCode string) (*entity.URL, error)
	IncrementClicks(ctx context.Context, shortCode string) (int64, error)
	Delete(ctx context.Context, shortCode string) error
	ListAll(ctx context.Context, limit int) ([]*entity.URL, error)
}

type codeGenerator interface {
	Generate() (string, error)
	ValidateCustom(code string) error
}

type qrEncoder interface {
	Encode(text string) (string, error)
	PNG(text string) ([]byte, error)
}

type Option func(*URLUseCase)

// WithBaseURL sets the prefix short codes are joined to.
func WithBaseURL(baseURL string) Option {
	return func(uc *URLUseCase) {
		uc.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithMaxRetries bounds the generate and insert attempts for a generated code.
func WithMaxRetries(n int) Option {
	return func(uc *URLUseCase) {
		if n > 0 {
			uc.maxRetries = n
		}
	}
}

// WithListLimit caps ListURLs. A non-positive limit lists everything.
func WithListLimit(limit int) Option {
	return func(uc *URLUseCase) {
		uc.listLimit = limit
	}
}

func WithClock(now func() time.Time) Option {
	return func(uc *URLUseCase) {
		uc.now = now
	}
}

type URLUseCase struct {
	urlRepo    urlRepository
	generator  codeGenerator
	qr         qrEncoder
	logger     *slog.Logger
	baseURL    string
	maxRetries int
	listLimit  int
	now        func() time.Time
}

func New(urlRepo urlRepository, generator codeGenerator, qr qrEncoder, logger *slog.Logger, opts ...Option) *URLUseCase {
	if logger == nil {
		logger = slog.Default()
	}

	uc := &URLUseCase{
		urlRepo:    urlRepo,
		generator:  generator,
		qr:         qr,
		logger:     logger,
		maxRetries: DefaultMaxRetries,
		listLimit:  DefaultListLimit,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

func (uc *URLUseCase) shortURL(shortCode string) string {
	return uc.baseURL + "/" + shortCode
}

func validateOriginalURL(originalURL string) error {
	if len(originalURL) > MaxURLLength {
		return fmt.Errorf("%w: longer than %d characters", entity.ErrInvalidURL, MaxURLLength)
	}

	if !urlPattern.MatchString(originalURL) {
		return fmt.Errorf("%w: must start with http:// or https://", entity.ErrInvalidURL)
	}

	return nil
}

// ShortenURL stores originalURL under customCode, or under a generated code
// when customCode is empty. A taken custom code is never overwritten.
func (uc *URLUseCase) ShortenURL(ctx context.Context, originalURL, customCode string) (*entity.ShortenedURL, error) {
	const op = "usecase.URLUseCase.ShortenURL"

	originalURL = strings.TrimSpace(originalURL)
	if err := validateOriginalURL(originalURL); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var (
		url *entity.URL
		err error
	)

	if customCode != "" {
		url, err = uc.insertCustom(ctx, originalURL, customCode)
	} else {
		url, err = uc.insertGenerated(ctx, originalURL)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	shortened := &entity.ShortenedURL{
		URL:      *url,
		ShortURL: uc.shortURL(url.ShortCode),
	}

	qrCode, err := uc.qr.Encode(shortened.ShortURL)
	if err != nil {
		uc.logger.WarnContext(ctx, qrWarning,
			slog.String("short_code", url.ShortCode),
			slog.Any("err", err),
		)
		shortened.Warnings = append(shortened.Warnings, qrWarning)
	} else {
		shortened.QRCode = qrCode
	}

	return shortened, nil
}

func (uc *URLUseCase) insertCustom(ctx context.Context, originalURL, customCode string) (*entity.URL, error) {
	if err := uc.generator.ValidateCustom(customCode); err != nil {
		return nil, err
	}

	url, err := uc.urlRepo.InsertIfAbsent(ctx, &entity.URL{
		ShortCode:   customCode,
		OriginalURL: originalURL,
		CreatedAt:   uc.now().UTC(),
		IsCustom:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save url: %w", err)
	}

	return url, nil
}

func (uc *URLUseCase) insertGenerated(ctx context.Context, originalURL string) (*entity.URL, error) {
	for i := 0; i < uc.maxRetries; i++ {
		shortCode, err := uc.generator.Generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate short code: %w", err)
		}

		url, err := uc.urlRepo.InsertIfAbsent(ctx, &entity.URL{
			ShortCode:   shortCode,
			OriginalURL: originalURL,
			CreatedAt:   uc.now().UTC(),
		})
		if err != nil {
			if errors.Is(err, entity.ErrShortCodeExists) {
				uc.logger.DebugContext(ctx, "generated short code collided", slog.String("short_code", shortCode))
				continue
			}

			return nil, fmt.Errorf("failed to save url: %w", err)
		}

		return url, nil
	}

	uc.logger.WarnContext(ctx, "no free short code found", slog.Int("attempts", uc.maxRetries))

	return nil, entity.ErrCodeSpaceExhausted
}

// ResolveShortCode returns the URL stored under shortCode and counts the visit.
func (uc *URLUseCase) ResolveShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ResolveShortCode"

	url, err := uc.urlRepo.Get(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	clicks, err := uc.urlRepo.IncrementClicks(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to count click: %w", op, err)
	}

	url.Clicks = clicks

	return url, nil
}

func (uc *URLUseCase) DeleteURL(ctx context.Context, shortCode string) error {
	const op = "usecase.URLUseCase.DeleteURL"

	if err := uc.urlRepo.Delete(ctx, shortCode); err != nil {
		return fmt.Errorf("%s: failed to delete url: %w", op, err)
	}

	return nil
}

// ListURLs returns the newest URLs first. QR codes are not rendered.
func (uc *URLUseCase) ListURLs(ctx context.Context) ([]*entity.ShortenedURL, error) {
	const op = "usecase.URLUseCase.ListURLs"

	urls, err := uc.urlRepo.ListAll(ctx, uc.listLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list urls: %w", op, err)
	}

	shortened := make([]*entity.ShortenedURL, 0, len(urls))
	for _, url := range urls {
		shortened = append(shortened, &entity.ShortenedURL{
			URL:      *url,
			ShortURL: uc.shortURL(url.ShortCode),
		})
	}

	return shortened, nil
}

func (uc *URLUseCase) GetURLStats(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.GetURLStats"

	url, err := uc.urlRepo.Get(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url stats: %w", op, err)
	}

	return url, nil
}

// QRCode renders the PNG QR image of the short URL for shortCode.
func (uc *URLUseCase) QRCode(ctx context.Context, shortCode string) ([]byte, error) {
	const op = "usecase.URLUseCase.QRCode"

	url, err := uc.urlRepo.Get(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url: %w", op, err)
	}

	png, err := uc.qr.PNG(uc.shortURL(url.ShortCode))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return png, nil
}
