// Package entity defines the entities and errors used in the application.
// It includes the URL struct, which represents a shortened URL, along with its
// associated metadata, and the error kinds shared by every layer.
package entity

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrValidation is the root of all errors caused by malformed user input.
	ErrValidation = errors.New("validation error")
	// ErrInvalidURL is returned when the original URL is not an absolute http(s) URL.
	ErrInvalidURL = fmt.Errorf("%w: invalid original url", ErrValidation)
	// ErrInvalidShortCode is returned when a custom short code is empty, too long or contains unsafe characters.
	ErrInvalidShortCode = fmt.Errorf("%w: invalid short code", ErrValidation)
	// ErrShortCodeExists is returned when attempting to create a URL with a short code that already exists.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrCodeSpaceExhausted is returned when no free generated short code was found within the retry bound.
	ErrCodeSpaceExhausted = errors.New("code space exhausted")
	// ErrURLNotFound is returned when a URL with the specified short code cannot be found.
	ErrURLNotFound = errors.New("url not found")
	// ErrStoreUnavailable is returned when the underlying storage fails.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// URL represents a shortened URL.
type URL struct {
	ShortCode   string    // ShortCode is the unique key the original URL is stored under.
	OriginalURL string    // OriginalURL is the full URL that the short code resolves to.
	Clicks      int64     // Clicks is the number of times the short code has been resolved.
	CreatedAt   time.Time // CreatedAt is the timestamp when the URL was created.
	IsCustom    bool      // IsCustom reports whether the short code was chosen by the caller.
}

// ShortenedURL is a freshly created or listed URL enriched with presentation data.
type ShortenedURL struct {
	URL
	ShortURL string   // ShortURL is the base URL joined with the short code.
	QRCode   string   // QRCode is a data URI of the QR image, empty if encoding failed or was skipped.
	Warnings []string // Warnings lists non-fatal problems that occurred while creating the URL.
}
