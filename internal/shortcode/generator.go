// Package shortcode generates and validates the short codes URLs are stored under.
package shortcode

import (
	"fmt"
	"strings"

	"github.com/vadimbarashkov/shortlink/internal/entity"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// Alphabet is the base62 alphabet generated codes are drawn from.
	Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	DefaultLength = 6
	MaxLength     = 32
)

// reserved holds top-level route segments that can not be used as custom codes.
var reserved = map[string]struct{}{
	"api":     {},
	"docs":    {},
	"swagger": {},
}

// RandomSource returns a random string of the given size drawn from alphabet.
type RandomSource func(alphabet string, size int) (string, error)

// Generator produces candidate short codes. It does not guarantee uniqueness,
// the store enforces it on insert.
type Generator struct {
	length int
	random RandomSource
}

type Option func(*Generator)

// WithLength overrides the length of generated codes.
func WithLength(n int) Option {
	return func(g *Generator) {
		g.length = n
	}
}

// WithRandomSource replaces the default crypto-random source, mostly for tests.
func WithRandomSource(src RandomSource) Option {
	return func(g *Generator) {
		g.random = src
	}
}

func New(opts ...Option) *Generator {
	g := &Generator{
		length: DefaultLength,
		random: gonanoid.Generate,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

func (g *Generator) Length() int {
	return g.length
}

// Generate returns a new candidate code of the configured length.
func (g *Generator) Generate() (string, error) {
	const op = "shortcode.Generator.Generate"

	if g.length < 1 || g.length > MaxLength {
		return "", fmt.Errorf("%s: code length %d out of range [1, %d]", op, g.length, MaxLength)
	}

	code, err := g.random(Alphabet, g.length)
	if err != nil {
		return "", fmt.Errorf("%s: failed to read random source: %w", op, err)
	}

	return code, nil
}

// ValidateCustom checks a caller supplied code: 1-32 characters of
// [A-Za-z0-9_-], not a reserved route segment.
func (g *Generator) ValidateCustom(code string) error {
	const op = "shortcode.Generator.ValidateCustom"

	switch {
	case code == "":
		return fmt.Errorf("%s: %w: empty", op, entity.ErrInvalidShortCode)
	case len(code) > MaxLength:
		return fmt.Errorf("%s: %w: longer than %d characters", op, entity.ErrInvalidShortCode, MaxLength)
	}

	for _, c := range code {
		if !isURLSafe(c) {
			return fmt.Errorf("%s: %w: unsupported character %q", op, entity.ErrInvalidShortCode, c)
		}
	}

	if _, ok := reserved[strings.ToLower(code)]; ok {
		return fmt.Errorf("%s: %w: %q is reserved", op, entity.ErrInvalidShortCode, code)
	}

	return nil
}

func isURLSafe(c rune) bool {
	return (c >= '0' && c <= '9') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= 'a' && c <= 'z') ||
		c == '-' || c == '_'
}
