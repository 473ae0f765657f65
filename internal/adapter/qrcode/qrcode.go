// Package qrcode renders QR images for short URLs.
package qrcode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	DefaultSize          = 256
	DefaultRecoveryLevel = "low"
)

const dataURIPrefix = "data:image/png;base64,"

var ErrInvalidRecoveryLevel = errors.New("invalid recovery level")

// ParseRecoveryLevel maps low, medium, high and highest to the library levels.
func ParseRecoveryLevel(level string) (qrcode.RecoveryLevel, error) {
	switch strings.ToLower(level) {
	case "", "low":
		return qrcode.Low, nil
	case "medium":
		return qrcode.Medium, nil
	case "high":
		return qrcode.High, nil
	case "highest":
		return qrcode.Highest, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidRecoveryLevel, level)
	}
}

type Encoder struct {
	size  int
	level qrcode.RecoveryLevel
}

func New(size int, level qrcode.RecoveryLevel) *Encoder {
	if size <= 0 {
		size = DefaultSize
	}

	return &Encoder{
		size:  size,
		level: level,
	}
}

// PNG encodes text into a square PNG image.
func (e *Encoder) PNG(text string) ([]byte, error) {
	const op = "adapter.qrcode.Encoder.PNG"

	png, err := qrcode.Encode(text, e.level, e.size)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to encode qr code: %w", op, err)
	}

	return png, nil
}

// Encode returns the PNG image of text as a base64 data URI.
func (e *Encoder) Encode(text string) (string, error) {
	const op = "adapter.qrcode.Encoder.Encode"

	png, err := e.PNG(text)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return dataURIPrefix + base64.StdEncoding.EncodeToString(png), nil
}
