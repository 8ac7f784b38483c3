// Package qrgen generates QR code images.
package qrgen

import (
	"fmt"
	"strings"

	"file-forge/internal/images"

	qrcode "github.com/skip2/go-qrcode"
)

// Size bounds for generated QR codes, in pixels.
const (
	MinSize = 100
	MaxSize = 2000
)

// Options describes a QR code request.
type Options struct {
	Data            string
	Size            int
	ErrorCorrection string // L, M, Q or H
	Foreground      string // hex
	Background      string // hex
}

// DefaultOptions returns the defaults applied to omitted fields.
func DefaultOptions() Options {
	return Options{
		Size:            300,
		ErrorCorrection: "M",
		Foreground:      "#000000",
		Background:      "#ffffff",
	}
}

var recoveryLevels = map[string]qrcode.RecoveryLevel{
	"L": qrcode.Low,
	"M": qrcode.Medium,
	"Q": qrcode.High,
	"H": qrcode.Highest,
}

// Generate encodes the data as a PNG QR code and returns the image bytes.
func Generate(opts Options) ([]byte, error) {
	if opts.Data == "" {
		return nil, fmt.Errorf("QR code data is required")
	}
	if opts.Size < MinSize || opts.Size > MaxSize {
		return nil, fmt.Errorf("size must be between %d and %d pixels", MinSize, MaxSize)
	}

	level, ok := recoveryLevels[strings.ToUpper(opts.ErrorCorrection)]
	if !ok {
		return nil, fmt.Errorf("invalid error correction level %q", opts.ErrorCorrection)
	}

	fg, err := images.ParseHexColor(opts.Foreground)
	if err != nil {
		return nil, fmt.Errorf("invalid foreground color: %w", err)
	}
	bg, err := images.ParseHexColor(opts.Background)
	if err != nil {
		return nil, fmt.Errorf("invalid background color: %w", err)
	}

	qr, err := qrcode.New(opts.Data, level)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	qr.ForegroundColor = fg
	qr.BackgroundColor = bg

	return qr.PNG(opts.Size)
}
