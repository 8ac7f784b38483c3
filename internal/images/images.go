package images

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"strings"

	"file-forge/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/tiff" // TIFF format support
	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// MaxImageDimension is the maximum width or height we'll process
	// Images larger than this will be downscaled first
	MaxImageDimension = 8192

	// MaxImagePixels is the maximum total pixels (width * height) we'll process
	// A 50MP image would be ~50,000,000 pixels, which uses ~200MB in RGBA
	MaxImagePixels = 50_000_000
)

// Dimensions holds image width and height
type Dimensions struct {
	Width  int
	Height int
}

// GetDimensions returns image dimensions without fully decoding the image
func GetDimensions(path string) (*Dimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}

	return &Dimensions{
		Width:  config.Width,
		Height: config.Height,
	}, nil
}

// Load opens an image with auto-orientation applied. Images exceeding the
// processing limits are rejected rather than silently downscaled, since
// every operation in this package must preserve the caller's geometry.
func Load(path string) (image.Image, error) {
	dims, err := GetDimensions(path)
	if err == nil {
		if dims.Width > MaxImageDimension || dims.Height > MaxImageDimension {
			return nil, fmt.Errorf("image %dx%d exceeds maximum dimension %d", dims.Width, dims.Height, MaxImageDimension)
		}
		if dims.Width*dims.Height > MaxImagePixels {
			return nil, fmt.Errorf("image %dx%d exceeds maximum pixel count %d", dims.Width, dims.Height, MaxImagePixels)
		}
	} else {
		logging.Debug("could not read dimensions for %s: %v", path, err)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return img, nil
}

// flattenOnWhite composites an image onto a white background, discarding
// any alpha channel. JPEG has no transparency so converted images need this.
func flattenOnWhite(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	flat := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	draw.Draw(flat, flat.Bounds(), img, bounds.Min, draw.Over)
	return flat
}

// ParseHexColor parses a #rrggbb or #rgb hex color string.
func ParseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(s) {
	case 3:
		expanded := make([]byte, 6)
		for i := 0; i < 3; i++ {
			expanded[i*2] = s[i]
			expanded[i*2+1] = s[i]
		}
		s = string(expanded)
	case 6:
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
	}

	b, err := hex.DecodeString(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.NRGBA{R: b[0], G: b[1], B: b[2], A: 255}, nil
}

// randomHex returns n random bytes as a lowercase hex string.
func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand only fails when the OS entropy source is broken
		return strings.Repeat("0", n*2)
	}
	return hex.EncodeToString(b)
}
