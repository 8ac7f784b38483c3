package images

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// PlaceholderOptions describes a generated placeholder image.
type PlaceholderOptions struct {
	Width           int
	Height          int
	Format          string // png, jpg, jpeg or webp
	BackgroundColor string // hex
	TextColor       string // hex
	Text            string
	FontSize        int
}

// MaxPlaceholderDimension bounds placeholder width and height.
const MaxPlaceholderDimension = 4000

// DefaultPlaceholder returns the option defaults applied to omitted fields.
func DefaultPlaceholder() PlaceholderOptions {
	return PlaceholderOptions{
		Width:           600,
		Height:          400,
		Format:          "png",
		BackgroundColor: "#cccccc",
		TextColor:       "#333333",
		FontSize:        48,
	}
}

// GeneratePlaceholder renders a solid-color image with centered text and
// returns the encoded bytes. The default text is "<width>×<height>".
func GeneratePlaceholder(opts PlaceholderOptions) ([]byte, error) {
	if opts.Width < 1 || opts.Width > MaxPlaceholderDimension {
		return nil, fmt.Errorf("width must be between 1 and %d pixels", MaxPlaceholderDimension)
	}
	if opts.Height < 1 || opts.Height > MaxPlaceholderDimension {
		return nil, fmt.Errorf("height must be between 1 and %d pixels", MaxPlaceholderDimension)
	}
	switch opts.Format {
	case "png", "jpg", "jpeg", "webp":
	default:
		return nil, fmt.Errorf("format must be png, jpg or webp")
	}

	bg, err := ParseHexColor(opts.BackgroundColor)
	if err != nil {
		return nil, fmt.Errorf("invalid background color: %w", err)
	}
	fg, err := ParseHexColor(opts.TextColor)
	if err != nil {
		return nil, fmt.Errorf("invalid text color: %w", err)
	}

	text := opts.Text
	if text == "" {
		text = fmt.Sprintf("%d×%d", opts.Width, opts.Height)
	}

	img := imaging.New(opts.Width, opts.Height, bg)
	if err := drawCenteredText(img, text, float64(opts.FontSize), fg); err != nil {
		return nil, fmt.Errorf("failed to render text: %w", err)
	}

	return encodePlaceholder(img, opts.Format)
}

func drawCenteredText(dst draw.Image, text string, size float64, col color.Color) error {
	if size <= 0 {
		size = 48
	}

	parsed, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return err
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return err
	}
	defer face.Close()

	drawer := &font.Drawer{
		Dst:  dst,
		Face: face,
		Src:  image.NewUniform(col),
	}

	bounds := dst.Bounds()
	textWidth := drawer.MeasureString(text).Ceil()
	m := face.Metrics()
	textHeight := (m.Ascent + m.Descent).Ceil()

	drawer.Dot = fixed.Point26_6{
		X: fixed.I((bounds.Dx() - textWidth) / 2),
		Y: fixed.I((bounds.Dy()-textHeight)/2) + m.Ascent,
	}
	drawer.DrawString(text)
	return nil
}

func encodePlaceholder(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	case "jpg", "jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
			return nil, err
		}
	case "webp":
		if !IsVipsAvailable() {
			return nil, fmt.Errorf("webp encoding requires libvips")
		}
		var pngBuf bytes.Buffer
		if err := png.Encode(&pngBuf, img); err != nil {
			return nil, err
		}
		ref, err := vips.NewImageFromReader(&pngBuf)
		if err != nil {
			return nil, err
		}
		defer ref.Close()
		out, _, err := ref.ExportWebp(&vips.WebpExportParams{Quality: 90})
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return buf.Bytes(), nil
}
