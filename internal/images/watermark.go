package images

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"strings"

	"file-forge/internal/filetypes"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// positionMargin is the pixel inset from the edges for non-centered
// watermark positions.
const positionMargin = 40

// maxOverlayFraction caps an image watermark at this fraction of the base
// image width.
const maxOverlayFraction = 0.4

// WatermarkOptions describes a text or image watermark.
type WatermarkOptions struct {
	Type        string  // "text" or "image"
	Text        string  // text to render when Type is "text"
	FontSize    int     // point size for text watermarks
	Rotation    float64 // counter-clockwise degrees
	Position    string  // "top-left" through "bottom-right"
	Opacity     float64 // 0 (invisible) to 1 (opaque)
	OverlayPath string  // watermark image file when Type is "image"
}

// ValidPositions lists the accepted watermark anchor strings.
var ValidPositions = map[string]bool{
	"top-left": true, "top-center": true, "top-right": true,
	"middle-left": true, "middle-center": true, "middle-right": true,
	"bottom-left": true, "bottom-center": true, "bottom-right": true,
}

// PositionCoords resolves a position string to the top-left pixel
// coordinates for placing content of the given size inside a container.
func PositionCoords(position string, containerW, containerH, contentW, contentH int) (int, int) {
	var x, y int

	switch {
	case strings.Contains(position, "left"):
		x = positionMargin
	case strings.Contains(position, "center"):
		x = (containerW - contentW) / 2
	default: // right
		x = containerW - contentW - positionMargin
	}

	switch {
	case strings.Contains(position, "top"):
		y = positionMargin
	case strings.Contains(position, "middle"):
		y = (containerH - contentH) / 2
	default: // bottom
		y = containerH - contentH - positionMargin
	}

	return x, y
}

// ApplyWatermark composites a watermark onto an image file. The output keeps
// the source format and is written to outDir as <base>_watermarked.<ext>.
func ApplyWatermark(path, outDir string, opts WatermarkOptions) (string, error) {
	base, err := Load(path)
	if err != nil {
		return "", err
	}

	overlay, err := buildOverlay(opts)
	if err != nil {
		return "", err
	}

	bounds := base.Bounds()
	overlay = constrainOverlay(overlay, bounds.Dx())
	x, y := PositionCoords(opts.Position, bounds.Dx(), bounds.Dy(),
		overlay.Bounds().Dx(), overlay.Bounds().Dy())

	result := imaging.Overlay(base, overlay, image.Pt(x, y), opts.Opacity)

	ext := filetypes.Ext(path)
	outPath := filepath.Join(outDir, filetypes.Base(path)+"_watermarked"+ext)
	switch ext {
	case ".jpg", ".jpeg":
		err = imaging.Save(flattenOnWhite(result), outPath, imaging.JPEGQuality(95))
	case ".webp":
		// no pure-Go webp encoder
		outPath = filepath.Join(outDir, filetypes.Base(path)+"_watermarked.png")
		err = savePNGCompressed(result, outPath)
	default:
		err = imaging.Save(result, outPath)
	}
	if err != nil {
		return "", fmt.Errorf("failed to save watermarked image: %w", err)
	}
	return outPath, nil
}

// buildOverlay renders the watermark content: rasterized text or the scaled
// watermark image, rotated if requested.
func buildOverlay(opts WatermarkOptions) (image.Image, error) {
	var overlay image.Image
	var err error

	switch opts.Type {
	case "text":
		if opts.Text == "" {
			return nil, fmt.Errorf("watermark text is empty")
		}
		overlay, err = RenderText(opts.Text, float64(opts.FontSize), color.NRGBA{A: 255})
		if err != nil {
			return nil, fmt.Errorf("failed to render watermark text: %w", err)
		}
	case "image":
		overlay, err = Load(opts.OverlayPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load watermark image: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown watermark type %q", opts.Type)
	}

	if opts.Rotation != 0 {
		overlay = imaging.Rotate(overlay, opts.Rotation, color.NRGBA{})
	}
	return overlay, nil
}

// constrainOverlay shrinks an overlay that is wider than the allowed
// fraction of the base image.
func constrainOverlay(overlay image.Image, baseWidth int) image.Image {
	maxWidth := int(float64(baseWidth) * maxOverlayFraction)
	if maxWidth < 1 || overlay.Bounds().Dx() <= maxWidth {
		return overlay
	}
	return imaging.Resize(overlay, maxWidth, 0, imaging.Lanczos)
}

// RenderTextOverlayPNG rasterizes a text watermark to a transparent PNG on
// disk, for pipelines that composite from a file (ffmpeg overlay).
func RenderTextOverlayPNG(opts WatermarkOptions, outDir string) (string, error) {
	overlay, err := buildOverlay(opts)
	if err != nil {
		return "", err
	}
	outPath := filepath.Join(outDir, "overlay_"+randomHex(4)+".png")
	if err := savePNGCompressed(overlay, outPath); err != nil {
		return "", fmt.Errorf("failed to save overlay: %w", err)
	}
	return outPath, nil
}

// RenderText rasterizes a single line of text into a tightly sized image
// with a transparent background.
func RenderText(text string, size float64, col color.Color) (*image.NRGBA, error) {
	if size <= 0 {
		size = 36
	}

	parsed, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	defer face.Close()

	drawer := &font.Drawer{
		Face: face,
		Src:  image.NewUniform(col),
	}

	width := drawer.MeasureString(text).Ceil()
	if width < 1 {
		width = 1
	}
	m := face.Metrics()
	height := (m.Ascent + m.Descent).Ceil()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	drawer.Dst = img
	drawer.Dot = fixed.Point26_6{X: 0, Y: m.Ascent}
	drawer.DrawString(text)
	return img, nil
}
