package images

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"file-forge/internal/filetypes"
	"file-forge/internal/logging"
	"file-forge/internal/metrics"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

// Compress recompresses an image in its own format at the given quality.
// Supported formats are jpeg, png and webp. The result is written to outDir
// as <base>_compressed.<ext> and its path returned.
func Compress(path, outDir string, quality int) (string, error) {
	ext := filetypes.Ext(path)
	outPath := filepath.Join(outDir, filetypes.Base(path)+"_compressed"+ext)

	start := time.Now()
	defer func() {
		metrics.JobDuration.WithLabelValues("img-compress").Observe(time.Since(start).Seconds())
	}()

	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return "", fmt.Errorf("unsupported image format %q", ext)
	}

	if IsVipsAvailable() {
		return outPath, vipsEncodeFile(path, outPath, ext, quality, false)
	}

	img, err := Load(path)
	if err != nil {
		return "", err
	}
	switch ext {
	case ".jpg", ".jpeg":
		return outPath, imaging.Save(img, outPath, imaging.JPEGQuality(quality))
	case ".png":
		return outPath, savePNGCompressed(img, outPath)
	default:
		return "", fmt.Errorf("webp encoding requires libvips")
	}
}

// RecompressFile re-encodes an image at the given quality, optionally
// downscaling it, writing to an explicit output path. Used by the generic
// compressor where the caller controls output naming and compares sizes.
func RecompressFile(inPath, outPath string, quality int, scale float64) error {
	img, err := Load(inPath)
	if err != nil {
		return err
	}
	if scale > 0 && scale < 1 {
		w := int(float64(img.Bounds().Dx()) * scale)
		if w > 0 {
			img = imaging.Resize(img, w, 0, imaging.Lanczos)
		}
	}

	switch ext := filetypes.Ext(outPath); ext {
	case ".jpg", ".jpeg":
		return imaging.Save(flattenOnWhite(img), outPath, imaging.JPEGQuality(quality))
	case ".png":
		return savePNGCompressed(img, outPath)
	case ".webp":
		if !IsVipsAvailable() {
			return fmt.Errorf("webp encoding requires libvips")
		}
		tmp := outPath + ".png"
		if err := savePNGCompressed(img, tmp); err != nil {
			return err
		}
		defer os.Remove(tmp)
		return vipsEncodeFile(tmp, outPath, ".webp", quality, false)
	case ".gif", ".bmp", ".tiff", ".tif":
		return imaging.Save(img, outPath)
	default:
		return fmt.Errorf("unsupported image format %q", ext)
	}
}

// ConvertToJPEG converts an image to JPEG, compositing any alpha channel
// onto a white background. Returns the output path (<base>.jpg in outDir).
func ConvertToJPEG(path, outDir string, quality int) (string, error) {
	outPath := filepath.Join(outDir, filetypes.Base(path)+".jpg")

	if IsVipsAvailable() {
		return outPath, vipsEncodeFile(path, outPath, ".jpg", quality, true)
	}

	img, err := Load(path)
	if err != nil {
		return "", err
	}
	return outPath, imaging.Save(flattenOnWhite(img), outPath, imaging.JPEGQuality(quality))
}

// ConvertToPNG converts an image to PNG, preserving transparency.
func ConvertToPNG(path, outDir string) (string, error) {
	outPath := filepath.Join(outDir, filetypes.Base(path)+".png")

	if IsVipsAvailable() {
		return outPath, vipsEncodeFile(path, outPath, ".png", 0, false)
	}

	img, err := Load(path)
	if err != nil {
		return "", err
	}
	return outPath, savePNGCompressed(img, outPath)
}

// ConvertToWebP converts an image to WebP at the given quality. WebP
// encoding is only available through libvips; without it an error is
// returned and the caller should report the converter as unavailable.
func ConvertToWebP(path, outDir string, quality int) (string, error) {
	if !IsVipsAvailable() {
		return "", fmt.Errorf("webp encoding requires libvips")
	}
	outPath := filepath.Join(outDir, filetypes.Base(path)+".webp")
	return outPath, vipsEncodeFile(path, outPath, ".webp", quality, false)
}

// vipsEncodeFile loads an image with libvips and re-encodes it into the
// format implied by ext. flattenAlpha composites transparency onto white
// before encoding, which JPEG output needs.
func vipsEncodeFile(path, outPath, ext string, quality int, flattenAlpha bool) error {
	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	if flattenAlpha && ref.HasAlpha() {
		if err := ref.Flatten(&vips.Color{R: 255, G: 255, B: 255}); err != nil {
			return fmt.Errorf("vips flatten failed: %w", err)
		}
	}

	var buf []byte
	switch ext {
	case ".jpg", ".jpeg":
		buf, _, err = ref.ExportJpeg(&vips.JpegExportParams{
			Quality:        quality,
			StripMetadata:  true,
			OptimizeCoding: true,
		})
	case ".png":
		buf, _, err = ref.ExportPng(&vips.PngExportParams{
			Compression:   6,
			StripMetadata: true,
		})
	case ".webp":
		buf, _, err = ref.ExportWebp(&vips.WebpExportParams{
			Quality:       quality,
			StripMetadata: true,
		})
	default:
		return fmt.Errorf("unsupported target format %q", ext)
	}
	if err != nil {
		return fmt.Errorf("vips export failed: %w", err)
	}

	logging.Debug("vips encoded %s -> %s (%d bytes)", filepath.Base(path), filepath.Base(outPath), len(buf))
	return os.WriteFile(outPath, buf, 0644)
}

func savePNGCompressed(img image.Image, outPath string) error {
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
