package images

import (
	"fmt"
	"path/filepath"
	"time"

	"file-forge/internal/filetypes"
	"file-forge/internal/logging"
	"file-forge/internal/metrics"

	"github.com/disintegration/imaging"
)

// UpscaleQuality is the JPEG quality used for upscaled output.
const UpscaleQuality = 90

// ValidScales are the accepted upscale factors.
var ValidScales = map[int]bool{2: true, 4: true, 8: true, 16: true}

// Upscale resamples an image to scale times its original dimensions using
// Lanczos resampling. Output is always JPEG, named
// upscaled_<base>_<random hex>.jpg so repeated runs never collide.
func Upscale(path, outDir string, scale int) (string, error) {
	if !ValidScales[scale] {
		return "", fmt.Errorf("invalid scale factor %d", scale)
	}

	start := time.Now()
	defer func() {
		metrics.JobDuration.WithLabelValues("upscale").Observe(time.Since(start).Seconds())
	}()

	img, err := Load(path)
	if err != nil {
		return "", err
	}

	bounds := img.Bounds()
	newWidth := bounds.Dx() * scale
	newHeight := bounds.Dy() * scale

	logging.Debug("upscaling %s from %dx%d to %dx%d",
		filepath.Base(path), bounds.Dx(), bounds.Dy(), newWidth, newHeight)

	resized := imaging.Resize(img, newWidth, newHeight, imaging.Lanczos)

	// JPEG has no alpha, so composite transparent sources onto white
	outName := fmt.Sprintf("upscaled_%s_%s.jpg", filetypes.Base(path), randomHex(4))
	outPath := filepath.Join(outDir, outName)
	if err := imaging.Save(flattenOnWhite(resized), outPath, imaging.JPEGQuality(UpscaleQuality)); err != nil {
		return "", fmt.Errorf("failed to save upscaled image: %w", err)
	}
	return outPath, nil
}
