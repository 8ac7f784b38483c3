package images

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"file-forge/internal/filetypes"
	"file-forge/internal/logging"
	"file-forge/internal/metrics"

	"github.com/disintegration/imaging"
)

// StripBackground removes the background from an image using the rembg CLI.
// rembg always produces PNG with an alpha channel; the result is then
// re-encoded to match the source format where that format can hold the
// result. JPEG output is composited onto white at quality 95. Formats with
// no sensible encoder for transparent output (gif, bmp, tiff) come back as
// PNG. The output path (<base>_nobg.<ext> in outDir) is returned.
func StripBackground(ctx context.Context, rembgPath, path, outDir string) (string, error) {
	base := filetypes.Base(path)
	tmpPNG := filepath.Join(outDir, base+".rembg.png")

	if err := runRembg(ctx, rembgPath, path, tmpPNG); err != nil {
		return "", err
	}
	defer os.Remove(tmpPNG)

	ext := filetypes.Ext(path)
	switch ext {
	case ".png":
		outPath := filepath.Join(outDir, base+"_nobg.png")
		return outPath, os.Rename(tmpPNG, outPath)
	case ".jpg", ".jpeg":
		outPath := filepath.Join(outDir, base+"_nobg"+ext)
		img, err := Load(tmpPNG)
		if err != nil {
			return "", err
		}
		return outPath, imaging.Save(flattenOnWhite(img), outPath, imaging.JPEGQuality(95))
	case ".webp":
		if IsVipsAvailable() {
			outPath := filepath.Join(outDir, base+"_nobg.webp")
			return outPath, vipsEncodeFile(tmpPNG, outPath, ".webp", 95, false)
		}
		fallthrough
	default:
		outPath := filepath.Join(outDir, base+"_nobg.png")
		return outPath, os.Rename(tmpPNG, outPath)
	}
}

func runRembg(ctx context.Context, rembgPath, inPath, outPath string) error {
	start := time.Now()
	metrics.SubprocessesRunning.Inc()
	defer metrics.SubprocessesRunning.Dec()

	cmd := exec.CommandContext(ctx, rembgPath, "i", inPath, outPath)
	output, err := cmd.CombinedOutput()

	metrics.SubprocessDuration.WithLabelValues("rembg").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SubprocessErrors.WithLabelValues("rembg").Inc()
		logging.Error("rembg failed for %s: %v", filepath.Base(inPath), err)
		return fmt.Errorf("rembg failed: %w: %s", err, strings.TrimSpace(string(output)))
	}
	if _, err := os.Stat(outPath); err != nil {
		metrics.SubprocessErrors.WithLabelValues("rembg").Inc()
		return fmt.Errorf("rembg produced no output for %s", filepath.Base(inPath))
	}

	logging.Debug("rembg finished %s in %v", filepath.Base(inPath), time.Since(start).Round(time.Millisecond))
	return nil
}
