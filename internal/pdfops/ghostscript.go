package pdfops

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"file-forge/internal/logging"
	"file-forge/internal/metrics"
)

// CompressPDF rewrites a PDF through ghostscript's pdfwrite device with
// downsampled images. preset is a ghostscript -dPDFSETTINGS value such as
// /ebook or /screen; dpi bounds embedded image resolution.
func CompressPDF(ctx context.Context, gsPath, inPath, outPath, preset string, dpi int) error {
	if dpi <= 0 {
		dpi = 150
	}

	args := []string{
		"-sDEVICE=pdfwrite",
		"-dPDFSETTINGS=" + preset,
		"-dCompatibilityLevel=1.5",
		"-dNOPAUSE",
		"-dQUIET",
		"-dBATCH",
		"-dAutoRotatePages=/None",
		"-dColorImageDownsampleType=/Bicubic",
		fmt.Sprintf("-dColorImageResolution=%d", dpi),
		"-dGrayImageDownsampleType=/Bicubic",
		fmt.Sprintf("-dGrayImageResolution=%d", dpi),
		"-dMonoImageDownsampleType=/Bicubic",
		fmt.Sprintf("-dMonoImageResolution=%d", dpi),
		"-dDownsampleColorImages=true",
		"-dDownsampleGrayImages=true",
		"-dDownsampleMonoImages=true",
		"-dSubsetFonts=true",
		"-sOutputFile=" + outPath,
		inPath,
	}

	start := time.Now()
	metrics.SubprocessesRunning.Inc()
	defer metrics.SubprocessesRunning.Dec()

	cmd := exec.CommandContext(ctx, gsPath, args...)
	output, err := cmd.CombinedOutput()

	metrics.SubprocessDuration.WithLabelValues("gs").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SubprocessErrors.WithLabelValues("gs").Inc()
		return fmt.Errorf("ghostscript failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	info, err := os.Stat(outPath)
	if err != nil || info.Size() == 0 {
		metrics.SubprocessErrors.WithLabelValues("gs").Inc()
		return fmt.Errorf("ghostscript produced no output for %s", filepath.Base(inPath))
	}

	logging.Debug("ghostscript compressed %s in %v", filepath.Base(inPath), time.Since(start).Round(time.Millisecond))
	return nil
}
