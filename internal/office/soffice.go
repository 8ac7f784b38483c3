package office

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
)

// ConvertToPDF converts an office document, HTML or text file to PDF with
// headless LibreOffice. The output lands in outDir as <base>.pdf.
func ConvertToPDF(ctx context.Context, sofficePath, inPath, outDir string) (string, error) {
	outPath := filepath.Join(outDir, filetypes.Base(inPath)+".pdf")
	args := []string{
		"--headless",
		"--convert-to", "pdf",
		"--outdir", outDir,
		inPath,
	}
	if err := runSoffice(ctx, sofficePath, outDir, args, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

// PDFToWord converts a PDF to docx using LibreOffice's PDF import filter.
// The result is a Writer re-flow of the page content, not a pixel copy.
func PDFToWord(ctx context.Context, sofficePath, pdfPath, outDir string) (string, error) {
	outPath := filepath.Join(outDir, filetypes.Base(pdfPath)+".docx")
	args := []string{
		"--headless",
		"--infilter=writer_pdf_import",
		"--convert-to", `docx:MS Word 2007 XML`,
		"--outdir", outDir,
		pdfPath,
	}
	if err := runSoffice(ctx, sofficePath, outDir, args, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

// runSoffice executes a LibreOffice conversion with a throwaway user
// profile. Concurrent soffice runs sharing one profile deadlock, so each
// invocation gets its own under outDir.
func runSoffice(ctx context.Context, sofficePath, outDir string, args []string, wantOutput string) error {
	profileDir, err := os.MkdirTemp(outDir, "soffice-profile-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(profileDir)

	args = append([]string{"-env:UserInstallation=file://" + profileDir}, args...)

	start := time.Now()
	metrics.SubprocessesRunning.Inc()
	defer metrics.SubprocessesRunning.Dec()

	cmd := exec.CommandContext(ctx, sofficePath, args...)
	output, err := cmd.CombinedOutput()

	metrics.SubprocessDuration.WithLabelValues("soffice").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SubprocessErrors.WithLabelValues("soffice").Inc()
		return fmt.Errorf("soffice failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	// soffice reports success even for some failed conversions
	if _, err := os.Stat(wantOutput); err != nil {
		metrics.SubprocessErrors.WithLabelValues("soffice").Inc()
		return fmt.Errorf("soffice produced no output: %s", strings.TrimSpace(string(output)))
	}

	logging.Debug("soffice finished %s in %v", filepath.Base(wantOutput), time.Since(start).Round(time.Millisecond))
	return nil
}
