package pdfops

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"file-forge/internal/filetypes"
	"file-forge/internal/logging"

	"github.com/gen2brain/go-fitz"
)

// RenderDPI is the rasterization resolution for PDF pages. 144 is twice the
// PDF native 72dpi, enough for slide-sized output.
const RenderDPI = 144

// RenderPages rasterizes every page of a PDF to PNG files in outDir, named
// <base>_page<NNN>.png, and returns their paths in page order.
func RenderPages(pdfPath, outDir string) ([]string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	base := filetypes.Base(pdfPath)
	pages := make([]string, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		img, err := doc.ImageDPI(i, RenderDPI)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", i+1, err)
		}

		outPath := filepath.Join(outDir, fmt.Sprintf("%s_page%03d.png", base, i+1))
		f, err := os.Create(outPath)
		if err != nil {
			return nil, err
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to encode page %d: %w", i+1, err)
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
		pages = append(pages, outPath)
	}

	logging.Debug("rendered %d pages from %s", len(pages), filepath.Base(pdfPath))
	return pages, nil
}

// ExtractText returns the concatenated text of all pages in a PDF.
func ExtractText(pdfPath string) (string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			logging.Warn("failed to extract text from page %d of %s: %v", i+1, filepath.Base(pdfPath), err)
			continue
		}
		sb.WriteString(text)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
