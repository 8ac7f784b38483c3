package handlers

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"file-forge/internal/filetypes"
	"file-forge/internal/images"
	"file-forge/internal/office"
	"file-forge/internal/pdfops"
	"file-forge/internal/startup"
)

// convertibleInputs lists everything the document conversion routes accept.
var convertibleInputs = map[string]bool{
	".pdf": true,
	".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true, ".txt": true, ".html": true, ".htm": true,
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
	".bmp": true, ".tiff": true, ".tif": true,
}

// deckImageExts are formats BuildPictureDeck embeds directly.
var deckImageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
}

// FileToPDF converts documents and images to PDF. PDFs pass through
// untouched. POST /file-to-pdf, single file or zip.
func (h *Handlers) FileToPDF(w http.ResponseWriter, r *http.Request) {
	s, ok := h.scratch(w, "file-pdf-")
	if !ok {
		return
	}
	defer s.Remove()

	sofficePath := h.config.ToolPath(startup.ToolSoffice)
	sofficeOK := h.config.ToolAvailable(startup.ToolSoffice)

	h.runFanout(w, r, s, fanoutJob{
		operation: "file-pdf",
		zipName:   "converted_pdfs.zip",
		accept:    acceptExts(convertibleInputs),
		transform: func(ctx context.Context, inputPath string) ([]string, error) {
			ext := filetypes.Ext(inputPath)
			switch {
			case ext == ".pdf":
				if err := pdfops.Validate(inputPath); err != nil {
					return nil, fmt.Errorf("invalid PDF: %w", err)
				}
				return []string{inputPath}, nil
			case filetypes.ImageExtensions[ext]:
				out, err := h.imageToPDF(inputPath, s.Path())
				if err != nil {
					return nil, err
				}
				return []string{out}, nil
			default:
				if !sofficeOK {
					return nil, errToolUnavailable(startup.ToolSoffice)
				}
				out, err := office.ConvertToPDF(ctx, sofficePath, inputPath, s.Path())
				if err != nil {
					return nil, err
				}
				return []string{out}, nil
			}
		},
	})
}

// imageToPDF wraps a single image in a one-page PDF. Formats pdfcpu cannot
// embed are converted to PNG first.
func (h *Handlers) imageToPDF(imagePath, outDir string) (string, error) {
	src := imagePath
	if ext := filetypes.Ext(imagePath); ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		converted, err := images.ConvertToPNG(imagePath, outDir)
		if err != nil {
			return "", err
		}
		src = converted
	}
	outPath := filepath.Join(outDir, filetypes.Base(imagePath)+".pdf")
	if err := pdfops.ImagesToPDF([]string{src}, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

// ConvertAllToPPT turns documents and images into picture-slide
// presentations. POST /convert-all-to-ppt, single file or zip.
func (h *Handlers) ConvertAllToPPT(w http.ResponseWriter, r *http.Request) {
	s, ok := h.scratch(w, "convert-ppt-")
	if !ok {
		return
	}
	defer s.Remove()

	h.runFanout(w, r, s, fanoutJob{
		operation: "convert-all-to-ppt",
		zipName:   "converted_ppts.zip",
		accept:    acceptExts(convertibleInputs),
		transform: func(ctx context.Context, inputPath string) ([]string, error) {
			out, err := h.toPictureDeck(ctx, inputPath, s.Path())
			if err != nil {
				return nil, err
			}
			return []string{out}, nil
		},
	})
}

// toPictureDeck renders any supported input to page images and assembles
// them into a PPTX.
func (h *Handlers) toPictureDeck(ctx context.Context, inputPath, outDir string) (string, error) {
	ext := filetypes.Ext(inputPath)

	var slides []string
	var err error
	switch {
	case ext == ".pdf":
		slides, err = pdfops.RenderPages(inputPath, outDir)
	case deckImageExts[ext]:
		slides = []string{inputPath}
	case filetypes.ImageExtensions[ext]:
		var converted string
		converted, err = images.ConvertToPNG(inputPath, outDir)
		slides = []string{converted}
	case ext == ".txt":
		slides, err = office.TextToImage(inputPath, outDir)
	default:
		if !h.config.ToolAvailable(startup.ToolSoffice) {
			return "", errToolUnavailable(startup.ToolSoffice)
		}
		var pdfPath string
		pdfPath, err = office.ConvertToPDF(ctx, h.config.ToolPath(startup.ToolSoffice), inputPath, outDir)
		if err == nil {
			slides, err = pdfops.RenderPages(pdfPath, outDir)
		}
	}
	if err != nil {
		return "", err
	}
	if len(slides) == 0 {
		return "", fmt.Errorf("nothing to put on slides for %s", filepath.Base(inputPath))
	}

	outPath := filepath.Join(outDir, filetypes.Base(inputPath)+".pptx")
	if err := office.BuildPictureDeck(slides, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}
