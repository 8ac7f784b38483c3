package handlers

import (
	"context"
	"net/http"

	"file-forge/internal/filetypes"
	"file-forge/internal/office"
	"file-forge/internal/pdfops"
	"file-forge/internal/startup"
)

var pdfOnly = map[string]bool{".pdf": true}

// ProtectPDF encrypts PDFs with AES-256. POST /protect-pdf, single PDF or zip.
func (h *Handlers) ProtectPDF(w http.ResponseWriter, r *http.Request) {
	password := r.FormValue("password")
	if password == "" {
		writeJSONError(w, "password is required", http.StatusBadRequest)
		return
	}

	s, ok := h.scratch(w, "protect-pdf-")
	if !ok {
		return
	}
	defer s.Remove()

	h.runFanout(w, r, s, fanoutJob{
		operation: "protect-pdf",
		zipName:   "protected_pdfs.zip",
		accept:    acceptExts(pdfOnly),
		transform: func(_ context.Context, inputPath string) ([]string, error) {
			out, err := pdfops.Protect(inputPath, s.Path(), password)
			if err != nil {
				return nil, err
			}
			return []string{out}, nil
		},
	})
}

// UnlockPDF decrypts a single password-protected PDF. A wrong password is a
// 401, not a 500. POST /unlock-pdf.
func (h *Handlers) UnlockPDF(w http.ResponseWriter, r *http.Request) {
	password := r.FormValue("password")

	s, ok := h.scratch(w, "unlock-pdf-")
	if !ok {
		return
	}
	defer s.Remove()

	upload, err := saveUpload(r, "file", s)
	if err != nil {
		writeJSONError(w, err.Error(), uploadErrorStatus(err))
		return
	}
	if filetypes.Ext(upload) != ".pdf" {
		writeJSONError(w, "file must be a PDF", http.StatusUnsupportedMediaType)
		return
	}

	outPath, err := pdfops.Unlock(upload, s.Path(), password)
	recordJob("unlock-pdf", err, upload, outPath)
	if err != nil {
		writeJSONError(w, err.Error(), errorStatus(err))
		return
	}
	h.sendFile(w, r, outPath)
}

// PDFToWord converts PDFs to editable DOCX via LibreOffice.
// POST /pdf-to-word, single PDF or zip.
func (h *Handlers) PDFToWord(w http.ResponseWriter, r *http.Request) {
	if !h.requireTool(w, startup.ToolSoffice) {
		return
	}

	s, ok := h.scratch(w, "pdf-to-word-")
	if !ok {
		return
	}
	defer s.Remove()

	sofficePath := h.config.ToolPath(startup.ToolSoffice)
	h.runFanout(w, r, s, fanoutJob{
		operation: "pdf-to-word",
		zipName:   "converted_documents.zip",
		accept:    acceptExts(pdfOnly),
		transform: func(ctx context.Context, inputPath string) ([]string, error) {
			out, err := office.PDFToWord(ctx, sofficePath, inputPath, s.Path())
			if err != nil {
				return nil, err
			}
			return []string{out}, nil
		},
	})
}

// WatermarkFiles stamps a watermark on every page of a PDF or Word document.
// Word documents are converted to PDF first. POST /watermark-files.
func (h *Handlers) WatermarkFiles(w http.ResponseWriter, r *http.Request) {
	imgOpts, errMsg := parseWatermarkForm(r)
	if errMsg != "" {
		writeJSONError(w, errMsg, http.StatusBadRequest)
		return
	}
	opts := pdfops.WatermarkOptions{
		Type:     imgOpts.Type,
		Text:     imgOpts.Text,
		FontSize: imgOpts.FontSize,
		Rotation: imgOpts.Rotation,
		Position: imgOpts.Position,
		Opacity:  imgOpts.Opacity,
		Password: r.FormValue("password"),
	}

	s, ok := h.scratch(w, "watermark-files-")
	if !ok {
		return
	}
	defer s.Remove()

	if opts.Type == "image" {
		markPath, err := saveUpload(r, "watermarkImage", s)
		if err != nil {
			writeJSONError(w, err.Error(), uploadErrorStatus(err))
			return
		}
		opts.ImagePath = markPath
	}

	sofficePath := h.config.ToolPath(startup.ToolSoffice)
	sofficeOK := h.config.ToolAvailable(startup.ToolSoffice)

	h.runFanout(w, r, s, fanoutJob{
		operation: "watermark-files",
		zipName:   "watermarked_files.zip",
		accept: acceptExts(map[string]bool{
			".pdf": true, ".doc": true, ".docx": true,
		}),
		transform: func(ctx context.Context, inputPath string) ([]string, error) {
			pdfPath := inputPath
			if filetypes.Ext(inputPath) != ".pdf" {
				if !sofficeOK {
					return nil, errToolUnavailable(startup.ToolSoffice)
				}
				converted, err := office.ConvertToPDF(ctx, sofficePath, inputPath, s.Path())
				if err != nil {
					return nil, err
				}
				pdfPath = converted
			}
			out, err := pdfops.Watermark(pdfPath, s.Path(), opts)
			if err != nil {
				return nil, err
			}
			return []string{out}, nil
		},
	})
}
