package handlers

import (
	"fmt"
	"net/http"

	"file-forge/internal/qrgen"
)

// GenerateQR encodes JSON-supplied data as a PNG QR code. POST /generate-qr.
func (h *Handlers) GenerateQR(w http.ResponseWriter, r *http.Request) {
	opts := qrgen.DefaultOptions()
	var body struct {
		Data            *string `json:"data"`
		Size            *int    `json:"size"`
		ErrorCorrection *string `json:"error_correction"`
		Foreground      *string `json:"foreground"`
		Background      *string `json:"background"`
	}
	if err := decodeJSONBody(r, &body); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if body.Data != nil {
		opts.Data = *body.Data
	}
	if body.Size != nil {
		opts.Size = *body.Size
	}
	if body.ErrorCorrection != nil {
		opts.ErrorCorrection = *body.ErrorCorrection
	}
	if body.Foreground != nil {
		opts.Foreground = *body.Foreground
	}
	if body.Background != nil {
		opts.Background = *body.Background
	}

	data, err := qrgen.Generate(opts)
	status := "success"
	if err != nil {
		status = "error"
	}
	recordSimpleJob("generate-qr", status)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	name := fmt.Sprintf("qr-code-%dx%d.png", opts.Size, opts.Size)
	sendBytes(w, data, "image/png", name)
}
