package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"file-forge/internal/filetypes"
	"file-forge/internal/images"
	"file-forge/internal/office"
	"file-forge/internal/pdfops"
	"file-forge/internal/startup"
)

// compressionSetting holds the per-level knobs for every backend.
type compressionSetting struct {
	Quality  int     // JPEG/WebP quality
	Scale    float64 // dimension multiplier, 1.0 keeps size
	GsPreset string  // ghostscript -dPDFSETTINGS value
	GsDPI    int     // ghostscript image downsample resolution
}

// compressionLevels maps level names to settings. "medium" is the default.
var compressionLevels = map[string]compressionSetting{
	"low":     {Quality: 85, Scale: 1.0, GsPreset: "/ebook", GsDPI: 150},
	"medium":  {Quality: 70, Scale: 0.9, GsPreset: "/ebook", GsDPI: 100},
	"high":    {Quality: 50, Scale: 0.8, GsPreset: "/screen", GsDPI: 72},
	"maximum": {Quality: 30, Scale: 0.6, GsPreset: "/screen", GsDPI: 50},
}

// Compress shrinks a PDF, Office document, image or zip archive. The
// response carries X-Method (which backend ran), X-Returned (whether the
// compressed file or the untouched original was smaller) and X-Final-Size.
// POST /compress.
func (h *Handlers) Compress(w http.ResponseWriter, r *http.Request) {
	option := formValue(r, "option", "medium")
	setting, ok := compressionLevels[option]
	if !ok {
		writeJSONError(w, "option must be low, medium, high or maximum", http.StatusBadRequest)
		return
	}

	s, ok := h.scratch(w, "compress-")
	if !ok {
		return
	}
	defer s.Remove()

	upload, err := saveUpload(r, "file", s)
	if err != nil {
		writeJSONError(w, err.Error(), uploadErrorStatus(err))
		return
	}

	ext := filetypes.Ext(upload)
	outPath := s.Join(filetypes.Base(upload) + "_compressed" + ext)

	var method string
	switch {
	case ext == ".pdf":
		method = "gs"
		if !h.requireTool(w, startup.ToolGhostscript) {
			return
		}
		err = pdfops.CompressPDF(r.Context(), h.config.ToolPath(startup.ToolGhostscript),
			upload, outPath, setting.GsPreset, setting.GsDPI)
	case office.IsOOXML(ext):
		method = "office"
		err = office.RecompressMedia(upload, outPath, setting.Quality, setting.Scale)
	case filetypes.ImageExtensions[ext]:
		method = "image"
		err = images.RecompressFile(upload, outPath, setting.Quality, setting.Scale)
	case ext == ".zip":
		method = "zip"
		err = office.RecompressZip(upload, outPath, setting.Quality, setting.Scale)
	default:
		writeJSONError(w, fmt.Sprintf("unsupported file type %q", ext), http.StatusUnsupportedMediaType)
		return
	}
	recordJob("compress", err, upload, outPath)
	if err != nil {
		writeJSONError(w, err.Error(), errorStatus(err))
		return
	}

	// never hand back a file larger than the upload
	sendPath, returned := smallerOf(upload, outPath)
	info, err := os.Stat(sendPath)
	if err != nil {
		writeJSONError(w, "compressed file missing", http.StatusInternalServerError)
		return
	}

	w.Header().Set("X-Method", method)
	w.Header().Set("X-Returned", returned)
	w.Header().Set("X-Final-Size", strconv.FormatInt(info.Size(), 10))
	h.sendFileNamed(w, r, sendPath, filepath.Base(outPath))
}

// smallerOf picks the compressed output only when it is strictly smaller
// than the original.
func smallerOf(original, compressed string) (string, string) {
	origInfo, err := os.Stat(original)
	if err != nil {
		return compressed, "compressed"
	}
	compInfo, err := os.Stat(compressed)
	if err != nil {
		return original, "original"
	}
	if compInfo.Size() < origInfo.Size() {
		return compressed, "compressed"
	}
	return original, "original"
}
