package handlers

import (
	"net/http"

	"file-forge/internal/filetypes"
	"file-forge/internal/logging"
	"file-forge/internal/startup"
	"file-forge/internal/video"
)

// VideoUpscale re-encodes a video at a larger resolution.
// POST /video-upscale.
func (h *Handlers) VideoUpscale(w http.ResponseWriter, r *http.Request) {
	if !h.requireTool(w, startup.ToolFFmpeg) {
		return
	}

	scale := formValue(r, "scale", "2x")
	if _, err := video.ScaleFilter(scale); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	crf, err := formInt(r, "crf", 18, 0, 51)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s, ok := h.scratch(w, "video-upscale-")
	if !ok {
		return
	}
	defer s.Remove()

	upload, err := saveUpload(r, "file", s)
	if err != nil {
		writeJSONError(w, err.Error(), uploadErrorStatus(err))
		return
	}
	if !filetypes.VideoExtensions[filetypes.Ext(upload)] {
		writeJSONError(w, "file must be a video", http.StatusUnsupportedMediaType)
		return
	}
	if h.config.ToolAvailable(startup.ToolFFprobe) {
		info, err := h.video.Probe(r.Context(), upload)
		if err != nil {
			writeJSONError(w, "file is not a readable video", http.StatusUnsupportedMediaType)
			return
		}
		logging.Debug("upscaling %dx%d %s video by %s", info.Width, info.Height, info.Codec, scale)
	}

	outPath, err := h.video.Upscale(r.Context(), upload, s.Path(), scale, crf)
	recordJob("video-upscale", err, upload, outPath)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.sendFile(w, r, outPath)
}
