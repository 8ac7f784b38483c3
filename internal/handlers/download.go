package handlers

import (
	"errors"
	"net/http"
	"strings"

	"file-forge/internal/archive"
	"file-forge/internal/fetch"
	"file-forge/internal/filetypes"
	"file-forge/internal/startup"
	"file-forge/internal/workdir"
)

// urlListExts are upload formats the batch downloaders can mine for links.
var urlListExts = map[string]bool{
	".txt": true, ".pdf": true, ".docx": true,
}

// DownloadVideoBatch fetches videos with yt-dlp. URLs come from the "url"
// form field, newline separated, or from an uploaded document.
// POST /download-video.
func (h *Handlers) DownloadVideoBatch(w http.ResponseWriter, r *http.Request) {
	h.downloadBatch(w, r, fetch.KindVideo, "videos.zip")
}

// DownloadAudioBatch fetches audio tracks with yt-dlp, or extracts the audio
// from an uploaded video file. POST /download-audio.
func (h *Handlers) DownloadAudioBatch(w http.ResponseWriter, r *http.Request) {
	s, ok := h.scratch(w, "download-audio-")
	if !ok {
		return
	}

	// an uploaded video bypasses yt-dlp entirely
	if upload, err := saveUpload(r, "file", s); err == nil && filetypes.VideoExtensions[filetypes.Ext(upload)] {
		defer s.Remove()
		if !h.requireTool(w, startup.ToolFFmpeg) {
			return
		}
		outPath, err := h.video.ExtractAudio(r.Context(), upload, s.Path())
		recordJob("download-audio-batch", err, upload, outPath)
		if err != nil {
			writeJSONError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.sendFile(w, r, outPath)
		return
	}
	s.Remove()

	h.downloadBatch(w, r, fetch.KindAudio, "audio.zip")
}

func (h *Handlers) downloadBatch(w http.ResponseWriter, r *http.Request, kind fetch.Kind, zipName string) {
	if !h.requireTool(w, startup.ToolYtdlp) {
		return
	}

	s, ok := h.scratch(w, "download-")
	if !ok {
		return
	}
	defer s.Remove()

	urls, err := h.collectURLs(r, s)
	if err != nil {
		writeJSONError(w, err.Error(), uploadErrorStatus(err))
		return
	}
	if len(urls) == 0 {
		writeJSONError(w, "no URLs to download", http.StatusBadRequest)
		return
	}

	operation := "download-" + string(kind) + "-batch"
	outputs, err := h.downloader.Download(r.Context(), urls, s.Path(), kind)
	if err != nil {
		recordSimpleJob(operation, "error")
		if errors.Is(err, fetch.ErrNoDownloads) {
			writeJSONError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	recordSimpleJob(operation, "success")

	if len(outputs) == 1 {
		h.sendFile(w, r, outputs[0])
		return
	}
	zipPath := s.Join(zipName)
	if err := archive.BuildZip(zipPath, outputs); err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.sendFile(w, r, zipPath)
}

// collectURLs gathers download targets from the url form field and any
// uploaded link document, in that order, without duplicates.
func (h *Handlers) collectURLs(r *http.Request, s *workdir.Scratch) ([]string, error) {
	var urls []string
	seen := make(map[string]bool)

	add := func(list []string) {
		for _, u := range list {
			if !seen[u] {
				seen[u] = true
				urls = append(urls, u)
			}
		}
	}

	for _, line := range strings.Fields(r.FormValue("url")) {
		add(fetch.FindURLs(line))
	}

	path, err := saveUpload(r, "file", s)
	switch {
	case err == nil:
		if !urlListExts[filetypes.Ext(path)] {
			return nil, errors.New("url list must be a .txt, .pdf or .docx file")
		}
		extracted, err := fetch.ExtractURLs(path)
		if err != nil {
			return nil, err
		}
		add(extracted)
	case uploadErrorStatus(err) == http.StatusRequestEntityTooLarge:
		return nil, err
	}

	return urls, nil
}
