package handlers

import (
	"net/http"
	"runtime"
	"time"

	"file-forge/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// Work-root usage
	ScratchDirs  int   `json:"scratchDirs"`
	ScratchBytes int64 `json:"scratchBytes"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	stats := h.work.GetStats()

	response := HealthResponse{
		Status:       statusHealthy,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		ScratchDirs:  stats.Entries,
		ScratchBytes: stats.UsageBytes,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	// Degraded means running but with every external converter missing.
	anyTool := false
	for _, status := range h.config.Tools {
		if status.Available {
			anyTool = true
			break
		}
	}
	if !anyTool {
		response.Status = statusDegraded
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 once the work root is writable and handlers
// are wired, which is true as soon as the server is accepting traffic.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	writeJSON(w, map[string]string{
		"status": "ready",
	})
}

// GetVersion returns the application version and build information
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	buildInfo := startup.GetBuildInfo()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, buildInfo)
}

// StatusResponse reports converter availability and request limits.
type StatusResponse struct {
	Converters map[string]bool `json:"converters"`
	Limits     struct {
		MaxUploadBytes  int64 `json:"maxUploadBytes"`
		DownloadWorkers int   `json:"downloadWorkers"`
		ZipWorkers      int   `json:"zipWorkers"`
	} `json:"limits"`
}

// Status reports which external converters this instance can use.
func (h *Handlers) Status(w http.ResponseWriter, _ *http.Request) {
	response := StatusResponse{
		Converters: make(map[string]bool, len(h.config.Tools)),
	}
	for tool, status := range h.config.Tools {
		response.Converters[string(tool)] = status.Available
	}
	response.Limits.MaxUploadBytes = h.config.MaxUploadBytes
	response.Limits.DownloadWorkers = h.config.DownloadWorkers
	response.Limits.ZipWorkers = h.config.ZipWorkers

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}

// endpointInfo describes one route for the index document.
type endpointInfo struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	About  string `json:"about"`
}

var endpointIndex = []endpointInfo{
	{"POST", "/img-compress", "recompress images, zip supported"},
	{"POST", "/img-jpg", "convert images to JPEG"},
	{"POST", "/img-png", "convert images to PNG"},
	{"POST", "/img-webp", "convert images to WebP"},
	{"POST", "/upscale", "enlarge images 2x to 16x"},
	{"POST", "/remove-imgbg", "strip image backgrounds"},
	{"POST", "/watermark-imgvideo", "watermark an image or video"},
	{"POST", "/generate-placeholder", "generate a placeholder image"},
	{"POST", "/generate-qr", "generate a QR code"},
	{"POST", "/video-upscale", "upscale a video"},
	{"POST", "/download-video-batch", "download videos from URLs"},
	{"POST", "/download-audio-batch", "download or extract audio"},
	{"POST", "/protect-pdf", "password-protect PDFs"},
	{"POST", "/unlock-pdf", "remove PDF password"},
	{"POST", "/pdf-to-word", "convert PDFs to Word"},
	{"POST", "/watermark-files", "watermark PDF or Word documents"},
	{"POST", "/file-pdf", "convert documents and images to PDF"},
	{"POST", "/convert-all-to-ppt", "convert documents to picture slides"},
	{"POST", "/compress", "generic file compressor"},
	{"GET", "/health", "service health"},
	{"GET", "/version", "build information"},
	{"GET", "/status", "converter availability"},
}

// Index lists the available endpoints. GET /.
func (h *Handlers) Index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"service":   "file-forge",
		"version":   startup.Version,
		"endpoints": endpointIndex,
	})
}
