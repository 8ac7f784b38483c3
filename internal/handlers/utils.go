package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"file-forge/internal/filetypes"
	"file-forge/internal/logging"
	"file-forge/internal/metrics"
	"file-forge/internal/startup"
	"file-forge/internal/streaming"
	"file-forge/internal/workdir"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"error": message})
}

// writeJSONStatus writes a simple status response as JSON.
func writeJSONStatus(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": status})
}

// scratch creates a per-request scratch directory. Callers defer Remove.
func (h *Handlers) scratch(w http.ResponseWriter, prefix string) (*workdir.Scratch, bool) {
	s, err := h.work.Create(prefix)
	if err != nil {
		logging.Error("failed to create scratch directory: %v", err)
		writeJSONError(w, "internal error", http.StatusInternalServerError)
		return nil, false
	}
	return s, true
}

// saveUpload copies the named multipart file into the scratch directory
// under its sanitized client filename and returns the path.
func saveUpload(r *http.Request, field string, s *workdir.Scratch) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", fmt.Errorf("file too large: %w", err)
		}
		return "", fmt.Errorf("missing file field %q", field)
	}
	defer file.Close()

	name := filetypes.SanitizeFilename(header.Filename)
	dst := s.Join(name)

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	written, err := io.Copy(out, file)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", err
	}

	logging.Debug("saved upload %s (%d bytes)", name, written)
	return dst, nil
}

// uploadErrorStatus maps saveUpload failures to HTTP status codes. A body
// that tripped the MaxBytesReader limit is a 413, everything else a 400.
func uploadErrorStatus(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// requireTool answers 503 and returns false when an external converter is
// not installed.
func (h *Handlers) requireTool(w http.ResponseWriter, tool startup.Tool) bool {
	if !h.config.ToolAvailable(tool) {
		writeJSONError(w, fmt.Sprintf("%s is not available on this server", tool), http.StatusServiceUnavailable)
		return false
	}
	return true
}

// sendFile streams a produced file as an attachment. The Content-Type comes
// from the produced file's extension, never from the uploaded name.
func (h *Handlers) sendFile(w http.ResponseWriter, r *http.Request, path string) {
	h.sendFileNamed(w, r, path, filepath.Base(path))
}

func (h *Handlers) sendFileNamed(w http.ResponseWriter, r *http.Request, path, downloadName string) {
	f, err := os.Open(path)
	if err != nil {
		logging.Error("failed to open result file %s: %v", path, err)
		writeJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", filetypes.GetMimeType(filetypes.Ext(path)))
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName))

	if err := streaming.StreamWithTimeout(r.Context(), w, f, streaming.DefaultTimeoutWriterConfig()); err != nil {
		logging.Debug("stream ended early for %s: %v", downloadName, err)
	}
}

// sendBytes writes generated content inline.
func sendBytes(w http.ResponseWriter, data []byte, contentType, downloadName string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if downloadName != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
	}
	if _, err := w.Write(data); err != nil {
		logging.Debug("failed to write response body: %v", err)
	}
}

// formInt parses an optional integer form value with range validation.
func formInt(r *http.Request, name string, def, min, max int) (int, error) {
	raw := r.FormValue(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	if n < min || n > max {
		return 0, fmt.Errorf("%s must be between %d and %d", name, min, max)
	}
	return n, nil
}

// formFloat parses an optional float form value.
func formFloat(r *http.Request, name string, def float64) (float64, error) {
	raw := r.FormValue(name)
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return f, nil
}

// formValue returns a form value or a default when absent.
func formValue(r *http.Request, name, def string) string {
	if v := r.FormValue(name); v != "" {
		return v
	}
	return def
}

// recordJob counts an operation outcome and observes input/output sizes.
func recordJob(operation string, err error, inPath, outPath string) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.JobsTotal.WithLabelValues(operation, status).Inc()

	if info, statErr := os.Stat(inPath); statErr == nil {
		metrics.JobInputBytes.WithLabelValues(operation).Observe(float64(info.Size()))
	}
	if err == nil && outPath != "" {
		if info, statErr := os.Stat(outPath); statErr == nil {
			metrics.JobOutputBytes.WithLabelValues(operation).Observe(float64(info.Size()))
		}
	}
}

// errToolUnavailable reports a missing external tool from inside a transform,
// where the 503 shortcut of requireTool is not reachable.
func errToolUnavailable(tool startup.Tool) error {
	return fmt.Errorf("%s is not available on this server", tool)
}

// recordSimpleJob counts an operation outcome with no file sizes involved.
func recordSimpleJob(operation, status string) {
	metrics.JobsTotal.WithLabelValues(operation, status).Inc()
}

// decodeJSONBody decodes a JSON request body into dst. Unknown fields are
// rejected so typos in request payloads surface as errors. An empty body is
// allowed; callers fall back to their defaults.
func decodeJSONBody(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("invalid JSON body: %v", err)
	}
	return nil
}
