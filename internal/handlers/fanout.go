package handlers

import (
	"errors"
	"net/http"

	"file-forge/internal/archive"
	"file-forge/internal/filetypes"
	"file-forge/internal/logging"
	"file-forge/internal/pdfops"
	"file-forge/internal/workdir"
)

// fanoutJob describes one run of an endpoint that accepts either a single
// file or a zip of files.
type fanoutJob struct {
	operation string            // route name, used for metrics labels
	zipName   string            // download name when the response is a zip
	accept    func(string) bool // archive entry filter
	transform archive.Transform
	// wrapSingle zips the response even when there is only one output
	wrapSingle bool
}

// runFanout uploads "file", dispatches single-file versus archive input,
// and streams back either the lone result or a zip of all results.
func (h *Handlers) runFanout(w http.ResponseWriter, r *http.Request, s *workdir.Scratch, job fanoutJob) {
	upload, err := saveUpload(r, "file", s)
	if err != nil {
		writeJSONError(w, err.Error(), uploadErrorStatus(err))
		return
	}

	var outputs []string
	switch {
	case filetypes.IsZip(upload):
		outputs, err = h.fanoutArchive(r, s, upload, job)
	case job.accept != nil && !job.accept(upload):
		err = errUnsupportedType
	default:
		outputs, err = job.transform(r.Context(), upload)
		if err == nil && len(outputs) == 0 {
			err = archive.ErrAllEntriesFailed
		}
	}
	recordJob(job.operation, err, upload, firstOf(outputs))
	if err != nil {
		writeJSONError(w, err.Error(), errorStatus(err))
		return
	}

	if len(outputs) == 1 && !job.wrapSingle {
		h.sendFile(w, r, outputs[0])
		return
	}

	zipPath := s.Join(job.zipName)
	if err := archive.BuildZip(zipPath, outputs); err != nil {
		logging.Error("failed to build result zip for %s: %v", job.operation, err)
		writeJSONError(w, "failed to build result archive", http.StatusInternalServerError)
		return
	}
	h.sendFile(w, r, zipPath)
}

func (h *Handlers) fanoutArchive(r *http.Request, s *workdir.Scratch, zipPath string, job fanoutJob) ([]string, error) {
	entriesDir, err := s.Mkdir("entries")
	if err != nil {
		return nil, err
	}
	inputs, err := archive.Unpack(zipPath, entriesDir, job.accept)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, errNoProcessableEntries
	}

	pool := archive.NewFanout(archive.FanoutConfig{
		Operation:  job.operation,
		NumWorkers: h.config.ZipWorkers,
		Monitor:    h.monitor,
	}, job.transform)

	result, err := pool.Run(r.Context(), inputs)
	if err != nil {
		return nil, err
	}
	logging.Info("%s archive: %d succeeded, %d failed", job.operation, result.Succeeded, result.Failed)
	return result.Outputs, nil
}

var errNoProcessableEntries = errors.New("archive contains no processable entries")

var errUnsupportedType = errors.New("unsupported file type for this operation")

// errorStatus maps processing errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, pdfops.ErrWrongPassword):
		return http.StatusUnauthorized
	case errors.Is(err, errNoProcessableEntries), errors.Is(err, errUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, archive.ErrAllEntriesFailed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func firstOf(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	return paths[0]
}

// acceptExts builds an archive entry filter from an extension set.
func acceptExts(exts map[string]bool) func(string) bool {
	return func(name string) bool {
		return exts[filetypes.Ext(name)]
	}
}
