// Package handlers implements the HTTP endpoints of the file forge service:
// image, PDF, office, video, download, QR and generic compression
// operations, plus the health, status and version endpoints.
//
// Handlers are synchronous. Each request gets a scratch directory under the
// work root that is removed when the handler returns; uploaded archives fan
// out across the shared worker pool in internal/archive.
package handlers
