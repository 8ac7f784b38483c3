package middleware

import (
	"net/http"
)

// MaxUploadBytes returns a middleware that caps request body size. Requests
// exceeding the limit fail inside the handler's multipart read with an error
// the handler maps to 413.
func MaxUploadBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
