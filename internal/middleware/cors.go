package middleware

import (
	"net/http"
)

// CORSConfig holds configuration for the CORS middleware
type CORSConfig struct {
	// AllowedOrigin is the origin allowed to call the API ("*" allows any)
	AllowedOrigin string
	// AllowedMethods are the methods advertised in preflight responses
	AllowedMethods string
	// AllowedHeaders are the headers advertised in preflight responses
	AllowedHeaders string
	// ExposedHeaders are response headers the browser may read
	ExposedHeaders string
}

// DefaultCORSConfig returns the default CORS configuration
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigin:  "*",
		AllowedMethods: "GET, POST, OPTIONS",
		AllowedHeaders: "Content-Type",
		ExposedHeaders: "Content-Disposition, X-Final-Size, X-Returned, X-Method",
	}
}

// CORS returns a middleware that adds CORS headers and answers preflight
// requests for the configured origin.
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := config.AllowedOrigin
			if origin == "" {
				origin = "*"
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", config.AllowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", config.AllowedHeaders)
			w.Header().Set("Access-Control-Expose-Headers", config.ExposedHeaders)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
