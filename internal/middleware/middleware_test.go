package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewResponseWriter(t *testing.T) {
	w := httptest.NewRecorder()
	rw := newResponseWriter(w)

	if rw == nil {
		t.Fatal("Expected responseWriter to be created")
	}

	if rw.statusCode != http.StatusOK {
		t.Errorf("Expected default status code 200, got %d", rw.statusCode)
	}

	if rw.bytesWritten != 0 {
		t.Errorf("Expected bytesWritten to be 0, got %d", rw.bytesWritten)
	}

	if rw.wroteHeader {
		t.Error("Expected wroteHeader to be false initially")
	}
}

func TestResponseWriterWriteHeader(t *testing.T) {
	w := httptest.NewRecorder()
	rw := newResponseWriter(w)

	rw.WriteHeader(http.StatusNotFound)

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("Expected status code 404, got %d", rw.statusCode)
	}

	if !rw.wroteHeader {
		t.Error("Expected wroteHeader to be true after WriteHeader")
	}

	// Write header again - should be ignored
	rw.WriteHeader(http.StatusInternalServerError)

	if rw.statusCode != http.StatusNotFound {
		t.Error("Status code should not change after first WriteHeader")
	}
}

func TestResponseWriterWrite(t *testing.T) {
	w := httptest.NewRecorder()
	rw := newResponseWriter(w)

	data := []byte("test data")
	n, err := rw.Write(data)

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if n != len(data) {
		t.Errorf("Expected to write %d bytes, wrote %d", len(data), n)
	}

	if rw.bytesWritten != int64(len(data)) {
		t.Errorf("Expected bytesWritten to be %d, got %d", len(data), rw.bytesWritten)
	}

	if !rw.wroteHeader {
		t.Error("Expected wroteHeader to be true after Write")
	}
}

func TestDefaultLoggingConfig(t *testing.T) {
	config := DefaultLoggingConfig()

	if len(config.SkipPaths) != 0 {
		t.Errorf("Expected empty SkipPaths, got %d items", len(config.SkipPaths))
	}

	if len(config.SkipExtensions) == 0 {
		t.Error("Expected SkipExtensions to have default values")
	}

	if config.LogStaticFiles {
		t.Error("Expected LogStaticFiles to be false by default")
	}

	if !config.LogHealthChecks {
		t.Error("Expected LogHealthChecks to be true by default")
	}
}

func TestLoggerMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	middleware := Logger(DefaultLoggingConfig())
	wrapped := middleware(handler)

	req := httptest.NewRequest(http.MethodPost, "/img-compress", nil)
	req.Header.Set("User-Agent", "test-agent")
	w := httptest.NewRecorder()

	wrapped.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "ok" {
		t.Errorf("Expected body 'ok', got %q", w.Body.String())
	}
}

func TestSanitizeLogField(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "Plain string unchanged",
			input: "GET /img-compress",
			want:  "GET /img-compress",
		},
		{
			name:  "Newlines become spaces",
			input: "line1\nline2\rline3",
			want:  "line1 line2 line3",
		},
		{
			name:  "Null bytes stripped",
			input: "a\x00b",
			want:  "ab",
		},
		{
			name:  "ANSI escape stripped",
			input: "a\x1b[31mb",
			want:  "a[31mb",
		},
		{
			name:  "Tabs preserved",
			input: "a\tb",
			want:  "a\tb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizeLogField(tt.input)
			if got != tt.want {
				t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{
			name:       "RemoteAddr only",
			remoteAddr: "10.0.0.1:12345",
			want:       "10.0.0.1",
		},
		{
			name:       "X-Forwarded-For wins",
			remoteAddr: "10.0.0.1:12345",
			xff:        "203.0.113.9, 10.0.0.2",
			want:       "203.0.113.9",
		},
		{
			name:       "X-Real-IP when no XFF",
			remoteAddr: "10.0.0.1:12345",
			xri:        "203.0.113.10",
			want:       "203.0.113.10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			got := getClientIP(req)
			if got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultCompressionConfig(t *testing.T) {
	config := DefaultCompressionConfig()

	if config.MinSize != 1024 {
		t.Errorf("Expected MinSize to be 1024, got %d", config.MinSize)
	}

	if config.Level != gzip.DefaultCompression {
		t.Errorf("Expected Level to be DefaultCompression (%d), got %d", gzip.DefaultCompression, config.Level)
	}

	if len(config.CompressibleTypes) == 0 {
		t.Error("Expected CompressibleTypes to have default values")
	}
}

func TestCompressionMiddleware(t *testing.T) {
	tests := []struct {
		name              string
		responseBody      string
		contentType       string
		acceptEncoding    string
		expectCompression bool
	}{
		{
			name:              "Compresses large JSON",
			responseBody:      strings.Repeat(`{"error":"something went wrong"} `, 100),
			contentType:       "application/json",
			acceptEncoding:    "gzip",
			expectCompression: true,
		},
		{
			name:              "Doesn't compress small responses",
			responseBody:      "Small",
			contentType:       "application/json",
			acceptEncoding:    "gzip",
			expectCompression: false,
		},
		{
			name:              "Doesn't compress binary attachments",
			responseBody:      strings.Repeat("\x00\x01\x02\x03", 1024),
			contentType:       "application/pdf",
			acceptEncoding:    "gzip",
			expectCompression: false,
		},
		{
			name:              "Doesn't compress without Accept-Encoding",
			responseBody:      strings.Repeat("compressible text ", 200),
			contentType:       "text/plain",
			acceptEncoding:    "",
			expectCompression: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.Write([]byte(tt.responseBody))
			})

			middleware := Compression(DefaultCompressionConfig())
			wrapped := middleware(handler)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}
			w := httptest.NewRecorder()

			wrapped.ServeHTTP(w, req)

			gotEncoding := w.Header().Get("Content-Encoding")
			if tt.expectCompression {
				if gotEncoding != "gzip" {
					t.Errorf("Expected gzip encoding, got %q", gotEncoding)
				}
				gz, err := gzip.NewReader(bytes.NewReader(w.Body.Bytes()))
				if err != nil {
					t.Fatalf("Failed to create gzip reader: %v", err)
				}
				decompressed, err := io.ReadAll(gz)
				if err != nil {
					t.Fatalf("Failed to decompress: %v", err)
				}
				if string(decompressed) != tt.responseBody {
					t.Error("Decompressed body doesn't match original")
				}
			} else {
				if gotEncoding == "gzip" {
					t.Error("Expected no compression")
				}
				if w.Body.String() != tt.responseBody {
					t.Error("Body doesn't match original")
				}
			}
		})
	}
}

func TestDefaultMetricsConfig(t *testing.T) {
	config := DefaultMetricsConfig()

	expectedPaths := []string{"/metrics", "/health", "/healthz", "/livez", "/readyz"}
	for _, path := range expectedPaths {
		found := false
		for _, skip := range config.SkipPaths {
			if skip == path {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected %q to be in default SkipPaths", path)
		}
	}
}

func TestMetricsMiddlewareSkipPaths(t *testing.T) {
	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	})

	middleware := Metrics(DefaultMetricsConfig())
	wrapped := middleware(handler)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	if !handlerCalled {
		t.Error("Expected handler to be called for skipped path")
	}
}

func TestMetricsMiddlewareRecordsStatus(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	middleware := Metrics(DefaultMetricsConfig())
	wrapped := middleware(handler)

	req := httptest.NewRequest(http.MethodPost, "/img-compress", nil)
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	if w.Code != http.StatusTeapot {
		t.Errorf("Expected status 418, got %d", w.Code)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"Flat route unchanged", "/img-compress", "/img-compress"},
		{"Root unchanged", "/", "/"},
		{"Deep path truncated", "/a/b/c/d/e/f", "/a/b/c/{path}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizePath(tt.path)
			if got != tt.want {
				t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("adds headers to normal requests", func(t *testing.T) {
		config := DefaultCORSConfig()
		config.AllowedOrigin = "https://forge.example.com"
		wrapped := CORS(config)(handler)

		req := httptest.NewRequest(http.MethodPost, "/img-compress", nil)
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://forge.example.com" {
			t.Errorf("Expected configured origin, got %q", got)
		}
		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
	})

	t.Run("answers preflight without calling handler", func(t *testing.T) {
		called := false
		inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			called = true
		})
		wrapped := CORS(DefaultCORSConfig())(inner)

		req := httptest.NewRequest(http.MethodOptions, "/img-compress", nil)
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)

		if called {
			t.Error("Expected preflight to short-circuit the handler")
		}
		if w.Code != http.StatusNoContent {
			t.Errorf("Expected status 204, got %d", w.Code)
		}
	})

	t.Run("exposes transform result headers", func(t *testing.T) {
		wrapped := CORS(DefaultCORSConfig())(handler)

		req := httptest.NewRequest(http.MethodPost, "/compress", nil)
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)

		exposed := w.Header().Get("Access-Control-Expose-Headers")
		if !strings.Contains(exposed, "X-Returned") {
			t.Errorf("Expected X-Returned in exposed headers, got %q", exposed)
		}
	})
}

func TestMaxUploadBytes(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "too large", http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	wrapped := MaxUploadBytes(16)(handler)

	t.Run("small body passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("tiny"))
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
	})

	t.Run("oversized body rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64)))
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)
		if w.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("Expected status 413, got %d", w.Code)
		}
	})
}
