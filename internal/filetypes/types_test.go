package filetypes

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetKind(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		want Kind
	}{
		{
			name: "JPEG image",
			ext:  ".jpg",
			want: KindImage,
		},
		{
			name: "WebP image",
			ext:  ".webp",
			want: KindImage,
		},
		{
			name: "MP4 video",
			ext:  ".mp4",
			want: KindVideo,
		},
		{
			name: "PDF document",
			ext:  ".pdf",
			want: KindPDF,
		},
		{
			name: "Word document",
			ext:  ".docx",
			want: KindOffice,
		},
		{
			name: "ZIP archive",
			ext:  ".zip",
			want: KindArchive,
		},
		{
			name: "HTML file",
			ext:  ".html",
			want: KindText,
		},
		{
			name: "Unknown extension",
			ext:  ".xyz",
			want: KindOther,
		},
		{
			name: "Empty extension",
			ext:  "",
			want: KindOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetKind(tt.ext)
			if got != tt.want {
				t.Errorf("GetKind(%q) = %v, want %v", tt.ext, got, tt.want)
			}
		})
	}
}

func TestGetMimeType(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		want string
	}{
		{
			name: "JPEG mime type",
			ext:  ".jpg",
			want: "image/jpeg",
		},
		{
			name: "PDF mime type",
			ext:  ".pdf",
			want: "application/pdf",
		},
		{
			name: "DOCX mime type",
			ext:  ".docx",
			want: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		},
		{
			name: "Unknown extension",
			ext:  ".xyz",
			want: "application/octet-stream",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetMimeType(tt.ext)
			if got != tt.want {
				t.Errorf("GetMimeType(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "Plain name unchanged",
			input: "report.pdf",
			want:  "report.pdf",
		},
		{
			name:  "Directory traversal stripped",
			input: "../../etc/passwd",
			want:  "passwd",
		},
		{
			name:  "Windows path stripped",
			input: `C:\Users\me\photo.jpg`,
			want:  "photo.jpg",
		},
		{
			name:  "Leading dots removed",
			input: "...hidden.png",
			want:  "hidden.png",
		},
		{
			name:  "Control characters replaced",
			input: "bad\x00name\n.txt",
			want:  "bad_name_.txt",
		},
		{
			name:  "Unsafe punctuation replaced",
			input: `a<b>c:"d".zip`,
			want:  "a_b_c__d_.zip",
		},
		{
			name:  "Empty falls back to upload",
			input: "",
			want:  "upload",
		},
		{
			name:  "Only dots falls back to upload",
			input: "...",
			want:  "upload",
		},
		{
			name:  "Spaces preserved inside name",
			input: "my holiday photo.jpeg",
			want:  "my holiday photo.jpeg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeFilename(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtAndBase(t *testing.T) {
	if got := Ext("Photo.JPG"); got != ".jpg" {
		t.Errorf("Ext(%q) = %q, want %q", "Photo.JPG", got, ".jpg")
	}
	if got := Ext("noext"); got != "" {
		t.Errorf("Ext(%q) = %q, want empty", "noext", got)
	}
	if got := Base("dir/report.final.pdf"); got != "report.final" {
		t.Errorf("Base() = %q, want %q", got, "report.final")
	}
}

func TestSniffImageFormat(t *testing.T) {
	tests := []struct {
		name   string
		header []byte
		want   string
	}{
		{
			name:   "JPEG magic",
			header: []byte{0xFF, 0xD8, 0xFF, 0xE0},
			want:   "jpeg",
		},
		{
			name:   "PNG magic",
			header: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
			want:   "png",
		},
		{
			name:   "WebP magic",
			header: []byte{'R', 'I', 'F', 'F', 0, 0, 0, 0, 'W', 'E', 'B', 'P'},
			want:   "webp",
		},
		{
			name:   "GIF magic",
			header: []byte{'G', 'I', 'F', '8', '9', 'a'},
			want:   "gif",
		},
		{
			name:   "BMP magic",
			header: []byte{'B', 'M', 0x36, 0x00},
			want:   "bmp",
		},
		{
			name:   "TIFF little endian",
			header: []byte{0x49, 0x49, 0x2A, 0x00},
			want:   "tiff",
		},
		{
			name:   "Garbage",
			header: []byte{0x00, 0x01, 0x02, 0x03},
			want:   "unknown",
		},
		{
			name:   "Empty",
			header: nil,
			want:   "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SniffImageFormat(tt.header)
			if got != tt.want {
				t.Errorf("SniffImageFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectImageFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.png")
	pngHeader := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
	if err := os.WriteFile(path, pngHeader, 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	got, err := DetectImageFormat(path)
	if err != nil {
		t.Fatalf("DetectImageFormat returned error: %v", err)
	}
	if got != "png" {
		t.Errorf("Expected png, got %q", got)
	}

	if _, err := DetectImageFormat(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("Expected error for missing file, got nil")
	}
}

func TestIsZip(t *testing.T) {
	dir := t.TempDir()

	zipPath := filepath.Join(dir, "a.zip")
	if err := os.WriteFile(zipPath, []byte{'P', 'K', 0x03, 0x04, 0, 0}, 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	if !IsZip(zipPath) {
		t.Error("Expected IsZip to return true for ZIP header")
	}

	txtPath := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(txtPath, []byte("hello"), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	if IsZip(txtPath) {
		t.Error("Expected IsZip to return false for text file")
	}
}
