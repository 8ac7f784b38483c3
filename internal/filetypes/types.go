package filetypes

import (
	"path/filepath"
	"strings"
)

// Kind classifies an uploaded file by what pipelines can accept it.
type Kind string

const (
	// KindImage represents a raster image file.
	KindImage Kind = "image"
	// KindVideo represents a video container file.
	KindVideo Kind = "video"
	// KindPDF represents a PDF document.
	KindPDF Kind = "pdf"
	// KindOffice represents an office document (Word, Excel, PowerPoint).
	KindOffice Kind = "office"
	// KindArchive represents a ZIP archive.
	KindArchive Kind = "archive"
	// KindText represents a plain text or HTML file.
	KindText Kind = "text"
	// KindOther represents an unknown or unsupported file type.
	KindOther Kind = "other"
)

// ImageExtensions maps file extensions to whether the image pipelines accept them.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
}

// VideoExtensions maps file extensions to whether the video pipelines accept them.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
}

// OfficeExtensions maps file extensions to whether LibreOffice can convert them.
var OfficeExtensions = map[string]bool{
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".ppt":  true,
	".pptx": true,
	".odt":  true,
	".ods":  true,
	".odp":  true,
	".rtf":  true,
}

// PDFConvertible maps file extensions accepted by the everything-to-PDF pipeline.
var PDFConvertible = map[string]bool{
	".doc": true, ".docx": true,
	".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true,
	".odt": true, ".ods": true, ".odp": true, ".rtf": true,
	".html": true, ".htm": true, ".txt": true,
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
	".pdf": true,
}

// PPTConvertible maps file extensions accepted by the everything-to-PPT pipeline.
var PPTConvertible = map[string]bool{
	".pdf": true,
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
	".txt":  true,
	".doc":  true, ".docx": true,
	".xls":  true, ".xlsx": true,
	".ppt":  true, ".pptx": true,
	".html": true, ".htm": true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	// Images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",

	// Videos
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".webm": "video/webm",
	".m4v":  "video/x-m4v",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".3gp":  "video/3gpp",

	// Audio
	".mp3": "audio/mpeg",
	".m4a": "audio/mp4",
	".wav": "audio/wav",

	// Documents
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".txt":  "text/plain",
	".html": "text/html",
	".htm":  "text/html",

	// Archives
	".zip": "application/zip",
}

// GetKind returns the Kind for a given file extension.
// The extension should be lowercase and include the leading dot (e.g. ".jpg").
// Returns KindOther if the extension is not recognized.
func GetKind(ext string) Kind {
	switch {
	case ImageExtensions[ext]:
		return KindImage
	case VideoExtensions[ext]:
		return KindVideo
	case ext == ".pdf":
		return KindPDF
	case OfficeExtensions[ext]:
		return KindOffice
	case ext == ".zip":
		return KindArchive
	case ext == ".txt" || ext == ".html" || ext == ".htm":
		return KindText
	}
	return KindOther
}

// GetMimeType returns the MIME type for a given file extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// Ext returns the lowercased extension of name, including the leading dot.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// Base returns the name without directory components or extension.
func Base(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SanitizeFilename reduces an uploaded filename to a safe basename: path
// separators and parent references are stripped, control characters and
// characters that are unsafe in Content-Disposition or shell contexts are
// replaced with underscores, and leading dots are removed so a name can
// never be hidden or escape the scratch directory.
func SanitizeFilename(name string) string {
	// Strip any directory components (both separators, uploads may come
	// from Windows clients).
	if idx := strings.LastIndexAny(name, `/\`); idx >= 0 {
		name = name[idx+1:]
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f:
			b.WriteRune('_')
		case strings.ContainsRune(`<>:"|?*`, r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	name = b.String()

	name = strings.TrimLeft(name, ". ")
	name = strings.TrimRight(name, ". ")

	if name == "" {
		name = "upload"
	}
	return name
}
