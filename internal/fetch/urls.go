package fetch

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"file-forge/internal/filetypes"
	"file-forge/internal/logging"
	"file-forge/internal/pdfops"
)

// urlPattern matches http and https URLs in free-form text.
var urlPattern = regexp.MustCompile(`https?://[^\s<>"'\)\]]+`)

// xmlTagPattern strips markup when scanning docx document XML.
var xmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// ExtractURLs pulls every http(s) URL out of an uploaded link list. The
// format is chosen by extension: .txt, .pdf or .docx. Duplicates are removed
// with the first occurrence kept, so download order follows the document.
func ExtractURLs(path string) ([]string, error) {
	var text string

	switch ext := filetypes.Ext(path); ext {
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		text = string(data)
	case ".pdf":
		extracted, err := pdfops.ExtractText(path)
		if err != nil {
			return nil, err
		}
		text = extracted
	case ".docx":
		extracted, err := docxText(path)
		if err != nil {
			return nil, err
		}
		text = extracted
	default:
		return nil, fmt.Errorf("unsupported link list format %q", ext)
	}

	urls := FindURLs(text)
	logging.Debug("extracted %d URLs from %s", len(urls), path)
	return urls, nil
}

// FindURLs returns the deduplicated URLs in text, in order of first
// appearance. Trailing punctuation that is never part of a URL is trimmed.
func FindURLs(text string) []string {
	seen := make(map[string]bool)
	var urls []string
	for _, u := range urlPattern.FindAllString(text, -1) {
		u = strings.TrimRight(u, ".,;")
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	return urls
}

// docxText extracts the text content of a docx file by stripping the markup
// from its main document part. Runs are concatenated without separators so
// URLs split across formatting runs survive.
func docxText(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}
	defer zr.Close()

	for _, entry := range zr.File {
		if entry.Name != "word/document.xml" {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return "", err
		}
		// paragraph ends become newlines so URLs in adjacent paragraphs
		// do not run together
		text := strings.ReplaceAll(string(data), "</w:p>", "\n")
		return xmlTagPattern.ReplaceAllString(text, ""), nil
	}
	return "", fmt.Errorf("no document body in docx")
}
