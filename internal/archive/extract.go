package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"file-forge/internal/filetypes"
	"file-forge/internal/logging"
)

// junkEntry reports archive members that are packaging noise rather than
// payload (macOS resource forks, desktop metadata, hidden files).
func junkEntry(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(name, "__MACOSX/") ||
		base == ".DS_Store" ||
		base == "Thumbs.db" ||
		strings.HasPrefix(base, ".")
}

// Unpack extracts the payload entries of the ZIP at zipPath into destDir,
// flattened to sanitized basenames (duplicate names get " (n)" counters).
// Entries rejected by accept are skipped. Returns the extracted paths in
// archive order.
func Unpack(zipPath, destDir string, accept func(name string) bool) ([]string, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer reader.Close()

	seen := make(map[string]int)
	var extracted []string

	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() || junkEntry(entry.Name) {
			continue
		}

		name := filetypes.SanitizeFilename(entry.Name)
		if accept != nil && !accept(name) {
			logging.Debug("Skipping archive entry %s (not accepted)", entry.Name)
			continue
		}

		name = dedupeName(seen, name)
		target := filepath.Join(destDir, name)

		// The sanitized basename cannot traverse, but keep the guard in
		// case sanitization rules loosen later.
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			logging.Warn("Skipping archive entry with unsafe path: %s", entry.Name)
			continue
		}

		if err := extractEntry(entry, target); err != nil {
			logging.Warn("Failed to extract %s: %v", entry.Name, err)
			continue
		}
		extracted = append(extracted, target)
	}

	return extracted, nil
}

func extractEntry(entry *zip.File, target string) error {
	src, err := entry.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// dedupeName returns name, or "base (n).ext" when the name was already used.
func dedupeName(seen map[string]int, name string) string {
	key := strings.ToLower(name)
	count := seen[key]
	seen[key] = count + 1
	if count == 0 {
		return name
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s (%d)%s", base, count, ext)
}
