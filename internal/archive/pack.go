package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"file-forge/internal/filetypes"
)

// BuildZip writes the named files into a new ZIP at outPath. Members are
// stored under their sanitized basenames; duplicates get " (n)" counters.
func BuildZip(outPath string, files []string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	writer := zip.NewWriter(out)
	seen := make(map[string]int)

	for _, file := range files {
		name := dedupeName(seen, filetypes.SanitizeFilename(filepath.Base(file)))
		if err := addEntry(writer, file, name); err != nil {
			writer.Close()
			return fmt.Errorf("failed to add %s: %w", name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}

func addEntry(writer *zip.Writer, file, name string) error {
	src, err := os.Open(file)
	if err != nil {
		return err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	dst, err := writer.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(dst, src)
	return err
}
