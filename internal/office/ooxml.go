package office

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"strings"

	"file-forge/internal/filetypes"
	"file-forge/internal/logging"

	"github.com/disintegration/imaging"
)

// mediaPrefixes maps OOXML container extensions to the directory their
// embedded media lives in.
var mediaPrefixes = map[string]string{
	".docx": "word/media/",
	".pptx": "ppt/media/",
	".xlsx": "xl/media/",
}

// IsOOXML reports whether the extension is a recompressible OOXML container.
func IsOOXML(ext string) bool {
	_, ok := mediaPrefixes[ext]
	return ok
}

// RecompressMedia rewrites an OOXML document with its embedded images
// recompressed at the given JPEG quality and scale factor. Document XML and
// anything that does not shrink are copied through untouched.
func RecompressMedia(inPath, outPath string, quality int, scale float64) error {
	prefix, ok := mediaPrefixes[filetypes.Ext(inPath)]
	if !ok {
		return fmt.Errorf("not an OOXML container: %q", filetypes.Ext(inPath))
	}
	return recompressZip(inPath, outPath, prefix, quality, scale)
}

// RecompressZip recompresses every image entry in a plain zip archive.
func RecompressZip(inPath, outPath string, quality int, scale float64) error {
	return recompressZip(inPath, outPath, "", quality, scale)
}

func recompressZip(inPath, outPath, prefix string, quality int, scale float64) error {
	zr, err := zip.OpenReader(inPath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer zr.Close()

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(f)

	for _, entry := range zr.File {
		if err := rewriteEntry(zw, entry, prefix, quality, scale); err != nil {
			zw.Close()
			f.Close()
			os.Remove(outPath)
			return err
		}
	}

	if err := zw.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func rewriteEntry(zw *zip.Writer, entry *zip.File, prefix string, quality int, scale float64) error {
	if shrunk, ok := recompressImageEntry(entry, prefix, quality, scale); ok {
		hdr := entry.FileHeader
		hdr.Method = zip.Deflate
		hdr.CRC32 = 0
		hdr.CompressedSize64 = 0
		hdr.UncompressedSize64 = 0
		w, err := zw.CreateHeader(&hdr)
		if err != nil {
			return err
		}
		_, err = w.Write(shrunk)
		return err
	}
	return zw.Copy(entry)
}

// recompressImageEntry returns the re-encoded bytes of an image entry, or
// ok=false when the entry should pass through unchanged (wrong path, not an
// image, or the result did not shrink).
func recompressImageEntry(entry *zip.File, prefix string, quality int, scale float64) ([]byte, bool) {
	if prefix != "" && !strings.HasPrefix(entry.Name, prefix) {
		return nil, false
	}
	ext := filetypes.Ext(entry.Name)
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return nil, false
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, false
	}
	defer rc.Close()

	img, _, err := image.Decode(rc)
	if err != nil {
		logging.Debug("skipping undecodable media entry %s: %v", entry.Name, err)
		return nil, false
	}

	if scale > 0 && scale < 1 {
		w := int(float64(img.Bounds().Dx()) * scale)
		if w > 0 {
			img = imaging.Resize(img, w, 0, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if ext == ".png" {
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		err = enc.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	if err != nil || uint64(buf.Len()) >= entry.UncompressedSize64 {
		return nil, false
	}

	logging.Debug("recompressed %s: %d -> %d bytes", entry.Name, entry.UncompressedSize64, buf.Len())
	return buf.Bytes(), true
}
