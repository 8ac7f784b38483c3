package office

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	if err := imaging.Save(imaging.New(w, h, c), path); err != nil {
		t.Fatal(err)
	}
}

func TestBuildPictureDeck(t *testing.T) {
	dir := t.TempDir()
	img1 := filepath.Join(dir, "one.png")
	img2 := filepath.Join(dir, "two.jpg")
	writePNG(t, img1, 800, 600, color.White)
	writePNG(t, img2, 400, 400, color.Black)

	outPath := filepath.Join(dir, "deck.pptx")
	if err := BuildPictureDeck([]string{img1, img2}, outPath); err != nil {
		t.Fatalf("BuildPictureDeck failed: %v", err)
	}

	zr, err := zip.OpenReader(outPath)
	if err != nil {
		t.Fatalf("output is not a readable zip: %v", err)
	}
	defer zr.Close()

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}

	required := []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"ppt/presentation.xml",
		"ppt/_rels/presentation.xml.rels",
		"ppt/slideMasters/slideMaster1.xml",
		"ppt/slideLayouts/slideLayout1.xml",
		"ppt/theme/theme1.xml",
		"ppt/slides/slide1.xml",
		"ppt/slides/slide2.xml",
		"ppt/slides/_rels/slide1.xml.rels",
		"ppt/slides/_rels/slide2.xml.rels",
		"ppt/media/image1.png",
		"ppt/media/image2.jpeg",
	}
	for _, name := range required {
		if !names[name] {
			t.Errorf("missing part %s", name)
		}
	}
}

func TestBuildPictureDeckRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "deck.pptx")

	if err := BuildPictureDeck(nil, outPath); err == nil {
		t.Error("expected error for empty input")
	}

	webp := filepath.Join(dir, "pic.webp")
	if err := os.WriteFile(webp, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := BuildPictureDeck([]string{webp}, outPath); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestFitToSlide(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"wide", 1600, 400},
		{"tall", 400, 1600},
		{"square", 500, 500},
	}

	for _, tt := range tests {
		offX, offY, extX, extY := fitToSlide(tt.w, tt.h)
		if extX > slideWidthEMU || extY > slideHeightEMU {
			t.Errorf("%s: picture %dx%d overflows slide", tt.name, extX, extY)
		}
		if extX != slideWidthEMU && extY != slideHeightEMU {
			t.Errorf("%s: picture %dx%d does not fill either axis", tt.name, extX, extY)
		}
		if offX != (slideWidthEMU-extX)/2 || offY != (slideHeightEMU-extY)/2 {
			t.Errorf("%s: picture not centered", tt.name)
		}
	}
}

// makeDocx builds a docx-shaped zip with one large embedded PNG.
func makeDocx(t *testing.T, path string) {
	t.Helper()

	var imgBuf bytes.Buffer
	img := image.NewNRGBA(image.Rect(0, 0, 300, 300))
	for y := 0; y < 300; y++ {
		for x := 0; x < 300; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 255})
		}
	}
	// no compression so the recompressed entry is guaranteed smaller
	enc := png.Encoder{CompressionLevel: png.NoCompression}
	if err := enc.Encode(&imgBuf, img); err != nil {
		t.Fatal(err)
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)

	doc, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := doc.Write([]byte("<w:document>body</w:document>")); err != nil {
		t.Fatal(err)
	}

	media, err := zw.Create("word/media/image1.png")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := media.Write(imgBuf.Bytes()); err != nil {
		t.Fatal(err)
	}

	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestRecompressMedia(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "report.docx")
	outPath := filepath.Join(dir, "report_out.docx")
	makeDocx(t, inPath)

	if err := RecompressMedia(inPath, outPath, 70, 0.9); err != nil {
		t.Fatalf("RecompressMedia failed: %v", err)
	}

	zr, err := zip.OpenReader(outPath)
	if err != nil {
		t.Fatalf("output is not a readable zip: %v", err)
	}
	defer zr.Close()

	var sawDoc, sawMedia bool
	for _, entry := range zr.File {
		switch entry.Name {
		case "word/document.xml":
			sawDoc = true
			rc, err := entry.Open()
			if err != nil {
				t.Fatal(err)
			}
			var buf bytes.Buffer
			if _, err := buf.ReadFrom(rc); err != nil {
				t.Fatal(err)
			}
			rc.Close()
			if !strings.Contains(buf.String(), "body") {
				t.Error("document.xml content changed")
			}
		case "word/media/image1.png":
			sawMedia = true
			rc, err := entry.Open()
			if err != nil {
				t.Fatal(err)
			}
			if _, err := png.Decode(rc); err != nil {
				t.Errorf("recompressed media is not valid PNG: %v", err)
			}
			rc.Close()
		}
	}
	if !sawDoc || !sawMedia {
		t.Errorf("entries missing from output (doc=%v media=%v)", sawDoc, sawMedia)
	}
}

func TestRecompressMediaWrongExtension(t *testing.T) {
	dir := t.TempDir()
	if err := RecompressMedia(filepath.Join(dir, "file.txt"), filepath.Join(dir, "out.txt"), 70, 1); err == nil {
		t.Error("expected error for non-OOXML input")
	}
}

func TestRecompressZipJPEGQuality(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "photos.zip")
	outPath := filepath.Join(dir, "photos_out.zip")

	var imgBuf bytes.Buffer
	img := image.NewNRGBA(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * y), G: uint8(x), B: uint8(y), A: 255})
		}
	}
	if err := jpeg.Encode(&imgBuf, img, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatal(err)
	}

	f, err := os.Create(inPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("photo.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(imgBuf.Bytes()); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if err := RecompressZip(inPath, outPath, 30, 1); err != nil {
		t.Fatalf("RecompressZip failed: %v", err)
	}

	zr, err := zip.OpenReader(outPath)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	if _, err := jpeg.Decode(rc); err != nil {
		t.Errorf("recompressed entry is not valid JPEG: %v", err)
	}
}

func TestIsOOXML(t *testing.T) {
	for ext, want := range map[string]bool{
		".docx": true, ".pptx": true, ".xlsx": true,
		".pdf": false, ".zip": false, ".doc": false,
	} {
		if got := IsOOXML(ext); got != want {
			t.Errorf("IsOOXML(%q) = %v, want %v", ext, got, want)
		}
	}
}

func TestTextToImage(t *testing.T) {
	dir := t.TempDir()
	txtPath := filepath.Join(dir, "notes.txt")
	content := "first line\n\nthird line\n"
	if err := os.WriteFile(txtPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	pages, err := TextToImage(txtPath, dir)
	if err != nil {
		t.Fatalf("TextToImage failed: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}
	if filepath.Base(pages[0]) != "notes_page001.png" {
		t.Errorf("unexpected page name %q", filepath.Base(pages[0]))
	}

	f, err := os.Open(pages[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("page is not valid PNG: %v", err)
	}
	if img.Bounds().Dx() != textPageWidth || img.Bounds().Dy() != textPageHeight {
		t.Errorf("got %dx%d page", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestTextToImageEmptyFile(t *testing.T) {
	dir := t.TempDir()
	txtPath := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(txtPath, nil, 0644); err != nil {
		t.Fatal(err)
	}

	pages, err := TextToImage(txtPath, dir)
	if err != nil {
		t.Fatalf("TextToImage failed: %v", err)
	}
	// an empty file still yields one blank page
	if len(pages) != 1 {
		t.Errorf("got %d pages, want 1", len(pages))
	}
}

func TestConvertToPDFMissingBinary(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(docPath, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := ConvertToPDF(context.Background(), filepath.Join(dir, "soffice"), docPath, dir); err == nil {
		t.Error("expected error when soffice binary is missing")
	}
}

func TestPDFToWordMissingBinary(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.4"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := PDFToWord(context.Background(), filepath.Join(dir, "soffice"), pdfPath, dir); err == nil {
		t.Error("expected error when soffice binary is missing")
	}
}
