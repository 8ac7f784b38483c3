package pdfops

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// makeTestPDF builds a one-page PDF from a generated image.
func makeTestPDF(t *testing.T, dir, name string) string {
	t.Helper()

	imgPath := filepath.Join(dir, "page.png")
	img := image.NewNRGBA(image.Rect(0, 0, 200, 150))
	for y := 0; y < 150; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.NRGBA{R: 240, G: 240, B: 240, A: 255})
		}
	}
	f, err := os.Create(imgPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	pdfPath := filepath.Join(dir, name)
	if err := ImagesToPDF([]string{imgPath}, pdfPath); err != nil {
		t.Fatalf("failed to build test PDF: %v", err)
	}
	return pdfPath
}

func TestImagesToPDF(t *testing.T) {
	dir := t.TempDir()
	pdfPath := makeTestPDF(t, dir, "out.pdf")

	if err := Validate(pdfPath); err != nil {
		t.Errorf("generated PDF does not validate: %v", err)
	}
}

func TestImagesToPDFNoInput(t *testing.T) {
	if err := ImagesToPDF(nil, filepath.Join(t.TempDir(), "out.pdf")); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestProtectUnlockRoundTrip(t *testing.T) {
	dir := t.TempDir()
	pdfPath := makeTestPDF(t, dir, "doc.pdf")

	protected, err := Protect(pdfPath, dir, "s3cret")
	if err != nil {
		t.Fatalf("Protect failed: %v", err)
	}
	if filepath.Base(protected) != "doc_protected.pdf" {
		t.Errorf("unexpected output name %q", filepath.Base(protected))
	}

	unlocked, err := Unlock(protected, dir, "s3cret")
	if err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	if filepath.Base(unlocked) != "doc_protected_unlocked.pdf" {
		t.Errorf("unexpected output name %q", filepath.Base(unlocked))
	}
	if err := Validate(unlocked); err != nil {
		t.Errorf("unlocked PDF does not validate: %v", err)
	}
}

func TestUnlockWrongPassword(t *testing.T) {
	dir := t.TempDir()
	pdfPath := makeTestPDF(t, dir, "doc.pdf")

	protected, err := Protect(pdfPath, dir, "correct")
	if err != nil {
		t.Fatalf("Protect failed: %v", err)
	}

	if _, err := Unlock(protected, dir, "wrong"); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("got %v, want ErrWrongPassword", err)
	}
}

func TestProtectPasswordValidation(t *testing.T) {
	dir := t.TempDir()
	pdfPath := makeTestPDF(t, dir, "doc.pdf")

	if _, err := Protect(pdfPath, dir, ""); err == nil {
		t.Error("expected error for empty password")
	}

	long := make([]byte, MaxPasswordLength+1)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := Protect(pdfPath, dir, string(long)); err == nil {
		t.Error("expected error for oversize password")
	}
}

func TestWatermarkText(t *testing.T) {
	dir := t.TempDir()
	pdfPath := makeTestPDF(t, dir, "doc.pdf")

	outPath, err := Watermark(pdfPath, dir, WatermarkOptions{
		Type:     "text",
		Text:     "DRAFT",
		FontSize: 36,
		Rotation: 45,
		Position: "middle-center",
		Opacity:  0.5,
	})
	if err != nil {
		t.Fatalf("Watermark failed: %v", err)
	}
	if filepath.Base(outPath) != "doc_watermarked.pdf" {
		t.Errorf("unexpected output name %q", filepath.Base(outPath))
	}
	if err := Validate(outPath); err != nil {
		t.Errorf("watermarked PDF does not validate: %v", err)
	}
}

func TestWatermarkImage(t *testing.T) {
	dir := t.TempDir()
	pdfPath := makeTestPDF(t, dir, "doc.pdf")

	markPath := filepath.Join(dir, "mark.png")
	mark := image.NewNRGBA(image.Rect(0, 0, 50, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 50; x++ {
			mark.Set(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	f, err := os.Create(markPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, mark); err != nil {
		t.Fatal(err)
	}
	f.Close()

	outPath, err := Watermark(pdfPath, dir, WatermarkOptions{
		Type:      "image",
		ImagePath: markPath,
		Position:  "bottom-right",
		Opacity:   0.8,
	})
	if err != nil {
		t.Fatalf("Watermark failed: %v", err)
	}
	if err := Validate(outPath); err != nil {
		t.Errorf("watermarked PDF does not validate: %v", err)
	}
}

func TestWatermarkBadOptions(t *testing.T) {
	dir := t.TempDir()
	pdfPath := makeTestPDF(t, dir, "doc.pdf")

	tests := []struct {
		name string
		opts WatermarkOptions
	}{
		{"bad position", WatermarkOptions{Type: "text", Text: "x", Position: "center"}},
		{"bad type", WatermarkOptions{Type: "blur", Position: "middle-center"}},
		{"empty text", WatermarkOptions{Type: "text", Position: "middle-center"}},
		{"bad opacity", WatermarkOptions{Type: "text", Text: "x", Position: "middle-center", Opacity: 1.5}},
	}

	for _, tt := range tests {
		if _, err := Watermark(pdfPath, dir, tt.opts); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestRenderPages(t *testing.T) {
	dir := t.TempDir()
	pdfPath := makeTestPDF(t, dir, "doc.pdf")

	pages, err := RenderPages(pdfPath, dir)
	if err != nil {
		t.Fatalf("RenderPages failed: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}
	if filepath.Base(pages[0]) != "doc_page001.png" {
		t.Errorf("unexpected page name %q", filepath.Base(pages[0]))
	}

	f, err := os.Open(pages[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Errorf("page output is not valid PNG: %v", err)
	}
}

func TestExtractTextImageOnlyPDF(t *testing.T) {
	dir := t.TempDir()
	pdfPath := makeTestPDF(t, dir, "doc.pdf")

	// an image-only PDF has no text layer, extraction should still succeed
	if _, err := ExtractText(pdfPath); err != nil {
		t.Errorf("ExtractText failed: %v", err)
	}
}

func TestCompressPDFMissingBinary(t *testing.T) {
	dir := t.TempDir()
	pdfPath := makeTestPDF(t, dir, "doc.pdf")

	err := CompressPDF(context.Background(), filepath.Join(dir, "gs"),
		pdfPath, filepath.Join(dir, "out.pdf"), "/ebook", 100)
	if err == nil {
		t.Error("expected error when ghostscript binary is missing")
	}
}
