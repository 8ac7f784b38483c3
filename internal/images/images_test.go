package images

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/disintegration/imaging"
)

// writeTestImage saves a solid-color image under dir and returns its path.
func writeTestImage(t *testing.T, dir, name string, w, h int, c color.Color) string {
	t.Helper()
	path := filepath.Join(dir, name)
	img := imaging.New(w, h, c)
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("failed to save test image %s: %v", name, err)
	}
	return path
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		input   string
		want    color.NRGBA
		wantErr bool
	}{
		{"#ff0000", color.NRGBA{R: 255, A: 255}, false},
		{"00ff00", color.NRGBA{G: 255, A: 255}, false},
		{"#ABC", color.NRGBA{R: 0xaa, G: 0xbb, B: 0xcc, A: 255}, false},
		{" #333333 ", color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 255}, false},
		{"#12345", color.NRGBA{}, true},
		{"#gggggg", color.NRGBA{}, true},
		{"", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		got, err := ParseHexColor(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseHexColor(%q): expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseHexColor(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHexColor(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestPositionCoords(t *testing.T) {
	const cw, ch = 1000, 800
	const ow, oh = 100, 50

	tests := []struct {
		position string
		wantX    int
		wantY    int
	}{
		{"top-left", 40, 40},
		{"top-center", 450, 40},
		{"top-right", 860, 40},
		{"middle-left", 40, 375},
		{"middle-center", 450, 375},
		{"middle-right", 860, 375},
		{"bottom-left", 40, 710},
		{"bottom-center", 450, 710},
		{"bottom-right", 860, 710},
	}

	for _, tt := range tests {
		x, y := PositionCoords(tt.position, cw, ch, ow, oh)
		if x != tt.wantX || y != tt.wantY {
			t.Errorf("PositionCoords(%q) = (%d, %d), want (%d, %d)",
				tt.position, x, y, tt.wantX, tt.wantY)
		}
	}
}

func TestGetDimensions(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "dims.png", 64, 48, color.White)

	dims, err := GetDimensions(path)
	if err != nil {
		t.Fatalf("GetDimensions failed: %v", err)
	}
	if dims.Width != 64 || dims.Height != 48 {
		t.Errorf("got %dx%d, want 64x48", dims.Width, dims.Height)
	}
}

func TestGetDimensionsNotAnImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "not-image.png")
	if err := os.WriteFile(path, []byte("plain text"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := GetDimensions(path); err == nil {
		t.Error("expected error for non-image file")
	}
}

func TestUpscale(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "photo.png", 10, 8, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	outPath, err := Upscale(path, dir, 2)
	if err != nil {
		t.Fatalf("Upscale failed: %v", err)
	}

	namePattern := regexp.MustCompile(`^upscaled_photo_[0-9a-f]{8}\.jpg$`)
	if !namePattern.MatchString(filepath.Base(outPath)) {
		t.Errorf("unexpected output name %q", filepath.Base(outPath))
	}

	dims, err := GetDimensions(outPath)
	if err != nil {
		t.Fatalf("failed to read upscaled output: %v", err)
	}
	if dims.Width != 20 || dims.Height != 16 {
		t.Errorf("upscaled to %dx%d, want 20x16", dims.Width, dims.Height)
	}
}

func TestUpscaleInvalidScale(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "photo.png", 4, 4, color.White)

	for _, scale := range []int{0, 1, 3, 5, 32} {
		if _, err := Upscale(path, dir, scale); err == nil {
			t.Errorf("scale %d: expected error", scale)
		}
	}
}

func TestCompressJPEG(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "pic.jpg", 32, 32, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	outPath, err := Compress(path, dir, 50)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if filepath.Base(outPath) != "pic_compressed.jpg" {
		t.Errorf("unexpected output name %q", filepath.Base(outPath))
	}
	if _, err := GetDimensions(outPath); err != nil {
		t.Errorf("output not decodable: %v", err)
	}
}

func TestRecompressFileScales(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "pic.jpg", 100, 80, color.NRGBA{R: 99, G: 50, B: 20, A: 255})

	outPath := filepath.Join(dir, "pic_small.jpg")
	if err := RecompressFile(path, outPath, 60, 0.5); err != nil {
		t.Fatalf("RecompressFile failed: %v", err)
	}

	dims, err := GetDimensions(outPath)
	if err != nil {
		t.Fatalf("output not decodable: %v", err)
	}
	if dims.Width != 50 || dims.Height != 40 {
		t.Errorf("got %dx%d, want 50x40", dims.Width, dims.Height)
	}
}

func TestCompressUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "anim.gif", 8, 8, color.White)

	if _, err := Compress(path, dir, 85); err == nil {
		t.Error("expected error for gif input")
	}
}

func TestConvertToJPEGFlattensAlpha(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transparent.png")

	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	outPath, err := ConvertToJPEG(path, dir, 85)
	if err != nil {
		t.Fatalf("ConvertToJPEG failed: %v", err)
	}
	if filepath.Base(outPath) != "transparent.jpg" {
		t.Errorf("unexpected output name %q", filepath.Base(outPath))
	}

	out, err := imaging.Open(outPath)
	if err != nil {
		t.Fatalf("failed to open converted image: %v", err)
	}
	r, g, b, _ := out.At(8, 8).RGBA()
	// fully transparent pixels should come out white, allow for JPEG loss
	if r>>8 < 240 || g>>8 < 240 || b>>8 < 240 {
		t.Errorf("transparent pixel not flattened to white: got rgb(%d, %d, %d)", r>>8, g>>8, b>>8)
	}
}

func TestConvertToPNG(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "pic.jpg", 12, 9, color.NRGBA{R: 5, G: 5, B: 5, A: 255})

	outPath, err := ConvertToPNG(path, dir)
	if err != nil {
		t.Fatalf("ConvertToPNG failed: %v", err)
	}
	if filepath.Base(outPath) != "pic.png" {
		t.Errorf("unexpected output name %q", filepath.Base(outPath))
	}

	dims, err := GetDimensions(outPath)
	if err != nil {
		t.Fatalf("output not decodable: %v", err)
	}
	if dims.Width != 12 || dims.Height != 9 {
		t.Errorf("got %dx%d, want 12x9", dims.Width, dims.Height)
	}
}

func TestConvertToWebPWithoutVips(t *testing.T) {
	if IsVipsAvailable() {
		t.Skip("libvips is initialized")
	}
	dir := t.TempDir()
	path := writeTestImage(t, dir, "pic.png", 8, 8, color.White)

	if _, err := ConvertToWebP(path, dir, 80); err == nil {
		t.Error("expected error without libvips")
	}
}

func TestApplyWatermarkText(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "base.jpg", 400, 300, color.White)

	outPath, err := ApplyWatermark(path, dir, WatermarkOptions{
		Type:     "text",
		Text:     "CONFIDENTIAL",
		FontSize: 24,
		Position: "middle-center",
		Opacity:  0.5,
	})
	if err != nil {
		t.Fatalf("ApplyWatermark failed: %v", err)
	}
	if filepath.Base(outPath) != "base_watermarked.jpg" {
		t.Errorf("unexpected output name %q", filepath.Base(outPath))
	}
	if _, err := GetDimensions(outPath); err != nil {
		t.Errorf("output not decodable: %v", err)
	}
}

func TestApplyWatermarkImage(t *testing.T) {
	dir := t.TempDir()
	base := writeTestImage(t, dir, "base.png", 200, 200, color.White)
	mark := writeTestImage(t, dir, "mark.png", 500, 100, color.NRGBA{R: 255, A: 255})

	outPath, err := ApplyWatermark(base, dir, WatermarkOptions{
		Type:        "image",
		OverlayPath: mark,
		Position:    "bottom-right",
		Rotation:    15,
		Opacity:     0.8,
	})
	if err != nil {
		t.Fatalf("ApplyWatermark failed: %v", err)
	}

	dims, err := GetDimensions(outPath)
	if err != nil {
		t.Fatalf("output not decodable: %v", err)
	}
	// watermark placement must not change the base geometry
	if dims.Width != 200 || dims.Height != 200 {
		t.Errorf("base resized to %dx%d", dims.Width, dims.Height)
	}
}

func TestApplyWatermarkBadOptions(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "base.png", 50, 50, color.White)

	tests := []struct {
		name string
		opts WatermarkOptions
	}{
		{"unknown type", WatermarkOptions{Type: "gradient"}},
		{"empty text", WatermarkOptions{Type: "text", Text: ""}},
		{"missing overlay", WatermarkOptions{Type: "image", OverlayPath: filepath.Join(dir, "missing.png")}},
	}

	for _, tt := range tests {
		if _, err := ApplyWatermark(path, dir, tt.opts); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestRenderText(t *testing.T) {
	img, err := RenderText("hello", 24, color.NRGBA{A: 255})
	if err != nil {
		t.Fatalf("RenderText failed: %v", err)
	}
	if img.Bounds().Dx() < 1 || img.Bounds().Dy() < 1 {
		t.Fatalf("empty output bounds %v", img.Bounds())
	}

	var inked bool
	for y := 0; y < img.Bounds().Dy() && !inked; y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a > 0 {
				inked = true
				break
			}
		}
	}
	if !inked {
		t.Error("no opaque pixels rendered")
	}
}

func TestGeneratePlaceholder(t *testing.T) {
	opts := DefaultPlaceholder()
	data, err := GeneratePlaceholder(opts)
	if err != nil {
		t.Fatalf("GeneratePlaceholder failed: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not valid PNG: %v", err)
	}
	if img.Bounds().Dx() != 600 || img.Bounds().Dy() != 400 {
		t.Errorf("got %dx%d, want 600x400", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestGeneratePlaceholderValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PlaceholderOptions)
	}{
		{"zero width", func(o *PlaceholderOptions) { o.Width = 0 }},
		{"oversize height", func(o *PlaceholderOptions) { o.Height = 4001 }},
		{"bad format", func(o *PlaceholderOptions) { o.Format = "bmp" }},
		{"bad background", func(o *PlaceholderOptions) { o.BackgroundColor = "red" }},
		{"bad text color", func(o *PlaceholderOptions) { o.TextColor = "#12" }},
	}

	for _, tt := range tests {
		opts := DefaultPlaceholder()
		tt.mutate(&opts)
		if _, err := GeneratePlaceholder(opts); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestStripBackgroundMissingBinary(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "pic.png", 8, 8, color.White)

	_, err := StripBackground(context.Background(), filepath.Join(dir, "rembg"), path, dir)
	if err == nil {
		t.Error("expected error when rembg binary is missing")
	}
}

func TestRandomHex(t *testing.T) {
	s := randomHex(4)
	if len(s) != 8 {
		t.Fatalf("got %d chars, want 8", len(s))
	}
	if !regexp.MustCompile(`^[0-9a-f]{8}$`).MatchString(s) {
		t.Errorf("unexpected characters in %q", s)
	}
}
