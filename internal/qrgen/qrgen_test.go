package qrgen

import (
	"bytes"
	"image/png"
	"testing"
)

func TestGenerate(t *testing.T) {
	opts := DefaultOptions()
	opts.Data = "https://example.com"

	data, err := Generate(opts)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not valid PNG: %v", err)
	}
	if img.Bounds().Dx() != 300 || img.Bounds().Dy() != 300 {
		t.Errorf("got %dx%d, want 300x300", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestGenerateCustomColorsAndLevel(t *testing.T) {
	opts := Options{
		Data:            "hello",
		Size:            256,
		ErrorCorrection: "h",
		Foreground:      "#112233",
		Background:      "#f0f0f0",
	}
	if _, err := Generate(opts); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
}

func TestGenerateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"empty data", func(o *Options) { o.Data = "" }},
		{"size too small", func(o *Options) { o.Size = 99 }},
		{"size too large", func(o *Options) { o.Size = 2001 }},
		{"bad level", func(o *Options) { o.ErrorCorrection = "X" }},
		{"bad foreground", func(o *Options) { o.Foreground = "black" }},
		{"bad background", func(o *Options) { o.Background = "#12345" }},
	}

	for _, tt := range tests {
		opts := DefaultOptions()
		opts.Data = "payload"
		tt.mutate(&opts)
		if _, err := Generate(opts); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}
