package video

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestScaleFilter(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"", "scale=iw*2:ih*2", false},
		{"2x", "scale=iw*2:ih*2", false},
		{"4x", "scale=iw*4:ih*4", false},
		{"1920:1080", "scale=1920:1080", false},
		{"1280x720", "scale=1280:720", false},
		{"8x", "", true},
		{"huge", "", true},
		{"0:0", "", true},
		{"-1:-1", "", true},
	}

	for _, tt := range tests {
		got, err := ScaleFilter(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ScaleFilter(%q): expected error, got %q", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ScaleFilter(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ScaleFilter(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestExtractIntField(t *testing.T) {
	output := `{"streams": [{"codec_name": "h264", "width": 1920, "height": 1080}]}`

	if got := extractIntField(output, `"width"`); got != 1920 {
		t.Errorf("width = %d, want 1920", got)
	}
	if got := extractIntField(output, `"height"`); got != 1080 {
		t.Errorf("height = %d, want 1080", got)
	}
	if got := extractIntField(output, `"missing"`); got != 0 {
		t.Errorf("missing field = %d, want 0", got)
	}
}

func TestUpscaleValidation(t *testing.T) {
	dir := t.TempDir()
	videoPath := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(videoPath, []byte("fake"), 0644); err != nil {
		t.Fatal(err)
	}

	p := New("ffmpeg", "ffprobe")

	if _, err := p.Upscale(context.Background(), videoPath, dir, "16x", 18); err == nil {
		t.Error("expected error for invalid scale")
	}
	if _, err := p.Upscale(context.Background(), videoPath, dir, "2x", 99); err == nil {
		t.Error("expected error for out-of-range crf")
	}
}

func TestWatermarkValidation(t *testing.T) {
	dir := t.TempDir()
	p := New("ffmpeg", "ffprobe")

	if _, err := p.Watermark(context.Background(), "in.mp4", "wm.png", dir, "everywhere", 0.5); err == nil {
		t.Error("expected error for invalid position")
	}
	if _, err := p.Watermark(context.Background(), "in.mp4", "wm.png", dir, "top-left", 2); err == nil {
		t.Error("expected error for out-of-range opacity")
	}
}

func TestRunMissingBinary(t *testing.T) {
	dir := t.TempDir()
	videoPath := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(videoPath, []byte("fake"), 0644); err != nil {
		t.Fatal(err)
	}

	p := New(filepath.Join(dir, "ffmpeg"), filepath.Join(dir, "ffprobe"))

	if _, err := p.Upscale(context.Background(), videoPath, dir, "2x", 18); err == nil {
		t.Error("expected error when ffmpeg binary is missing")
	}
	if _, err := p.Probe(context.Background(), videoPath); err == nil {
		t.Error("expected error when ffprobe binary is missing")
	}
}

func TestOverlayExprCoversAllPositions(t *testing.T) {
	positions := []string{
		"top-left", "top-center", "top-right",
		"middle-left", "middle-center", "middle-right",
		"bottom-left", "bottom-center", "bottom-right",
	}
	for _, pos := range positions {
		if _, ok := overlayExpr[pos]; !ok {
			t.Errorf("missing overlay expression for %q", pos)
		}
	}
}

func TestCleanupWithNoProcesses(t *testing.T) {
	p := New("ffmpeg", "ffprobe")
	// must not panic with an empty process table
	p.Cleanup()
}
