package video

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"file-forge/internal/filetypes"
	"file-forge/internal/logging"
	"file-forge/internal/metrics"
)

// Processor manages ffmpeg-based video operations.
type Processor struct {
	ffmpegPath  string
	ffprobePath string

	processes map[string]*exec.Cmd
	processMu sync.Mutex
	nextID    int
}

// Info contains information about a video file.
type Info struct {
	Duration float64 `json:"duration"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Codec    string  `json:"codec"`
}

// New creates a new Processor using the given binary paths.
func New(ffmpegPath, ffprobePath string) *Processor {
	return &Processor{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		processes:   make(map[string]*exec.Cmd),
	}
}

// Probe retrieves codec and dimension information about a video file.
func (p *Processor) Probe(ctx context.Context, filePath string) (*Info, error) {
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	metrics.SubprocessDuration.WithLabelValues("ffprobe").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SubprocessErrors.WithLabelValues("ffprobe").Inc()
		return nil, fmt.Errorf("ffprobe error: %w - %s", err, stderr.String())
	}

	output := stdout.String()
	info := &Info{}

	// Extract duration
	if idx := strings.Index(output, `"duration"`); idx != -1 {
		start := strings.Index(output[idx:], ":") + idx + 1
		end := strings.Index(output[start:], ",")
		if end == -1 {
			end = strings.Index(output[start:], "}")
		}
		durStr := strings.Trim(output[start:start+end], ` "`)
		info.Duration, _ = strconv.ParseFloat(durStr, 64)
	}

	// Extract codec
	if idx := strings.Index(output, `"codec_name"`); idx != -1 {
		start := strings.Index(output[idx:], ":") + idx + 1
		end := strings.Index(output[start:], ",")
		info.Codec = strings.Trim(output[start:start+end], ` "`)
	}

	info.Width = extractIntField(output, `"width"`)
	info.Height = extractIntField(output, `"height"`)

	return info, nil
}

func extractIntField(output, field string) int {
	idx := strings.Index(output, field)
	if idx == -1 {
		return 0
	}
	start := strings.Index(output[idx:], ":") + idx + 1
	endComma := strings.Index(output[start:], ",")
	endBrace := strings.Index(output[start:], "}")
	end := endComma
	if end == -1 || (endBrace != -1 && endBrace < end) {
		end = endBrace
	}
	if end == -1 {
		return 0
	}
	n, _ := strconv.Atoi(strings.TrimSpace(output[start : start+end]))
	return n
}

// scalePattern matches an explicit WxH scale parameter.
var scalePattern = regexp.MustCompile(`^(\d{2,5})[xX:](\d{2,5})$`)

// ScaleFilter translates a user scale parameter ("2x", "4x" or "WxH") into
// an ffmpeg scale filter expression.
func ScaleFilter(scale string) (string, error) {
	switch scale {
	case "", "2x":
		return "scale=iw*2:ih*2", nil
	case "4x":
		return "scale=iw*4:ih*4", nil
	}
	if m := scalePattern.FindStringSubmatch(scale); m != nil {
		return fmt.Sprintf("scale=%s:%s", m[1], m[2]), nil
	}
	return "", fmt.Errorf("invalid scale %q", scale)
}

// Upscale re-encodes a video at a larger resolution. Output is always mp4,
// named <base>_upscaled.mp4 in outDir.
func (p *Processor) Upscale(ctx context.Context, filePath, outDir, scale string, crf int) (string, error) {
	filter, err := ScaleFilter(scale)
	if err != nil {
		return "", err
	}
	if crf < 0 || crf > 51 {
		return "", fmt.Errorf("crf must be between 0 and 51")
	}

	outPath := filepath.Join(outDir, filetypes.Base(filePath)+"_upscaled.mp4")
	args := []string{
		"-y",
		"-i", filePath,
		"-vf", filter,
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", strconv.Itoa(crf),
		"-c:a", "aac",
		"-b:a", "192k",
		"-movflags", "+faststart",
		outPath,
	}
	if err := p.run(ctx, "video-upscale", args, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

// overlayExpr maps watermark anchor strings to ffmpeg overlay coordinates.
var overlayExpr = map[string]string{
	"top-left":      "40:40",
	"top-center":    "(main_w-overlay_w)/2:40",
	"top-right":     "main_w-overlay_w-40:40",
	"middle-left":   "40:(main_h-overlay_h)/2",
	"middle-center": "(main_w-overlay_w)/2:(main_h-overlay_h)/2",
	"middle-right":  "main_w-overlay_w-40:(main_h-overlay_h)/2",
	"bottom-left":   "40:main_h-overlay_h-40",
	"bottom-center": "(main_w-overlay_w)/2:main_h-overlay_h-40",
	"bottom-right":  "main_w-overlay_w-40:main_h-overlay_h-40",
}

// Watermark burns a transparent PNG overlay into every frame. The overlay
// carries the rendered text or watermark image; opacity is applied to its
// alpha channel in the filter graph. Output is <base>_watermarked.mp4.
func (p *Processor) Watermark(ctx context.Context, filePath, overlayPath, outDir, position string, opacity float64) (string, error) {
	coords, ok := overlayExpr[position]
	if !ok {
		return "", fmt.Errorf("invalid watermark position %q", position)
	}
	if opacity < 0 || opacity > 1 {
		return "", fmt.Errorf("opacity must be between 0 and 1")
	}

	filter := fmt.Sprintf("[1:v]format=rgba,colorchannelmixer=aa=%.2f[wm];[0:v][wm]overlay=%s", opacity, coords)

	outPath := filepath.Join(outDir, filetypes.Base(filePath)+"_watermarked.mp4")
	args := []string{
		"-y",
		"-i", filePath,
		"-i", overlayPath,
		"-filter_complex", filter,
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "18",
		"-c:a", "copy",
		"-movflags", "+faststart",
		outPath,
	}
	if err := p.run(ctx, "watermark-imgvideo", args, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

// ExtractAudio pulls the audio track out of a video as 192k mp3, named
// <base>.mp3 in outDir.
func (p *Processor) ExtractAudio(ctx context.Context, filePath, outDir string) (string, error) {
	outPath := filepath.Join(outDir, filetypes.Base(filePath)+".mp3")
	args := []string{
		"-y",
		"-i", filePath,
		"-vn",
		"-c:a", "libmp3lame",
		"-b:a", "192k",
		outPath,
	}
	if err := p.run(ctx, "download-audio-batch", args, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

// run executes ffmpeg with process tracking so Cleanup can kill stragglers.
func (p *Processor) run(ctx context.Context, operation string, args []string, wantOutput string) error {
	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	p.processMu.Lock()
	p.nextID++
	id := fmt.Sprintf("%s-%d", operation, p.nextID)
	p.processes[id] = cmd
	p.processMu.Unlock()

	defer func() {
		p.processMu.Lock()
		delete(p.processes, id)
		p.processMu.Unlock()
	}()

	start := time.Now()
	metrics.SubprocessesRunning.Inc()
	defer metrics.SubprocessesRunning.Dec()

	err := cmd.Run()
	metrics.SubprocessDuration.WithLabelValues("ffmpeg").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SubprocessErrors.WithLabelValues("ffmpeg").Inc()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.Error("ffmpeg stderr: %s", stderr.String())
		return fmt.Errorf("ffmpeg failed: %w", err)
	}

	if info, statErr := os.Stat(wantOutput); statErr != nil || info.Size() == 0 {
		metrics.SubprocessErrors.WithLabelValues("ffmpeg").Inc()
		return fmt.Errorf("ffmpeg produced no output for %s", filepath.Base(wantOutput))
	}

	logging.Debug("ffmpeg finished %s in %v", filepath.Base(wantOutput), time.Since(start).Round(time.Millisecond))
	return nil
}

// Cleanup stops all active ffmpeg processes.
func (p *Processor) Cleanup() {
	p.processMu.Lock()
	defer p.processMu.Unlock()

	for id, cmd := range p.processes {
		if cmd.Process != nil {
			logging.Info("Killing ffmpeg process: %s", id)
			if err := cmd.Process.Kill(); err != nil {
				logging.Warn("failed to kill ffmpeg process %s: %v", id, err)
			}
		}
	}
}
