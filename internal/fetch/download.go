package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"file-forge/internal/filetypes"
	"file-forge/internal/logging"
	"file-forge/internal/metrics"
)

// Kind selects what yt-dlp fetches for each URL.
type Kind string

const (
	// KindVideo downloads the best mp4 rendition.
	KindVideo Kind = "video"
	// KindAudio downloads the best audio track converted to m4a.
	KindAudio Kind = "audio"
)

// MaxWorkers caps the download pool regardless of configuration, since each
// worker holds an open network transfer.
const MaxWorkers = 5

// ErrNoDownloads reports that every URL in a batch failed.
var ErrNoDownloads = errors.New("no downloads succeeded")

// Downloader runs yt-dlp downloads on a bounded worker pool.
type Downloader struct {
	ytdlpPath string
	workers   int
}

// NewDownloader creates a Downloader. workers <= 0 selects the default of 4.
func NewDownloader(ytdlpPath string, workers int) *Downloader {
	if workers <= 0 {
		workers = 4
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}
	return &Downloader{ytdlpPath: ytdlpPath, workers: workers}
}

type downloadJob struct {
	index int
	url   string
}

type downloadResult struct {
	index int
	path  string
	err   error
}

// Download fetches every URL into outDir and returns the finished file
// paths in input order. Individual failures are logged and skipped; if all
// URLs fail the error is ErrNoDownloads.
func (d *Downloader) Download(ctx context.Context, urls []string, outDir string, kind Kind) ([]string, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	numWorkers := d.workers
	if numWorkers > len(urls) {
		numWorkers = len(urls)
	}

	jobs := make(chan downloadJob, numWorkers)
	results := make(chan downloadResult, numWorkers)

	var succeeded, failed int64
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				path, err := d.downloadOne(ctx, job.url, outDir, kind)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					logging.Warn("download failed for %s: %v", job.url, err)
				} else {
					atomic.AddInt64(&succeeded, 1)
				}
				results <- downloadResult{index: job.index, path: path, err: err}
			}
		}()
	}

	// collector preserves input order
	ordered := make([]string, len(urls))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for res := range results {
			if res.err == nil {
				ordered[res.index] = res.path
				metrics.DownloadsTotal.WithLabelValues(string(kind), "success").Inc()
			} else {
				metrics.DownloadsTotal.WithLabelValues(string(kind), "error").Inc()
			}
		}
	}()

enqueue:
	for i, u := range urls {
		select {
		case jobs <- downloadJob{index: i, url: u}:
		case <-ctx.Done():
			break enqueue
		}
	}
	close(jobs)
	wg.Wait()
	close(results)
	<-done

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var paths []string
	for _, p := range ordered {
		if p != "" {
			paths = append(paths, p)
		}
	}

	logging.Info("batch download finished: %d succeeded, %d failed of %d URLs",
		atomic.LoadInt64(&succeeded), atomic.LoadInt64(&failed), len(urls))

	if len(paths) == 0 {
		return nil, ErrNoDownloads
	}
	return paths, nil
}

// downloadOne runs yt-dlp for a single URL in a private staging directory
// and moves the finished file into outDir under a collision-free name.
func (d *Downloader) downloadOne(ctx context.Context, url, outDir string, kind Kind) (string, error) {
	staging, err := os.MkdirTemp(outDir, "dl-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(staging)

	args := []string{
		"--no-warnings",
		"--quiet",
		"--no-check-certificates",
		"--no-playlist",
		"--retries", "10",
		"-o", filepath.Join(staging, "%(title).50s.%(ext)s"),
	}
	switch kind {
	case KindAudio:
		args = append(args,
			"-f", "bestaudio/best",
			"-x",
			"--audio-format", "m4a",
			"--audio-quality", "192K",
		)
	default:
		args = append(args,
			"-f", "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best",
			"--merge-output-format", "mp4",
		)
	}
	args = append(args, url)

	start := time.Now()
	metrics.SubprocessesRunning.Inc()
	cmd := exec.CommandContext(ctx, d.ytdlpPath, args...)
	output, err := cmd.CombinedOutput()
	metrics.SubprocessesRunning.Dec()

	metrics.SubprocessDuration.WithLabelValues("yt-dlp").Observe(time.Since(start).Seconds())
	metrics.DownloadDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SubprocessErrors.WithLabelValues("yt-dlp").Inc()
		return "", fmt.Errorf("yt-dlp failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	entries, err := os.ReadDir(staging)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), ".part") {
			continue
		}
		dest := uniqueName(outDir, filetypes.SanitizeFilename(entry.Name()))
		if err := os.Rename(filepath.Join(staging, entry.Name()), dest); err != nil {
			return "", err
		}
		return dest, nil
	}
	return "", fmt.Errorf("yt-dlp produced no output for %s", url)
}

// uniqueName returns dir/name, adding " (n)" before the extension until the
// path is free.
func uniqueName(dir, name string) string {
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		return path
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		path = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", base, n, ext))
		if _, err := os.Stat(path); err != nil {
			return path
		}
	}
}
