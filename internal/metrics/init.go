package metrics

// Operations is the canonical list of transformation operation labels,
// matching route names without the leading slash.
var Operations = []string{
	"img-compress",
	"img-jpg",
	"img-png",
	"img-webp",
	"upscale",
	"remove-imgbg",
	"watermark-imgvideo",
	"generate-placeholder",
	"generate-qr",
	"video-upscale",
	"download-video-batch",
	"download-audio-batch",
	"protect-pdf",
	"unlock-pdf",
	"pdf-to-word",
	"watermark-files",
	"file-pdf",
	"convert-all-to-ppt",
	"compress",
}

// Tools is the canonical list of external tool labels.
var Tools = []string{"ffmpeg", "ffprobe", "gs", "soffice", "yt-dlp", "rembg"}

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, op := range Operations {
		JobsTotal.WithLabelValues(op, "success")
		JobsTotal.WithLabelValues(op, "error")
		JobDuration.WithLabelValues(op)
		JobInputBytes.WithLabelValues(op)
		JobOutputBytes.WithLabelValues(op)

		FanoutEntriesTotal.WithLabelValues(op, "success")
		FanoutEntriesTotal.WithLabelValues(op, "error")
		FanoutEntriesTotal.WithLabelValues(op, "skipped")
		FanoutDuration.WithLabelValues(op)
	}

	for _, tool := range Tools {
		SubprocessDuration.WithLabelValues(tool)
		SubprocessErrors.WithLabelValues(tool)
	}

	for _, kind := range []string{"video", "audio"} {
		DownloadsTotal.WithLabelValues(kind, "success")
		DownloadsTotal.WithLabelValues(kind, "error")
		DownloadDuration.WithLabelValues(kind)
	}
}
