package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_forge_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "file_forge_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "file_forge_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Transformation job metrics. The operation label is the route name without
// the leading slash (img-compress, protect-pdf, ...).
var (
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_forge_jobs_total",
			Help: "Total number of transformation jobs by operation and outcome",
		},
		[]string{"operation", "status"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "file_forge_job_duration_seconds",
			Help:    "Transformation job duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"operation"},
	)

	JobInputBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "file_forge_job_input_bytes",
			Help:    "Size of uploaded inputs in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		},
		[]string{"operation"},
	)

	JobOutputBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "file_forge_job_output_bytes",
			Help:    "Size of produced outputs in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		},
		[]string{"operation"},
	)
)

// ZIP fan-out metrics
var (
	FanoutEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_forge_fanout_entries_total",
			Help: "Total number of archive entries processed during ZIP fan-out",
		},
		[]string{"operation", "status"},
	)

	FanoutDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "file_forge_fanout_duration_seconds",
			Help:    "Duration of a full ZIP fan-out in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"operation"},
	)
)

// External tool metrics. The tool label is the binary name (ffmpeg, gs, ...).
var (
	SubprocessDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "file_forge_subprocess_duration_seconds",
			Help:    "External tool invocation duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"tool"},
	)

	SubprocessErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_forge_subprocess_errors_total",
			Help: "Total number of external tool invocation failures",
		},
		[]string{"tool"},
	)

	SubprocessesRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "file_forge_subprocesses_running",
			Help: "Number of external tool processes currently running",
		},
	)
)

// Download metrics
var (
	DownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_forge_downloads_total",
			Help: "Total number of URL downloads by kind and outcome",
		},
		[]string{"kind", "status"}, // kind: video, audio
	)

	DownloadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "file_forge_download_duration_seconds",
			Help:    "Single URL download duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"kind"},
	)
)

// Scratch directory metrics
var (
	ScratchDirsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "file_forge_scratch_dirs_active",
			Help: "Number of scratch directories currently in use",
		},
	)

	ScratchDirLifetime = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "file_forge_scratch_dir_lifetime_seconds",
			Help:    "Lifetime of scratch directories in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	WorkRootUsageBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "file_forge_work_root_usage_bytes",
			Help: "Total bytes currently held under the work root",
		},
	)

	WorkRootEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "file_forge_work_root_entries",
			Help: "Number of entries currently under the work root",
		},
	)
)

// Memory management metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "file_forge_memory_usage_ratio",
			Help: "Current heap usage as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "file_forge_memory_paused",
			Help: "Whether processing is paused due to memory pressure (1 = paused)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "file_forge_memory_gc_pauses_total",
			Help: "Total number of forced GC runs triggered by memory pressure",
		},
	)
)

// Build info
var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "file_forge_build_info",
			Help: "Build information (value is always 1)",
		},
		[]string{"version", "commit"},
	)
)
