package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"file-forge/internal/handlers"
	"file-forge/internal/images"
	"file-forge/internal/logging"
	"file-forge/internal/memory"
	"file-forge/internal/metrics"
	"file-forge/internal/middleware"
	"file-forge/internal/startup"
	"file-forge/internal/workdir"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// orphanMaxAge is how old an abandoned scratch directory must be before the
// startup sweep removes it.
const orphanMaxAge = 24 * time.Hour

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Configure the memory limit and start the backpressure monitor
	memory.ConfigureFromEnv()
	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	// Initialize libvips
	images.InitVips()

	// Initialize the work root
	work, err := workdir.New(config.WorkDir)
	if err != nil {
		startup.LogFatal("Failed to initialize work directory: %v", err)
	}
	if removed := work.CleanupOrphans(orphanMaxAge); removed > 0 {
		logging.Info("Removed %d orphaned scratch directories", removed)
	}

	// Start the work-root metrics collector
	metrics.InitializeMetrics()
	collector := metrics.NewCollector(work, 30*time.Second)
	collector.Start()

	// Initialize handlers
	h := handlers.New(config, work, monitor)

	// Setup router
	router := setupRouter(h)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	// Apply middleware: CORS -> upload limit -> logging -> metrics -> compression
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigin = config.FrontendURL
	var handler http.Handler = router
	handler = middleware.Compression(middleware.DefaultCompressionConfig())(handler)
	handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler = middleware.Logger(loggingConfig)(handler)

	handler = middleware.MaxUploadBytes(config.MaxUploadBytes)(handler)
	handler = middleware.CORS(corsConfig)(handler)

	// Create server
	srv := &http.Server{
		Addr:         config.Host + ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // large downloads are guarded by the streaming timeout writer
		IdleTimeout:  60 * time.Second,
	}

	// Metrics server on its own port
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:        config.Host + ":" + config.MetricsPort,
			Handler:     metricsMux,
			ReadTimeout: 15 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, metricsSrv, h, monitor, collector)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/", h.Index).Methods("GET")
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")
	r.HandleFunc("/status", h.Status).Methods("GET")

	// Image routes
	r.HandleFunc("/img-compress", h.ImgCompress).Methods("POST")
	r.HandleFunc("/img-jpg", h.ImgToJPG).Methods("POST")
	r.HandleFunc("/img-png", h.ImgToPNG).Methods("POST")
	r.HandleFunc("/img-webp", h.ImgToWebP).Methods("POST")
	r.HandleFunc("/upscale", h.UpscaleImage).Methods("POST")
	r.HandleFunc("/remove-imgbg", h.RemoveBackground).Methods("POST")
	r.HandleFunc("/watermark-imgvideo", h.WatermarkImgVideo).Methods("POST")
	r.HandleFunc("/generate-placeholder", h.GeneratePlaceholder).Methods("POST")
	r.HandleFunc("/generate-qr", h.GenerateQR).Methods("POST")

	// Video and download routes
	r.HandleFunc("/video-upscale", h.VideoUpscale).Methods("POST")
	r.HandleFunc("/download-video-batch", h.DownloadVideoBatch).Methods("POST")
	r.HandleFunc("/download-audio-batch", h.DownloadAudioBatch).Methods("POST")

	// PDF routes
	r.HandleFunc("/protect-pdf", h.ProtectPDF).Methods("POST")
	r.HandleFunc("/unlock-pdf", h.UnlockPDF).Methods("POST")
	r.HandleFunc("/pdf-to-word", h.PDFToWord).Methods("POST")
	r.HandleFunc("/watermark-files", h.WatermarkFiles).Methods("POST")

	// Conversion routes
	r.HandleFunc("/file-pdf", h.FileToPDF).Methods("POST")
	r.HandleFunc("/convert-all-to-ppt", h.ConvertAllToPPT).Methods("POST")
	r.HandleFunc("/compress", h.Compress).Methods("POST")

	return r
}

func handleShutdown(srv, metricsSrv *http.Server, h *handlers.Handlers, monitor *memory.Monitor, collector *metrics.Collector) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Server shutdown error: %v", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Error("Metrics server shutdown error: %v", err)
		}
	}
	startup.LogShutdownStepComplete("HTTP server stopped")

	startup.LogShutdownStep("Stopping background workers")
	h.Video().Cleanup()
	collector.Stop()
	monitor.Stop()
	startup.LogShutdownStepComplete("Background workers stopped")

	startup.LogShutdownStep("Shutting down libvips")
	images.ShutdownVips()
	startup.LogShutdownStepComplete("libvips shut down")

	startup.LogShutdownComplete()
}
