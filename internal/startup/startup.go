package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"file-forge/internal/logging"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Tool identifies an external binary the service can delegate to.
type Tool string

const (
	// ToolFFmpeg transcodes and filters video and audio.
	ToolFFmpeg Tool = "ffmpeg"
	// ToolFFprobe inspects media streams.
	ToolFFprobe Tool = "ffprobe"
	// ToolGhostscript rewrites PDFs for compression.
	ToolGhostscript Tool = "gs"
	// ToolSoffice converts office documents headlessly.
	ToolSoffice Tool = "soffice"
	// ToolYtdlp downloads videos and audio from URLs.
	ToolYtdlp Tool = "yt-dlp"
	// ToolRembg removes image backgrounds.
	ToolRembg Tool = "rembg"
)

// AllTools lists every external binary probed at startup.
var AllTools = []Tool{ToolFFmpeg, ToolFFprobe, ToolGhostscript, ToolSoffice, ToolYtdlp, ToolRembg}

// ToolStatus records the result of probing one external binary.
type ToolStatus struct {
	Path      string
	Available bool
	Version   string
}

// Config holds all application configuration
type Config struct {
	Host            string
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	FrontendURL     string
	WorkDir         string
	MaxUploadBytes  int64
	DownloadWorkers int
	ZipWorkers      int
	LogStaticFiles  bool
	LogHealthChecks bool

	// Probed external binaries, keyed by Tool
	Tools map[Tool]ToolStatus
}

// ToolPath returns the resolved path for a tool, or its plain name when the
// probe failed (callers then surface the exec error).
func (c *Config) ToolPath(tool Tool) string {
	if status, ok := c.Tools[tool]; ok && status.Path != "" {
		return status.Path
	}
	return string(tool)
}

// ToolAvailable reports whether a tool was found at startup.
func (c *Config) ToolAvailable(tool Tool) bool {
	status, ok := c.Tools[tool]
	return ok && status.Available
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	host := getEnv("HOST", "0.0.0.0")
	port := getEnv("PORT", "5000")
	metricsPort := getEnv("METRICS_PORT", "9090")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	frontendURL := getEnv("FRONTEND_URL", "*")
	workDir := getEnv("WORK_DIR", filepath.Join(os.TempDir(), "file-forge"))
	maxUploadMB := getEnvInt("MAX_UPLOAD_MB", 500)
	downloadWorkers := getEnvInt("DOWNLOAD_WORKERS", 4)
	zipWorkers := getEnvInt("ZIP_WORKERS", 0) // 0 = size from CPU count
	logStaticFiles := getEnvBool("LOG_STATIC_FILES", false)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)

	logging.Info("  HOST:               %s", host)
	logging.Info("  PORT:               %s", port)
	logging.Info("  METRICS_PORT:       %s", metricsPort)
	logging.Info("  METRICS_ENABLED:    %v", metricsEnabled)
	logging.Info("  FRONTEND_URL:       %s", frontendURL)
	logging.Info("  WORK_DIR:           %s", workDir)
	logging.Info("  MAX_UPLOAD_MB:      %d", maxUploadMB)
	logging.Info("  DOWNLOAD_WORKERS:   %d", downloadWorkers)
	logging.Info("  ZIP_WORKERS:        %d", zipWorkers)
	logging.Info("  LOG_LEVEL:          %s", logging.GetLevel())

	if maxUploadMB < 1 {
		logging.Warn("  Invalid MAX_UPLOAD_MB, using default: 500")
		maxUploadMB = 500
	}
	if downloadWorkers < 1 {
		logging.Warn("  Invalid DOWNLOAD_WORKERS, using default: 4")
		downloadWorkers = 4
	}
	if downloadWorkers > 5 {
		logging.Warn("  DOWNLOAD_WORKERS capped at 5")
		downloadWorkers = 5
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("WORK DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve work directory path: %w", err)
	}
	logging.Info("  Work directory (absolute): %s", workDir)

	if err := ensureDirectory(workDir, "work"); err != nil {
		return nil, fmt.Errorf("work directory error: %w", err)
	}

	logging.Debug("  Testing work directory write access...")
	if err := testWriteAccess(workDir); err != nil {
		return nil, fmt.Errorf("work directory is not writable: %w", err)
	}
	logging.Info("  [OK] Work directory is writable")

	config := &Config{
		Host:            host,
		Port:            port,
		MetricsPort:     metricsPort,
		MetricsEnabled:  metricsEnabled,
		FrontendURL:     frontendURL,
		WorkDir:         workDir,
		MaxUploadBytes:  int64(maxUploadMB) * 1024 * 1024,
		DownloadWorkers: downloadWorkers,
		ZipWorkers:      zipWorkers,
		LogStaticFiles:  logStaticFiles,
		LogHealthChecks: logHealthChecks,
		Tools:           probeTools(),
	}

	logging.Info("")
	logging.Info("  Converter availability:")
	for _, tool := range AllTools {
		logging.Info("    %-10s %s", string(tool)+":", enabledString(config.ToolAvailable(tool)))
	}
	logging.Info("    Metrics:   %s", enabledString(config.MetricsEnabled))

	return config, nil
}

// probeTools locates each external binary once at startup. Endpoints check
// the resulting flags instead of probing per request.
func probeTools() map[Tool]ToolStatus {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("EXTERNAL TOOL DETECTION")
	logging.Info("------------------------------------------------------------")

	statuses := make(map[Tool]ToolStatus, len(AllTools))
	for _, tool := range AllTools {
		status := checkTool(string(tool), os.Getenv(toolEnvVar(tool)), versionArgs(tool))
		statuses[tool] = status
		if status.Available {
			if status.Version != "" {
				logging.Info("  [OK] %s: %s (%s)", tool, status.Path, status.Version)
			} else {
				logging.Info("  [OK] %s: %s", tool, status.Path)
			}
		} else {
			logging.Warn("  %s not found, dependent endpoints will return 503", tool)
		}
	}
	return statuses
}

// toolEnvVar returns the path override variable for a tool. Names follow the
// binary with separators dropped: FFMPEG_PATH, GS_PATH, YTDLP_PATH.
func toolEnvVar(tool Tool) string {
	name := strings.ToUpper(string(tool))
	name = strings.NewReplacer("-", "", ".", "").Replace(name)
	return name + "_PATH"
}

// versionArgs returns the argument vector that makes a tool print its
// version and exit quickly.
func versionArgs(tool Tool) []string {
	switch tool {
	case ToolFFmpeg, ToolFFprobe:
		return []string{"-version"}
	case ToolGhostscript, ToolYtdlp:
		return []string{"--version"}
	case ToolSoffice:
		return []string{"--version"}
	case ToolRembg:
		// rembg --version exits nonzero on some builds; probe presence only
		return nil
	}
	return nil
}

func checkTool(name, override string, args []string) ToolStatus {
	binary := name
	if override != "" {
		binary = override
	}

	path, err := exec.LookPath(binary)
	if err != nil {
		logging.Debug("  %s not in PATH: %v", name, err)
		return ToolStatus{}
	}

	status := ToolStatus{Path: path, Available: true}
	if len(args) == 0 {
		return status
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, args...).Output()
	if err != nil {
		logging.Debug("  %s version check failed: %v", name, err)
		// The binary exists; keep it available and let real invocations
		// surface any deeper problem.
		return status
	}

	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		status.Version = strings.TrimSpace(lines[0])
	}
	return status
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))

		sort.Slice(routes, func(i, j int) bool {
			return routes[i].Path < routes[j].Path
		})
		for _, route := range routes {
			methodPadded := fmt.Sprintf("%-7s", route.Method)
			logging.Debug("    %s %s", methodPadded, route.Path)
		}
		logging.Debug("")
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    _______ __        ______
   / ____(_) /__     / ____/___  _________ ____
  / /_  / / / _ \   / /_  / __ \/ ___/ __ '/ _ \
 / __/ / / /  __/  / __/ / /_/ / /  / /_/ /  __/
/_/   /_/_/\___/  /_/    \____/_/   \__, /\___/
                                   /____/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Don't return error since write access was confirmed
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
