package handlers

import (
	"time"

	"file-forge/internal/fetch"
	"file-forge/internal/memory"
	"file-forge/internal/startup"
	"file-forge/internal/video"
	"file-forge/internal/workdir"
)

type Handlers struct {
	config     *startup.Config
	work       *workdir.Manager
	monitor    *memory.Monitor
	video      *video.Processor
	downloader *fetch.Downloader
	startTime  time.Time
}

func New(config *startup.Config, work *workdir.Manager, monitor *memory.Monitor) *Handlers {
	return &Handlers{
		config:     config,
		work:       work,
		monitor:    monitor,
		video:      video.New(config.ToolPath(startup.ToolFFmpeg), config.ToolPath(startup.ToolFFprobe)),
		downloader: fetch.NewDownloader(config.ToolPath(startup.ToolYtdlp), config.DownloadWorkers),
		startTime:  time.Now(),
	}
}

// Video exposes the video processor so the shutdown path can kill
// in-flight ffmpeg processes.
func (h *Handlers) Video() *video.Processor {
	return h.video
}
