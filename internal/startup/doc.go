// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// Configuration comes exclusively from environment variables, read once by
// LoadConfig. External converter binaries (ffmpeg, ghostscript, libreoffice,
// yt-dlp, rembg) are probed a single time during startup; endpoints consult
// the resulting availability flags instead of probing per request.
package startup
