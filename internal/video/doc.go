// Package video wraps ffmpeg and ffprobe for the video operations: probing,
// scale-filter upscaling, watermark overlay, and audio track extraction.
//
// Every invocation runs under the caller's context and is registered in a
// process table so in-flight conversions can be killed on shutdown.
package video
