package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"file-forge/internal/filetypes"
	"file-forge/internal/images"
	"file-forge/internal/startup"
)

var compressibleImages = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
}

// ImgCompress recompresses images in their own format.
// POST /img-compress, single image or zip.
func (h *Handlers) ImgCompress(w http.ResponseWriter, r *http.Request) {
	quality, err := formInt(r, "quality", 85, 1, 100)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s, ok := h.scratch(w, "img-compress-")
	if !ok {
		return
	}
	defer s.Remove()

	h.runFanout(w, r, s, fanoutJob{
		operation: "img-compress",
		zipName:   "compressed_files.zip",
		accept:    acceptExts(compressibleImages),
		transform: func(_ context.Context, inputPath string) ([]string, error) {
			out, err := images.Compress(inputPath, s.Path(), quality)
			if err != nil {
				return nil, err
			}
			return []string{out}, nil
		},
	})
}

// ImgToJPG converts images to JPEG. POST /img-jpg.
func (h *Handlers) ImgToJPG(w http.ResponseWriter, r *http.Request) {
	format := formValue(r, "format", "jpg")
	if format != "jpg" && format != "jpeg" {
		writeJSONError(w, "format must be jpg or jpeg", http.StatusBadRequest)
		return
	}
	quality, err := formInt(r, "quality", 85, 1, 95)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s, ok := h.scratch(w, "img-jpg-")
	if !ok {
		return
	}
	defer s.Remove()

	h.runFanout(w, r, s, fanoutJob{
		operation: "img-jpg",
		zipName:   "converted_jpgs.zip",
		accept: acceptExts(map[string]bool{
			".png": true, ".webp": true, ".bmp": true, ".tiff": true, ".tif": true,
		}),
		transform: func(_ context.Context, inputPath string) ([]string, error) {
			out, err := images.ConvertToJPEG(inputPath, s.Path(), quality)
			if err != nil {
				return nil, err
			}
			return []string{out}, nil
		},
	})
}

// ImgToPNG converts images to PNG. POST /img-png.
func (h *Handlers) ImgToPNG(w http.ResponseWriter, r *http.Request) {
	s, ok := h.scratch(w, "img-png-")
	if !ok {
		return
	}
	defer s.Remove()

	h.runFanout(w, r, s, fanoutJob{
		operation: "img-png",
		zipName:   "converted_pngs.zip",
		accept: acceptExts(map[string]bool{
			".jpg": true, ".jpeg": true, ".webp": true, ".bmp": true, ".tiff": true, ".tif": true,
		}),
		transform: func(_ context.Context, inputPath string) ([]string, error) {
			out, err := images.ConvertToPNG(inputPath, s.Path())
			if err != nil {
				return nil, err
			}
			return []string{out}, nil
		},
	})
}

// ImgToWebP converts images to WebP. POST /img-webp.
func (h *Handlers) ImgToWebP(w http.ResponseWriter, r *http.Request) {
	quality, err := formInt(r, "quality", 80, 1, 100)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !images.IsVipsAvailable() {
		writeJSONError(w, "webp encoding is not available on this server", http.StatusServiceUnavailable)
		return
	}

	s, ok := h.scratch(w, "img-webp-")
	if !ok {
		return
	}
	defer s.Remove()

	h.runFanout(w, r, s, fanoutJob{
		operation: "img-webp",
		zipName:   "converted_webp.zip",
		accept: acceptExts(map[string]bool{
			".jpg": true, ".jpeg": true, ".png": true, ".bmp": true, ".tiff": true, ".tif": true,
		}),
		transform: func(_ context.Context, inputPath string) ([]string, error) {
			out, err := images.ConvertToWebP(inputPath, s.Path(), quality)
			if err != nil {
				return nil, err
			}
			return []string{out}, nil
		},
	})
}

// UpscaleImage enlarges images with Lanczos resampling. The response is
// always a zip, even for a single input. POST /upscale.
func (h *Handlers) UpscaleImage(w http.ResponseWriter, r *http.Request) {
	scale, err := formInt(r, "scale", 2, 2, 16)
	if err != nil || !images.ValidScales[scale] {
		writeJSONError(w, "scale must be 2, 4, 8 or 16", http.StatusBadRequest)
		return
	}

	s, ok := h.scratch(w, "upscale-")
	if !ok {
		return
	}
	defer s.Remove()

	h.runFanout(w, r, s, fanoutJob{
		operation:  "upscale",
		zipName:    fmt.Sprintf("upscaled_x%d.zip", scale),
		accept:     acceptExts(filetypes.ImageExtensions),
		wrapSingle: true,
		transform: func(_ context.Context, inputPath string) ([]string, error) {
			out, err := images.Upscale(inputPath, s.Path(), scale)
			if err != nil {
				return nil, err
			}
			return []string{out}, nil
		},
	})
}

// RemoveBackground strips image backgrounds via rembg. POST /remove-imgbg.
func (h *Handlers) RemoveBackground(w http.ResponseWriter, r *http.Request) {
	if !h.requireTool(w, startup.ToolRembg) {
		return
	}

	s, ok := h.scratch(w, "remove-imgbg-")
	if !ok {
		return
	}
	defer s.Remove()

	rembgPath := h.config.ToolPath(startup.ToolRembg)
	h.runFanout(w, r, s, fanoutJob{
		operation: "remove-imgbg",
		zipName:   "nobg_files.zip",
		accept:    acceptExts(filetypes.ImageExtensions),
		transform: func(ctx context.Context, inputPath string) ([]string, error) {
			out, err := images.StripBackground(ctx, rembgPath, inputPath, s.Path())
			if err != nil {
				return nil, err
			}
			return []string{out}, nil
		},
	})
}

// WatermarkImgVideo stamps a text or image watermark onto an uploaded image
// or video. POST /watermark-imgvideo.
func (h *Handlers) WatermarkImgVideo(w http.ResponseWriter, r *http.Request) {
	opts, errMsg := parseWatermarkForm(r)
	if errMsg != "" {
		writeJSONError(w, errMsg, http.StatusBadRequest)
		return
	}

	s, ok := h.scratch(w, "watermark-")
	if !ok {
		return
	}
	defer s.Remove()

	if opts.Type == "image" {
		overlayPath, err := saveUpload(r, "watermarkImage", s)
		if err != nil {
			writeJSONError(w, err.Error(), uploadErrorStatus(err))
			return
		}
		opts.OverlayPath = overlayPath
	}

	upload, err := saveUpload(r, "file", s)
	if err != nil {
		writeJSONError(w, err.Error(), uploadErrorStatus(err))
		return
	}

	var outPath string
	switch filetypes.GetKind(filetypes.Ext(upload)) {
	case filetypes.KindImage:
		outPath, err = images.ApplyWatermark(upload, s.Path(), opts)
	case filetypes.KindVideo:
		if !h.requireTool(w, startup.ToolFFmpeg) {
			return
		}
		outPath, err = h.watermarkVideo(r.Context(), upload, s.Path(), opts)
	default:
		writeJSONError(w, "file must be an image or a video", http.StatusUnsupportedMediaType)
		return
	}
	recordJob("watermark-imgvideo", err, upload, outPath)
	if err != nil {
		writeJSONError(w, err.Error(), errorStatus(err))
		return
	}
	h.sendFile(w, r, outPath)
}

// watermarkVideo rasterizes the watermark to a PNG overlay and burns it in
// with ffmpeg.
func (h *Handlers) watermarkVideo(ctx context.Context, videoPath, outDir string, opts images.WatermarkOptions) (string, error) {
	overlayPath := opts.OverlayPath
	if opts.Type == "text" {
		rendered, err := images.RenderTextOverlayPNG(opts, outDir)
		if err != nil {
			return "", err
		}
		overlayPath = rendered
	}
	return h.video.Watermark(ctx, videoPath, overlayPath, outDir, opts.Position, opts.Opacity)
}

func parseWatermarkForm(r *http.Request) (images.WatermarkOptions, string) {
	var opts images.WatermarkOptions

	opts.Type = formValue(r, "watermarkType", "text")
	if opts.Type != "text" && opts.Type != "image" {
		return opts, "watermarkType must be text or image"
	}
	opts.Text = r.FormValue("watermarkText")
	if opts.Type == "text" && opts.Text == "" {
		return opts, "watermarkText is required for text watermarks"
	}

	fontSize, err := formInt(r, "fontSize", 36, 1, 500)
	if err != nil {
		return opts, err.Error()
	}
	opts.FontSize = fontSize

	rotation, err := formFloat(r, "rotation", 0)
	if err != nil {
		return opts, err.Error()
	}
	opts.Rotation = rotation

	opts.Position = formValue(r, "position", "middle-center")
	if !images.ValidPositions[opts.Position] {
		return opts, "invalid position " + strconv.Quote(opts.Position)
	}

	transparency, err := formInt(r, "transparency", 50, 0, 100)
	if err != nil {
		return opts, err.Error()
	}
	opts.Opacity = float64(transparency) / 100

	return opts, ""
}

// GeneratePlaceholder renders a placeholder image from a JSON body.
// POST /generate-placeholder.
func (h *Handlers) GeneratePlaceholder(w http.ResponseWriter, r *http.Request) {
	opts := images.DefaultPlaceholder()
	var body struct {
		Width           *int    `json:"width"`
		Height          *int    `json:"height"`
		Format          *string `json:"format"`
		BackgroundColor *string `json:"background_color"`
		TextColor       *string `json:"text_color"`
		Text            *string `json:"text"`
		FontSize        *int    `json:"font_size"`
	}
	if err := decodeJSONBody(r, &body); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if body.Width != nil {
		opts.Width = *body.Width
	}
	if body.Height != nil {
		opts.Height = *body.Height
	}
	if body.Format != nil {
		opts.Format = *body.Format
	}
	if body.BackgroundColor != nil {
		opts.BackgroundColor = *body.BackgroundColor
	}
	if body.TextColor != nil {
		opts.TextColor = *body.TextColor
	}
	if body.Text != nil {
		opts.Text = *body.Text
	}
	if body.FontSize != nil {
		opts.FontSize = *body.FontSize
	}

	data, err := images.GeneratePlaceholder(opts)
	metricStatus := "success"
	if err != nil {
		metricStatus = "error"
	}
	recordSimpleJob("generate-placeholder", metricStatus)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	name := fmt.Sprintf("placeholder_%dx%d.%s", opts.Width, opts.Height, opts.Format)
	sendBytes(w, data, placeholderMime(opts.Format), name)
}

func placeholderMime(format string) string {
	switch format {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
