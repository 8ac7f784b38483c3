package pdfops

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"file-forge/internal/filetypes"
	"file-forge/internal/logging"
	"file-forge/internal/metrics"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ErrWrongPassword reports that a PDF could not be opened with the supplied
// password.
var ErrWrongPassword = errors.New("wrong PDF password")

// MaxPasswordLength bounds user-supplied PDF passwords.
const MaxPasswordLength = 128

// Protect encrypts a PDF with AES-256 using the given password for both the
// user and owner roles. Returns the output path (<base>_protected.pdf).
func Protect(path, outDir, password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	if len(password) > MaxPasswordLength {
		return "", fmt.Errorf("password exceeds %d bytes", MaxPasswordLength)
	}

	start := time.Now()
	defer func() {
		metrics.JobDuration.WithLabelValues("protect-pdf").Observe(time.Since(start).Seconds())
	}()

	conf := model.NewDefaultConfiguration()
	conf.UserPW = password
	conf.OwnerPW = password
	conf.EncryptUsingAES = true
	conf.EncryptKeyLength = 256

	outPath := filepath.Join(outDir, filetypes.Base(path)+"_protected.pdf")
	if err := pdfapi.EncryptFile(path, outPath, conf); err != nil {
		return "", fmt.Errorf("failed to encrypt PDF: %w", err)
	}
	return outPath, nil
}

// Unlock removes encryption from a PDF. A wrong password yields
// ErrWrongPassword so callers can distinguish it from structural failures.
// Returns the output path (<base>_unlocked.pdf).
func Unlock(path, outDir, password string) (string, error) {
	start := time.Now()
	defer func() {
		metrics.JobDuration.WithLabelValues("unlock-pdf").Observe(time.Since(start).Seconds())
	}()

	conf := model.NewDefaultConfiguration()
	conf.UserPW = password
	conf.OwnerPW = password

	outPath := filepath.Join(outDir, filetypes.Base(path)+"_unlocked.pdf")
	if err := pdfapi.DecryptFile(path, outPath, conf); err != nil {
		if isPasswordError(err) {
			return "", ErrWrongPassword
		}
		return "", fmt.Errorf("failed to decrypt PDF: %w", err)
	}
	return outPath, nil
}

func isPasswordError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") || strings.Contains(msg, "encrypted")
}

// WatermarkOptions describes a text or image stamp applied to every page.
type WatermarkOptions struct {
	Type      string  // "text" or "image"
	Text      string
	FontSize  int
	Rotation  float64
	Position  string  // "top-left" through "bottom-right"
	Opacity   float64 // 0 to 1
	ImagePath string  // watermark image file when Type is "image"
	Password  string  // to open an encrypted source
}

// anchor maps the position strings to pdfcpu anchor codes.
var anchor = map[string]string{
	"top-left": "tl", "top-center": "tc", "top-right": "tr",
	"middle-left": "l", "middle-center": "c", "middle-right": "r",
	"bottom-left": "bl", "bottom-center": "bc", "bottom-right": "br",
}

// Watermark stamps every page of a PDF with text or an image. Returns the
// output path (<base>_watermarked.pdf).
func Watermark(path, outDir string, opts WatermarkOptions) (string, error) {
	pos, ok := anchor[opts.Position]
	if !ok {
		return "", fmt.Errorf("invalid watermark position %q", opts.Position)
	}
	if opts.Opacity < 0 || opts.Opacity > 1 {
		return "", fmt.Errorf("opacity must be between 0 and 1")
	}

	start := time.Now()
	defer func() {
		metrics.JobDuration.WithLabelValues("watermark-files").Observe(time.Since(start).Seconds())
	}()

	var wm *model.Watermark
	var err error
	switch opts.Type {
	case "text":
		if opts.Text == "" {
			return "", fmt.Errorf("watermark text is empty")
		}
		desc := fmt.Sprintf("points:%d, rot:%g, op:%.2f, pos:%s, fillcolor:#000000, scale:1 abs",
			opts.FontSize, opts.Rotation, opts.Opacity, pos)
		wm, err = pdfcpu.ParseTextWatermarkDetails(opts.Text, desc, true, types.POINTS)
	case "image":
		desc := fmt.Sprintf("rot:%g, op:%.2f, pos:%s, scale:0.4 rel",
			opts.Rotation, opts.Opacity, pos)
		wm, err = pdfcpu.ParseImageWatermarkDetails(opts.ImagePath, desc, true, types.POINTS)
	default:
		return "", fmt.Errorf("unknown watermark type %q", opts.Type)
	}
	if err != nil {
		return "", fmt.Errorf("failed to parse watermark: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	if opts.Password != "" {
		conf.UserPW = opts.Password
		conf.OwnerPW = opts.Password
	}

	outPath := filepath.Join(outDir, filetypes.Base(path)+"_watermarked.pdf")
	// nil page selection means all pages
	if err := pdfapi.AddWatermarksFile(path, outPath, nil, wm, conf); err != nil {
		if isPasswordError(err) {
			return "", ErrWrongPassword
		}
		return "", fmt.Errorf("failed to apply watermark: %w", err)
	}

	logging.Debug("stamped %s (%s watermark)", filepath.Base(path), opts.Type)
	return outPath, nil
}

// ImagesToPDF builds a PDF with one page per input image.
func ImagesToPDF(imagePaths []string, outPath string) error {
	if len(imagePaths) == 0 {
		return fmt.Errorf("no images to convert")
	}
	imp := pdfcpu.DefaultImportConfig()
	conf := model.NewDefaultConfiguration()
	if err := pdfapi.ImportImagesFile(imagePaths, outPath, imp, conf); err != nil {
		return fmt.Errorf("failed to import images: %w", err)
	}
	return nil
}

// Validate checks that a file is a structurally sound PDF.
func Validate(path string) error {
	return pdfapi.ValidateFile(path, model.NewDefaultConfiguration())
}
