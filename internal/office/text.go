package office

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strings"

	"file-forge/internal/filetypes"
	"file-forge/internal/images"

	"github.com/disintegration/imaging"
)

// Text page rendering geometry. Matches the 4:3 slide so a rendered text
// page fills a slide edge to edge.
const (
	textPageWidth  = 1600
	textPageHeight = 1200
	textPageMargin = 80
	textFontSize   = 28
	textLineHeight = 40
)

// TextToImage renders the contents of a plain-text file onto white pages and
// returns one PNG path per page, in order.
func TextToImage(txtPath, outDir string) ([]string, error) {
	f, err := os.Open(txtPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	linesPerPage := (textPageHeight - 2*textPageMargin) / textLineHeight
	base := filetypes.Base(txtPath)

	var outputs []string
	page := imaging.New(textPageWidth, textPageHeight, color.White)
	line := 0

	flush := func() error {
		outPath := filepath.Join(outDir, fmt.Sprintf("%s_page%03d.png", base, len(outputs)+1))
		if err := imaging.Save(page, outPath); err != nil {
			return err
		}
		outputs = append(outputs, outPath)
		page = imaging.New(textPageWidth, textPageHeight, color.White)
		line = 0
		return nil
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		text := strings.TrimRight(scanner.Text(), " \t")
		if text != "" {
			rendered, err := images.RenderText(text, textFontSize, color.Black)
			if err != nil {
				return nil, err
			}
			y := textPageMargin + line*textLineHeight
			draw.Draw(page, rendered.Bounds().Add(image.Pt(textPageMargin, y)),
				rendered, rendered.Bounds().Min, draw.Over)
		}
		line++
		if line >= linesPerPage {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if line > 0 || len(outputs) == 0 {
		if err := flush(); err != nil {
			return nil, err
		}
	}
	return outputs, nil
}
