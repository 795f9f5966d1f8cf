package acquire

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/medintake/form-extractor/constants"
	"github.com/medintake/form-extractor/internal/common"
)

// ImageAcquirer runs a detection-then-recognition pass over a raster image
// using tesseract's TSV output: word boxes are detected and recognized in one
// invocation, then reassembled in reading order (top-to-bottom, left-to-right
// per block). Empty or low-confidence recognition is passed downstream; an
// unreadable image file is an acquisition error.
type ImageAcquirer struct {
	cfg    common.AcquireConfig
	runner Runner
}

func NewImageAcquirer(cfg common.AcquireConfig, runner Runner) *ImageAcquirer {
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if runner == nil {
		runner = execRunner{}
	}
	return &ImageAcquirer{cfg: cfg, runner: runner}
}

func (a *ImageAcquirer) Acquire(ctx context.Context, doc Document) (ExtractedText, error) {
	path, cleanup, err := writeTemp(doc)
	if err != nil {
		return ExtractedText{}, common.NewAcquisitionError("stage image", err)
	}
	defer cleanup()

	args := []string{path, "stdout", "-l", a.cfg.TesseractLang}
	if a.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", a.cfg.TessdataDir)
	}
	if a.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(a.cfg.PSM))
	}
	args = append(args, "tsv")

	out, errb, err := a.runner.Run(ctx, a.cfg.Tesseract, args...)
	if err != nil {
		return ExtractedText{}, common.NewAcquisitionError(
			"unreadable image", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512)))
	}

	text, spans, conf := assembleTSV(string(out))
	return ExtractedText{
		Text:       text,
		Pages:      1,
		Method:     "image-ocr",
		Spans:      spans,
		Confidence: conf,
	}, nil
}

// assembleTSV parses tesseract TSV rows into reading-order text, layout
// spans, and a mean word confidence in 0..1.
//
// TSV columns: level page block par line word left top width height conf text
func assembleTSV(tsv string) (string, []Span, float32) {
	var (
		b       strings.Builder
		spans   []Span
		sum     float64
		words   int
		curLine [3]int // block, par, line
		started bool
	)
	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || ln == "" {
			continue // header
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		level, _ := strconv.Atoi(cols[0])
		if level != 5 {
			continue // word rows only
		}
		word := strings.TrimSpace(cols[11])
		if word == "" {
			continue
		}
		page, _ := strconv.Atoi(cols[1])
		block, _ := strconv.Atoi(cols[2])
		par, _ := strconv.Atoi(cols[3])
		line, _ := strconv.Atoi(cols[4])
		left, _ := strconv.Atoi(cols[6])
		top, _ := strconv.Atoi(cols[7])

		key := [3]int{block, par, line}
		if started && key != curLine {
			b.WriteString("\n")
		} else if started {
			b.WriteString(" ")
		}
		curLine = key
		started = true
		b.WriteString(word)

		spans = append(spans, Span{Text: word, Page: page, X: left, Y: top})
		if c, err := strconv.ParseFloat(cols[10], 64); err == nil && c >= 0 {
			sum += c
			words++
		}
	}
	var conf float32
	if words > 0 {
		conf = float32(sum / float64(words) / 100.0)
	}
	return b.String(), spans, conf
}

// writeTemp stages the document bytes on disk for tesseract, which wants a
// file path rather than stdin for multi-frame formats.
func writeTemp(doc Document) (string, func(), error) {
	ext := "png"
	switch doc.Media {
	case constants.JPEG:
		ext = "jpg"
	case constants.TIFF:
		ext = "tif"
	}
	f, err := os.CreateTemp("", "intake-*."+ext)
	if err != nil {
		return "", nil, err
	}
	if _, err := f.Write(doc.Data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", nil, err
	}
	return f.Name(), func() { _ = os.Remove(f.Name()) }, nil
}
