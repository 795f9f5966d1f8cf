// Package acquire turns raw document bytes into a text representation
// suitable for prompting. There are exactly two acquirer variants, selected
// by the document's declared media type.
package acquire

import (
	"context"
	"log/slog"
	"time"

	"github.com/medintake/form-extractor/constants"
	"github.com/medintake/form-extractor/internal/common"
)

// Document is a raw uploaded file plus its declared media type. Immutable
// once received; consumed once by a pipeline run.
type Document struct {
	Data  []byte
	Media constants.MediaType
	Name  string // original filename, for logging only
}

// Span is a positioned fragment of recognized text. Only the image acquirer
// fills coordinates; PDF extraction reports page numbers alone.
type Span struct {
	Text string
	Page int
	X    int
	Y    int
}

// ExtractedText is a single text blob plus optional layout hints.
type ExtractedText struct {
	Text       string
	Pages      int
	Method     string // "pdf-text" | "image-ocr"
	Spans      []Span
	Confidence float32 // 0 when the method reports none
	Warnings   []string
	Duration   time.Duration
}

// TextAcquirer is stage 1 of the pipeline: document -> text.
type TextAcquirer interface {
	Acquire(ctx context.Context, doc Document) (ExtractedText, error)
}

// Selector dispatches a Document to the PDF or image acquirer by media type.
type Selector struct {
	pdf    TextAcquirer
	image  TextAcquirer
	logger *slog.Logger
}

func NewSelector(pdf, image TextAcquirer, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{pdf: pdf, image: image, logger: logger}
}

func (s *Selector) Acquire(ctx context.Context, doc Document) (ExtractedText, error) {
	if len(doc.Data) == 0 {
		return ExtractedText{}, common.NewAcquisitionError("empty document", common.ErrEmptyDocument)
	}
	start := time.Now()
	var (
		res ExtractedText
		err error
	)
	switch {
	case doc.Media == constants.PDF:
		res, err = s.pdf.Acquire(ctx, doc)
	case doc.Media.IsImage():
		res, err = s.image.Acquire(ctx, doc)
	default:
		return ExtractedText{}, common.NewAcquisitionError(
			"media type "+string(doc.Media), common.ErrUnsupportedMedia)
	}
	res.Duration = time.Since(start)
	if err != nil {
		s.logger.Error("acquire.failed", "media", doc.Media, "name", doc.Name, "error", err)
		return res, err
	}
	s.logger.Debug("acquire.ok",
		"media", doc.Media,
		"name", doc.Name,
		"method", res.Method,
		"pages", res.Pages,
		"text_bytes", len(res.Text),
		"confidence", res.Confidence,
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
