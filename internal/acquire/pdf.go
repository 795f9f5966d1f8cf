package acquire

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/medintake/form-extractor/internal/common"
)

// PDFAcquirer extracts text from born-digital PDFs, walking pages in order
// and separating them with page markers. Per-page failures follow the
// configured policy: keep going with a gap marker, or abort the document.
type PDFAcquirer struct {
	policy common.PDFPagePolicy
}

func NewPDFAcquirer(policy common.PDFPagePolicy) *PDFAcquirer {
	if policy == "" {
		policy = common.PDFPageGapMarker
	}
	return &PDFAcquirer{policy: policy}
}

func pageMarker(n int) string { return fmt.Sprintf("--- PAGE %d ---", n) }

func gapMarker(n int) string { return fmt.Sprintf("--- PAGE %d (unreadable) ---", n) }

func (a *PDFAcquirer) Acquire(_ context.Context, doc Document) (res ExtractedText, err error) {
	// ledongthuc/pdf panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			res = ExtractedText{}
			err = common.NewAcquisitionError("malformed pdf", fmt.Errorf("%v", r))
		}
	}()

	reader, openErr := pdf.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if openErr != nil {
		return ExtractedText{}, common.NewAcquisitionError("open pdf", openErr)
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return ExtractedText{}, common.NewAcquisitionError("pdf has no pages", common.ErrNoText)
	}

	var (
		b        strings.Builder
		warnings []string
		readable int
		glyphs   int
	)
	for i := 1; i <= numPages; i++ {
		text, pageErr := a.pageText(reader, i)
		if pageErr != nil {
			if a.policy == common.PDFPageAbort {
				return ExtractedText{}, common.NewAcquisitionError(
					fmt.Sprintf("page %d unreadable", i), pageErr)
			}
			warnings = append(warnings, fmt.Sprintf("page %d: %v", i, pageErr))
			b.WriteString("\n" + gapMarker(i) + "\n")
			continue
		}
		readable++
		glyphs += len(strings.TrimSpace(text))
		b.WriteString("\n" + pageMarker(i) + "\n")
		b.WriteString(text)
	}

	if readable == 0 {
		return ExtractedText{}, common.NewAcquisitionError("every page unreadable", common.ErrNoText)
	}
	if glyphs == 0 {
		return ExtractedText{}, common.NewAcquisitionError("pdf contains no text", common.ErrNoText)
	}

	return ExtractedText{
		Text:     strings.TrimSpace(b.String()),
		Pages:    numPages,
		Method:   "pdf-text",
		Warnings: warnings,
	}, nil
}

func (a *PDFAcquirer) pageText(reader *pdf.Reader, n int) (string, error) {
	page := reader.Page(n)
	if page.V.IsNull() {
		return "", fmt.Errorf("null page object")
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", err
	}
	return text, nil
}
