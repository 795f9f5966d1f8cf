package acquire

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medintake/form-extractor/constants"
	"github.com/medintake/form-extractor/internal/common"
)

type stubAcquirer struct {
	res   ExtractedText
	calls int
}

func (s *stubAcquirer) Acquire(context.Context, Document) (ExtractedText, error) {
	s.calls++
	return s.res, nil
}

func TestSelectorDispatch(t *testing.T) {
	pdf := &stubAcquirer{res: ExtractedText{Text: "from pdf", Method: "pdf-text"}}
	img := &stubAcquirer{res: ExtractedText{Text: "from ocr", Method: "image-ocr"}}
	sel := NewSelector(pdf, img, nil)

	res, err := sel.Acquire(context.Background(), Document{Data: []byte("x"), Media: constants.PDF})
	require.NoError(t, err)
	assert.Equal(t, "from pdf", res.Text)

	for _, m := range []constants.MediaType{constants.JPEG, constants.PNG, constants.TIFF} {
		res, err = sel.Acquire(context.Background(), Document{Data: []byte("x"), Media: m})
		require.NoError(t, err)
		assert.Equal(t, "from ocr", res.Text)
	}

	assert.Equal(t, 1, pdf.calls)
	assert.Equal(t, 3, img.calls)
}

func TestSelectorRejectsEmptyDocument(t *testing.T) {
	sel := NewSelector(&stubAcquirer{}, &stubAcquirer{}, nil)

	_, err := sel.Acquire(context.Background(), Document{Media: constants.PDF})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrEmptyDocument)
	assert.Equal(t, constants.StageAcquisition, common.StageOf(err))
}

func TestSelectorRejectsUnsupportedMedia(t *testing.T) {
	pdf := &stubAcquirer{}
	img := &stubAcquirer{}
	sel := NewSelector(pdf, img, nil)

	_, err := sel.Acquire(context.Background(), Document{Data: []byte("x"), Media: constants.MediaType("gif")})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnsupportedMedia)
	assert.Zero(t, pdf.calls)
	assert.Zero(t, img.calls)
}
