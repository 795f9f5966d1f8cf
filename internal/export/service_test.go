package export

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/medintake/form-extractor/constants"
	"github.com/medintake/form-extractor/internal/store"
)

func TestExtractionsXLSX(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "extractions.db"))
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	base := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Record(ctx, store.Extraction{
		ID:       "run-1",
		Filename: "intake.pdf",
		Media:    constants.PDF,
		Status:   constants.RunStatusOK,
		RecordJSON: `{"patient_name":"John Doe","date_of_birth":"1980-01-01",` +
			`"gender":"Male","allergies":["penicillin","latex"],"primary_complaint":"cough"}`,
		CreatedAt: base,
	}))
	require.NoError(t, s.Record(ctx, store.Extraction{
		ID:        "run-2",
		Filename:  "scan.png",
		Media:     constants.PNG,
		Status:    constants.RunStatusFailed,
		Stage:     constants.StageAcquisition,
		Reason:    "acquisition: unreadable image",
		CreatedAt: base.Add(time.Minute),
	}))

	b, err := NewService(s, nil).ExtractionsXLSX(ctx, 0)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Extractions")
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + two runs

	assert.Equal(t, "Created At", rows[0][0])
	assert.Equal(t, "Patient Name", rows[0][6])

	// newest first: the failed run on row 2, the OK run on row 3
	assert.Equal(t, "scan.png", rows[1][1])
	assert.Equal(t, string(constants.RunStatusFailed), rows[1][3])
	assert.Equal(t, string(constants.StageAcquisition), rows[1][4])

	assert.Equal(t, "intake.pdf", rows[2][1])
	assert.Equal(t, "John Doe", rows[2][6])
	assert.Equal(t, "1980-01-01", rows[2][7])
}

func TestExtractionsXLSXEmptyStore(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "extractions.db"))
	require.NoError(t, err)
	defer s.Close()

	b, err := NewService(s, nil).ExtractionsXLSX(context.Background(), 0)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Extractions")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestRecString(t *testing.T) {
	rec := map[string]any{
		"patient_name": "John Doe",
		"allergies":    []any{"penicillin", "latex"},
		"email":        nil,
	}
	assert.Equal(t, "John Doe", recString(rec, "patient_name"))
	assert.Equal(t, "penicillin, latex", recString(rec, "allergies"))
	assert.Equal(t, "", recString(rec, "email"))
	assert.Equal(t, "", recString(rec, "missing"))
}
