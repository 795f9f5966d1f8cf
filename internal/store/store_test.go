package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medintake/form-extractor/constants"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "extractions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Record(ctx, Extraction{
		ID:         "run-1",
		Filename:   "intake.pdf",
		Media:      constants.PDF,
		Status:     constants.RunStatusOK,
		RecordJSON: `{"patient_name":"John Doe"}`,
		CreatedAt:  base,
	}))
	require.NoError(t, s.Record(ctx, Extraction{
		ID:        "run-2",
		Filename:  "scan.png",
		Media:     constants.PNG,
		Status:    constants.RunStatusFailed,
		Stage:     constants.StageValidation,
		Reason:    "validation: patient_name: required field is missing",
		CreatedAt: base.Add(time.Minute),
	}))

	runs, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// newest first
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, constants.RunStatusFailed, runs[0].Status)
	assert.Equal(t, constants.StageValidation, runs[0].Stage)
	assert.Equal(t, "run-1", runs[1].ID)
	assert.Equal(t, constants.PDF, runs[1].Media)
	assert.Equal(t, `{"patient_name":"John Doe"}`, runs[1].RecordJSON)
}

func TestListLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(ctx, Extraction{
			ID:        string(rune('a' + i)),
			Filename:  "f.pdf",
			Media:     constants.PDF,
			Status:    constants.RunStatusOK,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	runs, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "e", runs[0].ID)
	assert.Equal(t, "d", runs[1].ID)
}

func TestRecordDefaultsCreatedAt(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Extraction{
		ID: "run-1", Filename: "f.pdf", Media: constants.PDF, Status: constants.RunStatusOK,
	}))

	runs, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.False(t, runs[0].CreatedAt.IsZero())
}

func TestRecordDuplicateID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	e := Extraction{ID: "run-1", Filename: "f.pdf", Media: constants.PDF, Status: constants.RunStatusOK}
	require.NoError(t, s.Record(ctx, e))
	assert.Error(t, s.Record(ctx, e))
}
