package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/medintake/form-extractor/internal/store"
)

// Service is a tiny façade over the history store that produces XLSX bytes
// for exports.
type Service struct {
	store  *store.Store
	logger *slog.Logger
}

func NewService(st *store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, logger: logger}
}

// ExtractionsXLSX returns an XLSX workbook (as bytes) with the most recent
// extraction runs, one row per run, record fields flattened into columns.
func (s *Service) ExtractionsXLSX(ctx context.Context, limit int) ([]byte, error) {
	start := time.Now()

	runs, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query extractions: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Extractions"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if index, _ := f.GetSheetIndex("Sheet1"); index != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Created At",
		"Filename",
		"Media",
		"Status",
		"Failed Stage",
		"Reason",
		"Patient Name",
		"Date of Birth",
		"Gender",
		"Phone Number",
		"Insurance Provider",
		"Insurance ID",
		"Primary Complaint",
		"Appointment Date",
		"Doctor",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range runs {
		rec := map[string]any{}
		if r.RecordJSON != "" {
			_ = json.Unmarshal([]byte(r.RecordJSON), &rec)
		}

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, r.CreatedAt.UTC().Format(time.RFC3339))
		write(2, r.Filename)
		write(3, string(r.Media))
		write(4, string(r.Status))
		write(5, string(r.Stage))
		write(6, r.Reason)
		write(7, recString(rec, "patient_name"))
		write(8, recString(rec, "date_of_birth"))
		write(9, recString(rec, "gender"))
		write(10, recString(rec, "phone_number"))
		write(11, recString(rec, "insurance_provider"))
		write(12, recString(rec, "insurance_id"))
		write(13, recString(rec, "primary_complaint"))
		write(14, recString(rec, "appointment_date"))
		write(15, recString(rec, "doctor_name"))
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("export.extractions.ok",
		"rows", len(runs),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func recString(rec map[string]any, key string) string {
	switch v := rec[key].(type) {
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, el := range v {
			if s, ok := el.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}
