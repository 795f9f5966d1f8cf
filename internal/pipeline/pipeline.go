// Package pipeline sequences acquisition, extraction, and validation into a
// single request-scoped run with uniform failure handling at each stage.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medintake/form-extractor/constants"
	"github.com/medintake/form-extractor/internal/acquire"
	"github.com/medintake/form-extractor/internal/common"
	"github.com/medintake/form-extractor/internal/llm"
	"github.com/medintake/form-extractor/internal/schema"
	"github.com/medintake/form-extractor/internal/validate"
)

// Outcome is the tagged result of one pipeline run: a sanitized record on
// success, or the failing stage with a human-readable reason (plus the full
// violation list for validation failures).
type Outcome struct {
	RunID      string                 `json:"run_id"`
	OK         bool                   `json:"ok"`
	Record     schema.SanitizedRecord `json:"record,omitempty"`
	Stage      constants.Stage        `json:"stage,omitempty"`
	Reason     string                 `json:"reason,omitempty"`
	Violations []common.Violation     `json:"violations,omitempty"`
	Method     string                 `json:"method,omitempty"`
	Pages      int                    `json:"pages,omitempty"`
	Duration   time.Duration          `json:"-"`
}

// Orchestrator runs the three stages in order; the first stage to fail
// determines the outcome and no later stage runs. It never talks to the
// renderer or the transport layer.
type Orchestrator struct {
	acquirer  acquire.TextAcquirer
	extractor llm.Extractor
	validator *validate.Validator
	def       *schema.Definition
	logger    *slog.Logger
}

func NewOrchestrator(
	acquirer acquire.TextAcquirer,
	extractor llm.Extractor,
	validator *validate.Validator,
	def *schema.Definition,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		acquirer:  acquirer,
		extractor: extractor,
		validator: validator,
		def:       def,
		logger:    logger,
	}
}

// Run executes one pipeline run for a document. Each run is independent and
// stateless across requests; the outcome is always returned, never panicked.
func (o *Orchestrator) Run(ctx context.Context, doc acquire.Document) Outcome {
	runID := uuid.New().String()
	start := time.Now()
	o.logger.Info("pipeline.run.start",
		"run_id", runID,
		"media", doc.Media,
		"name", doc.Name,
		"bytes", len(doc.Data),
	)

	text, err := o.acquirer.Acquire(ctx, doc)
	if err != nil {
		return o.failed(runID, start, constants.StageAcquisition, err)
	}
	if strings.TrimSpace(text.Text) == "" {
		return o.failed(runID, start, constants.StageAcquisition,
			common.NewAcquisitionError("no text acquired", common.ErrNoText))
	}

	cand, _, err := o.extractor.Extract(ctx, llm.ExtractRequest{
		Text:         text.Text,
		FilenameHint: doc.Name,
	}, o.def)
	if err != nil {
		return o.failed(runID, start, constants.StageExtraction, err)
	}

	rec, err := o.validator.Validate(cand)
	if err != nil {
		return o.failed(runID, start, constants.StageValidation, err)
	}

	o.logger.Info("pipeline.run.ok",
		"run_id", runID,
		"method", text.Method,
		"pages", text.Pages,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Outcome{
		RunID:    runID,
		OK:       true,
		Record:   rec,
		Method:   text.Method,
		Pages:    text.Pages,
		Duration: time.Since(start),
	}
}

func (o *Orchestrator) failed(runID string, start time.Time, stage constants.Stage, err error) Outcome {
	out := Outcome{
		RunID:    runID,
		Stage:    stage,
		Reason:   err.Error(),
		Duration: time.Since(start),
	}
	var ve *common.ValidationError
	if errors.As(err, &ve) {
		out.Violations = ve.Violations
	}
	o.logger.Error("pipeline.run.failed",
		"run_id", runID,
		"stage", stage,
		"error", err,
		"elapsed_ms", out.Duration.Milliseconds(),
	)
	return out
}
