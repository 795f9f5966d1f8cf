package common

import (
	"errors"
	"fmt"
	"strings"

	"github.com/medintake/form-extractor/constants"
)

// Sentinel causes shared across the pipeline.
var (
	ErrEmptyDocument    = errors.New("document is empty")
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrNoText           = errors.New("no recognizable text")
)

// AcquisitionError means the input document was malformed or unreadable.
type AcquisitionError struct {
	Reason string
	Cause  error
}

func (e *AcquisitionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("acquisition: %s: %v", e.Reason, e.Cause)
	}
	return "acquisition: " + e.Reason
}

func (e *AcquisitionError) Unwrap() error { return e.Cause }

func NewAcquisitionError(reason string, cause error) *AcquisitionError {
	return &AcquisitionError{Reason: reason, Cause: cause}
}

// ExtractionError means the model call failed after retries, or its reply
// could not be parsed as a record.
type ExtractionError struct {
	Reason   string
	Attempts int
	Cause    error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction: %s (attempts=%d): %v", e.Reason, e.Attempts, e.Cause)
	}
	return fmt.Sprintf("extraction: %s (attempts=%d)", e.Reason, e.Attempts)
}

func (e *ExtractionError) Unwrap() error { return e.Cause }

// Violation is a single field-level schema defect.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationError carries the complete, schema-ordered set of violations
// found in a candidate record.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.String())
	}
	return "validation: " + strings.Join(msgs, "; ")
}

// StageOf maps an error to the pipeline stage that produced it.
// Returns "" when the error belongs to no stage.
func StageOf(err error) constants.Stage {
	var ae *AcquisitionError
	if errors.As(err, &ae) {
		return constants.StageAcquisition
	}
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return constants.StageExtraction
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return constants.StageValidation
	}
	return ""
}
