package llm

import (
	"context"

	"github.com/medintake/form-extractor/internal/schema"
)

// ExtractRequest carries the acquired text and prompt hints into one
// extraction call. Retry state lives inside the call, never on the client.
type ExtractRequest struct {
	Text         string
	FilenameHint string
}

// Extractor is stage 2 of the pipeline: text -> candidate record. The raw
// model reply is returned alongside for audit logging. Implementations never
// validate required-ness or types; they only guarantee the output parses as a
// field-name -> value mapping.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest, def *schema.Definition) (schema.CandidateRecord, []byte, error)
}
