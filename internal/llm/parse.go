package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/medintake/form-extractor/internal/schema"
)

// DecodeCandidate parses a model reply into a candidate record. It tolerates
// markdown code fences and surrounding prose, but the payload itself must be
// a JSON object.
func DecodeCandidate(reply string) (schema.CandidateRecord, error) {
	payload := stripFences(strings.TrimSpace(reply))

	// fall back to the outermost braces when the model wrapped the object
	// in prose despite instructions
	if !strings.HasPrefix(payload, "{") {
		start := strings.Index(payload, "{")
		end := strings.LastIndex(payload, "}")
		if start == -1 || end <= start {
			return nil, fmt.Errorf("reply contains no JSON object")
		}
		payload = payload[start : end+1]
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	return schema.CandidateRecord(m), nil
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
