package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/medintake/form-extractor/internal/schema"
)

const maxPromptText = 8000

// BuildSystemPrompt composes the fixed extraction instruction: every field
// with its semantic meaning and type, null/empty-list rules for unknowns, and
// a ban on invented fields.
func BuildSystemPrompt(def *schema.Definition) string {
	var fields strings.Builder
	for _, f := range def.Fields() {
		fields.WriteString("- ")
		fields.WriteString(f.Name)
		fields.WriteString(" (")
		fields.WriteString(describeType(f))
		fields.WriteString("): ")
		fields.WriteString(f.Description)
		if len(f.Enum) > 0 {
			fields.WriteString(". Preferred values: " + strings.Join(f.Enum, ", "))
		}
		fields.WriteString("\n")
	}

	parts := []string{
		"You are a healthcare form data extraction assistant. You extract patient and visit fields from healthcare form text and return them as JSON.",
		"Extract exactly the fields listed below. Never invent additional fields and never omit a listed field.",
		"For optional fields not present in the text, use null. For list fields with no items, use an empty list.",
		"Format dates as YYYY-MM-DD when possible.",
		"Return ONLY the JSON object, with no additional text, explanations, or markdown formatting.",
		"Fields:\n" + fields.String(),
		"The JSON must match this schema:\n" + mustJSON(def.JSONSchema()),
	}
	return strings.Join(parts, "\n\n")
}

// BuildUserPrompt packages the acquired text (truncated to keep the request
// bounded) with a filename hint.
func BuildUserPrompt(req ExtractRequest) string {
	var b strings.Builder
	if name := strings.TrimSpace(req.FilenameHint); name != "" {
		b.WriteString("Filename: ")
		b.WriteString(name)
		b.WriteString("\n\n")
	}
	b.WriteString("Extract the healthcare form data from the following text:\n\n")
	text := req.Text
	if len(text) > maxPromptText {
		text = text[:maxPromptText] + "\n…(truncated)"
	}
	b.WriteString(text)
	return b.String()
}

// StrictReminder is appended when the first reply cannot be parsed as a
// record; the request is re-issued once with it.
const StrictReminder = "Your previous reply was not a valid JSON object. " +
	"Respond again with ONLY the JSON object matching the schema: no prose, " +
	"no markdown fences, no trailing commentary."

func describeType(f schema.FieldSpec) string {
	switch f.Type {
	case schema.TypeDate:
		if f.Required {
			return "date, required"
		}
		return "date or null"
	case schema.TypeList:
		return "list of strings"
	case schema.TypeEnum:
		return "string, required"
	default:
		if f.Required {
			return "string, required"
		}
		return "string or null"
	}
}

func mustJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("marshal schema: %v", err))
	}
	return string(b)
}
