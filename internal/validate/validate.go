// Package validate checks and coerces a candidate record against the schema
// definition, producing either a sanitized record or the complete set of
// field-level violations. Pure transformation: no I/O, no hidden state.
package validate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/medintake/form-extractor/internal/common"
	"github.com/medintake/form-extractor/internal/schema"
)

type Validator struct {
	def *schema.Definition
}

func New(def *schema.Definition) *Validator {
	return &Validator{def: def}
}

// Validate iterates field specs in schema order, accumulating ALL violations
// before failing so the caller sees the complete defect set in one pass.
// Unexpected extra keys in the candidate are ignored.
func (v *Validator) Validate(cand schema.CandidateRecord) (schema.SanitizedRecord, error) {
	rec := make(schema.SanitizedRecord, len(v.def.Fields()))
	var violations []common.Violation

	for _, f := range v.def.Fields() {
		raw, present := cand[f.Name]
		if raw == nil {
			present = false
		}

		switch f.Type {
		case schema.TypeList:
			items, viol := coerceList(f, raw, present)
			if viol != nil {
				violations = append(violations, *viol)
				continue
			}
			rec[f.Name] = items

		case schema.TypeDate:
			val, viol := coerceDate(f, raw, present)
			if viol != nil {
				violations = append(violations, *viol)
				continue
			}
			rec[f.Name] = val

		default: // TypeString, TypeEnum
			val, viol := coerceString(f, raw, present)
			if viol != nil {
				violations = append(violations, *viol)
				continue
			}
			rec[f.Name] = val
		}
	}

	if len(violations) > 0 {
		return nil, &common.ValidationError{Violations: violations}
	}
	if err := v.def.ValidateRecord(rec); err != nil {
		return nil, fmt.Errorf("sanitized record violates schema: %w", err)
	}
	return rec, nil
}

func coerceString(f schema.FieldSpec, raw any, present bool) (any, *common.Violation) {
	if !present {
		if f.Required {
			return nil, &common.Violation{Field: f.Name, Message: "required field is missing"}
		}
		return nil, nil
	}
	s, ok := scalarToString(raw)
	if !ok {
		return nil, &common.Violation{Field: f.Name, Message: "cannot be coerced to string", Value: raw}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		if f.Required {
			return nil, &common.Violation{Field: f.Name, Message: "required field is empty"}
		}
		return nil, nil
	}
	if f.Type == schema.TypeEnum {
		s = canonicalizeEnum(s, f.Enum)
	}
	return s, nil
}

func coerceDate(f schema.FieldSpec, raw any, present bool) (any, *common.Violation) {
	if !present {
		if f.Required {
			return nil, &common.Violation{Field: f.Name, Message: "required field is missing"}
		}
		return nil, nil
	}
	s, ok := scalarToString(raw)
	if !ok {
		return nil, &common.Violation{Field: f.Name, Message: "cannot be coerced to a date", Value: raw}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		if f.Required {
			return nil, &common.Violation{Field: f.Name, Message: "required field is empty"}
		}
		return nil, nil
	}
	normalized, err := NormalizeDate(s)
	if err != nil {
		return nil, &common.Violation{Field: f.Name, Message: err.Error(), Value: s}
	}
	return normalized, nil
}

// coerceList accepts a native list or a single scalar promoted to a
// one-element list. Absent list fields become empty lists, never null.
func coerceList(f schema.FieldSpec, raw any, present bool) ([]string, *common.Violation) {
	if !present {
		return []string{}, nil
	}
	switch t := raw.(type) {
	case []any:
		items := make([]string, 0, len(t))
		for _, el := range t {
			s, ok := scalarToString(el)
			if !ok {
				return nil, &common.Violation{Field: f.Name, Message: "list items must be strings", Value: el}
			}
			if s = strings.TrimSpace(s); s != "" {
				items = append(items, s)
			}
		}
		return items, nil
	case []string:
		items := make([]string, 0, len(t))
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				items = append(items, s)
			}
		}
		return items, nil
	default:
		s, ok := scalarToString(raw)
		if !ok {
			return nil, &common.Violation{Field: f.Name, Message: "cannot be coerced to a list", Value: raw}
		}
		if s = strings.TrimSpace(s); s == "" {
			return []string{}, nil
		}
		return []string{s}, nil
	}
}

func scalarToString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

func canonicalizeEnum(s string, allowed []string) string {
	for _, a := range allowed {
		if strings.EqualFold(s, a) {
			return a
		}
	}
	return s
}
