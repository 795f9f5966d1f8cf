// Package schema holds the canonical target-record contract for a healthcare
// intake form: the ordered field specs consumed by both the extractor (to
// build its instruction) and the validator (to coerce and check the model's
// output).
package schema

// FieldType is the semantic type of a form field.
type FieldType string

const (
	TypeString FieldType = "string"
	TypeDate   FieldType = "date" // YYYY-MM-DD after normalization
	TypeEnum   FieldType = "enum"
	TypeList   FieldType = "list" // list of strings, possibly empty
)

// FieldSpec describes one field of the target record.
type FieldSpec struct {
	Name        string
	Type        FieldType
	Required    bool
	Description string
	Enum        []string // canonical values for TypeEnum; advisory, not exclusive
}

// CandidateRecord is the untrusted mapping produced by the model.
type CandidateRecord map[string]any

// SanitizedRecord is the validated, schema-conformant record. It is only
// constructed by the validator's success path: every declared field present,
// required fields non-empty, list fields always []string, absent optionals nil.
type SanitizedRecord map[string]any

// Definition is the fixed, ordered collection of FieldSpecs.
type Definition struct {
	fields []FieldSpec
	index  map[string]int
}

// New builds a Definition from an ordered spec list.
func New(fields []FieldSpec) *Definition {
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		idx[f.Name] = i
	}
	return &Definition{fields: fields, index: idx}
}

// Default returns the healthcare intake form contract. Loaded once at process
// start and never mutated.
func Default() *Definition {
	return New([]FieldSpec{
		{Name: "patient_name", Type: TypeString, Required: true, Description: "Full name of the patient"},
		{Name: "date_of_birth", Type: TypeDate, Required: true, Description: "Patient's date of birth (YYYY-MM-DD)"},
		{Name: "gender", Type: TypeEnum, Required: true, Description: "Patient's gender",
			Enum: []string{"Male", "Female", "Other", "Prefer not to say"}},
		{Name: "address", Type: TypeString, Required: true, Description: "Patient's full address"},
		{Name: "phone_number", Type: TypeString, Required: true, Description: "Patient's phone number"},
		{Name: "email", Type: TypeString, Required: false, Description: "Patient's email address"},
		{Name: "insurance_provider", Type: TypeString, Required: true, Description: "Name of the insurance provider"},
		{Name: "insurance_id", Type: TypeString, Required: true, Description: "Insurance ID or policy number"},
		{Name: "medical_history", Type: TypeList, Required: false, Description: "List of medical history items"},
		{Name: "current_medications", Type: TypeList, Required: false, Description: "List of current medications"},
		{Name: "allergies", Type: TypeList, Required: false, Description: "List of allergies"},
		{Name: "primary_complaint", Type: TypeString, Required: true, Description: "Patient's primary complaint or reason for visit"},
		{Name: "appointment_date", Type: TypeDate, Required: false, Description: "Date of appointment (YYYY-MM-DD)"},
		{Name: "doctor_name", Type: TypeString, Required: false, Description: "Name of the doctor"},
	})
}

// Fields returns the specs in schema order.
func (d *Definition) Fields() []FieldSpec { return d.fields }

// Lookup returns the spec for a field name.
func (d *Definition) Lookup(name string) (FieldSpec, bool) {
	i, ok := d.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return d.fields[i], true
}

// FieldNames returns the declared names in schema order.
func (d *Definition) FieldNames() []string {
	names := make([]string, len(d.fields))
	for i, f := range d.fields {
		names[i] = f.Name
	}
	return names
}

// JSONSchema renders the definition as a JSON-Schema (draft 2020-12 subset)
// generic map. Passed to the model as a structured-output constraint and used
// locally to assert sanitized records.
func (d *Definition) JSONSchema() map[string]any {
	props := make(map[string]any, len(d.fields))
	var required []string
	for _, f := range d.fields {
		props[f.Name] = f.jsonSchemaProp()
		if f.Required {
			required = append(required, f.Name)
		}
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func (f FieldSpec) jsonSchemaProp() map[string]any {
	switch f.Type {
	case TypeDate:
		if f.Required {
			return map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`, "description": f.Description}
		}
		return map[string]any{"type": []string{"string", "null"}, "description": f.Description}
	case TypeList:
		return map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": f.Description,
		}
	case TypeEnum:
		// advisory enum: keep the model on the canonical set without making
		// off-list values a hard schema failure downstream
		return map[string]any{"type": "string", "minLength": 1, "description": f.Description}
	default:
		if f.Required {
			return map[string]any{"type": "string", "minLength": 1, "description": f.Description}
		}
		return map[string]any{"type": []string{"string", "null"}, "description": f.Description}
	}
}
