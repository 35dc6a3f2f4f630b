// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// LeadSchema describes the payload accepted by the lead endpoint and the
// submit-lead worker. Only the first three fields are mandatory.
const LeadSchema = `{
  "type": "object",
  "required": ["phoneNumber", "studyField", "degreeLevel"],
  "properties": {
    "phoneNumber":      {"type": "string", "minLength": 1, "pattern": "^\\+?[0-9\\s\\-\\(\\)]{10,}$"},
    "studyField":       {"type": "string", "minLength": 1},
    "degreeLevel":      {"type": "string", "minLength": 1},
    "regions":          {"type": ["array", "null"], "items": {"type": "string"}},
    "duration":         {"type": "string"},
    "budget":           {"type": "string"},
    "onlinePreference": {"type": "boolean"},
    "highestEducation": {"type": "string"},
    "expectedScore":    {"type": "string"},
    "matchScore":       {"type": "number", "minimum": 0}
  }
}`

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validator checks documents against a compiled JSON schema.
type Validator struct {
	schema *gojsonschema.Schema
}

func NewValidator(schemaJSON string) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// MustLeadValidator panics if LeadSchema does not compile.
func MustLeadValidator() *Validator {
	v, err := NewValidator(LeadSchema)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate accepts any value that marshals to a JSON object.
func (v *Validator) Validate(doc interface{}) (*ValidationResult, error) {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validate document: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, toValidationError(desc))
	}
	sort.SliceStable(out.Errors, func(i, j int) bool {
		return out.Errors[i].Field < out.Errors[j].Field
	})
	return out, nil
}

func toValidationError(desc gojsonschema.ResultError) ValidationError {
	field := desc.Field()
	if desc.Type() == "required" {
		if prop, ok := desc.Details()["property"].(string); ok {
			field = prop
		}
	}
	return ValidationError{
		Field:   field,
		Message: desc.Description(),
		Code:    strings.ToUpper(desc.Type()),
	}
}

// MissingFields lists fields that failed a required or minLength check.
func (vr *ValidationResult) MissingFields() []string {
	seen := map[string]bool{}
	var fields []string
	for _, e := range vr.Errors {
		if e.Code != "REQUIRED" && e.Code != "STRING_GTE" {
			continue
		}
		if !seen[e.Field] {
			seen[e.Field] = true
			fields = append(fields, e.Field)
		}
	}
	return fields
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// NormalizePhone drops formatting characters, keeping a leading plus.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	var b strings.Builder
	for i, r := range phone {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
