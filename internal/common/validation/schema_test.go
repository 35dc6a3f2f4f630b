// internal/common/validation/schema_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorFields(res *ValidationResult) []string {
	fields := make([]string, 0, len(res.Errors))
	for _, e := range res.Errors {
		fields = append(fields, e.Field)
	}
	return fields
}

func TestLeadSchema_Validate(t *testing.T) {
	v := MustLeadValidator()

	tests := []struct {
		name      string
		doc       map[string]interface{}
		wantValid bool
		wantField string
	}{
		{
			name: "complete lead",
			doc: map[string]interface{}{
				"phoneNumber":      "+91 98765 43210",
				"studyField":       "Business",
				"degreeLevel":      "Masters",
				"regions":          []interface{}{"UK"},
				"onlinePreference": true,
			},
			wantValid: true,
		},
		{
			name:      "missing phone",
			doc:       map[string]interface{}{"studyField": "Business", "degreeLevel": "Masters"},
			wantField: "phoneNumber",
		},
		{
			name:      "empty study field",
			doc:       map[string]interface{}{"phoneNumber": "9876543210", "studyField": "", "degreeLevel": "Masters"},
			wantField: "studyField",
		},
		{
			name:      "short phone",
			doc:       map[string]interface{}{"phoneNumber": "12345", "studyField": "Business", "degreeLevel": "Masters"},
			wantField: "phoneNumber",
		},
		{
			name: "regions wrong type",
			doc: map[string]interface{}{
				"phoneNumber": "9876543210", "studyField": "Business", "degreeLevel": "Masters",
				"regions": "UK",
			},
			wantField: "regions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.Validate(tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, res.Valid)
			if tt.wantField != "" {
				assert.Contains(t, errorFields(res), tt.wantField, res.GetErrorMessages())
			}
		})
	}
}

func TestValidationResult_MissingFields(t *testing.T) {
	v := MustLeadValidator()

	res, err := v.Validate(map[string]interface{}{"studyField": ""})
	require.NoError(t, err)

	assert.False(t, res.Valid)
	assert.ElementsMatch(t, []string{"phoneNumber", "degreeLevel", "studyField"}, res.MissingFields())
}

func TestNewValidator_InvalidSchema(t *testing.T) {
	_, err := NewValidator(`{"type": 12}`)
	assert.Error(t, err)
}

func TestValidationResult_MalformedIsNotMissing(t *testing.T) {
	v := MustLeadValidator()

	res, err := v.Validate(map[string]interface{}{
		"phoneNumber": "98765", "studyField": "Business", "degreeLevel": "Masters", "matchScore": -1,
	})
	require.NoError(t, err)

	assert.False(t, res.Valid)
	assert.Empty(t, res.MissingFields())
	assert.ElementsMatch(t, []string{"matchScore", "phoneNumber"}, errorFields(res))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+918912345678", NormalizePhone(" +91 (891) 234-5678 "))
	assert.Equal(t, "9876543210", NormalizePhone("98765-43210"))
}
