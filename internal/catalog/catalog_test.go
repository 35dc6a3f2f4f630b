// internal/catalog/catalog_test.go
package catalog

import (
	"context"
	"errors"
	"testing"

	cerrors "program-matcher/internal/common/errors"
	"program-matcher/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func samplePrograms() []models.Program {
	return []models.Program{
		{CourseName: "MSc Computer Science", University: "Leeds", DegreeType: "Master of Science", Fee: "GBP 28,000", CourseLevel: "Masters", Country: "UK"},
		{CourseName: "MBA", University: "Warwick", DegreeType: "MBA", Fee: "GBP 45,000", CourseLevel: "MBA", Country: "UK"},
		{CourseName: "Bachelor of Business", University: "Monash", DegreeType: "Bachelor", Fee: "AUD 40,000", CourseLevel: "Bachelors", Country: "Australia"},
		{CourseName: "MSc Data Science", University: "TU Munich", DegreeType: "M.Sc", Fee: "EUR 3,000", CourseLevel: "Masters", Country: "Germany"},
		{CourseName: "MEng Robotics", University: "RWTH", DegreeType: "M.Eng", Fee: "EUR 1,500", CourseLevel: "Masters", Country: "Germany"},
		{CourseName: "MBA Finance", University: "Dubai Business School", DegreeType: "MBA", Fee: "AED 90,000", CourseLevel: "MBA", Country: "UAE"},
	}
}

type stubSource struct {
	programs []models.Program
	err      error
}

func (s stubSource) Load(ctx context.Context) ([]models.Program, error) { return s.programs, s.err }
func (s stubSource) Name() string                                       { return "stub" }

// ==========================
// Catalog Tests
// ==========================

func TestCatalog_Countries(t *testing.T) {
	c := New(samplePrograms())

	assert.Equal(t, 6, c.Len())
	assert.Equal(t, []string{"Australia", "Germany", "UAE", "UK"}, c.Countries())
}

func TestCatalog_AvailableCountries(t *testing.T) {
	c := New(samplePrograms())

	tests := []struct {
		name  string
		level models.DegreeLevel
		want  []string
	}{
		// Germany has two "masters" rows, UK one, UAE none (MBA only) so it sorts last.
		{"masters sorted by count", models.LevelMasters, []string{"Germany", "UK", "UAE"}},
		{"bachelors", models.LevelBachelors, []string{"Australia"}},
		{"no level", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.AvailableCountries(tt.level))
		})
	}
}

func TestCatalog_TiesSortedByName(t *testing.T) {
	c := New([]models.Program{
		{CourseLevel: "Masters", Country: "Canada"},
		{CourseLevel: "Masters", Country: "Australia"},
	})

	assert.Equal(t, []string{"Australia", "Canada"}, c.AvailableCountries(models.LevelMasters))
}

func TestCatalog_OwnsItsPrograms(t *testing.T) {
	programs := samplePrograms()
	c := New(programs)

	programs[0].Country = "Mars"

	assert.Equal(t, "UK", c.Programs()[0].Country)
}

func TestCatalog_VersionTracksContent(t *testing.T) {
	a := New(samplePrograms())
	b := New(samplePrograms())
	changed := samplePrograms()
	changed[0].Fee = "GBP 29,000"

	assert.Equal(t, a.Version(), b.Version())
	assert.NotEqual(t, a.Version(), New(changed).Version())
}

func TestLoad(t *testing.T) {
	c, err := Load(context.Background(), stubSource{programs: samplePrograms()})
	require.NoError(t, err)
	assert.Equal(t, 6, c.Len())

	cause := errors.New("no such file")
	_, err = Load(context.Background(), stubSource{err: cause})
	require.Error(t, err)
	assert.True(t, cerrors.HasCode(err, cerrors.ErrCodeDatasetLoadFailed))
	assert.ErrorIs(t, err, cause)
	assert.ErrorContains(t, err, "stub")
}
