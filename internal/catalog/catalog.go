// internal/catalog/catalog.go
package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"program-matcher/internal/common/errors"
	"program-matcher/internal/models"
)

// Source yields the full program dataset.
type Source interface {
	Load(ctx context.Context) ([]models.Program, error)
	Name() string
}

var levelKeywords = map[models.DegreeLevel][]string{
	models.LevelBachelors: {"bachelor", "b.sc", "b.eng"},
	models.LevelMasters:   {"master", "m.sc", "m.eng", "msc", "mba"},
}

// Catalog is the loaded dataset. It is never modified after New, so it can
// be shared between goroutines without locking.
type Catalog struct {
	programs  []models.Program
	countries []string
	version   string
}

func New(programs []models.Program) *Catalog {
	owned := make([]models.Program, len(programs))
	copy(owned, programs)

	seen := make(map[string]bool)
	var countries []string
	for _, p := range owned {
		if p.Country != "" && !seen[p.Country] {
			seen[p.Country] = true
			countries = append(countries, p.Country)
		}
	}
	sort.Strings(countries)

	return &Catalog{
		programs:  owned,
		countries: countries,
		version:   fingerprint(owned),
	}
}

// Load reads every program from src into a new Catalog.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	programs, err := src.Load(ctx)
	if err != nil {
		return nil, errors.NewDatasetLoadError(src.Name(), err)
	}
	return New(programs), nil
}

// Programs returns the dataset. Callers must not modify the slice.
func (c *Catalog) Programs() []models.Program {
	return c.programs
}

func (c *Catalog) Len() int {
	return len(c.programs)
}

// Countries lists every country in the dataset alphabetically.
func (c *Catalog) Countries() []string {
	out := make([]string, len(c.countries))
	copy(out, c.countries)
	return out
}

// Version changes whenever the dataset content changes.
func (c *Catalog) Version() string {
	return c.version
}

// AvailableCountries returns the countries offering at least one program at
// level, most programs first. Counting uses the lowercase level name while
// eligibility uses the level keyword table, so a country with only "MBA"
// rows is offered for Masters but counted as zero.
func (c *Catalog) AvailableCountries(level models.DegreeLevel) []string {
	if level == "" {
		return []string{}
	}

	keywords, ok := levelKeywords[level]
	if !ok {
		keywords = levelKeywords[models.LevelMasters]
	}
	needle := strings.ToLower(string(level))

	eligible := make(map[string]bool)
	counts := make(map[string]int)
	for _, p := range c.programs {
		courseLevel := strings.ToLower(p.CourseLevel)
		if containsAny(courseLevel, keywords) {
			eligible[p.Country] = true
		}
		if strings.Contains(courseLevel, needle) {
			counts[p.Country]++
		}
	}

	out := make([]string, 0, len(eligible))
	for _, country := range c.countries {
		if eligible[country] {
			out = append(out, country)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return counts[out[i]] > counts[out[j]]
	})
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func fingerprint(programs []models.Program) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, p := range programs {
		_ = enc.Encode(p)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
