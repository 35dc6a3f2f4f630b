// internal/matcher/scorer.go
package matcher

import (
	"strings"

	"program-matcher/internal/models"
)

type fieldKeywords struct {
	exactName []string
	exactType []string
	looseName []string
}

var studyFieldKeywords = map[models.StudyField]fieldKeywords{
	models.FieldBusiness: {
		exactName: []string{"business administration", "business management"},
		exactType: []string{"mba"},
		looseName: []string{"business", "management", "finance"},
	},
	models.FieldDataScience: {
		exactName: []string{"data science", "data analytics", "business analytics", "data engineering"},
		looseName: []string{"data", "analytics", "statistics"},
	},
	models.FieldComputerScience: {
		exactName: []string{"computer science", "software engineering", "artificial intelligence", "machine learning"},
		looseName: []string{"computer", "software", "it", "information technology"},
	},
	models.FieldEngineering: {
		looseName: []string{"engineering"},
	},
}

var degreeLevelKeywords = map[models.DegreeLevel][]string{
	models.LevelBachelors: {"bachelor", "b.sc", "b.eng"},
	models.LevelMasters:   {"master", "m.sc", "m.eng", "msc"},
}

// Duration text is matched case-sensitively, as written in the dataset.
var durationKeywords = map[models.DurationBucket][]string{
	models.DurationShort:  {"9 Months", "1 Year"},
	models.DurationMedium: {"1 Year", "2 Year"},
	models.DurationLong:   {"3 Year", "4 Year"},
}

// Scorer computes the additive match score of a single program.
type Scorer struct {
	policy Policy
}

func NewScorer(policy Policy) *Scorer {
	return &Scorer{policy: policy}
}

// Score never mutates p; the returned record embeds a copy of it.
func (s *Scorer) Score(pref models.Preference, p models.Program) models.ScoredProgram {
	fee := s.policy.Currency.Normalize(p.Fee)

	b := models.ScoreBreakdown{
		Field:    s.fieldScore(pref.StudyField, p),
		Level:    s.levelScore(pref.DegreeLevel, p.DegreeType),
		Region:   s.regionScore(pref, p.Country),
		Duration: s.durationScore(pref.Duration, p.Duration),
		Budget:   s.budgetScore(pref.Budget, fee),
		Online:   s.onlineScore(pref.OnlinePreference, p),
	}

	return models.ScoredProgram{
		Program:       p,
		Score:         b.Total(),
		NormalizedFee: fee,
		Breakdown:     b,
	}
}

func (s *Scorer) fieldScore(field models.StudyField, p models.Program) float64 {
	if p.CourseName == "" {
		return 0
	}
	kw, ok := studyFieldKeywords[field]
	if !ok {
		return 0
	}

	name := strings.ToLower(p.CourseName)
	degreeType := strings.ToLower(p.DegreeType)
	w := s.policy.Weights.Field

	if containsAny(name, kw.exactName) || containsAny(degreeType, kw.exactType) {
		return w * s.policy.ExactFieldMultiplier
	}
	if containsAny(name, kw.looseName) {
		return w
	}
	return 0
}

func (s *Scorer) levelScore(level models.DegreeLevel, degreeType string) float64 {
	if containsAny(strings.ToLower(degreeType), degreeLevelKeywords[level]) {
		return s.policy.Weights.Level
	}
	return 0
}

func (s *Scorer) regionScore(pref models.Preference, country string) float64 {
	w := s.policy.Weights.Region
	if !pref.AcceptsCountry(country) {
		return -w * s.policy.RegionPenalty
	}
	score := w
	if len(pref.Regions) == 1 && pref.Regions[0] == country {
		score += w * s.policy.SingleCountryBonus
	}
	return score
}

func (s *Scorer) durationScore(bucket models.DurationBucket, duration string) float64 {
	if containsAny(duration, durationKeywords[bucket]) {
		return s.policy.Weights.Duration
	}
	return 0
}

// budgetScore compares a normalized fee against the bucket's band. Inside
// the band scores full weight, inside the slack band scores half, anything
// further away scores minus half. "high" has no penalty.
func (s *Scorer) budgetScore(bucket models.BudgetBucket, fee float64) float64 {
	w := s.policy.Weights.Budget
	half := w * s.policy.PartialBudgetFactor
	b := s.policy.Budget

	switch bucket {
	case models.BudgetLow:
		switch {
		case fee < b.Lower:
			return w
		case fee < b.Lower+b.Slack:
			return half
		default:
			return -half
		}
	case models.BudgetMedium:
		switch {
		case fee >= b.Lower && fee <= b.Upper:
			return w
		case fee < b.Lower, fee <= b.Upper+b.Slack:
			return half
		default:
			return -half
		}
	case models.BudgetHigh:
		switch {
		case fee > b.Upper:
			return w
		case fee > b.Upper-b.Slack:
			return half
		}
	}
	return 0
}

func (s *Scorer) onlineScore(wantsOnline bool, p models.Program) float64 {
	if wantsOnline == p.HasOnlineCompanion() {
		return s.policy.Weights.Online
	}
	return 0
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
