// internal/models/preference.go
package models

type StudyField string

const (
	FieldComputerScience StudyField = "ComputerScience"
	FieldBusiness        StudyField = "Business"
	FieldDataScience     StudyField = "DataScience"
	FieldEngineering     StudyField = "Engineering"
	FieldOther           StudyField = "Other"
)

type DegreeLevel string

const (
	LevelBachelors DegreeLevel = "Bachelors"
	LevelMasters   DegreeLevel = "Masters"
)

type DurationBucket string

const (
	DurationShort  DurationBucket = "short"
	DurationMedium DurationBucket = "medium"
	DurationLong   DurationBucket = "long"
)

type BudgetBucket string

const (
	BudgetLow    BudgetBucket = "low"
	BudgetMedium BudgetBucket = "medium"
	BudgetHigh   BudgetBucket = "high"
)

// Preference is the finalized set of quiz answers.
type Preference struct {
	StudyField       StudyField     `json:"studyField"`
	DegreeLevel      DegreeLevel    `json:"degreeLevel"`
	Regions          []string       `json:"regions"`
	Duration         DurationBucket `json:"duration"`
	Budget           BudgetBucket   `json:"budget"`
	OnlinePreference bool           `json:"onlinePreference"`

	// Collected by the quiz and stored with the lead; never scored.
	HighestEducation string `json:"highestEducation,omitempty"`
	ExpectedScore    string `json:"expectedScore,omitempty"`
}

// AcceptsCountry reports whether country is in the accepted set.
func (p Preference) AcceptsCountry(country string) bool {
	for _, r := range p.Regions {
		if r == country {
			return true
		}
	}
	return false
}
