// internal/workers/matching/match-programs/models.go
package matchprograms

import "program-matcher/internal/models"

// Input carries the quiz answers as flat process variables.
type Input struct {
	StudyField       string   `json:"studyField"`
	DegreeLevel      string   `json:"degreeLevel"`
	Regions          []string `json:"regions"`
	Duration         string   `json:"duration"`
	Budget           string   `json:"budget"`
	OnlinePreference bool     `json:"onlinePreference"`
}

func (in Input) Preference() models.Preference {
	return models.Preference{
		StudyField:       models.StudyField(in.StudyField),
		DegreeLevel:      models.DegreeLevel(in.DegreeLevel),
		Regions:          in.Regions,
		Duration:         models.DurationBucket(in.Duration),
		Budget:           models.BudgetBucket(in.Budget),
		OnlinePreference: in.OnlinePreference,
	}
}

type Output struct {
	MatchedPrograms        []models.ScoredProgram `json:"matchedPrograms"`
	MatchScore             float64                `json:"matchScore"`
	ThresholdScore         float64                `json:"thresholdScore"`
	ProgramsAboveThreshold int                    `json:"programsAboveThreshold"`
	TotalPrograms          int                    `json:"totalPrograms"`
	HasMatches             bool                   `json:"hasMatches"`
}
