// internal/models/program.go
package models

// Program is one row of the course dataset. Field tags mirror the column
// headers of the source workbook so rows can be decoded by header name.
type Program struct {
	CourseName     string `json:"Abroad Course Name,omitempty"`
	University     string `json:"Abroad University,omitempty"`
	DegreeType     string `json:"Abroad Course Type,omitempty"`
	Duration       string `json:"Abroad Course Duration,omitempty"`
	Fee            string `json:"Abroad Course Fee,omitempty"`
	OnlineCourse   string `json:"Online Course Name,omitempty"`
	OnlineDuration string `json:"Online Course Duration,omitempty"`
	OnlineFee      string `json:"Online Course Fee,omitempty"`
	CourseLevel    string `json:"Course Level,omitempty"`
	Country        string `json:"country"`
}

// HasOnlineCompanion reports whether the program ships with an online course.
func (p Program) HasOnlineCompanion() bool {
	return p.OnlineCourse != ""
}

// ScoredProgram is a Program plus the values computed by the matcher.
type ScoredProgram struct {
	Program
	Score         float64        `json:"score"`
	NormalizedFee float64        `json:"parsedFee"`
	Breakdown     ScoreBreakdown `json:"breakdown"`
}

// ScoreBreakdown keeps each weighted component so callers can explain a score.
type ScoreBreakdown struct {
	Field    float64 `json:"field"`
	Level    float64 `json:"level"`
	Region   float64 `json:"region"`
	Duration float64 `json:"duration"`
	Budget   float64 `json:"budget"`
	Online   float64 `json:"online"`
}

// Total is the sum of all components.
func (b ScoreBreakdown) Total() float64 {
	return b.Field + b.Level + b.Region + b.Duration + b.Budget + b.Online
}
