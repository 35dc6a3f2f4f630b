// internal/models/lead.go
package models

import (
	"strings"
	"time"
)

// Lead is what gets forwarded to the lead store.
type Lead struct {
	ID                 string    `json:"id"`
	Timestamp          time.Time `json:"timestamp"`
	PhoneNumber        string    `json:"phoneNumber"`
	StudyField         string    `json:"studyField"`
	DegreeLevel        string    `json:"degreeLevel"`
	PreferredCountries []string  `json:"preferredCountries"`
	Budget             string    `json:"budget"`
	Duration           string    `json:"duration,omitempty"`
	HighestEducation   string    `json:"highestEducation,omitempty"`
	ExpectedScore      string    `json:"expectedScore,omitempty"`
	MatchedPrograms    []string  `json:"matchedPrograms"`
	MatchScore         string    `json:"matchScore"`
}

// SheetRow renders the lead as the A:H spreadsheet row.
func (l Lead) SheetRow() []interface{} {
	return []interface{}{
		l.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z"),
		l.PhoneNumber,
		l.StudyField,
		l.DegreeLevel,
		strings.Join(l.PreferredCountries, ", "),
		l.Budget,
		strings.Join(l.MatchedPrograms, ", "),
		l.MatchScore,
	}
}
