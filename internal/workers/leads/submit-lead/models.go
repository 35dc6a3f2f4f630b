// internal/workers/leads/submit-lead/models.go
package submitlead

import (
	"program-matcher/internal/leads"
	"program-matcher/internal/models"
)

// Input is the lead payload, optionally carrying the output of
// match-programs.
type Input struct {
	leads.LeadRequest
}

type Output struct {
	LeadSubmitted bool        `json:"leadSubmitted"`
	LeadID        string      `json:"leadId"`
	Lead          models.Lead `json:"lead"`
	UpdatedRange  string      `json:"updatedRange,omitempty"`
	CRMLeadID     string      `json:"crmLeadId,omitempty"`
}
