// internal/api/handlers.go
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"program-matcher/internal/catalog"
	"program-matcher/internal/common/errors"
	"program-matcher/internal/common/logger"
	"program-matcher/internal/leads"
	"program-matcher/internal/matcher"
	"program-matcher/internal/models"

	"github.com/gin-gonic/gin"
)

type handlers struct {
	catalog       *catalog.Service
	leads         *leads.Service
	readiness     []ReadinessCheck
	events        EventPublisher
	logger        logger.Logger
	submitTimeout time.Duration
}

// LeadSubmittedMessage is published after a lead is saved.
const LeadSubmittedMessage = "lead-submitted"

// MatchView is a scored program decorated for display.
type MatchView struct {
	models.ScoredProgram
	FormattedFee string  `json:"formattedFee"`
	MatchPercent float64 `json:"matchPercent"`
}

type MatchResponse struct {
	Matches                []MatchView `json:"matches"`
	ThresholdScore         float64     `json:"thresholdScore"`
	ProgramsAboveThreshold int         `json:"programsAboveThreshold"`
	TotalPrograms          int         `json:"totalPrograms"`
	MaxPossibleScore       float64     `json:"maxPossibleScore"`
}

// NewMatchResponse decorates a matcher result using m's currency table.
func NewMatchResponse(m *matcher.Matcher, res matcher.Result) MatchResponse {
	currency := m.Policy().Currency
	views := make([]MatchView, len(res.Matches))
	for i, sp := range res.Matches {
		views[i] = MatchView{
			ScoredProgram: sp,
			FormattedFee:  currency.FormatFee(sp.Fee),
			MatchPercent:  m.MatchPercent(sp.Score),
		}
	}
	return MatchResponse{
		Matches:                views,
		ThresholdScore:         res.ThresholdScore,
		ProgramsAboveThreshold: res.ProgramsAboveThreshold,
		TotalPrograms:          res.TotalPrograms,
		MaxPossibleScore:       res.MaxPossibleScore,
	}
}

func (h *handlers) match(c *gin.Context) {
	var pref models.Preference
	if err := c.ShouldBindJSON(&pref); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid preference payload"})
		return
	}

	res := h.catalog.Match(c.Request.Context(), pref, "http")
	c.JSON(http.StatusOK, NewMatchResponse(h.catalog.Matcher(), res))
}

func (h *handlers) countries(c *gin.Context) {
	level := models.DegreeLevel(c.Query("level"))
	c.JSON(http.StatusOK, gin.H{
		"level":     level,
		"countries": h.catalog.AvailableCountries(level),
	})
}

func (h *handlers) submitLead(c *gin.Context) {
	var req leads.LeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	ctx := c.Request.Context()
	if h.submitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.submitTimeout)
		defer cancel()
	}

	res, err := h.leads.Submit(ctx, req)
	if err != nil {
		stdErr := errors.Normalize(err)
		status := errors.HTTPStatus(stdErr.Code)
		if status >= http.StatusInternalServerError {
			h.logger.Error("lead submission failed", map[string]interface{}{
				"errorCode": string(stdErr.Code),
				"details":   stdErr.Details,
			})
		}
		c.JSON(status, gin.H{"error": publicMessage(stdErr)})
		return
	}

	h.publishSubmitted(c.Request.Context(), res.Lead)
	c.JSON(http.StatusOK, gin.H{"success": true, "leadId": res.Lead.ID})
}

// publishSubmitted is best-effort; the lead is already saved.
func (h *handlers) publishSubmitted(ctx context.Context, lead models.Lead) {
	if h.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	vars := map[string]interface{}{"leadId": lead.ID, "lead": lead}
	if err := h.events.PublishMessage(ctx, LeadSubmittedMessage, lead.ID, vars); err != nil {
		h.logger.Warn("failed to publish lead event", map[string]interface{}{"leadId": lead.ID, "error": err})
	}
}

// publicMessage keeps internal details out of responses.
func publicMessage(e *errors.StandardError) string {
	switch e.Code {
	case errors.ErrCodeLeadValidationFailed, errors.ErrCodeInvalidInput, errors.ErrCodeLeadSinkNotConfigured, errors.ErrCodeDuplicateLead:
		return e.Message
	default:
		return "Failed to save lead"
	}
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handlers) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := gin.H{"catalog": "ok"}
	ready := h.catalog != nil && h.catalog.Catalog().Len() > 0
	if !ready {
		checks["catalog"] = "empty"
	}

	for _, rc := range h.readiness {
		if err := rc.Check(ctx); err != nil {
			ready = false
			checks[rc.Name] = strings.TrimSpace(err.Error())
			continue
		}
		checks[rc.Name] = "ok"
	}

	status, label := http.StatusOK, "ready"
	if !ready {
		status, label = http.StatusServiceUnavailable, "not ready"
	}
	c.JSON(status, gin.H{
		"status": label,
		"checks": checks,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
