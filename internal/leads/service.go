// internal/leads/service.go
package leads

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"program-matcher/internal/common/errors"
	"program-matcher/internal/common/logger"
	"program-matcher/internal/common/metrics"
	"program-matcher/internal/common/sheets"
	"program-matcher/internal/common/validation"
	"program-matcher/internal/common/zoho"
	"program-matcher/internal/matcher"
	"program-matcher/internal/models"

	"github.com/google/uuid"
)

// LeadRequest is the payload posted when a quiz is finished.
type LeadRequest struct {
	PhoneNumber      string                 `json:"phoneNumber"`
	StudyField       string                 `json:"studyField"`
	DegreeLevel      string                 `json:"degreeLevel"`
	Regions          []string               `json:"regions"`
	Duration         string                 `json:"duration,omitempty"`
	Budget           string                 `json:"budget,omitempty"`
	OnlinePreference bool                   `json:"onlinePreference"`
	HighestEducation string                 `json:"highestEducation,omitempty"`
	ExpectedScore    string                 `json:"expectedScore,omitempty"`
	MatchedPrograms  []models.ScoredProgram `json:"matchedPrograms,omitempty"`
	MatchScore       *float64               `json:"matchScore,omitempty"`
}

// Preference converts the quiz answers for the matcher.
func (r LeadRequest) Preference() models.Preference {
	return models.Preference{
		StudyField:       models.StudyField(r.StudyField),
		DegreeLevel:      models.DegreeLevel(r.DegreeLevel),
		Regions:          r.Regions,
		Duration:         models.DurationBucket(r.Duration),
		Budget:           models.BudgetBucket(r.Budget),
		OnlinePreference: r.OnlinePreference,
		HighestEducation: r.HighestEducation,
		ExpectedScore:    r.ExpectedScore,
	}
}

// SubmitResult describes a stored lead.
type SubmitResult struct {
	Lead         models.Lead         `json:"lead"`
	UpdatedRange string              `json:"updatedRange,omitempty"`
	CRMLeadID    string              `json:"crmLeadId,omitempty"`
	Notification *NotificationResult `json:"notification,omitempty"`
}

type RowAppender interface {
	AppendRow(ctx context.Context, row []interface{}) (*sheets.AppendResult, error)
}

type LeadStore interface {
	Save(ctx context.Context, lead models.Lead) error
	AttachCRMID(ctx context.Context, leadID, crmID string) error
}

type CRM interface {
	CreateLead(ctx context.Context, lead *zoho.Lead) (string, error)
	SearchLeadsByPhone(ctx context.Context, phone string) ([]zoho.Lead, error)
}

// Matcher produces matches when the request does not carry them.
type Matcher interface {
	Match(ctx context.Context, pref models.Preference, source string) matcher.Result
}

type Options struct {
	MatchedTopN int
	// NotifyInline sends notifications during Submit. Disable it when the
	// notify-lead worker handles them.
	NotifyInline bool
}

type Dependencies struct {
	Sheet    RowAppender
	Store    LeadStore
	CRM      CRM
	Deduper  *Deduper
	Notifier *Notifier
	Matcher  Matcher
	Logger   logger.Logger
}

// Service turns quiz submissions into leads. The spreadsheet is the system
// of record; every other sink is best-effort.
type Service struct {
	deps      Dependencies
	opts      Options
	validator *validation.Validator
	logger    logger.Logger
	now       func() time.Time
}

func NewService(deps Dependencies, opts Options) *Service {
	if opts.MatchedTopN <= 0 {
		opts.MatchedTopN = 3
	}
	return &Service{
		deps:      deps,
		opts:      opts,
		validator: validation.MustLeadValidator(),
		logger:    deps.Logger.WithFields(map[string]interface{}{"component": "leads"}),
		now:       time.Now,
	}
}

func (s *Service) Notifier() *Notifier {
	return s.deps.Notifier
}

// Validate checks req against the lead schema.
func (s *Service) Validate(req LeadRequest) error {
	res, err := s.validator.Validate(req)
	if err != nil {
		return errors.NewInvalidInputError(err.Error())
	}
	if !res.Valid {
		details := strings.Join(res.GetErrorMessages(), "; ")
		if len(res.MissingFields()) > 0 {
			return errors.NewLeadValidationError(details)
		}
		return errors.NewInvalidLeadError(details)
	}
	return nil
}

func (s *Service) Submit(ctx context.Context, req LeadRequest) (*SubmitResult, error) {
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)

	if err := s.Validate(req); err != nil {
		metrics.LeadsSubmitted.WithLabelValues("invalid").Inc()
		return nil, err
	}
	if s.deps.Sheet == nil {
		metrics.LeadsSubmitted.WithLabelValues("failed").Inc()
		return nil, errors.NewLeadSinkNotConfiguredError("sheets credentials")
	}

	phone := validation.NormalizePhone(req.PhoneNumber)
	if s.deps.Deduper != nil {
		acquired, err := s.deps.Deduper.Acquire(ctx, phone)
		if err != nil {
			s.logger.Warn("lead dedupe unavailable, accepting lead", map[string]interface{}{"error": err})
		} else if !acquired {
			metrics.LeadsSubmitted.WithLabelValues("duplicate").Inc()
			return nil, errors.NewDuplicateLeadError(phone)
		}
	}

	lead := s.BuildLead(ctx, req)

	appended, err := s.deps.Sheet.AppendRow(ctx, lead.SheetRow())
	if err != nil {
		metrics.LeadsSubmitted.WithLabelValues("failed").Inc()
		metrics.LeadSinkFailures.WithLabelValues("sheets").Inc()
		if s.deps.Deduper != nil {
			if relErr := s.deps.Deduper.Release(context.WithoutCancel(ctx), phone); relErr != nil {
				s.logger.Warn("failed to release dedupe key", map[string]interface{}{"error": relErr})
			}
		}
		return nil, errors.NewLeadSinkError(err).WithMetadata("leadId", lead.ID)
	}

	result := &SubmitResult{Lead: lead}
	if appended != nil {
		result.UpdatedRange = appended.UpdatedRange
	}

	s.storeSecondary(ctx, lead, result)

	if s.opts.NotifyInline && s.deps.Notifier.Enabled() {
		n, err := s.deps.Notifier.Notify(ctx, lead)
		if err != nil {
			s.logger.Warn("lead notifications failed", map[string]interface{}{"leadId": lead.ID, "error": err})
		}
		result.Notification = &n
	}

	metrics.LeadsSubmitted.WithLabelValues("submitted").Inc()
	s.logger.Info("lead submitted", map[string]interface{}{
		"leadId":       lead.ID,
		"studyField":   lead.StudyField,
		"degreeLevel":  lead.DegreeLevel,
		"matchScore":   lead.MatchScore,
		"updatedRange": result.UpdatedRange,
		"crmLeadId":    result.CRMLeadID,
	})
	return result, nil
}

// BuildLead assembles the stored record. When the request carries no
// matches the matcher is run so the lead still lists programs.
func (s *Service) BuildLead(ctx context.Context, req LeadRequest) models.Lead {
	matches := req.MatchedPrograms
	headline := ""
	if req.MatchScore != nil {
		headline = strconv.FormatFloat(*req.MatchScore, 'f', -1, 64)
	}

	if len(matches) == 0 && s.deps.Matcher != nil {
		res := s.deps.Matcher.Match(ctx, req.Preference(), "lead")
		matches = res.Matches
		if headline == "" && len(matches) > 0 && res.MaxPossibleScore > 0 {
			headline = strconv.FormatFloat(math.Round(matches[0].Score/res.MaxPossibleScore*100), 'f', -1, 64)
		}
	}

	universities := make([]string, 0, s.opts.MatchedTopN)
	for i, m := range matches {
		if i == s.opts.MatchedTopN {
			break
		}
		universities = append(universities, m.University)
	}

	return models.Lead{
		ID:                 uuid.NewString(),
		Timestamp:          s.now().UTC(),
		PhoneNumber:        req.PhoneNumber,
		StudyField:         req.StudyField,
		DegreeLevel:        req.DegreeLevel,
		PreferredCountries: append([]string{}, req.Regions...),
		Budget:             req.Budget,
		Duration:           req.Duration,
		HighestEducation:   req.HighestEducation,
		ExpectedScore:      req.ExpectedScore,
		MatchedPrograms:    universities,
		MatchScore:         headline,
	}
}

func (s *Service) storeSecondary(ctx context.Context, lead models.Lead, result *SubmitResult) {
	stored := false
	if s.deps.Store != nil {
		if err := s.deps.Store.Save(ctx, lead); err != nil {
			metrics.LeadSinkFailures.WithLabelValues("postgres").Inc()
			s.logger.Warn("lead store failed", map[string]interface{}{"leadId": lead.ID, "error": err})
		} else {
			stored = true
		}
	}

	if s.deps.CRM == nil {
		return
	}
	crmID, err := s.syncCRM(ctx, lead)
	if err != nil {
		metrics.LeadSinkFailures.WithLabelValues("zoho").Inc()
		s.logger.Warn("crm sync failed", map[string]interface{}{
			"leadId": lead.ID,
			"error":  errors.NewCRMSyncError(err),
		})
		return
	}
	result.CRMLeadID = crmID

	if stored {
		if err := s.deps.Store.AttachCRMID(ctx, lead.ID, crmID); err != nil {
			s.logger.Warn("failed to record crm id", map[string]interface{}{"leadId": lead.ID, "error": err})
		}
	}
}

// syncCRM reuses an existing CRM lead with the same phone number. A failed
// lookup falls through to create.
func (s *Service) syncCRM(ctx context.Context, lead models.Lead) (string, error) {
	existing, err := s.deps.CRM.SearchLeadsByPhone(ctx, lead.PhoneNumber)
	if err != nil {
		s.logger.Debug("crm lookup failed", map[string]interface{}{"leadId": lead.ID, "error": err})
	}
	for _, l := range existing {
		if l.ID != "" {
			return l.ID, nil
		}
	}
	return s.deps.CRM.CreateLead(ctx, ToCRMLead(lead))
}

// ToCRMLead maps a lead onto the CRM Leads module. The phone number stands
// in for the mandatory last name since the quiz never asks for one.
func ToCRMLead(lead models.Lead) *zoho.Lead {
	return &zoho.Lead{
		LastName:    "Quiz lead " + lead.PhoneNumber,
		Phone:       lead.PhoneNumber,
		LeadSource:  "Study Abroad Quiz",
		StudyField:  lead.StudyField,
		DegreeLevel: lead.DegreeLevel,
		Countries:   strings.Join(lead.PreferredCountries, ", "),
		Budget:      lead.Budget,
		MatchScore:  lead.MatchScore,
		Description: fmt.Sprintf("Matched programs: %s", strings.Join(lead.MatchedPrograms, ", ")),
	}
}
