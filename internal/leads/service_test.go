// internal/leads/service_test.go
package leads

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"program-matcher/internal/common/aws"
	"program-matcher/internal/common/config"
	"program-matcher/internal/common/database"
	"program-matcher/internal/common/errors"
	"program-matcher/internal/common/logger"
	"program-matcher/internal/common/sheets"
	"program-matcher/internal/common/zoho"
	"program-matcher/internal/matcher"
	"program-matcher/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeSheet struct {
	mu   sync.Mutex
	rows [][]interface{}
	err  error
}

func (f *fakeSheet) AppendRow(ctx context.Context, row []interface{}) (*sheets.AppendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.rows = append(f.rows, row)
	return &sheets.AppendResult{UpdatedRange: "Sheet1!A2:H2", UpdatedRows: 1}, nil
}

type fakeStore struct {
	saved   []models.Lead
	crmIDs  map[string]string
	saveErr error
}

func (f *fakeStore) Save(ctx context.Context, lead models.Lead) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, lead)
	return nil
}

func (f *fakeStore) AttachCRMID(ctx context.Context, leadID, crmID string) error {
	if f.crmIDs == nil {
		f.crmIDs = map[string]string{}
	}
	f.crmIDs[leadID] = crmID
	return nil
}

type fakeCRM struct {
	leads    []*zoho.Lead
	existing []zoho.Lead
	err      error
}

func (f *fakeCRM) SearchLeadsByPhone(ctx context.Context, phone string) ([]zoho.Lead, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.existing, nil
}

func (f *fakeCRM) CreateLead(ctx context.Context, lead *zoho.Lead) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.leads = append(f.leads, lead)
	return "zcrm-1", nil
}

type fakeMatcher struct {
	result matcher.Result
	calls  int
}

func (f *fakeMatcher) Match(ctx context.Context, pref models.Preference, source string) matcher.Result {
	f.calls++
	return f.result
}

type fakeEmail struct {
	sent []aws.Email
	err  error
}

func (f *fakeEmail) Send(ctx context.Context, msg aws.Email) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "email-1", nil
}

type fakeSMS struct {
	phones   []string
	messages []string
	err      error
}

func (f *fakeSMS) SendSMS(ctx context.Context, phone, message string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.phones = append(f.phones, phone)
	f.messages = append(f.messages, message)
	return "sms-1", nil
}

func setupDeduper(t *testing.T) (*Deduper, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewDeduper(client, 5*time.Minute), mr
}

func validRequest() LeadRequest {
	score := 87.5
	return LeadRequest{
		PhoneNumber: "+91 98765 43210",
		StudyField:  "ComputerScience",
		DegreeLevel: "Masters",
		Regions:     []string{"UK", "Germany"},
		Budget:      "medium",
		Duration:    "short",
		MatchedPrograms: []models.ScoredProgram{
			{Program: models.Program{University: "Leeds"}},
			{Program: models.Program{University: "TU Munich"}},
			{Program: models.Program{University: "RWTH"}},
			{Program: models.Program{University: "Warwick"}},
		},
		MatchScore: &score,
	}
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
}

func newTestService(t *testing.T, deps Dependencies, opts Options) *Service {
	t.Helper()
	if deps.Logger == nil {
		deps.Logger = logger.NewTestLogger(t)
	}
	svc := NewService(deps, opts)
	svc.now = fixedNow
	return svc
}

// ==========================
// Submit Tests
// ==========================

func TestSubmit_AppendsSheetRow(t *testing.T) {
	sheet := &fakeSheet{}
	svc := newTestService(t, Dependencies{Sheet: sheet}, Options{})

	res, err := svc.Submit(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, "Sheet1!A2:H2", res.UpdatedRange)
	assert.NotEmpty(t, res.Lead.ID)
	require.Len(t, sheet.rows, 1)
	assert.Equal(t, []interface{}{
		"2025-03-01T10:30:00.000Z",
		"+91 98765 43210",
		"ComputerScience",
		"Masters",
		"UK, Germany",
		"medium",
		"Leeds, TU Munich, RWTH",
		"87.5",
	}, sheet.rows[0])
}

func TestSubmit_ValidationErrors(t *testing.T) {
	negative := -3.0
	tests := []struct {
		name        string
		mutate      func(*LeadRequest)
		wantMessage string
	}{
		{"missing phone", func(r *LeadRequest) { r.PhoneNumber = "" }, "Missing required fields"},
		{"blank phone", func(r *LeadRequest) { r.PhoneNumber = "   " }, "Missing required fields"},
		{"missing study field", func(r *LeadRequest) { r.StudyField = "" }, "Missing required fields"},
		{"missing degree level", func(r *LeadRequest) { r.DegreeLevel = "" }, "Missing required fields"},
		{"malformed phone", func(r *LeadRequest) { r.PhoneNumber = "call me" }, "Invalid lead details"},
		{"short phone", func(r *LeadRequest) { r.PhoneNumber = "98765" }, "Invalid lead details"},
		{"negative match score", func(r *LeadRequest) { r.MatchScore = &negative }, "Invalid lead details"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet := &fakeSheet{}
			svc := newTestService(t, Dependencies{Sheet: sheet}, Options{})
			req := validRequest()
			tt.mutate(&req)

			_, err := svc.Submit(context.Background(), req)

			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeLeadValidationFailed))
			stdErr, _ := errors.AsStandardError(err)
			assert.Equal(t, tt.wantMessage, stdErr.Message)
			assert.Empty(t, sheet.rows)
		})
	}
}

func TestSubmit_SheetNotConfigured(t *testing.T) {
	svc := newTestService(t, Dependencies{}, Options{})

	_, err := svc.Submit(context.Background(), validRequest())

	require.Error(t, err)
	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeLeadSinkNotConfigured, stdErr.Code)
	assert.Equal(t, "Server configuration error", stdErr.Message)
}

func TestSubmit_SheetFailureReleasesDedupeKey(t *testing.T) {
	deduper, mr := setupDeduper(t)
	sheet := &fakeSheet{err: stderrors.New("403 PERMISSION_DENIED")}
	store := &fakeStore{}
	svc := newTestService(t, Dependencies{Sheet: sheet, Store: store, Deduper: deduper}, Options{})

	_, err := svc.Submit(context.Background(), validRequest())

	require.Error(t, err)
	stdErr, _ := errors.AsStandardError(err)
	assert.Equal(t, errors.ErrCodeLeadSinkFailed, stdErr.Code)
	assert.Equal(t, "Failed to save lead", stdErr.Message)
	assert.False(t, mr.Exists("lead:dedupe:+919876543210"))
	assert.Empty(t, store.saved, "secondary sinks must not run when the sheet append fails")
}

func TestSubmit_DuplicateWithinWindow(t *testing.T) {
	deduper, mr := setupDeduper(t)
	sheet := &fakeSheet{}
	svc := newTestService(t, Dependencies{Sheet: sheet, Deduper: deduper}, Options{})

	_, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	again := validRequest()
	again.PhoneNumber = "+91-98765-43210"
	_, err = svc.Submit(context.Background(), again)

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeDuplicateLead))
	assert.Len(t, sheet.rows, 1)

	mr.FastForward(6 * time.Minute)
	_, err = svc.Submit(context.Background(), again)
	assert.NoError(t, err)
}

func TestSubmit_DedupeOutageAcceptsLead(t *testing.T) {
	deduper, mr := setupDeduper(t)
	mr.Close()
	sheet := &fakeSheet{}
	svc := newTestService(t, Dependencies{Sheet: sheet, Deduper: deduper}, Options{})

	_, err := svc.Submit(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Len(t, sheet.rows, 1)
}

func TestSubmit_SecondarySinks(t *testing.T) {
	store := &fakeStore{}
	crm := &fakeCRM{}
	svc := newTestService(t, Dependencies{Sheet: &fakeSheet{}, Store: store, CRM: crm}, Options{})

	res, err := svc.Submit(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, "zcrm-1", res.CRMLeadID)
	require.Len(t, store.saved, 1)
	assert.Equal(t, "zcrm-1", store.crmIDs[res.Lead.ID])
	require.Len(t, crm.leads, 1)
	assert.Equal(t, "+91 98765 43210", crm.leads[0].Phone)
	assert.Equal(t, "UK, Germany", crm.leads[0].Countries)
}

func TestSubmit_ReusesExistingCRMLead(t *testing.T) {
	store := &fakeStore{}
	crm := &fakeCRM{existing: []zoho.Lead{{ID: "zcrm-existing", Phone: "+91 98765 43210"}}}
	svc := newTestService(t, Dependencies{Sheet: &fakeSheet{}, Store: store, CRM: crm}, Options{})

	res, err := svc.Submit(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, "zcrm-existing", res.CRMLeadID)
	assert.Empty(t, crm.leads)
	assert.Equal(t, "zcrm-existing", store.crmIDs[res.Lead.ID])
}

func TestSubmit_SecondarySinkFailuresAreSwallowed(t *testing.T) {
	store := &fakeStore{saveErr: stderrors.New("connection refused")}
	crm := &fakeCRM{err: stderrors.New("INVALID_TOKEN")}
	svc := newTestService(t, Dependencies{Sheet: &fakeSheet{}, Store: store, CRM: crm}, Options{})

	res, err := svc.Submit(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Empty(t, res.CRMLeadID)
}

func TestSubmit_NotifyInline(t *testing.T) {
	email := &fakeEmail{}
	sms := &fakeSMS{}
	notifier, err := NewNotifier(email, []string{"team@example.com"}, sms, "", logger.NewTestLogger(t))
	require.NoError(t, err)

	svc := newTestService(t, Dependencies{Sheet: &fakeSheet{}, Notifier: notifier}, Options{NotifyInline: true})

	res, err := svc.Submit(context.Background(), validRequest())

	require.NoError(t, err)
	require.NotNil(t, res.Notification)
	assert.Equal(t, NotificationSent, res.Notification.Status)
	assert.Len(t, email.sent, 1)
	assert.Equal(t, []string{"+91 98765 43210"}, sms.phones)
}

func TestSubmit_NotifyDeferredToWorker(t *testing.T) {
	email := &fakeEmail{}
	notifier, err := NewNotifier(email, []string{"team@example.com"}, nil, "", logger.NewTestLogger(t))
	require.NoError(t, err)

	svc := newTestService(t, Dependencies{Sheet: &fakeSheet{}, Notifier: notifier}, Options{NotifyInline: false})

	res, err := svc.Submit(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Nil(t, res.Notification)
	assert.Empty(t, email.sent)
}

// ==========================
// BuildLead Tests
// ==========================

func TestBuildLead_RunsMatcherWhenNoMatchesPosted(t *testing.T) {
	m := &fakeMatcher{result: matcher.Result{
		Matches: []models.ScoredProgram{
			{Program: models.Program{University: "Leeds"}, Score: 20},
			{Program: models.Program{University: "RWTH"}, Score: 18},
		},
		MaxPossibleScore: 23,
	}}
	svc := newTestService(t, Dependencies{Matcher: m}, Options{})

	req := validRequest()
	req.MatchedPrograms = nil
	req.MatchScore = nil

	lead := svc.BuildLead(context.Background(), req)

	assert.Equal(t, 1, m.calls)
	assert.Equal(t, []string{"Leeds", "RWTH"}, lead.MatchedPrograms)
	assert.Equal(t, "87", lead.MatchScore)
}

func TestBuildLead_PostedMatchesWin(t *testing.T) {
	m := &fakeMatcher{}
	svc := newTestService(t, Dependencies{Matcher: m}, Options{MatchedTopN: 2})

	lead := svc.BuildLead(context.Background(), validRequest())

	assert.Zero(t, m.calls)
	assert.Equal(t, []string{"Leeds", "TU Munich"}, lead.MatchedPrograms)
	assert.Equal(t, fixedNow(), lead.Timestamp)
}

func TestBuildLead_NoMatcherNoMatches(t *testing.T) {
	svc := newTestService(t, Dependencies{}, Options{})
	req := validRequest()
	req.MatchedPrograms = nil
	req.MatchScore = nil
	req.Regions = nil

	lead := svc.BuildLead(context.Background(), req)

	assert.Empty(t, lead.MatchedPrograms)
	assert.Empty(t, lead.MatchScore)
	assert.Equal(t, []string{}, lead.PreferredCountries)
}

func TestLeadRequest_Preference(t *testing.T) {
	pref := validRequest().Preference()

	assert.Equal(t, models.FieldComputerScience, pref.StudyField)
	assert.Equal(t, models.LevelMasters, pref.DegreeLevel)
	assert.Equal(t, models.BudgetMedium, pref.Budget)
	assert.True(t, pref.AcceptsCountry("Germany"))
}
