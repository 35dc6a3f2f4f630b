// internal/leads/notifier_test.go
package leads

import (
	"context"
	stderrors "errors"
	"testing"

	"program-matcher/internal/common/errors"
	"program-matcher/internal/common/logger"
	"program-matcher/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLead() models.Lead {
	return models.Lead{
		ID:                 "lead-1",
		PhoneNumber:        "+919876543210",
		StudyField:         "Business",
		DegreeLevel:        "Masters",
		PreferredCountries: []string{"UK", "Canada"},
		Budget:             "high",
		MatchedPrograms:    []string{"Warwick", "<script>"},
		MatchScore:         "91",
	}
}

func TestNotifier_Disabled(t *testing.T) {
	n, err := NewNotifier(&fakeEmail{}, nil, nil, "", logger.NewTestLogger(t))
	require.NoError(t, err)

	assert.False(t, n.Enabled(), "email without recipients is disabled")

	res, err := n.Notify(context.Background(), sampleLead())
	require.NoError(t, err)
	assert.Equal(t, NotificationDisabled, res.Status)

	var nilNotifier *Notifier
	assert.False(t, nilNotifier.Enabled())
}

func TestNotifier_RendersEmail(t *testing.T) {
	email := &fakeEmail{}
	n, err := NewNotifier(email, []string{"team@example.com"}, nil, "", logger.NewTestLogger(t))
	require.NoError(t, err)

	res, err := n.Notify(context.Background(), sampleLead())

	require.NoError(t, err)
	assert.Equal(t, NotificationSent, res.Status)
	assert.Equal(t, "email-1", res.EmailID)
	require.Len(t, email.sent, 1)

	msg := email.sent[0]
	assert.Equal(t, []string{"team@example.com"}, msg.To)
	assert.Equal(t, "New lead: Business Masters", msg.Subject)
	assert.Contains(t, msg.Text, "Countries:  UK, Canada")
	assert.Contains(t, msg.Text, "Warwick, <script>")
	assert.Contains(t, msg.HTML, "Warwick, &lt;script&gt;")
}

func TestNotifier_CustomSMSTemplate(t *testing.T) {
	sms := &fakeSMS{}
	n, err := NewNotifier(nil, nil, sms, "Hi! {{.DegreeLevel}} options in {{join .PreferredCountries}} are ready.", logger.NewTestLogger(t))
	require.NoError(t, err)

	res, err := n.Notify(context.Background(), sampleLead())

	require.NoError(t, err)
	assert.Equal(t, "sms-1", res.SMSID)
	assert.Equal(t, []string{"Hi! Masters options in UK, Canada are ready."}, sms.messages)
}

func TestNotifier_DefaultSMSWithoutCountries(t *testing.T) {
	sms := &fakeSMS{}
	n, err := NewNotifier(nil, nil, sms, "", logger.NewTestLogger(t))
	require.NoError(t, err)

	lead := sampleLead()
	lead.PreferredCountries = nil
	_, err = n.Notify(context.Background(), lead)

	require.NoError(t, err)
	require.Len(t, sms.messages, 1)
	assert.Contains(t, sms.messages[0], "Business programs in any country")
}

func TestNotifier_PartialAndTotalFailure(t *testing.T) {
	n, err := NewNotifier(&fakeEmail{err: stderrors.New("throttled")}, []string{"team@example.com"}, &fakeSMS{}, "", logger.NewTestLogger(t))
	require.NoError(t, err)

	res, err := n.Notify(context.Background(), sampleLead())
	require.NoError(t, err)
	assert.Equal(t, NotificationPartial, res.Status)

	n, err = NewNotifier(&fakeEmail{err: stderrors.New("throttled")}, []string{"team@example.com"}, &fakeSMS{err: stderrors.New("opted out")}, "", logger.NewTestLogger(t))
	require.NoError(t, err)

	res, err = n.Notify(context.Background(), sampleLead())
	require.Error(t, err)
	assert.Equal(t, NotificationFailed, res.Status)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotificationSendFailed))
}

func TestNewNotifier_BadTemplate(t *testing.T) {
	_, err := NewNotifier(nil, nil, &fakeSMS{}, "{{.Nope", logger.NewTestLogger(t))
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
}
