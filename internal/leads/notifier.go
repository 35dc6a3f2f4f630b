// internal/leads/notifier.go
package leads

import (
	"bytes"
	"context"
	htmltemplate "html/template"
	"strings"
	"text/template"

	"program-matcher/internal/common/aws"
	"program-matcher/internal/common/errors"
	"program-matcher/internal/common/logger"
	"program-matcher/internal/common/metrics"
	"program-matcher/internal/models"
)

const DefaultSMSMessage = "Thanks for taking the study abroad quiz! A counsellor will call you shortly about {{.StudyField}} programs in {{join .PreferredCountries}}."

const (
	NotificationSent     = "sent"
	NotificationPartial  = "partial"
	NotificationFailed   = "failed"
	NotificationDisabled = "disabled"
)

var funcs = template.FuncMap{
	"join": func(s []string) string {
		if len(s) == 0 {
			return "any country"
		}
		return strings.Join(s, ", ")
	},
}

var emailText = template.Must(template.New("text").Funcs(funcs).Parse(`New study abroad lead

Phone:      {{.PhoneNumber}}
Field:      {{.StudyField}}
Degree:     {{.DegreeLevel}}
Countries:  {{join .PreferredCountries}}
Budget:     {{.Budget}}
Education:  {{.HighestEducation}} {{.ExpectedScore}}
Matches:    {{join .MatchedPrograms}}
Match score {{.MatchScore}}
`))

var emailHTML = htmltemplate.Must(htmltemplate.New("html").Funcs(htmltemplate.FuncMap(funcs)).Parse(`<h2>New study abroad lead</h2>
<table>
<tr><td>Phone</td><td>{{.PhoneNumber}}</td></tr>
<tr><td>Field</td><td>{{.StudyField}}</td></tr>
<tr><td>Degree</td><td>{{.DegreeLevel}}</td></tr>
<tr><td>Countries</td><td>{{join .PreferredCountries}}</td></tr>
<tr><td>Budget</td><td>{{.Budget}}</td></tr>
<tr><td>Matches</td><td>{{join .MatchedPrograms}}</td></tr>
<tr><td>Match score</td><td>{{.MatchScore}}</td></tr>
</table>`))

type EmailSender interface {
	Send(ctx context.Context, msg aws.Email) (string, error)
}

type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

// NotificationResult reports what was delivered for one lead.
type NotificationResult struct {
	Status  string `json:"status"`
	EmailID string `json:"emailId,omitempty"`
	SMSID   string `json:"smsId,omitempty"`
}

// Notifier emails counsellors and texts the lead. Either channel may be nil.
type Notifier struct {
	email      EmailSender
	recipients []string
	sms        SMSSender
	smsText    *template.Template
	logger     logger.Logger
}

func NewNotifier(email EmailSender, recipients []string, sms SMSSender, smsMessage string, log logger.Logger) (*Notifier, error) {
	if smsMessage == "" {
		smsMessage = DefaultSMSMessage
	}
	smsText, err := template.New("sms").Funcs(funcs).Parse(smsMessage)
	if err != nil {
		return nil, errors.NewInvalidInputError("sms message template: " + err.Error())
	}

	if len(recipients) == 0 {
		email = nil
	}
	return &Notifier{
		email:      email,
		recipients: recipients,
		sms:        sms,
		smsText:    smsText,
		logger:     log.WithFields(map[string]interface{}{"component": "notifier"}),
	}, nil
}

func (n *Notifier) Enabled() bool {
	return n != nil && (n.email != nil || n.sms != nil)
}

// Notify sends on every configured channel. The error is non-nil only when
// every attempted channel failed.
func (n *Notifier) Notify(ctx context.Context, lead models.Lead) (NotificationResult, error) {
	if !n.Enabled() {
		return NotificationResult{Status: NotificationDisabled}, nil
	}

	var (
		result   NotificationResult
		attempts int
		failures []error
	)

	if n.email != nil {
		attempts++
		id, err := n.sendEmail(ctx, lead)
		if err != nil {
			failures = append(failures, errors.NewNotificationSendFailedError("email", err))
			metrics.LeadSinkFailures.WithLabelValues("email").Inc()
		}
		result.EmailID = id
	}

	if n.sms != nil {
		attempts++
		id, err := n.sendSMS(ctx, lead)
		if err != nil {
			failures = append(failures, errors.NewNotificationSendFailedError("sms", err))
			metrics.LeadSinkFailures.WithLabelValues("sms").Inc()
		}
		result.SMSID = id
	}

	for _, err := range failures {
		n.logger.Warn("lead notification failed", map[string]interface{}{"leadId": lead.ID, "error": err})
	}

	switch len(failures) {
	case 0:
		result.Status = NotificationSent
	case attempts:
		result.Status = NotificationFailed
		return result, failures[0]
	default:
		result.Status = NotificationPartial
	}
	return result, nil
}

func (n *Notifier) sendEmail(ctx context.Context, lead models.Lead) (string, error) {
	var text, html bytes.Buffer
	if err := emailText.Execute(&text, lead); err != nil {
		return "", err
	}
	if err := emailHTML.Execute(&html, lead); err != nil {
		return "", err
	}

	return n.email.Send(ctx, aws.Email{
		To:      n.recipients,
		Subject: "New lead: " + lead.StudyField + " " + lead.DegreeLevel,
		Text:    text.String(),
		HTML:    html.String(),
	})
}

func (n *Notifier) sendSMS(ctx context.Context, lead models.Lead) (string, error) {
	var msg bytes.Buffer
	if err := n.smsText.Execute(&msg, lead); err != nil {
		return "", err
	}
	return n.sms.SendSMS(ctx, lead.PhoneNumber, msg.String())
}
