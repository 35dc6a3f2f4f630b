// internal/workers/leads/notify-lead/models.go
package notifylead

import "program-matcher/internal/models"

// Input reads the lead written by submit-lead.
type Input struct {
	Lead models.Lead `json:"lead"`
}

type Output struct {
	NotificationStatus string `json:"notificationStatus"`
	EmailMessageID     string `json:"emailMessageId,omitempty"`
	SMSMessageID       string `json:"smsMessageId,omitempty"`
}
