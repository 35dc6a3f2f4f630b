// internal/common/zoho/leads.go
package zoho

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"program-matcher/internal/common/httpclient"
)

const DefaultBaseURL = "https://www.zohoapis.com/crm/v2"

// CRMClient talks to the Leads module of Zoho CRM.
type CRMClient struct {
	oauthToken string
	baseURL    string
	http       *httpclient.Client
}

// Lead is the CRM record created for every submitted quiz.
type Lead struct {
	ID          string `json:"id,omitempty"`
	LastName    string `json:"Last_Name"`
	Phone       string `json:"Phone"`
	LeadSource  string `json:"Lead_Source,omitempty"`
	Description string `json:"Description,omitempty"`
	StudyField  string `json:"Study_Field,omitempty"`
	DegreeLevel string `json:"Degree_Level,omitempty"`
	Countries   string `json:"Preferred_Countries,omitempty"`
	Budget      string `json:"Budget,omitempty"`
	MatchScore  string `json:"Match_Score,omitempty"`
}

type upsertResponse struct {
	Data []struct {
		Code    string `json:"code"`
		Details struct {
			ID string `json:"id"`
		} `json:"details"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"data"`
}

func NewCRMClient(baseURL, oauthToken string, timeout time.Duration) *CRMClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &CRMClient{
		oauthToken: oauthToken,
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       httpclient.NewClient(timeout),
	}
}

func (c *CRMClient) headers() map[string]string {
	return map[string]string{"Authorization": "Zoho-oauthtoken " + c.oauthToken}
}

// CreateLead inserts lead and returns the CRM record id.
func (c *CRMClient) CreateLead(ctx context.Context, lead *Lead) (string, error) {
	payload := map[string]interface{}{
		"data":    []Lead{*lead},
		"trigger": []string{"workflow"},
	}

	var resp upsertResponse
	if err := c.http.DoJSON(ctx, http.MethodPost, c.baseURL+"/Leads", c.headers(), payload, &resp); err != nil {
		return "", fmt.Errorf("failed to create lead: %w", err)
	}

	if len(resp.Data) == 0 {
		return "", fmt.Errorf("no data in response")
	}
	if resp.Data[0].Status != "success" {
		return "", fmt.Errorf("lead creation failed: %s (%s)", resp.Data[0].Message, resp.Data[0].Code)
	}
	return resp.Data[0].Details.ID, nil
}

// SearchLeadsByPhone returns leads whose Phone matches exactly. Zoho answers
// 204 with an empty body when nothing matches.
func (c *CRMClient) SearchLeadsByPhone(ctx context.Context, phone string) ([]Lead, error) {
	endpoint := fmt.Sprintf("%s/Leads/search?%s", c.baseURL, url.Values{"phone": {phone}}.Encode())

	var result struct {
		Data []Lead `json:"data"`
	}
	if err := c.http.DoJSON(ctx, http.MethodGet, endpoint, c.headers(), nil, &result); err != nil {
		return nil, fmt.Errorf("failed to search leads: %w", err)
	}
	return result.Data, nil
}
