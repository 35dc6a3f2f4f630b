// internal/common/zoho/leads_test.go
package zoho

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/Leads", r.URL.Path)
		assert.Equal(t, "Zoho-oauthtoken tok", r.Header.Get("Authorization"))

		var body struct {
			Data []Lead `json:"data"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if assert.Len(t, body.Data, 1) {
			assert.Equal(t, "+919876543210", body.Data[0].Phone)
		}

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":[{"code":"SUCCESS","details":{"id":"5725767000000524157"},"message":"record added","status":"success"}]}`))
	}))
	defer srv.Close()

	c := NewCRMClient(srv.URL, "tok", 5*time.Second)
	id, err := c.CreateLead(context.Background(), &Lead{LastName: "Quiz Lead", Phone: "+919876543210", LeadSource: "Website Quiz"})

	require.NoError(t, err)
	assert.Equal(t, "5725767000000524157", id)
}

func TestCreateLead_RejectedRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"code":"MANDATORY_NOT_FOUND","details":{},"message":"required field not found","status":"error"}]}`))
	}))
	defer srv.Close()

	c := NewCRMClient(srv.URL, "tok", 5*time.Second)
	_, err := c.CreateLead(context.Background(), &Lead{Phone: "+919876543210"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "MANDATORY_NOT_FOUND")
}

func TestCreateLead_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"INVALID_TOKEN"}`))
	}))
	defer srv.Close()

	c := NewCRMClient(srv.URL, "expired", 5*time.Second)
	_, err := c.CreateLead(context.Background(), &Lead{Phone: "1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_TOKEN")
}

func TestSearchLeadsByPhone(t *testing.T) {
	t.Run("match", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/Leads/search", r.URL.Path)
			assert.Equal(t, "+919876543210", r.URL.Query().Get("phone"))
			_, _ = w.Write([]byte(`{"data":[{"id":"1","Last_Name":"Quiz Lead","Phone":"+919876543210"}]}`))
		}))
		defer srv.Close()

		leads, err := NewCRMClient(srv.URL, "tok", time.Second).SearchLeadsByPhone(context.Background(), "+919876543210")
		require.NoError(t, err)
		require.Len(t, leads, 1)
		assert.Equal(t, "1", leads[0].ID)
	})

	t.Run("no content", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		leads, err := NewCRMClient(srv.URL, "tok", time.Second).SearchLeadsByPhone(context.Background(), "+10000000000")
		require.NoError(t, err)
		assert.Empty(t, leads)
	})
}
