// internal/common/httpclient/client_test.go
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.BaseDelay = time.Millisecond
	cfg.MaxDelay = 5 * time.Millisecond
	return cfg
}

func TestDoJSON_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["name"]})
	}))
	defer srv.Close()

	c := Wrap(srv.Client(), fastRetry())

	var out struct {
		Echo string `json:"echo"`
	}
	err := c.DoJSON(context.Background(), http.MethodPost, srv.URL,
		map[string]string{"Authorization": "Bearer token"},
		map[string]string{"name": "lead"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "lead", out.Echo)
}

func TestDo_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := Wrap(srv.Client(), fastRetry())
	status, body, err := c.Do(context.Background(), http.MethodGet, srv.URL, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", string(body))
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestDo_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := Wrap(srv.Client(), fastRetry())
	status, _, err := c.Do(context.Background(), http.MethodGet, srv.URL, nil, nil)

	var herr *HTTPError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, http.StatusInternalServerError, herr.StatusCode)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestDo_ClientErrorsAreNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad range"}`))
	}))
	defer srv.Close()

	c := Wrap(srv.Client(), fastRetry())
	err := c.DoJSON(context.Background(), http.MethodGet, srv.URL, nil, nil, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad range")
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestDo_ReplaysBodyOnRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"name":"lead"}`, string(body))
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := Wrap(srv.Client(), fastRetry())
	err := c.DoJSON(context.Background(), http.MethodPost, srv.URL, nil, map[string]string{"name": "lead"}, nil)

	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestDo_InvalidURL(t *testing.T) {
	c := NewClient(time.Second)
	_, _, err := c.Do(context.Background(), http.MethodGet, "://missing-scheme", nil, nil)
	assert.Error(t, err)
}

func TestDo_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := Wrap(srv.Client(), fastRetry())
	_, _, err := c.Do(ctx, http.MethodGet, srv.URL, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStandardClient_Retries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	hc := Wrap(srv.Client(), fastRetry()).StandardClient()
	resp, err := hc.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestRetryConfig_CheckRetry(t *testing.T) {
	cfg := DefaultRetryConfig()
	ctx := context.Background()

	cases := []struct {
		status int
		want   bool
	}{
		{http.StatusOK, false},
		{http.StatusBadRequest, false},
		{http.StatusForbidden, false},
		{http.StatusRequestTimeout, true},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusServiceUnavailable, true},
	}
	for _, tc := range cases {
		retry, err := cfg.checkRetry(ctx, &http.Response{StatusCode: tc.status}, nil)
		require.NoError(t, err)
		assert.Equal(t, tc.want, retry, "status %d", tc.status)
	}

	cfg.Retry5xx = false
	retry, _ := cfg.checkRetry(ctx, &http.Response{StatusCode: http.StatusInternalServerError}, nil)
	assert.False(t, retry)

	retry, _ = cfg.checkRetry(ctx, nil, errors.New("read: connection reset by peer"))
	assert.True(t, retry)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	retry, err := cfg.checkRetry(cancelled, nil, errors.New("read: connection reset by peer"))
	assert.False(t, retry)
	assert.ErrorIs(t, err, context.Canceled)
}
