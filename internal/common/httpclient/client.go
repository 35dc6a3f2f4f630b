// internal/common/httpclient/client.go
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// HTTPError carries the status and body of a non-2xx response.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: %s %s status=%d body=%s", e.Method, e.URL, e.StatusCode, snippet(e.Body, 500))
}

func snippet(b []byte, max int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

type RetryConfig struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	RetryStatuses map[int]bool
	Retry5xx      bool
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   300 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Retry5xx:    true,
		RetryStatuses: map[int]bool{
			http.StatusTooManyRequests: true,
			http.StatusRequestTimeout:  true,
		},
	}
}

// checkRetry keeps the library's handling of transport errors and applies
// the configured status set to responses.
func (r RetryConfig) checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	if r.RetryStatuses[resp.StatusCode] {
		return true, nil
	}
	return r.Retry5xx && resp.StatusCode >= 500 && resp.StatusCode <= 599, nil
}

// Client executes outbound calls to the spreadsheet and CRM APIs with
// bounded retries.
type Client struct {
	rc *retryablehttp.Client
}

func NewClient(timeout time.Duration) *Client {
	return Wrap(&http.Client{Timeout: timeout}, DefaultRetryConfig())
}

// Wrap reuses an existing *http.Client, e.g. one carrying an oauth2 transport.
func Wrap(hc *http.Client, retry RetryConfig) *Client {
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = 1
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = hc
	rc.Logger = nil
	rc.RetryMax = retry.MaxAttempts - 1
	rc.RetryWaitMin = retry.BaseDelay
	rc.RetryWaitMax = retry.MaxDelay
	rc.CheckRetry = retry.checkRetry
	// hand the last response back instead of a "giving up" error
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{rc: rc}
}

// StandardClient exposes the retrying transport to SDKs that take a plain
// *http.Client. Non-2xx responses are returned as responses, not errors.
func (c *Client) StandardClient() *http.Client {
	return c.rc.StandardClient()
}

// Do sends one request and reads the whole response body. body is replayed
// on every attempt.
func (c *Client) Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (int, []byte, error) {
	var raw interface{}
	if body != nil {
		raw = body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, raw)
	if err != nil {
		return 0, nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.rc.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, data, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, data, &HTTPError{Method: method, URL: url, StatusCode: resp.StatusCode, Body: data}
	}
	return resp.StatusCode, data, nil
}

// DoJSON marshals in (if non-nil) as the request body and decodes the
// response into out (if non-nil).
func (c *Client) DoJSON(ctx context.Context, method, url string, headers map[string]string, in, out interface{}) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		h := make(map[string]string, len(headers)+1)
		h["Content-Type"] = "application/json"
		for k, v := range headers {
			h[k] = v
		}
		headers = h
	}

	_, body, err := c.Do(ctx, method, url, headers, payload)
	if err != nil {
		return err
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("json parse error: %w body=%s", err, snippet(body, 200))
	}
	return nil
}
