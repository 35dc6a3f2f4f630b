// internal/common/camunda/client_test.go
package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"program-matcher/internal/common/errors"
	"program-matcher/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() *Client {
	return &Client{config: &ClientConfig{
		RetryConfig: &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
	}}
}

func TestExecuteWithRetry_RetriesTransientErrors(t *testing.T) {
	c := testClient()
	calls := 0

	result, err := c.ExecuteWithRetry(context.Background(), "publish", func(ctx context.Context) (interface{}, error) {
		calls++
		if calls < 3 {
			return nil, stderrors.New("rpc error: code = Unavailable")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_GivesUp(t *testing.T) {
	c := testClient()
	calls := 0

	_, err := c.ExecuteWithRetry(context.Background(), "publish", func(ctx context.Context) (interface{}, error) {
		calls++
		return nil, stderrors.New("context deadline exceeded")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, errors.HasCode(err, errors.ErrCodeTimeout))
}

func TestExecuteWithRetry_PermanentErrorNotRetried(t *testing.T) {
	c := testClient()
	calls := 0

	_, err := c.ExecuteWithRetry(context.Background(), "publish", func(ctx context.Context) (interface{}, error) {
		calls++
		return nil, stderrors.New("rpc error: code = InvalidArgument desc = invalid argument")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
}

func TestRetryWithBackoff(t *testing.T) {
	log := logger.NewTestLogger(t)

	calls := 0
	err := RetryWithBackoff(context.Background(), 3, time.Millisecond, log, "postgres", func() error {
		calls++
		if calls == 2 {
			return nil
		}
		return stderrors.New("dial tcp: connection refused")
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	err = RetryWithBackoff(context.Background(), 2, time.Millisecond, log, "redis", func() error {
		return stderrors.New("down")
	})
	assert.EqualError(t, err, "redis failed after 2 attempts: down")
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, 5, time.Second, logger.NewTestLogger(t), "zeebe", func() error {
		return stderrors.New("unavailable")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, isRetryableZeebeError(stderrors.New("connection reset by peer")))
	assert.True(t, isRetryableZeebeError(stderrors.New("Deadline Exceeded")))
	assert.False(t, isRetryableZeebeError(stderrors.New("permission denied")))
}
