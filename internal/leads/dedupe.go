// internal/leads/dedupe.go
package leads

import (
	"context"
	"time"

	"program-matcher/internal/common/database"
	"program-matcher/internal/common/errors"
)

const dedupeKeyPrefix = "lead:dedupe:"

// Deduper rejects a second submission from the same phone inside a window.
type Deduper struct {
	redis  *database.RedisClient
	window time.Duration
}

func NewDeduper(redis *database.RedisClient, window time.Duration) *Deduper {
	return &Deduper{redis: redis, window: window}
}

// Acquire reports false when phone already holds the window.
func (d *Deduper) Acquire(ctx context.Context, phone string) (bool, error) {
	ok, err := d.redis.SetNX(ctx, dedupeKeyPrefix+phone, time.Now().UTC().Format(time.RFC3339), d.window)
	if err != nil {
		return false, errors.NewCacheError("setnx", err)
	}
	return ok, nil
}

// Release frees the window so a failed submission can be retried at once.
func (d *Deduper) Release(ctx context.Context, phone string) error {
	if err := d.redis.Del(ctx, dedupeKeyPrefix+phone); err != nil {
		return errors.NewCacheError("del", err)
	}
	return nil
}
