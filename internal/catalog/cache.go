// internal/catalog/cache.go
package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"sort"
	"time"

	"program-matcher/internal/common/database"
	"program-matcher/internal/common/errors"
	"program-matcher/internal/matcher"
	"program-matcher/internal/models"
)

const matchKeyPrefix = "match:"

// MatchCache stores match results in Redis. Keys are scoped by the caller,
// normally the catalog version and the policy fingerprint.
type MatchCache struct {
	redis *database.RedisClient
	ttl   time.Duration
}

func NewMatchCache(redis *database.RedisClient, ttl time.Duration) *MatchCache {
	return &MatchCache{redis: redis, ttl: ttl}
}

// Get reports a miss as (nil, false, nil).
func (c *MatchCache) Get(ctx context.Context, scope string, pref models.Preference) (*matcher.Result, bool, error) {
	raw, err := c.redis.Get(ctx, MatchKey(scope, pref))
	if stderrors.Is(err, database.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewCacheError("get", err)
	}

	var result matcher.Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, false, errors.NewCacheError("decode", err)
	}
	return &result, true, nil
}

func (c *MatchCache) Set(ctx context.Context, scope string, pref models.Preference, result matcher.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return errors.NewCacheError("encode", err)
	}
	if err := c.redis.Set(ctx, MatchKey(scope, pref), data, c.ttl); err != nil {
		return errors.NewCacheError("set", err)
	}
	return nil
}

// MatchKey hashes the scored fields of pref. Region order does not matter
// to the scorer, so regions are sorted first.
func MatchKey(scope string, pref models.Preference) string {
	regions := append([]string(nil), pref.Regions...)
	sort.Strings(regions)

	scored := struct {
		StudyField models.StudyField     `json:"f"`
		Level      models.DegreeLevel    `json:"l"`
		Regions    []string              `json:"r"`
		Duration   models.DurationBucket `json:"d"`
		Budget     models.BudgetBucket   `json:"b"`
		Online     bool                  `json:"o"`
	}{pref.StudyField, pref.DegreeLevel, regions, pref.Duration, pref.Budget, pref.OnlinePreference}

	data, _ := json.Marshal(scored)
	sum := sha256.Sum256(data)
	return matchKeyPrefix + scope + ":" + hex.EncodeToString(sum[:])
}
