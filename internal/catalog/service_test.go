// internal/catalog/service_test.go
package catalog

import (
	"context"
	"testing"
	"time"

	"program-matcher/internal/common/logger"
	"program-matcher/internal/matcher"
	"program-matcher/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_MatchWithoutCache(t *testing.T) {
	svc := NewService(New(samplePrograms()), matcher.NewDefault(), nil, nil, logger.NewTestLogger(t))

	result := svc.Match(context.Background(), mastersInUK(), "test")

	assert.Equal(t, 6, result.TotalPrograms)
	require.NotEmpty(t, result.Matches)
	assert.Equal(t, "MSc Computer Science", result.Matches[0].CourseName)
}

func TestService_MatchUsesCache(t *testing.T) {
	redis, mr := setupRedis(t)
	c := New(samplePrograms())
	svc := NewService(c, matcher.NewDefault(), NewMatchCache(redis, time.Minute), nil, logger.NewTestLogger(t))
	ctx := context.Background()

	first := svc.Match(ctx, mastersInUK(), "test")
	assert.True(t, mr.Exists(MatchKey(svc.scope, mastersInUK())))

	second := svc.Match(ctx, mastersInUK(), "test")
	assert.Equal(t, first.ThresholdScore, second.ThresholdScore)
	assert.Equal(t, first.Matches[0].University, second.Matches[0].University)
}

func TestService_CacheIsScopedByPolicy(t *testing.T) {
	redis, _ := setupRedis(t)
	c := New(samplePrograms())
	cache := NewMatchCache(redis, time.Minute)
	ctx := context.Background()

	regionHeavy := matcher.DefaultPolicy()
	regionHeavy.Weights.Region = 40
	regionHeavy.TopN = 1

	oldSvc := NewService(c, matcher.NewDefault(), cache, nil, logger.NewTestLogger(t))
	newSvc := NewService(c, matcher.New(regionHeavy), cache, nil, logger.NewTestLogger(t))

	warm := oldSvc.Match(ctx, mastersInUK(), "test")
	require.Greater(t, len(warm.Matches), 1)

	got := newSvc.Match(ctx, mastersInUK(), "test")
	want := matcher.New(regionHeavy).Match(mastersInUK(), c.Programs())

	assert.NotEqual(t, oldSvc.scope, newSvc.scope)
	assert.Len(t, got.Matches, 1)
	assert.Equal(t, want.Matches[0].Score, got.Matches[0].Score)
	assert.Equal(t, want.ThresholdScore, got.ThresholdScore)
}

func TestService_CacheOutageFallsBackToMatcher(t *testing.T) {
	redis, mr := setupRedis(t)
	svc := NewService(New(samplePrograms()), matcher.NewDefault(), NewMatchCache(redis, time.Minute), nil, logger.NewTestLogger(t))
	mr.Close()

	result := svc.Match(context.Background(), mastersInUK(), "test")

	assert.NotEmpty(t, result.Matches)
}

func TestService_AvailableCountries(t *testing.T) {
	svc := NewService(New(samplePrograms()), matcher.NewDefault(), nil, nil, logger.NewTestLogger(t))

	assert.Equal(t, []string{"Australia"}, svc.AvailableCountries(models.LevelBachelors))
}
