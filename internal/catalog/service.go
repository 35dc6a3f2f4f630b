// internal/catalog/service.go
package catalog

import (
	"context"

	"program-matcher/internal/common/logger"
	"program-matcher/internal/common/metrics"
	"program-matcher/internal/common/observability"
	"program-matcher/internal/matcher"
	"program-matcher/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

// Service answers matching requests against a loaded catalog. The cache and
// observability hooks are optional.
type Service struct {
	catalog *Catalog
	matcher *matcher.Matcher
	cache   *MatchCache
	// scope namespaces cache entries by dataset and policy.
	scope  string
	obs    *observability.Observability
	logger logger.Logger
}

func NewService(c *Catalog, m *matcher.Matcher, cache *MatchCache, obs *observability.Observability, log logger.Logger) *Service {
	metrics.CatalogPrograms.Set(float64(c.Len()))
	return &Service{
		catalog: c,
		matcher: m,
		cache:   cache,
		scope:   c.Version() + ":" + m.Policy().Fingerprint(),
		obs:     obs,
		logger:  log.WithFields(map[string]interface{}{"component": "catalog"}),
	}
}

func (s *Service) Catalog() *Catalog {
	return s.catalog
}

func (s *Service) Matcher() *matcher.Matcher {
	return s.matcher
}

// Match runs the matcher for pref. Cache failures are logged and the match
// is computed anyway; the matcher itself cannot fail.
func (s *Service) Match(ctx context.Context, pref models.Preference, source string) matcher.Result {
	ctx, span := s.obs.StartSpan(ctx, "catalog.match",
		attribute.String("studyField", string(pref.StudyField)),
		attribute.String("degreeLevel", string(pref.DegreeLevel)),
		attribute.Int("programs", s.catalog.Len()),
	)
	defer span.End()

	cacheState := "disabled"

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, s.scope, pref)
		switch {
		case err != nil:
			cacheState = "error"
			s.logger.Warn("match cache read failed", map[string]interface{}{"error": err})
		case ok:
			metrics.MatchRequests.WithLabelValues(source, "hit").Inc()
			span.SetAttributes(attribute.Bool("cacheHit", true))
			return *cached
		default:
			cacheState = "miss"
		}
	}

	result := s.matcher.Match(pref, s.catalog.Programs())

	metrics.MatchRequests.WithLabelValues(source, cacheState).Inc()
	metrics.MatchResultSize.Observe(float64(len(result.Matches)))
	if len(result.Matches) > 0 {
		s.obs.RecordTopScore(ctx, result.Matches[0].Score)
	}
	span.SetAttributes(
		attribute.Float64("thresholdScore", result.ThresholdScore),
		attribute.Int("matches", len(result.Matches)),
	)

	if s.cache != nil && cacheState == "miss" {
		if err := s.cache.Set(ctx, s.scope, pref, result); err != nil {
			s.logger.Warn("match cache write failed", map[string]interface{}{"error": err})
		}
	}

	s.logger.Debug("match computed", map[string]interface{}{
		"source":         source,
		"matches":        len(result.Matches),
		"thresholdScore": result.ThresholdScore,
		"aboveThreshold": result.ProgramsAboveThreshold,
	})
	return result
}

// AvailableCountries delegates to the catalog.
func (s *Service) AvailableCountries(level models.DegreeLevel) []string {
	return s.catalog.AvailableCountries(level)
}
