// internal/matcher/matcher.go
package matcher

import (
	"math"
	"sort"

	"program-matcher/internal/models"
)

// Result is the ranked outcome of one matching session. An empty Matches
// slice is a valid outcome, not an error.
type Result struct {
	Matches                []models.ScoredProgram `json:"matches"`
	ThresholdScore         float64                `json:"thresholdScore"`
	ProgramsAboveThreshold int                    `json:"programsAboveThreshold"`
	TotalPrograms          int                    `json:"totalPrograms"`
	MaxPossibleScore       float64                `json:"maxPossibleScore"`
}

// Matcher scores a program collection against one preference and keeps the
// top-N of the upper percentile. It holds no mutable state.
type Matcher struct {
	policy Policy
	scorer *Scorer
}

func New(policy Policy) *Matcher {
	return &Matcher{
		policy: policy,
		scorer: NewScorer(policy),
	}
}

func NewDefault() *Matcher {
	return New(DefaultPolicy())
}

func (m *Matcher) Policy() Policy {
	return m.policy
}

// Match scores every program, stable-sorts them by descending score, cuts
// at the score found at index floor(N*percentile) and returns the first
// TopN survivors. Ties keep input order.
func (m *Matcher) Match(pref models.Preference, programs []models.Program) Result {
	scored := make([]models.ScoredProgram, len(programs))
	for i, p := range programs {
		scored[i] = m.scorer.Score(pref, p)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	threshold := thresholdScore(scored, m.policy.Percentile)

	above := 0
	matches := make([]models.ScoredProgram, 0, m.policy.TopN)
	for _, sp := range scored {
		if sp.Score < threshold {
			continue
		}
		above++
		if len(matches) < m.policy.TopN {
			matches = append(matches, sp)
		}
	}

	return Result{
		Matches:                matches,
		ThresholdScore:         threshold,
		ProgramsAboveThreshold: above,
		TotalPrograms:          len(programs),
		MaxPossibleScore:       m.policy.MaxPossibleScore(),
	}
}

// MatchPercent expresses score as a share of the best reachable score.
func (m *Matcher) MatchPercent(score float64) float64 {
	max := m.policy.MaxPossibleScore()
	if max == 0 {
		return 0
	}
	return score / max * 100
}

func thresholdScore(sorted []models.ScoredProgram, percentile float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Floor(float64(len(sorted)) * percentile))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx].Score
}
