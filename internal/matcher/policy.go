// internal/matcher/policy.go
package matcher

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Weights are the base points of each scoring component.
type Weights struct {
	Field    float64 `mapstructure:"field" json:"field"`
	Level    float64 `mapstructure:"level" json:"level"`
	Region   float64 `mapstructure:"region" json:"region"`
	Duration float64 `mapstructure:"duration" json:"duration"`
	Budget   float64 `mapstructure:"budget" json:"budget"`
	Online   float64 `mapstructure:"online" json:"online"`
}

// BudgetBands are expressed in local currency units (INR).
type BudgetBands struct {
	Lower float64 `mapstructure:"lower" json:"lower"`
	Upper float64 `mapstructure:"upper" json:"upper"`
	Slack float64 `mapstructure:"slack" json:"slack"`
}

// Policy is every tunable of the scorer and the ranking step.
type Policy struct {
	Weights              Weights       `mapstructure:"weights" json:"weights"`
	ExactFieldMultiplier float64       `mapstructure:"exact_field_multiplier" json:"exactFieldMultiplier"`
	SingleCountryBonus   float64       `mapstructure:"single_country_bonus" json:"singleCountryBonus"`
	RegionPenalty        float64       `mapstructure:"region_penalty" json:"regionPenalty"`
	PartialBudgetFactor  float64       `mapstructure:"partial_budget_factor" json:"partialBudgetFactor"`
	Budget               BudgetBands   `mapstructure:"budget" json:"budget"`
	Percentile           float64       `mapstructure:"percentile" json:"percentile"`
	TopN                 int           `mapstructure:"top_n" json:"topN"`
	Currency             CurrencyTable `mapstructure:"currency" json:"currency"`
}

func DefaultPolicy() Policy {
	return Policy{
		Weights: Weights{
			Field:    5,
			Level:    3,
			Region:   4,
			Duration: 1.5,
			Budget:   4,
			Online:   1,
		},
		ExactFieldMultiplier: 1.5,
		SingleCountryBonus:   0.5,
		RegionPenalty:        0.5,
		PartialBudgetFactor:  0.5,
		Budget: BudgetBands{
			Lower: 1500000,
			Upper: 2500000,
			Slack: 500000,
		},
		Percentile: 0.2,
		TopN:       5,
		Currency:   DefaultCurrencyTable(),
	}
}

// MaxPossibleScore is the best score a single program can reach.
func (p Policy) MaxPossibleScore() float64 {
	w := p.Weights
	return w.Field*p.ExactFieldMultiplier +
		w.Level +
		w.Region*(1+p.SingleCountryBonus) +
		w.Duration +
		w.Budget +
		w.Online
}

// Fingerprint identifies the policy values. Results computed under
// different fingerprints are not interchangeable.
func (p Policy) Fingerprint() string {
	data, _ := json.Marshal(p)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

func (p Policy) Validate() error {
	if p.Percentile < 0 || p.Percentile >= 1 {
		return fmt.Errorf("percentile must be in [0,1), got %v", p.Percentile)
	}
	if p.TopN <= 0 {
		return fmt.Errorf("top_n must be positive, got %d", p.TopN)
	}
	if p.Budget.Lower > p.Budget.Upper {
		return fmt.Errorf("budget lower threshold %v exceeds upper %v", p.Budget.Lower, p.Budget.Upper)
	}
	if p.Budget.Slack < 0 {
		return fmt.Errorf("budget slack must not be negative")
	}
	if p.Currency.LocalPerUSD <= 0 {
		return fmt.Errorf("currency.local_per_usd must be positive")
	}
	return nil
}
