// internal/matcher/fee.go
package matcher

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var amountPattern = regexp.MustCompile(`[\d,.]+`)

// CurrencyRate converts one currency code to USD.
type CurrencyRate struct {
	Code  string  `mapstructure:"code" json:"code"`
	ToUSD float64 `mapstructure:"to_usd" json:"toUsd"`
}

// CurrencyTable is a fixed set of exchange multipliers. Rates are checked
// in order, so a fee mentioning two codes uses the first listed rate.
type CurrencyTable struct {
	Rates       []CurrencyRate `mapstructure:"rates" json:"rates"`
	LocalPerUSD float64        `mapstructure:"local_per_usd" json:"localPerUsd"`
}

func DefaultCurrencyTable() CurrencyTable {
	return CurrencyTable{
		Rates: []CurrencyRate{
			{Code: "EUR", ToUSD: 1.1},
			{Code: "GBP", ToUSD: 1.3},
			{Code: "AUD", ToUSD: 0.67},
			{Code: "CAD", ToUSD: 0.74},
			{Code: "AED", ToUSD: 0.27},
			{Code: "USD", ToUSD: 1},
		},
		LocalPerUSD: 85.43,
	}
}

// DetectCurrency returns the first code found in fee, or "USD".
func (t CurrencyTable) DetectCurrency(fee string) (string, float64) {
	for _, r := range t.Rates {
		if strings.Contains(fee, r.Code) {
			return r.Code, r.ToUSD
		}
	}
	return "USD", 1
}

// ToUSD converts a free-text fee to USD.
func (t CurrencyTable) ToUSD(fee string) float64 {
	if fee == "" {
		return 0
	}
	_, rate := t.DetectCurrency(fee)
	return ExtractAmount(fee) * rate
}

// Normalize converts a free-text fee to the local currency (INR).
func (t CurrencyTable) Normalize(fee string) float64 {
	return t.ToUSD(fee) * t.LocalPerUSD
}

// FormatFee renders a fee in the local currency for display.
func (t CurrencyTable) FormatFee(fee string) string {
	if strings.TrimSpace(fee) == "" {
		return "Not specified"
	}
	return FormatINR(t.Normalize(fee))
}

// ExtractAmount parses the first numeric run of s, ignoring thousands
// separators. Anything unparsable yields 0.
func ExtractAmount(s string) float64 {
	m := amountPattern.FindString(s)
	if m == "" {
		return 0
	}
	m = strings.ReplaceAll(m, ",", "")

	// keep the longest prefix that is a valid decimal: "12.5.1" -> "12.5"
	end := 0
	seenDot := false
	for i, c := range m {
		if c == '.' {
			if seenDot {
				break
			}
			seenDot = true
			continue
		}
		end = i + 1
	}
	if end == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(m[:end], 64)
	if err != nil {
		return 0
	}
	return v
}

// FormatINR formats an amount with the Indian digit grouping (12,34,567).
func FormatINR(amount float64) string {
	n := int64(math.Round(amount))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	if len(digits) <= 3 {
		return "₹" + sign + digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	groups = append([]string{head}, groups...)
	return "₹" + sign + strings.Join(groups, ",") + "," + tail
}
