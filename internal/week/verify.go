package week

import (
	"fmt"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
)

// RecomputeSavings sums every saving transaction in the current week and the history.
func RecomputeSavings(s core.AppState) decimal.Decimal {
	total := decimal.Zero
	add := func(w core.WeekData) {
		for _, t := range w.Transactions {
			if t.Type == core.Saving {
				total = total.Add(t.Amount)
			}
		}
	}
	add(s.CurrentWeek)
	for _, w := range s.History {
		add(w)
	}
	return total
}

// VerifySavings reports an error when the stored TotalSavings differs from
// the recomputed sum.
func VerifySavings(s core.AppState) error {
	want := RecomputeSavings(s)
	if !s.TotalSavings.Equal(want) {
		return fmt.Errorf("total savings %s does not match recomputed %s", s.TotalSavings, want)
	}
	return nil
}
