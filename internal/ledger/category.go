package ledger

import (
	"slices"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
)

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category core.Category   `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// CategoryTotals groups all non-saving transactions by category and sums each
// group, largest first. The three spending categories are always present, in
// declaration order before sorting, so equal totals keep that order.
// Uncategorized spending is appended only when it is non-zero.
func CategoryTotals(txs []core.Transaction) []CategoryAmount {
	order := append(core.Categories(), core.NoCategory)
	totals := make(map[core.Category]decimal.Decimal, len(order))
	for _, t := range txs {
		if t.Type == core.Saving {
			continue
		}
		totals[t.Category] = totals[t.Category].Add(t.Amount)
	}

	out := make([]CategoryAmount, 0, len(order))
	for _, c := range order {
		amt := totals[c]
		if c == core.NoCategory && amt.IsZero() {
			continue
		}
		out = append(out, CategoryAmount{Category: c, Amount: amt})
	}
	slices.SortStableFunc(out, func(a, b CategoryAmount) int {
		return b.Amount.Cmp(a.Amount)
	})
	return out
}
