// Package ledger computes derived metrics over a week's income and transactions.
//
// Every function here is pure: it reads the given values and never mutates them.
// Amounts are summed in the base currency only; the entered amount of a
// converted transaction is display metadata and is never used.
package ledger

import (
	"github.com/shopspring/decimal"

	"wallet/internal/core"
)

// Summary holds the headline figures of a week or a merged period.
type Summary struct {
	Income    decimal.Decimal `json:"income"`
	Spent     decimal.Decimal `json:"spent"`
	Planned   decimal.Decimal `json:"planned"`
	Saved     decimal.Decimal `json:"saved"`
	Available decimal.Decimal `json:"available"`
	// Critical is set when Available is negative.
	Critical bool `json:"critical"`
	// IncomeMissing is set when no income was entered for the week.
	IncomeMissing bool `json:"incomeMissing"`
}

// Summarize computes the summary of one week. Spent includes every confirmed
// transaction, so a saving is subtracted from Available both as spent and as
// saved.
func Summarize(w core.WeekData) Summary {
	return summarize(w.Income, w.Transactions, TotalSpent(w.Transactions))
}

// SummarizePeriod computes the summary of a merged period view, where Spent
// holds expenses only.
func SummarizePeriod(w core.WeekData) Summary {
	return summarize(w.Income, w.Transactions, TotalExpenses(w.Transactions))
}

func summarize(income decimal.Decimal, txs []core.Transaction, spent decimal.Decimal) Summary {
	s := Summary{
		Income:  income,
		Spent:   spent,
		Planned: TotalPlanned(txs),
		Saved:   TotalSavings(txs),
	}
	s.Available = income.Sub(s.Spent).Sub(s.Planned).Sub(s.Saved)
	s.Critical = s.Available.IsNegative()
	s.IncomeMissing = income.IsZero()
	return s
}

// TotalPlanned sums planned transactions that are not confirmed yet.
func TotalPlanned(txs []core.Transaction) decimal.Decimal {
	return sum(txs, core.Transaction.IsPending)
}

// TotalSpent sums confirmed transactions and actual ones.
func TotalSpent(txs []core.Transaction) decimal.Decimal {
	return sum(txs, core.Transaction.IsSpent)
}

// TotalExpenses sums actual transactions and confirmed planned ones.
func TotalExpenses(txs []core.Transaction) decimal.Decimal {
	return sum(txs, core.Transaction.IsExpense)
}

// TotalSavings sums saving transactions.
func TotalSavings(txs []core.Transaction) decimal.Decimal {
	return sum(txs, isSaving)
}

// AvailableFunds is income minus spent, planned and saved amounts. It may be negative.
func AvailableFunds(income decimal.Decimal, txs []core.Transaction) decimal.Decimal {
	return summarize(income, txs, TotalSpent(txs)).Available
}

func isSaving(t core.Transaction) bool { return t.Type == core.Saving }

func sum(txs []core.Transaction, keep func(core.Transaction) bool) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		if keep(t) {
			total = total.Add(t.Amount)
		}
	}
	return total
}
