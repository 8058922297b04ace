package ledger

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
)

// TypeFilter narrows the transaction lists of a week.
type TypeFilter string

const (
	AllTypes    TypeFilter = "all"
	OnlyPlanned TypeFilter = "planned"
	OnlyActual  TypeFilter = "actual"
)

// Filter selects which transactions are listed. An empty Category matches all.
type Filter struct {
	Category core.Category
	Type     TypeFilter
}

// Lists splits a week's transactions for display.
type Lists struct {
	Planned []core.Transaction `json:"planned"`
	Done    []core.Transaction `json:"done"`
	Savings []core.Transaction `json:"savings"`
}

// Split returns the pending, done and saving transactions of txs under f.
// Done is ordered newest first. Savings are listed only when f is unfiltered.
func Split(txs []core.Transaction, f Filter) Lists {
	l := Lists{
		Planned: []core.Transaction{},
		Done:    []core.Transaction{},
		Savings: []core.Transaction{},
	}
	unfiltered := f.Category == "" && (f.Type == "" || f.Type == AllTypes)
	for _, t := range txs {
		switch {
		case t.Type == core.Saving:
			if unfiltered {
				l.Savings = append(l.Savings, t)
			}
		case f.Category != "" && t.Category != f.Category:
			// filtered out
		case t.IsPending():
			if f.Type != OnlyActual {
				l.Planned = append(l.Planned, t)
			}
		default:
			if f.Type != OnlyPlanned {
				l.Done = append(l.Done, t)
			}
		}
	}
	slices.SortStableFunc(l.Done, func(a, b core.Transaction) int {
		return b.Date.Compare(a.Date)
	})
	return l
}

// Titles returns the sorted set of every transaction title in weeks.
func Titles(weeks ...core.WeekData) []string {
	seen := make(map[string]struct{})
	for _, w := range weeks {
		for _, t := range w.Transactions {
			if strings.TrimSpace(t.Title) == "" {
				continue
			}
			seen[t.Title] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for title := range seen {
		out = append(out, title)
	}
	slices.Sort(out)
	return out
}

// Slice is one segment of the period pie chart.
type Slice struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

const (
	SliceSpent     = "spent"
	SlicePlanned   = "planned"
	SliceSaved     = "saved"
	SliceAvailable = "available"
)

// PieSlices returns spent, planned, saved and remaining funds, dropping zero
// segments. A negative remainder is shown as zero and therefore dropped.
func PieSlices(s Summary) []Slice {
	all := []Slice{
		{SliceSpent, s.Spent},
		{SlicePlanned, s.Planned},
		{SliceSaved, s.Saved},
		{SliceAvailable, decimal.Max(decimal.Zero, s.Available)},
	}
	out := all[:0]
	for _, sl := range all {
		if sl.Amount.IsPositive() {
			out = append(out, sl)
		}
	}
	return out
}

// WeekSummary is one row of the history list.
type WeekSummary struct {
	ID        string     `json:"id"`
	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	Summary
}

// History summarizes archived weeks, most recently closed first.
func History(history []core.WeekData) []WeekSummary {
	out := make([]WeekSummary, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		w := history[i]
		out = append(out, WeekSummary{
			ID:        w.ID,
			StartDate: w.StartDate,
			EndDate:   w.EndDate,
			Summary:   Summarize(w),
		})
	}
	return out
}
