// Package report renders read-only summaries of a week or a period: a short
// three-point analysis and a one-page PDF.
package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
	"wallet/internal/ledger"
)

// Unavailable is shown when the analysis cannot be produced.
const Unavailable = "Analysis service unavailable."

// Generator produces the analysis text for a week. It must not modify w.
type Generator interface {
	Generate(ctx context.Context, w core.WeekData) (string, error)
}

// Analyze runs gen and maps any failure to Unavailable.
func Analyze(ctx context.Context, gen Generator, w core.WeekData) string {
	if gen == nil {
		return Unavailable
	}
	text, err := gen.Generate(ctx, w)
	if err != nil || strings.TrimSpace(text) == "" {
		return Unavailable
	}
	return text
}

// Local builds the analysis from the ledger figures without any external service.
type Local struct{}

func (Local) Generate(ctx context.Context, w core.WeekData) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	points := Insights(w)
	var b strings.Builder
	for i, p := range points {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// Insights returns three observations: spending efficiency, the largest
// category and expense, and a tip for next week.
func Insights(w core.WeekData) []string {
	s := ledger.Summarize(w)
	return []string{efficiency(s), largest(w.Transactions), tip(s, w.Transactions)}
}

func efficiency(s ledger.Summary) string {
	out := s.Spent.Add(s.Planned)
	if s.IncomeMissing {
		return fmt.Sprintf("No income was entered; %s EUR is spent or planned.", money(out))
	}
	pct := out.Div(s.Income).Mul(decimal.NewFromInt(100)).Round(0)
	if s.Critical {
		return fmt.Sprintf("Spending and savings exceed income by %s EUR (%s%% of income spent or planned).",
			money(s.Available.Neg()), pct)
	}
	return fmt.Sprintf("%s%% of the %s EUR income is spent or planned; %s EUR is still available.",
		pct, money(s.Income), money(s.Available))
}

func largest(txs []core.Transaction) string {
	cats := ledger.CategoryTotals(txs)
	if len(cats) == 0 || !cats[0].Amount.IsPositive() {
		return "No expenses were recorded."
	}
	var top *core.Transaction
	for i := range txs {
		t := &txs[i]
		if t.Type == core.Saving {
			continue
		}
		if top == nil || t.Amount.GreaterThan(top.Amount) {
			top = t
		}
	}
	return fmt.Sprintf("The largest category is %s with %s EUR; the largest expense is %q at %s EUR.",
		cats[0].Category, money(cats[0].Amount), top.Title, money(top.Amount))
}

func tip(s ledger.Summary, txs []core.Transaction) string {
	pending := 0
	for _, t := range txs {
		if t.IsPending() {
			pending++
		}
	}
	switch {
	case s.IncomeMissing:
		return "Set the weekly income first so available funds mean something."
	case s.Critical:
		return "Next week, plan fewer pleasures or lower the savings transfer until the balance is positive."
	case pending > 0:
		return fmt.Sprintf("Review %d planned expense(s) that are not done yet before the week closes.", pending)
	case s.Saved.IsZero() && s.Available.IsPositive():
		return fmt.Sprintf("Consider moving part of the remaining %s EUR to savings.", money(s.Available))
	default:
		return "Keep the same plan next week."
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
