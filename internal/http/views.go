package http

import (
	"time"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
	"wallet/internal/currency"
	"wallet/internal/ledger"
)

// Response shapes. Domain records carry no JSON tags, so every payload is
// mapped here.
type (
	transactionView struct {
		ID               string           `json:"id"`
		Title            string           `json:"title"`
		Amount           decimal.Decimal  `json:"amount"`
		OriginalAmount   *decimal.Decimal `json:"originalAmount,omitempty"`
		OriginalCurrency string           `json:"originalCurrency"`
		Rate             *decimal.Decimal `json:"rate,omitempty"`
		Type             string           `json:"type"`
		Category         string           `json:"category"`
		IsConfirmed      bool             `json:"isConfirmed"`
		Date             time.Time        `json:"date"`
	}

	listsView struct {
		Planned []transactionView `json:"planned"`
		Done    []transactionView `json:"done"`
		Savings []transactionView `json:"savings"`
	}

	weekView struct {
		ID           string            `json:"id"`
		StartDate    time.Time         `json:"startDate"`
		EndDate      *time.Time        `json:"endDate,omitempty"`
		Income       decimal.Decimal   `json:"income"`
		IsClosed     bool              `json:"isClosed"`
		Summary      ledger.Summary    `json:"summary"`
		Transactions []transactionView `json:"transactions"`
	}

	stateView struct {
		CurrentWeek  weekView        `json:"currentWeek"`
		Lists        listsView       `json:"lists"`
		TotalSavings decimal.Decimal `json:"totalSavings"`
		LastOpened   time.Time       `json:"lastOpened"`
		Presets      []string        `json:"presets"`
		HistoryWeeks int             `json:"historyWeeks"`
	}

	receiptView struct {
		Saved        bool             `json:"saved"`
		Notice       string           `json:"notice"`
		Summary      ledger.Summary   `json:"summary"`
		TotalSavings decimal.Decimal  `json:"totalSavings"`
		Transaction  *transactionView `json:"transaction,omitempty"`
	}

	weekReportView struct {
		Week     weekView                `json:"week"`
		Insights []string                `json:"insights"`
		Analysis string                  `json:"analysis"`
		Totals   []ledger.CategoryAmount `json:"categories"`
	}
)

func toTransactionView(t core.Transaction) transactionView {
	v := transactionView{
		ID:               t.ID,
		Title:            t.Title,
		Amount:           t.Amount,
		OriginalCurrency: t.OriginalCurrency().String(),
		Type:             string(t.Type),
		Category:         string(t.Category),
		IsConfirmed:      t.IsConfirmed,
		Date:             t.Date,
	}
	if c, ok := t.Source.(currency.Converted); ok {
		amount, rate := c.Amount, c.Rate
		v.OriginalAmount = &amount
		v.Rate = &rate
	}
	return v
}

func toTransactionViews(txs []core.Transaction) []transactionView {
	out := make([]transactionView, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionView(t))
	}
	return out
}

func toWeekView(w core.WeekData) weekView {
	return weekView{
		ID:           w.ID,
		StartDate:    w.StartDate,
		EndDate:      w.EndDate,
		Income:       w.Income,
		IsClosed:     w.IsClosed,
		Summary:      ledger.Summarize(w),
		Transactions: toTransactionViews(w.Transactions),
	}
}

func toListsView(l ledger.Lists) listsView {
	return listsView{
		Planned: toTransactionViews(l.Planned),
		Done:    toTransactionViews(l.Done),
		Savings: toTransactionViews(l.Savings),
	}
}

func toStateView(s core.AppState, f ledger.Filter) stateView {
	presets := s.Presets
	if presets == nil {
		presets = []string{}
	}
	return stateView{
		CurrentWeek:  toWeekView(s.CurrentWeek),
		Lists:        toListsView(ledger.Split(s.CurrentWeek.Transactions, f)),
		TotalSavings: s.TotalSavings,
		LastOpened:   s.LastOpened,
		Presets:      presets,
		HistoryWeeks: len(s.History),
	}
}

func toReceiptView(s core.AppState, saved bool, notice string, tx *core.Transaction) receiptView {
	v := receiptView{
		Saved:        saved,
		Notice:       notice,
		Summary:      ledger.Summarize(s.CurrentWeek),
		TotalSavings: s.TotalSavings,
	}
	if tx != nil {
		tv := toTransactionView(*tx)
		v.Transaction = &tv
	}
	return v
}
