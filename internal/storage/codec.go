package storage

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"wallet/internal/core"
	"wallet/internal/currency"
	"wallet/internal/week"
)

// The snapshot is one JSON document. Field names follow the layout the
// browser build of the wallet stored, so its exports can be imported as is.
type (
	snapshotJSON struct {
		CurrentWeek  weekJSON         `json:"currentWeek"`
		History      []weekJSON       `json:"history"`
		TotalSavings *decimal.Decimal `json:"totalSavings,omitempty"`
		LastOpened   time.Time        `json:"lastOpened"`
		Presets      []string         `json:"presets"`
	}

	weekJSON struct {
		ID           string            `json:"id"`
		StartDate    time.Time         `json:"startDate"`
		EndDate      *time.Time        `json:"endDate"`
		Income       decimal.Decimal   `json:"income"`
		Transactions []transactionJSON `json:"transactions"`
		IsClosed     bool              `json:"isClosed"`
	}

	transactionJSON struct {
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
)

// EncodeSnapshot serializes s.
func EncodeSnapshot(s core.AppState) ([]byte, error) {
	total := s.TotalSavings
	out := snapshotJSON{
		CurrentWeek:  encodeWeek(s.CurrentWeek),
		History:      make([]weekJSON, 0, len(s.History)),
		TotalSavings: &total,
		LastOpened:   s.LastOpened,
		Presets:      s.Presets,
	}
	if out.Presets == nil {
		out.Presets = []string{}
	}
	for _, w := range s.History {
		out.History = append(out.History, encodeWeek(w))
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// DecodeSnapshot parses a snapshot. Snapshots written before savings or
// presets existed are accepted: a missing savings total is recomputed from
// the saving transactions and missing presets fall back to the defaults.
func DecodeSnapshot(b []byte) (core.AppState, error) {
	var in snapshotJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return core.AppState{}, fmt.Errorf("%w: decode snapshot: %v", core.ErrPersistence, err)
	}
	if in.CurrentWeek.ID == "" || in.CurrentWeek.StartDate.IsZero() {
		return core.AppState{}, fmt.Errorf("%w: decode snapshot: missing current week", core.ErrPersistence)
	}

	s := core.AppState{
		CurrentWeek: decodeWeek(in.CurrentWeek),
		History:     make([]core.WeekData, 0, len(in.History)),
		LastOpened:  in.LastOpened,
		Presets:     in.Presets,
	}
	for _, w := range in.History {
		s.History = append(s.History, decodeWeek(w))
	}
	if s.Presets == nil {
		s.Presets = append([]string(nil), core.DefaultPresets...)
	}
	if in.TotalSavings != nil {
		s.TotalSavings = *in.TotalSavings
	} else {
		s.TotalSavings = week.RecomputeSavings(s)
	}
	return s, nil
}

func encodeWeek(w core.WeekData) weekJSON {
	out := weekJSON{
		ID:           w.ID,
		StartDate:    w.StartDate,
		EndDate:      w.EndDate,
		Income:       w.Income,
		Transactions: make([]transactionJSON, 0, len(w.Transactions)),
		IsClosed:     w.IsClosed,
	}
	for _, t := range w.Transactions {
		out.Transactions = append(out.Transactions, encodeTransaction(t))
	}
	return out
}

func decodeWeek(w weekJSON) core.WeekData {
	out := core.WeekData{
		ID:           w.ID,
		StartDate:    w.StartDate,
		EndDate:      w.EndDate,
		Income:       w.Income,
		Transactions: make([]core.Transaction, 0, len(w.Transactions)),
		IsClosed:     w.IsClosed,
	}
	for _, t := range w.Transactions {
		out.Transactions = append(out.Transactions, decodeTransaction(t))
	}
	return out
}

func encodeTransaction(t core.Transaction) transactionJSON {
	out := transactionJSON{
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
		out.OriginalAmount = &amount
		out.Rate = &rate
	}
	return out
}

func decodeTransaction(t transactionJSON) core.Transaction {
	out := core.Transaction{
		ID:          t.ID,
		Title:       t.Title,
		Amount:      t.Amount,
		Type:        core.TransactionType(t.Type),
		Category:    core.Category(t.Category),
		IsConfirmed: t.IsConfirmed,
		Date:        t.Date,
	}
	if out.Category == "" {
		out.Category = core.NoCategory
	}
	out.Source = currency.Direct{Amount: t.Amount}

	cur := currency.Currency(t.OriginalCurrency)
	if t.OriginalAmount == nil || cur == "" || cur == currency.Base {
		return out
	}
	rate := decimal.Zero
	if t.Rate != nil {
		rate = *t.Rate
	}
	// Older snapshots did not store the rate; derive it from both amounts.
	if !rate.IsPositive() && t.Amount.IsPositive() {
		rate = t.OriginalAmount.Div(t.Amount)
	}
	out.Source = currency.Converted{Amount: *t.OriginalAmount, Currency: cur, Rate: rate}
	return out
}
