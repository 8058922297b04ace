package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wallet/internal/currency"
)

// Draft is the raw input for a new transaction.
type Draft struct {
	Title     string
	RawAmount string
	Currency  currency.Currency
	Type      TransactionType
	Category  Category
	Rate      decimal.Decimal
}

// Edit is the raw input for changing an existing transaction.
// Type, date, id and confirmation are not editable.
type Edit struct {
	Title     string
	RawAmount string
	Currency  currency.Currency
	Category  Category
	Rate      decimal.Decimal
}

// NewTransaction validates d and builds the transaction record.
func NewTransaction(d Draft, id string, now time.Time) (Transaction, error) {
	if !d.Type.IsValid() {
		return Transaction{}, fmt.Errorf("%w: %q", ErrInvalidType, string(d.Type))
	}
	title, err := validTitle(d.Title)
	if err != nil {
		return Transaction{}, err
	}
	amount, src, err := convert(d.RawAmount, d.Currency, d.Rate)
	if err != nil {
		return Transaction{}, err
	}
	cat, err := categoryFor(d.Type, d.Category)
	if err != nil {
		return Transaction{}, err
	}
	return Transaction{
		ID:          id,
		Title:       title,
		Amount:      amount,
		Source:      src,
		Type:        d.Type,
		Category:    cat,
		IsConfirmed: d.Type == Actual || d.Type == Saving,
		Date:        now,
	}, nil
}

// Update applies e to t and returns the new record. The id, type, date and
// confirmation state are preserved.
func (t Transaction) Update(e Edit) (Transaction, error) {
	title, err := validTitle(e.Title)
	if err != nil {
		return Transaction{}, err
	}
	amount, src, err := convert(e.RawAmount, e.Currency, e.Rate)
	if err != nil {
		return Transaction{}, err
	}
	cat, err := categoryFor(t.Type, e.Category)
	if err != nil {
		return Transaction{}, err
	}
	t.Title = title
	t.Amount = amount
	t.Source = src
	t.Category = cat
	return t, nil
}

// ToggleConfirmed flips the done flag of a planned transaction.
// Actual and saving transactions are always confirmed and are returned as is.
func (t Transaction) ToggleConfirmed() Transaction {
	if t.Type != Planned {
		return t
	}
	t.IsConfirmed = !t.IsConfirmed
	return t
}

func validTitle(title string) (string, error) {
	// Titles are stored as typed; only the emptiness check trims.
	if strings.TrimSpace(title) == "" {
		return "", ErrEmptyTitle
	}
	return title, nil
}

func convert(raw string, cur currency.Currency, rate decimal.Decimal) (decimal.Decimal, currency.AmountSource, error) {
	if cur == "" {
		cur = currency.Base
	}
	if !cur.IsValid() {
		return decimal.Zero, nil, fmt.Errorf("%w: %q", ErrInvalidCurrency, string(cur))
	}
	entered, err := ParseAmount(raw)
	if err != nil {
		return decimal.Zero, nil, err
	}
	amount, src, err := currency.ToBase(entered, cur, currency.RateOrDefault(rate))
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return amount, src, nil
}

func categoryFor(t TransactionType, c Category) (Category, error) {
	if t == Saving {
		return NoCategory, nil
	}
	if c == "" {
		return NoCategory, nil
	}
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, string(c))
	}
	return c, nil
}
