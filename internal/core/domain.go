package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"wallet/internal/currency"
)

const (
	Planned TransactionType = "planned"
	Actual  TransactionType = "actual"
	Saving  TransactionType = "saving"

	Obligations Category = "obligations"
	Necessities Category = "necessities"
	Pleasures   Category = "pleasures"
	NoCategory  Category = "none"
)

type (
	TransactionType string

	Category string

	// Transaction is one financial event. Amount is always in the base
	// currency; Source only tells how it was entered and is never summed.
	Transaction struct {
		ID          string
		Title       string
		Amount      decimal.Decimal
		Source      currency.AmountSource
		Type        TransactionType
		Category    Category
		IsConfirmed bool
		Date        time.Time
	}

	// WeekData is one weekly budgeting period.
	WeekData struct {
		ID           string
		StartDate    time.Time
		EndDate      *time.Time
		Income       decimal.Decimal
		Transactions []Transaction // newest first
		IsClosed     bool
	}

	// AppState is the whole persisted snapshot.
	AppState struct {
		CurrentWeek WeekData
		History     []WeekData
		// TotalSavings is kept equal to the sum of every saving transaction in
		// CurrentWeek and History by each mutating operation.
		TotalSavings decimal.Decimal
		LastOpened   time.Time
		Presets      []string
	}
)

var (
	// Error classes. Specific errors below wrap one of these.
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence error")
	ErrWeekClosed  = errors.New("week is closed")

	ErrEmptyTitle          = fmt.Errorf("%w: empty title", ErrValidation)
	ErrInvalidAmount       = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrInvalidIncome       = fmt.Errorf("%w: invalid income", ErrValidation)
	ErrInvalidType         = fmt.Errorf("%w: invalid transaction type", ErrValidation)
	ErrInvalidCategory     = fmt.Errorf("%w: invalid category", ErrValidation)
	ErrInvalidCurrency     = fmt.Errorf("%w: invalid currency", ErrValidation)
	ErrTypeChanged         = fmt.Errorf("%w: transaction type is fixed at creation", ErrValidation)
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	ErrWeekNotFound        = fmt.Errorf("week %w", ErrNotFound)
)

// DefaultPresets seeds the quick-entry title list on first run.
var DefaultPresets = []string{"Zioło", "Gastro Zakupy", "Subskrypcja JetBrains"}

func (t TransactionType) IsValid() bool {
	switch t {
	case Planned, Actual, Saving:
		return true
	}
	return false
}

func (c Category) IsValid() bool {
	switch c {
	case Obligations, Necessities, Pleasures, NoCategory:
		return true
	}
	return false
}

// Categories lists the spending categories in display order.
func Categories() []Category {
	return []Category{Obligations, Necessities, Pleasures}
}

// OriginalAmount returns the value typed in the secondary currency, if any.
func (t Transaction) OriginalAmount() (decimal.Decimal, bool) {
	if c, ok := t.Source.(currency.Converted); ok {
		return c.Amount, true
	}
	return decimal.Zero, false
}

// OriginalCurrency is the currency the amount was entered in.
func (t Transaction) OriginalCurrency() currency.Currency {
	if t.Source == nil {
		return currency.Base
	}
	_, cur := t.Source.Entered()
	return cur
}

// IsSpent reports whether the transaction belongs to the week's spent bucket:
// every confirmed transaction plus actual expenses. Savings are confirmed at
// creation, so they count here as well.
func (t Transaction) IsSpent() bool {
	return t.IsConfirmed || t.Type == Actual
}

// IsExpense reports whether the transaction is an expense that went out:
// actual expenses and planned ones marked done, never savings.
func (t Transaction) IsExpense() bool {
	return t.Type != Saving && t.IsSpent()
}

// IsPending reports whether the transaction is a planned, not yet confirmed expense.
func (t Transaction) IsPending() bool {
	return t.Type == Planned && !t.IsConfirmed
}

// NewWeek opens an empty week starting at now.
func NewWeek(now time.Time, income decimal.Decimal) WeekData {
	return WeekData{
		ID:           now.UTC().Format(time.RFC3339Nano),
		StartDate:    now,
		Income:       income,
		Transactions: []Transaction{},
	}
}

// NewAppState builds the first-run snapshot: a zero-income open week, empty
// history, zero savings and the default presets.
func NewAppState(now time.Time) AppState {
	return AppState{
		CurrentWeek:  NewWeek(now, decimal.Zero),
		History:      []WeekData{},
		TotalSavings: decimal.Zero,
		LastOpened:   now,
		Presets:      append([]string(nil), DefaultPresets...),
	}
}

// FindTransaction returns the index of the transaction with id, or -1.
func (w WeekData) FindTransaction(id string) int {
	for i, t := range w.Transactions {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// FindWeek looks a week up by id in the current week and the history.
func (s AppState) FindWeek(id string) (WeekData, error) {
	if s.CurrentWeek.ID == id {
		return s.CurrentWeek, nil
	}
	for _, w := range s.History {
		if w.ID == id {
			return w, nil
		}
	}
	return WeekData{}, fmt.Errorf("%w: %s", ErrWeekNotFound, id)
}
