// Package week applies user actions to the application snapshot.
//
// Each operation takes the current core.AppState and returns a new one; the
// input state is never modified, including its transaction slices. On error
// the returned state is the zero value and the caller keeps its old state.
// Every operation that touches a saving transaction adjusts TotalSavings by
// the exact delta so that it always equals the sum of all saving amounts in
// the current week and the history.
package week

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"wallet/internal/core"
)

// Clock returns the current time.
type Clock func() time.Time

// IDSource returns a new transaction id.
type IDSource func() string

// Lifecycle holds the collaborators the operations need: a clock for dates and
// an id source for new transactions.
type Lifecycle struct {
	now   Clock
	newID IDSource
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithClock overrides time.Now.
func WithClock(c Clock) Option {
	return func(l *Lifecycle) { l.now = c }
}

// WithIDs overrides the UUIDv7 id source.
func WithIDs(ids IDSource) Option {
	return func(l *Lifecycle) { l.newID = ids }
}

// New returns a Lifecycle using the wall clock and time-ordered UUIDs.
func New(opts ...Option) *Lifecycle {
	l := &Lifecycle{now: time.Now, newID: newUUID}
	for _, o := range opts {
		o(l)
	}
	return l
}

func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Now returns the lifecycle clock's current time.
func (l *Lifecycle) Now() time.Time { return l.now() }

// AddTransaction builds a transaction from d and prepends it to the current week.
func (l *Lifecycle) AddTransaction(s core.AppState, d core.Draft) (core.AppState, core.Transaction, error) {
	if s.CurrentWeek.IsClosed {
		return core.AppState{}, core.Transaction{}, core.ErrWeekClosed
	}
	t, err := core.NewTransaction(d, l.newID(), l.now())
	if err != nil {
		return core.AppState{}, core.Transaction{}, err
	}

	txs := make([]core.Transaction, 0, len(s.CurrentWeek.Transactions)+1)
	txs = append(txs, t)
	txs = append(txs, s.CurrentWeek.Transactions...)
	s.CurrentWeek.Transactions = txs
	if t.Type == core.Saving {
		s.TotalSavings = s.TotalSavings.Add(t.Amount)
	}
	return s, t, nil
}

// UpdateTransaction replaces the current-week transaction with updated.ID by
// updated, keeping its position. The type of a transaction cannot change.
func (l *Lifecycle) UpdateTransaction(s core.AppState, updated core.Transaction) (core.AppState, error) {
	if s.CurrentWeek.IsClosed {
		return core.AppState{}, core.ErrWeekClosed
	}
	i := s.CurrentWeek.FindTransaction(updated.ID)
	if i < 0 {
		return core.AppState{}, fmt.Errorf("%w: %s", core.ErrTransactionNotFound, updated.ID)
	}
	existing := s.CurrentWeek.Transactions[i]
	if existing.Type != updated.Type {
		return core.AppState{}, fmt.Errorf("%w: %s to %s", core.ErrTypeChanged, existing.Type, updated.Type)
	}

	s.CurrentWeek.Transactions = slices.Clone(s.CurrentWeek.Transactions)
	s.CurrentWeek.Transactions[i] = updated
	if updated.Type == core.Saving {
		s.TotalSavings = s.TotalSavings.Add(updated.Amount.Sub(existing.Amount))
	}
	return s, nil
}

// EditTransaction applies e to the current-week transaction id through
// core.Transaction.Update and stores the result with UpdateTransaction.
func (l *Lifecycle) EditTransaction(s core.AppState, id string, e core.Edit) (core.AppState, core.Transaction, error) {
	i := s.CurrentWeek.FindTransaction(id)
	if i < 0 {
		return core.AppState{}, core.Transaction{}, fmt.Errorf("%w: %s", core.ErrTransactionNotFound, id)
	}
	updated, err := s.CurrentWeek.Transactions[i].Update(e)
	if err != nil {
		return core.AppState{}, core.Transaction{}, err
	}
	next, err := l.UpdateTransaction(s, updated)
	if err != nil {
		return core.AppState{}, core.Transaction{}, err
	}
	return next, updated, nil
}

// DeleteTransaction removes the current-week transaction id. When typ is
// saving, TotalSavings is decreased by amount, the amount the caller saw
// before deleting.
func (l *Lifecycle) DeleteTransaction(s core.AppState, id string, typ core.TransactionType, amount decimal.Decimal) (core.AppState, error) {
	if s.CurrentWeek.IsClosed {
		return core.AppState{}, core.ErrWeekClosed
	}
	i := s.CurrentWeek.FindTransaction(id)
	if i < 0 {
		return core.AppState{}, fmt.Errorf("%w: %s", core.ErrTransactionNotFound, id)
	}
	s.CurrentWeek.Transactions = slices.Delete(slices.Clone(s.CurrentWeek.Transactions), i, i+1)
	if typ == core.Saving {
		s.TotalSavings = s.TotalSavings.Sub(amount)
	}
	return s, nil
}

// Remove deletes the transaction id using its stored type and amount.
func (l *Lifecycle) Remove(s core.AppState, id string) (core.AppState, core.Transaction, error) {
	i := s.CurrentWeek.FindTransaction(id)
	if i < 0 {
		return core.AppState{}, core.Transaction{}, fmt.Errorf("%w: %s", core.ErrTransactionNotFound, id)
	}
	t := s.CurrentWeek.Transactions[i]
	next, err := l.DeleteTransaction(s, t.ID, t.Type, t.Amount)
	return next, t, err
}

// ToggleConfirmed flips the done flag of the planned transaction id.
func (l *Lifecycle) ToggleConfirmed(s core.AppState, id string) (core.AppState, core.Transaction, error) {
	if s.CurrentWeek.IsClosed {
		return core.AppState{}, core.Transaction{}, core.ErrWeekClosed
	}
	i := s.CurrentWeek.FindTransaction(id)
	if i < 0 {
		return core.AppState{}, core.Transaction{}, fmt.Errorf("%w: %s", core.ErrTransactionNotFound, id)
	}
	s.CurrentWeek.Transactions = slices.Clone(s.CurrentWeek.Transactions)
	t := s.CurrentWeek.Transactions[i].ToggleConfirmed()
	s.CurrentWeek.Transactions[i] = t
	return s, t, nil
}

// SetIncome assigns the current week's income. income must already be
// validated as non-negative, e.g. with core.ParseIncome.
func (l *Lifecycle) SetIncome(s core.AppState, income decimal.Decimal) core.AppState {
	s.CurrentWeek.Income = income
	return s
}

// CloseWeek archives the current week and opens a new one with newIncome.
// It does not check whether closing is due; calling it twice archives two weeks.
func (l *Lifecycle) CloseWeek(s core.AppState, newIncome decimal.Decimal) core.AppState {
	now := l.now()
	closed := s.CurrentWeek
	end := now
	closed.EndDate = &end
	closed.IsClosed = true

	history := make([]core.WeekData, 0, len(s.History)+1)
	history = append(history, s.History...)
	s.History = append(history, closed)
	if newIncome.IsNegative() {
		newIncome = decimal.Zero
	}
	s.CurrentWeek = core.NewWeek(now, newIncome)
	s.CurrentWeek.ID = uniqueWeekID(s.CurrentWeek.ID, s.History)
	return s
}

// uniqueWeekID suffixes id when an archived week already uses it, which
// happens when two closes share a clock instant.
func uniqueWeekID(id string, history []core.WeekData) string {
	taken := func(c string) bool {
		return slices.ContainsFunc(history, func(w core.WeekData) bool { return w.ID == c })
	}
	candidate := id
	for n := 2; taken(candidate); n++ {
		candidate = fmt.Sprintf("%s-%d", id, n)
	}
	return candidate
}

// Touch records now as the last time the application was opened.
func (l *Lifecycle) Touch(s core.AppState) core.AppState {
	s.LastOpened = l.now()
	return s
}

// AddPreset adds a trimmed quick-entry title. Blank and duplicate titles are ignored.
func (l *Lifecycle) AddPreset(s core.AppState, title string) (core.AppState, bool) {
	title = strings.TrimSpace(title)
	if title == "" || slices.Contains(s.Presets, title) {
		return s, false
	}
	presets := make([]string, 0, len(s.Presets)+1)
	presets = append(presets, s.Presets...)
	s.Presets = append(presets, title)
	return s, true
}

// RemovePreset removes a quick-entry title if present.
func (l *Lifecycle) RemovePreset(s core.AppState, title string) (core.AppState, bool) {
	i := slices.Index(s.Presets, title)
	if i < 0 {
		return s, false
	}
	s.Presets = slices.Delete(slices.Clone(s.Presets), i, i+1)
	return s, true
}
