package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
	"wallet/internal/currency"
	"wallet/internal/log"
	"wallet/internal/storage"
	"wallet/internal/week"
)

// Status messages shown after a mutation.
const (
	NoticeSaved      = "ZAPISANO W PAMIĘCI LOKALNEJ"
	NoticeSaveFailed = "NIE UDAŁO SIĘ ZAPISAĆ ZMIAN"
	NoticeLoadFailed = "NIE UDAŁO SIĘ WCZYTAĆ DANYCH, ROZPOCZĘTO OD NOWA"
)

// RateSource supplies the EUR/PLN rate used for new secondary-currency amounts.
type RateSource interface {
	Rate(ctx context.Context) decimal.Decimal
}

// Receipt is the outcome of a successful mutation. A failed save does not undo
// the change in memory; it only clears Saved and sets Notice.
type Receipt struct {
	State  core.AppState
	Saved  bool
	Notice string
}

// Wallet owns the live application state. It serializes user actions,
// applies them through the week lifecycle and saves after every change.
type Wallet struct {
	mu     sync.Mutex
	state  core.AppState
	life   *week.Lifecycle
	store  storage.Store
	pub    Publisher
	rates  RateSource
	policy ClosePolicy
	logger *log.Logger
}

// WalletOption configures a Wallet.
type WalletOption func(*Wallet)

func WithLifecycle(l *week.Lifecycle) WalletOption { return func(w *Wallet) { w.life = l } }
func WithPublisher(p Publisher) WalletOption       { return func(w *Wallet) { w.pub = p } }
func WithRates(r RateSource) WalletOption          { return func(w *Wallet) { w.rates = r } }
func WithClosePolicy(p ClosePolicy) WalletOption   { return func(w *Wallet) { w.policy = p } }
func WithLogger(l *log.Logger) WalletOption        { return func(w *Wallet) { w.logger = l } }

// OpenWallet loads the snapshot from store and stamps the opening time.
// A snapshot that cannot be loaded is replaced by the first-run state; the
// returned receipt carries the notice and the error is only logged.
func OpenWallet(ctx context.Context, store storage.Store, opts ...WalletOption) (*Wallet, Receipt) {
	w := &Wallet{
		life:   week.New(),
		store:  store,
		policy: NewClosePolicy(time.Sunday),
		logger: log.Discard(),
	}
	for _, o := range opts {
		o(w)
	}
	w.logger = w.logger.WithComponent(log.ComponentWallet)

	state, err := storage.LoadOrDefault(ctx, store, w.life.Now())
	notice := ""
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to load snapshot, starting fresh",
			log.FieldOperation, log.OpLoad,
			log.FieldErrorType, log.ErrorTypePersistence,
			log.FieldError, err)
		notice = NoticeLoadFailed
	}
	if err := week.VerifySavings(state); err != nil {
		w.logger.WarnContext(ctx, "Stored total savings disagree with transactions",
			log.FieldError, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = w.life.Touch(state)
	r := w.persist(ctx, log.OpStartup)
	if notice != "" {
		r.Notice = notice
	}
	return w, r
}

// State returns the current snapshot. Operations never modify a returned
// state, so callers may keep it.
func (w *Wallet) State() core.AppState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Now returns the wallet clock's current time.
func (w *Wallet) Now() time.Time { return w.life.Now() }

// ClosePrompt tells whether the current week should be offered for closing.
func (w *Wallet) ClosePrompt() ClosePrompt {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.policy.Prompt(w.state, w.life.Now())
}

// AddTransaction creates a transaction in the current week. Secondary-currency
// drafts without a rate use the live rate.
func (w *Wallet) AddTransaction(ctx context.Context, d core.Draft) (Receipt, core.Transaction, error) {
	d.Rate = w.rateFor(ctx, d.Currency, d.Rate)
	var tx core.Transaction
	r, err := w.apply(ctx, log.OpAddTransaction, func(s core.AppState) (core.AppState, error) {
		next, t, err := w.life.AddTransaction(s, d)
		tx = t
		return next, err
	})
	if err == nil {
		w.logTransaction(ctx, "Transaction added", log.OpAddTransaction, tx)
	}
	return r, tx, err
}

// EditTransaction changes title, amount and category of a current-week transaction.
func (w *Wallet) EditTransaction(ctx context.Context, id string, e core.Edit) (Receipt, core.Transaction, error) {
	e.Rate = w.rateFor(ctx, e.Currency, e.Rate)
	var tx core.Transaction
	r, err := w.apply(ctx, log.OpEditTransaction, func(s core.AppState) (core.AppState, error) {
		next, t, err := w.life.EditTransaction(s, id, e)
		tx = t
		return next, err
	})
	if err == nil {
		w.logTransaction(ctx, "Transaction updated", log.OpEditTransaction, tx)
	}
	return r, tx, err
}

// DeleteTransaction removes a current-week transaction.
func (w *Wallet) DeleteTransaction(ctx context.Context, id string) (Receipt, error) {
	var tx core.Transaction
	r, err := w.apply(ctx, log.OpDeleteTransaction, func(s core.AppState) (core.AppState, error) {
		next, t, err := w.life.Remove(s, id)
		tx = t
		return next, err
	})
	if err == nil {
		w.logTransaction(ctx, "Transaction deleted", log.OpDeleteTransaction, tx)
	}
	return r, err
}

// ToggleConfirmed flips the done flag of a planned transaction.
func (w *Wallet) ToggleConfirmed(ctx context.Context, id string) (Receipt, core.Transaction, error) {
	var tx core.Transaction
	r, err := w.apply(ctx, log.OpToggleConfirmed, func(s core.AppState) (core.AppState, error) {
		next, t, err := w.life.ToggleConfirmed(s, id)
		tx = t
		return next, err
	})
	return r, tx, err
}

// SetIncome parses raw and assigns it as the current week's income.
func (w *Wallet) SetIncome(ctx context.Context, raw string) (Receipt, error) {
	income, err := core.ParseIncome(raw)
	if err != nil {
		return Receipt{}, err
	}
	return w.apply(ctx, log.OpSetIncome, func(s core.AppState) (core.AppState, error) {
		return w.life.SetIncome(s, income), nil
	})
}

// CloseWeek archives the current week and opens the next one. An empty or
// invalid rawIncome opens the week with zero income. The week-closed event is
// published after the state is saved; a publish failure is only logged.
func (w *Wallet) CloseWeek(ctx context.Context, rawIncome string) (Receipt, error) {
	income := core.IncomeOrZero(rawIncome)
	var closed core.WeekData
	r, err := w.apply(ctx, log.OpCloseWeek, func(s core.AppState) (core.AppState, error) {
		next := w.life.CloseWeek(s, income)
		closed = next.History[len(next.History)-1]
		return next, nil
	})
	if err != nil {
		return r, err
	}

	fields := log.NewFields().WithOperation(log.OpCloseWeek).WithWeek(closed.ID)
	w.logger.InfoContext(ctx, "Week closed",
		append(fields.ToSlice(),
			"transactions", len(closed.Transactions),
			"next_income", income.String())...)
	w.publishClosed(ctx, closed)
	return r, nil
}

// AddPreset adds a quick-entry title. The bool is false when the title was
// blank or already present; nothing is saved in that case.
func (w *Wallet) AddPreset(ctx context.Context, title string) (Receipt, bool) {
	return w.applyPreset(ctx, log.OpAddPreset, func(s core.AppState) (core.AppState, bool) {
		return w.life.AddPreset(s, title)
	})
}

// RemovePreset removes a quick-entry title.
func (w *Wallet) RemovePreset(ctx context.Context, title string) (Receipt, bool) {
	return w.applyPreset(ctx, log.OpRemovePreset, func(s core.AppState) (core.AppState, bool) {
		return w.life.RemovePreset(s, title)
	})
}

func (w *Wallet) applyPreset(ctx context.Context, op string, fn func(core.AppState) (core.AppState, bool)) (Receipt, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	next, changed := fn(w.state)
	if !changed {
		return Receipt{State: w.state}, false
	}
	w.state = next
	return w.persist(ctx, op), true
}

func (w *Wallet) apply(ctx context.Context, op string, fn func(core.AppState) (core.AppState, error)) (Receipt, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	next, err := fn(w.state)
	if err != nil {
		w.logger.WarnContext(ctx, "Operation rejected",
			log.FieldOperation, op,
			log.FieldErrorType, errorType(err),
			log.FieldError, err)
		return Receipt{}, err
	}
	w.state = next
	return w.persist(ctx, op), nil
}

// persist saves the current state. The caller must hold w.mu.
func (w *Wallet) persist(ctx context.Context, op string) Receipt {
	if err := w.store.Save(ctx, w.state); err != nil {
		w.logger.ErrorContext(ctx, "Failed to save snapshot",
			log.FieldOperation, op,
			log.FieldErrorType, log.ErrorTypePersistence,
			log.FieldError, err)
		return Receipt{State: w.state, Notice: NoticeSaveFailed}
	}
	return Receipt{State: w.state, Saved: true, Notice: NoticeSaved}
}

func (w *Wallet) publishClosed(ctx context.Context, closed core.WeekData) {
	if w.pub == nil {
		w.logger.DebugContext(ctx, "No publisher configured, skipping week closed event")
		return
	}
	closedAt := w.life.Now()
	if closed.EndDate != nil {
		closedAt = *closed.EndDate
	}
	if err := w.pub.PublishWeekClosed(ctx, closed.ID, closedAt); err != nil {
		w.logger.ErrorContext(ctx, "Failed to publish week closed event",
			log.FieldOperation, log.OpPublish,
			log.FieldWeekID, closed.ID,
			log.FieldError, err)
	}
}

func (w *Wallet) rateFor(ctx context.Context, cur currency.Currency, given decimal.Decimal) decimal.Decimal {
	if cur != currency.Secondary || given.IsPositive() || w.rates == nil {
		return given
	}
	return w.rates.Rate(ctx)
}

func (w *Wallet) logTransaction(ctx context.Context, msg, op string, t core.Transaction) {
	fields := log.NewFields().
		WithOperation(op).
		WithTransaction(t.ID, string(t.Type), t.Amount.String(), string(t.Category))
	w.logger.InfoContext(ctx, msg, fields.ToSlice()...)
}

func errorType(err error) string {
	switch {
	case errors.Is(err, core.ErrValidation):
		return log.ErrorTypeValidation
	case errors.Is(err, core.ErrNotFound):
		return log.ErrorTypeNotFound
	case errors.Is(err, core.ErrWeekClosed):
		return log.ErrorTypeConflict
	case errors.Is(err, core.ErrPersistence):
		return log.ErrorTypePersistence
	default:
		return log.ErrorTypeInternal
	}
}

// Close releases the store.
func (w *Wallet) Close() error {
	if err := w.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}
