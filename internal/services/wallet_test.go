package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet/internal/core"
	"wallet/internal/currency"
	"wallet/internal/storage"
	"wallet/internal/week"
)

var t0 = time.Date(2024, 3, 3, 18, 0, 0, 0, time.UTC) // a Sunday

// flakyStore wraps a MemoryStore and fails saves or loads on demand.
type flakyStore struct {
	*storage.MemoryStore
	mu       sync.Mutex
	saveErr  error
	loadErr  error
	saves    int
	closeErr error
}

func newFlakyStore() *flakyStore { return &flakyStore{MemoryStore: storage.NewMemoryStore()} }

func (f *flakyStore) Save(ctx context.Context, s core.AppState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.MemoryStore.Save(ctx, s)
}

func (f *flakyStore) Load(ctx context.Context) (core.AppState, error) {
	if f.loadErr != nil {
		return core.AppState{}, f.loadErr
	}
	return f.MemoryStore.Load(ctx)
}

func (f *flakyStore) Close() error { return f.closeErr }

type recordingPublisher struct {
	mu    sync.Mutex
	weeks []string
	err   error
}

func (p *recordingPublisher) PublishWeekClosed(_ context.Context, weekID string, _ time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.weeks = append(p.weeks, weekID)
	return nil
}

type fixedRate string

func (r fixedRate) Rate(context.Context) decimal.Decimal { return decimal.RequireFromString(string(r)) }

func clock(start time.Time) func() time.Time {
	now := start
	return func() time.Time { now = now.Add(time.Minute); return now }
}

func lifecycle() *week.Lifecycle {
	n := 0
	return week.New(
		week.WithClock(clock(t0)),
		week.WithIDs(func() string { n++; return fmt.Sprintf("tx-%d", n) }),
	)
}

func openTest(t *testing.T, st storage.Store, opts ...WalletOption) *Wallet {
	t.Helper()
	w, r := OpenWallet(context.Background(), st, append([]WalletOption{WithLifecycle(lifecycle())}, opts...)...)
	require.NotNil(t, w)
	require.NotEqual(t, NoticeLoadFailed, r.Notice)
	return w
}

func TestOpenWallet_FirstRunSavesDefaults(t *testing.T) {
	st := newFlakyStore()
	w, r := OpenWallet(context.Background(), st, WithLifecycle(lifecycle()))

	assert.True(t, r.Saved)
	assert.Equal(t, NoticeSaved, r.Notice)
	assert.Equal(t, core.DefaultPresets, w.State().Presets)
	assert.True(t, w.State().LastOpened.After(t0))

	loaded, err := st.MemoryStore.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, w.State().CurrentWeek.ID, loaded.CurrentWeek.ID)
}

func TestOpenWallet_LoadFailureStartsFresh(t *testing.T) {
	st := newFlakyStore()
	st.loadErr = fmt.Errorf("%w: corrupt", core.ErrPersistence)

	w, r := OpenWallet(context.Background(), st, WithLifecycle(lifecycle()))
	assert.Equal(t, NoticeLoadFailed, r.Notice)
	assert.Empty(t, w.State().History)
	assert.True(t, w.State().TotalSavings.IsZero())
}

func TestOpenWallet_KeepsSavedState(t *testing.T) {
	st := newFlakyStore()
	w := openTest(t, st)
	_, err := w.SetIncome(context.Background(), "320")
	require.NoError(t, err)

	again := openTest(t, st)
	assert.True(t, again.State().CurrentWeek.Income.Equal(decimal.NewFromInt(320)))
}

func TestWallet_TransactionFlow(t *testing.T) {
	ctx := context.Background()
	w := openTest(t, newFlakyStore())

	r, rent, err := w.AddTransaction(ctx, core.Draft{Title: "Czynsz", RawAmount: "300", Type: core.Planned, Category: core.Obligations})
	require.NoError(t, err)
	assert.True(t, r.Saved)
	assert.False(t, rent.IsConfirmed)

	_, rent, err = w.ToggleConfirmed(ctx, rent.ID)
	require.NoError(t, err)
	assert.True(t, rent.IsConfirmed)

	_, piggy, err := w.AddTransaction(ctx, core.Draft{Title: "Skarbonka", RawAmount: "50", Type: core.Saving})
	require.NoError(t, err)
	assert.True(t, w.State().TotalSavings.Equal(decimal.NewFromInt(50)))

	_, piggy, err = w.EditTransaction(ctx, piggy.ID, core.Edit{Title: "Skarbonka", RawAmount: "30"})
	require.NoError(t, err)
	assert.True(t, piggy.Amount.Equal(decimal.NewFromInt(30)))
	assert.True(t, w.State().TotalSavings.Equal(decimal.NewFromInt(30)))

	r, err = w.DeleteTransaction(ctx, piggy.ID)
	require.NoError(t, err)
	assert.True(t, r.State.TotalSavings.IsZero())
	assert.Len(t, r.State.CurrentWeek.Transactions, 1)
	require.NoError(t, week.VerifySavings(w.State()))
}

func TestWallet_RejectedOperationsKeepState(t *testing.T) {
	ctx := context.Background()
	st := newFlakyStore()
	w := openTest(t, st)
	before := w.State()
	saves := st.saves

	_, _, err := w.AddTransaction(ctx, core.Draft{Title: " ", RawAmount: "1", Type: core.Actual})
	assert.ErrorIs(t, err, core.ErrEmptyTitle)
	_, _, err = w.AddTransaction(ctx, core.Draft{Title: "x", RawAmount: "-1", Type: core.Actual})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	_, err = w.DeleteTransaction(ctx, "nope")
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, _, err = w.ToggleConfirmed(ctx, "nope")
	assert.ErrorIs(t, err, core.ErrTransactionNotFound)
	_, err = w.SetIncome(ctx, "-5")
	assert.ErrorIs(t, err, core.ErrInvalidIncome)

	assert.Equal(t, before, w.State())
	assert.Equal(t, saves, st.saves)
}

func TestWallet_SaveFailureKeepsChange(t *testing.T) {
	ctx := context.Background()
	st := newFlakyStore()
	w := openTest(t, st)
	st.saveErr = errors.New("disk full")

	r, tx, err := w.AddTransaction(ctx, core.Draft{Title: "Kawa", RawAmount: "4", Type: core.Actual})
	require.NoError(t, err)
	assert.False(t, r.Saved)
	assert.Equal(t, NoticeSaveFailed, r.Notice)
	assert.Equal(t, tx.ID, w.State().CurrentWeek.Transactions[0].ID)
}

func TestWallet_SecondaryCurrencyUsesLiveRate(t *testing.T) {
	ctx := context.Background()
	w := openTest(t, newFlakyStore(), WithRates(fixedRate("4.00")))

	_, tx, err := w.AddTransaction(ctx, core.Draft{Title: "Pierogi", RawAmount: "20", Currency: currency.PLN, Type: core.Actual})
	require.NoError(t, err)
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(5)), tx.Amount.String())

	_, tx, err = w.AddTransaction(ctx, core.Draft{Title: "Pierogi", RawAmount: "20", Currency: currency.PLN, Rate: decimal.NewFromInt(5), Type: core.Actual})
	require.NoError(t, err)
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(4)), "explicit rate wins")
}

func TestWallet_CloseWeekPublishes(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	w := openTest(t, newFlakyStore(), WithPublisher(pub))
	first := w.State().CurrentWeek.ID

	r, err := w.CloseWeek(ctx, "150,50")
	require.NoError(t, err)
	require.Len(t, r.State.History, 1)
	assert.Equal(t, first, r.State.History[0].ID)
	assert.True(t, r.State.History[0].IsClosed)
	assert.True(t, r.State.CurrentWeek.Income.Equal(decimal.RequireFromString("150.5")))
	assert.Equal(t, []string{first}, pub.weeks)

	r, err = w.CloseWeek(ctx, "")
	require.NoError(t, err)
	assert.Len(t, r.State.History, 2)
	assert.True(t, r.State.CurrentWeek.Income.IsZero())
}

func TestWallet_CloseWeekPublishFailureIsNotFatal(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	w := openTest(t, newFlakyStore(), WithPublisher(pub))

	r, err := w.CloseWeek(context.Background(), "100")
	require.NoError(t, err)
	assert.True(t, r.Saved)
	assert.Len(t, w.State().History, 1)
}

func TestWallet_Presets(t *testing.T) {
	ctx := context.Background()
	st := newFlakyStore()
	w := openTest(t, st)

	r, ok := w.AddPreset(ctx, "  Kino ")
	assert.True(t, ok)
	assert.Contains(t, r.State.Presets, "Kino")

	saves := st.saves
	_, ok = w.AddPreset(ctx, "Kino")
	assert.False(t, ok)
	_, ok = w.AddPreset(ctx, "   ")
	assert.False(t, ok)
	assert.Equal(t, saves, st.saves)

	r, ok = w.RemovePreset(ctx, "Kino")
	assert.True(t, ok)
	assert.NotContains(t, r.State.Presets, "Kino")
	_, ok = w.RemovePreset(ctx, "Kino")
	assert.False(t, ok)
}

func TestWallet_ClosePrompt(t *testing.T) {
	st := newFlakyStore()
	w := openTest(t, st)
	_, err := w.SetIncome(context.Background(), "200")
	require.NoError(t, err)

	// the wallet opened minutes ago on a Sunday
	p := w.ClosePrompt()
	assert.False(t, p.Due)
	assert.True(t, p.SuggestedIncome.Equal(decimal.NewFromInt(200)))

	// a week later, reopened from the same store
	w2, _ := OpenWallet(context.Background(), st,
		WithLifecycle(week.New(week.WithClock(clock(t0.AddDate(0, 0, 7))))))
	assert.True(t, w2.ClosePrompt().Due)
}

func TestWallet_ConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	w, _ := OpenWallet(ctx, newFlakyStore())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			typ := core.Actual
			if i%2 == 0 {
				typ = core.Saving
			}
			_, _, err := w.AddTransaction(ctx, core.Draft{Title: "t", RawAmount: "1", Type: typ})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	s := w.State()
	assert.Len(t, s.CurrentWeek.Transactions, 20)
	assert.True(t, s.TotalSavings.Equal(decimal.NewFromInt(10)))
}

func TestWallet_Close(t *testing.T) {
	st := newFlakyStore()
	w := openTest(t, st)
	require.NoError(t, w.Close())
	st.closeErr = errors.New("busy")
	assert.Error(t, w.Close())
}
