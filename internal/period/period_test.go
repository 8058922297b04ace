package period

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet/internal/core"
	"wallet/internal/ledger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func week(id string, start time.Time, income string, txs ...core.Transaction) core.WeekData {
	return core.WeekData{ID: id, StartDate: start, Income: d(income), Transactions: txs}
}

func spend(id, amount string, at time.Time) core.Transaction {
	return core.Transaction{ID: id, Title: id, Amount: d(amount), Type: core.Actual, Category: core.Necessities, IsConfirmed: true, Date: at}
}

var (
	march = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	feb   = time.Date(2025, 2, 17, 9, 0, 0, 0, time.UTC)
)

func fixture() (core.WeekData, []core.WeekData) {
	current := week("mar", march, "100", spend("m1", "30", march))
	history := []core.WeekData{
		week("feb", feb, "80", spend("f1", "20", feb), spend("f2", "5", feb)),
	}
	return current, history
}

func TestAggregateWeekIsIdentity(t *testing.T) {
	current, history := fixture()
	got := Aggregate(Week, feb, current, history)
	assert.Equal(t, current, got)
}

func TestAggregateMonth(t *testing.T) {
	current, history := fixture()
	got := Aggregate(Month, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), current, history)

	assert.True(t, got.Income.Equal(d("100")))
	require.Len(t, got.Transactions, 1)
	assert.Equal(t, "m1", got.Transactions[0].ID)
	assert.Equal(t, march, got.StartDate)
	assert.Nil(t, got.EndDate)
	assert.False(t, got.IsClosed)
	assert.Equal(t, "agg-month-1740787200000", got.ID)
}

func TestAggregateYear(t *testing.T) {
	current, history := fixture()
	got := Aggregate(Year, march, current, history)

	assert.True(t, got.Income.Equal(d("180")))
	require.Len(t, got.Transactions, 3)
	assert.Equal(t, []string{"m1", "f1", "f2"}, []string{got.Transactions[0].ID, got.Transactions[1].ID, got.Transactions[2].ID})
	assert.Equal(t, feb, got.StartDate, "earliest selected week")
}

func TestAggregateEmptyPeriod(t *testing.T) {
	current, history := fixture()
	cursor := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	got := Aggregate(Month, cursor, current, history)
	assert.True(t, got.Income.IsZero())
	assert.Empty(t, got.Transactions)
	assert.Equal(t, cursor, got.StartDate)
}

func TestAggregateDoesNotAliasInputs(t *testing.T) {
	current, history := fixture()
	got := Aggregate(Year, march, current, history)
	got.Transactions[0].Title = "changed"
	assert.Equal(t, "m1", current.Transactions[0].Title)
}

func TestNavigate(t *testing.T) {
	jan31 := time.Date(2025, 1, 31, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), Navigate(Month, jan31, 1))
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), Navigate(Month, jan31, -1))
	assert.Equal(t, 2026, Navigate(Year, jan31, 1).Year())
	assert.Equal(t, jan31, Navigate(Week, jan31, 5))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, Week, m)
	m, err = ParseMode("year")
	require.NoError(t, err)
	assert.Equal(t, Year, m)
	_, err = ParseMode("decade")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestGranularity(t *testing.T) {
	assert.Equal(t, ledger.DayOfWeek, Week.Granularity())
	assert.Equal(t, ledger.DayOfMonth, Month.Granularity())
	assert.Equal(t, ledger.MonthOfYear, Year.Granularity())
}

func TestBuild(t *testing.T) {
	current, history := fixture()
	s := core.AppState{CurrentWeek: current, History: history, TotalSavings: d("42")}

	v := Build(Month, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), s)
	assert.Equal(t, "luty 2025", v.Label)
	assert.True(t, v.Summary.Spent.Equal(d("25")))
	assert.True(t, v.Summary.Available.Equal(d("55")))
	assert.Len(t, v.Timeline, 28)
	assert.True(t, v.Timeline[16].Amount.Equal(d("25")))
	assert.True(t, v.TotalSavings.Equal(d("42")))
	require.NotEmpty(t, v.Categories)
	assert.Equal(t, core.Necessities, v.Categories[0].Category)

	wv := Build(Week, feb, s)
	assert.Len(t, wv.Timeline, 7)
	assert.True(t, wv.Summary.Income.Equal(d("100")))
}

func TestFilenames(t *testing.T) {
	assert.Equal(t, "raport-tydzien.pdf", ReportFilename(Week, march))
	assert.Equal(t, "raport-3-2025.pdf", ReportFilename(Month, march))
	assert.Equal(t, "raport-2025.pdf", ReportFilename(Year, march))
	assert.Equal(t, "tydzien-2025-02-17.pdf", WeekReportFilename(week("w", feb, "0")))
	assert.Equal(t, "2025", Label(Year, march))
}
