package ledger

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
)

// Granularity selects how Timeline buckets transactions.
type Granularity string

const (
	DayOfWeek   Granularity = "day-of-week"
	DayOfMonth  Granularity = "day-of-month"
	MonthOfYear Granularity = "month-of-year"
)

var (
	weekdayLabels = [7]string{"Pn", "Wt", "Śr", "Cz", "Pt", "So", "Nd"}
	monthLabels   = [12]string{"Sty", "Lut", "Mar", "Kwi", "Maj", "Cze", "Lip", "Sie", "Wrz", "Paź", "Lis", "Gru"}
)

// Bucket is one point of the spending timeline.
type Bucket struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// Timeline sums expenses into buckets.
//
// DayOfWeek yields seven buckets Monday to Sunday, DayOfMonth one bucket per
// day of anchor's month and MonthOfYear twelve buckets January to December.
// Transaction dates are read in anchor's location. Pending planned
// transactions and savings never appear. An unknown granularity yields nil.
func Timeline(g Granularity, anchor time.Time, txs []core.Transaction) []Bucket {
	var (
		buckets []Bucket
		index   func(time.Time) int
	)
	switch g {
	case DayOfWeek:
		buckets = make([]Bucket, len(weekdayLabels))
		for i, l := range weekdayLabels {
			buckets[i].Label = l
		}
		index = func(d time.Time) int { return (int(d.Weekday()) + 6) % 7 }
	case DayOfMonth:
		n := DaysIn(anchor)
		buckets = make([]Bucket, n)
		for i := range buckets {
			buckets[i].Label = strconv.Itoa(i + 1)
		}
		index = func(d time.Time) int { return d.Day() - 1 }
	case MonthOfYear:
		buckets = make([]Bucket, len(monthLabels))
		for i, l := range monthLabels {
			buckets[i].Label = l
		}
		index = func(d time.Time) int { return int(d.Month()) - 1 }
	default:
		return nil
	}
	for i := range buckets {
		buckets[i].Amount = decimal.Zero
	}

	loc := anchor.Location()
	for _, t := range txs {
		if !t.IsExpense() {
			continue
		}
		i := index(t.Date.In(loc))
		if i < 0 || i >= len(buckets) {
			continue
		}
		buckets[i].Amount = buckets[i].Amount.Add(t.Amount)
	}
	return buckets
}

// DaysIn returns the number of days in the month of t.
func DaysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
