// Package period merges the current week and archived weeks into the
// week, month and year views used by statistics and reports.
package period

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
	"wallet/internal/ledger"
)

type Mode string

const (
	Week  Mode = "week"
	Month Mode = "month"
	Year  Mode = "year"
)

func (m Mode) IsValid() bool {
	switch m {
	case Week, Month, Year:
		return true
	}
	return false
}

// ParseMode maps an empty string to Week and rejects unknown modes.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return Week, nil
	}
	m := Mode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("%w: unknown period %q", core.ErrValidation, s)
	}
	return m, nil
}

// Granularity is the timeline bucketing that fits the mode.
func (m Mode) Granularity() ledger.Granularity {
	switch m {
	case Month:
		return ledger.DayOfMonth
	case Year:
		return ledger.MonthOfYear
	default:
		return ledger.DayOfWeek
	}
}

// Aggregate returns the view for mode at cursor.
//
// Week returns current unchanged. Month and Year select the current week and
// every history week whose start date falls in cursor's calendar month or year
// (in cursor's location) and merge them into one read-only record: incomes
// summed, transactions concatenated in selection order, start date of the
// earliest selected week (cursor when none). The result must never be passed
// to week operations.
func Aggregate(mode Mode, cursor time.Time, current core.WeekData, history []core.WeekData) core.WeekData {
	if mode == Week {
		return current
	}

	loc := cursor.Location()
	in := func(w core.WeekData) bool {
		s := w.StartDate.In(loc)
		if s.Year() != cursor.Year() {
			return false
		}
		return mode == Year || s.Month() == cursor.Month()
	}

	merged := core.WeekData{
		ID:           fmt.Sprintf("agg-%s-%d", mode, cursor.UnixMilli()),
		Income:       decimal.Zero,
		Transactions: []core.Transaction{},
	}
	var earliest *time.Time
	for _, w := range append([]core.WeekData{current}, history...) {
		if !in(w) {
			continue
		}
		merged.Income = merged.Income.Add(w.Income)
		merged.Transactions = append(merged.Transactions, w.Transactions...)
		if earliest == nil || w.StartDate.Before(*earliest) {
			s := w.StartDate
			earliest = &s
		}
	}
	merged.StartDate = cursor
	if earliest != nil {
		merged.StartDate = *earliest
	}
	return merged
}

// Navigate moves cursor by step months or years. Week mode ignores navigation.
// Month steps start from the first of the month so that the 31st never
// overflows into the following month.
func Navigate(mode Mode, cursor time.Time, step int) time.Time {
	switch mode {
	case Month:
		first := time.Date(cursor.Year(), cursor.Month(), 1, 0, 0, 0, 0, cursor.Location())
		return first.AddDate(0, step, 0)
	case Year:
		return cursor.AddDate(step, 0, 0)
	default:
		return cursor
	}
}

// View is a period ready for display.
type View struct {
	Mode       Mode                    `json:"mode"`
	Cursor     time.Time               `json:"cursor"`
	Label      string                  `json:"label"`
	Summary    ledger.Summary          `json:"summary"`
	Categories []ledger.CategoryAmount `json:"categories"`
	Timeline   []ledger.Bucket         `json:"timeline"`
	Slices     []ledger.Slice          `json:"slices"`
	// TotalSavings is the all-time savings total, shown next to the period's own.
	TotalSavings decimal.Decimal `json:"totalSavings"`
	Week         core.WeekData   `json:"-"`
}

// Build aggregates s for mode at cursor and computes every derived metric.
func Build(mode Mode, cursor time.Time, s core.AppState) View {
	w := Aggregate(mode, cursor, s.CurrentWeek, s.History)
	anchor := cursor
	if mode == Week {
		anchor = w.StartDate.In(cursor.Location())
	}
	sum := ledger.SummarizePeriod(w)
	return View{
		Mode:         mode,
		Cursor:       cursor,
		Label:        Label(mode, cursor),
		Summary:      sum,
		Categories:   ledger.CategoryTotals(w.Transactions),
		Timeline:     ledger.Timeline(mode.Granularity(), anchor, w.Transactions),
		Slices:       ledger.PieSlices(sum),
		TotalSavings: s.TotalSavings,
		Week:         w,
	}
}

var monthNames = [12]string{
	"styczeń", "luty", "marzec", "kwiecień", "maj", "czerwiec",
	"lipiec", "sierpień", "wrzesień", "październik", "listopad", "grudzień",
}

// Label names the period, e.g. "marzec 2025" or "2025".
func Label(mode Mode, cursor time.Time) string {
	switch mode {
	case Year:
		return fmt.Sprintf("%d", cursor.Year())
	case Month:
		return fmt.Sprintf("%s %d", monthNames[cursor.Month()-1], cursor.Year())
	default:
		return "bieżący tydzień"
	}
}

// ReportFilename is the download name of a period PDF.
func ReportFilename(mode Mode, cursor time.Time) string {
	switch mode {
	case Month:
		return fmt.Sprintf("raport-%d-%d.pdf", int(cursor.Month()), cursor.Year())
	case Year:
		return fmt.Sprintf("raport-%d.pdf", cursor.Year())
	default:
		return "raport-tydzien.pdf"
	}
}

// WeekReportFilename is the download name of an archived week PDF.
func WeekReportFilename(w core.WeekData) string {
	return fmt.Sprintf("tydzien-%s.pdf", w.StartDate.Format("2006-01-02"))
}
