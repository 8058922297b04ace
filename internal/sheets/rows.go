package sheets

import (
	"time"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
	"wallet/internal/ledger"
)

// Row kinds in the first column.
const (
	KindWeek        = "week"
	KindTransaction = "tx"
)

const dateLayout = "2006-01-02"

// Header is the column layout written above an empty sheet.
var Header = []any{
	"Kind", "Week", "Date", "Title", "Type", "Category",
	"Amount EUR", "Original", "Currency", "Confirmed", "Income", "Spent", "Planned", "Saved", "Available",
}

// Rows lays a week out as one summary row followed by one row per transaction,
// oldest first. Amounts are fixed to two decimals so the sheet parses them as numbers.
func Rows(w core.WeekData) [][]any {
	s := ledger.Summarize(w)
	end := ""
	if w.EndDate != nil {
		end = w.EndDate.Format(dateLayout)
	}
	rows := make([][]any, 0, len(w.Transactions)+1)
	rows = append(rows, []any{
		KindWeek, w.ID, w.StartDate.Format(dateLayout), end, "", "",
		"", "", "", "",
		money(s.Income), money(s.Spent), money(s.Planned), money(s.Saved), money(s.Available),
	})
	for i := len(w.Transactions) - 1; i >= 0; i-- {
		rows = append(rows, transactionRow(w.ID, w.Transactions[i]))
	}
	return rows
}

func transactionRow(weekID string, t core.Transaction) []any {
	original := ""
	if amt, ok := t.OriginalAmount(); ok {
		original = money(amt)
	}
	return []any{
		KindTransaction, weekID, t.Date.Format(time.DateTime), t.Title, string(t.Type), string(t.Category),
		money(t.Amount), original, t.OriginalCurrency().String(), t.IsConfirmed,
		"", "", "", "", "",
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
