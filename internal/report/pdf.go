package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"

	"wallet/internal/core"
	"wallet/internal/ledger"
	"wallet/internal/period"
)

// Document is everything printed on a report page.
type Document struct {
	Title        string
	Subtitle     string
	Summary      ledger.Summary
	TotalSavings *decimal.Decimal
	Categories   []ledger.CategoryAmount
	Timeline     []ledger.Bucket
	Transactions []core.Transaction
	Insight      string
}

// FromView prepares a period view for printing.
func FromView(v period.View, insight string) Document {
	total := v.TotalSavings
	return Document{
		Title:        "Weekly wallet report",
		Subtitle:     v.Label,
		Summary:      v.Summary,
		TotalSavings: &total,
		Categories:   v.Categories,
		Timeline:     v.Timeline,
		Insight:      insight,
	}
}

// FromWeek prepares an archived week for printing, with its transaction list.
func FromWeek(w core.WeekData, insight string) Document {
	sub := "Week of " + w.StartDate.Format("2006-01-02")
	if w.EndDate != nil {
		sub += " to " + w.EndDate.Format("2006-01-02")
	}
	return Document{
		Title:        "Weekly wallet report",
		Subtitle:     sub,
		Summary:      ledger.Summarize(w),
		Categories:   ledger.CategoryTotals(w.Transactions),
		Timeline:     ledger.Timeline(ledger.DayOfWeek, w.StartDate, w.Transactions),
		Transactions: w.Transactions,
		Insight:      insight,
	}
}

var plain = strings.NewReplacer(
	"ą", "a", "ć", "c", "ę", "e", "ł", "l", "ń", "n", "ó", "o", "ś", "s", "ź", "z", "ż", "z",
	"Ą", "A", "Ć", "C", "Ę", "E", "Ł", "L", "Ń", "N", "Ó", "O", "Ś", "S", "Ź", "Z", "Ż", "Z",
)

// BuildPDF renders doc as an A4 PDF. Long transaction lists continue on new pages.
func BuildPDF(doc Document) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(plain.Replace(s)) }

	pdf.SetTitle(text(doc.Title), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, text(doc.Title))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, text(doc.Subtitle))
	pdf.Ln(12)

	s := doc.Summary
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	rows := [][2]string{
		{"Income", eur(s.Income)},
		{"Spent", eur(s.Spent)},
		{"Planned", eur(s.Planned)},
		{"Saved", eur(s.Saved)},
		{"Available", eur(s.Available)},
	}
	if doc.TotalSavings != nil {
		rows = append(rows, [2]string{"Total savings", eur(*doc.TotalSavings)})
	}
	for _, r := range rows {
		pdf.Cell(60, 7, r[0])
		pdf.Cell(40, 7, text(r[1]))
		pdf.Ln(7)
	}
	if s.Critical {
		pdf.SetTextColor(200, 30, 30)
		pdf.Cell(0, 7, "Budget exceeded")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Categories")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	spent := decimal.Zero
	for _, c := range doc.Categories {
		spent = spent.Add(c.Amount)
	}
	for _, c := range doc.Categories {
		pdf.Cell(60, 7, string(c.Category))
		pdf.Cell(40, 7, text(eur(c.Amount)))
		pdf.Cell(30, 7, share(c.Amount, spent))
		pdf.Ln(7)
	}
	pdf.Ln(4)

	if len(doc.Timeline) > 0 {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, "Timeline")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 9)
		drawBars(pdf, doc.Timeline, text)
		pdf.Ln(4)
	}

	if len(doc.Transactions) > 0 {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, "Transactions")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 10)
		for _, t := range doc.Transactions {
			status := "done"
			if t.IsPending() {
				status = "planned"
			}
			pdf.Cell(25, 6, t.Date.Format("02.01"))
			pdf.Cell(70, 6, text(truncate(t.Title, 40)))
			pdf.Cell(25, 6, string(t.Type))
			pdf.Cell(25, 6, status)
			pdf.CellFormat(30, 6, text(eur(t.Amount)), "", 0, "R", false, 0, "")
			pdf.Ln(6)
		}
		pdf.Ln(4)
	}

	if doc.Insight != "" {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, "Analysis")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, text(doc.Insight), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// drawBars prints the timeline as horizontal bars scaled to the largest bucket.
func drawBars(pdf *gofpdf.Fpdf, buckets []ledger.Bucket, text func(string) string) {
	const maxWidth = 100.0
	top := decimal.Zero
	for _, b := range buckets {
		top = decimal.Max(top, b.Amount)
	}
	for _, b := range buckets {
		pdf.Cell(15, 5, text(b.Label))
		x, y := pdf.GetXY()
		if top.IsPositive() && b.Amount.IsPositive() {
			w, _ := b.Amount.Div(top).Float64()
			pdf.SetFillColor(59, 130, 246)
			pdf.Rect(x, y+1, w*maxWidth, 3, "F")
		}
		pdf.SetX(x + maxWidth + 5)
		pdf.Cell(30, 5, text(eur(b.Amount)))
		pdf.Ln(5)
	}
}

func eur(d decimal.Decimal) string {
	return "€" + d.StringFixed(2)
}

func share(part, whole decimal.Decimal) string {
	if !whole.IsPositive() {
		return "0.0%"
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
