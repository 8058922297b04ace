// Package http serves the wallet's JSON API.
//
// This file decodes request bodies and query parameters into wallet inputs.
package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"wallet/internal/core"
	"wallet/internal/currency"
	"wallet/internal/ledger"
	"wallet/internal/period"
)

const maxBodyBytes = 64 << 10

var errBadRequest = errors.New("malformed request body")

// rawAmount keeps an amount exactly as typed. JSON strings and numbers are
// both accepted so that "12,50" and 12.5 reach the same parser.
type rawAmount string

func (a *rawAmount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch {
	case s == "null":
		*a = ""
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*a = rawAmount(str)
	default:
		*a = rawAmount(s)
	}
	return nil
}

type (
	transactionRequest struct {
		Title    string    `json:"title"`
		Amount   rawAmount `json:"amount"`
		Currency string    `json:"currency"`
		Type     string    `json:"type"`
		Category string    `json:"category"`
		Rate     rawAmount `json:"rate"`
	}

	incomeRequest struct {
		Income rawAmount `json:"income"`
	}

	closeWeekRequest struct {
		NextIncome rawAmount `json:"nextIncome"`
	}

	presetRequest struct {
		Title string `json:"title"`
	}
)

// decodeJSON reads at most maxBodyBytes into v. An empty body leaves v unchanged.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (t transactionRequest) currency() currency.Currency {
	c := strings.ToUpper(strings.TrimSpace(t.Currency))
	if c == "" {
		return currency.Base
	}
	return currency.Currency(c)
}

// rate parses the optional exchange rate. Blank means "use the live rate".
func (t transactionRequest) rate() (decimal.Decimal, error) {
	s := strings.TrimSpace(string(t.Rate))
	if s == "" {
		return decimal.Zero, nil
	}
	r, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil || !r.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: invalid exchange rate %q", core.ErrValidation, s)
	}
	return r, nil
}

func (t transactionRequest) draft() (core.Draft, error) {
	rate, err := t.rate()
	if err != nil {
		return core.Draft{}, err
	}
	return core.Draft{
		Title:     sanitizeInput(t.Title),
		RawAmount: string(t.Amount),
		Currency:  t.currency(),
		Type:      core.TransactionType(strings.TrimSpace(t.Type)),
		Category:  core.Category(strings.TrimSpace(t.Category)),
		Rate:      rate,
	}, nil
}

func (t transactionRequest) edit() (core.Edit, error) {
	rate, err := t.rate()
	if err != nil {
		return core.Edit{}, err
	}
	return core.Edit{
		Title:     sanitizeInput(t.Title),
		RawAmount: string(t.Amount),
		Currency:  t.currency(),
		Category:  core.Category(strings.TrimSpace(t.Category)),
		Rate:      rate,
	}, nil
}

// ParseFilter reads the category and type list filters. Empty values match all.
func ParseFilter(query url.Values) (ledger.Filter, error) {
	f := ledger.Filter{
		Category: core.Category(strings.TrimSpace(query.Get("category"))),
		Type:     ledger.TypeFilter(strings.TrimSpace(query.Get("type"))),
	}
	if f.Category != "" && !f.Category.IsValid() {
		return ledger.Filter{}, fmt.Errorf("%w: %q", core.ErrInvalidCategory, string(f.Category))
	}
	switch f.Type {
	case "", ledger.AllTypes, ledger.OnlyPlanned, ledger.OnlyActual:
	default:
		return ledger.Filter{}, fmt.Errorf("%w: %q", core.ErrInvalidType, string(f.Type))
	}
	return f, nil
}

// PeriodParams selects a statistics period.
type PeriodParams struct {
	Mode   period.Mode
	Cursor time.Time
}

// ParsePeriodParams reads mode, cursor and step. The cursor accepts
// YYYY-MM-DD, YYYY-MM or YYYY and defaults to now; step moves it by whole
// months or years.
func ParsePeriodParams(query url.Values, now time.Time) (PeriodParams, error) {
	mode, err := period.ParseMode(strings.TrimSpace(query.Get("mode")))
	if err != nil {
		return PeriodParams{}, err
	}
	cursor := now
	if v := strings.TrimSpace(query.Get("cursor")); v != "" {
		cursor, err = parseCursor(v, now.Location())
		if err != nil {
			return PeriodParams{}, err
		}
	}
	if v := strings.TrimSpace(query.Get("step")); v != "" {
		step, err := strconv.Atoi(v)
		if err != nil {
			return PeriodParams{}, fmt.Errorf("%w: invalid step %q", core.ErrValidation, v)
		}
		cursor = period.Navigate(mode, cursor, step)
	}
	return PeriodParams{Mode: mode, Cursor: cursor}, nil
}

func parseCursor(v string, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid cursor %q", core.ErrValidation, v)
}
