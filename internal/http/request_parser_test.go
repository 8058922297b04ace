package http

import (
	"net/url"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet/internal/core"
	"wallet/internal/currency"
	"wallet/internal/ledger"
	"wallet/internal/period"
)

func TestRawAmountAcceptsStringsAndNumbers(t *testing.T) {
	tests := []struct {
		in   string
		want rawAmount
	}{
		{`{"amount":"12,50"}`, "12,50"},
		{`{"amount":12.5}`, "12.5"},
		{`{"amount":null}`, ""},
		{`{}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var req transactionRequest
			require.NoError(t, json.Unmarshal([]byte(tt.in), &req))
			assert.Equal(t, tt.want, req.Amount)
		})
	}
}

func TestTransactionRequestDraft(t *testing.T) {
	req := transactionRequest{Title: " Obiad\x00 ", Amount: "43", Currency: "pln", Type: "actual", Category: "pleasures", Rate: "4,25"}
	d, err := req.draft()
	require.NoError(t, err)
	assert.Equal(t, "Obiad", d.Title)
	assert.Equal(t, currency.PLN, d.Currency)
	assert.Equal(t, core.Actual, d.Type)
	assert.Equal(t, "4.25", d.Rate.String())

	d, err = transactionRequest{Title: "x", Amount: "1"}.draft()
	require.NoError(t, err)
	assert.Equal(t, currency.EUR, d.Currency)
	assert.True(t, d.Rate.IsZero())

	_, err = transactionRequest{Rate: "abc"}.edit()
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter(url.Values{"category": {"pleasures"}, "type": {"planned"}})
	require.NoError(t, err)
	assert.Equal(t, ledger.Filter{Category: core.Pleasures, Type: ledger.OnlyPlanned}, f)

	f, err = ParseFilter(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, ledger.Filter{}, f)

	_, err = ParseFilter(url.Values{"type": {"saving"}})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestParsePeriodParams(t *testing.T) {
	now := time.Date(2025, 3, 31, 10, 0, 0, 0, time.UTC)

	p, err := ParsePeriodParams(url.Values{}, now)
	require.NoError(t, err)
	assert.Equal(t, period.Week, p.Mode)
	assert.Equal(t, now, p.Cursor)

	p, err = ParsePeriodParams(url.Values{"mode": {"month"}, "step": {"-1"}}, now)
	require.NoError(t, err)
	assert.Equal(t, time.February, p.Cursor.Month())

	p, err = ParsePeriodParams(url.Values{"mode": {"year"}, "cursor": {"2023"}}, now)
	require.NoError(t, err)
	assert.Equal(t, 2023, p.Cursor.Year())

	p, err = ParsePeriodParams(url.Values{"mode": {"month"}, "cursor": {"2024-07-15"}}, now)
	require.NoError(t, err)
	assert.Equal(t, time.July, p.Cursor.Month())

	_, err = ParsePeriodParams(url.Values{"mode": {"month"}, "step": {"x"}}, now)
	assert.ErrorIs(t, err, core.ErrValidation)
}
