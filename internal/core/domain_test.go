package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"wallet/internal/currency"
)

func TestTypeAndCategoryValidate(t *testing.T) {
	for _, tt := range []TransactionType{Planned, Actual, Saving} {
		if !tt.IsValid() {
			t.Fatalf("%s should be valid", tt)
		}
	}
	if TransactionType("income").IsValid() {
		t.Fatal("unknown type should be invalid")
	}
	for _, c := range append(Categories(), NoCategory) {
		if !c.IsValid() {
			t.Fatalf("%s should be valid", c)
		}
	}
	if Category("fun").IsValid() {
		t.Fatal("unknown category should be invalid")
	}
}

func TestErrorClasses(t *testing.T) {
	for _, err := range []error{ErrEmptyTitle, ErrInvalidAmount, ErrInvalidIncome, ErrInvalidType, ErrInvalidCategory, ErrInvalidCurrency, ErrTypeChanged} {
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("%v should be a validation error", err)
		}
	}
	for _, err := range []error{ErrTransactionNotFound, ErrWeekNotFound} {
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("%v should be a not found error", err)
		}
	}
}

func TestNewAppState(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	s := NewAppState(now)

	if !s.CurrentWeek.Income.IsZero() || s.CurrentWeek.IsClosed || s.CurrentWeek.EndDate != nil {
		t.Fatalf("unexpected first week %+v", s.CurrentWeek)
	}
	if s.CurrentWeek.Transactions == nil || len(s.CurrentWeek.Transactions) != 0 {
		t.Fatal("first week should have an empty transaction list")
	}
	if len(s.History) != 0 || !s.TotalSavings.IsZero() {
		t.Fatal("first run should have no history and no savings")
	}
	if len(s.Presets) != len(DefaultPresets) {
		t.Fatalf("expected default presets, got %v", s.Presets)
	}
	s.Presets[0] = "changed"
	if DefaultPresets[0] == "changed" {
		t.Fatal("presets must not alias the defaults")
	}
	if !s.CurrentWeek.StartDate.Equal(now) || !s.LastOpened.Equal(now) {
		t.Fatal("start and last opened should be now")
	}
}

func TestTransactionBuckets(t *testing.T) {
	cases := []struct {
		tx      Transaction
		spent   bool
		expense bool
		pending bool
	}{
		{Transaction{Type: Planned}, false, false, true},
		{Transaction{Type: Planned, IsConfirmed: true}, true, true, false},
		{Transaction{Type: Actual, IsConfirmed: true}, true, true, false},
		{Transaction{Type: Actual}, true, true, false},
		{Transaction{Type: Saving, IsConfirmed: true}, true, false, false},
	}
	for i, tc := range cases {
		if tc.tx.IsSpent() != tc.spent || tc.tx.IsExpense() != tc.expense || tc.tx.IsPending() != tc.pending {
			t.Fatalf("case %d: spent=%v expense=%v pending=%v",
				i, tc.tx.IsSpent(), tc.tx.IsExpense(), tc.tx.IsPending())
		}
	}
}

func TestOriginalAmount(t *testing.T) {
	direct := Transaction{Amount: decimal.NewFromInt(5), Source: currency.Direct{Amount: decimal.NewFromInt(5)}}
	if _, ok := direct.OriginalAmount(); ok {
		t.Fatal("direct entry has no original amount")
	}
	if direct.OriginalCurrency() != currency.EUR {
		t.Fatal("direct entry is in the base currency")
	}
	if (Transaction{}).OriginalCurrency() != currency.EUR {
		t.Fatal("missing source defaults to the base currency")
	}

	conv := Transaction{Source: currency.Converted{Amount: decimal.NewFromInt(43), Currency: currency.PLN, Rate: decimal.RequireFromString("4.3")}}
	v, ok := conv.OriginalAmount()
	if !ok || !v.Equal(decimal.NewFromInt(43)) || conv.OriginalCurrency() != currency.PLN {
		t.Fatalf("unexpected original %s %v %s", v, ok, conv.OriginalCurrency())
	}
}

func TestFindWeek(t *testing.T) {
	s := NewAppState(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	old := NewWeek(time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(100))
	old.IsClosed = true
	s.History = append(s.History, old)

	if w, err := s.FindWeek(old.ID); err != nil || w.ID != old.ID {
		t.Fatalf("expected history week, got %v", err)
	}
	if w, err := s.FindWeek(s.CurrentWeek.ID); err != nil || w.IsClosed {
		t.Fatalf("expected current week, got %v", err)
	}
	if _, err := s.FindWeek("missing"); !errors.Is(err, ErrWeekNotFound) {
		t.Fatalf("expected ErrWeekNotFound, got %v", err)
	}
}
