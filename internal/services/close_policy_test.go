package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
)

func TestClosePolicy_IsDue(t *testing.T) {
	policy := NewClosePolicy(time.Sunday)
	sunday := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		start time.Time
		now   time.Time
		close bool
		want  bool
	}{
		{
			name:  "sunday after a full week - is due",
			start: time.Date(2024, 3, 3, 18, 0, 0, 0, time.UTC),
			now:   sunday,
			want:  true,
		},
		{
			name:  "sunday exactly one day after start - is due",
			start: sunday.Add(-24 * time.Hour),
			now:   sunday,
			want:  true,
		},
		{
			name:  "week opened earlier the same sunday - not due",
			start: sunday.Add(-2 * time.Hour),
			now:   sunday,
			want:  false,
		},
		{
			name:  "saturday - not due",
			start: time.Date(2024, 3, 3, 18, 0, 0, 0, time.UTC),
			now:   sunday.Add(-24 * time.Hour),
			want:  false,
		},
		{
			name:  "closed week - not due",
			start: time.Date(2024, 3, 3, 18, 0, 0, 0, time.UTC),
			now:   sunday,
			close: true,
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := core.WeekData{StartDate: tt.start, IsClosed: tt.close}
			if got := policy.IsDue(w, tt.now); got != tt.want {
				t.Errorf("ClosePolicy.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClosePolicy_CustomBoundary(t *testing.T) {
	policy := ClosePolicy{Boundary: time.Monday}
	monday := time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)
	if !policy.IsDue(core.WeekData{StartDate: monday.Add(-time.Minute)}, monday) {
		t.Error("zero MinAge should only require the boundary day")
	}
}

func TestClosePolicy_Prompt(t *testing.T) {
	start := time.Date(2024, 3, 3, 18, 0, 0, 0, time.UTC)
	s := core.NewAppState(start)
	s.CurrentWeek.Income = decimal.NewFromInt(250)
	s.CurrentWeek.Transactions = []core.Transaction{
		{ID: "1", Type: core.Actual, Amount: decimal.NewFromInt(40), IsConfirmed: true},
		{ID: "2", Type: core.Saving, Amount: decimal.NewFromInt(15), IsConfirmed: true},
		{ID: "3", Type: core.Planned, Amount: decimal.NewFromInt(99)},
	}

	p := NewClosePolicy(time.Sunday).Prompt(s, start.AddDate(0, 0, 7))
	if !p.Due {
		t.Error("prompt should be due")
	}
	if !p.SuggestedIncome.Equal(decimal.NewFromInt(250)) {
		t.Errorf("suggested income = %s, want 250", p.SuggestedIncome)
	}
	if !p.Spent.Equal(decimal.NewFromInt(55)) || !p.Saved.Equal(decimal.NewFromInt(15)) {
		t.Errorf("unexpected spent/saved: %s/%s", p.Spent, p.Saved)
	}
	if p.WeekID != s.CurrentWeek.ID {
		t.Errorf("week id = %q", p.WeekID)
	}
}
