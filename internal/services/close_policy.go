// Package services provides business logic and orchestration services.
//
// This file decides when the host should offer to close the current week.
package services

import (
	"time"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
	"wallet/internal/ledger"
)

// DefaultMinWeekAge keeps a week that was just opened on the boundary day from
// being offered for closing right away.
const DefaultMinWeekAge = 24 * time.Hour

// ClosePolicy prompts for closing on a fixed weekday once the current week is
// at least MinAge old.
type ClosePolicy struct {
	Boundary time.Weekday
	MinAge   time.Duration
}

// ClosePrompt is what the host shows when a week may be closed.
type ClosePrompt struct {
	Due             bool            `json:"due"`
	WeekID          string          `json:"weekId"`
	StartDate       time.Time       `json:"startDate"`
	Spent           decimal.Decimal `json:"spent"`
	Saved           decimal.Decimal `json:"saved"`
	SuggestedIncome decimal.Decimal `json:"suggestedIncome"`
}

// NewClosePolicy returns a policy for the given boundary day with the default minimum age.
func NewClosePolicy(boundary time.Weekday) ClosePolicy {
	return ClosePolicy{Boundary: boundary, MinAge: DefaultMinWeekAge}
}

// IsDue reports whether w should be offered for closing at now.
// The weekday is taken in now's location.
func (p ClosePolicy) IsDue(w core.WeekData, now time.Time) bool {
	if w.IsClosed || now.Weekday() != p.Boundary {
		return false
	}
	return now.Sub(w.StartDate) >= p.MinAge
}

// Prompt builds the close prompt for the current week. The current income is
// suggested as the next week's income.
func (p ClosePolicy) Prompt(s core.AppState, now time.Time) ClosePrompt {
	w := s.CurrentWeek
	return ClosePrompt{
		Due:             p.IsDue(w, now),
		WeekID:          w.ID,
		StartDate:       w.StartDate,
		Spent:           ledger.TotalSpent(w.Transactions),
		Saved:           ledger.TotalSavings(w.Transactions),
		SuggestedIncome: w.Income,
	}
}
