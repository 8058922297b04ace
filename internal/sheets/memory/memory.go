package memory

import (
	"context"
	"fmt"
	"sync"

	"wallet/internal/core"
	ports "wallet/internal/sheets"
)

// Exporter keeps exported rows in memory. Used when no spreadsheet is configured
// and in tests.
type Exporter struct {
	mu    sync.Mutex
	rows  [][]any
	weeks map[string]int
	err   error
}

var _ ports.WeekExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{weeks: map[string]int{}}
}

// FailWith makes every following export return err. A nil err restores normal behavior.
func (e *Exporter) FailWith(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

// ExportWeek stores the week rows and returns a synthetic row reference.
// Exporting the same week again is a no-op.
func (e *Exporter) ExportWeek(_ context.Context, w core.WeekData) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return "", e.err
	}
	if row, ok := e.weeks[w.ID]; ok {
		return fmt.Sprintf("mem:%d", row), nil
	}
	row := len(e.rows) + 1
	e.weeks[w.ID] = row
	e.rows = append(e.rows, ports.Rows(w)...)
	return fmt.Sprintf("mem:%d", row), nil
}

// Exported reports whether the week was exported.
func (e *Exporter) Exported(weekID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.weeks[weekID]
	return ok
}

// Rows returns a copy of every row written so far.
func (e *Exporter) Rows() [][]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]any(nil), e.rows...)
}
