package sheets

import (
	"context"

	"wallet/internal/core"
)

// Ports for outbound adapters.
type (
	// WeekExporter appends an archived week to an external spreadsheet.
	WeekExporter interface {
		// ExportWeek writes the week summary and its transactions and returns
		// a reference to the written range.
		ExportWeek(ctx context.Context, w core.WeekData) (rowRef string, err error)
	}
)
