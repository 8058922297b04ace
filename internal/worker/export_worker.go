package worker

import (
	"context"
	"errors"
	"fmt"

	"wallet/internal/amqp"
	"wallet/internal/core"
	"wallet/internal/log"
	"wallet/internal/sheets"
	"wallet/internal/storage"
)

// ExportWorker copies archived weeks from the snapshot store to a spreadsheet.
type ExportWorker struct {
	store    storage.Store
	exporter sheets.WeekExporter
	logger   *log.Logger
}

func NewExportWorker(store storage.Store, exporter sheets.WeekExporter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{
		store:    store,
		exporter: exporter,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleWeekClosed exports the week named by msg. A week that cannot be found,
// or that is still open, is logged and acknowledged. Store and exporter failures
// are returned so the message is requeued.
func (w *ExportWorker) HandleWeekClosed(ctx context.Context, msg *amqp.WeekClosedMessage) error {
	w.logger.InfoContext(ctx, "Processing week closed message",
		log.FieldWeekID, msg.WeekID,
		"closed_at", msg.ClosedAt)

	state, err := w.store.Load(ctx)
	if errors.Is(err, storage.ErrNoSnapshot) {
		w.logger.WarnContext(ctx, "No snapshot saved yet, dropping message", log.FieldWeekID, msg.WeekID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	week, err := state.FindWeek(msg.WeekID)
	if errors.Is(err, core.ErrNotFound) {
		w.logger.WarnContext(ctx, "Week not found in snapshot, dropping message", log.FieldWeekID, msg.WeekID)
		return nil
	}
	if err != nil {
		return err
	}
	if !week.IsClosed {
		w.logger.WarnContext(ctx, "Week is still open, dropping message", log.FieldWeekID, msg.WeekID)
		return nil
	}

	return w.export(ctx, week)
}

// ExportHistory exports every archived week. The exporters skip weeks that are
// already present, so this recovers from lost messages or worker downtime.
func (w *ExportWorker) ExportHistory(ctx context.Context) error {
	state, err := w.store.Load(ctx)
	if errors.Is(err, storage.ErrNoSnapshot) {
		w.logger.InfoContext(ctx, "No snapshot saved yet, nothing to export")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load snapshot for startup export: %w", err)
	}

	exported, failed := 0, 0
	for _, week := range state.History {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.export(ctx, week); err != nil {
			w.logger.ErrorContext(ctx, "Failed to export week during startup",
				log.FieldWeekID, week.ID,
				log.FieldError, err)
			failed++
			continue
		}
		exported++
	}

	w.logger.InfoContext(ctx, "Startup export completed",
		"total", len(state.History),
		"exported", exported,
		"errors", failed)
	return nil
}

func (w *ExportWorker) export(ctx context.Context, week core.WeekData) error {
	ref, err := w.exporter.ExportWeek(ctx, week)
	if err != nil {
		return fmt.Errorf("export week %s: %w", week.ID, err)
	}
	w.logger.InfoContext(ctx, "Successfully exported week",
		log.FieldWeekID, week.ID,
		log.FieldSheetsRange, ref,
		"transactions", len(week.Transactions))
	return nil
}
