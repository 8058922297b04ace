package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wallet/internal/log"
)

// Publisher sends week-closed events to the message broker.
type Publisher interface {
	PublishWeekClosed(ctx context.Context, weekID string, closedAt time.Time) error
}

// EventRelayConfig holds configuration for the event relay
type EventRelayConfig struct {
	// PollInterval is how often pending events are retried (default: 30s)
	PollInterval time.Duration

	// BatchSize is the max number of events retried per poll cycle (default: 10)
	BatchSize int

	// MaxRetries is the number of attempts before an event is dropped (default: 5)
	MaxRetries int
}

// DefaultEventRelayConfig returns sensible defaults
func DefaultEventRelayConfig() EventRelayConfig {
	return EventRelayConfig{
		PollInterval: 30 * time.Second,
		BatchSize:    10,
		MaxRetries:   5,
	}
}

type pendingEvent struct {
	weekID   string
	closedAt time.Time
	attempts int
	lastErr  error
}

// EventRelay publishes week-closed events and keeps the ones that failed for
// retry in the background. Pending events live in memory only; the export
// worker's startup pass covers events lost across restarts.
type EventRelay struct {
	publisher Publisher
	config    EventRelayConfig
	logger    *log.Logger

	qmu     sync.Mutex
	pending []pendingEvent

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewEventRelay creates a new relay in front of publisher
func NewEventRelay(publisher Publisher, config EventRelayConfig, logger *log.Logger) *EventRelay {
	def := DefaultEventRelayConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = def.MaxRetries
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &EventRelay{
		publisher: publisher,
		config:    config,
		logger:    logger.WithComponent(log.ComponentAMQP),
	}
}

// PublishWeekClosed tries to publish right away. On failure the event is queued
// for retry and the error is returned so the caller can log it.
func (r *EventRelay) PublishWeekClosed(ctx context.Context, weekID string, closedAt time.Time) error {
	err := r.publisher.PublishWeekClosed(ctx, weekID, closedAt)
	if err == nil {
		return nil
	}
	r.qmu.Lock()
	r.pending = append(r.pending, pendingEvent{weekID: weekID, closedAt: closedAt, attempts: 1, lastErr: err})
	r.qmu.Unlock()
	return fmt.Errorf("queued for retry: %w", err)
}

// Pending returns the number of events waiting for retry
func (r *EventRelay) Pending() int {
	r.qmu.Lock()
	defer r.qmu.Unlock()
	return len(r.pending)
}

// Start begins the retry loop. Returns an error if already running.
func (r *EventRelay) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("event relay is already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	go r.runLoop(ctx)

	r.logger.InfoContext(ctx, "Event relay started",
		"poll_interval", r.config.PollInterval,
		"batch_size", r.config.BatchSize)
	return nil
}

// Stop gracefully stops the relay and waits for the loop to finish.
func (r *EventRelay) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	close(r.stopCh)

	select {
	case <-r.doneCh:
		r.logger.InfoContext(ctx, "Event relay stopped gracefully", "pending", r.Pending())
	case <-ctx.Done():
		r.logger.WarnContext(ctx, "Event relay stop timed out")
		return ctx.Err()
	}

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
	return nil
}

// IsRunning returns whether the relay loop is running
func (r *EventRelay) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *EventRelay) runLoop(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.retryBatch(ctx)
		}
	}
}

// retryBatch retries up to BatchSize pending events, oldest first.
func (r *EventRelay) retryBatch(ctx context.Context) {
	r.qmu.Lock()
	n := min(len(r.pending), r.config.BatchSize)
	batch := append([]pendingEvent(nil), r.pending[:n]...)
	r.pending = r.pending[n:]
	r.qmu.Unlock()

	var requeue []pendingEvent
	for _, ev := range batch {
		if ctx.Err() != nil {
			requeue = append(requeue, ev)
			continue
		}
		err := r.publisher.PublishWeekClosed(ctx, ev.weekID, ev.closedAt)
		if err == nil {
			r.logger.InfoContext(ctx, "Published queued week closed event",
				log.FieldWeekID, ev.weekID,
				"attempts", ev.attempts+1)
			continue
		}
		ev.attempts++
		ev.lastErr = err
		if ev.attempts >= r.config.MaxRetries {
			r.logger.ErrorContext(ctx, "Week closed event dropped after max retries",
				log.FieldWeekID, ev.weekID,
				"attempts", ev.attempts,
				log.FieldError, err)
			continue
		}
		r.logger.WarnContext(ctx, "Week closed event publish failed",
			log.FieldWeekID, ev.weekID,
			"attempt", ev.attempts,
			log.FieldError, err)
		requeue = append(requeue, ev)
	}

	if len(requeue) > 0 {
		r.qmu.Lock()
		r.pending = append(requeue, r.pending...)
		r.qmu.Unlock()
	}
}
