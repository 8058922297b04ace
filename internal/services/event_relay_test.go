package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDefaultEventRelayConfig(t *testing.T) {
	config := DefaultEventRelayConfig()

	if config.PollInterval != 30*time.Second {
		t.Errorf("expected PollInterval 30s, got %v", config.PollInterval)
	}
	if config.BatchSize != 10 {
		t.Errorf("expected BatchSize 10, got %d", config.BatchSize)
	}
	if config.MaxRetries != 5 {
		t.Errorf("expected MaxRetries 5, got %d", config.MaxRetries)
	}
}

func TestNewEventRelay_FillsDefaults(t *testing.T) {
	r := NewEventRelay(&recordingPublisher{}, EventRelayConfig{}, nil)
	if r.config != DefaultEventRelayConfig() {
		t.Errorf("zero config should become the defaults, got %+v", r.config)
	}
}

func TestEventRelay_PublishesDirectly(t *testing.T) {
	pub := &recordingPublisher{}
	r := NewEventRelay(pub, DefaultEventRelayConfig(), nil)

	if err := r.PublishWeekClosed(context.Background(), "w1", time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Pending() != 0 || len(pub.weeks) != 1 {
		t.Errorf("expected direct publish, pending=%d published=%v", r.Pending(), pub.weeks)
	}
}

func TestEventRelay_RetriesQueuedEvents(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	r := NewEventRelay(pub, EventRelayConfig{PollInterval: time.Hour, BatchSize: 1, MaxRetries: 3}, nil)
	ctx := context.Background()

	if err := r.PublishWeekClosed(ctx, "w1", time.Now()); err == nil {
		t.Fatal("expected the publish error to be returned")
	}
	_ = r.PublishWeekClosed(ctx, "w2", time.Now())
	if r.Pending() != 2 {
		t.Fatalf("expected 2 pending, got %d", r.Pending())
	}

	// second attempt for w1 still fails, only one event per batch
	r.retryBatch(ctx)
	if r.Pending() != 2 {
		t.Fatalf("expected 2 pending after failed retry, got %d", r.Pending())
	}

	// third attempt reaches MaxRetries and drops w1
	r.retryBatch(ctx)
	if r.Pending() != 1 {
		t.Fatalf("expected w1 dropped, got %d pending", r.Pending())
	}

	pub.mu.Lock()
	pub.err = nil
	pub.mu.Unlock()
	r.retryBatch(ctx)
	if r.Pending() != 0 {
		t.Fatalf("expected queue drained, got %d", r.Pending())
	}
	if len(pub.weeks) != 1 || pub.weeks[0] != "w2" {
		t.Errorf("expected w2 published, got %v", pub.weeks)
	}
}

func TestEventRelay_IsRunning(t *testing.T) {
	r := NewEventRelay(&recordingPublisher{}, DefaultEventRelayConfig(), nil)
	if r.IsRunning() {
		t.Error("relay should not be running initially")
	}
}

func TestEventRelay_StartTwice(t *testing.T) {
	r := NewEventRelay(&recordingPublisher{}, EventRelayConfig{PollInterval: 10 * time.Millisecond}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := r.Start(ctx); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	if err := r.Start(ctx); err == nil {
		t.Error("second start should fail")
	}
	if !r.IsRunning() {
		t.Error("relay should be running")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := r.Stop(stopCtx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if r.IsRunning() {
		t.Error("relay should be stopped")
	}
}

func TestEventRelay_LoopDrainsQueue(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("down")}
	r := NewEventRelay(pub, EventRelayConfig{PollInterval: 5 * time.Millisecond, MaxRetries: 100}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_ = r.PublishWeekClosed(ctx, "w1", time.Now())
	pub.mu.Lock()
	pub.err = nil
	pub.mu.Unlock()

	if err := r.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer r.Stop(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for r.Pending() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if r.Pending() != 0 {
		t.Error("queued event was not retried by the loop")
	}
}
