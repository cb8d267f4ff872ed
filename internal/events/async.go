package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Async emitter errors
var (
	ErrEmitterClosed = errors.New("event emitter is closed")
	ErrQueueFull     = errors.New("event queue is full")
)

// AsyncConfig holds configuration options for an AsyncEmitter.
type AsyncConfig struct {
	// WorkerCount is the number of dispatching goroutines. Defaults to 1.
	WorkerCount int
	// QueueSize is the event buffer capacity. Defaults to 1.
	QueueSize int
}

// DefaultAsyncConfig returns an AsyncConfig with reasonable defaults.
func DefaultAsyncConfig() AsyncConfig {
	return AsyncConfig{
		WorkerCount: 2,
		QueueSize:   256,
	}
}

type queuedEvent struct {
	ctx   context.Context
	event *Event
}

// AsyncEmitter queues events and hands them to a target emitter from a pool
// of worker goroutines, so emitting never waits on handlers. Events emitted
// with a cancelled request context are still delivered.
type AsyncEmitter struct {
	target      EventEmitter
	queue       chan queuedEvent
	workerCount int
	logger      *slog.Logger

	mu      sync.RWMutex
	started bool
	closed  bool
	wg      sync.WaitGroup
}

var _ EventEmitter = (*AsyncEmitter)(nil)

// NewAsyncEmitter creates an AsyncEmitter that forwards to target.
// Call Start to begin dispatching and Stop to drain and shut down.
func NewAsyncEmitter(target EventEmitter, config AsyncConfig, logger *slog.Logger) *AsyncEmitter {
	if target == nil {
		panic("target emitter cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "async_event_emitter")

	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
	}
	queueSize := max(config.QueueSize, 1)

	return &AsyncEmitter{
		target:      target,
		queue:       make(chan queuedEvent, queueSize),
		workerCount: workerCount,
		logger:      logger,
	}
}

// Start launches the workers. Calling it more than once has no effect.
func (a *AsyncEmitter) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started || a.closed {
		return
	}
	a.started = true

	a.logger.Info("starting event workers", "worker_count", a.workerCount)
	for i := range a.workerCount {
		a.wg.Add(1)
		go a.worker(i)
	}
}

func (a *AsyncEmitter) worker(id int) {
	defer a.wg.Done()
	for q := range a.queue {
		if err := a.target.EmitEvent(q.ctx, q.event); err != nil {
			a.logger.Error("event dispatch failed",
				"error", err,
				"worker_id", id,
				"event_id", q.event.ID,
				"event_type", q.event.Type)
		}
	}
}

// EmitEvent queues event. It fails with ErrQueueFull when the buffer is full
// and with ErrEmitterClosed after Stop.
func (a *AsyncEmitter) EmitEvent(ctx context.Context, event *Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return ErrEmitterClosed
	}

	select {
	case a.queue <- queuedEvent{ctx: context.WithoutCancel(ctx), event: event}:
		a.logger.Debug("event queued",
			"event_id", event.ID,
			"event_type", event.Type,
			"queue_len", len(a.queue),
			"queue_cap", cap(a.queue))
		return nil
	default:
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(a.queue))
	}
}

// Stop rejects new events and waits for the workers to drain the queue, or
// for ctx to end. Events still queued when Start was never called are dropped.
func (a *AsyncEmitter) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		if !a.started && len(a.queue) > 0 {
			a.logger.Warn("dropping queued events", "count", len(a.queue))
		}
		close(a.queue)
	}
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("event workers stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for event workers: %w", ctx.Err())
	}
}
