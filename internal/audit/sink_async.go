package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"ekaa/pkg/platform/sentinel"
)

const drainTimeout = 5 * time.Second

// AsyncSink moves delivery to a slow sink off the request path. Write only
// enqueues; Run drains the queue until its context ends, then flushes what is
// left. Once flushing starts the queue is closed and later writes are refused.
type AsyncSink struct {
	sink    Sink
	inbox   chan Event
	logger  *slog.Logger
	dropped atomic.Int64

	mu     sync.RWMutex
	closed bool
}

func NewAsyncSink(sink Sink, capacity int, logger *slog.Logger) *AsyncSink {
	if capacity <= 0 {
		capacity = 1024
	}
	return &AsyncSink{
		sink:   sink,
		inbox:  make(chan Event, capacity),
		logger: logger,
	}
}

// Write enqueues e. A full or closed queue drops the event rather than block
// the caller.
func (a *AsyncSink) Write(_ context.Context, e Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.dropped.Add(1)
		return fmt.Errorf("audit queue closed: %w", sentinel.ErrUnavailable)
	}
	select {
	case a.inbox <- e:
		return nil
	default:
		a.dropped.Add(1)
		return fmt.Errorf("audit queue full: %w", sentinel.ErrUnavailable)
	}
}

// Run delivers queued events until ctx is done, then closes the queue and
// flushes what it holds.
func (a *AsyncSink) Run(ctx context.Context) error {
	for {
		// A cancelled context wins over a non-empty queue.
		if ctx.Err() != nil {
			a.close()
			a.drain()
			return nil
		}
		select {
		case <-ctx.Done():
		case e := <-a.inbox:
			a.deliver(ctx, e)
		}
	}
}

func (a *AsyncSink) close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
}

// Dropped returns how many events were discarded because the queue was full
// or already closed.
func (a *AsyncSink) Dropped() int64 {
	return a.dropped.Load()
}

func (a *AsyncSink) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case e := <-a.inbox:
			a.deliver(ctx, e)
		default:
			return
		}
	}
}

func (a *AsyncSink) deliver(ctx context.Context, e Event) {
	if err := a.sink.Write(ctx, e); err != nil {
		a.logger.WarnContext(ctx, "audit event not delivered",
			"event", string(e.Action),
			"request_id", e.RequestID,
			"error", err,
		)
	}
}
