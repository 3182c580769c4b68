package audit

import (
	"context"
	"fmt"
	"log/slog"

	"ekaa/pkg/platform/circuit"
	"ekaa/pkg/platform/sentinel"
)

// GuardedSink skips a remote sink while its breaker is open, so a broker
// outage costs one timeout per cooldown instead of one per request.
type GuardedSink struct {
	sink    Sink
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewGuardedSink(sink Sink, breaker *circuit.Breaker, logger *slog.Logger) *GuardedSink {
	return &GuardedSink{sink: sink, breaker: breaker, logger: logger}
}

func (g *GuardedSink) Write(ctx context.Context, e Event) error {
	if !g.breaker.Allow() {
		return fmt.Errorf("%s sink skipped: %w", g.breaker.Name(), sentinel.ErrUnavailable)
	}
	if err := g.sink.Write(ctx, e); err != nil {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.WarnContext(ctx, "audit sink circuit opened",
				"sink", g.breaker.Name(),
				"error", err,
			)
		}
		return err
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "audit sink circuit closed", "sink", g.breaker.Name())
	}
	return nil
}
