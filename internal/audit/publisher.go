package audit

import (
	"context"
	"errors"

	"github.com/mssola/useragent"

	"ekaa/pkg/requestcontext"
)

// Sink receives enriched events.
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// Publisher enriches events with request metadata and fans them out to every
// sink. It is append-only; sinks decide durability.
type Publisher struct {
	sinks []Sink
}

func NewPublisher(sinks ...Sink) *Publisher {
	return &Publisher{sinks: sinks}
}

// Emit delivers event to all sinks and joins their errors. A failing sink does
// not stop delivery to the others.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if raw := requestcontext.UserAgent(ctx); raw != "" && event.Browser == "" {
		event.Browser, event.OS = describeUserAgent(raw)
	}

	var errs []error
	for _, sink := range p.sinks {
		if err := sink.Write(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func describeUserAgent(raw string) (browser, os string) {
	ua := useragent.New(raw)
	if ua.Bot() {
		name, _ := ua.Browser()
		return "bot:" + name, ua.OS()
	}
	name, version := ua.Browser()
	if version != "" {
		name += " " + version
	}
	return name, ua.OS()
}
