package worker

import (
	"context"
	"log/slog"

	audit "scrollvault/pkg/platform/audit"
)

// Worker drains an event channel into a store and then fans each stored
// event out to the configured sinks. Sink failures are logged, never fatal.
type Worker struct {
	store  audit.Store
	sinks  []audit.Sink
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger, sinks ...audit.Sink) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger, sinks: sinks}
}

// Run processes events until inbox is closed (returns nil once drained) or
// ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			w.Process(ctx, event)
		}
	}
}

// Process stores one event and forwards it to every sink.
func (w *Worker) Process(ctx context.Context, event audit.Event) {
	if err := w.store.Append(ctx, event); err != nil {
		w.logger.ErrorContext(ctx, "failed to store audit event",
			"action", event.Action,
			"subject", event.Subject,
			"error", err,
		)
		return
	}
	Fanout(ctx, w.logger, w.sinks, event)
}

// Fanout forwards event to every sink, logging failures.
func Fanout(ctx context.Context, logger *slog.Logger, sinks []audit.Sink, event audit.Event) {
	for _, s := range sinks {
		if err := s.Publish(ctx, event); err != nil {
			logger.WarnContext(ctx, "audit sink publish failed",
				"action", event.Action,
				"subject", event.Subject,
				"error", err,
			)
		}
	}
}
