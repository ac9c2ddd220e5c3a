package audit

import (
	"context"
	"log/slog"
)

// Sink receives audit entries asynchronously (e.g. a Kafka topic for the
// compliance pipeline).
type Sink interface {
	Publish(ctx context.Context, entry Entry) error
}

// Worker consumes audit entries from a channel and forwards them to a sink.
// Sink failures are logged and counted but never fail the producing request;
// the store copy is the durable record.
type Worker struct {
	sink     Sink
	inbox    <-chan Entry
	logger   *slog.Logger
	onFailed func()
}

func NewWorker(sink Sink, inbox <-chan Entry, logger *slog.Logger, onFailed func()) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger, onFailed: onFailed}
}

// Run consumes until the context is cancelled. Cancellation is the normal
// shutdown path and returns nil so a clean stop does not read as a failure.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case entry := <-w.inbox:
			if err := w.sink.Publish(ctx, entry); err != nil {
				w.logger.ErrorContext(ctx, "audit sink publish failed",
					"error", err,
					"action", string(entry.Action),
					"record_id", entry.RecordID,
				)
				if w.onFailed != nil {
					w.onFailed()
				}
			}
		}
	}
}
