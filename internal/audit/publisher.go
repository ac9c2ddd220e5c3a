package audit

import (
	"context"

	"github.com/google/uuid"

	id "inkregister/pkg/domain"
	"inkregister/pkg/requestcontext"
)

// Store persists audit entries. Append-only by contract.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByActor(ctx context.Context, actorID id.MasterID) ([]Entry, error)
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
}

// Publisher captures structured audit entries. Persistence goes through the
// storage layer so tests can swap sinks easily; an optional inbox fans
// entries out to the asynchronous sink worker.
type Publisher struct {
	store Store
	inbox chan<- Entry
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// WithSink attaches an asynchronous sink inbox. Sends never block: if the
// inbox is full, the entry is dropped from the sink (the store copy remains
// the durable record).
func (p *Publisher) WithSink(inbox chan<- Entry) *Publisher {
	p.inbox = inbox
	return p
}

// Emit fills request-scoped fields and appends the entry.
func (p *Publisher) Emit(ctx context.Context, entry Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = requestcontext.Now(ctx)
	}
	if entry.IP == "" {
		entry.IP = requestcontext.ClientIP(ctx)
	}
	if entry.UserAgent == "" {
		entry.UserAgent = requestcontext.UserAgent(ctx)
	}
	if entry.RequestID == "" {
		entry.RequestID = requestcontext.RequestID(ctx)
	}

	if err := p.store.Append(ctx, entry); err != nil {
		return err
	}

	if p.inbox != nil {
		select {
		case p.inbox <- entry:
		default:
		}
	}
	return nil
}

// ListByActor returns entries for one actor.
func (p *Publisher) ListByActor(ctx context.Context, actorID id.MasterID) ([]Entry, error) {
	return p.store.ListByActor(ctx, actorID)
}

// ListRecent returns the most recent entries.
func (p *Publisher) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	return p.store.ListRecent(ctx, limit)
}
