package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// DraftCache is the durable key-value side-channel that mirrors in-progress
// drafts so a session restart does not lose user input. Implementations are
// best-effort: callers swallow errors and keep working from memory.
type DraftCache interface {
	Save(ctx context.Context, key string, draft DraftOrder) error
	// Load returns ErrNotFound when no draft is stored under key.
	Load(ctx context.Context, key string) (DraftOrder, error)
	Delete(ctx context.Context, key string) error
}

// SubmissionStore persists confirmed submissions for history queries.
type SubmissionStore interface {
	Create(ctx context.Context, sub Submission) error
	GetByID(ctx context.Context, id string) (Submission, error)
	ListRecent(ctx context.Context, opts ListOpts) ([]Submission, error)
}

// RateLimiter limits how often a key may perform an action within a window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// SignalBus provides pub/sub fan-out of ticket events to interested
// consumers, such as the WebSocket hub.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe returns a channel that emits payloads until ctx is cancelled,
	// at which point the channel is closed.
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
