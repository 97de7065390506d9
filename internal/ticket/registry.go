package ticket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/quantfold/orderpad/internal/domain"
)

// Registry creates and tracks ticket sessions. It hands each session the
// shared collaborators (gateway, cache, history, bus) while the sessions
// themselves stay independent of one another.
type Registry struct {
	submitter Submitter
	logger    *slog.Logger

	drafts  domain.DraftCache
	history domain.SubmissionStore
	bus     domain.SignalBus

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates a Registry that builds sessions around the given
// submitter.
func NewRegistry(submitter Submitter, logger *slog.Logger) *Registry {
	return &Registry{
		submitter: submitter,
		logger:    logger.With(slog.String("component", "ticket_registry")),
		sessions:  make(map[string]*Session),
	}
}

// WithDraftCache attaches the persistence side-channel used by new sessions.
func (r *Registry) WithDraftCache(cache domain.DraftCache) *Registry {
	r.drafts = cache
	return r
}

// WithHistory attaches the confirmed-submission store used by new sessions.
func (r *Registry) WithHistory(store domain.SubmissionStore) *Registry {
	r.history = store
	return r
}

// WithBus attaches the event bus used by new sessions.
func (r *Registry) WithBus(bus domain.SignalBus) *Registry {
	r.bus = bus
	return r
}

// Create builds a new session and restores any draft previously mirrored
// under draftKey. An empty draftKey gets a fresh one, so nothing is restored
// and the draft is mirrored under a key private to this session.
func (r *Registry) Create(ctx context.Context, draftKey string) *Session {
	id := uuid.NewString()
	if draftKey == "" {
		draftKey = id
	}

	s := NewSession(id, draftKey, r.submitter, r.logger)
	if r.drafts != nil {
		s.WithDraftCache(r.drafts)
	}
	if r.history != nil {
		s.WithHistory(r.history)
	}
	if r.bus != nil {
		s.WithBus(r.bus)
	}
	s.restore(ctx)

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "ticket session created",
		slog.String("session_id", id),
		slog.String("draft_key", draftKey),
	)
	return s
}

// Get returns the session with the given ID or domain.ErrNotFound.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

// Remove closes the session and forgets it. Closing suppresses any late
// gateway resolution still in flight.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !ok {
		return domain.ErrNotFound
	}
	s.Close()
	return nil
}

// CloseAll tears down every tracked session. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
