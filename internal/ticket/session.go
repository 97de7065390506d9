// Package ticket implements the order-ticket session: it owns the draft
// order, runs the submit lifecycle state machine, and mirrors the draft to
// the persistence side-channel. Each session is independent; nothing is
// shared between sessions.
package ticket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/quantfold/orderpad/internal/domain"
)

// Submitter is the external order submission service. It resolves exactly
// once per call with either a confirmation identifier or an error whose
// message is suitable for display.
type Submitter interface {
	Submit(ctx context.Context, draft domain.DraftOrder) (confirmationID string, err error)
}

// Session is a single order-ticket instance. It is the sole owner of its
// DraftOrder and SubmissionState pair; all access goes through its methods.
// At most one submission is in flight at any time.
type Session struct {
	id        string
	draftKey  string
	submitter Submitter
	logger    *slog.Logger

	// Optional collaborators, attached via WithX. Nil means the concern is
	// disabled and the session works memory-only.
	drafts  domain.DraftCache
	history domain.SubmissionStore
	bus     domain.SignalBus

	mu         sync.Mutex
	draft      domain.DraftOrder
	state      domain.SubmissionState
	closed     bool
	generation uint64             // guard token: stale resolutions are discarded
	cancel     context.CancelFunc // cancels the in-flight gateway call
}

// NewSession creates an idle session with the default draft. draftKey is the
// fixed key the draft is mirrored under; it survives the session so a later
// session created with the same key restores the draft.
func NewSession(id, draftKey string, submitter Submitter, logger *slog.Logger) *Session {
	return &Session{
		id:        id,
		draftKey:  draftKey,
		submitter: submitter,
		logger:    logger.With(slog.String("component", "ticket"), slog.String("session_id", id)),
		draft:     domain.DefaultDraft(),
		state:     domain.IdleState(),
	}
}

// WithDraftCache attaches the persistence side-channel.
func (s *Session) WithDraftCache(cache domain.DraftCache) *Session {
	s.drafts = cache
	return s
}

// WithHistory attaches the confirmed-submission store.
func (s *Session) WithHistory(store domain.SubmissionStore) *Session {
	s.history = store
	return s
}

// WithBus attaches the event bus for ticket notifications.
func (s *Session) WithBus(bus domain.SignalBus) *Session {
	s.bus = bus
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// restore replaces the default draft with one previously mirrored under the
// session's draft key. Absence and parse failures fall back to the default;
// neither is an error.
func (s *Session) restore(ctx context.Context) {
	if s.drafts == nil {
		return
	}

	draft, err := s.drafts.Load(ctx, s.draftKey)
	if err != nil {
		if err != domain.ErrNotFound {
			s.logger.WarnContext(ctx, "ticket: draft restore failed, starting fresh",
				slog.String("error", err.Error()),
			)
		}
		return
	}

	s.mu.Lock()
	s.draft = draft
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "ticket: draft restored",
		slog.String("draft_key", s.draftKey),
	)
}

// Snapshot returns the current draft, submission state, and validation
// result as one consistent view.
func (s *Session) Snapshot() (domain.DraftOrder, domain.SubmissionState, domain.ValidationResult) {
	s.mu.Lock()
	draft := s.draft
	state := s.state
	s.mu.Unlock()
	return draft, state, domain.Validate(draft)
}

// Update merges a partial field change into the draft, preserving the union
// invariants (see domain.DraftOrder.Apply), then mirrors the result to the
// persistence side-channel. Mirror failures are swallowed; the session keeps
// working from memory. Returns the updated draft and its validation result.
func (s *Session) Update(ctx context.Context, patch domain.DraftPatch) (domain.DraftOrder, domain.ValidationResult, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.DraftOrder{}, nil, domain.ErrSessionClosed
	}
	s.draft = s.draft.Apply(patch)
	draft := s.draft
	s.mu.Unlock()

	s.persist(ctx, draft)
	s.publish(ctx, "draft_updated", map[string]string{
		"session_id": s.id,
		"kind":       string(draft.Kind),
	})

	return draft, domain.Validate(draft), nil
}

// Submit drives the state machine from idle (or a terminal state) into
// submitting and issues exactly one gateway call. It is rejected without a
// transition or external call when the draft is invalid or a submission is
// already in flight. The call resolves asynchronously; observe the outcome
// via Snapshot or the event bus.
func (s *Session) Submit(ctx context.Context) (domain.SubmissionState, error) {
	s.mu.Lock()
	if s.closed {
		state := s.state
		s.mu.Unlock()
		return state, domain.ErrSessionClosed
	}
	if s.state.Status == domain.SubmissionInFlight {
		state := s.state
		s.mu.Unlock()
		return state, domain.ErrSubmitInFlight
	}
	if res := domain.Validate(s.draft); !res.Valid() {
		state := s.state
		s.mu.Unlock()
		return state, domain.ErrInvalidDraft
	}

	s.generation++
	gen := s.generation
	draft := s.draft
	s.state = domain.SubmissionState{Status: domain.SubmissionInFlight}

	// The gateway call outlives the triggering request: detach from the
	// caller's deadline but keep it cancellable on Close.
	callCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "ticket: submitting order",
		slog.String("symbol", draft.Symbol),
		slog.String("kind", string(draft.Kind)),
		slog.Int64("quantity", draft.Quantity),
	)

	go func() {
		confirmationID, err := s.submitter.Submit(callCtx, draft)
		cancel()
		s.resolve(gen, draft, confirmationID, err)
	}()

	return domain.SubmissionState{Status: domain.SubmissionInFlight}, nil
}

// resolve applies the gateway outcome. The generation token and closed flag
// gate the transition: a resolution arriving after Close (or superseded by a
// newer attempt) produces no observable state change.
func (s *Session) resolve(gen uint64, draft domain.DraftOrder, confirmationID string, err error) {
	ctx := context.Background()

	s.mu.Lock()
	if s.closed || gen != s.generation || s.state.Status != domain.SubmissionInFlight {
		s.mu.Unlock()
		s.logger.Debug("ticket: discarding stale submission result")
		return
	}

	if err != nil {
		// The draft is left untouched so the user can retry without
		// re-entering data.
		s.state = domain.SubmissionState{
			Status:  domain.SubmissionFailed,
			Message: err.Error(),
		}
		s.mu.Unlock()

		s.logger.Warn("ticket: submission failed",
			slog.String("error", err.Error()),
		)
		s.publish(ctx, "ticket_failed", map[string]string{
			"session_id": s.id,
			"message":    err.Error(),
		})
		return
	}

	s.state = domain.SubmissionState{
		Status:         domain.SubmissionSucceeded,
		ConfirmationID: confirmationID,
	}
	s.draft = domain.DefaultDraft()
	s.mu.Unlock()

	s.logger.Info("ticket: submission confirmed",
		slog.String("confirmation_id", confirmationID),
	)

	s.dropPersisted(ctx)
	s.record(ctx, draft, confirmationID)
	s.publish(ctx, "ticket_submitted", map[string]string{
		"session_id":      s.id,
		"confirmation_id": confirmationID,
		"symbol":          draft.Symbol,
	})
}

// Reset returns the draft to defaults and the state machine to idle, and
// drops the persisted draft. Rejected while a submission is in flight.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if s.state.Status == domain.SubmissionInFlight {
		s.mu.Unlock()
		return domain.ErrSubmitInFlight
	}
	s.draft = domain.DefaultDraft()
	s.state = domain.IdleState()
	s.mu.Unlock()

	s.dropPersisted(ctx)
	return nil
}

// Close tears the session down. Any in-flight gateway call is cancelled and
// its eventual resolution is ignored; the persisted draft is kept so a new
// session under the same draft key can pick it up.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// persist mirrors the draft to the side-channel. Failures degrade to
// memory-only operation and are never surfaced to the caller.
func (s *Session) persist(ctx context.Context, draft domain.DraftOrder) {
	if s.drafts == nil {
		return
	}
	if err := s.drafts.Save(ctx, s.draftKey, draft); err != nil {
		s.logger.WarnContext(ctx, "ticket: draft mirror failed",
			slog.String("error", err.Error()),
		)
	}
}

func (s *Session) dropPersisted(ctx context.Context) {
	if s.drafts == nil {
		return
	}
	if err := s.drafts.Delete(ctx, s.draftKey); err != nil {
		s.logger.WarnContext(ctx, "ticket: draft delete failed",
			slog.String("error", err.Error()),
		)
	}
}

// record appends the confirmed submission to history, best effort.
func (s *Session) record(ctx context.Context, draft domain.DraftOrder, confirmationID string) {
	if s.history == nil {
		return
	}

	sub := domain.Submission{
		ID:             confirmationID,
		SessionID:      s.id,
		ConfirmationID: confirmationID,
		Kind:           draft.Kind,
		Symbol:         draft.Symbol,
		Quantity:       draft.Quantity,
		Mode:           draft.Mode,
		LimitPrice:     draft.LimitPrice,
		Strike:         draft.Strike,
		Expiry:         draft.Expiry,
		SubmittedAt:    time.Now().UTC(),
	}
	if err := s.history.Create(ctx, sub); err != nil {
		s.logger.WarnContext(ctx, "ticket: history record failed",
			slog.String("confirmation_id", confirmationID),
			slog.String("error", err.Error()),
		)
	}
}

// publish emits a ticket event on the bus, best effort.
func (s *Session) publish(ctx context.Context, event string, fields map[string]string) {
	if s.bus == nil {
		return
	}

	fields["event"] = event
	payload, _ := json.Marshal(fields)
	if err := s.bus.Publish(ctx, "tickets", payload); err != nil {
		s.logger.WarnContext(ctx, "ticket: publish event failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
