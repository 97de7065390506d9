package ticket

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/orderpad/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

// fakeSubmitter resolves with a fixed outcome. When release is set, the call
// blocks until the channel is closed (or, unless ignoreCtx is set, the
// context is cancelled) so tests can observe the in-flight state.
type fakeSubmitter struct {
	confirmation string
	err          error
	release      chan struct{}
	ignoreCtx    bool

	mu    sync.Mutex
	calls int
}

func (f *fakeSubmitter) Submit(ctx context.Context, _ domain.DraftOrder) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.release != nil {
		if f.ignoreCtx {
			<-f.release
		} else {
			select {
			case <-f.release:
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return f.confirmation, f.err
}

func (f *fakeSubmitter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// memCache is an in-memory domain.DraftCache with switchable failure modes.
type memCache struct {
	mu       sync.Mutex
	drafts   map[string]domain.DraftOrder
	failSave bool
	failLoad error
}

func newMemCache() *memCache {
	return &memCache{drafts: make(map[string]domain.DraftOrder)}
}

func (c *memCache) Save(_ context.Context, key string, d domain.DraftOrder) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSave {
		return errors.New("cache unavailable")
	}
	c.drafts[key] = d
	return nil
}

func (c *memCache) Load(_ context.Context, key string) (domain.DraftOrder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failLoad != nil {
		return domain.DraftOrder{}, c.failLoad
	}
	d, ok := c.drafts[key]
	if !ok {
		return domain.DraftOrder{}, domain.ErrNotFound
	}
	return d, nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.drafts, key)
	return nil
}

func (c *memCache) stored(key string) (domain.DraftOrder, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.drafts[key]
	return d, ok
}

// memHistory records Create calls.
type memHistory struct {
	mu   sync.Mutex
	subs []domain.Submission
}

func (h *memHistory) Create(_ context.Context, sub domain.Submission) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = append(h.subs, sub)
	return nil
}

func (h *memHistory) GetByID(_ context.Context, id string) (domain.Submission, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.subs {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.Submission{}, domain.ErrNotFound
}

func (h *memHistory) ListRecent(_ context.Context, _ domain.ListOpts) ([]domain.Submission, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.Submission(nil), h.subs...), nil
}

func (h *memHistory) recorded() []domain.Submission {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.Submission(nil), h.subs...)
}

func fillValidDraft(t *testing.T, s *Session) domain.DraftOrder {
	t.Helper()
	draft, res, err := s.Update(context.Background(), domain.DraftPatch{
		Symbol:   ptr("AAPL"),
		Quantity: ptr(int64(5)),
	})
	require.NoError(t, err)
	require.True(t, res.Valid(), "draft should be valid: %v", res)
	return draft
}

func waitForStatus(t *testing.T, s *Session, want domain.SubmissionStatus) domain.SubmissionState {
	t.Helper()
	var state domain.SubmissionState
	require.Eventually(t, func() bool {
		_, state, _ = s.Snapshot()
		return state.Status == want
	}, 2*time.Second, 5*time.Millisecond, "session never reached %s", want)
	return state
}

func TestSession_StartsIdleWithDefaultDraft(t *testing.T) {
	s := NewSession("s1", "k1", &fakeSubmitter{}, testLogger())

	draft, state, res := s.Snapshot()
	assert.Equal(t, domain.DefaultDraft(), draft)
	assert.Equal(t, domain.SubmissionIdle, state.Status)
	assert.False(t, res.Valid()) // empty symbol
}

func TestSession_SubmitRejectsInvalidDraft(t *testing.T) {
	sub := &fakeSubmitter{confirmation: "abc"}
	s := NewSession("s1", "k1", sub, testLogger())

	// Default draft has an empty symbol.
	state, err := s.Submit(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidDraft)
	assert.Equal(t, domain.SubmissionIdle, state.Status)
	assert.Equal(t, 0, sub.callCount(), "no external call for an invalid draft")
}

func TestSession_SubmitSuccessResetsDraft(t *testing.T) {
	sub := &fakeSubmitter{confirmation: "abc"}
	history := &memHistory{}
	cache := newMemCache()
	s := NewSession("s1", "k1", sub, testLogger()).
		WithDraftCache(cache).
		WithHistory(history)

	submitted := fillValidDraft(t, s)

	state, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionInFlight, state.Status)

	state = waitForStatus(t, s, domain.SubmissionSucceeded)
	assert.Equal(t, "abc", state.ConfirmationID)

	draft, _, _ := s.Snapshot()
	assert.Equal(t, domain.DefaultDraft(), draft, "draft resets after success")

	_, stored := cache.stored("k1")
	assert.False(t, stored, "persisted draft removed after success")

	recs := history.recorded()
	require.Len(t, recs, 1)
	assert.Equal(t, "abc", recs[0].ConfirmationID)
	assert.Equal(t, submitted.Symbol, recs[0].Symbol)
	assert.Equal(t, submitted.Quantity, recs[0].Quantity)
}

func TestSession_SubmitFailurePreservesDraft(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("insufficient margin")}
	s := NewSession("s1", "k1", sub, testLogger())

	submitted := fillValidDraft(t, s)

	_, err := s.Submit(context.Background())
	require.NoError(t, err)

	state := waitForStatus(t, s, domain.SubmissionFailed)
	assert.Equal(t, "insufficient margin", state.Message)

	draft, _, _ := s.Snapshot()
	assert.Equal(t, submitted, draft, "draft unchanged after failure so the user can retry")
}

func TestSession_DuplicateSubmitIsNoOp(t *testing.T) {
	release := make(chan struct{})
	sub := &fakeSubmitter{confirmation: "abc", release: release}
	s := NewSession("s1", "k1", sub, testLogger())

	fillValidDraft(t, s)

	_, err := s.Submit(context.Background())
	require.NoError(t, err)

	// Second submit while in flight: no transition, no second call.
	state, err := s.Submit(context.Background())
	assert.ErrorIs(t, err, domain.ErrSubmitInFlight)
	assert.Equal(t, domain.SubmissionInFlight, state.Status)

	close(release)
	waitForStatus(t, s, domain.SubmissionSucceeded)
	assert.Equal(t, 1, sub.callCount(), "exactly one external call")
}

func TestSession_RetryAfterFailure(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("venue closed")}
	s := NewSession("s1", "k1", sub, testLogger())

	fillValidDraft(t, s)

	_, err := s.Submit(context.Background())
	require.NoError(t, err)
	waitForStatus(t, s, domain.SubmissionFailed)

	sub.mu.Lock()
	sub.err = nil
	sub.confirmation = "second-try"
	sub.mu.Unlock()

	_, err = s.Submit(context.Background())
	require.NoError(t, err)

	state := waitForStatus(t, s, domain.SubmissionSucceeded)
	assert.Equal(t, "second-try", state.ConfirmationID)
	assert.Equal(t, 2, sub.callCount())
}

func TestSession_LateResolutionAfterCloseIgnored(t *testing.T) {
	release := make(chan struct{})
	sub := &fakeSubmitter{confirmation: "abc", release: release, ignoreCtx: true}
	s := NewSession("s1", "k1", sub, testLogger())

	fillValidDraft(t, s)

	_, err := s.Submit(context.Background())
	require.NoError(t, err)

	s.Close()
	close(release)

	// Give the resolution goroutine time to run; the state must not change.
	time.Sleep(50 * time.Millisecond)

	_, state, _ := s.Snapshot()
	assert.Equal(t, domain.SubmissionInFlight, state.Status,
		"no observable state change after teardown")
}

func TestSession_CloseCancelsInFlightCall(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	sub := &fakeSubmitter{confirmation: "abc", release: release}
	s := NewSession("s1", "k1", sub, testLogger())

	fillValidDraft(t, s)

	_, err := s.Submit(context.Background())
	require.NoError(t, err)

	// Close cancels the call context; the fake resolves with ctx.Err() and
	// the session discards that resolution.
	s.Close()
	time.Sleep(50 * time.Millisecond)

	_, state, _ := s.Snapshot()
	assert.NotEqual(t, domain.SubmissionFailed, state.Status)
}

func TestSession_OperationsAfterClose(t *testing.T) {
	s := NewSession("s1", "k1", &fakeSubmitter{}, testLogger())
	s.Close()

	_, _, err := s.Update(context.Background(), domain.DraftPatch{Symbol: ptr("X")})
	assert.ErrorIs(t, err, domain.ErrSessionClosed)

	_, err = s.Submit(context.Background())
	assert.ErrorIs(t, err, domain.ErrSessionClosed)

	assert.ErrorIs(t, s.Reset(context.Background()), domain.ErrSessionClosed)

	// Idempotent.
	s.Close()
}

func TestSession_ResetClearsDraftAndState(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("rejected")}
	cache := newMemCache()
	s := NewSession("s1", "k1", sub, testLogger()).WithDraftCache(cache)

	fillValidDraft(t, s)

	_, err := s.Submit(context.Background())
	require.NoError(t, err)
	waitForStatus(t, s, domain.SubmissionFailed)

	require.NoError(t, s.Reset(context.Background()))

	draft, state, _ := s.Snapshot()
	assert.Equal(t, domain.DefaultDraft(), draft)
	assert.Equal(t, domain.SubmissionIdle, state.Status)

	_, stored := cache.stored("k1")
	assert.False(t, stored, "persisted draft removed on reset")
}

func TestSession_ResetRejectedWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	sub := &fakeSubmitter{confirmation: "abc", release: release}
	s := NewSession("s1", "k1", sub, testLogger())

	fillValidDraft(t, s)

	_, err := s.Submit(context.Background())
	require.NoError(t, err)

	assert.ErrorIs(t, s.Reset(context.Background()), domain.ErrSubmitInFlight)

	close(release)
	waitForStatus(t, s, domain.SubmissionSucceeded)
}

func TestSession_UpdateMirrorsDraft(t *testing.T) {
	cache := newMemCache()
	s := NewSession("s1", "k1", &fakeSubmitter{}, testLogger()).WithDraftCache(cache)

	draft := fillValidDraft(t, s)

	stored, ok := cache.stored("k1")
	require.True(t, ok)
	assert.Equal(t, draft, stored)
}

func TestSession_MirrorFailureIsSwallowed(t *testing.T) {
	cache := newMemCache()
	cache.failSave = true
	s := NewSession("s1", "k1", &fakeSubmitter{confirmation: "abc"}, testLogger()).
		WithDraftCache(cache)

	// Updates keep working from memory.
	draft := fillValidDraft(t, s)
	assert.Equal(t, "AAPL", draft.Symbol)

	_, err := s.Submit(context.Background())
	require.NoError(t, err)
	waitForStatus(t, s, domain.SubmissionSucceeded)
}

func TestSession_RestoreFromCache(t *testing.T) {
	cache := newMemCache()
	saved := domain.DefaultDraft().Apply(domain.DraftPatch{
		Symbol:   ptr("TSLA"),
		Quantity: ptr(int64(9)),
	})
	require.NoError(t, cache.Save(context.Background(), "k1", saved))

	s := NewSession("s2", "k1", &fakeSubmitter{}, testLogger()).WithDraftCache(cache)
	s.restore(context.Background())

	draft, _, _ := s.Snapshot()
	assert.Equal(t, saved, draft)
}

func TestSession_RestoreFallsBackOnError(t *testing.T) {
	cache := newMemCache()
	cache.failLoad = errors.New("corrupt payload")

	s := NewSession("s1", "k1", &fakeSubmitter{}, testLogger()).WithDraftCache(cache)
	s.restore(context.Background())

	draft, _, _ := s.Snapshot()
	assert.Equal(t, domain.DefaultDraft(), draft)
}
