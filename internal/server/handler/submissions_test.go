package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/orderpad/internal/domain"
)

type stubSubmissionStore struct {
	subs []domain.Submission
	err  error
}

func (s *stubSubmissionStore) Create(_ context.Context, sub domain.Submission) error {
	s.subs = append(s.subs, sub)
	return nil
}

func (s *stubSubmissionStore) GetByID(_ context.Context, id string) (domain.Submission, error) {
	if s.err != nil {
		return domain.Submission{}, s.err
	}
	for _, sub := range s.subs {
		if sub.ID == id {
			return sub, nil
		}
	}
	return domain.Submission{}, domain.ErrNotFound
}

func (s *stubSubmissionStore) ListRecent(_ context.Context, opts domain.ListOpts) ([]domain.Submission, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := s.subs
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func newSubmissionMux(store domain.SubmissionStore) *http.ServeMux {
	h := NewSubmissionHandler(store, testLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/submissions", h.ListSubmissions)
	mux.HandleFunc("GET /api/submissions/{id}", h.GetSubmission)
	return mux
}

func TestListSubmissions(t *testing.T) {
	store := &stubSubmissionStore{subs: []domain.Submission{
		{ID: "conf-2", Symbol: "MSFT", Quantity: 2, SubmittedAt: time.Now().UTC()},
		{ID: "conf-1", Symbol: "AAPL", Quantity: 1, SubmittedAt: time.Now().UTC().Add(-time.Minute)},
	}}
	mux := newSubmissionMux(store)

	rec, body := doJSON(t, mux, http.MethodGet, "/api/submissions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["count"])

	subs := body["submissions"].([]any)
	require.Len(t, subs, 2)
	assert.Equal(t, "conf-2", subs[0].(map[string]any)["id"])
}

func TestListSubmissionsLimit(t *testing.T) {
	store := &stubSubmissionStore{subs: []domain.Submission{
		{ID: "conf-2"}, {ID: "conf-1"},
	}}
	mux := newSubmissionMux(store)

	rec, body := doJSON(t, mux, http.MethodGet, "/api/submissions?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])
}

func TestGetSubmission(t *testing.T) {
	store := &stubSubmissionStore{subs: []domain.Submission{
		{ID: "conf-1", Symbol: "AAPL"},
	}}
	mux := newSubmissionMux(store)

	rec, body := doJSON(t, mux, http.MethodGet, "/api/submissions/conf-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "AAPL", body["symbol"])

	rec, _ = doJSON(t, mux, http.MethodGet, "/api/submissions/conf-9", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
