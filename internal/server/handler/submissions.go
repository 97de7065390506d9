package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/quantfold/orderpad/internal/domain"
)

// SubmissionHandler serves the submission history endpoints. It is only
// registered when a submission store is configured.
type SubmissionHandler struct {
	store  domain.SubmissionStore
	logger *slog.Logger
}

// NewSubmissionHandler creates a SubmissionHandler.
func NewSubmissionHandler(store domain.SubmissionStore, logger *slog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		store:  store,
		logger: logger,
	}
}

// ListSubmissions returns recent confirmed submissions, newest first.
// GET /api/submissions
func (h *SubmissionHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	subs, err := h.store.ListRecent(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list submissions failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list submissions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"submissions": subs,
		"count":       len(subs),
	})
}

// GetSubmission returns a single submission by its confirmation id.
// GET /api/submissions/{id}
func (h *SubmissionHandler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing submission id")
		return
	}

	sub, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "submission not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get submission failed",
			slog.String("submission_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load submission")
		return
	}

	writeJSON(w, http.StatusOK, sub)
}
