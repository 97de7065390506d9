package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/quantfold/orderpad/internal/domain"
	"github.com/quantfold/orderpad/internal/ticket"
)

// TicketRegistry defines the methods the ticket handler requires from the
// session registry.
type TicketRegistry interface {
	Create(ctx context.Context, draftKey string) *ticket.Session
	Get(id string) (*ticket.Session, error)
	Remove(id string) error
}

// TicketHandler serves the order-ticket session endpoints.
type TicketHandler struct {
	tickets TicketRegistry
	logger  *slog.Logger

	// Submission rate limiting; disabled when limiter is nil or limit <= 0.
	limiter   domain.RateLimiter
	rateLimit int
	rateWin   time.Duration
}

// NewTicketHandler creates a TicketHandler with the given registry and logger.
func NewTicketHandler(tickets TicketRegistry, logger *slog.Logger) *TicketHandler {
	return &TicketHandler{
		tickets: tickets,
		logger:  logger,
	}
}

// WithRateLimiter throttles submissions per session to limit calls per
// window.
func (h *TicketHandler) WithRateLimiter(limiter domain.RateLimiter, limit int, window time.Duration) *TicketHandler {
	h.limiter = limiter
	h.rateLimit = limit
	h.rateWin = window
	return h
}

// ticketResponse is the session view returned by most ticket endpoints.
type ticketResponse struct {
	ID         string                  `json:"id"`
	Draft      domain.DraftOrder       `json:"draft"`
	Submission domain.SubmissionState  `json:"submission"`
	Errors     domain.ValidationResult `json:"validation_errors"`
	Valid      bool                    `json:"valid"`
}

func sessionView(s *ticket.Session) ticketResponse {
	draft, state, res := s.Snapshot()
	return ticketResponse{
		ID:         s.ID(),
		Draft:      draft,
		Submission: state,
		Errors:     res,
		Valid:      res.Valid(),
	}
}

// createTicketRequest is the optional body for ticket creation.
type createTicketRequest struct {
	// DraftKey names the persistence slot to restore the draft from. Empty
	// means a fresh slot private to the new session.
	DraftKey string `json:"draft_key"`
}

// CreateTicket opens a new ticket session, restoring a mirrored draft when a
// known draft key is supplied.
// POST /api/tickets
func (h *TicketHandler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var req createTicketRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	s := h.tickets.Create(r.Context(), req.DraftKey)
	writeJSON(w, http.StatusCreated, sessionView(s))
}

// GetTicket returns the draft, submission state, and validation result of a
// session.
// GET /api/tickets/{id}
func (h *TicketHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionView(s))
}

// UpdateDraft applies a partial field change to the session's draft.
// PATCH /api/tickets/{id}/draft
func (h *TicketHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var patch domain.DraftPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	// The merge itself ignores unknown kinds to keep the union well formed;
	// reject them here so the client hears about the typo.
	if patch.Kind != nil && !patch.Kind.Known() {
		writeError(w, http.StatusBadRequest, domain.ErrUnknownKind.Error())
		return
	}

	if _, _, err := s.Update(r.Context(), patch); err != nil {
		h.writeTicketError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionView(s))
}

// GetFields returns the field descriptors for the session's current
// instrument kind.
// GET /api/tickets/{id}/fields
func (h *TicketHandler) GetFields(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	draft, _, _ := s.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":   draft.Kind,
		"fields": domain.FieldsFor(draft.Kind),
	})
}

// SubmitTicket starts a submission. The call returns as soon as the session
// enters the submitting state; clients observe the outcome via GetTicket or
// the WebSocket event stream.
// POST /api/tickets/{id}/submit
func (h *TicketHandler) SubmitTicket(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if h.limiter != nil && h.rateLimit > 0 {
		allowed, err := h.limiter.Allow(r.Context(), "submit:"+s.ID(), h.rateLimit, h.rateWin)
		if err != nil {
			// Fail open on limiter errors to avoid blocking legitimate
			// traffic.
			h.logger.WarnContext(r.Context(), "handler: rate limiter error",
				slog.String("error", err.Error()),
			)
		} else if !allowed {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, domain.ErrRateLimited.Error())
			return
		}
	}

	state, err := s.Submit(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDraft) {
			_, _, res := s.Snapshot()
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":             "draft failed validation",
				"validation_errors": res,
			})
			return
		}
		if errors.Is(err, domain.ErrSubmitInFlight) {
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":      "submission already in flight",
				"submission": state,
			})
			return
		}
		h.writeTicketError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, sessionView(s))
}

// ResetTicket returns the session to its initial draft and idle state.
// POST /api/tickets/{id}/reset
func (h *TicketHandler) ResetTicket(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := s.Reset(r.Context()); err != nil {
		if errors.Is(err, domain.ErrSubmitInFlight) {
			writeError(w, http.StatusConflict, "cannot reset while a submission is in flight")
			return
		}
		h.writeTicketError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionView(s))
}

// CloseTicket tears the session down. A submission still in flight is
// cancelled and its late resolution discarded.
// DELETE /api/tickets/{id}
func (h *TicketHandler) CloseTicket(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing ticket id")
		return
	}

	if err := h.tickets.Remove(id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "ticket not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: close ticket failed",
			slog.String("ticket_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to close ticket")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "closed",
		"ticket_id": id,
	})
}

// lookup resolves the {id} path parameter to a live session, writing the
// error response itself when that fails.
func (h *TicketHandler) lookup(w http.ResponseWriter, r *http.Request) (*ticket.Session, bool) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing ticket id")
		return nil, false
	}

	s, err := h.tickets.Get(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "ticket not found")
			return nil, false
		}
		h.logger.ErrorContext(r.Context(), "handler: ticket lookup failed",
			slog.String("ticket_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load ticket")
		return nil, false
	}
	return s, true
}

// writeTicketError maps session errors that are not endpoint-specific.
func (h *TicketHandler) writeTicketError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrSessionClosed) {
		writeError(w, http.StatusGone, "ticket session closed")
		return
	}
	h.logger.ErrorContext(r.Context(), "handler: ticket operation failed",
		slog.String("error", err.Error()),
	)
	writeError(w, http.StatusInternalServerError, "ticket operation failed")
}
