package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/quantfold/orderpad/internal/domain"
	"github.com/quantfold/orderpad/internal/server/handler"
	"github.com/quantfold/orderpad/internal/server/middleware"
	"github.com/quantfold/orderpad/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// Per-IP API rate limiting; disabled when Limiter is nil or
	// RateLimit <= 0.
	Limiter    domain.RateLimiter
	RateLimit  int
	RateWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
// Submissions may be nil when no history store is configured.
type Handlers struct {
	Health      *handler.HealthHandler
	Tickets     *handler.TicketHandler
	Submissions *handler.SubmissionHandler
}

// Server is the HTTP + WebSocket API server for the order-ticket service.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS, auth) and attaches the WebSocket hub.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// --- Register routes ---

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Ticket session endpoints.
	mux.HandleFunc("POST /api/tickets", handlers.Tickets.CreateTicket)
	mux.HandleFunc("GET /api/tickets/{id}", handlers.Tickets.GetTicket)
	mux.HandleFunc("PATCH /api/tickets/{id}/draft", handlers.Tickets.UpdateDraft)
	mux.HandleFunc("GET /api/tickets/{id}/fields", handlers.Tickets.GetFields)
	mux.HandleFunc("POST /api/tickets/{id}/submit", handlers.Tickets.SubmitTicket)
	mux.HandleFunc("POST /api/tickets/{id}/reset", handlers.Tickets.ResetTicket)
	mux.HandleFunc("DELETE /api/tickets/{id}", handlers.Tickets.CloseTicket)

	// Submission history endpoints.
	if handlers.Submissions != nil {
		mux.HandleFunc("GET /api/submissions", handlers.Submissions.ListSubmissions)
		mux.HandleFunc("GET /api/submissions/{id}", handlers.Submissions.GetSubmission)
	}

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux

	// Apply auth middleware (skips if APIKey is empty).
	h = middleware.Auth(cfg.APIKey)(h)

	// Apply per-IP rate limiting when configured.
	if cfg.Limiter != nil && cfg.RateLimit > 0 {
		h = middleware.RateLimit(cfg.Limiter, cfg.RateLimit, cfg.RateWindow)(h)
	}

	// Apply request logging middleware.
	h = middleware.Logging(logger)(h)

	// Apply CORS middleware.
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
