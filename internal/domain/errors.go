package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidDraft   = errors.New("draft failed validation")
	ErrSubmitInFlight = errors.New("submission already in flight")
	ErrSessionClosed  = errors.New("ticket session closed")
	ErrRateLimited    = errors.New("rate limited")
	ErrUnknownKind    = errors.New("unknown instrument kind")
)
