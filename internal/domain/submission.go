package domain

import "time"

// SubmissionStatus tracks the submit lifecycle of a ticket session.
type SubmissionStatus string

const (
	SubmissionIdle      SubmissionStatus = "idle"
	SubmissionInFlight  SubmissionStatus = "submitting"
	SubmissionSucceeded SubmissionStatus = "succeeded"
	SubmissionFailed    SubmissionStatus = "failed"
)

// SubmissionState is the tagged union describing where a session is in the
// submit lifecycle. ConfirmationID is set only while Status is succeeded and
// Message only while Status is failed. Exactly one SubmissionState exists per
// session and only the session's coordinator transitions it.
type SubmissionState struct {
	Status         SubmissionStatus `json:"status"`
	ConfirmationID string           `json:"confirmation_id,omitempty"`
	Message        string           `json:"message,omitempty"`
}

// IdleState returns the initial submission state.
func IdleState() SubmissionState {
	return SubmissionState{Status: SubmissionIdle}
}

// Submission is a confirmed order submission recorded for history queries.
// It snapshots the draft exactly as it was sent to the gateway.
type Submission struct {
	ID             string         `json:"id"`
	SessionID      string         `json:"session_id"`
	ConfirmationID string         `json:"confirmation_id"`
	Kind           InstrumentKind `json:"kind"`
	Symbol         string         `json:"symbol"`
	Quantity       int64          `json:"quantity"`
	Mode           ExecutionMode  `json:"mode"`
	LimitPrice     *float64       `json:"limit_price,omitempty"`
	Strike         *float64       `json:"strike,omitempty"`
	Expiry         *time.Time     `json:"expiry,omitempty"`
	SubmittedAt    time.Time      `json:"submitted_at"`
}
