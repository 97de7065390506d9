// Package domain defines the core types of the order ticket: the draft order
// tagged union, its validation rules, the submission lifecycle, and the
// interfaces implemented by the cache, store, and gateway layers.
package domain

import (
	"time"
)

// InstrumentKind is the discriminant of the DraftOrder union. Fields that
// belong to a variant are only set while that variant is active.
type InstrumentKind string

const (
	// KindSpot is a plain instrument with no extra fields.
	KindSpot InstrumentKind = "spot"
	// KindDerivative adds a strike price and an expiry date.
	KindDerivative InstrumentKind = "derivative"
)

// Known returns true for instrument kinds the ticket understands.
func (k InstrumentKind) Known() bool {
	switch k {
	case KindSpot, KindDerivative:
		return true
	default:
		return false
	}
}

// ExecutionMode selects how the order executes once submitted.
type ExecutionMode string

const (
	ModeImmediate ExecutionMode = "immediate"
	ModeLimit     ExecutionMode = "limit"
)

// DraftOrder is the in-progress, not-yet-submitted order. It is treated as an
// immutable value: Apply returns a new draft rather than mutating in place.
//
// Invariants maintained by Apply:
//   - LimitPrice is non-nil iff Mode == ModeLimit.
//   - Strike and Expiry are non-nil only while Kind == KindDerivative
//     (they may still be nil there; validation reports them as missing).
type DraftOrder struct {
	Kind     InstrumentKind `json:"kind"`
	Symbol   string         `json:"symbol"`
	Quantity int64          `json:"quantity"`
	Mode     ExecutionMode  `json:"mode"`

	// LimitPrice is set only for limit orders.
	LimitPrice *float64 `json:"limit_price,omitempty"`

	// Derivative-only fields.
	Strike *float64   `json:"strike,omitempty"`
	Expiry *time.Time `json:"expiry,omitempty"`
}

// DefaultDraft returns the draft a fresh ticket session starts from.
func DefaultDraft() DraftOrder {
	return DraftOrder{
		Kind:     KindSpot,
		Symbol:   "",
		Quantity: 1,
		Mode:     ModeImmediate,
	}
}

// DraftPatch is a partial field change. Nil fields are left untouched.
type DraftPatch struct {
	Kind       *InstrumentKind `json:"kind,omitempty"`
	Symbol     *string         `json:"symbol,omitempty"`
	Quantity   *int64          `json:"quantity,omitempty"`
	Mode       *ExecutionMode  `json:"mode,omitempty"`
	LimitPrice *float64        `json:"limit_price,omitempty"`
	Strike     *float64        `json:"strike,omitempty"`
	Expiry     *time.Time      `json:"expiry,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p DraftPatch) Empty() bool {
	return p.Kind == nil && p.Symbol == nil && p.Quantity == nil &&
		p.Mode == nil && p.LimitPrice == nil && p.Strike == nil && p.Expiry == nil
}

// Apply merges the patch into the draft and returns the result. The union
// shape never goes malformed: switching Kind synthesizes a complete variant
// (irrelevant fields dropped, newly required ones left unset for validation
// to flag), and fields that do not belong to the active variant or mode are
// ignored rather than stored. Out-of-range quantity is clamped to 1 at this
// boundary instead of being kept as invalid state.
func (d DraftOrder) Apply(p DraftPatch) DraftOrder {
	out := d

	if p.Kind != nil && *p.Kind != out.Kind && p.Kind.Known() {
		out = out.withKind(*p.Kind)
	}

	if p.Symbol != nil {
		out.Symbol = *p.Symbol
	}

	if p.Quantity != nil {
		q := *p.Quantity
		if q < 1 {
			q = 1
		}
		out.Quantity = q
	}

	if p.Mode != nil && *p.Mode != out.Mode {
		out.Mode = *p.Mode
		if out.Mode != ModeLimit {
			out.LimitPrice = nil
		}
	}

	if p.LimitPrice != nil && out.Mode == ModeLimit {
		lp := *p.LimitPrice
		out.LimitPrice = &lp
	}

	if out.Kind == KindDerivative {
		if p.Strike != nil {
			s := *p.Strike
			out.Strike = &s
		}
		if p.Expiry != nil {
			e := *p.Expiry
			out.Expiry = &e
		}
	}

	return out
}

// withKind switches the active variant, dropping fields the new variant does
// not carry. Common fields survive the switch unchanged.
func (d DraftOrder) withKind(kind InstrumentKind) DraftOrder {
	out := d
	out.Kind = kind
	if kind != KindDerivative {
		out.Strike = nil
		out.Expiry = nil
	}
	return out
}
