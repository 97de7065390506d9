package domain

import (
	"strings"
	"time"
)

// ValidationResult maps a field name to its error message. An empty result
// means the draft is valid.
type ValidationResult map[string]string

// Valid reports whether the result carries no field errors.
func (r ValidationResult) Valid() bool { return len(r) == 0 }

// Field names used as ValidationResult keys. They match the JSON field names
// of DraftOrder so clients can attach messages to inputs directly.
const (
	FieldSymbol     = "symbol"
	FieldQuantity   = "quantity"
	FieldLimitPrice = "limit_price"
	FieldStrike     = "strike"
	FieldExpiry     = "expiry"
)

// Validate evaluates all validation rules against the draft using the wall
// clock for the expiry check.
func Validate(d DraftOrder) ValidationResult {
	return ValidateAt(d, time.Now().UTC())
}

// ValidateAt is the pure form of Validate: deterministic for a given draft
// and reference time, no side effects. Every rule is evaluated independently;
// one failing rule never masks another.
func ValidateAt(d DraftOrder, now time.Time) ValidationResult {
	res := ValidationResult{}

	if strings.TrimSpace(d.Symbol) == "" {
		res[FieldSymbol] = "symbol is required"
	}

	if d.Quantity <= 0 {
		res[FieldQuantity] = "quantity must be a positive integer"
	}

	if d.Mode == ModeLimit {
		switch {
		case d.LimitPrice == nil:
			res[FieldLimitPrice] = "limit price is required for limit orders"
		case *d.LimitPrice <= 0:
			res[FieldLimitPrice] = "limit price must be greater than zero"
		}
	}

	if d.Kind == KindDerivative {
		switch {
		case d.Strike == nil:
			res[FieldStrike] = "strike is required for derivative orders"
		case *d.Strike <= 0:
			res[FieldStrike] = "strike must be greater than zero"
		}

		switch {
		case d.Expiry == nil:
			res[FieldExpiry] = "expiry is required for derivative orders"
		case d.Expiry.Before(now):
			res[FieldExpiry] = "expiry must not be in the past"
		}
	}

	return res
}
