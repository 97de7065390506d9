package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validDerivative(now time.Time) DraftOrder {
	expiry := now.Add(72 * time.Hour)
	return DraftOrder{
		Kind:       KindDerivative,
		Symbol:     "ES",
		Quantity:   5,
		Mode:       ModeLimit,
		LimitPrice: ptr(10.0),
		Strike:     ptr(100.0),
		Expiry:     &expiry,
	}
}

func TestValidateAt_ValidDrafts(t *testing.T) {
	now := time.Now().UTC()

	spot := DraftOrder{Kind: KindSpot, Symbol: "AAPL", Quantity: 1, Mode: ModeImmediate}
	assert.Empty(t, ValidateAt(spot, now))
	assert.Empty(t, ValidateAt(validDerivative(now), now))
}

func TestValidateAt_RuleTable(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)

	tests := []struct {
		name   string
		mutate func(*DraftOrder)
		field  string
	}{
		{"empty symbol", func(d *DraftOrder) { d.Symbol = "" }, FieldSymbol},
		{"blank symbol", func(d *DraftOrder) { d.Symbol = "   " }, FieldSymbol},
		{"zero quantity", func(d *DraftOrder) { d.Quantity = 0 }, FieldQuantity},
		{"negative quantity", func(d *DraftOrder) { d.Quantity = -4 }, FieldQuantity},
		{"missing limit price", func(d *DraftOrder) { d.LimitPrice = nil }, FieldLimitPrice},
		{"non-positive limit price", func(d *DraftOrder) { d.LimitPrice = ptr(0.0) }, FieldLimitPrice},
		{"missing strike", func(d *DraftOrder) { d.Strike = nil }, FieldStrike},
		{"non-positive strike", func(d *DraftOrder) { d.Strike = ptr(-5.0) }, FieldStrike},
		{"missing expiry", func(d *DraftOrder) { d.Expiry = nil }, FieldExpiry},
		{"past expiry", func(d *DraftOrder) { d.Expiry = &past }, FieldExpiry},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := validDerivative(now)
			tc.mutate(&d)

			res := ValidateAt(d, now)
			assert.Contains(t, res, tc.field)
			assert.NotEmpty(t, res[tc.field])
		})
	}
}

func TestValidateAt_RulesAreIndependent(t *testing.T) {
	now := time.Now().UTC()

	// Everything wrong at once: every rule still reports its own field.
	d := DraftOrder{
		Kind:     KindDerivative,
		Symbol:   "",
		Quantity: 0,
		Mode:     ModeLimit,
	}

	res := ValidateAt(d, now)
	assert.Len(t, res, 5)
	for _, field := range []string{FieldSymbol, FieldQuantity, FieldLimitPrice, FieldStrike, FieldExpiry} {
		assert.Contains(t, res, field)
	}
}

func TestValidateAt_LimitRuleOnlyInLimitMode(t *testing.T) {
	now := time.Now().UTC()

	d := DraftOrder{Kind: KindSpot, Symbol: "AAPL", Quantity: 1, Mode: ModeImmediate}
	assert.NotContains(t, ValidateAt(d, now), FieldLimitPrice)
}

func TestValidateAt_DerivativeRulesOnlyForDerivative(t *testing.T) {
	now := time.Now().UTC()

	d := DraftOrder{Kind: KindSpot, Symbol: "AAPL", Quantity: 1, Mode: ModeImmediate}
	res := ValidateAt(d, now)
	assert.NotContains(t, res, FieldStrike)
	assert.NotContains(t, res, FieldExpiry)
}

func TestValidateAt_Pure(t *testing.T) {
	now := time.Now().UTC()
	d := DraftOrder{Kind: KindDerivative, Symbol: "", Quantity: 0, Mode: ModeLimit}

	first := ValidateAt(d, now)
	second := ValidateAt(d, now)
	assert.Equal(t, first, second)

	// Repeated calls never accumulate state.
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ValidateAt(d, now))
	}
}

func TestValidationResult_Valid(t *testing.T) {
	assert.True(t, ValidationResult{}.Valid())
	assert.False(t, ValidationResult{FieldSymbol: "symbol is required"}.Valid())
}
