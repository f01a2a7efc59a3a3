package sqrtprice_math

import (
	"testing"

	"github.com/dcernahoschi/mojitoswap-pool/lib/fixed"
	"github.com/stretchr/testify/assert"
)

var (
	low       = fixed.MustParse("0.951231802418722")
	high      = fixed.MustParse("1.051268468376765608")
	liquidity = fixed.MustParse("205051.662681070198680358")
)

func TestGetAmountADelta(t *testing.T) {
	assert.Equal(t, "10000", GetAmountADelta(fixed.One, high, liquidity, true).String())
	assert.Equal(t, "9999.999999999999999999", GetAmountADelta(fixed.One, high, liquidity, false).String())
	// order of the bounds does not matter
	assert.Equal(t, GetAmountADelta(fixed.One, high, liquidity, true), GetAmountADelta(high, fixed.One, liquidity, true))
	assert.True(t, GetAmountADelta(high, high, liquidity, true).IsZero())
}

func TestGetReciprocalDeltaAddsUp(t *testing.T) {
	whole := GetReciprocalDelta(low, high)
	assert.Equal(t, whole, GetReciprocalDelta(low, fixed.One).Add(GetReciprocalDelta(fixed.One, high)))
	assert.Equal(t, whole, GetReciprocalDelta(high, low))
}

func TestGetAmountBDelta(t *testing.T) {
	assert.Equal(t, "10000", GetAmountBDelta(low, fixed.One, liquidity, true).String())
	assert.Equal(t, "9999.999999999999999999", GetAmountBDelta(low, fixed.One, liquidity, false).String())
	assert.Equal(t, GetAmountBDelta(low, fixed.One, liquidity, false), GetAmountBDelta(fixed.One, low, liquidity, false))
}

func TestGetNextSqrtPriceFromInput(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		aToB   bool
		want   string
	}{
		{"sell A", "1000", true, "0.99514684818851564"},
		{"sell A rounds up to a price the amount covers", "4.000000000000031676", true, "0.999980493101494001"},
		{"sell B", "1000", false, "1.0048768197581278"},
		{"zero A", "0", true, "1"},
		{"zero B", "0", false, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetNextSqrtPriceFromInput(fixed.One, liquidity, fixed.MustParse(tt.amount), tt.aToB)
			if got.String() != tt.want {
				t.Errorf("GetNextSqrtPriceFromInput() = %v, want %v", got, tt.want)
			}
			if tt.aToB {
				assert.True(t, GetAmountADelta(got, fixed.One, liquidity, true).LessThanOrEqual(fixed.MustParse(tt.amount)))
			}
		})
	}
}
