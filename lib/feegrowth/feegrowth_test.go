package feegrowth

import (
	"testing"

	"github.com/dcernahoschi/mojitoswap-pool/lib/fixed"
	"github.com/stretchr/testify/assert"
)

func pair(a, b int64) Pair { return Pair{A: fixed.New(a), B: fixed.New(b)} }

func TestInside(t *testing.T) {
	global := pair(10, 20)
	outsideLow := pair(2, 3)
	outsideHigh := pair(1, 4)

	tests := []struct {
		name    string
		current int
		want    Pair
	}{
		{"below", -20, pair(1, -1)},
		{"inside", 0, pair(7, 13)},
		{"at low bound", -10, pair(7, 13)},
		{"above", 10, pair(-1, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Inside(tt.current, -10, 10, global, outsideLow, outsideHigh)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOwed(t *testing.T) {
	a, b := Owed(fixed.MustParse("1.5"), pair(3, 5), pair(1, 5))
	assert.Equal(t, fixed.New(3), a)
	assert.True(t, b.IsZero())
}
