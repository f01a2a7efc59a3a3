package tickdata

import (
	"sort"
	"testing"

	"github.com/dcernahoschi/mojitoswap-pool/lib/feegrowth"
	"github.com/dcernahoschi/mojitoswap-pool/lib/fixed"
	"github.com/dcernahoschi/mojitoswap-pool/lib/tickmath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var growth = feegrowth.Pair{A: fixed.New(5), B: fixed.New(7)}

func TestReferenceDereference(t *testing.T) {
	td := NewTickData()
	td.Reference(-100, fixed.New(10), false, 0, growth)
	td.Reference(100, fixed.New(10), true, 0, growth)
	td.Reference(-100, fixed.New(4), false, 0, growth)

	low, ok := td.GetTick(-100)
	require.True(t, ok)
	assert.Equal(t, fixed.New(14), low.LiquidityNet)
	assert.Equal(t, fixed.New(14), low.LiquidityGross)
	assert.Equal(t, growth, low.FeeGrowthOutside)

	high, ok := td.GetTick(100)
	require.True(t, ok)
	assert.Equal(t, fixed.New(-10), high.LiquidityNet)
	assert.Equal(t, feegrowth.Pair{}, high.FeeGrowthOutside)

	assert.False(t, td.Dereference(-100, fixed.New(4), false))
	assert.True(t, td.Dereference(-100, fixed.New(10), false))
	assert.True(t, td.Dereference(100, fixed.New(10), true))
	assert.Equal(t, 0, td.Len())
}

func TestNextInitializedTick(t *testing.T) {
	td := NewTickData()
	for _, i := range []int{-50, 10, 200} {
		td.Reference(i, fixed.One, false, 0, feegrowth.Pair{})
	}
	tests := []struct {
		name  string
		tick  int
		lte   bool
		want  int
		found bool
	}{
		{"at tick going down", 10, true, 10, true},
		{"between going down", 9, true, -50, true},
		{"below smallest", -51, true, tickmath.MinTick, false},
		{"at tick going up", 10, false, 200, true},
		{"between going up", -50, false, 10, true},
		{"above largest", 200, false, tickmath.MaxTick, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := td.NextInitializedTick(tt.tick, tt.lte)
			if got != tt.want || found != tt.found {
				t.Errorf("NextInitializedTick(%d, %v) = %d, %v, want %d, %v", tt.tick, tt.lte, got, found, tt.want, tt.found)
			}
		})
	}
}

func TestCross(t *testing.T) {
	td := NewTickData()
	td.Reference(0, fixed.New(3), false, 0, growth)
	global := feegrowth.Pair{A: fixed.New(8), B: fixed.New(9)}

	assert.Equal(t, fixed.New(-3), td.Cross(0, global, false))
	tick, _ := td.GetTick(0)
	assert.Equal(t, feegrowth.Pair{A: fixed.New(3), B: fixed.New(2)}, tick.FeeGrowthOutside)

	assert.Equal(t, fixed.New(3), td.Cross(0, global, true))
	tick, _ = td.GetTick(0)
	assert.Equal(t, growth, tick.FeeGrowthOutside)
}

func TestCloneIsIndependent(t *testing.T) {
	td := NewTickData()
	td.Reference(1, fixed.One, false, 0, feegrowth.Pair{})
	clone := td.Clone()
	clone.Reference(1, fixed.One, false, 0, feegrowth.Pair{})
	clone.Reference(2, fixed.One, true, 0, feegrowth.Pair{})

	orig, _ := td.GetTick(1)
	assert.Equal(t, fixed.One, orig.LiquidityGross)
	assert.Equal(t, 1, td.Len())
	assert.Equal(t, "1 2", clone.String())
}

func TestFeeGrowthInside(t *testing.T) {
	td := NewTickData()
	td.Reference(-10, fixed.One, false, 0, growth)
	td.Reference(10, fixed.One, true, 0, growth)
	global := feegrowth.Pair{A: fixed.New(6), B: fixed.New(10)}
	// the low tick starts with everything outside so only new growth is inside
	assert.Equal(t, feegrowth.Pair{A: fixed.New(1), B: fixed.New(3)}, td.FeeGrowthInside(-10, 10, 0, global))
}

func TestNextInitializedTickMatchesSortedSlice(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		indexes := rapid.SliceOfNDistinct(rapid.IntRange(-1000, 1000), 0, 50, rapid.ID[int]).Draw(t, "ticks")
		td := NewTickData()
		for _, i := range indexes {
			td.Reference(i, fixed.One, false, 0, feegrowth.Pair{})
		}
		sort.Ints(indexes)
		from := rapid.IntRange(-1100, 1100).Draw(t, "from")

		wantDown, foundDown := tickmath.MinTick, false
		for _, i := range indexes {
			if i <= from {
				wantDown, foundDown = i, true
			}
		}
		wantUp, foundUp := tickmath.MaxTick, false
		for j := len(indexes) - 1; j >= 0; j-- {
			if indexes[j] > from {
				wantUp, foundUp = indexes[j], true
			}
		}

		if got, found := td.NextInitializedTick(from, true); got != wantDown || found != foundDown {
			t.Fatalf("down from %d: got %d %v want %d %v", from, got, found, wantDown, foundDown)
		}
		if got, found := td.NextInitializedTick(from, false); got != wantUp || found != foundUp {
			t.Fatalf("up from %d: got %d %v want %d %v", from, got, found, wantUp, foundUp)
		}
	})
}
