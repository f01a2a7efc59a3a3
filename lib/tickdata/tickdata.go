package tickdata

import (
	"fmt"
	"strings"

	"github.com/dcernahoschi/mojitoswap-pool/lib/feegrowth"
	"github.com/dcernahoschi/mojitoswap-pool/lib/fixed"
	"github.com/dcernahoschi/mojitoswap-pool/lib/invariant"
	"github.com/dcernahoschi/mojitoswap-pool/lib/tickmath"
	"github.com/google/btree"
)

// Tick is one initialized tick. Values are stored by value in the tree so a
// cloned ledger shares nothing mutable with the original.
type Tick struct {
	Index            int            `json:"index"`
	LiquidityNet     fixed.Decimal  `json:"liquidity_net"`
	LiquidityGross   fixed.Decimal  `json:"liquidity_gross"`
	FeeGrowthOutside feegrowth.Pair `json:"fee_growth_outside"`
}

type TickData struct {
	ticks *btree.BTreeG[Tick]
}

const degree = 16

func byIndex(a, b Tick) bool { return a.Index < b.Index }

func NewTickData() *TickData {
	return &TickData{ticks: btree.NewG(degree, byIndex)}
}

// Clone is copy-on-write; both copies stay independently mutable.
func (t *TickData) Clone() *TickData {
	return &TickData{ticks: t.ticks.Clone()}
}

func (t *TickData) String() string {
	var sb strings.Builder
	t.ticks.Ascend(func(c Tick) bool {
		fmt.Fprintf(&sb, "%d ", c.Index)
		return true
	})
	return strings.TrimSpace(sb.String())
}

func (t *TickData) Len() int { return t.ticks.Len() }

func (t *TickData) GetTick(index int) (Tick, bool) {
	return t.ticks.Get(Tick{Index: index})
}

// Ticks returns all initialized ticks in ascending order.
func (t *TickData) Ticks() []Tick {
	out := make([]Tick, 0, t.ticks.Len())
	t.ticks.Ascend(func(c Tick) bool {
		out = append(out, c)
		return true
	})
	return out
}

// Reference adds liquidityDelta of a range bounded by index. A new tick
// starts with all growth so far counted as outside if it is at or below the
// current tick.
func (t *TickData) Reference(index int, liquidityDelta fixed.Decimal, upper bool, currentTick int, global feegrowth.Pair) {
	invariant.Invariant(liquidityDelta.IsPositive(), "referenced liquidity must be positive")
	tick, ok := t.GetTick(index)
	if !ok {
		tick = Tick{Index: index}
		if index <= currentTick {
			tick.FeeGrowthOutside = global
		}
	}
	if upper {
		tick.LiquidityNet = tick.LiquidityNet.Sub(liquidityDelta)
	} else {
		tick.LiquidityNet = tick.LiquidityNet.Add(liquidityDelta)
	}
	tick.LiquidityGross = tick.LiquidityGross.Add(liquidityDelta)
	t.ticks.ReplaceOrInsert(tick)
}

// Dereference undoes Reference and drops the tick once nothing references
// it. It reports whether the tick was removed.
func (t *TickData) Dereference(index int, liquidityDelta fixed.Decimal, upper bool) bool {
	tick, ok := t.GetTick(index)
	invariant.Invariant(ok, "dereferenced tick is not initialized")
	if upper {
		tick.LiquidityNet = tick.LiquidityNet.Add(liquidityDelta)
	} else {
		tick.LiquidityNet = tick.LiquidityNet.Sub(liquidityDelta)
	}
	tick.LiquidityGross = tick.LiquidityGross.Sub(liquidityDelta)
	invariant.Invariant(!tick.LiquidityGross.IsNegative(), "gross liquidity underflow")
	if tick.LiquidityGross.IsZero() {
		t.ticks.Delete(tick)
		return true
	}
	t.ticks.ReplaceOrInsert(tick)
	return false
}

// NextInitializedTick returns the nearest initialized tick at or below tick
// when lte is set, or strictly above it otherwise. With none left in that
// direction it returns the codec bound and false.
func (t *TickData) NextInitializedTick(tick int, lte bool) (int, bool) {
	next, found := 0, false
	if lte {
		t.ticks.DescendLessOrEqual(Tick{Index: tick}, func(c Tick) bool {
			next, found = c.Index, true
			return false
		})
		if !found {
			return tickmath.MinTick, false
		}
		return next, true
	}
	t.ticks.AscendGreaterOrEqual(Tick{Index: tick + 1}, func(c Tick) bool {
		next, found = c.Index, true
		return false
	})
	if !found {
		return tickmath.MaxTick, false
	}
	return next, true
}

// Cross flips the tick's outside growth as the price moves past it and
// returns the change in active liquidity for that direction.
func (t *TickData) Cross(index int, global feegrowth.Pair, up bool) fixed.Decimal {
	tick, ok := t.GetTick(index)
	invariant.Invariant(ok, "crossed tick is not initialized")
	tick.FeeGrowthOutside = global.Sub(tick.FeeGrowthOutside)
	t.ticks.ReplaceOrInsert(tick)
	if up {
		return tick.LiquidityNet
	}
	return tick.LiquidityNet.Neg()
}

// FeeGrowthInside evaluates the growth inside [lowTick, highTick); both
// bounds must be initialized.
func (t *TickData) FeeGrowthInside(lowTick, highTick, currentTick int, global feegrowth.Pair) feegrowth.Pair {
	low, ok := t.GetTick(lowTick)
	invariant.Invariant(ok, "low tick is not initialized")
	high, ok := t.GetTick(highTick)
	invariant.Invariant(ok, "high tick is not initialized")
	return feegrowth.Inside(currentTick, lowTick, highTick, global, low.FeeGrowthOutside, high.FeeGrowthOutside)
}
