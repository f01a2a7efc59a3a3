// Package feegrowth holds fee-per-unit-of-liquidity accumulators for both
// assets of a pool.
package feegrowth

import "github.com/dcernahoschi/mojitoswap-pool/lib/fixed"

// Pair is a fee growth value for asset A and asset B.
type Pair struct {
	A fixed.Decimal `json:"a"`
	B fixed.Decimal `json:"b"`
}

func (p Pair) Add(o Pair) Pair { return Pair{A: p.A.Add(o.A), B: p.B.Add(o.B)} }
func (p Pair) Sub(o Pair) Pair { return Pair{A: p.A.Sub(o.A), B: p.B.Sub(o.B)} }

// Inside returns the growth accumulated inside [lowTick, highTick) given the
// growth recorded outside each bound. Intermediate values may be negative;
// only differences of Inside over time are meaningful.
func Inside(currentTick, lowTick, highTick int, global, outsideLow, outsideHigh Pair) Pair {
	var below, above Pair
	if currentTick >= lowTick {
		below = outsideLow
	} else {
		below = global.Sub(outsideLow)
	}
	if currentTick < highTick {
		above = outsideHigh
	} else {
		above = global.Sub(outsideHigh)
	}
	return global.Sub(below).Sub(above)
}

// Owed returns the fees earned by liquidity while the inside growth moved
// from last to now, rounded down.
func Owed(liquidity fixed.Decimal, now, last Pair) (a, b fixed.Decimal) {
	d := now.Sub(last)
	return liquidity.Mul(d.A), liquidity.Mul(d.B)
}
