package pool

import (
	"fmt"

	"github.com/dcernahoschi/mojitoswap-pool/lib/custody"
	"github.com/dcernahoschi/mojitoswap-pool/lib/fixed"
	"github.com/dcernahoschi/mojitoswap-pool/lib/invariant"
	"github.com/dcernahoschi/mojitoswap-pool/lib/swapmath"
	"github.com/dcernahoschi/mojitoswap-pool/lib/tickmath"
	"go.uber.org/zap"
)

type StepComputations struct {
	sqrtPriceStart fixed.Decimal
	tickNext       int
	initialized    bool
	sqrtPriceNext  fixed.Decimal
	amountIn       fixed.Decimal
	amountOut      fixed.Decimal
	feeAmount      fixed.Decimal
}

type stateStruct struct {
	amountRemaining fixed.Decimal
	amountOut       fixed.Decimal
	feeAmount       fixed.Decimal
	sqrtPrice       fixed.Decimal
	tick            int
	tickKnown       bool
	feeGrowthGlobal fixed.Decimal
	liquidity       fixed.Decimal
	ticksCrossed    int
}

// SwapResult describes a settled swap.
type SwapResult struct {
	Output    custody.Bucket
	Remainder custody.Bucket
	// AmountIn is the consumed input, fee included.
	AmountIn     fixed.Decimal
	Fee          fixed.Decimal
	TicksCrossed int
	SqrtPrice    fixed.Decimal
	Tick         int
}

func defaultLimit(aToB bool) fixed.Decimal {
	if aToB {
		return tickmath.MinSqrtPrice
	}
	return tickmath.MaxSqrtPrice
}

func (p *Pool) checkLimit(aToB bool, limit fixed.Decimal) (fixed.Decimal, error) {
	if limit.IsZero() {
		return defaultLimit(aToB), nil
	}
	price := p.state.sqrtPrice
	if aToB && (limit.GreaterThanOrEqual(price) || limit.LessThan(tickmath.MinSqrtPrice)) ||
		!aToB && (limit.LessThanOrEqual(price) || limit.GreaterThan(tickmath.MaxSqrtPrice)) {
		return fixed.Zero, fmt.Errorf("%w: %s with price at %s", ErrInvalidPriceLimit, limit, price)
	}
	return limit, nil
}

// Swap sells the whole input bucket, or as much of it as the pool's
// liquidity can absorb. The direction follows from the bucket's asset.
func (p *Pool) Swap(in custody.Bucket) (SwapResult, error) {
	return p.SwapWithLimit(in, fixed.Zero)
}

// SwapWithLimit is Swap that stops once the sqrt price reaches limit. A zero
// limit means no limit.
func (p *Pool) SwapWithLimit(in custody.Bucket, limit fixed.Decimal) (res SwapResult, err error) {
	err = p.atomically("swap", func(tx *txn) error {
		aToB, err := p.sideOf(in.Asset)
		if err != nil {
			return err
		}
		if in.Amount.IsNegative() {
			return custody.ErrNegativeAmount
		}
		priceLimit, err := p.checkLimit(aToB, limit)
		if err != nil {
			return err
		}

		state := p.swap(aToB, in.Amount, priceLimit)

		consumed := in.Amount.Sub(state.amountRemaining)
		paid, rest, err := in.Split(consumed)
		if err != nil {
			return err
		}
		if err := tx.deposit(paid); err != nil {
			return err
		}
		outAsset := p.assetB
		if !aToB {
			outAsset = p.assetA
		}
		out, err := tx.withdraw(outAsset, state.amountOut)
		if err != nil {
			return err
		}
		res = SwapResult{
			Output:       out,
			Remainder:    rest,
			AmountIn:     consumed,
			Fee:          state.feeAmount,
			TicksCrossed: state.ticksCrossed,
			SqrtPrice:    state.sqrtPrice,
			Tick:         state.tick,
		}
		p.log.Debug("swap",
			zap.Stringer("in", paid),
			zap.Stringer("out", out),
			zap.Stringer("remainder", rest),
			zap.Stringer("fee", state.feeAmount),
			zap.Int("ticks_crossed", state.ticksCrossed),
			zap.Stringer("sqrt_price", state.sqrtPrice),
			zap.Int("tick", state.tick),
		)
		return nil
	})
	if err != nil {
		return SwapResult{Remainder: in}, err
	}
	return res, nil
}

// Quote reports what Swap would return for amount of asset without changing
// the pool.
func (p *Pool) Quote(asset custody.Asset, amount fixed.Decimal) (out, remainder fixed.Decimal, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	aToB, err := p.sideOf(asset)
	if err != nil {
		return fixed.Zero, fixed.Zero, &OpError{Op: "quote", Err: err}
	}
	if amount.IsNegative() {
		return fixed.Zero, fixed.Zero, &OpError{Op: "quote", Err: custody.ErrNegativeAmount}
	}
	saved := p.state
	p.state = saved.clone()
	defer func() {
		p.state = saved
		if r := recover(); r != nil {
			out, remainder, err = fixed.Zero, fixed.Zero, &OpError{Op: "quote", Err: recovered(r)}
		}
	}()
	state := p.swap(aToB, amount, defaultLimit(aToB))
	return state.amountOut, state.amountRemaining, nil
}

// swap runs the step loop against p.state and commits the final price,
// tick, liquidity and fee growth to it. Custody is left to the caller.
func (p *Pool) swap(aToB bool, amountSpecified, sqrtPriceLimit fixed.Decimal) stateStruct {
	var feeGrowthGlobal fixed.Decimal
	if aToB {
		feeGrowthGlobal = p.state.feeGrowthGlobal.A
	} else {
		feeGrowthGlobal = p.state.feeGrowthGlobal.B
	}
	state := stateStruct{
		amountRemaining: amountSpecified,
		sqrtPrice:       p.state.sqrtPrice,
		tick:            p.state.tickCurrent,
		tickKnown:       true,
		feeGrowthGlobal: feeGrowthGlobal,
		liquidity:       p.state.liquidity,
	}

	for state.amountRemaining.IsPositive() && !state.sqrtPrice.Equal(sqrtPriceLimit) {
		var step StepComputations
		step.sqrtPriceStart = state.sqrtPrice
		step.tickNext, step.initialized = p.state.tickData.NextInitializedTick(state.tick, aToB)

		// nothing left to trade against in this direction
		if !step.initialized && state.liquidity.IsZero() {
			break
		}

		step.sqrtPriceNext = tickmath.MustSqrtPriceAtTick(step.tickNext)
		var target fixed.Decimal
		if aToB {
			target = fixed.MaxOf(step.sqrtPriceNext, sqrtPriceLimit)
		} else {
			target = fixed.MinOf(step.sqrtPriceNext, sqrtPriceLimit)
		}

		state.sqrtPrice, step.amountIn, step.amountOut, step.feeAmount =
			swapmath.ComputeSwapStep(state.sqrtPrice, target, state.liquidity, state.amountRemaining, p.feeRate)

		state.amountRemaining = state.amountRemaining.Sub(step.amountIn.Add(step.feeAmount))
		state.amountOut = state.amountOut.Add(step.amountOut)
		state.feeAmount = state.feeAmount.Add(step.feeAmount)

		if state.liquidity.IsPositive() {
			state.feeGrowthGlobal = state.feeGrowthGlobal.Add(step.feeAmount.Quo(state.liquidity))
		}

		if state.sqrtPrice.Equal(step.sqrtPriceNext) && step.initialized {
			global := p.state.feeGrowthGlobal
			if aToB {
				global.A = state.feeGrowthGlobal
			} else {
				global.B = state.feeGrowthGlobal
			}
			state.liquidity = state.liquidity.Add(p.state.tickData.Cross(step.tickNext, global, !aToB))
			if aToB {
				state.tick = step.tickNext - 1
			} else {
				state.tick = step.tickNext
			}
			state.tickKnown = true
			state.ticksCrossed++
		} else if !state.sqrtPrice.Equal(step.sqrtPriceStart) {
			// a step that leaves the price in place keeps the tick; after a
			// downward crossing the price sits on the crossed tick's boundary
			state.tickKnown = false
		}
	}
	if !state.tickKnown {
		tick, err := tickmath.TickAtSqrtPrice(state.sqrtPrice)
		invariant.Invariant(err == nil, "swap moved the price outside the codec bounds")
		state.tick = tick
	}

	p.state.sqrtPrice = state.sqrtPrice
	p.state.tickCurrent = state.tick
	p.state.liquidity = state.liquidity
	if aToB {
		p.state.feeGrowthGlobal.A = state.feeGrowthGlobal
	} else {
		p.state.feeGrowthGlobal.B = state.feeGrowthGlobal
	}
	return state
}
