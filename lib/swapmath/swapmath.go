package swapmath

import (
	"github.com/dcernahoschi/mojitoswap-pool/lib/fixed"
	sqrtmath "github.com/dcernahoschi/mojitoswap-pool/lib/sqrtprice_math"
)

// ComputeSwapStep moves the price from sqrtPriceCurrent towards
// sqrtPriceTarget with constant liquidity, spending at most amountRemaining
// (fee included). The direction follows from the two prices: a target at or
// below the current price means asset A is being sold.
func ComputeSwapStep(sqrtPriceCurrent, sqrtPriceTarget, liquidity, amountRemaining, feeRate fixed.Decimal) (sqrtPriceNext, amountIn, amountOut, feeAmount fixed.Decimal) {
	aToB := sqrtPriceCurrent.GreaterThanOrEqual(sqrtPriceTarget)
	oneMinusFee := fixed.One.Sub(feeRate)

	amountRemainingLessFee := amountRemaining.Mul(oneMinusFee)
	if aToB {
		amountIn = sqrtmath.GetAmountADelta(sqrtPriceTarget, sqrtPriceCurrent, liquidity, true)
	} else {
		amountIn = sqrtmath.GetAmountBDelta(sqrtPriceCurrent, sqrtPriceTarget, liquidity, true)
	}
	if amountRemainingLessFee.GreaterThanOrEqual(amountIn) {
		sqrtPriceNext = sqrtPriceTarget
	} else {
		sqrtPriceNext = sqrtmath.GetNextSqrtPriceFromInput(sqrtPriceCurrent, liquidity, amountRemainingLessFee, aToB)
	}

	max := sqrtPriceTarget.Equal(sqrtPriceNext)

	if aToB {
		if !max {
			amountIn = sqrtmath.GetAmountADelta(sqrtPriceNext, sqrtPriceCurrent, liquidity, true)
		}
		amountOut = sqrtmath.GetAmountBDelta(sqrtPriceNext, sqrtPriceCurrent, liquidity, false)
	} else {
		if !max {
			amountIn = sqrtmath.GetAmountBDelta(sqrtPriceCurrent, sqrtPriceNext, liquidity, true)
		}
		amountOut = sqrtmath.GetAmountADelta(sqrtPriceCurrent, sqrtPriceNext, liquidity, false)
	}

	if !max {
		// we didn't reach the target, so take the remainder of the maximum input as fee
		amountIn = fixed.MinOf(amountIn, amountRemainingLessFee)
		feeAmount = amountRemaining.Sub(amountIn)
	} else {
		feeAmount = amountIn.MulUp(feeRate).QuoUp(oneMinusFee)
		if amountIn.Add(feeAmount).GreaterThan(amountRemaining) {
			feeAmount = amountRemaining.Sub(amountIn)
		}
	}
	return
}
