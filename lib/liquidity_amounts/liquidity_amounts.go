package liquidity_amounts

import (
	"github.com/dcernahoschi/mojitoswap-pool/lib/fixed"
	sqrtmath "github.com/dcernahoschi/mojitoswap-pool/lib/sqrtprice_math"
)

func GetLiquidityForAmountA(sqrtPriceA, sqrtPriceB, amountA fixed.Decimal) fixed.Decimal {
	// same spread as GetAmountADelta, so the rounded-up deposit fits amountA
	spread := sqrtmath.GetReciprocalDelta(sqrtPriceA, sqrtPriceB)
	if spread.IsZero() {
		// both reciprocals truncate to zero far above a price of 1e18
		return fixed.Zero
	}
	return amountA.Quo(spread)
}

func GetLiquidityForAmountB(sqrtPriceA, sqrtPriceB, amountB fixed.Decimal) fixed.Decimal {
	if sqrtPriceA.GreaterThan(sqrtPriceB) {
		sqrtPriceA, sqrtPriceB = sqrtPriceB, sqrtPriceA
	}
	return amountB.Quo(sqrtPriceB.Sub(sqrtPriceA))
}

// GetLiquidityForAmounts returns the largest liquidity both amounts can fund
// over [sqrtPriceA, sqrtPriceB] at the current price.
func GetLiquidityForAmounts(sqrtPrice, sqrtPriceA, sqrtPriceB, amountA, amountB fixed.Decimal) (liquidity fixed.Decimal) {
	if sqrtPriceA.GreaterThan(sqrtPriceB) {
		sqrtPriceA, sqrtPriceB = sqrtPriceB, sqrtPriceA
	}
	if sqrtPrice.LessThanOrEqual(sqrtPriceA) {
		liquidity = GetLiquidityForAmountA(sqrtPriceA, sqrtPriceB, amountA)
	} else if sqrtPrice.LessThan(sqrtPriceB) {
		liquidityA := GetLiquidityForAmountA(sqrtPrice, sqrtPriceB, amountA)
		liquidityB := GetLiquidityForAmountB(sqrtPriceA, sqrtPrice, amountB)
		liquidity = fixed.MinOf(liquidityA, liquidityB)
	} else {
		liquidity = GetLiquidityForAmountB(sqrtPriceA, sqrtPriceB, amountB)
	}
	return liquidity
}

// GetAmountsForLiquidity returns the asset amounts backing liquidity over
// [lowTick, highTick). The side is chosen by the current tick so that it
// agrees with which positions count as active.
func GetAmountsForLiquidity(tick int, sqrtPrice fixed.Decimal, lowTick, highTick int, sqrtPriceLow, sqrtPriceHigh, liquidity fixed.Decimal, roundUp bool) (amountA, amountB fixed.Decimal) {
	switch {
	case tick < lowTick:
		amountA = sqrtmath.GetAmountADelta(sqrtPriceLow, sqrtPriceHigh, liquidity, roundUp)
	case tick < highTick:
		amountA = sqrtmath.GetAmountADelta(sqrtPrice, sqrtPriceHigh, liquidity, roundUp)
		amountB = sqrtmath.GetAmountBDelta(sqrtPriceLow, sqrtPrice, liquidity, roundUp)
	default:
		amountB = sqrtmath.GetAmountBDelta(sqrtPriceLow, sqrtPriceHigh, liquidity, roundUp)
	}
	return amountA, amountB
}
