package sqrtprice_math

import (
	"github.com/dcernahoschi/mojitoswap-pool/lib/fixed"
)

var ulp = fixed.FromScaled(1)

// GetReciprocalDelta returns 1/lo - 1/hi with both reciprocals truncated.
// Every amount of asset A is liquidity times such a difference, so A amounts
// measured over adjacent intervals add up exactly.
func GetReciprocalDelta(sqrtPriceA, sqrtPriceB fixed.Decimal) fixed.Decimal {
	if sqrtPriceA.GreaterThan(sqrtPriceB) {
		sqrtPriceA, sqrtPriceB = sqrtPriceB, sqrtPriceA
	}
	return fixed.One.Quo(sqrtPriceA).Sub(fixed.One.Quo(sqrtPriceB))
}

// GetAmountADelta returns L*(1/lo - 1/hi), the amount of asset A held by
// liquidity L between two sqrt prices.
func GetAmountADelta(sqrtPriceA, sqrtPriceB, liquidity fixed.Decimal, roundUp bool) fixed.Decimal {
	spread := GetReciprocalDelta(sqrtPriceA, sqrtPriceB)
	if roundUp {
		return liquidity.MulUp(spread)
	}
	return liquidity.Mul(spread)
}

// GetAmountBDelta returns L*(hi-lo), the amount of asset B held by liquidity
// L between two sqrt prices.
func GetAmountBDelta(sqrtPriceA, sqrtPriceB, liquidity fixed.Decimal, roundUp bool) fixed.Decimal {
	if sqrtPriceA.GreaterThan(sqrtPriceB) {
		sqrtPriceA, sqrtPriceB = sqrtPriceB, sqrtPriceA
	}
	diff := sqrtPriceB.Sub(sqrtPriceA)
	if roundUp {
		return liquidity.MulUp(diff)
	}
	return liquidity.Mul(diff)
}

// GetNextSqrtPriceFromInput moves the price by an exact input amount. Selling
// A lowers the price, selling B raises it; either way the move never costs
// more than amountIn once the input is rounded up.
func GetNextSqrtPriceFromInput(sqrtPrice, liquidity, amountIn fixed.Decimal, aToB bool) fixed.Decimal {
	if aToB {
		return getNextSqrtPriceFromAmountA(sqrtPrice, liquidity, amountIn)
	}
	return getNextSqrtPriceFromAmountBRoundingDown(sqrtPrice, liquidity, amountIn)
}

// getNextSqrtPriceFromAmountA truncates L/(L/P + amount). When truncation
// overshoots what amount pays for, the price is raised to the lowest one
// that amount still covers.
func getNextSqrtPriceFromAmountA(sqrtPrice, liquidity, amount fixed.Decimal) fixed.Decimal {
	if amount.IsZero() {
		return sqrtPrice
	}
	next := liquidity.Quo(liquidity.Quo(sqrtPrice).Add(amount))
	if GetAmountADelta(next, sqrtPrice, liquidity, true).LessThanOrEqual(amount) {
		return next
	}
	two := fixed.New(2)
	lo, hi := next, sqrtPrice
	for hi.Sub(lo).GreaterThan(ulp) {
		mid := lo.Add(hi).Quo(two)
		if GetAmountADelta(mid, sqrtPrice, liquidity, true).LessThanOrEqual(amount) {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi
}

func getNextSqrtPriceFromAmountBRoundingDown(sqrtPrice, liquidity, amount fixed.Decimal) fixed.Decimal {
	return sqrtPrice.Add(amount.Quo(liquidity))
}
