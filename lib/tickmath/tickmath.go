package tickmath

import (
	"errors"
	"fmt"

	"github.com/dcernahoschi/mojitoswap-pool/lib/fixed"
)

const (
	MinTick int = -631042 // The minimum tick whose sqrt price is representable.
	MaxTick int = 931709  // The maximum tick whose sqrt price is representable.
)

var (
	MinSqrtPrice = fixed.MustParse("0.00000000000001985")                       // sqrt price at MinTick
	MaxSqrtPrice = fixed.MustParse("170134484377190040957.155711420855095752") // sqrt price at MaxTick
)

var (
	ErrOutOfBounds     = errors.New("out of bounds")
	ErrTickOutOfRange  = fmt.Errorf("tick %w", ErrOutOfBounds)
	ErrPriceOutOfRange = fmt.Errorf("sqrt price %w", ErrOutOfBounds)
)

// sqrtPowers[b] = sqrt(1.0001)^(2^b), exact to 18 digits.
var sqrtPowers = [20]fixed.Decimal{
	fixed.MustParse("1.000049998750062496"),
	fixed.MustParse("1.0001"),
	fixed.MustParse("1.00020001"),
	fixed.MustParse("1.000400060004000093"),
	fixed.MustParse("1.000800280056006986"),
	fixed.MustParse("1.001601200560182014"),
	fixed.MustParse("1.003204964963597955"),
	fixed.MustParse("1.0064202017276138"),
	fixed.MustParse("1.012881622445450855"),
	fixed.MustParse("1.025929181087728853"),
	fixed.MustParse("1.052530684607337941"),
	fixed.MustParse("1.107820842039991493"),
	fixed.MustParse("1.227267018058195782"),
	fixed.MustParse("1.506184333613455851"),
	fixed.MustParse("2.268591246822610072"),
	fixed.MustParse("5.146506245160164533"),
	fixed.MustParse("26.486526531472575563"),
	fixed.MustParse("701.536087702400664335"),
	fixed.MustParse("492152.882348790396620919"),
	fixed.MustParse("242214459604.222321943471435452"),
}

// SqrtPriceAtTick
// Returns the sqrt price for the given tick, computed as sqrt(1.0001)^tick
// with one truncation per multiplied power.
func SqrtPriceAtTick(tick int) (fixed.Decimal, error) {
	if tick < MinTick || tick > MaxTick {
		return fixed.Zero, fmt.Errorf("%w: %d", ErrTickOutOfRange, tick)
	}
	return sqrtPriceAtTick(tick), nil
}

// MustSqrtPriceAtTick is SqrtPriceAtTick for ticks already known to be valid.
func MustSqrtPriceAtTick(tick int) fixed.Decimal {
	p, err := SqrtPriceAtTick(tick)
	if err != nil {
		panic(err)
	}
	return p
}

func sqrtPriceAtTick(tick int) fixed.Decimal {
	absTick := tick
	if tick < 0 {
		absTick = -tick
	}
	ratio := fixed.One
	for b := 0; b < len(sqrtPowers); b++ {
		if absTick&(1<<b) != 0 {
			ratio = ratio.Mul(sqrtPowers[b])
		}
	}
	if tick < 0 {
		ratio = fixed.One.Quo(ratio)
	}
	return ratio
}

// TickAtSqrtPrice
// Returns the greatest tick whose sqrt price is less than or equal to the
// given price.
func TickAtSqrtPrice(sqrtPrice fixed.Decimal) (int, error) {
	if sqrtPrice.LessThan(MinSqrtPrice) || sqrtPrice.GreaterThan(MaxSqrtPrice) {
		return 0, fmt.Errorf("%w: %s", ErrPriceOutOfRange, sqrtPrice)
	}

	below := sqrtPrice.LessThan(fixed.One)
	r := sqrtPrice
	if below {
		r = fixed.One.Quo(sqrtPrice)
	}
	tick := 0
	for b := len(sqrtPowers) - 1; b > 0; b-- {
		if r.GreaterThanOrEqual(sqrtPowers[b]) {
			r = r.Quo(sqrtPowers[b])
			tick += 1 << b
		}
	}
	if r.GreaterThanOrEqual(sqrtPowers[0]) {
		tick++
	}
	if below {
		tick = -tick
	}

	// the divisions above may land a few ticks off; walk to the floor
	for tick > MinTick && sqrtPriceAtTick(tick).GreaterThan(sqrtPrice) {
		tick--
	}
	for tick < MaxTick && sqrtPriceAtTick(tick+1).LessThanOrEqual(sqrtPrice) {
		tick++
	}
	return tick, nil
}
