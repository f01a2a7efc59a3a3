// Package fixed implements the signed fixed-point number used for every
// amount, price and liquidity value in the pool.
//
// A Decimal holds an integer scaled by 10^18 in a signed 192-bit range.
// Multiplication and division truncate toward zero unless the Up variant is
// used, which rounds the magnitude away from zero. Any result outside the
// representable range panics with an *ArithmeticError; callers that need an
// error value recover it at their API boundary.
package fixed

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math/big"

	"github.com/dcernahoschi/mojitoswap-pool/lib/fullmath"
	ui "github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Scale is the number of fractional decimal digits.
const Scale = 18

var (
	ErrOverflow  = errors.New("value out of range")
	ErrPrecision = errors.New("more than 18 fractional digits")
	ErrSyntax    = errors.New("invalid decimal syntax")
)

// ArithmeticError is raised as a panic by overflowing or dividing operations.
type ArithmeticError struct {
	Op  string
	Err error
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("fixed: %s: %v", e.Op, e.Err)
}

func (e *ArithmeticError) Unwrap() error { return e.Err }

var (
	scale    = new(ui.Int).Exp(ui.NewInt(10), ui.NewInt(Scale))
	maxValue = new(ui.Int).Sub(new(ui.Int).Lsh(ui.NewInt(1), 191), ui.NewInt(1))
	minValue = new(ui.Int).Neg(new(ui.Int).Lsh(ui.NewInt(1), 191))
	// largest magnitude a negative value may carry
	maxNegMagnitude = new(ui.Int).Lsh(ui.NewInt(1), 191)
)

// Decimal is a value type; the zero value is 0.
type Decimal struct {
	v ui.Int
}

var (
	Zero = Decimal{}
	One  = New(1)
	// Max and Min bound the representable range.
	Max = Decimal{v: *maxValue}
	Min = Decimal{v: *minValue}
)

// New returns the integer i as a Decimal.
func New(i int64) Decimal {
	neg := i < 0
	m := uint64(i)
	if neg {
		m = uint64(-i)
	}
	var z Decimal
	z.v.Mul(ui.NewInt(m), scale)
	if neg {
		z.v.Neg(&z.v)
	}
	return z
}

// FromScaled returns raw * 10^-18.
func FromScaled(raw int64) Decimal {
	var z Decimal
	if raw < 0 {
		z.v.SetUint64(uint64(-raw))
		z.v.Neg(&z.v)
		return z
	}
	z.v.SetUint64(uint64(raw))
	return z
}

// FromBigScaled returns raw * 10^-18, failing if raw is out of range.
func FromBigScaled(raw *big.Int) (Decimal, error) {
	neg := raw.Sign() < 0
	mag, overflow := ui.FromBig(new(big.Int).Abs(raw))
	if overflow {
		return Zero, ErrOverflow
	}
	return fromMagnitude(mag, neg)
}

// Parse reads a plain decimal string such as "-12.5".
func Parse(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	shifted := d.Shift(Scale)
	if !shifted.IsInteger() {
		return Zero, fmt.Errorf("%w: %q", ErrPrecision, s)
	}
	return FromBigScaled(shifted.BigInt())
}

// MustParse is Parse for constants; it panics on malformed input.
func MustParse(s string) Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func fromMagnitude(mag *ui.Int, neg bool) (Decimal, error) {
	var z Decimal
	if neg {
		if mag.Gt(maxNegMagnitude) {
			return Zero, ErrOverflow
		}
		z.v.Neg(mag)
		return z, nil
	}
	if mag.Gt(maxValue) {
		return Zero, ErrOverflow
	}
	z.v.Set(mag)
	return z, nil
}

func mustMagnitude(op string, mag *ui.Int, neg bool) Decimal {
	z, err := fromMagnitude(mag, neg)
	if err != nil {
		panic(&ArithmeticError{Op: op, Err: err})
	}
	return z
}

func (d Decimal) checked(op string) Decimal {
	if d.v.Sgt(maxValue) || d.v.Slt(minValue) {
		panic(&ArithmeticError{Op: op, Err: ErrOverflow})
	}
	return d
}

func (d Decimal) Add(o Decimal) Decimal {
	var z Decimal
	z.v.Add(&d.v, &o.v)
	return z.checked("add")
}

func (d Decimal) Sub(o Decimal) Decimal {
	var z Decimal
	z.v.Sub(&d.v, &o.v)
	return z.checked("sub")
}

func (d Decimal) Neg() Decimal {
	var z Decimal
	z.v.Neg(&d.v)
	return z.checked("neg")
}

func (d Decimal) Abs() Decimal {
	if d.IsNegative() {
		return d.Neg()
	}
	return d
}

// Mul returns d*o truncated toward zero.
func (d Decimal) Mul(o Decimal) Decimal { return d.mul(o, false) }

// MulUp returns d*o with the magnitude rounded up.
func (d Decimal) MulUp(o Decimal) Decimal { return d.mul(o, true) }

// Quo returns d/o truncated toward zero.
func (d Decimal) Quo(o Decimal) Decimal { return d.quo(o, false) }

// QuoUp returns d/o with the magnitude rounded up.
func (d Decimal) QuoUp(o Decimal) Decimal { return d.quo(o, true) }

func (d Decimal) mul(o Decimal, up bool) Decimal {
	op := "mul"
	if up {
		op = "mulUp"
	}
	var a, b ui.Int
	a.Abs(&d.v)
	b.Abs(&o.v)
	q, err := mulDiv(&a, &b, scale, up)
	if err != nil {
		panic(&ArithmeticError{Op: op, Err: err})
	}
	return mustMagnitude(op, q, d.Sign()*o.Sign() < 0)
}

func (d Decimal) quo(o Decimal, up bool) Decimal {
	op := "quo"
	if up {
		op = "quoUp"
	}
	var a, b ui.Int
	a.Abs(&d.v)
	b.Abs(&o.v)
	q, err := mulDiv(&a, scale, &b, up)
	if err != nil {
		panic(&ArithmeticError{Op: op, Err: err})
	}
	return mustMagnitude(op, q, d.Sign()*o.Sign() < 0)
}

func mulDiv(a, b, d *ui.Int, up bool) (*ui.Int, error) {
	if up {
		return fullmath.MulDivRoundingUp(a, b, d)
	}
	return fullmath.MulDiv(a, b, d)
}

// Sign returns -1, 0 or +1.
func (d Decimal) Sign() int { return d.v.Sign() }

func (d Decimal) IsZero() bool     { return d.v.IsZero() }
func (d Decimal) IsPositive() bool { return d.v.Sign() > 0 }
func (d Decimal) IsNegative() bool { return d.v.Sign() < 0 }

// Cmp compares d and o as signed values.
func (d Decimal) Cmp(o Decimal) int {
	switch {
	case d.v.Slt(&o.v):
		return -1
	case d.v.Sgt(&o.v):
		return 1
	}
	return 0
}

func (d Decimal) Equal(o Decimal) bool              { return d.v.Eq(&o.v) }
func (d Decimal) LessThan(o Decimal) bool           { return d.Cmp(o) < 0 }
func (d Decimal) LessThanOrEqual(o Decimal) bool    { return d.Cmp(o) <= 0 }
func (d Decimal) GreaterThan(o Decimal) bool        { return d.Cmp(o) > 0 }
func (d Decimal) GreaterThanOrEqual(o Decimal) bool { return d.Cmp(o) >= 0 }

func MinOf(a, b Decimal) Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

func MaxOf(a, b Decimal) Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Scaled returns the underlying integer, d * 10^18.
func (d Decimal) Scaled() *big.Int {
	if d.IsNegative() {
		var m ui.Int
		m.Neg(&d.v)
		return new(big.Int).Neg(m.ToBig())
	}
	return d.v.ToBig()
}

func (d Decimal) shop() decimal.Decimal {
	return decimal.NewFromBigInt(d.Scaled(), -Scale)
}

func (d Decimal) String() string { return d.shop().String() }

// Float64 is lossy and meant for metrics only.
func (d Decimal) Float64() float64 { return d.shop().InexactFloat64() }

func (d Decimal) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Decimal) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Value stores the decimal as text so no precision is lost in SQL columns.
func (d Decimal) Value() (driver.Value, error) { return d.String(), nil }

func (d *Decimal) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return d.UnmarshalText([]byte(v))
	case []byte:
		return d.UnmarshalText(v)
	case int64:
		*d = New(v)
		return nil
	case nil:
		*d = Zero
		return nil
	}
	return fmt.Errorf("fixed: cannot scan %T", src)
}
