package fullmath

import (
	"errors"

	ui "github.com/holiman/uint256"
)

var (
	ErrOverflow       = errors.New("mulDiv overflow")
	ErrDivisionByZero = errors.New("mulDiv division by zero")
)

var one = ui.NewInt(1)

// MulDivRoundingUp returns ceil(a*b/denominator) computed with a 512-bit
// intermediate product.
func MulDivRoundingUp(a, b, denominator *ui.Int) (*ui.Int, error) {
	result, err := MulDiv(a, b, denominator)
	if err != nil {
		return nil, err
	}
	rem := new(ui.Int).MulMod(a, b, denominator)
	if !rem.IsZero() {
		if result.Eq(maxUint256) {
			return nil, ErrOverflow
		}
		result.Add(result, one)
	}
	return result, nil
}

// MulDiv returns floor(a*b/denominator) computed with a 512-bit intermediate
// product.
func MulDiv(a, b, denominator *ui.Int) (*ui.Int, error) {
	if denominator.IsZero() {
		return nil, ErrDivisionByZero
	}
	result, overflow := new(ui.Int).MulDivOverflow(a, b, denominator)
	if overflow {
		return nil, ErrOverflow
	}
	return result, nil
}

var maxUint256 = new(ui.Int).Not(new(ui.Int))
