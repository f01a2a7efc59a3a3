package pool

import (
	"errors"
	"fmt"

	"github.com/dcernahoschi/mojitoswap-pool/lib/fixed"
	"github.com/dcernahoschi/mojitoswap-pool/lib/invariant"
	"github.com/dcernahoschi/mojitoswap-pool/lib/tickmath"
)

var (
	ErrInvalidRange          = errors.New("invalid tick range")
	ErrOutOfBounds           = tickmath.ErrOutOfBounds
	ErrInsufficientOwnership = errors.New("insufficient ownership")
	ErrZeroLiquidity         = errors.New("zero liquidity")
	ErrArithmetic            = errors.New("arithmetic overflow")
	ErrInvariant             = errors.New("invariant violated")
	ErrInvalidFeeRate        = errors.New("fee rate must be in [0, 1)")
	ErrSameAsset             = errors.New("pool assets must differ")
	ErrUnknownAsset          = errors.New("asset not traded by pool")
	ErrInvalidPriceLimit     = errors.New("invalid price limit")
)

// OpError records the pool operation that failed.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string { return "pool " + e.Op + ": " + e.Err.Error() }

func (e *OpError) Unwrap() error { return e.Err }

// recovered turns an aborting panic from the arithmetic or invariant layer
// into an error. Anything else is not ours and keeps unwinding.
func recovered(r any) error {
	switch v := r.(type) {
	case *fixed.ArithmeticError:
		return fmt.Errorf("%w: %v", ErrArithmetic, v)
	case *invariant.Violation:
		return fmt.Errorf("%w: %s", ErrInvariant, v.Msg)
	}
	panic(r)
}
