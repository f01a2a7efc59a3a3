package pool

import (
	"fmt"

	"github.com/dcernahoschi/mojitoswap-pool/lib/capability"
	"github.com/dcernahoschi/mojitoswap-pool/lib/custody"
	"github.com/dcernahoschi/mojitoswap-pool/lib/feegrowth"
	"github.com/dcernahoschi/mojitoswap-pool/lib/fixed"
	la "github.com/dcernahoschi/mojitoswap-pool/lib/liquidity_amounts"
	"github.com/dcernahoschi/mojitoswap-pool/lib/position"
	"github.com/dcernahoschi/mojitoswap-pool/lib/tickmath"
	"go.uber.org/zap"
)

func validateRange(lowTick, highTick int) error {
	if lowTick >= highTick || lowTick < tickmath.MinTick || highTick > tickmath.MaxTick {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, lowTick, highTick)
	}
	return nil
}

func (p *Pool) checkBuckets(a, b custody.Bucket) error {
	if a.Asset != p.assetA {
		return fmt.Errorf("%w: expected %s, got %s", ErrUnknownAsset, p.assetA, a.Asset)
	}
	if b.Asset != p.assetB {
		return fmt.Errorf("%w: expected %s, got %s", ErrUnknownAsset, p.assetB, b.Asset)
	}
	if a.Amount.IsNegative() || b.Amount.IsNegative() {
		return custody.ErrNegativeAmount
	}
	return nil
}

// owned resolves a presented token to its position.
func (p *Pool) owned(tok capability.Token) (position.Info, error) {
	if err := p.registry.Verify(tok); err != nil {
		return position.Info{}, fmt.Errorf("%w: %v", ErrInsufficientOwnership, err)
	}
	pos, ok := p.state.positions.Get(tok.ID)
	if !ok {
		return position.Info{}, fmt.Errorf("%w: no position for %s", ErrInsufficientOwnership, tok)
	}
	return pos, nil
}

func (p *Pool) rangePrices(lowTick, highTick int) (low, high fixed.Decimal) {
	return tickmath.MustSqrtPriceAtTick(lowTick), tickmath.MustSqrtPriceAtTick(highTick)
}

func (p *Pool) liquidityFor(lowTick, highTick int, amountA, amountB fixed.Decimal) fixed.Decimal {
	low, high := p.rangePrices(lowTick, highTick)
	return la.GetLiquidityForAmounts(p.state.sqrtPrice, low, high, amountA, amountB)
}

func (p *Pool) amountsFor(lowTick, highTick int, liquidity fixed.Decimal, roundUp bool) (a, b fixed.Decimal) {
	low, high := p.rangePrices(lowTick, highTick)
	return la.GetAmountsForLiquidity(p.state.tickCurrent, p.state.sqrtPrice, lowTick, highTick, low, high, liquidity, roundUp)
}

// depositAmountsFor rounds in the pool's favour. Liquidity derived from
// availA and availB by liquidityFor always fits them; needing more is a bug,
// never dust to be waived.
func (p *Pool) depositAmountsFor(lowTick, highTick int, liquidity, availA, availB fixed.Decimal) (a, b fixed.Decimal, err error) {
	a, b = p.amountsFor(lowTick, highTick, liquidity, true)
	if a.GreaterThan(availA) || b.GreaterThan(availB) {
		return a, b, fmt.Errorf("%w: liquidity %s needs %s/%s, only %s/%s supplied",
			ErrInvariant, liquidity, a, b, availA, availB)
	}
	return a, b, nil
}

func (p *Pool) modifyPosition(lowTick, highTick int, liquidityDelta fixed.Decimal) {
	s := &p.state
	if liquidityDelta.IsPositive() {
		s.tickData.Reference(lowTick, liquidityDelta, false, s.tickCurrent, s.feeGrowthGlobal)
		s.tickData.Reference(highTick, liquidityDelta, true, s.tickCurrent, s.feeGrowthGlobal)
	} else {
		s.tickData.Dereference(lowTick, liquidityDelta.Neg(), false)
		s.tickData.Dereference(highTick, liquidityDelta.Neg(), true)
	}
	if s.tickCurrent >= lowTick && s.tickCurrent < highTick {
		s.liquidity = s.liquidity.Add(liquidityDelta)
	}
}

func (p *Pool) feeGrowthInside(pos position.Info) feegrowth.Pair {
	return p.state.tickData.FeeGrowthInside(pos.LowTick, pos.HighTick, p.state.tickCurrent, p.state.feeGrowthGlobal)
}

func metadataOf(pos position.Info) capability.Metadata {
	return capability.Metadata{LowTick: pos.LowTick, HighTick: pos.HighTick, Liquidity: pos.Liquidity}
}

// settleDeposit keeps what the position needs from each bucket and hands
// back the rest.
func settleDeposit(tx *txn, a, b custody.Bucket, needA, needB fixed.Decimal) (refundA, refundB custody.Bucket, err error) {
	keepA, refundA, err := a.Split(needA)
	if err != nil {
		return refundA, refundB, err
	}
	keepB, refundB, err := b.Split(needB)
	if err != nil {
		return refundA, refundB, err
	}
	if err = tx.deposit(keepA); err != nil {
		return refundA, refundB, err
	}
	if err = tx.deposit(keepB); err != nil {
		return refundA, refundB, err
	}
	return refundA, refundB, nil
}

// AddPosition opens a position over [lowTick, highTick) funded from a and b.
// The liquidity is the most the scarcer side allows; the unused part of the
// other side is refunded.
func (p *Pool) AddPosition(lowTick, highTick int, a, b custody.Bucket) (tok capability.Token, refundA, refundB custody.Bucket, err error) {
	err = p.atomically("add_position", func(tx *txn) error {
		if err := validateRange(lowTick, highTick); err != nil {
			return err
		}
		if err := p.checkBuckets(a, b); err != nil {
			return err
		}
		liquidity := p.liquidityFor(lowTick, highTick, a.Amount, b.Amount)
		if !liquidity.IsPositive() {
			return ErrZeroLiquidity
		}
		needA, needB, err := p.depositAmountsFor(lowTick, highTick, liquidity, a.Amount, b.Amount)
		if err != nil {
			return err
		}
		tok, err = tx.mint(capability.Metadata{LowTick: lowTick, HighTick: highTick, Liquidity: liquidity})
		if err != nil {
			return err
		}
		p.modifyPosition(lowTick, highTick, liquidity)
		pos := position.NewPosition(tok.ID, lowTick, highTick)
		pos.Update(liquidity, p.feeGrowthInside(pos))
		p.state.positions.Set(pos)

		refundA, refundB, err = settleDeposit(tx, a, b, needA, needB)
		if err != nil {
			return err
		}
		p.log.Debug("position added",
			zap.Stringer("token", tok),
			zap.Int("low_tick", lowTick),
			zap.Int("high_tick", highTick),
			zap.Stringer("liquidity", liquidity),
			zap.Stringer("amount_a", needA),
			zap.Stringer("amount_b", needB),
		)
		return nil
	})
	if err != nil {
		return capability.Token{}, a, b, err
	}
	return tok, refundA, refundB, nil
}

// AddLiquidity grows an existing position. Fees earned so far are credited
// before the liquidity changes.
func (p *Pool) AddLiquidity(tok capability.Token, a, b custody.Bucket) (refundA, refundB custody.Bucket, err error) {
	err = p.atomically("add_liquidity", func(tx *txn) error {
		pos, err := p.owned(tok)
		if err != nil {
			return err
		}
		if err := p.checkBuckets(a, b); err != nil {
			return err
		}
		pos.Accrue(p.feeGrowthInside(pos))
		liquidity := p.liquidityFor(pos.LowTick, pos.HighTick, a.Amount, b.Amount)
		if !liquidity.IsPositive() {
			return ErrZeroLiquidity
		}
		needA, needB, err := p.depositAmountsFor(pos.LowTick, pos.HighTick, liquidity, a.Amount, b.Amount)
		if err != nil {
			return err
		}

		p.modifyPosition(pos.LowTick, pos.HighTick, liquidity)
		pos.Update(liquidity, p.feeGrowthInside(pos))
		p.state.positions.Set(pos)
		if err := tx.updateMetadata(tok, metadataOf(pos)); err != nil {
			return err
		}

		refundA, refundB, err = settleDeposit(tx, a, b, needA, needB)
		if err != nil {
			return err
		}
		p.log.Debug("liquidity added",
			zap.Stringer("token", tok),
			zap.Stringer("liquidity", liquidity),
			zap.Stringer("amount_a", needA),
			zap.Stringer("amount_b", needB),
		)
		return nil
	})
	if err != nil {
		return a, b, err
	}
	return refundA, refundB, nil
}

// RemovePosition withdraws all liquidity and owed fees and burns the token.
func (p *Pool) RemovePosition(tok capability.Token) (a, b custody.Bucket, err error) {
	err = p.atomically("remove_position", func(tx *txn) error {
		pos, err := p.owned(tok)
		if err != nil {
			return err
		}
		pos.Accrue(p.feeGrowthInside(pos))
		amountA, amountB := p.amountsFor(pos.LowTick, pos.HighTick, pos.Liquidity, false)
		p.modifyPosition(pos.LowTick, pos.HighTick, pos.Liquidity.Neg())
		p.state.positions.Delete(pos.ID)

		feeA, feeB := pos.Collect()
		if a, err = tx.withdraw(p.assetA, amountA.Add(feeA)); err != nil {
			return err
		}
		if b, err = tx.withdraw(p.assetB, amountB.Add(feeB)); err != nil {
			return err
		}
		// last: a burned token cannot be restored
		if err := p.registry.Burn(tok); err != nil {
			return err
		}
		p.log.Debug("position removed",
			zap.Stringer("token", tok),
			zap.Stringer("amount_a", a.Amount),
			zap.Stringer("amount_b", b.Amount),
			zap.Stringer("fee_a", feeA),
			zap.Stringer("fee_b", feeB),
		)
		return nil
	})
	if err != nil {
		return custody.Bucket{}, custody.Bucket{}, err
	}
	return a, b, nil
}

// CollectFees pays out everything the position has earned so far.
func (p *Pool) CollectFees(tok capability.Token) (a, b custody.Bucket, err error) {
	err = p.atomically("collect_fees", func(tx *txn) error {
		pos, err := p.owned(tok)
		if err != nil {
			return err
		}
		pos.Accrue(p.feeGrowthInside(pos))
		feeA, feeB := pos.Collect()
		p.state.positions.Set(pos)
		if a, err = tx.withdraw(p.assetA, feeA); err != nil {
			return err
		}
		if b, err = tx.withdraw(p.assetB, feeB); err != nil {
			return err
		}
		p.log.Debug("fees collected", zap.Stringer("token", tok), zap.Stringer("fee_a", feeA), zap.Stringer("fee_b", feeB))
		return nil
	})
	if err != nil {
		return custody.Bucket{}, custody.Bucket{}, err
	}
	return a, b, nil
}

// CompoundFees reinvests owed fees as liquidity of the same position. What
// cannot be converted at the current price stays owed.
func (p *Pool) CompoundFees(tok capability.Token) (added, dustA, dustB fixed.Decimal, err error) {
	err = p.atomically("compound_fees", func(tx *txn) error {
		pos, err := p.owned(tok)
		if err != nil {
			return err
		}
		pos.Accrue(p.feeGrowthInside(pos))
		added = p.liquidityFor(pos.LowTick, pos.HighTick, pos.TokensOwedA, pos.TokensOwedB)
		if !added.IsPositive() {
			return ErrZeroLiquidity
		}
		needA, needB, err := p.depositAmountsFor(pos.LowTick, pos.HighTick, added, pos.TokensOwedA, pos.TokensOwedB)
		if err != nil {
			return err
		}
		pos.TokensOwedA = pos.TokensOwedA.Sub(needA)
		pos.TokensOwedB = pos.TokensOwedB.Sub(needB)

		p.modifyPosition(pos.LowTick, pos.HighTick, added)
		pos.Update(added, p.feeGrowthInside(pos))
		p.state.positions.Set(pos)
		if err := tx.updateMetadata(tok, metadataOf(pos)); err != nil {
			return err
		}
		dustA, dustB = pos.TokensOwedA, pos.TokensOwedB
		p.log.Debug("fees compounded",
			zap.Stringer("token", tok),
			zap.Stringer("liquidity", added),
			zap.Stringer("dust_a", dustA),
			zap.Stringer("dust_b", dustB),
		)
		return nil
	})
	if err != nil {
		return fixed.Zero, fixed.Zero, fixed.Zero, err
	}
	return added, dustA, dustB, nil
}
