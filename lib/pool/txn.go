package pool

import (
	"github.com/dcernahoschi/mojitoswap-pool/lib/capability"
	"github.com/dcernahoschi/mojitoswap-pool/lib/custody"
	"github.com/dcernahoschi/mojitoswap-pool/lib/fixed"
	"go.uber.org/zap"
)

// txn collects compensating actions for the external effects of one call.
// Pool state itself is restored from a snapshot.
type txn struct {
	p    *Pool
	undo []func()
}

func (tx *txn) onRollback(f func()) { tx.undo = append(tx.undo, f) }

func (tx *txn) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
}

func (tx *txn) deposit(b custody.Bucket) error {
	if b.IsEmpty() {
		return nil
	}
	if err := tx.p.custody.Deposit(b); err != nil {
		return err
	}
	tx.onRollback(func() {
		if _, err := tx.p.custody.Withdraw(b.Asset, b.Amount); err != nil {
			tx.p.log.Error("rollback withdraw failed", zap.Stringer("bucket", b), zap.Error(err))
		}
	})
	return nil
}

func (tx *txn) withdraw(asset custody.Asset, amount fixed.Decimal) (custody.Bucket, error) {
	if amount.IsZero() {
		return custody.Empty(asset), nil
	}
	b, err := tx.p.custody.Withdraw(asset, amount)
	if err != nil {
		return custody.Bucket{}, err
	}
	tx.onRollback(func() {
		if err := tx.p.custody.Deposit(b); err != nil {
			tx.p.log.Error("rollback deposit failed", zap.Stringer("bucket", b), zap.Error(err))
		}
	})
	return b, nil
}

func (tx *txn) mint(meta capability.Metadata) (capability.Token, error) {
	tok, err := tx.p.registry.Mint(meta)
	if err != nil {
		return capability.Token{}, err
	}
	tx.onRollback(func() {
		if err := tx.p.registry.Burn(tok); err != nil {
			tx.p.log.Error("rollback burn failed", zap.Stringer("token", tok), zap.Error(err))
		}
	})
	return tok, nil
}

func (tx *txn) updateMetadata(tok capability.Token, meta capability.Metadata) error {
	old, err := tx.p.registry.Metadata(tok)
	if err != nil {
		return err
	}
	if err := tx.p.registry.UpdateMetadata(tok, meta); err != nil {
		return err
	}
	tx.onRollback(func() {
		if err := tx.p.registry.UpdateMetadata(tok, old); err != nil {
			tx.p.log.Error("rollback metadata failed", zap.Stringer("token", tok), zap.Error(err))
		}
	})
	return nil
}

// atomically runs fn under the pool lock. On error, arithmetic abort or
// invariant violation the pool state and every external effect are undone.
func (p *Pool) atomically(op string, fn func(tx *txn) error) (err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	saved := p.state.clone()
	tx := &txn{p: p}
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r)
		}
		if err != nil {
			p.state = saved
			tx.rollback()
			err = &OpError{Op: op, Err: err}
			p.log.Debug("operation rolled back", zap.String("op", op), zap.Error(err))
		}
	}()
	return fn(tx)
}
