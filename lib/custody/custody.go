// Package custody moves amounts of the two traded assets between holders
// without creating or destroying any.
package custody

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dcernahoschi/mojitoswap-pool/lib/fixed"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAssetMismatch     = errors.New("asset mismatch")
	ErrNegativeAmount    = errors.New("negative amount")
)

// Asset identifies a fungible resource, e.g. "MOJ".
type Asset string

// Bucket is a transient amount of one asset in flight between holders.
type Bucket struct {
	Asset  Asset         `json:"asset" yaml:"asset"`
	Amount fixed.Decimal `json:"amount" yaml:"amount"`
}

func NewBucket(asset Asset, amount fixed.Decimal) Bucket {
	return Bucket{Asset: asset, Amount: amount}
}

func Empty(asset Asset) Bucket { return Bucket{Asset: asset} }

func (b Bucket) IsEmpty() bool { return b.Amount.IsZero() }

func (b Bucket) String() string { return fmt.Sprintf("%s %s", b.Amount, b.Asset) }

// Split takes amount out of b and returns it along with what is left.
func (b Bucket) Split(amount fixed.Decimal) (taken, rest Bucket, err error) {
	if amount.IsNegative() {
		return b, Bucket{}, ErrNegativeAmount
	}
	if amount.GreaterThan(b.Amount) {
		return b, Bucket{}, fmt.Errorf("%w: want %s, have %s", ErrInsufficientFunds, amount, b)
	}
	return NewBucket(b.Asset, amount), NewBucket(b.Asset, b.Amount.Sub(amount)), nil
}

// Vault holds an amount of a single asset.
type Vault struct {
	asset  Asset
	amount fixed.Decimal
}

func NewVault(asset Asset) *Vault { return &Vault{asset: asset} }

func (v *Vault) Asset() Asset           { return v.asset }
func (v *Vault) Amount() fixed.Decimal { return v.amount }

func (v *Vault) Put(b Bucket) error {
	if b.Asset != v.asset {
		return fmt.Errorf("%w: vault holds %s, got %s", ErrAssetMismatch, v.asset, b.Asset)
	}
	if b.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	v.amount = v.amount.Add(b.Amount)
	return nil
}

func (v *Vault) Take(amount fixed.Decimal) (Bucket, error) {
	if amount.IsNegative() {
		return Bucket{}, ErrNegativeAmount
	}
	if amount.GreaterThan(v.amount) {
		return Bucket{}, fmt.Errorf("%w: want %s %s, have %s", ErrInsufficientFunds, amount, v.asset, v.amount)
	}
	v.amount = v.amount.Sub(amount)
	return NewBucket(v.asset, amount), nil
}

// Custody is the asset store a pool keeps its reserves in.
type Custody interface {
	Deposit(b Bucket) error
	Withdraw(asset Asset, amount fixed.Decimal) (Bucket, error)
	Balance(asset Asset) fixed.Decimal
}

// Vaults is an in-memory Custody with one vault per asset.
type Vaults struct {
	mu     sync.Mutex
	vaults map[Asset]*Vault
}

var _ Custody = (*Vaults)(nil)

func NewVaults(assets ...Asset) *Vaults {
	v := &Vaults{vaults: make(map[Asset]*Vault, len(assets))}
	for _, a := range assets {
		v.vaults[a] = NewVault(a)
	}
	return v
}

func (v *Vaults) vault(asset Asset) (*Vault, error) {
	vault, ok := v.vaults[asset]
	if !ok {
		return nil, fmt.Errorf("%w: no vault for %s", ErrAssetMismatch, asset)
	}
	return vault, nil
}

func (v *Vaults) Deposit(b Bucket) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	vault, err := v.vault(b.Asset)
	if err != nil {
		return err
	}
	return vault.Put(b)
}

func (v *Vaults) Withdraw(asset Asset, amount fixed.Decimal) (Bucket, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	vault, err := v.vault(asset)
	if err != nil {
		return Bucket{}, err
	}
	return vault.Take(amount)
}

func (v *Vaults) Balance(asset Asset) fixed.Decimal {
	v.mu.Lock()
	defer v.mu.Unlock()
	if vault, ok := v.vaults[asset]; ok {
		return vault.Amount()
	}
	return fixed.Zero
}

// Assets lists the held assets in name order.
func (v *Vaults) Assets() []Asset {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Asset, 0, len(v.vaults))
	for a := range v.vaults {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
