package pool

import (
	"fmt"
	"sync"

	"github.com/dcernahoschi/mojitoswap-pool/lib/capability"
	"github.com/dcernahoschi/mojitoswap-pool/lib/custody"
	"github.com/dcernahoschi/mojitoswap-pool/lib/feegrowth"
	"github.com/dcernahoschi/mojitoswap-pool/lib/fixed"
	"github.com/dcernahoschi/mojitoswap-pool/lib/position"
	td "github.com/dcernahoschi/mojitoswap-pool/lib/tickdata"
	"github.com/dcernahoschi/mojitoswap-pool/lib/tickmath"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config fixes a pool at creation. SqrtPrice is the square root of the
// price of AssetA in units of AssetB.
type Config struct {
	AssetA    custody.Asset
	AssetB    custody.Asset
	FeeRate   fixed.Decimal
	SqrtPrice fixed.Decimal
}

type Option func(*Pool)

func WithLogger(l *zap.Logger) Option {
	return func(p *Pool) { p.log = l }
}

type state struct {
	sqrtPrice       fixed.Decimal
	tickCurrent     int
	liquidity       fixed.Decimal
	feeGrowthGlobal feegrowth.Pair
	tickData        *td.TickData
	positions       *position.Ledger
}

func (s *state) clone() state {
	c := *s
	c.tickData = s.tickData.Clone()
	c.positions = s.positions.Clone()
	return c
}

type Pool struct {
	assetA  custody.Asset
	assetB  custody.Asset
	feeRate fixed.Decimal

	custody  custody.Custody
	registry capability.Registry
	log      *zap.Logger

	mu    sync.Mutex
	state state
}

// New creates an empty pool at the given price. Reserves are kept in c and
// position tokens are issued by r.
func New(cfg Config, c custody.Custody, r capability.Registry, opts ...Option) (*Pool, error) {
	if cfg.FeeRate.IsNegative() || cfg.FeeRate.GreaterThanOrEqual(fixed.One) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFeeRate, cfg.FeeRate)
	}
	if cfg.AssetA == cfg.AssetB {
		return nil, fmt.Errorf("%w: %s", ErrSameAsset, cfg.AssetA)
	}
	tick, err := tickmath.TickAtSqrtPrice(cfg.SqrtPrice)
	if err != nil {
		return nil, err
	}
	p := &Pool{
		assetA:   cfg.AssetA,
		assetB:   cfg.AssetB,
		feeRate:  cfg.FeeRate,
		custody:  c,
		registry: r,
		log:      zap.NewNop(),
		state: state{
			sqrtPrice:   cfg.SqrtPrice,
			tickCurrent: tick,
			tickData:    td.NewTickData(),
			positions:   position.NewLedger(),
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With(zap.String("pool", string(p.assetA)+"/"+string(p.assetB)))
	return p, nil
}

// Clone returns a copy that shares nothing mutable with p. The copy keeps
// its reserves in a private in-memory custody seeded with p's balances and
// its tokens in a fork of p's registry, so tokens issued before the clone
// work on both pools and a burn on one leaves the other untouched.
func (p *Pool) Clone() (*Pool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	vaults := custody.NewVaults(p.assetA, p.assetB)
	for _, a := range []custody.Asset{p.assetA, p.assetB} {
		if bal := p.custody.Balance(a); bal.IsPositive() {
			if err := vaults.Deposit(custody.NewBucket(a, bal)); err != nil {
				return nil, &OpError{Op: "clone", Err: err}
			}
		}
	}
	return &Pool{
		assetA:   p.assetA,
		assetB:   p.assetB,
		feeRate:  p.feeRate,
		custody:  vaults,
		registry: p.registry.Fork(),
		log:      p.log,
		state:    p.state.clone(),
	}, nil
}

func (p *Pool) Assets() (a, b custody.Asset) { return p.assetA, p.assetB }
func (p *Pool) FeeRate() fixed.Decimal       { return p.feeRate }

func (p *Pool) SqrtPrice() fixed.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.sqrtPrice
}

// Tick is the greatest tick at or below the current price.
func (p *Pool) Tick() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.tickCurrent
}

// Liquidity is the active liquidity at the current price.
func (p *Pool) Liquidity() fixed.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.liquidity
}

func (p *Pool) FeeGrowthGlobal() feegrowth.Pair {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.feeGrowthGlobal
}

func (p *Pool) Ticks() []td.Tick {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.tickData.Ticks()
}

func (p *Pool) PositionIDs() []uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.positions.IDs()
}

// Position returns the stored position for a token. Owed fees are as of the
// last accrual, not including growth since.
func (p *Pool) Position(tok capability.Token) (position.Info, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.positions.Get(tok.ID)
}

func (p *Pool) Reserves() (a, b fixed.Decimal) {
	return p.custody.Balance(p.assetA), p.custody.Balance(p.assetB)
}

// LogState writes the pool state at debug level.
func (p *Pool) LogState() {
	p.mu.Lock()
	defer p.mu.Unlock()
	ra, rb := p.Reserves()
	p.log.Debug("pool state",
		zap.Stringer("sqrt_price", p.state.sqrtPrice),
		zap.Int("tick", p.state.tickCurrent),
		zap.Stringer("liquidity", p.state.liquidity),
		zap.Stringer("fee_growth_global_a", p.state.feeGrowthGlobal.A),
		zap.Stringer("fee_growth_global_b", p.state.feeGrowthGlobal.B),
		zap.Stringer("reserve_a", ra),
		zap.Stringer("reserve_b", rb),
		zap.Stringer("ticks", p.state.tickData),
		zap.Int("positions", p.state.positions.Len()),
	)
}

func (p *Pool) sideOf(asset custody.Asset) (aToB bool, err error) {
	switch asset {
	case p.assetA:
		return true, nil
	case p.assetB:
		return false, nil
	}
	return false, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
}
