package executor

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dcernahoschi/mojitoswap-pool/lib/capability"
	"github.com/dcernahoschi/mojitoswap-pool/lib/custody"
	"github.com/dcernahoschi/mojitoswap-pool/lib/fixed"
	"github.com/dcernahoschi/mojitoswap-pool/lib/metrics"
	ppool "github.com/dcernahoschi/mojitoswap-pool/lib/pool"
	"github.com/dcernahoschi/mojitoswap-pool/lib/result"
	ent "github.com/dcernahoschi/mojitoswap-pool/lib/transaction"
	"go.uber.org/zap"
)

var (
	ErrExpectation  = errors.New("expectation not met")
	ErrUnknownLabel = errors.New("unknown position label")
	ErrPoolOpen     = errors.New("pool already open")
	ErrPoolClosed   = errors.New("pool not open")
)

// Named errors a step may expect with expect_error.
var errorNames = map[string]error{
	"invalid_range":          ppool.ErrInvalidRange,
	"out_of_bounds":          ppool.ErrOutOfBounds,
	"insufficient_ownership": ppool.ErrInsufficientOwnership,
	"zero_liquidity":         ppool.ErrZeroLiquidity,
	"arithmetic":             ppool.ErrArithmetic,
	"invalid_price_limit":    ppool.ErrInvalidPriceLimit,
	"unknown_asset":          ppool.ErrUnknownAsset,
	"insufficient_funds":     custody.ErrInsufficientFunds,
	"asset_mismatch":         custody.ErrAssetMismatch,
}

// Journal receives a record for every replayed step.
type Journal interface {
	Append(ctx context.Context, records ...result.Record) error
}

type Option func(*Execution)

func WithLogger(l *zap.Logger) Option       { return func(e *Execution) { e.log = l } }
func WithMetrics(m *metrics.Metrics) Option { return func(e *Execution) { e.metrics = m } }
func WithJournal(j Journal) Option          { return func(e *Execution) { e.journal = j } }

// Execution replays a scenario against one pool. Each account holds its
// assets in its own wallet; position tokens stay with the account that
// opened them, under the step's label.
type Execution struct {
	Scenario ent.Scenario
	Pool     *ppool.Pool
	Wallets  map[string]*custody.Vaults
	Tokens   map[string]map[string]capability.Token
	Records  []result.Record

	reserves *custody.Vaults
	minter   *capability.Minter
	log      *zap.Logger
	metrics  *metrics.Metrics
	journal  Journal
}

func CreateExecution(sc ent.Scenario, opts ...Option) (*Execution, error) {
	e := &Execution{
		Scenario: sc,
		Wallets:  make(map[string]*custody.Vaults, len(sc.Accounts)),
		Tokens:   make(map[string]map[string]capability.Token, len(sc.Accounts)),
		Records:  make([]result.Record, 0, len(sc.Transactions)),
		reserves: custody.NewVaults(sc.Pool.AssetA, sc.Pool.AssetB),
		minter:   capability.NewMinter(string(sc.Pool.AssetA) + "-" + string(sc.Pool.AssetB) + "-LP"),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With(zap.String("scenario", sc.Name))

	for i, t := range sc.Transactions {
		if t.ExpectError == "" {
			continue
		}
		if _, ok := errorNames[t.ExpectError]; !ok {
			return nil, fmt.Errorf("step %d: unknown expect_error %q", i, t.ExpectError)
		}
	}
	for name, balances := range sc.Accounts {
		wallet := custody.NewVaults(sc.Pool.AssetA, sc.Pool.AssetB)
		for asset, amount := range balances {
			if err := wallet.Deposit(custody.NewBucket(asset, amount)); err != nil {
				return nil, fmt.Errorf("fund %s: %w", name, err)
			}
		}
		e.Wallets[name] = wallet
		e.Tokens[name] = make(map[string]capability.Token)
	}

	// an explicit open step creates the pool itself
	if len(sc.Transactions) == 0 || sc.Transactions[0].Type != ent.Open {
		if err := e.openPool(); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Execution) openPool() error {
	if e.Pool != nil {
		return ErrPoolOpen
	}
	p, err := ppool.New(e.Scenario.Pool, e.reserves, e.minter, ppool.WithLogger(e.log))
	if err != nil {
		return err
	}
	e.Pool = p
	return nil
}

// Run replays every step in order. It stops at the first step that fails
// unexpectedly or misses its expectations; records up to that step are kept.
func (e *Execution) Run(ctx context.Context) error {
	for i, trans := range e.Scenario.Transactions {
		if err := ctx.Err(); err != nil {
			return err
		}
		amounts, opErr := e.apply(trans)
		rec := e.record(i, trans, amounts, opErr)
		e.Records = append(e.Records, rec)
		if e.journal != nil {
			if err := e.journal.Append(ctx, rec); err != nil {
				return err
			}
		}
		if err := e.check(trans, amounts, opErr); err != nil {
			e.log.Error("step failed", zap.Int("step", i), zap.String("type", string(trans.Type)), zap.Error(err))
			return fmt.Errorf("step %d (%s): %w", i, trans.Type, err)
		}
		if opErr == nil && e.metrics != nil {
			e.metrics.SetPoolState(e.Pool.Liquidity(), e.Pool.Tick())
		}
		e.log.Info("step",
			zap.Int("step", i),
			zap.String("type", string(trans.Type)),
			zap.String("account", trans.Account),
			zap.Any("amounts", rec.Amounts),
			zap.NamedError("op_error", opErr),
		)
	}
	if e.Pool != nil {
		e.Pool.LogState()
	}
	return nil
}

// Save gathers the records and the closing balances of every account.
func (e *Execution) Save() result.Save {
	s := result.Save{
		Scenario: e.Scenario.Name,
		Records:  e.Records,
		Balances: make(map[string]map[string]string, len(e.Wallets)),
	}
	for name, w := range e.Wallets {
		balances := make(map[string]string)
		for _, asset := range w.Assets() {
			balances[string(asset)] = w.Balance(asset).String()
		}
		s.Balances[name] = balances
	}
	return s
}

func (e *Execution) apply(t ent.Transaction) (map[string]fixed.Decimal, error) {
	if t.Type == ent.Open {
		if err := e.openPool(); err != nil {
			return nil, err
		}
	}
	if e.Pool == nil {
		return nil, ErrPoolClosed
	}
	wallet := e.Wallets[t.Account]
	assetA, assetB := e.Pool.Assets()

	switch t.Type {
	case ent.Open, ent.AddPosition:
		a, b, err := takePair(wallet, assetA, t.AmountA, assetB, t.AmountB)
		if err != nil {
			return nil, err
		}
		tok, refundA, refundB, err := e.Pool.AddPosition(t.LowTick, t.HighTick, a, b)
		if perr := givePair(wallet, refundA, refundB); perr != nil {
			return nil, perr
		}
		if err != nil {
			return nil, err
		}
		e.Tokens[t.Account][t.Label] = tok
		if e.metrics != nil {
			e.metrics.PositionsOpened.Inc()
		}
		return e.deposited(tok, t, refundA, refundB), nil

	case ent.AddLiquidity:
		tok, err := e.token(t)
		if err != nil {
			return nil, err
		}
		before, _ := e.Pool.Position(tok)
		a, b, err := takePair(wallet, assetA, t.AmountA, assetB, t.AmountB)
		if err != nil {
			return nil, err
		}
		refundA, refundB, err := e.Pool.AddLiquidity(tok, a, b)
		if perr := givePair(wallet, refundA, refundB); perr != nil {
			return nil, perr
		}
		if err != nil {
			return nil, err
		}
		out := e.deposited(tok, t, refundA, refundB)
		out["liquidity"] = out["liquidity"].Sub(before.Liquidity)
		return out, nil

	case ent.RemovePosition:
		tok, err := e.token(t)
		if err != nil {
			return nil, err
		}
		a, b, err := e.Pool.RemovePosition(tok)
		if err != nil {
			return nil, err
		}
		if e.metrics != nil {
			e.metrics.PositionsClosed.Inc()
		}
		return map[string]fixed.Decimal{"a": a.Amount, "b": b.Amount}, givePair(wallet, a, b)

	case ent.CollectFees:
		tok, err := e.token(t)
		if err != nil {
			return nil, err
		}
		a, b, err := e.Pool.CollectFees(tok)
		if err != nil {
			return nil, err
		}
		if e.metrics != nil {
			e.metrics.ObserveFees(string(a.Asset), a.Amount)
			e.metrics.ObserveFees(string(b.Asset), b.Amount)
		}
		return map[string]fixed.Decimal{"a": a.Amount, "b": b.Amount}, givePair(wallet, a, b)

	case ent.CompoundFees:
		tok, err := e.token(t)
		if err != nil {
			return nil, err
		}
		added, dustA, dustB, err := e.Pool.CompoundFees(tok)
		if err != nil {
			return nil, err
		}
		return map[string]fixed.Decimal{"liquidity": added, "dust_a": dustA, "dust_b": dustB}, nil

	case ent.Swap:
		in, err := wallet.Withdraw(t.Asset, t.Amount)
		if err != nil {
			return nil, err
		}
		res, err := e.Pool.SwapWithLimit(in, t.Limit)
		if perr := wallet.Deposit(res.Remainder); perr != nil {
			return nil, perr
		}
		if err != nil {
			return nil, err
		}
		if err := wallet.Deposit(res.Output); err != nil {
			return nil, err
		}
		if e.metrics != nil {
			e.metrics.ObserveSwap(t.Asset == assetA, res.TicksCrossed)
		}
		return map[string]fixed.Decimal{
			"out":        res.Output.Amount,
			"remainder":  res.Remainder.Amount,
			"in":         res.AmountIn,
			"fee":        res.Fee,
			"sqrt_price": res.SqrtPrice,
		}, nil
	}
	return nil, fmt.Errorf("unknown step type %q", t.Type)
}

func (e *Execution) token(t ent.Transaction) (capability.Token, error) {
	tok, ok := e.Tokens[t.Account][t.Label]
	if !ok {
		return capability.Token{}, fmt.Errorf("%w: %s/%s", ErrUnknownLabel, t.Account, t.Label)
	}
	return tok, nil
}

func (e *Execution) deposited(tok capability.Token, t ent.Transaction, refundA, refundB custody.Bucket) map[string]fixed.Decimal {
	pos, _ := e.Pool.Position(tok)
	return map[string]fixed.Decimal{
		"liquidity": pos.Liquidity,
		"a":         t.AmountA.Sub(refundA.Amount),
		"b":         t.AmountB.Sub(refundB.Amount),
		"refund_a":  refundA.Amount,
		"refund_b":  refundB.Amount,
	}
}

// check compares a step's outcome with what the scenario expects. Amounts
// must be at least the expected value, or equal to it for exact steps.
func (e *Execution) check(t ent.Transaction, amounts map[string]fixed.Decimal, opErr error) error {
	if t.ExpectError != "" {
		if opErr == nil {
			return fmt.Errorf("%w: succeeded, want %s", ErrExpectation, t.ExpectError)
		}
		if !errors.Is(opErr, errorNames[t.ExpectError]) {
			return fmt.Errorf("%w: got %v, want %s", ErrExpectation, opErr, t.ExpectError)
		}
		return nil
	}
	if opErr != nil {
		return opErr
	}

	keys := make([]string, 0, len(t.Expect))
	for k := range t.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		want := t.Expect[k]
		got, ok := amounts[k]
		if !ok {
			return fmt.Errorf("%w: %s step has no %q", ErrExpectation, t.Type, k)
		}
		if t.Exact && !got.Equal(want) || !t.Exact && got.LessThan(want) {
			cmp := ">="
			if t.Exact {
				cmp = "=="
			}
			return fmt.Errorf("%w: %s = %s, want %s %s", ErrExpectation, k, got, cmp, want)
		}
	}
	if t.ExpectTick != nil && e.Pool.Tick() != *t.ExpectTick {
		return fmt.Errorf("%w: tick = %d, want %d", ErrExpectation, e.Pool.Tick(), *t.ExpectTick)
	}
	return nil
}

func (e *Execution) record(i int, t ent.Transaction, amounts map[string]fixed.Decimal, opErr error) result.Record {
	rec := result.Record{
		Scenario: e.Scenario.Name,
		Step:     i,
		Type:     string(t.Type),
		Account:  t.Account,
		Label:    t.Label,
	}
	if len(amounts) > 0 {
		rec.Amounts = make(map[string]string, len(amounts))
		for k, v := range amounts {
			rec.Amounts[k] = v.String()
		}
	}
	if opErr != nil {
		rec.Error = opErr.Error()
	}
	if e.Pool != nil {
		ra, rb := e.Pool.Reserves()
		rec.Snapshot = result.Snapshot{
			SqrtPrice: e.Pool.SqrtPrice().String(),
			Tick:      e.Pool.Tick(),
			Liquidity: e.Pool.Liquidity().String(),
			ReserveA:  ra.String(),
			ReserveB:  rb.String(),
		}
	}
	return rec
}

func takePair(w *custody.Vaults, assetA custody.Asset, amountA fixed.Decimal, assetB custody.Asset, amountB fixed.Decimal) (a, b custody.Bucket, err error) {
	if a, err = w.Withdraw(assetA, amountA); err != nil {
		return a, b, err
	}
	if b, err = w.Withdraw(assetB, amountB); err != nil {
		if perr := w.Deposit(a); perr != nil {
			return a, b, perr
		}
		return a, b, err
	}
	return a, b, nil
}

func givePair(w *custody.Vaults, a, b custody.Bucket) error {
	if err := w.Deposit(a); err != nil {
		return err
	}
	return w.Deposit(b)
}
