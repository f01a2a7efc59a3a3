// Package transaction reads replayable pool scenarios. Amounts are written as
// decimal strings and parsed into fixed-point values; JSON input works too
// since it is valid YAML.
package transaction

import (
	"errors"
	"fmt"
	"os"

	"github.com/dcernahoschi/mojitoswap-pool/lib/custody"
	"github.com/dcernahoschi/mojitoswap-pool/lib/fixed"
	"github.com/dcernahoschi/mojitoswap-pool/lib/pool"
	"github.com/dcernahoschi/mojitoswap-pool/lib/tickmath"
	"gopkg.in/yaml.v3"
)

type Type string

const (
	Open           Type = "open"
	AddPosition    Type = "add_position"
	AddLiquidity   Type = "add_liquidity"
	RemovePosition Type = "remove_position"
	CollectFees    Type = "collect_fees"
	CompoundFees   Type = "compound_fees"
	Swap           Type = "swap"
)

var ErrInvalidScenario = errors.New("invalid scenario")

type PoolInput struct {
	AssetA    string `yaml:"asset_a" json:"asset_a"`
	AssetB    string `yaml:"asset_b" json:"asset_b"`
	FeeRate   string `yaml:"fee_rate,omitempty" json:"fee_rate,omitempty"`
	Tick      *int   `yaml:"tick,omitempty" json:"tick,omitempty"`
	SqrtPrice string `yaml:"sqrt_price,omitempty" json:"sqrt_price,omitempty"`
}

type TransactionInput struct {
	Type           Type              `yaml:"type" json:"type"`
	Account        string            `yaml:"account" json:"account"`
	Label          string            `yaml:"label,omitempty" json:"label,omitempty"`
	LowTick        int               `yaml:"low_tick,omitempty" json:"low_tick,omitempty"`
	HighTick       int               `yaml:"high_tick,omitempty" json:"high_tick,omitempty"`
	AmountA        string            `yaml:"amount_a,omitempty" json:"amount_a,omitempty"`
	AmountB        string            `yaml:"amount_b,omitempty" json:"amount_b,omitempty"`
	Asset          string            `yaml:"asset,omitempty" json:"asset,omitempty"`
	Amount         string            `yaml:"amount,omitempty" json:"amount,omitempty"`
	LimitTick      *int              `yaml:"limit_tick,omitempty" json:"limit_tick,omitempty"`
	LimitSqrtPrice string            `yaml:"limit_sqrt_price,omitempty" json:"limit_sqrt_price,omitempty"`
	Expect         map[string]string `yaml:"expect,omitempty" json:"expect,omitempty"`
	ExpectTick     *int              `yaml:"expect_tick,omitempty" json:"expect_tick,omitempty"`
	Exact          bool              `yaml:"exact,omitempty" json:"exact,omitempty"`
	ExpectError    string            `yaml:"expect_error,omitempty" json:"expect_error,omitempty"`
}

type ScenarioInput struct {
	Name     string                       `yaml:"name" json:"name"`
	Pool     PoolInput                    `yaml:"pool" json:"pool"`
	Accounts map[string]map[string]string `yaml:"accounts" json:"accounts"`
	Steps    []TransactionInput           `yaml:"steps" json:"steps"`
}

// Transaction is one parsed scenario step. Fields a step type does not use
// stay zero.
type Transaction struct {
	Type     Type
	Account  string
	Label    string
	LowTick  int
	HighTick int
	AmountA  fixed.Decimal
	AmountB  fixed.Decimal
	Asset    custody.Asset
	Amount   fixed.Decimal
	// Limit is a sqrt price; zero means none.
	Limit       fixed.Decimal
	Expect      map[string]fixed.Decimal
	ExpectTick  *int
	Exact       bool
	ExpectError string
}

type Scenario struct {
	Name         string
	Pool         pool.Config
	Accounts     map[string]map[custody.Asset]fixed.Decimal
	Transactions []Transaction
}

// Load reads and parses a scenario file.
func Load(path string) (Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := Parse(raw)
	if err != nil {
		return Scenario{}, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

func Parse(raw []byte) (Scenario, error) {
	var in ScenarioInput
	if err := yaml.Unmarshal(raw, &in); err != nil {
		return Scenario{}, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	return in.Parse()
}

func (in ScenarioInput) Parse() (Scenario, error) {
	cfg, err := in.Pool.Config()
	if err != nil {
		return Scenario{}, err
	}
	sc := Scenario{
		Name:         in.Name,
		Pool:         cfg,
		Accounts:     make(map[string]map[custody.Asset]fixed.Decimal, len(in.Accounts)),
		Transactions: make([]Transaction, 0, len(in.Steps)),
	}
	for name, balances := range in.Accounts {
		wallet := make(map[custody.Asset]fixed.Decimal, len(balances))
		for asset, amount := range balances {
			if custody.Asset(asset) != cfg.AssetA && custody.Asset(asset) != cfg.AssetB {
				return Scenario{}, fmt.Errorf("%w: account %s holds %s, which the pool does not trade", ErrInvalidScenario, name, asset)
			}
			v, err := parseAmount(amount)
			if err != nil {
				return Scenario{}, fmt.Errorf("account %s: %w", name, err)
			}
			wallet[custody.Asset(asset)] = v
		}
		sc.Accounts[name] = wallet
	}
	for i, step := range in.Steps {
		t, err := step.Parse()
		if err != nil {
			return Scenario{}, fmt.Errorf("step %d: %w", i, err)
		}
		if _, ok := sc.Accounts[t.Account]; !ok {
			return Scenario{}, fmt.Errorf("%w: step %d: unknown account %q", ErrInvalidScenario, i, t.Account)
		}
		sc.Transactions = append(sc.Transactions, t)
	}
	return sc, nil
}

// Config builds the pool configuration. Exactly one of tick and sqrt_price
// sets the starting price.
func (in PoolInput) Config() (pool.Config, error) {
	cfg := pool.Config{AssetA: custody.Asset(in.AssetA), AssetB: custody.Asset(in.AssetB)}
	if in.AssetA == "" || in.AssetB == "" {
		return cfg, fmt.Errorf("%w: pool needs asset_a and asset_b", ErrInvalidScenario)
	}
	if in.FeeRate != "" {
		fee, err := fixed.Parse(in.FeeRate)
		if err != nil {
			return cfg, fmt.Errorf("%w: fee_rate: %v", ErrInvalidScenario, err)
		}
		cfg.FeeRate = fee
	}
	switch {
	case in.Tick != nil && in.SqrtPrice != "":
		return cfg, fmt.Errorf("%w: pool sets both tick and sqrt_price", ErrInvalidScenario)
	case in.Tick != nil:
		p, err := tickmath.SqrtPriceAtTick(*in.Tick)
		if err != nil {
			return cfg, err
		}
		cfg.SqrtPrice = p
	case in.SqrtPrice != "":
		p, err := fixed.Parse(in.SqrtPrice)
		if err != nil {
			return cfg, fmt.Errorf("%w: sqrt_price: %v", ErrInvalidScenario, err)
		}
		cfg.SqrtPrice = p
	default:
		return cfg, fmt.Errorf("%w: pool needs tick or sqrt_price", ErrInvalidScenario)
	}
	return cfg, nil
}

func (in TransactionInput) Parse() (Transaction, error) {
	t := Transaction{
		Type:        in.Type,
		Account:     in.Account,
		Label:       in.Label,
		LowTick:     in.LowTick,
		HighTick:    in.HighTick,
		Asset:       custody.Asset(in.Asset),
		ExpectTick:  in.ExpectTick,
		Exact:       in.Exact,
		ExpectError: in.ExpectError,
	}
	if in.Account == "" {
		return t, fmt.Errorf("%w: %s without account", ErrInvalidScenario, in.Type)
	}

	var err error
	switch in.Type {
	case Open, AddPosition, AddLiquidity:
		if in.Label == "" {
			return t, fmt.Errorf("%w: %s needs a label", ErrInvalidScenario, in.Type)
		}
		if t.AmountA, err = parseAmount(in.AmountA); err != nil {
			return t, fmt.Errorf("amount_a: %w", err)
		}
		if t.AmountB, err = parseAmount(in.AmountB); err != nil {
			return t, fmt.Errorf("amount_b: %w", err)
		}
	case RemovePosition, CollectFees, CompoundFees:
		if in.Label == "" {
			return t, fmt.Errorf("%w: %s needs a label", ErrInvalidScenario, in.Type)
		}
	case Swap:
		if in.Asset == "" {
			return t, fmt.Errorf("%w: swap needs an asset", ErrInvalidScenario)
		}
		if t.Amount, err = parseAmount(in.Amount); err != nil {
			return t, fmt.Errorf("amount: %w", err)
		}
		switch {
		case in.LimitTick != nil && in.LimitSqrtPrice != "":
			return t, fmt.Errorf("%w: swap sets both limit_tick and limit_sqrt_price", ErrInvalidScenario)
		case in.LimitTick != nil:
			if t.Limit, err = tickmath.SqrtPriceAtTick(*in.LimitTick); err != nil {
				return t, err
			}
		case in.LimitSqrtPrice != "":
			if t.Limit, err = fixed.Parse(in.LimitSqrtPrice); err != nil {
				return t, fmt.Errorf("%w: limit_sqrt_price: %v", ErrInvalidScenario, err)
			}
		}
	default:
		return t, fmt.Errorf("%w: unknown step type %q", ErrInvalidScenario, in.Type)
	}

	if len(in.Expect) > 0 {
		t.Expect = make(map[string]fixed.Decimal, len(in.Expect))
		for key, s := range in.Expect {
			v, err := fixed.Parse(s)
			if err != nil {
				return t, fmt.Errorf("%w: expect %s: %v", ErrInvalidScenario, key, err)
			}
			t.Expect[key] = v
		}
	}
	return t, nil
}

func parseAmount(s string) (fixed.Decimal, error) {
	if s == "" {
		return fixed.Zero, nil
	}
	v, err := fixed.Parse(s)
	if err != nil {
		return fixed.Zero, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if v.IsNegative() {
		return fixed.Zero, fmt.Errorf("%w: negative amount %s", ErrInvalidScenario, s)
	}
	return v, nil
}
