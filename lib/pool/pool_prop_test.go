package pool

import (
	"errors"
	"testing"

	"github.com/dcernahoschi/mojitoswap-pool/lib/capability"
	"github.com/dcernahoschi/mojitoswap-pool/lib/custody"
	"github.com/dcernahoschi/mojitoswap-pool/lib/fixed"
	"github.com/dcernahoschi/mojitoswap-pool/lib/tickmath"
	"pgregory.net/rapid"
)

func activeLiquidity(p *Pool) fixed.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	sum := fixed.Zero
	for _, id := range p.state.positions.IDs() {
		pos, _ := p.state.positions.Get(id)
		if pos.LowTick <= p.state.tickCurrent && p.state.tickCurrent < pos.HighTick {
			sum = sum.Add(pos.Liquidity)
		}
	}
	return sum
}

// amount mixes dust, which rounds whole steps away, with ordinary sizes.
func amount(t *rapid.T, label string, max int64) fixed.Decimal {
	switch rapid.IntRange(0, 2).Draw(t, label+"_size") {
	case 0:
		return fixed.FromScaled(rapid.Int64Range(0, 1000).Draw(t, label))
	case 1:
		return fixed.FromScaled(rapid.Int64Range(0, 1e12).Draw(t, label))
	}
	return fixed.FromScaled(rapid.Int64Range(0, max).Draw(t, label))
}

// Random operation sequences keep active liquidity equal to the sum over
// in-range positions, move the price only in the direction of the trade and
// leave enough reserves to pay every position out.
func TestPoolInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		fee := rapid.SampledFrom([]string{"0", "0.003", "0.01"}).Draw(t, "fee")
		start := tickmath.MustSqrtPriceAtTick(rapid.IntRange(-2000, 2000).Draw(t, "start"))
		p, err := New(Config{AssetA: moj, AssetB: usdt, FeeRate: fixed.MustParse(fee), SqrtPrice: start},
			custody.NewVaults(moj, usdt), capability.NewMinter("LP"))
		if err != nil {
			t.Fatal(err)
		}
		var tokens []capability.Token

		for i, n := 0, rapid.IntRange(1, 25).Draw(t, "ops"); i < n; i++ {
			switch op := rapid.IntRange(0, 9).Draw(t, "op"); {
			case op < 4 || len(tokens) == 0:
				low := rapid.IntRange(-3000, 2999).Draw(t, "low")
				high := rapid.IntRange(low+1, 3000).Draw(t, "high")
				tok, _, _, err := p.AddPosition(low, high,
					custody.NewBucket(moj, amount(t, "a", 9e18)),
					custody.NewBucket(usdt, amount(t, "b", 9e18)))
				if errors.Is(err, ErrZeroLiquidity) {
					continue
				}
				if err != nil {
					t.Fatal(err)
				}
				tokens = append(tokens, tok)
			case op < 8:
				asset := rapid.SampledFrom([]custody.Asset{moj, usdt}).Draw(t, "asset")
				before := p.SqrtPrice()
				res, err := p.Swap(custody.NewBucket(asset, amount(t, "in", 5e18)))
				if err != nil {
					t.Fatal(err)
				}
				if asset == moj && res.SqrtPrice.GreaterThan(before) || asset == usdt && res.SqrtPrice.LessThan(before) {
					t.Fatalf("price moved against the trade: %s -> %s", before, res.SqrtPrice)
				}
			case op == 8:
				if _, _, err := p.CollectFees(rapid.SampledFrom(tokens).Draw(t, "tok")); err != nil {
					t.Fatal(err)
				}
			default:
				_, _, _, err := p.CompoundFees(rapid.SampledFrom(tokens).Draw(t, "tok"))
				if err != nil && !errors.Is(err, ErrZeroLiquidity) {
					t.Fatal(err)
				}
			}
			if want := activeLiquidity(p); !want.Equal(p.Liquidity()) {
				t.Fatalf("active liquidity %s, positions in range sum to %s", p.Liquidity(), want)
			}
		}

		for _, tok := range tokens {
			if _, _, err := p.RemovePosition(tok); err != nil {
				t.Fatalf("remove %s: %v", tok, err)
			}
		}
		if !p.Liquidity().IsZero() || len(p.Ticks()) != 0 {
			t.Fatalf("pool not empty after removing every position")
		}
	})
}
