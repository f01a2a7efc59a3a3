package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dcernahoschi/mojitoswap-pool/lib/capability"
	"github.com/dcernahoschi/mojitoswap-pool/lib/custody"
	"github.com/dcernahoschi/mojitoswap-pool/lib/executor"
	"github.com/dcernahoschi/mojitoswap-pool/lib/fixed"
	ppool "github.com/dcernahoschi/mojitoswap-pool/lib/pool"
	ent "github.com/dcernahoschi/mojitoswap-pool/lib/transaction"
)

// ladder builds a pool with overlapping ranges every 200 ticks so a large
// swap crosses many initialized ticks.
func ladder(b *testing.B) *ppool.Pool {
	b.Helper()
	vaults := custody.NewVaults("MOJ", "USDT")
	pool, err := ppool.New(ppool.Config{
		AssetA:    "MOJ",
		AssetB:    "USDT",
		FeeRate:   fixed.MustParse("0.003"),
		SqrtPrice: fixed.One,
	}, vaults, capability.NewMinter("LP"))
	if err != nil {
		b.Fatal(err)
	}
	for low := -10000; low < 10000; low += 200 {
		_, _, _, err := pool.AddPosition(low, low+1000,
			custody.NewBucket("MOJ", fixed.New(1000)), custody.NewBucket("USDT", fixed.New(1000)))
		if err != nil {
			b.Fatal(err)
		}
	}
	return pool
}

func Benchmark_swap(bench *testing.B) {
	pool := ladder(bench)
	bench.ResetTimer()
	for i := 0; i < bench.N; i++ {
		p, err := pool.Clone()
		if err != nil {
			bench.Fatal(err)
		}
		if _, err := p.Swap(custody.NewBucket("MOJ", fixed.New(20000))); err != nil {
			bench.Fatal(err)
		}
	}
}

func Benchmark_quote(bench *testing.B) {
	pool := ladder(bench)
	bench.ResetTimer()
	for i := 0; i < bench.N; i++ {
		if _, _, err := pool.Quote("USDT", fixed.New(20000)); err != nil {
			bench.Fatal(err)
		}
	}
}

func Benchmark_run(bench *testing.B) {
	sc, err := ent.Load(filepath.Join("testdata", "limit_orders.yaml"))
	if err != nil {
		bench.Fatal(err)
	}
	for i := 0; i < bench.N; i++ {
		execution, err := executor.CreateExecution(sc)
		if err != nil {
			bench.Fatal(err)
		}
		if err := execution.Run(context.Background()); err != nil {
			bench.Fatal(err)
		}
	}
}
