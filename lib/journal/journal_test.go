package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dcernahoschi/mojitoswap-pool/lib/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestJournal(t *testing.T) *Journal {
	j, err := Open(filepath.Join(t.TempDir(), "journal", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestAppendAndQuery(t *testing.T) {
	j := setupTestJournal(t)
	ctx := context.Background()

	swap := result.Record{
		Scenario: "basic",
		Step:     1,
		Type:     "swap",
		Account:  "bob",
		Amounts:  map[string]string{"out": "1022.648430349947850297", "remainder": "3961.844222209644747866"},
		Snapshot: result.Snapshot{SqrtPrice: "0.995012479192682217", Tick: -100, Liquidity: "205051.662681070198680358"},
	}
	open := result.Record{Scenario: "basic", Step: 0, Type: "open", Account: "alice", Label: "seed"}
	other := result.Record{Scenario: "other", Step: 0, Type: "swap", Account: "bob", Error: "pool swap: zero liquidity"}

	require.NoError(t, j.Append(ctx, swap, open, other))
	require.NoError(t, j.Append(ctx))

	got, err := j.ByScenario(ctx, "basic")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, open, got[0])
	assert.Equal(t, swap, got[1])

	got, err = j.ByScenario(ctx, "other")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "pool swap: zero liquidity", got[0].Error)

	got, err = j.ByScenario(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Append(context.Background(), result.Record{Scenario: "s", Type: "collect_fees", Account: "alice", Label: "seed"}))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()
	got, err := j.ByScenario(context.Background(), "s")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "seed", got[0].Label)
}
