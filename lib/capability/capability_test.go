package capability

import (
	"testing"

	"github.com/dcernahoschi/mojitoswap-pool/lib/fixed"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinterLifecycle(t *testing.T) {
	m := NewMinter("MOJ-USDT-LP")
	tok, err := m.Mint(Metadata{LowTick: -10, HighTick: 10, Liquidity: fixed.One})
	require.NoError(t, err)
	require.NoError(t, m.Verify(tok))
	assert.Equal(t, "MOJ-USDT-LP", tok.Resource)

	require.NoError(t, m.UpdateMetadata(tok, Metadata{LowTick: -10, HighTick: 10, Liquidity: fixed.New(2)}))
	meta, err := m.Metadata(tok)
	require.NoError(t, err)
	assert.Equal(t, fixed.New(2), meta.Liquidity)

	require.NoError(t, m.Burn(tok))
	require.ErrorIs(t, m.Verify(tok), ErrUnknownToken)
	require.ErrorIs(t, m.Burn(tok), ErrUnknownToken)
	assert.Equal(t, 0, m.Len())
}

func TestForeignToken(t *testing.T) {
	a, b := NewMinter("A"), NewMinter("B")
	tok, err := a.Mint(Metadata{})
	require.NoError(t, err)
	require.ErrorIs(t, b.Verify(tok), ErrForeignToken)
	require.ErrorIs(t, a.Verify(Token{Resource: "A", ID: uuid.New()}), ErrUnknownToken)
}

func TestFork(t *testing.T) {
	m := NewMinter("LP")
	kept, err := m.Mint(Metadata{LowTick: -10, HighTick: 10, Liquidity: fixed.One})
	require.NoError(t, err)
	burned, err := m.Mint(Metadata{})
	require.NoError(t, err)

	f := m.Fork()
	require.NoError(t, f.Burn(burned))
	require.NoError(t, f.UpdateMetadata(kept, Metadata{LowTick: -10, HighTick: 10, Liquidity: fixed.New(3)}))
	fresh, err := f.Mint(Metadata{})
	require.NoError(t, err)
	assert.Equal(t, "LP", fresh.Resource)

	require.NoError(t, m.Verify(burned))
	require.ErrorIs(t, m.Verify(fresh), ErrUnknownToken)
	meta, err := m.Metadata(kept)
	require.NoError(t, err)
	assert.Equal(t, fixed.One, meta.Liquidity)
	assert.Equal(t, 2, m.Len())
}
