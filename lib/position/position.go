package position

import (
	"bytes"

	"github.com/dcernahoschi/mojitoswap-pool/lib/feegrowth"
	"github.com/dcernahoschi/mojitoswap-pool/lib/fixed"
	"github.com/google/btree"
	"github.com/google/uuid"
)

type Info struct {
	ID                  uuid.UUID      `json:"id"`
	LowTick             int            `json:"low_tick"`
	HighTick            int            `json:"high_tick"`
	Liquidity           fixed.Decimal  `json:"liquidity"`
	FeeGrowthInsideLast feegrowth.Pair `json:"fee_growth_inside_last"`
	TokensOwedA         fixed.Decimal  `json:"tokens_owed_a"`
	TokensOwedB         fixed.Decimal  `json:"tokens_owed_b"`
}

func NewPosition(id uuid.UUID, lowTick, highTick int) Info {
	return Info{ID: id, LowTick: lowTick, HighTick: highTick}
}

// Update credits fees earned by the current liquidity since the last
// checkpoint, moves the checkpoint to feeGrowthInside and then applies
// liquidityDelta. The order matters: new liquidity must not earn old fees.
func (i *Info) Update(liquidityDelta fixed.Decimal, feeGrowthInside feegrowth.Pair) {
	owedA, owedB := feegrowth.Owed(i.Liquidity, feeGrowthInside, i.FeeGrowthInsideLast)
	i.FeeGrowthInsideLast = feeGrowthInside
	i.TokensOwedA = i.TokensOwedA.Add(owedA)
	i.TokensOwedB = i.TokensOwedB.Add(owedB)
	i.Liquidity = i.Liquidity.Add(liquidityDelta)
}

// Accrue is Update without a liquidity change.
func (i *Info) Accrue(feeGrowthInside feegrowth.Pair) {
	i.Update(fixed.Zero, feeGrowthInside)
}

// Collect empties the owed balances and returns them.
func (i *Info) Collect() (a, b fixed.Decimal) {
	a, b = i.TokensOwedA, i.TokensOwedB
	i.TokensOwedA, i.TokensOwedB = fixed.Zero, fixed.Zero
	return a, b
}

// Ledger holds positions ordered by id.
type Ledger struct {
	positions *btree.BTreeG[Info]
}

func byID(a, b Info) bool { return bytes.Compare(a.ID[:], b.ID[:]) < 0 }

func NewLedger() *Ledger {
	return &Ledger{positions: btree.NewG(16, byID)}
}

func (l *Ledger) Clone() *Ledger {
	return &Ledger{positions: l.positions.Clone()}
}

func (l *Ledger) Get(id uuid.UUID) (Info, bool) {
	return l.positions.Get(Info{ID: id})
}

func (l *Ledger) Set(info Info) {
	l.positions.ReplaceOrInsert(info)
}

func (l *Ledger) Delete(id uuid.UUID) bool {
	_, ok := l.positions.Delete(Info{ID: id})
	return ok
}

func (l *Ledger) Len() int { return l.positions.Len() }

func (l *Ledger) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, l.positions.Len())
	l.positions.Ascend(func(i Info) bool {
		ids = append(ids, i.ID)
		return true
	})
	return ids
}
