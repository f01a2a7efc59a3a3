// Package capability issues the transferable tokens that prove ownership of
// a pool position.
package capability

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dcernahoschi/mojitoswap-pool/lib/fixed"
	"github.com/google/uuid"
)

var (
	ErrUnknownToken = errors.New("unknown token")
	ErrForeignToken = errors.New("token issued by another registry")
)

// Token is held by the position owner. Presenting it is the proof of
// ownership; it carries no authority once burned.
type Token struct {
	Resource string    `json:"resource"`
	ID       uuid.UUID `json:"id"`
}

func (t Token) String() string { return t.Resource + "#" + t.ID.String() }

// Metadata is the position data displayed on the token.
type Metadata struct {
	LowTick   int           `json:"low_tick"`
	HighTick  int           `json:"high_tick"`
	Liquidity fixed.Decimal `json:"liquidity"`
}

type Registry interface {
	Mint(meta Metadata) (Token, error)
	Burn(tok Token) error
	// Verify fails unless tok is a live token of this registry.
	Verify(tok Token) error
	Metadata(tok Token) (Metadata, error)
	UpdateMetadata(tok Token, meta Metadata) error
	// Fork returns an independent registry holding the same live tokens.
	Fork() Registry
}

// Minter is an in-memory Registry.
type Minter struct {
	resource string
	newID    func() uuid.UUID

	mu     sync.Mutex
	tokens map[uuid.UUID]Metadata
}

var _ Registry = (*Minter)(nil)

func NewMinter(resource string) *Minter {
	return &Minter{resource: resource, newID: uuid.New, tokens: make(map[uuid.UUID]Metadata)}
}

func (m *Minter) Resource() string { return m.resource }

func (m *Minter) Mint(meta Metadata) (Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.newID()
	if _, dup := m.tokens[id]; dup {
		return Token{}, fmt.Errorf("duplicate token id %s", id)
	}
	m.tokens[id] = meta
	return Token{Resource: m.resource, ID: id}, nil
}

func (m *Minter) Burn(tok Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.verify(tok); err != nil {
		return err
	}
	delete(m.tokens, tok.ID)
	return nil
}

func (m *Minter) Verify(tok Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verify(tok)
}

func (m *Minter) verify(tok Token) error {
	if tok.Resource != m.resource {
		return fmt.Errorf("%w: %s", ErrForeignToken, tok)
	}
	if _, ok := m.tokens[tok.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownToken, tok)
	}
	return nil
}

func (m *Minter) Metadata(tok Token) (Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.verify(tok); err != nil {
		return Metadata{}, err
	}
	return m.tokens[tok.ID], nil
}

func (m *Minter) UpdateMetadata(tok Token, meta Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.verify(tok); err != nil {
		return err
	}
	m.tokens[tok.ID] = meta
	return nil
}

// Fork copies the live tokens into a new Minter of the same resource.
// Mints, burns and metadata changes on either side are not seen by the
// other.
func (m *Minter) Fork() Registry {
	m.mu.Lock()
	defer m.mu.Unlock()
	tokens := make(map[uuid.UUID]Metadata, len(m.tokens))
	for id, meta := range m.tokens {
		tokens[id] = meta
	}
	return &Minter{resource: m.resource, newID: m.newID, tokens: tokens}
}

// Len reports the number of live tokens.
func (m *Minter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}
