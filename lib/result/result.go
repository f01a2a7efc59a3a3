package result

import (
	"encoding/json"
	"io"
	"sort"
)

// Snapshot is the pool state after a step.
type Snapshot struct {
	SqrtPrice string `json:"sqrt_price"`
	Tick      int    `json:"tick"`
	Liquidity string `json:"liquidity"`
	ReserveA  string `json:"reserve_a"`
	ReserveB  string `json:"reserve_b"`
}

// Record is the outcome of one replayed step. Amounts holds the step's
// named outputs, e.g. "out" and "remainder" for a swap.
type Record struct {
	Scenario string            `json:"scenario"`
	Step     int               `json:"step"`
	Type     string            `json:"type"`
	Account  string            `json:"account"`
	Label    string            `json:"label,omitempty"`
	Amounts  map[string]string `json:"amounts,omitempty"`
	Error    string            `json:"error,omitempty"`
	Snapshot Snapshot          `json:"snapshot"`
}

// Save is a whole replay: every step plus the closing account balances.
type Save struct {
	Scenario string                       `json:"scenario"`
	Records  []Record                     `json:"records"`
	Balances map[string]map[string]string `json:"balances"`
}

// Failed counts the steps that ended in an error, expected or not.
func (s Save) Failed() int {
	n := 0
	for _, r := range s.Records {
		if r.Error != "" {
			n++
		}
	}
	return n
}

// Accounts lists the account names in order.
func (s Save) Accounts() []string {
	names := make([]string, 0, len(s.Balances))
	for name := range s.Balances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s Save) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
