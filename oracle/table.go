// Package oracle provides balance oracles for running the ledger outside a
// host runtime.
package oracle

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"xdao.co/claimledger/model"
)

// Table is a fixed in-memory balance table.
//
// Accounts missing from the table have a free balance of zero.
type Table struct {
	mu       sync.RWMutex
	balances map[model.AccountID]model.Amount
}

func NewTable() *Table {
	return &Table{balances: make(map[model.AccountID]model.Amount)}
}

// LoadFile reads a JSON object mapping hex account ids to decimal balances.
func LoadFile(path string) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("oracle: read balances: %w", err)
	}
	var raw map[model.AccountID]model.Amount
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("oracle: parse balances %s: %w", path, err)
	}
	t := NewTable()
	for a, amt := range raw {
		t.balances[a] = amt
	}
	return t, nil
}

// Set replaces the free balance of account.
func (t *Table) Set(account model.AccountID, amount model.Amount) {
	t.mu.Lock()
	t.balances[account] = amount
	t.mu.Unlock()
}

func (t *Table) FreeBalance(account model.AccountID) (model.Amount, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.balances[account], nil
}

// Len returns the number of accounts with an explicit balance.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.balances)
}
