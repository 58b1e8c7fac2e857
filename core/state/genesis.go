package state

import (
	"fmt"

	"bountyvault/crypto"
	"bountyvault/native/bounty"
)

var genesisAppliedKey = []byte("genesis/applied")

// GenesisAccount is one initial balance credited when a fresh ledger starts.
type GenesisAccount struct {
	Address crypto.Identity
	Asset   bounty.Asset
	Amount  uint64
}

// ApplyGenesis credits the initial allocations exactly once per database.
// Restarting the daemon against an existing ledger is a no-op. Returns true
// when the allocations were applied on this call.
func (m *Manager) ApplyGenesis(accounts []GenesisAccount) (bool, error) {
	var applied bool
	ok, err := m.KVGet(genesisAppliedKey, &applied)
	if err != nil {
		return false, err
	}
	if ok && applied {
		return false, nil
	}
	for i, account := range accounts {
		if account.Address.IsZero() {
			return false, fmt.Errorf("state: genesis account %d: address required", i)
		}
		if !account.Asset.Valid() {
			return false, fmt.Errorf("state: genesis account %d: invalid asset", i)
		}
		if account.Amount == 0 {
			continue
		}
		if err := m.AccountCredit(account.Address, account.Asset, account.Amount); err != nil {
			return false, fmt.Errorf("state: genesis account %d: %w", i, err)
		}
	}
	if err := m.KVPut(genesisAppliedKey, true); err != nil {
		return false, err
	}
	return true, nil
}
