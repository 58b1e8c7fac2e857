package state

import (
	"errors"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"bountyvault/crypto"
	"bountyvault/native/bounty"
	"bountyvault/storage"
)

var (
	// ErrInsufficientFunds marks account debits exceeding the balance.
	ErrInsufficientFunds = errors.New("state: insufficient account balance")
	// ErrInsufficientEscrow marks escrow debits exceeding the pool.
	ErrInsufficientEscrow = errors.New("state: insufficient escrow balance")
)

// Manager provides RLP-encoded, keccak-keyed ledger state on top of the
// key-value database: generic KV access, account balances per (identity,
// asset), and per-vault escrow pools.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

var (
	balancePrefix = []byte("balance:")
	escrowPrefix  = []byte("escrow:")
)

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

// assetKey flattens an Asset into a stable key segment. The sum type keeps
// the switch exhaustive.
func assetKey(asset bounty.Asset) string {
	switch asset.Kind {
	case bounty.AssetToken:
		return "token:" + asset.Mint.String()
	default:
		return "native"
	}
}

func balanceKey(addr crypto.Identity, asset bounty.Asset) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", balancePrefix, assetKey(asset), addr.String()))
}

func escrowKey(vault crypto.Identity, asset bounty.Asset) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", escrowPrefix, assetKey(asset), vault.String()))
}

// KVPut stores the provided value under the supplied key using RLP encoding.
// The key is hashed with keccak256 before it reaches the database.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(kvKey(key), encoded)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the
// key existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.db.Get(kvKey(key))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVDelete removes the value stored under the supplied key, closing the
// account for good.
func (m *Manager) KVDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	return m.db.Delete(kvKey(key))
}

func (m *Manager) readAmount(key []byte) (uint64, error) {
	var amount uint64
	ok, err := m.KVGet(key, &amount)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return amount, nil
}

// AccountBalance returns the balance the identity holds in the given asset.
func (m *Manager) AccountBalance(addr crypto.Identity, asset bounty.Asset) (uint64, error) {
	return m.readAmount(balanceKey(addr, asset))
}

// AccountCredit adds amount to the identity's balance in the given asset.
func (m *Manager) AccountCredit(addr crypto.Identity, asset bounty.Asset, amount uint64) error {
	current, err := m.readAmount(balanceKey(addr, asset))
	if err != nil {
		return err
	}
	sum := current + amount
	if sum < current {
		return bounty.ErrAmountOverflow
	}
	return m.KVPut(balanceKey(addr, asset), sum)
}

// AccountDebit subtracts amount from the identity's balance in the given
// asset, failing when the balance is insufficient.
func (m *Manager) AccountDebit(addr crypto.Identity, asset bounty.Asset, amount uint64) error {
	current, err := m.readAmount(balanceKey(addr, asset))
	if err != nil {
		return err
	}
	if current < amount {
		return ErrInsufficientFunds
	}
	return m.KVPut(balanceKey(addr, asset), current-amount)
}

// EscrowBalance returns the amount held in the vault's escrow pool for the
// given asset.
func (m *Manager) EscrowBalance(vault crypto.Identity, asset bounty.Asset) (uint64, error) {
	return m.readAmount(escrowKey(vault, asset))
}

// EscrowCredit moves amount into the vault's escrow pool.
func (m *Manager) EscrowCredit(vault crypto.Identity, asset bounty.Asset, amount uint64) error {
	current, err := m.readAmount(escrowKey(vault, asset))
	if err != nil {
		return err
	}
	sum := current + amount
	if sum < current {
		return bounty.ErrAmountOverflow
	}
	return m.KVPut(escrowKey(vault, asset), sum)
}

// EscrowDebit moves amount out of the vault's escrow pool, failing when the
// pool does not hold enough.
func (m *Manager) EscrowDebit(vault crypto.Identity, asset bounty.Asset, amount uint64) error {
	current, err := m.readAmount(escrowKey(vault, asset))
	if err != nil {
		return err
	}
	if current < amount {
		return ErrInsufficientEscrow
	}
	return m.KVPut(escrowKey(vault, asset), current-amount)
}
