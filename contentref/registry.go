// Package contentref maps the truncated content references stored on-ledger
// back to full off-chain content identifiers. The program core never depends
// on this registry; it exists so UIs can recover the full identifier from the
// fixed-size reference a report carries.
package contentref

import (
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// ReferenceLength matches the fixed byte width of on-ledger content
// references.
const ReferenceLength = 32

// Reference is the truncated on-ledger form of a content identifier.
type Reference [ReferenceLength]byte

// Derive computes the deterministic reference for a full content identifier.
func Derive(identifier string) (Reference, error) {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return Reference{}, fmt.Errorf("contentref: identifier required")
	}
	var ref Reference
	copy(ref[:], ethcrypto.Keccak256([]byte(trimmed)))
	return ref, nil
}

// ParseReference decodes a hex string (with or without 0x prefix) into a
// Reference.
func ParseReference(s string) (Reference, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return Reference{}, fmt.Errorf("contentref: invalid hex: %w", err)
	}
	if len(raw) != ReferenceLength {
		return Reference{}, fmt.Errorf("contentref: reference must be %d bytes, got %d", ReferenceLength, len(raw))
	}
	var ref Reference
	copy(ref[:], raw)
	return ref, nil
}

// String renders the reference as lowercase hex with a 0x prefix.
func (r Reference) String() string {
	return "0x" + hex.EncodeToString(r[:])
}

// Registry is an in-memory index from truncated references to full content
// identifiers. Losing it never affects ledger correctness, only the UI's
// ability to dereference stored reports.
type Registry struct {
	mu      sync.RWMutex
	entries map[Reference]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[Reference]string)}
}

// Register records the identifier and returns its derived reference. The
// operation is idempotent: the same identifier always lands on the same
// reference.
func (r *Registry) Register(identifier string) (Reference, error) {
	ref, err := Derive(identifier)
	if err != nil {
		return Reference{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[ref] = strings.TrimSpace(identifier)
	return ref, nil
}

// Resolve returns the full identifier for a reference, if known.
func (r *Registry) Resolve(ref Reference) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	identifier, ok := r.entries[ref]
	return identifier, ok
}

// Len reports how many references the registry currently holds.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
