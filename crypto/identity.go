package crypto

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// IdentityLength is the fixed byte width of every on-ledger identity handle.
const IdentityLength = 32

// Identity is an opaque 32-byte handle naming an account, authority or
// program-derived entity on the ledger. Identities carry no structure the
// program interprets; equality is the only operation the core relies on.
type Identity [IdentityLength]byte

// ZeroIdentity is the unset identity value.
var ZeroIdentity Identity

// NewIdentity copies b into an Identity. The input must be exactly 32 bytes.
func NewIdentity(b []byte) (Identity, error) {
	if len(b) != IdentityLength {
		return Identity{}, fmt.Errorf("identity must be %d bytes, got %d", IdentityLength, len(b))
	}
	var id Identity
	copy(id[:], b)
	return id, nil
}

// ParseIdentity decodes a hex string (with or without a 0x prefix) into an
// Identity.
func ParseIdentity(s string) (Identity, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid identity hex: %w", err)
	}
	return NewIdentity(raw)
}

// Bytes returns a copy of the identity's raw bytes.
func (id Identity) Bytes() []byte {
	out := make([]byte, IdentityLength)
	copy(out, id[:])
	return out
}

// String renders the identity as lowercase hex with a 0x prefix.
func (id Identity) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

// IsZero reports whether the identity is the unset value.
func (id Identity) IsZero() bool {
	return id == ZeroIdentity
}
