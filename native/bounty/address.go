package bounty

import (
	"encoding/binary"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"bountyvault/crypto"
)

// Seed prefixes keep the three entity address spaces disjoint. An entity is
// findable from its logical key alone; no registry is needed.
const (
	vaultSeed      = "vault"
	reportSeed     = "report"
	reputationSeed = "reputation"
)

// VaultAddress derives the deterministic vault address for an owning program
// team. One identity owns at most one vault.
func VaultAddress(owner crypto.Identity) crypto.Identity {
	var addr crypto.Identity
	copy(addr[:], ethcrypto.Keccak256([]byte(vaultSeed), owner[:]))
	return addr
}

// ReportAddress derives the deterministic report address from the owning
// vault, the researcher, and the per-vault submission sequence number.
func ReportAddress(vault, researcher crypto.Identity, sequence uint64) crypto.Identity {
	var seq [8]byte
	binary.LittleEndian.PutUint64(seq[:], sequence)
	var addr crypto.Identity
	copy(addr[:], ethcrypto.Keccak256([]byte(reportSeed), vault[:], researcher[:], seq[:]))
	return addr
}

// BadgeAddress derives the deterministic reputation badge address from the
// researcher and the paid report. Its occupancy is the at-most-one-badge
// guarantee.
func BadgeAddress(researcher, report crypto.Identity) crypto.Identity {
	var addr crypto.Identity
	copy(addr[:], ethcrypto.Keccak256([]byte(reputationSeed), researcher[:], report[:]))
	return addr
}
