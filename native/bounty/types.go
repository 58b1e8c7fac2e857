package bounty

import (
	"fmt"
	"strings"

	"bountyvault/crypto"
)

// Severity classifies a vulnerability report into one of the four reward
// tiers configured on the vault.
type Severity uint8

const (
	SeverityCritical Severity = iota
	SeverityHigh
	SeverityMedium
	SeverityLow
)

// Valid reports whether the severity value is within the supported range.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	default:
		return false
	}
}

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityHigh:
		return "high"
	case SeverityMedium:
		return "medium"
	case SeverityLow:
		return "low"
	default:
		return fmt.Sprintf("severity(%d)", uint8(s))
	}
}

// ParseSeverity maps the canonical lowercase tier names onto Severity values.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return SeverityCritical, nil
	case "high":
		return SeverityHigh, nil
	case "medium":
		return SeverityMedium, nil
	case "low":
		return SeverityLow, nil
	default:
		return 0, fmt.Errorf("bounty: unknown severity %q", s)
	}
}

// ReportStatus tracks a report through its lifecycle. The only transitions
// are Pending to Approved or Rejected, and Approved to Paid.
type ReportStatus uint8

const (
	ReportPending ReportStatus = iota
	ReportApproved
	ReportRejected
	ReportPaid
)

// Valid reports whether the status value is within the supported range.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportPending, ReportApproved, ReportRejected, ReportPaid:
		return true
	default:
		return false
	}
}

func (s ReportStatus) String() string {
	switch s {
	case ReportPending:
		return "pending"
	case ReportApproved:
		return "approved"
	case ReportRejected:
		return "rejected"
	case ReportPaid:
		return "paid"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// AssetKind discriminates the Asset sum type.
type AssetKind uint8

const (
	AssetNative AssetKind = iota
	AssetToken
)

// Asset identifies which value a vault escrows: the native ledger asset, or a
// fungible token named by its mint identity. Modelling the pair as a sum type
// keeps the transfer-mechanism decision exhaustive.
type Asset struct {
	Kind AssetKind
	Mint crypto.Identity
}

// NativeAsset returns the native ledger asset.
func NativeAsset() Asset {
	return Asset{Kind: AssetNative}
}

// TokenAsset returns a fungible-token asset for the given mint identity.
func TokenAsset(mint crypto.Identity) (Asset, error) {
	if mint.IsZero() {
		return Asset{}, fmt.Errorf("bounty: token asset requires a mint identity")
	}
	return Asset{Kind: AssetToken, Mint: mint}, nil
}

// Valid reports whether the asset is well formed: native assets carry no
// mint, token assets always do.
func (a Asset) Valid() bool {
	switch a.Kind {
	case AssetNative:
		return a.Mint.IsZero()
	case AssetToken:
		return !a.Mint.IsZero()
	default:
		return false
	}
}

func (a Asset) String() string {
	switch a.Kind {
	case AssetNative:
		return "native"
	case AssetToken:
		return "token:" + a.Mint.String()
	default:
		return fmt.Sprintf("asset(%d)", uint8(a.Kind))
	}
}

// RewardTiers holds the fixed reward for each severity tier.
type RewardTiers struct {
	Critical uint64
	High     uint64
	Medium   uint64
	Low      uint64
}

// AmountFor returns the reward configured for the given severity.
func (t RewardTiers) AmountFor(s Severity) uint64 {
	switch s {
	case SeverityCritical:
		return t.Critical
	case SeverityHigh:
		return t.High
	case SeverityMedium:
		return t.Medium
	default:
		return t.Low
	}
}

// Vault is the escrow account for one bounty program. Its address derives
// deterministically from the owning program team, so each identity owns at
// most one vault at a time.
type Vault struct {
	Address         crypto.Identity
	ProgramTeam     crypto.Identity
	Governance      crypto.Identity
	Tiers           RewardTiers
	TotalFunded     uint64
	TotalPaidOut    uint64
	TotalReports    uint64
	ApprovedReports uint64
	RewardAsset     Asset
	Active          bool
	CreatedAt       int64
}

// Clone returns a deep copy of the vault so callers can safely mutate the
// copy without affecting the stored instance.
func (v *Vault) Clone() *Vault {
	if v == nil {
		return nil
	}
	clone := *v
	return &clone
}

// EscrowBalance returns the amount still held in escrow.
func (v *Vault) EscrowBalance() uint64 {
	if v == nil || v.TotalPaidOut > v.TotalFunded {
		return 0
	}
	return v.TotalFunded - v.TotalPaidOut
}

// SanitizeVault validates vault invariants before persistence.
func SanitizeVault(v *Vault) (*Vault, error) {
	if v == nil {
		return nil, fmt.Errorf("bounty: nil vault")
	}
	clone := v.Clone()
	if clone.Address.IsZero() {
		return nil, fmt.Errorf("bounty: vault address required")
	}
	if clone.ProgramTeam.IsZero() {
		return nil, fmt.Errorf("bounty: program team required")
	}
	if clone.Governance.IsZero() {
		return nil, fmt.Errorf("bounty: governance authority required")
	}
	if !clone.RewardAsset.Valid() {
		return nil, fmt.Errorf("bounty: invalid reward asset")
	}
	if clone.TotalPaidOut > clone.TotalFunded {
		return nil, fmt.Errorf("bounty: paid out %d exceeds funded %d", clone.TotalPaidOut, clone.TotalFunded)
	}
	return clone, nil
}

// ContentRefLength is the fixed byte width of the truncated off-chain content
// reference stored per report.
const ContentRefLength = 32

// ContentRef is the truncated content identifier pointing at the off-chain
// report body. The core never interprets it.
type ContentRef [ContentRefLength]byte

// IsZero reports whether the reference is unset.
func (c ContentRef) IsZero() bool {
	return c == ContentRef{}
}

// Report is a single vulnerability submission tied to exactly one vault.
// PayoutAmount is snapshotted from the vault's tiers at submission time and
// never changes afterwards, even if the vault retunes its tiers.
type Report struct {
	Address        crypto.Identity
	Vault          crypto.Identity
	Researcher     crypto.Identity
	Severity       Severity
	Status         ReportStatus
	ContentRef     ContentRef
	Sequence       uint64
	SubmittedAt    int64
	ApprovedAt     int64
	PaidAt         int64
	Approver       crypto.Identity
	DecisionReason string
	PayoutAmount   uint64
}

// Clone returns a deep copy of the report.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}

// SanitizeReport validates report invariants before persistence.
func SanitizeReport(r *Report) (*Report, error) {
	if r == nil {
		return nil, fmt.Errorf("bounty: nil report")
	}
	clone := r.Clone()
	if clone.Address.IsZero() {
		return nil, fmt.Errorf("bounty: report address required")
	}
	if clone.Vault.IsZero() {
		return nil, fmt.Errorf("bounty: report vault required")
	}
	if clone.Researcher.IsZero() {
		return nil, fmt.Errorf("bounty: report researcher required")
	}
	if !clone.Severity.Valid() {
		return nil, fmt.Errorf("bounty: invalid severity: %d", clone.Severity)
	}
	if !clone.Status.Valid() {
		return nil, fmt.Errorf("bounty: invalid report status: %d", clone.Status)
	}
	if clone.ContentRef.IsZero() {
		return nil, ErrEmptyContentReference
	}
	return clone, nil
}

// ReputationBadge is the one-time credential minted after a report has been
// paid. The deterministic badge address is the uniqueness guarantee: a second
// mint for the same report lands on an occupied address.
type ReputationBadge struct {
	Address      crypto.Identity
	Researcher   crypto.Identity
	Vault        crypto.Identity
	Report       crypto.Identity
	Severity     Severity
	ProjectLabel string
	MintedAt     int64
}

// Clone returns a deep copy of the badge.
func (b *ReputationBadge) Clone() *ReputationBadge {
	if b == nil {
		return nil
	}
	clone := *b
	return &clone
}
