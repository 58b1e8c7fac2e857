package state

import (
	"fmt"

	"bountyvault/crypto"
	"bountyvault/native/bounty"
)

// Persistence for the bounty program's three entity kinds plus the
// pending-report index backing non-forced vault deletion. Stored records use
// unsigned timestamps because the RLP codec refuses signed integers; zero
// means unset.

var (
	vaultStorePrefix   = []byte("bounty/vault/")
	reportStorePrefix  = []byte("bounty/report/")
	badgeStorePrefix   = []byte("bounty/reputation/")
	pendingStorePrefix = []byte("bounty/pending/")
)

func vaultStoreKey(addr crypto.Identity) []byte {
	return append(append([]byte(nil), vaultStorePrefix...), addr[:]...)
}

func reportStoreKey(addr crypto.Identity) []byte {
	return append(append([]byte(nil), reportStorePrefix...), addr[:]...)
}

func badgeStoreKey(addr crypto.Identity) []byte {
	return append(append([]byte(nil), badgeStorePrefix...), addr[:]...)
}

func pendingStoreKey(vault crypto.Identity) []byte {
	return append(append([]byte(nil), pendingStorePrefix...), vault[:]...)
}

type storedVault struct {
	ProgramTeam     [32]byte
	Governance      [32]byte
	Critical        uint64
	High            uint64
	Medium          uint64
	Low             uint64
	TotalFunded     uint64
	TotalPaidOut    uint64
	TotalReports    uint64
	ApprovedReports uint64
	AssetKind       uint8
	AssetMint       [32]byte
	Active          bool
	CreatedAt       uint64
}

type storedReport struct {
	Vault          [32]byte
	Researcher     [32]byte
	Severity       uint8
	Status         uint8
	ContentRef     [32]byte
	Sequence       uint64
	SubmittedAt    uint64
	ApprovedAt     uint64
	PaidAt         uint64
	Approver       [32]byte
	DecisionReason string
	PayoutAmount   uint64
}

type storedBadge struct {
	Researcher   [32]byte
	Vault        [32]byte
	Report       [32]byte
	Severity     uint8
	ProjectLabel string
	MintedAt     uint64
}

func clampTimestamp(ts int64) uint64 {
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

// BountyVaultPut persists the vault after sanitising its invariants.
func (m *Manager) BountyVaultPut(v *bounty.Vault) error {
	sanitized, err := bounty.SanitizeVault(v)
	if err != nil {
		return err
	}
	stored := storedVault{
		ProgramTeam:     sanitized.ProgramTeam,
		Governance:      sanitized.Governance,
		Critical:        sanitized.Tiers.Critical,
		High:            sanitized.Tiers.High,
		Medium:          sanitized.Tiers.Medium,
		Low:             sanitized.Tiers.Low,
		TotalFunded:     sanitized.TotalFunded,
		TotalPaidOut:    sanitized.TotalPaidOut,
		TotalReports:    sanitized.TotalReports,
		ApprovedReports: sanitized.ApprovedReports,
		AssetKind:       uint8(sanitized.RewardAsset.Kind),
		AssetMint:       sanitized.RewardAsset.Mint,
		Active:          sanitized.Active,
		CreatedAt:       clampTimestamp(sanitized.CreatedAt),
	}
	return m.KVPut(vaultStoreKey(sanitized.Address), &stored)
}

// BountyVaultGet loads the vault stored at addr.
func (m *Manager) BountyVaultGet(addr crypto.Identity) (*bounty.Vault, bool, error) {
	var stored storedVault
	ok, err := m.KVGet(vaultStoreKey(addr), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	vault := &bounty.Vault{
		Address:     addr,
		ProgramTeam: stored.ProgramTeam,
		Governance:  stored.Governance,
		Tiers: bounty.RewardTiers{
			Critical: stored.Critical,
			High:     stored.High,
			Medium:   stored.Medium,
			Low:      stored.Low,
		},
		TotalFunded:     stored.TotalFunded,
		TotalPaidOut:    stored.TotalPaidOut,
		TotalReports:    stored.TotalReports,
		ApprovedReports: stored.ApprovedReports,
		RewardAsset:     bounty.Asset{Kind: bounty.AssetKind(stored.AssetKind), Mint: stored.AssetMint},
		Active:          stored.Active,
		CreatedAt:       int64(stored.CreatedAt),
	}
	return vault, true, nil
}

// BountyVaultDelete removes the vault record and its pending-report index
// entry. The deterministic address becomes available again for a fresh
// create.
func (m *Manager) BountyVaultDelete(addr crypto.Identity) error {
	if err := m.KVDelete(vaultStoreKey(addr)); err != nil {
		return err
	}
	return m.KVDelete(pendingStoreKey(addr))
}

// BountyReportPut persists the report and keeps the owning vault's pending
// count in step with status changes.
func (m *Manager) BountyReportPut(r *bounty.Report) error {
	sanitized, err := bounty.SanitizeReport(r)
	if err != nil {
		return err
	}
	key := reportStoreKey(sanitized.Address)
	var previous storedReport
	existed, err := m.KVGet(key, &previous)
	if err != nil {
		return err
	}
	stored := storedReport{
		Vault:          sanitized.Vault,
		Researcher:     sanitized.Researcher,
		Severity:       uint8(sanitized.Severity),
		Status:         uint8(sanitized.Status),
		ContentRef:     sanitized.ContentRef,
		Sequence:       sanitized.Sequence,
		SubmittedAt:    clampTimestamp(sanitized.SubmittedAt),
		ApprovedAt:     clampTimestamp(sanitized.ApprovedAt),
		PaidAt:         clampTimestamp(sanitized.PaidAt),
		Approver:       sanitized.Approver,
		DecisionReason: sanitized.DecisionReason,
		PayoutAmount:   sanitized.PayoutAmount,
	}
	if err := m.KVPut(key, &stored); err != nil {
		return err
	}
	wasPending := existed && bounty.ReportStatus(previous.Status) == bounty.ReportPending
	isPending := sanitized.Status == bounty.ReportPending
	switch {
	case isPending && !wasPending:
		return m.adjustPending(sanitized.Vault, 1)
	case wasPending && !isPending:
		return m.adjustPending(sanitized.Vault, -1)
	default:
		return nil
	}
}

// BountyReportGet loads the report stored at addr.
func (m *Manager) BountyReportGet(addr crypto.Identity) (*bounty.Report, bool, error) {
	var stored storedReport
	ok, err := m.KVGet(reportStoreKey(addr), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	report := &bounty.Report{
		Address:        addr,
		Vault:          stored.Vault,
		Researcher:     stored.Researcher,
		Severity:       bounty.Severity(stored.Severity),
		Status:         bounty.ReportStatus(stored.Status),
		ContentRef:     stored.ContentRef,
		Sequence:       stored.Sequence,
		SubmittedAt:    int64(stored.SubmittedAt),
		ApprovedAt:     int64(stored.ApprovedAt),
		PaidAt:         int64(stored.PaidAt),
		Approver:       stored.Approver,
		DecisionReason: stored.DecisionReason,
		PayoutAmount:   stored.PayoutAmount,
	}
	return report, true, nil
}

// BountyPendingReports returns the number of unresolved reports for the
// vault.
func (m *Manager) BountyPendingReports(vault crypto.Identity) (uint64, error) {
	return m.readAmount(pendingStoreKey(vault))
}

func (m *Manager) adjustPending(vault crypto.Identity, delta int64) error {
	current, err := m.readAmount(pendingStoreKey(vault))
	if err != nil {
		return err
	}
	if delta < 0 {
		if current == 0 {
			return fmt.Errorf("state: pending report count underflow for vault %x", vault[:4])
		}
		current--
	} else {
		current += uint64(delta)
	}
	return m.KVPut(pendingStoreKey(vault), current)
}

// BountyBadgePut persists the reputation badge.
func (m *Manager) BountyBadgePut(b *bounty.ReputationBadge) error {
	if b == nil {
		return fmt.Errorf("state: nil reputation badge")
	}
	if b.Address.IsZero() {
		return fmt.Errorf("state: badge address required")
	}
	stored := storedBadge{
		Researcher:   b.Researcher,
		Vault:        b.Vault,
		Report:       b.Report,
		Severity:     uint8(b.Severity),
		ProjectLabel: b.ProjectLabel,
		MintedAt:     clampTimestamp(b.MintedAt),
	}
	return m.KVPut(badgeStoreKey(b.Address), &stored)
}

// BountyBadgeGet loads the reputation badge stored at addr.
func (m *Manager) BountyBadgeGet(addr crypto.Identity) (*bounty.ReputationBadge, bool, error) {
	var stored storedBadge
	ok, err := m.KVGet(badgeStoreKey(addr), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	badge := &bounty.ReputationBadge{
		Address:      addr,
		Researcher:   stored.Researcher,
		Vault:        stored.Vault,
		Report:       stored.Report,
		Severity:     bounty.Severity(stored.Severity),
		ProjectLabel: stored.ProjectLabel,
		MintedAt:     int64(stored.MintedAt),
	}
	return badge, true, nil
}
