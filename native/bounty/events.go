package bounty

import (
	"strconv"

	"bountyvault/core/types"
)

const (
	EventTypeVaultCreated      = "bounty.vault.created"
	EventTypeVaultFunded       = "bounty.vault.funded"
	EventTypeVaultToggled      = "bounty.vault.toggled"
	EventTypeRewardTiersUpdate = "bounty.vault.tiers_updated"
	EventTypeVaultDeleted      = "bounty.vault.deleted"
	EventTypeReportSubmitted   = "bounty.report.submitted"
	EventTypeReportApproved    = "bounty.report.approved"
	EventTypeReportRejected    = "bounty.report.rejected"
	EventTypeReportPaid        = "bounty.report.paid"
	EventTypeReputationMinted  = "bounty.reputation.minted"
)

func vaultAttributes(v *Vault) map[string]string {
	if v == nil {
		return map[string]string{}
	}
	return map[string]string{
		"vault":           v.Address.String(),
		"programTeam":     v.ProgramTeam.String(),
		"governance":      v.Governance.String(),
		"asset":           v.RewardAsset.String(),
		"totalFunded":     strconv.FormatUint(v.TotalFunded, 10),
		"totalPaidOut":    strconv.FormatUint(v.TotalPaidOut, 10),
		"totalReports":    strconv.FormatUint(v.TotalReports, 10),
		"approvedReports": strconv.FormatUint(v.ApprovedReports, 10),
		"active":          strconv.FormatBool(v.Active),
	}
}

func newVaultEvent(eventType string, v *Vault) *types.Event {
	return &types.Event{Type: eventType, Attributes: vaultAttributes(v)}
}

func reportAttributes(r *Report) map[string]string {
	if r == nil {
		return map[string]string{}
	}
	attrs := map[string]string{
		"report":       r.Address.String(),
		"vault":        r.Vault.String(),
		"researcher":   r.Researcher.String(),
		"severity":     r.Severity.String(),
		"status":       r.Status.String(),
		"sequence":     strconv.FormatUint(r.Sequence, 10),
		"payoutAmount": strconv.FormatUint(r.PayoutAmount, 10),
	}
	if !r.Approver.IsZero() {
		attrs["approver"] = r.Approver.String()
	}
	return attrs
}

func newReportEvent(eventType string, r *Report) *types.Event {
	return &types.Event{Type: eventType, Attributes: reportAttributes(r)}
}

// NewVaultCreatedEvent returns the canonical payload for a newly created vault.
func NewVaultCreatedEvent(v *Vault) *types.Event { return newVaultEvent(EventTypeVaultCreated, v) }

// NewVaultFundedEvent returns the payload emitted after a deposit commits.
func NewVaultFundedEvent(v *Vault) *types.Event { return newVaultEvent(EventTypeVaultFunded, v) }

// NewVaultToggledEvent returns the payload emitted when the owner flips the
// vault's active flag.
func NewVaultToggledEvent(v *Vault) *types.Event { return newVaultEvent(EventTypeVaultToggled, v) }

// NewRewardTiersUpdatedEvent returns the payload emitted after the owner
// retunes the four reward tiers.
func NewRewardTiersUpdatedEvent(v *Vault) *types.Event {
	return newVaultEvent(EventTypeRewardTiersUpdate, v)
}

// NewVaultDeletedEvent returns the payload emitted once the vault account has
// been closed and any remainder returned to the owner.
func NewVaultDeletedEvent(v *Vault, refunded uint64) *types.Event {
	evt := newVaultEvent(EventTypeVaultDeleted, v)
	evt.Attributes["refunded"] = strconv.FormatUint(refunded, 10)
	return evt
}

// NewReportSubmittedEvent returns the payload for a fresh pending report.
func NewReportSubmittedEvent(r *Report) *types.Event {
	return newReportEvent(EventTypeReportSubmitted, r)
}

// NewReportApprovedEvent returns the payload emitted on governance approval.
func NewReportApprovedEvent(r *Report) *types.Event {
	return newReportEvent(EventTypeReportApproved, r)
}

// NewReportRejectedEvent returns the payload emitted on governance rejection.
func NewReportRejectedEvent(r *Report) *types.Event {
	return newReportEvent(EventTypeReportRejected, r)
}

// NewReportPaidEvent returns the payload emitted once the payout settles.
func NewReportPaidEvent(r *Report) *types.Event { return newReportEvent(EventTypeReportPaid, r) }

// NewReputationMintedEvent returns the payload emitted when the one-time
// badge is created.
func NewReputationMintedEvent(b *ReputationBadge) *types.Event {
	if b == nil {
		return &types.Event{Type: EventTypeReputationMinted, Attributes: map[string]string{}}
	}
	return &types.Event{
		Type: EventTypeReputationMinted,
		Attributes: map[string]string{
			"badge":        b.Address.String(),
			"researcher":   b.Researcher.String(),
			"vault":        b.Vault.String(),
			"report":       b.Report.String(),
			"severity":     b.Severity.String(),
			"projectLabel": b.ProjectLabel,
		},
	}
}
