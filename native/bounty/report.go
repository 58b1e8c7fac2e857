package bounty

import (
	"fmt"
	"strings"

	"bountyvault/crypto"
)

// SubmitReport creates a pending report against an active vault. Submission
// is public: any identity may submit, naming itself as researcher. The payout
// amount is snapshotted from the vault's current tier for the severity and
// never re-read, so later tier updates cannot retroactively change it.
func (e *Engine) SubmitReport(vaultAddr, researcher crypto.Identity, severity Severity, contentRef ContentRef) (*Report, error) {
	vault, err := e.loadVault(vaultAddr)
	if err != nil {
		return nil, err
	}
	if !vault.Active {
		return nil, ErrVaultInactive
	}
	if researcher.IsZero() {
		return nil, fmt.Errorf("bounty: researcher identity required")
	}
	if !severity.Valid() {
		return nil, fmt.Errorf("bounty: invalid severity: %d", severity)
	}
	if contentRef.IsZero() {
		return nil, ErrEmptyContentReference
	}
	sequence := vault.TotalReports
	addr := ReportAddress(vault.Address, researcher, sequence)
	if _, ok, err := e.state.BountyReportGet(addr); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyExists
	}
	total, err := addAmount(vault.TotalReports, 1)
	if err != nil {
		return nil, err
	}
	report := &Report{
		Address:      addr,
		Vault:        vault.Address,
		Researcher:   researcher,
		Severity:     severity,
		Status:       ReportPending,
		ContentRef:   contentRef,
		Sequence:     sequence,
		SubmittedAt:  e.now(),
		PayoutAmount: vault.Tiers.AmountFor(severity),
	}
	if err := e.state.BountyReportPut(report); err != nil {
		return nil, err
	}
	vault.TotalReports = total
	if err := e.state.BountyVaultPut(vault); err != nil {
		return nil, err
	}
	e.emit(NewReportSubmittedEvent(report))
	return report.Clone(), nil
}

// ApproveReport moves a pending report to approved. Governance-only. Exactly
// one of approve/reject ever succeeds for a given report: whichever the
// ledger serialises second fails the pending-status check.
func (e *Engine) ApproveReport(reportAddr, caller crypto.Identity, reason string) error {
	report, err := e.loadReport(reportAddr)
	if err != nil {
		return err
	}
	vault, err := e.loadVault(report.Vault)
	if err != nil {
		return err
	}
	if err := requireGovernance(vault, caller); err != nil {
		return err
	}
	if report.Status != ReportPending {
		return ErrInvalidReportStatus
	}
	approved, err := addAmount(vault.ApprovedReports, 1)
	if err != nil {
		return err
	}
	report.Status = ReportApproved
	report.ApprovedAt = e.now()
	report.Approver = caller
	report.DecisionReason = strings.TrimSpace(reason)
	if err := e.state.BountyReportPut(report); err != nil {
		return err
	}
	vault.ApprovedReports = approved
	if err := e.state.BountyVaultPut(vault); err != nil {
		return err
	}
	e.emit(NewReportApprovedEvent(report))
	return nil
}

// RejectReport moves a pending report to rejected. Governance-only. The
// vault's total_reports counter is left untouched: it counts submissions
// ever, not live pending work.
func (e *Engine) RejectReport(reportAddr, caller crypto.Identity, reason string) error {
	report, err := e.loadReport(reportAddr)
	if err != nil {
		return err
	}
	vault, err := e.loadVault(report.Vault)
	if err != nil {
		return err
	}
	if err := requireGovernance(vault, caller); err != nil {
		return err
	}
	if report.Status != ReportPending {
		return ErrInvalidReportStatus
	}
	report.Status = ReportRejected
	report.Approver = caller
	report.DecisionReason = strings.TrimSpace(reason)
	if err := e.state.BountyReportPut(report); err != nil {
		return err
	}
	e.emit(NewReportRejectedEvent(report))
	return nil
}

// ExecutePayout transfers the snapshotted payout from vault escrow to the
// researcher and marks the report paid. Researcher-only: the researcher pulls
// their own payout. The approved-to-paid gate makes a second call fail with
// ErrInvalidReportStatus, so at most one payout per report can ever commit.
func (e *Engine) ExecutePayout(reportAddr, caller crypto.Identity) error {
	report, err := e.loadReport(reportAddr)
	if err != nil {
		return err
	}
	vault, err := e.loadVault(report.Vault)
	if err != nil {
		return err
	}
	if err := requireResearcher(report, caller); err != nil {
		return err
	}
	if report.Status != ReportApproved {
		return ErrInvalidReportStatus
	}
	if vault.EscrowBalance() < report.PayoutAmount {
		return ErrInsufficientVaultBalance
	}
	paidOut, err := addAmount(vault.TotalPaidOut, report.PayoutAmount)
	if err != nil {
		return err
	}
	if paidOut > vault.TotalFunded {
		return ErrInsufficientVaultBalance
	}
	if report.PayoutAmount > 0 {
		if err := e.state.EscrowDebit(vault.Address, vault.RewardAsset, report.PayoutAmount); err != nil {
			return err
		}
		if err := e.state.AccountCredit(report.Researcher, vault.RewardAsset, report.PayoutAmount); err != nil {
			return err
		}
	}
	report.Status = ReportPaid
	report.PaidAt = e.now()
	if err := e.state.BountyReportPut(report); err != nil {
		return err
	}
	vault.TotalPaidOut = paidOut
	if err := e.state.BountyVaultPut(vault); err != nil {
		return err
	}
	e.emit(NewReportPaidEvent(report))
	return nil
}

// MintReputation creates the one-time badge for a paid report at its
// deterministic address. Researcher-only. A second mint fails because the
// address is already occupied.
func (e *Engine) MintReputation(reportAddr, caller crypto.Identity, projectLabel string) (*ReputationBadge, error) {
	report, err := e.loadReport(reportAddr)
	if err != nil {
		return nil, err
	}
	if err := requireResearcher(report, caller); err != nil {
		return nil, err
	}
	if report.Status != ReportPaid {
		return nil, ErrInvalidReportStatus
	}
	label := strings.TrimSpace(projectLabel)
	if label == "" {
		return nil, fmt.Errorf("bounty: project label required")
	}
	addr := BadgeAddress(report.Researcher, report.Address)
	if _, ok, err := e.state.BountyBadgeGet(addr); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyExists
	}
	badge := &ReputationBadge{
		Address:      addr,
		Researcher:   report.Researcher,
		Vault:        report.Vault,
		Report:       report.Address,
		Severity:     report.Severity,
		ProjectLabel: label,
		MintedAt:     e.now(),
	}
	if err := e.state.BountyBadgePut(badge); err != nil {
		return nil, err
	}
	e.emit(NewReputationMintedEvent(badge))
	return badge.Clone(), nil
}
