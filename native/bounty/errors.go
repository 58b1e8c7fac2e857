package bounty

import "errors"

var (
	// ErrUnauthorized marks owner-only operations attempted by anyone other
	// than the vault's program team.
	ErrUnauthorized = errors.New("bounty: caller is not the program team")
	// ErrUnauthorizedGovernance marks approve/reject attempts by anyone other
	// than the vault's governance authority.
	ErrUnauthorizedGovernance = errors.New("bounty: caller is not the governance authority")
	// ErrUnauthorizedResearcher marks payout/mint attempts by anyone other
	// than the reporting researcher.
	ErrUnauthorizedResearcher = errors.New("bounty: caller is not the reporting researcher")
	// ErrVaultInactive is returned when submissions or deposits target a
	// paused vault.
	ErrVaultInactive = errors.New("bounty: vault is inactive")
	// ErrVaultMustBeInactive is returned when deletion is attempted on an
	// active vault.
	ErrVaultMustBeInactive = errors.New("bounty: vault must be inactive before deletion")
	// ErrPendingReportsExist is returned when a non-forced delete finds
	// unresolved reports.
	ErrPendingReportsExist = errors.New("bounty: unresolved reports remain")
	// ErrInvalidReportStatus is returned for any transition the report's
	// current status does not permit, including double payout.
	ErrInvalidReportStatus = errors.New("bounty: operation not permitted in current report status")
	// ErrInsufficientVaultBalance is returned when a payout exceeds the
	// remaining escrow.
	ErrInsufficientVaultBalance = errors.New("bounty: payout exceeds remaining escrow")
	// ErrEmptyContentReference is returned when a submission carries no
	// off-chain content reference.
	ErrEmptyContentReference = errors.New("bounty: content reference required")
	// ErrAlreadyExists marks creation attempts at an occupied deterministic
	// address (double vault create, double badge mint).
	ErrAlreadyExists = errors.New("bounty: entity already exists at derived address")
	// ErrVaultNotFound marks operations against a missing vault.
	ErrVaultNotFound = errors.New("bounty: vault not found")
	// ErrReportNotFound marks operations against a missing report.
	ErrReportNotFound = errors.New("bounty: report not found")
	// ErrAmountOverflow is returned when a counter or balance addition would
	// wrap the fixed-width amount.
	ErrAmountOverflow = errors.New("bounty: amount overflow")
)
