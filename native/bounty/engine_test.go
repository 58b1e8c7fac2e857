package bounty

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"bountyvault/core/events"
	"bountyvault/crypto"
)

type mockState struct {
	vaults   map[crypto.Identity]*Vault
	reports  map[crypto.Identity]*Report
	badges   map[crypto.Identity]*ReputationBadge
	pending  map[crypto.Identity]uint64
	escrow   map[string]uint64
	accounts map[string]uint64
}

func newMockState() *mockState {
	return &mockState{
		vaults:   make(map[crypto.Identity]*Vault),
		reports:  make(map[crypto.Identity]*Report),
		badges:   make(map[crypto.Identity]*ReputationBadge),
		pending:  make(map[crypto.Identity]uint64),
		escrow:   make(map[string]uint64),
		accounts: make(map[string]uint64),
	}
}

func holdingKey(addr crypto.Identity, asset Asset) string {
	return asset.String() + "|" + addr.String()
}

func (m *mockState) BountyVaultPut(v *Vault) error {
	sanitized, err := SanitizeVault(v)
	if err != nil {
		return err
	}
	m.vaults[sanitized.Address] = sanitized.Clone()
	return nil
}

func (m *mockState) BountyVaultGet(addr crypto.Identity) (*Vault, bool, error) {
	vault, ok := m.vaults[addr]
	if !ok {
		return nil, false, nil
	}
	return vault.Clone(), true, nil
}

func (m *mockState) BountyVaultDelete(addr crypto.Identity) error {
	delete(m.vaults, addr)
	delete(m.pending, addr)
	return nil
}

func (m *mockState) BountyReportPut(r *Report) error {
	sanitized, err := SanitizeReport(r)
	if err != nil {
		return err
	}
	previous, existed := m.reports[sanitized.Address]
	m.reports[sanitized.Address] = sanitized.Clone()
	wasPending := existed && previous.Status == ReportPending
	isPending := sanitized.Status == ReportPending
	if isPending && !wasPending {
		m.pending[sanitized.Vault]++
	}
	if wasPending && !isPending {
		if m.pending[sanitized.Vault] == 0 {
			return fmt.Errorf("pending underflow")
		}
		m.pending[sanitized.Vault]--
	}
	return nil
}

func (m *mockState) BountyReportGet(addr crypto.Identity) (*Report, bool, error) {
	report, ok := m.reports[addr]
	if !ok {
		return nil, false, nil
	}
	return report.Clone(), true, nil
}

func (m *mockState) BountyPendingReports(vault crypto.Identity) (uint64, error) {
	return m.pending[vault], nil
}

func (m *mockState) BountyBadgePut(b *ReputationBadge) error {
	if b == nil {
		return fmt.Errorf("nil badge")
	}
	m.badges[b.Address] = b.Clone()
	return nil
}

func (m *mockState) BountyBadgeGet(addr crypto.Identity) (*ReputationBadge, bool, error) {
	badge, ok := m.badges[addr]
	if !ok {
		return nil, false, nil
	}
	return badge.Clone(), true, nil
}

func (m *mockState) EscrowCredit(vault crypto.Identity, asset Asset, amount uint64) error {
	m.escrow[holdingKey(vault, asset)] += amount
	return nil
}

func (m *mockState) EscrowDebit(vault crypto.Identity, asset Asset, amount uint64) error {
	key := holdingKey(vault, asset)
	if m.escrow[key] < amount {
		return fmt.Errorf("escrow underflow")
	}
	m.escrow[key] -= amount
	return nil
}

func (m *mockState) EscrowBalance(vault crypto.Identity, asset Asset) (uint64, error) {
	return m.escrow[holdingKey(vault, asset)], nil
}

func (m *mockState) AccountCredit(addr crypto.Identity, asset Asset, amount uint64) error {
	m.accounts[holdingKey(addr, asset)] += amount
	return nil
}

func (m *mockState) AccountDebit(addr crypto.Identity, asset Asset, amount uint64) error {
	key := holdingKey(addr, asset)
	if m.accounts[key] < amount {
		return fmt.Errorf("account underflow")
	}
	m.accounts[key] -= amount
	return nil
}

func (m *mockState) AccountBalance(addr crypto.Identity, asset Asset) (uint64, error) {
	return m.accounts[holdingKey(addr, asset)], nil
}

func (m *mockState) fund(addr crypto.Identity, asset Asset, amount uint64) {
	m.accounts[holdingKey(addr, asset)] = amount
}

func newTestIdentity(fill byte) crypto.Identity {
	var id crypto.Identity
	copy(id[:], bytes.Repeat([]byte{fill}, crypto.IdentityLength))
	return id
}

func newTestContentRef(fill byte) ContentRef {
	var ref ContentRef
	copy(ref[:], bytes.Repeat([]byte{fill}, ContentRefLength))
	return ref
}

func newTestEngine() (*Engine, *mockState, *events.MemoryEmitter) {
	state := newMockState()
	emitter := &events.MemoryEmitter{}
	engine := NewEngine()
	engine.SetState(state)
	engine.SetEmitter(emitter)
	engine.SetNowFunc(func() int64 { return 1_700_000_000 })
	return engine, state, emitter
}

var (
	testOwner      = newTestIdentity(0x01)
	testGovernance = newTestIdentity(0x02)
	testResearcher = newTestIdentity(0x03)
	testOutsider   = newTestIdentity(0x04)
	testTiers      = RewardTiers{Critical: 1000, High: 500, Medium: 250, Low: 100}
)

func createFundedVault(t *testing.T, engine *Engine, state *mockState, funding uint64) *Vault {
	t.Helper()
	state.fund(testOwner, NativeAsset(), funding)
	vault, err := engine.CreateVault(testOwner, testGovernance, testTiers, funding, NativeAsset())
	if err != nil {
		t.Fatalf("CreateVault: %v", err)
	}
	return vault
}

func submitTestReport(t *testing.T, engine *Engine, vault crypto.Identity, severity Severity) *Report {
	t.Helper()
	report, err := engine.SubmitReport(vault, testResearcher, severity, newTestContentRef(0xCC))
	if err != nil {
		t.Fatalf("SubmitReport: %v", err)
	}
	return report
}

func TestCreateVault(t *testing.T) {
	engine, state, _ := newTestEngine()
	vault := createFundedVault(t, engine, state, 10_000)

	if vault.Address != VaultAddress(testOwner) {
		t.Fatal("vault address must derive from owner")
	}
	if !vault.Active {
		t.Fatal("new vault must be active")
	}
	if vault.TotalFunded != 10_000 || vault.TotalPaidOut != 0 {
		t.Fatalf("unexpected counters: funded=%d paid=%d", vault.TotalFunded, vault.TotalPaidOut)
	}
	if vault.CreatedAt != 1_700_000_000 {
		t.Fatalf("unexpected CreatedAt %d", vault.CreatedAt)
	}
	escrow, _ := state.EscrowBalance(vault.Address, NativeAsset())
	if escrow != 10_000 {
		t.Fatalf("escrow pool holds %d, want 10000", escrow)
	}
	remaining, _ := state.AccountBalance(testOwner, NativeAsset())
	if remaining != 0 {
		t.Fatalf("owner account holds %d after full deposit", remaining)
	}
}

func TestCreateVaultRejectsDuplicate(t *testing.T) {
	engine, state, _ := newTestEngine()
	createFundedVault(t, engine, state, 0)
	if _, err := engine.CreateVault(testOwner, testGovernance, testTiers, 0, NativeAsset()); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreateVaultInsufficientOwnerFunds(t *testing.T) {
	engine, state, _ := newTestEngine()
	state.fund(testOwner, NativeAsset(), 50)
	if _, err := engine.CreateVault(testOwner, testGovernance, testTiers, 100, NativeAsset()); err == nil {
		t.Fatal("expected account debit failure")
	}
}

func TestCreateVaultTokenAsset(t *testing.T) {
	engine, state, _ := newTestEngine()
	mint := newTestIdentity(0x77)
	asset, err := TokenAsset(mint)
	if err != nil {
		t.Fatalf("TokenAsset: %v", err)
	}
	state.fund(testOwner, asset, 500)
	vault, err := engine.CreateVault(testOwner, testGovernance, testTiers, 500, asset)
	if err != nil {
		t.Fatalf("CreateVault: %v", err)
	}
	if vault.RewardAsset.Kind != AssetToken || vault.RewardAsset.Mint != mint {
		t.Fatalf("unexpected reward asset %s", vault.RewardAsset)
	}
	escrow, _ := state.EscrowBalance(vault.Address, asset)
	if escrow != 500 {
		t.Fatalf("token escrow holds %d", escrow)
	}
}

func TestFundVault(t *testing.T) {
	engine, state, _ := newTestEngine()
	vault := createFundedVault(t, engine, state, 1_000)
	state.fund(testOwner, NativeAsset(), 400)

	if err := engine.FundVault(vault.Address, testOwner, 400); err != nil {
		t.Fatalf("FundVault: %v", err)
	}
	stored, _, _ := state.BountyVaultGet(vault.Address)
	if stored.TotalFunded != 1_400 {
		t.Fatalf("TotalFunded = %d, want 1400", stored.TotalFunded)
	}
	escrow, _ := state.EscrowBalance(vault.Address, NativeAsset())
	if escrow != 1_400 {
		t.Fatalf("escrow pool = %d, want 1400", escrow)
	}
}

func TestFundVaultAuthorization(t *testing.T) {
	engine, state, _ := newTestEngine()
	vault := createFundedVault(t, engine, state, 0)
	state.fund(testOutsider, NativeAsset(), 100)

	if err := engine.FundVault(vault.Address, testOutsider, 100); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := engine.FundVault(vault.Address, testGovernance, 100); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("governance must not fund, got %v", err)
	}
}

func TestFundVaultInactive(t *testing.T) {
	engine, state, _ := newTestEngine()
	vault := createFundedVault(t, engine, state, 0)
	if _, err := engine.ToggleVaultStatus(vault.Address, testOwner); err != nil {
		t.Fatalf("ToggleVaultStatus: %v", err)
	}
	state.fund(testOwner, NativeAsset(), 100)
	if err := engine.FundVault(vault.Address, testOwner, 100); !errors.Is(err, ErrVaultInactive) {
		t.Fatalf("expected ErrVaultInactive, got %v", err)
	}
}

func TestToggleVaultStatus(t *testing.T) {
	engine, state, _ := newTestEngine()
	vault := createFundedVault(t, engine, state, 0)

	active, err := engine.ToggleVaultStatus(vault.Address, testOwner)
	if err != nil || active {
		t.Fatalf("first toggle: active=%v err=%v", active, err)
	}
	active, err = engine.ToggleVaultStatus(vault.Address, testOwner)
	if err != nil || !active {
		t.Fatalf("second toggle: active=%v err=%v", active, err)
	}
	if _, err := engine.ToggleVaultStatus(vault.Address, testOutsider); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestUpdateRewardTiersDoesNotTouchExistingReports(t *testing.T) {
	engine, state, _ := newTestEngine()
	vault := createFundedVault(t, engine, state, 10_000)
	report := submitTestReport(t, engine, vault.Address, SeverityCritical)
	if report.PayoutAmount != 1000 {
		t.Fatalf("snapshot payout = %d, want 1000", report.PayoutAmount)
	}

	retuned := RewardTiers{Critical: 9_999, High: 1, Medium: 1, Low: 1}
	if err := engine.UpdateRewardTiers(vault.Address, testOwner, retuned); err != nil {
		t.Fatalf("UpdateRewardTiers: %v", err)
	}
	stored, _, _ := state.BountyReportGet(report.Address)
	if stored.PayoutAmount != 1000 {
		t.Fatalf("existing report payout changed to %d", stored.PayoutAmount)
	}
	next := submitTestReport(t, engine, vault.Address, SeverityCritical)
	if next.PayoutAmount != 9_999 {
		t.Fatalf("new report payout = %d, want 9999", next.PayoutAmount)
	}
	if err := engine.UpdateRewardTiers(vault.Address, testOutsider, retuned); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestDeleteVaultRequiresInactive(t *testing.T) {
	engine, state, _ := newTestEngine()
	vault := createFundedVault(t, engine, state, 100)
	if err := engine.DeleteVault(vault.Address, testOwner, false); !errors.Is(err, ErrVaultMustBeInactive) {
		t.Fatalf("expected ErrVaultMustBeInactive, got %v", err)
	}
}

func TestDeleteVaultPendingReports(t *testing.T) {
	engine, state, _ := newTestEngine()
	vault := createFundedVault(t, engine, state, 2_000)
	submitTestReport(t, engine, vault.Address, SeverityLow)
	if _, err := engine.ToggleVaultStatus(vault.Address, testOwner); err != nil {
		t.Fatalf("ToggleVaultStatus: %v", err)
	}

	if err := engine.DeleteVault(vault.Address, testOwner, false); !errors.Is(err, ErrPendingReportsExist) {
		t.Fatalf("expected ErrPendingReportsExist, got %v", err)
	}
	if err := engine.DeleteVault(vault.Address, testOwner, true); err != nil {
		t.Fatalf("forced delete: %v", err)
	}
	if _, ok, _ := state.BountyVaultGet(vault.Address); ok {
		t.Fatal("vault still retrievable after forced delete")
	}
	refund, _ := state.AccountBalance(testOwner, NativeAsset())
	if refund != 2_000 {
		t.Fatalf("owner refunded %d, want 2000", refund)
	}
	escrow, _ := state.EscrowBalance(vault.Address, NativeAsset())
	if escrow != 0 {
		t.Fatalf("escrow pool still holds %d", escrow)
	}
}

func TestDeleteVaultAfterResolutionAndRecreate(t *testing.T) {
	engine, state, _ := newTestEngine()
	vault := createFundedVault(t, engine, state, 1_000)
	report := submitTestReport(t, engine, vault.Address, SeverityLow)
	if err := engine.RejectReport(report.Address, testGovernance, "duplicate"); err != nil {
		t.Fatalf("RejectReport: %v", err)
	}
	if _, err := engine.ToggleVaultStatus(vault.Address, testOwner); err != nil {
		t.Fatalf("ToggleVaultStatus: %v", err)
	}
	if err := engine.DeleteVault(vault.Address, testOwner, false); err != nil {
		t.Fatalf("delete after resolution: %v", err)
	}

	// Same owner may start fresh at the same derived address.
	state.fund(testOwner, NativeAsset(), 10)
	recreated, err := engine.CreateVault(testOwner, testGovernance, testTiers, 10, NativeAsset())
	if err != nil {
		t.Fatalf("recreate: %v", err)
	}
	if recreated.TotalReports != 0 || recreated.TotalFunded != 10 {
		t.Fatalf("recreated vault carried old counters: %+v", recreated)
	}
}

func TestDeleteVaultAuthorization(t *testing.T) {
	engine, state, _ := newTestEngine()
	vault := createFundedVault(t, engine, state, 0)
	if err := engine.DeleteVault(vault.Address, testOutsider, true); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSubmitReport(t *testing.T) {
	engine, state, _ := newTestEngine()
	vault := createFundedVault(t, engine, state, 10_000)

	report := submitTestReport(t, engine, vault.Address, SeverityHigh)
	if report.Status != ReportPending {
		t.Fatalf("status = %s, want pending", report.Status)
	}
	if report.PayoutAmount != 500 {
		t.Fatalf("payout = %d, want 500", report.PayoutAmount)
	}
	if report.Sequence != 0 {
		t.Fatalf("sequence = %d, want 0", report.Sequence)
	}
	if report.Address != ReportAddress(vault.Address, testResearcher, 0) {
		t.Fatal("report address must derive from (vault, researcher, sequence)")
	}
	stored, _, _ := state.BountyVaultGet(vault.Address)
	if stored.TotalReports != 1 {
		t.Fatalf("TotalReports = %d, want 1", stored.TotalReports)
	}

	second := submitTestReport(t, engine, vault.Address, SeverityLow)
	if second.Sequence != 1 {
		t.Fatalf("second sequence = %d, want 1", second.Sequence)
	}
	pending, _ := state.BountyPendingReports(vault.Address)
	if pending != 2 {
		t.Fatalf("pending = %d, want 2", pending)
	}
}

func TestSubmitReportPreconditions(t *testing.T) {
	engine, state, _ := newTestEngine()
	vault := createFundedVault(t, engine, state, 0)

	if _, err := engine.SubmitReport(vault.Address, testResearcher, SeverityLow, ContentRef{}); !errors.Is(err, ErrEmptyContentReference) {
		t.Fatalf("expected ErrEmptyContentReference, got %v", err)
	}
	if _, err := engine.ToggleVaultStatus(vault.Address, testOwner); err != nil {
		t.Fatalf("ToggleVaultStatus: %v", err)
	}
	if _, err := engine.SubmitReport(vault.Address, testResearcher, SeverityLow, newTestContentRef(0x01)); !errors.Is(err, ErrVaultInactive) {
		t.Fatalf("expected ErrVaultInactive, got %v", err)
	}
	if _, err := engine.SubmitReport(newTestIdentity(0xFF), testResearcher, SeverityLow, newTestContentRef(0x01)); !errors.Is(err, ErrVaultNotFound) {
		t.Fatalf("expected ErrVaultNotFound, got %v", err)
	}
}

func TestApproveReport(t *testing.T) {
	engine, state, _ := newTestEngine()
	vault := createFundedVault(t, engine, state, 10_000)
	report := submitTestReport(t, engine, vault.Address, SeverityMedium)

	if err := engine.ApproveReport(report.Address, testGovernance, "verified against testnet"); err != nil {
		t.Fatalf("ApproveReport: %v", err)
	}
	stored, _, _ := state.BountyReportGet(report.Address)
	if stored.Status != ReportApproved {
		t.Fatalf("status = %s, want approved", stored.Status)
	}
	if stored.Approver != testGovernance {
		t.Fatal("approver must record the governance caller")
	}
	if stored.ApprovedAt == 0 {
		t.Fatal("ApprovedAt must be set")
	}
	if stored.DecisionReason != "verified against testnet" {
		t.Fatalf("reason = %q", stored.DecisionReason)
	}
	storedVault, _, _ := state.BountyVaultGet(vault.Address)
	if storedVault.ApprovedReports != 1 {
		t.Fatalf("ApprovedReports = %d, want 1", storedVault.ApprovedReports)
	}
	pending, _ := state.BountyPendingReports(vault.Address)
	if pending != 0 {
		t.Fatalf("pending = %d, want 0", pending)
	}
}

func TestApproveRejectAuthorization(t *testing.T) {
	engine, state, _ := newTestEngine()
	vault := createFundedVault(t, engine, state, 10_000)
	report := submitTestReport(t, engine, vault.Address, SeverityMedium)

	for _, caller := range []crypto.Identity{testOwner, testResearcher, testOutsider} {
		if err := engine.ApproveReport(report.Address, caller, ""); !errors.Is(err, ErrUnauthorizedGovernance) {
			t.Fatalf("approve by %s: expected ErrUnauthorizedGovernance, got %v", caller, err)
		}
		if err := engine.RejectReport(report.Address, caller, "no"); !errors.Is(err, ErrUnauthorizedGovernance) {
			t.Fatalf("reject by %s: expected ErrUnauthorizedGovernance, got %v", caller, err)
		}
	}
}

func TestReportDecisionIsFinal(t *testing.T) {
	engine, state, _ := newTestEngine()
	vault := createFundedVault(t, engine, state, 10_000)

	approved := submitTestReport(t, engine, vault.Address, SeverityLow)
	if err := engine.ApproveReport(approved.Address, testGovernance, ""); err != nil {
		t.Fatalf("ApproveReport: %v", err)
	}
	if err := engine.ApproveReport(approved.Address, testGovernance, ""); !errors.Is(err, ErrInvalidReportStatus) {
		t.Fatalf("double approve: got %v", err)
	}
	if err := engine.RejectReport(approved.Address, testGovernance, ""); !errors.Is(err, ErrInvalidReportStatus) {
		t.Fatalf("reject after approve: got %v", err)
	}

	rejected := submitTestReport(t, engine, vault.Address, SeverityLow)
	if err := engine.RejectReport(rejected.Address, testGovernance, "not reproducible"); err != nil {
		t.Fatalf("RejectReport: %v", err)
	}
	if err := engine.RejectReport(rejected.Address, testGovernance, ""); !errors.Is(err, ErrInvalidReportStatus) {
		t.Fatalf("double reject: got %v", err)
	}
	if err := engine.ApproveReport(rejected.Address, testGovernance, ""); !errors.Is(err, ErrInvalidReportStatus) {
		t.Fatalf("approve after reject: got %v", err)
	}

	// Rejection leaves the submission counter untouched.
	storedVault, _, _ := state.BountyVaultGet(vault.Address)
	if storedVault.TotalReports != 2 || storedVault.ApprovedReports != 1 {
		t.Fatalf("counters total=%d approved=%d, want 2/1", storedVault.TotalReports, storedVault.ApprovedReports)
	}
}

func TestExecutePayout(t *testing.T) {
	engine, state, _ := newTestEngine()
	vault := createFundedVault(t, engine, state, 10_000)
	report := submitTestReport(t, engine, vault.Address, SeverityCritical)
	if err := engine.ApproveReport(report.Address, testGovernance, ""); err != nil {
		t.Fatalf("ApproveReport: %v", err)
	}

	if err := engine.ExecutePayout(report.Address, testResearcher); err != nil {
		t.Fatalf("ExecutePayout: %v", err)
	}
	stored, _, _ := state.BountyReportGet(report.Address)
	if stored.Status != ReportPaid || stored.PaidAt == 0 {
		t.Fatalf("report not marked paid: %+v", stored)
	}
	storedVault, _, _ := state.BountyVaultGet(vault.Address)
	if storedVault.TotalPaidOut != 1_000 {
		t.Fatalf("TotalPaidOut = %d, want 1000", storedVault.TotalPaidOut)
	}
	if storedVault.TotalPaidOut > storedVault.TotalFunded {
		t.Fatal("paid out exceeds funded")
	}
	balance, _ := state.AccountBalance(testResearcher, NativeAsset())
	if balance != 1_000 {
		t.Fatalf("researcher balance = %d, want 1000", balance)
	}

	// Second execution must fail: approved -> paid already happened.
	if err := engine.ExecutePayout(report.Address, testResearcher); !errors.Is(err, ErrInvalidReportStatus) {
		t.Fatalf("double payout: got %v", err)
	}
	balance, _ = state.AccountBalance(testResearcher, NativeAsset())
	if balance != 1_000 {
		t.Fatalf("double payout moved funds: balance = %d", balance)
	}
}

func TestExecutePayoutPreconditions(t *testing.T) {
	engine, state, _ := newTestEngine()
	vault := createFundedVault(t, engine, state, 10_000)
	report := submitTestReport(t, engine, vault.Address, SeverityCritical)

	if err := engine.ExecutePayout(report.Address, testResearcher); !errors.Is(err, ErrInvalidReportStatus) {
		t.Fatalf("payout before approval: got %v", err)
	}
	if err := engine.ApproveReport(report.Address, testGovernance, ""); err != nil {
		t.Fatalf("ApproveReport: %v", err)
	}
	for _, caller := range []crypto.Identity{testOwner, testGovernance, testOutsider} {
		if err := engine.ExecutePayout(report.Address, caller); !errors.Is(err, ErrUnauthorizedResearcher) {
			t.Fatalf("payout by %s: expected ErrUnauthorizedResearcher, got %v", caller, err)
		}
	}
}

func TestMintReputation(t *testing.T) {
	engine, state, _ := newTestEngine()
	vault := createFundedVault(t, engine, state, 10_000)
	report := submitTestReport(t, engine, vault.Address, SeverityHigh)
	if err := engine.ApproveReport(report.Address, testGovernance, ""); err != nil {
		t.Fatalf("ApproveReport: %v", err)
	}

	if _, err := engine.MintReputation(report.Address, testResearcher, "orbit protocol"); !errors.Is(err, ErrInvalidReportStatus) {
		t.Fatalf("mint before payout: got %v", err)
	}
	if err := engine.ExecutePayout(report.Address, testResearcher); err != nil {
		t.Fatalf("ExecutePayout: %v", err)
	}
	if _, err := engine.MintReputation(report.Address, testOutsider, "orbit protocol"); !errors.Is(err, ErrUnauthorizedResearcher) {
		t.Fatalf("mint by outsider: got %v", err)
	}

	badge, err := engine.MintReputation(report.Address, testResearcher, "orbit protocol")
	if err != nil {
		t.Fatalf("MintReputation: %v", err)
	}
	if badge.Address != BadgeAddress(testResearcher, report.Address) {
		t.Fatal("badge address must derive from (researcher, report)")
	}
	if badge.Severity != SeverityHigh || badge.ProjectLabel != "orbit protocol" {
		t.Fatalf("unexpected badge: %+v", badge)
	}
	if badge.MintedAt == 0 {
		t.Fatal("MintedAt must be set")
	}
	if _, err := engine.MintReputation(report.Address, testResearcher, "orbit protocol"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("double mint: got %v", err)
	}
	if _, ok, _ := state.BountyBadgeGet(badge.Address); !ok {
		t.Fatal("badge not persisted")
	}
}

// Scenario A from the acceptance list: create, submit critical, approve, pay,
// mint once.
func TestScenarioCriticalReportLifecycle(t *testing.T) {
	engine, state, emitter := newTestEngine()
	vault := createFundedVault(t, engine, state, 10_000)
	report := submitTestReport(t, engine, vault.Address, SeverityCritical)

	if err := engine.ApproveReport(report.Address, testGovernance, "confirmed exploit"); err != nil {
		t.Fatalf("ApproveReport: %v", err)
	}
	if err := engine.ExecutePayout(report.Address, testResearcher); err != nil {
		t.Fatalf("ExecutePayout: %v", err)
	}
	storedVault, _, _ := state.BountyVaultGet(vault.Address)
	if storedVault.TotalPaidOut != 1_000 {
		t.Fatalf("TotalPaidOut = %d, want 1000", storedVault.TotalPaidOut)
	}
	storedReport, _, _ := state.BountyReportGet(report.Address)
	if storedReport.Status != ReportPaid {
		t.Fatalf("status = %s, want paid", storedReport.Status)
	}
	if _, err := engine.MintReputation(report.Address, testResearcher, "acme bridge"); err != nil {
		t.Fatalf("MintReputation: %v", err)
	}
	if _, err := engine.MintReputation(report.Address, testResearcher, "acme bridge"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("second mint: got %v", err)
	}

	wantEvents := []string{
		EventTypeVaultCreated,
		EventTypeReportSubmitted,
		EventTypeReportApproved,
		EventTypeReportPaid,
		EventTypeReputationMinted,
	}
	got := emitter.Events()
	if len(got) != len(wantEvents) {
		t.Fatalf("emitted %d events, want %d", len(got), len(wantEvents))
	}
	for i, evt := range got {
		if evt.EventType() != wantEvents[i] {
			t.Fatalf("event[%d] = %s, want %s", i, evt.EventType(), wantEvents[i])
		}
	}
}

// Scenario B: an unfunded vault approves a report but cannot pay it.
func TestScenarioUnfundedVaultCannotPay(t *testing.T) {
	engine, state, _ := newTestEngine()
	vault := createFundedVault(t, engine, state, 0)
	report := submitTestReport(t, engine, vault.Address, SeverityLow)
	if err := engine.ApproveReport(report.Address, testGovernance, ""); err != nil {
		t.Fatalf("ApproveReport: %v", err)
	}
	if err := engine.ExecutePayout(report.Address, testResearcher); !errors.Is(err, ErrInsufficientVaultBalance) {
		t.Fatalf("expected ErrInsufficientVaultBalance, got %v", err)
	}
	stored, _, _ := state.BountyReportGet(report.Address)
	if stored.Status != ReportApproved {
		t.Fatalf("failed payout must leave status approved, got %s", stored.Status)
	}
}

// Scenario C: rejection is terminal.
func TestScenarioRejectionIsTerminal(t *testing.T) {
	engine, state, _ := newTestEngine()
	vault := createFundedVault(t, engine, state, 10_000)
	report := submitTestReport(t, engine, vault.Address, SeverityMedium)

	if err := engine.RejectReport(report.Address, testGovernance, "insufficient evidence"); err != nil {
		t.Fatalf("RejectReport: %v", err)
	}
	stored, _, _ := state.BountyReportGet(report.Address)
	if stored.DecisionReason != "insufficient evidence" {
		t.Fatalf("reason = %q", stored.DecisionReason)
	}
	if err := engine.ApproveReport(report.Address, testGovernance, ""); !errors.Is(err, ErrInvalidReportStatus) {
		t.Fatalf("approve after reject: got %v", err)
	}
}

func TestFundVaultOverflow(t *testing.T) {
	engine, state, _ := newTestEngine()
	vault := createFundedVault(t, engine, state, 1)
	state.fund(testOwner, NativeAsset(), ^uint64(0))
	if err := engine.FundVault(vault.Address, testOwner, ^uint64(0)); !errors.Is(err, ErrAmountOverflow) {
		t.Fatalf("expected ErrAmountOverflow, got %v", err)
	}
}
