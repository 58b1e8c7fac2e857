package rpc

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bountyvault/contentref"
	"bountyvault/core/state"
	"bountyvault/crypto"
	"bountyvault/native/bounty"
)

type tiersParam struct {
	Critical string `json:"critical"`
	High     string `json:"high"`
	Medium   string `json:"medium"`
	Low      string `json:"low"`
}

type assetParam struct {
	Kind string `json:"kind"`
	Mint string `json:"mint,omitempty"`
}

type createVaultParams struct {
	Caller         string      `json:"caller"`
	Governance     string      `json:"governance"`
	Tiers          tiersParam  `json:"tiers"`
	InitialFunding string      `json:"initialFunding"`
	Asset          *assetParam `json:"asset,omitempty"`
}

type fundVaultParams struct {
	Vault  string `json:"vault"`
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

type vaultActorParams struct {
	Vault  string `json:"vault"`
	Caller string `json:"caller"`
}

type updateTiersParams struct {
	Vault  string     `json:"vault"`
	Caller string     `json:"caller"`
	Tiers  tiersParam `json:"tiers"`
}

type deleteVaultParams struct {
	Vault  string `json:"vault"`
	Caller string `json:"caller"`
	Force  bool   `json:"force,omitempty"`
}

type submitReportParams struct {
	Vault      string `json:"vault"`
	Researcher string `json:"researcher"`
	Severity   string `json:"severity"`
	ContentRef string `json:"contentRef"`
}

type reportDecisionParams struct {
	Report string `json:"report"`
	Caller string `json:"caller"`
	Reason string `json:"reason,omitempty"`
}

type reportActorParams struct {
	Report string `json:"report"`
	Caller string `json:"caller"`
}

type mintReputationParams struct {
	Report       string `json:"report"`
	Caller       string `json:"caller"`
	ProjectLabel string `json:"projectLabel"`
}

type addressParams struct {
	Address string `json:"address"`
}

type registerContentParams struct {
	Identifier string `json:"identifier"`
}

type resolveContentParams struct {
	Reference string `json:"reference"`
}

type vaultJSON struct {
	Address         string    `json:"address"`
	ProgramTeam     string    `json:"programTeam"`
	Governance      string    `json:"governance"`
	Tiers           tiersJSON `json:"tiers"`
	TotalFunded     string    `json:"totalFunded"`
	TotalPaidOut    string    `json:"totalPaidOut"`
	EscrowBalance   string    `json:"escrowBalance"`
	TotalReports    uint64    `json:"totalReports"`
	ApprovedReports uint64    `json:"approvedReports"`
	PendingReports  uint64    `json:"pendingReports"`
	RewardAsset     assetJSON `json:"rewardAsset"`
	Active          bool      `json:"active"`
	CreatedAt       int64     `json:"createdAt"`
}

type tiersJSON struct {
	Critical string `json:"critical"`
	High     string `json:"high"`
	Medium   string `json:"medium"`
	Low      string `json:"low"`
}

type assetJSON struct {
	Kind string `json:"kind"`
	Mint string `json:"mint,omitempty"`
}

type reportJSON struct {
	Address        string `json:"address"`
	Vault          string `json:"vault"`
	Researcher     string `json:"researcher"`
	Severity       string `json:"severity"`
	Status         string `json:"status"`
	ContentRef     string `json:"contentRef"`
	Sequence       uint64 `json:"sequence"`
	SubmittedAt    int64  `json:"submittedAt"`
	ApprovedAt     int64  `json:"approvedAt,omitempty"`
	PaidAt         int64  `json:"paidAt,omitempty"`
	Approver       string `json:"approver,omitempty"`
	DecisionReason string `json:"decisionReason,omitempty"`
	PayoutAmount   string `json:"payoutAmount"`
}

type badgeJSON struct {
	Address      string `json:"address"`
	Researcher   string `json:"researcher"`
	Vault        string `json:"vault"`
	Report       string `json:"report"`
	Severity     string `json:"severity"`
	ProjectLabel string `json:"projectLabel"`
	MintedAt     int64  `json:"mintedAt"`
}

type toggleResult struct {
	Active bool `json:"active"`
}

type referenceResult struct {
	Reference string `json:"reference"`
}

type identifierResult struct {
	Identifier string `json:"identifier"`
}

func formatVaultJSON(v *bounty.Vault, pending uint64) vaultJSON {
	out := vaultJSON{
		Address:     v.Address.String(),
		ProgramTeam: v.ProgramTeam.String(),
		Governance:  v.Governance.String(),
		Tiers: tiersJSON{
			Critical: strconv.FormatUint(v.Tiers.Critical, 10),
			High:     strconv.FormatUint(v.Tiers.High, 10),
			Medium:   strconv.FormatUint(v.Tiers.Medium, 10),
			Low:      strconv.FormatUint(v.Tiers.Low, 10),
		},
		TotalFunded:     strconv.FormatUint(v.TotalFunded, 10),
		TotalPaidOut:    strconv.FormatUint(v.TotalPaidOut, 10),
		EscrowBalance:   strconv.FormatUint(v.EscrowBalance(), 10),
		TotalReports:    v.TotalReports,
		ApprovedReports: v.ApprovedReports,
		PendingReports:  pending,
		RewardAsset:     assetJSON{Kind: "native"},
		Active:          v.Active,
		CreatedAt:       v.CreatedAt,
	}
	if v.RewardAsset.Kind == bounty.AssetToken {
		out.RewardAsset.Kind = "token"
		out.RewardAsset.Mint = v.RewardAsset.Mint.String()
	}
	return out
}

func formatReportJSON(r *bounty.Report) reportJSON {
	out := reportJSON{
		Address:        r.Address.String(),
		Vault:          r.Vault.String(),
		Researcher:     r.Researcher.String(),
		Severity:       r.Severity.String(),
		Status:         r.Status.String(),
		ContentRef:     contentref.Reference(r.ContentRef).String(),
		Sequence:       r.Sequence,
		SubmittedAt:    r.SubmittedAt,
		ApprovedAt:     r.ApprovedAt,
		PaidAt:         r.PaidAt,
		DecisionReason: r.DecisionReason,
		PayoutAmount:   strconv.FormatUint(r.PayoutAmount, 10),
	}
	if !r.Approver.IsZero() {
		out.Approver = r.Approver.String()
	}
	return out
}

func formatBadgeJSON(b *bounty.ReputationBadge) badgeJSON {
	return badgeJSON{
		Address:      b.Address.String(),
		Researcher:   b.Researcher.String(),
		Vault:        b.Vault.String(),
		Report:       b.Report.String(),
		Severity:     b.Severity.String(),
		ProjectLabel: b.ProjectLabel,
		MintedAt:     b.MintedAt,
	}
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return errors.New("exactly one parameter object expected")
	}
	return json.Unmarshal(req.Params[0], out)
}

func parseAmount(raw string) (uint64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, errors.New("amount required")
	}
	amount, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0, errors.New("amount must be an unsigned decimal integer")
	}
	return amount, nil
}

func parseTiers(p tiersParam) (bounty.RewardTiers, error) {
	var tiers bounty.RewardTiers
	var err error
	if tiers.Critical, err = parseAmount(p.Critical); err != nil {
		return tiers, errors.New("tiers.critical: " + err.Error())
	}
	if tiers.High, err = parseAmount(p.High); err != nil {
		return tiers, errors.New("tiers.high: " + err.Error())
	}
	if tiers.Medium, err = parseAmount(p.Medium); err != nil {
		return tiers, errors.New("tiers.medium: " + err.Error())
	}
	if tiers.Low, err = parseAmount(p.Low); err != nil {
		return tiers, errors.New("tiers.low: " + err.Error())
	}
	return tiers, nil
}

func parseAsset(p *assetParam) (bounty.Asset, error) {
	if p == nil {
		return bounty.NativeAsset(), nil
	}
	switch strings.ToLower(strings.TrimSpace(p.Kind)) {
	case "", "native":
		return bounty.NativeAsset(), nil
	case "token":
		mint, err := crypto.ParseIdentity(p.Mint)
		if err != nil {
			return bounty.Asset{}, errors.New("asset.mint: " + err.Error())
		}
		return bounty.TokenAsset(mint)
	default:
		return bounty.Asset{}, errors.New("asset.kind must be native or token")
	}
}

func parseContentRef(raw string) (bounty.ContentRef, error) {
	ref, err := contentref.ParseReference(raw)
	if err != nil {
		return bounty.ContentRef{}, err
	}
	return bounty.ContentRef(ref), nil
}

func (s *Server) handleCreateVault(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params createVaultParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := crypto.ParseIdentity(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", "caller: "+err.Error())
		return
	}
	governance, err := crypto.ParseIdentity(params.Governance)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", "governance: "+err.Error())
		return
	}
	tiers, err := parseTiers(params.Tiers)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", err.Error())
		return
	}
	funding, err := parseAmount(params.InitialFunding)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", "initialFunding: "+err.Error())
		return
	}
	asset, err := parseAsset(params.Asset)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", err.Error())
		return
	}
	vault, err := s.engine.CreateVault(caller, governance, tiers, funding, asset)
	if err != nil {
		writeBountyError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatVaultJSON(vault, 0))
}

func (s *Server) handleFundVault(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params fundVaultParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", err.Error())
		return
	}
	vaultAddr, caller, err := parseVaultCaller(params.Vault, params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", "amount: "+err.Error())
		return
	}
	if amount == 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", "amount must be > 0")
		return
	}
	if err := s.engine.FundVault(vaultAddr, caller, amount); err != nil {
		writeBountyError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, "ok")
}

func (s *Server) handleToggleVaultStatus(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params vaultActorParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", err.Error())
		return
	}
	vaultAddr, caller, err := parseVaultCaller(params.Vault, params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", err.Error())
		return
	}
	active, err := s.engine.ToggleVaultStatus(vaultAddr, caller)
	if err != nil {
		writeBountyError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, toggleResult{Active: active})
}

func (s *Server) handleUpdateRewardTiers(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params updateTiersParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", err.Error())
		return
	}
	vaultAddr, caller, err := parseVaultCaller(params.Vault, params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", err.Error())
		return
	}
	tiers, err := parseTiers(params.Tiers)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.engine.UpdateRewardTiers(vaultAddr, caller, tiers); err != nil {
		writeBountyError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, "ok")
}

func (s *Server) handleDeleteVault(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params deleteVaultParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", err.Error())
		return
	}
	vaultAddr, caller, err := parseVaultCaller(params.Vault, params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.engine.DeleteVault(vaultAddr, caller, params.Force); err != nil {
		writeBountyError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, "ok")
}

func (s *Server) handleSubmitReport(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params submitReportParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", err.Error())
		return
	}
	vaultAddr, err := crypto.ParseIdentity(params.Vault)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", "vault: "+err.Error())
		return
	}
	researcher, err := crypto.ParseIdentity(params.Researcher)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", "researcher: "+err.Error())
		return
	}
	severity, err := bounty.ParseSeverity(params.Severity)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", err.Error())
		return
	}
	contentRef, err := parseContentRef(params.ContentRef)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", "contentRef: "+err.Error())
		return
	}
	report, err := s.engine.SubmitReport(vaultAddr, researcher, severity, contentRef)
	if err != nil {
		writeBountyError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatReportJSON(report))
}

func (s *Server) handleApproveReport(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	s.handleReportDecision(w, r, req, s.engine.ApproveReport)
}

func (s *Server) handleRejectReport(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	s.handleReportDecision(w, r, req, s.engine.RejectReport)
}

func (s *Server) handleReportDecision(w http.ResponseWriter, _ *http.Request, req *RPCRequest, fn func(crypto.Identity, crypto.Identity, string) error) {
	var params reportDecisionParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", err.Error())
		return
	}
	reportAddr, caller, err := parseReportCaller(params.Report, params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := fn(reportAddr, caller, strings.TrimSpace(params.Reason)); err != nil {
		writeBountyError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, "ok")
}

func (s *Server) handleExecutePayout(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params reportActorParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", err.Error())
		return
	}
	reportAddr, caller, err := parseReportCaller(params.Report, params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.engine.ExecutePayout(reportAddr, caller); err != nil {
		writeBountyError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, "ok")
}

func (s *Server) handleMintReputation(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params mintReputationParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", err.Error())
		return
	}
	reportAddr, caller, err := parseReportCaller(params.Report, params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", err.Error())
		return
	}
	badge, err := s.engine.MintReputation(reportAddr, caller, params.ProjectLabel)
	if err != nil {
		writeBountyError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatBadgeJSON(badge))
}

func (s *Server) handleGetVault(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	addr, ok := s.parseAddressParam(w, req)
	if !ok {
		return
	}
	vault, found, err := s.engine.Vault(addr)
	if err != nil {
		writeBountyError(w, req.ID, err)
		return
	}
	if !found {
		writeBountyError(w, req.ID, bounty.ErrVaultNotFound)
		return
	}
	pending, err := s.engine.PendingReports(addr)
	if err != nil {
		writeBountyError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatVaultJSON(vault, pending))
}

func (s *Server) handleGetReport(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	addr, ok := s.parseAddressParam(w, req)
	if !ok {
		return
	}
	report, found, err := s.engine.Report(addr)
	if err != nil {
		writeBountyError(w, req.ID, err)
		return
	}
	if !found {
		writeBountyError(w, req.ID, bounty.ErrReportNotFound)
		return
	}
	writeResult(w, req.ID, formatReportJSON(report))
}

func (s *Server) handleGetBadge(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	addr, ok := s.parseAddressParam(w, req)
	if !ok {
		return
	}
	badge, found, err := s.engine.Badge(addr)
	if err != nil {
		writeBountyError(w, req.ID, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, req.ID, codeBountyNotFound, "not_found", "badge not found")
		return
	}
	writeResult(w, req.ID, formatBadgeJSON(badge))
}

func (s *Server) handleRegisterContent(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params registerContentParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", err.Error())
		return
	}
	ref, err := s.registry.Register(params.Identifier)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", err.Error())
		return
	}
	writeResult(w, req.ID, referenceResult{Reference: ref.String()})
}

func (s *Server) handleResolveContent(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params resolveContentParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", err.Error())
		return
	}
	ref, err := contentref.ParseReference(params.Reference)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", err.Error())
		return
	}
	identifier, found := s.registry.Resolve(ref)
	if !found {
		writeError(w, http.StatusNotFound, req.ID, codeBountyNotFound, "not_found", "content reference not registered")
		return
	}
	writeResult(w, req.ID, identifierResult{Identifier: identifier})
}

func (s *Server) parseAddressParam(w http.ResponseWriter, req *RPCRequest) (crypto.Identity, bool) {
	var params addressParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", err.Error())
		return crypto.Identity{}, false
	}
	addr, err := crypto.ParseIdentity(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeBountyInvalidParams, "invalid_params", "address: "+err.Error())
		return crypto.Identity{}, false
	}
	return addr, true
}

func parseVaultCaller(vault, caller string) (crypto.Identity, crypto.Identity, error) {
	vaultAddr, err := crypto.ParseIdentity(vault)
	if err != nil {
		return crypto.Identity{}, crypto.Identity{}, errors.New("vault: " + err.Error())
	}
	callerAddr, err := crypto.ParseIdentity(caller)
	if err != nil {
		return crypto.Identity{}, crypto.Identity{}, errors.New("caller: " + err.Error())
	}
	return vaultAddr, callerAddr, nil
}

func parseReportCaller(report, caller string) (crypto.Identity, crypto.Identity, error) {
	reportAddr, err := crypto.ParseIdentity(report)
	if err != nil {
		return crypto.Identity{}, crypto.Identity{}, errors.New("report: " + err.Error())
	}
	callerAddr, err := crypto.ParseIdentity(caller)
	if err != nil {
		return crypto.Identity{}, crypto.Identity{}, errors.New("caller: " + err.Error())
	}
	return reportAddr, callerAddr, nil
}

func writeBountyError(w http.ResponseWriter, id interface{}, err error) {
	if err == nil {
		return
	}
	status := http.StatusInternalServerError
	code := codeBountyInternal
	message := "internal_error"
	switch {
	case errors.Is(err, bounty.ErrVaultNotFound) || errors.Is(err, bounty.ErrReportNotFound):
		status = http.StatusNotFound
		code = codeBountyNotFound
		message = "not_found"
	case errors.Is(err, bounty.ErrUnauthorized) ||
		errors.Is(err, bounty.ErrUnauthorizedGovernance) ||
		errors.Is(err, bounty.ErrUnauthorizedResearcher):
		status = http.StatusForbidden
		code = codeBountyForbidden
		message = "forbidden"
	case errors.Is(err, bounty.ErrVaultInactive) ||
		errors.Is(err, bounty.ErrVaultMustBeInactive) ||
		errors.Is(err, bounty.ErrPendingReportsExist) ||
		errors.Is(err, bounty.ErrInvalidReportStatus) ||
		errors.Is(err, bounty.ErrInsufficientVaultBalance) ||
		errors.Is(err, bounty.ErrAlreadyExists) ||
		errors.Is(err, bounty.ErrAmountOverflow) ||
		errors.Is(err, state.ErrInsufficientFunds) ||
		errors.Is(err, state.ErrInsufficientEscrow):
		status = http.StatusConflict
		code = codeBountyConflict
		message = "conflict"
	case errors.Is(err, bounty.ErrEmptyContentReference):
		status = http.StatusBadRequest
		code = codeBountyInvalidParams
		message = "invalid_params"
	}
	writeError(w, status, id, code, message, err.Error())
}
