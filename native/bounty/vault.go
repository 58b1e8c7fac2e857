package bounty

import (
	"fmt"

	"bountyvault/crypto"
)

// CreateVault initialises a vault at the address derived from owner, escrows
// the initial funding, and activates the vault. One vault per owner identity:
// creation fails if the derived address is already occupied.
func (e *Engine) CreateVault(owner, governance crypto.Identity, tiers RewardTiers, initialFunding uint64, asset Asset) (*Vault, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if owner.IsZero() {
		return nil, fmt.Errorf("bounty: owner identity required")
	}
	if governance.IsZero() {
		return nil, fmt.Errorf("bounty: governance authority required")
	}
	if !asset.Valid() {
		return nil, fmt.Errorf("bounty: invalid reward asset")
	}
	addr := VaultAddress(owner)
	if _, ok, err := e.state.BountyVaultGet(addr); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyExists
	}
	if initialFunding > 0 {
		if err := e.state.AccountDebit(owner, asset, initialFunding); err != nil {
			return nil, err
		}
		if err := e.state.EscrowCredit(addr, asset, initialFunding); err != nil {
			return nil, err
		}
	}
	vault := &Vault{
		Address:     addr,
		ProgramTeam: owner,
		Governance:  governance,
		Tiers:       tiers,
		TotalFunded: initialFunding,
		RewardAsset: asset,
		Active:      true,
		CreatedAt:   e.now(),
	}
	if err := e.state.BountyVaultPut(vault); err != nil {
		return nil, err
	}
	e.emit(NewVaultCreatedEvent(vault))
	return vault.Clone(), nil
}

// FundVault moves amount from the owner's account into vault escrow. Only the
// program team may fund, and only while the vault is active.
func (e *Engine) FundVault(vaultAddr, caller crypto.Identity, amount uint64) error {
	vault, err := e.loadVault(vaultAddr)
	if err != nil {
		return err
	}
	if err := requireOwner(vault, caller); err != nil {
		return err
	}
	if !vault.Active {
		return ErrVaultInactive
	}
	if amount == 0 {
		return fmt.Errorf("bounty: funding amount must be positive")
	}
	funded, err := addAmount(vault.TotalFunded, amount)
	if err != nil {
		return err
	}
	if err := e.state.AccountDebit(caller, vault.RewardAsset, amount); err != nil {
		return err
	}
	if err := e.state.EscrowCredit(vault.Address, vault.RewardAsset, amount); err != nil {
		return err
	}
	vault.TotalFunded = funded
	if err := e.state.BountyVaultPut(vault); err != nil {
		return err
	}
	e.emit(NewVaultFundedEvent(vault))
	return nil
}

// ToggleVaultStatus flips the vault's active flag. Owner-only; no other
// precondition.
func (e *Engine) ToggleVaultStatus(vaultAddr, caller crypto.Identity) (bool, error) {
	vault, err := e.loadVault(vaultAddr)
	if err != nil {
		return false, err
	}
	if err := requireOwner(vault, caller); err != nil {
		return false, err
	}
	vault.Active = !vault.Active
	if err := e.state.BountyVaultPut(vault); err != nil {
		return false, err
	}
	e.emit(NewVaultToggledEvent(vault))
	return vault.Active, nil
}

// UpdateRewardTiers overwrites the four tier amounts. Already-submitted
// reports keep their snapshotted payout.
func (e *Engine) UpdateRewardTiers(vaultAddr, caller crypto.Identity, tiers RewardTiers) error {
	vault, err := e.loadVault(vaultAddr)
	if err != nil {
		return err
	}
	if err := requireOwner(vault, caller); err != nil {
		return err
	}
	vault.Tiers = tiers
	if err := e.state.BountyVaultPut(vault); err != nil {
		return err
	}
	e.emit(NewRewardTiersUpdatedEvent(vault))
	return nil
}

// DeleteVault returns the remaining escrow to the owner and closes the vault
// account. The vault must already be inactive, and unless force is set there
// must be no pending reports. The derived address becomes available again: a
// later create by the same owner starts fresh.
func (e *Engine) DeleteVault(vaultAddr, caller crypto.Identity, force bool) error {
	vault, err := e.loadVault(vaultAddr)
	if err != nil {
		return err
	}
	if err := requireOwner(vault, caller); err != nil {
		return err
	}
	if vault.Active {
		return ErrVaultMustBeInactive
	}
	if !force {
		pending, err := e.state.BountyPendingReports(vault.Address)
		if err != nil {
			return err
		}
		if pending > 0 {
			return ErrPendingReportsExist
		}
	}
	remaining := vault.EscrowBalance()
	if remaining > 0 {
		if err := e.state.EscrowDebit(vault.Address, vault.RewardAsset, remaining); err != nil {
			return err
		}
		if err := e.state.AccountCredit(vault.ProgramTeam, vault.RewardAsset, remaining); err != nil {
			return err
		}
	}
	if err := e.state.BountyVaultDelete(vault.Address); err != nil {
		return err
	}
	e.emit(NewVaultDeletedEvent(vault, remaining))
	return nil
}
