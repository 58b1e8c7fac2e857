package bounty

import "bountyvault/crypto"

// The authorization guard is the first step of every mutating operation. It
// has no side effects: each check compares the authenticated caller against
// the single identity the target entity names for the required role.

func requireOwner(v *Vault, caller crypto.Identity) error {
	if v == nil || v.ProgramTeam != caller {
		return ErrUnauthorized
	}
	return nil
}

func requireGovernance(v *Vault, caller crypto.Identity) error {
	if v == nil || v.Governance != caller {
		return ErrUnauthorizedGovernance
	}
	return nil
}

func requireResearcher(r *Report, caller crypto.Identity) error {
	if r == nil || r.Researcher != caller {
		return ErrUnauthorizedResearcher
	}
	return nil
}
