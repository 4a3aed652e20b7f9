package vesting

import (
	"time"

	"github.com/furlabs/stabilitypool/crypto"
	"github.com/furlabs/stabilitypool/native/tokens"
)

// Registry is the vesting-registry factory: it deploys LockupContracts and
// records every address it deployed, so the LOAN ledger can authenticate
// which destinations the admin-lockout exemption applies to. There is no
// de-registration — once deployed, a lock's authenticity never lapses.
type Registry struct {
	self      crypto.Address
	loanToken *tokens.LOANToken
	deployed  map[string]*LockupContract
}

// NewRegistry constructs a registry that registers the lock addresses it is
// given with loanToken. The registry's own address must match whatever address was
// passed to loanToken.SetVestingFactory, or DeployLockupContract's call to
// RegisterLockContract will fail authorization.
func NewRegistry(self crypto.Address, loanToken *tokens.LOANToken) *Registry {
	return &Registry{self: self, loanToken: loanToken, deployed: make(map[string]*LockupContract)}
}

// DeployLockupContract creates a new lock for beneficiary unlocking at
// unlockTime, addressed at lockAddr, and records it as an authentic lock in
// the LOAN ledger's allow-list.
func (r *Registry) DeployLockupContract(lockAddr, beneficiary crypto.Address, unlockTime time.Time) (*LockupContract, error) {
	lock := &LockupContract{
		address:     lockAddr,
		beneficiary: beneficiary,
		unlockTime:  unlockTime,
		loanToken:   r.loanToken,
	}
	if err := r.loanToken.RegisterLockContract(r.self, lockAddr); err != nil {
		return nil, err
	}
	r.deployed[lockAddr.String()] = lock
	return lock, nil
}

// IsRegistered reports whether addr is a lock this registry deployed.
func (r *Registry) IsRegistered(addr crypto.Address) bool {
	_, ok := r.deployed[addr.String()]
	return ok
}

// Lookup returns the lock deployed at addr, if any.
func (r *Registry) Lookup(addr crypto.Address) (*LockupContract, bool) {
	lock, ok := r.deployed[addr.String()]
	return lock, ok
}
