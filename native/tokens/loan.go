package tokens

import (
	"math/big"
	"time"

	tokenerrors "github.com/furlabs/stabilitypool/core/errors"
	"github.com/furlabs/stabilitypool/crypto"
)

// adminLockDuration is the window, starting at deployment, during which the
// designated admin account's transfers are restricted to registered lock
// contracts. It mirrors Liquity's one-year LQTY transfer lockout.
const adminLockDuration = 365 * 24 * time.Hour

// LOANToken is the incentive token distributed by community issuance. Unlike
// FURUSD it carries one additional restriction: during the first year after
// deployment, the designated admin account may only send LOAN to a
// registered vesting lock contract, never to an arbitrary address.
type LOANToken struct {
	bal balances

	admin          crypto.Address
	deployedAt     time.Time
	vestingFactory crypto.Address
	lockContracts  map[string]bool
}

// NewLOANToken constructs an empty LOAN ledger with admin as the restricted
// account and deployedAt as the start of the one-year lockout window.
func NewLOANToken(admin crypto.Address, deployedAt time.Time) *LOANToken {
	return &LOANToken{
		bal:           newBalances(),
		admin:         admin,
		deployedAt:    deployedAt,
		lockContracts: make(map[string]bool),
	}
}

// SetVestingFactory wires the registry factory permitted to mark addresses
// it deployed as authentic lock contracts.
func (t *LOANToken) SetVestingFactory(addr crypto.Address) { t.vestingFactory = addr }

// RegisterLockContract adds addr to the allow-list of destinations the
// admin may send to during the lockout window. Only the wired vesting
// registry factory may call this, since it is the sole authority on which
// addresses are genuine locks it deployed.
func (t *LOANToken) RegisterLockContract(caller, addr crypto.Address) error {
	if crypto.ZeroAddress(t.vestingFactory) || t.vestingFactory.String() != caller.String() {
		return tokenerrors.ErrTokenUnauthorized
	}
	t.lockContracts[addr.String()] = true
	return nil
}

// IsLockContract reports whether addr was registered by the vesting factory.
func (t *LOANToken) IsLockContract(addr crypto.Address) bool {
	return t.lockContracts[addr.String()]
}

// BalanceOf reports an account's LOAN balance.
func (t *LOANToken) BalanceOf(addr crypto.Address) *big.Int { return t.bal.get(addr) }

// MintInitialSupply credits the genesis LOAN allocation. It is intended for
// one-time use by the deployment admin wiring the vault, staking, and lock
// contract balances before the first transfer; nothing enforces that it is
// called only once, callers are expected to invoke it exactly once at setup.
func (t *LOANToken) MintInitialSupply(caller, to crypto.Address, amount *big.Int) error {
	if crypto.ZeroAddress(t.admin) || t.admin.String() != caller.String() {
		return tokenerrors.ErrTokenUnauthorized
	}
	return t.bal.credit(to, amount)
}

// Transfer moves LOAN from one account to another, applying the admin
// lockout restriction when the sender is the designated admin account and
// the window has not yet elapsed.
func (t *LOANToken) Transfer(from, to crypto.Address, amount *big.Int, now time.Time) error {
	if t.restricted(from, to, now) {
		return tokenerrors.ErrTransferRestricted
	}
	if err := t.bal.debit(from, amount); err != nil {
		return err
	}
	return t.bal.credit(to, amount)
}

func (t *LOANToken) restricted(from, to crypto.Address, now time.Time) bool {
	if crypto.ZeroAddress(t.admin) || t.admin.String() != from.String() {
		return false
	}
	if now.Sub(t.deployedAt) >= adminLockDuration {
		return false
	}
	return !t.IsLockContract(to)
}
