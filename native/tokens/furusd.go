package tokens

import (
	"math/big"

	tokenerrors "github.com/furlabs/stabilitypool/core/errors"
	"github.com/furlabs/stabilitypool/crypto"
)

// FURUSDToken is the stablecoin debt unit. It is a transferable balance
// ledger with privileged mint, burn, and pool-transfer entry points reserved
// for Borrower Operations and the Stability Pool.
type FURUSDToken struct {
	bal balances

	borrowerOperations crypto.Address
	stabilityPool      crypto.Address
	troveManager       crypto.Address
}

// NewFURUSDToken constructs an empty FURUSD ledger.
func NewFURUSDToken() *FURUSDToken {
	return &FURUSDToken{bal: newBalances()}
}

// SetBorrowerOperations wires the address permitted to mint new debt.
func (t *FURUSDToken) SetBorrowerOperations(addr crypto.Address) { t.borrowerOperations = addr }

// SetStabilityPool wires the address permitted to pull deposits in and pay
// withdrawals out, and to burn offset debt.
func (t *FURUSDToken) SetStabilityPool(addr crypto.Address) { t.stabilityPool = addr }

// SetTroveManager wires the address permitted to burn debt during liquidation.
func (t *FURUSDToken) SetTroveManager(addr crypto.Address) { t.troveManager = addr }

func (t *FURUSDToken) isBurner(caller crypto.Address) bool {
	for _, wired := range []crypto.Address{t.stabilityPool, t.troveManager, t.borrowerOperations} {
		if !crypto.ZeroAddress(wired) && wired.String() == caller.String() {
			return true
		}
	}
	return false
}

// BalanceOf reports an account's FURUSD balance.
func (t *FURUSDToken) BalanceOf(addr crypto.Address) *big.Int { return t.bal.get(addr) }

// Mint issues new FURUSD debt to a borrower, called by Borrower Operations
// when a trove is opened or its debt increased.
func (t *FURUSDToken) Mint(caller, to crypto.Address, amount *big.Int) error {
	if crypto.ZeroAddress(t.borrowerOperations) || t.borrowerOperations.String() != caller.String() {
		return tokenerrors.ErrTokenUnauthorized
	}
	return t.bal.credit(to, amount)
}

// Burn destroys FURUSD debt repaid or offset, called by Borrower Operations,
// the Trove Manager, or the Stability Pool.
func (t *FURUSDToken) Burn(caller, from crypto.Address, amount *big.Int) error {
	if !t.isBurner(caller) {
		return tokenerrors.ErrTokenUnauthorized
	}
	return t.bal.debit(from, amount)
}

// SendToPool debits a depositor and credits the pool address, called by the
// Stability Pool on provide_to_stability_pool.
func (t *FURUSDToken) SendToPool(caller, from, poolAddr crypto.Address, amount *big.Int) error {
	if crypto.ZeroAddress(t.stabilityPool) || t.stabilityPool.String() != caller.String() {
		return tokenerrors.ErrTokenUnauthorized
	}
	if err := t.bal.debit(from, amount); err != nil {
		return err
	}
	return t.bal.credit(poolAddr, amount)
}

// ReturnFromPool debits the pool address and credits a depositor, called by
// the Stability Pool on withdraw_from_stability_pool.
func (t *FURUSDToken) ReturnFromPool(caller, poolAddr, to crypto.Address, amount *big.Int) error {
	if crypto.ZeroAddress(t.stabilityPool) || t.stabilityPool.String() != caller.String() {
		return tokenerrors.ErrTokenUnauthorized
	}
	if err := t.bal.debit(poolAddr, amount); err != nil {
		return err
	}
	return t.bal.credit(to, amount)
}

// Transfer moves FURUSD between two ordinary accounts. It carries no
// privileged gate; any holder may transfer their own balance.
func (t *FURUSDToken) Transfer(from, to crypto.Address, amount *big.Int) error {
	if err := t.bal.debit(from, amount); err != nil {
		return err
	}
	return t.bal.credit(to, amount)
}
