package pools

import (
	"math/big"

	poolerrors "github.com/furlabs/stabilitypool/core/errors"
	"github.com/furlabs/stabilitypool/crypto"
	"github.com/furlabs/stabilitypool/fixedpoint"
)

// CollSurplusPool holds FURFI left over after a liquidation that recovers
// more collateral than the debt it offsets, claimable by the trove's former
// owner. Per address it tracks at most one outstanding claim.
type CollSurplusPool struct {
	furfiBalance *big.Int
	surplus      map[string]*big.Int

	troveManager       crypto.Address
	borrowerOperations crypto.Address
}

// NewCollSurplusPool constructs an empty surplus pool.
func NewCollSurplusPool() *CollSurplusPool {
	return &CollSurplusPool{furfiBalance: big.NewInt(0), surplus: make(map[string]*big.Int)}
}

// SetTroveManager wires the address permitted to account a new surplus.
func (p *CollSurplusPool) SetTroveManager(addr crypto.Address) { p.troveManager = addr }

// SetBorrowerOperations wires the address permitted to pay out a claim.
func (p *CollSurplusPool) SetBorrowerOperations(addr crypto.Address) { p.borrowerOperations = addr }

// FURFIBalance reports the collateral held awaiting claims.
func (p *CollSurplusPool) FURFIBalance() *big.Int { return fixedpoint.Clone(p.furfiBalance) }

// GetCollateral reports the claimable surplus recorded for an address.
func (p *CollSurplusPool) GetCollateral(addr crypto.Address) *big.Int {
	if existing, ok := p.surplus[addr.String()]; ok {
		return fixedpoint.Clone(existing)
	}
	return big.NewInt(0)
}

// AccountSurplus records a new claimable balance for a liquidated trove's
// former owner. Called once per liquidation-with-leftover by the Trove
// Manager.
func (p *CollSurplusPool) AccountSurplus(caller, owner crypto.Address, amount *big.Int) error {
	if crypto.ZeroAddress(p.troveManager) || p.troveManager.String() != caller.String() {
		return poolerrors.ErrPoolUnauthorized
	}
	existing := p.GetCollateral(owner)
	sum, err := fixedpoint.Add(existing, amount)
	if err != nil {
		return err
	}
	balance, err := fixedpoint.Add(p.furfiBalance, amount)
	if err != nil {
		return err
	}
	p.surplus[owner.String()] = sum
	p.furfiBalance = balance
	return nil
}

// ClaimColl pays out and clears the claimable surplus for owner, returning
// the amount transferred. Called by Borrower Operations on the owner's
// behalf.
func (p *CollSurplusPool) ClaimColl(caller, owner crypto.Address) (*big.Int, error) {
	if crypto.ZeroAddress(p.borrowerOperations) || p.borrowerOperations.String() != caller.String() {
		return nil, poolerrors.ErrPoolUnauthorized
	}
	claimable, ok := p.surplus[owner.String()]
	if !ok || claimable.Sign() <= 0 {
		return nil, poolerrors.ErrPoolNoSurplus
	}
	remaining, err := fixedpoint.Sub(p.furfiBalance, claimable)
	if err != nil {
		return nil, err
	}
	p.furfiBalance = remaining
	delete(p.surplus, owner.String())
	return claimable, nil
}
