// Package pools implements the three ledger accumulators the Stability Pool
// and Trove Manager depend on: ActivePool, DefaultPool, and CollSurplusPool.
// Each is a pure value-tracking record with gated mutators — no algorithmic
// content lives here, unlike native/stabilitypool.
package pools

import (
	"math/big"

	poolerrors "github.com/furlabs/stabilitypool/core/errors"
	"github.com/furlabs/stabilitypool/crypto"
	"github.com/furlabs/stabilitypool/fixedpoint"
)

// ActivePool tracks the aggregate FURFI collateral and FURUSD debt backing
// all open troves. The Stability Pool seizes FURFI from it during an offset
// and reports the corresponding debt reduction.
type ActivePool struct {
	furfiBalance *big.Int
	furusdDebt   *big.Int

	troveManager       crypto.Address
	stabilityPool      crypto.Address
	borrowerOperations crypto.Address
}

// NewActivePool constructs an empty active pool.
func NewActivePool() *ActivePool {
	return &ActivePool{furfiBalance: big.NewInt(0), furusdDebt: big.NewInt(0)}
}

// SetTroveManager wires the address permitted to adjust debt on liquidation.
func (p *ActivePool) SetTroveManager(addr crypto.Address) { p.troveManager = addr }

// SetStabilityPool wires the address permitted to seize collateral.
func (p *ActivePool) SetStabilityPool(addr crypto.Address) { p.stabilityPool = addr }

// SetBorrowerOperations wires the address permitted to adjust trove-opening flows.
func (p *ActivePool) SetBorrowerOperations(addr crypto.Address) { p.borrowerOperations = addr }

func (p *ActivePool) isWired(caller crypto.Address) bool {
	for _, wired := range []crypto.Address{p.troveManager, p.stabilityPool, p.borrowerOperations} {
		if !crypto.ZeroAddress(wired) && wired.String() == caller.String() {
			return true
		}
	}
	return false
}

// FURFIBalance reports the collateral currently held by the active pool.
func (p *ActivePool) FURFIBalance() *big.Int { return fixedpoint.Clone(p.furfiBalance) }

// FURUSDDebt reports the aggregate outstanding debt across open troves.
func (p *ActivePool) FURUSDDebt() *big.Int { return fixedpoint.Clone(p.furusdDebt) }

// ReceiveFURFI credits collateral into the active pool, e.g. when a trove is
// opened or topped up by Borrower Operations.
func (p *ActivePool) ReceiveFURFI(caller crypto.Address, amount *big.Int) error {
	if !p.isWired(caller) {
		return poolerrors.ErrPoolUnauthorized
	}
	sum, err := fixedpoint.Add(p.furfiBalance, amount)
	if err != nil {
		return err
	}
	p.furfiBalance = sum
	return nil
}

// SendFURFI seizes amount of collateral out of the active pool on behalf of
// an authorized collaborator — the Stability Pool calling during an offset,
// or Borrower Operations routing a trove's collateral elsewhere.
func (p *ActivePool) SendFURFI(caller crypto.Address, amount *big.Int) error {
	if !p.isWired(caller) {
		return poolerrors.ErrPoolUnauthorized
	}
	if p.furfiBalance.Cmp(amount) < 0 {
		return poolerrors.ErrPoolInsufficientFURFI
	}
	remaining, err := fixedpoint.Sub(p.furfiBalance, amount)
	if err != nil {
		return err
	}
	p.furfiBalance = remaining
	return nil
}

// IncreaseFURUSDDebt records additional debt opened against the active pool.
func (p *ActivePool) IncreaseFURUSDDebt(caller crypto.Address, amount *big.Int) error {
	if !p.isWired(caller) {
		return poolerrors.ErrPoolUnauthorized
	}
	sum, err := fixedpoint.Add(p.furusdDebt, amount)
	if err != nil {
		return err
	}
	p.furusdDebt = sum
	return nil
}

// DecreaseFURUSDDebt records debt repaid or offset against the active pool.
func (p *ActivePool) DecreaseFURUSDDebt(caller crypto.Address, amount *big.Int) error {
	if !p.isWired(caller) {
		return poolerrors.ErrPoolUnauthorized
	}
	if p.furusdDebt.Cmp(amount) < 0 {
		return poolerrors.ErrPoolInsufficientDebt
	}
	remaining, err := fixedpoint.Sub(p.furusdDebt, amount)
	if err != nil {
		return err
	}
	p.furusdDebt = remaining
	return nil
}
