package pools

import (
	"math/big"

	poolerrors "github.com/furlabs/stabilitypool/core/errors"
	"github.com/furlabs/stabilitypool/crypto"
	"github.com/furlabs/stabilitypool/fixedpoint"
)

// DefaultPool tracks FURFI and FURUSD debt that has been redistributed to
// troves proportionally but not yet "applied" (folded into the trove's own
// recorded balances). It mirrors ActivePool's internal-counter accounting
// rather than querying a live token balance: a reimplementation that reads
// its own wallet balance is vulnerable to forced-send poisoning by anyone
// who can transfer tokens to the pool's address from outside the protocol,
// and the source repo's two competing DefaultPool variants disagree on
// exactly this point. The internal counter is the one that stays consistent
// with ActivePool's own accounting and is the one adopted here.
type DefaultPool struct {
	furfiBalance *big.Int
	furusdDebt   *big.Int

	troveManager crypto.Address
	activePool   crypto.Address
}

// NewDefaultPool constructs an empty default pool.
func NewDefaultPool() *DefaultPool {
	return &DefaultPool{furfiBalance: big.NewInt(0), furusdDebt: big.NewInt(0)}
}

// SetTroveManager wires the address permitted to redistribute into the pool.
func (p *DefaultPool) SetTroveManager(addr crypto.Address) { p.troveManager = addr }

// SetActivePool wires the active pool this default pool drains into once a
// redistributed amount is applied back to a trove.
func (p *DefaultPool) SetActivePool(addr crypto.Address) { p.activePool = addr }

func (p *DefaultPool) isWired(caller crypto.Address) bool {
	for _, wired := range []crypto.Address{p.troveManager, p.activePool} {
		if !crypto.ZeroAddress(wired) && wired.String() == caller.String() {
			return true
		}
	}
	return false
}

// FURFIBalance reports the collateral pending redistribution.
func (p *DefaultPool) FURFIBalance() *big.Int { return fixedpoint.Clone(p.furfiBalance) }

// FURUSDDebt reports the debt pending redistribution.
func (p *DefaultPool) FURUSDDebt() *big.Int { return fixedpoint.Clone(p.furusdDebt) }

// IncreaseFURUSDDebt records debt shifted into the default pool by a
// liquidation's pro-rata redistribution.
func (p *DefaultPool) IncreaseFURUSDDebt(caller crypto.Address, amount *big.Int) error {
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

// DecreaseFURUSDDebt records debt applied out of the default pool back onto
// a trove's own recorded balance.
func (p *DefaultPool) DecreaseFURUSDDebt(caller crypto.Address, amount *big.Int) error {
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

// ReceiveFURFI credits collateral redistributed from a liquidated trove.
func (p *DefaultPool) ReceiveFURFI(caller crypto.Address, amount *big.Int) error {
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

// SendFURFIToActivePool moves collateral out of the default pool's own
// counter once a redistribution is applied to a trove, crediting the active
// pool's counter in lockstep so the two never drift against each other.
func (p *DefaultPool) SendFURFIToActivePool(caller crypto.Address, active *ActivePool, amount *big.Int) error {
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
	if err := active.ReceiveFURFI(caller, amount); err != nil {
		return err
	}
	p.furfiBalance = remaining
	return nil
}
