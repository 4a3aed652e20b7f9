package issuance

import (
	"math/big"
	"time"

	issuanceerrors "github.com/furlabs/stabilitypool/core/errors"
	"github.com/furlabs/stabilitypool/crypto"
	"github.com/furlabs/stabilitypool/native/tokens"
)

// CommunityIssuance is the vault collaborator the Stability Pool consults
// on every state-changing call. It exposes a stateless-looking issue_LOAN
// that actually advances an internal high-water mark: each call returns
// only the LOAN that has become issuable since the previous call.
type CommunityIssuance struct {
	vault         crypto.Address
	loanToken     *tokens.LOANToken
	schedule      *Schedule
	deployedAt    time.Time
	totalIssued   *big.Int
	stabilityPool crypto.Address
}

// NewCommunityIssuance constructs a vault funded at vault, wired to
// loanToken, releasing LOAN according to schedule starting at deployedAt.
func NewCommunityIssuance(vault crypto.Address, loanToken *tokens.LOANToken, schedule *Schedule, deployedAt time.Time) *CommunityIssuance {
	return &CommunityIssuance{
		vault:       vault,
		loanToken:   loanToken,
		schedule:    schedule,
		deployedAt:  deployedAt,
		totalIssued: big.NewInt(0),
	}
}

// SetStabilityPool wires the sole caller permitted to trigger issuance and
// request payouts.
func (c *CommunityIssuance) SetStabilityPool(addr crypto.Address) { c.stabilityPool = addr }

// IssueLOAN returns the LOAN newly issuable since the last call, advancing
// the internal high-water mark by that amount. If the schedule's cumulative
// total hasn't grown since the previous call (can't happen with a
// monotonically increasing clock, but guards against clock regression),
// zero is returned.
func (c *CommunityIssuance) IssueLOAN(caller crypto.Address, now time.Time) (*big.Int, error) {
	if crypto.ZeroAddress(c.stabilityPool) || c.stabilityPool.String() != caller.String() {
		return nil, issuanceerrors.ErrTokenUnauthorized
	}
	elapsed := now.Sub(c.deployedAt)
	if elapsed < 0 {
		return big.NewInt(0), nil
	}
	cumulative := c.schedule.CumulativeIssuance(uint64(elapsed.Seconds()))
	if cumulative.Cmp(c.totalIssued) <= 0 {
		return big.NewInt(0), nil
	}
	delta := new(big.Int).Sub(cumulative, c.totalIssued)
	c.totalIssued = cumulative
	return delta, nil
}

// SendLOAN transfers amount out of the vault to an arbitrary recipient —
// the Stability Pool, paying out a depositor or front end's accrued gain.
func (c *CommunityIssuance) SendLOAN(caller, to crypto.Address, amount *big.Int, now time.Time) error {
	if crypto.ZeroAddress(c.stabilityPool) || c.stabilityPool.String() != caller.String() {
		return issuanceerrors.ErrTokenUnauthorized
	}
	if amount.Sign() == 0 {
		return nil
	}
	return c.loanToken.Transfer(c.vault, to, amount, now)
}
