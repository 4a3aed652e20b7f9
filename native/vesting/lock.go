// Package vesting implements a single-beneficiary LOAN time lock and the
// registry factory that deploys them, giving the LOAN ledger an
// authenticity check for which addresses are genuine locks rather than
// arbitrary accounts claiming the admin-lockout exemption.
package vesting

import (
	"time"

	vestingerrors "github.com/furlabs/stabilitypool/core/errors"
	"github.com/furlabs/stabilitypool/crypto"
	"github.com/furlabs/stabilitypool/native/tokens"
)

// LockupContract holds a LOAN balance addressed to itself in the LOAN
// ledger and releases the whole of it to a single beneficiary once the
// unlock time has passed. It has no partial-withdrawal mode.
type LockupContract struct {
	address     crypto.Address
	beneficiary crypto.Address
	unlockTime  time.Time
	loanToken   *tokens.LOANToken
}

// Address returns the address this lock holds its LOAN balance under.
func (l *LockupContract) Address() crypto.Address { return l.address }

// Beneficiary returns the account entitled to withdraw once matured.
func (l *LockupContract) Beneficiary() crypto.Address { return l.beneficiary }

// UnlockTime returns the time the lock's balance becomes claimable.
func (l *LockupContract) UnlockTime() time.Time { return l.unlockTime }

// WithdrawLOAN transfers the lock's entire LOAN balance to its beneficiary.
// Only the beneficiary may call it, only after the unlock time, and only
// once — a second call sees a zero balance and is rejected.
func (l *LockupContract) WithdrawLOAN(caller crypto.Address, now time.Time) error {
	if l.beneficiary.String() != caller.String() {
		return vestingerrors.ErrNotLockOwner
	}
	if now.Before(l.unlockTime) {
		return vestingerrors.ErrLockNotMatured
	}
	balance := l.loanToken.BalanceOf(l.address)
	if balance.Sign() <= 0 {
		return vestingerrors.ErrLockAlreadyClaimed
	}
	return l.loanToken.Transfer(l.address, l.beneficiary, balance, now)
}
