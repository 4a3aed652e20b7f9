// Package tokens implements the two fungible ledgers the Stability Pool
// depends on: the FURUSD stablecoin debt unit and the LOAN incentive token.
// Both are plain balance-tracking records with gated privileged entry
// points; neither performs any product-sum accounting of its own.
package tokens

import (
	"math/big"

	tokenerrors "github.com/furlabs/stabilitypool/core/errors"
	"github.com/furlabs/stabilitypool/crypto"
	"github.com/furlabs/stabilitypool/fixedpoint"
)

var errInsufficientBalance = tokenerrors.ErrInsufficientBalance

// balances is a simple address-keyed balance map shared by both token
// ledgers. It is not exported; each token wraps it behind its own gated
// entry points rather than exposing raw credit/debit to callers.
type balances map[string]*big.Int

func newBalances() balances { return make(balances) }

func (b balances) get(addr crypto.Address) *big.Int {
	if existing, ok := b[addr.String()]; ok {
		return fixedpoint.Clone(existing)
	}
	return big.NewInt(0)
}

func (b balances) credit(addr crypto.Address, amount *big.Int) error {
	sum, err := fixedpoint.Add(b.get(addr), amount)
	if err != nil {
		return err
	}
	b[addr.String()] = sum
	return nil
}

func (b balances) debit(addr crypto.Address, amount *big.Int) error {
	current := b.get(addr)
	if current.Cmp(amount) < 0 {
		return errInsufficientBalance
	}
	remaining, err := fixedpoint.Sub(current, amount)
	if err != nil {
		return err
	}
	b[addr.String()] = remaining
	return nil
}
