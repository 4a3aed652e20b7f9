package pools

import (
	"errors"
	"math/big"
	"testing"

	poolerrors "github.com/furlabs/stabilitypool/core/errors"
	"github.com/furlabs/stabilitypool/crypto"
)

func testAddr(b byte) crypto.Address {
	raw := make([]byte, 20)
	raw[19] = b
	return crypto.MustNewAddress(crypto.FurPrefix, raw)
}

func TestActivePoolSeizeAndDebt(t *testing.T) {
	sp := testAddr(1)
	ap := NewActivePool()
	ap.SetStabilityPool(sp)

	if err := ap.ReceiveFURFI(sp, big.NewInt(100)); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if err := ap.IncreaseFURUSDDebt(sp, big.NewInt(500)); err != nil {
		t.Fatalf("increase debt: %v", err)
	}
	if err := ap.SendFURFI(sp, big.NewInt(40)); err != nil {
		t.Fatalf("send: %v", err)
	}
	if ap.FURFIBalance().Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("unexpected balance: %s", ap.FURFIBalance())
	}
	if err := ap.DecreaseFURUSDDebt(sp, big.NewInt(500)); err != nil {
		t.Fatalf("decrease debt: %v", err)
	}
	if ap.FURUSDDebt().Sign() != 0 {
		t.Fatalf("expected zero debt, got %s", ap.FURUSDDebt())
	}

	stranger := testAddr(2)
	if err := ap.SendFURFI(stranger, big.NewInt(1)); !errors.Is(err, poolerrors.ErrPoolUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := ap.SendFURFI(sp, big.NewInt(1000)); !errors.Is(err, poolerrors.ErrPoolInsufficientFURFI) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
}

func TestDefaultPoolAppliesIntoActivePool(t *testing.T) {
	tm := testAddr(3)
	dp := NewDefaultPool()
	ap := NewActivePool()
	dp.SetTroveManager(tm)
	ap.SetTroveManager(tm)

	if err := dp.ReceiveFURFI(tm, big.NewInt(50)); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if err := dp.SendFURFIToActivePool(tm, ap, big.NewInt(20)); err != nil {
		t.Fatalf("send to active pool: %v", err)
	}
	if dp.FURFIBalance().Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("unexpected default pool balance: %s", dp.FURFIBalance())
	}
	if ap.FURFIBalance().Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("unexpected active pool balance: %s", ap.FURFIBalance())
	}
}

func TestCollSurplusPoolAccountAndClaim(t *testing.T) {
	tm := testAddr(4)
	bo := testAddr(5)
	owner := testAddr(6)

	csp := NewCollSurplusPool()
	csp.SetTroveManager(tm)
	csp.SetBorrowerOperations(bo)

	if err := csp.AccountSurplus(tm, owner, big.NewInt(75)); err != nil {
		t.Fatalf("account surplus: %v", err)
	}
	if got := csp.GetCollateral(owner); got.Cmp(big.NewInt(75)) != 0 {
		t.Fatalf("unexpected claimable: %s", got)
	}

	claimed, err := csp.ClaimColl(bo, owner)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.Cmp(big.NewInt(75)) != 0 {
		t.Fatalf("unexpected claimed amount: %s", claimed)
	}
	if _, err := csp.ClaimColl(bo, owner); !errors.Is(err, poolerrors.ErrPoolNoSurplus) {
		t.Fatalf("expected no surplus on second claim, got %v", err)
	}
}
