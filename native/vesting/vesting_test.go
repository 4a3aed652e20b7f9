package vesting

import (
	"errors"
	"math/big"
	"testing"
	"time"

	vestingerrors "github.com/furlabs/stabilitypool/core/errors"
	"github.com/furlabs/stabilitypool/crypto"
	"github.com/furlabs/stabilitypool/native/tokens"
)

func testAddr(b byte) crypto.Address {
	raw := make([]byte, 20)
	raw[19] = b
	return crypto.MustNewAddress(crypto.FurPrefix, raw)
}

func TestLockupContractWithdrawAfterMaturity(t *testing.T) {
	admin := testAddr(1)
	registryAddr := testAddr(2)
	beneficiary := testAddr(3)
	lockAddr := testAddr(4)
	deployedAt := time.Unix(0, 0)

	loan := tokens.NewLOANToken(admin, deployedAt)
	loan.SetVestingFactory(registryAddr)
	registry := NewRegistry(registryAddr, loan)

	unlock := deployedAt.Add(2 * 365 * 24 * time.Hour)
	lock, err := registry.DeployLockupContract(lockAddr, beneficiary, unlock)
	if err != nil {
		t.Fatalf("deploy lock: %v", err)
	}
	if !registry.IsRegistered(lockAddr) {
		t.Fatal("expected lock to be registered")
	}

	if err := loan.MintInitialSupply(admin, lockAddr, big.NewInt(500)); err != nil {
		t.Fatalf("fund lock: %v", err)
	}

	early := deployedAt.Add(30 * 24 * time.Hour)
	if err := lock.WithdrawLOAN(beneficiary, early); !errors.Is(err, vestingerrors.ErrLockNotMatured) {
		t.Fatalf("expected not matured, got %v", err)
	}

	stranger := testAddr(5)
	if err := lock.WithdrawLOAN(stranger, unlock); !errors.Is(err, vestingerrors.ErrNotLockOwner) {
		t.Fatalf("expected not lock owner, got %v", err)
	}

	if err := lock.WithdrawLOAN(beneficiary, unlock); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if loan.BalanceOf(beneficiary).Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("unexpected beneficiary balance: %s", loan.BalanceOf(beneficiary))
	}

	if err := lock.WithdrawLOAN(beneficiary, unlock); !errors.Is(err, vestingerrors.ErrLockAlreadyClaimed) {
		t.Fatalf("expected already claimed, got %v", err)
	}
}
