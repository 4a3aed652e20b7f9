package issuance

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	issuanceerrors "github.com/furlabs/stabilitypool/core/errors"
	"github.com/furlabs/stabilitypool/crypto"
	"github.com/furlabs/stabilitypool/native/tokens"
)

func testAddr(b byte) crypto.Address {
	raw := make([]byte, 20)
	raw[19] = b
	return crypto.MustNewAddress(crypto.FurPrefix, raw)
}

func TestScheduleCumulativeIssuanceMonotonic(t *testing.T) {
	sched, err := newSchedule(fileSchedule{
		TotalLOANSupply: "1000000000000000000000000",
		PeriodSeconds:   2_592_000, // 30 days
		IssuanceBps:     5000,      // half the remainder issues every period
	})
	require.NoError(t, err)

	zero := sched.CumulativeIssuance(0)
	require.Zero(t, zero.Sign())
	onePeriod := sched.CumulativeIssuance(2_592_000)
	twoPeriods := sched.CumulativeIssuance(2 * 2_592_000)
	require.True(t, onePeriod.Cmp(twoPeriods) < 0, "expected issuance to grow monotonically: %s then %s", onePeriod, twoPeriods)
	farFuture := sched.CumulativeIssuance(1000 * 2_592_000)
	require.True(t, farFuture.Cmp(sched.totalLOANSupply) <= 0, "issuance must never exceed total supply: %s > %s", farFuture, sched.totalLOANSupply)
}

func TestCommunityIssuancePaysOutDeltaOnly(t *testing.T) {
	vault := testAddr(1)
	sp := testAddr(2)
	admin := testAddr(3)
	depositor := testAddr(4)
	deployedAt := time.Unix(0, 0)

	loan := tokens.NewLOANToken(admin, deployedAt)
	require.NoError(t, loan.MintInitialSupply(admin, vault, big.NewInt(1_000_000)))

	sched, err := newSchedule(fileSchedule{TotalLOANSupply: "1000000", PeriodSeconds: 1, IssuanceBps: 5000})
	require.NoError(t, err)
	issuance := NewCommunityIssuance(vault, loan, sched, deployedAt)
	issuance.SetStabilityPool(sp)

	first, err := issuance.IssueLOAN(sp, deployedAt.Add(1*time.Second))
	require.NoError(t, err)
	require.True(t, first.Sign() > 0, "expected positive issuance, got %s", first)

	require.NoError(t, issuance.SendLOAN(sp, depositor, first, deployedAt.Add(1*time.Second)))
	require.Equal(t, 0, loan.BalanceOf(depositor).Cmp(first))

	second, err := issuance.IssueLOAN(sp, deployedAt.Add(1*time.Second))
	require.NoError(t, err)
	require.Zero(t, second.Sign(), "expected zero issuance with no elapsed time, got %s", second)

	stranger := testAddr(5)
	_, err = issuance.IssueLOAN(stranger, deployedAt)
	require.True(t, errors.Is(err, issuanceerrors.ErrTokenUnauthorized))
}
