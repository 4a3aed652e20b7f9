package tokens

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	tokenerrors "github.com/furlabs/stabilitypool/core/errors"
	"github.com/furlabs/stabilitypool/crypto"
)

func testAddr(b byte) crypto.Address {
	raw := make([]byte, 20)
	raw[19] = b
	return crypto.MustNewAddress(crypto.FurPrefix, raw)
}

func TestFURUSDSendAndReturnFromPool(t *testing.T) {
	sp := testAddr(1)
	bo := testAddr(2)
	depositor := testAddr(3)
	pool := testAddr(4)

	token := NewFURUSDToken()
	token.SetStabilityPool(sp)
	token.SetBorrowerOperations(bo)

	require.NoError(t, token.Mint(bo, depositor, big.NewInt(1000)))
	require.NoError(t, token.SendToPool(sp, depositor, pool, big.NewInt(400)))
	require.Equal(t, 0, token.BalanceOf(depositor).Cmp(big.NewInt(600)))
	require.Equal(t, 0, token.BalanceOf(pool).Cmp(big.NewInt(400)))

	require.NoError(t, token.ReturnFromPool(sp, pool, depositor, big.NewInt(100)))
	require.Equal(t, 0, token.BalanceOf(depositor).Cmp(big.NewInt(700)))

	err := token.SendToPool(depositor, depositor, pool, big.NewInt(1))
	require.True(t, errors.Is(err, tokenerrors.ErrTokenUnauthorized))
}

func TestLOANAdminLockWindow(t *testing.T) {
	admin := testAddr(5)
	factory := testAddr(6)
	lock := testAddr(7)
	stranger := testAddr(8)
	deployedAt := time.Unix(0, 0)

	token := NewLOANToken(admin, deployedAt)
	token.SetVestingFactory(factory)
	require.NoError(t, token.MintInitialSupply(admin, admin, big.NewInt(1_000_000)))
	require.NoError(t, token.RegisterLockContract(factory, lock))

	withinWindow := deployedAt.Add(30 * 24 * time.Hour)
	err := token.Transfer(admin, stranger, big.NewInt(10), withinWindow)
	require.True(t, errors.Is(err, tokenerrors.ErrTransferRestricted))
	require.NoError(t, token.Transfer(admin, lock, big.NewInt(10), withinWindow))

	afterWindow := deployedAt.Add(400 * 24 * time.Hour)
	require.NoError(t, token.Transfer(admin, stranger, big.NewInt(10), afterWindow))

	require.NoError(t, token.MintInitialSupply(admin, stranger, big.NewInt(5)))
	require.NoError(t, token.Transfer(stranger, admin, big.NewInt(1), withinWindow))
}
