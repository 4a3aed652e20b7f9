package stabilitypool

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/furlabs/stabilitypool/crypto"
	"github.com/furlabs/stabilitypool/fixedpoint"
)

func testAddr(b byte) crypto.Address {
	raw := make([]byte, 20)
	raw[19] = b
	return crypto.MustNewAddress(crypto.FurPrefix, raw)
}

func scaled(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), fixedpoint.One)
}

// fakeStablecoin tracks balances by address string; it is the test double
// for the FURUSD ledger collaborator.
type fakeStablecoin struct {
	balances map[string]*big.Int
}

func newFakeStablecoin() *fakeStablecoin { return &fakeStablecoin{balances: map[string]*big.Int{}} }

func (f *fakeStablecoin) credit(addr crypto.Address, amount *big.Int) {
	cur, ok := f.balances[addr.String()]
	if !ok {
		cur = big.NewInt(0)
	}
	f.balances[addr.String()] = new(big.Int).Add(cur, amount)
}

func (f *fakeStablecoin) debit(addr crypto.Address, amount *big.Int) error {
	cur, ok := f.balances[addr.String()]
	if !ok || cur.Cmp(amount) < 0 {
		return errors.New("fake stablecoin: insufficient balance")
	}
	f.balances[addr.String()] = new(big.Int).Sub(cur, amount)
	return nil
}

func (f *fakeStablecoin) SendToPool(_, from, poolAddr crypto.Address, amount *big.Int) error {
	if err := f.debit(from, amount); err != nil {
		return err
	}
	f.credit(poolAddr, amount)
	return nil
}

func (f *fakeStablecoin) ReturnFromPool(_, poolAddr, to crypto.Address, amount *big.Int) error {
	if err := f.debit(poolAddr, amount); err != nil {
		return err
	}
	f.credit(to, amount)
	return nil
}

func (f *fakeStablecoin) Burn(_, from crypto.Address, amount *big.Int) error {
	return f.debit(from, amount)
}

// fakeActivePool is the test double for the active pool collaborator.
type fakeActivePool struct {
	furfi *big.Int
	debt  *big.Int
}

// newFakeActivePool starts pre-funded with a large FURFI balance, standing
// in for the collateral backing whatever troves are already open — tests
// exercise Offset's seize, not ActivePool's own capacity limits.
func newFakeActivePool() *fakeActivePool {
	return &fakeActivePool{furfi: scaled(1_000_000), debt: big.NewInt(0)}
}

// SendFURFI mirrors the real ActivePool: it only ever moves collateral once,
// out of ActivePool and into the caller's balance, and refuses to go
// negative. It must never be called a second time for the same collateral.
func (a *fakeActivePool) SendFURFI(_ crypto.Address, amount *big.Int) error {
	if a.furfi.Cmp(amount) < 0 {
		return errors.New("fake active pool: insufficient furfi")
	}
	a.furfi = new(big.Int).Sub(a.furfi, amount)
	return nil
}

func (a *fakeActivePool) DecreaseFURUSDDebt(_ crypto.Address, amount *big.Int) error {
	a.debt = new(big.Int).Sub(a.debt, amount)
	return nil
}

// fakeIssuance is the test double for community issuance: by default it
// issues nothing, keeping gain math in isolation from the emission schedule.
type fakeIssuance struct {
	toIssue *big.Int
	sent    map[string]*big.Int
}

func newFakeIssuance() *fakeIssuance {
	return &fakeIssuance{toIssue: big.NewInt(0), sent: map[string]*big.Int{}}
}

func (i *fakeIssuance) IssueLOAN(crypto.Address, time.Time) (*big.Int, error) {
	issued := i.toIssue
	i.toIssue = big.NewInt(0)
	return issued, nil
}

func (i *fakeIssuance) SendLOAN(_, to crypto.Address, amount *big.Int, _ time.Time) error {
	cur, ok := i.sent[to.String()]
	if !ok {
		cur = big.NewInt(0)
	}
	i.sent[to.String()] = new(big.Int).Add(cur, amount)
	return nil
}

// fakeBorrowerOps is the test double for Borrower Operations.
type fakeBorrowerOps struct {
	hasTrove    bool
	movedTo     crypto.Address
	movedAmount *big.Int
}

func (b *fakeBorrowerOps) HasActiveTrove(crypto.Address) (bool, error) { return b.hasTrove, nil }

func (b *fakeBorrowerOps) MoveFURFIGainToTrove(_, depositor crypto.Address, amount *big.Int, _, _ crypto.Address) error {
	b.movedTo = depositor
	b.movedAmount = amount
	return nil
}

// fakeHealth always reports the system as healthy unless told otherwise.
type fakeHealth struct{ healthy bool }

func (h *fakeHealth) NoUnderCollateralizedTroveExists() (bool, error) { return h.healthy, nil }

func newTestEngine(t *testing.T) (*Engine, crypto.Address, *fakeStablecoin, *fakeActivePool, *fakeIssuance, *fakeBorrowerOps) {
	t.Helper()
	pool := testAddr(0xEE)
	troveManager := testAddr(0xFF)

	e := NewEngine(pool)
	e.SetTroveManager(troveManager)

	coin := newFakeStablecoin()
	ap := newFakeActivePool()
	issuance := newFakeIssuance()
	bo := &fakeBorrowerOps{hasTrove: true}
	health := &fakeHealth{healthy: true}

	e.SetFURUSDToken(coin)
	e.SetActivePool(ap)
	e.SetCommunityIssuance(issuance)
	e.SetBorrowerOperations(bo)
	e.SetSystemHealth(health)

	return e, troveManager, coin, ap, issuance, bo
}

func TestProvideDepositAndFullDepletionOffset(t *testing.T) {
	e, troveManager, coin, _, _, _ := newTestEngine(t)
	alice := testAddr(1)
	coin.credit(alice, scaled(1000))

	if err := e.ProvideToStabilityPool(alice, scaled(1000), crypto.Address{}, time.Time{}); err != nil {
		t.Fatalf("provide: %v", err)
	}
	if e.GetTotalFURUSDDeposits().Cmp(scaled(1000)) != 0 {
		t.Fatalf("unexpected total deposits: %s", e.GetTotalFURUSDDeposits())
	}

	if err := e.Offset(troveManager, scaled(1000), scaled(10), time.Time{}); err != nil {
		t.Fatalf("offset: %v", err)
	}

	if e.GetTotalFURUSDDeposits().Sign() != 0 {
		t.Fatalf("expected deposits fully consumed, got %s", e.GetTotalFURUSDDeposits())
	}
	if e.GetFURFIBalance().Cmp(scaled(10)) != 0 {
		t.Fatalf("expected pool to hold 10 FURFI, got %s", e.GetFURFIBalance())
	}

	gain, err := e.GetDepositorCollateralGain(alice)
	if err != nil {
		t.Fatalf("collateral gain: %v", err)
	}
	if gain.Cmp(scaled(10)) != 0 {
		t.Fatalf("expected alice's full collateral gain of 10 FURFI, got %s", gain)
	}

	compounded, err := e.GetCompoundedDeposit(alice)
	if err != nil {
		t.Fatalf("compounded deposit: %v", err)
	}
	if compounded.Sign() != 0 {
		t.Fatalf("expected alice's deposit fully wiped out, got %s", compounded)
	}
}

func TestTwoDepositorsShareOffsetProportionally(t *testing.T) {
	e, troveManager, coin, _, _, _ := newTestEngine(t)
	alice := testAddr(1)
	bob := testAddr(2)
	coin.credit(alice, scaled(600))
	coin.credit(bob, scaled(400))

	if err := e.ProvideToStabilityPool(alice, scaled(600), crypto.Address{}, time.Time{}); err != nil {
		t.Fatalf("alice provide: %v", err)
	}
	if err := e.ProvideToStabilityPool(bob, scaled(400), crypto.Address{}, time.Time{}); err != nil {
		t.Fatalf("bob provide: %v", err)
	}

	// Debt offset well short of total deposits, so the pool survives: both
	// depositors should see their share of the seized collateral and a
	// correspondingly reduced compounded deposit, in a 60/40 split.
	if err := e.Offset(troveManager, scaled(100), scaled(20), time.Time{}); err != nil {
		t.Fatalf("offset: %v", err)
	}

	aliceGain, err := e.GetDepositorCollateralGain(alice)
	if err != nil {
		t.Fatalf("alice gain: %v", err)
	}
	bobGain, err := e.GetDepositorCollateralGain(bob)
	if err != nil {
		t.Fatalf("bob gain: %v", err)
	}
	totalGain := new(big.Int).Add(aliceGain, bobGain)
	if totalGain.Cmp(scaled(20)) > 0 {
		t.Fatalf("combined gain %s exceeds collateral added", totalGain)
	}

	// Alice holds 60% of the pool, so her gain should be roughly 60% of the
	// total, within a rounding tolerance of 1000 wei.
	expectedAlice := new(big.Int).Mul(scaled(20), big.NewInt(6))
	expectedAlice.Div(expectedAlice, big.NewInt(10))
	diff := new(big.Int).Sub(aliceGain, expectedAlice)
	if diff.CmpAbs(big.NewInt(1000)) > 0 {
		t.Fatalf("alice's gain %s deviates too far from expected %s", aliceGain, expectedAlice)
	}

	aliceCompounded, err := e.GetCompoundedDeposit(alice)
	if err != nil {
		t.Fatalf("alice compounded: %v", err)
	}
	bobCompounded, err := e.GetCompoundedDeposit(bob)
	if err != nil {
		t.Fatalf("bob compounded: %v", err)
	}
	totalCompounded := new(big.Int).Add(aliceCompounded, bobCompounded)
	if totalCompounded.Cmp(scaled(900)) >= 0 {
		t.Fatalf("expected total compounded deposits below 900, got %s", totalCompounded)
	}
}

func TestWithdrawReturnsCompoundedDepositAndGain(t *testing.T) {
	e, troveManager, coin, ap, _, _ := newTestEngine(t)
	alice := testAddr(1)
	coin.credit(alice, scaled(1000))

	if err := e.ProvideToStabilityPool(alice, scaled(1000), crypto.Address{}, time.Time{}); err != nil {
		t.Fatalf("provide: %v", err)
	}
	if err := e.Offset(troveManager, scaled(400), scaled(10), time.Time{}); err != nil {
		t.Fatalf("offset: %v", err)
	}
	furfiAfterOffset := new(big.Int).Set(ap.furfi)

	if err := e.WithdrawFromStabilityPool(alice, scaled(10_000), time.Time{}); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	if coin.balances[alice.String()].Sign() <= 0 {
		t.Fatalf("expected alice to receive her compounded deposit back")
	}
	remaining, err := e.GetCompoundedDeposit(alice)
	if err != nil {
		t.Fatalf("compounded deposit: %v", err)
	}
	if remaining.Sign() != 0 {
		t.Fatalf("expected nothing left after withdrawing more than the compounded balance, got %s", remaining)
	}

	// The collateral gain is paid out of the pool's own held balance, not
	// seized from ActivePool a second time.
	if ap.furfi.Cmp(furfiAfterOffset) != 0 {
		t.Fatalf("expected ActivePool's balance to be untouched by the withdrawal payout, was %s now %s", furfiAfterOffset, ap.furfi)
	}
	if e.GetFURFIBalance().Sign() != 0 {
		t.Fatalf("expected the pool to have paid out its entire collateral balance, got %s", e.GetFURFIBalance())
	}
	if paid := e.GetFURFIPaid(alice); paid.Cmp(scaled(10)) != 0 {
		t.Fatalf("expected alice to have been paid her full 10 FURFI gain, got %s", paid)
	}
}

func TestWithdrawBlockedWhileUnderCollateralizedTroveExists(t *testing.T) {
	e, _, coin, _, _, _ := newTestEngine(t)
	alice := testAddr(1)
	coin.credit(alice, scaled(100))
	if err := e.ProvideToStabilityPool(alice, scaled(100), crypto.Address{}, time.Time{}); err != nil {
		t.Fatalf("provide: %v", err)
	}

	e.health.(*fakeHealth).healthy = false
	if err := e.WithdrawFromStabilityPool(alice, scaled(1), time.Time{}); !errors.Is(err, errUnderCollateralizedOpen) {
		t.Fatalf("expected errUnderCollateralizedOpen, got %v", err)
	}

	// Withdrawing zero (gain-only) is still permitted.
	if err := e.WithdrawFromStabilityPool(alice, big.NewInt(0), time.Time{}); err != nil {
		t.Fatalf("zero-amount withdraw should bypass the health check: %v", err)
	}
}

func TestRegisterFrontEndRejectsDuplicateAndOutOfRangeKickback(t *testing.T) {
	e, _, _, _, _, _ := newTestEngine(t)
	alice := testAddr(1)

	if err := e.RegisterFrontEnd(alice, scaled(2)); !errors.Is(err, errKickbackOutOfRange) {
		t.Fatalf("expected errKickbackOutOfRange, got %v", err)
	}
	if err := e.RegisterFrontEnd(alice, fixedpoint.One); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := e.RegisterFrontEnd(alice, fixedpoint.One); !errors.Is(err, errFrontEndAlreadyExists) {
		t.Fatalf("expected errFrontEndAlreadyExists, got %v", err)
	}

	coin := newFakeStablecoin()
	e.SetFURUSDToken(coin)
	coin.credit(alice, scaled(10))
	if err := e.ProvideToStabilityPool(alice, scaled(10), crypto.Address{}, time.Time{}); !errors.Is(err, errFrontEndCannotDeposit) {
		t.Fatalf("expected errFrontEndCannotDeposit, got %v", err)
	}
}

func TestOffsetRejectsNonTroveManagerCaller(t *testing.T) {
	e, _, _, _, _, _ := newTestEngine(t)
	stranger := testAddr(7)
	if err := e.Offset(stranger, scaled(1), scaled(1), time.Time{}); !errors.Is(err, errNotTroveManager) {
		t.Fatalf("expected errNotTroveManager, got %v", err)
	}
}

func TestWithdrawCollateralGainToTroveRequiresActiveTrove(t *testing.T) {
	e, troveManager, coin, ap, _, bo := newTestEngine(t)
	alice := testAddr(1)
	coin.credit(alice, scaled(1000))
	if err := e.ProvideToStabilityPool(alice, scaled(1000), crypto.Address{}, time.Time{}); err != nil {
		t.Fatalf("provide: %v", err)
	}
	if err := e.Offset(troveManager, scaled(400), scaled(10), time.Time{}); err != nil {
		t.Fatalf("offset: %v", err)
	}
	furfiAfterOffset := new(big.Int).Set(ap.furfi)

	bo.hasTrove = false
	if err := e.WithdrawCollateralGainToTrove(alice, crypto.Address{}, crypto.Address{}, time.Time{}); !errors.Is(err, errNoTrove) {
		t.Fatalf("expected errNoTrove, got %v", err)
	}

	bo.hasTrove = true
	if err := e.WithdrawCollateralGainToTrove(alice, crypto.Address{}, crypto.Address{}, time.Time{}); err != nil {
		t.Fatalf("withdraw collateral gain to trove: %v", err)
	}
	if bo.movedAmount == nil || bo.movedAmount.Sign() <= 0 {
		t.Fatalf("expected a positive collateral amount moved to the trove")
	}
	// The collateral already left ActivePool during Offset; routing it to
	// the trove must not seize it from ActivePool a second time.
	if ap.furfi.Cmp(furfiAfterOffset) != 0 {
		t.Fatalf("expected ActivePool's balance to be untouched by the trove payout, was %s now %s", furfiAfterOffset, ap.furfi)
	}
	compounded, err := e.GetCompoundedDeposit(alice)
	if err != nil {
		t.Fatalf("compounded deposit: %v", err)
	}
	if compounded.Sign() <= 0 {
		t.Fatalf("expected alice's compounded deposit to remain in the pool, got %s", compounded)
	}
}
