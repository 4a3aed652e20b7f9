package stabilitypool

import (
	"math/big"

	"github.com/furlabs/stabilitypool/crypto"
	"github.com/furlabs/stabilitypool/fixedpoint"
)

// Deposit is a depositor's principal record. InitialValue is the FURUSD
// amount recorded at the last touch (provide, withdraw, or reroute);
// FrontEndTag is the referrer the deposit is attributed to, or the zero
// address when untagged.
type Deposit struct {
	InitialValue *big.Int
	FrontEndTag  crypto.Address
}

// DepositSnapshot captures the global accumulators at the moment a deposit
// was last touched, so its compounded value and gains can be derived later
// without replaying every intervening offset.
type DepositSnapshot struct {
	P     *big.Int
	S     *big.Int
	G     *big.Int
	Scale fixedpoint.Counter
	Epoch fixedpoint.Counter
}

// FrontEnd is a registered referrer. Once registered a front end's kickback
// rate never changes; there is no de-registration.
type FrontEnd struct {
	KickbackRate *big.Int
	Registered   bool
}

// FrontEndSnapshot mirrors DepositSnapshot for a front end's aggregate
// stake. Front ends do not accrue a collateral gain of their own, so S is
// not tracked here.
type FrontEndSnapshot struct {
	P     *big.Int
	G     *big.Int
	Scale fixedpoint.Counter
	Epoch fixedpoint.Counter
}

func emptyDepositSnapshot() *DepositSnapshot {
	return &DepositSnapshot{P: big.NewInt(0), S: big.NewInt(0), G: big.NewInt(0), Scale: fixedpoint.ZeroCounter(), Epoch: fixedpoint.ZeroCounter()}
}

func emptyFrontEndSnapshot() *FrontEndSnapshot {
	return &FrontEndSnapshot{P: big.NewInt(0), G: big.NewInt(0), Scale: fixedpoint.ZeroCounter(), Epoch: fixedpoint.ZeroCounter()}
}

type epochScaleKey struct {
	epoch string
	scale string
}

func keyFor(epoch, scale fixedpoint.Counter) epochScaleKey {
	return epochScaleKey{epoch: epoch.String(), scale: scale.String()}
}
