package events

import (
	"math/big"

	"github.com/furlabs/stabilitypool/core/types"
	"github.com/furlabs/stabilitypool/crypto"
)

const (
	// TypeStabilityDeposit fires on every provide_to_stability_pool call.
	TypeStabilityDeposit = "stabilitypool.provide"
	// TypeStabilityWithdraw fires on every withdraw_from_stability_pool call.
	TypeStabilityWithdraw = "stabilitypool.withdraw"
	// TypeCollateralGainToTrove fires when a depositor reroutes their
	// collateral gain into a trove instead of withdrawing it.
	TypeCollateralGainToTrove = "stabilitypool.collateral_gain_to_trove"
	// TypeFrontEndRegistered fires once per front end, at registration.
	TypeFrontEndRegistered = "stabilitypool.front_end_registered"
	// TypeStabilityOffset fires on every offset() call from the Trove Manager.
	TypeStabilityOffset = "stabilitypool.offset"
	// TypeEpochAdvanced fires whenever a full depletion resets P and bumps the epoch.
	TypeEpochAdvanced = "stabilitypool.epoch_advanced"
	// TypeScaleAdvanced fires whenever P crosses below SCALE_FACTOR within an epoch.
	TypeScaleAdvanced = "stabilitypool.scale_advanced"
)

// StabilityDeposit records a provide_to_stability_pool call.
type StabilityDeposit struct {
	Depositor      [20]byte
	FrontEndTag    [20]byte
	Amount         *big.Int
	NewDeposit     *big.Int
	FURUSDLoss     *big.Int
	CollateralPaid *big.Int
}

func (StabilityDeposit) EventType() string { return TypeStabilityDeposit }

func (e StabilityDeposit) Event() *types.Event {
	attrs := map[string]string{
		"depositor":      addrString(e.Depositor),
		"amount":         amountString(e.Amount),
		"newDeposit":     amountString(e.NewDeposit),
		"furusdLoss":     amountString(e.FURUSDLoss),
		"collateralPaid": amountString(e.CollateralPaid),
	}
	if !zeroBytes20(e.FrontEndTag) {
		attrs["frontEndTag"] = addrString(e.FrontEndTag)
	}
	return &types.Event{Type: TypeStabilityDeposit, Attributes: attrs}
}

// StabilityWithdraw records a withdraw_from_stability_pool call.
type StabilityWithdraw struct {
	Depositor      [20]byte
	AmountSent     *big.Int
	NewDeposit     *big.Int
	CollateralPaid *big.Int
}

func (StabilityWithdraw) EventType() string { return TypeStabilityWithdraw }

func (e StabilityWithdraw) Event() *types.Event {
	return &types.Event{Type: TypeStabilityWithdraw, Attributes: map[string]string{
		"depositor":      addrString(e.Depositor),
		"amountSent":     amountString(e.AmountSent),
		"newDeposit":     amountString(e.NewDeposit),
		"collateralPaid": amountString(e.CollateralPaid),
	}}
}

// CollateralGainToTrove records a withdraw_collateral_gain_to_trove call.
type CollateralGainToTrove struct {
	Depositor  [20]byte
	Collateral *big.Int
}

func (CollateralGainToTrove) EventType() string { return TypeCollateralGainToTrove }

func (e CollateralGainToTrove) Event() *types.Event {
	return &types.Event{Type: TypeCollateralGainToTrove, Attributes: map[string]string{
		"depositor":  addrString(e.Depositor),
		"collateral": amountString(e.Collateral),
	}}
}

// FrontEndRegistered records a register_front_end call.
type FrontEndRegistered struct {
	FrontEnd     [20]byte
	KickbackRate *big.Int
}

func (FrontEndRegistered) EventType() string { return TypeFrontEndRegistered }

func (e FrontEndRegistered) Event() *types.Event {
	return &types.Event{Type: TypeFrontEndRegistered, Attributes: map[string]string{
		"frontEnd":     addrString(e.FrontEnd),
		"kickbackRate": amountString(e.KickbackRate),
	}}
}

// StabilityOffset records an offset() call absorbing liquidated debt.
type StabilityOffset struct {
	DebtOffset         *big.Int
	CollateralAdded    *big.Int
	TotalDepositsAfter *big.Int
	FURFIBalanceAfter  *big.Int
	ProductAfter       *big.Int
}

func (StabilityOffset) EventType() string { return TypeStabilityOffset }

func (e StabilityOffset) Event() *types.Event {
	return &types.Event{Type: TypeStabilityOffset, Attributes: map[string]string{
		"debtOffset":         amountString(e.DebtOffset),
		"collateralAdded":    amountString(e.CollateralAdded),
		"totalDepositsAfter": amountString(e.TotalDepositsAfter),
		"furfiBalanceAfter":  amountString(e.FURFIBalanceAfter),
		"productAfter":       amountString(e.ProductAfter),
	}}
}

// EpochAdvanced records a full-depletion epoch rollover.
type EpochAdvanced struct {
	NewEpoch string
}

func (EpochAdvanced) EventType() string { return TypeEpochAdvanced }

func (e EpochAdvanced) Event() *types.Event {
	return &types.Event{Type: TypeEpochAdvanced, Attributes: map[string]string{"newEpoch": e.NewEpoch}}
}

// ScaleAdvanced records a within-epoch scale bump.
type ScaleAdvanced struct {
	NewScale string
}

func (ScaleAdvanced) EventType() string { return TypeScaleAdvanced }

func (e ScaleAdvanced) Event() *types.Event {
	return &types.Event{Type: TypeScaleAdvanced, Attributes: map[string]string{"newScale": e.NewScale}}
}

func addrString(b [20]byte) string {
	return crypto.MustNewAddress(crypto.FurPrefix, b[:]).String()
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func zeroBytes20(b [20]byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
