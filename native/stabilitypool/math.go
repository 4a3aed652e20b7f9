package stabilitypool

import (
	"math/big"

	"github.com/furlabs/stabilitypool/fixedpoint"
)

// sAt returns the recorded collateral-gain sum for (epoch, scale), or zero
// if nothing has ever been recorded there.
func (e *Engine) sAt(epoch, scale fixedpoint.Counter) *big.Int {
	if v, ok := e.epochScaleToS[keyFor(epoch, scale)]; ok {
		return fixedpoint.Clone(v)
	}
	return big.NewInt(0)
}

// gAt returns the recorded LOAN-issuance sum for (epoch, scale), or zero.
func (e *Engine) gAt(epoch, scale fixedpoint.Counter) *big.Int {
	if v, ok := e.epochScaleToG[keyFor(epoch, scale)]; ok {
		return fixedpoint.Clone(v)
	}
	return big.NewInt(0)
}

// addToS adds delta to the running collateral-gain sum at (epoch, scale).
func (e *Engine) addToS(epoch, scale fixedpoint.Counter, delta *big.Int) error {
	sum, err := fixedpoint.Add(e.sAt(epoch, scale), delta)
	if err != nil {
		return err
	}
	e.epochScaleToS[keyFor(epoch, scale)] = sum
	return nil
}

// addToG adds delta to the running LOAN-issuance sum at (epoch, scale).
func (e *Engine) addToG(epoch, scale fixedpoint.Counter, delta *big.Int) error {
	sum, err := fixedpoint.Add(e.gAt(epoch, scale), delta)
	if err != nil {
		return err
	}
	e.epochScaleToG[keyFor(epoch, scale)] = sum
	return nil
}

// annihilated reports whether a stake snapshotted at (snapEpoch, snapScale)
// has nothing left to compound, given the pool's current position: a
// strictly earlier epoch, or more than one scale step behind in the current
// epoch. Gains are not gated on it; see gainFromSnapshot.
func (e *Engine) annihilated(snapEpoch, snapScale fixedpoint.Counter) bool {
	if snapEpoch.Cmp(e.currentEpoch) != 0 {
		return true
	}
	diff := new(big.Int).Sub(e.currentScale.Int(), snapScale.Int())
	return diff.Cmp(big.NewInt(1)) > 0
}

// compoundedFromSnapshot computes d0 * P_now / P0, applying the one-scale
// normalization when exactly one scale boundary has been crossed since the
// snapshot, and zero if the stake has been annihilated.
func (e *Engine) compoundedFromSnapshot(initial, snapP *big.Int, snapEpoch, snapScale fixedpoint.Counter) (*big.Int, error) {
	if fixedpoint.IsZero(initial) || e.annihilated(snapEpoch, snapScale) {
		return big.NewInt(0), nil
	}
	if fixedpoint.IsZero(snapP) {
		return big.NewInt(0), nil
	}
	diff := new(big.Int).Sub(e.currentScale.Int(), snapScale.Int())
	compounded, err := fixedpoint.MulDiv(initial, e.p, snapP)
	if err != nil {
		return nil, err
	}
	if diff.Cmp(big.NewInt(1)) == 0 {
		compounded, err = fixedpoint.Div(compounded, fixedpoint.ScaleFactor)
		if err != nil {
			return nil, err
		}
	}
	return compounded, nil
}

// gainFromSnapshot computes d0 * (sum_now − sum0) / P0 / ONE, where sum_now
// is read from the (epoch, scale) cell the snapshot was taken at, plus a
// second portion from the next scale cell divided by SCALE_FACTOR when
// exactly one boundary has been crossed. This underlies both the collateral
// gain (summed in S) and the LOAN gain (summed in G) — the same two-term
// correction, over a different running sum.
//
// Unlike compoundedFromSnapshot, this never zeroes out on an epoch or scale
// mismatch: a deposit wiped out by the very offset that produced its gain
// must still be paid that gain, and the sum cells for a now-superseded epoch
// are frozen in place (every later offset writes only into the current
// epoch's cells), so reading them after the fact is always safe.
func (e *Engine) gainFromSnapshot(initial, snap0 *big.Int, sumAt func(epoch, scale fixedpoint.Counter) *big.Int, snapP *big.Int, snapEpoch, snapScale fixedpoint.Counter) (*big.Int, error) {
	if fixedpoint.IsZero(initial) {
		return big.NewInt(0), nil
	}
	if fixedpoint.IsZero(snapP) {
		return big.NewInt(0), nil
	}
	firstCellSum := sumAt(snapEpoch, snapScale)
	firstPortion, err := fixedpoint.Sub(firstCellSum, snap0)
	if err != nil {
		return nil, err
	}
	nextScale, err := snapScale.Inc()
	if err != nil {
		return nil, err
	}
	secondCellSum := sumAt(snapEpoch, nextScale)
	secondPortion, err := fixedpoint.Div(secondCellSum, fixedpoint.ScaleFactor)
	if err != nil {
		return nil, err
	}
	totalPortion, err := fixedpoint.Add(firstPortion, secondPortion)
	if err != nil {
		return nil, err
	}
	numerator, err := fixedpoint.Mul(initial, totalPortion)
	if err != nil {
		return nil, err
	}
	byP, err := fixedpoint.Div(numerator, snapP)
	if err != nil {
		return nil, err
	}
	return fixedpoint.Div(byP, fixedpoint.One)
}

// forwardPerUnit computes a feedback-corrected per-unit ratio for an amount
// being distributed over total_FURUSD_deposits, returning the new residue
// to carry forward. This is used for both the FURFI gain per unit and the
// LOAN issuance per unit — the two channels that only ever add to the pool.
func forwardPerUnit(amount, lastError, total *big.Int) (perUnit, newError *big.Int, err error) {
	scaled, err := fixedpoint.Mul(amount, fixedpoint.One)
	if err != nil {
		return nil, nil, err
	}
	numerator, err := fixedpoint.Add(scaled, lastError)
	if err != nil {
		return nil, nil, err
	}
	perUnit, err = fixedpoint.Div(numerator, total)
	if err != nil {
		return nil, nil, err
	}
	consumed, err := fixedpoint.Mul(perUnit, total)
	if err != nil {
		return nil, nil, err
	}
	newError, err = fixedpoint.Sub(numerator, consumed)
	if err != nil {
		return nil, nil, err
	}
	return perUnit, newError, nil
}

// updateProductAndScale applies §4.1's P/scale/epoch transition for a given
// loss-per-unit factor, returning whether the pool was fully depleted (the
// epoch-advance branch).
func (e *Engine) updateProductAndScale(lossPerUnit *big.Int) (depleted bool, err error) {
	factor, err := fixedpoint.Sub(fixedpoint.One, lossPerUnit)
	if err != nil {
		return false, err
	}
	if fixedpoint.IsZero(factor) {
		e.p = fixedpoint.Clone(fixedpoint.One)
		nextEpoch, err := e.currentEpoch.Inc()
		if err != nil {
			return false, err
		}
		e.currentEpoch = nextEpoch
		e.currentScale = fixedpoint.ZeroCounter()
		return true, nil
	}
	newP, err := fixedpoint.MulDiv(e.p, factor, fixedpoint.One)
	if err != nil {
		return false, err
	}
	if newP.Cmp(fixedpoint.ScaleFactor) < 0 {
		rescaled, err := fixedpoint.Mul(newP, fixedpoint.ScaleFactor)
		if err != nil {
			return false, err
		}
		e.p = rescaled
		nextScale, err := e.currentScale.Inc()
		if err != nil {
			return false, err
		}
		e.currentScale = nextScale
	} else {
		e.p = newP
	}
	if fixedpoint.IsZero(e.p) {
		return false, errProductNotPositive
	}
	return false, nil
}
