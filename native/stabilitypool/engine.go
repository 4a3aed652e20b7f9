// Package stabilitypool implements the liquidation-accounting core: the
// product-sum accumulator that lets every depositor's compounded deposit,
// collateral gain, and LOAN gain be derived in O(1) without iterating the
// depositor set on every liquidation.
package stabilitypool

import (
	"math/big"
	"time"

	"github.com/furlabs/stabilitypool/core/events"
	"github.com/furlabs/stabilitypool/crypto"
	"github.com/furlabs/stabilitypool/fixedpoint"
	nativecommon "github.com/furlabs/stabilitypool/native/common"
)

// stablecoinCollaborator is the subset of the FURUSD ledger the pool calls.
type stablecoinCollaborator interface {
	SendToPool(caller, from, poolAddr crypto.Address, amount *big.Int) error
	ReturnFromPool(caller, poolAddr, to crypto.Address, amount *big.Int) error
	Burn(caller, from crypto.Address, amount *big.Int) error
}

// activePoolCollaborator is the subset of ActivePool the pool calls during
// an offset.
type activePoolCollaborator interface {
	SendFURFI(caller crypto.Address, amount *big.Int) error
	DecreaseFURUSDDebt(caller crypto.Address, amount *big.Int) error
}

// communityIssuanceCollaborator is the subset of CommunityIssuance the pool
// calls on every state-changing operation.
type communityIssuanceCollaborator interface {
	IssueLOAN(caller crypto.Address, now time.Time) (*big.Int, error)
	SendLOAN(caller, to crypto.Address, amount *big.Int, now time.Time) error
}

// borrowerOperationsCollaborator is consulted only when a depositor reroutes
// a collateral gain into their trove. Trove state itself is out of scope;
// this is the narrow surface the pool depends on.
type borrowerOperationsCollaborator interface {
	MoveFURFIGainToTrove(caller, depositor crypto.Address, amount *big.Int, upperHint, lowerHint crypto.Address) error
	HasActiveTrove(depositor crypto.Address) (bool, error)
}

// systemHealth answers whether any trove is currently under-collateralized,
// standing in for the sorted-trove-list and price-oracle machinery a
// withdrawal precondition depends on but which is out of scope here.
type systemHealth interface {
	NoUnderCollateralizedTroveExists() (bool, error)
}

// Engine holds the Stability Pool's entire state and exposes its
// depositor-facing and Trove-Manager-facing operations. It exclusively owns
// every mapping in its fields; collaborators are only ever called out to,
// never back into, during the course of one operation.
type Engine struct {
	poolAddress  crypto.Address
	troveManager crypto.Address

	furusd     stablecoinCollaborator
	activePool activePoolCollaborator
	issuance   communityIssuanceCollaborator
	borrowerOp borrowerOperationsCollaborator
	health     systemHealth
	emitter    events.Emitter

	guard  nativecommon.ReentryGuard
	pauses nativecommon.PauseView

	deposits          map[string]*Deposit
	depositSnapshots  map[string]*DepositSnapshot
	frontEnds         map[string]*FrontEnd
	frontEndStakes    map[string]*big.Int
	frontEndSnapshots map[string]*FrontEndSnapshot

	p             *big.Int
	currentScale  fixedpoint.Counter
	currentEpoch  fixedpoint.Counter
	epochScaleToS map[epochScaleKey]*big.Int
	epochScaleToG map[epochScaleKey]*big.Int

	totalFURUSDDeposits *big.Int
	furfiBalance        *big.Int
	furfiPaid           map[string]*big.Int

	lastLOANError             *big.Int
	lastFURFIErrorOffset      *big.Int
	lastFURUSDLossErrorOffset *big.Int
}

// NewEngine constructs a Stability Pool at genesis: P=ONE, scale=epoch=0,
// every accumulator and error tracker zeroed.
func NewEngine(poolAddress crypto.Address) *Engine {
	return &Engine{
		poolAddress:               poolAddress,
		emitter:                   events.NoopEmitter{},
		deposits:                  make(map[string]*Deposit),
		depositSnapshots:          make(map[string]*DepositSnapshot),
		frontEnds:                 make(map[string]*FrontEnd),
		frontEndStakes:            make(map[string]*big.Int),
		frontEndSnapshots:         make(map[string]*FrontEndSnapshot),
		p:                         fixedpoint.Clone(fixedpoint.One),
		currentScale:              fixedpoint.ZeroCounter(),
		currentEpoch:              fixedpoint.ZeroCounter(),
		epochScaleToS:             make(map[epochScaleKey]*big.Int),
		epochScaleToG:             make(map[epochScaleKey]*big.Int),
		totalFURUSDDeposits:       big.NewInt(0),
		furfiBalance:              big.NewInt(0),
		furfiPaid:                 make(map[string]*big.Int),
		lastLOANError:             big.NewInt(0),
		lastFURFIErrorOffset:      big.NewInt(0),
		lastFURUSDLossErrorOffset: big.NewInt(0),
	}
}

// SetTroveManager wires the sole address authorized to call Offset.
func (e *Engine) SetTroveManager(addr crypto.Address) { e.troveManager = addr }

// SetFURUSDToken wires the stablecoin collaborator.
func (e *Engine) SetFURUSDToken(t stablecoinCollaborator) { e.furusd = t }

// SetActivePool wires the active pool collaborator.
func (e *Engine) SetActivePool(p activePoolCollaborator) { e.activePool = p }

// SetCommunityIssuance wires the LOAN issuance vault.
func (e *Engine) SetCommunityIssuance(i communityIssuanceCollaborator) { e.issuance = i }

// SetBorrowerOperations wires the Borrower Operations collaborator.
func (e *Engine) SetBorrowerOperations(b borrowerOperationsCollaborator) { e.borrowerOp = b }

// SetSystemHealth wires the under-collateralized-trove check.
func (e *Engine) SetSystemHealth(h systemHealth) { e.health = h }

// SetEmitter wires the event sink; defaults to a no-op emitter.
func (e *Engine) SetEmitter(em events.Emitter) {
	if em == nil {
		em = events.NoopEmitter{}
	}
	e.emitter = em
}

// SetPauses wires an operator pause switch. When unset every operation
// proceeds unconditionally.
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

const moduleName = "stabilitypool"

// --- map accessors, defaulting to empty records ---

func (e *Engine) getDeposit(addr crypto.Address) *Deposit {
	if d, ok := e.deposits[addr.String()]; ok {
		return d
	}
	return &Deposit{InitialValue: big.NewInt(0)}
}

func (e *Engine) putDeposit(addr crypto.Address, d *Deposit) { e.deposits[addr.String()] = d }

func (e *Engine) getDepositSnapshot(addr crypto.Address) *DepositSnapshot {
	if s, ok := e.depositSnapshots[addr.String()]; ok {
		return s
	}
	return emptyDepositSnapshot()
}

func (e *Engine) putDepositSnapshot(addr crypto.Address, s *DepositSnapshot) {
	e.depositSnapshots[addr.String()] = s
}

func (e *Engine) getFrontEnd(addr crypto.Address) *FrontEnd {
	if f, ok := e.frontEnds[addr.String()]; ok {
		return f
	}
	return &FrontEnd{KickbackRate: big.NewInt(0)}
}

func (e *Engine) putFrontEnd(addr crypto.Address, f *FrontEnd) { e.frontEnds[addr.String()] = f }

func (e *Engine) getFrontEndStake(addr crypto.Address) *big.Int {
	if s, ok := e.frontEndStakes[addr.String()]; ok {
		return fixedpoint.Clone(s)
	}
	return big.NewInt(0)
}

func (e *Engine) putFrontEndStake(addr crypto.Address, stake *big.Int) {
	e.frontEndStakes[addr.String()] = stake
}

func (e *Engine) getFrontEndSnapshot(addr crypto.Address) *FrontEndSnapshot {
	if s, ok := e.frontEndSnapshots[addr.String()]; ok {
		return s
	}
	return emptyFrontEndSnapshot()
}

func (e *Engine) putFrontEndSnapshot(addr crypto.Address, s *FrontEndSnapshot) {
	e.frontEndSnapshots[addr.String()] = s
}

func (e *Engine) effectiveKickbackRate(tag crypto.Address) *big.Int {
	if crypto.ZeroAddress(tag) {
		return fixedpoint.Clone(fixedpoint.One)
	}
	return fixedpoint.Clone(e.getFrontEnd(tag).KickbackRate)
}

// --- views (§6) ---

// GetCompoundedDeposit returns a depositor's current compounded balance.
func (e *Engine) GetCompoundedDeposit(addr crypto.Address) (*big.Int, error) {
	dep := e.getDeposit(addr)
	snap := e.getDepositSnapshot(addr)
	return e.compoundedFromSnapshot(dep.InitialValue, snap.P, snap.Epoch, snap.Scale)
}

// GetCompoundedFrontEndStake returns a front end's current compounded stake.
func (e *Engine) GetCompoundedFrontEndStake(addr crypto.Address) (*big.Int, error) {
	stake := e.getFrontEndStake(addr)
	snap := e.getFrontEndSnapshot(addr)
	return e.compoundedFromSnapshot(stake, snap.P, snap.Epoch, snap.Scale)
}

// GetDepositorCollateralGain returns a depositor's accrued, unpaid FURFI gain.
func (e *Engine) GetDepositorCollateralGain(addr crypto.Address) (*big.Int, error) {
	dep := e.getDeposit(addr)
	snap := e.getDepositSnapshot(addr)
	return e.gainFromSnapshot(dep.InitialValue, snap.S, e.sAt, snap.P, snap.Epoch, snap.Scale)
}

// GetDepositorLOANGain returns a depositor's kickback-weighted share of its
// accrued, unpaid LOAN gain.
func (e *Engine) GetDepositorLOANGain(addr crypto.Address) (*big.Int, error) {
	dep := e.getDeposit(addr)
	snap := e.getDepositSnapshot(addr)
	raw, err := e.gainFromSnapshot(dep.InitialValue, snap.G, e.gAt, snap.P, snap.Epoch, snap.Scale)
	if err != nil {
		return nil, err
	}
	kickback := e.effectiveKickbackRate(dep.FrontEndTag)
	return fixedpoint.MulDiv(raw, kickback, fixedpoint.One)
}

// GetFrontEndLOANGain returns a front end's complement-weighted share of its
// accrued, unpaid LOAN gain.
func (e *Engine) GetFrontEndLOANGain(addr crypto.Address) (*big.Int, error) {
	fe := e.getFrontEnd(addr)
	if !fe.Registered {
		return big.NewInt(0), nil
	}
	stake := e.getFrontEndStake(addr)
	snap := e.getFrontEndSnapshot(addr)
	raw, err := e.gainFromSnapshot(stake, snap.G, e.gAt, snap.P, snap.Epoch, snap.Scale)
	if err != nil {
		return nil, err
	}
	complement, err := fixedpoint.Sub(fixedpoint.One, fe.KickbackRate)
	if err != nil {
		return nil, err
	}
	return fixedpoint.MulDiv(raw, complement, fixedpoint.One)
}

// GetFURFIBalance returns the pool's authoritative collateral mirror.
func (e *Engine) GetFURFIBalance() *big.Int { return fixedpoint.Clone(e.furfiBalance) }

// GetTotalFURUSDDeposits returns the aggregate of all depositors' principal.
func (e *Engine) GetTotalFURUSDDeposits() *big.Int { return fixedpoint.Clone(e.totalFURUSDDeposits) }

// GetFURFIPaid returns the cumulative collateral the pool has paid out to
// addr, e.g. for an external sweep process to reconcile against what it has
// actually transferred on-chain.
func (e *Engine) GetFURFIPaid(addr crypto.Address) *big.Int {
	if existing, ok := e.furfiPaid[addr.String()]; ok {
		return fixedpoint.Clone(existing)
	}
	return big.NewInt(0)
}

// payFURFI records amount of collateral as paid out to to. The pool holds
// its FURFI collateral directly once Offset has seized it from ActivePool;
// paying a depositor or trove out is a transfer within that held balance,
// never a second seizure from ActivePool.
func (e *Engine) payFURFI(to crypto.Address, amount *big.Int) error {
	sum, err := fixedpoint.Add(e.GetFURFIPaid(to), amount)
	if err != nil {
		return err
	}
	e.furfiPaid[to.String()] = sum
	return nil
}

// --- internal helpers shared by every state-changing operation ---

func (e *Engine) triggerLOANIssuance(now time.Time) error {
	issued, err := e.issuance.IssueLOAN(e.poolAddress, now)
	if err != nil {
		return err
	}
	if fixedpoint.IsZero(issued) || fixedpoint.IsZero(e.totalFURUSDDeposits) {
		return nil
	}
	perUnit, newError, err := forwardPerUnit(issued, e.lastLOANError, e.totalFURUSDDeposits)
	if err != nil {
		return err
	}
	e.lastLOANError = newError
	delta, err := fixedpoint.Mul(perUnit, e.p)
	if err != nil {
		return err
	}
	if err := e.addToG(e.currentEpoch, e.currentScale, delta); err != nil {
		return err
	}
	return nil
}

// payOutLOANGains pays a depositor's and (if tagged) its front end's accrued
// LOAN gains, using each side's own pre-operation snapshot.
func (e *Engine) payOutLOANGains(depositor, tag crypto.Address, now time.Time) error {
	depositorGain, err := e.GetDepositorLOANGain(depositor)
	if err != nil {
		return err
	}
	if !fixedpoint.IsZero(depositorGain) {
		if err := e.issuance.SendLOAN(e.poolAddress, depositor, depositorGain, now); err != nil {
			return err
		}
	}
	if crypto.ZeroAddress(tag) {
		return nil
	}
	frontEndGain, err := e.GetFrontEndLOANGain(tag)
	if err != nil {
		return err
	}
	if fixedpoint.IsZero(frontEndGain) {
		return nil
	}
	return e.issuance.SendLOAN(e.poolAddress, tag, frontEndGain, now)
}

func (e *Engine) updateDepositAndSnapshots(addr, tag crypto.Address, newValue *big.Int) {
	if fixedpoint.IsZero(newValue) {
		e.putDeposit(addr, &Deposit{InitialValue: big.NewInt(0)})
		e.putDepositSnapshot(addr, emptyDepositSnapshot())
		return
	}
	e.putDeposit(addr, &Deposit{InitialValue: newValue, FrontEndTag: tag})
	e.putDepositSnapshot(addr, &DepositSnapshot{
		P:     fixedpoint.Clone(e.p),
		S:     e.sAt(e.currentEpoch, e.currentScale),
		G:     e.gAt(e.currentEpoch, e.currentScale),
		Scale: e.currentScale,
		Epoch: e.currentEpoch,
	})
}

func (e *Engine) updateFrontEndStakeAndSnapshots(tag crypto.Address, newStake *big.Int) {
	if crypto.ZeroAddress(tag) {
		return
	}
	if fixedpoint.IsZero(newStake) {
		e.putFrontEndStake(tag, big.NewInt(0))
		e.putFrontEndSnapshot(tag, emptyFrontEndSnapshot())
		return
	}
	e.putFrontEndStake(tag, newStake)
	e.putFrontEndSnapshot(tag, &FrontEndSnapshot{
		P:     fixedpoint.Clone(e.p),
		G:     e.gAt(e.currentEpoch, e.currentScale),
		Scale: e.currentScale,
		Epoch: e.currentEpoch,
	})
}

func addr20(a crypto.Address) [20]byte {
	var out [20]byte
	if crypto.ZeroAddress(a) {
		return out
	}
	copy(out[:], a.Bytes())
	return out
}

// --- operations (§5) ---

// ProvideToStabilityPool deposits amount FURUSD on behalf of caller, tagging
// it with frontEndTag on a fresh deposit (the zero address for untagged).
// An existing deposit keeps its original tag regardless of what is passed.
func (e *Engine) ProvideToStabilityPool(caller crypto.Address, amount *big.Int, frontEndTag crypto.Address, now time.Time) error {
	if err := e.guard.Enter(); err != nil {
		return err
	}
	defer e.guard.Exit()
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}

	if amount == nil || amount.Sign() <= 0 {
		return errZeroAmount
	}
	if e.getFrontEnd(caller).Registered {
		return errFrontEndCannotDeposit
	}
	if !crypto.ZeroAddress(frontEndTag) && !e.getFrontEnd(frontEndTag).Registered {
		return errUnregisteredFrontEnd
	}

	if err := e.triggerLOANIssuance(now); err != nil {
		return err
	}

	dep := e.getDeposit(caller)
	snap := e.getDepositSnapshot(caller)
	tag := dep.FrontEndTag
	if fixedpoint.IsZero(dep.InitialValue) {
		tag = frontEndTag
	}

	collGain, err := e.gainFromSnapshot(dep.InitialValue, snap.S, e.sAt, snap.P, snap.Epoch, snap.Scale)
	if err != nil {
		return err
	}
	compoundedFrontEndStake, err := e.GetCompoundedFrontEndStake(tag)
	if err != nil {
		return err
	}
	compoundedDeposit, err := e.compoundedFromSnapshot(dep.InitialValue, snap.P, snap.Epoch, snap.Scale)
	if err != nil {
		return err
	}
	furusdLoss, err := fixedpoint.Sub(dep.InitialValue, compoundedDeposit)
	if err != nil {
		return err
	}

	if err := e.payOutLOANGains(caller, dep.FrontEndTag, now); err != nil {
		return err
	}

	newFrontEndStake, err := fixedpoint.Add(compoundedFrontEndStake, amount)
	if err != nil {
		return err
	}
	e.updateFrontEndStakeAndSnapshots(tag, newFrontEndStake)

	if err := e.furusd.SendToPool(e.poolAddress, caller, e.poolAddress, amount); err != nil {
		return err
	}
	total, err := fixedpoint.Add(e.totalFURUSDDeposits, amount)
	if err != nil {
		return err
	}
	e.totalFURUSDDeposits = total

	newDeposit, err := fixedpoint.Add(compoundedDeposit, amount)
	if err != nil {
		return err
	}
	e.updateDepositAndSnapshots(caller, tag, newDeposit)

	e.emitter.Emit(events.StabilityDeposit{
		Depositor:      addr20(caller),
		FrontEndTag:    addr20(tag),
		Amount:         amount,
		NewDeposit:     newDeposit,
		FURUSDLoss:     furusdLoss,
		CollateralPaid: collGain,
	})

	if !fixedpoint.IsZero(collGain) {
		e.furfiBalance, err = fixedpoint.Sub(e.furfiBalance, collGain)
		if err != nil {
			return err
		}
		if err := e.payFURFI(caller, collGain); err != nil {
			return err
		}
	}
	return nil
}

// WithdrawFromStabilityPool withdraws up to amount FURUSD of caller's
// compounded deposit, paying out its accrued LOAN and collateral gains.
func (e *Engine) WithdrawFromStabilityPool(caller crypto.Address, amount *big.Int, now time.Time) error {
	if err := e.guard.Enter(); err != nil {
		return err
	}
	defer e.guard.Exit()
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}

	if amount == nil || amount.Sign() < 0 {
		return errZeroAmount
	}
	dep := e.getDeposit(caller)
	if fixedpoint.IsZero(dep.InitialValue) {
		return errNoDeposit
	}
	if amount.Sign() > 0 {
		ok, err := e.health.NoUnderCollateralizedTroveExists()
		if err != nil {
			return err
		}
		if !ok {
			return errUnderCollateralizedOpen
		}
	}

	if err := e.triggerLOANIssuance(now); err != nil {
		return err
	}

	tag := dep.FrontEndTag
	snap := e.getDepositSnapshot(caller)

	collGain, err := e.gainFromSnapshot(dep.InitialValue, snap.S, e.sAt, snap.P, snap.Epoch, snap.Scale)
	if err != nil {
		return err
	}
	compoundedFrontEndStake, err := e.GetCompoundedFrontEndStake(tag)
	if err != nil {
		return err
	}
	compoundedDeposit, err := e.compoundedFromSnapshot(dep.InitialValue, snap.P, snap.Epoch, snap.Scale)
	if err != nil {
		return err
	}
	withdrawAmount := amount
	if withdrawAmount.Cmp(compoundedDeposit) > 0 {
		withdrawAmount = compoundedDeposit
	}

	if err := e.payOutLOANGains(caller, tag, now); err != nil {
		return err
	}

	newFrontEndStake, err := fixedpoint.Sub(compoundedFrontEndStake, withdrawAmount)
	if err != nil {
		return err
	}
	e.updateFrontEndStakeAndSnapshots(tag, newFrontEndStake)

	if !fixedpoint.IsZero(withdrawAmount) {
		if err := e.furusd.ReturnFromPool(e.poolAddress, e.poolAddress, caller, withdrawAmount); err != nil {
			return err
		}
		total, err := fixedpoint.Sub(e.totalFURUSDDeposits, withdrawAmount)
		if err != nil {
			return err
		}
		e.totalFURUSDDeposits = total
	}

	newDeposit, err := fixedpoint.Sub(compoundedDeposit, withdrawAmount)
	if err != nil {
		return err
	}
	e.updateDepositAndSnapshots(caller, tag, newDeposit)

	e.emitter.Emit(events.StabilityWithdraw{
		Depositor:      addr20(caller),
		AmountSent:     withdrawAmount,
		NewDeposit:     newDeposit,
		CollateralPaid: collGain,
	})

	if !fixedpoint.IsZero(collGain) {
		e.furfiBalance, err = fixedpoint.Sub(e.furfiBalance, collGain)
		if err != nil {
			return err
		}
		if err := e.payFURFI(caller, collGain); err != nil {
			return err
		}
	}
	return nil
}

// WithdrawCollateralGainToTrove reroutes caller's accrued collateral gain
// directly into their trove instead of paying it out to their own balance.
// The compounded deposit itself is left in the pool.
func (e *Engine) WithdrawCollateralGainToTrove(caller, upperHint, lowerHint crypto.Address, now time.Time) error {
	if err := e.guard.Enter(); err != nil {
		return err
	}
	defer e.guard.Exit()
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}

	dep := e.getDeposit(caller)
	if fixedpoint.IsZero(dep.InitialValue) {
		return errNoDeposit
	}
	hasTrove, err := e.borrowerOp.HasActiveTrove(caller)
	if err != nil {
		return err
	}
	if !hasTrove {
		return errNoTrove
	}

	snap := e.getDepositSnapshot(caller)
	collGain, err := e.gainFromSnapshot(dep.InitialValue, snap.S, e.sAt, snap.P, snap.Epoch, snap.Scale)
	if err != nil {
		return err
	}
	if fixedpoint.IsZero(collGain) {
		return errNoCollateralGain
	}

	if err := e.triggerLOANIssuance(now); err != nil {
		return err
	}

	tag := dep.FrontEndTag
	compoundedFrontEndStake, err := e.GetCompoundedFrontEndStake(tag)
	if err != nil {
		return err
	}
	compoundedDeposit, err := e.compoundedFromSnapshot(dep.InitialValue, snap.P, snap.Epoch, snap.Scale)
	if err != nil {
		return err
	}

	if err := e.payOutLOANGains(caller, tag, now); err != nil {
		return err
	}

	e.updateFrontEndStakeAndSnapshots(tag, compoundedFrontEndStake)
	e.updateDepositAndSnapshots(caller, tag, compoundedDeposit)

	e.emitter.Emit(events.CollateralGainToTrove{
		Depositor:  addr20(caller),
		Collateral: collGain,
	})

	// The collateral already left ActivePool for the pool's own balance
	// during Offset; it never returns to ActivePool here. MoveFURFIGainToTrove
	// is the only transfer leg — Borrower Operations routes it into the
	// trove directly.
	e.furfiBalance, err = fixedpoint.Sub(e.furfiBalance, collGain)
	if err != nil {
		return err
	}
	return e.borrowerOp.MoveFURFIGainToTrove(e.poolAddress, caller, collGain, upperHint, lowerHint)
}

// RegisterFrontEnd registers caller as a front end with the given kickback
// rate, in [0, ONE]. A front end can never deposit, and registration is
// permanent.
func (e *Engine) RegisterFrontEnd(caller crypto.Address, kickbackRate *big.Int) error {
	if err := e.guard.Enter(); err != nil {
		return err
	}
	defer e.guard.Exit()
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}

	if e.getFrontEnd(caller).Registered {
		return errFrontEndAlreadyExists
	}
	if !fixedpoint.IsZero(e.getDeposit(caller).InitialValue) {
		return errFrontEndHasDeposit
	}
	if kickbackRate == nil || kickbackRate.Sign() < 0 || kickbackRate.Cmp(fixedpoint.One) > 0 {
		return errKickbackOutOfRange
	}

	e.putFrontEnd(caller, &FrontEnd{KickbackRate: fixedpoint.Clone(kickbackRate), Registered: true})
	e.putFrontEndSnapshot(caller, &FrontEndSnapshot{
		P:     fixedpoint.Clone(e.p),
		G:     e.gAt(e.currentEpoch, e.currentScale),
		Scale: e.currentScale,
		Epoch: e.currentEpoch,
	})

	e.emitter.Emit(events.FrontEndRegistered{
		FrontEnd:     addr20(caller),
		KickbackRate: kickbackRate,
	})
	return nil
}

// Offset absorbs debtToOffset FURUSD of liquidated debt and collToAdd FURFI
// of seized collateral into the pool, distributing the collateral to current
// depositors pro rata and burning the offset debt out of circulation. Caller
// must be the wired Trove Manager.
func (e *Engine) Offset(caller crypto.Address, debtToOffset, collToAdd *big.Int, now time.Time) error {
	if err := e.guard.Enter(); err != nil {
		return err
	}
	defer e.guard.Exit()
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}

	if caller.String() != e.troveManager.String() {
		return errNotTroveManager
	}
	if fixedpoint.IsZero(e.totalFURUSDDeposits) || fixedpoint.IsZero(debtToOffset) {
		return nil
	}
	if debtToOffset.Cmp(e.totalFURUSDDeposits) > 0 {
		return errOffsetExceedsTotal
	}

	if err := e.triggerLOANIssuance(now); err != nil {
		return err
	}

	furfiPerUnit, newFURFIError, err := forwardPerUnit(collToAdd, e.lastFURFIErrorOffset, e.totalFURUSDDeposits)
	if err != nil {
		return err
	}
	e.lastFURFIErrorOffset = newFURFIError

	var lossPerUnit *big.Int
	if debtToOffset.Cmp(e.totalFURUSDDeposits) == 0 {
		lossPerUnit = fixedpoint.Clone(fixedpoint.One)
		e.lastFURUSDLossErrorOffset = big.NewInt(0)
	} else {
		scaledDebt, err := fixedpoint.Mul(debtToOffset, fixedpoint.One)
		if err != nil {
			return err
		}
		numerator, err := fixedpoint.Sub(scaledDebt, e.lastFURUSDLossErrorOffset)
		if err != nil {
			return err
		}
		floor, err := fixedpoint.Div(numerator, e.totalFURUSDDeposits)
		if err != nil {
			return err
		}
		lossPerUnit, err = fixedpoint.Add(floor, big.NewInt(1))
		if err != nil {
			return err
		}
		consumed, err := fixedpoint.Mul(lossPerUnit, e.totalFURUSDDeposits)
		if err != nil {
			return err
		}
		residue, err := fixedpoint.Sub(consumed, numerator)
		if err != nil {
			return err
		}
		e.lastFURUSDLossErrorOffset = residue
	}

	sDelta, err := fixedpoint.Mul(furfiPerUnit, e.p)
	if err != nil {
		return err
	}
	if err := e.addToS(e.currentEpoch, e.currentScale, sDelta); err != nil {
		return err
	}

	prevEpoch, prevScale := e.currentEpoch, e.currentScale
	depleted, err := e.updateProductAndScale(lossPerUnit)
	if err != nil {
		return err
	}
	if depleted {
		e.emitter.Emit(events.EpochAdvanced{NewEpoch: e.currentEpoch.String()})
	} else if e.currentScale.Cmp(prevScale) != 0 || e.currentEpoch.Cmp(prevEpoch) != 0 {
		e.emitter.Emit(events.ScaleAdvanced{NewScale: e.currentScale.String()})
	}

	if err := e.activePool.DecreaseFURUSDDebt(e.poolAddress, debtToOffset); err != nil {
		return err
	}
	newTotal, err := fixedpoint.Sub(e.totalFURUSDDeposits, debtToOffset)
	if err != nil {
		return err
	}
	e.totalFURUSDDeposits = newTotal
	if err := e.furusd.Burn(e.poolAddress, e.poolAddress, debtToOffset); err != nil {
		return err
	}
	if err := e.activePool.SendFURFI(e.poolAddress, collToAdd); err != nil {
		return err
	}
	newFURFI, err := fixedpoint.Add(e.furfiBalance, collToAdd)
	if err != nil {
		return err
	}
	e.furfiBalance = newFURFI

	e.emitter.Emit(events.StabilityOffset{
		DebtOffset:         debtToOffset,
		CollateralAdded:    collToAdd,
		TotalDepositsAfter: e.totalFURUSDDeposits,
		FURFIBalanceAfter:  e.furfiBalance,
		ProductAfter:       e.p,
	})
	return nil
}
