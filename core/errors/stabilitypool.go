// Package errors collects the stability pool's sentinel errors, grouped by
// the four-category taxonomy the error handling design calls for:
// authorization, precondition, arithmetic, and invariant. Callers classify
// a failure with errors.Is against these values; every one of them aborts
// its operation with no state change.
package errors

import (
	stderrors "errors"

	"github.com/furlabs/stabilitypool/fixedpoint"
)

// Authorization errors: the caller is not the wired collaborator entitled
// to invoke the operation.
var (
	ErrNotTroveManager = stderrors.New("stabilitypool: caller is not the trove manager")
	ErrNotLockOwner    = stderrors.New("stabilitypool: caller is not the lock beneficiary")
)

// Precondition errors: the request itself is invalid given current state.
var (
	ErrZeroAmount              = stderrors.New("stabilitypool: amount must be positive")
	ErrUnregisteredFrontEnd    = stderrors.New("stabilitypool: front end tag is not registered")
	ErrFrontEndCannotDeposit   = stderrors.New("stabilitypool: registered front ends cannot hold deposits")
	ErrFrontEndAlreadyExists   = stderrors.New("stabilitypool: front end already registered")
	ErrFrontEndHasDeposit      = stderrors.New("stabilitypool: caller has an existing deposit")
	ErrKickbackOutOfRange      = stderrors.New("stabilitypool: kickback rate exceeds ONE")
	ErrNoDeposit               = stderrors.New("stabilitypool: caller has no recorded deposit")
	ErrNoTrove                 = stderrors.New("stabilitypool: caller has no active trove")
	ErrNoCollateralGain        = stderrors.New("stabilitypool: caller has no collateral gain")
	ErrUnderCollateralizedOpen = stderrors.New("stabilitypool: an under-collateralized trove exists")
	ErrLockAlreadyClaimed      = stderrors.New("stabilitypool: lock has already released its balance")
	ErrLockNotMatured          = stderrors.New("stabilitypool: lock has not reached its release time")
	ErrTransferRestricted      = stderrors.New("stabilitypool: transfer restricted during the admin lock year")
)

// Arithmetic errors surface from the fixedpoint package; re-exported here so
// callers can errors.Is against a single taxonomy without importing fixedpoint.
var (
	ErrArithmeticOverflow  = fixedpoint.ErrOverflow
	ErrArithmeticUnderflow = fixedpoint.ErrUnderflow
	ErrDivideByZero        = fixedpoint.ErrDivideByZero
)

// Invariant errors indicate a structural assertion failed; a breach here
// indicates a bug, and the whole operation must abort.
var (
	ErrProductNotPositive = stderrors.New("stabilitypool: invariant violated: P is not positive")
	ErrOffsetExceedsTotal = stderrors.New("stabilitypool: invariant violated: debt offset exceeds total deposits")
)
