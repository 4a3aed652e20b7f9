package stabilitypool

import spoolerrors "github.com/furlabs/stabilitypool/core/errors"

// Local aliases onto the shared error taxonomy so the rest of the package
// can refer to them without repeating the import alias everywhere.
var (
	errNotTroveManager = spoolerrors.ErrNotTroveManager

	errZeroAmount              = spoolerrors.ErrZeroAmount
	errUnregisteredFrontEnd    = spoolerrors.ErrUnregisteredFrontEnd
	errFrontEndCannotDeposit   = spoolerrors.ErrFrontEndCannotDeposit
	errFrontEndAlreadyExists   = spoolerrors.ErrFrontEndAlreadyExists
	errFrontEndHasDeposit      = spoolerrors.ErrFrontEndHasDeposit
	errKickbackOutOfRange      = spoolerrors.ErrKickbackOutOfRange
	errNoDeposit               = spoolerrors.ErrNoDeposit
	errNoTrove                 = spoolerrors.ErrNoTrove
	errNoCollateralGain        = spoolerrors.ErrNoCollateralGain
	errUnderCollateralizedOpen = spoolerrors.ErrUnderCollateralizedOpen

	errProductNotPositive = spoolerrors.ErrProductNotPositive
	errOffsetExceedsTotal = spoolerrors.ErrOffsetExceedsTotal
)
