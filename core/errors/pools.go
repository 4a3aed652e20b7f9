package errors

import stderrors "errors"

// Ledger pool errors: ActivePool, DefaultPool, and CollSurplusPool all share
// this taxonomy since they are gated accumulators with the same shape of
// failure modes.
var (
	ErrPoolNotWired          = stderrors.New("pools: caller collaborator not wired")
	ErrPoolUnauthorized      = stderrors.New("pools: caller is not an authorized collaborator")
	ErrPoolInsufficientFURFI = stderrors.New("pools: insufficient FURFI balance")
	ErrPoolInsufficientDebt  = stderrors.New("pools: insufficient FURUSD debt to decrease")
	ErrPoolNoSurplus         = stderrors.New("pools: address has no claimable surplus")
)
