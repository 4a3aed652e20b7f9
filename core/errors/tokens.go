package errors

import stderrors "errors"

// Token ledger errors shared by the FURUSD and LOAN ledgers.
var (
	ErrInsufficientBalance = stderrors.New("tokens: insufficient balance")
	ErrTokenUnauthorized   = stderrors.New("tokens: caller is not an authorized collaborator")
	ErrLockContractUnknown = stderrors.New("tokens: address is not a registered lock contract")
)
