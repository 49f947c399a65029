package runtime

import (
	"github.com/pkg/errors"
)

// Entrypoint status codes. The host receives a single unsigned word: zero on
// success, non-zero on failure, with no structured error channel beside it.
const (
	StatusSuccess uint64 = iota
	StatusInvalidInput
	StatusAccountMissing
	StatusDataSizeMismatch
	StatusUnknownInstruction
	StatusArgsDecodeError
	StatusInvokeFailed
	StatusCallDepthExceeded
	StatusHandlerFault
	StatusInvalidAccountData
)

// Constraint violations map to StatusConstraintBase plus the kind, so the
// failing check is recoverable from the bare status.
const StatusConstraintBase uint64 = 10

// Custom handler errors surface as StatusCustomBase plus their code.
const StatusCustomBase uint64 = 0x100

// StatusFromError maps the error taxonomy onto the single status word the
// entrypoint returns.
func StatusFromError(err error) uint64 {
	if err == nil {
		return StatusSuccess
	}

	var constraintErr *ConstraintError
	if errors.As(err, &constraintErr) {
		return StatusConstraintBase + uint64(constraintErr.Kind)
	}

	var customErr *CustomError
	if errors.As(err, &customErr) {
		return StatusCustomBase + uint64(customErr.Code)
	}

	switch errors.Cause(err) {
	case ErrInvalidInput:
		return StatusInvalidInput
	case ErrAccountMissing:
		return StatusAccountMissing
	case ErrDataSizeMismatch:
		return StatusDataSizeMismatch
	case ErrInvalidAccountData:
		return StatusInvalidAccountData
	case ErrUnknownInstruction:
		return StatusUnknownInstruction
	case ErrArgsDecode:
		return StatusArgsDecodeError
	case ErrInvokeFailed:
		return StatusInvokeFailed
	case ErrCallDepthExceeded:
		return StatusCallDepthExceeded
	}

	// Ordering bugs, missing handlers and plain handler errors all fault the
	// call without a dedicated code.
	return StatusHandlerFault
}
