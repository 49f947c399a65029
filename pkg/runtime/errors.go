package runtime

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidInput marks a malformed input buffer: short header, record
	// data running past the end, or an unreadable payload length.
	ErrInvalidInput = errors.New("invalid input buffer")

	// ErrAccountMissing marks fewer records than descriptors.
	ErrAccountMissing = errors.New("account missing")

	// ErrDataSizeMismatch marks a typed descriptor whose declared size does
	// not equal the bound record's live data length.
	ErrDataSizeMismatch = errors.New("account data size mismatch")

	// ErrInvalidAccountData marks typed account data whose discriminator tag
	// does not match the declared shape.
	ErrInvalidAccountData = errors.New("invalid account data")

	// ErrUnknownInstruction marks a payload prefix matching no declared
	// instruction.
	ErrUnknownInstruction = errors.New("unknown instruction")

	// ErrArgsDecode marks instruction data too short for the declared
	// argument layout.
	ErrArgsDecode = errors.New("failed to decode arguments")

	// ErrInvokeFailed marks a cross-program call that could not be built or
	// that the callee failed.
	ErrInvokeFailed = errors.New("invoke failed")

	// ErrCallDepthExceeded marks a nested call past the host's depth limit.
	ErrCallDepthExceeded = errors.New("call depth exceeded")

	// ErrTooManyAccounts marks an account table with a duplicate whose
	// original record sits past the range of the one-byte reference index.
	ErrTooManyAccounts = errors.New("account table too large to encode")

	// ErrConstraintOrdering marks a has-one constraint referencing a
	// descriptor that is not bound yet. Descriptor order in the schema must
	// place dependencies first; the validator never reorders.
	ErrConstraintOrdering = errors.New("constraint references unbound descriptor")

	// ErrNoHandler marks a dispatched instruction with no registered handler.
	ErrNoHandler = errors.New("no handler registered")
)

// ConstraintKind names the failing check of a ConstraintError.
type ConstraintKind uint8

const (
	ConstraintSigner ConstraintKind = iota
	ConstraintWritable
	ConstraintOwner
	ConstraintAddress
	ConstraintHasOne
	ConstraintSeeds
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintSigner:
		return "signer"
	case ConstraintWritable:
		return "writable"
	case ConstraintOwner:
		return "owner"
	case ConstraintAddress:
		return "address"
	case ConstraintHasOne:
		return "has_one"
	case ConstraintSeeds:
		return "seeds"
	}
	return "unknown"
}

// ConstraintError reports the first failing check for an account. Checks
// short-circuit, so exactly one kind is ever reported per call.
type ConstraintError struct {
	Kind    ConstraintKind
	Account string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint violation: %s on account %q", e.Kind, e.Account)
}

// CustomError carries a handler-chosen status code across the entrypoint
// boundary. The numeric status surfaced to the host is StatusCustomBase plus
// the code.
type CustomError struct {
	Code uint32
	Name string
}

// NewCustomError defines a named handler error.
func NewCustomError(code uint32, name string) *CustomError {
	return &CustomError{Code: code, Name: name}
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%s (custom program error %d)", e.Name, e.Code)
}
