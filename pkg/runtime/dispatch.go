package runtime

import (
	"github.com/pkg/errors"

	"github.com/code-payments/program-sdk-go/pkg/schema"
)

// dispatch matches the payload's leading tag against the program's routing
// table and returns the selected instruction along with its argument bytes.
//
// A single-instruction program skips the tag entirely: the whole payload is
// arguments. The other two shapes read the 8-byte prefix; whether the binder
// then runs per instruction or once for a shared layout is the program's
// dispatch mode, handled by the caller.
func dispatch(program *schema.Program, payload []byte) (*schema.Instruction, []byte, error) {
	if program.Mode() == schema.DispatchSingle {
		return program.Single(), payload, nil
	}

	if len(payload) < schema.DiscriminatorSize {
		return nil, nil, errors.Wrap(ErrInvalidInput, "payload shorter than discriminator")
	}

	var tag schema.Discriminator
	copy(tag[:], payload)

	instruction, ok := program.Lookup(tag)
	if !ok {
		return nil, nil, errors.Wrapf(ErrUnknownInstruction, "tag %x", tag)
	}
	return instruction, payload[schema.DiscriminatorSize:], nil
}
