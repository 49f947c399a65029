package runtime

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/program-sdk-go/pkg/schema"
)

func TestDispatch_PerInstruction(t *testing.T) {
	keys := generateKeys(t, 1)

	transfer := schema.NewInstruction("transfer", nil, schema.Args{{Name: "amount", Type: schema.TypeUint64}})
	closeIns := schema.NewInstruction("close", nil, nil)

	program, err := schema.NewProgram(keys[0], transfer, closeIns)
	require.NoError(t, err)

	tag := transfer.Discriminator()
	payload := append(tag[:], 1, 2, 3)

	matched, argBytes, err := dispatch(program, payload)
	require.NoError(t, err)
	assert.Equal(t, "transfer", matched.Name())
	assert.Equal(t, []byte{1, 2, 3}, argBytes)

	tag = closeIns.Discriminator()
	matched, argBytes, err = dispatch(program, tag[:])
	require.NoError(t, err)
	assert.Equal(t, "close", matched.Name())
	assert.Empty(t, argBytes)
}

func TestDispatch_UnknownTag(t *testing.T) {
	keys := generateKeys(t, 1)

	program, err := schema.NewProgram(keys[0], schema.NewInstruction("transfer", nil, nil))
	require.NoError(t, err)

	unknown := schema.InstructionDiscriminator("withdraw")
	_, _, err = dispatch(program, unknown[:])
	assert.Equal(t, ErrUnknownInstruction, errors.Cause(err))
}

func TestDispatch_ShortPayload(t *testing.T) {
	keys := generateKeys(t, 1)

	program, err := schema.NewProgram(keys[0], schema.NewInstruction("transfer", nil, nil))
	require.NoError(t, err)

	_, _, err = dispatch(program, []byte{1, 2, 3})
	assert.Equal(t, ErrInvalidInput, errors.Cause(err))
}

func TestDispatch_Single(t *testing.T) {
	keys := generateKeys(t, 1)

	ins := schema.NewInstruction("process", nil, schema.Args{{Name: "value", Type: schema.TypeUint8}})
	program, err := schema.NewSingleInstructionProgram(keys[0], ins)
	require.NoError(t, err)

	// No tag on the wire: the whole payload is arguments, even when it
	// happens to be shorter than a discriminator.
	matched, argBytes, err := dispatch(program, []byte{42})
	require.NoError(t, err)
	assert.Equal(t, "process", matched.Name())
	assert.Equal(t, []byte{42}, argBytes)
}

func TestDispatch_SharedAccounts(t *testing.T) {
	keys := generateKeys(t, 1)

	shared := []schema.AccountDescriptor{schema.Signer("authority")}
	first := schema.NewInstruction("increment", nil, nil)
	second := schema.NewInstruction("decrement", nil, nil)

	program, err := schema.NewSharedAccountsProgram(keys[0], shared, first, second)
	require.NoError(t, err)

	tag := second.Discriminator()
	matched, _, err := dispatch(program, tag[:])
	require.NoError(t, err)
	assert.Equal(t, "decrement", matched.Name())

	// Both instructions bind the program-level account list.
	assert.Equal(t, shared, program.AccountsFor(first))
	assert.Equal(t, shared, program.AccountsFor(second))
}
