package runtime

import (
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/program-sdk-go/pkg/schema"
	"github.com/code-payments/program-sdk-go/pkg/solana"
)

func bindForValidation(t *testing.T, states []State, descriptors []schema.AccountDescriptor) []*Account {
	in, err := Decode(mustEncode(t, states, nil))
	require.NoError(t, err)

	bound, err := bindAccounts(in, descriptors)
	require.NoError(t, err)
	return bound
}

func constraintKind(t *testing.T, err error) ConstraintKind {
	var constraintErr *ConstraintError
	require.True(t, errors.As(err, &constraintErr), "expected constraint error, got %v", err)
	return constraintErr.Kind
}

func TestValidate_SignerAndWritable(t *testing.T) {
	keys := generateKeys(t, 2)

	descriptors := []schema.AccountDescriptor{schema.Signer("payer")}
	bound := bindForValidation(t, []State{{Key: keys[0], Owner: keys[1]}}, descriptors)

	err := validateAccounts(keys[1], descriptors, bound)
	assert.Equal(t, ConstraintSigner, constraintKind(t, err))

	descriptors = []schema.AccountDescriptor{schema.Mut("state")}
	bound = bindForValidation(t, []State{{Key: keys[0], Owner: keys[1]}}, descriptors)

	err = validateAccounts(keys[1], descriptors, bound)
	assert.Equal(t, ConstraintWritable, constraintKind(t, err))

	bound = bindForValidation(t, []State{{Key: keys[0], Owner: keys[1], IsSigner: true, IsWritable: true}}, descriptors)
	assert.NoError(t, validateAccounts(keys[1], descriptors, bound))
}

func TestValidate_OwnerAndAddress(t *testing.T) {
	keys := generateKeys(t, 3)

	descriptors := []schema.AccountDescriptor{
		schema.Readonly("state").WithConstraints(schema.Constraints{Owner: keys[1]}),
	}
	bound := bindForValidation(t, []State{{Key: keys[0], Owner: keys[2]}}, descriptors)
	err := validateAccounts(keys[1], descriptors, bound)
	assert.Equal(t, ConstraintOwner, constraintKind(t, err))

	descriptors = []schema.AccountDescriptor{
		schema.Readonly("state").WithConstraints(schema.Constraints{Address: keys[1]}),
	}
	bound = bindForValidation(t, []State{{Key: keys[0], Owner: keys[2]}}, descriptors)
	err = validateAccounts(keys[1], descriptors, bound)
	assert.Equal(t, ConstraintAddress, constraintKind(t, err))

	descriptors = []schema.AccountDescriptor{
		schema.Readonly("state").WithConstraints(schema.Constraints{Owner: keys[2], Address: keys[0]}),
	}
	bound = bindForValidation(t, []State{{Key: keys[0], Owner: keys[2]}}, descriptors)
	assert.NoError(t, validateAccounts(keys[1], descriptors, bound))
}

func vaultShape(t *testing.T) *schema.AccountShape {
	shape, err := schema.NewAccountShape(
		"Vault",
		false,
		schema.Field{Name: "authority", Type: schema.TypePublicKey},
		schema.Field{Name: "balance", Type: schema.TypeUint64},
	)
	require.NoError(t, err)
	return shape
}

func TestValidate_HasOne(t *testing.T) {
	keys := generateKeys(t, 3)
	shape := vaultShape(t)

	data := make([]byte, shape.Size())
	copy(data, keys[0]) // stored authority

	descriptors := []schema.AccountDescriptor{
		schema.Signer("authority"),
		schema.Account("vault", shape).WithConstraints(schema.Constraints{HasOne: []string{"authority"}}),
	}

	bound := bindForValidation(t, []State{
		{Key: keys[0], Owner: keys[2], IsSigner: true},
		{Key: keys[1], Owner: keys[2], Data: data},
	}, descriptors)
	assert.NoError(t, validateAccounts(keys[2], descriptors, bound))

	// Stored authority differing from the bound authority's key fails.
	mismatched := make([]byte, shape.Size())
	copy(mismatched, keys[1])
	bound = bindForValidation(t, []State{
		{Key: keys[0], Owner: keys[2], IsSigner: true},
		{Key: keys[1], Owner: keys[2], Data: mismatched},
	}, descriptors)
	err := validateAccounts(keys[2], descriptors, bound)
	assert.Equal(t, ConstraintHasOne, constraintKind(t, err))
}

func TestValidate_HasOneOrdering(t *testing.T) {
	keys := generateKeys(t, 3)
	shape := vaultShape(t)

	data := make([]byte, shape.Size())
	copy(data, keys[1])

	// The reference target binds after the vault: a schema ordering bug,
	// reported as such instead of reordering the walk.
	descriptors := []schema.AccountDescriptor{
		schema.Account("vault", shape).WithConstraints(schema.Constraints{HasOne: []string{"authority"}}),
		schema.Signer("authority"),
	}

	bound := bindForValidation(t, []State{
		{Key: keys[0], Owner: keys[2], Data: data},
		{Key: keys[1], Owner: keys[2], IsSigner: true},
	}, descriptors)

	err := validateAccounts(keys[2], descriptors, bound)
	assert.Equal(t, ErrConstraintOrdering, errors.Cause(err))
}

func TestValidate_Seeds(t *testing.T) {
	keys := generateKeys(t, 2)
	programID := keys[1]

	derived, bump, err := solana.FindProgramAddressAndBump(programID, []byte("vault"))
	require.NoError(t, err)

	constraints := schema.Constraints{Seeds: [][]byte{[]byte("vault")}, Bump: &bump}
	descriptors := []schema.AccountDescriptor{
		schema.Readonly("vault").WithConstraints(constraints),
	}

	bound := bindForValidation(t, []State{{Key: derived, Owner: programID}}, descriptors)
	assert.NoError(t, validateAccounts(programID, descriptors, bound))

	// A different account key cannot satisfy the derivation.
	bound = bindForValidation(t, []State{{Key: keys[0], Owner: programID}}, descriptors)
	err = validateAccounts(programID, descriptors, bound)
	assert.Equal(t, ConstraintSeeds, constraintKind(t, err))

	// The bump is verified, not searched: a wrong bump fails even though
	// some other bump would derive the key.
	wrongBump := bump - 1
	wrong := schema.Constraints{Seeds: [][]byte{[]byte("vault")}, Bump: &wrongBump}
	descriptors = []schema.AccountDescriptor{
		schema.Readonly("vault").WithConstraints(wrong),
	}
	bound = bindForValidation(t, []State{{Key: derived, Owner: programID}}, descriptors)
	err = validateAccounts(programID, descriptors, bound)
	assert.Equal(t, ConstraintSeeds, constraintKind(t, err))
}

func TestValidate_ShortCircuitOrder(t *testing.T) {
	keys := generateKeys(t, 3)
	shape := vaultShape(t)

	// Both the owner and the has-one constraint are violated; the owner
	// check runs first and must mask the has-one failure entirely.
	data := make([]byte, shape.Size())
	copy(data, keys[2])

	descriptors := []schema.AccountDescriptor{
		schema.Signer("authority"),
		schema.Account("vault", shape).WithConstraints(schema.Constraints{
			Owner:  keys[0],
			HasOne: []string{"authority"},
		}),
	}

	bound := bindForValidation(t, []State{
		{Key: keys[0], Owner: keys[1], IsSigner: true},
		{Key: keys[1], Owner: keys[1], Data: data},
	}, descriptors)

	err := validateAccounts(keys[1], descriptors, bound)
	assert.Equal(t, ConstraintOwner, constraintKind(t, err))

	// With signer also failing on the first account, signer wins: it is
	// the cheapest check and runs before anything else.
	bound = bindForValidation(t, []State{
		{Key: keys[0], Owner: keys[1]},
		{Key: keys[1], Owner: keys[1], Data: data},
	}, descriptors)
	err = validateAccounts(keys[1], descriptors, bound)
	assert.Equal(t, ConstraintSigner, constraintKind(t, err))
}

func TestValidate_MissingBumpIsSchemaBug(t *testing.T) {
	keys := generateKeys(t, 2)

	descriptors := []schema.AccountDescriptor{
		schema.Readonly("vault").WithConstraints(schema.Constraints{Seeds: [][]byte{[]byte("vault")}}),
	}
	bound := bindForValidation(t, []State{{Key: keys[0], Owner: keys[1]}}, descriptors)

	err := validateAccounts(keys[1], descriptors, bound)
	require.Error(t, err)
	var constraintErr *ConstraintError
	assert.False(t, errors.As(err, &constraintErr))
}

func TestValidate_PDADeterminism(t *testing.T) {
	keys := generateKeys(t, 1)

	var programID ed25519.PublicKey = keys[0]
	first, bump, err := solana.FindProgramAddressAndBump(programID, []byte("state"), []byte{7})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := solana.CreateProgramAddress(programID, []byte("state"), []byte{7}, []byte{bump})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
