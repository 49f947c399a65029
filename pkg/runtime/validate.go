package runtime

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/program-sdk-go/pkg/schema"
	"github.com/code-payments/program-sdk-go/pkg/solana"
)

// validateAccounts runs every descriptor's constraint set in declaration
// order. Within one account the checks run cheapest first and short-circuit
// on the first failure: signer, writable, owner, address, has-one, seeds.
// Any failure aborts before the handler body executes.
func validateAccounts(programID ed25519.PublicKey, descriptors []schema.AccountDescriptor, bound []*Account) error {
	for i, desc := range descriptors {
		if err := validateAccount(programID, descriptors, bound, i, desc); err != nil {
			return err
		}
	}
	return nil
}

func validateAccount(programID ed25519.PublicKey, descriptors []schema.AccountDescriptor, bound []*Account, index int, desc schema.AccountDescriptor) error {
	account := bound[index]
	constraints := desc.Constraints

	if constraints.Signer && !account.IsSigner() {
		return &ConstraintError{Kind: ConstraintSigner, Account: desc.Name}
	}
	if constraints.Writable && !account.IsWritable() {
		return &ConstraintError{Kind: ConstraintWritable, Account: desc.Name}
	}
	if len(constraints.Owner) > 0 && !bytes.Equal(account.Owner(), constraints.Owner) {
		return &ConstraintError{Kind: ConstraintOwner, Account: desc.Name}
	}
	if len(constraints.Address) > 0 && !bytes.Equal(account.Key(), constraints.Address) {
		return &ConstraintError{Kind: ConstraintAddress, Account: desc.Name}
	}

	for _, field := range constraints.HasOne {
		if err := validateHasOne(descriptors, bound, index, desc, field); err != nil {
			return err
		}
	}

	if len(constraints.Seeds) > 0 {
		if constraints.Bump == nil {
			return errors.Errorf("account %q declares seeds without a bump", desc.Name)
		}

		// The bump is verified, never searched for: one derivation, one
		// comparison, so the cost stays bounded.
		seeds := make([][]byte, 0, len(constraints.Seeds)+1)
		seeds = append(seeds, constraints.Seeds...)
		seeds = append(seeds, []byte{*constraints.Bump})

		derived, err := solana.CreateProgramAddress(programID, seeds...)
		if err != nil || !bytes.Equal(account.Key(), derived) {
			return &ConstraintError{Kind: ConstraintSeeds, Account: desc.Name}
		}
	}

	return nil
}

// validateHasOne checks that the named field inside this account's typed
// data holds the key of the same-named, earlier-bound descriptor. A forward
// or missing reference is a schema ordering bug, reported as such rather
// than silently reordering the walk.
func validateHasOne(descriptors []schema.AccountDescriptor, bound []*Account, index int, desc schema.AccountDescriptor, field string) error {
	if desc.Shape == nil {
		return errors.Errorf("account %q declares has_one %q without a shape", desc.Name, field)
	}

	offset, err := desc.Shape.FieldOffset(field)
	if err != nil {
		return errors.Wrapf(err, "account %q", desc.Name)
	}

	target := -1
	for j, candidate := range descriptors {
		if candidate.Name == field {
			target = j
			break
		}
	}
	if target < 0 || target >= index {
		return errors.Wrapf(ErrConstraintOrdering, "account %q has_one %q", desc.Name, field)
	}

	data := bound[index].Data()
	if !bytes.Equal(data[offset:offset+solana.PublicKeyLength], bound[target].Key()) {
		return &ConstraintError{Kind: ConstraintHasOne, Account: desc.Name}
	}
	return nil
}
