package runtime

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/program-sdk-go/pkg/schema"
	"github.com/code-payments/program-sdk-go/pkg/solana"
)

// bindAccounts is the generic positional walk: descriptor i binds record i,
// validating declared data sizes and shape tags as it goes. It produces
// aliasing views only; nothing is copied.
func bindAccounts(in *Input, descriptors []schema.AccountDescriptor) ([]*Account, error) {
	if len(in.Accounts) < len(descriptors) {
		return nil, errors.Wrapf(ErrAccountMissing, "%d accounts for %d descriptors", len(in.Accounts), len(descriptors))
	}

	bound := make([]*Account, len(descriptors))
	for i, desc := range descriptors {
		account := in.Accounts[i]

		if size := desc.ExpectedSize(); size != schema.SizeAny && size != account.DataLen() {
			return nil, errors.Wrapf(ErrDataSizeMismatch, "account %q: declared %d, live %d", desc.Name, size, account.DataLen())
		}
		if desc.Shape != nil && desc.Shape.Tagged() {
			tag := desc.Shape.Discriminator()
			if !bytes.Equal(account.Data()[:schema.DiscriminatorSize], tag[:]) {
				return nil, errors.Wrapf(ErrInvalidAccountData, "account %q is not a %s", desc.Name, desc.Shape.Name())
			}
		}

		bound[i] = account
	}
	return bound, nil
}

// bindFast is the precomputed path: every field position comes from the
// offset table, so binding is slicing at cached offsets with a single size
// check per account and no per-field work. Valid only for the fully fixed
// layouts the table was built from, with every account listed once.
func bindFast(buf []byte, table *schema.OffsetTable) (*Input, error) {
	if len(buf) < table.InstructionData {
		return nil, errors.Wrap(ErrInvalidInput, "buffer shorter than fixed layout")
	}
	if count := binary.LittleEndian.Uint64(buf); count < uint64(table.Len()) {
		return nil, errors.Wrapf(ErrAccountMissing, "%d accounts for %d descriptors", count, table.Len())
	}

	in := &Input{
		Accounts: make([]*Account, table.Len()),
		buf:      buf,
	}

	for i := 0; i < table.Len(); i++ {
		offsets := table.Account(i)
		if live := binary.LittleEndian.Uint64(buf[offsets.DataLen:]); live != uint64(offsets.DataSize) {
			return nil, errors.Wrapf(ErrDataSizeMismatch, "account %d: declared %d, live %d", i, offsets.DataSize, live)
		}

		in.Accounts[i] = &Account{
			buf:        buf,
			offset:     offsets.Record,
			capacity:   offsets.DataSize + solana.MaxPermittedDataGrowth,
			rentOffset: offsets.Rent,
			index:      i,
		}
	}

	dataLen := binary.LittleEndian.Uint64(buf[table.InstructionLen:])
	if uint64(len(buf)-table.InstructionData) < dataLen {
		return nil, errors.Wrap(ErrInvalidInput, "payload past buffer end")
	}
	in.Data = buf[table.InstructionData : table.InstructionData+int(dataLen)]

	return in, nil
}
