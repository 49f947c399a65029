package schema

import (
	"github.com/pkg/errors"

	"github.com/code-payments/program-sdk-go/pkg/solana"
)

var ErrVariableLayout = errors.New("layout has no fixed size")

// AccountOffsets holds the absolute buffer offsets of one account's fields
// for a fully fixed layout.
type AccountOffsets struct {
	Record   int
	Key      int
	Owner    int
	Lamports int
	DataLen  int
	Data     int
	DataSize int
	Rent     int
}

// OffsetTable is the precomputed fast path for binding: when every
// descriptor's data size is fixed ahead of time, each account's field
// positions in the input buffer are known before the call arrives, and
// binding reduces to slicing at cached offsets.
//
// The table assumes the host lists every account once; a buffer with
// duplicate records does not match a fixed layout and must go through the
// generic walk.
type OffsetTable struct {
	accounts []AccountOffsets

	// InstructionLen is the offset of the payload length field.
	InstructionLen int

	// InstructionData is the offset of the payload itself.
	InstructionData int
}

// NewOffsetTable computes the table for a descriptor list. It refuses
// descriptors without an exact declared size.
func NewOffsetTable(descriptors []AccountDescriptor) (*OffsetTable, error) {
	table := &OffsetTable{
		accounts: make([]AccountOffsets, len(descriptors)),
	}

	offset := 8 // account count
	for i, desc := range descriptors {
		size := desc.ExpectedSize()
		if size == SizeAny {
			return nil, errors.Wrap(ErrVariableLayout, desc.Name)
		}

		table.accounts[i] = AccountOffsets{
			Record:   offset,
			Key:      offset + solana.AccountKeyOffset,
			Owner:    offset + solana.AccountOwnerOffset,
			Lamports: offset + solana.AccountLamportsOffset,
			DataLen:  offset + solana.AccountDataLenOffset,
			Data:     offset + solana.AccountDataOffset,
			DataSize: size,
		}

		offset += solana.AccountHeaderSize
		offset = solana.AlignUp(offset + size + solana.MaxPermittedDataGrowth)
		table.accounts[i].Rent = offset
		offset += solana.RentEpochSize
	}

	table.InstructionLen = solana.AlignUp(offset)
	table.InstructionData = table.InstructionLen + 8
	return table, nil
}

// Len returns the number of accounts the table covers.
func (t *OffsetTable) Len() int {
	return len(t.accounts)
}

// Account returns the cached offsets for descriptor slot i.
func (t *OffsetTable) Account(i int) AccountOffsets {
	return t.accounts[i]
}
