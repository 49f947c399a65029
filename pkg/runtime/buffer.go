package runtime

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/program-sdk-go/pkg/solana"
)

// Input is the decoded form of one invocation's buffer: the canonical
// account table and the instruction payload. Accounts and Data alias the
// buffer; nothing is copied.
type Input struct {
	// Accounts is the canonical account table, one entry per record in host
	// order. A duplicate record resolves to the same *Account as the record
	// it aliases.
	Accounts []*Account

	// Data is the instruction payload.
	Data []byte

	buf []byte
}

// Decode parses a raw input buffer. It reads field by field without assuming
// natural alignment, never copies account memory, and is idempotent: the
// views of repeated decodes alias identical buffer regions.
func Decode(buf []byte) (*Input, error) {
	if len(buf) < 8 {
		return nil, errors.Wrap(ErrInvalidInput, "buffer shorter than account count")
	}

	// The count is untrusted. Even a table of pure duplicate records needs
	// DuplicateRecordSize bytes per entry, so anything claiming more cannot
	// fit and must be rejected before the table is sized from it.
	count := binary.LittleEndian.Uint64(buf)
	if count > uint64(len(buf)-8)/solana.DuplicateRecordSize {
		return nil, errors.Wrapf(ErrInvalidInput, "account count %d exceeds buffer", count)
	}

	in := &Input{
		Accounts: make([]*Account, 0, count),
		buf:      buf,
	}

	offset := 8
	for i := uint64(0); i < count; i++ {
		if offset >= len(buf) {
			return nil, errors.Wrap(ErrInvalidInput, "record past buffer end")
		}

		if marker := buf[offset]; marker != solana.NonDuplicateMarker {
			if int(marker) >= len(in.Accounts) {
				return nil, errors.Wrapf(ErrInvalidInput, "duplicate of unknown record %d", marker)
			}
			in.Accounts = append(in.Accounts, in.Accounts[marker])
			offset += solana.DuplicateRecordSize
			continue
		}

		if offset+solana.AccountHeaderSize > len(buf) {
			return nil, errors.Wrap(ErrInvalidInput, "record header past buffer end")
		}

		dataLen := binary.LittleEndian.Uint64(buf[offset+solana.AccountDataLenOffset:])
		if dataLen > uint64(len(buf)) {
			return nil, errors.Wrap(ErrInvalidInput, "record data past buffer end")
		}

		capacity := int(dataLen) + solana.MaxPermittedDataGrowth
		rentOffset := solana.AlignUp(offset + solana.AccountHeaderSize + capacity)
		if rentOffset+solana.RentEpochSize > len(buf) {
			return nil, errors.Wrap(ErrInvalidInput, "record data past buffer end")
		}

		in.Accounts = append(in.Accounts, &Account{
			buf:        buf,
			offset:     offset,
			capacity:   capacity,
			rentOffset: rentOffset,
			index:      len(in.Accounts),
		})
		offset = rentOffset + solana.RentEpochSize
	}

	offset = solana.AlignUp(offset)
	if offset+8 > len(buf) {
		return nil, errors.Wrap(ErrInvalidInput, "payload length unreadable")
	}

	dataLen := binary.LittleEndian.Uint64(buf[offset:])
	offset += 8
	if uint64(len(buf)-offset) < dataLen {
		return nil, errors.Wrap(ErrInvalidInput, "payload past buffer end")
	}

	in.Data = buf[offset : offset+int(dataLen)]
	return in, nil
}

// State is the host-side description of one account used to serialize an
// input buffer. The buffer owns copies; mutating a State after Encode has no
// effect on the produced buffer.
type State struct {
	Key          ed25519.PublicKey
	Owner        ed25519.PublicKey
	Lamports     uint64
	Data         []byte
	IsSigner     bool
	IsWritable   bool
	IsExecutable bool
	RentEpoch    uint64
}

// Encode serializes account states and an instruction payload into the wire
// format Decode parses. A key appearing more than once is emitted as a
// duplicate record referencing its first occurrence, matching host behavior
// when one address is listed in several slots. The reference is a single
// byte with 0xff reserved as the non-duplicate marker, so an original past
// slot 254 cannot be referenced and the table is rejected.
func Encode(accounts []State, data []byte) ([]byte, error) {
	firstIndex := make(map[string]int, len(accounts))

	size := 8
	for i, account := range accounts {
		if original, ok := firstIndex[string(account.Key)]; ok {
			if original >= int(solana.NonDuplicateMarker) {
				return nil, errors.Wrapf(ErrTooManyAccounts, "duplicate of record %d", original)
			}
			size += solana.DuplicateRecordSize
			continue
		}
		firstIndex[string(account.Key)] = i
		size = solana.AlignUp(size+solana.AccountHeaderSize+len(account.Data)+solana.MaxPermittedDataGrowth) + solana.RentEpochSize
	}
	size = solana.AlignUp(size) + 8 + len(data)

	buf := make([]byte, size)
	binary.LittleEndian.PutUint64(buf, uint64(len(accounts)))

	seen := make(map[string]int, len(accounts))
	offset := 8
	for i, account := range accounts {
		if original, ok := seen[string(account.Key)]; ok {
			buf[offset] = byte(original)
			offset += solana.DuplicateRecordSize
			continue
		}
		seen[string(account.Key)] = i

		buf[offset] = solana.NonDuplicateMarker
		putFlag(buf, offset+solana.AccountSignerOffset, account.IsSigner)
		putFlag(buf, offset+solana.AccountWritableOffset, account.IsWritable)
		putFlag(buf, offset+solana.AccountExecutableOffset, account.IsExecutable)
		copy(buf[offset+solana.AccountKeyOffset:], account.Key)
		copy(buf[offset+solana.AccountOwnerOffset:], account.Owner)
		binary.LittleEndian.PutUint64(buf[offset+solana.AccountLamportsOffset:], account.Lamports)
		binary.LittleEndian.PutUint64(buf[offset+solana.AccountDataLenOffset:], uint64(len(account.Data)))
		copy(buf[offset+solana.AccountDataOffset:], account.Data)

		offset = solana.AlignUp(offset + solana.AccountHeaderSize + len(account.Data) + solana.MaxPermittedDataGrowth)
		binary.LittleEndian.PutUint64(buf[offset:], account.RentEpoch)
		offset += solana.RentEpochSize
	}

	offset = solana.AlignUp(offset)
	binary.LittleEndian.PutUint64(buf[offset:], uint64(len(data)))
	copy(buf[offset+8:], data)

	return buf, nil
}

func putFlag(buf []byte, offset int, value bool) {
	if value {
		buf[offset] = 1
	}
}
