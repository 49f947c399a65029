package runtime

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/program-sdk-go/pkg/solana"
)

// Account is a non-owning view into one account record of the input buffer.
// Every accessor reads the buffer directly and every mutation writes it
// directly; there is no copy-back step. Two descriptors bound to the same
// key share one Account by construction (duplicate records alias the
// canonical entry), so writes can never diverge between aliases.
type Account struct {
	buf        []byte
	offset     int
	capacity   int
	rentOffset int
	index      int
}

// Index returns the account's slot in the canonical account table.
func (a *Account) Index() int {
	return a.index
}

// Key returns the account's address, aliasing buffer memory.
func (a *Account) Key() ed25519.PublicKey {
	start := a.offset + solana.AccountKeyOffset
	return ed25519.PublicKey(a.buf[start : start+solana.PublicKeyLength])
}

// Owner returns the owning program's key, aliasing buffer memory.
func (a *Account) Owner() ed25519.PublicKey {
	start := a.offset + solana.AccountOwnerOffset
	return ed25519.PublicKey(a.buf[start : start+solana.PublicKeyLength])
}

// SetOwner reassigns the owning program. Reserved for the host and the
// native system program; a handler mutating an owner it does not hold is a
// logic bug the host will reject.
func (a *Account) SetOwner(owner ed25519.PublicKey) {
	start := a.offset + solana.AccountOwnerOffset
	copy(a.buf[start:start+solana.PublicKeyLength], owner)
}

// Lamports returns the account balance.
func (a *Account) Lamports() uint64 {
	return binary.LittleEndian.Uint64(a.buf[a.offset+solana.AccountLamportsOffset:])
}

// SetLamports writes the balance in place.
func (a *Account) SetLamports(lamports uint64) {
	binary.LittleEndian.PutUint64(a.buf[a.offset+solana.AccountLamportsOffset:], lamports)
}

// DataLen returns the live data length.
func (a *Account) DataLen() int {
	return int(binary.LittleEndian.Uint64(a.buf[a.offset+solana.AccountDataLenOffset:]))
}

// Data returns the account data, aliasing buffer memory.
func (a *Account) Data() []byte {
	start := a.offset + solana.AccountDataOffset
	return a.buf[start : start+a.DataLen()]
}

// Capacity returns the largest data length Realloc can grow to without
// moving the record: the original length plus the reserved growth region.
func (a *Account) Capacity() int {
	return a.capacity
}

// Realloc resizes the data region in place. Growth is zero-initialized.
func (a *Account) Realloc(size int) error {
	if size < 0 || size > a.capacity {
		return errors.Wrapf(ErrInvalidAccountData, "realloc to %d exceeds capacity %d", size, a.capacity)
	}

	old := a.DataLen()
	if size > old {
		start := a.offset + solana.AccountDataOffset
		zero(a.buf[start+old : start+size])
	}

	binary.LittleEndian.PutUint64(a.buf[a.offset+solana.AccountDataLenOffset:], uint64(size))
	return nil
}

// IsSigner reports whether the account signed the call.
func (a *Account) IsSigner() bool {
	return a.buf[a.offset+solana.AccountSignerOffset] != 0
}

// IsWritable reports whether the host marked the account writable.
func (a *Account) IsWritable() bool {
	return a.buf[a.offset+solana.AccountWritableOffset] != 0
}

// IsExecutable reports whether the account holds a program.
func (a *Account) IsExecutable() bool {
	return a.buf[a.offset+solana.AccountExecutableOffset] != 0
}

// RentEpoch returns the trailing rent epoch field.
func (a *Account) RentEpoch() uint64 {
	return binary.LittleEndian.Uint64(a.buf[a.rentOffset:])
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
