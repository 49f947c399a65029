package solana

import (
	"crypto/ed25519"
	"encoding/binary"
)

// System program command tags, little-endian u32 at the front of the
// instruction data.
const (
	CommandCreateAccount uint32 = iota
	CommandAssign
	CommandTransfer
	// nolint:varcheck,deadcode,unused
	commandCreateAccountWithSeed
	// nolint:varcheck,deadcode,unused
	commandAdvanceNonceAccount
	// nolint:varcheck,deadcode,unused
	commandWithdrawNonceAccount
	// nolint:varcheck,deadcode,unused
	commandInitializeNonceAccount
	// nolint:varcheck,deadcode,unused
	commandAuthorizeNonceAccount
	CommandAllocate
)

// CreateAccount funds a brand new account, sizes its data and hands
// ownership to the given program.
func CreateAccount(funder, address, owner ed25519.PublicKey, lamports, size uint64) Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE, SIGNER] New account
	//
	// CreateAccount {
	//   lamports: u64,
	//   space: u64,
	//   owner: Pubkey,
	// }
	data := make([]byte, 4+2*8+PublicKeyLength)
	binary.LittleEndian.PutUint32(data, CommandCreateAccount)
	binary.LittleEndian.PutUint64(data[4:], lamports)
	binary.LittleEndian.PutUint64(data[4+8:], size)
	copy(data[4+2*8:], owner)

	return NewInstruction(
		SystemProgramID,
		data,
		NewAccountMeta(funder, true),
		NewAccountMeta(address, true),
	)
}

// Transfer moves lamports between two system owned accounts.
func Transfer(sender, receiver ed25519.PublicKey, lamports uint64) Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE] Recipient account
	//
	// Transfer {
	//   lamports: u64,
	// }
	data := make([]byte, 4+8)
	binary.LittleEndian.PutUint32(data, CommandTransfer)
	binary.LittleEndian.PutUint64(data[4:], lamports)

	return NewInstruction(
		SystemProgramID,
		data,
		NewAccountMeta(sender, true),
		NewAccountMeta(receiver, false),
	)
}

// Allocate sizes an account's data region.
func Allocate(address ed25519.PublicKey, space uint64) Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Account to allocate
	//
	// Allocate {
	//   space: u64,
	// }
	data := make([]byte, 4+8)
	binary.LittleEndian.PutUint32(data, CommandAllocate)
	binary.LittleEndian.PutUint64(data[4:], space)

	return NewInstruction(
		SystemProgramID,
		data,
		NewAccountMeta(address, true),
	)
}

// Assign hands ownership of an account to a program.
func Assign(address, owner ed25519.PublicKey) Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Assigned account
	//
	// Assign {
	//   owner: Pubkey,
	// }
	data := make([]byte, 4+PublicKeyLength)
	binary.LittleEndian.PutUint32(data, CommandAssign)
	copy(data[4:], owner)

	return NewInstruction(
		SystemProgramID,
		data,
		NewAccountMeta(address, true),
	)
}
