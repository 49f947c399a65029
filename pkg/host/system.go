package host

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/program-sdk-go/pkg/runtime"
	"github.com/code-payments/program-sdk-go/pkg/solana"
)

var (
	errSystemData      = errors.New("system program: malformed instruction data")
	errSystemAccounts  = errors.New("system program: wrong account count")
	errSystemSignature = errors.New("system program: missing required signature")
	errSystemOwner     = errors.New("system program: account not system owned")
	errSystemFunds     = errors.New("system program: insufficient lamports")
	errSystemInUse     = errors.New("system program: account already in use")
)

// runSystem services the native system program directly against the
// caller's live views, so mutations are visible without a write-back pass.
func (h *InProcess) runSystem(ix solana.Instruction, accounts []*runtime.Account, signerSeeds [][][]byte, callerID ed25519.PublicKey) error {
	if len(ix.Data) < 4 {
		return errors.Wrap(runtime.ErrInvokeFailed, errSystemData.Error())
	}

	var err error
	switch command := binary.LittleEndian.Uint32(ix.Data); command {
	case solana.CommandCreateAccount:
		err = h.systemCreateAccount(ix, accounts, signerSeeds, callerID)
	case solana.CommandTransfer:
		err = h.systemTransfer(ix, accounts, signerSeeds, callerID)
	case solana.CommandAllocate:
		err = h.systemAllocate(ix, accounts, signerSeeds, callerID)
	case solana.CommandAssign:
		err = h.systemAssign(ix, accounts, signerSeeds, callerID)
	default:
		err = errors.Errorf("system program: unsupported command %d", command)
	}

	if err != nil {
		return errors.Wrap(runtime.ErrInvokeFailed, err.Error())
	}
	return nil
}

func (h *InProcess) signed(account *runtime.Account, meta solana.AccountMeta, signerSeeds [][][]byte, callerID ed25519.PublicKey) bool {
	if meta.IsSigner && account.IsSigner() {
		return true
	}
	return h.seedsAuthorize(callerID, account.Key(), signerSeeds)
}

func (h *InProcess) systemTransfer(ix solana.Instruction, accounts []*runtime.Account, signerSeeds [][][]byte, callerID ed25519.PublicKey) error {
	if len(accounts) != 2 {
		return errSystemAccounts
	}
	if len(ix.Data) != 4+8 {
		return errSystemData
	}

	sender, receiver := accounts[0], accounts[1]
	lamports := binary.LittleEndian.Uint64(ix.Data[4:])

	if !h.signed(sender, ix.Accounts[0], signerSeeds, callerID) {
		return errSystemSignature
	}
	if !bytes.Equal(sender.Owner(), solana.SystemProgramID) {
		return errSystemOwner
	}
	if sender.Lamports() < lamports {
		return errSystemFunds
	}

	sender.SetLamports(sender.Lamports() - lamports)
	receiver.SetLamports(receiver.Lamports() + lamports)
	return nil
}

func (h *InProcess) systemAllocate(ix solana.Instruction, accounts []*runtime.Account, signerSeeds [][][]byte, callerID ed25519.PublicKey) error {
	if len(accounts) != 1 {
		return errSystemAccounts
	}
	if len(ix.Data) != 4+8 {
		return errSystemData
	}

	account := accounts[0]
	if !h.signed(account, ix.Accounts[0], signerSeeds, callerID) {
		return errSystemSignature
	}
	if !bytes.Equal(account.Owner(), solana.SystemProgramID) {
		return errSystemOwner
	}
	if account.DataLen() != 0 {
		return errSystemInUse
	}

	space := binary.LittleEndian.Uint64(ix.Data[4:])
	return account.Realloc(int(space))
}

func (h *InProcess) systemAssign(ix solana.Instruction, accounts []*runtime.Account, signerSeeds [][][]byte, callerID ed25519.PublicKey) error {
	if len(accounts) != 1 {
		return errSystemAccounts
	}
	if len(ix.Data) != 4+solana.PublicKeyLength {
		return errSystemData
	}

	account := accounts[0]
	if !h.signed(account, ix.Accounts[0], signerSeeds, callerID) {
		return errSystemSignature
	}
	if !bytes.Equal(account.Owner(), solana.SystemProgramID) {
		return errSystemOwner
	}

	account.SetOwner(ix.Data[4:])
	return nil
}

func (h *InProcess) systemCreateAccount(ix solana.Instruction, accounts []*runtime.Account, signerSeeds [][][]byte, callerID ed25519.PublicKey) error {
	if len(accounts) != 2 {
		return errSystemAccounts
	}
	if len(ix.Data) != 4+2*8+solana.PublicKeyLength {
		return errSystemData
	}

	funder, created := accounts[0], accounts[1]
	lamports := binary.LittleEndian.Uint64(ix.Data[4:])
	space := binary.LittleEndian.Uint64(ix.Data[4+8:])
	owner := ed25519.PublicKey(ix.Data[4+2*8:])

	if !h.signed(funder, ix.Accounts[0], signerSeeds, callerID) {
		return errSystemSignature
	}
	if !h.signed(created, ix.Accounts[1], signerSeeds, callerID) {
		return errSystemSignature
	}
	if !bytes.Equal(created.Owner(), solana.SystemProgramID) || created.DataLen() != 0 || created.Lamports() != 0 {
		return errSystemInUse
	}
	if funder.Lamports() < lamports {
		return errSystemFunds
	}

	funder.SetLamports(funder.Lamports() - lamports)
	created.SetLamports(lamports)
	if err := created.Realloc(int(space)); err != nil {
		return err
	}
	created.SetOwner(owner)
	return nil
}
