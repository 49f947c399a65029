// Package host provides an in-process execution host for programs built on
// the runtime: it serializes input buffers, routes cross-program calls
// synchronously within the same call stack, enforces the call depth limit,
// verifies signer seeds against address derivation, and services the native
// system program.
package host

import (
	"bytes"
	"crypto/ed25519"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/program-sdk-go/pkg/runtime"
	"github.com/code-payments/program-sdk-go/pkg/solana"
)

// MaxInvokeDepth is the default nesting limit for cross-program calls.
// Exceeding it is fatal for the call; there is no partial retry.
const MaxInvokeDepth = 4

// InProcess executes registered programs in the caller's goroutine. One
// call is active at a time per buffer; the host never runs anything
// concurrently.
type InProcess struct {
	log      *logrus.Entry
	programs map[string]*runtime.Runtime
	maxDepth int
}

// Option configures the host.
type Option func(*InProcess)

// WithLogger attaches a diagnostic logger.
func WithLogger(log *logrus.Entry) Option {
	return func(h *InProcess) {
		h.log = log
	}
}

// WithMaxDepth overrides the call depth limit.
func WithMaxDepth(depth int) Option {
	return func(h *InProcess) {
		h.maxDepth = depth
	}
}

// NewInProcess builds an empty host.
func NewInProcess(opts ...Option) *InProcess {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	h := &InProcess{
		log:      logrus.NewEntry(discard),
		programs: make(map[string]*runtime.Runtime),
		maxDepth: MaxInvokeDepth,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register makes a program invokable under its schema's id.
func (h *InProcess) Register(rt *runtime.Runtime) *InProcess {
	h.programs[string(rt.Program().ID())] = rt
	return h
}

// Invoke executes one cross-program call on behalf of a running handler.
// The call is a blocking nested function call: the callee runs to
// completion, its account mutations are propagated back into the caller's
// buffer, and only then does the caller resume.
func (h *InProcess) Invoke(caller *runtime.Context, ix solana.Instruction, signerSeeds [][][]byte) error {
	depth := caller.Depth() + 1
	if depth > h.maxDepth {
		return errors.Wrapf(runtime.ErrCallDepthExceeded, "depth %d exceeds limit %d", depth, h.maxDepth)
	}

	callerAccounts := make([]*runtime.Account, len(ix.Accounts))
	for i, meta := range ix.Accounts {
		account, ok := caller.AccountByKey(meta.PublicKey)
		if !ok {
			return errors.Wrapf(runtime.ErrInvokeFailed, "account %s not passed to caller", solana.Base58(meta.PublicKey))
		}

		// A caller can only forward privileges it holds. Signatures extend
		// to derived addresses whose seeds are presented.
		if meta.IsWritable && !account.IsWritable() {
			return errors.Wrapf(runtime.ErrInvokeFailed, "writable escalation on %s", solana.Base58(meta.PublicKey))
		}
		if meta.IsSigner && !account.IsSigner() && !h.seedsAuthorize(caller.ProgramID(), meta.PublicKey, signerSeeds) {
			return errors.Wrapf(runtime.ErrInvokeFailed, "signer escalation on %s", solana.Base58(meta.PublicKey))
		}

		callerAccounts[i] = account
	}

	log := h.log.WithFields(logrus.Fields{
		"program": solana.Base58(ix.Program),
		"depth":   depth,
	})

	if bytes.Equal(ix.Program, solana.SystemProgramID) {
		log.Debug("servicing system program call")
		return h.runSystem(ix, callerAccounts, signerSeeds, caller.ProgramID())
	}

	callee, ok := h.programs[string(ix.Program)]
	if !ok {
		return errors.Wrapf(runtime.ErrInvokeFailed, "unknown program %s", solana.Base58(ix.Program))
	}

	buf, err := runtime.Encode(calleeStates(ix, callerAccounts), ix.Data)
	if err != nil {
		return errors.Wrap(runtime.ErrInvokeFailed, err.Error())
	}

	out, err := callee.Process(buf, h, depth)
	if err != nil {
		log.WithError(err).Warn("nested call failed")
		return errors.Wrapf(runtime.ErrInvokeFailed, "program %s: %v", solana.Base58(ix.Program), err)
	}

	return h.writeBack(ix, callerAccounts, out)
}

// calleeStates snapshots the caller's live views into the states the callee
// buffer is built from. The callee sees exactly the privileges the metas
// declare; escalation past the caller's own was rejected above.
func calleeStates(ix solana.Instruction, callerAccounts []*runtime.Account) []runtime.State {
	states := make([]runtime.State, len(ix.Accounts))
	for i, meta := range ix.Accounts {
		account := callerAccounts[i]

		data := make([]byte, account.DataLen())
		copy(data, account.Data())

		states[i] = runtime.State{
			Key:          meta.PublicKey,
			Owner:        append(ed25519.PublicKey(nil), account.Owner()...),
			Lamports:     account.Lamports(),
			Data:         data,
			IsSigner:     meta.IsSigner,
			IsWritable:   meta.IsWritable,
			IsExecutable: account.IsExecutable(),
			RentEpoch:    account.RentEpoch(),
		}
	}
	return states
}

// writeBack propagates callee mutations into the caller's buffer so the
// caller's views observe them, mirroring the aliasing the real host
// maintains across the boundary.
func (h *InProcess) writeBack(ix solana.Instruction, callerAccounts []*runtime.Account, out *runtime.Input) error {
	for i, meta := range ix.Accounts {
		if !meta.IsWritable {
			continue
		}

		callee := out.Accounts[i]
		caller := callerAccounts[i]

		caller.SetLamports(callee.Lamports())
		caller.SetOwner(callee.Owner())

		if callee.DataLen() != caller.DataLen() {
			if err := caller.Realloc(callee.DataLen()); err != nil {
				return errors.Wrap(runtime.ErrInvokeFailed, err.Error())
			}
		}
		copy(caller.Data(), callee.Data())
	}
	return nil
}

func (h *InProcess) seedsAuthorize(programID, key ed25519.PublicKey, signerSeeds [][][]byte) bool {
	for _, seeds := range signerSeeds {
		derived, err := solana.CreateProgramAddress(programID, seeds...)
		if err == nil && bytes.Equal(derived, key) {
			return true
		}
	}
	return false
}
