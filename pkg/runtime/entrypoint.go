package runtime

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/program-sdk-go/pkg/schema"
)

// Runtime drives the per-invocation pipeline for one program:
// decode → dispatch → bind → validate → handler → (invoke)* → status.
// It is built once at process start from the ahead-of-time program schema
// and holds no call-scoped state; every invocation starts and ends inside
// Run.
type Runtime struct {
	program  *schema.Program
	handlers map[string]Handler
	offsets  *schema.OffsetTable
	log      *logrus.Entry
}

// Option configures a Runtime.
type Option func(*Runtime) error

// WithLogger attaches a diagnostic logger. Failure paths emit one line
// naming the failing check; the status word stays the only value returned
// to the host.
func WithLogger(log *logrus.Entry) Option {
	return func(r *Runtime) error {
		r.log = log
		return nil
	}
}

// WithFixedLayout precomputes the binding offset table. Valid only when the
// program has a single instruction whose every account has a fixed declared
// size; binding then skips the generic walk entirely. The caller opts in
// because the fast path also assumes the host lists each account once.
func WithFixedLayout() Option {
	return func(r *Runtime) error {
		if r.program.Mode() != schema.DispatchSingle {
			return errors.Wrap(schema.ErrVariableLayout, "fixed layout requires a single instruction program")
		}

		table, err := schema.NewOffsetTable(r.program.AccountsFor(r.program.Single()))
		if err != nil {
			return err
		}
		r.offsets = table
		return nil
	}
}

// NewRuntime builds the runtime for a program schema.
func NewRuntime(program *schema.Program, opts ...Option) (*Runtime, error) {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	r := &Runtime{
		program:  program,
		handlers: make(map[string]Handler),
		log:      logrus.NewEntry(discard),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Program returns the schema the runtime serves. Read-only metadata.
func (r *Runtime) Program() *schema.Program {
	return r.program
}

// Handle registers the body for a named instruction. Chainable.
func (r *Runtime) Handle(name string, handler Handler) *Runtime {
	r.handlers[name] = handler
	return r
}

// Run is the entrypoint contract: one raw buffer in, one unsigned status
// word out. Zero is success; every failure maps to a non-zero code with no
// structured error payload beside the diagnostic log.
func (r *Runtime) Run(buf []byte, host Host) uint64 {
	_, err := r.Process(buf, host, 0)
	if err != nil {
		status := StatusFromError(err)
		r.log.WithError(err).WithField("status", status).Warn("invocation aborted")
		return status
	}
	return StatusSuccess
}

// Process runs one invocation at the given call depth and returns the
// decoded input so a host can propagate callee mutations after a nested
// call. Control flow is strictly linear; the first failure aborts and no
// component ever retries.
func (r *Runtime) Process(buf []byte, host Host, depth int) (*Input, error) {
	var (
		in          *Input
		instruction *schema.Instruction
		descriptors []schema.AccountDescriptor
		bound       []*Account
		argBytes    []byte
		err         error
	)

	if r.offsets != nil {
		instruction = r.program.Single()
		descriptors = r.program.AccountsFor(instruction)

		in, err = bindFast(buf, r.offsets)
		if err != nil {
			return nil, err
		}
		bound, argBytes = in.Accounts, in.Data
	} else {
		in, err = Decode(buf)
		if err != nil {
			return nil, err
		}

		instruction, argBytes, err = dispatch(r.program, in.Data)
		if err != nil {
			return nil, err
		}

		descriptors = r.program.AccountsFor(instruction)
		bound, err = bindAccounts(in, descriptors)
		if err != nil {
			return nil, err
		}
	}

	if err := validateAccounts(r.program.ID(), descriptors, bound); err != nil {
		return nil, err
	}

	args, err := decodeArgs(instruction.Args(), argBytes)
	if err != nil {
		return nil, err
	}

	handler, ok := r.handlers[instruction.Name()]
	if !ok {
		return nil, errors.Wrap(ErrNoHandler, instruction.Name())
	}

	log := r.log.WithFields(logrus.Fields{
		"instruction": instruction.Name(),
		"depth":       depth,
	})

	ctx := newContext(r.program, instruction, descriptors, bound, args, host, depth, log)
	if err := handler(ctx); err != nil {
		return nil, err
	}
	return in, nil
}
