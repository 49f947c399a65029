package runtime

import (
	"crypto/ed25519"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/program-sdk-go/pkg/schema"
	"github.com/code-payments/program-sdk-go/pkg/solana"
)

// Handler is an instruction body. Returning nil yields status zero; any
// error aborts with a non-zero status and no automatic rollback (undoing
// applied buffer mutations belongs to the host's transaction layer).
type Handler func(*Context) error

// Host executes outbound calls on behalf of a running program. Invocation
// is synchronous: a nested function call in the same logical stack, bounded
// by the host's depth limit.
type Host interface {
	// Invoke runs the instruction against its target program. signerSeeds
	// authorizes derived addresses: each seed list, bump included, must
	// re-derive a meta key under the calling program's id.
	Invoke(caller *Context, ix solana.Instruction, signerSeeds [][][]byte) error
}

// Context is the handler-facing view of one invocation: the program id, the
// bound accounts in descriptor order, and the decoded arguments. It is
// created fresh per call and discarded on return; no state crosses
// invocations.
type Context struct {
	programID   ed25519.PublicKey
	instruction *schema.Instruction
	accounts    []*Account
	byName      map[string]int
	args        *Args
	host        Host
	depth       int
	log         *logrus.Entry
}

func newContext(
	program *schema.Program,
	instruction *schema.Instruction,
	descriptors []schema.AccountDescriptor,
	bound []*Account,
	args *Args,
	host Host,
	depth int,
	log *logrus.Entry,
) *Context {
	byName := make(map[string]int, len(descriptors))
	for i, desc := range descriptors {
		byName[desc.Name] = i
	}

	return &Context{
		programID:   program.ID(),
		instruction: instruction,
		accounts:    bound,
		byName:      byName,
		args:        args,
		host:        host,
		depth:       depth,
		log:         log,
	}
}

// ProgramID returns the executing program's id.
func (c *Context) ProgramID() ed25519.PublicKey {
	return c.programID
}

// InstructionName returns the dispatched instruction's name.
func (c *Context) InstructionName() string {
	return c.instruction.Name()
}

// Args returns the decoded arguments.
func (c *Context) Args() *Args {
	return c.args
}

// Account returns the bound view for a descriptor name, or nil when the
// instruction declares no such account.
func (c *Context) Account(name string) *Account {
	index, ok := c.byName[name]
	if !ok {
		return nil
	}
	return c.accounts[index]
}

// AccountAt returns the bound view at descriptor position i.
func (c *Context) AccountAt(i int) *Account {
	return c.accounts[i]
}

// Accounts returns every bound view in descriptor order.
func (c *Context) Accounts() []*Account {
	return c.accounts
}

// AccountByKey finds a bound view by address. Duplicate descriptor slots
// share one canonical view, so at most one match exists per key.
func (c *Context) AccountByKey(key ed25519.PublicKey) (*Account, bool) {
	for _, account := range c.accounts {
		if string(account.Key()) == string(key) {
			return account, true
		}
	}
	return nil, false
}

// Depth returns the invocation's position in the call stack, zero at the
// entrypoint.
func (c *Context) Depth() int {
	return c.depth
}

// Log returns the invocation-scoped diagnostic logger.
func (c *Context) Log() *logrus.Entry {
	return c.log
}

// Invoke executes a call into another program and blocks until it returns.
func (c *Context) Invoke(ix solana.Instruction) error {
	return c.InvokeSigned(ix)
}

// InvokeSigned executes a call into another program, additionally signing
// for every derived address whose seeds are presented. The host re-derives
// each seed list against this program's id; no private key is involved.
func (c *Context) InvokeSigned(ix solana.Instruction, signerSeeds ...[][]byte) error {
	if c.host == nil {
		return errors.Wrap(ErrInvokeFailed, "no host attached")
	}
	return c.host.Invoke(c, ix, signerSeeds)
}

// CloseAccount drains an account into destination and releases it: balance
// moved, data zeroed and shrunk to nothing, ownership returned to the
// system program. The host reclaims the record after the call.
func (c *Context) CloseAccount(account, destination *Account) error {
	if account == destination {
		return errors.Wrap(ErrInvalidAccountData, "cannot close an account into itself")
	}

	destination.SetLamports(destination.Lamports() + account.Lamports())
	account.SetLamports(0)

	zero(account.Data())
	if err := account.Realloc(0); err != nil {
		return err
	}
	account.SetOwner(solana.SystemProgramID)
	return nil
}
