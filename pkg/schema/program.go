package schema

import (
	"crypto/ed25519"

	"github.com/pkg/errors"
)

var (
	ErrDiscriminatorCollision = errors.New("instruction discriminator collision")
	ErrNoInstructions         = errors.New("program declares no instructions")
	ErrInvalidProgramID       = errors.New("invalid program id")
)

// DispatchMode selects how instruction data routes to a handler.
type DispatchMode uint8

const (
	// DispatchPerInstruction routes by discriminator and binds the matched
	// instruction's own account list. The most general shape.
	DispatchPerInstruction DispatchMode = iota

	// DispatchSharedAccounts routes by discriminator but binds one
	// program-level account list, shared by every instruction.
	DispatchSharedAccounts

	// DispatchSingle skips the discriminator entirely; the whole payload is
	// the single instruction's arguments.
	DispatchSingle
)

// Instruction is the ahead-of-time description of one instruction: its name,
// ordered account descriptors and argument layout. The discriminator is
// derived from the name at construction, never stored on the wire twice.
type Instruction struct {
	name     string
	tag      Discriminator
	accounts []AccountDescriptor
	args     Args
}

// NewInstruction declares an instruction.
func NewInstruction(name string, accounts []AccountDescriptor, args Args) *Instruction {
	return &Instruction{
		name:     name,
		tag:      InstructionDiscriminator(name),
		accounts: accounts,
		args:     args,
	}
}

// Name returns the instruction name.
func (i *Instruction) Name() string {
	return i.name
}

// Discriminator returns the derived routing tag.
func (i *Instruction) Discriminator() Discriminator {
	return i.tag
}

// Accounts returns the ordered descriptor list. Read-only metadata.
func (i *Instruction) Accounts() []AccountDescriptor {
	return i.accounts
}

// Args returns the argument layout. Read-only metadata.
func (i *Instruction) Args() Args {
	return i.args
}

// Program is the complete, ahead-of-time description of one program: its id
// and every instruction it serves. It is built once at process start and is
// immutable afterwards; there is no runtime registration.
type Program struct {
	id           ed25519.PublicKey
	mode         DispatchMode
	instructions []*Instruction
	byTag        map[Discriminator]*Instruction
	shared       []AccountDescriptor
}

// NewProgram builds a program routing by discriminator, each instruction
// carrying its own account list.
func NewProgram(id ed25519.PublicKey, instructions ...*Instruction) (*Program, error) {
	return newProgram(id, DispatchPerInstruction, nil, instructions)
}

// NewSharedAccountsProgram builds a program whose instructions all bind the
// same account list; the discriminator only selects the handler.
func NewSharedAccountsProgram(id ed25519.PublicKey, accounts []AccountDescriptor, instructions ...*Instruction) (*Program, error) {
	return newProgram(id, DispatchSharedAccounts, accounts, instructions)
}

// NewSingleInstructionProgram builds a program with exactly one instruction
// and no discriminator on the wire.
func NewSingleInstructionProgram(id ed25519.PublicKey, instruction *Instruction) (*Program, error) {
	return newProgram(id, DispatchSingle, nil, []*Instruction{instruction})
}

func newProgram(id ed25519.PublicKey, mode DispatchMode, shared []AccountDescriptor, instructions []*Instruction) (*Program, error) {
	if len(id) != ed25519.PublicKeySize {
		return nil, ErrInvalidProgramID
	}
	if len(instructions) == 0 {
		return nil, ErrNoInstructions
	}

	p := &Program{
		id:           id,
		mode:         mode,
		instructions: instructions,
		byTag:        make(map[Discriminator]*Instruction, len(instructions)),
		shared:       shared,
	}

	// The derivation is assumed collision free within one schema; assert it
	// here rather than trusting the assumption silently.
	for _, ins := range instructions {
		if prior, ok := p.byTag[ins.tag]; ok {
			return nil, errors.Wrapf(ErrDiscriminatorCollision, "%q and %q", prior.name, ins.name)
		}
		p.byTag[ins.tag] = ins
	}
	return p, nil
}

// ID returns the program id.
func (p *Program) ID() ed25519.PublicKey {
	return p.id
}

// Mode returns the dispatch shape.
func (p *Program) Mode() DispatchMode {
	return p.mode
}

// Instructions returns the declared instruction list. Read-only metadata for
// schema exporters.
func (p *Program) Instructions() []*Instruction {
	return p.instructions
}

// SharedAccounts returns the program-level account list for
// DispatchSharedAccounts programs.
func (p *Program) SharedAccounts() []AccountDescriptor {
	return p.shared
}

// Lookup matches a discriminator against the routing table.
func (p *Program) Lookup(tag Discriminator) (*Instruction, bool) {
	ins, ok := p.byTag[tag]
	return ins, ok
}

// Single returns the sole instruction of a DispatchSingle program.
func (p *Program) Single() *Instruction {
	return p.instructions[0]
}

// AccountsFor returns the descriptor list the given instruction binds under
// the program's dispatch mode.
func (p *Program) AccountsFor(ins *Instruction) []AccountDescriptor {
	if p.mode == DispatchSharedAccounts {
		return p.shared
	}
	return ins.accounts
}
