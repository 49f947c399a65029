package schema

import (
	"crypto/ed25519"
)

// Role describes how an instruction uses one of its accounts. It is a
// declaration, not a check: the corresponding signer/writable checks run only
// when the descriptor's constraints ask for them.
type Role uint8

const (
	RoleReadonly Role = iota
	RoleMut
	RoleSigner
	RoleAccount
)

func (r Role) String() string {
	switch r {
	case RoleReadonly:
		return "readonly"
	case RoleMut:
		return "mut"
	case RoleSigner:
		return "signer"
	case RoleAccount:
		return "account"
	}
	return "unknown"
}

// SizeAny marks a descriptor that accepts any data length.
const SizeAny = -1

// Constraints is the declared check set for one account. Checks run in the
// validator's fixed order; every configured check must pass before the
// handler body executes.
type Constraints struct {
	// Signer requires the account to have signed the call.
	Signer bool

	// Writable requires the host to have marked the account writable.
	Writable bool

	// Owner, when set, must equal the account's owner program.
	Owner ed25519.PublicKey

	// Address, when set, must equal the account's key exactly.
	Address ed25519.PublicKey

	// Seeds plus Bump must derive the account's key from the program id.
	// The bump is verified, never searched for.
	Seeds [][]byte
	Bump  *uint8

	// HasOne names fields of this account's shape that must hold the key of
	// the same-named, earlier-bound descriptor.
	HasOne []string
}

// Empty reports whether no check is configured.
func (c Constraints) Empty() bool {
	return !c.Signer && !c.Writable &&
		len(c.Owner) == 0 && len(c.Address) == 0 &&
		len(c.Seeds) == 0 && len(c.HasOne) == 0
}

// AccountDescriptor declares one slot in an instruction's ordered account
// list. Binding is positional: descriptor i always binds record i.
type AccountDescriptor struct {
	Name        string
	Role        Role
	DataSize    int
	Shape       *AccountShape
	Constraints Constraints
}

// ExpectedSize returns the exact data size the descriptor demands, or
// SizeAny when any length binds.
func (d AccountDescriptor) ExpectedSize() int {
	if d.Shape != nil {
		return d.Shape.Size()
	}
	if d.DataSize >= 0 {
		return d.DataSize
	}
	return SizeAny
}

// Readonly declares an account slot with no size or privilege demands.
func Readonly(name string) AccountDescriptor {
	return AccountDescriptor{Name: name, Role: RoleReadonly, DataSize: SizeAny}
}

// Mut declares a writable account slot.
func Mut(name string) AccountDescriptor {
	return AccountDescriptor{
		Name:        name,
		Role:        RoleMut,
		DataSize:    SizeAny,
		Constraints: Constraints{Writable: true},
	}
}

// Signer declares a signing account slot.
func Signer(name string) AccountDescriptor {
	return AccountDescriptor{
		Name:        name,
		Role:        RoleSigner,
		DataSize:    SizeAny,
		Constraints: Constraints{Signer: true},
	}
}

// Account declares a typed account slot bound to a shape.
func Account(name string, shape *AccountShape) AccountDescriptor {
	return AccountDescriptor{Name: name, Role: RoleAccount, DataSize: SizeAny, Shape: shape}
}

// WithConstraints returns a copy of the descriptor with the given check set.
// Signer/writable demands implied by the role are preserved.
func (d AccountDescriptor) WithConstraints(c Constraints) AccountDescriptor {
	c.Signer = c.Signer || d.Constraints.Signer
	c.Writable = c.Writable || d.Constraints.Writable
	d.Constraints = c
	return d
}
