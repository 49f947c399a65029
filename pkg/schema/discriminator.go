package schema

import (
	"crypto/sha256"
)

// DiscriminatorSize is the byte length of a routing tag.
const DiscriminatorSize = 8

const (
	instructionNamespace = "global"
	accountNamespace     = "account"
)

// Discriminator is the fixed-size tag that routes instruction data to a
// handler, or identifies a persisted account layout. It is the first eight
// bytes of SHA-256 over the namespaced name, and is derived, never stored,
// at schema construction time.
type Discriminator [DiscriminatorSize]byte

func namespacedDiscriminator(namespace, name string) Discriminator {
	h := sha256.Sum256([]byte(namespace + ":" + name))

	var d Discriminator
	copy(d[:], h[:DiscriminatorSize])
	return d
}

// InstructionDiscriminator derives the routing tag for an instruction name.
func InstructionDiscriminator(name string) Discriminator {
	return namespacedDiscriminator(instructionNamespace, name)
}

// AccountDiscriminator derives the tag prefixing persisted account data of
// the named layout.
func AccountDiscriminator(name string) Discriminator {
	return namespacedDiscriminator(accountNamespace, name)
}
