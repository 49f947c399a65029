package schema

import (
	"github.com/pkg/errors"
)

var ErrUnknownField = errors.New("unknown account field")

// AccountShape is the declared, fixed layout of one persisted account type.
// Field offsets are computed once at construction; the has-one constraint
// and typed binding both read through them.
//
// A tagged shape is prefixed on the wire by its "account:" discriminator.
type AccountShape struct {
	name    string
	tagged  bool
	fields  []Field
	offsets map[string]int
	size    int
	tag     Discriminator
}

// NewAccountShape builds a shape from an ordered field list.
func NewAccountShape(name string, tagged bool, fields ...Field) (*AccountShape, error) {
	shape := &AccountShape{
		name:    name,
		tagged:  tagged,
		fields:  fields,
		offsets: make(map[string]int, len(fields)),
		tag:     AccountDiscriminator(name),
	}

	if tagged {
		shape.size = DiscriminatorSize
	}
	for _, f := range fields {
		if f.Size() == 0 {
			return nil, errors.Wrap(ErrUnknownFieldType, f.Name)
		}
		if _, ok := shape.offsets[f.Name]; ok {
			return nil, errors.Errorf("duplicate account field %q", f.Name)
		}
		shape.offsets[f.Name] = shape.size
		shape.size += f.Size()
	}
	return shape, nil
}

// MustAccountShape is NewAccountShape for layouts declared as package
// globals.
func MustAccountShape(name string, tagged bool, fields ...Field) *AccountShape {
	shape, err := NewAccountShape(name, tagged, fields...)
	if err != nil {
		panic(err)
	}
	return shape
}

// Name returns the layout name the discriminator is derived from.
func (s *AccountShape) Name() string {
	return s.name
}

// Tagged reports whether account data carries the discriminator prefix.
func (s *AccountShape) Tagged() bool {
	return s.tagged
}

// Discriminator returns the "account:" namespace tag for the shape.
func (s *AccountShape) Discriminator() Discriminator {
	return s.tag
}

// Size returns the exact byte size of a conforming account's data.
func (s *AccountShape) Size() int {
	return s.size
}

// Fields returns the ordered field list. Read-only metadata for exporters.
func (s *AccountShape) Fields() []Field {
	return s.fields
}

// FieldOffset returns the byte offset of a named field within account data.
func (s *AccountShape) FieldOffset(name string) (int, error) {
	offset, ok := s.offsets[name]
	if !ok {
		return 0, errors.Wrap(ErrUnknownField, name)
	}
	return offset, nil
}
