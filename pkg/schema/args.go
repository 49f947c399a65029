package schema

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"
)

var (
	ErrUnknownFieldType = errors.New("unknown field type")
	ErrMissingValue     = errors.New("missing argument value")
	ErrValueType        = errors.New("unexpected argument value type")
)

// FieldType enumerates the fixed-width primitives an argument or account
// field can hold. Every type has a fixed byte width; there is no length
// prefixing or self-description on the wire.
type FieldType uint8

const (
	TypeUint8 FieldType = iota + 1
	TypeUint16
	TypeUint32
	TypeUint64
	TypeInt64
	TypeBool
	TypePublicKey
	TypeBytes32
	TypeStruct
)

// Field is one named, fixed-width field in an argument or account layout.
// A TypeStruct field nests a fixed layout of its own; nested fields are
// encoded inline, in declaration order, with no tag or padding.
type Field struct {
	Name   string
	Type   FieldType
	Fields []Field
}

// Size returns the encoded byte width of the field.
func (f Field) Size() int {
	if f.Type == TypeStruct {
		var size int
		for _, nested := range f.Fields {
			size += nested.Size()
		}
		return size
	}

	switch f.Type {
	case TypeUint8, TypeBool:
		return 1
	case TypeUint16:
		return 2
	case TypeUint32:
		return 4
	case TypeUint64, TypeInt64:
		return 8
	case TypePublicKey:
		return ed25519.PublicKeySize
	case TypeBytes32:
		return 32
	}
	return 0
}

// Args is the ordered argument layout of one instruction. Arguments are
// read positionally in declaration order as little-endian values; the only
// tag on the wire is the instruction discriminator in front of them.
type Args []Field

// Size returns the total encoded size of the argument list.
func (a Args) Size() int {
	var size int
	for _, f := range a {
		size += f.Size()
	}
	return size
}

// Encode serializes the named values per the layout. Every declared field
// must be present; extra values are rejected, at any nesting level.
func (a Args) Encode(values map[string]interface{}) ([]byte, error) {
	data := make([]byte, a.Size())

	var offset int
	if err := encodeFields(data, &offset, a, values); err != nil {
		return nil, err
	}
	return data, nil
}

func encodeFields(data []byte, offset *int, fields []Field, values map[string]interface{}) error {
	if len(values) > len(fields) {
		return errors.Wrap(ErrValueType, "unused argument values")
	}
	for _, f := range fields {
		value, ok := values[f.Name]
		if !ok {
			return errors.Wrap(ErrMissingValue, f.Name)
		}
		if err := encodeField(data, offset, f, value); err != nil {
			return err
		}
	}
	return nil
}

func encodeField(data []byte, offset *int, f Field, value interface{}) error {
	switch f.Type {
	case TypeUint8:
		v, ok := asUint64(value)
		if !ok || v > 0xff {
			return errors.Wrap(ErrValueType, f.Name)
		}
		data[*offset] = uint8(v)
	case TypeUint16:
		v, ok := asUint64(value)
		if !ok || v > 0xffff {
			return errors.Wrap(ErrValueType, f.Name)
		}
		binary.LittleEndian.PutUint16(data[*offset:], uint16(v))
	case TypeUint32:
		v, ok := asUint64(value)
		if !ok || v > 0xffffffff {
			return errors.Wrap(ErrValueType, f.Name)
		}
		binary.LittleEndian.PutUint32(data[*offset:], uint32(v))
	case TypeUint64:
		v, ok := asUint64(value)
		if !ok {
			return errors.Wrap(ErrValueType, f.Name)
		}
		binary.LittleEndian.PutUint64(data[*offset:], v)
	case TypeInt64:
		v, ok := value.(int64)
		if !ok {
			return errors.Wrap(ErrValueType, f.Name)
		}
		binary.LittleEndian.PutUint64(data[*offset:], uint64(v))
	case TypeBool:
		v, ok := value.(bool)
		if !ok {
			return errors.Wrap(ErrValueType, f.Name)
		}
		if v {
			data[*offset] = 1
		}
	case TypePublicKey:
		v, ok := value.(ed25519.PublicKey)
		if !ok || len(v) != ed25519.PublicKeySize {
			return errors.Wrap(ErrValueType, f.Name)
		}
		copy(data[*offset:], v)
	case TypeBytes32:
		v, ok := value.([32]byte)
		if !ok {
			return errors.Wrap(ErrValueType, f.Name)
		}
		copy(data[*offset:], v[:])
	case TypeStruct:
		v, ok := value.(map[string]interface{})
		if !ok {
			return errors.Wrap(ErrValueType, f.Name)
		}
		nestedOffset := *offset
		if err := encodeFields(data, &nestedOffset, f.Fields, v); err != nil {
			return err
		}
	default:
		return errors.Wrap(ErrUnknownFieldType, f.Name)
	}

	*offset += f.Size()
	return nil
}

func asUint64(value interface{}) (uint64, bool) {
	switch v := value.(type) {
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint64:
		return v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	}
	return 0, false
}
