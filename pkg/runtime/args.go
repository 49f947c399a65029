package runtime

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/program-sdk-go/pkg/schema"
)

// Args holds one invocation's decoded argument values, addressable by field
// name. Decoding is purely positional: each declared field is read in
// declaration order as a fixed-width little-endian value, with no embedded
// schema or length prefix beyond the instruction tag.
type Args struct {
	values map[string]interface{}
}

func decodeArgs(layout schema.Args, data []byte) (*Args, error) {
	if len(data) < layout.Size() {
		return nil, errors.Wrapf(ErrArgsDecode, "%d bytes for %d byte layout", len(data), layout.Size())
	}

	var offset int
	values, err := decodeFields(layout, data, &offset)
	if err != nil {
		return nil, err
	}
	return &Args{values: values}, nil
}

func decodeFields(fields []schema.Field, data []byte, offset *int) (map[string]interface{}, error) {
	values := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		value, err := decodeField(f, data, offset)
		if err != nil {
			return nil, err
		}
		values[f.Name] = value
	}
	return values, nil
}

func decodeField(f schema.Field, data []byte, offset *int) (interface{}, error) {
	start := *offset
	*offset += f.Size()

	switch f.Type {
	case schema.TypeUint8:
		return data[start], nil
	case schema.TypeUint16:
		return binary.LittleEndian.Uint16(data[start:]), nil
	case schema.TypeUint32:
		return binary.LittleEndian.Uint32(data[start:]), nil
	case schema.TypeUint64:
		return binary.LittleEndian.Uint64(data[start:]), nil
	case schema.TypeInt64:
		return int64(binary.LittleEndian.Uint64(data[start:])), nil
	case schema.TypeBool:
		return data[start] != 0, nil
	case schema.TypePublicKey:
		key := make(ed25519.PublicKey, ed25519.PublicKeySize)
		copy(key, data[start:])
		return key, nil
	case schema.TypeBytes32:
		var value [32]byte
		copy(value[:], data[start:])
		return value, nil
	case schema.TypeStruct:
		nestedOffset := start
		values, err := decodeFields(f.Fields, data, &nestedOffset)
		if err != nil {
			return nil, err
		}
		return &Args{values: values}, nil
	}
	return nil, errors.Wrap(schema.ErrUnknownFieldType, f.Name)
}

// Get returns the raw decoded value for a field.
func (a *Args) Get(name string) (interface{}, bool) {
	value, ok := a.values[name]
	return value, ok
}

// Uint8 returns the named u8 field, or zero if absent or mistyped.
func (a *Args) Uint8(name string) uint8 {
	value, _ := a.values[name].(uint8)
	return value
}

// Uint16 returns the named u16 field.
func (a *Args) Uint16(name string) uint16 {
	value, _ := a.values[name].(uint16)
	return value
}

// Uint32 returns the named u32 field.
func (a *Args) Uint32(name string) uint32 {
	value, _ := a.values[name].(uint32)
	return value
}

// Uint64 returns the named u64 field.
func (a *Args) Uint64(name string) uint64 {
	value, _ := a.values[name].(uint64)
	return value
}

// Int64 returns the named i64 field.
func (a *Args) Int64(name string) int64 {
	value, _ := a.values[name].(int64)
	return value
}

// Bool returns the named bool field.
func (a *Args) Bool(name string) bool {
	value, _ := a.values[name].(bool)
	return value
}

// PublicKey returns the named key field.
func (a *Args) PublicKey(name string) ed25519.PublicKey {
	value, _ := a.values[name].(ed25519.PublicKey)
	return value
}

// Bytes32 returns the named 32-byte field.
func (a *Args) Bytes32(name string) [32]byte {
	value, _ := a.values[name].([32]byte)
	return value
}

// Struct returns the named nested struct's fields.
func (a *Args) Struct(name string) *Args {
	value, _ := a.values[name].(*Args)
	return value
}
