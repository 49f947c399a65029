package runtime

import (
	"crypto/ed25519"
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/program-sdk-go/pkg/solana"
)

func TestDecode_RoundTrip(t *testing.T) {
	keys := generateKeys(t, 3)

	states := []State{
		{
			Key:          keys[0],
			Owner:        keys[2],
			Lamports:     1_000_000,
			Data:         []byte{1, 2, 3, 4, 5},
			IsSigner:     true,
			IsWritable:   true,
			IsExecutable: false,
			RentEpoch:    42,
		},
		{
			Key:       keys[1],
			Owner:     solana.SystemProgramID,
			Lamports:  7,
			RentEpoch: 9,
		},
	}

	buf := mustEncode(t, states, []byte{0xde, 0xad, 0xbe, 0xef})

	in, err := Decode(buf)
	require.NoError(t, err)
	require.Len(t, in.Accounts, 2)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, in.Data)

	first := in.Accounts[0]
	assert.Equal(t, keys[0], first.Key())
	assert.Equal(t, keys[2], first.Owner())
	assert.EqualValues(t, 1_000_000, first.Lamports())
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, first.Data())
	assert.True(t, first.IsSigner())
	assert.True(t, first.IsWritable())
	assert.False(t, first.IsExecutable())
	assert.EqualValues(t, 42, first.RentEpoch())
	assert.Equal(t, 0, first.Index())

	second := in.Accounts[1]
	assert.Equal(t, solana.SystemProgramID, second.Owner())
	assert.Equal(t, 0, second.DataLen())
	assert.False(t, second.IsSigner())
	assert.Equal(t, 1, second.Index())
}

func TestDecode_MutationVisibleInBuffer(t *testing.T) {
	keys := generateKeys(t, 1)

	buf := mustEncode(t, []State{{Key: keys[0], Owner: keys[0], Lamports: 100}}, nil)

	in, err := Decode(buf)
	require.NoError(t, err)

	in.Accounts[0].SetLamports(250)

	// No copy-back step: the write landed in the raw buffer and a fresh
	// decode observes it.
	again, err := Decode(buf)
	require.NoError(t, err)
	assert.EqualValues(t, 250, again.Accounts[0].Lamports())
	assert.EqualValues(t, 250, binary.LittleEndian.Uint64(buf[8+solana.AccountLamportsOffset:]))
}

func TestDecode_Idempotent(t *testing.T) {
	keys := generateKeys(t, 1)

	buf := mustEncode(t, []State{{Key: keys[0], Owner: keys[0], Data: []byte{9}}}, []byte{1, 2, 3})

	first, err := Decode(buf)
	require.NoError(t, err)
	second, err := Decode(buf)
	require.NoError(t, err)

	// Views from repeated decodes alias identical memory.
	assert.True(t, &first.Data[0] == &second.Data[0])
	assert.True(t, &first.Accounts[0].Data()[0] == &second.Accounts[0].Data()[0])

	first.Accounts[0].Data()[0] = 77
	assert.EqualValues(t, 77, second.Accounts[0].Data()[0])
}

func TestDecode_DuplicateRecordsAlias(t *testing.T) {
	keys := generateKeys(t, 2)

	states := []State{
		{Key: keys[0], Owner: keys[1], Lamports: 10},
		{Key: keys[1], Owner: keys[1]},
		{Key: keys[0], Owner: keys[1], Lamports: 10}, // same address as slot 0
	}

	buf := mustEncode(t, states, nil)
	in, err := Decode(buf)
	require.NoError(t, err)
	require.Len(t, in.Accounts, 3)

	// One canonical view per logical account: writes through either slot
	// can never diverge.
	assert.Same(t, in.Accounts[0], in.Accounts[2])
	assert.NotSame(t, in.Accounts[0], in.Accounts[1])

	in.Accounts[2].SetLamports(55)
	assert.EqualValues(t, 55, in.Accounts[0].Lamports())
}

func TestDecode_Errors(t *testing.T) {
	keys := generateKeys(t, 1)

	for _, tc := range []struct {
		name string
		buf  []byte
	}{
		{name: "shorter than count", buf: []byte{1, 2, 3}},
		{name: "count past buffer", buf: func() []byte {
			// A hostile count must be rejected before the account table is
			// sized from it, not crash the allocator.
			buf := make([]byte, 16)
			binary.LittleEndian.PutUint64(buf, 1<<61)
			return buf
		}()},
		{name: "record past end", buf: func() []byte {
			buf := make([]byte, 8)
			binary.LittleEndian.PutUint64(buf, 1)
			return buf
		}()},
		{name: "data past end", buf: func() []byte {
			buf := mustEncode(t, []State{{Key: keys[0], Owner: keys[0]}}, nil)
			binary.LittleEndian.PutUint64(buf[8+solana.AccountDataLenOffset:], 1<<40)
			return buf
		}()},
		{name: "payload length unreadable", buf: func() []byte {
			buf := mustEncode(t, []State{{Key: keys[0], Owner: keys[0]}}, nil)
			return buf[:len(buf)-9]
		}()},
		{name: "duplicate of unknown record", buf: func() []byte {
			buf := mustEncode(t, []State{{Key: keys[0], Owner: keys[0]}}, nil)
			buf[8] = 3
			return buf
		}()},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.buf)
			assert.Equal(t, ErrInvalidInput, errors.Cause(err))
		})
	}
}

func TestEncode_DuplicateIndexLimit(t *testing.T) {
	// Duplicate records reference their original by a single byte, with
	// 0xff reserved; an original past slot 254 cannot be referenced.
	numbered := func(i int) ed25519.PublicKey {
		key := make(ed25519.PublicKey, ed25519.PublicKeySize)
		binary.LittleEndian.PutUint16(key, uint16(i))
		return key
	}

	states := make([]State, 0, 257)
	for i := 0; i < 255; i++ {
		states = append(states, State{Key: numbered(i), Owner: numbered(i)})
	}

	// Original at slot 254 is the last representable reference.
	buf, err := Encode(append(states, states[254]), nil)
	require.NoError(t, err)
	in, err := Decode(buf)
	require.NoError(t, err)
	assert.Same(t, in.Accounts[254], in.Accounts[255])

	// One more unique record pushes the next original to slot 255.
	states = append(states, State{Key: numbered(255), Owner: numbered(255)})
	_, err = Encode(append(states, states[255]), nil)
	assert.Equal(t, ErrTooManyAccounts, errors.Cause(err))
}

func TestAccount_Realloc(t *testing.T) {
	keys := generateKeys(t, 1)

	buf := mustEncode(t, []State{{Key: keys[0], Owner: keys[0], Data: []byte{1, 2}}}, nil)
	in, err := Decode(buf)
	require.NoError(t, err)

	account := in.Accounts[0]
	assert.Equal(t, 2+solana.MaxPermittedDataGrowth, account.Capacity())

	require.NoError(t, account.Realloc(6))
	assert.Equal(t, []byte{1, 2, 0, 0, 0, 0}, account.Data())

	require.NoError(t, account.Realloc(1))
	assert.Equal(t, []byte{1}, account.Data())

	assert.Error(t, account.Realloc(account.Capacity()+1))
	assert.Error(t, account.Realloc(-1))
}

func mustEncode(t *testing.T, states []State, data []byte) []byte {
	buf, err := Encode(states, data)
	require.NoError(t, err)
	return buf
}

func generateKeys(t *testing.T, amount int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, amount)

	for i := 0; i < amount; i++ {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = pub
	}

	return keys
}
