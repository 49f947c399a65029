package solana

// Wire format of the input buffer a host hands to a program entrypoint:
//
//	count:u64
//	count account records
//	pad to 8 byte alignment
//	data_len:u64
//	data_len bytes of instruction data
//
// A unique account record is:
//
//	duplicate:u8 (0xff)
//	is_signer:u8, is_writable:u8, is_executable:u8
//	padding:[4]u8
//	key:[32]u8
//	owner:[32]u8
//	lamports:u64
//	data_len:u64
//	data:[data_len]u8
//	growth region:[MaxPermittedDataGrowth]u8
//	pad to 8 byte alignment
//	rent_epoch:u64
//
// A duplicate record is a single byte holding the index of the earlier
// record it aliases, followed by 7 bytes of padding.
//
// Offsets must match the host ABI byte for byte; a mismatch is a silent
// correctness bug rather than a decode error.
const (
	// NonDuplicateMarker in the first byte of a record marks a full record.
	// Any other value is the index of the aliased account.
	NonDuplicateMarker = 0xff

	// AccountHeaderSize is the fixed prefix of a unique record: flag bytes
	// plus key, owner, lamports and data_len.
	AccountHeaderSize = 8 + PublicKeyLength + PublicKeyLength + 8 + 8

	// DuplicateRecordSize is the full size of a duplicate record.
	DuplicateRecordSize = 8

	// MaxPermittedDataGrowth is the zeroed region after each account's data
	// reserved for in-place reallocation.
	MaxPermittedDataGrowth = 10 * 1024

	// RentEpochSize trails every unique record.
	RentEpochSize = 8

	// BufferAlignment applies between the record region and the instruction
	// data length, and within each record before the rent epoch.
	BufferAlignment = 8
)

// Field offsets within a unique account record.
const (
	AccountSignerOffset     = 1
	AccountWritableOffset   = 2
	AccountExecutableOffset = 3
	AccountKeyOffset        = 8
	AccountOwnerOffset      = AccountKeyOffset + PublicKeyLength
	AccountLamportsOffset   = AccountOwnerOffset + PublicKeyLength
	AccountDataLenOffset    = AccountLamportsOffset + 8
	AccountDataOffset       = AccountHeaderSize
)

// AlignUp rounds n up to the next multiple of BufferAlignment.
func AlignUp(n int) int {
	return (n + BufferAlignment - 1) &^ (BufferAlignment - 1)
}
