package types

// Store header / key entry flags
const (
	FlagUndefined  = 0               // undefined flag set in the start of writing
	FlagCompleted  = 1 << (iota - 1) // 1
	FlagSealed                       // 2
	FlagExportable                   // 4
	FlagDeleted                      // 8
)

// Key blob sealing algorithm
const (
	SealChacha20 = 1 << iota
	SealAESGCM
)

// Allowed purposes bitmask stored in KeyMeta
const (
	CanSign uint8 = 1 << iota
	CanVerify
)

var FlagNames = map[uint8]string{
	FlagUndefined:  "U",
	FlagCompleted:  "C",
	FlagSealed:     "S",
	FlagExportable: "E",
	FlagDeleted:    "D",
}
