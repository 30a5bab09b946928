package types

import (
	"errors"
	"time"

	"github.com/0x0FACED/uuid"
	"github.com/0x0FACED/zkm/pkg/core/v1/digest"
)

// fixed size key metadata structure
type KeyMeta struct {
	Name       [32]byte // 32 bytes, key name (zero padded)
	ID         [16]byte // 16 bytes, key ID (UUID)
	Offset     uint64   // 8 bytes, offset of the sealed blob in the file
	Size       uint64   // 8 bytes, size of the sealed blob
	CreatedAt  uint64   // 8 bytes, time of creation (unix)
	ModifiedAt uint64   // 8 bytes, time of last modification (unix)
	Algorithm  uint8    // digest algorithm the key is bound to
	Purposes   uint8    // allowed purposes bitmask (CanSign | CanVerify)
	TagLength  uint8    // default tag length in bytes
	Flags      uint8    // bit flags (sealed, deleted, ...)
	Nonce      [12]byte // 12 bytes, blob seal nonce
	Reserved   [8]byte  // reserved for future use
}

func NewKeyMeta(name string, algo digest.Algorithm, purposes uint8, tagLength int) (KeyMeta, error) {
	if len(name) > 32 {
		return KeyMeta{}, errors.New("key name must be less than 32 bytes")
	}

	if !algo.Supported() {
		return KeyMeta{}, errors.New("unsupported digest algorithm")
	}

	if tagLength < 0 || tagLength > algo.Size() {
		return KeyMeta{}, errors.New("tag length exceeds native digest size")
	}

	var nameBytes [32]byte
	copy(nameBytes[:], name)

	now := uint64(time.Now().Unix())

	return KeyMeta{
		Name:       nameBytes,
		ID:         uuid.NewV4(),
		CreatedAt:  now,
		ModifiedAt: now,
		Algorithm:  uint8(algo),
		Purposes:   purposes,
		TagLength:  uint8(tagLength),
		Flags:      FlagUndefined,
	}, nil
}

// NameString trims zero padding from the fixed-size name.
func (m *KeyMeta) NameString() string {
	end := len(m.Name)
	for i, v := range m.Name {
		if v == 0 {
			end = i
			break
		}
	}
	return string(m.Name[:end])
}

func (m *KeyMeta) Deleted() bool {
	return m.Flags&FlagDeleted != 0
}
