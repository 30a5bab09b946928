package crypto

import (
	"github.com/awnumar/memguard"
)

type Argon2Params struct {
	// all fields have int type, because its just comfortably
	Iterations  int
	MemoryLog   int
	Parallelism int
}

// KeyManager keeps the derived master key in locked memory for
// the lifetime of an unlocked store.
type KeyManager struct {
	masterKey *memguard.LockedBuffer
}

func NewKeyManager(rawPass []byte, salt [16]byte, params Argon2Params) *KeyManager {
	key := Argon2idMasterKey32(rawPass, salt, uint8(params.MemoryLog), uint16(params.Iterations), uint8(params.Parallelism))
	locked := memguard.NewBufferFromBytes(key)
	return &KeyManager{
		masterKey: locked,
	}
}

func (km *KeyManager) MasterKey32() []byte {
	return km.masterKey.Data()
}

func (km *KeyManager) Close() {
	km.masterKey.Destroy()
}
