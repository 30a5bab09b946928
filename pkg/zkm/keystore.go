package zkm

import (
	"errors"

	"github.com/0x0FACED/uuid"
	"github.com/0x0FACED/zkm/pkg/core/v1/crypto"
	"github.com/0x0FACED/zkm/pkg/core/v1/digest"
	"github.com/0x0FACED/zkm/pkg/core/v1/file"
	"github.com/0x0FACED/zkm/pkg/core/v1/types"
)

// максимальный размер импортируемого ключа
const MaxKeySize = 1024

// KeyStore представляет открытое хранилище ключей zkm
type KeyStore struct {
	kf      *types.KeyFile
	session *Session
}

// Create makes a new store file protected by password.
func Create(path string, password []byte) (*KeyStore, error) {
	kf, err := types.NewKeyFile(path, password)
	if err != nil {
		return nil, err
	}

	if err := kf.Save(); err != nil {
		return nil, err
	}

	storeID := uuid.NewV4()
	session := NewSession(storeID.String(), kf.KEK())

	return &KeyStore{
		kf:      kf,
		session: session,
	}, nil
}

// Open unlocks an existing store with password.
func Open(path string, password []byte) (*KeyStore, error) {
	kf, err := file.Open(path, password)
	if err != nil {
		if errors.Is(err, file.ErrInvalidPassword) {
			return nil, ErrInvalidPassword
		}
		return nil, err
	}

	if err := kf.ValidateChecksum(); err != nil {
		kf.Close()
		return nil, ErrStoreCorrupted
	}

	storeID := uuid.NewV4()
	session := NewSession(storeID.String(), kf.KEK())

	return &KeyStore{
		kf:      kf,
		session: session,
	}, nil
}

// GenerateKey creates fresh random key material for the digest
// algorithm and stores it sealed. Material length is the native
// digest size of the algorithm.
func (ks *KeyStore) GenerateKey(name string, algo digest.Algorithm, purposes uint8, tagLength int) (types.KeyMeta, error) {
	if !ks.session.IsActive() {
		return types.KeyMeta{}, ErrNoActiveSession
	}

	material, err := crypto.KeyBytes(algo.Size())
	if err != nil {
		return types.KeyMeta{}, err
	}

	return ks.putKey(name, material, algo, purposes, tagLength)
}

// ImportKey stores caller-provided key material sealed.
func (ks *KeyStore) ImportKey(name string, material []byte, algo digest.Algorithm, purposes uint8, tagLength int) (types.KeyMeta, error) {
	if !ks.session.IsActive() {
		return types.KeyMeta{}, ErrNoActiveSession
	}

	if len(material) > MaxKeySize {
		return types.KeyMeta{}, ErrKeyTooLarge
	}

	return ks.putKey(name, material, algo, purposes, tagLength)
}

func (ks *KeyStore) putKey(name string, material []byte, algo digest.Algorithm, purposes uint8, tagLength int) (types.KeyMeta, error) {
	meta, err := types.NewKeyMeta(name, algo, purposes, tagLength)
	if err != nil {
		return types.KeyMeta{}, err
	}

	if err := ks.kf.WriteKey(meta, material); err != nil {
		if errors.Is(err, types.ErrKeyExists) {
			return types.KeyMeta{}, ErrKeyExists
		}
		return types.KeyMeta{}, err
	}

	// чистим материал сразу после запечатывания
	for i := range material {
		material[i] = 0
	}

	if err := ks.kf.Save(); err != nil {
		return types.KeyMeta{}, err
	}

	return meta, nil
}

// Keys returns metadata of all stored keys, deleted ones included.
func (ks *KeyStore) Keys() []types.KeyMeta {
	return ks.kf.Metas()
}

// DeleteKey removes a key. Hard delete scrubs the sealed blob.
func (ks *KeyStore) DeleteKey(name string, hard bool) error {
	if !ks.session.IsActive() {
		return ErrNoActiveSession
	}

	var err error
	if hard {
		err = ks.kf.DeleteKeyHard(name)
	} else {
		err = ks.kf.DeleteKeySoft(name)
	}

	if err != nil {
		if errors.Is(err, types.ErrKeyNotFound) {
			return ErrKeyNotFound
		}
		return err
	}

	return ks.kf.Save()
}

func (ks *KeyStore) Header() types.Header {
	return ks.kf.Header()
}

func (ks *KeyStore) Session() *Session {
	return ks.session
}

func (ks *KeyStore) Path() string {
	return ks.kf.Path()
}

func (ks *KeyStore) Close() error {
	ks.session.Close()
	return ks.kf.Close()
}
