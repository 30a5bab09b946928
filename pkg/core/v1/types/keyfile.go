package types

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/0x0FACED/uuid"
	"github.com/0x0FACED/zkm/pkg/core/v1/crypto"
)

// default params for argon
const (
	ArgonMemoryLog2  = 18
	ArgonIterations  = 5
	ArgonParallelism = 1
)

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrKeyDeleted  = errors.New("key is deleted")
	ErrKeyExists   = errors.New("key already exists")
)

// KeyFile is the on-disk key store: fixed header, sealed key blobs,
// index table at the end. Key material never hits the disk in
// plaintext, every blob is sealed with the KEK.
type KeyFile struct {
	f          *os.File
	header     Header
	indexTable IndexTable
	km         *crypto.KeyManager
	kek        [32]byte

	mu sync.Mutex
}

func NewKeyFile(path string, password []byte) (*KeyFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	salt, err := crypto.Salt16()
	if err != nil {
		return nil, err
	}

	// master key lives in locked memory for the lifetime of the store
	km := crypto.NewKeyManager(password, salt, crypto.Argon2Params{
		Iterations:  ArgonIterations,
		MemoryLog:   ArgonMemoryLog2,
		Parallelism: ArgonParallelism,
	})

	encryptedKEK, err := crypto.EncryptKEK(km.MasterKey32())
	if err != nil {
		km.Close()
		return nil, err
	}

	ownerID := uuid.NewV4()

	now := time.Now().Unix()

	indexTableNonce, err := crypto.Nonce12()
	if err != nil {
		return nil, err
	}

	kf := &KeyFile{
		f:  f,
		km: km,
		header: Header{
			Version:          0x01,            // file format version
			Flags:            FlagUndefined,   // write not complete
			SealAlgo:         SealChacha20,    // default sealing
			ArgonMemoryLog2:  ArgonMemoryLog2, // 256 KiB memory, 1<<ArgonMemoryLog2
			KeyCount:         0x00,
			CreatedAt:        now,
			ModifiedAt:       now,
			DataSize:         0x00,
			OwnerID:          ownerID,
			ArgonSalt:        salt,
			ArgonIterations:  ArgonIterations,
			ArgonParallelism: ArgonParallelism,
			Checksum:         [32]byte{},
			EncryptedKEK:     encryptedKEK,
			IndexTableOffset: HEADER_SIZE,
			IndexTableNonce:  indexTableNonce,
			Reserved:         [60]byte{},
		},
		indexTable: IndexTable{
			Keys: []KeyMeta{},
		},
	}

	// KEK is needed in memory for sealing, recover it right away.
	// The tag is computed below over the final header bytes.
	kf.header.VerificationTag = crypto.HMAC([32]byte(km.MasterKey32()), kf.header.AuthenticatedBytes())

	kek, err := crypto.DecryptKEK(km.MasterKey32(), encryptedKEK, kf.header.VerificationTag, kf.header.AuthenticatedBytes())
	if err != nil {
		km.Close()
		return nil, err
	}
	kf.kek = kek

	if err := kf.writeHeader(); err != nil {
		return nil, err
	}

	return kf, nil
}

func (kf *KeyFile) SetFile(f *os.File) {
	kf.mu.Lock()
	defer kf.mu.Unlock()

	kf.f = f
}

func (kf *KeyFile) SetHeader(header Header) {
	kf.mu.Lock()
	defer kf.mu.Unlock()

	kf.header = header
}

func (kf *KeyFile) Header() Header {
	kf.mu.Lock()
	defer kf.mu.Unlock()

	return kf.header
}

func (kf *KeyFile) SetIndexTable(indexTable IndexTable) {
	kf.mu.Lock()
	defer kf.mu.Unlock()

	kf.indexTable = indexTable
}

func (kf *KeyFile) IndexTable() IndexTable {
	kf.mu.Lock()
	defer kf.mu.Unlock()

	return kf.indexTable
}

func (kf *KeyFile) SetKeyManager(km *crypto.KeyManager) {
	kf.mu.Lock()
	defer kf.mu.Unlock()

	kf.km = km
}

func (kf *KeyFile) SetKEK(kek [32]byte) {
	kf.mu.Lock()
	defer kf.mu.Unlock()

	kf.kek = kek
}

// KEK returns the key-encryption key of the opened store.
// Caller must not retain it longer than the session.
func (kf *KeyFile) KEK() [32]byte {
	kf.mu.Lock()
	defer kf.mu.Unlock()

	return kf.kek
}

func (kf *KeyFile) File() *os.File {
	kf.mu.Lock()
	defer kf.mu.Unlock()

	return kf.f
}

func (kf *KeyFile) Path() string {
	kf.mu.Lock()
	defer kf.mu.Unlock()

	return kf.f.Name()
}

// Close wipes the locked master key and closes the file.
func (kf *KeyFile) Close() error {
	kf.mu.Lock()
	defer kf.mu.Unlock()

	kf.km.Close()
	return kf.f.Close()
}

// WriteKey seals material with the KEK and appends the blob after
// the existing payload. The index table entry is kept in memory
// until Save.
func (kf *KeyFile) WriteKey(meta KeyMeta, material []byte) error {
	kf.mu.Lock()
	defer kf.mu.Unlock()

	for i := range kf.indexTable.Keys {
		if kf.indexTable.Keys[i].Name == meta.Name && !kf.indexTable.Keys[i].Deleted() {
			return fmt.Errorf("key %q: %w", meta.NameString(), ErrKeyExists)
		}
	}

	nonce, err := crypto.Nonce12()
	if err != nil {
		return err
	}

	sealed, err := crypto.SealKeyBlob(kf.kek[:], nonce[:], material)
	if err != nil {
		return err
	}

	offset, err := kf.f.Seek(int64(kf.payloadEndOffset()), io.SeekStart)
	if err != nil {
		return err
	}

	n, err := kf.f.Write(sealed)
	if err != nil {
		return err
	}

	now := uint64(time.Now().Unix())
	meta.Offset = uint64(offset)
	meta.Size = uint64(n)
	meta.Nonce = nonce
	meta.ModifiedAt = now
	meta.Flags = FlagCompleted | FlagSealed

	kf.indexTable.Keys = append(kf.indexTable.Keys, meta)
	kf.header.KeyCount++
	kf.header.DataSize += uint64(n)
	kf.header.ModifiedAt = time.Now().Unix()

	return nil
}

// ReadKey unseals and returns the key material by name.
func (kf *KeyFile) ReadKey(name string) (KeyMeta, []byte, error) {
	kf.mu.Lock()
	defer kf.mu.Unlock()

	meta := kf.findMeta(name)
	if meta == nil {
		return KeyMeta{}, nil, ErrKeyNotFound
	}
	if meta.Deleted() {
		return KeyMeta{}, nil, ErrKeyDeleted
	}

	blob := make([]byte, meta.Size)
	if _, err := kf.f.ReadAt(blob, int64(meta.Offset)); err != nil {
		return KeyMeta{}, nil, fmt.Errorf("failed to read key blob at offset %d: %w", meta.Offset, err)
	}

	material, err := crypto.OpenKeyBlob(kf.kek[:], meta.Nonce[:], blob)
	if err != nil {
		return KeyMeta{}, nil, err
	}

	return *meta, material, nil
}

// DeleteKeySoft marks the key as deleted, blob stays in place.
func (kf *KeyFile) DeleteKeySoft(name string) error {
	kf.mu.Lock()
	defer kf.mu.Unlock()

	meta := kf.findMeta(name)
	if meta == nil {
		return ErrKeyNotFound
	}

	meta.Flags |= FlagDeleted
	meta.ModifiedAt = uint64(time.Now().Unix())
	kf.header.ModifiedAt = time.Now().Unix()

	return nil
}

// DeleteKeyHard scrubs the sealed blob with zeros and marks the
// entry deleted. Offsets of other blobs do not move.
func (kf *KeyFile) DeleteKeyHard(name string) error {
	kf.mu.Lock()
	defer kf.mu.Unlock()

	meta := kf.findMeta(name)
	if meta == nil {
		return ErrKeyNotFound
	}

	zeros := make([]byte, meta.Size)
	if _, err := kf.f.WriteAt(zeros, int64(meta.Offset)); err != nil {
		return err
	}

	meta.Flags |= FlagDeleted
	meta.ModifiedAt = uint64(time.Now().Unix())
	kf.header.ModifiedAt = time.Now().Unix()

	return nil
}

// Metas returns a copy of the index table entries.
func (kf *KeyFile) Metas() []KeyMeta {
	kf.mu.Lock()
	defer kf.mu.Unlock()

	metas := make([]KeyMeta, len(kf.indexTable.Keys))
	copy(metas, kf.indexTable.Keys)
	return metas
}

// Save writes the index table after the payload, recomputes the
// verification tag and checksum and rewrites the header.
func (kf *KeyFile) Save() error {
	kf.mu.Lock()
	defer kf.mu.Unlock()

	kf.header.IndexTableOffset = kf.payloadEndOffset()

	if _, err := kf.f.Seek(int64(kf.header.IndexTableOffset), io.SeekStart); err != nil {
		return err
	}

	indexBuf := bytes.NewBuffer(nil)
	if err := kf.indexTable.Encode(indexBuf); err != nil {
		return err
	}

	if _, err := kf.f.Write(indexBuf.Bytes()); err != nil {
		return err
	}

	kf.header.ModifiedAt = time.Now().Unix()
	kf.header.Flags |= FlagCompleted

	// tag covers the final header bytes, so recompute after
	// all header mutations
	kf.header.VerificationTag = crypto.HMAC([32]byte(kf.km.MasterKey32()), kf.header.AuthenticatedBytes())
	kf.header.Checksum = kf.checksum(indexBuf.Bytes())

	if err := kf.writeHeader(); err != nil {
		return err
	}

	return kf.f.Sync()
}

// ValidateChecksum recomputes the file checksum and compares it to
// the stored one.
func (kf *KeyFile) ValidateChecksum() error {
	kf.mu.Lock()
	defer kf.mu.Unlock()

	indexBuf := bytes.NewBuffer(nil)
	if err := kf.indexTable.Encode(indexBuf); err != nil {
		return err
	}

	expected := kf.checksum(indexBuf.Bytes())
	if expected != kf.header.Checksum {
		return errors.New("checksum mismatch")
	}

	return nil
}

func (kf *KeyFile) findMeta(name string) *KeyMeta {
	var nameBytes [32]byte
	copy(nameBytes[:], name)

	for i := range kf.indexTable.Keys {
		if kf.indexTable.Keys[i].Name == nameBytes {
			return &kf.indexTable.Keys[i]
		}
	}
	return nil
}

func (kf *KeyFile) payloadEndOffset() uint64 {
	return HEADER_SIZE + kf.header.DataSize
}

// checksum is sha256 over the authenticated header bytes and the
// encoded index table.
func (kf *KeyFile) checksum(indexBytes []byte) [32]byte {
	h := sha256.New()
	h.Write(kf.header.AuthenticatedBytes())
	h.Write(indexBytes)

	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

func (kf *KeyFile) writeHeader() error {
	if _, err := kf.f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	return binary.Write(kf.f, binary.LittleEndian, &kf.header)
}
