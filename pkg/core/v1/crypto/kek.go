package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// ==========================
// CONSTANTS AND TYPES
// ==========================

const (
	KekSize             = 32 // KEK = 32 bytes
	EncryptedKEKSize    = 60 // nonce (12) + ciphertext (32) + tag (16)
	VerificationTagSize = 16
)

var (
	ErrInvalidPassword  = errors.New("zkm/crypto: invalid password or corrupted verification tag")
	ErrDecryptionFailed = errors.New("zkm/crypto: decryption failed (possibly corrupted EncryptedKEK or wrong password)")
)

const (
	ZkmVerification = "zkm-verification"
)

// ==========================
// PUBLIC FUNCTIONS
// ==========================

// Argon2idMasterKey32 returns 256 bit master key generated from password
// with provided argon2 parameters.
func Argon2idMasterKey32(password []byte, salt [16]byte, memoryLog2 uint8, iterations uint16, parallelism uint8) []byte {
	memory := 1 << memoryLog2
	masterKey := argon2.IDKey(password, salt[:], uint32(iterations), uint32(memory), uint8(parallelism), 32)
	return masterKey
}

// EncryptKEK encrypts a randomly generated KEK with a derived master key.
// KEK never touches the disk in plaintext, key blobs are sealed with it.
func EncryptKEK(masterKey []byte) (encryptedKEK [60]byte, err error) {
	// generate random KEK (32 bytes)
	var kek [32]byte
	if _, err = rand.Read(kek[:]); err != nil {
		return
	}

	// encrypt KEK with master key (ChaCha20-Poly1305)
	aead, err := chacha20poly1305.New(masterKey)
	if err != nil {
		return
	}

	var nonce [12]byte
	if _, err = rand.Read(nonce[:]); err != nil {
		return
	}

	ciphertext := aead.Seal(nil, nonce[:], kek[:], nil)

	// fill encryptedKEK (12 nonce + 32 ciphertext + 16 auth tag)
	copy(encryptedKEK[0:12], nonce[:])
	copy(encryptedKEK[12:], ciphertext)

	return encryptedKEK, nil
}

// DecryptKEK checks the header verification tag and recovers the KEK
// using the master key.
func DecryptKEK(masterKey []byte, encryptedKEK [60]byte, verificationTag [16]byte, headerBytes []byte) (kek [32]byte, err error) {
	expectedTag := HMAC([32]byte(masterKey), headerBytes)

	if !hmac.Equal(expectedTag[:VerificationTagSize], verificationTag[:]) {
		err = ErrInvalidPassword
		return
	}

	// decrypt KEK
	aead, err := chacha20poly1305.New(masterKey)
	if err != nil {
		return
	}

	nonce := encryptedKEK[0:12]
	ciphertext := encryptedKEK[12:]

	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil || len(plain) != 32 {
		err = ErrDecryptionFailed
		return
	}

	copy(kek[:], plain)
	return
}
