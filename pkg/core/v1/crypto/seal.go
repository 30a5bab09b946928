package crypto

import (
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	ErrInvalidNonceSize = errors.New("zkm/crypto: invalid nonce size")
)

const ChaCha20NonceSize = chacha20poly1305.NonceSize

// SealKeyBlob encrypts raw key material with the KEK before it is
// written to the store file.
func SealKeyBlob(kek []byte, nonce []byte, material []byte) ([]byte, error) {
	if len(nonce) != ChaCha20NonceSize {
		return nil, ErrInvalidNonceSize
	}
	// 32 byte key
	// New returns aead with required 12 byte nonce
	aead, err := chacha20poly1305.New(kek)
	if err != nil {
		return nil, err
	}

	sealed := aead.Seal(nil, nonce, material, nil)

	return sealed, nil
}

// OpenKeyBlob decrypts a key blob read from the store file.
func OpenKeyBlob(kek []byte, nonce []byte, blob []byte) ([]byte, error) {
	if len(nonce) != ChaCha20NonceSize {
		return nil, ErrInvalidNonceSize
	}

	aead, err := chacha20poly1305.New(kek)
	if err != nil {
		return nil, err
	}

	material, err := aead.Open(nil, nonce, blob, nil)
	if err != nil {
		return nil, err
	}

	return material, nil
}
