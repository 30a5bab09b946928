package crypto_test

import (
	"crypto/rand"
	"crypto/sha256"
	"testing"

	"github.com/0x0FACED/zkm/pkg/core/v1/crypto"
	"github.com/stretchr/testify/assert"
)

func TestSeal_SealAndOpen_Success(t *testing.T) {
	// kek
	key := "test"
	hash := sha256.New()
	_, err := hash.Write([]byte(key))
	assert.NoError(t, err)

	kek := hash.Sum(nil)

	// rand nonce of 12 bytes len
	var nonce [12]byte
	_, err = rand.Read(nonce[:])
	assert.NoError(t, err)

	material := "raw-key-material"
	blob, err := crypto.SealKeyBlob(kek, nonce[:], []byte(material))
	assert.NoError(t, err)

	// open

	opened, err := crypto.OpenKeyBlob(kek, nonce[:], blob)
	assert.NoError(t, err)

	assert.Equal(t, material, string(opened))
}

func TestSeal_InvalidNonceSize(t *testing.T) {
	kek := make([]byte, 32)

	// SealKeyBlob requires 12 byte nonce
	var nonce [24]byte
	_, err := rand.Read(nonce[:])
	assert.NoError(t, err)

	_, err = crypto.SealKeyBlob(kek, nonce[:], []byte("material"))
	assert.Error(t, err)
	assert.Equal(t, crypto.ErrInvalidNonceSize, err)
}

func TestSeal_TamperedBlobFailsToOpen(t *testing.T) {
	kek := make([]byte, 32)
	_, err := rand.Read(kek)
	assert.NoError(t, err)

	nonce, err := crypto.Nonce12()
	assert.NoError(t, err)

	blob, err := crypto.SealKeyBlob(kek, nonce[:], []byte("material"))
	assert.NoError(t, err)

	blob[0] ^= 0x01

	_, err = crypto.OpenKeyBlob(kek, nonce[:], blob)
	assert.Error(t, err)
}
