package crypto

import (
	"crypto/rand"
	"fmt"
)

func Nonce12() ([12]byte, error) {
	var nonce [12]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return [12]byte{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return nonce, nil
}

func Salt16() ([16]byte, error) {
	var salt [16]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return [16]byte{}, fmt.Errorf("failed to generate salt16: %w", err)
	}

	return salt, nil
}

// KeyBytes returns n random bytes of fresh key material.
func KeyBytes(n int) ([]byte, error) {
	material := make([]byte, n)
	if _, err := rand.Read(material); err != nil {
		return nil, fmt.Errorf("failed to generate key material: %w", err)
	}

	return material, nil
}
