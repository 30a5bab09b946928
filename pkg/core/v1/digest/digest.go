package digest

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"
)

// MaxDigestSize is the largest native output size across
// all supported algorithms (SHA-512).
const MaxDigestSize = sha512.Size

// Algorithm selects one of the supported hash functions
type Algorithm uint8

const (
	SHA224 Algorithm = iota + 1
	SHA256
	SHA384
	SHA512
)

func (a Algorithm) String() string {
	switch a {
	case SHA224:
		return "sha224"
	case SHA256:
		return "sha256"
	case SHA384:
		return "sha384"
	case SHA512:
		return "sha512"
	default:
		return "unknown"
	}
}

// Size returns native digest size in bytes, 0 for unknown algorithm
func (a Algorithm) Size() int {
	switch a {
	case SHA224:
		return sha256.Size224
	case SHA256:
		return sha256.Size
	case SHA384:
		return sha512.Size384
	case SHA512:
		return sha512.Size
	default:
		return 0
	}
}

// New returns the hash constructor for the algorithm,
// nil if the algorithm is not supported.
func (a Algorithm) New() func() hash.Hash {
	switch a {
	case SHA224:
		return sha256.New224
	case SHA256:
		return sha256.New
	case SHA384:
		return sha512.New384
	case SHA512:
		return sha512.New
	default:
		return nil
	}
}

func (a Algorithm) Supported() bool {
	return a.New() != nil
}

// Parse is used by CLI to convert user input to Algorithm.
// Returns 0 for unknown names.
func Parse(s string) Algorithm {
	switch s {
	case "sha224":
		return SHA224
	case "sha256":
		return SHA256
	case "sha384":
		return SHA384
	case "sha512":
		return SHA512
	default:
		return 0
	}
}

// All returns every supported algorithm.
func All() []Algorithm {
	return []Algorithm{SHA224, SHA256, SHA384, SHA512}
}
