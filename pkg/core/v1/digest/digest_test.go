package digest_test

import (
	"crypto/sha256"
	"crypto/sha512"
	"testing"

	"github.com/0x0FACED/zkm/pkg/core/v1/digest"
	"github.com/stretchr/testify/assert"
)

func TestDigest_Sizes(t *testing.T) {
	assert.Equal(t, sha256.Size224, digest.SHA224.Size())
	assert.Equal(t, sha256.Size, digest.SHA256.Size())
	assert.Equal(t, sha512.Size384, digest.SHA384.Size())
	assert.Equal(t, sha512.Size, digest.SHA512.Size())

	assert.Equal(t, 0, digest.Algorithm(0).Size())
	assert.Equal(t, 0, digest.Algorithm(0xFF).Size())
}

func TestDigest_Supported(t *testing.T) {
	for _, algo := range digest.All() {
		assert.True(t, algo.Supported(), "algo %s", algo)
		assert.NotNil(t, algo.New())
		assert.LessOrEqual(t, algo.Size(), digest.MaxDigestSize)
	}

	assert.False(t, digest.Algorithm(0).Supported())
	assert.False(t, digest.Algorithm(0xFF).Supported())
}

func TestDigest_Parse(t *testing.T) {
	assert.Equal(t, digest.SHA224, digest.Parse("sha224"))
	assert.Equal(t, digest.SHA256, digest.Parse("sha256"))
	assert.Equal(t, digest.SHA384, digest.Parse("sha384"))
	assert.Equal(t, digest.SHA512, digest.Parse("sha512"))
	assert.Equal(t, digest.Algorithm(0), digest.Parse("md5"))
}

func TestDigest_NewProducesNativeSize(t *testing.T) {
	for _, algo := range digest.All() {
		h := algo.New()()
		h.Write([]byte("abc"))
		assert.Len(t, h.Sum(nil), algo.Size())
	}
}
