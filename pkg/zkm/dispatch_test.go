package zkm_test

import (
	"encoding/hex"
	"path/filepath"
	"testing"

	"github.com/0x0FACED/zkm/pkg/core/v1/buffer"
	"github.com/0x0FACED/zkm/pkg/core/v1/digest"
	"github.com/0x0FACED/zkm/pkg/core/v1/operation"
	"github.com/0x0FACED/zkm/pkg/core/v1/types"
	"github.com/0x0FACED/zkm/pkg/zkm"
	"github.com/stretchr/testify/assert"
)

func createKeyStore(t *testing.T) *zkm.KeyStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "dispatch-test.zkm")

	ks, err := zkm.Create(path, []byte("password"))
	assert.NoError(t, err)
	assert.NotNil(t, ks)

	return ks
}

func TestDispatch_SignThenVerify(t *testing.T) {
	ks := createKeyStore(t)
	defer ks.Close()

	_, err := ks.GenerateKey("mac-key", digest.SHA256, types.CanSign|types.CanVerify, 32)
	assert.NoError(t, err)

	msg := []byte("dispatched message")

	signOp, err := ks.Dispatch("mac-key", operation.PurposeSign, 0)
	assert.NoError(t, err)
	defer signOp.Release()

	assert.NoError(t, signOp.Begin())

	_, err = signOp.Update(buffer.New(msg))
	assert.NoError(t, err)

	out := buffer.NewReserved(32)
	assert.NoError(t, signOp.Finish(buffer.New(nil), out))
	assert.Len(t, out.Bytes(), 32)

	verifyOp, err := ks.Dispatch("mac-key", operation.PurposeVerify, 0)
	assert.NoError(t, err)
	defer verifyOp.Release()

	assert.NoError(t, verifyOp.Begin())

	_, err = verifyOp.Update(buffer.New(msg))
	assert.NoError(t, err)

	assert.NoError(t, verifyOp.Finish(buffer.New(out.Bytes()), buffer.NewReserved(0)))
}

func TestDispatch_DefaultTagLength(t *testing.T) {
	ks := createKeyStore(t)
	defer ks.Close()

	// key carries default tag length of 16
	_, err := ks.GenerateKey("short-tag", digest.SHA256, types.CanSign, 16)
	assert.NoError(t, err)

	op, err := ks.Dispatch("short-tag", operation.PurposeSign, 0)
	assert.NoError(t, err)
	defer op.Release()

	assert.NoError(t, op.Begin())

	out := buffer.NewReserved(0)
	assert.NoError(t, op.Finish(buffer.New(nil), out))
	assert.Len(t, out.Bytes(), 16)
}

func TestDispatch_PurposeNotAllowed(t *testing.T) {
	ks := createKeyStore(t)
	defer ks.Close()

	_, err := ks.GenerateKey("sign-only", digest.SHA256, types.CanSign, 32)
	assert.NoError(t, err)

	_, err = ks.Dispatch("sign-only", operation.PurposeVerify, 0)
	assert.ErrorIs(t, err, zkm.ErrPurposeNotAllowed)
}

func TestDispatch_KeyNotFound(t *testing.T) {
	ks := createKeyStore(t)
	defer ks.Close()

	_, err := ks.Dispatch("ghost", operation.PurposeSign, 0)
	assert.ErrorIs(t, err, zkm.ErrKeyNotFound)
}

func TestDispatch_DeletedKey(t *testing.T) {
	ks := createKeyStore(t)
	defer ks.Close()

	_, err := ks.GenerateKey("gone", digest.SHA256, types.CanSign, 32)
	assert.NoError(t, err)

	assert.NoError(t, ks.DeleteKey("gone", false))

	_, err = ks.Dispatch("gone", operation.PurposeSign, 0)
	assert.ErrorIs(t, err, zkm.ErrKeyDeleted)
}

func TestDispatch_OversizedTagLengthDeferred(t *testing.T) {
	ks := createKeyStore(t)
	defer ks.Close()

	_, err := ks.GenerateKey("mac-key", digest.SHA256, types.CanSign, 32)
	assert.NoError(t, err)

	// dispatch succeeds, the validation error is deferred to Begin
	op, err := ks.Dispatch("mac-key", operation.PurposeSign, 64)
	assert.NoError(t, err)
	defer op.Release()

	assert.ErrorIs(t, op.Begin(), operation.ErrUnsupportedMacLength)
}

func TestKeyStore_ImportKey(t *testing.T) {
	ks := createKeyStore(t)
	defer ks.Close()

	material := []byte("key")
	_, err := ks.ImportKey("imported", material, digest.SHA256, types.CanSign|types.CanVerify, 32)
	assert.NoError(t, err)

	// material is wiped after sealing
	assert.Equal(t, []byte{0, 0, 0}, material)

	op, err := ks.Dispatch("imported", operation.PurposeSign, 0)
	assert.NoError(t, err)
	defer op.Release()

	assert.NoError(t, op.Begin())

	_, err = op.Update(buffer.New([]byte("The quick brown fox jumps over the lazy dog")))
	assert.NoError(t, err)

	out := buffer.NewReserved(32)
	assert.NoError(t, op.Finish(buffer.New(nil), out))

	// the well-known HMAC-SHA-256 vector for key "key"
	assert.Equal(t,
		"f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8",
		hex.EncodeToString(out.Bytes()))
}

func TestKeyStore_DuplicateKeyName(t *testing.T) {
	ks := createKeyStore(t)
	defer ks.Close()

	_, err := ks.GenerateKey("dup", digest.SHA256, types.CanSign, 32)
	assert.NoError(t, err)

	_, err = ks.GenerateKey("dup", digest.SHA256, types.CanSign, 32)
	assert.ErrorIs(t, err, zkm.ErrKeyExists)
}

func TestKeyStore_ReopenAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen-test.zkm")

	ks, err := zkm.Create(path, []byte("password"))
	assert.NoError(t, err)

	_, err = ks.GenerateKey("survivor", digest.SHA384, types.CanSign|types.CanVerify, 48)
	assert.NoError(t, err)
	assert.NoError(t, ks.Close())

	reopened, err := zkm.Open(path, []byte("password"))
	assert.NoError(t, err)
	defer reopened.Close()

	keys := reopened.Keys()
	assert.Len(t, keys, 1)
	assert.Equal(t, "survivor", keys[0].NameString())

	_, err = zkm.Open(path, []byte("wrong"))
	assert.ErrorIs(t, err, zkm.ErrInvalidPassword)
}
