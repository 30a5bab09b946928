package types_test

import (
	"path/filepath"
	"testing"

	"github.com/0x0FACED/zkm/pkg/core/v1/digest"
	"github.com/0x0FACED/zkm/pkg/core/v1/file"
	"github.com/0x0FACED/zkm/pkg/core/v1/types"
	"github.com/stretchr/testify/assert"
)

func createStore(t *testing.T, password string) (*types.KeyFile, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test-store.zkm")

	kf, err := types.NewKeyFile(path, []byte(password))
	assert.NoError(t, err)
	assert.NotNil(t, kf)

	// current version is 1
	assert.Equal(t, uint8(1), kf.Header().Version)

	return kf, path
}

func TestKeyFile_New(t *testing.T) {
	kf, _ := createStore(t, "password")
	defer kf.Close()

	header := kf.Header()
	assert.Equal(t, uint32(0), header.KeyCount)
	assert.Equal(t, uint64(0), header.DataSize)
	assert.NotEqual(t, [16]byte{}, header.ArgonSalt)
	assert.NotEqual(t, [60]byte{}, header.EncryptedKEK)
}

func TestKeyFile_WriteAndReadKey(t *testing.T) {
	kf, _ := createStore(t, "password")
	defer kf.Close()

	meta, err := types.NewKeyMeta("mac-key", digest.SHA256, types.CanSign|types.CanVerify, 32)
	assert.NoError(t, err)

	material := []byte("0123456789abcdef0123456789abcdef")
	err = kf.WriteKey(meta, material)
	assert.NoError(t, err)

	assert.Equal(t, uint32(1), kf.Header().KeyCount)
	assert.NotZero(t, kf.Header().DataSize)

	err = kf.Save()
	assert.NoError(t, err)

	gotMeta, gotMaterial, err := kf.ReadKey("mac-key")
	assert.NoError(t, err)
	assert.Equal(t, material, gotMaterial)
	assert.Equal(t, "mac-key", gotMeta.NameString())
	assert.Equal(t, uint8(digest.SHA256), gotMeta.Algorithm)
}

func TestKeyFile_DuplicateName(t *testing.T) {
	kf, _ := createStore(t, "password")
	defer kf.Close()

	meta, err := types.NewKeyMeta("dup", digest.SHA256, types.CanSign, 32)
	assert.NoError(t, err)

	assert.NoError(t, kf.WriteKey(meta, []byte("material-1")))

	meta2, err := types.NewKeyMeta("dup", digest.SHA256, types.CanSign, 32)
	assert.NoError(t, err)

	err = kf.WriteKey(meta2, []byte("material-2"))
	assert.ErrorIs(t, err, types.ErrKeyExists)
}

func TestKeyFile_WriteAfterClose_NotReportedAsDuplicate(t *testing.T) {
	kf, _ := createStore(t, "password")
	assert.NoError(t, kf.Close())

	meta, err := types.NewKeyMeta("late", digest.SHA256, types.CanSign, 32)
	assert.NoError(t, err)

	// I/O failure must pass through, not masquerade as a duplicate
	err = kf.WriteKey(meta, []byte("late-material"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, types.ErrKeyExists)
}

func TestKeyFile_SaveTwiceThenReopen(t *testing.T) {
	kf, path := createStore(t, "password")

	first, err := types.NewKeyMeta("first", digest.SHA256, types.CanSign, 32)
	assert.NoError(t, err)
	assert.NoError(t, kf.WriteKey(first, []byte("first-material-0123456789abcdef0")))
	assert.NoError(t, kf.Save())

	// second save recomputes the verification tag from the locked
	// master key over the mutated header
	second, err := types.NewKeyMeta("second", digest.SHA256, types.CanVerify, 16)
	assert.NoError(t, err)
	assert.NoError(t, kf.WriteKey(second, []byte("second-material-0123456789abcdef")))
	assert.NoError(t, kf.Save())
	assert.NoError(t, kf.Close())

	reopened, err := file.Open(path, []byte("password"))
	assert.NoError(t, err)
	defer reopened.Close()

	assert.NoError(t, reopened.ValidateChecksum())
	assert.Equal(t, uint32(2), reopened.Header().KeyCount)

	_, firstMaterial, err := reopened.ReadKey("first")
	assert.NoError(t, err)
	assert.Equal(t, []byte("first-material-0123456789abcdef0"), firstMaterial)

	_, secondMaterial, err := reopened.ReadKey("second")
	assert.NoError(t, err)
	assert.Equal(t, []byte("second-material-0123456789abcdef"), secondMaterial)
}

func TestKeyFile_ReopenAndValidate(t *testing.T) {
	kf, path := createStore(t, "password")

	meta, err := types.NewKeyMeta("persisted", digest.SHA512, types.CanSign, 64)
	assert.NoError(t, err)

	material := make([]byte, 64)
	for i := range material {
		material[i] = byte(i)
	}

	assert.NoError(t, kf.WriteKey(meta, material))
	assert.NoError(t, kf.Save())
	assert.NoError(t, kf.Close())

	reopened, err := file.Open(path, []byte("password"))
	assert.NoError(t, err)
	defer reopened.Close()

	assert.NoError(t, reopened.ValidateChecksum())

	gotMeta, gotMaterial, err := reopened.ReadKey("persisted")
	assert.NoError(t, err)
	assert.Equal(t, material, gotMaterial)
	assert.Equal(t, uint8(64), gotMeta.TagLength)
}

func TestKeyFile_Reopen_WrongPassword(t *testing.T) {
	kf, path := createStore(t, "password")
	assert.NoError(t, kf.Save())
	assert.NoError(t, kf.Close())

	_, err := file.Open(path, []byte("wrong-password"))
	assert.ErrorIs(t, err, file.ErrInvalidPassword)
}

func TestKeyFile_DeleteSoft(t *testing.T) {
	kf, _ := createStore(t, "password")
	defer kf.Close()

	meta, err := types.NewKeyMeta("doomed", digest.SHA256, types.CanSign, 32)
	assert.NoError(t, err)

	assert.NoError(t, kf.WriteKey(meta, []byte("doomed-material")))
	assert.NoError(t, kf.DeleteKeySoft("doomed"))

	_, _, err = kf.ReadKey("doomed")
	assert.ErrorIs(t, err, types.ErrKeyDeleted)

	// meta stays in the index
	metas := kf.Metas()
	assert.Len(t, metas, 1)
	assert.True(t, metas[0].Deleted())
}

func TestKeyFile_DeleteHard_ScrubsBlob(t *testing.T) {
	kf, _ := createStore(t, "password")
	defer kf.Close()

	meta, err := types.NewKeyMeta("scrubbed", digest.SHA256, types.CanSign, 32)
	assert.NoError(t, err)

	assert.NoError(t, kf.WriteKey(meta, []byte("scrubbed-material")))
	assert.NoError(t, kf.DeleteKeyHard("scrubbed"))

	_, _, err = kf.ReadKey("scrubbed")
	assert.ErrorIs(t, err, types.ErrKeyDeleted)
}

func TestKeyFile_ReadUnknownKey(t *testing.T) {
	kf, _ := createStore(t, "password")
	defer kf.Close()

	_, _, err := kf.ReadKey("no-such-key")
	assert.ErrorIs(t, err, types.ErrKeyNotFound)
}
