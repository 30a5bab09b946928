package file

import (
	"crypto/hmac"
	"encoding/binary"
	"errors"
	"io"
	"os"

	"github.com/0x0FACED/zkm/pkg/core/v1/crypto"
	"github.com/0x0FACED/zkm/pkg/core/v1/types"
)

var ErrInvalidPassword = errors.New("zkm/file: invalid password")

// Open reads the header and index table of an existing store and
// unlocks the KEK with the provided password. Key blobs themselves
// are not read here.
func Open(path string, password []byte) (*types.KeyFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}

	// Read the header
	header := types.Header{}
	if err := binary.Read(f, binary.LittleEndian, &header); err != nil {
		f.Close()
		return nil, err
	}

	// derived master key goes straight into locked memory
	km := crypto.NewKeyManager(password, header.ArgonSalt, crypto.Argon2Params{
		Iterations:  int(header.ArgonIterations),
		MemoryLog:   int(header.ArgonMemoryLog2),
		Parallelism: int(header.ArgonParallelism),
	})

	// wrong password fails here, before any blob is touched
	expectedTag := crypto.HMAC([32]byte(km.MasterKey32()), header.AuthenticatedBytes())
	if !hmac.Equal(expectedTag[:], header.VerificationTag[:]) {
		km.Close()
		f.Close()
		return nil, ErrInvalidPassword
	}

	kek, err := crypto.DecryptKEK(km.MasterKey32(), header.EncryptedKEK,
		header.VerificationTag, header.AuthenticatedBytes())
	if err != nil {
		km.Close()
		f.Close()
		return nil, err
	}

	indexTable, err := readIndexTable(f, &header)
	if err != nil {
		km.Close()
		f.Close()
		return nil, err
	}

	// blobs stay sealed on disk, only header and index live in memory
	keyFile := &types.KeyFile{}

	keyFile.SetFile(f)
	keyFile.SetHeader(header)
	keyFile.SetIndexTable(*indexTable)
	keyFile.SetKeyManager(km)
	keyFile.SetKEK(kek)

	return keyFile, nil
}

func readIndexTable(f *os.File, header *types.Header) (*types.IndexTable, error) {
	// set read to IndexTableOffset
	_, err := f.Seek(int64(header.IndexTableOffset), io.SeekStart)
	if err != nil {
		return nil, err
	}

	indexTable := &types.IndexTable{}
	if err := indexTable.Decode(f, header.KeyCount); err != nil {
		return nil, err
	}

	return indexTable, nil
}
