package zkm

import (
	"errors"

	"github.com/0x0FACED/zkm/pkg/core/v1/digest"
	"github.com/0x0FACED/zkm/pkg/core/v1/operation"
	"github.com/0x0FACED/zkm/pkg/core/v1/types"
)

// Dispatch looks up a key and constructs the streaming operation
// for it. tagLength <= 0 means the default tag length stored with
// the key.
//
// Validation problems inside the operation itself (bad algorithm,
// tag too long) do not fail here: the returned operation reports
// them from Begin, so the caller always gets something it can
// drive and release uniformly.
func (ks *KeyStore) Dispatch(keyName string, purpose operation.Purpose, tagLength int) (operation.Operation, error) {
	if !ks.session.IsActive() {
		return nil, ErrNoActiveSession
	}

	meta, material, err := ks.kf.ReadKey(keyName)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrKeyNotFound):
			return nil, ErrKeyNotFound
		case errors.Is(err, types.ErrKeyDeleted):
			return nil, ErrKeyDeleted
		default:
			return nil, err
		}
	}

	if !purposeAllowed(meta.Purposes, purpose) {
		return nil, ErrPurposeNotAllowed
	}

	if tagLength <= 0 {
		tagLength = int(meta.TagLength)
	}

	op := operation.NewHmacOperation(purpose, material, digest.Algorithm(meta.Algorithm), tagLength)

	// operation keeps its own keyed state, material is not needed anymore
	for i := range material {
		material[i] = 0
	}

	return op, nil
}

func purposeAllowed(mask uint8, purpose operation.Purpose) bool {
	switch purpose {
	case operation.PurposeSign:
		return mask&types.CanSign != 0
	case operation.PurposeVerify:
		return mask&types.CanVerify != 0
	default:
		// dispatcher passes unknown purposes through, the operation
		// reports ErrUnsupportedPurpose at Finish
		return true
	}
}
