package operation

import (
	"crypto/hmac"
	"hash"

	"github.com/0x0FACED/zkm/pkg/core/v1/buffer"
	"github.com/0x0FACED/zkm/pkg/core/v1/digest"
)

// HmacOperation drives one keyed-hash computation bound to one
// algorithm and one key. The key is only borrowed during
// construction, the running context keeps its own copy.
type HmacOperation struct {
	purpose   Purpose
	tagLength int

	// validation error stored at construction, surfaced by Begin.
	// Construction itself is not allowed to fail: the dispatcher
	// needs a releasable object either way.
	deferred error

	ctx hash.Hash
}

var _ Operation = (*HmacOperation)(nil)

// NewHmacOperation validates the requested algorithm and tag length
// and initializes the keyed context. On validation failure the
// returned operation is inert: Begin reports the error, Release
// stays safe.
func NewHmacOperation(purpose Purpose, key []byte, algo digest.Algorithm, tagLength int) *HmacOperation {
	op := &HmacOperation{
		purpose:   purpose,
		tagLength: tagLength,
	}

	if !algo.Supported() {
		op.deferred = ErrUnsupportedDigest
		return op
	}

	if tagLength < 0 || tagLength > algo.Size() {
		op.deferred = ErrUnsupportedMacLength
		return op
	}

	op.ctx = hmac.New(algo.New(), key)
	return op
}

func (op *HmacOperation) Begin() error {
	return op.deferred
}

// Update feeds the entire readable span of input into the running
// hash. Accumulation is order-sensitive: Update(A) then Update(B)
// equals one Update over A||B.
func (op *HmacOperation) Update(input *buffer.Buffer) (int, error) {
	if op.ctx == nil {
		return 0, ErrUnknown
	}

	n := input.AvailableRead()
	if _, err := op.ctx.Write(input.PeekRead()); err != nil {
		return 0, ErrUnknown
	}

	return n, nil
}

// Finish finalizes the context into the full native digest, then
// either truncates it to the tag (sign) or compares it against the
// candidate signature (verify). The comparison is constant-time and
// only happens when the candidate length matches exactly.
func (op *HmacOperation) Finish(signature *buffer.Buffer, output *buffer.Buffer) error {
	if op.ctx == nil {
		return ErrUnknown
	}

	full := op.ctx.Sum(nil)

	switch op.purpose {
	case PurposeSign:
		output.Reserve(op.tagLength)
		output.Write(full[:op.tagLength])
		return nil
	case PurposeVerify:
		if signature.AvailableRead() != op.tagLength {
			return ErrInvalidInputLength
		}
		if !hmac.Equal(signature.PeekRead(), full[:op.tagLength]) {
			return ErrVerificationFailed
		}
		return nil
	default:
		return ErrUnsupportedPurpose
	}
}

func (op *HmacOperation) Abort() error {
	// nothing extra to clean, Release drops the context anyway
	return nil
}

func (op *HmacOperation) Release() {
	op.ctx = nil
}
