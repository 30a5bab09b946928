package operation

import (
	"errors"

	"github.com/0x0FACED/zkm/pkg/core/v1/buffer"
)

var (
	ErrUnsupportedDigest    = errors.New("zkm/operation: unsupported digest algorithm")
	ErrUnsupportedMacLength = errors.New("zkm/operation: mac length exceeds native digest size")
	ErrUnknown              = errors.New("zkm/operation: engine failure")
	ErrInvalidInputLength   = errors.New("zkm/operation: signature length does not match mac length")
	ErrVerificationFailed   = errors.New("zkm/operation: verification failed")
	ErrUnsupportedPurpose   = errors.New("zkm/operation: unsupported purpose")
)

// Purpose defines what Finish does: produce a tag or check one.
// Fixed at construction of an operation.
type Purpose uint8

const (
	PurposeSign Purpose = iota + 1
	PurposeVerify
)

func (p Purpose) String() string {
	switch p {
	case PurposeSign:
		return "sign"
	case PurposeVerify:
		return "verify"
	default:
		return "unknown"
	}
}

// Operation is one streaming crypto operation driven by the dispatcher.
// Every operation type presents the same lifecycle:
//
//	Begin -> Update* -> Finish | Abort -> Release
//
// One instance serves exactly one pass. The dispatcher guarantees
// a single caller, call ordering and exactly one Finish or Abort.
// Release is safe on every path, including an operation whose
// construction-time validation failed.
type Operation interface {
	// Begin surfaces a construction-time validation error, if any.
	Begin() error

	// Update feeds the whole readable span of input into the
	// operation and returns how many bytes it consumed. Partial
	// consumption is not a supported outcome.
	Update(input *buffer.Buffer) (int, error)

	// Finish finalizes the operation. Sign purposes write the tag
	// into output, verify purposes check signature against the
	// computed tag. Terminal call.
	Finish(signature *buffer.Buffer, output *buffer.Buffer) error

	// Abort discards the operation. Always succeeds.
	Abort() error

	// Release drops the underlying context. Idempotent.
	Release()
}
