package buffer_test

import (
	"testing"

	"github.com/0x0FACED/zkm/pkg/core/v1/buffer"
	"github.com/stretchr/testify/assert"
)

func TestBuffer_PeekAndAdvance(t *testing.T) {
	b := buffer.New([]byte("0123456789"))

	assert.Equal(t, 10, b.AvailableRead())
	assert.Equal(t, []byte("0123456789"), b.PeekRead())

	// peek does not consume
	assert.Equal(t, 10, b.AvailableRead())

	b.Advance(4)
	assert.Equal(t, 6, b.AvailableRead())
	assert.Equal(t, []byte("456789"), b.PeekRead())

	// advancing past the end clamps
	b.Advance(100)
	assert.Equal(t, 0, b.AvailableRead())
	assert.Empty(t, b.PeekRead())
}

func TestBuffer_ReserveAndWrite(t *testing.T) {
	b := buffer.NewReserved(8)

	assert.Equal(t, 0, b.Len())

	b.Write([]byte("head"))
	b.Write([]byte("tail"))

	assert.Equal(t, []byte("headtail"), b.Bytes())
	assert.Equal(t, 8, b.Len())
}

func TestBuffer_ReserveGrows(t *testing.T) {
	b := buffer.New([]byte("data"))

	b.Reserve(32)
	b.Write(make([]byte, 32))

	assert.Equal(t, 36, b.Len())
	// read side still sees everything from the cursor
	assert.Equal(t, 36, b.AvailableRead())
}

func TestBuffer_EmptyInput(t *testing.T) {
	b := buffer.New(nil)

	assert.Equal(t, 0, b.AvailableRead())
	assert.Empty(t, b.PeekRead())
}
