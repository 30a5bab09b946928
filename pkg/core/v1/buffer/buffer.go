package buffer

// Buffer is a byte view with a read cursor, used to pass data
// in and out of running operations. Reads never copy: PeekRead
// returns the remaining unread span, Advance moves the cursor.
// Writes append after the already stored bytes.
type Buffer struct {
	data    []byte
	readPos int
}

// New wraps existing bytes for reading. The buffer does not copy,
// caller must not mutate data while the buffer is in use.
func New(data []byte) *Buffer {
	return &Buffer{data: data}
}

// NewReserved returns an empty output buffer with capacity for n bytes.
func NewReserved(n int) *Buffer {
	return &Buffer{data: make([]byte, 0, n)}
}

// PeekRead returns the remaining unread span without consuming it.
func (b *Buffer) PeekRead() []byte {
	return b.data[b.readPos:]
}

// AvailableRead returns the number of unread bytes.
func (b *Buffer) AvailableRead() int {
	return len(b.data) - b.readPos
}

// Advance consumes n bytes from the read side. Advancing past the
// end clamps to the end.
func (b *Buffer) Advance(n int) {
	b.readPos += n
	if b.readPos > len(b.data) {
		b.readPos = len(b.data)
	}
}

// Reserve grows capacity so that n more bytes can be written
// without reallocation.
func (b *Buffer) Reserve(n int) {
	if cap(b.data)-len(b.data) >= n {
		return
	}

	grown := make([]byte, len(b.data), len(b.data)+n)
	copy(grown, b.data)
	b.data = grown
}

// Write appends p to the buffer.
func (b *Buffer) Write(p []byte) {
	b.data = append(b.data, p...)
}

// Bytes returns everything stored in the buffer, read or not.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the total stored size.
func (b *Buffer) Len() int {
	return len(b.data)
}
