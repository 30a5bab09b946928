package agent

import (
	"errors"
	"sync"

	"github.com/0x0FACED/uuid"
	"github.com/0x0FACED/zkm/pkg/core/v1/buffer"
	"github.com/0x0FACED/zkm/pkg/core/v1/operation"
)

var (
	ErrOpNotFound = errors.New("operation handle not found")
)

// opEntry pairs an operation with its own lock. The lock is held for
// the whole duration of an Update/Finish/Abort on the handle.
type opEntry struct {
	mu sync.Mutex
	op operation.Operation
}

// Dispatcher owns the table of in-flight operations. One handle is
// one exclusive operation: calls on a handle are serialized on the
// entry lock, the operations themselves do no locking. Every
// connection runs on its own goroutine, so two requests for the
// same handle can arrive concurrently.
type Dispatcher struct {
	mu  sync.Mutex
	ops map[string]*opEntry
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		ops: make(map[string]*opEntry),
	}
}

// Begin drives Begin on the operation and registers it under a
// fresh handle. A deferred construction error surfaces here and
// the operation is released immediately.
func (d *Dispatcher) Begin(op operation.Operation) (string, error) {
	if err := op.Begin(); err != nil {
		op.Release()
		return "", err
	}

	handle := uuid.NewV4()

	d.mu.Lock()
	d.ops[handle.String()] = &opEntry{op: op}
	d.mu.Unlock()

	return handle.String(), nil
}

// Update feeds input to the operation behind the handle. The whole
// input must be consumed, anything else means an engine failure.
func (d *Dispatcher) Update(handle string, input []byte) (int, error) {
	d.mu.Lock()
	e, ok := d.ops[handle]
	d.mu.Unlock()

	if !ok {
		return 0, ErrOpNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	in := buffer.New(input)
	consumed, err := e.op.Update(in)
	if err != nil {
		return 0, err
	}
	in.Advance(consumed)

	return consumed, nil
}

// Finish finalizes the operation and removes the handle. For sign
// operations the produced tag is returned, verify operations return
// a nil tag and the verification result as error.
func (d *Dispatcher) Finish(handle string, signature []byte) ([]byte, error) {
	d.mu.Lock()
	e, ok := d.ops[handle]
	if ok {
		delete(d.ops, handle)
	}
	d.mu.Unlock()

	if !ok {
		return nil, ErrOpNotFound
	}

	// an in-flight Update on the same handle finishes first
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.op.Release()

	out := buffer.NewReserved(0)
	if err := e.op.Finish(buffer.New(signature), out); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

// Abort discards the operation and removes the handle.
func (d *Dispatcher) Abort(handle string) error {
	d.mu.Lock()
	e, ok := d.ops[handle]
	if ok {
		delete(d.ops, handle)
	}
	d.mu.Unlock()

	if !ok {
		return ErrOpNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.op.Release()

	return e.op.Abort()
}

// ReleaseAll drops every in-flight operation, used on shutdown.
func (d *Dispatcher) ReleaseAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for handle, e := range d.ops {
		e.mu.Lock()
		e.op.Release()
		e.mu.Unlock()
		delete(d.ops, handle)
	}
}
