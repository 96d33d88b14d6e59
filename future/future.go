// Package future implements the single-shot deferred-result primitive used
// pervasively by the connection, cluster and store layers. It mirrors the
// callback-chain style used across the wider client ecosystem this library
// was grafted from, adapted to Go with a mutex instead of an event loop:
// resolve at most once, late listeners fire synchronously with the stored
// outcome.
package future

import (
	"sync"

	"github.com/google/uuid"
)

// Future is a single-shot promise for a value of type T. Zero value is not
// usable; construct with New.
type Future[T any] struct {
	id uuid.UUID

	mu       sync.Mutex
	done     bool
	value    T
	err      error
	onOK     []func(T)
	onErr    []func(error)
}

// New creates a pending Future.
func New[T any]() *Future[T] {
	return &Future[T]{id: uuid.New()}
}

// ID returns the future's correlation id, a random UUID assigned by New.
// Nothing in this module logs or reads it.
func (f *Future[T]) ID() string {
	return f.id.String()
}

// Succeed resolves the future with a value. Succeed and Fail are terminal:
// only the first call has any effect. Registered success callbacks fire
// synchronously, in registration order, on the calling goroutine.
func (f *Future[T]) Succeed(value T) {
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		return
	}
	f.done = true
	f.value = value
	callbacks := f.onOK
	f.onOK = nil
	f.onErr = nil
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(value)
	}
}

// Fail resolves the future with an error. See Succeed for terminality and
// callback-ordering guarantees.
func (f *Future[T]) Fail(err error) {
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		return
	}
	f.done = true
	f.err = err
	callbacks := f.onErr
	f.onOK = nil
	f.onErr = nil
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(err)
	}
}

// OnSuccess registers cb to run when the future resolves successfully. If
// the future has already succeeded, cb runs immediately on the calling
// goroutine.
func (f *Future[T]) OnSuccess(cb func(T)) {
	f.mu.Lock()
	if f.done {
		value, err := f.value, f.err
		f.mu.Unlock()
		if err == nil {
			cb(value)
		}
		return
	}
	f.onOK = append(f.onOK, cb)
	f.mu.Unlock()
}

// OnFailure registers cb to run when the future resolves with an error. If
// the future has already failed, cb runs immediately on the calling
// goroutine.
func (f *Future[T]) OnFailure(cb func(error)) {
	f.mu.Lock()
	if f.done {
		err := f.err
		f.mu.Unlock()
		if err != nil {
			cb(err)
		}
		return
	}
	f.onErr = append(f.onErr, cb)
	f.mu.Unlock()
}

// Wait blocks the calling goroutine until the future resolves and returns
// its outcome. It is a convenience adapter over OnSuccess/OnFailure for
// callers (tests, the CLI) that want synchronous semantics instead of
// callback chains.
func (f *Future[T]) Wait() (T, error) {
	resultCh := make(chan struct{})
	var value T
	var err error
	f.OnSuccess(func(v T) {
		value = v
		close(resultCh)
	})
	f.OnFailure(func(e error) {
		err = e
		close(resultCh)
	})
	<-resultCh
	return value, err
}
