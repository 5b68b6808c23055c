package memohook

import (
	"context"
	"sync"
	"sync/atomic"
)

// Detour redirects calls of the target function to the wrapper.
type Detour interface {
	Enable() error
	Disable() error
	Enabled() bool
	// Bypass runs fn so that fn can reach the original function
	// without being intercepted again.
	Bypass(fn func())
}

// Entry is a substitutable function entry: the in-process form of a
// detour. Callers of the target go through Call, and the hook swaps what
// Call reaches.
type Entry struct {
	orig Func
	cur  atomic.Pointer[Func]

	mu sync.Mutex
	to Func
}

// NewEntry registers orig behind a substitutable entry.
func NewEntry(orig Func) *Entry {
	e := &Entry{orig: orig}
	e.cur.Store(&e.orig)
	return e
}

// Call invokes whatever the entry currently points at.
func (e *Entry) Call(ctx context.Context, in string, out *[]byte, allowMismatch bool, buf []byte) Outcome {
	return (*e.cur.Load())(ctx, in, out, allowMismatch, buf)
}

// Original returns the function the entry was created with.
func (e *Entry) Original() Func {
	return e.orig
}

func (e *Entry) redirect(to Func) {
	e.mu.Lock()
	e.to = to
	e.mu.Unlock()
}

func (e *Entry) Enable() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.to == nil {
		return ErrNotResolved
	}
	e.cur.Store(&e.to)
	return nil
}

func (e *Entry) Disable() error {
	e.cur.Store(&e.orig)
	return nil
}

func (e *Entry) Enabled() bool {
	return e.cur.Load() != &e.orig
}

// Bypass runs fn directly. The wrapper holds the original function value,
// so the shared entry stays armed for every other caller.
func (e *Entry) Bypass(fn func()) {
	fn()
}
