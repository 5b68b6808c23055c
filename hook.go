package memohook

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Outcome is the four-way result code of the intercepted function.
type Outcome int

const (
	// Unchanged means the input is valid as-is.
	Unchanged Outcome = iota
	// Lowered means the output is a case-normalized variant of the input.
	Lowered
	// Changed means the output differs from the input.
	Changed
	// Failed means no valid mapping exists.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case Lowered:
		return "lowered"
	case Changed:
		return "changed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Func is the calling shape of the target function. The callee may point
// *out at buf (whose length is the capacity) or at storage it allocated.
type Func func(ctx context.Context, in string, out *[]byte, allowMismatch bool, buf []byte) Outcome

var (
	// ErrDoubleHook means already hooked
	ErrDoubleHook = errors.New("double hook")
	// ErrHookNotFound means the hook not found
	ErrHookNotFound = errors.New("hook not found")
	// ErrRelativeAddr means the jump displacement does not fit in rel32
	ErrRelativeAddr = errors.New("relative address out of range")
	// ErrNotResolved means the detour has no target address yet
	ErrNotResolved = errors.New("detour target not resolved")
	// ErrProtect means the code pages could not be made writable
	ErrProtect = errors.New("cannot change memory protection")
	// ErrModuleNotFound means no loaded module has the wanted name
	ErrModuleNotFound = errors.New("module not found")
	// ErrNoExecSegment means the module has no executable mapping
	ErrNoExecSegment = errors.New("module has no executable segment")
	// ErrLoadUnsupported means the host cannot load modules on demand
	ErrLoadUnsupported = errors.New("module loading not supported")
	// ErrHostUnsupported means module enumeration is unavailable here
	ErrHostUnsupported = errors.New("module enumeration not supported")
	// ErrSignatureNotFound means the signature matched nowhere
	ErrSignatureNotFound = errors.New("signature not found")
	// ErrBadSignature means the signature text could not be parsed
	ErrBadSignature = errors.New("malformed signature")
)

var (
	// patched targets with their addresses as keys
	targets map[uintptr]*Hook
	// wrapped entries
	entries map[*Entry]*Hook
	// protect the tables above
	lock sync.Mutex
)

func init() {
	targets = make(map[uintptr]*Hook)
	entries = make(map[*Entry]*Hook)
}

func claimTarget(addr uintptr, h *Hook) error {
	lock.Lock()
	defer lock.Unlock()
	if _, ok := targets[addr]; ok {
		return ErrDoubleHook
	}
	targets[addr] = h
	return nil
}

func claimEntry(e *Entry, h *Hook) error {
	lock.Lock()
	defer lock.Unlock()
	if _, ok := entries[e]; ok {
		return ErrDoubleHook
	}
	entries[e] = h
	return nil
}

func release(h *Hook) error {
	lock.Lock()
	defer lock.Unlock()
	for addr, v := range targets {
		if v == h {
			delete(targets, addr)
			return nil
		}
	}
	for e, v := range entries {
		if v == h {
			delete(entries, e)
			return nil
		}
	}
	return ErrHookNotFound
}

// patchedWithin reports whether a live hook patched code inside segs. A
// patched prologue no longer matches its signature, so this is checked
// before scanning.
func patchedWithin(segs []Segment) bool {
	lock.Lock()
	defer lock.Unlock()
	for addr := range targets {
		for _, seg := range segs {
			if seg.Contains(addr, jmpRel32Len) {
				return true
			}
		}
	}
	return false
}
