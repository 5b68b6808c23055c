// Copyright (C) 2022 K2 Cyber Security Inc.
/*
Byte patching detour

When the target function is only reachable by address, the first
instructions of the target are overwritten with a JMP rel32 to the wrapper
entry:

TARGET FUNCTION
 - prologue replaced by E9 <entry - (target + 5)>

WRAPPER ENTRY
 - consults the session cache
 - on a miss, restores the saved prologue, calls the target and puts
   the jump back

The overwritten region is sized to whole instructions so that the saved
copy ends on an instruction boundary.
*/

package memohook

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"unsafe"

	"golang.org/x/arch/x86/x86asm"
)

const (
	jmpRel32    = 0xE9
	jmpRel32Len = 5
	// longest x86 instruction
	maxInstLen = 15
	// bytes read at the target to size the patch
	prologueWindow = jmpRel32Len + maxInstLen
)

// PatchDetour redirects a native function by rewriting its prologue.
type PatchDetour struct {
	entry   uintptr
	mode    int
	protect func(addr, size uintptr) error

	mu     sync.Mutex
	target uintptr
	length int
	// prologue bytes as they were before the first modification
	original []byte
	armed    bool
	patched  bool
	// pass-through calls in flight
	bypassing int
}

// NewPatchDetour prepares a detour that jumps to entry. mode is the x86
// decode mode, 32 or 64.
func NewPatchDetour(entry uintptr, mode int) *PatchDetour {
	if mode != 32 {
		mode = 64
	}
	return &PatchDetour{
		entry:   entry,
		mode:    mode,
		protect: protectPages,
	}
}

// Resolve records the target address and makes the pages covering the
// patch region writable. Later calls are no-ops.
func (p *PatchDetour) Resolve(addr uintptr) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.target != 0 {
		return nil
	}
	if addr == 0 {
		return ErrNotResolved
	}
	n, err := patchLength(makeSlice(addr, prologueWindow), p.mode)
	if err != nil {
		return err
	}
	if err := p.protect(addr, uintptr(n)); err != nil {
		return fmt.Errorf("%w: %v", ErrProtect, err)
	}
	p.target = addr
	p.length = n
	return nil
}

// Target is the resolved address, zero before Resolve.
func (p *PatchDetour) Target() uintptr {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target
}

// Original returns a copy of the saved prologue, nil before the first
// modification.
func (p *PatchDetour) Original() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.original == nil {
		return nil
	}
	return append([]byte(nil), p.original...)
}

func (p *PatchDetour) Enable() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.target == 0 {
		return ErrNotResolved
	}
	if _, err := jumpDisp(p.target, p.entry); err != nil {
		return err
	}
	p.armed = true
	if p.bypassing == 0 {
		p.writeJump()
	}
	return nil
}

func (p *PatchDetour) Disable() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.target == 0 {
		return ErrNotResolved
	}
	p.armed = false
	p.restore()
	return nil
}

func (p *PatchDetour) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.armed
}

// Bypass restores the original prologue while fn runs. Overlapping
// bypasses share one restore: the jump is written back only when the last
// of them returns.
func (p *PatchDetour) Bypass(fn func()) {
	p.mu.Lock()
	if p.bypassing == 0 && p.patched {
		p.restore()
	}
	p.bypassing++
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.bypassing--
		if p.bypassing == 0 && p.armed {
			p.writeJump()
		}
		p.mu.Unlock()
	}()
	fn()
}

func (p *PatchDetour) snapshot() []byte {
	code := makeSlice(p.target, uintptr(p.length))
	if p.original == nil {
		p.original = append([]byte(nil), code...)
	}
	return code
}

func (p *PatchDetour) writeJump() {
	code := p.snapshot()
	disp, _ := jumpDisp(p.target, p.entry)
	code[0] = jmpRel32
	binary.LittleEndian.PutUint32(code[1:jmpRel32Len], uint32(disp))
	p.patched = true
}

func (p *PatchDetour) restore() {
	code := p.snapshot()
	copy(code, p.original)
	p.patched = false
}

// jumpDisp is the rel32 operand of a JMP at from landing on to.
// A 32-bit address space wraps, so every target is in reach there.
func jumpDisp(from, to uintptr) (int32, error) {
	if unsafe.Sizeof(uintptr(0)) == 4 {
		return int32(uint32(to - from - jmpRel32Len)), nil
	}
	d := int64(to) - int64(from+jmpRel32Len)
	if d < math.MinInt32 || d > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %#x -> %#x", ErrRelativeAddr, from, to)
	}
	return int32(d), nil
}

// patchLength decodes whole instructions from src until they cover a
// JMP rel32.
func patchLength(src []byte, mode int) (int, error) {
	n := 0
	for n < jmpRel32Len {
		inst, err := x86asm.Decode(src[n:], mode)
		if err != nil {
			return 0, fmt.Errorf("decode prologue at +%d: %w", n, err)
		}
		n += inst.Len
	}
	return n, nil
}
