package memohook

import (
	"fmt"

	sym "github.com/k2io/memohook/internal/objSymbols"
	"go.uber.org/zap"
)

// Wrap hooks an entry registered by the host. The wrapper stays armed
// until Close.
func Wrap(e *Entry, opts ...Option) (*Hook, error) {
	h := newHook(e.Original(), opts)
	if err := claimEntry(e, h); err != nil {
		return h, h.fail(err)
	}
	e.redirect(h.Call)
	if err := e.Enable(); err != nil {
		_ = release(h)
		return h, h.fail(err)
	}
	h.arm(e)
	h.log.Debug("entry wrapped")
	return h, nil
}

// Attach locates the target inside the configured module and patches its
// prologue to jump to entry, the native address that forwards into
// Hook.Call. call must invoke the target by address.
//
// The returned Hook is never nil. On error it passes every call through.
func Attach(host Host, call Func, entry uintptr, opts ...Option) (*Hook, error) {
	h := newHook(call, opts)
	addr, err := h.resolve(host)
	if err != nil {
		return h, h.fail(err)
	}
	p := NewPatchDetour(entry, h.cfg.DecodeMode)
	if h.cfg.protect != nil {
		p.protect = h.cfg.protect
	}
	if err := p.Resolve(addr); err != nil {
		return h, h.fail(err)
	}
	if err := claimTarget(addr, h); err != nil {
		return h, h.fail(err)
	}
	if err := p.Enable(); err != nil {
		_ = release(h)
		return h, h.fail(err)
	}
	h.arm(p)
	h.log.Debug("target patched",
		zap.String("module", h.cfg.Module),
		zap.Uintptr("addr", addr),
		zap.Int("len", p.length))
	return h, nil
}

// Close disarms the detour. The hook passes calls through afterwards.
func (h *Hook) Close() error {
	a := h.detour.Swap(nil)
	if a == nil {
		return ErrHookNotFound
	}
	err := a.d.Disable()
	if rerr := release(h); err == nil {
		err = rerr
	}
	return err
}

func (h *Hook) fail(err error) error {
	h.err = err
	h.log.Warn("hooking unavailable, passing calls through",
		zap.String("module", h.cfg.Module),
		zap.Error(err))
	return err
}

// resolve finds the target address, by symbol when one is configured and
// by signature otherwise.
func (h *Hook) resolve(host Host) (uintptr, error) {
	mod, err := Locate(host, h.cfg.Module)
	if err != nil {
		return 0, err
	}
	if patchedWithin(mod.Exec) {
		return 0, fmt.Errorf("%w: %s", ErrDoubleHook, mod.Name)
	}
	if h.cfg.Symbol != "" {
		addr, err := symbolAddr(mod, h.cfg.Symbol)
		if err == nil {
			return addr, nil
		}
		h.log.Debug("symbol lookup failed, scanning",
			zap.String("symbol", h.cfg.Symbol),
			zap.Error(err))
	}
	text, _ := mod.Text()
	off, ok := h.cfg.Signature.Scan(text.Bytes())
	if !ok {
		return 0, fmt.Errorf("%w in %s", ErrSignatureNotFound, mod.Name)
	}
	return text.Start + uintptr(off), nil
}

func symbolAddr(mod LoadedModule, name string) (uintptr, error) {
	syms, err := sym.ReadSymbols(mod.Path)
	if err != nil {
		return 0, err
	}
	v, ok := syms.Values[name]
	if !ok || v == 0 {
		return 0, fmt.Errorf("symbol %s not in %s", name, mod.Path)
	}
	if syms.Dynamic {
		v += mod.Base
	}
	if !prologueInExec(mod, v) {
		return 0, fmt.Errorf("symbol %s at %#x outside executable segments", name, v)
	}
	return v, nil
}

// prologueInExec reports whether the bytes PatchDetour.Resolve decodes at
// addr all lie in one executable segment.
func prologueInExec(mod LoadedModule, addr uintptr) bool {
	for _, seg := range mod.Exec {
		if seg.Contains(addr, prologueWindow) {
			return true
		}
	}
	return false
}
