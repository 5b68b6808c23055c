package memohook

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
)

// Hook is the memoizing wrapper around one target function.
type Hook struct {
	cfg    Config
	log    *zap.Logger
	orig   Func
	detour atomic.Pointer[armed]
	// why interception is unavailable, set before the hook is returned
	err error
}

// armed holds the installed detour. Close swaps it out while calls may
// still be running.
type armed struct {
	d Detour
}

func newHook(orig Func, opts []Option) *Hook {
	cfg := newConfig(opts)
	return &Hook{
		cfg:  cfg,
		log:  cfg.Logger,
		orig: orig,
	}
}

// Available reports whether calls are being intercepted.
func (h *Hook) Available() bool {
	return h.current() != nil
}

func (h *Hook) current() Detour {
	a := h.detour.Load()
	if a == nil || h.err != nil {
		return nil
	}
	return a.d
}

func (h *Hook) arm(d Detour) {
	h.detour.Store(&armed{d: d})
}

// Err returns the reason the hook fell back to pass-through.
func (h *Hook) Err() error {
	return h.err
}

// Config returns the effective configuration.
func (h *Hook) Config() Config {
	return h.cfg
}

// Call is the wrapper entry. Calls whose context carries a live Session
// of this hook are memoized; all others reach the original function.
func (h *Hook) Call(ctx context.Context, in string, out *[]byte, allowMismatch bool, buf []byte) Outcome {
	d := h.current()
	s, ok := SessionFrom(ctx)
	if !ok || s.hook != h || s.closed || s.passing || d == nil {
		return h.orig(ctx, in, out, allowMismatch, buf)
	}
	if s.table == nil {
		s.table = newTable(h.cfg.MaxEntries)
	}

	if v, ok := s.table.get(in); ok {
		if v.present {
			fill(v.result, out, buf)
			h.count(s, false)
			return Changed
		}
		if h.valid(v) {
			if out != nil {
				*out = nil
			}
			h.count(s, false)
			return Failed
		}
	}

	ret := h.passThrough(ctx, d, s, in, out, allowMismatch, buf)
	if s.table != nil {
		switch {
		case ret == Changed && out != nil && len(*out) > 0:
			s.table.put(in, value{result: string(*out), present: true})
		case ret == Failed:
			s.table.put(in, value{at: h.cfg.Now()})
		}
	}
	h.count(s, true)
	return ret
}

func (h *Hook) passThrough(ctx context.Context, d Detour, s *Session, in string, out *[]byte, allowMismatch bool, buf []byte) Outcome {
	s.passing = true
	defer func() {
		s.passing = false
	}()
	var ret Outcome
	d.Bypass(func() {
		ret = h.orig(ctx, in, out, allowMismatch, buf)
	})
	return ret
}

// valid reports whether an absent entry may still be served.
func (h *Hook) valid(v value) bool {
	if h.cfg.NegativeTTL < 0 {
		return true
	}
	return h.cfg.Now().Sub(v.at) < h.cfg.NegativeTTL
}

func (h *Hook) count(s *Session, miss bool) {
	r, done := s.stats.record(miss, h.cfg.Window)
	if !done {
		return
	}
	r.Session = s.ID()
	if h.cfg.Reporter != nil {
		h.cfg.Reporter(r)
		return
	}
	h.log.Info(r.String(),
		zap.String("session", r.Session),
		zap.Int("total", r.Total),
		zap.Int("misses", r.Misses))
}

// fill hands a cached result to the caller: in buf when the result and
// its NUL terminator fit, in fresh storage otherwise.
func fill(result string, out *[]byte, buf []byte) {
	if out == nil {
		return
	}
	n := len(result)
	if n+1 <= len(buf) {
		copy(buf, result)
		buf[n] = 0
		*out = buf[:n]
		return
	}
	p := make([]byte, n+1)
	copy(p, result)
	*out = p[:n]
}
