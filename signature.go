package memohook

import (
	"fmt"
	"strconv"
	"strings"
)

// Signature is a fixed-length byte template. Wildcard positions match any
// byte, so relocated operands do not break the match across builds.
type Signature struct {
	bytes []byte
	fixed []bool
}

// ParseSignature reads hex bytes separated by white space, with "??" or
// "?" standing for a wildcard, e.g. "55 57 E8 ?? ?? ?? ??".
func ParseSignature(s string) (Signature, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Signature{}, fmt.Errorf("%w: empty", ErrBadSignature)
	}
	sig := Signature{
		bytes: make([]byte, len(fields)),
		fixed: make([]bool, len(fields)),
	}
	for i, f := range fields {
		if f == "??" || f == "?" {
			continue
		}
		b, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return Signature{}, fmt.Errorf("%w: byte %d %q", ErrBadSignature, i, f)
		}
		sig.bytes[i] = byte(b)
		sig.fixed[i] = true
	}
	if !sig.anchored() {
		return Signature{}, fmt.Errorf("%w: only wildcards", ErrBadSignature)
	}
	return sig, nil
}

// MustParseSignature is like ParseSignature but panics on error.
func MustParseSignature(s string) Signature {
	sig, err := ParseSignature(s)
	if err != nil {
		panic(err)
	}
	return sig
}

func (s Signature) anchored() bool {
	for _, f := range s.fixed {
		if f {
			return true
		}
	}
	return false
}

// Len is the number of bytes the template spans.
func (s Signature) Len() int {
	return len(s.bytes)
}

// Match reports whether the template matches at the start of p.
func (s Signature) Match(p []byte) bool {
	if len(s.bytes) == 0 || len(p) < len(s.bytes) {
		return false
	}
	for i, b := range s.bytes {
		if s.fixed[i] && p[i] != b {
			return false
		}
	}
	return true
}

// Scan returns the first offset in mem where the template matches.
// Uniqueness is not checked.
func (s Signature) Scan(mem []byte) (int, bool) {
	n := len(s.bytes)
	if n == 0 {
		return 0, false
	}
	for off := 0; off+n <= len(mem); off++ {
		if s.Match(mem[off:]) {
			return off, true
		}
	}
	return 0, false
}

func (s Signature) String() string {
	var sb strings.Builder
	for i, b := range s.bytes {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if !s.fixed[i] {
			sb.WriteString("??")
			continue
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}
