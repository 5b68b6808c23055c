package memohook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// prologue is DefaultSignature with its wildcards filled in.
var prologue = []byte{
	0x55, 0x57, 0x56, 0x53,
	0xE8, 0x12, 0x34, 0x56, 0x78,
	0x81, 0xC3, 0x47, 0x93, 0x0A, 0x00,
	0x83, 0xEC, 0x1C,
	0x8B, 0x44, 0x24, 0x38,
	0x8B, 0x6C, 0x24, 0x3C,
	0x89, 0x44, 0x24, 0x0C,
}

func filler(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = 0xCC
	}
	return b
}

func TestParseSignature(t *testing.T) {
	sig, err := ParseSignature("55 e8 ?? ? 0A")
	require.NoError(t, err)
	assert.Equal(t, 5, sig.Len())
	assert.Equal(t, "55 E8 ?? ?? 0A", sig.String())

	_, err = ParseSignature("")
	assert.ErrorIs(t, err, ErrBadSignature)
	_, err = ParseSignature("55 GG")
	assert.ErrorIs(t, err, ErrBadSignature)
	_, err = ParseSignature("100")
	assert.ErrorIs(t, err, ErrBadSignature)
	_, err = ParseSignature("?? ??")
	assert.ErrorIs(t, err, ErrBadSignature)

	assert.Panics(t, func() { MustParseSignature("zz") })
}

func TestDefaultSignature(t *testing.T) {
	assert.Equal(t, len(prologue), DefaultSignature.Len())
	assert.True(t, DefaultSignature.Match(prologue))
}

func TestScanFindsTemplateAtOffset(t *testing.T) {
	mem := append(filler(77), prologue...)
	mem = append(mem, filler(13)...)

	off, ok := DefaultSignature.Scan(mem)
	require.True(t, ok)
	assert.Equal(t, 77, off)
}

func TestScanToleratesWildcards(t *testing.T) {
	mem := append(filler(8), prologue...)
	for i := 5; i < 9; i++ {
		mem[8+i] ^= 0xFF
	}
	off, ok := DefaultSignature.Scan(mem)
	require.True(t, ok)
	assert.Equal(t, 8, off)
}

func TestScanRejectsFixedByteChange(t *testing.T) {
	for i := range prologue {
		if i >= 5 && i < 9 {
			continue
		}
		mem := append(filler(8), prologue...)
		mem[8+i] ^= 0xFF
		_, ok := DefaultSignature.Scan(mem)
		assert.False(t, ok, "fixed byte %d altered", i)
	}
}

func TestScanReturnsFirstMatch(t *testing.T) {
	mem := append(filler(3), prologue...)
	mem = append(mem, prologue...)
	off, ok := DefaultSignature.Scan(mem)
	require.True(t, ok)
	assert.Equal(t, 3, off)
}

func TestScanStaysInBounds(t *testing.T) {
	// template cut short at the end of the range
	mem := append(filler(4), prologue[:len(prologue)-1]...)
	_, ok := DefaultSignature.Scan(mem)
	assert.False(t, ok)

	_, ok = DefaultSignature.Scan(nil)
	assert.False(t, ok)
	_, ok = Signature{}.Scan(prologue)
	assert.False(t, ok)
}
