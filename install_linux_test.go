//go:build linux

package memohook

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	sym "github.com/k2io/memohook/internal/objSymbols"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:noinline
func symbolProbe(ctx context.Context, in string, out *[]byte, allowMismatch bool, buf []byte) Outcome {
	return Unchanged
}

func TestSymbolAddrResolvesOwnFunction(t *testing.T) {
	exe, err := os.Executable()
	require.NoError(t, err)
	exe, err = filepath.EvalSymlinks(exe)
	require.NoError(t, err)
	mod, err := Locate(ProcHost{}, filepath.Base(exe))
	require.NoError(t, err)

	const name = "github.com/k2io/memohook.symbolProbe"
	syms, err := sym.ReadSymbols(mod.Path)
	require.NoError(t, err)
	if _, ok := syms.Values[name]; !ok {
		// go test strips the binary it runs; only go test -c keeps .symtab
		t.Skip("test binary has no symbol table")
	}

	addr, err := symbolAddr(mod, name)
	require.NoError(t, err)
	assert.Equal(t, reflect.ValueOf(symbolProbe).Pointer(), addr)

	_, err = symbolAddr(mod, "no.such.symbol")
	assert.Error(t, err)
}
