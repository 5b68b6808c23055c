package memohook

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constFunc(o Outcome) Func {
	return func(ctx context.Context, in string, out *[]byte, allowMismatch bool, buf []byte) Outcome {
		return o
	}
}

func TestEntrySwap(t *testing.T) {
	e := NewEntry(constFunc(Unchanged))
	ctx := context.Background()
	var out []byte

	assert.False(t, e.Enabled())
	assert.ErrorIs(t, e.Enable(), ErrNotResolved)
	assert.Equal(t, Unchanged, e.Call(ctx, "a", &out, false, nil))

	e.redirect(constFunc(Failed))
	require.NoError(t, e.Enable())
	assert.True(t, e.Enabled())
	assert.Equal(t, Failed, e.Call(ctx, "a", &out, false, nil))
	assert.Equal(t, Unchanged, e.Original()(ctx, "a", &out, false, nil))

	require.NoError(t, e.Disable())
	assert.False(t, e.Enabled())
	assert.Equal(t, Unchanged, e.Call(ctx, "a", &out, false, nil))
}

func TestEntryToggleKeepsOriginal(t *testing.T) {
	target := newFakeTarget()
	e := NewEntry(target.call)
	ctx := context.Background()
	buf := make([]byte, 64)

	var before []byte
	o1 := e.Call(ctx, "abc/DEF", &before, false, buf)
	got1 := string(before)

	e.redirect(constFunc(Failed))
	require.NoError(t, e.Enable())
	require.NoError(t, e.Disable())

	var after []byte
	o2 := e.Call(ctx, "abc/DEF", &after, false, buf)
	assert.Equal(t, o1, o2)
	assert.Equal(t, got1, string(after))
}

func TestEntryBypassRunsInline(t *testing.T) {
	e := NewEntry(constFunc(Unchanged))
	e.redirect(constFunc(Failed))
	require.NoError(t, e.Enable())
	ran := false
	e.Bypass(func() { ran = true })
	assert.True(t, ran)
	assert.True(t, e.Enabled())
}
