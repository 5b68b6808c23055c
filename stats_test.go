package memohook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsWindow(t *testing.T) {
	var w statsWindow
	for i := 0; i < 9; i++ {
		_, done := w.record(i < 4, 10)
		assert.False(t, done)
	}
	r, done := w.record(false, 10)
	assert.True(t, done)
	assert.Equal(t, 10, r.Total)
	assert.Equal(t, 4, r.Misses)
	assert.InDelta(t, 60.0, r.HitRate(), 1e-9)
	assert.Equal(t, "60.0% cache hit rate", r.String())
	assert.Equal(t, statsWindow{}, w)
}

func TestReportEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Report{}.HitRate())
}
