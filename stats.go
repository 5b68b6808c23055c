package memohook

import (
	"fmt"
)

// Report covers one completed stats window of a session.
type Report struct {
	Session string
	Total   int
	Misses  int
}

// HitRate is the percentage of calls answered from cache.
func (r Report) HitRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Total-r.Misses) / float64(r.Total) * 100
}

func (r Report) String() string {
	return fmt.Sprintf("%.1f%% cache hit rate", r.HitRate())
}

type statsWindow struct {
	total  int
	misses int
}

// record counts one call and returns the finished window once total
// reaches size. Counters start from zero again afterwards.
func (w *statsWindow) record(miss bool, size int) (Report, bool) {
	w.total++
	if miss {
		w.misses++
	}
	if w.total < size {
		return Report{}, false
	}
	r := Report{Total: w.total, Misses: w.misses}
	w.total, w.misses = 0, 0
	return r, true
}
