package memohook

import (
	"context"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// value is either a present result or an absent marker stamped with the
// time the failure was seen.
type value struct {
	result  string
	present bool
	at      time.Time
}

type table struct {
	m   map[string]value
	lru *lru.Cache[string, value]
}

func newTable(max int) *table {
	if max > 0 {
		c, err := lru.New[string, value](max)
		if err == nil {
			return &table{lru: c}
		}
	}
	return &table{m: make(map[string]value)}
}

func (t *table) get(k string) (value, bool) {
	if t.lru != nil {
		return t.lru.Get(k)
	}
	v, ok := t.m[k]
	return v, ok
}

func (t *table) put(k string, v value) {
	if t.lru != nil {
		t.lru.Add(k, v)
		return
	}
	t.m[k] = v
}

func (t *table) len() int {
	if t.lru != nil {
		return t.lru.Len()
	}
	return len(t.m)
}

// Session owns the memo table and stats window of one worker. It replaces
// thread-local state: create one per worker, carry it in the context
// passed to the hooked function and Close it when the worker ends.
//
// A Session must not be used by more than one goroutine at a time.
type Session struct {
	id    uuid.UUID
	hook  *Hook
	table *table
	stats statsWindow
	// set while this session runs the original function
	passing bool
	closed  bool
}

// NewSession starts a worker session. The table is created on first use.
func (h *Hook) NewSession() *Session {
	return &Session{id: uuid.New(), hook: h}
}

func (s *Session) ID() string {
	return s.id.String()
}

// Len is the number of cached keys.
func (s *Session) Len() int {
	if s.table == nil {
		return 0
	}
	return s.table.len()
}

// Close drops the table. Calls made with a closed session pass through
// uncached.
func (s *Session) Close() {
	s.table = nil
	s.stats = statsWindow{}
	s.closed = true
}

type sessionKey struct{}

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session carried by ctx.
func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}
