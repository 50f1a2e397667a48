// Package cache memoizes code analyses keyed by the hash of the source.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned by a backend after Close.
var ErrClosed = errors.New("cache closed")

// Backend stores opaque values with a time to live.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

type memEntry struct {
	value   []byte
	expires time.Time
}

// Memory is an in-process Backend. When full, expired entries are swept
// and then the entry closest to expiry is evicted.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memEntry
	max     int
	closed  bool
	now     func() time.Time
}

// NewMemory creates a Memory backend holding at most max entries; max <= 0
// means 1024.
func NewMemory(max int) *Memory {
	if max <= 0 {
		max = 1024
	}
	return &Memory{entries: make(map[string]memEntry), max: max, now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.max {
		m.evict()
	}
	var expires time.Time
	if ttl > 0 {
		expires = m.now().Add(ttl)
	}
	m.entries[key] = memEntry{value: value, expires: expires}
	return nil
}

// evict frees at least one slot. Caller must hold m.mu.
func (m *Memory) evict() {
	now := m.now()
	for k, e := range m.entries {
		if !e.expires.IsZero() && !now.Before(e.expires) {
			delete(m.entries, k)
		}
	}
	if len(m.entries) < m.max {
		return
	}
	var victim string
	var soonest time.Time
	for k, e := range m.entries {
		if victim == "" || (!e.expires.IsZero() && (soonest.IsZero() || e.expires.Before(soonest))) {
			victim, soonest = k, e.expires
		}
	}
	delete(m.entries, victim)
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.entries = nil
	return nil
}
