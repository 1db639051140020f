// Package cache provides the key → {value, expiry} store shared by the ledger
// resolvers. The interface is small so a distributed implementation can replace
// Memory when the engine runs on several instances.
package cache

import (
	"sync"
	"time"
)

// Cache stores values with a per-entry expiry.
type Cache[V any] interface {
	// Get returns the value when present and not expired.
	Get(key string) (V, bool)
	// Add stores value unless a live entry already exists; it reports whether it wrote.
	Add(key string, value V, ttl time.Duration) bool
	Delete(key string)
	// DeleteFunc drops every entry whose key matches and returns how many went.
	DeleteFunc(match func(key string) bool) int
	// Sweep drops expired entries and returns how many were removed.
	Sweep() int
	Len() int
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Memory is a mutex-guarded in-process Cache.
type Memory[V any] struct {
	mu    sync.RWMutex
	items map[string]entry[V]
	now   func() time.Time
}

func NewMemory[V any]() *Memory[V] {
	return &Memory[V]{items: map[string]entry[V]{}, now: time.Now}
}

// WithClock swaps the time source; used by tests.
func (m *Memory[V]) WithClock(now func() time.Time) *Memory[V] {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
	return m
}

func (m *Memory[V]) Get(key string) (V, bool) {
	m.mu.RLock()
	e, ok := m.items[key]
	now := m.now()
	m.mu.RUnlock()

	if !ok || !now.Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (m *Memory[V]) Add(key string, value V, ttl time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if e, ok := m.items[key]; ok && now.Before(e.expiresAt) {
		return false
	}
	m.items[key] = entry[V]{value: value, expiresAt: now.Add(ttl)}
	return true
}

func (m *Memory[V]) Delete(key string) {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
}

func (m *Memory[V]) DeleteFunc(match func(key string) bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k := range m.items {
		if match(k) {
			delete(m.items, k)
			n++
		}
	}
	return n
}

func (m *Memory[V]) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := 0
	for k, e := range m.items {
		if !now.Before(e.expiresAt) {
			delete(m.items, k)
			n++
		}
	}
	return n
}

func (m *Memory[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
