package refresh

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	entry     Entry
	expiresAt time.Time
}

// Memory is a process-local Registry. Expired entries are invisible to Get
// immediately and physically removed by a janitor goroutine.
type Memory struct {
	mu      sync.Mutex
	entries map[[32]byte]memoryEntry
	now     func() time.Time

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewMemory starts a registry whose janitor sweeps every interval. A
// non-positive interval disables the janitor; Sweep can then be called directly.
func NewMemory(interval time.Duration) *Memory {
	m := &Memory{
		entries: make(map[[32]byte]memoryEntry),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	if interval > 0 {
		m.wg.Add(1)
		go m.janitor(interval)
	}
	return m
}

func (m *Memory) janitor(interval time.Duration) {
	defer m.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-m.done:
			return
		}
	}
}

func (m *Memory) Put(_ context.Context, token string, entry Entry, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	m.entries[tokenHash(token)] = memoryEntry{entry: entry, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(_ context.Context, token string) (Entry, error) {
	key := tokenHash(token)
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return Entry{}, ErrNotFound
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return Entry{}, ErrNotFound
	}
	return e.entry, nil
}

func (m *Memory) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	delete(m.entries, tokenHash(token))
	m.mu.Unlock()
	return nil
}

// Sweep removes every expired entry and returns how many were dropped.
func (m *Memory) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Close stops the janitor.
func (m *Memory) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
	})
}
