package store

import (
	"context"
	"sync"
)

// Memory is a fixed-size History. Once full, each insert evicts the oldest
// record. It is safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	buf  []ImportRecord
	next int
	full bool
}

// NewMemory returns a Memory holding at most size records.
func NewMemory(size int) *Memory {
	if size <= 0 {
		size = DefaultRecentLimit
	}
	return &Memory{buf: make([]ImportRecord, size)}
}

// Insert stores rec, evicting the oldest record when full.
func (m *Memory) Insert(ctx context.Context, rec ImportRecord) error {
	if err := rec.validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.buf[m.next] = rec
	m.next = (m.next + 1) % len(m.buf)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (m *Memory) Recent(ctx context.Context, limit int) ([]ImportRecord, error) {
	limit = clampLimit(limit)

	m.mu.RLock()
	defer m.mu.RUnlock()

	n := m.next
	if m.full {
		n = len(m.buf)
	}
	if limit > n {
		limit = n
	}

	out := make([]ImportRecord, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (m.next - i + len(m.buf)) % len(m.buf)
		out = append(out, m.buf[idx])
	}
	return out, nil
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.full {
		return len(m.buf)
	}
	return m.next
}
