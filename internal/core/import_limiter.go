package core

// import_limiter.go bounds how many imports (fetch, parse, history write)
// run at once and remembers which import holds each slot, so /healthz and
// shutdown can name the imports still in flight.

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrTooManyImports is returned when all import slots are occupied and the
// wait timeout expires.
var ErrTooManyImports = errors.New("too many concurrent imports, please try again later")

// DefaultMaxConcurrentImports is the default limit for parallel imports.
const DefaultMaxConcurrentImports = 5

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// ActiveImport is an import currently holding a slot.
type ActiveImport struct {
	ID      uuid.UUID `json:"id"`
	Source  string    `json:"source"`
	Started time.Time `json:"started"`
}

// ImportLimiter is a counting semaphore over imports, keyed by import id.
type ImportLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	now     func() time.Time

	mu      sync.Mutex
	running map[uuid.UUID]ActiveImport
}

// NewImportLimiter creates a limiter that allows at most maxConcurrent
// simultaneous imports. Non-positive arguments select the defaults.
func NewImportLimiter(maxConcurrent int, maxWait time.Duration) *ImportLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentImports
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &ImportLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
		now:     time.Now,
		running: make(map[uuid.UUID]ActiveImport, maxConcurrent),
	}
}

// Acquire waits for a slot for import id reading source. It returns
// ErrTooManyImports once maxWait expires, or ctx's error if ctx ends first.
// On success the caller must Release(id).
func (l *ImportLimiter) Acquire(ctx context.Context, id uuid.UUID, source string) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.slots <- struct{}{}:
		l.track(id, source)
		return nil
	case <-waitCtx.Done():
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrTooManyImports
	}
}

// TryAcquire takes a slot for import id without waiting.
func (l *ImportLimiter) TryAcquire(id uuid.UUID, source string) bool {
	select {
	case l.slots <- struct{}{}:
		l.track(id, source)
		return true
	default:
		return false
	}
}

func (l *ImportLimiter) track(id uuid.UUID, source string) {
	l.mu.Lock()
	l.running[id] = ActiveImport{ID: id, Source: source, Started: l.now()}
	l.mu.Unlock()
}

// Release frees the slot held by import id. It must be called exactly once
// for each successful Acquire or TryAcquire.
func (l *ImportLimiter) Release(id uuid.UUID) {
	l.mu.Lock()
	delete(l.running, id)
	l.mu.Unlock()

	<-l.slots
}

// Run holds a slot for import id for the duration of fn.
func (l *ImportLimiter) Run(ctx context.Context, id uuid.UUID, source string, fn func() error) error {
	if err := l.Acquire(ctx, id, source); err != nil {
		return err
	}
	defer l.Release(id)
	return fn()
}

// ActiveCount returns the number of imports holding a slot.
func (l *ImportLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.running)
}

// MaxConcurrent returns the slot count.
func (l *ImportLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// Available returns the number of free slots.
func (l *ImportLimiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// Running lists the imports holding a slot, oldest first.
func (l *ImportLimiter) Running() []ActiveImport {
	l.mu.Lock()
	out := make([]ActiveImport, 0, len(l.running))
	for _, a := range l.running {
		out = append(out, a)
	}
	l.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Started.Equal(out[j].Started) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].Started.Before(out[j].Started)
	})
	return out
}

// WaitForDrain blocks until no import holds a slot or ctx ends.
func (l *ImportLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ImportLimiterStatus is a snapshot of the limiter, served by /healthz.
type ImportLimiterStatus struct {
	Active        int            `json:"active"`
	Available     int            `json:"available"`
	MaxConcurrent int            `json:"max_concurrent"`
	Imports       []ActiveImport `json:"imports,omitempty"`
}

// IDs returns the ids of the imports in the snapshot.
func (s ImportLimiterStatus) IDs() []string {
	ids := make([]string, len(s.Imports))
	for i, a := range s.Imports {
		ids[i] = a.ID.String()
	}
	return ids
}

// Status returns the current limiter state.
func (l *ImportLimiter) Status() ImportLimiterStatus {
	running := l.Running()
	st := ImportLimiterStatus{
		Active:        len(running),
		Available:     l.Available(),
		MaxConcurrent: cap(l.slots),
	}
	if len(running) > 0 {
		st.Imports = running
	}
	return st
}
