// Package ratelimit implements a sliding-window attempt counter keyed by an
// arbitrary identity string (IP, email). Callers check IsLimited before the
// guarded action and RecordAttempt whenever the attempt is made, so failed
// attempts count toward the limit as well.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type Limiter interface {
	// IsLimited discards attempts older than the window and reports whether
	// the key has reached maxAttempts, with the seconds until the oldest
	// retained attempt leaves the window (minimum 1).
	IsLimited(ctx context.Context, key string, maxAttempts int, window time.Duration) (bool, int, error)
	// RecordAttempt appends the current instant for the key unconditionally.
	RecordAttempt(ctx context.Context, key string) error
}

// Memory is the in-process backend. Windows are lost on restart, which is
// acceptable: this is a throttle, not an audit log.
type Memory struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		attempts: make(map[string][]time.Time),
		now:      time.Now,
	}
}

func (m *Memory) IsLimited(_ context.Context, key string, maxAttempts int, window time.Duration) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	cutoff := now.Add(-window)

	kept := m.attempts[key][:0]
	for _, at := range m.attempts[key] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	m.attempts[key] = kept

	if len(kept) >= maxAttempts {
		// kept is append-ordered, so the first entry is the oldest.
		retryAfter := int(kept[0].Add(window).Sub(now).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		return true, retryAfter, nil
	}

	return false, 0, nil
}

func (m *Memory) RecordAttempt(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.attempts[key] = append(m.attempts[key], m.now())

	return nil
}
