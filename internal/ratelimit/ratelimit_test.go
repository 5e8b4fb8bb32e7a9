package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUnderLimit(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, m.RecordAttempt(ctx, "login_1.2.3.4"))
	}

	limited, retryAfter, err := m.IsLimited(ctx, "login_1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, limited)
	assert.Zero(t, retryAfter)
}

func TestMemoryAtLimit(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, m.RecordAttempt(ctx, "login_1.2.3.4"))
	}

	limited, retryAfter, err := m.IsLimited(ctx, "login_1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, limited)
	assert.GreaterOrEqual(t, retryAfter, 1)
	assert.LessOrEqual(t, retryAfter, 60)
}

func TestMemoryWindowSlides(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		require.NoError(t, m.RecordAttempt(ctx, "reset_a@example.com"))
	}

	limited, _, err := m.IsLimited(ctx, "reset_a@example.com", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, limited)

	// Once the oldest attempt falls out of the window the key clears.
	current = current.Add(61 * time.Second)

	limited, retryAfter, err := m.IsLimited(ctx, "reset_a@example.com", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, limited)
	assert.Zero(t, retryAfter)
}

func TestMemoryRetryAfterCountsFromOldest(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	require.NoError(t, m.RecordAttempt(ctx, "k"))
	current = current.Add(30 * time.Second)
	require.NoError(t, m.RecordAttempt(ctx, "k"))

	limited, retryAfter, err := m.IsLimited(ctx, "k", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, limited)
	assert.Equal(t, 30, retryAfter)
}

func TestMemoryRetryAfterFloor(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	require.NoError(t, m.RecordAttempt(ctx, "k"))

	// A fraction of a second left in the window still reports at least 1.
	current = current.Add(time.Minute - 100*time.Millisecond)

	limited, retryAfter, err := m.IsLimited(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, limited)
	assert.Equal(t, 1, retryAfter)
}

func TestMemoryKeysAreIndependent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, m.RecordAttempt(ctx, "login_1.2.3.4"))
	}

	limited, _, err := m.IsLimited(ctx, "login_5.6.7.8", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, limited)
}
