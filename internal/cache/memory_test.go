package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSet(t *testing.T) {
	m := NewMemory(time.Minute)
	defer m.Close()
	ctx := context.Background()

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	// The cache must hand out copies, not aliases.
	got[0] = 'x'
	again, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), again)
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory(time.Minute)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "short", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := m.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrMiss)
	assert.Equal(t, 0, m.Len())
}

func TestMemoryNoTTL(t *testing.T) {
	m := NewMemory(time.Minute)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "forever", []byte("v"), 0))
	_, err := m.Get(ctx, "forever")
	assert.NoError(t, err)
}

func TestMemoryDelete(t *testing.T) {
	m := NewMemory(time.Minute)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), time.Minute))
	require.NoError(t, m.Delete(ctx, "a", "b"))

	_, err := m.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryDeleteByPrefix(t *testing.T) {
	m := NewMemory(time.Minute)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "battle:history:p1:limit:20:offset:0", []byte("a"), time.Minute))
	require.NoError(t, m.Set(ctx, "battle:history:p1:limit:20:offset:20", []byte("b"), time.Minute))
	require.NoError(t, m.Set(ctx, "battle:history:p2:limit:20:offset:0", []byte("c"), time.Minute))

	require.NoError(t, m.DeleteByPrefix(ctx, "battle:history:p1:"))

	_, err := m.Get(ctx, "battle:history:p1:limit:20:offset:0")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = m.Get(ctx, "battle:history:p2:limit:20:offset:0")
	assert.NoError(t, err)
}

func TestMemorySweepReclaims(t *testing.T) {
	m := NewMemory(20 * time.Millisecond)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "gone", []byte("v"), 5*time.Millisecond))
	time.Sleep(60 * time.Millisecond)

	m.mu.Lock()
	_, stillThere := m.entries["gone"]
	m.mu.Unlock()
	assert.False(t, stillThere, "sweep should have reclaimed the expired entry")
}
