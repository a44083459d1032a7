package redisclient

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("Integration test - requires REDIS_TEST_ADDR")
	}

	c, err := NewClient(addr, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestLock(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	key := "order:" + uuid.New().String()

	token, ok, err := c.AcquireLock(ctx, key, 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, token)

	_, ok, err = c.AcquireLock(ctx, key, 5*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.ReleaseLock(ctx, key, token))

	token, ok, err = c.AcquireLock(ctx, key, 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, c.ReleaseLock(ctx, key, token))
}

func TestExpiredHolderCannotReleaseNewLock(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	key := "order:" + uuid.New().String()

	stale, ok, err := c.AcquireLock(ctx, key, 100*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(200 * time.Millisecond)

	current, ok, err := c.AcquireLock(ctx, key, 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	err = c.ReleaseLock(ctx, key, stale)
	assert.ErrorIs(t, err, ErrLockNotHeld)

	// the new holder still owns the key
	_, ok, err = c.AcquireLock(ctx, key, 5*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.ReleaseLock(ctx, key, current))
}

func TestMarkProcessed(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	id := uuid.New().String()

	first, err := c.MarkProcessed(ctx, id, time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := c.MarkProcessed(ctx, id, time.Minute)
	require.NoError(t, err)
	assert.False(t, again)
}
