package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKV_ExpiresEntriesAfterTTL(t *testing.T) {
	clock := newClock()
	kv := NewMemoryKV()
	kv.now = clock.Now
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "guest:a", []byte("a"), time.Hour))
	require.NoError(t, kv.Set(ctx, "guest:forever", []byte("f"), 0))

	clock.Advance(59 * time.Minute)
	v, err := kv.Get(ctx, "guest:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), v)

	clock.Advance(time.Minute)
	_, err = kv.Get(ctx, "guest:a")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.Equal(t, 1, kv.Len())

	v, err = kv.Get(ctx, "guest:forever")
	require.NoError(t, err)
	assert.Equal(t, []byte("f"), v)
}

func TestMemoryKV_SetSweepsExpiredEntries(t *testing.T) {
	clock := newClock()
	kv := NewMemoryKV()
	kv.now = clock.Now
	ctx := context.Background()

	for _, key := range []string{"guest:1", "guest:2", "guest:3"} {
		require.NoError(t, kv.Set(ctx, key, []byte(key), time.Hour))
	}
	assert.Equal(t, 3, kv.Len())

	clock.Advance(2 * time.Hour)
	require.NoError(t, kv.Set(ctx, "guest:new", []byte("n"), time.Hour))

	assert.Equal(t, 1, kv.Len())
	_, err := kv.Get(ctx, "guest:1")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}
