package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetAndGet(t *testing.T) {
	c := NewCache(time.Minute)

	c.Set("room-1", "token-a")

	value, ok := c.Get("room-1")
	require.True(t, ok)
	assert.Equal(t, "token-a", value)

	_, ok = c.Get("room-2")
	assert.False(t, ok)
}

func TestCache_SetReplacesValue(t *testing.T) {
	c := NewCache(time.Minute)

	c.Set("room-1", "token-a")
	c.Set("room-1", "token-b")

	value, ok := c.Get("room-1")
	require.True(t, ok)
	assert.Equal(t, "token-b", value)
	assert.Equal(t, 1, c.Len())
}

func TestCache_ExpiredEntryIsAMiss(t *testing.T) {
	c := NewCache(10 * time.Millisecond)

	c.Set("room-1", "token-a")
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("room-1")
	assert.False(t, ok)
	// The expired entry was evicted by the lookup.
	assert.Equal(t, 0, c.Len())
}

func TestCache_Delete(t *testing.T) {
	c := NewCache(time.Minute)

	c.Set("room-1", "token-a")
	c.Delete("room-1")

	_, ok := c.Get("room-1")
	assert.False(t, ok)
}
