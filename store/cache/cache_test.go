package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSetGet(t *testing.T) {
	c := New(Config{})
	defer c.Close()

	c.Set("k", "v")
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)

	_, ok = c.Get("absent")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	c := New(Config{})
	defer c.Close()

	c.SetWithTTL("k", "v", 10*time.Millisecond)
	_, ok := c.Get("k")
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestCacheDelete(t *testing.T) {
	c := New(Config{})
	defer c.Close()

	c.Set("k", 1)
	c.Delete("k")
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCacheEvictsAtCapacity(t *testing.T) {
	c := New(Config{MaxItems: 3})
	defer c.Close()

	c.SetWithTTL("a", 1, time.Minute)
	c.SetWithTTL("b", 2, time.Hour)
	c.SetWithTTL("c", 3, time.Hour)
	// "a" expires soonest, so it goes first.
	c.SetWithTTL("d", 4, time.Hour)

	_, ok := c.Get("a")
	assert.False(t, ok)
	for _, key := range []string{"b", "c", "d"} {
		_, ok := c.Get(key)
		assert.True(t, ok, "key %s should survive", key)
	}
}

func TestCacheOverwriteDoesNotEvict(t *testing.T) {
	c := New(Config{MaxItems: 2})
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10)

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10, got)
	_, ok = c.Get("b")
	assert.True(t, ok)
}

func TestCacheSweeper(t *testing.T) {
	c := New(Config{CleanupInterval: 10 * time.Millisecond})
	defer c.Close()

	for i := 0; i < 5; i++ {
		c.SetWithTTL(fmt.Sprintf("k%d", i), i, 5*time.Millisecond)
	}
	time.Sleep(30 * time.Millisecond)

	c.mu.RLock()
	defer c.mu.RUnlock()
	assert.Empty(t, c.items)
}

func TestCacheCloseIdempotent(t *testing.T) {
	c := New(Config{})
	c.Close()
	assert.NotPanics(t, c.Close)
}
