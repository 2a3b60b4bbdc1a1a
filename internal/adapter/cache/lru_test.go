package cache

import (
	"context"
	"testing"

	"github.com/couchcryptid/reservoir-forecast-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, c *MemoryStore, key string) (domain.ScenarioResponse, bool) {
	t.Helper()
	resp, ok, err := c.Get(context.Background(), key)
	require.NoError(t, err)
	return resp, ok
}

func put(t *testing.T, c *MemoryStore, key, id string) {
	t.Helper()
	require.NoError(t, c.Put(context.Background(), key, domain.ScenarioResponse{ID: id}))
}

func TestMemoryStore_BasicGetPut(t *testing.T) {
	c := NewMemoryStore(3)

	put(t, c, "a", "A")
	put(t, c, "b", "B")

	result, ok := get(t, c, "a")
	assert.True(t, ok)
	assert.Equal(t, "A", result.ID)

	_, ok = get(t, c, "missing")
	assert.False(t, ok)
}

func TestMemoryStore_Eviction(t *testing.T) {
	c := NewMemoryStore(2)

	put(t, c, "a", "A")
	put(t, c, "b", "B")
	put(t, c, "c", "C") // evicts "a"

	_, ok := get(t, c, "a")
	assert.False(t, ok, "a should have been evicted")

	result, ok := get(t, c, "b")
	assert.True(t, ok)
	assert.Equal(t, "B", result.ID)

	result, ok = get(t, c, "c")
	assert.True(t, ok)
	assert.Equal(t, "C", result.ID)
	assert.Equal(t, 2, c.Len())
}

func TestMemoryStore_AccessPromotesEntry(t *testing.T) {
	c := NewMemoryStore(2)

	put(t, c, "a", "A")
	put(t, c, "b", "B")

	get(t, c, "a")

	// "b" is now least recently used.
	put(t, c, "c", "C")

	_, ok := get(t, c, "a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = get(t, c, "b")
	assert.False(t, ok, "b should have been evicted")
}

func TestMemoryStore_UpdateExisting(t *testing.T) {
	c := NewMemoryStore(2)

	put(t, c, "a", "A1")
	put(t, c, "a", "A2")

	result, ok := get(t, c, "a")
	assert.True(t, ok)
	assert.Equal(t, "A2", result.ID)
	assert.Equal(t, 1, c.Len())
}
