package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySetGet(t *testing.T) {
	m := NewMemory(8)

	m.Set("k", 42, "posts")

	val, ok := m.Get("k", "posts")
	require.True(t, ok)
	assert.Equal(t, 42, val)

	_, ok = m.Get("k", "terms")
	assert.False(t, ok, "domains are isolated")
}

func TestMemoryAddKeepsExisting(t *testing.T) {
	m := NewMemory(8)

	m.Add("k", "first", "posts")
	m.Add("k", "second", "posts")

	val, ok := m.Get("k", "posts")
	require.True(t, ok)
	assert.Equal(t, "first", val)
}

func TestMemoryDelete(t *testing.T) {
	m := NewMemory(8)

	m.Set("k", 1, "posts")
	m.Delete("k", "posts")

	_, ok := m.Get("k", "posts")
	assert.False(t, ok)
}

func TestMemoryGetMulti(t *testing.T) {
	m := NewMemory(8)

	m.Set("a", 1, "posts")
	m.Set("b", 2, "posts")

	got := m.GetMulti([]string{"a", "b", "missing"}, "posts")
	assert.Len(t, got, 2)
	assert.Equal(t, 1, got["a"])
}

func TestMemoryLastChanged(t *testing.T) {
	m := NewMemory(8)

	token := m.LastChanged("posts")
	assert.NotEmpty(t, token)
	assert.Equal(t, token, m.LastChanged("posts"), "token is stable until bumped")

	m.BumpLastChanged("posts")
	assert.NotEqual(t, token, m.LastChanged("posts"))
}

func TestMemoryEviction(t *testing.T) {
	m := NewMemory(2)

	m.Set("a", 1, "posts")
	m.Set("b", 2, "posts")
	m.Set("c", 3, "posts")

	_, ok := m.Get("a", "posts")
	assert.False(t, ok, "oldest entry is evicted at capacity")
}

func TestNoopAlwaysMisses(t *testing.T) {
	c := Noop()

	c.Set("k", 1, "posts")
	_, ok := c.Get("k", "posts")
	assert.False(t, ok)
	assert.Empty(t, c.LastChanged("posts"))
}
