package votes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryPutReplacesAndCloses(t *testing.T) {
	r := NewRegistry(8, time.Minute)
	first := New(&fakeStore{}, "u1")
	second := New(&fakeStore{}, "u1")

	r.Put("u1", "thread:1", first)
	r.Put("u1", "thread:1", second)

	got, ok := r.Get("u1", "thread:1")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.True(t, first.Closed())
	assert.False(t, second.Closed())
}

func TestRegistryEvictionClosesEngine(t *testing.T) {
	r := NewRegistry(1, time.Minute)
	first := New(&fakeStore{}, "u1")

	r.Put("u1", "thread:1", first)
	r.Put("u2", "thread:1", New(&fakeStore{}, "u2"))

	_, ok := r.Get("u1", "thread:1")
	assert.False(t, ok)
	assert.True(t, first.Closed())
}

func TestRegistryForgetDropsOnlyThatUser(t *testing.T) {
	r := NewRegistry(8, time.Minute)
	a := New(&fakeStore{}, "u1")
	b := New(&fakeStore{}, "u1")
	c := New(&fakeStore{}, "u10")

	r.Put("u1", "threads", a)
	r.Put("u1", "thread:4", b)
	r.Put("u10", "threads", c)

	r.Forget("u1")

	assert.True(t, a.Closed())
	assert.True(t, b.Closed())
	assert.False(t, c.Closed())
	assert.Equal(t, 1, r.Len())

	_, ok := r.Get("u10", "threads")
	assert.True(t, ok)
}
