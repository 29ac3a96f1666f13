package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/types"
)

func TestHashCache_GetPut(t *testing.T) {
	c := New(10)

	_, ok := c.Get("/a")
	assert.False(t, ok)

	c.Put("/a", "d1")
	d, ok := c.Get("/a")
	assert.True(t, ok)
	assert.Equal(t, types.Digest("d1"), d)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
	assert.InDelta(t, 0.5, stats.HitRate, 1e-9)
}

func TestHashCache_EvictsOldestTenth(t *testing.T) {
	c := New(100)
	for i := range 100 {
		c.Put(fmt.Sprintf("/f%03d", i), types.Digest(fmt.Sprint(i)))
	}
	assert.Equal(t, 100, c.Len())

	c.Put("/new", "n")

	assert.Equal(t, 91, c.Len())
	for i := range 10 {
		_, ok := c.Get(fmt.Sprintf("/f%03d", i))
		assert.False(t, ok, "entry %d should have been evicted", i)
	}
	for _, p := range []string{"/f010", "/f099", "/new"} {
		_, ok := c.Get(p)
		assert.True(t, ok, "%s should be cached", p)
	}
}

func TestHashCache_SmallCapacityEvictsOne(t *testing.T) {
	c := New(3)
	c.Put("/a", "1")
	c.Put("/b", "2")
	c.Put("/c", "3")
	c.Put("/d", "4")

	assert.Equal(t, 3, c.Len())
	_, ok := c.Get("/a")
	assert.False(t, ok)
}

func TestHashCache_UpdateKeepsOrder(t *testing.T) {
	c := New(2)
	c.Put("/a", "1")
	c.Put("/b", "2")
	c.Put("/a", "updated")
	c.Put("/c", "3")

	_, ok := c.Get("/a")
	assert.False(t, ok, "/a was inserted first and must be evicted first")

	d, ok := c.Get("/b")
	assert.True(t, ok)
	assert.Equal(t, types.Digest("2"), d)
}

func TestHashCache_NeverExceedsCapacity(t *testing.T) {
	c := New(50)
	for i := range 1000 {
		c.Put(fmt.Sprintf("/f%d", i), "d")
		if c.Len() > 50 {
			t.Fatalf("Len() = %d after %d puts, want <= 50", c.Len(), i+1)
		}
	}
}

func TestHashCache_Clear(t *testing.T) {
	c := New(5)
	c.Put("/a", "1")
	c.Get("/a")
	c.Clear()

	assert.Zero(t, c.Len())
	assert.Equal(t, Stats{}, c.Stats())
}

func TestNew_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, New(0).Capacity())
}

func TestHashCache_Concurrent(t *testing.T) {
	c := New(100)

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := range 500 {
				p := fmt.Sprintf("/w%d/%d", w, i%150)
				if _, ok := c.Get(p); !ok {
					c.Put(p, "d")
				}
			}
		}(w)
	}
	wg.Wait()

	stats := c.Stats()
	assert.LessOrEqual(t, stats.Size, 100)
	assert.Equal(t, int64(8*500), stats.Hits+stats.Misses)
}
