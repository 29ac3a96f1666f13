package cache

import (
	"fmt"
	"testing"
)

func BenchmarkHashCache_PutWithEviction(b *testing.B) {
	c := New(DefaultCapacity)
	keys := make([]string, DefaultCapacity*4)
	for i := range keys {
		keys[i] = fmt.Sprintf("/data/file-%d", i)
	}

	b.ResetTimer()
	for i := range b.N {
		c.Put(keys[i%len(keys)], "digest")
	}
}

func BenchmarkHashCache_Get(b *testing.B) {
	c := New(DefaultCapacity)
	for i := range DefaultCapacity {
		c.Put(fmt.Sprintf("/data/file-%d", i), "digest")
	}

	b.ResetTimer()
	for i := range b.N {
		c.Get(fmt.Sprintf("/data/file-%d", i%DefaultCapacity))
	}
}
