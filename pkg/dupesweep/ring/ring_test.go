package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffer_PushAndValues(t *testing.T) {
	b := New[string](3)
	for _, s := range []string{"A", "B", "C"} {
		_, evicted := b.Push(s)
		assert.False(t, evicted)
	}

	assert.Equal(t, []string{"A", "B", "C"}, b.Values())
	assert.True(t, b.Full())
}

func TestBuffer_Overflow(t *testing.T) {
	b := New[string](3)
	var dropped []string
	for _, s := range []string{"A", "B", "C", "D", "E"} {
		if old, ok := b.Push(s); ok {
			dropped = append(dropped, old)
		}
	}

	assert.Equal(t, []string{"C", "D", "E"}, b.Values())
	assert.Equal(t, []string{"A", "B"}, dropped)
}

func TestBuffer_PopFront(t *testing.T) {
	b := New[int](4)
	for i := 1; i <= 6; i++ {
		b.Push(i)
	}

	assert.Equal(t, []int{3, 4}, b.PopFront(2))
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, []int{5, 6}, b.Values())

	b.Push(7)
	b.Push(8)
	assert.Equal(t, []int{5, 6, 7, 8}, b.Values())
	assert.Equal(t, []int{5, 6, 7, 8}, b.PopFront(10))
	assert.Nil(t, b.PopFront(1))
}

func TestBuffer_Last(t *testing.T) {
	b := New[int](5)
	for i := 1; i <= 7; i++ {
		b.Push(i)
	}

	assert.Equal(t, []int{6, 7}, b.Last(2))
	assert.Equal(t, []int{3, 4, 5, 6, 7}, b.Last(99))
	assert.Nil(t, b.Last(0))
}

func TestBuffer_Clear(t *testing.T) {
	b := New[int](2)
	b.Push(1)
	b.Clear()

	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 2, b.Cap())
	assert.Empty(t, b.Values())
}

func TestNew_MinimumCapacity(t *testing.T) {
	b := New[int](0)
	assert.Equal(t, 1, b.Cap())
}
