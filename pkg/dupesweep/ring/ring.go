// Package ring provides a fixed-capacity FIFO ring buffer.
//
// Buffer is not safe for concurrent use; owners guard it with their own lock.
package ring

// Buffer holds up to a fixed number of values in insertion order.
type Buffer[T any] struct {
	items []T
	start int // Index of oldest item
	count int // Number of items in buffer
}

// New creates a buffer with the given capacity. Capacity below 1 is raised to 1.
func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{items: make([]T, capacity)}
}

// Push appends v. If the buffer is full the oldest value is overwritten and
// returned with ok set.
func (b *Buffer[T]) Push(v T) (evicted T, ok bool) {
	idx := (b.start + b.count) % len(b.items)
	if b.count == len(b.items) {
		evicted, ok = b.items[b.start], true
		b.items[b.start] = v
		b.start = (b.start + 1) % len(b.items)
		return evicted, ok
	}
	b.items[idx] = v
	b.count++
	return evicted, false
}

// PopFront removes up to n of the oldest values and returns them, oldest first.
func (b *Buffer[T]) PopFront(n int) []T {
	n = min(n, b.count)
	if n <= 0 {
		return nil
	}
	out := make([]T, n)
	var zero T
	for i := range n {
		out[i] = b.items[b.start]
		b.items[b.start] = zero
		b.start = (b.start + 1) % len(b.items)
	}
	b.count -= n
	return out
}

// Last returns the most recent n values, newest last.
func (b *Buffer[T]) Last(n int) []T {
	n = min(n, b.count)
	if n <= 0 {
		return nil
	}
	out := make([]T, n)
	offset := b.count - n
	for i := range n {
		out[i] = b.items[(b.start+offset+i)%len(b.items)]
	}
	return out
}

// Values returns every value, oldest first. The slice is a copy.
func (b *Buffer[T]) Values() []T {
	return b.Last(b.count)
}

// Len returns the number of values held.
func (b *Buffer[T]) Len() int { return b.count }

// Cap returns the capacity.
func (b *Buffer[T]) Cap() int { return len(b.items) }

// Full reports whether the buffer is at capacity.
func (b *Buffer[T]) Full() bool { return b.count == len(b.items) }

// Clear removes all values.
func (b *Buffer[T]) Clear() {
	clear(b.items)
	b.start = 0
	b.count = 0
}
