package utils

import (
	"sync"
)

// Ring is a fixed-capacity FIFO buffer that overwrites its oldest element
// once full. Safe for concurrent use.
type Ring[T any] struct {
	mu     sync.Mutex
	buffer []T
	size   int
	write  int
	count  int
}

// NewRing creates a ring holding at most size elements. Size must be > 0.
func NewRing[T any](size int) *Ring[T] {
	return &Ring[T]{
		buffer: make([]T, size),
		size:   size,
	}
}

// Add appends value, evicting the oldest element when the ring is full.
func (r *Ring[T]) Add(value T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buffer[r.write] = value
	r.write = (r.write + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

// Len returns the number of elements currently held.
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Cap returns the fixed capacity.
func (r *Ring[T]) Cap() int {
	return r.size
}

// Items returns a copy of the contents in insertion order, oldest first.
func (r *Ring[T]) Items() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slice(0, r.count)
}

// Tail returns a copy of the newest n elements in insertion order. When n
// exceeds the current length the whole contents are returned.
func (r *Ring[T]) Tail(n int) []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n > r.count {
		n = r.count
	}
	return r.slice(r.count-n, r.count)
}

// Last returns the most recently added element, or false when empty.
func (r *Ring[T]) Last() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	if r.count == 0 {
		return zero, false
	}
	return r.buffer[(r.write+r.size-1)%r.size], true
}

// slice copies FIFO positions [from, to). Callers must hold the lock.
func (r *Ring[T]) slice(from, to int) []T {
	result := make([]T, 0, to-from)
	for i := from; i < to; i++ {
		index := (r.write + r.size - r.count + i) % r.size
		result = append(result, r.buffer[index])
	}
	return result
}
