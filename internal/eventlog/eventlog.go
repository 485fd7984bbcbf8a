// Package eventlog provides append-only ordered logs of trace events.
package eventlog

import "iter"

// Log is an append-only sequence. Entries keep insertion order.
type Log[T any] struct {
	items []T
}

// New creates an empty log.
func New[T any]() *Log[T] {
	return &Log[T]{}
}

// Add appends an entry.
func (l *Log[T]) Add(v T) {
	l.items = append(l.items, v)
}

// Len returns the number of entries.
func (l *Log[T]) Len() int {
	return len(l.items)
}

// At returns entry i.
func (l *Log[T]) At(i int) T {
	return l.items[i]
}

// All yields (position, entry) pairs in insertion order.
func (l *Log[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, v := range l.items {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Items returns a copy of the entries.
func (l *Log[T]) Items() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}
