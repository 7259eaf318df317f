package idset

import (
	"cmp"
	"sync"
)

const defaultBuffer = 4096

// Sink accepts identifiers from producers.
type Sink[T cmp.Ordered] interface {
	Push(id T)
}

// Aggregator drains identifiers pushed by any number of producers on a
// background goroutine and yields the deduplicated set once closed.
//
// Push must not be called after Close.
type Aggregator[T cmp.Ordered] struct {
	in        chan T
	done      chan struct{}
	set       Set[T]
	closeOnce sync.Once
}

// NewAggregator starts the background collector. buffer <= 0 selects a
// default queue size.
func NewAggregator[T cmp.Ordered](buffer int) *Aggregator[T] {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	a := &Aggregator[T]{
		in:   make(chan T, buffer),
		done: make(chan struct{}),
		set:  make(Set[T]),
	}
	go a.collect()
	return a
}

func (a *Aggregator[T]) collect() {
	defer close(a.done)
	for id := range a.in {
		a.set.Add(id)
	}
}

// Push queues id. Safe for concurrent use.
func (a *Aggregator[T]) Push(id T) { a.in <- id }

// Close marks the producer side as finished. Calling it more than once is
// a no-op.
func (a *Aggregator[T]) Close() {
	a.closeOnce.Do(func() { close(a.in) })
}

// Wait blocks until Close has been called and every queued id has been
// collected, then returns the set. The returned set belongs to the caller;
// later calls return the same set.
func (a *Aggregator[T]) Wait() Set[T] {
	<-a.done
	return a.set
}
