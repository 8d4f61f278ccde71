package foundation

import (
	"runtime"
	"sync/atomic"
	"time"
)

// Cell is a write-once, read-many container shared between one producer and
// any number of concurrent consumers that may begin running before the
// producer has finished.
//
// Set must be called exactly once; a second call panics. Get never blocks.
// Wait cooperatively spins (yield to the scheduler, then a short sleep)
// until the value is set instead of parking on a lock, so a fixed-size
// worker pool cannot deadlock with every worker stuck waiting.
//
// The producer graph must stay acyclic by construction: a goroutine must
// never Wait on a cell that it is (transitively) responsible for setting.
type Cell[T any] struct {
	value atomic.Pointer[T]
}

// Set stores the value, making it visible to all readers.
//
// Calling Set a second time is a programming error and panics.
func (c *Cell[T]) Set(value T) {
	if !c.value.CompareAndSwap(nil, &value) {
		panic("foundation: Cell.Set called twice")
	}
}

// Get returns the value and whether it has been set yet.
func (c *Cell[T]) Get() (T, bool) {
	if p := c.value.Load(); p != nil {
		return *p, true
	}
	var zero T
	return zero, false
}

// Wait returns the value, spinning cooperatively until the producer has
// set it.
func (c *Cell[T]) Wait() T {
	for {
		if p := c.value.Load(); p != nil {
			return *p
		}
		runtime.Gosched()
		if p := c.value.Load(); p != nil {
			return *p
		}
		time.Sleep(10 * time.Millisecond)
	}
}
