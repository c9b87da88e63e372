// Package debounce collapses bursts of calls into one trailing call.
package debounce

import (
	"sync"
	"time"
)

// Func delays fn until no Call has happened for the wait period. Only the
// argument of the latest Call is delivered.
type Func[T any] struct {
	wait time.Duration
	fn   func(T)

	mu    sync.Mutex
	timer *time.Timer
	seq   uint64
}

func New[T any](wait time.Duration, fn func(T)) *Func[T] {
	return &Func[T]{wait: wait, fn: fn}
}

// Call resets the pending timer and remembers arg.
func (d *Func[T]) Call(arg T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = time.AfterFunc(d.wait, func() {
		d.mu.Lock()
		// A Call that raced with this timer firing has superseded it.
		if seq != d.seq {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		d.fn(arg)
	})
}

// Stop cancels a pending invocation. It reports whether one was pending.
func (d *Func[T]) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil {
		return false
	}
	d.seq++
	d.timer.Stop()
	d.timer = nil
	return true
}

// Pending reports whether an invocation is scheduled.
func (d *Func[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
