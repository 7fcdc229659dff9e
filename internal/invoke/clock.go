package invoke

import "sync/atomic"

// clock hands out strictly increasing sequence numbers, one per completed
// AsyncInvokable child, ticked in the same critical section that appends
// the child to its parent's journal (see Builder.registerChildLocked) so
// the tick order and the append order can never diverge under goroutine
// scheduling pressure: the same cooperative schedule always journals the
// same child order on replay regardless of actual goroutine scheduling.
type clock struct {
	seq atomic.Int64
}

func newClock() *clock {
	return &clock{}
}

// next returns the next sequence number. Calls are linearizable: each
// call returns a unique, increasing value.
func (c *clock) next() int64 {
	return c.seq.Add(1)
}
