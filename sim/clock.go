package sim

import (
	"container/heap"
	"fmt"
	"time"
)

// Clock is the only source of time-driven events in the kitchen.
// Callbacks run one at a time and never concurrently with commands.
type Clock interface {
	// Now returns the time elapsed since the clock started.
	Now() time.Duration
	// Schedule arranges for fn to run once after delay.
	Schedule(delay time.Duration, fn func()) *Timer
	// Every arranges for fn to run every interval until cancelled.
	Every(interval time.Duration, fn func()) *Timer
	// Cancel stops t. Cancelling a fired or cancelled timer is a no-op.
	Cancel(t *Timer)
}

// Timer is a handle to a scheduled callback.
type Timer struct {
	deadline time.Duration
	interval time.Duration // > 0 for periodic timers
	seq      uint64
	fn       func()
	done     bool
	index    int // position in the virtual heap, -1 when not queued

	stop func() // real clock only
}

// Deadline returns the clock time at which the timer fires next.
func (t *Timer) Deadline() time.Duration { return t.deadline }

// Active reports whether the timer can still fire.
func (t *Timer) Active() bool { return t != nil && !t.done }

// timerHeap orders timers by deadline, then by schedule order.
// Same shape as the container/heap canonical example.
type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline != h[j].deadline {
		return h[i].deadline < h[j].deadline
	}
	return h[i].seq < h[j].seq
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[0 : n-1]
	return t
}

// VirtualClock is a manually advanced clock for scripted runs and tests.
// Time only moves when Advance or RunUntilIdle is called.
type VirtualClock struct {
	now    time.Duration
	seq    uint64
	timers timerHeap
}

// NewVirtualClock creates a clock at time zero with nothing scheduled.
func NewVirtualClock() *VirtualClock {
	return &VirtualClock{timers: make(timerHeap, 0)}
}

func (c *VirtualClock) Now() time.Duration { return c.now }

func (c *VirtualClock) Schedule(delay time.Duration, fn func()) *Timer {
	return c.push(delay, 0, fn)
}

func (c *VirtualClock) Every(interval time.Duration, fn func()) *Timer {
	if interval <= 0 {
		panic(fmt.Sprintf("Every: interval must be positive, got %s", interval))
	}
	return c.push(interval, interval, fn)
}

func (c *VirtualClock) push(delay, interval time.Duration, fn func()) *Timer {
	if fn == nil {
		panic("Schedule: fn must not be nil")
	}
	if delay < 0 {
		delay = 0
	}
	c.seq++
	t := &Timer{deadline: c.now + delay, interval: interval, seq: c.seq, fn: fn, index: -1}
	heap.Push(&c.timers, t)
	return t
}

func (c *VirtualClock) Cancel(t *Timer) {
	if t == nil || t.done {
		return
	}
	t.done = true
	if t.index >= 0 {
		heap.Remove(&c.timers, t.index)
	}
}

// Pending returns the number of timers still waiting to fire.
func (c *VirtualClock) Pending() int { return len(c.timers) }

// NextDeadline returns the deadline of the earliest pending timer.
func (c *VirtualClock) NextDeadline() (time.Duration, bool) {
	if len(c.timers) == 0 {
		return 0, false
	}
	return c.timers[0].deadline, true
}

// Advance moves time forward by d, firing every timer that falls due on the
// way, including timers scheduled by earlier firings. Returns the number fired.
func (c *VirtualClock) Advance(d time.Duration) int {
	if d < 0 {
		d = 0
	}
	return c.AdvanceTo(c.now + d)
}

// AdvanceTo moves time forward to target. Moving backwards is ignored.
func (c *VirtualClock) AdvanceTo(target time.Duration) int {
	fired := 0
	for len(c.timers) > 0 && c.timers[0].deadline <= target {
		fired++
		c.fireNext()
	}
	if target > c.now {
		c.now = target
	}
	return fired
}

// RunUntilIdle fires timers in order until none remain or limit firings have
// happened. Periodic timers keep a clock busy forever, hence the limit.
func (c *VirtualClock) RunUntilIdle(limit int) int {
	fired := 0
	for len(c.timers) > 0 && fired < limit {
		fired++
		c.fireNext()
	}
	return fired
}

func (c *VirtualClock) fireNext() {
	t := heap.Pop(&c.timers).(*Timer)
	if t.deadline > c.now {
		c.now = t.deadline
	}
	if t.interval > 0 {
		c.seq++
		t.deadline += t.interval
		t.seq = c.seq
		heap.Push(&c.timers, t)
	} else {
		t.done = true
	}
	t.fn()
}
