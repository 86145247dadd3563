package sim

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrLoopStopped is returned by Loop.Do once the loop has exited.
var ErrLoopStopped = errors.New("kitchen loop stopped")

// Loop serializes everything that touches a Kitchen in real-time mode:
// HTTP commands and wall-clock timer firings run one at a time on a single
// goroutine, so the kitchen itself needs no locking.
type Loop struct {
	tasks chan func()
	done  chan struct{}
}

// NewLoop creates a loop with room for buffer pending tasks.
func NewLoop(buffer int) *Loop {
	return &Loop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Run executes tasks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			logrus.Infof("kitchen loop stopping: %v", ctx.Err())
			return
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Post queues fn without waiting for it. Dropped silently once the loop exits.
func (l *Loop) Post(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.done:
	}
}

// Do runs fn on the loop and waits for it to finish. ctx bounds only the
// hand-off: once the loop has accepted fn, Do waits until fn has run or the
// loop has stopped, so a nil error always means fn ran and a non-nil one
// means it did not.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}
	select {
	case l.tasks <- task:
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		// the loop may have run fn just before stopping
		select {
		case <-finished:
			return nil
		default:
			return ErrLoopStopped
		}
	}
}

// RealClock fires timers on the wall clock. Firings are posted to a Loop and
// therefore run serialized with commands submitted through the same Loop.
// Schedule, Every and Cancel must themselves be called from the loop.
type RealClock struct {
	loop  *Loop
	start time.Time
	seq   uint64
}

// NewRealClock starts a wall clock whose callbacks run on loop.
func NewRealClock(loop *Loop) *RealClock {
	return &RealClock{loop: loop, start: time.Now()}
}

func (c *RealClock) Now() time.Duration { return time.Since(c.start) }

func (c *RealClock) Schedule(delay time.Duration, fn func()) *Timer {
	return c.arm(delay, 0, fn)
}

func (c *RealClock) Every(interval time.Duration, fn func()) *Timer {
	if interval <= 0 {
		panic("Every: interval must be positive")
	}
	return c.arm(interval, interval, fn)
}

func (c *RealClock) arm(delay, interval time.Duration, fn func()) *Timer {
	if fn == nil {
		panic("Schedule: fn must not be nil")
	}
	if delay < 0 {
		delay = 0
	}
	c.seq++
	t := &Timer{deadline: c.Now() + delay, interval: interval, seq: c.seq, fn: fn, index: -1}
	c.armAfter(t, delay)
	return t
}

func (c *RealClock) armAfter(t *Timer, delay time.Duration) {
	at := time.AfterFunc(delay, func() {
		c.loop.Post(func() {
			if t.done {
				return
			}
			if t.interval > 0 {
				t.deadline += t.interval
				c.armAfter(t, t.deadline-c.Now())
			} else {
				t.done = true
			}
			t.fn()
		})
	})
	t.stop = func() { at.Stop() }
}

func (c *RealClock) Cancel(t *Timer) {
	if t == nil || t.done {
		return
	}
	t.done = true
	if t.stop != nil {
		t.stop()
	}
}
