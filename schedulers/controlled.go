package schedulers

import (
	"sort"
	"sync"
	"time"
)

// ControlledSchedulers runs on a manually advanced clock: tasks execute
// synchronously, delayed tasks fire in due order as time moves forward.
// Used by tests and the emulator for deterministic runs.
type ControlledSchedulers struct {
	mu        sync.Mutex
	handler   ErrorHandler
	nowMillis int64
	pending   []delayedTask
	seq       uint64
}

type delayedTask struct {
	due  int64
	seq  uint64
	name string
	task Task
}

// NewControlledSchedulers returns a controlled clock starting at
// startMillis.
func NewControlledSchedulers(startMillis int64) *ControlledSchedulers {
	return &ControlledSchedulers{
		handler:   defaultErrorHandler,
		nowMillis: startMillis,
	}
}

// CurrentTime implements Schedulers.
func (c *ControlledSchedulers) CurrentTime() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nowMillis
}

// SetCurrentTime advances the clock, firing every task due on the way in
// due order. Time never moves backwards.
func (c *ControlledSchedulers) SetCurrentTime(millis int64) {
	for {
		c.mu.Lock()
		if millis < c.nowMillis {
			c.mu.Unlock()
			return
		}
		sort.SliceStable(c.pending, func(a, b int) bool {
			if c.pending[a].due != c.pending[b].due {
				return c.pending[a].due < c.pending[b].due
			}
			return c.pending[a].seq < c.pending[b].seq
		})
		var next *delayedTask
		if len(c.pending) > 0 && c.pending[0].due <= millis {
			t := c.pending[0]
			c.pending = c.pending[1:]
			if t.due > c.nowMillis {
				c.nowMillis = t.due
			}
			next = &t
		} else {
			c.nowMillis = millis
		}
		c.mu.Unlock()

		if next == nil {
			return
		}
		runGuarded(next.name, c.handler, next.task)
	}
}

// AddTime advances the clock by a duration.
func (c *ControlledSchedulers) AddTime(d time.Duration) {
	c.SetCurrentTime(c.CurrentTime() + d.Milliseconds())
}

// NewSingleThreadDaemon implements Schedulers; controlled executors run
// tasks synchronously in the caller.
func (c *ControlledSchedulers) NewSingleThreadDaemon(name string) Scheduler {
	return &controlledExecutor{name: name, parent: c}
}

// Blocking implements Schedulers.
func (c *ControlledSchedulers) Blocking() Scheduler {
	return c.NewSingleThreadDaemon("blocking")
}

// Events implements Schedulers.
func (c *ControlledSchedulers) Events() Scheduler {
	return c.NewSingleThreadDaemon("events")
}

type controlledExecutor struct {
	name   string
	parent *ControlledSchedulers
}

func (e *controlledExecutor) Execute(task Task) {
	runGuarded(e.name, e.parent.handler, task)
}

func (e *controlledExecutor) ExecuteWithDelay(delay time.Duration, task Task) {
	c := e.parent
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.pending = append(c.pending, delayedTask{
		due:  c.nowMillis + delay.Milliseconds(),
		seq:  c.seq,
		name: e.name,
		task: task,
	})
}
