package schedulers

import "sync"

// LatestExecutor processes events with latest-wins semantics: if a new
// event arrives before the previous one starts, the previous one is
// discarded. Used for the one-shot "initialize from the latest state" job.
type LatestExecutor[T any] struct {
	scheduler Scheduler
	consumer  func(T)

	mu      sync.Mutex
	pending *T
	running bool
}

// NewLatestExecutor binds a consumer to a scheduler.
func NewLatestExecutor[T any](scheduler Scheduler, consumer func(T)) *LatestExecutor[T] {
	return &LatestExecutor[T]{scheduler: scheduler, consumer: consumer}
}

// NewEvent submits a value, superseding any not-yet-started one.
func (l *LatestExecutor[T]) NewEvent(value T) {
	l.mu.Lock()
	l.pending = &value
	start := !l.running
	if start {
		l.running = true
	}
	l.mu.Unlock()

	if start {
		l.scheduler.Execute(l.drain)
	}
}

func (l *LatestExecutor[T]) drain() {
	for {
		l.mu.Lock()
		value := l.pending
		l.pending = nil
		if value == nil {
			l.running = false
			l.mu.Unlock()
			return
		}
		l.mu.Unlock()
		l.consumer(*value)
	}
}
