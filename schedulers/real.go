package schedulers

import (
	"sync"
	"time"
)

// realSchedulers runs on the wall clock, one goroutine per serial executor.
type realSchedulers struct {
	handler ErrorHandler

	mu      sync.Mutex
	daemons map[string]*serialExecutor
}

// NewRealSchedulers returns wall-clock schedulers.
func NewRealSchedulers(handler ErrorHandler) Schedulers {
	if handler == nil {
		handler = defaultErrorHandler
	}
	return &realSchedulers{
		handler: handler,
		daemons: make(map[string]*serialExecutor),
	}
}

func (s *realSchedulers) CurrentTime() int64 {
	return time.Now().UnixMilli()
}

func (s *realSchedulers) NewSingleThreadDaemon(name string) Scheduler {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.daemons[name]; ok {
		return d
	}
	d := newSerialExecutor(name, s.handler)
	s.daemons[name] = d
	return d
}

func (s *realSchedulers) Blocking() Scheduler {
	return s.NewSingleThreadDaemon("blocking")
}

func (s *realSchedulers) Events() Scheduler {
	return s.NewSingleThreadDaemon("events")
}

// serialExecutor runs queued tasks one at a time in posting order. Delayed
// tasks re-enter the queue when their timer fires.
type serialExecutor struct {
	name    string
	handler ErrorHandler
	tasks   chan Task
}

func newSerialExecutor(name string, handler ErrorHandler) *serialExecutor {
	e := &serialExecutor{
		name:    name,
		handler: handler,
		tasks:   make(chan Task, 1024),
	}
	go e.loop()
	return e
}

func (e *serialExecutor) loop() {
	for task := range e.tasks {
		runGuarded(e.name, e.handler, task)
	}
}

func (e *serialExecutor) Execute(task Task) {
	e.tasks <- task
}

func (e *serialExecutor) ExecuteWithDelay(delay time.Duration, task Task) {
	time.AfterFunc(delay, func() {
		e.tasks <- task
	})
}
