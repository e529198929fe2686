// Package schedulers provides the cooperative execution model: named
// single-threaded executors, a blocking pool, a clock abstraction and a
// controlled variant for deterministic tests. Every scheduled task is
// wrapped with an error handler; a failing task is reported and never
// retried.
package schedulers

import (
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "schedulers")

// Task is a unit of scheduled work.
type Task func()

// ErrorHandler receives panics escaping scheduled tasks.
type ErrorHandler func(name string, recovered interface{})

// Scheduler runs tasks, possibly after a delay.
type Scheduler interface {
	// Execute enqueues a task for execution.
	Execute(task Task)
	// ExecuteWithDelay enqueues a task to run after the given duration.
	ExecuteWithDelay(delay time.Duration, task Task)
}

// Schedulers bundles the executors and the clock used across the node.
type Schedulers interface {
	// CurrentTime returns wall-clock unix milliseconds, monotonic
	// non-decreasing.
	CurrentTime() int64
	// NewSingleThreadDaemon returns a named serial executor. Tasks posted
	// to it never run concurrently with each other.
	NewSingleThreadDaemon(name string) Scheduler
	// Blocking returns the executor for blocking jobs.
	Blocking() Scheduler
	// Events returns the executor fanning out published values.
	Events() Scheduler
}

// defaultErrorHandler logs and swallows the failure; supervision observes
// it through the log stream.
func defaultErrorHandler(name string, recovered interface{}) {
	log.WithFields(logrus.Fields{
		"scheduler": name,
		"error":     recovered,
	}).Error("Scheduled task failed")
}

// runGuarded executes a task under the error handler.
func runGuarded(name string, handler ErrorHandler, task Task) {
	defer func() {
		if r := recover(); r != nil {
			handler(name, r)
		}
	}()
	task()
}
