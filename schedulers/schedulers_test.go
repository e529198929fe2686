package schedulers

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestControlledTimeFiresInDueOrder(t *testing.T) {
	clock := NewControlledSchedulers(1000)
	executor := clock.NewSingleThreadDaemon("test")

	var order []int
	executor.ExecuteWithDelay(300*time.Millisecond, func() { order = append(order, 3) })
	executor.ExecuteWithDelay(100*time.Millisecond, func() { order = append(order, 1) })
	executor.ExecuteWithDelay(200*time.Millisecond, func() { order = append(order, 2) })

	require.Empty(t, order)
	clock.AddTime(150 * time.Millisecond)
	require.Equal(t, []int{1}, order)
	clock.AddTime(200 * time.Millisecond)
	require.Equal(t, []int{1, 2, 3}, order)
	require.Equal(t, int64(1350), clock.CurrentTime())
}

func TestControlledTimeEqualDueKeepsPostingOrder(t *testing.T) {
	clock := NewControlledSchedulers(0)
	executor := clock.NewSingleThreadDaemon("test")

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		executor.ExecuteWithDelay(time.Second, func() { order = append(order, i) })
	}
	clock.AddTime(time.Second)
	require.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestControlledTaskMayScheduleFurtherTasks(t *testing.T) {
	clock := NewControlledSchedulers(0)
	executor := clock.NewSingleThreadDaemon("test")

	var fired []string
	executor.ExecuteWithDelay(time.Second, func() {
		fired = append(fired, "first")
		executor.ExecuteWithDelay(time.Second, func() {
			fired = append(fired, "second")
		})
	})

	clock.AddTime(3 * time.Second)
	require.Equal(t, []string{"first", "second"}, fired)
}

func TestControlledPanicIsContained(t *testing.T) {
	clock := NewControlledSchedulers(0)
	executor := clock.NewSingleThreadDaemon("test")

	ran := false
	executor.ExecuteWithDelay(time.Second, func() { panic("boom") })
	executor.ExecuteWithDelay(2*time.Second, func() { ran = true })

	require.NotPanics(t, func() { clock.AddTime(3 * time.Second) })
	require.True(t, ran, "a failed task must not stop later tasks")
}

func TestRealSerialExecutorOrders(t *testing.T) {
	scheds := NewRealSchedulers(nil)
	executor := scheds.NewSingleThreadDaemon("serial")

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	wg.Add(10)
	for i := 0; i < 10; i++ {
		i := i
		executor.Execute(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
		})
	}
	wg.Wait()
	require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

// deferredScheduler queues tasks until Run is called, modelling a busy
// blocking executor.
type deferredScheduler struct {
	tasks []Task
}

func (d *deferredScheduler) Execute(task Task) {
	d.tasks = append(d.tasks, task)
}

func (d *deferredScheduler) ExecuteWithDelay(_ time.Duration, task Task) {
	d.tasks = append(d.tasks, task)
}

func (d *deferredScheduler) Run() {
	for len(d.tasks) > 0 {
		task := d.tasks[0]
		d.tasks = d.tasks[1:]
		task()
	}
}

func TestLatestExecutorDiscardsIntermediate(t *testing.T) {
	scheduler := &deferredScheduler{}
	var seen []int
	executor := NewLatestExecutor[int](scheduler, func(v int) { seen = append(seen, v) })

	// Three events arrive before the executor gets a turn: only the latest
	// survives.
	executor.NewEvent(1)
	executor.NewEvent(2)
	executor.NewEvent(3)
	scheduler.Run()
	require.Equal(t, []int{3}, seen)

	// Once idle, a fresh event processes normally.
	executor.NewEvent(4)
	scheduler.Run()
	require.Equal(t, []int{3, 4}, seen)
}
