package lumen

import (
	"context"
	"log/slog"
	"sync"
)

// Scheduler defers a task to a later point of the current logical thread of
// execution. Containers use it to schedule their flush; at most one flush
// task is in flight per container at a time.
type Scheduler interface {
	Schedule(task func())
}

// Loop is the default Scheduler: a cooperative microtask queue.
//
// Tick runs exactly the tasks that were queued before it started. A task
// scheduled during a tick lands in the next tick, so an effect that writes
// a key it also reads advances one step per tick instead of spinning inside
// a single call stack.
type Loop struct {
	mu    sync.Mutex
	tasks []func()

	// wake signals Run that tasks are available. Buffered so Schedule
	// never blocks.
	wake chan struct{}

	log *slog.Logger
}

// NewLoop creates an empty loop.
func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		log:  slog.Default(),
	}
}

// Schedule queues a task for the next tick. Safe to call from any
// goroutine, including from a task running in the current tick.
func (l *Loop) Schedule(task func()) {
	if task == nil {
		return
	}

	l.mu.Lock()
	l.tasks = append(l.tasks, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Tick runs every task queued before the call and returns how many ran.
// Tasks queued while ticking are left for the next tick.
func (l *Loop) Tick() int {
	l.mu.Lock()
	tasks := l.tasks
	l.tasks = nil
	l.mu.Unlock()

	for _, task := range tasks {
		l.runTask(task)
	}
	return len(tasks)
}

// Drain ticks until the queue is empty or maxTicks ticks have run.
// maxTicks <= 0 means no limit. Returns the total number of tasks run.
func (l *Loop) Drain(maxTicks int) int {
	total := 0
	for ticks := 0; maxTicks <= 0 || ticks < maxTicks; ticks++ {
		n := l.Tick()
		if n == 0 {
			break
		}
		total += n
	}
	return total
}

// Pending returns the number of tasks waiting for the next tick.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Run processes ticks until the context is done. This is the live-process
// counterpart of calling Tick by hand in tests.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		}

		for l.Tick() > 0 {
			if ctx.Err() != nil {
				return
			}
		}
	}
}

// runTask isolates a panicking task so one bad flush cannot kill the loop.
func (l *Loop) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("scheduled task panicked", "panic", r)
		}
	}()
	task()
}

var (
	mainLoop     *Loop
	mainLoopOnce sync.Once
)

// Main returns the shared process-wide loop. Containers created without
// WithScheduler flush on it, so independent containers still interleave on
// one logical thread.
func Main() *Loop {
	mainLoopOnce.Do(func() {
		mainLoop = NewLoop()
	})
	return mainLoop
}
