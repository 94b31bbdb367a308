package lumen

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Dep names one explicit dependency of an effect: a key on any
// subscribe-compatible source.
type Dep struct {
	Source Source
	Key    string
}

// depID identifies a dependency for the subscription diff. Sources are
// compared by interface identity, matching how auto tracking records them.
type depID struct {
	src Source
	key string
}

// Effect re-runs a computation when its dependencies change.
//
// In auto mode (the default) the dependency set is rebuilt on every run:
// the run occupies the goroutine's tracking slot, each Container.Get during
// the run records a dependency, and afterwards the newly accessed set is
// diffed against the previous run's subscriptions. A key read only inside a
// branch that did not execute this run is unsubscribed until a run takes
// that branch again.
//
// In explicit mode (WithDeps) the subscriptions are fixed at construction
// and reads inside the body register nothing.
type Effect struct {
	id       uint64
	fn       func()
	explicit bool
	log      *slog.Logger

	mu       sync.Mutex
	deps     map[depID]Unsubscribe
	depOrder []depID

	// accessed collects this run's reads, in first-access order.
	accessed    []depID
	accessedSet map[depID]struct{}

	// running is the re-entrancy guard. It spans the body and the post-run
	// re-subscription, because Subscribe's mandatory synchronous initial
	// invocation would otherwise re-trigger the effect from inside its own
	// dependency diff.
	running  atomic.Bool
	disposed atomic.Bool
}

// EffectOption configures an effect at construction.
type EffectOption func(*Effect)

// WithDeps puts the effect in explicit mode with a fixed dependency list.
func WithDeps(deps ...Dep) EffectOption {
	return func(e *Effect) {
		e.explicit = true
		for _, d := range deps {
			e.depOrder = append(e.depOrder, depID{src: d.Source, key: d.Key})
		}
	}
}

// WithEffectLogger replaces slog.Default for this effect's diagnostics.
func WithEffectLogger(log *slog.Logger) EffectOption {
	return func(e *Effect) {
		if log != nil {
			e.log = log
		}
	}
}

// NewEffect creates an effect and runs it once, synchronously, before
// returning. A panic during that first run is recovered, logged, and
// returned as the error; the effect is still returned so the caller can
// dispose it. Panics during later, flush-triggered runs are recovered and
// logged only, so one broken effect cannot take down the notification chain
// for the others.
func NewEffect(fn func(), opts ...EffectOption) (*Effect, error) {
	if fn == nil {
		return nil, fmt.Errorf("lumen: effect requires a non-nil function")
	}

	e := &Effect{
		id:   nextID(),
		fn:   fn,
		log:  slog.Default(),
		deps: make(map[depID]Unsubscribe),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.explicit {
		if len(e.depOrder) == 0 {
			return nil, fmt.Errorf("lumen: explicit mode requires at least one dependency")
		}
		for _, id := range e.depOrder {
			if id.src == nil {
				return nil, fmt.Errorf("lumen: explicit dependency requires a non-nil source")
			}
			if id.key == "" {
				return nil, fmt.Errorf("lumen: explicit dependency requires a key")
			}
		}
		// Subscribe under the guard so the immediate initial invocations
		// do not trigger a run before the first one below.
		e.running.Store(true)
		for _, id := range e.depOrder {
			if _, ok := e.deps[id]; ok {
				continue
			}
			e.deps[id] = id.src.Subscribe(id.key, e.onChange)
		}
		e.running.Store(false)
	}

	return e, e.run()
}

// ID returns the effect's unique identifier.
func (e *Effect) ID() uint64 {
	return e.id
}

// recordAccess implements tracker. Called by Container.Get while this
// effect's run occupies the tracking slot.
func (e *Effect) recordAccess(c *Container, key string) {
	id := depID{src: c, key: key}
	if _, seen := e.accessedSet[id]; seen {
		return
	}
	e.accessedSet[id] = struct{}{}
	e.accessed = append(e.accessed, id)
}

// onChange is the subscription callback for every dependency. A trigger
// that arrives while a run is in progress is ignored rather than nested.
func (e *Effect) onChange(any) {
	if e.disposed.Load() || e.running.Load() {
		return
	}
	if err := e.run(); err != nil {
		// Already logged in run; asynchronous failures end here.
		_ = err
	}
}

// run executes the effect body once and, in auto mode, rebuilds the
// subscription set from what the body read.
func (e *Effect) run() (err error) {
	if e.disposed.Load() {
		return nil
	}
	if !e.running.CompareAndSwap(false, true) {
		return nil
	}
	defer e.running.Store(false)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lumen: effect %d panicked: %v", e.id, r)
			e.log.Error("effect panicked", "effect", e.id, "panic", r)
		}
	}()

	if e.explicit {
		e.fn()
		return nil
	}

	e.accessed = nil
	e.accessedSet = make(map[depID]struct{})

	old := setActiveTracker(e)
	func() {
		defer setActiveTracker(old)
		e.fn()
	}()

	e.resubscribe()
	return nil
}

// resubscribe diffs this run's accessed set against the held subscriptions:
// newly read keys are subscribed, keys not read this run are unsubscribed.
// Runs inside the re-entrancy guard.
func (e *Effect) resubscribe() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, id := range e.accessed {
		if _, held := e.deps[id]; held {
			continue
		}
		e.deps[id] = id.src.Subscribe(id.key, e.onChange)
		e.depOrder = append(e.depOrder, id)
	}

	kept := e.depOrder[:0]
	for _, id := range e.depOrder {
		if _, stillRead := e.accessedSet[id]; stillRead {
			kept = append(kept, id)
			continue
		}
		e.deps[id]()
		delete(e.deps, id)
	}
	e.depOrder = kept
}

// Dispose unsubscribes every held dependency and marks the effect inert, so
// an already-snapshotted notification becomes a no-op. Idempotent.
func (e *Effect) Dispose() {
	if e.disposed.Swap(true) {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, id := range e.depOrder {
		if unsub := e.deps[id]; unsub != nil {
			unsub()
		}
	}
	e.deps = make(map[depID]Unsubscribe)
	e.depOrder = nil
}

// Disposed reports whether Dispose has been called.
func (e *Effect) Disposed() bool {
	return e.disposed.Load()
}
