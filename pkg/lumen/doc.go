// Package lumen provides the reactive core for the Lumen state layer.
//
// The central type is Container, a reactive wrapper around a plain
// key/value record. Reads and writes pass through an ordered plugin chain,
// and change notifications are batched: a Set returns immediately, while
// subscribers observe the new value on the next tick of the container's
// scheduler loop.
//
// # Core Types
//
// Container wraps a record and exposes Get/Set/Subscribe:
//
//	c := lumen.New(map[string]any{"count": 0})
//	c.Set("count", 1)
//	unsub := c.Subscribe("count", func(v any) { fmt.Println(v) })
//
// Effect re-runs a computation when the container keys it read change:
//
//	eff, _ := lumen.NewEffect(func() {
//	    fmt.Println("count is", c.Get("count"))
//	})
//	defer eff.Dispose()
//
// Computed derives a memoized value that is itself subscribable:
//
//	double, _ := lumen.NewComputed(func() any {
//	    return c.Get("count").(int) * 2
//	})
//
// # Batching
//
// Writes are coalesced per key and per tick. Writing the same key three
// times synchronously yields exactly one notification carrying the last
// value. Writing a key to its current value yields none.
//
// # Scheduling
//
// All visible effects of a write are deferred to the next tick of the
// container's Loop. Containers share the process-wide Main() loop unless
// constructed with WithScheduler. Tests typically pass their own Loop and
// call Tick to advance time deterministically.
//
// # Thread Safety
//
// Containers are safe to write from any goroutine, but flushes, effect runs
// and plugin hooks all execute on the scheduler loop's goroutine. The
// dependency-tracking slot is per goroutine, so spawning a goroutine inside
// an effect body does not track reads made there.
package lumen
