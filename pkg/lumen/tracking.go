package lumen

import (
	"runtime"
	"sync"
)

// tracker is anything collecting dependencies from container reads.
// At most one tracker occupies a goroutine's slot at a time; auto-tracking
// effect runs are never nested.
type tracker interface {
	recordAccess(c *Container, key string)
}

// trackerSlots stores the active tracker per goroutine. The slot is an
// explicit task-local value rather than a bare global so concurrent
// goroutines cannot observe each other's tracking state.
var trackerSlots sync.Map

// getGoroutineID parses the current goroutine's id out of the runtime stack
// header, which always opens with "goroutine <id> ". Only uniqueness per
// live goroutine is relied on; the value never leaves this package.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	const skip = len("goroutine ")
	var id uint64
	for i := skip; i < n && buf[i] != ' '; i++ {
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// activeTracker returns the tracker occupying the current goroutine's slot,
// or nil when no tracking is active.
func activeTracker() tracker {
	if t, ok := trackerSlots.Load(getGoroutineID()); ok {
		return t.(tracker)
	}
	return nil
}

// setActiveTracker occupies the slot and returns the previous occupant so
// it can be restored.
func setActiveTracker(t tracker) tracker {
	gid := getGoroutineID()

	var old tracker
	if prev, ok := trackerSlots.Load(gid); ok {
		old = prev.(tracker)
	}

	if t == nil {
		trackerSlots.Delete(gid)
	} else {
		trackerSlots.Store(gid, t)
	}
	return old
}

// Untracked runs fn with the tracking slot cleared, so container reads
// inside it never register as dependencies of the surrounding effect.
//
// For a single read, Container.Peek is the clearer choice.
func Untracked(fn func()) {
	old := setActiveTracker(nil)
	defer setActiveTracker(old)
	fn()
}
