package lumen

// Unsubscribe removes a subscription. Calling it more than once is a no-op,
// and takes effect for future flushes only: a flush that has already
// snapshotted the listener still delivers to it.
type Unsubscribe func()

// Source is the core's only contract with collaborators. Anything exposing
// a Subscribe method that invokes the callback synchronously on
// registration with the current value, invokes it again after each batched
// change, and returns an unsubscribe function can feed an Effect (explicit
// deps) or a keyed reconciler without either knowing the concrete type.
//
// Container and Computed both implement Source.
type Source interface {
	Subscribe(key string, fn func(value any)) Unsubscribe
}
