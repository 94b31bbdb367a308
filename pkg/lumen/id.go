package lumen

import "sync/atomic"

// idCounter issues process-wide ids for subscriptions and effects. Ids only
// need to be unique; they carry no other meaning.
var idCounter atomic.Uint64

func nextID() uint64 {
	return idCounter.Add(1)
}
