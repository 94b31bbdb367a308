// Package devtools provides live inspection of lumen containers: a
// recorder plugin that observes changes through the plugin chain (the only
// inspection surface the core exposes) and an HTTP server that serves
// snapshots and streams change events.
package devtools

import (
	"sync"
	"time"

	"github.com/lumen-ui/lumen/pkg/lumen"
)

// Op identifies the container operation an Event records.
const (
	OpInit      = "init"
	OpSet       = "set"
	OpNotify    = "notify"
	OpSubscribe = "subscribe"
)

// Event is one recorded container operation.
type Event struct {
	Seq       uint64    `json:"seq" msgpack:"seq"`
	Time      time.Time `json:"time" msgpack:"time"`
	Container string    `json:"container" msgpack:"container"`
	Op        string    `json:"op" msgpack:"op"`
	Key       string    `json:"key,omitempty" msgpack:"key,omitempty"`
	Value     any       `json:"value,omitempty" msgpack:"value,omitempty"`
}

// DefaultRingSize bounds the recorder's event history.
const DefaultRingSize = 256

// Recorder keeps a bounded ring of container events and fans them out to
// stream subscribers. One recorder can observe any number of containers;
// attach it with Plugin():
//
//	rec := devtools.NewRecorder()
//	c := lumen.New(state, lumen.WithName("app"), lumen.WithPlugins(rec.Plugin()))
type Recorder struct {
	mu         sync.Mutex
	ring       []Event
	ringSize   int
	seq        uint64
	containers map[string]*lumen.Container
	streams    map[uint64]chan Event
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithRingSize bounds the event history (default DefaultRingSize).
func WithRingSize(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.ringSize = n
		}
	}
}

// NewRecorder creates an empty recorder.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{
		ringSize:   DefaultRingSize,
		containers: make(map[string]*lumen.Container),
		streams:    make(map[uint64]chan Event),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Plugin returns the recorder's container plugin. Each observed container
// needs its own copy (OnInit captures the container), so call Plugin once
// per container.
func (r *Recorder) Plugin() lumen.Plugin {
	var name string

	return lumen.Plugin{
		Name: "devtools",
		OnInit: func(c *lumen.Container) {
			name = c.Name()
			r.mu.Lock()
			r.containers[name] = c
			r.mu.Unlock()
			r.record(Event{Container: name, Op: OpInit})
		},
		OnSet: func(key string, next, prev any) lumen.HookResult {
			r.record(Event{Container: name, Op: OpSet, Key: key, Value: next})
			return lumen.Unchanged()
		},
		OnSubscribe: func(key string) {
			r.record(Event{Container: name, Op: OpSubscribe, Key: key})
		},
		OnNotify: func(key string, value any) {
			r.record(Event{Container: name, Op: OpNotify, Key: key, Value: value})
		},
	}
}

// record stamps, stores and fans out one event. Slow stream consumers drop
// events rather than stall the container's flush.
func (r *Recorder) record(ev Event) {
	r.mu.Lock()
	r.seq++
	ev.Seq = r.seq
	ev.Time = time.Now()

	r.ring = append(r.ring, ev)
	if len(r.ring) > r.ringSize {
		r.ring = append(r.ring[:0:0], r.ring[len(r.ring)-r.ringSize:]...)
	}

	for _, ch := range r.streams {
		select {
		case ch <- ev:
		default:
		}
	}
	r.mu.Unlock()
}

// Events returns a copy of the recorded ring, oldest first. An empty name
// returns everything; otherwise only that container's events.
func (r *Recorder) Events(container string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Event, 0, len(r.ring))
	for _, ev := range r.ring {
		if container == "" || ev.Container == container {
			out = append(out, ev)
		}
	}
	return out
}

// Containers returns the names of the observed containers.
func (r *Recorder) Containers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.containers))
	for name := range r.containers {
		out = append(out, name)
	}
	return out
}

// Snapshot returns the current record of one observed container.
func (r *Recorder) Snapshot(container string) (map[string]any, bool) {
	r.mu.Lock()
	c, ok := r.containers[container]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	return c.Snapshot(), true
}

// stream registers a fan-out channel for live events.
func (r *Recorder) stream() (uint64, <-chan Event) {
	ch := make(chan Event, 64)
	r.mu.Lock()
	r.seq++ // stream ids share the sequence space; uniqueness is all that matters
	id := r.seq
	r.streams[id] = ch
	r.mu.Unlock()
	return id, ch
}

// unstream removes a fan-out channel.
func (r *Recorder) unstream(id uint64) {
	r.mu.Lock()
	delete(r.streams, id)
	r.mu.Unlock()
}
