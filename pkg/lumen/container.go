package lumen

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"
)

// ErrNotRecord is returned by Wrap for values that are not a plain
// key/value record.
var ErrNotRecord = fmt.Errorf("lumen: value is not a plain key/value record")

// subscription is one registered listener for one key.
type subscription struct {
	id     uint64
	fn     func(any)
	active bool
}

// Container is the reactive wrapper around a plain key/value record.
//
// Reads and writes thread through the plugin chain. Writes that survive the
// chain with a new value mark the key pending and schedule a flush on the
// container's scheduler; subscribers, plugin OnNotify hooks and dependent
// effects observe the change only after that tick boundary.
type Container struct {
	name    string
	plugins []Plugin
	sched   Scheduler
	log     *slog.Logger

	mu     sync.Mutex
	values map[string]any
	keys   []string // record key insertion order

	// subs holds the per-key listener lists in subscription order.
	subs map[string][]*subscription

	// pending is the ordered set of keys changed since the last flush.
	// A key appears at most once per tick however many times it is written.
	pending    []string
	pendingSet map[string]struct{}

	// flushScheduled makes flush scheduling idempotent within a tick.
	flushScheduled bool
}

// Option configures a container at construction.
type Option func(*Container)

// WithPlugins appends plugins to the container's chain, in order.
func WithPlugins(plugins ...Plugin) Option {
	return func(c *Container) {
		c.plugins = append(c.plugins, plugins...)
	}
}

// WithScheduler replaces the default Main() loop.
func WithScheduler(s Scheduler) Option {
	return func(c *Container) {
		if s != nil {
			c.sched = s
		}
	}
}

// WithLogger replaces slog.Default for this container's diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(c *Container) {
		if log != nil {
			c.log = log
		}
	}
}

// WithName labels the container in logs, metrics and devtools.
func WithName(name string) Option {
	return func(c *Container) {
		c.name = name
	}
}

// New creates a container over a copy of the given record. A nil map is an
// empty record. Each plugin's OnInit runs once, synchronously; a panicking
// OnInit is recovered and logged and does not block the other plugins or
// construction.
func New(initial map[string]any, opts ...Option) *Container {
	c := &Container{
		values:     make(map[string]any, len(initial)),
		subs:       make(map[string][]*subscription),
		pendingSet: make(map[string]struct{}),
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sched == nil {
		c.sched = Main()
	}

	for k, v := range initial {
		c.values[k] = v
		c.keys = append(c.keys, k)
	}
	// Map iteration order would otherwise leak into Keys() and devtools
	// output, so the initial keys are sorted; keys written later append in
	// first-write order.
	sort.Strings(c.keys)

	for _, p := range c.plugins {
		if p.OnInit != nil {
			c.runHook(p.Name, "OnInit", func() { p.OnInit(c) })
		}
	}
	return c
}

// Wrap builds a container from any plain record shape: a map with string
// keys, a struct, or a pointer to one. Anything else fails fast with
// ErrNotRecord.
func Wrap(record any, opts ...Option) (*Container, error) {
	if record == nil {
		return nil, fmt.Errorf("%w: nil", ErrNotRecord)
	}

	if m, ok := record.(map[string]any); ok {
		return New(m, opts...), nil
	}

	v := reflect.ValueOf(record)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, fmt.Errorf("%w: nil pointer", ErrNotRecord)
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: map key type %s", ErrNotRecord, v.Type().Key())
		}
		initial := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			initial[iter.Key().String()] = iter.Value().Interface()
		}
		return New(initial, opts...), nil

	case reflect.Struct:
		t := v.Type()
		initial := make(map[string]any, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			initial[f.Name] = v.Field(i).Interface()
		}
		return New(initial, opts...), nil

	default:
		return nil, fmt.Errorf("%w: %T", ErrNotRecord, record)
	}
}

// Name returns the container's label.
func (c *Container) Name() string {
	return c.name
}

// Get reads a key through the plugin chain. While an auto-tracking effect
// run is active on this goroutine, the read registers as a dependency.
func (c *Container) Get(key string) any {
	if t := activeTracker(); t != nil {
		t.recordAccess(c, key)
	}
	return c.chainGet(key)
}

// Peek reads a key through the plugin chain without registering a
// dependency.
func (c *Container) Peek(key string) any {
	return c.chainGet(key)
}

// chainGet loads the stored value and threads it through every OnGet hook.
func (c *Container) chainGet(key string) any {
	c.mu.Lock()
	value := c.values[key]
	c.mu.Unlock()

	for _, p := range c.plugins {
		value = c.applyGet(p, key, value)
	}
	return value
}

// Set writes a key. The incoming value threads through every OnSet hook;
// if the chained result differs from the stored value it is stored, the key
// is marked pending, and exactly one flush is scheduled for this container
// this tick. If the chained result equals the stored value, including a
// plugin returning Override(prev) to veto the write, nothing happens.
func (c *Container) Set(key string, value any) {
	c.mu.Lock()
	prev := c.values[key]
	c.mu.Unlock()

	next := value
	for _, p := range c.plugins {
		next = c.applySet(p, key, next, prev)
	}

	c.mu.Lock()
	stored, known := c.values[key]
	if valueEquals(stored, next) {
		c.mu.Unlock()
		return
	}
	c.values[key] = next
	if !known {
		c.keys = append(c.keys, key)
	}
	if _, dup := c.pendingSet[key]; !dup {
		c.pendingSet[key] = struct{}{}
		c.pending = append(c.pending, key)
	}
	schedule := !c.flushScheduled
	c.flushScheduled = true
	sched := c.sched
	c.mu.Unlock()

	if schedule {
		sched.Schedule(c.Flush)
	}
}

// Subscribe registers a callback for a key. It panics if fn is nil (a
// programmer error, not a runtime condition). Every plugin's OnSubscribe
// runs first (panics isolated), then the callback is invoked synchronously
// with the current chained value before Subscribe returns, so subscribers
// always start from a valid value.
//
// The returned Unsubscribe affects future flushes only: a flush that has
// already snapshotted this listener still delivers to it.
func (c *Container) Subscribe(key string, fn func(value any)) Unsubscribe {
	if fn == nil {
		panic("lumen: Subscribe requires a non-nil callback")
	}

	for _, p := range c.plugins {
		if p.OnSubscribe != nil {
			c.runHook(p.Name, "OnSubscribe", func() { p.OnSubscribe(key) })
		}
	}

	sub := &subscription{id: nextID(), fn: fn, active: true}
	c.mu.Lock()
	c.subs[key] = append(c.subs[key], sub)
	c.mu.Unlock()

	fn(c.chainGet(key))

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !sub.active {
			return
		}
		sub.active = false
		list := c.subs[key]
		for i, s := range list {
			if s == sub {
				c.subs[key] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		if len(c.subs[key]) == 0 {
			delete(c.subs, key)
		}
	}
}

// Flush delivers every pending key change. It snapshots the pending set and
// every pending key's listener list before invoking anything, so a listener
// that unsubscribes another listener mid-flush only affects future flushes.
// For each key, plugin OnNotify hooks fire once, then the snapshotted
// listeners in subscription order. A Set performed inside a flush lands in
// a fresh pending set with a fresh scheduled flush.
//
// Flush normally runs as the scheduled task on the container's loop;
// calling it directly forces immediate delivery.
func (c *Container) Flush() {
	c.mu.Lock()
	c.flushScheduled = false
	if len(c.pending) == 0 {
		c.mu.Unlock()
		return
	}
	keys := c.pending
	c.pending = nil
	c.pendingSet = make(map[string]struct{})

	snapshots := make([][]*subscription, len(keys))
	for i, k := range keys {
		list := c.subs[k]
		cp := make([]*subscription, len(list))
		copy(cp, list)
		snapshots[i] = cp
	}
	c.mu.Unlock()

	for i, k := range keys {
		value := c.chainGet(k)

		for _, p := range c.plugins {
			if p.OnNotify != nil {
				c.runHook(p.Name, "OnNotify", func() { p.OnNotify(k, value) })
			}
		}

		for _, sub := range snapshots[i] {
			c.invokeListener(k, sub, value)
		}
	}
}

// invokeListener isolates a panicking subscriber so it cannot break the
// flush snapshot for the remaining listeners.
func (c *Container) invokeListener(key string, sub *subscription, value any) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("subscriber panicked",
				"container", c.name, "key", key, "subscription", sub.id, "panic", r)
		}
	}()
	sub.fn(value)
}

// Keys returns the record's keys in insertion order.
func (c *Container) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Snapshot returns a copy of the record with every value passed through the
// OnGet chain, matching what Get would return per key.
func (c *Container) Snapshot() map[string]any {
	keys := c.Keys()
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		out[k] = c.chainGet(k)
	}
	return out
}
