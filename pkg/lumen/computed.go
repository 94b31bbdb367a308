package lumen

// ComputedKey is the single key under which a Computed publishes its value.
const ComputedKey = "value"

// Computed is a memoized derivation that is itself a Source: it holds a
// single-key internal container kept current by an auto-tracking effect, so
// chains of derived values compose the same way plain containers do, and a
// keyed reconciler can consume one directly.
type Computed struct {
	inner  *Container
	effect *Effect
}

// NewComputed creates a derived value. fn runs once synchronously (a panic
// is recovered, logged and returned as the error) and again whenever a
// container key it read changes. Options apply to the internal container;
// WithScheduler matters when the source containers run on a non-default
// loop.
func NewComputed(fn func() any, opts ...Option) (*Computed, error) {
	inner := New(map[string]any{ComputedKey: nil}, opts...)
	c := &Computed{inner: inner}

	effect, err := NewEffect(func() {
		inner.Set(ComputedKey, fn())
	})
	c.effect = effect
	if err != nil {
		return nil, err
	}

	// Settle the construction write while nobody is subscribed yet, so the
	// first subscriber gets its immediate call and no stale flush behind it.
	inner.Flush()
	return c, nil
}

// Get returns the current derived value. Inside an auto-tracking effect run
// this registers a dependency on the computed's internal container, so
// effects can consume computed values transparently.
func (c *Computed) Get() any {
	return c.inner.Get(ComputedKey)
}

// Peek returns the current derived value without registering a dependency.
func (c *Computed) Peek() any {
	return c.inner.Peek(ComputedKey)
}

// Subscribe implements Source. Callers conventionally pass ComputedKey.
func (c *Computed) Subscribe(key string, fn func(value any)) Unsubscribe {
	return c.inner.Subscribe(key, fn)
}

// Dispose stops recomputation. The last computed value remains readable.
func (c *Computed) Dispose() {
	if c.effect != nil {
		c.effect.Dispose()
	}
}
