package lumen

// HookResult is the return value of the value-threading hooks OnGet and
// OnSet. It is an explicit sum of "leave the chain value alone" and
// "replace it", so an override of nil, 0, "" or false is unambiguous.
type HookResult struct {
	override bool
	value    any
}

// Unchanged leaves the chain value as the previous hook produced it.
func Unchanged() HookResult {
	return HookResult{}
}

// Override replaces the chain value. Override(prev) from an OnSet hook
// vetoes the write: the chained result equals the stored value, so nothing
// is stored or scheduled.
func Override(value any) HookResult {
	return HookResult{override: true, value: value}
}

// Plugin observes and transforms container operations. Every hook is
// optional; a nil hook is skipped. Hooks run inline with the triggering
// operation, in registration order, and must not block.
//
// A panicking hook is recovered and logged with the plugin name and hook;
// the chain continues with its pre-panic value. One bad plugin must not
// break the rest of the container.
type Plugin struct {
	// Name identifies the plugin in logs.
	Name string

	// OnInit fires once, synchronously, during container construction.
	OnInit func(c *Container)

	// OnGet threads the value on every read, after the stored value is
	// loaded and before it is returned.
	OnGet func(key string, value any) HookResult

	// OnSet threads the incoming value on every write. next is the value
	// as produced by the previous hook; prev is the currently stored value.
	OnSet func(key string, next, prev any) HookResult

	// OnSubscribe fires when a callback registers for key, before the
	// callback's synchronous initial invocation.
	OnSubscribe func(key string)

	// OnNotify fires once per key per flush, before that key's
	// subscribers.
	OnNotify func(key string, value any)
}

// applyGet runs a single OnGet hook with panic isolation.
func (c *Container) applyGet(p Plugin, key string, value any) any {
	if p.OnGet == nil {
		return value
	}
	res, ok := c.runValueHook(p.Name, "OnGet", func() HookResult {
		return p.OnGet(key, value)
	})
	if !ok || !res.override {
		return value
	}
	return res.value
}

// applySet runs a single OnSet hook with panic isolation.
func (c *Container) applySet(p Plugin, key string, next, prev any) any {
	if p.OnSet == nil {
		return next
	}
	res, ok := c.runValueHook(p.Name, "OnSet", func() HookResult {
		return p.OnSet(key, next, prev)
	})
	if !ok || !res.override {
		return next
	}
	return res.value
}

// runValueHook recovers a panicking hook. ok is false when the hook
// panicked, in which case the caller keeps its pre-panic chain value.
func (c *Container) runValueHook(plugin, hook string, fn func() HookResult) (res HookResult, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("plugin hook panicked",
				"container", c.name, "plugin", plugin, "hook", hook, "panic", r)
			ok = false
		}
	}()
	return fn(), true
}

// runHook recovers a panicking void hook (OnInit, OnSubscribe, OnNotify).
func (c *Container) runHook(plugin, hook string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("plugin hook panicked",
				"container", c.name, "plugin", plugin, "hook", hook, "panic", r)
		}
	}()
	fn()
}
