package lumen

// Watch subscribes to a key but delivers changes only, skipping the
// subscribe interface's mandatory synchronous initial call. Panics if fn is
// nil.
func Watch(src Source, key string, fn func(value any)) Unsubscribe {
	if fn == nil {
		panic("lumen: Watch requires a non-nil callback")
	}

	first := true
	return src.Subscribe(key, func(v any) {
		if first {
			first = false
			return
		}
		fn(v)
	})
}
