package dom

// Event is delivered to listeners registered with On.
type Event struct {
	Type   string
	Target *Element
}

type listener struct {
	fn     func(Event)
	active bool
}

// On registers a listener for an event type and returns its removal
// function. Removal is idempotent.
func (e *Element) On(event string, fn func(Event)) func() {
	if fn == nil {
		return func() {}
	}
	if e.listeners == nil {
		e.listeners = make(map[string][]*listener)
	}
	l := &listener{fn: fn, active: true}
	e.listeners[event] = append(e.listeners[event], l)

	return func() {
		if !l.active {
			return
		}
		l.active = false
		list := e.listeners[event]
		for i, cur := range list {
			if cur == l {
				e.listeners[event] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	}
}

// Dispatch invokes the element's listeners for an event type, in
// registration order, against a snapshot of the listener list.
func (e *Element) Dispatch(event string) {
	list := e.listeners[event]
	snapshot := make([]*listener, len(list))
	copy(snapshot, list)

	ev := Event{Type: event, Target: e}
	for _, l := range snapshot {
		l.fn(ev)
	}
}
