// Package bind wires container keys to element attributes declared in
// markup-style data attributes. It consumes only the container's public
// Get/Set/Subscribe surface.
package bind

import (
	"errors"
	"fmt"

	"github.com/lumen-ui/lumen/pkg/dom"
	"github.com/lumen-ui/lumen/pkg/lumen"
)

// Attribute names recognized by Bind.
const (
	// AttrBind renders the key's value into the element's text.
	AttrBind = "data-bind"

	// AttrHidden toggles the hidden attribute on the key's truthiness.
	AttrHidden = "data-hidden"

	// AttrValue binds an input's value two-way: container changes update
	// the input, input events write back to the container.
	AttrValue = "data-value"
)

var (
	ErrNilRoot      = errors.New("bind: root element must not be nil")
	ErrNilContainer = errors.New("bind: container must not be nil")
)

// Unbind removes every subscription and event listener created by Bind.
type Unbind func()

// Bind scans the subtree under root for data-bind, data-hidden and
// data-value attributes and wires each to the container. Every binding
// receives the current value synchronously before Bind returns.
func Bind(root *dom.Element, c *lumen.Container) (Unbind, error) {
	if root == nil {
		return nil, ErrNilRoot
	}
	if c == nil {
		return nil, ErrNilContainer
	}

	var cleanups []func()

	root.Walk(func(el *dom.Element) bool {
		if key, ok := el.Attribute(AttrBind); ok && key != "" {
			cleanups = append(cleanups, bindText(el, c, key))
		}
		if key, ok := el.Attribute(AttrHidden); ok && key != "" {
			cleanups = append(cleanups, bindHidden(el, c, key))
		}
		if key, ok := el.Attribute(AttrValue); ok && key != "" {
			cleanups = append(cleanups, bindValue(el, c, key)...)
		}
		return true
	})

	return func() {
		for _, fn := range cleanups {
			fn()
		}
	}, nil
}

func bindText(el *dom.Element, c *lumen.Container, key string) func() {
	return c.Subscribe(key, func(v any) {
		el.SetText(stringify(v))
	})
}

func bindHidden(el *dom.Element, c *lumen.Container, key string) func() {
	return c.Subscribe(key, func(v any) {
		if truthy(v) {
			el.SetAttribute("hidden", "")
		} else {
			el.RemoveAttribute("hidden")
		}
	})
}

func bindValue(el *dom.Element, c *lumen.Container, key string) []func() {
	unsub := c.Subscribe(key, func(v any) {
		s := stringify(v)
		if el.Value() != s {
			el.SetValue(s)
		}
	})
	off := el.On("input", func(ev dom.Event) {
		c.Set(key, ev.Target.Value())
	})
	return []func(){unsub, off}
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	default:
		return true
	}
}
