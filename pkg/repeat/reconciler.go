package repeat

import (
	"errors"
	"log/slog"
	"reflect"
	"sync"

	"github.com/lumen-ui/lumen/pkg/dom"
	"github.com/lumen-ui/lumen/pkg/lumen"
)

// Configuration errors reported by Mount. These are programmer mistakes,
// so they fail fast instead of degrading at runtime.
var (
	ErrNilRoot       = errors.New("repeat: root element must not be nil")
	ErrNilSource     = errors.New("repeat: source must not be nil")
	ErrNoField       = errors.New("repeat: field name must not be empty")
	ErrNilKeyFunc    = errors.New("repeat: key function must not be nil")
	ErrNoRenderer    = errors.New("repeat: either Render or Create/Update must be set")
	ErrBothRenderers = errors.New("repeat: Render and Create/Update are mutually exclusive")
)

// Config describes one keyed list binding.
type Config struct {
	// Source is any subscribe-compatible value source; it does not have to
	// be a Container.
	Source lumen.Source

	// Field is the source key holding the array.
	Field string

	// Key extracts the reconciliation key from an item. Mandatory.
	Key func(item any) string

	// Render is the single-callback form, invoked for creation and every
	// refresh. Mutually exclusive with Create/Update.
	Render func(item any, node *dom.Element, index int)

	// Create runs once when a key first appears, before insertion; Update
	// runs after insertion and on every refresh, with first reporting
	// whether this is the node's first render.
	Create func(item any, node *dom.Element)
	Update func(item any, node *dom.Element, index int, first bool)

	// Factory builds nodes for new keys. Default: a "div" element.
	Factory func(doc *dom.Document) *dom.Element

	// Focus and Scroll are the preservation strategies run around each
	// mutation. nil selects the defaults; Disabled turns one off.
	Focus  Preserver
	Scroll Preserver

	// Logger replaces slog.Default for warnings and isolated errors.
	Logger *slog.Logger
}

// Repeater owns the nodes for one mounted keyed list. Every key present in
// the current source array owns exactly one node; removed keys are detached
// and forgotten.
type Repeater struct {
	root   *dom.Element
	field  string
	keyOf  func(any) string
	create func(any, *dom.Element)
	update func(any, *dom.Element, int, bool)

	factory func(*dom.Document) *dom.Element
	focus   Preserver
	scroll  Preserver
	log     *slog.Logger

	mu       sync.Mutex
	nodes    map[string]*dom.Element
	items    map[string]any
	order    []string
	unsub    lumen.Unsubscribe
	disposed bool
}

// Mount validates the configuration, subscribes to the source field, and
// renders the current value synchronously before returning.
func Mount(root *dom.Element, cfg Config) (*Repeater, error) {
	switch {
	case root == nil:
		return nil, ErrNilRoot
	case cfg.Source == nil:
		return nil, ErrNilSource
	case cfg.Field == "":
		return nil, ErrNoField
	case cfg.Key == nil:
		return nil, ErrNilKeyFunc
	case cfg.Render == nil && cfg.Create == nil && cfg.Update == nil:
		return nil, ErrNoRenderer
	case cfg.Render != nil && (cfg.Create != nil || cfg.Update != nil):
		return nil, ErrBothRenderers
	}

	r := &Repeater{
		root:    root,
		field:   cfg.Field,
		keyOf:   cfg.Key,
		factory: cfg.Factory,
		focus:   cfg.Focus,
		scroll:  cfg.Scroll,
		log:     cfg.Logger,
		nodes:   make(map[string]*dom.Element),
		items:   make(map[string]any),
	}
	if r.factory == nil {
		r.factory = func(doc *dom.Document) *dom.Element {
			return doc.CreateElement("div")
		}
	}
	if r.focus == nil {
		r.focus = FocusPreserver
	}
	if r.scroll == nil {
		r.scroll = ScrollAnchorPreserver
	}
	if r.log == nil {
		r.log = slog.Default()
	}

	if cfg.Render != nil {
		render := cfg.Render
		r.create = func(any, *dom.Element) {}
		r.update = func(item any, node *dom.Element, index int, _ bool) {
			render(item, node, index)
		}
	} else {
		r.create = cfg.Create
		r.update = cfg.Update
		if r.create == nil {
			r.create = func(any, *dom.Element) {}
		}
		if r.update == nil {
			r.update = func(any, *dom.Element, int, bool) {}
		}
	}

	r.unsub = cfg.Source.Subscribe(cfg.Field, r.apply)
	return r, nil
}

// apply reconciles one emission.
func (r *Repeater) apply(value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return
	}

	items, ok := toSlice(value)
	if !ok {
		r.log.Warn("repeat: source field is not array-like",
			"field", r.field, "type", typeName(value))
		return
	}

	// Extract keys; on duplicates the last occurrence wins for node
	// association.
	newOrder := make([]string, 0, len(items))
	newItems := make(map[string]any, len(items))
	for _, item := range items {
		k := r.keyOf(item)
		if _, dup := newItems[k]; dup {
			r.log.Warn("repeat: duplicate key in emission", "field", r.field, "key", k)
			for i, existing := range newOrder {
				if existing == k {
					newOrder = append(newOrder[:i], newOrder[i+1:]...)
					break
				}
			}
		}
		newOrder = append(newOrder, k)
		newItems[k] = item
	}

	prevIndex := make(map[string]int, len(r.order))
	for i, k := range r.order {
		prevIndex[k] = i
	}

	change := Change{}
	for _, k := range r.order {
		if _, kept := newItems[k]; !kept {
			change.Removed++
		}
	}
	for i, k := range newOrder {
		old, existed := prevIndex[k]
		if !existed {
			change.Added++
		} else if old != i {
			change.Moved = true
		}
	}

	restoreFocus := r.focus.Capture(r.root, change)
	restoreScroll := r.scroll.Capture(r.root, change)

	// Detach and forget removed keys.
	for _, k := range r.order {
		if _, kept := newItems[k]; kept {
			continue
		}
		if node := r.nodes[k]; node != nil {
			node.Remove()
		}
		delete(r.nodes, k)
		delete(r.items, k)
	}

	// Single pass over the new order: create missing nodes, move the rest
	// into position, refresh callbacks where the item or index changed.
	for i, k := range newOrder {
		item := newItems[k]
		node, existed := r.nodes[k]

		if !existed {
			node = r.factory(r.root.Document())
			r.nodes[k] = node
			r.runCallback(k, func() { r.create(item, node) })
			r.root.InsertAt(node, i)
			r.runCallback(k, func() { r.update(item, node, i, true) })
			continue
		}

		if r.root.ChildAt(i) != node {
			r.root.InsertAt(node, i)
		}

		indexChanged := prevIndex[k] != i
		itemChanged := !sameItem(r.items[k], item)
		// Both identical is the only skippable case: position labels and
		// other index-dependent renderings must refresh on a pure reorder.
		if itemChanged || indexChanged {
			r.runCallback(k, func() { r.update(item, node, i, false) })
		}
	}

	r.order = newOrder
	r.items = newItems

	if restoreFocus != nil {
		restoreFocus()
	}
	if restoreScroll != nil {
		restoreScroll()
	}
}

// runCallback isolates a panicking per-item callback: it is logged with the
// offending key and the remaining keys still process.
func (r *Repeater) runCallback(key string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("repeat: item callback panicked",
				"field", r.field, "key", key, "panic", rec)
		}
	}()
	fn()
}

// Node returns the owned node for a key, if any.
func (r *Repeater) Node(key string) *dom.Element {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nodes[key]
}

// Len returns the number of keys currently owned.
func (r *Repeater) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.nodes)
}

// Dispose unsubscribes from the source, removes every owned node from the
// document, and clears the internal maps. Idempotent.
func (r *Repeater) Dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return
	}
	r.disposed = true

	if r.unsub != nil {
		r.unsub()
	}
	for _, node := range r.nodes {
		node.Remove()
	}
	r.nodes = make(map[string]*dom.Element)
	r.items = make(map[string]any)
	r.order = nil
}

// toSlice accepts any slice or array value and returns it as []any.
func toSlice(value any) ([]any, bool) {
	if value == nil {
		return nil, false
	}
	if s, ok := value.([]any); ok {
		return s, true
	}
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, v.Len())
	for i := range out {
		out[i] = v.Index(i).Interface()
	}
	return out, true
}

// sameItem reports reference equality for pointer-like items and value
// equality for comparable values; incomparable values never count as same,
// so they always refresh.
func sameItem(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() != vb.Kind() {
		return false
	}
	switch va.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	}
	if va.Comparable() && vb.Comparable() {
		return va.Equal(vb)
	}
	return false
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
