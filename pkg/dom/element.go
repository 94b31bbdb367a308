package dom

// Element is one node of the tree. Elements are created through a Document
// and always belong to it, attached or not.
type Element struct {
	doc    *Document
	tag    string
	parent *Element

	children []*Element
	attrs    map[string]string
	text     string

	// Input state.
	value    string
	selStart int
	selEnd   int

	// Scroll and layout state.
	scrollTop int
	height    int

	listeners map[string][]*listener
}

// Document returns the owning document.
func (e *Element) Document() *Document {
	return e.doc
}

// Tag returns the element's tag name.
func (e *Element) Tag() string {
	return e.tag
}

// Parent returns the parent element, or nil when detached.
func (e *Element) Parent() *Element {
	return e.parent
}

// Children returns a copy of the child list.
func (e *Element) Children() []*Element {
	out := make([]*Element, len(e.children))
	copy(out, e.children)
	return out
}

// ChildCount returns the number of children.
func (e *Element) ChildCount() int {
	return len(e.children)
}

// ChildAt returns the child at index i, or nil when out of range.
func (e *Element) ChildAt(i int) *Element {
	if i < 0 || i >= len(e.children) {
		return nil
	}
	return e.children[i]
}

// Index returns the element's position among its siblings, -1 when
// detached.
func (e *Element) Index() int {
	if e.parent == nil {
		return -1
	}
	for i, c := range e.parent.children {
		if c == e {
			return i
		}
	}
	return -1
}

// AppendChild inserts child as the last child.
func (e *Element) AppendChild(child *Element) {
	e.InsertAt(child, len(e.children))
}

// InsertAt places child at index i, clamped to the child list. If child is
// already attached anywhere (including under e) it is detached first, so
// InsertAt is also the move operation: the node keeps its identity and
// internal state, focus included. Inserting an ancestor into its own
// descendant is a no-op.
func (e *Element) InsertAt(child *Element, i int) {
	if child == nil || child == e || child.Contains(e) {
		return
	}

	child.detach()

	if i < 0 {
		i = 0
	}
	if i > len(e.children) {
		i = len(e.children)
	}
	e.children = append(e.children, nil)
	copy(e.children[i+1:], e.children[i:])
	e.children[i] = child
	child.parent = e

	// A move that lands in a detached subtree cannot keep focus.
	if d := child.doc; d != nil && d.active != nil && !d.active.IsConnected() {
		d.active = nil
	}
}

// Remove detaches the element from its parent. Focus held inside the
// removed subtree is cleared; a move via InsertAt is not a removal and
// keeps it.
func (e *Element) Remove() {
	if e.doc != nil && e.doc.active != nil && e.Contains(e.doc.active) {
		e.doc.active = nil
	}
	e.detach()
}

func (e *Element) detach() {
	p := e.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == e {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	e.parent = nil
}

// Contains reports whether desc is e or a descendant of e.
func (e *Element) Contains(desc *Element) bool {
	for n := desc; n != nil; n = n.parent {
		if n == e {
			return true
		}
	}
	return false
}

// IsConnected reports whether the element is attached under the document
// body.
func (e *Element) IsConnected() bool {
	if e.doc == nil {
		return false
	}
	return e.doc.body.Contains(e)
}

// SetAttribute sets a string attribute.
func (e *Element) SetAttribute(name, value string) {
	if e.attrs == nil {
		e.attrs = make(map[string]string)
	}
	e.attrs[name] = value
}

// Attribute returns an attribute value and whether it is present.
func (e *Element) Attribute(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

// HasAttribute reports attribute presence.
func (e *Element) HasAttribute(name string) bool {
	_, ok := e.attrs[name]
	return ok
}

// RemoveAttribute deletes an attribute.
func (e *Element) RemoveAttribute(name string) {
	delete(e.attrs, name)
}

// SetText sets the element's text content.
func (e *Element) SetText(text string) {
	e.text = text
}

// Text returns the element's text content.
func (e *Element) Text() string {
	return e.text
}

// SetValue sets the input value and clamps the selection range to it.
func (e *Element) SetValue(value string) {
	e.value = value
	if e.selStart > len(value) {
		e.selStart = len(value)
	}
	if e.selEnd > len(value) {
		e.selEnd = len(value)
	}
}

// Value returns the input value.
func (e *Element) Value() string {
	return e.value
}

// SetSelectionRange sets the text selection, clamped to the value.
func (e *Element) SetSelectionRange(start, end int) {
	if start < 0 {
		start = 0
	}
	if end < start {
		end = start
	}
	if start > len(e.value) {
		start = len(e.value)
	}
	if end > len(e.value) {
		end = len(e.value)
	}
	e.selStart, e.selEnd = start, end
}

// SelectionRange returns the selection start and end offsets.
func (e *Element) SelectionRange() (start, end int) {
	return e.selStart, e.selEnd
}

// Focus makes the element the document's active element. Detached elements
// cannot take focus.
func (e *Element) Focus() {
	if e.doc != nil && e.IsConnected() {
		e.doc.active = e
	}
}

// Blur drops focus if the element holds it.
func (e *Element) Blur() {
	if e.doc != nil && e.doc.active == e {
		e.doc.active = nil
	}
}

// SetScrollTop sets the scroll offset, clamped at zero.
func (e *Element) SetScrollTop(top int) {
	if top < 0 {
		top = 0
	}
	e.scrollTop = top
}

// ScrollTop returns the scroll offset.
func (e *Element) ScrollTop() int {
	return e.scrollTop
}

// SetHeight sets the element's layout height.
func (e *Element) SetHeight(h int) {
	if h < 0 {
		h = 0
	}
	e.height = h
}

// OffsetHeight returns the element's layout height.
func (e *Element) OffsetHeight() int {
	return e.height
}

// OffsetTop returns the element's top offset inside its parent: the sum of
// the preceding siblings' heights in the stacked-box layout.
func (e *Element) OffsetTop() int {
	if e.parent == nil {
		return 0
	}
	top := 0
	for _, c := range e.parent.children {
		if c == e {
			break
		}
		top += c.height
	}
	return top
}

// Walk visits e and its descendants in document order until fn returns
// false.
func (e *Element) Walk(fn func(*Element) bool) {
	e.walk(fn)
}

func (e *Element) walk(fn func(*Element) bool) bool {
	if !fn(e) {
		return false
	}
	for _, c := range e.children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}
