package dom

// Document owns an element tree and tracks the focused element.
type Document struct {
	body   *Element
	active *Element
}

// NewDocument creates a document with an empty body.
func NewDocument() *Document {
	d := &Document{}
	d.body = &Element{doc: d, tag: "body"}
	return d
}

// Body returns the root element. It is always connected.
func (d *Document) Body() *Element {
	return d.body
}

// CreateElement returns a new detached element.
func (d *Document) CreateElement(tag string) *Element {
	return &Element{doc: d, tag: tag}
}

// ActiveElement returns the focused element, or nil when nothing holds
// focus. Detaching a subtree that contains the focused element clears it.
func (d *Document) ActiveElement() *Element {
	return d.active
}
