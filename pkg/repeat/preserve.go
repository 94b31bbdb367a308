package repeat

import "github.com/lumen-ui/lumen/pkg/dom"

// Change summarizes one emission's effect on the key set. Preservers use
// it to pick a strategy: a pure reorder keeps the same content, so raw
// pixel offsets stay valid; structural changes need an anchor.
type Change struct {
	Added   int
	Removed int
	Moved   bool
}

// Structural reports whether the emission inserts or removes keys.
func (c Change) Structural() bool {
	return c.Added > 0 || c.Removed > 0
}

// Preserver captures UI state immediately before a DOM mutation and
// returns the restore to run immediately after, or nil when there is
// nothing to preserve. Snapshots never outlive one update cycle.
type Preserver interface {
	Capture(root *dom.Element, change Change) (restore func())
}

// Disabled is the explicit no-op strategy. A nil Config field means "use
// the default", so disabling takes a sentinel.
var Disabled Preserver = disabledPreserver{}

type disabledPreserver struct{}

func (disabledPreserver) Capture(*dom.Element, Change) func() { return nil }

// FocusPreserver is the default focus strategy: if the document's focused
// element sits inside the reconciler's root, capture it with its selection
// range; after the mutation, restore both if the element is still attached,
// otherwise do nothing.
var FocusPreserver Preserver = focusPreserver{}

type focusPreserver struct{}

func (focusPreserver) Capture(root *dom.Element, _ Change) func() {
	active := root.Document().ActiveElement()
	if active == nil || !root.Contains(active) {
		return nil
	}
	start, end := active.SelectionRange()

	return func() {
		if !active.IsConnected() {
			return
		}
		active.Focus()
		active.SetSelectionRange(start, end)
	}
}

// ScrollAnchorPreserver is the default scroll strategy. At offset zero it
// does nothing. For a pure reorder it restores the raw pixel offset: the
// content is unchanged, only the order differs, so the pixel position is
// the right invariant. For structural changes it anchors on the child whose
// box straddles the visible top edge and keeps that child at the same
// relative position afterwards, falling back to the raw offset when the
// anchor is gone or none was found.
var ScrollAnchorPreserver Preserver = scrollAnchorPreserver{}

type scrollAnchorPreserver struct{}

func (scrollAnchorPreserver) Capture(root *dom.Element, change Change) func() {
	top := root.ScrollTop()
	if top == 0 {
		return nil
	}

	if !change.Structural() {
		return func() { root.SetScrollTop(top) }
	}

	var anchor *dom.Element
	rel := 0
	for _, child := range root.Children() {
		off := child.OffsetTop()
		if off <= top && top < off+child.OffsetHeight() {
			anchor = child
			rel = off - top
			break
		}
	}

	return func() {
		if anchor != nil && anchor.IsConnected() {
			root.SetScrollTop(anchor.OffsetTop() - rel)
			return
		}
		root.SetScrollTop(top)
	}
}
