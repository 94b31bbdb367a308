package repeat

import (
	"testing"

	"github.com/lumen-ui/lumen/pkg/dom"
)

func inputFactory(doc *dom.Document) *dom.Element {
	return doc.CreateElement("input")
}

func TestFocusSurvivesStructuralChange(t *testing.T) {
	doc, root := newRoot(t)
	src := &stubSource{value: []any{row{ID: "a"}, row{ID: "b"}}}

	r, err := Mount(root, Config{
		Source: src, Field: "rows", Key: rowKey,
		Factory: inputFactory,
		Render:  func(any, *dom.Element, int) {},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Dispose()

	nb := r.Node("b")
	nb.SetValue("typing here")
	nb.Focus()
	nb.SetSelectionRange(3, 7)

	// Insert at the front so the focused node shifts position.
	src.emit([]any{row{ID: "new"}, row{ID: "a"}, row{ID: "b"}})

	if doc.ActiveElement() != nb {
		t.Fatal("focus must stay on the same node across the update")
	}
	if s, e := nb.SelectionRange(); s != 3 || e != 7 {
		t.Errorf("selection must survive the update, got %d..%d", s, e)
	}
}

func TestFocusNotRestoredWhenNodeRemoved(t *testing.T) {
	doc, root := newRoot(t)
	src := &stubSource{value: []any{row{ID: "a"}, row{ID: "b"}}}

	r, err := Mount(root, Config{
		Source: src, Field: "rows", Key: rowKey,
		Factory: inputFactory,
		Render:  func(any, *dom.Element, int) {},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Dispose()

	r.Node("b").Focus()
	src.emit([]any{row{ID: "a"}})

	if doc.ActiveElement() != nil {
		t.Error("focus must not be forced onto a removed node")
	}
}

func TestFocusOutsideRootUntouched(t *testing.T) {
	doc, root := newRoot(t)
	outside := doc.CreateElement("input")
	doc.Body().AppendChild(outside)
	outside.Focus()

	src := &stubSource{value: []any{row{ID: "a"}}}
	r, err := Mount(root, Config{
		Source: src, Field: "rows", Key: rowKey,
		Render: func(any, *dom.Element, int) {},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Dispose()

	src.emit([]any{row{ID: "b"}})

	if doc.ActiveElement() != outside {
		t.Error("focus outside the root is not the reconciler's business")
	}
}

func TestScrollRawOffsetOnPureReorder(t *testing.T) {
	_, root := newRoot(t)
	src := &stubSource{value: []any{row{ID: "a"}, row{ID: "b"}, row{ID: "c"}}}

	r, err := Mount(root, Config{
		Source: src, Field: "rows", Key: rowKey,
		Update: func(_ any, node *dom.Element, _ int, _ bool) {
			node.SetHeight(20)
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Dispose()

	root.SetScrollTop(30)
	src.emit([]any{row{ID: "c"}, row{ID: "b"}, row{ID: "a"}})

	if got := root.ScrollTop(); got != 30 {
		t.Errorf("a pure reorder keeps the raw offset, got %d", got)
	}
}

func TestScrollAnchorsOnStructuralChange(t *testing.T) {
	_, root := newRoot(t)
	src := &stubSource{value: []any{
		row{ID: "a"}, row{ID: "b"}, row{ID: "c"}, row{ID: "d"},
	}}

	r, err := Mount(root, Config{
		Source: src, Field: "rows", Key: rowKey,
		Update: func(_ any, node *dom.Element, _ int, _ bool) {
			node.SetHeight(20)
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Dispose()

	// Offset 50 lands inside row c (40..60), 10 pixels into it.
	root.SetScrollTop(50)

	// Insert a row above the anchor: c shifts from 40 to 60, so the offset
	// must follow to 70 to keep c at the same position on screen.
	src.emit([]any{
		row{ID: "new"}, row{ID: "a"}, row{ID: "b"}, row{ID: "c"}, row{ID: "d"},
	})

	if got := root.ScrollTop(); got != 70 {
		t.Errorf("anchor row must hold its on-screen position, got offset %d", got)
	}
}

func TestScrollFallsBackWhenAnchorRemoved(t *testing.T) {
	_, root := newRoot(t)
	src := &stubSource{value: []any{row{ID: "a"}, row{ID: "b"}, row{ID: "c"}}}

	r, err := Mount(root, Config{
		Source: src, Field: "rows", Key: rowKey,
		Update: func(_ any, node *dom.Element, _ int, _ bool) {
			node.SetHeight(20)
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Dispose()

	root.SetScrollTop(30) // anchor is row b (20..40)
	src.emit([]any{row{ID: "a"}, row{ID: "c"}})

	if got := root.ScrollTop(); got != 30 {
		t.Errorf("expected the raw offset fallback, got %d", got)
	}
}

func TestScrollAtTopDoesNothing(t *testing.T) {
	_, root := newRoot(t)
	src := &stubSource{value: []any{row{ID: "a"}}}

	r, err := Mount(root, Config{
		Source: src, Field: "rows", Key: rowKey,
		Update: func(_ any, node *dom.Element, _ int, _ bool) {
			node.SetHeight(20)
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Dispose()

	src.emit([]any{row{ID: "b"}, row{ID: "a"}})
	if got := root.ScrollTop(); got != 0 {
		t.Errorf("expected offset to stay at 0, got %d", got)
	}
}

func TestDisabledPreservers(t *testing.T) {
	doc, root := newRoot(t)
	src := &stubSource{value: []any{row{ID: "a"}, row{ID: "b"}}}

	r, err := Mount(root, Config{
		Source: src, Field: "rows", Key: rowKey,
		Factory: inputFactory,
		Render:  func(any, *dom.Element, int) {},
		Focus:   Disabled,
		Scroll:  Disabled,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Dispose()

	na := r.Node("a")
	na.Focus()
	root.SetScrollTop(10)
	src.emit([]any{row{ID: "b"}, row{ID: "a"}, row{ID: "c"}})

	// Moves keep focus at the DOM level; the preserver only adds the
	// selection restore and the removed-node fallback.
	if doc.ActiveElement() != na {
		t.Error("a reordered row must keep focus even with preservation off")
	}
}
