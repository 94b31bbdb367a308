package repeat

import (
	"fmt"
	"testing"

	"github.com/lumen-ui/lumen/pkg/dom"
	"github.com/lumen-ui/lumen/pkg/lumen"
)

type row struct {
	ID    string
	Label string
}

func rowKey(item any) string {
	return item.(row).ID
}

// stubSource lets tests drive emissions directly, and doubles as the check
// that the reconciler only needs the subscribe contract.
type stubSource struct {
	value  any
	subs   []func(any)
	unsubs int
}

func (s *stubSource) Subscribe(_ string, fn func(value any)) lumen.Unsubscribe {
	s.subs = append(s.subs, fn)
	fn(s.value)
	return func() { s.unsubs++ }
}

func (s *stubSource) emit(v any) {
	s.value = v
	for _, fn := range s.subs {
		fn(v)
	}
}

func newRoot(t *testing.T) (*dom.Document, *dom.Element) {
	t.Helper()
	doc := dom.NewDocument()
	root := doc.CreateElement("ul")
	doc.Body().AppendChild(root)
	return doc, root
}

func TestMountValidation(t *testing.T) {
	_, root := newRoot(t)
	src := &stubSource{value: []any{}}
	render := func(any, *dom.Element, int) {}

	cases := []struct {
		name string
		root *dom.Element
		cfg  Config
		want error
	}{
		{"nil root", nil, Config{Source: src, Field: "f", Key: rowKey, Render: render}, ErrNilRoot},
		{"nil source", root, Config{Field: "f", Key: rowKey, Render: render}, ErrNilSource},
		{"no field", root, Config{Source: src, Key: rowKey, Render: render}, ErrNoField},
		{"nil key func", root, Config{Source: src, Field: "f", Render: render}, ErrNilKeyFunc},
		{"no renderer", root, Config{Source: src, Field: "f", Key: rowKey}, ErrNoRenderer},
		{"both renderers", root, Config{
			Source: src, Field: "f", Key: rowKey,
			Render: render, Create: func(any, *dom.Element) {},
		}, ErrBothRenderers},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Mount(tc.root, tc.cfg); err != tc.want {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestMountRendersCurrentValue(t *testing.T) {
	_, root := newRoot(t)
	src := &stubSource{value: []any{
		row{ID: "a", Label: "alpha"},
		row{ID: "b", Label: "beta"},
	}}

	r, err := Mount(root, Config{
		Source: src,
		Field:  "rows",
		Key:    rowKey,
		Render: func(item any, node *dom.Element, index int) {
			node.SetText(fmt.Sprintf("%d:%s", index, item.(row).Label))
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Dispose()

	if root.ChildCount() != 2 {
		t.Fatalf("expected 2 nodes, got %d", root.ChildCount())
	}
	if got := root.ChildAt(0).Text(); got != "0:alpha" {
		t.Errorf("unexpected first node text %q", got)
	}
	if got := root.ChildAt(1).Text(); got != "1:beta" {
		t.Errorf("unexpected second node text %q", got)
	}
}

func TestReorderKeepsNodeIdentity(t *testing.T) {
	_, root := newRoot(t)
	src := &stubSource{value: []any{
		row{ID: "a"}, row{ID: "b"}, row{ID: "c"},
	}}

	r, err := Mount(root, Config{
		Source: src, Field: "rows", Key: rowKey,
		Render: func(any, *dom.Element, int) {},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Dispose()

	na, nb, nc := r.Node("a"), r.Node("b"), r.Node("c")
	nc.SetValue("draft")

	src.emit([]any{row{ID: "c"}, row{ID: "a"}, row{ID: "b"}})

	if r.Node("a") != na || r.Node("b") != nb || r.Node("c") != nc {
		t.Fatal("reorder must keep the same nodes per key")
	}
	if root.ChildAt(0) != nc || root.ChildAt(1) != na || root.ChildAt(2) != nb {
		t.Error("nodes must be moved into the new order")
	}
	if nc.Value() != "draft" {
		t.Error("moved node must keep its input state")
	}
}

func TestIdenticalEmissionSkipsUpdates(t *testing.T) {
	_, root := newRoot(t)
	items := []any{row{ID: "a", Label: "x"}, row{ID: "b", Label: "y"}}
	src := &stubSource{value: items}

	updates := 0
	r, err := Mount(root, Config{
		Source: src, Field: "rows", Key: rowKey,
		Render: func(any, *dom.Element, int) { updates++ },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Dispose()

	if updates != 2 {
		t.Fatalf("expected 2 initial renders, got %d", updates)
	}

	src.emit(items)
	if updates != 2 {
		t.Errorf("identical items at identical indices must not re-render, got %d", updates)
	}
}

func TestPureReorderRefreshesIndexes(t *testing.T) {
	_, root := newRoot(t)
	src := &stubSource{value: []any{row{ID: "a"}, row{ID: "b"}}}

	r, err := Mount(root, Config{
		Source: src, Field: "rows", Key: rowKey,
		Render: func(item any, node *dom.Element, index int) {
			node.SetText(fmt.Sprintf("%s@%d", item.(row).ID, index))
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Dispose()

	src.emit([]any{row{ID: "b"}, row{ID: "a"}})

	if got := r.Node("b").Text(); got != "b@0" {
		t.Errorf("moved node must re-render with its new index, got %q", got)
	}
	if got := r.Node("a").Text(); got != "a@1" {
		t.Errorf("moved node must re-render with its new index, got %q", got)
	}
}

func TestCreateAndUpdateSplit(t *testing.T) {
	_, root := newRoot(t)
	src := &stubSource{value: []any{row{ID: "a"}}}

	var calls []string
	r, err := Mount(root, Config{
		Source: src, Field: "rows", Key: rowKey,
		Create: func(item any, _ *dom.Element) {
			calls = append(calls, "create:"+item.(row).ID)
		},
		Update: func(item any, _ *dom.Element, _ int, first bool) {
			calls = append(calls, fmt.Sprintf("update:%s:%v", item.(row).ID, first))
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Dispose()

	src.emit([]any{row{ID: "a", Label: "changed"}})

	want := []string{"create:a", "update:a:true", "update:a:false"}
	if len(calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, calls)
		}
	}
}

func TestRemovalDetachesNodes(t *testing.T) {
	_, root := newRoot(t)
	src := &stubSource{value: []any{row{ID: "a"}, row{ID: "b"}}}

	r, err := Mount(root, Config{
		Source: src, Field: "rows", Key: rowKey,
		Render: func(any, *dom.Element, int) {},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Dispose()

	nb := r.Node("b")
	src.emit([]any{row{ID: "a"}})

	if r.Len() != 1 || r.Node("b") != nil {
		t.Error("removed key must be forgotten")
	}
	if nb.IsConnected() {
		t.Error("removed key's node must be detached")
	}
}

func TestDuplicateKeysLastWins(t *testing.T) {
	_, root := newRoot(t)
	src := &stubSource{value: []any{
		row{ID: "a", Label: "first"},
		row{ID: "b"},
		row{ID: "a", Label: "second"},
	}}

	r, err := Mount(root, Config{
		Source: src, Field: "rows", Key: rowKey,
		Render: func(item any, node *dom.Element, _ int) {
			node.SetText(item.(row).Label)
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Dispose()

	if r.Len() != 2 {
		t.Fatalf("expected one node per unique key, got %d", r.Len())
	}
	if root.ChildCount() != 2 {
		t.Fatalf("expected 2 children, got %d", root.ChildCount())
	}
	if got := r.Node("a").Text(); got != "second" {
		t.Errorf("last occurrence must win, got %q", got)
	}
}

func TestNonArrayValueIsIgnored(t *testing.T) {
	_, root := newRoot(t)
	src := &stubSource{value: []any{row{ID: "a"}}}

	r, err := Mount(root, Config{
		Source: src, Field: "rows", Key: rowKey,
		Render: func(any, *dom.Element, int) {},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Dispose()

	src.emit("not a list")

	if r.Len() != 1 || root.ChildCount() != 1 {
		t.Error("a non-array emission must leave the previous state intact")
	}
}

func TestTypedSliceEmission(t *testing.T) {
	_, root := newRoot(t)
	src := &stubSource{value: []row{{ID: "a"}, {ID: "b"}}}

	r, err := Mount(root, Config{
		Source: src, Field: "rows", Key: rowKey,
		Render: func(any, *dom.Element, int) {},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Dispose()

	if r.Len() != 2 {
		t.Errorf("typed slices must reconcile like []any, got %d nodes", r.Len())
	}
}

func TestCallbackPanicIsolatedPerKey(t *testing.T) {
	_, root := newRoot(t)
	src := &stubSource{value: []any{row{ID: "a"}, row{ID: "bad"}, row{ID: "c"}}}

	rendered := map[string]bool{}
	r, err := Mount(root, Config{
		Source: src, Field: "rows", Key: rowKey,
		Render: func(item any, _ *dom.Element, _ int) {
			id := item.(row).ID
			if id == "bad" {
				panic("render boom")
			}
			rendered[id] = true
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Dispose()

	if !rendered["a"] || !rendered["c"] {
		t.Errorf("keys after a panicking one must still render, got %v", rendered)
	}
	if r.Len() != 3 {
		t.Errorf("the panicking key still owns its node, got %d", r.Len())
	}
}

func TestDispose(t *testing.T) {
	_, root := newRoot(t)
	src := &stubSource{value: []any{row{ID: "a"}}}

	r, err := Mount(root, Config{
		Source: src, Field: "rows", Key: rowKey,
		Render: func(any, *dom.Element, int) {},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r.Dispose()
	r.Dispose() // idempotent

	if src.unsubs != 1 {
		t.Errorf("expected one unsubscribe, got %d", src.unsubs)
	}
	if root.ChildCount() != 0 {
		t.Error("dispose must remove owned nodes")
	}

	src.emit([]any{row{ID: "a"}, row{ID: "b"}})
	if root.ChildCount() != 0 {
		t.Error("emissions after dispose must be ignored")
	}
}

func TestContainerAsSource(t *testing.T) {
	_, root := newRoot(t)
	loop := lumen.NewLoop()
	c := lumen.New(map[string]any{
		"rows": []any{row{ID: "a"}},
	}, lumen.WithScheduler(loop))

	r, err := Mount(root, Config{
		Source: c, Field: "rows", Key: rowKey,
		Render: func(item any, node *dom.Element, _ int) {
			node.SetText(item.(row).ID)
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Dispose()

	if root.ChildCount() != 1 {
		t.Fatalf("expected the current value rendered at mount, got %d", root.ChildCount())
	}

	c.Set("rows", []any{row{ID: "a"}, row{ID: "b"}})
	loop.Tick()

	if root.ChildCount() != 2 {
		t.Errorf("expected the flushed value reconciled, got %d", root.ChildCount())
	}
}
