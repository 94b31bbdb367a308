// Package dom provides the in-memory element tree the Lumen reconciler and
// binding glue operate on.
//
// It is a deliberately small stand-in for the browser DOM: elements have a
// tag, string attributes, text, children, and the pieces of state the
// reactive layer needs to preserve across list mutations, namely focus with a
// selection range, and a scroll offset over a stacked-box layout where a
// child's OffsetTop is the sum of its preceding siblings' heights.
//
// Moving an element with InsertAt reparents the same node; identity is
// pointer identity, which is what keyed reconciliation preserves.
package dom
