// Package repeat reconciles a keyed list from a reactive source into a DOM
// subtree.
//
// A Repeater subscribes to one field of any lumen.Source and keeps one
// owned node per key: new keys create nodes, removed keys detach them, and
// retained keys are moved rather than rebuilt, so node identity (and with
// it focus, selection and scroll state) survives array diffs. Pluggable
// preservers capture focus and scroll position before each mutation and
// restore them after.
package repeat
