package statetree

// ChangeTrace is a singly linked chain of trace elements, oriented from the
// root downward: the head is the outermost hop, each Rest descends one
// level further. A nil *ChangeTrace means "applies at the node this trace
// is being compared against, or anywhere at or below it" - root-origin
// changes carry a nil trace.
type ChangeTrace struct {
	Sub  any
	Keys map[any]int
	Rest *ChangeTrace
}

// Change is the unit the engine moves around. Value is always stamped from
// the observing node's own perspective; From/To describe the origin of the
// write and are the same for every node that observes a given broadcast.
type Change struct {
	Value any
	From  any
	To    any
	Trace *ChangeTrace
}

// extend prepends one outer hop to an existing trace. Building the trace
// for a write at a path walks the path from its deepest key to its
// shallowest, extending once per ancestor, so the path's first element
// ends up at the head and its last element at the tail.
func extend(sub any, keys map[any]int, rest *ChangeTrace) *ChangeTrace {
	return &ChangeTrace{Sub: sub, Keys: keys, Rest: rest}
}

// narrow drops the head of a trace, returning what a node one level deeper
// should compare itself against. A nil trace narrows to itself: there is
// nothing more specific to reveal.
func narrow(t *ChangeTrace) *ChangeTrace {
	if t == nil {
		return nil
	}
	return t.Rest
}

// traceFromPath builds the chain a write at path produces. keys is attached
// to the trace element at index keysAtDepth in path (-1 for none) - used by
// KeyedState to annotate the hop addressing a keyed sequence with the
// key->index snapshot at emission time (see keyed.go).
func traceFromPath(path []any, keysAtDepth int, keys map[any]int) *ChangeTrace {
	var t *ChangeTrace
	for i := len(path) - 1; i >= 0; i-- {
		var ks map[any]int
		if i == keysAtDepth {
			ks = keys
		}
		t = extend(path[i], ks, t)
	}
	return t
}

// matches walks trace and path in lockstep and reports whether a change
// carrying trace overlaps the node addressed by path:
//
//   - trace exhausted before path: the change is at an ancestor of path, or
//     is a root-origin wholesale replacement (trace == nil from the start) -
//     overlap.
//   - path exhausted before (or exactly when) trace does: the change is at
//     path itself or at one of its descendants - overlap.
//   - the keys at some common position differ: the change is on a disjoint
//     sibling subtree - no overlap.
func matches(trace *ChangeTrace, path []any) bool {
	t := trace
	for _, key := range path {
		if t == nil {
			return true
		}
		if t.Sub != key {
			return false
		}
		t = narrow(t)
	}
	return true
}

// afterPath walks trace past path's hops and returns what remains, i.e. the
// trace element (if any) one level below the node addressed by path. It
// returns nil if trace doesn't reach that deep, or diverges from path
// before getting there - callers should only call this once matches has
// already reported overlap and the caller knows path is a prefix of (or
// equal to) trace.
func afterPath(trace *ChangeTrace, path []any) *ChangeTrace {
	t := trace
	for _, key := range path {
		if t == nil || t.Sub != key {
			return nil
		}
		t = narrow(t)
	}
	return t
}
