package statetree

import (
	"fmt"
	"sync"
)

// NodeEvent is what State.Downstream() exposes for introspection, logging,
// and bridging: the value a node observed, plus the trace - relative to
// that node, per narrow/afterPath - that produced it.
type NodeEvent struct {
	Value any
	Trace *ChangeTrace
}

// Sink is what State.Upstream() returns: pushing a Change into it is
// equivalent to assigning Change.To to the node the Sink was obtained from.
// This is the hook external code bridges a write in from.
type Sink interface {
	Push(Change) error
}

// State is a sub-view of a tree at some path. It owns no value and no
// children; it is a thin, cheap filter over the shared root broadcast,
// addressed by its own immutable path. Every State holds a pointer to the
// shared root rather than to a parent node, so sibling views never need to
// enumerate each other and a tree of States has no parent-child wiring to
// keep consistent.
type State struct {
	root *rootCore
	path []any

	once       sync.Once
	downstream *Stream[NodeEvent]
}

func newState(root *rootCore, path []any) *State {
	return &State{root: root, path: append([]any{}, path...)}
}

// Value returns the current value at this node's path, plucked from the
// root's retained value synchronously.
func (s *State) Value() any {
	v, err := pluck(s.root.snapshot(), s.path)
	if err != nil {
		s.root.errorLog("%s: %v", s.pathString(), err)
		return nil
	}
	return v
}

// SetValue writes to to this node's path. The node does not update its own
// cached value eagerly - there isn't one - the write only becomes
// observable once it has round-tripped through the root and back down
// through Downstream.
func (s *State) SetValue(to any) {
	from, _ := pluck(s.root.snapshot(), s.path)
	s.root.push(pendingChange{
		trace: traceFromPath(s.path, -1, nil),
		from:  from,
		to:    to,
	})
}

// Sub returns a child node at this node's path extended by key. key must be
// a string (field name) or non-negative int (index); Sub itself never
// evaluates the current value, so it never fails - an invalid key or a
// mismatch between key's kind and the actual value's shape only surfaces as
// an addressing error the first time the child is read, written, or
// subscribed to.
func (s *State) Sub(key any) *State {
	return newState(s.root, append(append([]any{}, s.path...), key))
}

// Downstream is the change stream this node observes: every broadcast that
// overlaps this node's path, deduplicated against the root's EqualFunc,
// with the first emission on subscribe being this node's current value.
// It exposes the raw NodeEvent, trace included, for callers that want to
// introspect, log, or bridge a change rather than just read the value
// Subscribe hands back; Subscribe itself is built on top of this.
func (s *State) Downstream() *Stream[NodeEvent] {
	s.once.Do(func() {
		out := NewStream[NodeEvent]()
		first := true
		var prevValue any
		s.root.downstream.SubscribeFunc(func(ev rootEvent) {
			if !matches(ev.trace, s.path) {
				return
			}
			v, err := pluck(ev.value, s.path)
			if err != nil {
				if out.subscriberCount() == 0 {
					s.root.errorLog("%s: %v", s.pathString(), err)
				}
				out.EmitError(err)
				return
			}
			// A change whose trace is nil overlaps this node either because
			// it originates here directly (this node's own path is empty,
			// i.e. this is the root) or because it's a wholesale ancestor
			// replacement this node merely sits under, and the node can't
			// tell from a nil trace alone whether its own value actually
			// changed. Only the latter is filtered through equal - a
			// direct write to the root always emits, even if the new value
			// compares equal to the old one, since a direct write is never
			// ambiguous about what changed.
			direct := ev.trace == nil && len(s.path) == 0
			if !direct && !first && s.root.equal(prevValue, v) {
				return
			}
			first = false
			prevValue = v
			out.Emit(NodeEvent{Value: v, Trace: afterPath(ev.trace, s.path)})
		})
		s.downstream = out
	})
	return s.downstream
}

// Upstream is the sink this node's writes are pushed into, and that
// external code may bridge a write in through: Push(c) is equivalent to
// SetValue(c.To).
func (s *State) Upstream() Sink {
	return upstreamSink{state: s}
}

type upstreamSink struct{ state *State }

func (u upstreamSink) Push(c Change) error {
	u.state.SetValue(c.To)
	return nil
}

// Subscribe yields, immediately, this node's current value, then every
// subsequent value produced by a downstream broadcast that addresses this
// node. Observer.Error, if set, receives addressing errors raised while
// producing a value for this node - the parent continues unaffected by a
// sibling's error.
func (s *State) Subscribe(observer Observer[any]) Subscription {
	return s.Downstream().Subscribe(Observer[NodeEvent]{
		Next: func(ev NodeEvent) {
			if observer.Next != nil {
				observer.Next(ev.Value)
			}
		},
		Error: observer.Error,
	})
}

// SubscribeFunc is the common case of Subscribe: a plain callback, with
// addressing errors just logged rather than handled.
func (s *State) SubscribeFunc(onNext func(any)) Subscription {
	logErr := func(err error) { s.root.errorLog("%s: %v", s.pathString(), err) }
	return s.Subscribe(Observer[any]{Next: onNext, Error: logErr})
}

// Observe treats receiving v as equivalent to SetValue(v), so s.Observe can
// serve as the Next of an Observer[any], or as any plain func(any) sink, to
// wire an external source's values straight into a write.
func (s *State) Observe(v any) {
	s.SetValue(v)
}

func (s *State) pathString() string {
	out := "$"
	for _, k := range s.path {
		switch v := k.(type) {
		case string:
			out += "." + v
		default:
			out += fmt.Sprintf("[%v]", v)
		}
	}
	return out
}
