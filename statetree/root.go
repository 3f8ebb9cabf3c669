package statetree

import (
	"sync"

	"github.com/golang/glog"
)

// rootEvent is what travels on the shared root broadcast: the trace and
// origin values of one accepted change, plus the root's full value after
// applying it. Every node derives its own NodeEvent stream from this by
// filtering on matches(trace, path) and replucking value.
type rootEvent struct {
	trace *ChangeTrace
	from  any
	to    any
	value any
}

// pendingChange is what a write pushes into the root's trampoline, before
// it has been applied to the retained value.
type pendingChange struct {
	trace *ChangeTrace
	from  any
	to    any
}

// rootCore is the plumbing every State derived from one Root call shares:
// the retained value, the single upstream entry point (push), and the
// downstream broadcast every node filters. It is the only thing in this
// package that mutates the retained root value, and it does so only from
// inside the FIFO trampoline in push/drain.
type rootCore struct {
	equal EqualFunc

	info  LogFunction
	debug LogFunction
	warn  LogFunction
	error LogFunction

	mu           sync.Mutex
	value        any
	pending      []pendingChange
	broadcasting bool
	batchDepth   int

	downstream *Stream[rootEvent]
}

// Option configures a root State at construction time.
type Option func(*rootCore)

// WithEquality overrides the default reference-equality EqualFunc used for
// distinctUntilChanged deduplication at every node derived from this root.
// DeepEqual is provided for callers with aliasing concerns.
func WithEquality(equal EqualFunc) Option {
	return func(r *rootCore) { r.equal = equal }
}

// WithLogTag tags this root's log lines, useful when an application holds
// more than one independent tree and wants to tell their logs apart.
func WithLogTag(tag string) Option {
	return func(r *rootCore) {
		r.info = logFn(0, tag)
		r.debug = logFn(2, tag)
		r.warn = warnFn(tag)
		r.error = errorFn(tag)
	}
}

func (r *rootCore) errorLog(format string, a ...any) {
	r.error(format, a...)
}

func (r *rootCore) snapshot() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

// Root constructs a new tree rooted at initial and returns its root State.
// equal defaults to defaultEqual (reference equality); see WithEquality.
func Root(initial any, opts ...Option) *State {
	r := &rootCore{
		equal: defaultEqual,
		info:  logFn(0, "statetree"),
		debug: logFn(2, "statetree"),
		warn:  warnFn("statetree"),
		error: errorFn("statetree"),
		value: initial,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.downstream = NewStreamWithSeed(rootEvent{trace: nil, from: nil, to: initial, value: initial})
	r.info("root constructed")
	return newState(r, nil)
}

// push enters a pendingChange into the root's FIFO trampoline: if a
// broadcast is already in flight on this goroutine's call stack (i.e. this
// push is reentrant, made from inside a subscriber callback triggered by an
// earlier push), it is queued and will be drained, in arrival order, once
// the current broadcast completes - it is never processed by recursing
// into the broadcaster, which is what keeps a single broadcast from ever
// being interrupted mid-flight by a write it caused.
func (r *rootCore) push(c pendingChange) {
	r.mu.Lock()
	if r.broadcasting || r.batchDepth > 0 {
		r.pending = append(r.pending, c)
		r.mu.Unlock()
		return
	}
	r.broadcasting = true
	r.mu.Unlock()

	r.apply(c)
	r.drain()
}

// drain processes whatever accumulated in pending while apply (or a
// reentrant subscriber) was running, one at a time, until the queue is
// empty, then clears the broadcasting flag. Each iteration re-checks
// pending under the lock, so a write enqueued by the very broadcast drain
// is itself producing is picked up in the same loop, still in FIFO order.
func (r *rootCore) drain() {
	for {
		r.mu.Lock()
		if len(r.pending) == 0 {
			r.broadcasting = false
			r.mu.Unlock()
			return
		}
		next := r.pending[0]
		r.pending = r.pending[1:]
		r.mu.Unlock()
		r.apply(next)
	}
}

// apply replaces the value addressed by c.trace with c.to, shallow-copying
// every ancestor along the way, then broadcasts the result on downstream.
func (r *rootCore) apply(c pendingChange) {
	r.mu.Lock()
	newValue, err := replace(r.value, traceToPath(c.trace), c.to)
	if err != nil {
		r.mu.Unlock()
		r.error("apply: %v", err)
		return
	}
	r.value = newValue
	r.mu.Unlock()

	if glog.V(2) {
		r.debug("broadcast trace=%v from=%v to=%v", c.trace, c.from, c.to)
	}
	r.downstream.Emit(rootEvent{trace: c.trace, from: c.from, to: c.to, value: newValue})
}

// traceToPath flattens a ChangeTrace back into a plain path, the shape
// replace and pluck operate on.
func traceToPath(t *ChangeTrace) []any {
	var path []any
	for n := t; n != nil; n = n.Rest {
		path = append(path, n.Sub)
	}
	return path
}

// Batch runs fn, holding the root's trampoline closed for its duration so
// every write fn makes is queued rather than broadcast immediately, then
// flushes them through the trampoline as one FIFO run once fn returns. This
// does not change what gets emitted - every intermediate value is still
// applied and broadcast individually, in the order the writes were made.
// Batch does not lock out other goroutines: a write another goroutine makes
// while fn runs joins the same pending queue in arrival order, so it can
// land between two writes fn makes. Batch may be called on any State sharing this root;
// it is a property of the root, not of the node it was called through.
func (s *State) Batch(fn func()) {
	s.root.mu.Lock()
	s.root.batchDepth++
	s.root.mu.Unlock()

	fn()

	s.root.mu.Lock()
	s.root.batchDepth--
	flush := s.root.batchDepth == 0 && !s.root.broadcasting && len(s.root.pending) > 0
	if flush {
		s.root.broadcasting = true
	}
	s.root.mu.Unlock()

	if flush {
		s.root.drain()
	}
}
