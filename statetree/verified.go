package statetree

// Predicate decides whether a write should be accepted. It sees exactly
// the Change the write produced - From/To/Value/Trace - and must be pure
// and side-effect-free.
type Predicate func(Change) bool

// VerifiedState wraps a State with a Predicate: every write to the
// verified node or any of its descendants is evaluated before being
// forwarded upward, and a rejected write is dropped rather than applied.
// This implementation never emits optimistically - a rejected write was
// never broadcast in the first place, since broadcasting only happens once
// a write has round-tripped through the root (see root.go) - so dropping
// is already sufficient to guarantee every subscriber's observed value
// stays consistent with the root; no compensating re-emission is needed.
type VerifiedState struct {
	*State
	predicate Predicate
}

// Verified wraps state with predicate. The returned VerifiedState has the
// same read/write/sub/subscribe surface as State.
func Verified(state *State, predicate Predicate) *VerifiedState {
	return &VerifiedState{State: state, predicate: predicate}
}

// SetValue evaluates the predicate against the write it would produce and
// only forwards it upstream if the predicate accepts it. A rejected write
// is silently dropped rather than surfaced as an error - it is a normal,
// expected outcome of verification, not a failure.
func (v *VerifiedState) SetValue(to any) {
	from, _ := pluck(v.root.snapshot(), v.path)
	c := Change{
		Value: to,
		From:  from,
		To:    to,
		Trace: traceFromPath(v.path, -1, nil),
	}
	if !v.predicate(c) {
		v.root.warn("verified: rejected write at %s (from=%v to=%v)", v.pathString(), from, to)
		return
	}
	v.State.SetValue(to)
}

// Sub returns a VerifiedState over the child at this node's path extended
// by key, guarded by the same predicate, so a write to any descendant of
// the verified node is evaluated too, without the predicate needing to
// know anything about depth.
func (v *VerifiedState) Sub(key any) *VerifiedState {
	return Verified(v.State.Sub(key), v.predicate)
}

// Observe treats receiving a value as a verified write, same as State.
func (v *VerifiedState) Observe(val any) {
	v.SetValue(val)
}

// Upstream returns a Sink whose Push is a verified write, same as SetValue.
func (v *VerifiedState) Upstream() Sink {
	return verifiedSink{state: v}
}

type verifiedSink struct{ state *VerifiedState }

func (u verifiedSink) Push(c Change) error {
	u.state.SetValue(c.To)
	return nil
}
