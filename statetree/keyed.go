package statetree

import (
	"golang.org/x/exp/maps"
)

// KeyFunc extracts a stable identifier for a sequence item. Two items with
// equal keys are the same logical item across a sequence replacement, even
// if their index or their own value changed.
type KeyFunc func(item any) any

// IndexedItem pairs a sequence item with the index it was found at.
type IndexedItem struct {
	Index int
	Item  any
}

// Move describes a keyed item found at different indices before and after
// a sequence replacement.
type Move struct {
	OldIndex, NewIndex int
	Item               any
}

// ListChanges is the structural edit list KeyedState.Changes() emits on
// every upstream replacement of the wrapped sequence.
type ListChanges struct {
	Additions []IndexedItem
	Deletions []IndexedItem
	Moves     []Move
}

// Diagnostic is a non-fatal anomaly surfaced on KeyedState.Diagnostics(),
// currently just duplicate-key warnings, reported here rather than thrown
// so the diff can still proceed.
type Diagnostic struct {
	Id      Id
	Message string
}

// keyIndex is the mapA/mapB table the diff algorithm builds: key -> the
// (index, item) it was found at.
type keyIndex map[any]IndexedItem

// KeyedState wraps a State whose value is a sequence, indexing its items by
// a user-supplied KeyFunc so callers can track an item across moves without
// re-resolving its index themselves.
type KeyedState struct {
	state  *State
	keyFn  KeyFunc
	equal  EqualFunc

	changesStream *Stream[ListChanges]
	diagBus       *diagnosticBus

	history *diagnosticHistory
}

// Keyed wraps state, a sequence-valued State, with keyFn.
func Keyed(state *State, keyFn KeyFunc) *KeyedState {
	return &KeyedState{
		state:   state,
		keyFn:   keyFn,
		equal:   state.root.equal,
		diagBus: newDiagnosticBus(),
		history: newDiagnosticHistory(32),
	}
}

// buildKeyIndex walks seq once, building a keyIndex keyed by keyFn(item).
// Per the tie-break rule, the first occurrence of a duplicate key wins;
// later duplicates are still present in the sequence (addressable by
// index through the plain State, just not through KeyedState) and are
// reported as a Diagnostic rather than causing an error.
func (k *KeyedState) buildKeyIndex(seq []any) keyIndex {
	idx := make(keyIndex, len(seq))
	for i, item := range seq {
		key := k.keyFn(item)
		if _, dup := idx[key]; dup {
			k.reportDuplicate(key, i)
			continue
		}
		idx[key] = IndexedItem{Index: i, Item: item}
	}
	return idx
}

func (k *KeyedState) reportDuplicate(key any, index int) {
	d := Diagnostic{Id: NewId(), Message: warnDuplicateKey(key, index)}
	k.state.root.warn("keyed: %s", d.Message)
	k.history.recordDiagnostic(d)
	k.diagBus.publish(d)
}

// sequence returns the wrapped state's current value as a sequence,
// raising a not-a-sequence addressing error if it isn't one (or is nil,
// treated as the empty sequence).
func (k *KeyedState) sequence() ([]any, error) {
	v := k.state.Value()
	if v == nil {
		return nil, nil
	}
	seq, ok := v.([]any)
	if !ok {
		return nil, notASequenceErr(v)
	}
	return seq, nil
}

// Key returns a dynamic-path projection addressed by key rather than
// index: it re-resolves key's current index against the sequence on every
// read, write, and subscription emission, so it keeps tracking the item
// across moves without the caller re-subscribing.
func (k *KeyedState) Key(key any) *KeyedItem {
	return &KeyedItem{keyed: k, key: key}
}

// Index emits the current index ([int] boxed as any, or nil when the item
// is absent) of the item keyed by key, every time that index changes.
func (k *KeyedState) Index(key any) *Stream[any] {
	out := NewStream[any]()
	var prev any = indexSentinel
	k.state.SubscribeFunc(func(any) {
		seq, err := k.sequence()
		if err != nil {
			k.state.root.errorLog("keyed.Index: %v", err)
			out.EmitError(err)
			return
		}
		idx := k.indexOf(seq, key)
		if prev == indexSentinel || prev != idx {
			prev = idx
			out.Emit(idx)
		}
	})
	return out
}

// indexSentinel distinguishes "no value observed yet" from "index is nil,"
// since the index stream itself uses nil to mean absent.
var indexSentinel any = struct{}{}

func (k *KeyedState) indexOf(seq []any, key any) any {
	for i, item := range seq {
		if k.keyFn(item) == key {
			return i
		}
	}
	return nil
}

// Changes emits a ListChanges on every upstream replacement of the wrapped
// sequence, computed once per replacement and multicast to every
// subscriber, rather than every subscriber redoing the same diff.
func (k *KeyedState) Changes() *Stream[ListChanges] {
	if k.changesStream != nil {
		return k.changesStream
	}
	out := NewStream[ListChanges]()
	var prev []any
	has := false
	// Routed through k.sequence() rather than decoding ev.Value directly,
	// so a wrapped value that isn't a sequence raises ErrNotASequence
	// instead of silently diffing against an empty slice - propagation is
	// synchronous, so by the time this fires k.state.Value() already
	// equals the event that triggered it.
	k.state.Downstream().SubscribeFunc(func(NodeEvent) {
		seq, err := k.sequence()
		if err != nil {
			k.state.root.errorLog("keyed.Changes: %v", err)
			out.EmitError(err)
			return
		}
		if has {
			changes := k.diff(prev, seq)
			k.history.recordChanges(changes)
			out.Emit(changes)
		}
		prev = seq
		has = true
	})
	k.changesStream = out
	return out
}

// Diagnostics is the duplicate-key warning side channel: an asynchronous
// feed, independent of the hot value-change path, that a caller can log or
// assert on.
func (k *KeyedState) Diagnostics() DiagnosticSubscription {
	return k.diagBus.subscribe()
}

// RecentChanges returns up to n of the most recently computed ListChanges,
// newest last, for post-hoc inspection by something that attached after the
// fact (a test, an operator) rather than subscribing live.
func (k *KeyedState) RecentChanges(n int) []ListChanges {
	return k.history.recentChanges(n)
}

// RecentDiagnostics mirrors RecentChanges for duplicate-key warnings.
func (k *KeyedState) RecentDiagnostics(n int) []Diagnostic {
	return k.history.recentDiagnostics(n)
}

// diff builds a keyIndex for both a and b, then classifies every key
// present in either as a deletion, addition, or (if present in both at
// different indices) a move.
func (k *KeyedState) diff(a, b []any) ListChanges {
	mapA := k.buildKeyIndex(a)
	mapB := k.buildKeyIndex(b)

	var changes ListChanges
	for _, key := range sortedKeys(mapA) {
		if _, ok := mapB[key]; !ok {
			changes.Deletions = append(changes.Deletions, mapA[key])
		}
	}
	for _, key := range sortedKeys(mapB) {
		entryB := mapB[key]
		entryA, ok := mapA[key]
		if !ok {
			changes.Additions = append(changes.Additions, entryB)
			continue
		}
		if entryA.Index != entryB.Index {
			changes.Moves = append(changes.Moves, Move{
				OldIndex: entryA.Index,
				NewIndex: entryB.Index,
				Item:     entryB.Item,
			})
		}
	}
	return changes
}

// sortedKeys returns idx's keys ordered by index, so Additions/Deletions/
// Moves come out in a deterministic, index-ascending order rather than
// Go's randomized map iteration order.
func sortedKeys(idx keyIndex) []any {
	keys := maps.Keys(idx)
	// simple insertion sort by index: diffs are typically small, and this
	// avoids pulling in sort just to compare two ints.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && idx[keys[j-1]].Index > idx[keys[j]].Index; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

// KeyedItem is a dynamic-path projection of one item in a KeyedState's
// sequence, addressed by key rather than index, with the same read/write/
// sub surface as State.
type KeyedItem struct {
	keyed  *KeyedState
	key    any
	suffix []any
}

// Sub composes onto the item's own path the same way State.Sub does.
func (k *KeyedItem) Sub(field any) *KeyedItem {
	return &KeyedItem{keyed: k.keyed, key: k.key, suffix: append(append([]any{}, k.suffix...), field)}
}

// Value returns the current value at this projection: the item itself (for
// a bare Key(k)), or the field addressed by a chain of Sub calls. It is nil
// if the keyed item is currently absent.
func (k *KeyedItem) Value() any {
	seq, err := k.keyed.sequence()
	if err != nil {
		k.keyed.state.root.errorLog("keyed.Key(%v): %v", k.key, err)
		return nil
	}
	_, entry := k.resolve(seq)
	v, err := pluck(entry.Item, k.suffix)
	if err != nil {
		k.keyed.state.root.errorLog("keyed.Key(%v)%v: %v", k.key, k.suffix, err)
		return nil
	}
	return v
}

func (k *KeyedItem) resolve(seq []any) (int, IndexedItem) {
	for i, item := range seq {
		if k.keyed.keyFn(item) == k.key {
			return i, IndexedItem{Index: i, Item: item}
		}
	}
	return -1, IndexedItem{Index: -1}
}

// SetValue writes to at this projection. If the keyed item is currently
// absent, the write is dropped - there is no index to address. Otherwise
// the write is forwarded as a normal indexed write on the wrapped
// sequence's own State, with the sequence-addressing trace element
// annotated with the key->index snapshot at the time of the write, carried
// on the trace for Downstream observers. KeyedItem.Subscribe does not read
// that snapshot; it re-resolves the key by scanning the sequence.
func (k *KeyedItem) SetValue(to any) {
	seq, err := k.keyed.sequence()
	if err != nil {
		k.keyed.state.root.errorLog("keyed.Key(%v): %v", k.key, err)
		return
	}
	index, entry := k.resolve(seq)
	if index < 0 {
		return
	}

	mapB := k.keyed.buildKeyIndex(seq)
	sequencePath := k.keyed.state.path
	path := append(append(append([]any{}, sequencePath...), index), k.suffix...)
	keysAtDepth := len(sequencePath)
	fromItem, _ := pluck(entry.Item, k.suffix)

	k.keyed.state.root.push(pendingChange{
		trace: traceFromPath(path, keysAtDepth, indexOfKeys(mapB)),
		from:  fromItem,
		to:    to,
	})
}

// indexOfKeys projects a keyIndex down to the key->index map the trace
// enrichment rule carries.
func indexOfKeys(idx keyIndex) map[any]int {
	out := make(map[any]int, len(idx))
	for key, entry := range idx {
		out[key] = entry.Index
	}
	return out
}

// Subscribe yields, immediately, this projection's current value, then
// every subsequent value as the underlying sequence changes, the item
// moves, or the item is deleted (emitting nil and staying quiet until the
// key reappears) - all subject to the same equality dedup every State
// observes under, which is why a pure index move with no value change at
// the tracked key produces no emission.
func (k *KeyedItem) Subscribe(observer Observer[any]) Subscription {
	first := true
	var prev any
	return k.keyed.state.Downstream().Subscribe(Observer[NodeEvent]{
		Next: func(ev NodeEvent) {
			// Routed through k.keyed.sequence() rather than decoding
			// ev.Value directly, so a wrapped value that isn't a sequence
			// raises ErrNotASequence instead of resolving as "item absent".
			seq, err := k.keyed.sequence()
			if err != nil {
				if observer.Error != nil {
					observer.Error(err)
				}
				return
			}
			_, entry := k.resolve(seq)
			var v any
			if entry.Index >= 0 {
				v, err = pluck(entry.Item, k.suffix)
				if err != nil {
					if observer.Error != nil {
						observer.Error(err)
					}
					return
				}
			}
			if !first && k.keyed.equal(prev, v) {
				return
			}
			first = false
			prev = v
			if observer.Next != nil {
				observer.Next(v)
			}
		},
		Error: observer.Error,
	})
}

// SubscribeFunc is the common case of Subscribe.
func (k *KeyedItem) SubscribeFunc(onNext func(any)) Subscription {
	return k.Subscribe(Observer[any]{Next: onNext})
}
