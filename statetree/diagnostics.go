package statetree

import (
	"context"
	"fmt"

	goevents "github.com/docker/go-events"
	lru "github.com/hashicorp/golang-lru"
)

// diagnosticBus is the asynchronous side channel non-fatal anomalies are
// published on - KeyedState's duplicate-key notices - instead of onto the
// hot change-propagation path. It is built on docker/go-events:
// a Broadcaster feeding a per-subscriber Queue/Channel pair, so a slow
// diagnostics consumer can never back up a write to the tree itself.
//
// This is deliberately not the primitive the propagation path (root.go,
// stream.go) is built on: go-events' Queue hands delivery to its own
// goroutine to decouple the writer from the reader, which would turn a
// synchronous, ordered broadcast into an asynchronous one and break the
// single-threaded scheduling the propagation path depends on. A side
// channel for warnings has no such ordering requirement, and benefits from
// exactly the decoupling the main path must avoid.
type diagnosticBus struct {
	broadcaster *goevents.Broadcaster
}

func newDiagnosticBus() *diagnosticBus {
	return &diagnosticBus{broadcaster: goevents.NewBroadcaster()}
}

func (b *diagnosticBus) publish(d Diagnostic) {
	_ = b.broadcaster.Write(d)
}

// DiagnosticSubscription is a live, asynchronous feed of Diagnostic values.
// Cancel stops the underlying delivery goroutine and closes Feed.
type DiagnosticSubscription struct {
	Feed   <-chan Diagnostic
	cancel context.CancelFunc
}

// Cancel ends the subscription.
func (s DiagnosticSubscription) Cancel() {
	s.cancel()
}

// subscribe adds a Channel-backed Queue to the broadcaster and starts a
// goroutine that drains it onto a typed Go channel until the context is
// cancelled.
func (b *diagnosticBus) subscribe() DiagnosticSubscription {
	ctx, cancel := context.WithCancel(context.Background())
	channel := goevents.NewChannel(0)
	queue := goevents.NewQueue(channel)
	b.broadcaster.Add(queue)

	out := make(chan Diagnostic)
	go func() {
		defer close(out)
		defer b.broadcaster.Remove(queue)
		defer queue.Close()
		for {
			select {
			case ev := <-channel.C:
				d, ok := ev.(Diagnostic)
				if !ok {
					continue
				}
				select {
				case out <- d:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return DiagnosticSubscription{Feed: out, cancel: cancel}
}

func warnDuplicateKey(key any, index int) string {
	return fmt.Sprintf("duplicate key %v at index %d; later occurrence ignored for keying", key, index)
}

// diagnosticHistory is a bounded post-hoc inspection log: KeyedState keeps
// the last N diagnostics and the last N computed ListChanges so something
// that attaches after the fact - a test, an operator - can inspect them
// without having subscribed to the live streams. Insertion keys each entry
// by a monotonically increasing Id and the history is only ever read back
// through Peek, never Get, so golang-lru's least-recently-used eviction
// degenerates to plain oldest-first eviction here - exactly the bounded
// FIFO history this needs, without writing a ring buffer by hand.
type diagnosticHistory struct {
	diags   *lru.Cache
	changes *lru.Cache
}

func newDiagnosticHistory(size int) *diagnosticHistory {
	diags, _ := lru.New(size)
	changes, _ := lru.New(size)
	return &diagnosticHistory{diags: diags, changes: changes}
}

func (h *diagnosticHistory) recordDiagnostic(d Diagnostic) {
	h.diags.Add(d.Id, d)
}

func (h *diagnosticHistory) recordChanges(c ListChanges) {
	h.changes.Add(NewId(), c)
}

func (h *diagnosticHistory) recentDiagnostics(n int) []Diagnostic {
	keys := h.diags.Keys() // oldest-first
	if n > 0 && n < len(keys) {
		keys = keys[len(keys)-n:]
	}
	out := make([]Diagnostic, 0, len(keys))
	for _, k := range keys {
		if v, ok := h.diags.Peek(k); ok {
			out = append(out, v.(Diagnostic))
		}
	}
	return out
}

func (h *diagnosticHistory) recentChanges(n int) []ListChanges {
	keys := h.changes.Keys()
	if n > 0 && n < len(keys) {
		keys = keys[len(keys)-n:]
	}
	out := make([]ListChanges, 0, len(keys))
	for _, k := range keys {
		if v, ok := h.changes.Peek(k); ok {
			out = append(out, v.(ListChanges))
		}
	}
	return out
}
