// Package statetree is a reactive state-tree library: an application holds
// a single hierarchical value, and any sub-location of it can be read,
// written, or subscribed to independently, with writes propagating both up
// into the root value and back down to every overlapping subscriber.
//
// Root constructs the top of a tree; State.Sub addresses a child location;
// Keyed and Verified wrap a State to add keyed-sequence tracking and write
// verification respectively. Propagation is synchronous and single-
// threaded per write - see root.go for the FIFO trampoline that keeps it
// that way even under reentrant writes from a subscriber.
package statetree
