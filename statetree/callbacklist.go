package statetree

import "sync"

// callbackList is the synchronous multicast registry the rest of this
// package is built on: register a callback, get back an id, unregister by
// id later. Removal is keyed by an opaque id rather than by comparing
// callback values, since the registered items here are funcs, and funcs
// are not comparable in Go - slices.Index or a map keyed by the callback
// itself would panic.
//
// snapshot() takes a copy of the registered items under the lock and
// returns it for the caller to iterate after releasing the lock, so a
// callback that registers or unregisters another callback mid-broadcast
// never deadlocks and never observes a partially-updated list.
type callbackList[T any] struct {
	mu        sync.Mutex
	nextID    int64
	callbacks map[int64]T
	order     []int64
}

func newCallbackList[T any]() *callbackList[T] {
	return &callbackList[T]{callbacks: map[int64]T{}}
}

func (c *callbackList[T]) add(item T) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.callbacks[id] = item
	c.order = append(c.order, id)
	return id
}

func (c *callbackList[T]) remove(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.callbacks[id]; !ok {
		return
	}
	delete(c.callbacks, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *callbackList[T]) snapshot() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.callbacks[id])
	}
	return out
}

func (c *callbackList[T]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}
