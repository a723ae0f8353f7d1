package database

import (
	"fmt"
	"sync"

	"cropwatch/apperr"
)

// Keyed is implemented by every record a Collection can hold.
type Keyed interface {
	GetID() string
}

// Collection is an ordered in-memory set of records keyed by id. Records are
// only ever mutated through replace-by-id, prepend/append and delete-by-id.
type Collection[T Keyed] struct {
	mu    sync.RWMutex
	order []string
	items map[string]T
	clone func(T) T
}

// NewCollection returns an empty collection. clone, when non-nil, is used to
// copy records in and out so callers never share memory with the store.
func NewCollection[T Keyed](clone func(T) T) *Collection[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Collection[T]{items: make(map[string]T), clone: clone}
}

// Prepend inserts v at the head of the collection.
func (c *Collection[T]) Prepend(v T) error {
	return c.insert(v, true)
}

// Append inserts v at the tail of the collection.
func (c *Collection[T]) Append(v T) error {
	return c.insert(v, false)
}

func (c *Collection[T]) insert(v T, head bool) error {
	id := v.GetID()
	if id == "" {
		return apperr.Invalidf("record has no id")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; ok {
		return fmt.Errorf("%w: %s", apperr.ErrDuplicateID, id)
	}
	c.items[id] = c.clone(v)
	if head {
		c.order = append([]string{id}, c.order...)
	} else {
		c.order = append(c.order, id)
	}
	return nil
}

// Update applies fn to a copy of the record and stores the copy in one step.
// If fn fails nothing is written. The id cannot be changed by fn.
func (c *Collection[T]) Update(id string, fn func(*T) error) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	cur, ok := c.items[id]
	if !ok {
		return zero, fmt.Errorf("%w: %s", apperr.ErrNotFound, id)
	}
	next := c.clone(cur)
	if err := fn(&next); err != nil {
		return zero, err
	}
	if next.GetID() != id {
		return zero, apperr.Invalidf("update changed id %s to %s", id, next.GetID())
	}
	c.items[id] = next
	return c.clone(next), nil
}

// Delete removes the record with id.
func (c *Collection[T]) Delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; !ok {
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, id)
	}
	delete(c.items, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (c *Collection[T]) Get(id string) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s", apperr.ErrNotFound, id)
	}
	return c.clone(v), nil
}

// List returns copies of all records in collection order.
func (c *Collection[T]) List() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.clone(c.items[id]))
	}
	return out
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}
