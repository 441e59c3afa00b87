// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import "github.com/meshintel/firmscout/pkg/types"

// Collection is the user's accumulated, deduplicated set of result items.
// It preserves insertion order and is mutated only through Merge, Remove,
// and Insert; callers never write fields directly.
type Collection struct {
	items []types.ResultItem
	index map[string]int // dedup key → position in items
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{index: make(map[string]int)}
}

// Len returns the number of items.
func (c *Collection) Len() int {
	return len(c.items)
}

// Has reports whether an item with the given dedup key is present.
func (c *Collection) Has(key string) bool {
	_, ok := c.index[key]
	return ok
}

// Get returns the item with the given dedup key.
func (c *Collection) Get(key string) (types.ResultItem, bool) {
	idx, ok := c.index[key]
	if !ok {
		return types.ResultItem{}, false
	}
	return c.items[idx], true
}

// Items returns the items in insertion order. The returned slice is a copy;
// mutating it does not affect the collection.
func (c *Collection) Items() []types.ResultItem {
	out := make([]types.ResultItem, len(c.items))
	copy(out, c.items)
	return out
}

// Keys returns the dedup keys in insertion order.
func (c *Collection) Keys() []string {
	keys := make([]string, 0, len(c.items))
	for _, it := range c.items {
		keys = append(keys, Key(it))
	}
	return keys
}

// Insert appends the item unless its dedup key is already present. It
// reports whether the item was added. Used for restoring an optimistically
// deleted item; the key check guards against a reload having repopulated
// it in the interim.
func (c *Collection) Insert(item types.ResultItem) bool {
	key := Key(item)
	if _, ok := c.index[key]; ok {
		return false
	}
	c.index[key] = len(c.items)
	c.items = append(c.items, item)
	return true
}

// Remove deletes the item with the given dedup key and returns it so the
// caller can restore it if the remote delete fails.
func (c *Collection) Remove(key string) (types.ResultItem, bool) {
	idx, ok := c.index[key]
	if !ok {
		return types.ResultItem{}, false
	}
	item := c.items[idx]
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	delete(c.index, key)
	for i := idx; i < len(c.items); i++ {
		c.index[Key(c.items[i])] = i
	}
	return item, true
}
