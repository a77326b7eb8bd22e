package cart

import (
	"sync"

	"tunecrate/pkg/models"
)

// Cart is the cross-source selection set: insertion-ordered, deduplicated
// by (source, id). Operations are synchronous and touch nothing but the
// set itself; the download pipeline reads items from here but never
// mutates the cart.
type Cart struct {
	mu    sync.Mutex
	items []models.Item
	index map[models.ItemKey]struct{}
}

func New() *Cart {
	return &Cart{index: make(map[models.ItemKey]struct{})}
}

// Add inserts the item if absent. Idempotent: adding twice equals adding
// once.
func (c *Cart) Add(item models.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addLocked(item)
}

// AddAll inserts every absent item, preserving the given order for the
// newcomers.
func (c *Cart) AddAll(items []models.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range items {
		c.addLocked(it)
	}
}

// Toggle inverts membership: adds if absent, removes if present. Returns
// true when the item is selected after the call.
func (c *Cart) Toggle(item models.Item) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := item.Key()
	if _, ok := c.index[key]; ok {
		c.removeLocked(key)
		return false
	}
	c.addLocked(item)
	return true
}

// Remove deletes by identity key. Returns false when the key was absent.
func (c *Cart) Remove(key models.ItemKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.index[key]; !ok {
		return false
	}
	c.removeLocked(key)
	return true
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.index = make(map[models.ItemKey]struct{})
}

// IsSelected reports membership by identity key.
func (c *Cart) IsSelected(key models.ItemKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.index[key]
	return ok
}

// Count returns the number of selected items.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Items returns a copy of the selection in insertion order.
func (c *Cart) Items() []models.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) addLocked(item models.Item) {
	key := item.Key()
	if _, ok := c.index[key]; ok {
		return
	}
	c.index[key] = struct{}{}
	c.items = append(c.items, item)
}

func (c *Cart) removeLocked(key models.ItemKey) {
	delete(c.index, key)
	for i, it := range c.items {
		if it.Key() == key {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}
