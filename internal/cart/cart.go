// Package cart holds the per-session restock cart: an ephemeral mapping of
// product to requested quantity. Carts are never persisted; they live only
// for the owning session and are cleared when a submission succeeds.
package cart

import (
	"sync"
)

// Line is one non-zero cart entry, the unit submitted to the request flow.
type Line struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Cart accumulates requested quantities for one session. Entries keep the
// order in which a product's quantity first became positive; an entry whose
// quantity returns to zero is removed.
type Cart struct {
	mu    sync.Mutex
	lines map[string]int
	order []string
}

func New() *Cart {
	return &Cart{lines: make(map[string]int)}
}

// Increment raises the requested quantity by one, capped at the product's
// max request limit. At the cap it is a no-op.
func (c *Cart) Increment(productID string, maxRequestLimit int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	qty := c.lines[productID]
	if qty >= maxRequestLimit {
		return qty
	}
	if qty == 0 {
		c.order = append(c.order, productID)
	}
	c.lines[productID] = qty + 1
	return qty + 1
}

// Decrement lowers the requested quantity by one. At zero it is a no-op;
// reaching zero removes the entry entirely.
func (c *Cart) Decrement(productID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	qty := c.lines[productID]
	if qty == 0 {
		return 0
	}
	if qty == 1 {
		delete(c.lines, productID)
		c.removeFromOrder(productID)
		return 0
	}
	c.lines[productID] = qty - 1
	return qty - 1
}

// Quantity returns the current requested quantity for a product.
func (c *Cart) Quantity(productID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lines[productID]
}

// Lines returns the ordered non-zero entries.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		if qty := c.lines[id]; qty > 0 {
			lines = append(lines, Line{ProductID: id, Quantity: qty})
		}
	}
	return lines
}

// Clear empties the cart. Called only after a successful submission; a failed
// submission leaves the cart untouched.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = make(map[string]int)
	c.order = nil
}

func (c *Cart) removeFromOrder(productID string) {
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// Store keeps one cart per session. A cart is created on first access and
// dropped when the session ends.
type Store struct {
	mu    sync.Mutex
	carts map[string]*Cart
}

func NewStore() *Store {
	return &Store{carts: make(map[string]*Cart)}
}

// Get returns the session's cart, creating it if needed.
func (s *Store) Get(sessionID string) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[sessionID]
	if !ok {
		c = New()
		s.carts[sessionID] = c
	}
	return c
}

// Drop discards the session's cart.
func (s *Store) Drop(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
}
