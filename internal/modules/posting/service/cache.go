package service

import "github.com/reshetovitsme/modwatch/internal/modules/posting/domain"

// Cache remembers the freshest copy of every posting seen in a forum during this run,
// so postings that vanish from a later snapshot can still be described. Entries are
// added or overwritten, never removed. Not safe for concurrent use.
type Cache struct {
	postings map[string]*domain.Posting
}

// NewCache creates an empty posting cache
func NewCache() *Cache {
	return &Cache{postings: make(map[string]*domain.Posting)}
}

// Update records every posting of the snapshot, replacing older copies.
func (c *Cache) Update(snapshot domain.Snapshot) {
	for id, p := range snapshot {
		c.postings[id] = p
	}
}

// Get returns the cached posting for id.
func (c *Cache) Get(id string) (*domain.Posting, bool) {
	p, ok := c.postings[id]
	return p, ok
}

// Len returns the number of cached postings
func (c *Cache) Len() int {
	return len(c.postings)
}
