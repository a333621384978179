package service

import (
	"fmt"

	"github.com/gin-contrib/cache"
	"github.com/gin-contrib/cache/persistence"
)

// CacheInvalidator drops cached GET pages after writes. Readers between a
// write and the drop may see data up to the store's TTL old; that window is
// accepted.
type CacheInvalidator struct {
	store persistence.CacheStore
}

func NewCacheInvalidator(store persistence.CacheStore) *CacheInvalidator {
	return &CacheInvalidator{store: store}
}

func (c *CacheInvalidator) drop(urls ...string) {
	if c == nil || c.store == nil {
		return
	}
	for _, u := range urls {
		// a miss just means the page was never cached
		_ = c.store.Delete(cache.CreateKey(u))
	}
}

func (c *CacheInvalidator) InvalidateSchools() {
	c.drop("/api/schools")
}

func (c *CacheInvalidator) InvalidateDashboard() {
	c.drop("/api/admin/dashboard")
}

func (c *CacheInvalidator) InvalidateEvent(eventId int) {
	c.drop(
		"/api/events",
		fmt.Sprintf("/api/events/%d", eventId),
		fmt.Sprintf("/api/events/%d/results", eventId),
	)
}
