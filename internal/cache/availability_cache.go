package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/slotwise/service-scheduling/internal/domain/availability"
)

// Tag constructors. Entries carry one tag per dimension so a write touching a
// date or an employee invalidates every affected entry in O(affected), never
// by enumerating the employee x service cross product.
func DateTag(date time.Time) string { return "date:" + date.UTC().Format("2006-01-02") }
func EmployeeTag(id string) string  { return "employee:" + id }
func ServiceTag(id string) string   { return "service:" + id }

// Key builds the cache key for an availability query.
func Key(date time.Time, employeeID, serviceID string) string {
	return fmt.Sprintf("%s|%s|%s", date.UTC().Format("2006-01-02"), employeeID, serviceID)
}

type entry struct {
	slots     []availability.Slot
	tags      []string
	expiresAt time.Time
}

// AvailabilityCache memoizes computed slot lists per (date, employee,
// service) key with tag-based invalidation and a TTL safety net. It is a
// derived, rebuildable projection and never a source of truth.
type AvailabilityCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]entry
	byTag      map[string]map[string]struct{}
}

// New creates an AvailabilityCache with the given TTL and size bound.
func New(ttl time.Duration, maxEntries int, now func() time.Time) *AvailabilityCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	if now == nil {
		now = time.Now
	}
	return &AvailabilityCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]entry),
		byTag:      make(map[string]map[string]struct{}),
	}
}

// Get returns the cached slots for key, or false on miss or expiry.
func (c *AvailabilityCache) Get(key string) ([]availability.Slot, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		c.removeLocked(key)
		c.mu.Unlock()
		return nil, false
	}
	return cloneSlots(e.slots), true
}

// Set stores the slots under key with the given invalidation tags.
func (c *AvailabilityCache) Set(key string, slots []availability.Slot, tags []string) {
	cloned := cloneSlots(slots)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}

	c.removeLocked(key)
	c.entries[key] = entry{slots: cloned, tags: tags, expiresAt: expiry}
	for _, tag := range tags {
		keys, ok := c.byTag[tag]
		if !ok {
			keys = make(map[string]struct{})
			c.byTag[tag] = keys
		}
		keys[key] = struct{}{}
	}
}

// InvalidateTag drops every entry carrying the tag.
func (c *AvailabilityCache) InvalidateTag(tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.byTag[tag] {
		c.removeLocked(key)
	}
}

// InvalidateDate drops every entry for the date.
func (c *AvailabilityCache) InvalidateDate(date time.Time) {
	c.InvalidateTag(DateTag(date))
}

// InvalidateAll drops every entry. Writes with no employee or service scope
// affect every cached day, so no tag narrows them.
func (c *AvailabilityCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry)
	c.byTag = make(map[string]map[string]struct{})
}

// Len reports the number of live entries.
func (c *AvailabilityCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *AvailabilityCache) removeLocked(key string) {
	e, ok := c.entries[key]
	if !ok {
		return
	}
	delete(c.entries, key)
	for _, tag := range e.tags {
		if keys, ok := c.byTag[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(c.byTag, tag)
			}
		}
	}
}

func (c *AvailabilityCache) cleanupLocked() {
	now := c.now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			c.removeLocked(key)
		}
	}
}

func (c *AvailabilityCache) evictOneLocked() {
	for key := range c.entries {
		c.removeLocked(key)
		return
	}
}

func cloneSlots(slots []availability.Slot) []availability.Slot {
	if slots == nil {
		return nil
	}
	out := make([]availability.Slot, len(slots))
	copy(out, slots)
	return out
}
