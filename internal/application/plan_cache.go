package application

import (
	"sync"
	"time"

	"github.com/example/prayer-companion/internal/prayer"
)

// planCache stores recently computed day plans to avoid refetching feeds and
// rerunning the detector for repeated views of the same day.
type planCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]planCacheEntry
}

type planCacheEntry struct {
	plan      DayPlan
	expiresAt time.Time
}

func newPlanCache(ttl time.Duration, maxEntries int, now func() time.Time) *planCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 32
	}
	if now == nil {
		now = time.Now
	}
	return &planCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]planCacheEntry),
	}
}

func (c *planCache) Get(key string) (DayPlan, bool) {
	if c == nil {
		return DayPlan{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return DayPlan{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return DayPlan{}, false
	}
	return clonePlan(entry.plan), true
}

func (c *planCache) Store(key string, plan DayPlan) {
	if c == nil {
		return
	}
	cloned := clonePlan(plan)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = planCacheEntry{plan: cloned, expiresAt: expiry}
}

func (c *planCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]planCacheEntry)
	c.mu.Unlock()
}

func (c *planCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *planCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

func clonePlan(plan DayPlan) DayPlan {
	out := plan
	if len(plan.Windows) > 0 {
		out.Windows = append([]prayer.Window(nil), plan.Windows...)
	}
	if len(plan.Events) > 0 {
		out.Events = append([]prayer.CalendarEvent(nil), plan.Events...)
	}
	if len(plan.Conflicts) > 0 {
		out.Conflicts = append([]ConflictReport(nil), plan.Conflicts...)
	}
	if len(plan.FetchErrors) > 0 {
		out.FetchErrors = append([]string(nil), plan.FetchErrors...)
	}
	return out
}
