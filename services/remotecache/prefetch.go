package remotecache

import (
	"sort"
	"sync"
	"time"

	"xtreamsync/models"
)

// PrefetchQueue is a mutex-guarded priority queue of cache-warming requests,
// grounded on the original's schedule_prefetch/get_next_prefetch_item pair:
// entries are deduplicated on (profile, content type, selector) and served
// highest-priority-first, ties broken by earliest scheduled time.
type PrefetchQueue struct {
	mu    sync.Mutex
	items []models.PrefetchItem
}

// NewPrefetchQueue constructs an empty prefetch queue.
func NewPrefetchQueue() *PrefetchQueue {
	return &PrefetchQueue{}
}

// Schedule adds item to the queue unless an equivalent (profile, content
// type, selector) entry is already queued.
func (q *PrefetchQueue) Schedule(item models.PrefetchItem) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, existing := range q.items {
		if existing.ProfileID == item.ProfileID &&
			existing.ContentType == item.ContentType &&
			existing.Selector == item.Selector {
			return
		}
	}
	q.items = append(q.items, item)
	q.sortLocked()
}

// Next pops and returns the highest-priority due item, or false if the
// queue is empty or every item is scheduled for the future.
func (q *PrefetchQueue) Next() (models.PrefetchItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	for i, item := range q.items {
		if !item.ScheduledAt.After(now) {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return item, true
		}
	}
	return models.PrefetchItem{}, false
}

// Len reports the number of queued (including not-yet-due) items.
func (q *PrefetchQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *PrefetchQueue) sortLocked() {
	sort.SliceStable(q.items, func(i, j int) bool {
		if q.items[i].Priority != q.items[j].Priority {
			return q.items[i].Priority > q.items[j].Priority
		}
		return q.items[i].ScheduledAt.Before(q.items[j].ScheduledAt)
	})
}

// WarmProfile enqueues the standard cache-warming set for a profile coming
// active: category listings (high/medium priority) plus the channel list,
// mirroring warm_cache_for_profile's default CacheWarmingConfig.
func (c *Cache) WarmProfile(profileID string) {
	now := time.Now()
	c.prefetch.Schedule(models.PrefetchItem{ProfileID: profileID, ContentType: models.ContentChannels, Selector: "categories", Priority: models.PriorityHigh, ScheduledAt: now})
	c.prefetch.Schedule(models.PrefetchItem{ProfileID: profileID, ContentType: models.ContentMovies, Selector: "categories", Priority: models.PriorityMedium, ScheduledAt: now})
	c.prefetch.Schedule(models.PrefetchItem{ProfileID: profileID, ContentType: models.ContentSeries, Selector: "categories", Priority: models.PriorityMedium, ScheduledAt: now})
	c.prefetch.Schedule(models.PrefetchItem{ProfileID: profileID, ContentType: models.ContentChannels, Priority: models.PriorityHigh, ScheduledAt: now})
}

// NextPrefetch returns the next due prefetch item, if any.
func (c *Cache) NextPrefetch() (models.PrefetchItem, bool) {
	return c.prefetch.Next()
}
