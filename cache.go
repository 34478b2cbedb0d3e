package colexpr

import (
	"container/list"
)

// sharedPlan is a reference counted compiled plan.
type sharedPlan interface {
	Retain()
	Release()
}

type cacheEntry struct {
	key  string
	id   string
	plan sharedPlan
}

// planCache is a least recently used map of compiled plans.
// It owns one reference to every plan it holds. Not safe for concurrent use.
type planCache struct {
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

func newPlanCache(capacity int) *planCache {
	return &planCache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

func (c *planCache) get(key string) (*cacheEntry, bool) {
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*cacheEntry), true
}

// add stores entry and returns the entries evicted to make room.
// The caller releases the evicted plans.
func (c *planCache) add(entry *cacheEntry) []*cacheEntry {
	if el, ok := c.items[entry.key]; ok {
		old := el.Value.(*cacheEntry)
		el.Value = entry
		c.ll.MoveToFront(el)
		return []*cacheEntry{old}
	}
	c.items[entry.key] = c.ll.PushFront(entry)

	var evicted []*cacheEntry
	for c.ll.Len() > c.capacity {
		el := c.ll.Back()
		e := el.Value.(*cacheEntry)
		c.ll.Remove(el)
		delete(c.items, e.key)
		evicted = append(evicted, e)
	}
	return evicted
}

func (c *planCache) len() int { return c.ll.Len() }

// clear empties the cache and returns every entry it held.
func (c *planCache) clear() []*cacheEntry {
	out := make([]*cacheEntry, 0, c.ll.Len())
	for el := c.ll.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*cacheEntry))
	}
	c.ll.Init()
	c.items = make(map[string]*list.Element)
	return out
}
