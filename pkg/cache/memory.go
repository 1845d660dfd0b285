package cache

import (
	"container/list"
	"context"
	"path"
	"sync"
	"time"
)

const defaultMemoryTTL = 7 * 24 * time.Hour

type memoryEntry struct {
	key      string
	value    []byte
	deadline time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !now.Before(e.deadline)
}

// MemoryCache is a bounded in-process Service. The recency list keeps the most
// recently used entry at the front; Set evicts from the back when full.
// Values are stored encoded, so a Get never aliases the caller's Set value.
type MemoryCache struct {
	mu       sync.Mutex
	index    map[string]*list.Element
	recency  *list.List
	capacity int

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryCache creates an in-memory cache and starts its expiry sweeper.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	o := &memoryOptions{maxEntries: 1000, sweepEvery: 5 * time.Minute}
	for _, opt := range opts {
		opt(o)
	}
	if o.maxEntries <= 0 {
		o.maxEntries = 1
	}

	mc := &MemoryCache{
		index:    make(map[string]*list.Element, o.maxEntries),
		recency:  list.New(),
		capacity: o.maxEntries,
		stop:     make(chan struct{}),
	}
	go mc.sweep(o.sweepEvery)
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}

	mc.mu.Lock()
	mc.put(key, append([]byte(nil), data...), expiration)
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) put(key string, data []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultMemoryTTL
	}
	deadline := time.Now().Add(ttl)

	if el, ok := mc.index[key]; ok {
		e := el.Value.(*memoryEntry)
		e.value, e.deadline = data, deadline
		mc.recency.MoveToFront(el)
		return
	}
	for mc.recency.Len() >= mc.capacity {
		mc.remove(mc.recency.Back())
	}
	mc.index[key] = mc.recency.PushFront(&memoryEntry{key: key, value: data, deadline: deadline})
}

// lookup returns the live entry for key and drops it if it has expired.
func (mc *MemoryCache) lookup(key string) (*list.Element, bool) {
	el, ok := mc.index[key]
	if !ok {
		return nil, false
	}
	if el.Value.(*memoryEntry).expired(time.Now()) {
		mc.remove(el)
		return nil, false
	}
	return el, true
}

func (mc *MemoryCache) remove(el *list.Element) {
	if el == nil {
		return
	}
	mc.recency.Remove(el)
	delete(mc.index, el.Value.(*memoryEntry).key)
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.Lock()
	el, ok := mc.lookup(key)
	var data []byte
	if ok {
		mc.recency.MoveToFront(el)
		data = el.Value.(*memoryEntry).value
	}
	mc.mu.Unlock()

	if !ok {
		return ErrCacheMiss
	}
	return decode(data, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, k := range keys {
		mc.remove(mc.index[k])
	}
	return nil
}

// DeleteByPattern removes keys matching a glob (path.Match syntax, which
// covers the trailing-star prefixes BuildPattern produces).
func (mc *MemoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for k, el := range mc.index {
		if matched, _ := path.Match(pattern, k); matched {
			mc.remove(el)
		}
	}
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, k := range keys {
		if _, ok := mc.lookup(k); ok {
			return true, nil
		}
	}
	return false, nil
}

func (mc *MemoryCache) Expire(_ context.Context, key string, expiration time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	el, ok := mc.lookup(key)
	if !ok {
		return false, nil
	}
	el.Value.(*memoryEntry).deadline = time.Now().Add(expiration)
	return true, nil
}

// TryLock stores a marker under key unless a live one is already there.
func (mc *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if _, held := mc.lookup(key); held {
		return false, nil
	}
	mc.put(key, []byte("locked"), ttl)
	return true, nil
}

func (mc *MemoryCache) Unlock(ctx context.Context, key string) error {
	return mc.Delete(ctx, key)
}

// Len reports the number of stored (possibly expired) entries.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.recency.Len()
}

func (mc *MemoryCache) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-mc.stop:
			return
		case now := <-ticker.C:
			mc.mu.Lock()
			for el := mc.recency.Back(); el != nil; {
				prev := el.Prev()
				if el.Value.(*memoryEntry).expired(now) {
					mc.remove(el)
				}
				el = prev
			}
			mc.mu.Unlock()
		}
	}
}

// Close stops the sweeper. The cache stays usable.
func (mc *MemoryCache) Close() error {
	mc.stopOnce.Do(func() { close(mc.stop) })
	return nil
}
