// ABOUTME: Thread-safe occurrence cache keyed by source file and message text.
// ABOUTME: Tailers observe lines against it; the pruner evicts expired records.

package dedupe

import (
	"sync"
	"time"
)

// Outcome classifies a single observation of a message.
type Outcome int

const (
	// Novel marks the first sighting of a message within its file's
	// currently open window.
	Novel Outcome = iota
	// Duplicate marks any sighting after the first, before eviction.
	Duplicate
)

// Record tracks the occurrences of one message within an open window.
// FirstSeen is set once at creation and never updated; Count grows by
// one per repeat observation.
type Record struct {
	Count     int
	FirstSeen time.Time
}

// Expired is a record removed by EvictExpired, together with its key.
type Expired struct {
	File    string
	Message string
	Record
}

// Cache maps source file identity to per-message occurrence records.
// A single mutex guards all operations; critical sections contain no
// I/O, so concurrent tailers and the pruner serialize briefly on map
// accesses only.
type Cache struct {
	mu      sync.Mutex
	buckets map[string]map[string]*Record
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		buckets: make(map[string]map[string]*Record),
	}
}

// Observe records a sighting of message in file at the given time.
// The first sighting inserts a record with count 1 and returns Novel;
// every later sighting before eviction increments the count and
// returns Duplicate.
func (c *Cache) Observe(file, message string, now time.Time) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	bucket, ok := c.buckets[file]
	if !ok {
		bucket = make(map[string]*Record)
		c.buckets[file] = bucket
	}

	if rec, ok := bucket[message]; ok {
		rec.Count++
		return Duplicate
	}

	bucket[message] = &Record{Count: 1, FirstSeen: now}
	return Novel
}

// EvictExpired removes and returns every record whose window has
// elapsed: now - FirstSeen >= window, or FirstSeen missing entirely.
// Callers report on the returned records after the lock is released.
func (c *Cache) EvictExpired(window time.Duration, now time.Time) []Expired {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expired []Expired
	for file, bucket := range c.buckets {
		for message, rec := range bucket {
			if !rec.FirstSeen.IsZero() && now.Sub(rec.FirstSeen) < window {
				continue
			}
			expired = append(expired, Expired{File: file, Message: message, Record: *rec})
			delete(bucket, message)
		}
		if len(bucket) == 0 {
			delete(c.buckets, file)
		}
	}
	return expired
}

// DropFile removes a file's entire bucket. Used when the file leaves
// the discovered set; a rediscovered file starts counting from scratch.
func (c *Cache) DropFile(file string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.buckets, file)
}
