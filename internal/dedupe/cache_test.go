// ABOUTME: Tests for the occurrence cache used to suppress repeated messages.
// ABOUTME: Validates novel/duplicate classification, eviction timing, and concurrency safety.

package dedupe

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_FirstObservationIsNovel(t *testing.T) {
	cache := New()

	outcome := cache.Observe("/var/log/a.log", "disk error", time.Now())
	assert.Equal(t, Novel, outcome)
}

func TestCache_RepeatObservationsAreDuplicates(t *testing.T) {
	cache := New()
	now := time.Now()

	require.Equal(t, Novel, cache.Observe("/var/log/a.log", "disk error", now))
	assert.Equal(t, Duplicate, cache.Observe("/var/log/a.log", "disk error", now))
	assert.Equal(t, Duplicate, cache.Observe("/var/log/a.log", "disk error", now))
}

func TestCache_MessagesScopedPerFile(t *testing.T) {
	cache := New()
	now := time.Now()

	require.Equal(t, Novel, cache.Observe("/var/log/a.log", "disk error", now))

	// Same message in a different file is its own record.
	assert.Equal(t, Novel, cache.Observe("/var/log/b.log", "disk error", now))
}

func TestCache_EvictExpired_Threshold(t *testing.T) {
	cache := New()
	window := 5 * time.Second
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	cache.Observe("/var/log/a.log", "disk error", base)

	// One tick before the threshold the record must survive.
	survived := cache.EvictExpired(window, base.Add(window-time.Millisecond))
	assert.Empty(t, survived)

	// At exactly the threshold it is evicted.
	expired := cache.EvictExpired(window, base.Add(window))
	require.Len(t, expired, 1)
	assert.Equal(t, "/var/log/a.log", expired[0].File)
	assert.Equal(t, "disk error", expired[0].Message)
	assert.Equal(t, 1, expired[0].Count)
	assert.Equal(t, base, expired[0].FirstSeen)
}

func TestCache_EvictExpired_CountAccumulates(t *testing.T) {
	cache := New()
	window := 5 * time.Second
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	cache.Observe("/var/log/a.log", "disk error", base)
	cache.Observe("/var/log/a.log", "disk error", base.Add(time.Second))
	cache.Observe("/var/log/a.log", "disk error", base.Add(2*time.Second))

	expired := cache.EvictExpired(window, base.Add(window))
	require.Len(t, expired, 1)
	assert.Equal(t, 3, expired[0].Count)

	// FirstSeen is write-once: repeats must not have moved it.
	assert.Equal(t, base, expired[0].FirstSeen)
}

func TestCache_EvictExpired_MissingFirstSeen(t *testing.T) {
	cache := New()

	// A record with a zero FirstSeen is malformed and always qualifies.
	cache.Observe("/var/log/a.log", "broken", time.Time{})

	expired := cache.EvictExpired(time.Hour, time.Now())
	require.Len(t, expired, 1)
	assert.True(t, expired[0].FirstSeen.IsZero())
}

func TestCache_EvictExpired_RemovedExactlyOnce(t *testing.T) {
	cache := New()
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	cache.Observe("/var/log/a.log", "disk error", base)

	first := cache.EvictExpired(0, base)
	require.Len(t, first, 1)

	second := cache.EvictExpired(0, base)
	assert.Empty(t, second)
}

func TestCache_EvictionReopensWindow(t *testing.T) {
	cache := New()
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	cache.Observe("/var/log/a.log", "disk error", base)
	cache.EvictExpired(0, base)

	// After eviction the next sighting opens a fresh window.
	assert.Equal(t, Novel, cache.Observe("/var/log/a.log", "disk error", base.Add(time.Second)))
}

func TestCache_DropFile(t *testing.T) {
	cache := New()
	now := time.Now()

	cache.Observe("/var/log/a.log", "disk error", now)
	cache.Observe("/var/log/b.log", "disk error", now)

	cache.DropFile("/var/log/a.log")

	// Counts for the dropped file start fresh, the other file keeps its record.
	assert.Equal(t, Novel, cache.Observe("/var/log/a.log", "disk error", now))
	assert.Equal(t, Duplicate, cache.Observe("/var/log/b.log", "disk error", now))
}

func TestCache_ConcurrentObserve_NoLostUpdates(t *testing.T) {
	cache := New()

	const numGoroutines = 100
	now := time.Now()

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			cache.Observe("/var/log/a.log", "contested", now)
		}()
	}
	wg.Wait()

	expired := cache.EvictExpired(0, now)
	require.Len(t, expired, 1)
	assert.Equal(t, numGoroutines, expired[0].Count,
		"every concurrent observe must be counted")
}

func TestCache_ConcurrentObserveAndEvict(t *testing.T) {
	cache := New()

	const numWriters = 8
	const opsPerWriter = 200

	var wg sync.WaitGroup
	wg.Add(numWriters + 1)

	for i := 0; i < numWriters; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < opsPerWriter; j++ {
				file := fmt.Sprintf("/var/log/%d.log", id%4)
				cache.Observe(file, fmt.Sprintf("msg-%d", j%10), time.Now())
			}
		}(i)
	}

	// Sweep concurrently with the writers.
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			cache.EvictExpired(0, time.Now())
		}
	}()

	wg.Wait()

	// No panics or races, and the cache is still functional.
	assert.Equal(t, Novel, cache.Observe("/var/log/final.log", "final", time.Now()))
}
