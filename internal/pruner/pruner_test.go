// ABOUTME: Tests for the eviction sweep and aggregated reporting.
// ABOUTME: Covers single-sighting silence, occurrence counts, and malformed records.

package pruner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SyedAnees21/gcp-log-transformer/internal/dedupe"
)

type recordingSink struct {
	mu      sync.Mutex
	entries []sinkEntry
	err     error
}

type sinkEntry struct {
	Source  string
	Stamp   string
	Message string
}

func (r *recordingSink) Append(source, stamp, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, sinkEntry{source, stamp, message})
	return nil
}

func (r *recordingSink) snapshot() []sinkEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sinkEntry(nil), r.entries...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweep_SingleSightingStaysSilent(t *testing.T) {
	cache := dedupe.New()
	rec := &recordingSink{}
	p := New(cache, rec, 5*time.Second, time.Second, discardLogger())

	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	cache.Observe("/var/log/a.log", "disk error", base)

	p.Sweep(base.Add(5 * time.Second))

	// k=1 was already reported by the tailer; no aggregated line ever.
	assert.Empty(t, rec.snapshot())
}

func TestSweep_ReportsOccurrenceCount(t *testing.T) {
	cache := dedupe.New()
	rec := &recordingSink{}
	window := 5 * time.Second
	p := New(cache, rec, window, time.Second, discardLogger())

	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	cache.Observe("/var/log/a.log", "disk error", base)
	cache.Observe("/var/log/a.log", "disk error", base.Add(time.Second))
	cache.Observe("/var/log/a.log", "disk error", base.Add(2*time.Second))

	evictAt := base.Add(window)
	p.Sweep(evictAt)

	entries := rec.snapshot()
	require.Len(t, entries, 1)
	assert.Equal(t, "/var/log/a.log", entries[0].Source)
	assert.Equal(t, "disk error (occurred 3 times)", entries[0].Message)

	// Stamped at eviction time, not first sighting.
	assert.Equal(t, evictAt.Format("2006-01-02 15:04:05"), entries[0].Stamp)
}

func TestSweep_UnexpiredRecordsSurvive(t *testing.T) {
	cache := dedupe.New()
	rec := &recordingSink{}
	window := 5 * time.Second
	p := New(cache, rec, window, time.Second, discardLogger())

	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	cache.Observe("/var/log/a.log", "disk error", base)
	cache.Observe("/var/log/a.log", "disk error", base)

	p.Sweep(base.Add(window - time.Millisecond))
	assert.Empty(t, rec.snapshot())

	// The record is still in the cache and still accumulating.
	assert.Equal(t, dedupe.Duplicate, cache.Observe("/var/log/a.log", "disk error", base))
}

func TestSweep_MalformedRecordDroppedSilently(t *testing.T) {
	cache := dedupe.New()
	rec := &recordingSink{}
	p := New(cache, rec, 5*time.Second, time.Second, discardLogger())

	cache.Observe("/var/log/a.log", "broken", time.Time{})
	cache.Observe("/var/log/a.log", "broken", time.Time{})

	p.Sweep(time.Now())
	assert.Empty(t, rec.snapshot())
}

func TestSweep_SinkFailureIsNonFatal(t *testing.T) {
	cache := dedupe.New()
	rec := &recordingSink{err: errors.New("disk full")}
	p := New(cache, rec, 5*time.Second, time.Second, discardLogger())

	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	cache.Observe("/var/log/a.log", "disk error", base)
	cache.Observe("/var/log/a.log", "disk error", base)
	cache.Observe("/var/log/b.log", "io timeout", base)
	cache.Observe("/var/log/b.log", "io timeout", base)

	// Must not panic; both records are evicted regardless.
	p.Sweep(base.Add(5 * time.Second))
	assert.Empty(t, cache.EvictExpired(0, base.Add(time.Minute)))
}

func TestRun_SweepsOnTick(t *testing.T) {
	cache := dedupe.New()
	rec := &recordingSink{}
	p := New(cache, rec, 10*time.Millisecond, 5*time.Millisecond, discardLogger())

	cache.Observe("/var/log/a.log", "disk error", time.Now())
	cache.Observe("/var/log/a.log", "disk error", time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pruner did not stop after cancel")
	}
}
