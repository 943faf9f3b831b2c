// ABOUTME: Background sweep that evicts expired cache records on a fixed tick.
// ABOUTME: Reports each message seen more than once as a single aggregated line.

package pruner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SyedAnees21/gcp-log-transformer/internal/dedupe"
	"github.com/SyedAnees21/gcp-log-transformer/internal/logline"
	"github.com/SyedAnees21/gcp-log-transformer/internal/sink"
)

// Pruner periodically sweeps the cache for records whose window has
// elapsed. Running it on its own timer keeps the per-line hot path to a
// single lock and map operation; all scanning cost is paid here,
// independent of line-arrival rate.
type Pruner struct {
	cache    *dedupe.Cache
	sink     sink.Sink
	window   time.Duration
	interval time.Duration
	logger   *slog.Logger
}

// New creates a pruner sweeping cache every interval, evicting records
// older than window.
func New(cache *dedupe.Cache, s sink.Sink, window, interval time.Duration, logger *slog.Logger) *Pruner {
	return &Pruner{
		cache:    cache,
		sink:     s,
		window:   window,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps on a fixed tick until ctx is canceled.
func (p *Pruner) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Sweep(time.Now())
		}
	}
}

// Sweep runs one eviction pass. Records seen more than once produce one
// aggregated line stamped at eviction time; records seen exactly once
// were already reported by their tailer and are dropped silently, as are
// malformed records without a first-seen time. All sink writes happen
// after the cache lock is released.
func (p *Pruner) Sweep(now time.Time) {
	for _, rec := range p.cache.EvictExpired(p.window, now) {
		if rec.FirstSeen.IsZero() {
			p.logger.Debug("dropping malformed record", "path", rec.File, "message", rec.Message)
			continue
		}
		if rec.Count <= 1 {
			continue
		}

		aggregated := fmt.Sprintf("%s (occurred %d times)", rec.Message, rec.Count)
		if err := p.sink.Append(rec.File, now.Format(logline.TimeLayout), aggregated); err != nil {
			p.logger.Error("writing aggregated report", "path", rec.File, "error", err)
			continue
		}
		p.logger.Debug("aggregated report written", "path", rec.File, "message", aggregated)
	}
}
