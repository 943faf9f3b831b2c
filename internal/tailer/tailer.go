// ABOUTME: Per-file worker that follows a log file and classifies new lines.
// ABOUTME: Novel messages are written through the sink; duplicates accrue silently.

package tailer

import (
	"bufio"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/SyedAnees21/gcp-log-transformer/internal/dedupe"
	"github.com/SyedAnees21/gcp-log-transformer/internal/logline"
	"github.com/SyedAnees21/gcp-log-transformer/internal/sink"
)

// Tailer follows a single log file. It observes only lines appended
// after it starts, classifies each against the shared cache, and writes
// novel messages through the sink immediately. EOF detection is
// polling-based; staleness is bounded by the configured poll delay.
type Tailer struct {
	path      string
	cache     *dedupe.Cache
	sink      sink.Sink
	pollDelay time.Duration
	logger    *slog.Logger
}

// New creates a tailer for path. The cache and sink are shared with the
// other workers; the tailer does not own them.
func New(path string, cache *dedupe.Cache, s sink.Sink, pollDelay time.Duration, logger *slog.Logger) *Tailer {
	return &Tailer{
		path:      path,
		cache:     cache,
		sink:      s,
		pollDelay: pollDelay,
		logger:    logger,
	}
}

// Path returns the file this tailer follows.
func (t *Tailer) Path() string {
	return t.path
}

// Run follows the file until ctx is canceled or the file becomes
// inaccessible. The tailer never restarts itself: a worker that exits
// is restarted, if at all, by the monitor's next reconciliation pass.
func (t *Tailer) Run(ctx context.Context) {
	f, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			t.logger.Warn("file not found, worker exiting", "path", t.path)
			return
		}
		t.logger.Error("opening file", "path", t.path, "error", err)
		return
	}
	defer f.Close()

	// Only lines appended from here on are observed.
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		t.logger.Error("seeking to end", "path", t.path, "error", err)
		return
	}

	t.logger.Debug("worker started", "path", t.path)
	defer t.logger.Debug("worker stopped", "path", t.path)

	reader := bufio.NewReader(f)
	var partial strings.Builder

	for {
		chunk, err := reader.ReadString('\n')
		if err == nil {
			line := chunk
			if partial.Len() > 0 {
				line = partial.String() + chunk
				partial.Reset()
			}
			t.handleLine(line)

			// Cancellation checkpoint after each consumed line.
			select {
			case <-ctx.Done():
				return
			default:
			}
			continue
		}

		if err != io.EOF {
			t.logger.Error("reading file", "path", t.path, "error", err)
			return
		}

		// Hold on to a trailing fragment until its newline arrives.
		if chunk != "" {
			partial.WriteString(chunk)
		}

		// The file can be retired while we hold its descriptor open;
		// reads then keep returning EOF, so probe the path itself.
		if _, serr := os.Stat(t.path); errors.Is(serr, fs.ErrNotExist) {
			t.logger.Warn("file removed, worker exiting", "path", t.path)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(t.pollDelay):
		}
	}
}

// handleLine parses and classifies one complete line.
func (t *Tailer) handleLine(raw string) {
	entry, ok := logline.Parse(raw)
	if !ok {
		return
	}

	if t.cache.Observe(t.path, entry.Message, time.Now()) == dedupe.Duplicate {
		// Accrues silently; the pruner reports it at eviction, if ever.
		return
	}

	if err := t.sink.Append(t.path, entry.Stamp(), entry.Message); err != nil {
		// Local failure: the next observe or evict event writes again.
		t.logger.Error("writing novel message", "path", t.path, "error", err)
		return
	}
	t.logger.Debug("new entry", "path", t.path, "message", entry.Message)
}
