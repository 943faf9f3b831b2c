// ABOUTME: Supervisor reconciling discovered source files against live tail workers.
// ABOUTME: Starts and retires tailers, runs the pruner, and handles graceful shutdown.

package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/SyedAnees21/gcp-log-transformer/internal/dedupe"
	"github.com/SyedAnees21/gcp-log-transformer/internal/discover"
	"github.com/SyedAnees21/gcp-log-transformer/internal/pruner"
	"github.com/SyedAnees21/gcp-log-transformer/internal/sink"
	"github.com/SyedAnees21/gcp-log-transformer/internal/tailer"
)

// Options configures a Monitor. All values are fixed at construction;
// the monitor never re-reads configuration mid-run.
type Options struct {
	Provider discover.Provider
	Cache    *dedupe.Cache
	Sink     sink.Sink

	// Window is how long a message's occurrences accumulate before the
	// pruner finalizes and reports them.
	Window time.Duration
	// PruneInterval is the pruner's sweep tick.
	PruneInterval time.Duration
	// PollDelay bounds both tailer EOF staleness and the reconciliation tick.
	PollDelay time.Duration
	// ShutdownGrace bounds the per-worker wait during shutdown.
	ShutdownGrace time.Duration

	Logger *slog.Logger
}

// worker is the handle for one running tailer goroutine.
type worker struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Monitor owns the worker table and the pruner. One tailer runs per
// discovered file; tailers are mutually independent and share only the
// injected cache and sink.
type Monitor struct {
	opts    Options
	pruner  *pruner.Pruner
	workers map[string]*worker
	logger  *slog.Logger
}

// New creates a monitor from opts.
func New(opts Options) *Monitor {
	return &Monitor{
		opts:    opts,
		pruner:  pruner.New(opts.Cache, opts.Sink, opts.Window, opts.PruneInterval, opts.Logger.With("component", "pruner")),
		workers: make(map[string]*worker),
		logger:  opts.Logger.With("component", "monitor"),
	}
}

// Run starts the pruner and the reconciliation loop, blocking until ctx
// is canceled, then shuts everything down. Returns nil on graceful
// shutdown; discovery errors are logged and retried on the next tick,
// never fatal.
func (m *Monitor) Run(ctx context.Context) error {
	// Workers and the pruner get their own cancellation roots so the
	// shutdown sequence controls their teardown order, not ctx itself.
	workCtx, cancelWorkers := context.WithCancel(context.Background())
	pruneCtx, cancelPruner := context.WithCancel(context.Background())

	prunerDone := make(chan struct{})
	go func() {
		defer close(prunerDone)
		m.pruner.Run(pruneCtx)
	}()

	ticker := time.NewTicker(m.opts.PollDelay)
	defer ticker.Stop()

	m.reconcile(workCtx)
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("shutdown signal received, stopping workers")
			m.shutdown(cancelWorkers, cancelPruner, prunerDone)
			return nil
		case <-ticker.C:
			m.reconcile(workCtx)
		}
	}
}

// reconcile resolves the source patterns and adjusts the worker table:
// new or dead files get a fresh tailer, files gone from the set are
// untracked and their cache bucket dropped. A retired file's tailer is
// not interrupted; it exits on its own once it notices the file is gone.
func (m *Monitor) reconcile(ctx context.Context) {
	files, err := m.opts.Provider.Discover()
	if err != nil {
		m.logger.Error("discovering source files", "error", err)
		return
	}

	current := make(map[string]struct{}, len(files))
	for _, path := range files {
		current[path] = struct{}{}

		if w, ok := m.workers[path]; ok {
			select {
			case <-w.done:
				// Worker exited (file vanished and came back, or a read
				// error); fall through and start a replacement.
			default:
				continue
			}
		}
		m.startWorker(ctx, path)
	}

	for path, w := range m.workers {
		if _, live := current[path]; live {
			continue
		}
		m.logger.Info("file retired, dropping state", "path", path)
		delete(m.workers, path)
		m.opts.Cache.DropFile(path)
		_ = w // self-terminates on its next not-found probe
	}
}

// startWorker launches a tailer goroutine for path and records its handle.
func (m *Monitor) startWorker(ctx context.Context, path string) {
	wctx, cancel := context.WithCancel(ctx)
	w := &worker{cancel: cancel, done: make(chan struct{})}

	t := tailer.New(path, m.opts.Cache, m.opts.Sink, m.opts.PollDelay,
		m.opts.Logger.With("component", "tailer"))

	m.logger.Info("starting tailer", "path", path)
	go func() {
		defer close(w.done)
		defer cancel()
		t.Run(wctx)
	}()

	m.workers[path] = w
}

// shutdown cancels all workers, waits up to the grace period for each,
// logs any stragglers, then stops the pruner.
func (m *Monitor) shutdown(cancelWorkers, cancelPruner context.CancelFunc, prunerDone chan struct{}) {
	cancelWorkers()

	for path, w := range m.workers {
		select {
		case <-w.done:
		case <-time.After(m.opts.ShutdownGrace):
			m.logger.Warn("worker did not exit within grace period", "path", path)
		}
	}

	m.logger.Info("stopping pruner")
	cancelPruner()
	select {
	case <-prunerDone:
	case <-time.After(m.opts.ShutdownGrace):
		m.logger.Warn("pruner did not exit within grace period")
	}

	m.logger.Info("monitor stopped")
}
