// Package watch polls chat.db and logs snapshots that no longer match the
// store. chat.db has no deletion event, so a change in the latest window of
// messages is the only signal that something was removed. A new message that
// pushes an old one out of the window looks the same and is logged too.
package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/imsgwatch/internal/bus"
	"github.com/matheus3301/imsgwatch/internal/chatdb"
	"github.com/matheus3301/imsgwatch/internal/message"
	"github.com/matheus3301/imsgwatch/internal/snapshot"
	"github.com/matheus3301/imsgwatch/internal/status"
	"go.uber.org/zap"
)

const (
	// DefaultWindow is the number of latest messages compared per target.
	DefaultWindow = 2
	// DefaultInterval is the pause between two ticks.
	DefaultInterval = 500 * time.Millisecond
)

// ErrNoTargets is returned when initialization leaves nothing to watch.
var ErrNoTargets = errors.New("no targets to watch")

// Source is the read side of chat.db used by the watcher.
type Source interface {
	ResolveHandle(ctx context.Context, target, service string) (int64, error)
	LatestMessages(ctx context.Context, q chatdb.Query) ([]message.Row, error)
}

// ChangeLogger records a stale snapshot for a target.
type ChangeLogger interface {
	Write(target string, stale snapshot.Snapshot) error
}

// Options configures a Watcher.
type Options struct {
	Targets            []string
	Window             int
	Interval           time.Duration
	Service            string
	Scope              chatdb.Scope
	IncludeFromMe      bool
	SkipMissingTargets bool
	Compare            snapshot.Comparator
	Location           *time.Location
}

// Watcher runs the poll-and-diff loop over a fixed set of targets. All work
// happens on the goroutine calling Initialize, Tick and Run.
type Watcher struct {
	src     Source
	changes ChangeLogger
	opts    Options
	store   *snapshot.Store
	handles map[string]int64
	targets []string
	machine *status.Machine
	bus     *bus.Bus
	logger  *zap.Logger
	ticks   uint64
}

// New creates a watcher. machine, b and logger may be nil.
func New(src Source, changes ChangeLogger, opts Options, machine *status.Machine, b *bus.Bus, logger *zap.Logger) *Watcher {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Compare == nil {
		opts.Compare = snapshot.Changed
	}
	if opts.Scope == "" {
		opts.Scope = chatdb.ScopeHandle
	}
	if machine == nil {
		machine = status.NewMachine(b)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		src:     src,
		changes: changes,
		opts:    opts,
		store:   snapshot.NewStore(),
		handles: make(map[string]int64),
		machine: machine,
		bus:     b,
		logger:  logger,
	}
}

// Initialize resolves every target and takes the first snapshot of each.
func (w *Watcher) Initialize(ctx context.Context) error {
	if err := w.machine.Transition(status.Initializing); err != nil {
		return err
	}
	err := w.initialize(ctx)
	if err != nil {
		_ = w.machine.Transition(status.Error)
		return err
	}
	return w.machine.Transition(status.Watching)
}

func (w *Watcher) initialize(ctx context.Context) error {
	for _, target := range w.opts.Targets {
		handleID, err := w.src.ResolveHandle(ctx, target, w.opts.Service)
		if errors.Is(err, chatdb.ErrHandleNotFound) && w.opts.SkipMissingTargets {
			w.logger.Warn("skipping target", zap.String("target", target), zap.Error(err))
			w.bus.Emit(bus.KindTargetSkipped, target)
			continue
		}
		if err != nil {
			return err
		}
		w.handles[target] = handleID
		w.targets = append(w.targets, target)
	}
	if len(w.targets) == 0 {
		return ErrNoTargets
	}

	for _, target := range w.targets {
		snap, err := w.fetch(ctx, target)
		if err != nil {
			return err
		}
		w.store.Put(target, snap)
		w.logger.Info("initial snapshot",
			zap.String("target", target),
			zap.Int64("handle_id", w.handles[target]),
			zap.Int64s("ids", snap.IDs()))
	}
	w.logger.Info("watching", zap.Strings("targets", w.targets), zap.Duration("interval", w.opts.Interval))
	return nil
}

// Tick polls every target once, in order, and returns how many changed.
func (w *Watcher) Tick(ctx context.Context) (int, error) {
	changes := 0
	for _, target := range w.targets {
		fresh, err := w.fetch(ctx, target)
		if err != nil {
			return changes, err
		}
		prev, _ := w.store.Get(target)
		if w.opts.Compare(prev, fresh) {
			if err := w.changes.Write(target, prev); err != nil {
				return changes, fmt.Errorf("log change for %s: %w", target, err)
			}
			w.report(target, prev, fresh)
			changes++
		}
		w.store.Put(target, fresh)
	}
	w.ticks++
	w.bus.Emit(bus.KindTick, bus.Tick{N: w.ticks, Targets: len(w.targets), Changes: changes})
	return changes, nil
}

func (w *Watcher) report(target string, stale, fresh snapshot.Snapshot) {
	evt := bus.ChangeDetected{
		ID:       uuid.NewString(),
		Target:   target,
		StaleIDs: stale.IDs(),
		FreshIDs: fresh.IDs(),
	}
	w.logger.Info("difference noticed",
		zap.String("event_id", evt.ID),
		zap.String("target", target),
		zap.Int64s("stale_ids", evt.StaleIDs),
		zap.Int64s("fresh_ids", evt.FreshIDs))
	w.bus.Emit(bus.KindChangeDetected, evt)
}

// Run ticks until ctx is cancelled, waiting the poll interval between ticks.
// It returns nil on cancellation and the first tick error otherwise.
func (w *Watcher) Run(ctx context.Context) error {
	if st := w.machine.Current(); st != status.Watching {
		return fmt.Errorf("watcher is %s, not %s", st, status.Watching)
	}
	timer := time.NewTimer(w.opts.Interval)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return w.stop()
		}
		if _, err := w.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				return w.stop()
			}
			_ = w.machine.Transition(status.Error)
			return err
		}
		timer.Reset(w.opts.Interval)
		select {
		case <-ctx.Done():
			return w.stop()
		case <-timer.C:
		}
	}
}

func (w *Watcher) stop() error {
	_ = w.machine.Transition(status.Stopped)
	w.logger.Info("watcher stopped", zap.Uint64("ticks", w.ticks))
	return nil
}

func (w *Watcher) fetch(ctx context.Context, target string) (snapshot.Snapshot, error) {
	rows, err := w.src.LatestMessages(ctx, chatdb.Query{
		HandleID:      w.handles[target],
		Limit:         w.opts.Window,
		ExcludeFromMe: !w.opts.IncludeFromMe,
		Scope:         w.opts.Scope,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	recs, err := message.NormalizeAll(rows, w.opts.Location)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	return snapshot.Snapshot(recs), nil
}

// Targets returns the targets being watched, in polling order.
func (w *Watcher) Targets() []string {
	return append([]string(nil), w.targets...)
}

// Snapshot returns the stored snapshot for target.
func (w *Watcher) Snapshot(target string) (snapshot.Snapshot, bool) {
	return w.store.Get(target)
}

// State returns the watcher's lifecycle state.
func (w *Watcher) State() status.State {
	return w.machine.Current()
}
