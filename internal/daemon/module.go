// Package daemon composes the watcher process with fx.
package daemon

import (
	"context"

	"github.com/matheus3301/imsgwatch/internal/bus"
	"github.com/matheus3301/imsgwatch/internal/changelog"
	"github.com/matheus3301/imsgwatch/internal/chatdb"
	"github.com/matheus3301/imsgwatch/internal/config"
	"github.com/matheus3301/imsgwatch/internal/lock"
	"github.com/matheus3301/imsgwatch/internal/logging"
	"github.com/matheus3301/imsgwatch/internal/paths"
	"github.com/matheus3301/imsgwatch/internal/status"
	"github.com/matheus3301/imsgwatch/internal/watch"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Params holds the validated configuration passed to the fx module.
type Params struct {
	Config  *config.Config
	LogPath string // optional override for testing; empty = use default
	Verbose bool
}

// Module returns the fx module for the watcher daemon.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideChatDB,
			provideChangeLog,
			provideWatcher,
			provideServer,
		),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx").WithOptions(zap.IncreaseLevel(zapcore.WarnLevel))}
		}),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	logPath := p.LogPath
	if logPath == "" {
		logPath = paths.LogPath()
	}
	level := zapcore.InfoLevel
	if p.Verbose {
		level = zapcore.DebugLevel
	}
	return logging.New(logPath, level)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(lc fx.Lifecycle, p Params, logger *zap.Logger) (*lock.Lock, error) {
	l, err := lock.Acquire(p.Config.ChangeLogPath)
	if err != nil {
		return nil, err
	}
	logger.Info("change log lock acquired", zap.String("path", l.Path()))
	lc.Append(fx.StopHook(func() {
		if err := l.Release(); err != nil {
			logger.Warn("error releasing lock", zap.Error(err))
		}
	}))
	return l, nil
}

func provideChatDB(lc fx.Lifecycle, p Params, logger *zap.Logger) (*chatdb.DB, error) {
	db, err := chatdb.Open(p.Config.ChatDBPath, p.Config.QueryTimeout.Duration)
	if err != nil {
		return nil, err
	}
	logger.Info("chat db opened", zap.String("path", db.Path()))
	lc.Append(fx.StopHook(db.Close))
	return db, nil
}

// provideChangeLog depends on the lock so that only the lock holder writes.
func provideChangeLog(p Params, _ *lock.Lock) (*changelog.Writer, error) {
	w, err := changelog.New(p.Config.ChangeLogPath)
	if err != nil {
		return nil, err
	}
	if err := w.Check(); err != nil {
		return nil, err
	}
	return w, nil
}

func provideWatcher(p Params, db *chatdb.DB, changes *changelog.Writer, m *status.Machine, b *bus.Bus, logger *zap.Logger) (*watch.Watcher, error) {
	opts, err := p.Config.WatchOptions()
	if err != nil {
		return nil, err
	}
	return watch.New(db, changes, opts, m, b, logger.Named("watch")), nil
}

func provideServer(lc fx.Lifecycle, p Params, _ *lock.Lock, m *status.Machine, b *bus.Bus, logger *zap.Logger) (*Server, error) {
	socketPath := p.Config.SocketPath
	if socketPath == "" {
		socketPath = paths.SocketPath()
	}
	srv, err := NewServer(socketPath, m, b, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("health server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			srv.Stop(ctx)
			return nil
		},
	})
	return srv, nil
}

// registerLifecycle takes the first snapshot during start, so a missing
// target fails startup, then runs the loop until stop. A loop failure shuts
// the app down with exit code 1.
func registerLifecycle(lc fx.Lifecycle, sd fx.Shutdowner, w *watch.Watcher, _ *Server, logger *zap.Logger) {
	var cancel context.CancelFunc
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := w.Initialize(ctx); err != nil {
				return err
			}
			runCtx, c := context.WithCancel(context.Background())
			cancel = c
			go func() {
				defer close(done)
				if err := w.Run(runCtx); err != nil {
					logger.Error("watcher failed", zap.Error(err))
					_ = sd.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-ctx.Done():
				return ctx.Err()
			}
			logger.Info("watcher daemon stopped")
			return nil
		},
	})
}
