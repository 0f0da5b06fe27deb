// Package app assembles the bot core from configuration: storage, the event
// waiter, session and cooldown trackers, the command registry, the worker pool,
// the dispatcher, the bus adapter and the background jobs.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/keshon/lakebot/internal/bus"
	"github.com/keshon/lakebot/internal/command"
	"github.com/keshon/lakebot/internal/config"
	"github.com/keshon/lakebot/internal/datastore"
	"github.com/keshon/lakebot/internal/dispatcher"
	"github.com/keshon/lakebot/internal/event"
	"github.com/keshon/lakebot/internal/gateway"
	"github.com/keshon/lakebot/internal/logging"
	"github.com/keshon/lakebot/internal/report"
	"github.com/keshon/lakebot/pkg/jobmgr"
	"github.com/keshon/lakebot/pkg/pool"
	"github.com/keshon/lakebot/pkg/retrylimit"
)

// Options are the pieces the entrypoint supplies; everything else is built
// from Config.
type Options struct {
	Config      *config.Config
	Gateway     gateway.Gateway
	Permissions command.Permissions
	Limiter     *retrylimit.AdaptiveLimiter
	Log         *logging.Logger

	BotName string
	// Shutdown is called by the shutdown command.
	Shutdown func()
	Latency  func() time.Duration
}

// InitError names the component that failed to start.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("init %s: %v", e.Component, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// App is a running bot core. Feed it events through Forward and Close it once.
type App struct {
	Config     *config.Config
	Log        *logging.Logger
	Store      *datastore.DataStore
	Services   *command.Services
	Pool       *pool.Pool
	Dispatcher *dispatcher.Dispatcher
	Bus        *bus.Adapter
	Jobs       *jobmgr.Manager
	// Commands lists the registered command names.
	Commands []string

	stopJobs  context.CancelFunc
	initOrder []string
	closeOnce sync.Once
	closeErr  error
}

// New builds and starts the core. On failure every component that was
// already started is torn down again.
func New(ctx context.Context, opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("app: config is required")
	}
	if opts.Gateway == nil {
		return nil, errors.New("app: gateway is required")
	}
	if opts.Log == nil {
		opts.Log = logging.Nop()
	}
	a := &App{Config: opts.Config, Log: opts.Log}
	b := &bootstrapper{app: a, opts: opts}
	if err := b.bootstrap(ctx); err != nil {
		return nil, err
	}
	a.Log.Info().Int("commands", len(a.Commands)).Strs("components", a.initOrder).Msg("core started")
	return a, nil
}

// Forward hands one gateway event to the core.
func (a *App) Forward(ctx context.Context, ev *event.Event) {
	a.Bus.Forward(ctx, ev)
}

// SetIdentity records the bot's own account once the gateway knows it.
func (a *App) SetIdentity(id, name string) {
	a.Services.BotID = id
	if name != "" {
		a.Services.BotName = name
	}
}

// Close stops the background jobs, cancels pending awaits, drains the worker
// pool and flushes storage. ctx bounds the whole shutdown. Only the first call
// does anything.
func (a *App) Close(ctx context.Context) error {
	a.closeOnce.Do(func() { a.closeErr = a.close(ctx) })
	return a.closeErr
}

func (a *App) close(ctx context.Context) error {
	var errs []error
	if a.stopJobs != nil {
		a.stopJobs()
		if err := a.Jobs.Wait(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	// In-flight flows block on awaits; cancel them before draining the pool.
	if a.Services != nil {
		a.Services.Waiter.Close()
	}
	if a.Pool != nil {
		if err := a.Pool.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop pool: %w", err))
		}
	}
	if a.Services != nil && a.Services.Storage != nil {
		if err := a.Services.Storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	a.Log.Info().Msg("core stopped")
	return errors.Join(errs...)
}

func (a *App) reporter(opts Options) report.Reporter {
	if len(opts.Config.DeveloperIDs) == 0 {
		return report.Log{Log: a.Log}
	}
	return report.Operators{Gateway: opts.Gateway, Operators: opts.Config.DeveloperIDs, Log: a.Log}
}
