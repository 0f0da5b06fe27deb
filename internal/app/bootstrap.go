package app

import (
	"context"
	"time"

	"github.com/keshon/lakebot/internal/bus"
	"github.com/keshon/lakebot/internal/command"
	"github.com/keshon/lakebot/internal/commands"
	"github.com/keshon/lakebot/internal/cooldown"
	"github.com/keshon/lakebot/internal/datastore"
	"github.com/keshon/lakebot/internal/dispatcher"
	"github.com/keshon/lakebot/internal/middleware"
	"github.com/keshon/lakebot/internal/session"
	"github.com/keshon/lakebot/internal/status"
	"github.com/keshon/lakebot/internal/storage"
	"github.com/keshon/lakebot/internal/waiter"
	"github.com/keshon/lakebot/pkg/cmd"
	"github.com/keshon/lakebot/pkg/jobmgr"
	"github.com/keshon/lakebot/pkg/pool"
	"github.com/keshon/lakebot/pkg/retrylimit"
)

const DefaultBotName = "LakeBot"

type bootstrapper struct {
	app  *App
	opts Options
}

// bootstrap initializes the components in dependency order and cleans up the
// ones already started when a later step fails.
func (b *bootstrapper) bootstrap(ctx context.Context) error {
	steps := []func(context.Context) error{
		b.initStorage,
		b.initServices,
		b.initCommands,
		b.initPool,
		b.initDispatch,
		b.initJobs,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			b.cleanup()
			return err
		}
	}
	return nil
}

func (b *bootstrapper) initStorage(context.Context) error {
	dcfg := datastore.DefaultConfig(b.opts.Config.StoragePath)
	dcfg.Log = b.app.Log
	ds, err := datastore.NewWithConfig(dcfg)
	if err != nil {
		return &InitError{Component: "datastore", Err: err}
	}
	b.app.Store = ds
	b.app.initOrder = append(b.app.initOrder, "datastore")
	return nil
}

func (b *bootstrapper) initServices(context.Context) error {
	cfg := b.opts.Config
	lim := b.opts.Limiter
	if lim == nil {
		lim = retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5)
	}
	name := b.opts.BotName
	if name == "" {
		name = DefaultBotName
	}
	shutdown := b.opts.Shutdown
	if shutdown == nil {
		shutdown = func() {}
	}
	b.app.Services = &command.Services{
		Gateway:      b.opts.Gateway,
		Waiter:       waiter.New(b.app.Log),
		Sessions:     session.NewTracker(),
		Cooldowns:    cooldown.New(),
		Storage:      storage.New(b.app.Store, cfg.DefaultPrefix),
		Registry:     cmd.NewRegistry(),
		Permissions:  b.opts.Permissions,
		Limiter:      lim,
		Log:          b.app.Log,
		BotName:      name,
		Developers:   cfg.DeveloperIDs,
		AwaitTimeout: cfg.AwaitTimeout,
		Started:      time.Now(),
		Shutdown:     shutdown,
		Latency:      b.opts.Latency,
	}
	b.app.initOrder = append(b.app.initOrder, "services")
	return nil
}

func (b *bootstrapper) initCommands(context.Context) error {
	b.app.Commands = commands.RegisterAll(b.app.Services.Registry, commands.All(), b.opts.Config.Commands, middleware.Defaults()...)
	b.app.initOrder = append(b.app.initOrder, "commands")
	return nil
}

func (b *bootstrapper) initPool(context.Context) error {
	log := b.app.Log.Sub("pool")
	p := pool.New(
		pool.WithWorkers(b.opts.Config.Workers),
		pool.WithQueueSize(b.opts.Config.QueueSize),
		pool.WithPanicHandler(func(recovered any, stack []byte) {
			log.Error().Interface("panic", recovered).Bytes("stack", stack).Msg("task panicked")
		}),
	)
	if err := p.Start(); err != nil {
		return &InitError{Component: "pool", Err: err}
	}
	b.app.Pool = p
	b.app.initOrder = append(b.app.initOrder, "pool")
	return nil
}

func (b *bootstrapper) initDispatch(context.Context) error {
	rep := b.app.reporter(b.opts)
	b.app.Dispatcher = dispatcher.New(b.app.Services, b.app.Pool, rep)
	b.app.Bus = bus.New(b.app.Services.Waiter, b.app.Dispatcher, rep, b.app.Log)
	b.app.initOrder = append(b.app.initOrder, "dispatcher")
	return nil
}

func (b *bootstrapper) initJobs(ctx context.Context) error {
	cfg := b.opts.Config
	jobsCtx, stop := context.WithCancel(ctx)
	jobs := jobmgr.NewManager(jobsCtx, b.app.Log.Sub("jobs").Zerolog())
	b.app.Jobs = jobs
	b.app.stopJobs = stop
	b.app.initOrder = append(b.app.initOrder, "jobs")

	if cfg.CooldownSweep > 0 {
		cooldowns := b.app.Services.Cooldowns
		log := b.app.Log.Sub("cooldown")
		err := jobs.Start("cooldown-janitor", func(ctx context.Context) error {
			cooldowns.Run(ctx, cfg.CooldownSweep, log)
			return nil
		})
		if err != nil {
			return &InitError{Component: "cooldown janitor", Err: err}
		}
	}

	if cfg.StatusAddr != "" {
		srv := &status.Server{
			Waiter:    b.app.Services.Waiter,
			Sessions:  b.app.Services.Sessions,
			Cooldowns: b.app.Services.Cooldowns,
			Pool:      b.app.Pool,
			Bus:       b.app.Bus,
			Store:     b.app.Store,
			Registry:  b.app.Services.Registry,
			Jobs:      jobs,
			Started:   b.app.Services.Started,
			Log:       b.app.Log,
		}
		if err := jobs.Start("status", func(ctx context.Context) error {
			return srv.Run(ctx, cfg.StatusAddr)
		}); err != nil {
			return &InitError{Component: "status server", Err: err}
		}
	}
	return nil
}

// cleanup tears down whatever bootstrap managed to start, in reverse order.
func (b *bootstrapper) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(b.app.initOrder) - 1; i >= 0; i-- {
		switch b.app.initOrder[i] {
		case "jobs":
			b.app.stopJobs()
			_ = b.app.Jobs.Wait(ctx)
		case "pool":
			_ = b.app.Pool.Stop(ctx)
		case "services":
			b.app.Services.Waiter.Close()
		case "datastore":
			_ = b.app.Store.Close()
		}
	}
}
