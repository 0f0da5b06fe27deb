// cmd/discord/main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/keshon/lakebot/internal/app"
	"github.com/keshon/lakebot/internal/config"
	"github.com/keshon/lakebot/internal/discord"
	"github.com/keshon/lakebot/internal/logging"
	"github.com/keshon/lakebot/pkg/retrylimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "info").Fatal().Err(err).Msg("failed to load config")
	}
	log := newLogger(cfg)
	if err := cfg.RequireToken(); err != nil {
		log.Fatal().Err(err).Msg("cannot start")
	}
	log.Info().Str("prefix", cfg.DefaultPrefix).Msg("starting bot")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bot, err := discord.NewBot(cfg.DiscordToken, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create discord session")
	}
	lim := retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5)
	gw := discord.NewGateway(bot.Session(), lim)

	core, err := app.New(ctx, app.Options{
		Config:      cfg,
		Gateway:     gw,
		Permissions: gw,
		Limiter:     lim,
		Log:         log,
		Shutdown:    cancel,
		Latency:     bot.Latency,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start core")
	}

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx, core.Forward, func(self discord.Self) {
			core.SetIdentity(self.ID, self.Username)
		}); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("shutting down")
		cancel()
	case err := <-core.Jobs.Errors():
		log.Error().Err(err).Msg("background job failed")
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("discord bot error")
		}
		cancel()
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Msg("discord session closed with error")
	}
	if err := core.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("unclean shutdown")
	}
	log.Info().Msg("discord bot exited cleanly")
}

func newLogger(cfg *config.Config) *logging.Logger {
	if cfg.LogFile != "" {
		return logging.NewWithFile(cfg.LogFile, cfg.LogLevel)
	}
	return logging.New(os.Stderr, cfg.LogLevel)
}
