// Package status exposes the bot's live registries over HTTP for health
// checks and debugging.
package status

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/keshon/lakebot/internal/bus"
	"github.com/keshon/lakebot/internal/cooldown"
	"github.com/keshon/lakebot/internal/datastore"
	"github.com/keshon/lakebot/internal/logging"
	"github.com/keshon/lakebot/internal/session"
	"github.com/keshon/lakebot/internal/waiter"
	"github.com/keshon/lakebot/pkg/cmd"
	"github.com/keshon/lakebot/pkg/jobmgr"
	"github.com/keshon/lakebot/pkg/pool"
)

// Server serves /healthz, /stats and /sessions. Every source is optional.
type Server struct {
	Waiter    *waiter.Waiter
	Sessions  *session.Tracker
	Cooldowns *cooldown.Tracker
	Pool      *pool.Pool
	Bus       *bus.Adapter
	Store     *datastore.DataStore
	Registry  *cmd.Registry
	Jobs      *jobmgr.Manager
	Started   time.Time
	Log       *logging.Logger
}

// Snapshot is the /stats payload.
type Snapshot struct {
	Uptime    string           `json:"uptime"`
	Commands  int              `json:"commands"`
	Awaits    map[string]int   `json:"awaits"`
	Sessions  int              `json:"sessions"`
	Cooldowns int              `json:"cooldowns"`
	Jobs      []string         `json:"jobs"`
	Pool      *pool.Stats      `json:"pool,omitempty"`
	Bus       *bus.Stats       `json:"bus,omitempty"`
	Store     *datastore.Stats `json:"store,omitempty"`
}

// Snapshot collects the current counters.
func (s *Server) Snapshot() Snapshot {
	snap := Snapshot{
		Uptime: time.Since(s.Started).Round(time.Second).String(),
		Awaits: map[string]int{},
	}
	if s.Registry != nil {
		snap.Commands = s.Registry.Len()
	}
	if s.Waiter != nil {
		for k, n := range s.Waiter.Pending() {
			snap.Awaits[k.String()] = n
		}
	}
	if s.Sessions != nil {
		snap.Sessions = s.Sessions.Len()
	}
	if s.Cooldowns != nil {
		snap.Cooldowns = s.Cooldowns.Len()
	}
	if s.Jobs != nil {
		snap.Jobs = s.Jobs.List()
	}
	if s.Pool != nil {
		st := s.Pool.Stats()
		snap.Pool = &st
	}
	if s.Bus != nil {
		st := s.Bus.Stats()
		snap.Bus = &st
	}
	if s.Store != nil {
		st := s.Store.Stats()
		snap.Store = &st
	}
	return snap
}

// Handler builds the gin engine.
func (s *Server) Handler() http.Handler {
	if s.Log == nil {
		s.Log = logging.Nop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), s.logger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.Snapshot())
	})
	r.GET("/sessions", func(c *gin.Context) {
		if s.Sessions == nil {
			c.JSON(http.StatusOK, []session.Process{})
			return
		}
		c.JSON(http.StatusOK, s.Sessions.List())
	})
	return r
}

func (s *Server) logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Log.Debug().Str("method", c.Request.Method).Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).Dur("took", time.Since(start)).Msg("status request")
	}
}

// Run serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Log.Info().Str("addr", addr).Msg("status server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
