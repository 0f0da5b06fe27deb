// Package jobmgr runs named background jobs under a shared parent context and
// tracks which of them are still alive.
//
// Typical usage:
//
//	jm := jobmgr.NewManager(ctx, log)
//	_ = jm.Start("cooldown-janitor", func(ctx context.Context) error {
//	    tracker.Run(ctx, time.Minute, logger)
//	    return nil
//	})
//	...
//	cancel()
//	_ = jm.Wait(shutdownCtx)
//
// A job that returns an error is reported on Errors; the manager does not
// restart it.
package jobmgr

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	ErrAlreadyRunning = errors.New("jobmgr: job already running")
	ErrNotRunning     = errors.New("jobmgr: job not running")
)

// Runner is the body of a job. It must return once ctx is done.
type Runner func(ctx context.Context) error

// Job is a running unit of work.
type Job struct {
	Name   string
	cancel context.CancelFunc
}

// Manager is safe for concurrent use.
type Manager struct {
	parent context.Context
	log    zerolog.Logger

	mu   sync.Mutex
	jobs map[string]*Job
	wg   sync.WaitGroup
	errs chan error
}

// NewManager creates a Manager whose jobs all end when parent does.
func NewManager(parent context.Context, log zerolog.Logger) *Manager {
	return &Manager{
		parent: parent,
		log:    log,
		jobs:   make(map[string]*Job),
		errs:   make(chan error, 16),
	}
}

// Start runs a job in its own goroutine and returns immediately.
func (m *Manager) Start(name string, run Runner) error {
	m.mu.Lock()
	if _, exists := m.jobs[name]; exists {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, name)
	}
	ctx, cancel := context.WithCancel(m.parent)
	job := &Job{Name: name, cancel: cancel}
	m.jobs[name] = job
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer cancel()
		m.log.Debug().Str("job", name).Msg("job running")

		err := run(ctx)

		m.mu.Lock()
		if m.jobs[name] == job {
			delete(m.jobs, name)
		}
		m.mu.Unlock()

		if err != nil && !errors.Is(err, context.Canceled) {
			m.log.Error().Err(err).Str("job", name).Msg("job failed")
			select {
			case m.errs <- fmt.Errorf("job %s: %w", name, err):
			default:
			}
			return
		}
		m.log.Debug().Str("job", name).Msg("job done")
	}()
	return nil
}

// Stop cancels a running job by name.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRunning, name)
	}
	job.cancel()
	delete(m.jobs, name)
	return nil
}

// List returns the names of active jobs, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	out := make([]string, 0, len(m.jobs))
	for k := range m.jobs {
		out = append(out, k)
	}
	m.mu.Unlock()
	slices.Sort(out)
	return out
}

// Status returns a human-readable summary of active jobs.
func (m *Manager) Status() string {
	active := m.List()
	if len(active) == 0 {
		return "No jobs are running."
	}
	return fmt.Sprintf("Running jobs: %s", strings.Join(active, ", "))
}

// Errors delivers the failures of jobs that returned an error.
func (m *Manager) Errors() <-chan error {
	return m.errs
}

// Wait blocks until every job has returned or ctx ends.
func (m *Manager) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("jobmgr: still running %v: %w", m.List(), ctx.Err())
	}
}
