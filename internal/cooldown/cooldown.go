// Package cooldown enforces a minimum interval between invocations of a
// command by the same user.
package cooldown

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/keshon/lakebot/internal/logging"
)

// Tracker maps (command, user) to the time the user may run the command again.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{entries: make(map[string]time.Time), now: time.Now}
}

// WithClock replaces the time source, for tests.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

func entryKey(command, userID string) string { return command + "|" + userID }

// Acquire installs a cooldown of d for (command, user) if none is running and
// reports true. When one is still running it reports false and how long is
// left. A zero d always succeeds and installs nothing.
func (t *Tracker) Acquire(command, userID string, d time.Duration) (bool, time.Duration) {
	if d <= 0 {
		return true, 0
	}
	k := entryKey(command, userID)
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()
	if until, ok := t.entries[k]; ok && now.Before(until) {
		return false, until.Sub(now)
	}
	t.entries[k] = now.Add(d)
	return true, 0
}

// Remaining returns how long (command, user) still has to wait, evicting the
// entry if it expired.
func (t *Tracker) Remaining(command, userID string) time.Duration {
	k := entryKey(command, userID)
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()
	until, ok := t.entries[k]
	if !ok {
		return 0
	}
	if !now.Before(until) {
		delete(t.entries, k)
		return 0
	}
	return until.Sub(now)
}

// Reset drops the cooldown for (command, user).
func (t *Tracker) Reset(command, userID string) {
	t.mu.Lock()
	delete(t.entries, entryKey(command, userID))
	t.mu.Unlock()
}

// Sweep evicts every expired entry and returns how many were removed.
func (t *Tracker) Sweep() int {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for k, until := range t.entries {
		if !now.Before(until) {
			delete(t.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of entries, expired ones included until swept.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Run sweeps expired entries every interval until ctx is done.
func (t *Tracker) Run(ctx context.Context, every time.Duration, log *logging.Logger) {
	if log == nil {
		log = logging.Nop()
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := t.Sweep(); n > 0 {
				log.Debug().Int("evicted", n).Msg("expired cooldowns swept")
			}
		}
	}
}

// Seconds rounds d up to whole seconds for display.
func Seconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
