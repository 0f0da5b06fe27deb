// Package session tracks which users have an interactive flow open in which
// channel, so a second command cannot start on top of a running conversation.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrBusy is returned by Begin when one of the users already has a flow open
// in the channel.
var ErrBusy = errors.New("session: user already has an open flow in this channel")

// Process is an open interactive flow.
type Process struct {
	ID        string
	Command   string
	ChannelID string
	Users     []string
	Started   time.Time
}

type key struct {
	channel string
	user    string
}

// Tracker owns the set of open processes.
type Tracker struct {
	mu    sync.RWMutex
	byKey map[key]*Process
	byID  map[string]*Process
}

func NewTracker() *Tracker {
	return &Tracker{
		byKey: make(map[key]*Process),
		byID:  make(map[string]*Process),
	}
}

// Begin opens a process for command in channelID with the given users. The
// check and the insert are atomic: either every user is marked or none is.
func (t *Tracker) Begin(command, channelID string, users ...string) (*Process, error) {
	if len(users) == 0 {
		return nil, errors.New("session: no users")
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, u := range users {
		if _, ok := t.byKey[key{channelID, u}]; ok {
			return nil, ErrBusy
		}
	}
	p := &Process{
		ID:        uuid.NewString(),
		Command:   command,
		ChannelID: channelID,
		Users:     append([]string(nil), users...),
		Started:   time.Now(),
	}
	for _, u := range users {
		t.byKey[key{channelID, u}] = p
	}
	t.byID[p.ID] = p
	return p, nil
}

// End closes a process. Ending an unknown or already ended process is a no-op.
func (t *Tracker) End(p *Process) {
	if p == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byID[p.ID]; !ok {
		return
	}
	delete(t.byID, p.ID)
	for _, u := range p.Users {
		if cur := t.byKey[key{p.ChannelID, u}]; cur == p {
			delete(t.byKey, key{p.ChannelID, u})
		}
	}
}

// Active returns the process userID has open in channelID, if any.
func (t *Tracker) Active(userID, channelID string) (*Process, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.byKey[key{channelID, userID}]
	return p, ok
}

// Len returns the number of open processes.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}

// List returns a snapshot of open processes.
func (t *Tracker) List() []Process {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Process, 0, len(t.byID))
	for _, p := range t.byID {
		out = append(out, *p)
	}
	return out
}
