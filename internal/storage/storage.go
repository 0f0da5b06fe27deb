// Package storage keeps per-guild bot configuration and the global sanction
// list in the JSON document store.
package storage

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/keshon/lakebot/internal/datastore"
)

const (
	commandHistoryLimit = 20
	sanctionsKey        = "sanctions"
	guildKeyPrefix      = "guild:"
)

type CommandHistoryRecord struct {
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Command   string    `json:"command"`
	Param     string    `json:"param"`
	Datetime  time.Time `json:"datetime"`
}

// Record is everything stored for one guild.
type Record struct {
	Prefix              string                 `json:"prefix,omitempty"`
	MuteRoleID          string                 `json:"mute_role_id,omitempty"`
	CommandsHistoryList []CommandHistoryRecord `json:"cmd_history"`
}

// Sanction bars a user from running commands anywhere.
type Sanction struct {
	UserID string    `json:"user_id"`
	Reason string    `json:"reason"`
	By     string    `json:"by"`
	At     time.Time `json:"at"`
}

type Storage struct {
	ds            *datastore.DataStore
	defaultPrefix string
	// mu serializes read-modify-write cycles on records.
	mu sync.Mutex
}

func New(ds *datastore.DataStore, defaultPrefix string) *Storage {
	return &Storage{ds: ds, defaultPrefix: defaultPrefix}
}

// Close flushes the underlying store.
func (s *Storage) Close() error {
	return s.ds.Close()
}

func guildKey(guildID string) string { return guildKeyPrefix + guildID }

func (s *Storage) record(guildID string) (*Record, error) {
	var r Record
	if _, err := s.ds.Get(guildKey(guildID), &r); err != nil {
		return nil, err
	}
	if len(r.CommandsHistoryList) > commandHistoryLimit {
		r.CommandsHistoryList = r.CommandsHistoryList[len(r.CommandsHistoryList)-commandHistoryLimit:]
	}
	return &r, nil
}

func (s *Storage) update(guildID string, fn func(*Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.record(guildID)
	if err != nil {
		return err
	}
	fn(r)
	return s.ds.Put(guildKey(guildID), r)
}

// DefaultPrefix is the prefix used by guilds that never set one.
func (s *Storage) DefaultPrefix() string { return s.defaultPrefix }

// Prefix returns the guild's command prefix. Direct messages and guilds without
// a custom prefix get the default.
func (s *Storage) Prefix(guildID string) (string, error) {
	if guildID == "" {
		return s.defaultPrefix, nil
	}
	r, err := s.record(guildID)
	if err != nil {
		return s.defaultPrefix, err
	}
	if r.Prefix == "" {
		return s.defaultPrefix, nil
	}
	return r.Prefix, nil
}

func (s *Storage) SetPrefix(guildID, prefix string) error {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || strings.ContainsAny(prefix, " \t\n") {
		return fmt.Errorf("invalid prefix %q", prefix)
	}
	return s.update(guildID, func(r *Record) { r.Prefix = prefix })
}

// ResetPrefix reverts the guild to the default prefix.
func (s *Storage) ResetPrefix(guildID string) error {
	return s.update(guildID, func(r *Record) { r.Prefix = "" })
}

func (s *Storage) MuteRole(guildID string) (string, error) {
	r, err := s.record(guildID)
	if err != nil {
		return "", err
	}
	return r.MuteRoleID, nil
}

// SetMuteRole stores the guild's mute role; an empty id clears it.
func (s *Storage) SetMuteRole(guildID, roleID string) error {
	return s.update(guildID, func(r *Record) { r.MuteRoleID = roleID })
}

// AppendCommandToHistory records a command run, keeping the latest entries only.
func (s *Storage) AppendCommandToHistory(guildID string, rec CommandHistoryRecord) error {
	return s.update(guildID, func(r *Record) {
		r.CommandsHistoryList = append(r.CommandsHistoryList, rec)
		if n := len(r.CommandsHistoryList); n > commandHistoryLimit {
			r.CommandsHistoryList = r.CommandsHistoryList[n-commandHistoryLimit:]
		}
	})
}

func (s *Storage) FetchCommandHistory(guildID string) ([]CommandHistoryRecord, error) {
	r, err := s.record(guildID)
	if err != nil {
		return nil, err
	}
	return r.CommandsHistoryList, nil
}

func (s *Storage) sanctions() (map[string]Sanction, error) {
	m := make(map[string]Sanction)
	if _, err := s.ds.Get(sanctionsKey, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Sanctioned returns the user's sanction, if any.
func (s *Storage) Sanctioned(userID string) (Sanction, bool, error) {
	m, err := s.sanctions()
	if err != nil {
		return Sanction{}, false, err
	}
	sn, ok := m[userID]
	return sn, ok, nil
}

func (s *Storage) AddSanction(sn Sanction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.sanctions()
	if err != nil {
		return err
	}
	if sn.At.IsZero() {
		sn.At = time.Now()
	}
	m[sn.UserID] = sn
	return s.ds.Put(sanctionsKey, m)
}

// RemoveSanction lifts a sanction and reports whether there was one.
func (s *Storage) RemoveSanction(userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.sanctions()
	if err != nil {
		return false, err
	}
	if _, ok := m[userID]; !ok {
		return false, nil
	}
	delete(m, userID)
	return true, s.ds.Put(sanctionsKey, m)
}

// Sanctions lists every sanction.
func (s *Storage) Sanctions() ([]Sanction, error) {
	m, err := s.sanctions()
	if err != nil {
		return nil, err
	}
	out := make([]Sanction, 0, len(m))
	for _, sn := range m {
		out = append(out, sn)
	}
	return out, nil
}
