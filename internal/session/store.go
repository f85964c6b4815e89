// Package session holds the in-memory per-group and per-user state shared by
// the feature handlers.
//
// All state lives for the lifetime of the process; nothing is persisted.
// Every read-modify-write goes through a single store mutex so concurrent
// handlers never observe a torn update to the same key.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/wenlin9/xdbot/internal/logger"
	"github.com/wenlin9/xdbot/pkg/constants"
)

// Target identifies one group chat on one platform.
type Target struct {
	Platform string
	Channel  string
}

// Key returns the map key scoping per-group state.
func (t Target) Key() string {
	return t.Platform + ":" + t.Channel
}

// UserKey returns the map key scoping per-user state inside a group.
func (t Target) UserKey(userID string) string {
	return t.Platform + ":" + t.Channel + ":" + userID
}

// GameSession is one blackjack round for a group.
// Active is false once the round finished (bust or stand).
type GameSession struct {
	Active     bool
	PlayerHand []string
	DealerHand []string
}

// SleepRecord is one pending good-night entry for a group member.
type SleepRecord struct {
	SleepTime time.Time
	ExpiresAt time.Time
}

// Store is the process-wide session state service. It is safe for
// concurrent use by multiple handler goroutines.
type Store struct {
	mu          sync.Mutex
	subscribers map[string]Target       // group key -> push target
	games       map[string]*GameSession // group key -> current round
	sleeps      map[string]SleepRecord  // user key -> pending record
	bindings    map[string]string       // group key -> server address
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		subscribers: make(map[string]Target),
		games:       make(map[string]*GameSession),
		sleeps:      make(map[string]SleepRecord),
		bindings:    make(map[string]string),
	}
}

// Subscribe adds a group to the daily push set. Subscribing twice is a no-op.
func (s *Store) Subscribe(t Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers[t.Key()] = t
}

// Unsubscribe removes a group from the daily push set.
// Removing a non-member is a no-op, not an error.
func (s *Store) Unsubscribe(t Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscribers, t.Key())
}

// Subscribers returns a snapshot of all subscribed groups.
func (s *Store) Subscribers() []Target {
	s.mu.Lock()
	defer s.mu.Unlock()

	targets := make([]Target, 0, len(s.subscribers))
	for _, t := range s.subscribers {
		targets = append(targets, t)
	}
	return targets
}

// SubscriberCount returns the size of the push set.
func (s *Store) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// PutGame installs a new round for the group, silently replacing any
// previous round whether or not it had finished.
func (s *Store) PutGame(group string, game *GameSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[group] = game
}

// GameActive reports whether the group has a round in progress.
func (s *Store) GameActive(group string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, ok := s.games[group]
	return ok && game.Active
}

// UpdateGame runs fn on the group's round while holding the store lock,
// so draw/stand mutations are atomic. Returns false if the group has no
// round in progress.
func (s *Store) UpdateGame(group string, fn func(*GameSession)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, ok := s.games[group]
	if !ok || !game.Active {
		return false
	}
	fn(game)
	return true
}

// RecordSleep stores a good-night entry for the user, replacing any
// existing entry together with its expiry deadline.
func (s *Store) RecordSleep(userKey string, at time.Time) SleepRecord {
	record := SleepRecord{
		SleepTime: at,
		ExpiresAt: at.Add(constants.SleepRecordTTL),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sleeps[userKey] = record
	return record
}

// TakeSleep removes and returns the user's pending record. The single
// guarded delete is what settles the race between a good-morning command
// and the expiry sweep.
func (s *Store) TakeSleep(userKey string) (SleepRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.sleeps[userKey]
	if ok {
		delete(s.sleeps, userKey)
	}
	return record, ok
}

// SweepExpiredSleeps drops every record whose deadline has passed and
// returns how many were dropped.
func (s *Store) SweepExpiredSleeps(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	swept := 0
	for key, record := range s.sleeps {
		if now.After(record.ExpiresAt) {
			delete(s.sleeps, key)
			swept++
		}
	}
	return swept
}

// RunSleepSweeper periodically removes expired sleep records until the
// context is cancelled. One sweep goroutine replaces a live timer per
// record.
func (s *Store) RunSleepSweeper(ctx context.Context) {
	ticker := time.NewTicker(constants.SleepSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("sleep-sweeper-stopped")
			return
		case now := <-ticker.C:
			if swept := s.SweepExpiredSleeps(now); swept > 0 {
				logger.WithField("swept", swept).Debug("expired-sleep-records-removed")
			}
		}
	}
}

// Bind sets the group's server address, overwriting any previous binding.
func (s *Store) Bind(group, address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings[group] = address
}

// Unbind removes the group's server binding. Returns false if none existed.
func (s *Store) Unbind(group string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.bindings[group]
	if ok {
		delete(s.bindings, group)
	}
	return ok
}

// Binding returns the group's bound server address, if any.
func (s *Store) Binding(group string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	address, ok := s.bindings[group]
	return address, ok
}
