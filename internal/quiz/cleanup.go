// internal/quiz/cleanup.go
package quiz

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Reaper defaults; overridable through ReaperConfig.
const (
	DefaultReaperTick    = 60 * time.Second
	DefaultLobbyTTL      = 20 * time.Minute
	DefaultInProgressTTL = 60 * time.Minute
)

// ReaperConfig tunes the cleanup cadence and the phase-dependent TTLs.
type ReaperConfig struct {
	Tick          time.Duration
	LobbyTTL      time.Duration
	InProgressTTL time.Duration // also applies to Finished rooms
}

func (c ReaperConfig) withDefaults() ReaperConfig {
	if c.Tick <= 0 {
		c.Tick = DefaultReaperTick
	}
	if c.LobbyTTL <= 0 {
		c.LobbyTTL = DefaultLobbyTTL
	}
	if c.InProgressTTL <= 0 {
		c.InProgressTTL = DefaultInProgressTTL
	}
	return c
}

// SessionReaper bounds memory by evicting rooms whose last activity is older
// than their phase's TTL. Eviction is unconditional: an inactive room has no
// traffic to race with, and any in-flight transition finishes against an
// object new lookups can no longer reach.
type SessionReaper struct {
	store *Store
	cfg   ReaperConfig
	log   *logrus.Logger
}

// NewSessionReaper builds a reaper over the store.
func NewSessionReaper(store *Store, cfg ReaperConfig, log *logrus.Logger) *SessionReaper {
	return &SessionReaper{store: store, cfg: cfg.withDefaults(), log: log}
}

// Run ticks until the context is cancelled.
func (r *SessionReaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Tick)
	defer ticker.Stop()

	r.log.WithFields(logrus.Fields{
		"tick":            r.cfg.Tick,
		"lobby_ttl":       r.cfg.LobbyTTL,
		"in_progress_ttl": r.cfg.InProgressTTL,
	}).Info("session reaper started")
	for {
		select {
		case <-ctx.Done():
			r.log.Info("session reaper stopped")
			return
		case <-ticker.C:
			r.Sweep(time.Now())
		}
	}
}

// Sweep removes every expired room. Exported so tests can drive a tick
// directly.
func (r *SessionReaper) Sweep(now time.Time) {
	for _, s := range r.store.GetAllSessions() {
		s.Mu.Lock()
		phase := s.phase
		idle := now.Sub(s.lastActivity)
		s.Mu.Unlock()

		ttl := r.cfg.InProgressTTL
		if phase == PhaseLobby {
			ttl = r.cfg.LobbyTTL
		}
		if idle <= ttl {
			continue
		}

		if r.store.TryRemove(s.RoomCode()) {
			r.log.WithFields(logrus.Fields{
				"room":  s.RoomCode(),
				"phase": phase,
				"idle":  idle,
			}).Info("expired room reaped")
		}
	}
}
