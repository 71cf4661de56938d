package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"fieldtrack/internal/core/config"
	"fieldtrack/internal/features/tracking/adapters"
	"fieldtrack/internal/features/tracking/domain"
	"fieldtrack/internal/features/tracking/ports"
)

// ErrNoSession is returned when an actor has no live session.
var ErrNoSession = errors.New("no active session for actor")

// Manager enforces the one-live-session-per-actor rule. Every screen's
// request for an actor is handed the same Session by reference; a session is
// created on the first Start and evicted when the day ends, so two samplers
// can never double-count one actor's distance.
type Manager struct {
	policy domain.Policy
	tcfg   config.TrackingConfig
	store  ports.JourneyStore
	clock  Clock
	log    *zap.Logger

	mu     sync.Mutex
	active map[string]*managedSession
}

type managedSession struct {
	session *Session
	watcher *adapters.PushWatcher
}

// NewManager creates a session manager over the given store and policy.
func NewManager(policy domain.Policy, tcfg config.TrackingConfig, store ports.JourneyStore, clock Clock, log *zap.Logger) *Manager {
	return &Manager{
		policy: policy,
		tcfg:   tcfg,
		store:  store,
		clock:  clock,
		log:    log,
		active: make(map[string]*managedSession),
	}
}

// Start begins or resumes tracking for the actor and returns the session
// snapshot. Resuming reuses the existing session, preserving distance and
// elapsed time within the day.
func (m *Manager) Start(ctx context.Context, actorID string) (Snapshot, error) {
	m.mu.Lock()
	ms, ok := m.active[actorID]
	if !ok {
		watcher := adapters.NewPushWatcher()
		ms = &managedSession{
			session: NewSession(actorID, m.policy, m.tcfg, watcher, m.store, m.clock, m.log),
			watcher: watcher,
		}
		m.active[actorID] = ms
	}
	m.mu.Unlock()

	if err := ms.session.Start(ctx); err != nil {
		return ms.session.Snapshot(), err
	}
	return ms.session.Snapshot(), nil
}

// Pause suspends tracking for the actor, keeping the session alive.
func (m *Manager) Pause(actorID string) (Snapshot, error) {
	ms, err := m.lookup(actorID)
	if err != nil {
		return Snapshot{}, err
	}
	if err := ms.session.Pause(); err != nil {
		return ms.session.Snapshot(), err
	}
	return ms.session.Snapshot(), nil
}

// End closes the actor's day and evicts the session; the next Start opens a
// fresh one.
func (m *Manager) End(ctx context.Context, actorID string) error {
	ms, err := m.lookup(actorID)
	if err != nil {
		return err
	}

	endErr := ms.session.End(ctx)

	m.mu.Lock()
	delete(m.active, actorID)
	m.mu.Unlock()

	return endErr
}

// Submit feeds a device reading into the actor's live session. While paused
// the watch subscription is detached and the reading is refused.
func (m *Manager) Submit(actorID string, r domain.Reading) error {
	ms, err := m.lookup(actorID)
	if err != nil {
		return err
	}
	return ms.watcher.Submit(r)
}

// Snapshot returns the actor's current session view.
func (m *Manager) Snapshot(actorID string) (Snapshot, error) {
	ms, err := m.lookup(actorID)
	if err != nil {
		return Snapshot{}, err
	}
	return ms.session.Snapshot(), nil
}

func (m *Manager) lookup(actorID string) (*managedSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms, ok := m.active[actorID]
	if !ok {
		return nil, ErrNoSession
	}
	return ms, nil
}
