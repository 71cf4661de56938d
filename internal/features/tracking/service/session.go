package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fieldtrack/internal/core/config"
	"fieldtrack/internal/features/tracking/domain"
	"fieldtrack/internal/features/tracking/ports"
)

// Phase is the lifecycle state of a tracking session.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseTracking Phase = "tracking"
	PhasePaused   Phase = "paused"
	PhaseEnded    Phase = "ended"
)

var (
	// ErrSessionEnded is returned when operating on an ended session.
	ErrSessionEnded = errors.New("session already ended")
	// ErrNotTracking is returned by Pause when the session is not tracking.
	ErrNotTracking = errors.New("session is not tracking")
)

// Snapshot is the read-only view exposed to the UI, refreshed on every
// accepted sample and timer tick.
type Snapshot struct {
	SessionID       string           `json:"session_id"`
	Phase           Phase            `json:"phase"`
	JourneyDate     string           `json:"journey_date,omitempty"`
	DistanceMeters  float64          `json:"distance_meters"`
	ElapsedSeconds  int64            `json:"elapsed_seconds"`
	CurrentPosition *domain.Position `json:"current_position,omitempty"`
	BatteryLevel    float64          `json:"battery_level"`
}

// Session orchestrates one actor's tracking day: it owns the position watch
// subscription, the elapsed-time ticker, the store flush ticker and the
// day-boundary monitor. Those four run concurrently; all shared state lives
// behind one mutex, and every start/stop goes through the state machine, so
// navigating screens while tracking can never leak a second sampler.
type Session struct {
	id      string
	actorID string
	policy  domain.Policy
	tcfg    config.TrackingConfig
	watcher ports.PositionWatcher
	store   ports.JourneyStore
	clock   Clock
	log     *zap.Logger

	mu              sync.Mutex
	phase           Phase
	journeyDate     string
	journeyID       string
	lastAccepted    *domain.Position
	acc             domain.DistanceAccumulator
	elapsedSeconds  int64
	batteryLevel    float64
	pending         []domain.SampleRecord
	pendingDistance float64
	sub             ports.Subscription
	timerStop       chan struct{}
	dayStop         chan struct{}

	timerWG sync.WaitGroup
	dayWG   sync.WaitGroup
	ioWG    sync.WaitGroup
}

// NewSession creates an idle session for one actor. Nothing runs until Start.
func NewSession(actorID string, policy domain.Policy, tcfg config.TrackingConfig, watcher ports.PositionWatcher, store ports.JourneyStore, clock Clock, log *zap.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:      id,
		actorID: actorID,
		policy:  policy,
		tcfg:    tcfg,
		watcher: watcher,
		store:   store,
		clock:   clock,
		phase:   PhaseIdle,
		log: log.With(
			zap.String("actor_id", actorID),
			zap.String("session_id", id),
		),
	}
}

// ActorID returns the actor this session tracks.
func (s *Session) ActorID() string {
	return s.actorID
}

// Start transitions Idle/Paused to Tracking: it subscribes to the position
// watcher and starts the elapsed and flush tickers. A permission refusal from
// the watcher leaves the session in its current phase and is returned to the
// caller. The day-boundary monitor starts with the first successful Start and
// keeps running through pauses.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case PhaseEnded:
		return ErrSessionEnded
	case PhaseTracking:
		return nil
	}

	opts := ports.WatchOptions{
		HighAccuracy:         false,
		Interval:             time.Duration(s.tcfg.SampleIntervalMillis) * time.Millisecond,
		FastestInterval:      time.Duration(s.tcfg.FastestIntervalMillis) * time.Millisecond,
		DistanceFilterMeters: s.tcfg.DistanceFilterMeters,
		Timeout:              time.Duration(s.tcfg.WatchTimeoutMillis) * time.Millisecond,
	}

	sub, err := s.watcher.Watch(ctx, opts, s.onReading, s.onWatchError)
	if err != nil {
		return fmt.Errorf("failed to start position watch: %w", err)
	}

	s.sub = sub
	s.phase = PhaseTracking
	if s.journeyDate == "" {
		s.journeyDate = domain.JourneyDate(s.clock.Now())
	}

	s.startTimersLocked()
	if s.dayStop == nil {
		s.startDayMonitorLocked()
	}

	s.log.Info("tracking started", zap.String("journey_date", s.journeyDate))
	return nil
}

// Pause transitions Tracking to Paused. The watch subscription and both
// tickers are stopped synchronously: once Pause returns, no callback fires
// until the next Start. Distance, elapsed time and the last accepted position
// are retained so the journey continues where it left off.
func (s *Session) Pause() error {
	s.mu.Lock()
	if s.phase != PhaseTracking {
		s.mu.Unlock()
		if s.phase == PhaseEnded {
			return ErrSessionEnded
		}
		return ErrNotTracking
	}
	sub := s.sub
	s.sub = nil
	s.phase = PhasePaused
	s.mu.Unlock()

	sub.Stop()
	s.stopTimers()

	s.log.Info("tracking paused",
		zap.Float64("distance_meters", s.Snapshot().DistanceMeters),
	)
	return nil
}

// End closes the day from any phase: stops the subscription, all tickers and
// the day monitor, flushes the final snapshot, and clears in-memory state.
// The cleared figures belong to the closed journey, not the next one.
func (s *Session) End(ctx context.Context) error {
	s.mu.Lock()
	if s.phase == PhaseEnded {
		s.mu.Unlock()
		return nil
	}
	sub := s.sub
	s.sub = nil
	wasTracking := s.phase == PhaseTracking
	s.phase = PhaseEnded
	s.mu.Unlock()

	if sub != nil {
		sub.Stop()
	}
	if wasTracking {
		s.stopTimers()
	}
	s.stopDayMonitor()
	s.ioWG.Wait()

	flushErr := s.flush(ctx)

	s.mu.Lock()
	s.lastAccepted = nil
	s.acc.Reset()
	s.elapsedSeconds = 0
	s.pending = nil
	s.pendingDistance = 0
	s.journeyDate = ""
	s.journeyID = ""
	s.mu.Unlock()

	s.log.Info("day ended")
	return flushErr
}

// Snapshot returns the current read-only session view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID:      s.id,
		Phase:          s.phase,
		JourneyDate:    s.journeyDate,
		DistanceMeters: s.acc.Total(),
		ElapsedSeconds: s.elapsedSeconds,
		BatteryLevel:   s.batteryLevel,
	}
	if s.lastAccepted != nil {
		pos := *s.lastAccepted
		snap.CurrentPosition = &pos
	}
	return snap
}

// onReading is the position callback. It filters against the single most
// recently accepted fix, advances the distance total exactly once at accept
// time, and queues the record for the next flush. No store I/O happens here.
func (s *Session) onReading(r domain.Reading) {
	s.mu.Lock()
	if s.phase != PhaseTracking {
		s.mu.Unlock()
		return
	}

	s.batteryLevel = r.BatteryLevel

	decision := s.policy.Evaluate(s.lastAccepted, r.Position, r.Kind)
	if !decision.Accepted() {
		s.mu.Unlock()
		s.log.Debug("sample rejected",
			zap.String("reason", string(decision.Kind)),
			zap.Float64("accuracy", r.Position.AccuracyMeters),
		)
		return
	}

	firstOfJourney := s.lastAccepted == nil
	total := s.acc.Apply(decision)
	pos := r.Position
	s.lastAccepted = &pos
	s.pending = append(s.pending, domain.SampleRecord{
		ID:             domain.NewSampleID(pos.CapturedAt),
		Latitude:       pos.Latitude,
		Longitude:      pos.Longitude,
		AccuracyMeters: pos.AccuracyMeters,
		BatteryLevel:   r.BatteryLevel,
		Kind:           r.Kind,
		DistanceMeters: decision.DistanceMeters,
		CapturedAt:     pos.CapturedAt,
	})
	s.pendingDistance += decision.DistanceMeters
	s.mu.Unlock()

	s.log.Debug("sample accepted",
		zap.Float64("step_meters", decision.DistanceMeters),
		zap.Float64("total_meters", total),
	)

	if firstOfJourney {
		// Out-of-band write so the journey document exists even if the day
		// ends before the first periodic flush.
		s.ioWG.Add(1)
		go func() {
			defer s.ioWG.Done()
			s.flush(context.Background())
		}()
	}
}

// onWatchError logs transient watcher failures. Tracking continues in
// degraded mode; only an explicit End closes the day.
func (s *Session) onWatchError(err error) {
	s.log.Warn("position watcher error, tracking degraded", zap.Error(err))
}

// flush drains the queued samples and persists them: one keyed insert per
// record plus a single distance increment. A failure re-queues the batch and
// leaves the in-memory total untouched; the next tick retries.
func (s *Session) flush(ctx context.Context) error {
	s.mu.Lock()
	batch := s.pending
	delta := s.pendingDistance
	date := s.journeyDate
	s.pending = nil
	s.pendingDistance = 0
	s.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	journeyID, err := s.store.EnsureJourney(ctx, s.actorID, date, batch[0].CapturedAt)
	if err != nil {
		s.requeue(batch, delta)
		s.log.Warn("journey init failed, will retry", zap.Error(err))
		return err
	}

	s.mu.Lock()
	if s.journeyDate == date {
		s.journeyID = journeyID
	}
	s.mu.Unlock()

	for i, rec := range batch {
		if err := s.store.AppendSample(ctx, journeyID, rec); err != nil {
			s.requeue(batch[i:], delta)
			s.log.Warn("sample flush failed, will retry",
				zap.Int("remaining", len(batch)-i),
				zap.Error(err),
			)
			return err
		}
	}

	if err := s.store.IncrementDistance(ctx, journeyID, delta); err != nil {
		// Records are persisted (replays are keyed no-ops); only the
		// distance delta still needs to land.
		s.requeue(nil, delta)
		s.log.Warn("distance flush failed, will retry", zap.Error(err))
		return err
	}

	return nil
}

func (s *Session) requeue(batch []domain.SampleRecord, delta float64) {
	s.mu.Lock()
	merged := make([]domain.SampleRecord, 0, len(batch)+len(s.pending))
	merged = append(merged, batch...)
	merged = append(merged, s.pending...)
	s.pending = merged
	s.pendingDistance += delta
	s.mu.Unlock()
}

// checkDayBoundary rolls the journey over when the calendar date changes:
// the old journey gets its remaining samples, then is sealed; in-memory state
// resets so the next accepted sample opens the new day's journey.
func (s *Session) checkDayBoundary(now time.Time) {
	s.mu.Lock()
	today := domain.JourneyDate(now)
	if s.journeyDate == "" || s.journeyDate == today {
		s.mu.Unlock()
		return
	}

	oldDate := s.journeyDate
	oldJourneyID := s.journeyID
	batch := s.pending
	delta := s.pendingDistance
	s.pending = nil
	s.pendingDistance = 0
	s.journeyDate = today
	s.journeyID = ""
	s.lastAccepted = nil
	s.acc.Reset()
	s.elapsedSeconds = 0
	s.mu.Unlock()

	ctx := context.Background()

	if len(batch) > 0 {
		journeyID, err := s.store.EnsureJourney(ctx, s.actorID, oldDate, batch[0].CapturedAt)
		if err == nil {
			oldJourneyID = journeyID
			for _, rec := range batch {
				if err := s.store.AppendSample(ctx, journeyID, rec); err != nil {
					s.log.Error("failed to settle sample into closing journey", zap.Error(err))
					break
				}
			}
			if err := s.store.IncrementDistance(ctx, journeyID, delta); err != nil {
				s.log.Error("failed to settle distance into closing journey", zap.Error(err))
			}
		} else {
			s.log.Error("failed to settle closing journey", zap.Error(err))
		}
	}

	if oldJourneyID != "" {
		if err := s.store.SealJourney(ctx, oldJourneyID, now); err != nil {
			s.log.Error("failed to seal journey", zap.String("journey_id", oldJourneyID), zap.Error(err))
		}
	}

	s.log.Info("journey rolled over",
		zap.String("old_date", oldDate),
		zap.String("new_date", today),
	)
}

func (s *Session) tickElapsed() {
	s.mu.Lock()
	if s.phase == PhaseTracking {
		s.elapsedSeconds++
	}
	s.mu.Unlock()
}

func (s *Session) startTimersLocked() {
	stop := make(chan struct{})
	s.timerStop = stop

	s.timerWG.Add(2)
	go s.runTicker(stop, &s.timerWG, time.Second, s.tickElapsed)
	go s.runTicker(stop, &s.timerWG, s.tcfg.FlushInterval(), func() {
		s.flush(context.Background())
	})
}

func (s *Session) stopTimers() {
	s.mu.Lock()
	stop := s.timerStop
	s.timerStop = nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	s.timerWG.Wait()
}

func (s *Session) startDayMonitorLocked() {
	stop := make(chan struct{})
	s.dayStop = stop

	s.dayWG.Add(1)
	go s.runTicker(stop, &s.dayWG, s.tcfg.DayCheckInterval(), func() {
		s.checkDayBoundary(s.clock.Now())
	})
}

func (s *Session) stopDayMonitor() {
	s.mu.Lock()
	stop := s.dayStop
	s.dayStop = nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	s.dayWG.Wait()
}

func (s *Session) runTicker(stop <-chan struct{}, wg *sync.WaitGroup, d time.Duration, fn func()) {
	defer wg.Done()

	ticker := s.clock.NewTicker(d)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			fn()
		}
	}
}
