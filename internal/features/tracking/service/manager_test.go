package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fieldtrack/internal/features/tracking/adapters"
	"fieldtrack/internal/features/tracking/domain"
)

func newTestManager(t *testing.T) *Manager {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := adapters.NewRedisJourneyStore(client)
	return NewManager(domain.DefaultPolicy(), testTrackingConfig(), store, newFakeClock(sessionBase), zap.NewNop())
}

// TestManager_StartReusesSession verifies every Start for an actor hands back
// the same live session instead of creating a second sampler.
func TestManager_StartReusesSession(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	t.Cleanup(func() { m.End(ctx, "actor-1") })

	first, err := m.Start(ctx, "actor-1")
	require.NoError(t, err)

	require.NoError(t, m.Submit("actor-1", readingAt(0, 0, sessionBase)))
	require.NoError(t, m.Submit("actor-1", readingAt(0, lonStepFor50m, sessionBase.Add(10*time.Second))))

	again, err := m.Start(ctx, "actor-1")
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, again.SessionID)
	assert.InEpsilon(t, 50.0, again.DistanceMeters, 0.01)
}

// TestManager_PauseResume verifies the pause round trip through the manager.
func TestManager_PauseResume(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	t.Cleanup(func() { m.End(ctx, "actor-1") })

	_, err := m.Start(ctx, "actor-1")
	require.NoError(t, err)
	require.NoError(t, m.Submit("actor-1", readingAt(0, 0, sessionBase)))

	snap, err := m.Pause("actor-1")
	require.NoError(t, err)
	assert.Equal(t, PhasePaused, snap.Phase)

	// Readings are refused while paused.
	err = m.Submit("actor-1", readingAt(0, lonStepFor50m, sessionBase.Add(10*time.Second)))
	assert.Error(t, err)

	resumed, err := m.Start(ctx, "actor-1")
	require.NoError(t, err)
	assert.Equal(t, snap.SessionID, resumed.SessionID)
	assert.Equal(t, PhaseTracking, resumed.Phase)
}

// TestManager_EndEvictsSession verifies End closes and removes the session,
// and the next Start opens a fresh one.
func TestManager_EndEvictsSession(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	first, err := m.Start(ctx, "actor-1")
	require.NoError(t, err)

	require.NoError(t, m.End(ctx, "actor-1"))

	_, err = m.Snapshot("actor-1")
	assert.ErrorIs(t, err, ErrNoSession)

	fresh, err := m.Start(ctx, "actor-1")
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, fresh.SessionID)

	require.NoError(t, m.End(ctx, "actor-1"))
}

// TestManager_UnknownActor verifies operations without a session fail cleanly.
func TestManager_UnknownActor(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Pause("ghost")
	assert.ErrorIs(t, err, ErrNoSession)

	err = m.Submit("ghost", readingAt(0, 0, sessionBase))
	assert.ErrorIs(t, err, ErrNoSession)

	err = m.End(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = m.Snapshot("ghost")
	assert.ErrorIs(t, err, ErrNoSession)
}

// TestManager_IndependentActors verifies sessions do not share state.
func TestManager_IndependentActors(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	t.Cleanup(func() {
		m.End(ctx, "actor-1")
		m.End(ctx, "actor-2")
	})

	_, err := m.Start(ctx, "actor-1")
	require.NoError(t, err)
	_, err = m.Start(ctx, "actor-2")
	require.NoError(t, err)

	require.NoError(t, m.Submit("actor-1", readingAt(0, 0, sessionBase)))
	require.NoError(t, m.Submit("actor-1", readingAt(0, lonStepFor50m, sessionBase.Add(10*time.Second))))
	require.NoError(t, m.Submit("actor-2", readingAt(10, 10, sessionBase)))

	one, err := m.Snapshot("actor-1")
	require.NoError(t, err)
	two, err := m.Snapshot("actor-2")
	require.NoError(t, err)

	assert.InEpsilon(t, 50.0, one.DistanceMeters, 0.01)
	assert.Equal(t, 0.0, two.DistanceMeters)
}
