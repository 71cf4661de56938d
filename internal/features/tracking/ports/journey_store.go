package ports

import (
	"context"
	"errors"
	"time"

	"fieldtrack/internal/features/tracking/domain"
)

var (
	// ErrJourneyNotFound is returned when no journey exists for (actor, date).
	ErrJourneyNotFound = errors.New("journey not found")
	// ErrJourneySealed is returned on writes to a journey closed by a day rollover.
	ErrJourneySealed = errors.New("journey sealed")
	// ErrNoSamples is returned when an actor has no recorded samples at all.
	ErrNoSamples = errors.New("no samples recorded")
)

// JourneyStore is the durable per-day, per-actor record of tracked movement.
// The tracking engine only ever appends to or increments fields on the single
// journey matching its own (actorID, date); it never reads its own writes
// back to decide whether to accept a sample. Implementations must tolerate
// duplicate appends (keyed insert, replay harmless).
type JourneyStore interface {
	// EnsureJourney lazily creates the journey document for (actorID, date)
	// and returns its id. Calling it again for an existing journey is a no-op
	// that returns the same id.
	EnsureJourney(ctx context.Context, actorID, date string, startedAt time.Time) (string, error)

	// AppendSample inserts one sample record keyed by its id. Appending a
	// record whose id already exists leaves the stored record untouched.
	AppendSample(ctx context.Context, journeyID string, rec domain.SampleRecord) error

	// IncrementDistance advances the journey's total by delta meters.
	IncrementDistance(ctx context.Context, journeyID string, deltaMeters float64) error

	// SealJourney closes the journey at a day boundary; subsequent writes
	// fail with ErrJourneySealed.
	SealJourney(ctx context.Context, journeyID string, endedAt time.Time) error

	// ReadJourney returns the journey with its samples in capture order.
	ReadJourney(ctx context.Context, actorID, date string) (*domain.Journey, error)

	// LatestSample returns the actor's most recent sample across journeys,
	// for last-known-location views.
	LatestSample(ctx context.Context, actorID string) (*domain.SampleRecord, error)
}
