package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"fieldtrack/internal/features/tracking/domain"
	"fieldtrack/internal/features/tracking/ports"
)

// RedisJourneyStore implements ports.JourneyStore on Redis.
//
// Layout per journey (journeyID is "<actor>:<date>"):
//   - journey:<id>           hash: actor_id, date, start_time, end_time,
//     last_updated_at, total_distance, sealed
//   - journey:<id>:samples   hash: sample id -> SampleRecord JSON
//   - journeys:<actor>       sorted set of dates, scored by journey start
//
// Distance advances via HINCRBYFLOAT and samples via HSETNX, so replayed
// flushes produce duplicate-but-harmless writes instead of corrupting the
// total.
type RedisJourneyStore struct {
	client *redis.Client
}

// NewRedisJourneyStore creates a journey store on an existing Redis client.
func NewRedisJourneyStore(client *redis.Client) *RedisJourneyStore {
	return &RedisJourneyStore{client: client}
}

func journeyKey(journeyID string) string {
	return "journey:" + journeyID
}

func samplesKey(journeyID string) string {
	return journeyKey(journeyID) + ":samples"
}

func journeyIndexKey(actorID string) string {
	return "journeys:" + actorID
}

// EnsureJourney implements ports.JourneyStore.
func (s *RedisJourneyStore) EnsureJourney(ctx context.Context, actorID, date string, startedAt time.Time) (string, error) {
	journeyID := actorID + ":" + date
	key := journeyKey(journeyID)

	pipe := s.client.TxPipeline()
	pipe.HSetNX(ctx, key, "actor_id", actorID)
	pipe.HSetNX(ctx, key, "date", date)
	pipe.HSetNX(ctx, key, "start_time", startedAt.Format(time.RFC3339Nano))
	pipe.HSetNX(ctx, key, "total_distance", "0")
	pipe.HSetNX(ctx, key, "sealed", "0")
	pipe.HSet(ctx, key, "last_updated_at", startedAt.Format(time.RFC3339Nano))
	pipe.ZAddNX(ctx, journeyIndexKey(actorID), redis.Z{
		Score:  float64(startedAt.Unix()),
		Member: date,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to ensure journey %s: %w", journeyID, err)
	}

	return journeyID, nil
}

func (s *RedisJourneyStore) sealed(ctx context.Context, journeyID string) (bool, error) {
	val, err := s.client.HGet(ctx, journeyKey(journeyID), "sealed").Result()
	if err == redis.Nil {
		return false, fmt.Errorf("%w: %s", ports.ErrJourneyNotFound, journeyID)
	}
	if err != nil {
		return false, fmt.Errorf("failed to read seal flag for %s: %w", journeyID, err)
	}
	return val == "1", nil
}

// AppendSample implements ports.JourneyStore.
func (s *RedisJourneyStore) AppendSample(ctx context.Context, journeyID string, rec domain.SampleRecord) error {
	isSealed, err := s.sealed(ctx, journeyID)
	if err != nil {
		return err
	}
	if isSealed {
		return fmt.Errorf("%w: %s", ports.ErrJourneySealed, journeyID)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal sample %s: %w", rec.ID, err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSetNX(ctx, samplesKey(journeyID), rec.ID, data)
	pipe.HSet(ctx, journeyKey(journeyID), "last_updated_at", rec.CapturedAt.Format(time.RFC3339Nano))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append sample %s to %s: %w", rec.ID, journeyID, err)
	}

	return nil
}

// IncrementDistance implements ports.JourneyStore.
func (s *RedisJourneyStore) IncrementDistance(ctx context.Context, journeyID string, deltaMeters float64) error {
	if deltaMeters == 0 {
		return nil
	}

	isSealed, err := s.sealed(ctx, journeyID)
	if err != nil {
		return err
	}
	if isSealed {
		return fmt.Errorf("%w: %s", ports.ErrJourneySealed, journeyID)
	}

	if err := s.client.HIncrByFloat(ctx, journeyKey(journeyID), "total_distance", deltaMeters).Err(); err != nil {
		return fmt.Errorf("failed to increment distance on %s: %w", journeyID, err)
	}
	return nil
}

// SealJourney implements ports.JourneyStore.
func (s *RedisJourneyStore) SealJourney(ctx context.Context, journeyID string, endedAt time.Time) error {
	exists, err := s.client.Exists(ctx, journeyKey(journeyID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check journey %s: %w", journeyID, err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ports.ErrJourneyNotFound, journeyID)
	}

	err = s.client.HSet(ctx, journeyKey(journeyID),
		"sealed", "1",
		"end_time", endedAt.Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to seal journey %s: %w", journeyID, err)
	}
	return nil
}

// ReadJourney implements ports.JourneyStore.
func (s *RedisJourneyStore) ReadJourney(ctx context.Context, actorID, date string) (*domain.Journey, error) {
	journeyID := actorID + ":" + date

	meta, err := s.client.HGetAll(ctx, journeyKey(journeyID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read journey %s: %w", journeyID, err)
	}
	if len(meta) == 0 {
		return nil, fmt.Errorf("%w: %s", ports.ErrJourneyNotFound, journeyID)
	}

	journey := &domain.Journey{
		ID:      journeyID,
		ActorID: meta["actor_id"],
		Date:    meta["date"],
		Sealed:  meta["sealed"] == "1",
	}
	if t, err := time.Parse(time.RFC3339Nano, meta["start_time"]); err == nil {
		journey.StartedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, meta["last_updated_at"]); err == nil {
		journey.LastUpdatedAt = t
	}
	if raw, ok := meta["end_time"]; ok {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			journey.EndedAt = &t
		}
	}
	if _, err := fmt.Sscanf(meta["total_distance"], "%f", &journey.TotalDistanceMeters); err != nil {
		return nil, fmt.Errorf("malformed total_distance on %s: %w", journeyID, err)
	}

	rawSamples, err := s.client.HGetAll(ctx, samplesKey(journeyID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read samples of %s: %w", journeyID, err)
	}

	journey.Samples = make([]domain.SampleRecord, 0, len(rawSamples))
	for id, raw := range rawSamples {
		var rec domain.SampleRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("malformed sample %s on %s: %w", id, journeyID, err)
		}
		journey.Samples = append(journey.Samples, rec)
	}
	sort.Slice(journey.Samples, func(i, j int) bool {
		return journey.Samples[i].ID < journey.Samples[j].ID
	})

	return journey, nil
}

// LatestSample implements ports.JourneyStore. It walks the actor's journeys
// newest-first and returns the highest-keyed sample of the first journey that
// has any.
func (s *RedisJourneyStore) LatestSample(ctx context.Context, actorID string) (*domain.SampleRecord, error) {
	dates, err := s.client.ZRevRange(ctx, journeyIndexKey(actorID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list journeys of %s: %w", actorID, err)
	}

	for _, date := range dates {
		journey, err := s.ReadJourney(ctx, actorID, date)
		if err != nil {
			return nil, err
		}
		if len(journey.Samples) == 0 {
			continue
		}
		latest := journey.Samples[len(journey.Samples)-1]
		return &latest, nil
	}

	return nil, fmt.Errorf("%w: %s", ports.ErrNoSamples, actorID)
}
