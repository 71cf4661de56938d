package domain

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used to key journeys.
const DateLayout = "2006-01-02"

// Position is a single device fix as delivered by the position watcher.
type Position struct {
	// Latitude in degrees.
	Latitude float64 `json:"latitude"`
	// Longitude in degrees.
	Longitude float64 `json:"longitude"`
	// AccuracyMeters is the reported horizontal accuracy of the fix.
	AccuracyMeters float64 `json:"accuracy"`
	// CapturedAt is when the device captured the fix.
	CapturedAt time.Time `json:"captured_at"`
}

// EventKind classifies why a sample was recorded.
type EventKind string

const (
	// EventDayTracking is a periodic fix recorded while traveling.
	EventDayTracking EventKind = "day_tracking"
	// EventShopArrival marks the salesperson reaching a shop. Arrival
	// markers are recorded even when the device has not moved.
	EventShopArrival EventKind = "shop_arrival"
)

// Reading is one watcher delivery: a position plus the device telemetry
// reported alongside it.
type Reading struct {
	Position     Position  `json:"position"`
	BatteryLevel float64   `json:"battery_level"`
	Kind         EventKind `json:"event"`
}

// SampleRecord is the persisted form of an accepted position. Records are
// created exactly once per accepted sample and never mutated or deleted.
type SampleRecord struct {
	// ID is a monotonically increasing key derived from the capture time,
	// zero-padded so lexical order matches capture order.
	ID             string    `json:"id"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters float64   `json:"accuracy"`
	BatteryLevel   float64   `json:"battery_level"`
	Kind           EventKind `json:"event"`
	// DistanceMeters is the incremental distance attributed to this sample;
	// 0 for the first sample of a journey.
	DistanceMeters float64   `json:"distance_meters"`
	CapturedAt     time.Time `json:"captured_at"`
}

// NewSampleID derives the sample key from the capture time.
func NewSampleID(capturedAt time.Time) string {
	return fmt.Sprintf("%020d", capturedAt.UnixNano())
}

// Journey is one actor's one calendar day of tracked movement.
type Journey struct {
	ID                  string         `json:"id"`
	ActorID             string         `json:"actor_id"`
	Date                string         `json:"date"`
	StartedAt           time.Time      `json:"start_time"`
	EndedAt             *time.Time     `json:"end_time,omitempty"`
	LastUpdatedAt       time.Time      `json:"last_updated_at"`
	TotalDistanceMeters float64        `json:"total_distance"`
	Sealed              bool           `json:"sealed"`
	Samples             []SampleRecord `json:"tracking_locations"`
}

// JourneyDate formats a wall-clock instant as a journey calendar date.
func JourneyDate(t time.Time) string {
	return t.Format(DateLayout)
}
