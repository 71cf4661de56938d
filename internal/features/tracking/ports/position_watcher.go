package ports

import (
	"context"
	"errors"
	"time"

	"fieldtrack/internal/features/tracking/domain"
)

var (
	// ErrPermissionDenied is returned by Watch when the device refuses
	// location access. Fatal to starting a session.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrAlreadyWatching is returned when a second subscription is requested
	// while one is active.
	ErrAlreadyWatching = errors.New("position watch already active")
	// ErrNotWatching is returned when a reading arrives with no active
	// subscription.
	ErrNotWatching = errors.New("no active position watch")
)

// WatchOptions mirror the platform watch-position knobs.
type WatchOptions struct {
	// HighAccuracy requests the precise location source.
	HighAccuracy bool
	// Interval is the desired reporting interval.
	Interval time.Duration
	// FastestInterval caps how often reports may arrive.
	FastestInterval time.Duration
	// DistanceFilterMeters is the minimum displacement between reports.
	DistanceFilterMeters float64
	// Timeout bounds a single acquisition; on expiry the watcher retries at
	// relaxed accuracy instead of failing the subscription.
	Timeout time.Duration
}

// ReadingHandler receives position readings. Handlers must not block.
type ReadingHandler func(domain.Reading)

// ErrorHandler receives transient watcher errors (signal loss, timeouts).
type ErrorHandler func(error)

// Subscription is an active position watch. Stop is synchronous: once it
// returns, no further handler invocations occur.
type Subscription interface {
	Stop()
}

// PositionWatcher wraps the continuous-position-change primitive. Exactly one
// subscription per watcher; the owning session manages its lifecycle.
type PositionWatcher interface {
	Watch(ctx context.Context, opts WatchOptions, onReading ReadingHandler, onError ErrorHandler) (Subscription, error)
}
