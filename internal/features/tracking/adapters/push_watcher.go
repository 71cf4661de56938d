package adapters

import (
	"context"
	"sync"

	"fieldtrack/internal/features/tracking/domain"
	"fieldtrack/internal/features/tracking/ports"
)

// PushWatcher implements ports.PositionWatcher for devices that report their
// own fixes over the ingest endpoint. Submissions are delivered synchronously
// to the active subscription's handler; with no subscription they are dropped,
// which is what makes "zero callbacks after stop" structural rather than a
// timing accident.
type PushWatcher struct {
	mu        sync.Mutex
	denied    bool
	onReading ports.ReadingHandler
	onError   ports.ErrorHandler
	opts      ports.WatchOptions
}

// NewPushWatcher creates an idle watcher.
func NewPushWatcher() *PushWatcher {
	return &PushWatcher{}
}

// DenyPermission makes subsequent Watch calls fail with ErrPermissionDenied,
// emulating a device that refused location access.
func (w *PushWatcher) DenyPermission() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.denied = true
}

// Watch implements ports.PositionWatcher.
func (w *PushWatcher) Watch(_ context.Context, opts ports.WatchOptions, onReading ports.ReadingHandler, onError ports.ErrorHandler) (ports.Subscription, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.denied {
		return nil, ports.ErrPermissionDenied
	}
	if w.onReading != nil {
		return nil, ports.ErrAlreadyWatching
	}

	w.onReading = onReading
	w.onError = onError
	w.opts = opts

	return &pushSubscription{watcher: w}, nil
}

// Submit delivers a device reading to the active subscription. The watcher's
// distance filter is advisory here; server-side filtering is the session's
// job. Returns ErrNotWatching when no subscription is active.
func (w *PushWatcher) Submit(r domain.Reading) error {
	w.mu.Lock()
	handler := w.onReading
	w.mu.Unlock()

	if handler == nil {
		return ports.ErrNotWatching
	}
	handler(r)
	return nil
}

// SubmitError delivers a transient device-side error (signal loss, timeout).
func (w *PushWatcher) SubmitError(err error) {
	w.mu.Lock()
	handler := w.onError
	w.mu.Unlock()

	if handler != nil {
		handler(err)
	}
}

// pushSubscription detaches the handlers on Stop.
type pushSubscription struct {
	watcher *PushWatcher
	once    sync.Once
}

// Stop implements ports.Subscription. Once it returns, Submit drops readings.
func (s *pushSubscription) Stop() {
	s.once.Do(func() {
		s.watcher.mu.Lock()
		s.watcher.onReading = nil
		s.watcher.onError = nil
		s.watcher.mu.Unlock()
	})
}
