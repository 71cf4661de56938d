package service

import "time"

// Ticker is the minimal surface of time.Ticker the session needs, so tests
// can substitute a controllable implementation.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

// Clock supplies wall-clock time and tickers. The session never touches the
// time package directly; every timer it runs is created through its clock and
// stopped through its state machine.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// SystemClock returns the real-time clock.
func SystemClock() Clock {
	return systemClock{}
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) NewTicker(d time.Duration) Ticker {
	return &systemTicker{ticker: time.NewTicker(d)}
}

type systemTicker struct {
	ticker *time.Ticker
}

func (t *systemTicker) Chan() <-chan time.Time {
	return t.ticker.C
}

func (t *systemTicker) Stop() {
	t.ticker.Stop()
}
