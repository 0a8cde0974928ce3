package scan

import "time"

// Clock creates tickers. It exists so the countdown can be driven by a
// virtual clock in tests.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

// Ticker delivers ticks until stopped
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// RealClock is the wall clock
type RealClock struct{}

// NewTicker returns a time.Ticker
func (RealClock) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// ManualClock is a virtual clock whose tickers fire only on Advance
type ManualClock struct {
	ticks   chan time.Time
	now     time.Time
	stopped chan struct{}
	created chan struct{}
}

// NewManualClock creates a virtual clock starting at the zero time
func NewManualClock() *ManualClock {
	return &ManualClock{
		ticks:   make(chan time.Time),
		stopped: make(chan struct{}, 1),
		created: make(chan struct{}, 1),
	}
}

// NewTicker returns a ticker fed by Advance
func (m *ManualClock) NewTicker(d time.Duration) Ticker {
	select {
	case m.created <- struct{}{}:
	default:
	}
	return manualTicker{clock: m}
}

// WaitForTicker blocks until a ticker has been created
func (m *ManualClock) WaitForTicker() {
	<-m.created
}

// Advance delivers one tick and blocks until it is received
func (m *ManualClock) Advance(d time.Duration) {
	m.now = m.now.Add(d)
	m.ticks <- m.now
}

// Stopped reports whether the last ticker has been stopped
func (m *ManualClock) Stopped() <-chan struct{} {
	return m.stopped
}

type manualTicker struct {
	clock *ManualClock
}

func (t manualTicker) C() <-chan time.Time { return t.clock.ticks }

func (t manualTicker) Stop() {
	select {
	case t.clock.stopped <- struct{}{}:
	default:
	}
}
