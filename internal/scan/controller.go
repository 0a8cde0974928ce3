// Package scan drives the timed WiFi scan lifecycle.
//
// The controller is a small state machine:
//
//	Idle --Start--> Starting --ok--> Scanning(n) --Tick--> ... --> Idle
//	                   \--error--> Idle
//
// Busy is derived from the state, so the countdown and the busy flag can
// never disagree: there is no way to leave a scan "stuck" with the control
// disabled and no countdown running.
package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/void0x11/VoidPWN/internal/backend"
	"github.com/void0x11/VoidPWN/internal/logging"
)

// State is a lifecycle state
type State int

const (
	Idle State = iota
	Starting
	Scanning
)

// String returns the state name
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Starting:
		return "Starting"
	case Scanning:
		return "Scanning"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// TickInterval is the countdown resolution
const TickInterval = time.Second

// StartLabel is shown on the scan control while idle
const StartLabel = "START SCAN"

// ErrScanAborted is returned by Run when ctx ends before the countdown does
var ErrScanAborted = errors.New("scan aborted")

// Backend is the part of the backend client the controller needs
type Backend interface {
	StartScan(ctx context.Context) (*backend.ScanStart, error)
	ScanResults(ctx context.Context) ([]backend.WiFiNetwork, error)
}

// TickResult reports the outcome of one countdown tick
type TickResult struct {
	// Remaining is the countdown after this tick
	Remaining int
	// Done is true when this tick ended the scan
	Done bool
	// Networks holds the scan results on the final tick
	Networks []backend.WiFiNetwork
}

// Controller runs at most one scan lifecycle at a time
type Controller struct {
	backend Backend
	clock   Clock

	// OnTick, when set, is called after every state change with the
	// current countdown label. It runs outside the controller's lock.
	OnTick func(label string)

	mu        sync.Mutex
	state     State
	remaining int
}

// NewController creates an idle controller using the real clock
func NewController(b Backend) *Controller {
	return &Controller{backend: b, clock: RealClock{}}
}

// WithClock replaces the tick source (tests use a virtual clock)
func (c *Controller) WithClock(clock Clock) *Controller {
	c.clock = clock
	return c
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Remaining returns the countdown in seconds (0 unless scanning)
func (c *Controller) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Busy reports whether the scan control is disabled
func (c *Controller) Busy() bool {
	return c.State() != Idle
}

// Label returns the text for the scan control
func (c *Controller) Label() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.labelLocked()
}

func (c *Controller) labelLocked() string {
	switch c.state {
	case Starting:
		return "STARTING..."
	case Scanning:
		return fmt.Sprintf("SCANNING... %ds", c.remaining)
	default:
		return StartLabel
	}
}

// Start issues the start request. It is a no-op returning false while a
// scan is already starting or running, so no duplicate request is sent.
// A failed request returns the controller to Idle.
func (c *Controller) Start(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return false, nil
	}
	c.transitionLocked(Starting, 0)
	c.mu.Unlock()
	c.notify()

	resp, err := c.backend.StartScan(ctx)

	c.mu.Lock()
	if err != nil {
		c.transitionLocked(Idle, 0)
		c.mu.Unlock()
		c.notify()
		return false, fmt.Errorf("failed to start scan: %w", err)
	}
	c.transitionLocked(Scanning, resp.Duration)
	c.mu.Unlock()
	c.notify()

	return true, nil
}

// Tick advances the countdown by one second. On reaching zero the
// controller returns to Idle and fetches results exactly once; a failed
// fetch still leaves the controller Idle. Ticks outside Scanning are ignored.
func (c *Controller) Tick(ctx context.Context) (TickResult, error) {
	c.mu.Lock()
	if c.state != Scanning {
		c.mu.Unlock()
		return TickResult{}, nil
	}
	c.remaining--
	if c.remaining > 0 {
		res := TickResult{Remaining: c.remaining}
		c.mu.Unlock()
		c.notify()
		return res, nil
	}
	c.transitionLocked(Idle, 0)
	c.mu.Unlock()
	c.notify()

	networks, err := c.backend.ScanResults(ctx)
	if err != nil {
		return TickResult{Done: true}, fmt.Errorf("failed to fetch scan results: %w", err)
	}
	return TickResult{Done: true, Networks: networks}, nil
}

// Abort forces the controller back to Idle
func (c *Controller) Abort() {
	c.mu.Lock()
	if c.state == Idle {
		c.mu.Unlock()
		return
	}
	c.transitionLocked(Idle, 0)
	c.mu.Unlock()
	c.notify()
}

// Run performs a whole lifecycle: start, count down on the controller's
// clock, then fetch results. It returns (nil, nil) when a scan was already
// in progress. Cancelling ctx aborts to Idle with ErrScanAborted.
func (c *Controller) Run(ctx context.Context) ([]backend.WiFiNetwork, error) {
	started, err := c.Start(ctx)
	if err != nil || !started {
		return nil, err
	}

	ticker := c.clock.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.Abort()
			return nil, ErrScanAborted
		case <-ticker.C():
			res, err := c.Tick(ctx)
			if err != nil {
				return nil, err
			}
			if res.Done {
				return res.Networks, nil
			}
		}
	}
}

// transitionLocked changes state; remaining is only meaningful for Scanning.
// A server that declares no duration still gets one countdown tick.
func (c *Controller) transitionLocked(to State, remaining int) {
	from := c.state
	if to == Scanning && remaining < 1 {
		remaining = 1
	}
	if to != Scanning {
		remaining = 0
	}
	c.state = to
	c.remaining = remaining
	logging.LogScanState(from.String(), to.String(), remaining)
}

func (c *Controller) notify() {
	if c.OnTick == nil {
		return
	}
	c.OnTick(c.Label())
}
