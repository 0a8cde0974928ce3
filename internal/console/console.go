package console

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/void0x11/VoidPWN/internal/backend"
	"github.com/void0x11/VoidPWN/internal/logging"
	"github.com/void0x11/VoidPWN/internal/poller"
	"github.com/void0x11/VoidPWN/internal/resolver"
	"github.com/void0x11/VoidPWN/internal/scan"
	"github.com/void0x11/VoidPWN/internal/target"
)

// Backend is everything the console asks of the dashboard API.
// *backend.Client implements it.
type Backend interface {
	SelectedDevice(ctx context.Context) (*target.Device, error)
	ListDevices(ctx context.Context) ([]target.Device, error)
	ScanDevices(ctx context.Context, mode string) (*backend.DeviceScanResult, error)
	SelectDevice(ctx context.Context, id string) error
	UpdateDevice(ctx context.Context, update backend.DeviceUpdate) error
	SelectWiFi(ctx context.Context, n target.NetworkTarget) error
	SelectSubnet(ctx context.Context, n target.NetworkTarget) (target.NetworkTarget, error)
	Interfaces(ctx context.Context) ([]target.Interface, error)
	RunAction(ctx context.Context, action, resolved string, data map[string]any) (*backend.ActionResponse, error)
	RunScenario(ctx context.Context, scenario, resolved string) (*backend.ActionResponse, error)
	StartScan(ctx context.Context) (*backend.ScanStart, error)
	ScanResults(ctx context.Context) ([]backend.WiFiNetwork, error)
	ConnectWiFi(ctx context.Context, creds backend.WiFiCredentials) (string, error)
	LiveLogs(ctx context.Context) ([]backend.LogEntry, error)
	Reports(ctx context.Context) ([]backend.Report, error)
	ViewLog(ctx context.Context, filename string) (string, error)
	SystemInfo(ctx context.Context) (*backend.SystemInfo, error)
}

var _ Backend = (*backend.Client)(nil)

// Options configures polling intervals
type Options struct {
	LogInterval    time.Duration
	ReportInterval time.Duration
	SystemInterval time.Duration
	DeviceInterval time.Duration

	// ScanClock drives the WiFi scan countdown (real clock when nil)
	ScanClock scan.Clock

	// ActivityLimit bounds the activity log
	ActivityLimit int
}

// DefaultOptions returns the dashboard's refresh cadence
func DefaultOptions() Options {
	return Options{
		LogInterval:    2 * time.Second,
		ReportInterval: 10 * time.Second,
		SystemInterval: 5 * time.Second,
		DeviceInterval: 30 * time.Second,
		ActivityLimit:  DefaultActivityLimit,
	}
}

// ErrNoWiFiSelected is returned by ConnectWiFi without a WiFi selection
var ErrNoWiFiSelected = errors.New("select a network first")

// ErrUnknownDevice is returned when a device ID is not in the inventory
var ErrUnknownDevice = errors.New("unknown device")

// Console is the engine behind every operator view. It owns the target
// model; views hold the *Console and read state through it.
type Console struct {
	backend  Backend
	model    *target.Model
	opts     Options
	activity *ActivityLog

	Logs    *poller.Poller[[]backend.LogEntry]
	Devices *poller.Poller[[]target.Device]
	Reports *poller.Poller[[]backend.Report]
	System  *poller.Poller[backend.SystemInfo]
	Scan    *scan.Controller

	mu         sync.Mutex
	ctx        context.Context
	listeners  []func(Event)
	pollErrors map[string]string
	wg         sync.WaitGroup
}

// New builds a console around a backend
func New(b Backend, opts Options) *Console {
	def := DefaultOptions()
	if opts.LogInterval <= 0 {
		opts.LogInterval = def.LogInterval
	}
	if opts.ReportInterval <= 0 {
		opts.ReportInterval = def.ReportInterval
	}
	if opts.SystemInterval <= 0 {
		opts.SystemInterval = def.SystemInterval
	}
	if opts.DeviceInterval <= 0 {
		opts.DeviceInterval = def.DeviceInterval
	}

	c := &Console{
		backend:    b,
		model:      target.NewModel(),
		opts:       opts,
		activity:   NewActivityLog(opts.ActivityLimit),
		ctx:        context.Background(),
		pollErrors: make(map[string]string),
	}

	c.Logs = poller.New("logs", track(c, "logs", b.LiveLogs),
		poller.WithOnChange(func([]backend.LogEntry) {
			c.emit(Event{Kind: EventLogs})
			// Log growth is the only signal that background work produced rows
			c.refreshDependents()
		}),
		poller.WithOnError[[]backend.LogEntry](c.pollFailed("logs")),
	)
	c.Devices = poller.New("devices", track(c, "devices", b.ListDevices),
		poller.WithOnChange(func([]target.Device) { c.emit(Event{Kind: EventDevices}) }),
		poller.WithOnError[[]target.Device](c.pollFailed("devices")),
	)
	c.Reports = poller.New("reports", track(c, "reports", b.Reports),
		poller.WithOnChange(func([]backend.Report) { c.emit(Event{Kind: EventReports}) }),
		poller.WithOnError[[]backend.Report](c.pollFailed("reports")),
	)
	c.System = poller.New("system", track(c, "system", func(ctx context.Context) (backend.SystemInfo, error) {
		info, err := b.SystemInfo(ctx)
		if err != nil {
			return backend.SystemInfo{}, err
		}
		return *info, nil
	}),
		poller.WithOnChange(func(backend.SystemInfo) { c.emit(Event{Kind: EventSystem}) }),
		poller.WithOnError[backend.SystemInfo](c.pollFailed("system")),
	)

	c.Scan = scan.NewController(b)
	if opts.ScanClock != nil {
		c.Scan.WithClock(opts.ScanClock)
	}
	c.Scan.OnTick = func(label string) {
		c.emit(Event{Kind: EventScan, Text: label})
	}

	return c
}

// Model returns the target model
func (c *Console) Model() *target.Model {
	return c.model
}

// Selection returns the current selection
func (c *Console) Selection() target.Selection {
	return c.model.Current()
}

// Label returns the display label of the current target
func (c *Console) Label() string {
	return c.model.DisplayLabel()
}

// Activity returns the activity log
func (c *Console) Activity() *ActivityLog {
	return c.activity
}

// Subscribe registers fn for every state change. fn runs on the goroutine
// that made the change and must not block.
func (c *Console) Subscribe(fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Start launches the periodic pollers. They stop when ctx is done; Wait
// blocks until they have.
func (c *Console) Start(ctx context.Context) {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	c.run(ctx, c.Logs.Run, c.opts.LogInterval)
	c.run(ctx, c.Reports.Run, c.opts.ReportInterval)
	c.run(ctx, c.System.Run, c.opts.SystemInterval)
	c.run(ctx, c.Devices.Run, c.opts.DeviceInterval)

	logging.Info("Console pollers started",
		zap.Duration("logs", c.opts.LogInterval),
		zap.Duration("reports", c.opts.ReportInterval),
		zap.Duration("system", c.opts.SystemInterval),
		zap.Duration("devices", c.opts.DeviceInterval),
	)
}

// Wait blocks until all pollers started by Start have returned
func (c *Console) Wait() {
	c.wg.Wait()
}

func (c *Console) run(ctx context.Context, fn func(context.Context, time.Duration), interval time.Duration) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn(ctx, interval)
	}()
}

// Restore adopts the device the backend already has selected. The backend
// is not notified, since it is the source of this selection.
func (c *Console) Restore(ctx context.Context) (target.Selection, error) {
	d, err := c.backend.SelectedDevice(ctx)
	if err != nil {
		c.failure("Restore selection", err)
		return c.model.Current(), err
	}
	if d == nil {
		return c.model.Current(), nil
	}
	sel := c.model.SelectDevice(*d)
	c.selectionChanged(sel)
	c.note(LevelInfo, "Restored target: %s", sel.Label())
	return sel, nil
}

// SelectDevice makes d the current target and notifies the backend. The
// model commits before the request is sent and is not rolled back if the
// request fails.
func (c *Console) SelectDevice(ctx context.Context, d target.Device) (target.Selection, error) {
	sel := c.model.SelectDevice(d)
	c.selectionChanged(sel)
	c.note(LevelPlain, "DEVICE TARGET: %s", d.IP)

	if err := c.backend.SelectDevice(ctx, d.ID); err != nil {
		c.failure("Device sync", err)
		return sel, err
	}
	return sel, nil
}

// SelectDeviceByID selects a device from the inventory, refreshing it once
// when the ID is not yet known.
func (c *Console) SelectDeviceByID(ctx context.Context, id string) (target.Selection, error) {
	d, ok := c.findDevice(id)
	if !ok {
		if _, err := c.Devices.Poll(ctx); err != nil {
			return c.model.Current(), err
		}
		d, ok = c.findDevice(id)
	}
	if !ok {
		return c.model.Current(), fmt.Errorf("%w: %s", ErrUnknownDevice, id)
	}
	return c.SelectDevice(ctx, d)
}

// Device returns an inventory device by ID
func (c *Console) Device(id string) (target.Device, bool) {
	return c.findDevice(id)
}

func (c *Console) findDevice(id string) (target.Device, bool) {
	for _, d := range c.Devices.Value() {
		if d.ID == id {
			return d, true
		}
	}
	return target.Device{}, false
}

// SelectWiFi makes a WiFi network the current target and notifies the backend
func (c *Console) SelectWiFi(ctx context.Context, n target.NetworkTarget) (target.Selection, error) {
	if !n.IsWiFi() {
		return c.model.Current(), fmt.Errorf("select wifi: %s target is not a wifi network", n.Kind())
	}
	sel := c.model.SelectNetwork(n)
	c.selectionChanged(sel)
	c.note(LevelPlain, "NETWORK TARGET: %s (%s)", n.SSID(), n.BSSID())

	if err := c.backend.SelectWiFi(ctx, n); err != nil {
		c.failure("Network sync", err)
		return sel, err
	}
	return sel, nil
}

// SelectSubnet makes a subnet the current target. The backend's canonical
// form replaces it only if the operator has not selected something else
// while the request was in flight.
func (c *Console) SelectSubnet(ctx context.Context, n target.NetworkTarget) (target.Selection, error) {
	if !n.IsSubnet() {
		return c.model.Current(), fmt.Errorf("select subnet: %s target is not a subnet", n.Kind())
	}
	sel := c.model.SelectNetwork(n)
	c.selectionChanged(sel)
	c.note(LevelPlain, "SUBNET TARGET: %s", n.CIDR())

	canonical, err := c.backend.SelectSubnet(ctx, n)
	if err != nil {
		c.failure("Subnet sync", err)
		return sel, err
	}
	if canonical.Equal(n) {
		return sel, nil
	}

	next := target.NetworkSelection(canonical)
	if c.model.Replace(sel, next) {
		c.selectionChanged(next)
		return next, nil
	}
	logging.Debug("Stale subnet acknowledgement ignored", zap.String("cidr", canonical.CIDR()))
	return c.model.Current(), nil
}

// SelectInterface targets the /24 subnet of an interface, bound to it so
// ARP recon can run.
func (c *Console) SelectInterface(ctx context.Context, iface target.Interface) (target.Selection, error) {
	n, err := iface.SubnetTarget()
	if err != nil {
		return c.model.Current(), fmt.Errorf("interface %s: %w", iface.Name, err)
	}
	return c.SelectSubnet(ctx, n)
}

// SelectInterfaceByName looks the interface up on the backend first
func (c *Console) SelectInterfaceByName(ctx context.Context, name string) (target.Selection, error) {
	ifaces, err := c.backend.Interfaces(ctx)
	if err != nil {
		c.failure("Interface list", err)
		return c.model.Current(), err
	}
	for _, iface := range ifaces {
		if iface.Name == name {
			return c.SelectInterface(ctx, iface)
		}
	}
	return c.model.Current(), fmt.Errorf("interface %q not found", name)
}

// Interfaces lists the backend's network interfaces
func (c *Console) Interfaces(ctx context.Context) ([]target.Interface, error) {
	ifaces, err := c.backend.Interfaces(ctx)
	if err != nil {
		c.failure("Interface list", err)
		return nil, err
	}
	return ifaces, nil
}

// Clear drops the current target locally
func (c *Console) Clear() {
	c.model.Clear()
	c.selectionChanged(c.model.Current())
}

// RunAction resolves the target for action against the current selection
// and dispatches it. Rejections return before any request is made.
func (c *Console) RunAction(ctx context.Context, action string, data resolver.Data) (string, error) {
	action = strings.ToLower(strings.TrimSpace(action))
	resolved, err := resolver.Resolve(action, data, c.model.Current())
	if err != nil {
		var rej *resolver.RejectionError
		if errors.As(err, &rej) {
			c.note(LevelError, "%s", rej.Kind.Hint())
		}
		return "", err
	}

	logging.LogAction(action, data.Mode(), resolved)
	c.note(LevelPlain, "INITIATING %s...", strings.ToUpper(action))

	if _, err := c.backend.RunAction(ctx, action, resolved, data); err != nil {
		c.note(LevelError, "ERROR: %s", backend.OperatorMessage(err))
		return resolved, err
	}
	c.note(LevelSuccess, "✓ %s started", strings.ToUpper(action))
	return resolved, nil
}

// RunScenario runs a playbook against the selected device, if any
func (c *Console) RunScenario(ctx context.Context, scenario string) (string, error) {
	resolved := resolver.ResolveScenario(c.model.Current())
	c.note(LevelPlain, "EXECUTING SCENARIO: %s...", strings.ToUpper(scenario))

	if _, err := c.backend.RunScenario(ctx, scenario, resolved); err != nil {
		c.note(LevelError, "FAILED: %s", backend.OperatorMessage(err))
		return resolved, err
	}
	c.note(LevelSuccess, "✓ Scenario %s running", scenario)
	return resolved, nil
}

// ScanWiFi runs a complete scan lifecycle and returns the networks found.
// It returns nil, nil when a scan is already running.
func (c *Console) ScanWiFi(ctx context.Context) ([]backend.WiFiNetwork, error) {
	if c.Scan.Busy() {
		return nil, nil
	}
	c.note(LevelPlain, "Starting WiFi scan...")
	nets, err := c.Scan.Run(ctx)
	if err != nil {
		c.failure("WiFi scan", err)
		return nil, err
	}
	c.note(LevelSuccess, "✓ Found %d networks", len(nets))
	return nets, nil
}

// ConnectWiFi joins the selected WiFi network
func (c *Console) ConnectWiFi(ctx context.Context, password string) (string, error) {
	n, ok := c.model.Current().WiFi()
	if !ok || n.SSID() == "" {
		return "", ErrNoWiFiSelected
	}
	c.note(LevelPlain, "Connecting to %s...", n.SSID())

	msg, err := c.backend.ConnectWiFi(ctx, backend.WiFiCredentials{SSID: n.SSID(), Password: password})
	if err != nil {
		c.failure("WiFi connect", err)
		return "", err
	}
	c.note(LevelSuccess, "%s", msg)
	return msg, nil
}

// ScanDevices runs a discovery scan and refreshes the inventory
func (c *Console) ScanDevices(ctx context.Context, mode string) (*backend.DeviceScanResult, error) {
	if mode == "" {
		mode = "quick"
	}
	c.note(LevelPlain, "Starting %s device discovery...", mode)

	res, err := c.backend.ScanDevices(ctx, mode)
	if err != nil {
		c.failure("Device discovery", err)
		return nil, err
	}
	c.note(LevelSuccess, "✓ Discovered %d devices.", res.Count)
	_, _ = c.Devices.Poll(ctx)
	return res, nil
}

// UpdateDeviceMetadata stores notes and comma-separated tags for a device
func (c *Console) UpdateDeviceMetadata(ctx context.Context, id, notes, tags string) error {
	update := backend.DeviceUpdate{ID: id, Notes: notes, Tags: target.ParseTags(tags)}
	c.note(LevelPlain, "Saving metadata for %s...", id)

	if err := c.backend.UpdateDevice(ctx, update); err != nil {
		c.failure("Save metadata", err)
		return err
	}
	c.note(LevelSuccess, "✓ Metadata updated")
	_, _ = c.Devices.Poll(ctx)
	return nil
}

// ViewLog fetches the log file behind a report
func (c *Console) ViewLog(ctx context.Context, filename string) (string, error) {
	content, err := c.backend.ViewLog(ctx, filename)
	if err != nil {
		c.failure("View log", err)
		return "", err
	}
	return content, nil
}

// Refresh polls every view once
func (c *Console) Refresh(ctx context.Context) {
	_, _ = c.Logs.Poll(ctx)
	_, _ = c.Devices.Poll(ctx)
	_, _ = c.Reports.Poll(ctx)
	_, _ = c.System.Poll(ctx)
}

func (c *Console) refreshDependents() {
	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()

	_, _ = c.Devices.Poll(ctx)
	_, _ = c.Reports.Poll(ctx)
}

// pollFailed records a poll error once per distinct message, so a backend
// that stays down does not flood the activity log.
func (c *Console) pollFailed(name string) func(error) {
	return func(err error) {
		msg := backend.OperatorMessage(err)
		logging.LogPoll(name, false, err)

		c.mu.Lock()
		repeated := c.pollErrors[name] == msg
		c.pollErrors[name] = msg
		c.mu.Unlock()

		if !repeated {
			c.note(LevelError, "%s refresh failed: %s", name, msg)
		}
	}
}

// track clears a poller's remembered error once it fetches successfully again
func track[T any](c *Console, name string, fetch poller.Fetcher[T]) poller.Fetcher[T] {
	return func(ctx context.Context) (T, error) {
		v, err := fetch(ctx)
		if err == nil {
			c.mu.Lock()
			delete(c.pollErrors, name)
			c.mu.Unlock()
		}
		return v, err
	}
}

func (c *Console) failure(what string, err error) {
	c.note(LevelError, "%s failed: %s", what, backend.OperatorMessage(err))
}

func (c *Console) note(level Level, format string, args ...any) {
	a := c.activity.Add(level, format, args...)
	c.emit(Event{Kind: EventActivity, Text: a.String()})
}

func (c *Console) selectionChanged(sel target.Selection) {
	logging.LogSelection(sel.Kind().String(), sel.Label())
	c.emit(Event{Kind: EventSelection, Text: sel.Label()})
}

func (c *Console) emit(e Event) {
	c.mu.Lock()
	listeners := make([]func(Event), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(e)
	}
}
