package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/void0x11/VoidPWN/internal/backend"
	"github.com/void0x11/VoidPWN/internal/config"
	"github.com/void0x11/VoidPWN/internal/console"
	"github.com/void0x11/VoidPWN/internal/discovery"
	"github.com/void0x11/VoidPWN/internal/logging"
	"github.com/void0x11/VoidPWN/internal/resolver"
	"github.com/void0x11/VoidPWN/internal/target"
	"github.com/void0x11/VoidPWN/internal/tui"
	"github.com/void0x11/VoidPWN/internal/ui"
)

// errCancelled is returned when the operator declines a confirmation
var errCancelled = errors.New("cancelled by operator")

// Device command flags
var (
	discoverTimeout int
	deviceScanMode  string
	deviceTags      string
	deviceNotes     string
)

func init() {
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(deviceCmd)
	rootCmd.AddCommand(interfacesCmd)

	deviceCmd.AddCommand(deviceShowCmd)
	deviceCmd.AddCommand(deviceTagCmd)
}

// registry returns the config loaded by setup
func registry() *config.Registry {
	reg, err := config.LoadRegistry()
	if err != nil || reg == nil {
		return config.NewRegistry()
	}
	return reg
}

// resolveBackendURL picks the dashboard address: the --backend flag, then a
// configured URL, then the most recently discovered backend when
// auto-discovery is on, then the local default.
func resolveBackendURL(reg *config.Registry, flag string) string {
	if flag != "" {
		return strings.TrimRight(flag, "/")
	}
	if reg.Backend != nil && reg.Backend.URL != "" && reg.Backend.URL != config.DefaultBackendURL {
		return strings.TrimRight(reg.Backend.URL, "/")
	}
	if reg.Preferences != nil && reg.Preferences.AutoDiscover {
		if _, b, ok := reg.MostRecentBackend(); ok && b.URL != "" {
			return strings.TrimRight(b.URL, "/")
		}
	}
	return config.DefaultBackendURL
}

// requestTimeout is the --timeout flag or the configured backend timeout
func requestTimeout(reg *config.Registry) time.Duration {
	if timeout > 0 {
		return timeout
	}
	if reg.Backend != nil && reg.Backend.Timeout.Duration > 0 {
		return reg.Backend.Timeout.Duration
	}
	return backend.DefaultTimeout
}

func newClient(reg *config.Registry) *backend.Client {
	url := resolveBackendURL(reg, backendURL)
	client := backend.NewClientWithURL(url)
	client.SetTimeout(requestTimeout(reg))
	logging.Debug("Using backend", zap.String("url", url))
	return client
}

// newConsole builds a console with the configured refresh intervals
func newConsole(reg *config.Registry) (*console.Console, *backend.Client) {
	client := newClient(reg)
	opts := console.DefaultOptions()
	if p := reg.Polling; p != nil {
		opts.LogInterval = p.Logs.Duration
		opts.ReportInterval = p.Reports.Duration
		opts.SystemInterval = p.System.Duration
		opts.DeviceInterval = p.Devices.Duration
	}
	return console.New(client, opts), client
}

// signalContext is cancelled on Ctrl+C or SIGTERM
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// fail prints a result box for err and returns it for cobra's exit status
func fail(cmd *cobra.Command, title string, err error) error {
	cmd.SilenceUsage = true
	if errors.Is(err, errCancelled) {
		fmt.Fprintln(os.Stderr, "Cancelled.")
		return err
	}

	var rej *resolver.RejectionError
	switch {
	case errors.As(err, &rej):
		fmt.Fprintln(os.Stderr, ui.RenderFailure(title, err, []string{rej.Kind.Hint()}))
	case errors.Is(err, console.ErrNoWiFiSelected), errors.Is(err, console.ErrUnknownDevice):
		fmt.Fprintln(os.Stderr, ui.RenderFailure(title, err, nil))
	default:
		fmt.Fprintln(os.Stderr, ui.RenderBackendFailure(title, err))
	}
	return err
}

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Launch the interactive console (default when no command is given)",
	Args:  cobra.NoArgs,
	RunE:  runConsole,
}

// runConsole launches the interactive console
func runConsole(cmd *cobra.Command, args []string) error {
	if !ui.IsTerminal(os.Stdout) {
		return fmt.Errorf("the interactive console needs a terminal; use the subcommands for scripting (see --help)")
	}
	reg := registry()

	// The TUI owns the terminal, so any logging goes to a file
	level := firstNonEmpty(logLevel, reg.Preferences.LogLevel, os.Getenv(logging.LogLevelEnvVar))
	file := firstNonEmpty(logFile, reg.Preferences.LogFile, os.Getenv(logging.LogFileEnvVar))
	if level != "" && file == "" {
		dir, err := config.GetConfigDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := logging.Initialize(level, filepath.Join(dir, "console.log")); err != nil {
			return err
		}
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	c, _ := newConsole(reg)
	c.Start(ctx)

	p := tea.NewProgram(tui.NewAppModel(ctx, c), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	cancel()
	c.Wait()

	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("console error: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// discoverCmd browses mDNS for dashboards
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find VoidPWN dashboards on the local network",
	Long: `Browse mDNS for VoidPWN dashboards and remember them.

Dashboards advertise as _http._tcp services. Found backends are saved to the
config file; with auto_discover enabled the most recent one is used when no
--backend is given.`,
	Example: `  # Browse for the configured time (default 5s)
  voidpwn-console discover

  # Longer browse on a busy network
  voidpwn-console discover --timeout 15`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().IntVar(&discoverTimeout, "timeout", 0, "Discovery timeout in seconds (default from config, 5)")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	reg := registry()

	secs := discoverTimeout
	if secs <= 0 {
		secs = reg.Preferences.DiscoverTimeout
	}
	fmt.Printf("Browsing for VoidPWN dashboards (timeout: %ds)...\n\n", secs)

	ctx, cancel := signalContext(cmd)
	defer cancel()

	backends, err := discovery.Discover(ctx, time.Duration(secs)*time.Second)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	ui.BackendsTable(os.Stdout, backends)
	if len(backends) == 0 {
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the device and this machine share a network segment")
		fmt.Println("  - Check that the firewall allows mDNS (UDP 5353)")
		fmt.Println("  - Use --backend to give the dashboard URL directly")
		return nil
	}

	for _, b := range backends {
		reg.RecordBackend(b.Name, b.BaseURL(), b.Hostname)
	}
	if err := reg.Save(); err != nil {
		logging.Warn("Failed to save discovered backends", zap.Error(err))
		return nil
	}
	fmt.Printf("\nSaved %d backend(s) to config.\n", len(backends))
	return nil
}

// devicesCmd lists the device inventory
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List discovered devices",
	Long: `List the dashboard's device inventory. The selected device is marked.

With --scan, a discovery scan runs first (quick, full or arp).`,
	Example: `  voidpwn-console devices
  voidpwn-console devices --scan quick`,
	RunE: runDevices,
}

func init() {
	devicesCmd.Flags().StringVar(&deviceScanMode, "scan", "", "Run a discovery scan first (quick, full, arp)")
	devicesCmd.Flags().Lookup("scan").NoOptDefVal = "quick"
}

func runDevices(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	ctx, cancel := signalContext(cmd)
	defer cancel()

	c, client := newConsole(registry())
	if deviceScanMode != "" {
		fmt.Printf("Running %s device discovery...\n", deviceScanMode)
		res, err := c.ScanDevices(ctx, deviceScanMode)
		if err != nil {
			return fail(cmd, "Device discovery failed", err)
		}
		fmt.Printf("Discovered %d devices.\n\n", res.Count)
	}

	devices, err := client.ListDevices(ctx)
	if err != nil {
		return fail(cmd, "Failed to list devices", err)
	}
	selectedIP := ""
	if d, err := client.SelectedDevice(ctx); err == nil && d != nil {
		selectedIP = d.IP
	}
	if len(devices) == 0 {
		fmt.Println("No devices yet. Run with --scan to discover hosts.")
		return nil
	}
	ui.DevicesTable(os.Stdout, devices, selectedIP)
	return nil
}

// deviceCmd groups single-device commands
var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Inspect or annotate a device",
}

var deviceShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a device's details",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeviceShow,
}

var deviceTagCmd = &cobra.Command{
	Use:   "tag ID",
	Short: "Set a device's tags and notes",
	Long: `Update the operator metadata of a device.

Tags are comma-separated; blanks are dropped. A flag that is not given keeps
the stored value.`,
	Example: `  voidpwn-console device tag dev-nas --tags "nas, storage" --notes "admin panel on 8080"`,
	Args:    cobra.ExactArgs(1),
	RunE:    runDeviceTag,
}

func init() {
	deviceTagCmd.Flags().StringVar(&deviceTags, "tags", "", "Comma-separated tags")
	deviceTagCmd.Flags().StringVar(&deviceNotes, "notes", "", "Free-form notes")
}

func lookupDevice(ctx context.Context, c *console.Console, id string) (target.Device, error) {
	if _, err := c.Devices.Poll(ctx); err != nil {
		return target.Device{}, err
	}
	d, ok := c.Device(id)
	if !ok {
		return target.Device{}, fmt.Errorf("%w: %s", console.ErrUnknownDevice, id)
	}
	return d, nil
}

func runDeviceShow(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	ctx, cancel := signalContext(cmd)
	defer cancel()

	c, _ := newConsole(registry())
	d, err := lookupDevice(ctx, c, args[0])
	if err != nil {
		return fail(cmd, "Device lookup failed", err)
	}

	tags := strings.Join(d.Tags, ", ")
	if tags == "" {
		tags = "-"
	}
	fmt.Println(ui.RenderSuccess(d.DisplayHostname(),
		ui.Param{Key: "ID", Value: d.ID},
		ui.Param{Key: "IP", Value: d.IP},
		ui.Param{Key: "MAC", Value: d.DisplayMAC()},
		ui.Param{Key: "Type", Value: d.DisplayType()},
		ui.Param{Key: "Ports", Value: ui.PortList(d.Ports)},
		ui.Param{Key: "Tags", Value: tags},
		ui.Param{Key: "Notes", Value: d.Notes},
	))
	return nil
}

func runDeviceTag(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	ctx, cancel := signalContext(cmd)
	defer cancel()

	c, _ := newConsole(registry())
	d, err := lookupDevice(ctx, c, args[0])
	if err != nil {
		return fail(cmd, "Device lookup failed", err)
	}

	tags, notes := strings.Join(d.Tags, ","), d.Notes
	if cmd.Flags().Changed("tags") {
		tags = deviceTags
	}
	if cmd.Flags().Changed("notes") {
		notes = deviceNotes
	}
	if err := c.UpdateDeviceMetadata(ctx, d.ID, notes, tags); err != nil {
		return fail(cmd, "Failed to save metadata", err)
	}

	fmt.Println(ui.RenderSuccess("Metadata updated",
		ui.Param{Key: "Device", Value: d.ID},
		ui.Param{Key: "Tags", Value: strings.Join(target.ParseTags(tags), ", ")},
		ui.Param{Key: "Notes", Value: notes},
	))
	return nil
}

// interfacesCmd lists the backend host's network interfaces
var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List the device's network interfaces and their subnets",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		ctx, cancel := signalContext(cmd)
		defer cancel()

		ifaces, err := newClient(registry()).Interfaces(ctx)
		if err != nil {
			return fail(cmd, "Failed to list interfaces", err)
		}
		ui.InterfacesTable(os.Stdout, ifaces)
		return nil
	},
}
