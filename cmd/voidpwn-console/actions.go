package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/void0x11/VoidPWN/internal/backend"
	"github.com/void0x11/VoidPWN/internal/console"
	"github.com/void0x11/VoidPWN/internal/resolver"
	"github.com/void0x11/VoidPWN/internal/ui"
)

// Action command flags
var (
	runMode      string
	runData      []string
	assumeYes    bool
	wifiPassword string
)

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scenarioCmd)
	rootCmd.AddCommand(wifiCmd)
	wifiCmd.AddCommand(wifiScanCmd)
	wifiCmd.AddCommand(wifiConnectCmd)

	runCmd.Flags().StringVar(&runMode, "mode", "", "Action mode (e.g. quick, full, web, arp for recon)")
	runCmd.Flags().StringArrayVar(&runData, "data", nil, "Extra request field as key=value (repeatable)")
	runCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation for disruptive actions")
	addTargetFlags(runCmd)

	scenarioCmd.Flags().StringVar(&targetDevice, "target-device", "", "Device ID to target")

	wifiConnectCmd.Flags().StringVar(&wifiPassword, "password", "", "Network password (prompted when omitted)")
}

// runCmd launches one action against the target
var runCmd = &cobra.Command{
	Use:   "run ACTION",
	Short: "Run an action against the target",
	Long: `Resolve the target for ACTION and start it on the dashboard.

  deauth, handshake, pixie, evil_twin   need a WiFi network
  pmkid, auth, wifite                   use the WiFi network if one is selected
  beacon                                broadcasts and needs no target
  crack                                 uses the latest capture
  recon                                 uses the device, or a subnet for discovery modes

The target comes from the --target-* flags, or from the dashboard's device
selection when none is given.

Actions that transmit on the air ask for confirmation unless --yes is given.`,
	Example: `  # Quick recon of a discovered device
  voidpwn-console run recon --mode quick --target-device dev-nas

  # ARP discovery of a subnet
  voidpwn-console run recon --mode arp --target-subnet 192.168.50.0/24 --interface wlan0

  # Capture a handshake
  voidpwn-console run handshake --target-bssid AA:BB:CC:00:00:01 --ssid LabNet --channel 6

  # Crack the latest capture
  voidpwn-console run crack`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	action := strings.ToLower(args[0])
	data, err := parseData(runData)
	if err != nil {
		return err
	}
	if runMode != "" {
		data["mode"] = runMode
	}
	cmd.SilenceUsage = true

	ctx, cancel := signalContext(cmd)
	defer cancel()

	c, client := newConsole(registry())
	sel, err := applyTargetFlags(ctx, c)
	if err != nil {
		return fail(cmd, "Target selection failed", err)
	}

	// Reject before prompting so the operator is never asked to confirm
	// an action that cannot be dispatched
	if _, err := resolver.Resolve(action, data, sel); err != nil {
		return fail(cmd, strings.ToUpper(action)+" not started", err)
	}
	if ui.IsDisruptive(action) && !assumeYes {
		if !ui.ConfirmAction(os.Stdin, os.Stdout, action, sel.Label()) {
			return fail(cmd, "", errCancelled)
		}
	}

	resolved, err := c.RunAction(ctx, action, data)
	if err != nil {
		return fail(cmd, strings.ToUpper(action)+" failed", err)
	}

	shown := resolved
	if shown == "" {
		shown = "(none)"
	}
	params := []ui.Param{
		{Key: "Action", Value: strings.ToUpper(action)},
		{Key: "Target", Value: shown},
	}
	if mode := data.Mode(); mode != "" {
		params = append(params, ui.Param{Key: "Mode", Value: mode})
	}
	params = append(params, ui.Param{Key: "Backend", Value: client.BaseURL})
	fmt.Println(ui.RenderSuccess(strings.ToUpper(action)+" started", params...))
	fmt.Println("Follow progress with 'voidpwn-console logs --follow'.")
	return nil
}

// parseData turns key=value pairs into request fields
func parseData(pairs []string) (resolver.Data, error) {
	data := resolver.Data{}
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --data %q: expected key=value", pair)
		}
		data[k] = v
	}
	return data, nil
}

// scenarioCmd runs a multi-step playbook
var scenarioCmd = &cobra.Command{
	Use:   "scenario NAME",
	Short: "Run a scenario playbook",
	Long: `Run a scenario (network_sweep, web_hunt, wifi_audit, stealth_recon).

The selected device is passed as the target when there is one; otherwise the
dashboard picks the target itself.`,
	Example: `  voidpwn-console scenario network_sweep
  voidpwn-console scenario web_hunt --target-device dev-nas`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		ctx, cancel := signalContext(cmd)
		defer cancel()

		c, _ := newConsole(registry())
		var err error
		if targetDevice != "" {
			_, err = c.SelectDeviceByID(ctx, targetDevice)
		} else {
			_, err = c.Restore(ctx)
		}
		if err != nil {
			return fail(cmd, "Target selection failed", err)
		}

		resolved, err := c.RunScenario(ctx, args[0])
		if err != nil {
			return fail(cmd, "Scenario failed", err)
		}
		if resolved == "" {
			resolved = "(chosen by dashboard)"
		}
		fmt.Println(ui.RenderSuccess("Scenario running",
			ui.Param{Key: "Scenario", Value: args[0]},
			ui.Param{Key: "Target", Value: resolved},
		))
		return nil
	},
}

var wifiCmd = &cobra.Command{
	Use:   "wifi",
	Short: "Scan for and join WiFi networks",
}

var wifiScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for WiFi networks",
	Long: `Start a WiFi scan on the device, wait out its declared duration and list
the networks found.`,
	Args: cobra.NoArgs,
	RunE: runWiFiScan,
}

func runWiFiScan(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	ctx, cancel := signalContext(cmd)
	defer cancel()

	c, _ := newConsole(registry())
	tty := ui.IsTerminal(os.Stdout)
	cd := ui.NewCountdown(0)
	started := false

	c.Subscribe(func(e console.Event) {
		if e.Kind != console.EventScan {
			return
		}
		remaining := c.Scan.Remaining()
		if remaining > cd.Total {
			cd.Total = remaining
		}
		cd.Update(e.Text, remaining)
		switch {
		case tty:
			fmt.Printf("\r\033[K%s", cd.Line())
		case !started:
			fmt.Printf("Scanning for %ds...\n", remaining)
		}
		started = true
	})

	nets, err := c.ScanWiFi(ctx)
	if tty && started {
		fmt.Print("\r\033[K")
	}
	if err != nil {
		return fail(cmd, "WiFi scan failed", err)
	}

	fmt.Println(cd.RenderDone(fmt.Sprintf("Found %d networks", len(nets))))
	fmt.Println()
	ui.NetworksTable(os.Stdout, nets)
	if len(nets) > 0 {
		fmt.Println("\nTarget one with 'voidpwn-console target wifi BSSID --ssid NAME --channel N'.")
	}
	return nil
}

var wifiConnectCmd = &cobra.Command{
	Use:     "connect SSID",
	Short:   "Join the device to a WiFi network",
	Example: `  voidpwn-console wifi connect LabNet`,
	Args:    cobra.ExactArgs(1),
	RunE:    runWiFiConnect,
}

func runWiFiConnect(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	ssid := args[0]

	password := wifiPassword
	if password == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Printf("Password for %s: ", ssid)
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(raw)
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	// The console joins only the selected network; a named SSID goes straight
	// to the client
	msg, err := newClient(registry()).ConnectWiFi(ctx, backend.WiFiCredentials{SSID: ssid, Password: password})
	if err != nil {
		return fail(cmd, "WiFi connect failed", err)
	}
	if msg == "" {
		msg = "Connected to " + ssid
	}
	fmt.Println(ui.RenderSuccess(msg, ui.Param{Key: "SSID", Value: ssid}))
	return nil
}
