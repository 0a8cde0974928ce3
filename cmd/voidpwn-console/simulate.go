package main

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/void0x11/VoidPWN/internal/backendsim"
	"github.com/void0x11/VoidPWN/internal/discovery"
	"github.com/void0x11/VoidPWN/internal/logging"
	"github.com/void0x11/VoidPWN/internal/ui"
	"github.com/void0x11/VoidPWN/internal/version"
)

// Simulator flags
var (
	simAddr         string
	simScanDuration int
	simName         string
	simNoAdvertise  bool
)

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVar(&simAddr, "addr", ":5000", "Listen address")
	simulateCmd.Flags().IntVar(&simScanDuration, "scan-duration", backendsim.DefaultScanDuration, "Declared WiFi scan length in seconds")
	simulateCmd.Flags().StringVar(&simName, "name", "voidpwn-sim", "mDNS instance name")
	simulateCmd.Flags().BoolVar(&simNoAdvertise, "no-advertise", false, "Do not announce the simulator over mDNS")
}

// simulateCmd runs the in-memory dashboard
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a simulated dashboard for offline use",
	Long: `Serve the dashboard API from memory, with a small lab network of devices,
sample WiFi networks and this host's interfaces and system stats.

Actions never run any tool: they only add log lines and report rows. The
simulator is announced over mDNS so 'voidpwn-console discover' finds it.`,
	Example: `  # Simulate on the default port
  voidpwn-console simulate

  # Short scans, and point a console at it
  voidpwn-console simulate --addr 127.0.0.1:5050 --scan-duration 3
  voidpwn-console --backend http://127.0.0.1:5050`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func runSimulate(cmd *cobra.Command, args []string) error {
	_, portStr, err := net.SplitHostPort(simAddr)
	if err != nil {
		return fmt.Errorf("invalid --addr %q: %w", simAddr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port in --addr %q", simAddr)
	}
	cmd.SilenceUsage = true

	ctx, cancel := signalContext(cmd)
	defer cancel()

	sim := backendsim.New(backendsim.Config{ScanDuration: simScanDuration})

	advertised := "off"
	if !simNoAdvertise {
		adv, err := discovery.Advertise(simName, port, "version="+version.Version)
		if err != nil {
			// Discovery is a convenience; the API is still reachable
			logging.Warn("mDNS advertisement failed", zap.Error(err))
			advertised = "failed (" + err.Error() + ")"
		} else {
			defer adv.Shutdown()
			advertised = simName + "." + discovery.ServiceType
		}
	}

	fmt.Println(ui.NewHeader("BACKEND SIMULATOR", "voidpwn-console simulate",
		ui.Param{Key: "Listen", Value: simAddr},
		ui.Param{Key: "Scan", Value: fmt.Sprintf("%ds", simScanDuration)},
		ui.Param{Key: "mDNS", Value: advertised},
	).Render())
	fmt.Println("\nPress Ctrl+C to stop.")

	if err := sim.ListenAndServe(ctx, simAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("simulator error: %w", err)
	}
	fmt.Println("Simulator stopped.")
	return nil
}
