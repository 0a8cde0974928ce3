// Voidpwn-console is the operator console for a VoidPWN device.
//
// It talks to the device's dashboard API to pick a target (a discovered
// host, a WiFi network or a local subnet), launch actions against it and
// follow the live logs and reports they produce.
//
// Usage:
//
//	voidpwn-console [command] [flags]
//
// Running without arguments launches the interactive console.
// See 'voidpwn-console --help' for available commands.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/void0x11/VoidPWN/internal/config"
	"github.com/void0x11/VoidPWN/internal/logging"
	"github.com/void0x11/VoidPWN/internal/ui"
	"github.com/void0x11/VoidPWN/internal/version"
)

func main() {
	defer logging.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	backendURL string
	configPath string
	logLevel   string
	logFile    string
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "voidpwn-console",
	Short: "VoidPWN Operator Console",
	Long: `Operator console for a VoidPWN device.

Select a target (device, WiFi network or subnet), run recon and WiFi
actions against it, and follow live logs and reports from the device's
dashboard API.

If no command is specified, the interactive console will launch automatically.`,
	Version:           version.Version,
	PersistentPreRunE: setup,
	RunE:              runConsole,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "Dashboard URL (e.g. http://192.168.4.1:5000)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $VOIDPWN_CONFIG, then $XDG_CONFIG_HOME/voidpwn/console.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when empty")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Request timeout (default from config, 10s)")

	rootCmd.AddCommand(versionCmd)
}

// setup applies flags over the config file, in that order of precedence
func setup(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		config.SetConfigPath(configPath)
	}
	reg, err := config.LoadRegistry()
	if err != nil {
		return err
	}

	level, file := logLevel, logFile
	if level == "" {
		level = reg.Preferences.LogLevel
	}
	if file == "" {
		file = reg.Preferences.LogFile
	}
	if err := logging.Initialize(level, file); err != nil {
		return err
	}

	ui.ConfigureColor(os.Stdout)
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s\n", version.Product, version.Full())
		if !version.Built.IsZero() {
			fmt.Printf("built: %s\n", version.Built.Format(time.RFC3339))
		}
	},
}
