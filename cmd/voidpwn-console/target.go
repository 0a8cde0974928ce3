package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/void0x11/VoidPWN/internal/console"
	"github.com/void0x11/VoidPWN/internal/target"
	"github.com/void0x11/VoidPWN/internal/ui"
)

// Target flags, shared by the target subcommands and run/scenario
var (
	wifiSSID      string
	wifiChannel   int
	subnetIface   string
	targetDevice  string
	targetBSSID   string
	targetSubnet  string
	targetIfaceNm string
)

func init() {
	rootCmd.AddCommand(targetCmd)
	targetCmd.AddCommand(targetShowCmd)
	targetCmd.AddCommand(targetDeviceCmd)
	targetCmd.AddCommand(targetWiFiCmd)
	targetCmd.AddCommand(targetSubnetCmd)
	targetCmd.AddCommand(targetIfaceCmd)

	targetWiFiCmd.Flags().StringVar(&wifiSSID, "ssid", "", "Network name")
	targetWiFiCmd.Flags().IntVar(&wifiChannel, "channel", 0, "Channel")
	targetSubnetCmd.Flags().StringVar(&subnetIface, "interface", "", "Interface to scan from")
}

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Show or change the active target",
	Long: `Show or change the target that actions run against.

The target is a discovered device, a WiFi network or a subnet. Device
selections live on the dashboard and survive restarts; network selections are
announced to the dashboard but are not readable back, so commands that need
one take it from flags (see 'voidpwn-console run --help').`,
}

var targetShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the restored target",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		ctx, cancel := signalContext(cmd)
		defer cancel()

		c, _ := newConsole(registry())
		sel, err := c.Restore(ctx)
		if err != nil {
			return fail(cmd, "Failed to restore target", err)
		}
		printSelection("Active target", sel)
		return nil
	},
}

var targetDeviceCmd = &cobra.Command{
	Use:     "device ID",
	Short:   "Target a discovered device",
	Example: `  voidpwn-console target device dev-nas`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return selectTarget(cmd, func(ctx context.Context, c *console.Console) (target.Selection, error) {
			return c.SelectDeviceByID(ctx, args[0])
		})
	},
}

var targetWiFiCmd = &cobra.Command{
	Use:     "wifi BSSID",
	Short:   "Target a WiFi network",
	Example: `  voidpwn-console target wifi AA:BB:CC:00:00:01 --ssid LabNet --channel 6`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return selectTarget(cmd, func(ctx context.Context, c *console.Console) (target.Selection, error) {
			n, err := target.WiFi(args[0], wifiSSID, wifiChannel)
			if err != nil {
				return target.Selection{}, err
			}
			return c.SelectWiFi(ctx, n)
		})
	},
}

var targetSubnetCmd = &cobra.Command{
	Use:   "subnet CIDR",
	Short: "Target a subnet",
	Long: `Target a subnet for ARP discovery and sweeps.

The dashboard may canonicalise the CIDR (e.g. 192.168.50.7/24 becomes
192.168.50.0/24); the canonical form is what is shown and used.`,
	Example: `  voidpwn-console target subnet 192.168.50.0/24 --interface wlan0`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return selectTarget(cmd, func(ctx context.Context, c *console.Console) (target.Selection, error) {
			n, err := target.Subnet(args[0], subnetIface)
			if err != nil {
				return target.Selection{}, err
			}
			return c.SelectSubnet(ctx, n)
		})
	},
}

var targetIfaceCmd = &cobra.Command{
	Use:     "iface NAME",
	Short:   "Target the subnet attached to an interface",
	Example: `  voidpwn-console target iface eth0`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return selectTarget(cmd, func(ctx context.Context, c *console.Console) (target.Selection, error) {
			return c.SelectInterfaceByName(ctx, args[0])
		})
	},
}

func selectTarget(cmd *cobra.Command, pick func(context.Context, *console.Console) (target.Selection, error)) error {
	cmd.SilenceUsage = true
	ctx, cancel := signalContext(cmd)
	defer cancel()

	c, _ := newConsole(registry())
	sel, err := pick(ctx, c)
	if err != nil {
		return fail(cmd, "Target selection failed", err)
	}
	printSelection("Target selected", sel)
	return nil
}

func printSelection(title string, sel target.Selection) {
	if sel.IsEmpty() {
		fmt.Println(ui.RenderWarning(title, ui.Param{Key: "Target", Value: target.NoneLabel}))
		return
	}
	params := []ui.Param{
		{Key: "Kind", Value: sel.Kind().String()},
		{Key: "Target", Value: sel.Label()},
	}
	if v := sel.InputValue(); v != "" {
		params = append(params, ui.Param{Key: "Value", Value: v})
	}
	fmt.Println(ui.RenderSuccess(title, params...))
}

// applyTargetFlags sets the selection from the --target-* flags of run and
// scenario, or restores the dashboard's device selection when none is given
func applyTargetFlags(ctx context.Context, c *console.Console) (target.Selection, error) {
	switch {
	case targetDevice != "":
		return c.SelectDeviceByID(ctx, targetDevice)
	case targetBSSID != "":
		n, err := target.WiFi(targetBSSID, wifiSSID, wifiChannel)
		if err != nil {
			return target.Selection{}, err
		}
		return c.SelectWiFi(ctx, n)
	case targetSubnet != "":
		n, err := target.Subnet(targetSubnet, targetIfaceNm)
		if err != nil {
			return target.Selection{}, err
		}
		return c.SelectSubnet(ctx, n)
	case targetIfaceNm != "":
		return c.SelectInterfaceByName(ctx, targetIfaceNm)
	default:
		return c.Restore(ctx)
	}
}

// addTargetFlags registers the --target-* flags on cmd
func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&targetDevice, "target-device", "", "Device ID to target")
	cmd.Flags().StringVar(&targetBSSID, "target-bssid", "", "WiFi BSSID to target")
	cmd.Flags().StringVar(&wifiSSID, "ssid", "", "Network name for --target-bssid")
	cmd.Flags().IntVar(&wifiChannel, "channel", 0, "Channel for --target-bssid")
	cmd.Flags().StringVar(&targetSubnet, "target-subnet", "", "Subnet CIDR to target")
	cmd.Flags().StringVar(&targetIfaceNm, "interface", "", "Interface (with --target-subnet, or alone to target its subnet)")
	cmd.MarkFlagsMutuallyExclusive("target-device", "target-bssid", "target-subnet")
}
