package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/void0x11/VoidPWN/internal/backend"
	"github.com/void0x11/VoidPWN/internal/logging"
	"github.com/void0x11/VoidPWN/internal/poller"
	"github.com/void0x11/VoidPWN/internal/ui"
)

var followLogs bool

func init() {
	rootCmd.AddCommand(reportsCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(statusCmd)
	logsCmd.AddCommand(logsViewCmd)

	logsCmd.Flags().BoolVarP(&followLogs, "follow", "f", false, "Keep printing new lines until interrupted")
}

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List the action history",
	Long: `List every action and scenario the dashboard has run, newest first, with
its status and log file. Read a log with 'voidpwn-console logs view FILE'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		ctx, cancel := signalContext(cmd)
		defer cancel()

		reports, err := newClient(registry()).Reports(ctx)
		if err != nil {
			return fail(cmd, "Failed to load reports", err)
		}
		if len(reports) == 0 {
			fmt.Println("No reports yet.")
			return nil
		}
		ui.ReportsTable(os.Stdout, reports)
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print the live log",
	Long: `Print the dashboard's live log. With --follow, new lines are printed as
they appear, at the configured log polling interval.`,
	Example: `  voidpwn-console logs
  voidpwn-console logs --follow`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

func runLogs(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	ctx, cancel := signalContext(cmd)
	defer cancel()

	reg := registry()
	client := newClient(reg)

	if !followLogs {
		entries, err := client.LiveLogs(ctx)
		if err != nil {
			return fail(cmd, "Failed to load logs", err)
		}
		ui.LogLines(os.Stdout, entries)
		return nil
	}

	var (
		prev      []backend.LogEntry
		lastErr   string
		following bool
	)
	p := poller.New("logs", client.LiveLogs,
		poller.WithOnChange(func(entries []backend.LogEntry) {
			ui.LogLines(os.Stdout, newEntries(prev, entries))
			prev = entries
			lastErr = ""
		}),
		poller.WithOnError[[]backend.LogEntry](func(err error) {
			// Repeat failures are shown once until the feed recovers
			if !following {
				return
			}
			if msg := backend.ShortMessage(err); msg != lastErr {
				lastErr = msg
				fmt.Fprintln(os.Stderr, ui.ErrorMessageStyle.Render(ui.FailureMarker+" "+backend.OperatorMessage(err)))
			}
		}),
	)

	// Poll once up front so an unreachable backend fails the command
	if _, err := p.Poll(ctx); err != nil {
		return fail(cmd, "Failed to load logs", err)
	}
	following = true
	p.Run(ctx, reg.Polling.Logs.Duration)

	logging.Debug("Log follow stopped", zap.Uint64("polls", p.Stats().Polls))
	return nil
}

// newEntries returns the entries of cur that follow prev. The backend keeps
// a bounded log, so the longest tail of prev that cur starts with marks the
// overlap. Repeated lines are matched by position, never by value alone.
// With no overlap the backend rotated its log and all of cur is new.
func newEntries(prev, cur []backend.LogEntry) []backend.LogEntry {
	for k := range prev {
		tail := prev[k:]
		if len(tail) <= len(cur) && slices.Equal(tail, cur[:len(tail)]) {
			return cur[len(tail):]
		}
	}
	return cur
}

var logsViewCmd = &cobra.Command{
	Use:     "view FILE",
	Short:   "Print the log file behind a report",
	Example: `  voidpwn-console logs view recon_20240501_133700.log`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		ctx, cancel := signalContext(cmd)
		defer cancel()

		content, err := newClient(registry()).ViewLog(ctx, args[0])
		if err != nil {
			return fail(cmd, "Failed to read "+args[0], err)
		}
		fmt.Print(content)
		if !strings.HasSuffix(content, "\n") {
			fmt.Println()
		}
		return nil
	},
}

// statusCmd checks the backend and prints its system summary
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the dashboard and show system stats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		ctx, cancel := signalContext(cmd)
		defer cancel()

		client := newClient(registry())
		info, err := client.SystemInfo(ctx)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return fail(cmd, "Dashboard unreachable", err)
		}
		fmt.Println(ui.RenderSuccess("Dashboard online",
			ui.Param{Key: "Backend", Value: client.BaseURL},
			ui.Param{Key: "System", Value: ui.SystemLine(info)},
		))
		return nil
	},
}
