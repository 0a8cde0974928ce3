// Package tui implements the interactive VoidPWN console using Bubble Tea.
//
// The console is one full-screen model with five tabs:
//
//   - Targets: device inventory, quick discovery, interface subnets
//   - WiFi: timed scan with countdown, network selection, connect
//   - Attack: recon modes, WiFi attacks and scenario playbooks
//   - Reports: action history, log file viewer
//   - Logs: the backend's live log and the console's own activity
//
// The model owns no target state. Every operation goes through
// console.Console in a tea.Cmd, and console events are bridged into the
// program as messages so each view re-reads the state it shows. The target
// badge in the header therefore always matches what the next action will
// be sent against.
//
// # Usage
//
//	c := console.New(client, console.DefaultOptions())
//	c.Start(ctx)
//	app := tui.NewAppModel(ctx, c)
//	program := tea.NewProgram(app, tea.WithAltScreen())
//
//	if _, err := program.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Logging
//
// Bubble Tea owns the terminal, so logs must go to a file
// (VOIDPWN_LOG_FILE or --log-file) when a level is set.
package tui
