// Package ui provides terminal output components for the voidpwn-console CLI.
//
// These components follow a "run once and exit" pattern: they render output
// for one-shot commands and never take over the terminal. The interactive
// console lives in internal/tui.
//
// # Components
//
//   - Header: command banner showing the operation and its parameters
//   - Countdown: label plus progress bar for the timed WiFi scan
//   - Result: success, failure and warning boxes
//   - Confirm: "I AGREE" gate in front of disruptive actions
//   - Tables: networks, devices, reports and interfaces via rodaine/table
//
// Table and log colors come from fatih/color and are switched off by
// ConfigureColor when output is not a terminal or NO_COLOR is set.
//
// # Logging Integration
//
// Logging is controlled by VOIDPWN_LOG_LEVEL. When unset, zap logging is
// silent so the rendered output is the only thing on screen.
package ui
