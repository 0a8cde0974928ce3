// Package logging provides structured logging for the VoidPWN console.
//
// This package wraps a global zap logger with convenience functions for the
// console's recurring events: backend requests, selection changes, action
// dispatch, poll outcomes and scan lifecycle transitions.
//
// # Log Levels
//
//   - Debug: request timings, unchanged polls
//   - Info: selection changes, dispatched actions, scan transitions
//   - Warn: failed requests and polls (the console keeps running)
//   - Error: startup failures
//
// # Configuration
//
// Logging is silent unless a level is given, either explicitly or through
// VOIDPWN_LOG_LEVEL. The interactive console always passes a file path so
// log lines never corrupt the terminal UI:
//
//	if err := logging.Initialize("debug", "/tmp/voidpwn.log"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Structured Logging
//
//	logging.LogSelection("network", "[WiFi] corp (AA:BB:CC:DD:EE:FF)")
//	logging.LogPoll("logs", true, nil)
//
// All functions are safe for concurrent use.
package logging
