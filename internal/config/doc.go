// Package config provides user configuration management for the VoidPWN console.
//
// This package manages a YAML-based configuration file that stores the
// dashboard address, refresh intervals, logging preferences and the backends
// found by mDNS discovery. The configuration follows OS-specific conventions
// for storage location.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/voidpwn/console.yaml or $HOME/.config/voidpwn/console.yaml
//   - macOS: $HOME/.config/voidpwn/console.yaml
//   - Windows: %LOCALAPPDATA%\voidpwn\console.yaml
//
// $VOIDPWN_CONFIG replaces this location, and the --config flag replaces
// both through SetConfigPath.
//
// # Example
//
//	version: 1
//	backend:
//	  url: http://192.168.4.1:5000
//	  timeout: 10s
//	polling:
//	  logs: 2s
//	  reports: 10s
//	  system: 5s
//	  devices: 30s
//	preferences:
//	  auto_discover: true
//	  discover_timeout: 5
//
// Durations accept Go duration strings or bare seconds.
//
// # What Is Not Stored
//
// The operator's current target is never persisted. WiFi passwords are
// always prompted and never written to disk.
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
