// Package version reports the console's build identity.
//
// Release builds stamp Version and Commit through ldflags:
//
//	go build -ldflags="-X github.com/void0x11/VoidPWN/internal/version.Version=v1.2.3 \
//	                   -X github.com/void0x11/VoidPWN/internal/version.Commit=abc123" ./cmd/voidpwn-console
//
// Unstamped builds fall back to the VCS data the Go toolchain embeds, and
// finally to a dev version.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Product is the name reported to the backend and in version output
const Product = "voidpwn-console"

// Set through ldflags
var (
	Version = ""
	Commit  = ""
)

// Built is the VCS commit time when the toolchain recorded one
var Built time.Time

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		applyBuildSettings(info.Settings)
	}
	if Version == "" {
		Version = "dev"
		if !Built.IsZero() {
			Version += "-" + Built.UTC().Format("20060102")
		}
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// applyBuildSettings fills whatever ldflags left empty from vcs.* settings
func applyBuildSettings(settings []debug.BuildSetting) {
	vcs := make(map[string]string, len(settings))
	for _, s := range settings {
		vcs[s.Key] = s.Value
	}

	if t, err := time.Parse(time.RFC3339, vcs["vcs.time"]); err == nil {
		Built = t
	}
	if Commit == "" && vcs["vcs.revision"] != "" {
		Commit = shortRevision(vcs["vcs.revision"])
		if vcs["vcs.modified"] == "true" {
			Commit += "-dirty"
		}
	}
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// Full returns the version with its commit, e.g. "v1.2.3 (commit: abc123)"
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// UserAgent is the User-Agent header sent with every backend request
func UserAgent() string {
	return fmt.Sprintf("%s/%s (%s/%s)", Product, Version, runtime.GOOS, runtime.GOARCH)
}
