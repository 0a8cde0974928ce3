package main

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/void0x11/VoidPWN/internal/backend"
	"github.com/void0x11/VoidPWN/internal/backendsim"
	"github.com/void0x11/VoidPWN/internal/config"
	"github.com/void0x11/VoidPWN/internal/resolver"
	"github.com/void0x11/VoidPWN/internal/target"
)

func TestParseData(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]string
		wantErr bool
	}{
		{name: "empty", pairs: nil, want: map[string]string{}},
		{name: "single", pairs: []string{"mode=quick"}, want: map[string]string{"mode": "quick"}},
		{name: "value with equals", pairs: []string{"args=-p 1-100 --script=vuln"}, want: map[string]string{"args": "-p 1-100 --script=vuln"}},
		{name: "empty value", pairs: []string{"note="}, want: map[string]string{"note": ""}},
		{name: "key is trimmed", pairs: []string{" mode =full"}, want: map[string]string{"mode": "full"}},
		{name: "missing equals", pairs: []string{"quick"}, wantErr: true},
		{name: "missing key", pairs: []string{"=quick"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseData(tt.pairs)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseData(%q) should fail", tt.pairs)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseData() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseData() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("parseData()[%q] = %v, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestNewEntries(t *testing.T) {
	a := backend.LogEntry{Time: "10:00:00", Type: backend.LogInfo, Msg: "a"}
	b := backend.LogEntry{Time: "10:00:01", Type: backend.LogInfo, Msg: "b"}
	c := backend.LogEntry{Time: "10:00:02", Type: backend.LogSuccess, Msg: "c"}
	x := backend.LogEntry{Time: "11:00:00", Type: backend.LogInfo, Msg: "x"}

	tests := []struct {
		name string
		prev []backend.LogEntry
		cur  []backend.LogEntry
		want []backend.LogEntry
	}{
		{name: "first fetch", prev: nil, cur: []backend.LogEntry{a, b}, want: []backend.LogEntry{a, b}},
		{name: "appended", prev: []backend.LogEntry{a, b}, cur: []backend.LogEntry{a, b, c}, want: []backend.LogEntry{c}},
		{name: "unchanged", prev: []backend.LogEntry{a, b}, cur: []backend.LogEntry{a, b}, want: nil},
		{name: "head trimmed", prev: []backend.LogEntry{a, b}, cur: []backend.LogEntry{b, c}, want: []backend.LogEntry{c}},
		{name: "rotated", prev: []backend.LogEntry{a, b}, cur: []backend.LogEntry{x}, want: []backend.LogEntry{x}},
		{name: "repeated line matched by position", prev: []backend.LogEntry{a}, cur: []backend.LogEntry{a, b, a, c}, want: []backend.LogEntry{b, a, c}},
		{name: "duplicate of last line", prev: []backend.LogEntry{a}, cur: []backend.LogEntry{a, a}, want: []backend.LogEntry{a}},
		{name: "duplicates after trim", prev: []backend.LogEntry{a, b, b}, cur: []backend.LogEntry{b, b, b}, want: []backend.LogEntry{b}},
		{name: "duplicate run unchanged", prev: []backend.LogEntry{a, a}, cur: []backend.LogEntry{a, a}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newEntries(tt.prev, tt.cur)
			if len(got) != len(tt.want) {
				t.Fatalf("newEntries() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("newEntries()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestResolveBackendURL(t *testing.T) {
	discovered := func() *config.Registry {
		reg := config.NewRegistry()
		reg.RecordBackend("voidpwn-old", "http://10.0.0.1:5000", "old.local.")
		reg.Backends["voidpwn-old"].LastSeen = time.Now().Add(-time.Hour)
		reg.RecordBackend("voidpwn-pi", "http://192.168.4.1:5000", "voidpwn.local.")
		return reg
	}

	tests := []struct {
		name string
		reg  func() *config.Registry
		flag string
		want string
	}{
		{
			name: "defaults",
			reg:  config.NewRegistry,
			want: config.DefaultBackendURL,
		},
		{
			name: "flag wins",
			reg:  discovered,
			flag: "http://127.0.0.1:5050/",
			want: "http://127.0.0.1:5050",
		},
		{
			name: "configured url",
			reg: func() *config.Registry {
				reg := discovered()
				reg.Backend.URL = "http://10.9.9.9:5000"
				return reg
			},
			want: "http://10.9.9.9:5000",
		},
		{
			name: "most recent discovered",
			reg:  discovered,
			want: "http://192.168.4.1:5000",
		},
		{
			name: "auto discover off",
			reg: func() *config.Registry {
				reg := discovered()
				reg.Preferences.AutoDiscover = false
				return reg
			},
			want: config.DefaultBackendURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveBackendURL(tt.reg(), tt.flag); got != tt.want {
				t.Errorf("resolveBackendURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

// execute runs the root command against a simulator with a throwaway config
func execute(t *testing.T, sim *backendsim.Server, args ...string) error {
	t.Helper()
	srv := httptest.NewServer(sim)
	t.Cleanup(srv.Close)

	// Flag variables outlive a single Execute
	targetDevice, targetBSSID, targetSubnet, targetIfaceNm = "", "", "", ""
	wifiSSID, wifiChannel, runMode, runData, assumeYes = "", 0, "", nil, false

	cfg := filepath.Join(t.TempDir(), "console.yaml")
	t.Cleanup(func() { config.SetConfigPath("") })

	rootCmd.SetArgs(append(args, "--backend", srv.URL, "--config", cfg))
	return rootCmd.Execute()
}

func TestRunCommand(t *testing.T) {
	t.Run("device recon", func(t *testing.T) {
		sim := backendsim.New(backendsim.Config{})
		if err := execute(t, sim, "run", "recon", "--mode", "quick", "--target-device", "dev-nas"); err != nil {
			t.Fatalf("run recon error = %v", err)
		}
		if n := sim.Requests("/api/action/recon"); n != 1 {
			t.Errorf("recon requests = %d, want 1", n)
		}
		if id, _ := sim.Selected(); id != "dev-nas" {
			t.Errorf("selected device = %q, want dev-nas", id)
		}
	})

	t.Run("wifi action without network is rejected locally", func(t *testing.T) {
		sim := backendsim.New(backendsim.Config{})
		err := execute(t, sim, "run", "deauth", "--yes")
		if !resolver.IsRejection(err) {
			t.Fatalf("run deauth error = %v, want rejection", err)
		}
		if n := sim.Requests("/api/action/deauth"); n != 0 {
			t.Errorf("deauth requests = %d, want 0", n)
		}
	})

	t.Run("subnet is canonicalised", func(t *testing.T) {
		sim := backendsim.New(backendsim.Config{})
		if err := execute(t, sim, "target", "subnet", "192.168.50.7/24", "--interface", "wlan0"); err != nil {
			t.Fatalf("target subnet error = %v", err)
		}
		_, n := sim.Selected()
		if n == nil || n.CIDR() != "192.168.50.0/24" {
			t.Errorf("selected network = %v, want 192.168.50.0/24", n)
		}
	})

	t.Run("bad data pair", func(t *testing.T) {
		sim := backendsim.New(backendsim.Config{})
		if err := execute(t, sim, "run", "recon", "--data", "oops"); err == nil {
			t.Error("run with a malformed --data should fail")
		}
		if n := sim.Requests("/api/action/recon"); n != 0 {
			t.Errorf("recon requests = %d, want 0", n)
		}
	})
}

func TestFail_Cancelled(t *testing.T) {
	if err := fail(runCmd, "", errCancelled); !errors.Is(err, errCancelled) {
		t.Errorf("fail() = %v, want errCancelled", err)
	}
}

// TestRunHelp_ActionGroups keeps the action table in run's help in line
// with how each action resolves when nothing is selected.
func TestRunHelp_ActionGroups(t *testing.T) {
	none := target.Selection{}
	checks := map[string]func(action string) error{
		"need a WiFi network": func(action string) error {
			_, err := resolver.Resolve(action, nil, none)
			if kind, ok := resolver.KindOf(err); !ok || kind != resolver.WifiTargetRequired {
				return fmt.Errorf("error = %v, want WifiTargetRequired", err)
			}
			return nil
		},
		"use the WiFi network if one is selected": func(action string) error {
			if !resolver.IsWiFiAction(action) {
				return errors.New("not a WiFi action")
			}
			_, err := resolver.Resolve(action, nil, none)
			return err
		},
		"broadcasts and needs no target": func(action string) error {
			if resolver.IsWiFiAction(action) {
				return errors.New("is a WiFi action")
			}
			got, err := resolver.Resolve(action, nil, none)
			if err == nil && got != "" {
				return fmt.Errorf("resolved %q, want empty", got)
			}
			return err
		},
		"uses the latest capture": func(action string) error {
			got, err := resolver.Resolve(action, nil, none)
			if got != resolver.LatestCapture {
				return fmt.Errorf("resolved %q (%v), want %s", got, err, resolver.LatestCapture)
			}
			return nil
		},
		"uses the device, or a subnet for discovery modes": func(action string) error {
			_, err := resolver.Resolve(action, resolver.Data{"mode": "quick"}, none)
			if kind, ok := resolver.KindOf(err); !ok || kind != resolver.TargetRequired {
				return fmt.Errorf("error = %v, want TargetRequired", err)
			}
			return nil
		},
	}

	seen := make(map[string]bool)
	for _, line := range strings.Split(runCmd.Long, "\n") {
		if !strings.HasPrefix(line, "  ") {
			continue
		}
		row := strings.TrimSpace(line)
		i := strings.Index(row, "  ")
		if i < 0 {
			continue
		}
		desc := strings.TrimSpace(row[i:])
		check, ok := checks[desc]
		if !ok {
			t.Errorf("help row %q has no matching rule", row)
			continue
		}
		seen[desc] = true
		for _, action := range strings.Split(row[:i], ",") {
			action = strings.TrimSpace(action)
			if err := check(action); err != nil {
				t.Errorf("%s listed as %q: %v", action, desc, err)
			}
		}
	}
	for desc := range checks {
		if !seen[desc] {
			t.Errorf("help is missing the %q row", desc)
		}
	}
}
