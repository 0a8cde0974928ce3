package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CurrentVersion is the only schema version this package reads
const CurrentVersion = 1

// DefaultBackendURL is the dashboard address on a locally attached device
const DefaultBackendURL = "http://127.0.0.1:5000"

// Registry represents the entire console configuration file.
// The operator's target selection is never stored here; it lives on the
// backend and is restored from it at startup.
type Registry struct {
	Version     int                 `yaml:"version"`
	Backend     *BackendPrefs       `yaml:"backend,omitempty"`
	Polling     *Polling            `yaml:"polling,omitempty"`
	Preferences *Preferences        `yaml:"preferences,omitempty"`
	Backends    map[string]*Backend `yaml:"backends,omitempty"` // Keyed by mDNS instance name
}

// BackendPrefs selects the dashboard the console talks to
type BackendPrefs struct {
	URL     string   `yaml:"url"`
	Timeout Duration `yaml:"timeout"`
}

// Polling holds the refresh interval of each live view
type Polling struct {
	Logs    Duration `yaml:"logs"`
	Reports Duration `yaml:"reports"`
	System  Duration `yaml:"system"`
	Devices Duration `yaml:"devices"`
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	AutoDiscover    bool   `yaml:"auto_discover"`       // Browse mDNS when no backend URL is configured
	DiscoverTimeout int    `yaml:"discover_timeout"`    // mDNS discovery timeout in seconds
	LogLevel        string `yaml:"log_level,omitempty"` // Empty keeps logging silent
	LogFile         string `yaml:"log_file,omitempty"`
}

// Backend is a dashboard found by discovery or used before
type Backend struct {
	URL      string    `yaml:"url"`
	Host     string    `yaml:"host,omitempty"`
	LastSeen time.Time `yaml:"last_seen,omitempty"`
}

// Duration wraps time.Duration for YAML values like "5s" or "2m".
// Bare integers are read as seconds.
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Duration = 0
		return nil
	}
	if secs, err := strconv.Atoi(s); err == nil {
		d.Duration = time.Duration(secs) * time.Second
		return nil
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = dur
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	r := &Registry{Version: CurrentVersion}
	r.applyDefaults()
	return r
}

// applyDefaults fills every missing section and zero interval
func (r *Registry) applyDefaults() {
	if r.Backends == nil {
		r.Backends = make(map[string]*Backend)
	}
	if r.Backend == nil {
		r.Backend = &BackendPrefs{}
	}
	if r.Backend.URL == "" {
		r.Backend.URL = DefaultBackendURL
	}
	if r.Backend.Timeout.Duration <= 0 {
		r.Backend.Timeout.Duration = 10 * time.Second
	}

	if r.Polling == nil {
		r.Polling = &Polling{}
	}
	setDefault(&r.Polling.Logs, 2*time.Second)
	setDefault(&r.Polling.Reports, 10*time.Second)
	setDefault(&r.Polling.System, 5*time.Second)
	setDefault(&r.Polling.Devices, 30*time.Second)

	if r.Preferences == nil {
		r.Preferences = &Preferences{AutoDiscover: true}
	}
	if r.Preferences.DiscoverTimeout <= 0 {
		r.Preferences.DiscoverTimeout = 5
	}
}

func setDefault(d *Duration, v time.Duration) {
	if d.Duration <= 0 {
		d.Duration = v
	}
}

// GetBackend retrieves a known backend by name.
// Returns nil if it has never been recorded.
func (r *Registry) GetBackend(name string) *Backend {
	return r.Backends[name]
}

// RecordBackend stores or refreshes a discovered backend
func (r *Registry) RecordBackend(name, url, host string) *Backend {
	if r.Backends == nil {
		r.Backends = make(map[string]*Backend)
	}
	b, ok := r.Backends[name]
	if !ok {
		b = &Backend{}
		r.Backends[name] = b
	}
	b.URL = url
	b.Host = host
	b.LastSeen = time.Now()
	return b
}

// MostRecentBackend returns the backend seen last, if any
func (r *Registry) MostRecentBackend() (string, *Backend, bool) {
	var (
		name string
		best *Backend
	)
	for _, n := range r.BackendNames() {
		b := r.Backends[n]
		if best == nil || b.LastSeen.After(best.LastSeen) {
			name, best = n, b
		}
	}
	return name, best, best != nil
}

// BackendNames returns the recorded backend names in sorted order
func (r *Registry) BackendNames() []string {
	names := make([]string, 0, len(r.Backends))
	for n := range r.Backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
