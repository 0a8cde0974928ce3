package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "voidpwn"
	configFile = "console.yaml"

	// ConfigEnvVar names a config file to use instead of the default location.
	// The --config flag takes precedence.
	ConfigEnvVar = "VOIDPWN_CONFIG"
)

const fileHeader = `# VoidPWN Console Configuration
# Backend address, refresh intervals and discovered dashboards.
#
# The current target is not stored here. The console restores it from
# the backend on startup.
#
`

// store is the process-wide registry, loaded once
var store struct {
	mu       sync.Mutex // guards path and once, and serialises writes
	path     string     // --config override
	once     sync.Once
	registry *Registry
	err      error
}

// GetConfigDir returns the per-user directory holding console.yaml:
//   - Linux: $XDG_CONFIG_HOME/voidpwn or $HOME/.config/voidpwn
//   - macOS: $HOME/.config/voidpwn
//   - Windows: %LOCALAPPDATA%\voidpwn
func GetConfigDir() (string, error) {
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return filepath.Join(dir, appName), nil
		}
		if profile := os.Getenv("USERPROFILE"); profile != "" {
			return filepath.Join(profile, "AppData", "Local", appName), nil
		}
		return "", errors.New("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
	}

	// macOS deliberately shares the Unix layout
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" && runtime.GOOS != "darwin" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// GetConfigPath returns the config file in effect: the SetConfigPath
// override, then $VOIDPWN_CONFIG, then console.yaml in GetConfigDir.
func GetConfigPath() (string, error) {
	store.mu.Lock()
	override := store.path
	store.mu.Unlock()

	if override != "" {
		return override, nil
	}
	if env := os.Getenv(ConfigEnvVar); env != "" {
		return env, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// SetConfigPath points the global registry at path and forgets any loaded
// copy; an empty path restores the default.
func SetConfigPath(path string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.path = path
	store.once = sync.Once{}
}

// LoadRegistry returns the global registry, reading it on first use.
// Every caller shares the same instance.
func LoadRegistry() (*Registry, error) {
	store.mu.Lock()
	once := &store.once
	store.mu.Unlock()

	once.Do(func() {
		path, err := GetConfigPath()
		if err != nil {
			store.registry, store.err = nil, fmt.Errorf("failed to get config path: %w", err)
			return
		}
		store.registry, store.err = LoadFile(path)
	})
	return store.registry, store.err
}

// ReloadRegistry drops the shared instance and reads the file again
func ReloadRegistry() (*Registry, error) {
	store.mu.Lock()
	store.once = sync.Once{}
	store.mu.Unlock()
	return LoadRegistry()
}

// LoadFile reads a registry from path. A missing file yields defaults.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewRegistry(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	reg := &Registry{}
	if err := yaml.Unmarshal(data, reg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if reg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version: %d (expected %d)", reg.Version, CurrentVersion)
	}
	reg.applyDefaults()
	return reg, nil
}

// Save writes the registry to the path in effect
func (r *Registry) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return r.SaveFile(path)
}

// SaveFile writes the registry to path through a temporary file and a
// rename, so a crash never leaves a truncated config. The file is 0600.
func (r *Registry) SaveFile(path string) error {
	body, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data := append([]byte(fileHeader+"# Location: "+path+"\n\n"), body...)

	store.mu.Lock()
	defer store.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}
