package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "bacli"
	configFile = "config.yaml"
)

// Store holds the known devices of one config file. The CLI loads it once
// and passes it to the commands that need it; there is no global instance.
type Store struct {
	path    string
	mu      sync.Mutex
	devices []Device
}

// GetConfigDir returns the OS-appropriate configuration directory.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/bacli or $HOME/.config/bacli
//   - macOS: $HOME/.config/bacli (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\bacli
func GetConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, appName), nil
		}
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", errors.New("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
		}
		return filepath.Join(userProfile, "AppData", "Local", appName), nil

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil

	default:
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			return filepath.Join(xdgConfigHome, appName), nil
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil
	}
}

// DefaultPath returns the full path to the default configuration file.
func DefaultPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// Load reads the config file at path. A missing file yields an empty store
// that will create the file on its first Save.
func Load(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// Files written before the version key existed only held a device list
	if doc.Version != 0 && doc.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version: %d (expected %d)", doc.Version, CurrentVersion)
	}

	s.devices = doc.Devices
	return s, nil
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Devices returns a copy of the known devices in insertion order.
func (s *Store) Devices() []Device {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Device(nil), s.devices...)
}

// IsEmpty reports whether no device is known.
func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.devices) == 0
}

// Lookup finds the device whose address or alias equals ident and returns
// its address.
func (s *Store) Lookup(ident string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d := s.find(ident); d != nil {
		return d.Base, true
	}
	return "", false
}

// Resolve returns the address for ident, or ident itself when it names no
// known device. Commands accept both aliases and raw addresses this way.
func (s *Store) Resolve(ident string) string {
	if base, ok := s.Lookup(ident); ok {
		return base
	}
	return ident
}

// AliasOf returns the alias recorded for an address, or "".
func (s *Store) AliasOf(base string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.devices {
		if s.devices[i].Base == base {
			return s.devices[i].Alias
		}
	}
	return ""
}

// Upsert records base with alias. When a device already matches base (by
// address or alias) its alias is replaced, otherwise a device is appended.
// A nil alias leaves an existing alias untouched. It reports whether a new
// device was added. Changes are in memory until Save.
func (s *Store) Upsert(base string, alias *string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d := s.find(base); d != nil {
		if alias != nil {
			d.Alias = *alias
		}
		return false
	}

	d := Device{Base: base}
	if alias != nil {
		d.Alias = *alias
	}
	s.devices = append(s.devices, d)
	return true
}

// Remove forgets the device matching ident. It reports whether one was removed.
func (s *Store) Remove(ident string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.devices {
		if s.devices[i].MatchesIdent(ident) {
			s.devices = append(s.devices[:i], s.devices[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) find(ident string) *Device {
	for i := range s.devices {
		if s.devices[i].MatchesIdent(ident) {
			return &s.devices[i]
		}
	}
	return nil
}

// Save writes the store to its path.
// Performs an atomic write to prevent corruption on crash.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(document{Version: CurrentVersion, Devices: s.devices})
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# bacli configuration file
# Devices found by 'bacli scan --save' or named with 'bacli alias'.
#
# Location: ` + s.path + `

`)
	data = append(header, data...)

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}
