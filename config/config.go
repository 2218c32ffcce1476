package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// DefaultVirtualOut is the name of the virtual MIDI output port the looper
// driver reads from.
const DefaultVirtualOut = "loop4r_control_out"

// Config is the main configuration structure
type Config struct {
	// MIDIIn names the pedal controller's input port. Exact match is tried
	// first, then case-insensitive substring match.
	MIDIIn string `json:"midiIn,omitempty"`

	// VirtualOut is the name of the virtual MIDI output port.
	VirtualOut string `json:"virtualOut,omitempty"`

	// Channel is the MIDI channel (1-16) to listen and send on, 0 for all.
	Channel int `json:"channel,omitempty"`

	// BaseNote is the note number sent for pedal 0.
	BaseNote int `json:"baseNote,omitempty"`

	// OSCSendPort is the looper engine's UDP port on localhost.
	OSCSendPort int `json:"oscSendPort,omitempty"`

	// OSCListenPort is the UDP port this process listens on for replies
	// from the looper and requests from display clients.
	OSCListenPort int `json:"oscListenPort,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		VirtualOut:    DefaultVirtualOut,
		BaseNote:      64,
		OSCSendPort:   9951,
		OSCListenPort: 9000,
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "loop4r-read"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return loadFrom(path)
}

func loadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	return c.saveTo(path)
}

func (c *Config) saveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
