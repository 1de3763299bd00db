// Package config loads the daemon configuration and the controllable
// manifests from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds daemon configuration
type Config struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Scene names the preset folder of controllables without their own folder.
	Scene string `yaml:"scene"`
	// TickRate is the number of ticks per second.
	TickRate int `yaml:"tick_rate"`
	// InboxSize bounds the jobs waiting for the next tick; 0 means unbounded.
	InboxSize int `yaml:"inbox_size"`

	Presets   PresetsConfig   `yaml:"presets"`
	OSC       OSCConfig       `yaml:"osc"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Master    MasterConfig    `yaml:"master"`

	Controllables []Manifest `yaml:"controllables"`
}

type PresetsConfig struct {
	Root  string `yaml:"root"`
	Watch bool   `yaml:"watch"`
}

type OSCConfig struct {
	Listen      string         `yaml:"listen"`
	RootAddress string         `yaml:"root_address"`
	Feedback    FeedbackConfig `yaml:"feedback"`
}

// FeedbackConfig describes where attribute changes are echoed as OSC.
type FeedbackConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

type WebSocketConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

type MasterConfig struct {
	Enabled bool   `yaml:"enabled"`
	ID      string `yaml:"id"`
}

// Default returns the configuration used for every field a file leaves out.
func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "console",
		Scene:     "main",
		TickRate:  60,
		InboxSize: 4096,
		Presets: PresetsConfig{
			Root:  "Presets",
			Watch: true,
		},
		OSC: OSCConfig{
			Listen: "0.0.0.0:6001",
			Feedback: FeedbackConfig{
				Host: "127.0.0.1",
				Port: 6002,
			},
		},
		WebSocket: WebSocketConfig{
			Listen: "127.0.0.1:8080",
		},
		Master: MasterConfig{
			Enabled: true,
			ID:      "master",
		},
	}
}

// Load reads and validates the configuration file at path.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads YAML over the defaults and validates the result. An empty
// document yields the defaults.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("%w: tick_rate must be positive, got %d", ErrInvalidConfig, c.TickRate)
	}
	if c.InboxSize < 0 {
		return fmt.Errorf("%w: inbox_size must not be negative", ErrInvalidConfig)
	}
	if c.Presets.Root == "" {
		return fmt.Errorf("%w: presets.root is empty", ErrInvalidConfig)
	}
	if c.OSC.Listen != "" {
		if _, _, err := net.SplitHostPort(c.OSC.Listen); err != nil {
			return fmt.Errorf("%w: osc.listen: %w", ErrInvalidConfig, err)
		}
	}
	if c.OSC.Feedback.Enabled && (c.OSC.Feedback.Port <= 0 || c.OSC.Feedback.Port > 65535) {
		return fmt.Errorf("%w: osc.feedback.port out of range", ErrInvalidConfig)
	}
	if c.Master.Enabled && c.Master.ID == "" {
		return fmt.Errorf("%w: master.id is empty", ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(c.Controllables)+1)
	if c.Master.Enabled {
		seen[c.Master.ID] = true
	}
	for i, m := range c.Controllables {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("%w: controllables[%d]: %w", ErrInvalidConfig, i, err)
		}
		if seen[m.ID] {
			return fmt.Errorf("%w: duplicate controllable id %q", ErrInvalidConfig, m.ID)
		}
		seen[m.ID] = true
	}
	return nil
}

// TickInterval is the duration of one tick.
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// OSCPort returns the port part of osc.listen, 0 when it has none.
func (c Config) OSCPort() int {
	_, port, err := net.SplitHostPort(c.OSC.Listen)
	if err != nil {
		return 0
	}
	p, _ := strconv.Atoi(port)
	return p
}

// Manifest returns the manifest of a controllable by id.
func (c Config) Manifest(id string) (Manifest, bool) {
	for _, m := range c.Controllables {
		if m.ID == id {
			return m, true
		}
	}
	return Manifest{}, false
}
