package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sergev/spectran/driver"
	"github.com/sergev/spectran/retry"
)

//go:embed spectran.toml
var defaultConfigData []byte

// Config represents the entire TOML configuration structure
type Config struct {
	Backend       string `toml:"backend"`
	Library       string `toml:"library"`
	Memory        string `toml:"memory"`
	DeviceType    string `toml:"device_type"`
	DeviceMode    string `toml:"device_mode"`
	Serial        string `toml:"serial"`
	ScanTimeoutMs int    `toml:"scan_timeout_ms"`
	LogLevel      string `toml:"log_level"`

	Packet Packet `toml:"packet"`
	State  State  `toml:"state"`
	Watch  Watch  `toml:"watch"`
	Probe  Probe  `toml:"probe"`
}

// Packet configures packet polling
type Packet struct {
	Channel     int `toml:"channel"`
	WaitMs      int `toml:"wait_ms"`
	MaxAttempts int `toml:"max_attempts"`
}

// State configures device state polling
type State struct {
	PollMs    int `toml:"poll_ms"`
	TimeoutMs int `toml:"timeout_ms"`
}

// Watch configures the live health view
type Watch struct {
	IntervalMs int      `toml:"interval_ms"`
	Keys       []string `toml:"keys"`
}

// Probe configures USB device probing
type Probe struct {
	VendorID string `toml:"vendor_id"`
}

// Path determines the config file path based on the operating system
func Path() (string, error) {
	var configDir string
	var err error

	switch runtime.GOOS {
	case "windows":
		// Use AppData directory for Windows
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine user config directory: %w", err)
		}
		return filepath.Join(configDir, "spectran", "spectran.toml"), nil
	default:
		// Linux/macOS: use home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine user home directory: %w", err)
		}
	}

	return filepath.Join(configDir, ".spectran"), nil
}

// Default returns the embedded default settings.
func Default() (*Config, error) {
	var conf Config
	if _, err := toml.Decode(string(defaultConfigData), &conf); err != nil {
		return nil, fmt.Errorf("failed to parse embedded config: %w", err)
	}
	return &conf, nil
}

// Initialize loads and validates the configuration file at the default path.
// If the config file doesn't exist, it creates it from the embedded default.
func Initialize() (*Config, error) {
	configPath, err := Path()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Create parent directory if needed (for Windows)
		configDir := filepath.Dir(configPath)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory %s: %w", configDir, err)
		}

		if err := os.WriteFile(configPath, defaultConfigData, 0644); err != nil {
			return nil, fmt.Errorf("failed to create default config file at %s: %w", configPath, err)
		}
	}

	return Load(configPath)
}

// Load parses and validates the configuration file at path.
// Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	conf, err := Default()
	if err != nil {
		return nil, err
	}
	if _, err := toml.DecodeFile(path, conf); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config at %s: %w", path, err)
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config at %s: %w", path, err)
	}
	return conf, nil
}

// Validate checks names and numeric ranges.
func (c *Config) Validate() error {
	if c.Backend == "" {
		return errors.New("`backend` key is missing or empty in config")
	}
	if c.Backend == "native" && c.Library == "" {
		return errors.New("`library` must be set for the native backend")
	}
	if _, err := driver.ParseMemoryMode(c.Memory); err != nil {
		return err
	}
	if _, err := driver.ParseDeviceType(c.DeviceType); err != nil {
		return err
	}
	if _, err := driver.ParseDeviceMode(c.DeviceMode); err != nil {
		return err
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}

	if c.ScanTimeoutMs <= 0 {
		return fmt.Errorf("invalid scan_timeout_ms: %d (must be positive)", c.ScanTimeoutMs)
	}
	if c.Packet.Channel < 0 {
		return fmt.Errorf("invalid packet.channel: %d (must not be negative)", c.Packet.Channel)
	}
	if c.Packet.WaitMs < 0 {
		return fmt.Errorf("invalid packet.wait_ms: %d (must not be negative)", c.Packet.WaitMs)
	}
	if c.Packet.MaxAttempts < 0 {
		return fmt.Errorf("invalid packet.max_attempts: %d (must not be negative)", c.Packet.MaxAttempts)
	}
	if c.State.PollMs < 0 {
		return fmt.Errorf("invalid state.poll_ms: %d (must not be negative)", c.State.PollMs)
	}
	if c.State.TimeoutMs <= 0 {
		return fmt.Errorf("invalid state.timeout_ms: %d (must be positive)", c.State.TimeoutMs)
	}
	if c.Watch.IntervalMs <= 0 {
		return fmt.Errorf("invalid watch.interval_ms: %d (must be positive)", c.Watch.IntervalMs)
	}
	if c.Probe.VendorID != "" {
		if _, err := c.VendorID(); err != nil {
			return err
		}
	}
	return nil
}

// MemoryMode returns the parsed memory mode.
func (c *Config) MemoryMode() driver.MemoryMode {
	m, _ := driver.ParseMemoryMode(c.Memory)
	return m
}

// Type returns the parsed device type.
func (c *Config) Type() driver.DeviceType {
	t, _ := driver.ParseDeviceType(c.DeviceType)
	return t
}

// Mode returns the parsed device mode.
func (c *Config) Mode() driver.DeviceMode {
	m, _ := driver.ParseDeviceMode(c.DeviceMode)
	return m
}

// ScanTimeout returns the device rescan timeout.
func (c *Config) ScanTimeout() time.Duration {
	return time.Duration(c.ScanTimeoutMs) * time.Millisecond
}

// PacketPolicy returns the wait policy of the packet fetch loop.
func (c *Config) PacketPolicy() retry.Policy {
	return retry.Policy{
		Interval:    time.Duration(c.Packet.WaitMs) * time.Millisecond,
		MaxAttempts: c.Packet.MaxAttempts,
	}
}

// StatePolicy returns the wait policy of the device state poll.
func (c *Config) StatePolicy() retry.Policy {
	return retry.Policy{Interval: time.Duration(c.State.PollMs) * time.Millisecond}
}

// StateTimeout bounds the wait for a started device to run.
func (c *Config) StateTimeout() time.Duration {
	return time.Duration(c.State.TimeoutMs) * time.Millisecond
}

// WatchInterval returns the refresh period of the health view.
func (c *Config) WatchInterval() time.Duration {
	return time.Duration(c.Watch.IntervalMs) * time.Millisecond
}

// VendorID parses the probe vendor id, written in hex with or without 0x.
// An empty value yields 0, meaning any vendor.
func (c *Config) VendorID() (uint16, error) {
	s := strings.TrimPrefix(strings.ToLower(c.Probe.VendorID), "0x")
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid probe.vendor_id %q: %w", c.Probe.VendorID, err)
	}
	return uint16(v), nil
}
