package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

// Duration wraps time.Duration for TOML string parsing.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the complete camlaunch configuration.
type Config struct {
	Detection DetectionConfig `toml:"detection"`
	Launch    LaunchConfig    `toml:"launch"`
	Triggers  TriggersConfig  `toml:"triggers"`
	Notify    NotifyConfig    `toml:"notify"`
	Log       LogConfig       `toml:"log"`
}

// DetectionConfig controls USB enumeration and polling.
type DetectionConfig struct {
	PollInterval     Duration `toml:"poll_interval"`
	EnumerateTimeout Duration `toml:"enumerate_timeout"`
	Backend          string   `toml:"backend"`
	SysfsRoot        string   `toml:"sysfs_root"`
}

// LaunchConfig defines how the companion application is brought forward.
type LaunchConfig struct {
	Method     string   `toml:"method"`
	Command    string   `toml:"command"`
	Args       []string `toml:"args"`
	WorkingDir string   `toml:"working_dir"`
	DBusName   string   `toml:"dbus_name"`
	DBusPath   string   `toml:"dbus_path"`
	Source     string   `toml:"source"`
}

// TriggersConfig enables the external events that start the service.
// Pointers distinguish "unset" from an explicit false.
type TriggersConfig struct {
	Hotplug          *bool    `toml:"hotplug"`
	HotplugDir       string   `toml:"hotplug_dir"`
	Uevents          *bool    `toml:"uevents"`
	Resume           *bool    `toml:"resume"`
	PowerSettleDelay Duration `toml:"power_settle_delay"`
}

// NotifyConfig controls the desktop notice shown while monitoring.
type NotifyConfig struct {
	Enabled *bool  `toml:"enabled"`
	Title   string `toml:"title"`
	Body    string `toml:"body"`
}

// LogConfig controls zerolog output.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// HotplugEnabled reports whether the /dev/bus/usb watcher should run.
func (t TriggersConfig) HotplugEnabled() bool { return enabled(t.Hotplug) }

// UeventsEnabled reports whether kernel uevents should be monitored.
func (t TriggersConfig) UeventsEnabled() bool { return enabled(t.Uevents) }

// ResumeEnabled reports whether logind resume restarts the service.
func (t TriggersConfig) ResumeEnabled() bool { return enabled(t.Resume) }

// IsEnabled reports whether notifications are on.
func (n NotifyConfig) IsEnabled() bool { return enabled(n.Enabled) }

func enabled(b *bool) bool {
	return b == nil || *b
}

// DefaultPath returns the default config file path following XDG conventions.
// On Unix, checks $XDG_CONFIG_HOME first, then falls back to ~/.config.
func DefaultPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "camlaunch", "config.toml"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "camlaunch", "config.toml"), nil
}

// LoadEnv loads .env files into the process environment. Missing files are
// ignored; variables already set win.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("cannot load %s: %w", p, err)
		}
	}
	return nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses a config file from the given path.
// If path is empty, it uses the default XDG path.
func Load(path string) (*Config, error) {
	if path == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file: %w", err)
	}

	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyEnv overrides file values with CAMLAUNCH_* variables.
func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvPollInterval); v != "" {
		var d Duration
		if err := d.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%s: %w", EnvPollInterval, err)
		}
		cfg.Detection.PollInterval = d
	}
	if v := os.Getenv(EnvLaunchCommand); v != "" {
		cfg.Launch.Command = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// applyDefaults sets default values for optional fields.
func applyDefaults(cfg *Config) {
	d := &cfg.Detection
	if d.PollInterval == 0 {
		d.PollInterval = DefaultPollInterval
	}
	if d.EnumerateTimeout == 0 {
		d.EnumerateTimeout = d.PollInterval
	}
	if d.Backend == "" {
		d.Backend = DefaultBackend
	}
	if d.SysfsRoot == "" {
		d.SysfsRoot = DefaultSysfsRoot
	}

	if cfg.Launch.Method == "" {
		cfg.Launch.Method = MethodExec
	}
	if cfg.Launch.Source == "" {
		cfg.Launch.Source = DefaultLaunchSource
	}

	if cfg.Triggers.HotplugDir == "" {
		cfg.Triggers.HotplugDir = DefaultHotplugDir
	}
	if cfg.Triggers.PowerSettleDelay == 0 {
		cfg.Triggers.PowerSettleDelay = DefaultPowerSettleDelay
	}

	if cfg.Notify.Title == "" {
		cfg.Notify.Title = DefaultNotifyTitle
	}
	if cfg.Notify.Body == "" {
		cfg.Notify.Body = DefaultNotifyBody
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = FormatConsole
	}
}

// validate checks that required fields are present and enums are known.
func validate(cfg *Config) error {
	var errs []error

	if cfg.Detection.PollInterval < 0 {
		errs = append(errs, errors.New("detection.poll_interval must not be negative"))
	}
	if cfg.Detection.EnumerateTimeout < 0 {
		errs = append(errs, errors.New("detection.enumerate_timeout must not be negative"))
	}
	if cfg.Triggers.PowerSettleDelay < 0 {
		errs = append(errs, errors.New("triggers.power_settle_delay must not be negative"))
	}

	switch cfg.Detection.Backend {
	case BackendSysfs, BackendLibusb:
	default:
		errs = append(errs, fmt.Errorf("detection.backend %q is not one of sysfs, libusb", cfg.Detection.Backend))
	}

	switch cfg.Launch.Method {
	case MethodExec:
		if cfg.Launch.Command == "" {
			errs = append(errs, errors.New("launch.command is required for the exec method"))
		}
	case MethodDBus:
		if cfg.Launch.DBusName == "" {
			errs = append(errs, errors.New("launch.dbus_name is required for the dbus method"))
		}
	default:
		errs = append(errs, fmt.Errorf("launch.method %q is not one of exec, dbus", cfg.Launch.Method))
	}

	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch cfg.Log.Format {
	case FormatConsole, FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of console, json", cfg.Log.Format))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
