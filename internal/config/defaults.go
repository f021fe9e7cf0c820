package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Default values for optional config fields.
const (
	DefaultPollInterval     = Duration(time.Second)
	DefaultPowerSettleDelay = Duration(2 * time.Second)
	DefaultBackend          = BackendSysfs
	DefaultSysfsRoot        = "/sys/bus/usb/devices"
	DefaultHotplugDir       = "/dev/bus/usb"
	DefaultLaunchSource     = "camera_detection"
	DefaultNotifyTitle      = "camlaunch active"
	DefaultNotifyBody       = "Monitoring USB camera connections"
	DefaultLogLevel         = "info"
)

// Accepted enum values.
const (
	BackendSysfs  = "sysfs"
	BackendLibusb = "libusb"

	MethodExec = "exec"
	MethodDBus = "dbus"

	FormatConsole = "console"
	FormatJSON    = "json"
)

// Environment variables that override the config file.
const (
	EnvPollInterval  = "CAMLAUNCH_POLL_INTERVAL"
	EnvLaunchCommand = "CAMLAUNCH_LAUNCH_COMMAND"
	EnvLogLevel      = "CAMLAUNCH_LOG_LEVEL"
)

// ExampleConfig is the template for init with documentation comments.
const ExampleConfig = `# camlaunch configuration

[detection]
# How often to enumerate USB devices (duration string: "500ms", "1s", etc.)
poll_interval = "1s"

# Give up on a single enumeration after this long (defaults to poll_interval)
# enumerate_timeout = "1s"

# Enumeration backend: "sysfs", or "libusb" in builds tagged libusb
backend = "sysfs"

[launch]
# "exec" runs a command, "dbus" activates an org.freedesktop.Application
method = "exec"

# Command to run when a camera arrives
command = "xdg-open"

# Arguments; {{source}}, {{timestamp}} and {{devices}} are expanded
args = ["camviewer://launch?source={{source}}&ts={{timestamp}}"]

# For method = "dbus": well-known name and optional object path
# dbus_name = "org.example.CamViewer"
# dbus_path = "/org/example/CamViewer"

[triggers]
# Watch /dev/bus/usb for newly attached devices
hotplug = true

# Listen for power supply and USB gadget uevents
uevents = true

# Restart monitoring when the system resumes from sleep
resume = true

# Wait this long after power is connected before starting
power_settle_delay = "2s"

[notify]
enabled = true
title = "camlaunch active"
body = "Monitoring USB camera connections"

[log]
# trace, debug, info, warn, error
level = "info"

# "console" or "json"
format = "console"

# Optional log file, recommended with the TUI
# file = "/tmp/camlaunch.log"
`

// GenerateExampleConfig writes the example config to the given path.
// If path is empty, it uses the default XDG path. An existing file is
// never overwritten.
// Returns the path where the file was written.
func GenerateExampleConfig(path string) (string, error) {
	if path == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists: %s", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("cannot stat config file: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("cannot create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(ExampleConfig), 0644); err != nil {
		return "", fmt.Errorf("cannot write config file: %w", err)
	}

	return path, nil
}
