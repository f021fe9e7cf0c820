package hotplug

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/dhavalsavalia/camlaunch/internal/service"
)

// Uevent is one kernel kobject notification.
type Uevent struct {
	Action    string
	DevPath   string
	Subsystem string
	Env       map[string]string
}

// ParseUevent decodes a netlink payload of the form
// "action@devpath\0KEY=VALUE\0...". Messages relayed by udev (prefixed
// "libudev") are rejected.
func ParseUevent(msg []byte) (Uevent, error) {
	fields := bytes.Split(bytes.TrimRight(msg, "\x00"), []byte{0})
	if len(fields) == 0 || len(fields[0]) == 0 {
		return Uevent{}, fmt.Errorf("empty uevent")
	}

	header := string(fields[0])
	action, devpath, ok := strings.Cut(header, "@")
	if !ok || action == "" {
		return Uevent{}, fmt.Errorf("malformed uevent header %q", header)
	}

	u := Uevent{Action: action, DevPath: devpath, Env: make(map[string]string)}
	for _, f := range fields[1:] {
		k, v, ok := strings.Cut(string(f), "=")
		if !ok {
			continue
		}
		u.Env[k] = v
	}
	if a := u.Env["ACTION"]; a != "" {
		u.Action = a
	}
	if p := u.Env["DEVPATH"]; p != "" {
		u.DevPath = p
	}
	u.Subsystem = u.Env["SUBSYSTEM"]
	return u, nil
}

// Mapper turns uevents into service trigger sources. It remembers the
// online state of each power supply so only offline-to-online transitions
// count as "power connected".
type Mapper struct {
	mu     sync.Mutex
	online map[string]bool
}

// NewMapper creates a Mapper with no power supply history.
func NewMapper() *Mapper {
	return &Mapper{online: make(map[string]bool)}
}

// Map returns the trigger source for u, if any.
func (m *Mapper) Map(u Uevent) (service.Source, bool) {
	switch u.Subsystem {
	case "power_supply":
		return m.mapPower(u)
	case "android_usb":
		switch u.Env["USB_STATE"] {
		case "CONNECTED", "CONFIGURED":
			return service.SourceUSBStateChange, true
		}
	case "udc":
		if u.Action == "change" {
			return service.SourceUSBStateChange, true
		}
	}
	return 0, false
}

func (m *Mapper) mapPower(u Uevent) (service.Source, bool) {
	if u.Env["POWER_SUPPLY_TYPE"] == "Battery" {
		return 0, false
	}
	value, ok := u.Env["POWER_SUPPLY_ONLINE"]
	if !ok {
		return 0, false
	}
	online := value == "1"

	m.mu.Lock()
	defer m.mu.Unlock()
	was, seen := m.online[u.DevPath]
	m.online[u.DevPath] = online

	if online && (!seen || !was) {
		return service.SourcePowerConnected, true
	}
	return 0, false
}
