package desktop

import (
	"context"
	"fmt"
	"strings"

	"github.com/dhavalsavalia/camlaunch/internal/launch"
	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
)

// Caller is the slice of *dbus.Conn used to issue method calls.
type Caller interface {
	Object(dest string, path dbus.ObjectPath) dbus.BusObject
}

// DBusActivator brings an application to the foreground through the
// org.freedesktop.Application interface.
type DBusActivator struct {
	bus  Caller
	name string
	path dbus.ObjectPath
}

// NewDBusActivator targets the application owning name. An empty path is
// derived from name.
func NewDBusActivator(bus Caller, name string, path string) *DBusActivator {
	p := dbus.ObjectPath(path)
	if path == "" {
		p = ObjectPathFor(name)
	}
	return &DBusActivator{bus: bus, name: name, path: p}
}

// Activate implements launch.Activator.
func (a *DBusActivator) Activate(ctx context.Context, req launch.Request) error {
	if !a.path.IsValid() {
		return fmt.Errorf("invalid object path %q", a.path)
	}
	call := a.bus.Object(a.name, a.path).
		CallWithContext(ctx, applicationIface+".Activate", 0, PlatformData(req))
	if call.Err != nil {
		return errors.Wrapf(call.Err, "activate %s", a.name)
	}
	return nil
}

// PlatformData encodes a launch request as the a{sv} argument of Activate.
func PlatformData(req launch.Request) map[string]dbus.Variant {
	keys := make([]string, 0, len(req.Devices))
	for _, k := range req.Devices {
		keys = append(keys, string(k))
	}
	return map[string]dbus.Variant{
		"auto-launch": dbus.MakeVariant(req.AutoLaunch),
		"source":      dbus.MakeVariant(req.Source),
		"timestamp":   dbus.MakeVariant(req.TimestampMillis()),
		"devices":     dbus.MakeVariant(strings.Join(keys, ",")),
	}
}
