// Package desktop talks to the user's session over D-Bus: it activates the
// companion application, posts notifications and watches logind for resume.
package desktop

import (
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	applicationIface = "org.freedesktop.Application"

	notificationsName  = "org.freedesktop.Notifications"
	notificationsPath  = dbus.ObjectPath("/org/freedesktop/Notifications")
	notificationsIface = "org.freedesktop.Notifications"

	logindName    = "org.freedesktop.login1"
	logindPath    = dbus.ObjectPath("/org/freedesktop/login1")
	logindManager = "org.freedesktop.login1.Manager"
)

// ObjectPathFor derives the conventional object path of a well-known bus
// name: dots become slashes and dashes become underscores.
func ObjectPathFor(name string) dbus.ObjectPath {
	name = strings.ReplaceAll(name, "-", "_")
	return dbus.ObjectPath("/" + strings.ReplaceAll(name, ".", "/"))
}
