package desktop

import (
	"context"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
)

const appName = "camlaunch"

// DBusNotifier posts desktop notifications. Repeated notices replace the
// previous one so only a single "monitoring" entry is ever shown.
type DBusNotifier struct {
	bus Caller

	mu sync.Mutex
	id uint32
}

// NewDBusNotifier creates a notifier on bus.
func NewDBusNotifier(bus Caller) *DBusNotifier {
	return &DBusNotifier{bus: bus}
}

// Notify implements service.Notifier.
func (n *DBusNotifier) Notify(ctx context.Context, title, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	hints := map[string]dbus.Variant{
		"resident":  dbus.MakeVariant(true),
		"transient": dbus.MakeVariant(false),
	}
	var id uint32
	err := n.bus.Object(notificationsName, notificationsPath).
		CallWithContext(ctx, notificationsIface+".Notify", 0,
			appName, n.id, "camera-web", title, body, []string{}, hints, int32(0)).
		Store(&id)
	if err != nil {
		return errors.Wrap(err, "post notification")
	}
	n.id = id
	return nil
}
