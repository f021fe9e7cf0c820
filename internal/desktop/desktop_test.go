package desktop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dhavalsavalia/camlaunch/internal/device"
	"github.com/dhavalsavalia/camlaunch/internal/launch"
	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	dest   string
	path   dbus.ObjectPath
	method string
	args   []interface{}
}

// fakeObject overrides CallWithContext; the embedded interface is nil.
type fakeObject struct {
	dbus.BusObject
	bus  *fakeBus
	dest string
	path dbus.ObjectPath
}

func (o *fakeObject) CallWithContext(_ context.Context, method string, _ dbus.Flags, args ...interface{}) *dbus.Call {
	o.bus.calls = append(o.bus.calls, recordedCall{dest: o.dest, path: o.path, method: method, args: args})
	return &dbus.Call{Err: o.bus.err, Body: o.bus.reply}
}

type fakeBus struct {
	calls []recordedCall
	err   error
	reply []interface{}
}

func (b *fakeBus) Object(dest string, path dbus.ObjectPath) dbus.BusObject {
	return &fakeObject{bus: b, dest: dest, path: path}
}

func TestObjectPathFor(t *testing.T) {
	assert.Equal(t, dbus.ObjectPath("/org/example/CamViewer"), ObjectPathFor("org.example.CamViewer"))
	assert.Equal(t, dbus.ObjectPath("/io/my_app/Viewer"), ObjectPathFor("io.my-app.Viewer"))
}

func TestDBusActivator_Activate(t *testing.T) {
	bus := &fakeBus{}
	a := NewDBusActivator(bus, "org.example.CamViewer", "")

	req := launch.Request{
		AutoLaunch: true,
		Source:     launch.SourceCameraDetection,
		Timestamp:  time.UnixMilli(1700000000000),
		Devices:    []device.Key{"1133:2085", "3034:1"},
	}
	require.NoError(t, a.Activate(context.Background(), req))

	require.Len(t, bus.calls, 1)
	call := bus.calls[0]
	assert.Equal(t, "org.example.CamViewer", call.dest)
	assert.Equal(t, dbus.ObjectPath("/org/example/CamViewer"), call.path)
	assert.Equal(t, "org.freedesktop.Application.Activate", call.method)

	require.Len(t, call.args, 1)
	data, ok := call.args[0].(map[string]dbus.Variant)
	require.True(t, ok)
	assert.Equal(t, true, data["auto-launch"].Value())
	assert.Equal(t, "camera_detection", data["source"].Value())
	assert.Equal(t, int64(1700000000000), data["timestamp"].Value())
	assert.Equal(t, "1133:2085,3034:1", data["devices"].Value())
}

func TestDBusActivator_Errors(t *testing.T) {
	bus := &fakeBus{err: errors.New("org.freedesktop.DBus.Error.ServiceUnknown")}
	a := NewDBusActivator(bus, "org.example.CamViewer", "/custom/Path")

	err := a.Activate(context.Background(), launch.Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "activate org.example.CamViewer")
	assert.Equal(t, dbus.ObjectPath("/custom/Path"), bus.calls[0].path)

	bad := NewDBusActivator(&fakeBus{}, "x", "not/a/path")
	assert.Error(t, bad.Activate(context.Background(), launch.Request{}))
}

func TestDBusNotifier_ReplacesPreviousNotice(t *testing.T) {
	bus := &fakeBus{reply: []interface{}{uint32(42)}}
	n := NewDBusNotifier(bus)

	require.NoError(t, n.Notify(context.Background(), "Camera monitor", "Watching for USB cameras"))
	require.NoError(t, n.Notify(context.Background(), "Camera monitor", "Watching for USB cameras"))

	require.Len(t, bus.calls, 2)
	first, second := bus.calls[0], bus.calls[1]
	assert.Equal(t, "org.freedesktop.Notifications.Notify", first.method)
	assert.Equal(t, notificationsPath, first.path)
	assert.Equal(t, uint32(0), first.args[1])
	assert.Equal(t, "Camera monitor", first.args[3])
	assert.Equal(t, uint32(42), second.args[1])
}

func TestDBusNotifier_Error(t *testing.T) {
	n := NewDBusNotifier(&fakeBus{err: errors.New("no bus")})
	assert.Error(t, n.Notify(context.Background(), "t", "b"))
}

func TestIsResume(t *testing.T) {
	name := "org.freedesktop.login1.Manager.PrepareForSleep"

	assert.True(t, IsResume(&dbus.Signal{Name: name, Body: []interface{}{false}}))
	assert.False(t, IsResume(&dbus.Signal{Name: name, Body: []interface{}{true}}))
	assert.False(t, IsResume(&dbus.Signal{Name: "org.freedesktop.login1.Manager.SessionNew", Body: []interface{}{false}}))
	assert.False(t, IsResume(&dbus.Signal{Name: name}))
	assert.False(t, IsResume(nil))
}

type fakeSignalBus struct {
	matched bool
	ch      chan<- *dbus.Signal
	removed chan struct{}
}

func (f *fakeSignalBus) AddMatchSignal(...dbus.MatchOption) error    { f.matched = true; return nil }
func (f *fakeSignalBus) RemoveMatchSignal(...dbus.MatchOption) error { return nil }
func (f *fakeSignalBus) Signal(ch chan<- *dbus.Signal)              { f.ch = ch }
func (f *fakeSignalBus) RemoveSignal(chan<- *dbus.Signal)           { close(f.removed) }

func TestWatchResume(t *testing.T) {
	bus := &fakeSignalBus{removed: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())

	resumed := make(chan struct{}, 4)
	require.NoError(t, WatchResume(ctx, bus, func() { resumed <- struct{}{} }))
	require.True(t, bus.matched)

	name := "org.freedesktop.login1.Manager.PrepareForSleep"
	bus.ch <- &dbus.Signal{Name: name, Body: []interface{}{true}}
	bus.ch <- &dbus.Signal{Name: name, Body: []interface{}{false}}

	select {
	case <-resumed:
	case <-time.After(2 * time.Second):
		t.Fatal("resume callback not called")
	}
	assert.Empty(t, resumed)

	cancel()
	select {
	case <-bus.removed:
	case <-time.After(2 * time.Second):
		t.Fatal("signal channel not removed after cancel")
	}
}
