package hotplug

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dhavalsavalia/camlaunch/internal/device"
	"github.com/dhavalsavalia/camlaunch/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawUevent(header string, env ...string) []byte {
	return []byte(header + "\x00" + strings.Join(env, "\x00") + "\x00")
}

func TestParseUevent(t *testing.T) {
	u, err := ParseUevent(rawUevent("change@/devices/platform/ac",
		"ACTION=change",
		"DEVPATH=/devices/platform/ac/power_supply/AC",
		"SUBSYSTEM=power_supply",
		"POWER_SUPPLY_ONLINE=1",
	))
	require.NoError(t, err)
	assert.Equal(t, "change", u.Action)
	assert.Equal(t, "/devices/platform/ac/power_supply/AC", u.DevPath)
	assert.Equal(t, "power_supply", u.Subsystem)
	assert.Equal(t, "1", u.Env["POWER_SUPPLY_ONLINE"])
}

func TestParseUevent_Malformed(t *testing.T) {
	for _, msg := range []string{"", "\x00\x00", "libudev\x00garbage", "@/devices"} {
		_, err := ParseUevent([]byte(msg))
		assert.Error(t, err, "message %q", msg)
	}
}

func TestMapper_PowerTransitions(t *testing.T) {
	m := NewMapper()
	ac := func(online string) Uevent {
		return Uevent{
			Action:    "change",
			DevPath:   "/devices/ac",
			Subsystem: "power_supply",
			Env:       map[string]string{"POWER_SUPPLY_ONLINE": online, "POWER_SUPPLY_TYPE": "Mains"},
		}
	}

	src, ok := m.Map(ac("1"))
	require.True(t, ok)
	assert.Equal(t, service.SourcePowerConnected, src)

	_, ok = m.Map(ac("1"))
	assert.False(t, ok, "still online is not a new connection")

	_, ok = m.Map(ac("0"))
	assert.False(t, ok)

	_, ok = m.Map(ac("1"))
	assert.True(t, ok)
}

func TestMapper_IgnoresBatteries(t *testing.T) {
	m := NewMapper()
	_, ok := m.Map(Uevent{
		Subsystem: "power_supply",
		DevPath:   "/devices/bat0",
		Env:       map[string]string{"POWER_SUPPLY_ONLINE": "1", "POWER_SUPPLY_TYPE": "Battery"},
	})
	assert.False(t, ok)
}

func TestMapper_USBState(t *testing.T) {
	m := NewMapper()

	src, ok := m.Map(Uevent{Subsystem: "android_usb", Env: map[string]string{"USB_STATE": "CONFIGURED"}})
	require.True(t, ok)
	assert.Equal(t, service.SourceUSBStateChange, src)

	_, ok = m.Map(Uevent{Subsystem: "android_usb", Env: map[string]string{"USB_STATE": "DISCONNECTED"}})
	assert.False(t, ok)

	src, ok = m.Map(Uevent{Action: "change", Subsystem: "udc", Env: map[string]string{}})
	require.True(t, ok)
	assert.Equal(t, service.SourceUSBStateChange, src)

	_, ok = m.Map(Uevent{Action: "add", Subsystem: "usb", Env: map[string]string{}})
	assert.False(t, ok)
}

type collector struct {
	mu       sync.Mutex
	triggers []service.Trigger
}

func (c *collector) dispatch(_ context.Context, t service.Trigger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.triggers = append(c.triggers, t)
}

func (c *collector) all() []service.Trigger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]service.Trigger(nil), c.triggers...)
}

func TestWatcher_AttachAndDetach(t *testing.T) {
	dir := t.TempDir()
	bus := filepath.Join(dir, "001")
	require.NoError(t, os.Mkdir(bus, 0o755))

	node := filepath.Join(bus, "004")
	cam := device.Descriptor{
		Name:       node,
		VendorID:   0x046d,
		ProductID:  0x0825,
		Interfaces: []device.Interface{{Class: 14, SubClass: 1}},
	}
	provider := device.NewMockProvider()
	c := &collector{}

	w, err := NewWatcher(dir, provider, c.dispatch)
	require.NoError(t, err)
	w.backoff = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Close()

	provider.SetDevices(cam)
	require.NoError(t, os.WriteFile(node, nil, 0o644))

	require.Eventually(t, func() bool { return len(c.all()) == 1 }, 2*time.Second, 5*time.Millisecond)
	got := c.all()[0]
	assert.Equal(t, service.SourceUSBAttach, got.Source)
	require.NotNil(t, got.Device)
	assert.Equal(t, cam.Key(), got.Device.Key())

	require.NoError(t, os.Remove(node))
	require.Eventually(t, func() bool { return len(c.all()) == 2 }, 2*time.Second, 5*time.Millisecond)
	detach := c.all()[1]
	assert.Equal(t, service.SourceUSBDetach, detach.Source)
	assert.Equal(t, cam.Key(), detach.Device.Key())
}

func TestWatcher_NewBusIsWatched(t *testing.T) {
	dir := t.TempDir()
	node := filepath.Join(dir, "002", "001")
	provider := device.NewMockProvider(device.Descriptor{Name: node, VendorID: 0x1d6b, ProductID: 2})
	c := &collector{}

	w, err := NewWatcher(dir, provider, c.dispatch)
	require.NoError(t, err)
	w.backoff = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Close()

	require.NoError(t, os.Mkdir(filepath.Join(dir, "002"), 0o755))
	// Give the watcher a moment to register the new bus directory.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(node, nil, 0o644))

	require.Eventually(t, func() bool { return len(c.all()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, service.SourceUSBAttach, c.all()[0].Source)
}

func TestWatcher_MissingDir(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "absent"), device.NewMockProvider(), func(context.Context, service.Trigger) {})
	require.NoError(t, err)
	defer w.Close()

	assert.Error(t, w.Start(context.Background()))
}
