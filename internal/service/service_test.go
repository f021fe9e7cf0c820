package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dhavalsavalia/camlaunch/internal/detect"
	"github.com/dhavalsavalia/camlaunch/internal/device"
	"github.com/dhavalsavalia/camlaunch/internal/launch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	webcam = device.Descriptor{
		Name:       "/dev/bus/usb/001/004",
		VendorID:   0x046d,
		ProductID:  0x0825,
		Product:    "HD Webcam C270",
		Interfaces: []device.Interface{{Class: 14, SubClass: 1}, {Class: 14, SubClass: 2}},
	}
	hub = device.Descriptor{
		Name:       "/dev/bus/usb/001/002",
		VendorID:   0x05e3,
		ProductID:  0x0608,
		Interfaces: []device.Interface{{Class: 9}},
	}
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type activations struct {
	mu   sync.Mutex
	reqs []launch.Request
}

func (a *activations) Activate(_ context.Context, req launch.Request) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reqs = append(a.reqs, req)
	return nil
}

func (a *activations) all() []launch.Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]launch.Request(nil), a.reqs...)
}

type countingNotifier struct {
	mu    sync.Mutex
	calls int
	title string
	err   error
}

func (n *countingNotifier) Notify(_ context.Context, title, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	n.title = title
	return n.err
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

func newLifecycle(provider device.Provider, act launch.Activator, opts Options) *Lifecycle {
	if opts.Loop.Interval == 0 {
		opts.Loop.Interval = 10 * time.Millisecond
	}
	if opts.Loop.Timeout == 0 {
		opts.Loop.Timeout = time.Second
	}
	return New(provider, act, opts)
}

func TestStartService_ConcurrentCallsStartOneLoop(t *testing.T) {
	provider := device.NewMockProvider(webcam)
	act := &activations{}
	l := newLifecycle(provider, act, Options{})
	defer l.StopService()

	var wg sync.WaitGroup
	var mu sync.Mutex
	started := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.StartService() {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, started)
	assert.True(t, l.IsMonitoring())
	require.Eventually(t, func() bool { return len(act.all()) == 1 }, waitFor, tick)

	time.Sleep(50 * time.Millisecond)
	assert.Len(t, act.all(), 1)
}

func TestStopService_Idempotent(t *testing.T) {
	l := newLifecycle(device.NewMockProvider(), &activations{}, Options{})

	assert.NotPanics(t, func() {
		l.StopService()
		l.StopService()
	})
	assert.False(t, l.IsMonitoring())

	l.StartService()
	l.StopService()
	l.StopService()
	assert.False(t, l.IsMonitoring())
}

func TestRestart_ReportsCameraAgain(t *testing.T) {
	provider := device.NewMockProvider(webcam)
	act := &activations{}
	l := newLifecycle(provider, act, Options{})

	require.True(t, l.StartService())
	require.Eventually(t, func() bool { return len(act.all()) == 1 }, waitFor, tick)
	l.StopService()
	assert.Empty(t, l.Presence())

	require.True(t, l.StartService())
	defer l.StopService()
	require.Eventually(t, func() bool { return len(act.all()) == 2 }, waitFor, tick)
}

func TestHubOnly_NoActivation(t *testing.T) {
	act := &activations{}
	l := newLifecycle(device.NewMockProvider(hub), act, Options{})

	res, err := l.TriggerOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Devices, 1)
	assert.Empty(t, res.Arrived)
	assert.Empty(t, act.all())
}

func TestCameraAttached_OneAutoLaunch(t *testing.T) {
	provider := device.NewMockProvider(hub)
	act := &activations{}
	l := newLifecycle(provider, act, Options{})

	var mu sync.Mutex
	var events []detect.Event
	l.Subscribe(func(e detect.Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	require.True(t, l.StartService())
	defer l.StopService()

	provider.SetDevices(hub, webcam)
	require.Eventually(t, func() bool { return len(act.all()) == 1 }, waitFor, tick)

	req := act.all()[0]
	assert.True(t, req.AutoLaunch)
	assert.Equal(t, launch.SourceCameraDetection, req.Source)
	assert.Equal(t, []device.Key{webcam.Key()}, req.Devices)

	provider.SetDevices(hub)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 2
	}, waitFor, tick)

	mu.Lock()
	assert.Equal(t, detect.Arrived, events[0].Kind)
	assert.Equal(t, detect.Departed, events[1].Kind)
	mu.Unlock()
	assert.Len(t, act.all(), 1)
}

func TestHandleTrigger_StartSources(t *testing.T) {
	for _, src := range []Source{SourceBoot, SourcePackageReplaced, SourceUserPresent, SourceManual} {
		t.Run(src.String(), func(t *testing.T) {
			l := newLifecycle(device.NewMockProvider(), &activations{}, Options{})
			defer l.StopService()

			l.HandleTrigger(context.Background(), Trigger{Source: src})
			assert.True(t, l.IsMonitoring())
		})
	}
}

func TestHandleTrigger_USBStateChangeRunsCycle(t *testing.T) {
	provider := device.NewMockProvider(webcam)
	act := &activations{}
	l := newLifecycle(provider, act, Options{Loop: detect.Config{Interval: time.Hour}})
	defer l.StopService()

	l.HandleTrigger(context.Background(), Trigger{Source: SourceUSBStateChange})

	assert.True(t, l.IsMonitoring())
	require.Eventually(t, func() bool { return len(act.all()) == 1 }, waitFor, tick)
	assert.True(t, l.Presence().Has(webcam.Key()))
}

func TestHandleTrigger_PowerConnectedIsDelayed(t *testing.T) {
	l := newLifecycle(device.NewMockProvider(), &activations{}, Options{PowerSettleDelay: 50 * time.Millisecond})
	defer l.StopService()

	l.HandleTrigger(context.Background(), Trigger{Source: SourcePowerConnected})
	assert.False(t, l.IsMonitoring())

	require.Eventually(t, l.IsMonitoring, waitFor, tick)
}

func TestStopService_CancelsDelayedStart(t *testing.T) {
	l := newLifecycle(device.NewMockProvider(), &activations{}, Options{PowerSettleDelay: 30 * time.Millisecond})

	l.HandleTrigger(context.Background(), Trigger{Source: SourcePowerConnected})
	l.StopService()

	time.Sleep(100 * time.Millisecond)
	assert.False(t, l.IsMonitoring())
}

func TestHandleTrigger_AttachLaunchesCamera(t *testing.T) {
	act := &activations{}
	l := newLifecycle(device.NewMockProvider(), act, Options{})

	l.HandleTrigger(context.Background(), AttachTrigger(webcam))

	reqs := act.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, launch.SourceUSBAttach, reqs[0].Source)
	assert.False(t, l.IsMonitoring())
}

func TestHandleAttach_IgnoresNonCamera(t *testing.T) {
	act := &activations{}
	l := newLifecycle(device.NewMockProvider(), act, Options{})

	assert.False(t, l.HandleAttach(context.Background(), hub))
	assert.Empty(t, act.all())
}

func TestHandleTrigger_DetachOnlyLogs(t *testing.T) {
	act := &activations{}
	l := newLifecycle(device.NewMockProvider(), act, Options{})

	l.HandleTrigger(context.Background(), DetachTrigger(webcam))
	l.HandleTrigger(context.Background(), Trigger{Source: SourceUSBDetach})

	assert.Empty(t, act.all())
	assert.False(t, l.IsMonitoring())
}

func TestNotifier_OncePerFreshStart(t *testing.T) {
	n := &countingNotifier{err: errors.New("no session bus")}
	l := newLifecycle(device.NewMockProvider(), &activations{}, Options{
		Notifier:    n,
		NotifyTitle: "Camera monitor",
	})

	l.StartService()
	l.StartService()
	require.Eventually(t, func() bool { return n.count() == 1 }, waitFor, tick)

	l.StopService()
	l.StartService()
	defer l.StopService()
	require.Eventually(t, func() bool { return n.count() == 2 }, waitFor, tick)
}

func TestCurrentDevices(t *testing.T) {
	provider := device.NewMockProvider(hub, webcam)
	l := newLifecycle(provider, &activations{}, Options{})

	list, err := l.CurrentDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Contains(t, list[1], "VID:046d PID:0825")

	provider.SetError(errors.New("permission denied"))
	_, err = l.CurrentDevices(context.Background())
	assert.Error(t, err)
}

func TestSource_String(t *testing.T) {
	assert.Equal(t, "power-connected", SourcePowerConnected.String())
	assert.Equal(t, "unknown", Source(99).String())
}
