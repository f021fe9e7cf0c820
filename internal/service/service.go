// Package service owns the process-wide detection loop and maps external
// triggers onto it.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/dhavalsavalia/camlaunch/internal/detect"
	"github.com/dhavalsavalia/camlaunch/internal/device"
	"github.com/dhavalsavalia/camlaunch/internal/launch"
	"github.com/rs/zerolog/log"
)

// DefaultPowerSettleDelay lets the USB bus enumerate after power is connected.
const DefaultPowerSettleDelay = 2 * time.Second

const notifyTimeout = 5 * time.Second

// Notifier shows the persistent "monitoring" notice when the loop starts.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// Options configures a Lifecycle.
type Options struct {
	Loop             detect.Config
	Source           string
	PowerSettleDelay time.Duration

	Notifier    Notifier
	NotifyTitle string
	NotifyBody  string
}

// Lifecycle starts and stops the single detection loop of the process and
// exposes its state to callers.
type Lifecycle struct {
	provider     device.Provider
	orchestrator *launch.Orchestrator
	loop         *detect.Loop
	opts         Options

	mu        sync.Mutex
	pending   *time.Timer
	observers []func(detect.Event)
}

// New creates a stopped Lifecycle.
func New(provider device.Provider, activator launch.Activator, opts Options) *Lifecycle {
	if opts.PowerSettleDelay <= 0 {
		opts.PowerSettleDelay = DefaultPowerSettleDelay
	}
	l := &Lifecycle{
		provider:     provider,
		orchestrator: launch.NewOrchestrator(activator, opts.Source),
		opts:         opts,
	}
	l.loop = detect.NewLoop(provider, l, opts.Loop)
	return l
}

// Subscribe registers fn for every arrival and departure event.
// fn runs on the detection goroutine and must not block.
func (l *Lifecycle) Subscribe(fn func(detect.Event)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, fn)
}

// StartService ensures the loop is running. It reports whether this call
// started it; concurrent callers never create a second loop.
func (l *Lifecycle) StartService() bool {
	if !l.loop.Start() {
		log.Debug().Msg("detection service already running")
		return false
	}
	l.announce()
	return true
}

// StopService stops the loop and drops any delayed start. The next
// StartService begins from an empty presence set.
func (l *Lifecycle) StopService() {
	l.mu.Lock()
	if l.pending != nil {
		l.pending.Stop()
		l.pending = nil
	}
	l.mu.Unlock()

	l.loop.Stop()
}

// IsMonitoring reports whether the loop is running.
func (l *Lifecycle) IsMonitoring() bool {
	return l.loop.Running()
}

// ListDevices returns a fresh snapshot of every attached USB device.
func (l *Lifecycle) ListDevices(ctx context.Context) ([]device.Descriptor, error) {
	return l.provider.ListDevices(ctx)
}

// CurrentDevices lists every attached USB device, cameras or not.
func (l *Lifecycle) CurrentDevices(ctx context.Context) ([]string, error) {
	devices, err := l.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(devices))
	for _, d := range devices {
		out = append(out, d.String())
	}
	return out, nil
}

// TriggerOnce runs one detection cycle immediately.
func (l *Lifecycle) TriggerOnce(ctx context.Context) (detect.Result, error) {
	return l.loop.TriggerOnce(ctx)
}

// Presence returns the cameras currently believed attached.
func (l *Lifecycle) Presence() detect.PresenceSet {
	return l.loop.Presence()
}

// HandleTrigger maps an external event onto the service entry points.
func (l *Lifecycle) HandleTrigger(ctx context.Context, t Trigger) {
	log.Debug().Str("source", t.Source.String()).Msg("trigger received")

	switch t.Source {
	case SourceBoot, SourcePackageReplaced, SourceUserPresent, SourceManual:
		l.StartService()
	case SourceUSBStateChange:
		l.StartService()
		if _, err := l.TriggerOnce(ctx); err != nil {
			log.Error().Err(err).Msg("detection after usb state change failed")
		}
	case SourcePowerConnected:
		l.startAfter(l.opts.PowerSettleDelay)
	case SourceUSBAttach:
		if t.Device != nil {
			l.HandleAttach(ctx, *t.Device)
		}
	case SourceUSBDetach:
		if t.Device != nil {
			log.Info().Str("device", t.Device.String()).Msg("usb device detached")
		}
	default:
		log.Warn().Int("source", int(t.Source)).Msg("unknown trigger source")
	}
}

// HandleAttach classifies a single attached device and launches the
// application if it is a camera. It runs alongside the poll loop, so the
// same attach may cause two activation requests.
func (l *Lifecycle) HandleAttach(ctx context.Context, d device.Descriptor) bool {
	reason := detect.Explain(d)
	log.Info().
		Str("device", d.String()).
		Str("reason", string(reason)).
		Msg("usb device attached")

	if reason == detect.ReasonNone {
		return false
	}
	l.orchestrator.Launch(ctx, launch.SourceUSBAttach, []device.Key{d.Key()})
	return true
}

// OnArrived implements detect.Handler.
func (l *Lifecycle) OnArrived(ctx context.Context, keys []device.Key) {
	l.orchestrator.OnArrived(ctx, keys)
	l.emit(detect.Event{Kind: detect.Arrived, Keys: keys, At: time.Now()})
}

// OnDeparted implements detect.Handler.
func (l *Lifecycle) OnDeparted(ctx context.Context, keys []device.Key) {
	l.orchestrator.OnDeparted(ctx, keys)
	l.emit(detect.Event{Kind: detect.Departed, Keys: keys, At: time.Now()})
}

func (l *Lifecycle) emit(e detect.Event) {
	l.mu.Lock()
	observers := make([]func(detect.Event), len(l.observers))
	copy(observers, l.observers)
	l.mu.Unlock()

	for _, fn := range observers {
		fn(e)
	}
}

func (l *Lifecycle) startAfter(delay time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pending != nil {
		l.pending.Stop()
	}
	log.Debug().Dur("delay", delay).Msg("delayed detection start scheduled")
	l.pending = time.AfterFunc(delay, func() {
		l.mu.Lock()
		l.pending = nil
		l.mu.Unlock()
		l.StartService()
	})
}

func (l *Lifecycle) announce() {
	if l.opts.Notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := l.opts.Notifier.Notify(ctx, l.opts.NotifyTitle, l.opts.NotifyBody); err != nil {
			log.Warn().Err(err).Msg("monitoring notification failed")
		}
	}()
}
