package detect

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dhavalsavalia/camlaunch/internal/device"
	"github.com/rs/zerolog/log"
)

// DefaultInterval is the pause between two detection cycles.
const DefaultInterval = time.Second

// ErrEnumerationTimeout is returned when the provider does not answer
// within the configured timeout.
var ErrEnumerationTimeout = errors.New("device enumeration timed out")

// Config controls loop scheduling.
type Config struct {
	// Interval between the end of one cycle and the start of the next.
	Interval time.Duration
	// Timeout bounds a single provider call. Zero means Interval.
	Timeout time.Duration
}

// Result describes one completed detection cycle.
type Result struct {
	Devices  []device.Descriptor
	Cameras  PresenceSet
	Arrived  PresenceSet
	Departed PresenceSet
}

// Loop polls a Provider and reports camera arrivals and departures to a
// Handler. At most one polling goroutine is active per Loop.
type Loop struct {
	provider device.Provider
	handler  Handler
	cfg      Config

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	// cycleMu serializes cycles and guards presence.
	cycleMu  sync.Mutex
	presence PresenceSet
}

// NewLoop creates an idle loop.
func NewLoop(provider device.Provider, handler Handler, cfg Config) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = cfg.Interval
	}
	if handler == nil {
		handler = HandlerFuncs{}
	}
	return &Loop{
		provider: provider,
		handler:  handler,
		cfg:      cfg,
		presence: make(PresenceSet),
	}
}

// Start begins polling with an empty presence set. It returns false, and
// does nothing, when the loop is already running.
func (l *Loop) Start() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return false
	}

	l.cycleMu.Lock()
	l.presence = make(PresenceSet)
	l.cycleMu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	prev := l.done
	done := make(chan struct{})

	l.running = true
	l.cancel = cancel
	l.done = done

	go l.run(ctx, prev, done)
	log.Info().Dur("interval", l.cfg.Interval).Msg("camera detection loop started")
	return true
}

// Stop cancels the loop and waits for the polling goroutine to exit. No
// handler call from the polling goroutine happens after Stop returns.
// Stop must not be called from inside a Handler.
func (l *Loop) Stop() {
	l.mu.Lock()
	done := l.done
	wasRunning := l.running
	if l.running {
		l.running = false
		l.cancel()
	}
	l.mu.Unlock()

	if done != nil {
		<-done
	}

	if wasRunning {
		l.cycleMu.Lock()
		l.presence = make(PresenceSet)
		l.cycleMu.Unlock()
		log.Info().Msg("camera detection loop stopped")
	}
}

// Running reports whether the polling goroutine is active.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// TriggerOnce runs a single detection cycle on the caller's goroutine. It
// works whether or not the loop is running and leaves the schedule alone.
func (l *Loop) TriggerOnce(ctx context.Context) (Result, error) {
	log.Debug().Msg("manual camera detection triggered")
	return l.runCycle(ctx)
}

// Presence returns a copy of the current presence set.
func (l *Loop) Presence() PresenceSet {
	l.cycleMu.Lock()
	defer l.cycleMu.Unlock()
	return NewPresenceSet(l.presence.Keys()...)
}

func (l *Loop) run(ctx context.Context, prev, done chan struct{}) {
	defer close(done)

	// A previous polling goroutine may still be finishing its last cycle.
	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			return
		}
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if _, err := l.runCycle(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("camera detection cycle failed")
		}
		timer.Reset(l.cfg.Interval)
	}
}

func (l *Loop) runCycle(ctx context.Context) (Result, error) {
	l.cycleMu.Lock()
	defer l.cycleMu.Unlock()

	devices, err := l.enumerate(ctx)
	if err != nil {
		return Result{}, err
	}
	logSnapshot(devices)

	previous := l.presence
	next, arrived, departed := Diff(previous, devices)
	l.presence = next

	log.Debug().
		Interface("cameras", next.Keys()).
		Interface("previous", previous.Keys()).
		Msg("camera presence updated")

	if len(arrived) > 0 {
		log.Info().Interface("keys", arrived.Keys()).Msg("usb camera arrived")
		l.handler.OnArrived(ctx, arrived.Keys())
	}
	if len(departed) > 0 {
		log.Info().Interface("keys", departed.Keys()).Msg("usb camera departed")
		l.handler.OnDeparted(ctx, departed.Keys())
	}

	return Result{
		Devices:  devices,
		Cameras:  next,
		Arrived:  arrived,
		Departed: departed,
	}, nil
}

// enumerate bounds the provider call by the configured timeout even when
// the provider ignores its context.
func (l *Loop) enumerate(ctx context.Context) ([]device.Descriptor, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	type result struct {
		devices []device.Descriptor
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		devices, err := l.provider.ListDevices(ctx)
		ch <- result{devices: devices, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrEnumerationTimeout
		}
		return r.devices, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrEnumerationTimeout
		}
		return nil, ctx.Err()
	}
}

func logSnapshot(devices []device.Descriptor) {
	e := log.Debug()
	if !e.Enabled() {
		return
	}
	e.Int("count", len(devices)).Msg("usb devices enumerated")
	for _, d := range devices {
		log.Debug().
			Str("device", d.String()).
			Str("interfaces", d.InterfaceSummary()).
			Str("reason", string(Explain(d))).
			Msg("usb device")
	}
}
