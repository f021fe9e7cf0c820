// Package launch turns camera arrivals into application activation requests.
package launch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dhavalsavalia/camlaunch/internal/device"
	"github.com/rs/zerolog/log"
)

// Source tags carried by activation requests.
const (
	SourceCameraDetection = "camera_detection"
	SourceUSBAttach       = "usb_device_receiver"
)

// Request asks the host application to come to the foreground.
type Request struct {
	AutoLaunch bool
	Source     string
	Timestamp  time.Time
	Devices    []device.Key
}

// TimestampMillis returns the request time in Unix milliseconds.
func (r Request) TimestampMillis() int64 {
	return r.Timestamp.UnixMilli()
}

var errNoActivator = errors.New("no activator configured")

// Activator brings the host application to the foreground, starting it if
// needed. Implementations are fire-and-forget; repeated calls while the
// application is already in front are expected to coalesce.
type Activator interface {
	Activate(ctx context.Context, req Request) error
}

// ActivatorFunc adapts a function to Activator.
type ActivatorFunc func(ctx context.Context, req Request) error

func (f ActivatorFunc) Activate(ctx context.Context, req Request) error {
	return f(ctx, req)
}

// Orchestrator dispatches activation requests. It adds no debounce of its
// own: the presence tracker only reports a camera again after it departed.
type Orchestrator struct {
	activator Activator
	source    string
	now       func() time.Time
}

// NewOrchestrator creates an orchestrator tagging poll-driven requests with source.
func NewOrchestrator(activator Activator, source string) *Orchestrator {
	if source == "" {
		source = SourceCameraDetection
	}
	return &Orchestrator{
		activator: activator,
		source:    source,
		now:       time.Now,
	}
}

// OnArrived launches the application for cameras found by the poll loop.
func (o *Orchestrator) OnArrived(ctx context.Context, keys []device.Key) {
	o.Launch(ctx, o.source, keys)
}

// OnDeparted only logs; departures trigger no action.
func (o *Orchestrator) OnDeparted(_ context.Context, keys []device.Key) {
	log.Debug().Interface("keys", keys).Msg("camera departure, no launch action")
}

// Launch builds and dispatches a request. Failures are logged and
// swallowed so a missed launch never affects detection.
func (o *Orchestrator) Launch(ctx context.Context, source string, keys []device.Key) {
	req := Request{
		AutoLaunch: true,
		Source:     source,
		Timestamp:  o.now(),
		Devices:    keys,
	}

	if err := o.activate(ctx, req); err != nil {
		log.Error().Err(err).Str("source", source).Msg("application activation failed")
		return
	}
	log.Info().
		Str("source", source).
		Interface("devices", keys).
		Msg("application activation requested")
}

func (o *Orchestrator) activate(ctx context.Context, req Request) (err error) {
	if o.activator == nil {
		return errNoActivator
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("activator panic: %v", r)
		}
	}()
	return o.activator.Activate(ctx, req)
}
