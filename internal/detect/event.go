package detect

import (
	"context"
	"time"

	"github.com/dhavalsavalia/camlaunch/internal/device"
)

// EventKind distinguishes arrivals from departures.
type EventKind int

const (
	Arrived EventKind = iota
	Departed
)

func (k EventKind) String() string {
	switch k {
	case Arrived:
		return "arrived"
	case Departed:
		return "departed"
	default:
		return "unknown"
	}
}

// Event is emitted at most once per kind per poll cycle, only when its key
// set is non-empty.
type Event struct {
	Kind EventKind
	Keys []device.Key
	At   time.Time
}

// Handler receives the events of a Loop. Calls are never concurrent for
// one Loop and follow cycle order.
type Handler interface {
	OnArrived(ctx context.Context, keys []device.Key)
	OnDeparted(ctx context.Context, keys []device.Key)
}

// HandlerFuncs adapts plain functions to Handler; nil fields are skipped.
type HandlerFuncs struct {
	Arrived  func(ctx context.Context, keys []device.Key)
	Departed func(ctx context.Context, keys []device.Key)
}

func (h HandlerFuncs) OnArrived(ctx context.Context, keys []device.Key) {
	if h.Arrived != nil {
		h.Arrived(ctx, keys)
	}
}

func (h HandlerFuncs) OnDeparted(ctx context.Context, keys []device.Key) {
	if h.Departed != nil {
		h.Departed(ctx, keys)
	}
}
