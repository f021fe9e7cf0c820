package desktop

import (
	"context"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// SignalBus is the slice of *dbus.Conn used to receive signals.
type SignalBus interface {
	AddMatchSignal(options ...dbus.MatchOption) error
	RemoveMatchSignal(options ...dbus.MatchOption) error
	Signal(ch chan<- *dbus.Signal)
	RemoveSignal(ch chan<- *dbus.Signal)
}

// WatchResume calls onResume each time logind reports the system woke up,
// until ctx is done.
func WatchResume(ctx context.Context, bus SignalBus, onResume func()) error {
	opts := []dbus.MatchOption{
		dbus.WithMatchSender(logindName),
		dbus.WithMatchObjectPath(logindPath),
		dbus.WithMatchInterface(logindManager),
		dbus.WithMatchMember("PrepareForSleep"),
	}
	if err := bus.AddMatchSignal(opts...); err != nil {
		return errors.Wrap(err, "subscribe to logind")
	}

	ch := make(chan *dbus.Signal, 8)
	bus.Signal(ch)

	go func() {
		defer func() {
			bus.RemoveSignal(ch)
			_ = bus.RemoveMatchSignal(opts...)
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-ch:
				if !ok {
					return
				}
				if IsResume(sig) {
					log.Debug().Msg("system resumed")
					onResume()
				}
			}
		}
	}()
	return nil
}

// IsResume reports whether sig is PrepareForSleep(false).
func IsResume(sig *dbus.Signal) bool {
	if sig == nil || sig.Name != logindManager+".PrepareForSleep" || len(sig.Body) != 1 {
		return false
	}
	sleeping, ok := sig.Body[0].(bool)
	return ok && !sleeping
}
