//go:build !linux

package hotplug

import (
	"context"
	"errors"
)

// ListenUevents is only available on Linux.
func ListenUevents(ctx context.Context, fn func(Uevent)) error {
	return errors.New("kernel uevents are not supported on this platform")
}
