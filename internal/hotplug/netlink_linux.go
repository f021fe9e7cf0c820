//go:build linux

package hotplug

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

const (
	ueventBufferSize = 64 * 1024
	readPollInterval = 500 * time.Millisecond
)

// ListenUevents reads kernel uevents until ctx is done and passes each
// parsed event to fn.
func ListenUevents(ctx context.Context, fn func(Uevent)) error {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.NETLINK_KOBJECT_UEVENT)
	if err != nil {
		return err
	}
	defer unix.Close(fd)

	addr := &unix.SockaddrNetlink{Family: unix.AF_NETLINK, Groups: 1}
	if err := unix.Bind(fd, addr); err != nil {
		return err
	}

	tv := unix.NsecToTimeval(readPollInterval.Nanoseconds())
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		return err
	}

	buf := make([]byte, ueventBufferSize)
	for {
		if ctx.Err() != nil {
			return nil
		}

		n, _, err := unix.Recvfrom(fd, buf, 0)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				continue
			}
			return err
		}

		u, err := ParseUevent(buf[:n])
		if err != nil {
			log.Debug().Err(err).Msg("skipping uevent")
			continue
		}
		fn(u)
	}
}
