package device

import (
	"errors"
	"fmt"
)

// Backend names accepted by New.
const (
	BackendSysfs  = "sysfs"
	BackendLibusb = "libusb"
)

// DefaultSysfsRoot is where the kernel exposes USB devices.
const DefaultSysfsRoot = "/sys/bus/usb/devices"

// ErrUnsupportedBackend is returned when a backend is not compiled in.
var ErrUnsupportedBackend = errors.New("unsupported device backend")

// New returns the Provider for the named backend.
func New(backend, sysfsRoot string) (Provider, error) {
	switch backend {
	case "", BackendSysfs:
		if sysfsRoot == "" {
			sysfsRoot = DefaultSysfsRoot
		}
		return NewSysfsProvider(sysfsRoot), nil
	case BackendLibusb:
		return newLibusbProvider()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, backend)
	}
}
