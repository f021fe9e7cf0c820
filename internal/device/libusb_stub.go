//go:build !libusb

package device

import "fmt"

func newLibusbProvider() (Provider, error) {
	return nil, fmt.Errorf("%w: rebuild with -tags libusb", ErrUnsupportedBackend)
}
