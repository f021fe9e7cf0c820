package device

import (
	"context"
	"fmt"
	"strings"
)

// Interface is one interface descriptor reported for an attached USB device.
type Interface struct {
	Class    int
	SubClass int
	Protocol int
}

// Descriptor is a snapshot of one attached USB device. Snapshots are
// recreated on every enumeration; the only stable identity is Key().
type Descriptor struct {
	// Name is the device node, e.g. /dev/bus/usb/001/004.
	Name       string
	VendorID   int
	ProductID  int
	Product    string
	Interfaces []Interface
}

// Key identifies a device across polls by vendor and product id.
type Key string

// KeyFor renders the canonical "vendor:product" key in decimal.
func KeyFor(vendorID, productID int) Key {
	return Key(fmt.Sprintf("%d:%d", vendorID, productID))
}

// Key returns the presence-tracking identity of the device.
func (d Descriptor) Key() Key {
	return KeyFor(d.VendorID, d.ProductID)
}

// String renders the device for diagnostics: name plus hex VID/PID.
func (d Descriptor) String() string {
	s := fmt.Sprintf("%s (VID:%04x PID:%04x)", d.Name, d.VendorID, d.ProductID)
	if d.Product != "" {
		s += " " + d.Product
	}
	return s
}

// InterfaceSummary renders the interface list as class/subclass/protocol triples.
func (d Descriptor) InterfaceSummary() string {
	parts := make([]string, 0, len(d.Interfaces))
	for _, intf := range d.Interfaces {
		parts = append(parts, fmt.Sprintf("%d/%d/%d", intf.Class, intf.SubClass, intf.Protocol))
	}
	return strings.Join(parts, " ")
}

// Provider enumerates the USB devices currently attached to the host.
type Provider interface {
	// ListDevices returns a fresh snapshot. It is called once per poll and
	// must be cheap enough to run at sub-second cadence.
	ListDevices(ctx context.Context) ([]Descriptor, error)
}

// Find returns the device whose Name matches the given node path.
func Find(devices []Descriptor, name string) (Descriptor, bool) {
	for _, d := range devices {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}
