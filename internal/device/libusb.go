//go:build libusb

package device

import (
	"context"
	"sort"

	"github.com/google/gousb"
	"github.com/pkg/errors"
)

// LibusbProvider enumerates devices through libusb. It reads descriptors
// only; no device is opened.
type LibusbProvider struct{}

func newLibusbProvider() (Provider, error) {
	return &LibusbProvider{}, nil
}

// ListDevices walks the libusb device list once.
func (p *LibusbProvider) ListDevices(ctx context.Context) ([]Descriptor, error) {
	usbCtx := gousb.NewContext()
	defer usbCtx.Close()

	var devices []Descriptor
	_, err := usbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if ctx.Err() != nil {
			return false
		}
		devices = append(devices, fromDeviceDesc(desc))
		return false
	})
	if err != nil {
		return nil, errors.Wrap(err, "libusb enumerate")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(devices, func(i, j int) bool {
		return devices[i].Name < devices[j].Name
	})
	return devices, nil
}

func fromDeviceDesc(desc *gousb.DeviceDesc) Descriptor {
	dev := Descriptor{
		Name:      DevNodePath(desc.Bus, desc.Address),
		VendorID:  int(desc.Vendor),
		ProductID: int(desc.Product),
	}

	cfgNums := make([]int, 0, len(desc.Configs))
	for n := range desc.Configs {
		cfgNums = append(cfgNums, n)
	}
	sort.Ints(cfgNums)

	for _, n := range cfgNums {
		for _, intf := range desc.Configs[n].Interfaces {
			if len(intf.AltSettings) == 0 {
				continue
			}
			alt := intf.AltSettings[0]
			dev.Interfaces = append(dev.Interfaces, Interface{
				Class:    int(alt.Class),
				SubClass: int(alt.SubClass),
				Protocol: int(alt.Protocol),
			})
		}
	}
	return dev
}
