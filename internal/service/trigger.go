package service

import "github.com/dhavalsavalia/camlaunch/internal/device"

// Source is the closed set of external events that reach the service.
type Source int

const (
	SourceBoot Source = iota
	SourcePackageReplaced
	SourceUserPresent
	SourceUSBAttach
	SourceUSBDetach
	SourceUSBStateChange
	SourcePowerConnected
	SourceManual
)

func (s Source) String() string {
	switch s {
	case SourceBoot:
		return "boot"
	case SourcePackageReplaced:
		return "package-replaced"
	case SourceUserPresent:
		return "user-present"
	case SourceUSBAttach:
		return "usb-attach"
	case SourceUSBDetach:
		return "usb-detach"
	case SourceUSBStateChange:
		return "usb-state-change"
	case SourcePowerConnected:
		return "power-connected"
	case SourceManual:
		return "manual"
	default:
		return "unknown"
	}
}

// Trigger is one external event. Device is set for attach and detach.
type Trigger struct {
	Source Source
	Device *device.Descriptor
}

// AttachTrigger builds a usb-attach trigger for d.
func AttachTrigger(d device.Descriptor) Trigger {
	return Trigger{Source: SourceUSBAttach, Device: &d}
}

// DetachTrigger builds a usb-detach trigger for d.
func DetachTrigger(d device.Descriptor) Trigger {
	return Trigger{Source: SourceUSBDetach, Device: &d}
}
