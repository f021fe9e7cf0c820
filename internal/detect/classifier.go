// Package detect decides which attached USB devices are cameras and tracks
// their presence across polls.
package detect

import "github.com/dhavalsavalia/camlaunch/internal/device"

// USB Video Class codes.
const (
	ClassVideo             = 14
	SubClassVideoControl   = 1
	SubClassVideoStreaming = 2
)

// Reason names the rule that classified a device.
type Reason string

const (
	ReasonNone         Reason = "none"
	ReasonUVCInterface Reason = "uvc-interface"
	ReasonKnownVendor  Reason = "known-vendor"
)

// knownCameraVendors are UVC chipset vendors accepted when no video
// interface is reported.
var knownCameraVendors = map[int]struct{}{
	0x046d: {}, // Logitech
	0x0bda: {}, // Realtek
	0x0ac8: {}, // Z-Star Microelectronics
	0x1e4e: {}, // Cubeternet
	0x1871: {}, // Aveo Technology
	0x0c45: {}, // Sonix Technology
	0x1bcf: {}, // Sunplus Innovation Technology
	0x05a9: {}, // OmniVision Technologies
	0x0c46: {}, // Microdia
}

// Classify reports whether the device looks like a video camera.
func Classify(d device.Descriptor) bool {
	return Explain(d) != ReasonNone
}

// Explain is Classify with the matching rule. A video-class interface with
// a control or streaming subclass wins over the vendor list.
func Explain(d device.Descriptor) Reason {
	var hasVideo, hasControlOrStreaming bool
	for _, intf := range d.Interfaces {
		if intf.Class != ClassVideo {
			continue
		}
		hasVideo = true
		if intf.SubClass == SubClassVideoControl || intf.SubClass == SubClassVideoStreaming {
			hasControlOrStreaming = true
		}
	}
	if hasVideo && hasControlOrStreaming {
		return ReasonUVCInterface
	}

	if IsKnownCameraVendor(d.VendorID) {
		return ReasonKnownVendor
	}
	return ReasonNone
}

// IsKnownCameraVendor reports whether vendorID is on the fallback list.
func IsKnownCameraVendor(vendorID int) bool {
	_, ok := knownCameraVendors[vendorID]
	return ok
}
