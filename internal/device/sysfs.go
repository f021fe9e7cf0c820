package device

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// SysfsProvider enumerates USB devices from the kernel's sysfs tree.
type SysfsProvider struct {
	root string
}

// NewSysfsProvider creates a provider rooted at root (normally /sys/bus/usb/devices).
func NewSysfsProvider(root string) *SysfsProvider {
	return &SysfsProvider{root: root}
}

// ListDevices scans the sysfs root. Entries without idVendor/idProduct
// (interfaces, ports) are skipped; a device that disappears mid-scan is
// dropped rather than failing the whole snapshot.
func (p *SysfsProvider) ListDevices(ctx context.Context) ([]Descriptor, error) {
	entries, err := os.ReadDir(p.root)
	if err != nil {
		return nil, errors.Wrap(err, "read usb sysfs root")
	}

	var devices []Descriptor
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := entry.Name()
		// Interface entries look like "1-1:1.0".
		if strings.Contains(name, ":") {
			continue
		}

		dev, ok := p.readDevice(filepath.Join(p.root, name))
		if !ok {
			continue
		}
		devices = append(devices, dev)
	}

	sort.Slice(devices, func(i, j int) bool {
		return devices[i].Name < devices[j].Name
	})
	return devices, nil
}

func (p *SysfsProvider) readDevice(dir string) (Descriptor, bool) {
	vid, err := readHex(filepath.Join(dir, "idVendor"))
	if err != nil {
		return Descriptor{}, false
	}
	pid, err := readHex(filepath.Join(dir, "idProduct"))
	if err != nil {
		return Descriptor{}, false
	}

	dev := Descriptor{
		Name:      devNode(dir),
		VendorID:  vid,
		ProductID: pid,
		Product:   productName(dir),
	}

	// Interfaces are children named "<device>:<config>.<interface>".
	matches, _ := filepath.Glob(filepath.Join(dir, filepath.Base(dir)+":*"))
	sort.Strings(matches)
	for _, m := range matches {
		class, err := readHex(filepath.Join(m, "bInterfaceClass"))
		if err != nil {
			continue
		}
		sub, _ := readHex(filepath.Join(m, "bInterfaceSubClass"))
		proto, _ := readHex(filepath.Join(m, "bInterfaceProtocol"))
		dev.Interfaces = append(dev.Interfaces, Interface{
			Class:    class,
			SubClass: sub,
			Protocol: proto,
		})
	}

	return dev, true
}

// devNode maps busnum/devnum to the usbfs node path, falling back to the sysfs name.
func devNode(dir string) string {
	bus, errBus := strconv.Atoi(readFirstLine(filepath.Join(dir, "busnum")))
	num, errNum := strconv.Atoi(readFirstLine(filepath.Join(dir, "devnum")))
	if errBus != nil || errNum != nil {
		return filepath.Base(dir)
	}
	return DevNodePath(bus, num)
}

// DevNodePath returns the usbfs path for a bus/device number pair.
func DevNodePath(bus, num int) string {
	return fmt.Sprintf("/dev/bus/usb/%03d/%03d", bus, num)
}

func productName(dir string) string {
	manufacturer := readFirstLine(filepath.Join(dir, "manufacturer"))
	product := readFirstLine(filepath.Join(dir, "product"))
	return strings.TrimSpace(manufacturer + " " + product)
}

func readHex(path string) (int, error) {
	raw := readFirstLine(path)
	if raw == "" {
		return 0, errors.Errorf("empty attribute %s", path)
	}
	v, err := strconv.ParseInt(raw, 16, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", path)
	}
	return int(v), nil
}

func readFirstLine(path string) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	line := string(raw)
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	return strings.TrimSpace(line)
}
