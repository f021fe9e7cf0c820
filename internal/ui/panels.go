package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dhavalsavalia/camlaunch/internal/detect"
	"github.com/dhavalsavalia/camlaunch/internal/device"
)

// Panel identifiers
type Panel int

const (
	PanelDevices Panel = iota
	PanelStatus
	PanelLog
)

func (p Panel) String() string {
	switch p {
	case PanelDevices:
		return "Devices"
	case PanelStatus:
		return "Status"
	case PanelLog:
		return "Log"
	default:
		return "Unknown"
	}
}

// LogEntry represents a log message
type LogEntry struct {
	Time    time.Time
	Message string
	Level   LogLevel
}

// LogLevel for log entries
type LogLevel int

const (
	LogInfo LogLevel = iota
	LogSuccess
	LogWarning
	LogError
)

// DevicePanel lists attached USB devices, marking cameras.
type DevicePanel struct {
	devices  []device.Descriptor
	selected int
	height   int
	width    int
}

// NewDevicePanel creates an empty device panel
func NewDevicePanel() *DevicePanel {
	return &DevicePanel{}
}

// SetDevices replaces the device list, keeping the selection in range
func (p *DevicePanel) SetDevices(devices []device.Descriptor) {
	p.devices = devices
	if p.selected >= len(devices) {
		p.selected = len(devices) - 1
	}
	if p.selected < 0 {
		p.selected = 0
	}
}

// Selected returns the selected device
func (p *DevicePanel) Selected() *device.Descriptor {
	if len(p.devices) == 0 {
		return nil
	}
	return &p.devices[p.selected]
}

// MoveUp moves selection up
func (p *DevicePanel) MoveUp() {
	if p.selected > 0 {
		p.selected--
	}
}

// MoveDown moves selection down
func (p *DevicePanel) MoveDown() {
	if p.selected < len(p.devices)-1 {
		p.selected++
	}
}

// SetSize sets the panel dimensions
func (p *DevicePanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// View renders the device list; the selected device expands to its interfaces.
func (p *DevicePanel) View() string {
	if len(p.devices) == 0 {
		return DimStyle.Render("  No USB devices")
	}

	var lines []string
	for i, d := range p.devices {
		prefix := "  "
		if i == p.selected {
			prefix = "> "
		}

		marker := " "
		if detect.Classify(d) {
			marker = SuccessStyle.Render(CameraMarker)
		}

		label := fmt.Sprintf("%04x:%04x", d.VendorID, d.ProductID)
		if d.Product != "" {
			label += " " + d.Product
		}
		line := prefix + label
		if i == p.selected {
			line = SelectedStyle.Render(line)
		}
		lines = append(lines, marker+line)

		if i == p.selected {
			lines = append(lines, p.details(d)...)
		}
	}

	return strings.Join(lines, "\n")
}

func (p *DevicePanel) details(d device.Descriptor) []string {
	var lines []string
	lines = append(lines, DimStyle.Render("   "+TreeBranch+" "+d.Name))
	lines = append(lines, DimStyle.Render("   "+TreeBranch+" rule: "+string(detect.Explain(d))))
	for j, intf := range d.Interfaces {
		treeChr := TreeBranch
		if j == len(d.Interfaces)-1 {
			treeChr = TreeLast
		}
		lines = append(lines, DimStyle.Render(fmt.Sprintf("   %s if%d class %d/%d/%d",
			treeChr, j, intf.Class, intf.SubClass, intf.Protocol)))
	}
	return lines
}

// Stats summarises what the detection loop has reported so far.
type Stats struct {
	Arrivals    int
	Departures  int
	LastArrival time.Time
	LastError   string
}

// StatusPanel renders the monitoring state
type StatusPanel struct {
	width    int
	height   int
	interval time.Duration
	target   string
}

// NewStatusPanel creates a status panel. target describes what a camera
// arrival launches.
func NewStatusPanel(interval time.Duration, target string) *StatusPanel {
	return &StatusPanel{interval: interval, target: target}
}

// SetSize sets the panel dimensions
func (p *StatusPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// ViewIdle renders the stopped state
func (p *StatusPanel) ViewIdle(stats Stats) string {
	var lines []string

	boxWidth := p.width - 8
	if boxWidth < 20 {
		boxWidth = 20
	}

	lines = append(lines, "")
	lines = append(lines, centerText(DimStyle.Render(StatusIdle+" MONITORING OFF"), boxWidth))
	lines = append(lines, "")
	lines = append(lines, centerText("Press m to start watching", boxWidth))
	lines = append(lines, centerText("for USB cameras", boxWidth))
	lines = append(lines, "")
	lines = append(lines, p.statsLines(stats)...)

	return strings.Join(lines, "\n")
}

// ViewMonitoring renders the running state with the current presence set
func (p *StatusPanel) ViewMonitoring(presence detect.PresenceSet, stats Stats) string {
	var lines []string

	spinner := SpinnerFrames[(time.Now().UnixMilli()/100)%int64(len(SpinnerFrames))]

	lines = append(lines, "")
	lines = append(lines, AccentStyle.Render(spinner+" MONITORING"))
	lines = append(lines, DimStyle.Render(fmt.Sprintf("Polling every %s", p.interval)))
	lines = append(lines, "")

	keys := presence.Keys()
	if len(keys) == 0 {
		lines = append(lines, DimStyle.Render("No cameras attached"))
	} else {
		lines = append(lines, SuccessStyle.Render(fmt.Sprintf("%d camera(s) present", len(keys))))
		for _, k := range keys {
			lines = append(lines, "  "+SuccessStyle.Render(CameraMarker)+" "+string(k))
		}
	}
	lines = append(lines, "")
	if p.target != "" {
		lines = append(lines, DimStyle.Render("Launches: ")+p.target)
		lines = append(lines, "")
	}
	lines = append(lines, p.statsLines(stats)...)

	return strings.Join(lines, "\n")
}

func (p *StatusPanel) statsLines(stats Stats) []string {
	lines := []string{
		fmt.Sprintf("  Arrivals:   %d", stats.Arrivals),
		fmt.Sprintf("  Departures: %d", stats.Departures),
	}
	if !stats.LastArrival.IsZero() {
		lines = append(lines, "  Last seen:  "+stats.LastArrival.Format("15:04:05"))
	}
	if stats.LastError != "" {
		lines = append(lines, "")
		lines = append(lines, ErrorStyle.Render("  "+stats.LastError))
	}
	return lines
}

// LogPanel renders the log output
type LogPanel struct {
	entries []LogEntry
	width   int
	height  int
}

// NewLogPanel creates a new log panel
func NewLogPanel() *LogPanel {
	return &LogPanel{}
}

// Add adds a log entry
func (p *LogPanel) Add(level LogLevel, msg string) {
	p.entries = append(p.entries, LogEntry{
		Time:    time.Now(),
		Message: msg,
		Level:   level,
	})
	maxEntries := 50
	if len(p.entries) > maxEntries {
		p.entries = p.entries[len(p.entries)-maxEntries:]
	}
}

// Entries returns the retained entries, oldest first
func (p *LogPanel) Entries() []LogEntry {
	return p.entries
}

// SetSize sets the panel dimensions
func (p *LogPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// View renders the log panel content
func (p *LogPanel) View() string {
	if len(p.entries) == 0 {
		return DimStyle.Render("  No log entries")
	}

	maxVisible := p.height - 2
	if maxVisible < 1 {
		maxVisible = 10
	}

	start := 0
	if len(p.entries) > maxVisible {
		start = len(p.entries) - maxVisible
	}

	var lines []string
	for _, entry := range p.entries[start:] {
		timestamp := DimStyle.Render(entry.Time.Format("15:04:05"))

		var msgStyle lipgloss.Style
		switch entry.Level {
		case LogSuccess:
			msgStyle = SuccessStyle
		case LogWarning:
			msgStyle = WarningStyle
		case LogError:
			msgStyle = ErrorStyle
		default:
			msgStyle = lipgloss.NewStyle().Foreground(ColorFg)
		}

		msg := entry.Message
		maxMsgLen := p.width - 12
		if maxMsgLen > 3 && len(msg) > maxMsgLen {
			msg = msg[:maxMsgLen-3] + "..."
		}

		lines = append(lines, timestamp+"  "+msgStyle.Render(msg))
	}

	return strings.Join(lines, "\n")
}

func centerText(text string, width int) string {
	textLen := lipgloss.Width(text)
	if textLen >= width {
		return text
	}
	padding := (width - textLen) / 2
	return strings.Repeat(" ", padding) + text
}
