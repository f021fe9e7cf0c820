package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dhavalsavalia/camlaunch/internal/detect"
	"github.com/dhavalsavalia/camlaunch/internal/device"
)

const (
	actionTimeout = 5 * time.Second
	eventBuffer   = 64
	tickInterval  = 100 * time.Millisecond
)

// Service is the part of the detection service the TUI drives.
type Service interface {
	StartService() bool
	StopService()
	IsMonitoring() bool
	TriggerOnce(ctx context.Context) (detect.Result, error)
	ListDevices(ctx context.Context) ([]device.Descriptor, error)
	Presence() detect.PresenceSet
	Subscribe(fn func(detect.Event))
}

// Options describes the running configuration shown in the header.
type Options struct {
	PollInterval time.Duration
	LaunchTarget string
	Version      string
}

// Model is the main bubbletea model
type Model struct {
	// Dimensions
	width  int
	height int

	// State
	monitoring  bool
	busy        bool
	activePanel Panel
	showHelp    bool
	showDialog  bool
	stats       Stats

	// Panels
	devicePanel *DevicePanel
	statusPanel *StatusPanel
	logPanel    *LogPanel

	// Overlays
	helpOverlay   *HelpOverlay
	confirmDialog *ConfirmDialog

	svc    Service
	opts   Options
	events chan detect.Event
}

// NewModel creates a model driving svc. It subscribes to detection events
// immediately so nothing reported before Init is lost.
func NewModel(svc Service, opts Options) *Model {
	m := &Model{
		svc:         svc,
		opts:        opts,
		activePanel: PanelDevices,
		devicePanel: NewDevicePanel(),
		statusPanel: NewStatusPanel(opts.PollInterval, opts.LaunchTarget),
		logPanel:    NewLogPanel(),
		helpOverlay: NewHelpOverlay(),
		events:      make(chan detect.Event, eventBuffer),
	}

	events := m.events
	svc.Subscribe(func(e detect.Event) {
		select {
		case events <- e:
		default:
		}
	})
	return m
}

// eventMsg wraps a detection event
type eventMsg struct {
	event detect.Event
}

// devicesMsg carries a fresh device snapshot
type devicesMsg struct {
	devices []device.Descriptor
	err     error
}

// triggerMsg carries the outcome of a manual detection pass
type triggerMsg struct {
	result detect.Result
	err    error
}

// monitoringMsg reports a start or stop request finishing
type monitoringMsg struct {
	running bool
	changed bool
}

// tickMsg for spinner animation
type tickMsg struct{}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	m.monitoring = m.svc.IsMonitoring()
	if m.monitoring {
		m.logPanel.Add(LogInfo, "Monitoring USB cameras")
	} else {
		m.logPanel.Add(LogWarning, "Monitoring is off")
	}

	return tea.Batch(
		m.refreshDevices(),
		m.listenForNextEvent(),
		tick(),
	)
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updatePanelSizes()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case eventMsg:
		m.recordEvent(msg.event)
		return m, tea.Batch(m.listenForNextEvent(), m.refreshDevices())

	case devicesMsg:
		if msg.err != nil {
			m.stats.LastError = msg.err.Error()
			m.logPanel.Add(LogError, "Enumeration failed: "+msg.err.Error())
			return m, nil
		}
		m.devicePanel.SetDevices(msg.devices)
		return m, nil

	case triggerMsg:
		m.busy = false
		if msg.err != nil {
			m.stats.LastError = msg.err.Error()
			m.logPanel.Add(LogError, "Detection failed: "+msg.err.Error())
			return m, nil
		}
		m.devicePanel.SetDevices(msg.result.Devices)
		m.logPanel.Add(LogInfo, fmt.Sprintf("Detection pass: %d device(s), %d camera(s)",
			len(msg.result.Devices), len(msg.result.Cameras)))
		return m, nil

	case monitoringMsg:
		m.busy = false
		m.monitoring = msg.running
		switch {
		case msg.running && msg.changed:
			m.logPanel.Add(LogSuccess, "Monitoring started")
		case msg.running:
			m.logPanel.Add(LogInfo, "Already monitoring")
		default:
			m.logPanel.Add(LogWarning, "Monitoring stopped")
		}
		return m, nil

	case tickMsg:
		m.monitoring = m.svc.IsMonitoring()
		return m, tick()
	}

	return m, nil
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// listenForNextEvent waits for the next detection event
func (m *Model) listenForNextEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg{event: e}
	}
}

func (m *Model) refreshDevices() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		devices, err := svc.ListDevices(ctx)
		return devicesMsg{devices: devices, err: err}
	}
}

func (m *Model) recordEvent(e detect.Event) {
	keys := make([]string, 0, len(e.Keys))
	for _, k := range e.Keys {
		keys = append(keys, string(k))
	}
	joined := strings.Join(keys, ", ")

	switch e.Kind {
	case detect.Arrived:
		m.stats.Arrivals++
		m.stats.LastArrival = e.At
		m.logPanel.Add(LogSuccess, "Camera arrived: "+joined)
	case detect.Departed:
		m.stats.Departures++
		m.logPanel.Add(LogInfo, "Camera departed: "+joined)
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if !m.showDialog {
			return m, tea.Quit
		}
	case "?":
		if !m.showDialog {
			m.showHelp = !m.showHelp
		}
		return m, nil
	case "esc":
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		if m.showDialog {
			m.showDialog = false
			m.confirmDialog = nil
			return m, nil
		}
	}

	// Dialog keys
	if m.showDialog && m.confirmDialog != nil {
		switch msg.String() {
		case "left", "h":
			m.confirmDialog.MoveLeft()
		case "right", "l":
			m.confirmDialog.MoveRight()
		case "enter":
			confirmed := m.confirmDialog.Selected() == DialogConfirm
			m.showDialog = false
			m.confirmDialog = nil
			if confirmed {
				return m.stopMonitoring()
			}
		}
		return m, nil
	}

	// Help overlay blocks other keys
	if m.showHelp {
		return m, nil
	}

	switch msg.String() {
	// Navigation
	case "up", "k":
		if m.activePanel == PanelDevices {
			m.devicePanel.MoveUp()
		}
	case "down", "j":
		if m.activePanel == PanelDevices {
			m.devicePanel.MoveDown()
		}
	case "tab":
		m.activePanel = (m.activePanel + 1) % 3
	case "1":
		m.activePanel = PanelDevices
	case "2":
		m.activePanel = PanelStatus
	case "3":
		m.activePanel = PanelLog

	// Actions
	case "m":
		if m.busy {
			return m, nil
		}
		if m.monitoring {
			m.confirmDialog = StopMonitoringDialog()
			m.confirmDialog.SetSize(m.width, m.height)
			m.showDialog = true
			return m, nil
		}
		return m.startMonitoring()
	case "t":
		if !m.busy {
			return m.triggerOnce()
		}
	case "r":
		m.logPanel.Add(LogInfo, "Refreshing devices")
		return m, m.refreshDevices()
	}

	return m, nil
}

func (m *Model) startMonitoring() (tea.Model, tea.Cmd) {
	m.busy = true
	svc := m.svc
	return m, func() tea.Msg {
		changed := svc.StartService()
		return monitoringMsg{running: true, changed: changed}
	}
}

// stopMonitoring runs off the update loop; Stop waits for an in-flight cycle.
func (m *Model) stopMonitoring() (tea.Model, tea.Cmd) {
	m.busy = true
	svc := m.svc
	return m, func() tea.Msg {
		svc.StopService()
		return monitoringMsg{running: false, changed: true}
	}
}

func (m *Model) triggerOnce() (tea.Model, tea.Cmd) {
	m.busy = true
	m.logPanel.Add(LogInfo, "Running detection pass")
	svc := m.svc
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		res, err := svc.TriggerOnce(ctx)
		return triggerMsg{result: res, err: err}
	}
}

func (m *Model) updatePanelSizes() {
	contentHeight := m.height - 4

	leftWidth := m.width * 35 / 100
	centerWidth := m.width * 30 / 100
	rightWidth := m.width - leftWidth - centerWidth - 6

	m.devicePanel.SetSize(leftWidth, contentHeight)
	m.statusPanel.SetSize(centerWidth, contentHeight)
	m.logPanel.SetSize(rightWidth, contentHeight)
	m.helpOverlay.SetSize(m.width, m.height)
	if m.confirmDialog != nil {
		m.confirmDialog.SetSize(m.width, m.height)
	}
}

// View renders the UI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.helpOverlay.View()
	}
	if m.showDialog && m.confirmDialog != nil {
		return m.confirmDialog.View()
	}

	var s strings.Builder
	s.WriteString(m.renderHeader())
	s.WriteString("\n")
	s.WriteString(m.renderPanels())
	s.WriteString("\n")
	s.WriteString(m.renderFooter())
	return s.String()
}

func (m *Model) renderHeader() string {
	title := TitleStyle.Render("CAMLAUNCH")

	var status string
	switch {
	case m.busy:
		status = WarningStyle.Render(StatusBusy) + " Working..."
	case m.monitoring:
		status = SuccessStyle.Render(StatusMonitoring) + " Monitoring"
	default:
		status = DimStyle.Render(StatusIdle) + " Stopped"
	}

	version := DimStyle.Render("camlaunch " + m.opts.Version)

	rightPart := status + "   " + version
	spacing := m.width - lipgloss.Width(title) - lipgloss.Width(rightPart) - 2
	if spacing < 1 {
		spacing = 1
	}

	headerStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(m.width - 2)

	return headerStyle.Render(title + strings.Repeat(" ", spacing) + rightPart)
}

func (m *Model) renderPanels() string {
	leftWidth := m.width * 35 / 100
	centerWidth := m.width * 30 / 100
	rightWidth := m.width - leftWidth - centerWidth - 6

	contentHeight := m.height - 6

	panel := func(p Panel, width int, title, content string) string {
		style := PanelStyle
		if m.activePanel == p {
			style = ActivePanelStyle
		}
		return style.Width(width).Height(contentHeight).
			Render(AccentStyle.Render(title) + "\n\n" + content)
	}

	var statusContent string
	if m.monitoring {
		statusContent = m.statusPanel.ViewMonitoring(m.svc.Presence(), m.stats)
	} else {
		statusContent = m.statusPanel.ViewIdle(m.stats)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		panel(PanelDevices, leftWidth, " USB Devices ", m.devicePanel.View()),
		panel(PanelStatus, centerWidth, " Status ", statusContent),
		panel(PanelLog, rightWidth, " Log ", m.logPanel.View()),
	)
}

func (m *Model) renderFooter() string {
	hints := []string{"j/k Navigate"}
	if m.monitoring {
		hints = append(hints, "m Stop")
	} else {
		hints = append(hints, "m Start")
	}
	hints = append(hints, "t Detect", "r Refresh", "q Quit")

	left := DimStyle.Render(strings.Join(hints, "   "))
	right := DimStyle.Render("? Help")

	spacing := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if spacing < 1 {
		spacing = 1
	}

	return " " + left + strings.Repeat(" ", spacing) + right
}
