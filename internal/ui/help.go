package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HelpOverlay renders the help screen
type HelpOverlay struct {
	width  int
	height int
}

// NewHelpOverlay creates a new help overlay
func NewHelpOverlay() *HelpOverlay {
	return &HelpOverlay{}
}

// SetSize sets overlay dimensions
func (h *HelpOverlay) SetSize(width, height int) {
	h.width = width
	h.height = height
}

// View renders the help overlay
func (h *HelpOverlay) View() string {
	boxWidth := 50
	if boxWidth > h.width-10 {
		boxWidth = h.width - 10
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPurple).
		Padding(1, 2).
		Width(boxWidth).
		Render(h.buildContent())

	return overlay(box, boxWidth, h.width, h.height)
}

func (h *HelpOverlay) buildContent() string {
	var lines []string

	lines = append(lines, TitleStyle.Render("KEYBINDINGS"))
	lines = append(lines, "")

	lines = append(lines, AccentStyle.Render("Navigation"))
	lines = append(lines, DimStyle.Render(strings.Repeat("─", 40)))
	lines = append(lines, h.keyLine("↑ / k", "Previous device"))
	lines = append(lines, h.keyLine("↓ / j", "Next device"))
	lines = append(lines, h.keyLine("Tab", "Switch panel"))
	lines = append(lines, h.keyLine("1 / 2 / 3", "Jump to panel"))
	lines = append(lines, "")

	lines = append(lines, AccentStyle.Render("Monitoring"))
	lines = append(lines, DimStyle.Render(strings.Repeat("─", 40)))
	lines = append(lines, h.keyLine("m", "Start / stop monitoring"))
	lines = append(lines, h.keyLine("t", "Run one detection pass"))
	lines = append(lines, h.keyLine("r", "Refresh device list"))
	lines = append(lines, "")

	lines = append(lines, AccentStyle.Render("General"))
	lines = append(lines, DimStyle.Render(strings.Repeat("─", 40)))
	lines = append(lines, h.keyLine("?", "Toggle this help"))
	lines = append(lines, h.keyLine("Esc", "Cancel / Back"))
	lines = append(lines, h.keyLine("q", "Quit"))

	return strings.Join(lines, "\n")
}

func (h *HelpOverlay) keyLine(key, desc string) string {
	keyStyle := lipgloss.NewStyle().
		Foreground(ColorCyan).
		Width(14)
	return keyStyle.Render(key) + desc
}
