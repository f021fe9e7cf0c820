package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// DialogOption represents a dialog button
type DialogOption int

const (
	DialogConfirm DialogOption = iota
	DialogCancel
)

// ConfirmDialog renders a confirmation dialog
type ConfirmDialog struct {
	title    string
	message  []string
	selected DialogOption
	width    int
	height   int
}

// NewConfirmDialog creates a new confirmation dialog
func NewConfirmDialog(title string, message []string) *ConfirmDialog {
	return &ConfirmDialog{
		title:    title,
		message:  message,
		selected: DialogCancel,
	}
}

// SetSize sets dialog dimensions
func (d *ConfirmDialog) SetSize(width, height int) {
	d.width = width
	d.height = height
}

// MoveLeft moves selection left (to confirm)
func (d *ConfirmDialog) MoveLeft() {
	d.selected = DialogConfirm
}

// MoveRight moves selection right (to cancel)
func (d *ConfirmDialog) MoveRight() {
	d.selected = DialogCancel
}

// Selected returns the selected option
func (d *ConfirmDialog) Selected() DialogOption {
	return d.selected
}

// View renders the dialog
func (d *ConfirmDialog) View() string {
	var lines []string

	lines = append(lines, WarningStyle.Render("⚠  "+d.title))
	lines = append(lines, "")
	lines = append(lines, d.message...)
	lines = append(lines, "")

	confirmStyle := lipgloss.NewStyle().Padding(0, 2)
	cancelStyle := lipgloss.NewStyle().Padding(0, 2)

	if d.selected == DialogConfirm {
		confirmStyle = confirmStyle.Background(ColorPurple).Foreground(lipgloss.Color("0"))
	}
	if d.selected == DialogCancel {
		cancelStyle = cancelStyle.Background(ColorPurple).Foreground(lipgloss.Color("0"))
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Center,
		confirmStyle.Render("Yes, stop"),
		"  ",
		cancelStyle.Render("Cancel"),
	)
	lines = append(lines, buttons)

	boxWidth := 40
	if boxWidth > d.width-10 {
		boxWidth = d.width - 10
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorYellow).
		Padding(1, 2).
		Width(boxWidth).
		Render(strings.Join(lines, "\n"))

	return overlay(box, boxWidth, d.width, d.height)
}

// StopMonitoringDialog asks before turning camera monitoring off.
func StopMonitoringDialog() *ConfirmDialog {
	return NewConfirmDialog("STOP MONITORING", []string{
		"Cameras plugged in while",
		"monitoring is off will not",
		"launch the application.",
		"",
		"Press m again to resume.",
	})
}
