package cli

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	statusOK    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))  // green
	statusWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")) // orange
	statusError = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // red
	muted       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray
	bold        = lipgloss.NewStyle().Bold(true)
	header      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
)

const (
	symbolOK    = "✓"
	symbolWarn  = "⚠"
	symbolError = "✗"
)

func renderOK(msg string) string {
	return statusOK.Render(symbolOK) + " " + msg
}

func renderWarn(msg string) string {
	return statusWarn.Render(symbolWarn) + " " + msg
}

func renderError(msg string) string {
	return statusError.Render(symbolError) + " " + msg
}

func renderLabel(label string) string {
	return muted.Render(label)
}
