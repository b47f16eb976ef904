// Package ui provides terminal rendering helpers for cargoship output.
// Styles degrade to plain text when stdout is not a terminal or the
// terminal reports no color support.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

// Colorized reports whether styled output should be produced.
func Colorized() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}
	return termenv.EnvColorProfile() != termenv.Ascii
}

// Interactive reports whether prompts may be shown.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func render(style lipgloss.Style, s string) string {
	if !Colorized() {
		return s
	}
	return style.Render(s)
}

// RenderPass renders a success marker or message.
func RenderPass(s string) string { return render(passStyle, s) }

// RenderWarn renders a warning marker or message.
func RenderWarn(s string) string { return render(warnStyle, s) }

// RenderFail renders a failure marker or message.
func RenderFail(s string) string { return render(failStyle, s) }

// RenderAccent renders an informational highlight.
func RenderAccent(s string) string { return render(accentStyle, s) }

// RenderDim renders secondary detail.
func RenderDim(s string) string { return render(dimStyle, s) }
