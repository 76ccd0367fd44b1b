package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	okStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	warnStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// OK, Warn and Fail print a one-line status with a styled tag. Colour
// follows the terminal profile lipgloss detects for stdout.
func OK(w io.Writer, format string, args ...any) {
	status(w, okStyle, "ok", format, args...)
}

func Warn(w io.Writer, format string, args ...any) {
	status(w, warnStyle, "warn", format, args...)
}

func Fail(w io.Writer, format string, args ...any) {
	status(w, failStyle, "fail", format, args...)
}

// Detail prints a dimmed continuation line under a status.
func Detail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+dimStyle.Render(fmt.Sprintf(format, args...)))
}

func status(w io.Writer, style lipgloss.Style, tag, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", style.Render("["+tag+"]"), fmt.Sprintf(format, args...))
}
