package output

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	headerColor = color.New(color.FgGreen, color.Bold)
	cachedColor = color.New(color.FgCyan, color.Bold)
	dimColor    = color.New(color.Faint)
	warnColor   = color.New(color.FgYellow)
	errorColor  = color.New(color.FgRed, color.Bold)
)

// ConfigureColor applies a --color mode: always, never or auto. Auto
// enables colour only when f is a terminal and NO_COLOR is unset.
func ConfigureColor(mode string, f *os.File) {
	switch mode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default:
		color.NoColor = !term.IsTerminal(int(f.Fd())) || os.Getenv("NO_COLOR") != ""
	}
}

// Green, Yellow, Red and Blue colour shell chrome.
var (
	Green  = color.New(color.FgGreen).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Blue   = color.New(color.FgBlue).SprintFunc()
)

// Warn formats a warning line.
func Warn(format string, args ...any) string {
	return warnColor.Sprintf(format, args...)
}

// Error formats an error line.
func Error(format string, args ...any) string {
	return errorColor.Sprintf(format, args...)
}

// Dim formats secondary information.
func Dim(format string, args ...any) string {
	return dimColor.Sprintf(format, args...)
}
