package printer

import (
	"fmt"
	"os"
)

// ColorMode selects when terminal output is colored.
type ColorMode string

// Color modes accepted by --color.
const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode converts a flag value into a ColorMode.
func ParseColorMode(s string) (ColorMode, error) {
	switch ColorMode(s) {
	case ColorAuto, ColorAlways, ColorNever:
		return ColorMode(s), nil
	case "":
		return ColorAuto, nil
	default:
		return "", fmt.Errorf("invalid color mode %q (want auto, always or never)", s)
	}
}

// ANSI color codes for terminal output.
const (
	AnsiReset   = "\x1b[0m"
	AnsiCyan    = "\x1b[36m"
	AnsiYellow  = "\x1b[33m"
	AnsiGreen   = "\x1b[32m"
	AnsiMagenta = "\x1b[35m"
	AnsiDim     = "\x1b[2m"
	AnsiBold    = "\x1b[1m"
)

// ShouldUseColor determines if colored output should be used based on the mode,
// NO_COLOR environment variable, and whether stdout is a TTY.
func ShouldUseColor(mode ColorMode) bool {
	// https://no-color.org/
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	switch mode {
	case ColorNever:
		return false
	case ColorAlways:
		return true
	case ColorAuto:
		return isTerminal(os.Stdout)
	default:
		return false
	}
}

// isTerminal reports whether f is a character device.
func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// ColorString wraps a string with ANSI color codes if colors are enabled.
func ColorString(s, colorCode string, enabled bool) string {
	if !enabled || s == "" {
		return s
	}
	return colorCode + s + AnsiReset
}
