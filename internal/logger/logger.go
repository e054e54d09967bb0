package logger

import (
	"fmt"
	"time"

	"github.com/fatih/color"
)

var (
	timeColor    = color.New(color.FgHiBlack)
	infoColor    = color.New(color.FgBlue)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errColor     = color.New(color.FgRed)
	debugColor   = color.New(color.FgCyan)
	methodColor  = color.New(color.FgMagenta)
)

func stamp() string {
	return timeColor.Sprintf("[%s]", time.Now().Format("15:04:05"))
}

// Info logs general information (blue)
func Info(message string, args ...interface{}) {
	fmt.Printf("%s %s\n", stamp(), infoColor.Sprintf(message, args...))
}

// Success logs a success (green)
func Success(message string, args ...interface{}) {
	fmt.Printf("%s %s\n", stamp(), successColor.Sprintf("✓ "+message, args...))
}

// Warning logs a warning (yellow)
func Warning(message string, args ...interface{}) {
	fmt.Printf("%s %s\n", stamp(), warnColor.Sprintf("⚠ "+message, args...))
}

// Error logs an error (red)
func Error(message string, args ...interface{}) {
	fmt.Printf("%s %s\n", stamp(), errColor.Sprintf("✗ "+message, args...))
}

// Debug logs a debug message (cyan) - development only
func Debug(message string, args ...interface{}) {
	fmt.Printf("%s %s\n", stamp(), debugColor.Sprintf("DEBUG: "+message, args...))
}

// Request logs an HTTP request with its status code and duration
func Request(method, path string, statusCode int, duration time.Duration) {
	var statusColor *color.Color
	switch {
	case statusCode >= 200 && statusCode < 300:
		statusColor = successColor
	case statusCode >= 300 && statusCode < 400:
		statusColor = debugColor
	case statusCode >= 400 && statusCode < 500:
		statusColor = warnColor
	default:
		statusColor = errColor
	}

	var durationStr string
	switch {
	case duration < time.Millisecond:
		durationStr = fmt.Sprintf("%.0fµs", float64(duration.Microseconds()))
	case duration < time.Second:
		durationStr = fmt.Sprintf("%.0fms", float64(duration.Milliseconds()))
	default:
		durationStr = fmt.Sprintf("%.2fs", duration.Seconds())
	}

	fmt.Printf("%s %s %-50s %s %s\n",
		stamp(),
		methodColor.Sprintf("%-6s", method),
		path,
		statusColor.Sprintf("[%d]", statusCode),
		timeColor.Sprintf("(%s)", durationStr),
	)
}
