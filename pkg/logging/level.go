package logging

import "strings"

// Level orders log severities. Entries below a logger's level are dropped.
type Level int

const (
	// DebugLevel traces individual matcher and checker decisions
	DebugLevel Level = iota
	InfoLevel
	// WarnLevel marks recoverable surprises such as dropped relations
	WarnLevel
	// ErrorLevel marks failed persistence or aborted runs
	ErrorLevel
)

var levelNames = [...]string{
	DebugLevel: "DEBUG",
	InfoLevel:  "INFO",
	WarnLevel:  "WARN",
	ErrorLevel: "ERROR",
}

func (l Level) String() string {
	if l < DebugLevel || int(l) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel is case-insensitive and accepts "warning" for WarnLevel.
// Unknown names fall back to InfoLevel.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}
