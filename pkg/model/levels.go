package model

import "strings"

// NoLevel is the severity recorded when a payload carries no usable
// level information.
const NoLevel = 0

// Default numeric severities for the well-known level names. Producers
// are free to use any numeric scale; this table only serves payloads
// that report a level name without a number, and display formatting.
const (
	LevelDebug    = 10
	LevelInfo     = 20
	LevelWarning  = 30
	LevelError    = 40
	LevelCritical = 50
)

var levelsByName = map[string]int{
	"DEBUG":    LevelDebug,
	"INFO":     LevelInfo,
	"WARNING":  LevelWarning,
	"WARN":     LevelWarning,
	"ERROR":    LevelError,
	"CRITICAL": LevelCritical,
	"FATAL":    LevelCritical,
}

var namesByLevel = map[int]string{
	LevelDebug:    "DEBUG",
	LevelInfo:     "INFO",
	LevelWarning:  "WARNING",
	LevelError:    "ERROR",
	LevelCritical: "CRITICAL",
}

// LevelByName maps a level name to its default numeric severity.
// Matching is case-insensitive.
func LevelByName(name string) (int, bool) {
	level, ok := levelsByName[strings.ToUpper(name)]
	return level, ok
}

// LevelName returns the canonical name for a default severity, or ""
// for severities outside the default table.
func LevelName(level int) string {
	return namesByLevel[level]
}
