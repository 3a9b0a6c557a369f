package log

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
	// disabled is above any level, so nothing passes it.
	disabled
)

var levelNames = [...]string{
	DebugLevel: "DEBUG",
	InfoLevel:  "INFO",
	WarnLevel:  "WARN",
	ErrorLevel: "ERROR",
	FatalLevel: "FATAL",
}

func (l Level) String() string {
	if l < DebugLevel || l >= disabled {
		return "Level(" + strconv.Itoa(int(l)) + ")"
	}
	return levelNames[l]
}

// LevelFromString parses level name in any case.
func LevelFromString(s string) (Level, error) {
	for l, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(l), nil
		}
	}
	return DebugLevel, errors.Errorf("invalid level %q", s)
}
