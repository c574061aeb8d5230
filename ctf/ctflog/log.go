// Package ctflog provides the leveled diagnostic output the trace
// reader core uses for every condition the spec treats as a warning
// rather than a fatal error: unsupported metadata versions, non-zero
// checksums, and end-of-stream discarded-event reports.
//
// Log output is implemented by an Outputter, which by default wraps
// the standard log package; an alternative Outputter backed by
// github.com/rs/zerolog is provided in zerolog.go for callers that
// want structured diagnostics.
package ctflog

import (
	"fmt"
	"log"
	"os"
)

// Outputter is a destination for leveled log output.
type Outputter interface {
	// Level returns the level at which the outputter accepts messages.
	Level() Level
	// Output writes s at the given level and call depth. Messages
	// above the outputter's level are dropped.
	Output(calldepth int, level Level, s string) error
}

var out Outputter = stdOutputter{level: Info, l: log.New(os.Stderr, "", 0)}

// SetOutputter installs a new outputter and returns the previous one.
// Not safe to call concurrently with logging calls; intended for
// process startup.
func SetOutputter(o Outputter) Outputter {
	old := out
	out = o
	return old
}

// GetOutputter returns the current outputter.
func GetOutputter() Outputter { return out }

// At reports whether the current outputter is logging at level.
func At(level Level) bool { return level <= out.Level() }

// Output writes s at the given level through the current outputter.
func Output(calldepth int, level Level, s string) error {
	return out.Output(calldepth+1, level, s)
}

// A Level is both a log verbosity level and, via its Print/Printf
// methods, a destination: ctflog.Error.Printf("...") logs at the
// Error level through whatever Outputter is currently installed.
// Increasing levels decrease in severity/importance.
type Level int

const (
	// Off never outputs messages.
	Off Level = -3
	// Error outputs error and warning messages - every
	// "[warning]"/"[error]" diagnostic the spec describes is logged
	// here.
	Error Level = -2
	// Info outputs informational messages. This is the default level.
	Info Level = 0
	// Debug outputs messages intended for debugging and development.
	Debug Level = 1
)

func (l Level) String() string {
	switch l {
	case Off:
		return "off"
	case Error:
		return "error"
	case Info:
		return "info"
	case Debug:
		return "debug"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Print formats its arguments in the manner of fmt.Sprint and
// outputs them at level l.
func (l Level) Print(v ...interface{}) {
	if At(l) {
		_ = out.Output(2, l, fmt.Sprint(v...))
	}
}

// Printf formats its arguments in the manner of fmt.Sprintf and
// outputs them at level l.
func (l Level) Printf(format string, v ...interface{}) {
	if At(l) {
		_ = out.Output(2, l, fmt.Sprintf(format, v...))
	}
}

type stdOutputter struct {
	level Level
	l     *log.Logger
}

func (o stdOutputter) Level() Level { return o.level }

func (o stdOutputter) Output(calldepth int, level Level, s string) error {
	if level > o.level {
		return nil
	}
	return o.l.Output(calldepth+1, s)
}
