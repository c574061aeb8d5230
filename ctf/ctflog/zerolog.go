package ctflog

import (
	"os"

	"github.com/rs/zerolog"
)

// zerologOutputter backs Outputter with a github.com/rs/zerolog
// logger, for callers that want structured (JSON, by default)
// diagnostics instead of plain stderr lines.
type zerologOutputter struct {
	level  Level
	logger zerolog.Logger
}

// NewZerologOutputter returns an Outputter that writes through
// logger, accepting messages up to and including level.
func NewZerologOutputter(logger zerolog.Logger, level Level) Outputter {
	return zerologOutputter{level: level, logger: logger}
}

// NewDefaultZerologOutputter returns a zerolog-backed Outputter
// writing to stderr, accepting Info and above.
func NewDefaultZerologOutputter() Outputter {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	return NewZerologOutputter(logger, Info)
}

func (o zerologOutputter) Level() Level { return o.level }

func (o zerologOutputter) Output(_ int, level Level, s string) error {
	if level > o.level {
		return nil
	}
	var ev *zerolog.Event
	switch level {
	case Error:
		ev = o.logger.Warn()
	case Debug:
		ev = o.logger.Debug()
	default:
		ev = o.logger.Info()
	}
	ev.Msg(s)
	return nil
}
