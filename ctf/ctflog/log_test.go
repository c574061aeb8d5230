package ctflog_test

import (
	"strings"
	"testing"

	"github.com/cbab/babeltrace/ctf/ctflog"
	"github.com/stretchr/testify/require"
)

type captureOutputter struct {
	level ctflog.Level
	lines []string
}

func (c *captureOutputter) Level() ctflog.Level { return c.level }

func (c *captureOutputter) Output(_ int, level ctflog.Level, s string) error {
	if level > c.level {
		return nil
	}
	c.lines = append(c.lines, s)
	return nil
}

func TestPrintfRespectsLevel(t *testing.T) {
	rec := &captureOutputter{level: ctflog.Info}
	old := ctflog.SetOutputter(rec)
	defer ctflog.SetOutputter(old)

	ctflog.Debug.Printf("debug message %d", 1)
	require.Empty(t, rec.lines)

	ctflog.Error.Printf("error message %d", 2)
	ctflog.Info.Print("info message")
	require.Equal(t, []string{"error message 2", "info message"}, rec.lines)
}

func TestAt(t *testing.T) {
	rec := &captureOutputter{level: ctflog.Error}
	old := ctflog.SetOutputter(rec)
	defer ctflog.SetOutputter(old)

	require.True(t, ctflog.At(ctflog.Error))
	require.False(t, ctflog.At(ctflog.Info))
}

func TestLevelString(t *testing.T) {
	require.Equal(t, "error", ctflog.Error.String())
	require.Equal(t, "debug", ctflog.Debug.String())
	require.True(t, strings.HasPrefix(ctflog.Level(5).String(), "level("))
}
