package ctf

import (
	"fmt"
	"time"
)

// ToNanoseconds converts a raw clock-cycle count to nanoseconds since
// the clock's epoch, applying the descriptor's offset before scaling.
// A clock with no declared frequency is treated as already
// nanosecond-resolution.
func (c *ClockDescriptor) ToNanoseconds(raw uint64) int64 {
	freq := c.FrequencyHz
	if freq == 0 {
		freq = 1_000_000_000
	}
	cycles := int64(raw) + c.Offset
	if freq == 1_000_000_000 {
		return cycles
	}
	return int64(float64(cycles) * 1e9 / float64(freq))
}

// TimeFormat selects how FormatTimestamp renders a nanosecond
// timestamp. It replaces the four process-wide clock_raw/
// clock_seconds/clock_date/clock_gmt flags and the clock_offset
// global with a value a caller passes explicitly (§9, "Global mutable
// state").
type TimeFormat struct {
	Raw     bool          // render as raw seconds.nanoseconds, ignoring Date/GMT
	Seconds bool          // render as seconds.nanoseconds since the Unix epoch
	Date    bool          // prefix a YYYY-MM-DD date before the time of day
	GMT     bool          // render in UTC instead of local time
	Offset  time.Duration // added to the timestamp before rendering
}

// FormatTimestamp renders ns (nanoseconds since the Unix epoch) as
// described in §6: HH:MM:SS.nnnnnnnnn local or GMT, optionally dated,
// or raw/Unix seconds.nanoseconds.
func FormatTimestamp(ns int64, f TimeFormat) string {
	ns += int64(f.Offset)

	if f.Raw {
		return formatSecondsNanos(ns)
	}

	t := time.Unix(0, ns)
	if f.GMT {
		t = t.UTC()
	} else {
		t = t.Local()
	}
	if f.Seconds {
		return formatSecondsNanos(t.UnixNano())
	}

	layout := "15:04:05.000000000"
	if f.Date {
		layout = "2006-01-02 " + layout
	}
	return t.Format(layout)
}

// formatClock renders a raw clock-cycle count through fs's clock
// descriptor and time format, or as a bare integer if the trace has
// no clock.
func (fs *FileStream) formatClock(raw uint64) string {
	if fs.clock == nil {
		return fmt.Sprintf("%d", raw)
	}
	return FormatTimestamp(fs.clock.ToNanoseconds(raw), fs.timeFmt)
}

func formatSecondsNanos(ns int64) string {
	sec := ns / 1_000_000_000
	nsec := ns % 1_000_000_000
	if nsec < 0 {
		nsec = -nsec
	}
	return fmt.Sprintf("%d.%09d", sec, nsec)
}
