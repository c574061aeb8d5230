package ctf_test

import (
	"testing"
	"time"

	"github.com/cbab/babeltrace/ctf"
	"github.com/stretchr/testify/require"
)

func TestClockDescriptorToNanoseconds(t *testing.T) {
	nsClock := &ctf.ClockDescriptor{}
	require.Equal(t, int64(1000), nsClock.ToNanoseconds(1000))

	mhzClock := &ctf.ClockDescriptor{FrequencyHz: 1_000_000}
	require.Equal(t, int64(1_000_000_000), mhzClock.ToNanoseconds(1_000_000))

	offsetClock := &ctf.ClockDescriptor{Offset: 5}
	require.Equal(t, int64(15), offsetClock.ToNanoseconds(10))
}

func TestFormatTimestampRaw(t *testing.T) {
	got := ctf.FormatTimestamp(1_500_000_000, ctf.TimeFormat{Raw: true})
	require.Equal(t, "1.500000000", got)
}

func TestFormatTimestampSeconds(t *testing.T) {
	got := ctf.FormatTimestamp(2_000_000_001, ctf.TimeFormat{Seconds: true, GMT: true})
	require.Equal(t, "2.000000001", got)
}

func TestFormatTimestampDateGMT(t *testing.T) {
	ns := time.Date(2020, 6, 15, 13, 45, 30, 123456789, time.UTC).UnixNano()
	got := ctf.FormatTimestamp(ns, ctf.TimeFormat{Date: true, GMT: true})
	require.Equal(t, "2020-06-15 13:45:30.123456789", got)
}

func TestFormatTimestampOffset(t *testing.T) {
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano()
	got := ctf.FormatTimestamp(base, ctf.TimeFormat{GMT: true, Offset: time.Hour})
	require.Equal(t, "01:00:00.000000000", got)
}
