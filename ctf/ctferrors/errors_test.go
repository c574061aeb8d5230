package ctferrors_test

import (
	"errors"
	"os"
	"testing"

	"github.com/cbab/babeltrace/ctf/ctferrors"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	_, err := os.Open("/dev/notexist")
	e1 := ctferrors.E(ctferrors.NotFound, "opening file", err)
	require.Equal(t, "not found: opening file:\n\topen /dev/notexist: no such file or directory", e1.Error())

	e2 := ctferrors.E(err)
	require.Equal(t, "unknown error:\n\topen /dev/notexist: no such file or directory", e2.Error())

	for _, e := range []error{e1, e2} {
		require.False(t, ctferrors.Is(e, ctferrors.BadMagic))
	}
	require.True(t, ctferrors.Is(e1, ctferrors.NotFound))
}

func TestErrorChaining(t *testing.T) {
	_, err := os.Open("/dev/notexist")
	err = ctferrors.E("failed to open file", err)
	err = ctferrors.E(ctferrors.IOError, "cannot proceed", err)
	require.Equal(t, "i/o error: cannot proceed:\n\tunknown error: failed to open file:\n\topen /dev/notexist: no such file or directory", err.Error())
	require.True(t, ctferrors.Is(err, ctferrors.IOError))
}

func TestKindInherited(t *testing.T) {
	inner := ctferrors.E(ctferrors.BadMagic, "bad magic")
	outer := ctferrors.E("decoding packet header", inner)
	var e *ctferrors.Error
	require.True(t, errors.As(outer, &e))
	require.Equal(t, ctferrors.BadMagic, e.Kind)
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := ctferrors.E(ctferrors.IOError, cause)
	require.ErrorIs(t, err, cause)
}

func TestKindString(t *testing.T) {
	require.Equal(t, "uuid mismatch", ctferrors.UUIDMismatch.String())
	require.Equal(t, "unknown error", ctferrors.Kind(999).String())
}

func TestEPanicsOnNoArgs(t *testing.T) {
	require.Panics(t, func() { ctferrors.E() })
}

func TestEPanicsOnUnsupportedType(t *testing.T) {
	require.Panics(t, func() { ctferrors.E(42) })
}
