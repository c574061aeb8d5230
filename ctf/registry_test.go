package ctf_test

import (
	"testing"

	"github.com/cbab/babeltrace/ctf"
	"github.com/stretchr/testify/require"
)

func TestRegisterFormatAndLookup(t *testing.T) {
	r := ctf.NewRegistry()
	parser := &fakeParser{}
	r.RegisterFormat("ctf", func() ctf.Format { return ctf.Format{Parser: parser} })

	f, ok := r.Lookup("ctf")
	require.True(t, ok)
	require.Equal(t, parser, f.Parser)

	_, ok = r.Lookup("other")
	require.False(t, ok)
}

func TestRegisterFormatPanicsOnDuplicate(t *testing.T) {
	r := ctf.NewRegistry()
	r.RegisterFormat("ctf", func() ctf.Format { return ctf.Format{} })
	require.Panics(t, func() {
		r.RegisterFormat("ctf", func() ctf.Format { return ctf.Format{} })
	})
}

func TestRegisterFormatPanicsOnNilFactory(t *testing.T) {
	r := ctf.NewRegistry()
	require.Panics(t, func() { r.RegisterFormat("ctf", nil) })
}

func TestRegisterInstallsCTFFormat(t *testing.T) {
	r := ctf.NewRegistry()
	parser := &fakeParser{}
	ctf.Register(r, parser)

	f, ok := r.Lookup("ctf")
	require.True(t, ok)
	require.Equal(t, parser, f.Parser)
}
