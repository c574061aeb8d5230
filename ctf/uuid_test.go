package ctf_test

import (
	"testing"

	"github.com/cbab/babeltrace/ctf"
	"github.com/stretchr/testify/require"
)

func TestUUIDEqualAndIsZero(t *testing.T) {
	var zero ctf.UUID
	require.True(t, zero.IsZero())

	var a, b ctf.UUID
	for i := range a {
		a[i] = byte(i)
		b[i] = byte(i)
	}
	require.True(t, a.Equal(b))
	require.False(t, a.IsZero())

	b[0] ^= 1
	require.False(t, a.Equal(b))
}

func TestUUIDString(t *testing.T) {
	var u ctf.UUID
	for i := range u {
		u[i] = byte(i)
	}
	require.Equal(t, "00010203-0405-0607-0809-0a0b0c0d0e0f", u.String())
}
