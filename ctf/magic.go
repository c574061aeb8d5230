package ctf

import "github.com/cbab/babeltrace/ctf/internal/bitio"

// ByteOrder is an alias for the bit-numbering convention bitio
// understands, re-exported so callers building declaration trees
// don't need to import the internal package.
type ByteOrder = bitio.Order

const (
	LittleEndian = bitio.LittleEndian
	BigEndian    = bitio.BigEndian
)

const (
	// tsdlMagic identifies a binary-framed metadata stream (§4.D,
	// §6). Reading it byte-swapped identifies the opposite byte order.
	tsdlMagic uint32 = 0x75D11D57

	// ctfMagic is the value a trace-packet-header's "magic" field, if
	// present, must carry (§4.E, §6).
	ctfMagic uint32 = 0x75D11D57

	// supportedMajor and supportedMinor are the only CTF specification
	// version this reader fully expects; any other combination is a
	// warn-and-continue condition (§4.D, §9 Open Question 1).
	supportedMajor = 1
	supportedMinor = 8

	// metadataPacketHeaderBytes is the fixed size of the binary
	// metadata packet header described in §6.
	metadataPacketHeaderBytes = 4 + 16 + 4 + 4 + 4 + 1 + 1 + 1 + 1 + 1
)

func swap32(v uint32) uint32 {
	return v>>24 | (v>>8)&0xFF00 | (v<<8)&0xFF0000 | v<<24
}
