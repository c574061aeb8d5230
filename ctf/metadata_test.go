package ctf_test

import (
	"encoding/binary"
	"io"
	"os"
	"testing"

	"github.com/cespare/xxhash/v2"

	"github.com/cbab/babeltrace/ctf"
	"github.com/cbab/babeltrace/ctf/ctferrors"
	"github.com/stretchr/testify/require"
)

// writeMetadataPacket builds one binary-framed metadata packet: a
// 37-byte header in order's byte order followed by payload, with no
// trailing padding.
func writeMetadataPacket(order ctf.ByteOrder, compression, encryption, checksumScheme, major, minor byte, checksum uint32, payload []byte) []byte {
	bo := binary.ByteOrder(binary.LittleEndian)
	if order == ctf.BigEndian {
		bo = binary.BigEndian
	}
	headerBits := uint32(37 * 8)
	contentBits := headerBits + uint32(len(payload))*8

	buf := make([]byte, 37+len(payload))
	bo.PutUint32(buf[0:4], 0x75D11D57)
	// uuid left zero
	bo.PutUint32(buf[20:24], checksum)
	bo.PutUint32(buf[24:28], contentBits)
	bo.PutUint32(buf[28:32], contentBits) // packet_size == content_size, no padding
	buf[32] = compression
	buf[33] = encryption
	buf[34] = checksumScheme
	buf[35] = major
	buf[36] = minor
	copy(buf[37:], payload)
	return buf
}

func xxhashChecksum(data []byte) uint32 {
	h := xxhash.Sum64(data)
	return uint32(h<<32) ^ uint32(h)
}

func tempFile(t *testing.T, data []byte) *os.File {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "metadata")
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestReadMetadataRefusesCompression(t *testing.T) {
	pkt := writeMetadataPacket(ctf.LittleEndian, 1, 0, 0, 1, 8, 0, []byte("/* CTF 1.8 */\n"))
	f := tempFile(t, pkt)

	_, _, _, _, err := ctf.ReadMetadata(f)
	require.Error(t, err)
	require.True(t, ctferrors.Is(err, ctferrors.UnsupportedFraming))
}

func TestReadMetadataTextSucceeds(t *testing.T) {
	text := "/* CTF 1.8 */\ntrace { byte_order = le; };\n"
	f := tempFile(t, []byte(text))

	gotText, order, uuid, uuidSet, err := ctf.ReadMetadata(f)
	require.NoError(t, err)
	require.Equal(t, text, gotText)
	require.Equal(t, ctf.LittleEndian, order)
	require.False(t, uuidSet)
	require.True(t, uuid.IsZero())
}

func TestReadMetadataTextMissingHeaderWarnsAndContinues(t *testing.T) {
	text := "trace { byte_order = le; };\n"
	f := tempFile(t, []byte(text))

	gotText, order, _, uuidSet, err := ctf.ReadMetadata(f)
	require.NoError(t, err)
	require.Equal(t, text, gotText)
	require.Equal(t, ctf.LittleEndian, order)
	require.False(t, uuidSet)
}

func TestReadMetadataPacketByteOrderRoundTrip(t *testing.T) {
	payload := []byte("/* CTF 1.8 */\n")

	le := writeMetadataPacket(ctf.LittleEndian, 0, 0, 0, 1, 8, 0, payload)
	f := tempFile(t, le)
	gotText, order, _, _, err := ctf.ReadMetadata(f)
	require.NoError(t, err)
	require.Equal(t, string(payload), gotText)
	require.Equal(t, ctf.LittleEndian, order)

	be := writeMetadataPacket(ctf.BigEndian, 0, 0, 0, 1, 8, 0, payload)
	f2 := tempFile(t, be)
	gotText2, order2, _, _, err2 := ctf.ReadMetadata(f2)
	require.NoError(t, err2)
	require.Equal(t, string(payload), gotText2)
	require.Equal(t, ctf.BigEndian, order2)
}

func TestReadMetadataPacketVersionMismatchWarnsAndContinues(t *testing.T) {
	pkt := writeMetadataPacket(ctf.LittleEndian, 0, 0, 0, 2, 0, 0, []byte("/* CTF 2.0 */\n"))
	f := tempFile(t, pkt)

	_, _, _, _, err := ctf.ReadMetadata(f)
	require.NoError(t, err)
}

func TestReadMetadataPacketRejectsNonZeroChecksumScheme(t *testing.T) {
	payload := []byte("/* CTF 1.8 */\n")
	pkt := writeMetadataPacket(ctf.LittleEndian, 0, 0, 1, 1, 8, 0, payload)
	f := tempFile(t, pkt)

	_, _, _, _, err := ctf.ReadMetadata(f)
	require.Error(t, err)
	require.True(t, ctferrors.Is(err, ctferrors.UnsupportedFraming))
}

func TestReadMetadataPacketWarnsOnUnvalidatedChecksum(t *testing.T) {
	payload := []byte("/* CTF 1.8 */\n")
	pkt := writeMetadataPacket(ctf.LittleEndian, 0, 0, 0, 1, 8, xxhashChecksum(payload), payload)
	f := tempFile(t, pkt)

	gotText, _, _, _, err := ctf.ReadMetadata(f)
	require.NoError(t, err)
	require.Equal(t, string(payload), gotText)
}
