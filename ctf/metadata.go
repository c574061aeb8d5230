package ctf

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"regexp"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/cbab/babeltrace/ctf/ctferrors"
	"github.com/cbab/babeltrace/ctf/ctflog"
)

// metadataDedupKey hashes the fully reassembled metadata text with the
// same xxhash fold grailbio's logio writer uses for its own record
// checksums, logged at Debug so a run reassembling the same metadata
// from a different packet split is recognizable in diagnostics. It is
// never used to validate the stream; TSDL's own checksum field is
// reported, not verified (see the non-zero-checksum warning below).
func metadataDedupKey(text string) uint64 {
	return xxhash.Sum64String(text)
}

// metadataPacketHeader is the fixed 37-byte header preceding every
// packet of a binary-framed metadata stream (§6).
type metadataPacketHeader struct {
	Magic             uint32
	UUID              UUID
	Checksum          uint32
	ContentSizeBits   uint32
	PacketSizeBits    uint32
	CompressionScheme byte
	EncryptionScheme  byte
	ChecksumScheme    byte
	Major             byte
	Minor             byte
}

func goByteOrder(o ByteOrder) binary.ByteOrder {
	if o == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// ReadMetadata implements the metadata framing reader (§4.D): it
// recognizes binary-packet and plain-text metadata, concatenates
// packet payloads into a single text buffer, and establishes the
// trace's byte order and (for packet framing) UUID. The returned text
// is handed to a MetadataParser by the trace opener; this function
// does no parsing of TSDL itself.
func ReadMetadata(f *os.File) (text string, order ByteOrder, traceUUID UUID, uuidSet bool, err error) {
	var head [4]byte
	n, rerr := f.ReadAt(head[:], 0)
	if rerr != nil && rerr != io.EOF {
		return "", LittleEndian, UUID{}, false, ctferrors.E(ctferrors.IOError, "read metadata magic", rerr)
	}
	if n == 4 {
		native := binary.LittleEndian.Uint32(head[:])
		switch native {
		case tsdlMagic:
			return readPacketMetadata(f, LittleEndian)
		case swap32(tsdlMagic):
			return readPacketMetadata(f, BigEndian)
		}
	}
	return readTextMetadata(f)
}

func readMetadataPacketHeader(r io.Reader, order ByteOrder) (metadataPacketHeader, error) {
	buf := make([]byte, metadataPacketHeaderBytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return metadataPacketHeader{}, err
	}
	bo := goByteOrder(order)
	var h metadataPacketHeader
	h.Magic = bo.Uint32(buf[0:4])
	copy(h.UUID[:], buf[4:20])
	h.Checksum = bo.Uint32(buf[20:24])
	h.ContentSizeBits = bo.Uint32(buf[24:28])
	h.PacketSizeBits = bo.Uint32(buf[28:32])
	h.CompressionScheme = buf[32]
	h.EncryptionScheme = buf[33]
	h.ChecksumScheme = buf[34]
	h.Major = buf[35]
	h.Minor = buf[36]
	return h, nil
}

func readPacketMetadata(f *os.File, order ByteOrder) (string, ByteOrder, UUID, bool, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", order, UUID{}, false, ctferrors.E(ctferrors.IOError, "seek metadata", err)
	}
	br := bufio.NewReader(f)
	var buf bytes.Buffer
	var traceUUID UUID
	var uuidSet bool
	headerBits := uint32(metadataPacketHeaderBytes * 8)

	for {
		h, err := readMetadataPacketHeader(br, order)
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", order, UUID{}, false, ctferrors.E(ctferrors.IOError, "read metadata packet header", err)
		}
		if h.Magic != ctfMagic {
			return "", order, UUID{}, false, ctferrors.E(ctferrors.BadMagic, "metadata packet header magic mismatch")
		}
		if h.CompressionScheme != 0 || h.EncryptionScheme != 0 || h.ChecksumScheme != 0 {
			return "", order, UUID{}, false, ctferrors.E(ctferrors.UnsupportedFraming,
				"metadata packet declares compression, encryption, or a non-zero checksum scheme")
		}
		if h.Major != supportedMajor || h.Minor != supportedMinor {
			ctflog.Error.Printf("ctf: metadata packet version %d.%d not recognized, expected %d.%d",
				h.Major, h.Minor, supportedMajor, supportedMinor)
		}
		if !uuidSet {
			traceUUID = h.UUID
			uuidSet = true
		} else if !traceUUID.Equal(h.UUID) {
			return "", order, UUID{}, false, ctferrors.E(ctferrors.UUIDMismatch,
				"metadata packet uuid does not match the trace uuid")
		}
		if h.ContentSizeBits < headerBits {
			return "", order, UUID{}, false, ctferrors.E(ctferrors.BadPacketSize,
				"metadata packet content_size smaller than its header")
		}
		payload := make([]byte, (h.ContentSizeBits-headerBits)/8)
		if _, err := io.ReadFull(br, payload); err != nil {
			return "", order, UUID{}, false, ctferrors.E(ctferrors.IOError, "read metadata packet payload", err)
		}
		if h.Checksum != 0 {
			ctflog.Error.Printf("ctf: metadata packet checksum %#x not validated", h.Checksum)
		}
		buf.Write(payload)

		if h.PacketSizeBits > h.ContentSizeBits {
			padding := int64((h.PacketSizeBits - h.ContentSizeBits) / 8)
			if _, err := io.CopyN(io.Discard, br, padding); err != nil {
				return "", order, UUID{}, false, ctferrors.E(ctferrors.IOError, "skip metadata packet padding", err)
			}
		}
	}
	text := buf.String()
	ctflog.Debug.Printf("ctf: reassembled metadata text, dedup key %#016x", metadataDedupKey(text))
	return text, order, traceUUID, uuidSet, nil
}

var textMetadataHeaderRE = regexp.MustCompile(`^/\*\s*CTF\s+(\d+)\.(\d+)`)

func readTextMetadata(f *os.File) (string, ByteOrder, UUID, bool, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", LittleEndian, UUID{}, false, ctferrors.E(ctferrors.IOError, "seek metadata", err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return "", LittleEndian, UUID{}, false, ctferrors.E(ctferrors.IOError, "read text metadata", err)
	}
	text := string(data)

	m := textMetadataHeaderRE.FindStringSubmatch(text)
	if m == nil {
		// Open Question 1: the original silently tolerates a missing
		// "/* CTF x.y" header in text metadata; this preserves that
		// warn-and-continue behavior rather than failing open.
		ctflog.Error.Printf("ctf: text metadata missing a \"/* CTF x.y\" header")
	} else {
		major, _ := strconv.Atoi(m[1])
		minor, _ := strconv.Atoi(m[2])
		if major != supportedMajor || minor != supportedMinor {
			ctflog.Error.Printf("ctf: text metadata version %d.%d not recognized, expected %d.%d",
				major, minor, supportedMajor, supportedMinor)
		}
	}
	return text, LittleEndian, UUID{}, false, nil
}
