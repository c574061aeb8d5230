package ctf

import (
	"fmt"
	"os"

	"github.com/cbab/babeltrace/ctf/ctferrors"
)

// buildPacketIndex implements the packet indexer (§4.E): it walks fs's
// file packet-by-packet, validating each packet header against the
// trace and stream class, and appends one PacketIndexEntry per packet.
// On the first packet it also resolves fs's StreamClass and
// materializes the stream-scoped definitions (packet context, event
// header, event context) that every later read reuses.
func buildPacketIndex(t *Trace, fs *FileStream) error {
	fi, err := fs.file.Stat()
	if err != nil {
		return ctferrors.E(ctferrors.IOError, "stat stream file", err)
	}
	fileSize := fi.Size()
	pageSize := int64(os.Getpagesize())

	mapHeader := func(offset int64) (int64, error) {
		headerWindow := pageSize
		if remain := fileSize - offset; remain < headerWindow {
			headerWindow = remain
		}
		if err := fs.pos.MapWindow(offset, int(headerWindow)); err != nil {
			return 0, err
		}
		return headerWindow, nil
	}
	return walkPackets(t, fs, fileSize, mapHeader)
}

// walkPackets is the shared body of the packet indexer (§4.E), used
// both by file-backed streams (which mmap a header window per packet)
// and mmap-stream sources (which slice their caller-supplied mapping
// instead; see buildMmapPacketIndex). mapHeader maps a header-sized
// window at offset and returns its length in bytes.
func walkPackets(t *Trace, fs *FileStream, fileSize int64, mapHeader func(offset int64) (int64, error)) error {
	var mmapOffset int64
	first := true

	for mmapOffset < fileSize {
		headerWindow, err := mapHeader(mmapOffset)
		if err != nil {
			return err
		}
		fs.pos.offset = 0
		fs.pos.contentBits = uint64(headerWindow) * 8
		fs.pos.packetBits = fs.pos.contentBits

		streamID, err := decodePacketHeader(t, fs, first)
		if err != nil {
			return err
		}
		if first {
			sc, ok := t.Streams[streamID]
			if !ok {
				return ctferrors.E(ctferrors.UnknownStream, fmt.Sprintf("no stream class for id %d", streamID))
			}
			fs.StreamClass = sc
			fs.StreamID = streamID
			sc.Streams = append(sc.Streams, fs)
			materializeStreamDefs(fs, sc)
		} else if streamID != fs.StreamID {
			return ctferrors.E(ctferrors.StreamIDChange, "stream_id changed within one stream file")
		}

		contentBits, packetBits, tsBegin, tsEnd, discarded, err := decodePacketContext(fs, fileSize, mmapOffset)
		if err != nil {
			return err
		}
		dataOffsetBits := fs.pos.offset

		if contentBits > packetBits || dataOffsetBits > contentBits {
			return ctferrors.E(ctferrors.BadPacketSize, "content_bits/data_offset_bits out of range")
		}
		if packetBits > uint64(fileSize-mmapOffset)*8 {
			return ctferrors.E(ctferrors.BadPacketSize, "packet_size exceeds remaining file size")
		}

		fs.Index = append(fs.Index, PacketIndexEntry{
			FileByteOffset:  mmapOffset,
			PacketBits:      packetBits,
			ContentBits:     contentBits,
			DataOffsetBits:  dataOffsetBits,
			TimestampBegin:  tsBegin,
			TimestampEnd:    tsEnd,
			EventsDiscarded: discarded,
		})

		mmapOffset += int64(packetBits / 8)
		first = false
	}

	return fs.seekPacket(0, seekSet)
}

// decodePacketHeader decodes the trace-wide packet header, if one is
// declared, validating its magic and uuid fields and returning its
// stream_id field (or 0 if absent).
func decodePacketHeader(t *Trace, fs *FileStream, first bool) (uint64, error) {
	if t.PacketHeaderDecl == nil {
		return 0, nil
	}
	if first {
		fs.packetHeaderIdx = Instantiate(fs.arena, t.PacketHeaderDecl, -1, "trace.packet.header", "trace.packet.header")
	}
	def := fs.arena.Get(fs.packetHeaderIdx)
	if err := Decode(fs.pos, fs.arena, def); err != nil {
		return 0, ctferrors.E(ctferrors.IOError, "decode packet header", err)
	}

	if magic := def.Field("magic"); magic != nil {
		if magic.Uint() != uint64(ctfMagic) {
			return 0, ctferrors.E(ctferrors.BadMagic, "packet header magic mismatch")
		}
	}
	if uf := def.Field("uuid"); uf != nil {
		var got UUID
		copy(got[:], uf.Bytes())
		if !t.UUIDSet {
			t.UUID = got
			t.UUIDSet = true
		} else if !t.UUID.Equal(got) {
			return 0, ctferrors.E(ctferrors.UUIDMismatch, "packet header uuid does not match the trace uuid")
		}
	}
	if sf := def.Field("stream_id"); sf != nil {
		return sf.Uint(), nil
	}
	return 0, nil
}

// materializeStreamDefs instantiates fs's packet-context, event-header
// and event-context definition trees the first time fs's stream class
// is resolved.
func materializeStreamDefs(fs *FileStream, sc *StreamClass) {
	if sc.PacketContext != nil {
		fs.packetContextIdx = Instantiate(fs.arena, sc.PacketContext, -1, "stream.packet.context", "stream.packet.context")
	}
	if sc.EventHeader != nil {
		fs.eventHeaderIdx = Instantiate(fs.arena, sc.EventHeader, -1, "stream.event.header", "stream.event.header")
	}
	if sc.EventContext != nil {
		fs.eventContextIdx = Instantiate(fs.arena, sc.EventContext, -1, "stream.event.context", "stream.event.context")
	}
}

// decodePacketContext decodes fs's stream-packet-context, if one is
// declared, and extracts the named fields the packet indexer and
// event reader need. Missing content_size/packet_size fall back per
// §4.E: packet_size defaults to the remaining file size, content_size
// to packet_size.
func decodePacketContext(fs *FileStream, fileSize, mmapOffset int64) (contentBits, packetBits, tsBegin, tsEnd, discarded uint64, err error) {
	remainingBits := uint64(fileSize-mmapOffset) * 8

	if fs.packetContextIdx < 0 {
		return remainingBits, remainingBits, 0, 0, 0, nil
	}
	def := fs.arena.Get(fs.packetContextIdx)
	if err := Decode(fs.pos, fs.arena, def); err != nil {
		return 0, 0, 0, 0, 0, ctferrors.E(ctferrors.IOError, "decode packet context", err)
	}

	if f := LookupInteger(def, "packet_size"); f != nil {
		packetBits = f.Uint()
	} else {
		packetBits = remainingBits
	}
	if f := LookupInteger(def, "content_size"); f != nil {
		contentBits = f.Uint()
	} else {
		contentBits = packetBits
	}
	if f := LookupInteger(def, "timestamp_begin"); f != nil {
		tsBegin = f.Uint()
	}
	if f := LookupInteger(def, "timestamp_end"); f != nil {
		tsEnd = f.Uint()
	}
	if f := LookupInteger(def, "events_discarded"); f != nil {
		discarded = f.Uint()
	}
	return contentBits, packetBits, tsBegin, tsEnd, discarded, nil
}

// buildMmapPacketIndex indexes an mmap-stream source's already-mapped
// bytes: the same per-packet validation as buildPacketIndex, but
// windows are sliced out of data directly instead of mmapped from a
// file descriptor (§6, open_mmap_trace: "callers that provide their
// own mapping").
func buildMmapPacketIndex(t *Trace, fs *FileStream, data []byte) error {
	fileSize := int64(len(data))
	pageSize := int64(os.Getpagesize())

	mapHeader := func(offset int64) (int64, error) {
		headerWindow := pageSize
		if remain := fileSize - offset; remain < headerWindow {
			headerWindow = remain
		}
		fs.pos.MapBytes(data[offset : offset+headerWindow])
		return headerWindow, nil
	}
	return walkPackets(t, fs, fileSize, mapHeader)
}
