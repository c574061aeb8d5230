package ctf

import (
	"fmt"
	"os"
)

// PacketIndexEntry records everything the packet-seeking surface (§4.F)
// needs to know about one packet without re-reading it: where it
// starts, how big its header and content are, and the timestamp and
// discarded-event bookkeeping captured while the index was built
// (§4.E).
type PacketIndexEntry struct {
	FileByteOffset int64  // byte offset of the packet header within the stream file
	PacketBits     uint64 // total packet size, header + content + padding, in bits
	ContentBits    uint64 // packet content size (no padding), in bits
	DataOffsetBits uint64 // bit offset where event records begin, relative to FileByteOffset*8
	TimestampBegin uint64
	TimestampEnd   uint64

	// EventsDiscarded is the packet context's "events_discarded"
	// field, if present, otherwise 0 (§4.E/§4.F, invariant 6).
	EventsDiscarded uint64
}

// FileStream is one open file belonging to a StreamClass: the
// concrete, mutable cursor state that GetEvent and the packet-seek
// operations advance. Exactly one FileStream maps one live mmap
// window at a time (invariant 7).
type FileStream struct {
	file  *os.File
	owned bool // true if OpenTrace opened file and must close it

	StreamClass *StreamClass
	Index       []PacketIndexEntry

	pos   *BitPos
	arena *Arena

	// clock and timeFmt render the discarded-events stderr warning's
	// timestamps (§6, "Time-print surface"); clock is nil if the trace
	// has no clock descriptor, in which case raw tick counts are printed.
	clock   *ClockDescriptor
	timeFmt TimeFormat

	// mapPacket installs the lenBytes-byte window starting at offset as
	// the cursor's current mapping. File-backed streams bind this to
	// pos.MapWindow; mmap-stream sources bind it to a closure slicing
	// their caller-supplied backing array instead.
	mapPacket func(offset int64, lenBytes int) error

	packetHeaderIdx  int // arena index, or -1 if the trace has no packet header decl
	packetContextIdx int // arena index, or -1 if the stream class has no packet context decl
	eventHeaderIdx   int // arena index, or -1
	eventContextIdx  int // arena index, or -1

	// eventFieldDefs caches, per event class id, the arena indices of
	// that event class's context and fields definitions. They are
	// instantiated lazily on first use and then reused every
	// subsequent decode (parallel to variant-arm caching in dispatch.go).
	eventFieldDefs map[uint64]eventDefPair

	// StreamID is the numeric stream id read from this file's first
	// packet header, or 0 if the trace has no per-packet stream id
	// field.
	StreamID uint64

	CurPacket        int
	Timestamp        uint64
	PrevTimestamp    uint64
	PrevTimestampEnd uint64
	EventsDiscarded  uint64 // cumulative, mirrors the last packet context's events_discarded field
	pendingDiscarded uint64 // delta not yet reported by a stderr warning
	LastEventID      uint64

	atEnd bool
}

type eventDefPair struct {
	contextIdx int
	fieldsIdx  int
}

func newFileStream(f *os.File, owned bool) *FileStream {
	pos := NewBitPos(f, ModeRead)
	return &FileStream{
		file:             f,
		owned:            owned,
		pos:              pos,
		arena:            NewArena(),
		mapPacket:        pos.MapWindow,
		packetHeaderIdx:  -1,
		packetContextIdx: -1,
		eventHeaderIdx:   -1,
		eventContextIdx:  -1,
		eventFieldDefs:   make(map[uint64]eventDefPair),
	}
}

// newMmapFileStream builds a FileStream over an already-mapped byte
// slice, for open_mmap_trace callers that own their own mapping
// lifecycle (§6).
func newMmapFileStream(data []byte) *FileStream {
	pos := NewBitPos(nil, ModeRead)
	fs := &FileStream{
		pos:              pos,
		arena:            NewArena(),
		packetHeaderIdx:  -1,
		packetContextIdx: -1,
		eventHeaderIdx:   -1,
		eventContextIdx:  -1,
		eventFieldDefs:   make(map[uint64]eventDefPair),
	}
	fs.mapPacket = func(offset int64, lenBytes int) error {
		if offset < 0 || lenBytes < 0 || offset+int64(lenBytes) > int64(len(data)) {
			return fmt.Errorf("ctf: mmap stream window [%d, %d) out of range (len %d)", offset, offset+int64(lenBytes), len(data))
		}
		pos.MapBytes(data[offset : offset+int64(lenBytes)])
		return nil
	}
	return fs
}

// Close unmaps any live packet window and, if this FileStream owns its
// underlying *os.File (because OpenTrace opened it), closes it.
func (fs *FileStream) Close() error {
	var err error
	if fs.pos != nil {
		err = fs.pos.Finalize()
	}
	if fs.owned && fs.file != nil {
		if cerr := fs.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
