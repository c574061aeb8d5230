package ctf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cbab/babeltrace/ctf/ctferrors"
)

// OpenFlags mirrors the POSIX-style access mode open_trace accepts
// (§6); only read access is implemented, matching the write path
// being disabled at this layer (DESIGN.md, Open Question 3).
type OpenFlags int

const (
	OpenReadOnly OpenFlags = iota
)

// Trace is the shared descriptor for one opened trace directory: its
// byte order and UUID (once observed), the declaration trees the
// metadata parser produced, and the set of open file streams
// indexing its packets (§3, "Trace descriptor").
type Trace struct {
	Path string
	dir  *os.File // nil for a trace opened via OpenMmapTrace

	ByteOrder    ByteOrder
	byteOrderSet bool
	UUID         UUID
	UUIDSet      bool

	PacketHeaderDecl Declaration
	Clock            *ClockDescriptor
	Streams          map[uint64]*StreamClass

	// TimeFormat is copied into each file stream as it is opened, to
	// render the discarded-events stderr warning's timestamps (§6).
	// OpenTrace and OpenMmapTrace copy the zero value, which prints
	// local HH:MM:SS.nnnnnnnnn; assigning this field after opening does
	// not change the streams' format.
	TimeFormat TimeFormat

	fileStreams []*FileStream
}

// FileStreams returns the trace's open file streams, in the order they
// were opened.
func (t *Trace) FileStreams() []*FileStream { return t.fileStreams }

// OpenTrace implements the directory-based opener surface (§6):
// it reads and parses the trace's metadata, then indexes every
// non-hidden regular file in dir other than "metadata" as a stream.
// Every resource acquired before a failure is released before
// returning (§5, "Resource lifetimes").
func OpenTrace(path string, flags OpenFlags, parser MetadataParser) (*Trace, error) {
	if flags != OpenReadOnly {
		return nil, ctferrors.E(ctferrors.Other, "only OpenReadOnly is supported")
	}
	if parser == nil {
		return nil, ctferrors.E(ctferrors.Other, "OpenTrace: parser must not be nil")
	}

	dir, err := os.Open(path)
	if err != nil {
		return nil, ctferrors.E(ctferrors.NotFound, "open trace directory", err)
	}

	mf, err := os.Open(filepath.Join(path, "metadata"))
	if err != nil {
		dir.Close()
		return nil, ctferrors.E(ctferrors.NotFound, "open metadata file", err)
	}
	text, order, uuid, uuidSet, err := ReadMetadata(mf)
	mf.Close()
	if err != nil {
		dir.Close()
		return nil, err
	}

	tree, err := parser.Parse(text, order)
	if err != nil {
		dir.Close()
		return nil, ctferrors.E(ctferrors.MetadataParseError, "parse metadata", err)
	}

	t := &Trace{
		Path:             path,
		dir:              dir,
		ByteOrder:        order,
		byteOrderSet:     true,
		UUID:             uuid,
		UUIDSet:          uuidSet,
		PacketHeaderDecl: tree.PacketHeader,
		Clock:            tree.Clock,
		Streams:          tree.Streams,
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		t.Close()
		return nil, ctferrors.E(ctferrors.IOError, "read trace directory", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || name == "metadata" || entry.IsDir() {
			continue
		}
		f, err := os.Open(filepath.Join(path, name))
		if err != nil {
			t.Close()
			return nil, ctferrors.E(ctferrors.IOError, fmt.Sprintf("open stream file %q", name), err)
		}
		fs := newFileStream(f, true)
		fs.clock = t.Clock
		fs.timeFmt = t.TimeFormat
		if err := buildPacketIndex(t, fs); err != nil {
			fs.Close()
			t.Close()
			return nil, err
		}
		t.fileStreams = append(t.fileStreams, fs)
	}

	return t, nil
}

// MmapStream is one already-mapped stream source for OpenMmapTrace:
// the caller owns Data's lifetime (it is never unmapped by this
// package) and supplies it as a live/streaming alternative to a
// directory of regular files (§6).
type MmapStream struct {
	Data []byte
}

// OpenMmapTrace implements the mmap-stream opener surface (§6), for
// callers that provide their own mapped byte ranges instead of a
// trace directory. metadataText is the already-concatenated metadata
// (binary framing has already been stripped by the caller, since
// there is no directory to read a "metadata" file from).
func OpenMmapTrace(streams []MmapStream, metadataText string, order ByteOrder, parser MetadataParser) (*Trace, error) {
	if parser == nil {
		return nil, ctferrors.E(ctferrors.Other, "OpenMmapTrace: parser must not be nil")
	}
	tree, err := parser.Parse(metadataText, order)
	if err != nil {
		return nil, ctferrors.E(ctferrors.MetadataParseError, "parse metadata", err)
	}

	t := &Trace{
		ByteOrder:        order,
		byteOrderSet:     true,
		PacketHeaderDecl: tree.PacketHeader,
		Clock:            tree.Clock,
		Streams:          tree.Streams,
	}

	for _, ms := range streams {
		fs := newMmapFileStream(ms.Data)
		fs.clock = t.Clock
		fs.timeFmt = t.TimeFormat
		if err := buildMmapPacketIndex(t, fs, ms.Data); err != nil {
			t.Close()
			return nil, err
		}
		t.fileStreams = append(t.fileStreams, fs)
	}

	return t, nil
}

// CloseTrace closes t and every file stream it opened. It is safe to
// call on a partially-constructed Trace, as the OpenTrace failure paths
// after the Trace is built do.
func CloseTrace(t *Trace) error {
	return t.Close()
}

func (t *Trace) Close() error {
	var first error
	for _, fs := range t.fileStreams {
		if err := fs.Close(); err != nil && first == nil {
			first = err
		}
	}
	t.fileStreams = nil
	if t.dir != nil {
		if err := t.dir.Close(); err != nil && first == nil {
			first = err
		}
		t.dir = nil
	}
	return first
}
