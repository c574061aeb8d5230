package ctf

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/cbab/babeltrace/ctf/internal/bitio"
)

// eofOffset is the sentinel value BitPos.offset takes once a stream
// position has been exhausted, the spec's "EOF" bit-offset sentinel.
const eofOffset = ^uint64(0)

// Mode selects whether a BitPos maps packets for reading or writing.
// Only ModeRead is implemented; ModeWrite only changes the protection
// and sharing flags MapWindow uses, there is no write dispatcher, and
// no opener creates a write-mode cursor (see DESIGN.md, Open Question 3).
type Mode int

const (
	ModeRead Mode = iota
	ModeWrite
)

// BitPos is a bit-offset cursor into a memory-mapped window of a
// stream file. Exactly one mapping is live at a time (invariant 7):
// MapWindow always unmaps the previous window first.
type BitPos struct {
	file *os.File
	mode Mode

	base       []byte // current mmap window, or nil
	mapping    []byte // page-aligned unix.Mmap region that base lies in, or nil
	mmapOffset int64  // byte offset of base within the file
	external   bool   // true if base was installed by MapBytes, not unix.Mmap

	packetBits  uint64
	contentBits uint64

	offset     uint64 // current bit offset within base, or eofOffset
	lastOffset uint64 // restore point set by ReadEvent

	curIndex int // current packet index
}

// NewBitPos opens a bit-position cursor over an already-open file in
// the given mode. fd may be nil for mmap-stream sources that supply
// their own backing slices through MapBytes instead of MapWindow.
func NewBitPos(f *os.File, mode Mode) *BitPos {
	return &BitPos{file: f, mode: mode}
}

// AtEOF reports whether the cursor has been positioned past the last
// readable packet.
func (p *BitPos) AtEOF() bool { return p.offset == eofOffset }

// SetEOF parks the cursor at the EOF sentinel.
func (p *BitPos) SetEOF() { p.offset = eofOffset }

// Offset returns the current bit offset within the mapped packet.
func (p *BitPos) Offset() uint64 { return p.offset }

// ContentBits returns the content size, in bits, of the packet
// currently mapped.
func (p *BitPos) ContentBits() uint64 { return p.contentBits }

// PacketBits returns the packet size, in bits, of the packet
// currently mapped.
func (p *BitPos) PacketBits() uint64 { return p.packetBits }

// CurIndex returns the index of the packet currently mapped.
func (p *BitPos) CurIndex() int { return p.curIndex }

// unmap releases the current mapping, if any. A window installed by
// MapBytes is caller-owned and is only forgotten, never munmapped.
func (p *BitPos) unmap() error {
	if p.base == nil {
		return nil
	}
	if p.external {
		p.base = nil
		p.external = false
		return nil
	}
	err := unix.Munmap(p.mapping)
	p.base = nil
	p.mapping = nil
	return err
}

// MapWindow unmaps any current window and maps lenBytes bytes of the
// backing file starting at byteOffset. It is used both by the packet
// indexer (to probe a page-sized header window) and by the seek
// iterator (to map a full packet).
func (p *BitPos) MapWindow(byteOffset int64, lenBytes int) error {
	if err := p.unmap(); err != nil {
		return fmt.Errorf("ctf: unmap previous window: %w", err)
	}
	if lenBytes == 0 {
		p.base = nil
		p.mmapOffset = byteOffset
		return nil
	}
	prot := unix.PROT_READ
	flags := unix.MAP_PRIVATE
	if p.mode == ModeWrite {
		prot = unix.PROT_READ | unix.PROT_WRITE
		flags = unix.MAP_SHARED
	}
	// mmap offsets must be page-aligned; map from the enclosing page
	// boundary and expose only the requested window.
	pageOff := byteOffset % int64(os.Getpagesize())
	mapping, err := unix.Mmap(int(p.file.Fd()), byteOffset-pageOff, lenBytes+int(pageOff), prot, flags)
	if err != nil {
		return fmt.Errorf("ctf: mmap at offset %d len %d: %w", byteOffset, lenBytes, err)
	}
	p.mapping = mapping
	p.base = mapping[pageOff:]
	p.mmapOffset = byteOffset
	return nil
}

// MapBytes installs an already-mapped (or otherwise caller-owned)
// byte slice as the current window, used by the mmap-stream opener
// where the caller owns the mapping lifecycle.
func (p *BitPos) MapBytes(b []byte) {
	if err := p.unmap(); err != nil {
		// Best effort: MapBytes has no error return, matching the
		// contract mmap-stream callers already use for their own
		// mapping lifecycle.
		_ = err
	}
	p.base = b
	p.mmapOffset = 0
	p.external = true
}

// Finalize releases the cursor's mapping. Per the spec, a write-mode
// cursor would flush its final content size here; since the write
// path is not implemented, Finalize only unmaps.
func (p *BitPos) Finalize() error {
	return p.unmap()
}

// AlignTo advances offset to the next multiple of bits.
func (p *BitPos) AlignTo(bits uint) {
	if p.AtEOF() {
		return
	}
	p.offset = bitio.Align(p.offset, bits)
}

// GetEvent aligns the cursor to the next event boundary (the next
// multiple of 8 bits) and flags EOF if the packet has been fully
// consumed.
func (p *BitPos) GetEvent() {
	if p.AtEOF() {
		return
	}
	p.AlignTo(8)
	if p.offset >= p.contentBits {
		p.SetEOF()
	}
}

func (p *BitPos) checkNotEOF() error {
	if p.AtEOF() {
		return fmt.Errorf("ctf: read past end of stream")
	}
	return nil
}

// ReadUint decodes a length-bit unsigned integer at the current
// offset and advances the cursor.
func (p *BitPos) ReadUint(length uint, order bitio.Order) (uint64, error) {
	if err := p.checkNotEOF(); err != nil {
		return 0, err
	}
	v, next, err := bitio.ReadUint(p.base, p.offset, length, order)
	if err != nil {
		return 0, err
	}
	p.offset = next
	return v, nil
}

// ReadInt decodes a length-bit signed integer at the current offset
// and advances the cursor.
func (p *BitPos) ReadInt(length uint, order bitio.Order) (int64, error) {
	if err := p.checkNotEOF(); err != nil {
		return 0, err
	}
	v, next, err := bitio.ReadInt(p.base, p.offset, length, order)
	if err != nil {
		return 0, err
	}
	p.offset = next
	return v, nil
}

// ReadFloat decodes a 32- or 64-bit IEEE-754 field at the current
// offset and advances the cursor.
func (p *BitPos) ReadFloat(length uint, order bitio.Order) (float64, error) {
	if err := p.checkNotEOF(); err != nil {
		return 0, err
	}
	switch length {
	case 32:
		v, next, err := bitio.ReadFloat32(p.base, p.offset, order)
		if err != nil {
			return 0, err
		}
		p.offset = next
		return float64(v), nil
	case 64:
		v, next, err := bitio.ReadFloat64(p.base, p.offset, order)
		if err != nil {
			return 0, err
		}
		p.offset = next
		return v, nil
	default:
		return 0, fmt.Errorf("ctf: unsupported float length %d", length)
	}
}

// ReadCString decodes a NUL-terminated string at the current,
// byte-aligned offset and advances the cursor past the terminator.
func (p *BitPos) ReadCString() (string, error) {
	if err := p.checkNotEOF(); err != nil {
		return "", err
	}
	s, next, err := bitio.ReadCString(p.base, p.offset)
	if err != nil {
		return "", err
	}
	p.offset = next
	return s, nil
}
