package ctf

import (
	"fmt"

	"github.com/cbab/babeltrace/ctf/ctflog"
)

// seekWhence selects packet-seek semantics (§4.F). Only read mode is
// implemented; write mode's pallocate-and-advance behavior is a
// Non-goal here.
type seekWhence int

const (
	seekSet seekWhence = iota
	seekCur
)

// seekPacket implements the packet seek/iterator. seekCur advances
// past the packet fs is currently positioned on, folding its
// events_discarded field into fs's running total and reporting the
// delta attributable to that boundary; seekSet jumps directly to
// index, resetting timestamp bookkeeping. Both then map the resulting
// packet, or mark the cursor EOF and flush any pending discarded-event
// warning if there is no such packet.
func (fs *FileStream) seekPacket(index int, whence seekWhence) error {
	switch whence {
	case seekSet:
		fs.CurPacket = index
		fs.PrevTimestamp = 0
		fs.PrevTimestampEnd = 0
	case seekCur:
		if fs.atEnd {
			return nil
		}
		if fs.CurPacket < len(fs.Index) {
			cur := fs.Index[fs.CurPacket]
			fs.pendingDiscarded = cur.EventsDiscarded - fs.EventsDiscarded
			fs.EventsDiscarded = cur.EventsDiscarded
			fs.PrevTimestamp = fs.Timestamp
			fs.PrevTimestampEnd = cur.TimestampEnd
		}
		fs.CurPacket++
	}

	if fs.CurPacket >= len(fs.Index) {
		if fs.pendingDiscarded != 0 {
			ctflog.Error.Printf("ctf: %d events discarded between timestamps [%s, %s]",
				fs.pendingDiscarded, fs.formatClock(fs.PrevTimestamp), fs.formatClock(fs.PrevTimestampEnd))
			fs.pendingDiscarded = 0
		}
		fs.atEnd = true
		fs.pos.SetEOF()
		return nil
	}

	entry := fs.Index[fs.CurPacket]
	if err := fs.mapPacket(entry.FileByteOffset, int(entry.PacketBits/8)); err != nil {
		return err
	}
	fs.pos.offset = 0
	fs.pos.contentBits = entry.ContentBits
	fs.pos.packetBits = entry.PacketBits
	fs.pos.curIndex = fs.CurPacket
	fs.Timestamp = entry.TimestampBegin

	if entry.DataOffsetBits == entry.ContentBits {
		return fs.seekPacket(0, seekCur)
	}

	if fs.packetHeaderIdx >= 0 {
		if err := Decode(fs.pos, fs.arena, fs.arena.Get(fs.packetHeaderIdx)); err != nil {
			return fmt.Errorf("ctf: re-decode packet header: %w", err)
		}
	}
	if fs.packetContextIdx >= 0 {
		if err := Decode(fs.pos, fs.arena, fs.arena.Get(fs.packetContextIdx)); err != nil {
			return fmt.Errorf("ctf: re-decode packet context: %w", err)
		}
	}
	fs.pos.offset = entry.DataOffsetBits
	return nil
}
