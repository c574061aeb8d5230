package ctf

import (
	"errors"
	"fmt"

	"github.com/cbab/babeltrace/ctf/ctferrors"
)

// ErrEOF is returned by ReadEvent once a file stream's last packet has
// been fully consumed.
var ErrEOF = errors.New("ctf: end of stream")

// Event is one decoded event: its resolved id and (if the stream has
// a clock) reconstructed 64-bit timestamp, plus the definition trees
// a caller walks to read header, context, and field values.
type Event struct {
	ID           uint64
	Timestamp    uint64
	HasTimestamp bool

	Header        *Definition // stream-event-header, nil if undeclared
	StreamContext *Definition // stream-event-context, nil if undeclared
	Context       *Definition // event-class context, nil if undeclared
	Fields        *Definition // event-class fields, nil if undeclared
}

// ReadEvent implements the event reader (§4.G): it aligns to the next
// event boundary, decodes the stream-level header and context,
// resolves the event's id and timestamp, decodes the matching event
// class's context and fields, and advances fs's packet cursor across
// packet boundaries as needed.
func ReadEvent(fs *FileStream) (*Event, error) {
	if fs.pos.AtEOF() {
		return nil, ErrEOF
	}
	fs.pos.GetEvent()
	fs.pos.lastOffset = fs.pos.offset
	if fs.pos.AtEOF() {
		if err := fs.seekPacket(0, seekCur); err != nil {
			return nil, err
		}
		if fs.pos.AtEOF() {
			return nil, ErrEOF
		}
	}

	var ev Event

	if fs.eventHeaderIdx >= 0 {
		headerDef := fs.arena.Get(fs.eventHeaderIdx)
		if err := Decode(fs.pos, fs.arena, headerDef); err != nil {
			return nil, fmt.Errorf("ctf: decode event header: %w", err)
		}
		ev.Header = headerDef
		if f := resolveHeaderField(headerDef, "id"); f != nil {
			ev.ID = f.Uint()
		}
		if f := resolveHeaderField(headerDef, "timestamp"); f != nil {
			ev.Timestamp = f.Uint()
			ev.HasTimestamp = true
			fs.applyTimestamp(ev.Timestamp, timestampLengthBits(f))
		}
	}

	if fs.eventContextIdx >= 0 {
		ctxDef := fs.arena.Get(fs.eventContextIdx)
		if err := Decode(fs.pos, fs.arena, ctxDef); err != nil {
			return nil, fmt.Errorf("ctf: decode stream event context: %w", err)
		}
		ev.StreamContext = ctxDef
	}

	ec, ok := fs.StreamClass.Events[ev.ID]
	if !ok {
		return nil, ctferrors.E(ctferrors.InvalidEventID, fmt.Sprintf("event id %d has no event class", ev.ID))
	}
	fs.LastEventID = ev.ID

	pair, exists := fs.eventFieldDefs[ev.ID]
	if !exists {
		pair = eventDefPair{contextIdx: -1, fieldsIdx: -1}
		if ec.Context != nil {
			pair.contextIdx = Instantiate(fs.arena, ec.Context, -1, "event.context", "event.context")
		}
		if ec.Fields != nil {
			pair.fieldsIdx = Instantiate(fs.arena, ec.Fields, -1, "event.fields", "event.fields")
		}
		fs.eventFieldDefs[ev.ID] = pair
	}
	if pair.contextIdx >= 0 {
		def := fs.arena.Get(pair.contextIdx)
		if err := Decode(fs.pos, fs.arena, def); err != nil {
			return nil, fmt.Errorf("ctf: decode event context: %w", err)
		}
		ev.Context = def
	}
	if pair.fieldsIdx >= 0 {
		def := fs.arena.Get(pair.fieldsIdx)
		if err := Decode(fs.pos, fs.arena, def); err != nil {
			return nil, fmt.Errorf("ctf: decode event fields: %w", err)
		}
		ev.Fields = def
	}

	return &ev, nil
}

// resolveHeaderField looks for an integer or enum field named name at
// the top of header, falling back to the same lookup inside a variant
// field named "v" if the header declares one (§4.G, §6).
func resolveHeaderField(header *Definition, name string) *Definition {
	if f := integerOrEnum(header, name); f != nil {
		return f
	}
	if v := LookupVariant(header, "v"); v != nil {
		if sel := v.Selected(); sel != nil {
			return integerOrEnum(sel, name)
		}
	}
	return nil
}

func integerOrEnum(parent *Definition, name string) *Definition {
	if f := LookupInteger(parent, name); f != nil {
		return f
	}
	return LookupEnum(parent, name)
}

func timestampLengthBits(f *Definition) uint {
	if id, ok := f.Decl.(*IntegerDecl); ok {
		return id.LengthBits
	}
	if ed, ok := f.Decl.(*EnumDecl); ok {
		return ed.Base.LengthBits
	}
	return 64
}

// applyTimestamp implements the timestamp wrap-reconstruction rule
// (§4.G): a raw L-bit clock field is folded into fs's monotonic
// 64-bit timestamp, detecting at most one wrap since the previous
// event.
func (fs *FileStream) applyTimestamp(field uint64, lengthBits uint) {
	fs.PrevTimestamp = fs.Timestamp
	if lengthBits >= 64 {
		fs.Timestamp = field
		return
	}
	mask := uint64(1)<<lengthBits - 1
	oldLow := fs.Timestamp & mask
	newLow := field
	if newLow < oldLow {
		newLow += uint64(1) << lengthBits
	}
	fs.Timestamp = (fs.Timestamp &^ mask) + newLow
}
