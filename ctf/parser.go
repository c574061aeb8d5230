package ctf

// MetadataParser is the external collaborator this core consumes: the
// TSDL grammar, scanner, AST, and semantic checker that turn
// concatenated metadata text into a declaration tree are explicitly
// out of scope (see spec.md §1, "Explicitly out of scope"). A caller
// of OpenTrace / OpenMmapTrace supplies an implementation; tests in
// this package use a hand-built MetadataTree instead of parsing text
// at all, since "declarations in" is the only part of the contract
// this core actually depends on.
type MetadataParser interface {
	// Parse turns the concatenated metadata text into a declaration
	// tree. order is the byte order established by the metadata
	// framing reader (host order for text metadata, or the order
	// implied by the TSDL_MAGIC framing for packet metadata); the
	// parser uses it to resolve declarations that specify "native"
	// byte order in the TSDL source.
	Parse(text string, order ByteOrder) (*MetadataTree, error)
}

// ClockDescriptor describes the trace's single clock, used to convert
// raw clock-cycle timestamps into nanoseconds for the time-print
// surface (§6).
type ClockDescriptor struct {
	Name        string
	FrequencyHz uint64 // clock ticks per second; 0 means "not specified", treated as 1e9 (nanosecond clock)
	Offset      int64  // offset, in clock cycles, added before scaling to nanoseconds
}

// EventClass is identified by a numeric event id within its stream
// class (§3, "Event-class descriptor").
type EventClass struct {
	ID      uint64
	Context Declaration // optional event-level context, nil if absent
	Fields  Declaration // optional event fields, nil if absent
}

// StreamClass is identified by a numeric stream id (§3, "Stream-class
// descriptor"). It is created once by the metadata parser and shared,
// non-owning, by every FileStream that belongs to it.
type StreamClass struct {
	ID            uint64
	PacketContext Declaration // optional
	EventHeader   Declaration // optional
	EventContext  Declaration // optional
	Events        map[uint64]*EventClass

	// Streams lists the concrete file streams belonging to this class,
	// appended to during Trace opening only and immutable afterward
	// (§5, "Shared-resource policy").
	Streams []*FileStream
}

// MetadataTree is what an external MetadataParser hands back to the
// trace opener: everything the rest of this core needs to index
// packets and decode events, and nothing about how the TSDL text was
// parsed.
type MetadataTree struct {
	PacketHeader Declaration // optional trace-wide packet header
	Clock        *ClockDescriptor
	Streams      map[uint64]*StreamClass
}
