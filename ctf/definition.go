package ctf

// A Definition is a placed value instance of a Declaration, bound to
// a scope path such as "stream.event.header.id". Definitions hold the
// decoded value after a read.
//
// Definitions are owned by an Arena, and reference their parent scope
// by index rather than by pointer: this keeps the scope tree built
// from definition_new calls free of the reference cycles that the
// equivalent C structures require refcounting to break (see
// DESIGN.md, "Cyclic declaration/definition references").
type Definition struct {
	Decl      Declaration
	Name      string // local field/element name, "" for array/sequence elements
	Qualified string // fully qualified scope path

	arena  *Arena
	parent int // index into arena, -1 for the root of a stream's scope tree

	// Exactly one of the following is meaningful, selected by Decl.Class().
	uintVal   uint64
	intVal    int64
	signed    bool
	floatVal  float64
	strVal    string
	fields    []int // TypeStruct: one definition index per StructDecl field, in order
	variant   int   // TypeVariant: index of the selected arm's definition, or -1
	variantOn string // TypeVariant: name of the selected arm
	elems     []int // TypeArray / TypeSequence: one definition index per element
}

// Arena owns every Definition created for one file stream's scope
// tree (trace-packet-header, stream-packet-context, stream-event
// header/context, and each event class's context/fields).
type Arena struct {
	defs []*Definition
}

// NewArena returns an empty, ready-to-use arena.
func NewArena() *Arena { return &Arena{} }

// New materializes a definition for decl, scoped under parent (-1 for
// a root), and returns its arena index. This is the factory the spec
// calls definition_new(parent_scope, index, depth,
// fully_qualified_name); depth and index are implicit in the returned
// slice index and the parent chain.
func (a *Arena) New(decl Declaration, parent int, name, qualified string) int {
	d := &Definition{Decl: decl, Name: name, Qualified: qualified, arena: a, parent: parent, variant: -1}
	a.defs = append(a.defs, d)
	return len(a.defs) - 1
}

// Get returns the definition at idx, or nil for idx < 0.
func (a *Arena) Get(idx int) *Definition {
	if idx < 0 || idx >= len(a.defs) {
		return nil
	}
	return a.defs[idx]
}

// Reset discards every definition, so the arena's storage can be
// reused across packets without shrinking.
func (a *Arena) Reset() { a.defs = a.defs[:0] }

// Parent returns the definition's enclosing scope, or nil at the
// root.
func (d *Definition) Parent() *Definition {
	if d == nil {
		return nil
	}
	return d.arena.Get(d.parent)
}

// Uint returns the decoded value of an integer or enum definition as
// unsigned, the contract get_unsigned_int relies on.
func (d *Definition) Uint() uint64 {
	switch d.Decl.Class() {
	case TypeInteger:
		return d.uintVal
	case TypeEnum:
		return d.uintVal
	default:
		return 0
	}
}

// Int returns the decoded value of a signed integer definition.
func (d *Definition) Int() int64 { return d.intVal }

// Float returns the decoded value of a float definition.
func (d *Definition) Float() float64 { return d.floatVal }

// String returns the decoded value of a string definition.
func (d *Definition) String() string { return d.strVal }

// EnumName returns the symbolic name of a decoded enum definition.
func (d *Definition) EnumName() string {
	ed, _ := d.Decl.(*EnumDecl)
	if ed == nil {
		return ""
	}
	if ed.Base.Signed {
		return ed.Name(d.intVal)
	}
	return ed.Name(int64(d.uintVal))
}

// Field looks up a direct struct field definition by name.
func (d *Definition) Field(name string) *Definition {
	sd, ok := d.Decl.(*StructDecl)
	if !ok {
		return nil
	}
	idx, ok := sd.FieldIndex(name)
	if !ok {
		return nil
	}
	return d.arena.Get(d.fields[idx])
}

// FieldAt returns the direct struct field definition at position idx,
// the contract struct_definition_get_field_from_index relies on.
func (d *Definition) FieldAt(idx int) *Definition {
	if idx < 0 || idx >= len(d.fields) {
		return nil
	}
	return d.arena.Get(d.fields[idx])
}

// Selected returns the currently active arm of a variant definition,
// or nil if the tag has not been resolved yet.
func (d *Definition) Selected() *Definition {
	return d.arena.Get(d.variant)
}

// Len returns the element count of an array or sequence definition,
// the contract array_len relies on (also used for sequences).
func (d *Definition) Len() int { return len(d.elems) }

// Index returns the i'th element definition of an array or sequence
// definition, the contract array_index relies on.
func (d *Definition) Index(i int) *Definition {
	if i < 0 || i >= len(d.elems) {
		return nil
	}
	return d.arena.Get(d.elems[i])
}

// Bytes returns the raw byte values of a fixed array of 8-bit
// unsigned integers, e.g. a uuid field, in element order.
func (d *Definition) Bytes() []byte {
	out := make([]byte, d.Len())
	for i := range out {
		out[i] = byte(d.Index(i).Uint())
	}
	return out
}

// lookupInField performs the non-recursive, direct-field search used
// by lookup_integer / lookup_enum / lookup_variant: it looks at the
// immediate fields of parent (which must be a struct definition) for
// a field named "name" whose declaration class matches want.
func lookupInField(parent *Definition, name string, want TypeClass) *Definition {
	if parent == nil {
		return nil
	}
	f := parent.Field(name)
	if f == nil || f.Decl.Class() != want {
		return nil
	}
	return f
}

// LookupInteger implements lookup_integer(parent, name).
func LookupInteger(parent *Definition, name string) *Definition {
	return lookupInField(parent, name, TypeInteger)
}

// LookupEnum implements lookup_enum(parent, name).
func LookupEnum(parent *Definition, name string) *Definition {
	return lookupInField(parent, name, TypeEnum)
}

// LookupVariant implements lookup_variant(parent, name).
func LookupVariant(parent *Definition, name string) *Definition {
	return lookupInField(parent, name, TypeVariant)
}

// GetUnsignedInt implements get_unsigned_int: it accepts integer or
// enum definitions (the only two classes babeltrace feeds into magic
// and uuid comparisons).
func GetUnsignedInt(def *Definition) uint64 {
	if def == nil {
		return 0
	}
	return def.Uint()
}
