package ctf

import (
	"fmt"
)

// Instantiate materializes a full definition tree for decl under the
// given parent scope and returns the root definition's arena index.
// Struct fields and fixed array elements are created eagerly, since
// their shape never changes between decodes; Decode creates sequence
// elements afresh on every decode, and a variant's arm whenever the
// tag selects a different arm than the previous decode.
//
// This is the factory the spec calls definition_new, generalized to
// walk an entire declaration subtree in one call - the shape that
// create_trace_definitions / create_stream_definitions /
// create_event_definitions need when a stream or event class is
// first seen.
func Instantiate(arena *Arena, decl Declaration, parent int, name, qualified string) int {
	idx := arena.New(decl, parent, name, qualified)
	switch d := decl.(type) {
	case *StructDecl:
		def := arena.Get(idx)
		def.fields = make([]int, len(d.FieldDecls))
		for i, fd := range d.FieldDecls {
			childQualified := qualified + "." + d.FieldNames[i]
			def.fields[i] = Instantiate(arena, fd, idx, d.FieldNames[i], childQualified)
		}
	case *ArrayDecl:
		def := arena.Get(idx)
		def.elems = make([]int, d.Length)
		for i := range def.elems {
			def.elems[i] = Instantiate(arena, d.Element, idx, "", fmt.Sprintf("%s[%d]", qualified, i))
		}
	case *VariantDecl, *SequenceDecl:
		// Arms / elements depend on runtime data (the tag field's value,
		// or the length field's value) and are materialized by Decode.
	}
	return idx
}

type decodeFunc func(pos *BitPos, arena *Arena, def *Definition) error

var readDispatch map[TypeClass]decodeFunc

func init() {
	readDispatch = map[TypeClass]decodeFunc{
		TypeInteger:  decodeInteger,
		TypeFloat:    decodeFloat,
		TypeEnum:     decodeEnum,
		TypeString:   decodeString,
		TypeStruct:   decodeStruct,
		TypeVariant:  decodeVariant,
		TypeArray:    decodeArray,
		TypeSequence: decodeSequence,
	}
}

// Decode reads def's value (and, for compound declarations, its
// children's values) from pos, dispatching on def.Decl.Class() the
// way generic_rw does. It is the single entry point every reader in
// this package uses to pull a field off the wire.
func Decode(pos *BitPos, arena *Arena, def *Definition) error {
	pos.AlignTo(def.Decl.AlignBits())
	fn, ok := readDispatch[def.Decl.Class()]
	if !ok {
		return fmt.Errorf("ctf: no decoder for type class %v", def.Decl.Class())
	}
	return fn(pos, arena, def)
}

func decodeInteger(pos *BitPos, _ *Arena, def *Definition) error {
	id := def.Decl.(*IntegerDecl)
	if id.Signed {
		v, err := pos.ReadInt(id.LengthBits, id.Order)
		if err != nil {
			return err
		}
		def.intVal = v
		def.uintVal = uint64(v)
		def.signed = true
		return nil
	}
	v, err := pos.ReadUint(id.LengthBits, id.Order)
	if err != nil {
		return err
	}
	def.uintVal = v
	def.signed = false
	return nil
}

func decodeFloat(pos *BitPos, _ *Arena, def *Definition) error {
	fd := def.Decl.(*FloatDecl)
	v, err := pos.ReadFloat(fd.LengthBits, fd.Order)
	if err != nil {
		return err
	}
	def.floatVal = v
	return nil
}

func decodeEnum(pos *BitPos, _ *Arena, def *Definition) error {
	ed := def.Decl.(*EnumDecl)
	if ed.Base.Signed {
		v, err := pos.ReadInt(ed.Base.LengthBits, ed.Base.Order)
		if err != nil {
			return err
		}
		def.intVal = v
		def.uintVal = uint64(v)
		def.signed = true
		return nil
	}
	v, err := pos.ReadUint(ed.Base.LengthBits, ed.Base.Order)
	if err != nil {
		return err
	}
	def.uintVal = v
	def.signed = false
	return nil
}

func decodeString(pos *BitPos, _ *Arena, def *Definition) error {
	s, err := pos.ReadCString()
	if err != nil {
		return err
	}
	def.strVal = s
	return nil
}

func decodeStruct(pos *BitPos, arena *Arena, def *Definition) error {
	for _, fieldIdx := range def.fields {
		if err := Decode(pos, arena, arena.Get(fieldIdx)); err != nil {
			return fmt.Errorf("ctf: field %q: %w", arena.Get(fieldIdx).Name, err)
		}
	}
	return nil
}

// decodeVariant resolves the active arm via the sibling tag
// definition's current value, then decodes that arm in place. Arms
// are cached per definition so repeated decodes of a stable tag don't
// reinstantiate their subtree.
func decodeVariant(pos *BitPos, arena *Arena, def *Definition) error {
	vd := def.Decl.(*VariantDecl)
	parent := def.Parent()
	tagName := tagValue(parent, vd.TagField)
	if tagName == "" {
		return fmt.Errorf("ctf: variant %q: tag field %q not resolved", def.Qualified, vd.TagField)
	}
	armDecl, ok := vd.Arm(tagName)
	if !ok {
		return fmt.Errorf("ctf: variant %q: no arm named %q", def.Qualified, tagName)
	}
	if def.variantOn != tagName {
		idx := Instantiate(arena, armDecl, def.parent, def.Name, def.Qualified+"."+tagName)
		def.variant = idx
		def.variantOn = tagName
	}
	return Decode(pos, arena, arena.Get(def.variant))
}

// tagValue resolves a variant's tag field to its symbolic name: the
// tag field is itself an enum (most common) or a plain integer value
// stringified, matching lookup_enum/lookup_integer's fallback order in
// the event-id/timestamp resolution logic.
func tagValue(parent *Definition, name string) string {
	if e := LookupEnum(parent, name); e != nil {
		return e.EnumName()
	}
	if i := LookupInteger(parent, name); i != nil {
		return fmt.Sprintf("%d", i.Uint())
	}
	return ""
}

func decodeArray(pos *BitPos, arena *Arena, def *Definition) error {
	for _, elemIdx := range def.elems {
		if err := Decode(pos, arena, arena.Get(elemIdx)); err != nil {
			return err
		}
	}
	return nil
}

// decodeSequence reads the sibling length field, then decodes exactly
// that many freshly instantiated elements.
func decodeSequence(pos *BitPos, arena *Arena, def *Definition) error {
	sd := def.Decl.(*SequenceDecl)
	parent := def.Parent()
	lenDef := LookupInteger(parent, sd.LengthField)
	if lenDef == nil {
		return fmt.Errorf("ctf: sequence %q: length field %q not found", def.Qualified, sd.LengthField)
	}
	n := int(lenDef.Uint())
	def.elems = make([]int, n)
	for i := range def.elems {
		def.elems[i] = Instantiate(arena, sd.Element, def.parent, "", fmt.Sprintf("%s[%d]", def.Qualified, i))
		if err := Decode(pos, arena, arena.Get(def.elems[i])); err != nil {
			return err
		}
	}
	return nil
}
