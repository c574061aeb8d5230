package ctf

import "github.com/cbab/babeltrace/ctf/internal/bitio"

// TypeClass selects which of the eight CTF field encodings a
// Declaration describes. The generic dispatcher (dispatch.go) is keyed
// by this tag.
type TypeClass int

const (
	TypeInteger TypeClass = iota
	TypeFloat
	TypeEnum
	TypeString
	TypeStruct
	TypeVariant
	TypeArray
	TypeSequence
)

func (c TypeClass) String() string {
	switch c {
	case TypeInteger:
		return "integer"
	case TypeFloat:
		return "float"
	case TypeEnum:
		return "enum"
	case TypeString:
		return "string"
	case TypeStruct:
		return "struct"
	case TypeVariant:
		return "variant"
	case TypeArray:
		return "array"
	case TypeSequence:
		return "sequence"
	default:
		return "unknown"
	}
}

// Declaration is a type in the metadata model. The metadata
// grammar/scanner/AST that produces declaration trees is an external
// collaborator (see MetadataParser); this core only consumes the
// trees it produces, or trees built directly by a caller/test.
type Declaration interface {
	// Class selects the dispatcher entry used to decode values of
	// this declaration.
	Class() TypeClass
	// AlignBits is the bit alignment that must be satisfied before a
	// definition of this declaration may be decoded.
	AlignBits() uint
}

// IntegerDecl describes a fixed-width integer field.
type IntegerDecl struct {
	LengthBits uint
	Signed     bool
	Order      bitio.Order
	Base       int // display base (2, 8, 10, 16); carried for parity with the metadata model, unused by decode
	Align      uint
}

func (d *IntegerDecl) Class() TypeClass { return TypeInteger }
func (d *IntegerDecl) AlignBits() uint  { return orDefault(d.Align, 1) }

// FloatDecl describes an IEEE-754 float field. Only the 32-bit and
// 64-bit layouts are supported, matching the two encodings
// encoding/binary and math.Float*bits can represent directly.
type FloatDecl struct {
	LengthBits uint // 32 or 64
	Order      bitio.Order
	Align      uint
}

func (d *FloatDecl) Class() TypeClass { return TypeFloat }
func (d *FloatDecl) AlignBits() uint  { return orDefault(d.Align, 1) }

// EnumDecl maps an underlying integer's decoded value to a symbolic
// name.
type EnumDecl struct {
	Base   *IntegerDecl
	Values map[int64]string
	Align  uint
}

func (d *EnumDecl) Class() TypeClass { return TypeEnum }
func (d *EnumDecl) AlignBits() uint  { return orDefault(d.Align, d.Base.AlignBits()) }

// Name returns the symbolic name mapped to v, or "" if v is not a
// member of the enumeration.
func (d *EnumDecl) Name(v int64) string { return d.Values[v] }

// StringDecl describes a NUL-terminated byte string, always 8-bit
// aligned.
type StringDecl struct{}

func (d *StringDecl) Class() TypeClass { return TypeString }
func (d *StringDecl) AlignBits() uint  { return 8 }

// StructDecl describes an ordered list of named fields.
type StructDecl struct {
	FieldNames []string
	FieldDecls []Declaration
	Align      uint
}

func (d *StructDecl) Class() TypeClass { return TypeStruct }
func (d *StructDecl) AlignBits() uint  { return orDefault(d.Align, 1) }

// FieldIndex returns the index of the named field, mirroring
// struct_declaration_lookup_field_index.
func (d *StructDecl) FieldIndex(name string) (int, bool) {
	for i, n := range d.FieldNames {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// VariantDecl describes a tagged union whose active arm is selected
// by the current value of a sibling enum field named TagField.
type VariantDecl struct {
	TagField string
	ArmNames []string
	ArmDecls []Declaration
	Align    uint
}

func (d *VariantDecl) Class() TypeClass { return TypeVariant }
func (d *VariantDecl) AlignBits() uint  { return orDefault(d.Align, 1) }

// Arm returns the declaration for the named arm.
func (d *VariantDecl) Arm(name string) (Declaration, bool) {
	for i, n := range d.ArmNames {
		if n == name {
			return d.ArmDecls[i], true
		}
	}
	return nil, false
}

// ArrayDecl describes a fixed-length array of a single element
// declaration.
type ArrayDecl struct {
	Element Declaration
	Length  uint
	Align   uint
}

func (d *ArrayDecl) Class() TypeClass { return TypeArray }
func (d *ArrayDecl) AlignBits() uint  { return orDefault(d.Align, d.Element.AlignBits()) }

// SequenceDecl describes a variable-length array whose element count
// is read from a sibling integer field named LengthField.
type SequenceDecl struct {
	Element     Declaration
	LengthField string
	Align       uint
}

func (d *SequenceDecl) Class() TypeClass { return TypeSequence }
func (d *SequenceDecl) AlignBits() uint  { return orDefault(d.Align, d.Element.AlignBits()) }

func orDefault(v, fallback uint) uint {
	if v == 0 {
		return fallback
	}
	return v
}
