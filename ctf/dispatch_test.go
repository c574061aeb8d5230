package ctf_test

import (
	"testing"

	"github.com/go-test/deep"

	"github.com/cbab/babeltrace/ctf"
	"github.com/stretchr/testify/require"
)

// extractValue walks a decoded definition tree into plain Go values,
// so the whole tree can be compared against an expected literal in
// one shot instead of field by field.
func extractValue(def *ctf.Definition) interface{} {
	switch def.Decl.Class() {
	case ctf.TypeInteger:
		if id, ok := def.Decl.(*ctf.IntegerDecl); ok && id.Signed {
			return def.Int()
		}
		return def.Uint()
	case ctf.TypeEnum:
		return def.EnumName()
	case ctf.TypeFloat:
		return def.Float()
	case ctf.TypeString:
		return def.String()
	case ctf.TypeStruct:
		sd := def.Decl.(*ctf.StructDecl)
		out := make(map[string]interface{}, len(sd.FieldNames))
		for _, name := range sd.FieldNames {
			out[name] = extractValue(def.Field(name))
		}
		return out
	case ctf.TypeVariant:
		return extractValue(def.Selected())
	case ctf.TypeArray, ctf.TypeSequence:
		out := make([]interface{}, def.Len())
		for i := range out {
			out[i] = extractValue(def.Index(i))
		}
		return out
	default:
		return nil
	}
}

// TestDecodeStructWithVariantAndSequence exercises every compound
// declaration kind the generic dispatcher handles in one tree: a
// struct containing an enum-tagged variant and a length-prefixed
// sequence, decoded in a single pass.
func TestDecodeStructWithVariantAndSequence(t *testing.T) {
	colorEnum := &ctf.EnumDecl{
		Base:   &ctf.IntegerDecl{LengthBits: 8, Order: ctf.LittleEndian},
		Values: map[int64]string{0: "red", 1: "blue"},
	}
	variant := &ctf.VariantDecl{
		TagField: "color",
		ArmNames: []string{"red", "blue"},
		ArmDecls: []ctf.Declaration{
			&ctf.IntegerDecl{LengthBits: 32, Order: ctf.LittleEndian},
			&ctf.StringDecl{},
		},
	}
	root := &ctf.StructDecl{
		FieldNames: []string{"color", "payload", "length", "items"},
		FieldDecls: []ctf.Declaration{
			colorEnum,
			variant,
			&ctf.IntegerDecl{LengthBits: 8, Order: ctf.LittleEndian},
			&ctf.SequenceDecl{Element: &ctf.IntegerDecl{LengthBits: 8, Order: ctf.LittleEndian}, LengthField: "length"},
		},
	}

	// color=0 (red) selects the 32-bit-integer arm of payload; length=3
	// drives a 3-element sequence of bytes.
	data := []byte{0x00, 0x2A, 0x00, 0x00, 0x00, 0x03, 0x10, 0x20, 0x30}
	pos := ctf.NewBitPos(nil, ctf.ModeRead)
	pos.MapBytes(data)
	arena := ctf.NewArena()
	idx := ctf.Instantiate(arena, root, -1, "root", "root")
	require.NoError(t, ctf.Decode(pos, arena, arena.Get(idx)))

	got := extractValue(arena.Get(idx))
	want := map[string]interface{}{
		"color":   "red",
		"payload": uint64(0x2A),
		"length":  uint64(3),
		"items":   []interface{}{uint64(0x10), uint64(0x20), uint64(0x30)},
	}
	if diff := deep.Equal(got, want); diff != nil {
		t.Fatalf("decoded tree differs from expected: %v", diff)
	}
}

// TestDecodeStructWithVariantAndSequenceBlueArm decodes the same tree
// shape with the tag set to blue, confirming the variant selects its
// string arm instead of the integer arm.
func TestDecodeStructWithVariantAndSequenceBlueArm(t *testing.T) {
	colorEnum := &ctf.EnumDecl{
		Base:   &ctf.IntegerDecl{LengthBits: 8, Order: ctf.LittleEndian},
		Values: map[int64]string{0: "red", 1: "blue"},
	}
	variant := &ctf.VariantDecl{
		TagField: "color",
		ArmNames: []string{"red", "blue"},
		ArmDecls: []ctf.Declaration{
			&ctf.IntegerDecl{LengthBits: 32, Order: ctf.LittleEndian},
			&ctf.StringDecl{},
		},
	}
	root := &ctf.StructDecl{
		FieldNames: []string{"color", "payload", "length", "items"},
		FieldDecls: []ctf.Declaration{
			colorEnum,
			variant,
			&ctf.IntegerDecl{LengthBits: 8, Order: ctf.LittleEndian},
			&ctf.SequenceDecl{Element: &ctf.IntegerDecl{LengthBits: 8, Order: ctf.LittleEndian}, LengthField: "length"},
		},
	}

	data := []byte{0x01, 'h', 'i', 0x00, 0x01, 0x7F}
	pos := ctf.NewBitPos(nil, ctf.ModeRead)
	pos.MapBytes(data)
	arena := ctf.NewArena()
	idx := ctf.Instantiate(arena, root, -1, "root", "root")
	require.NoError(t, ctf.Decode(pos, arena, arena.Get(idx)))

	got := extractValue(arena.Get(idx))
	want := map[string]interface{}{
		"color":   "blue",
		"payload": "hi",
		"length":  uint64(1),
		"items":   []interface{}{uint64(0x7F)},
	}
	if diff := deep.Equal(got, want); diff != nil {
		t.Fatalf("decoded tree differs from expected: %v", diff)
	}
}
