package isa

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// WordSize is the size in bytes of every encoded instruction
const WordSize = 8

// OpcodeWidth is the width of the opcode at the bottom of each word
const OpcodeWidth = 8

// FieldMask returns the mask of a field of the given width
func FieldMask(width uint8) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return 1<<width - 1
}

// GetField extracts a field from a word
func GetField(word uint64, shift, width uint8) uint64 {
	return word >> shift & FieldMask(width)
}

// PutField stores a value into a field of a word.  Values that do not fit the
// field are rejected rather than truncated.
func PutField(word uint64, shift, width uint8, v uint64) (uint64, error) {
	if v&^FieldMask(width) != 0 {
		return word, fmt.Errorf("value %#x does not fit a %d-bit field", v, width)
	}

	return word&^(FieldMask(width)<<shift) | v<<shift, nil
}

// ReadWord reads the instruction word at a byte offset
func ReadWord(code []byte, offset int) uint64 {
	return binary.LittleEndian.Uint64(code[offset:])
}

// WriteWord writes an instruction word at a byte offset
func WriteWord(code []byte, offset int, word uint64) {
	binary.LittleEndian.PutUint64(code[offset:], word)
}

// Encode packs an opcode and its operand fields into a word
func (t *Template) Encode(fields []uint64) (uint64, error) {
	if len(fields) != len(t.Slots) {
		return 0, fmt.Errorf("`%s` takes %d operands, got %d", t.Mnemonic, len(t.Slots), len(fields))
	}

	word := uint64(t.Opcode)
	for i, f := range fields {
		var err error
		if word, err = PutField(word, t.shifts[i], t.Slots[i].Width, f); err != nil {
			return 0, fmt.Errorf("operand %d of `%s`: %s", i+1, t.Mnemonic, err)
		}
	}

	return word, nil
}

// Decode splits a word into its template and operand fields
func Decode(word uint64) (*Template, []uint64, error) {
	t, ok := ByOpcode(uint8(word))
	if !ok {
		return nil, nil, fmt.Errorf("unknown opcode %#02x", uint8(word))
	}

	fields := make([]uint64, len(t.Slots))
	used := FieldMask(OpcodeWidth)
	for i, s := range t.Slots {
		fields[i] = GetField(word, t.shifts[i], s.Width)
		used |= FieldMask(s.Width) << t.shifts[i]
	}

	if word&^used != 0 {
		return nil, nil, fmt.Errorf("`%s` word %#016x has stray bits set", t.Mnemonic, word)
	}

	return t, fields, nil
}

// Format renders a decoded instruction as assembly text
func Format(t *Template, fields []uint64) string {
	if len(t.Slots) == 0 {
		return t.Mnemonic
	}

	ops := make([]string, len(fields))
	for i, f := range fields {
		s := t.Slots[i]
		switch s.Kind {
		case SlotReg:
			if b, index, ok := SplitRegField(f); ok {
				ops[i] = fmt.Sprintf("%s[%d]", b.Name, index)
			} else {
				ops[i] = fmt.Sprintf("<reg %#x>", f)
			}
		case SlotImm:
			ops[i] = fmt.Sprintf("%d", s.ImmValue(f))
		case SlotCode:
			ops[i] = fmt.Sprintf("0x%04x", f)
		case SlotData:
			ops[i] = fmt.Sprintf("@0x%04x", f)
		case SlotLibCall:
			ops[i] = fmt.Sprintf("lib%d.0x%04x", f>>LibCallSlotShift, f&FieldMask(LibCallSlotShift))
		}
	}

	return t.Mnemonic + " " + strings.Join(ops, ", ")
}

// Disassemble decodes a code segment into one line per instruction
func Disassemble(code []byte) ([]string, error) {
	if len(code)%WordSize != 0 {
		return nil, fmt.Errorf("code segment length %d is not a multiple of %d", len(code), WordSize)
	}

	lines := make([]string, 0, len(code)/WordSize)
	for offset := 0; offset < len(code); offset += WordSize {
		t, fields, err := Decode(ReadWord(code, offset))
		if err != nil {
			return nil, fmt.Errorf("offset 0x%04x: %s", offset, err)
		}

		lines = append(lines, fmt.Sprintf("0x%04x: %s", offset, Format(t, fields)))
	}

	return lines, nil
}
