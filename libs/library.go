package libs

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/AreaLayer/aluasm/isa"
)

// Segment and call table limits imposed by the operand field widths
const (
	MaxSegmentSize = 1 << isa.CodeFieldWidth
	MaxCallTable   = 1 << (isa.LibCallFieldWidth - isa.LibCallSlotShift)
)

// Export is a named routine entry point of a library
type Export struct {
	Name   string
	Offset uint16
}

// Library is a fully resolved, content-addressed unit of code.  Libraries are
// never modified after they are sealed: a different resolution is a different
// library.
type Library struct {
	// Name is informational and does not contribute to the ID
	Name string

	ID         ID
	Extensions isa.Set
	Code       []byte
	Data       []byte

	// Libs is the call table: call instructions address these by slot
	Libs []ID

	// Exports are sorted by name
	Exports []Export

	Entry    uint16
	HasEntry bool
}

// Canonical returns the serialization the library ID is computed over
func (l *Library) Canonical() []byte {
	buf := make([]byte, 0, 2+4+len(l.Code)+4+len(l.Data)+1+len(l.Libs)*IDSize)

	buf = binary.LittleEndian.AppendUint16(buf, uint16(l.Extensions))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(l.Code)))
	buf = append(buf, l.Code...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(l.Data)))
	buf = append(buf, l.Data...)
	buf = append(buf, byte(len(l.Libs)))
	for _, id := range l.Libs {
		buf = append(buf, id[:]...)
	}

	return buf
}

// Seal validates the library and computes its ID
func (l *Library) Seal(h Hasher) error {
	if err := l.Validate(); err != nil {
		return err
	}

	sort.Slice(l.Exports, func(i, j int) bool {
		return l.Exports[i].Name < l.Exports[j].Name
	})

	l.ID = h.Sum(l.Canonical())
	return nil
}

// Verify checks that the ID of the library matches its content
func (l *Library) Verify(h Hasher) error {
	if expected := h.Sum(l.Canonical()); expected != l.ID {
		return fmt.Errorf("library ID %s does not match its content (%s digest is %s)", l.ID, h.Name(), expected)
	}

	return nil
}

// Validate checks the structural limits of the library
func (l *Library) Validate() error {
	if len(l.Code)%isa.WordSize != 0 {
		return fmt.Errorf("code segment length %d is not a multiple of %d", len(l.Code), isa.WordSize)
	}

	if len(l.Code) > MaxSegmentSize {
		return fmt.Errorf("code segment of %d bytes exceeds the limit of %d", len(l.Code), MaxSegmentSize)
	}

	if len(l.Data) > MaxSegmentSize {
		return fmt.Errorf("data segment of %d bytes exceeds the limit of %d", len(l.Data), MaxSegmentSize)
	}

	if len(l.Libs) > MaxCallTable {
		return fmt.Errorf("call table of %d entries exceeds the limit of %d", len(l.Libs), MaxCallTable)
	}

	if unknown := l.Extensions.Unknown(); unknown != 0 {
		return fmt.Errorf("unknown ISA extension bits %#x", uint16(unknown))
	}

	seen := make(map[string]bool, len(l.Exports))
	for _, e := range l.Exports {
		if seen[e.Name] {
			return fmt.Errorf("routine `%s` exported twice", e.Name)
		}
		seen[e.Name] = true

		if int(e.Offset) >= len(l.Code) || e.Offset%isa.WordSize != 0 {
			return fmt.Errorf("export `%s` points outside of the code segment", e.Name)
		}
	}

	if l.HasEntry && (int(l.Entry) >= len(l.Code) || l.Entry%isa.WordSize != 0) {
		return fmt.Errorf("entry point 0x%04x is outside of the code segment", l.Entry)
	}

	return nil
}

// Routine looks up the offset of an exported routine
func (l *Library) Routine(name string) (uint16, bool) {
	ndx := sort.Search(len(l.Exports), func(i int) bool {
		return l.Exports[i].Name >= name
	})

	if ndx < len(l.Exports) && l.Exports[ndx].Name == name {
		return l.Exports[ndx].Offset, true
	}

	return 0, false
}

// Disassemble renders the code segment of the library one instruction per
// line.  Call operands name the call table slot they refer to.
func (l *Library) Disassemble() ([]string, error) {
	lines, err := isa.Disassemble(l.Code)
	if err != nil {
		return nil, err
	}

	labels := make(map[int][]string)
	for _, e := range l.Exports {
		labels[int(e.Offset)] = append(labels[int(e.Offset)], e.Name)
	}

	if l.HasEntry {
		labels[int(l.Entry)] = append(labels[int(l.Entry)], ".main")
	}

	var out []string
	for i, line := range lines {
		for _, name := range labels[i*isa.WordSize] {
			out = append(out, name+":")
		}
		out = append(out, "  "+line)
	}

	for i, id := range l.Libs {
		out = append(out, fmt.Sprintf("; lib%d = %s", i, id))
	}

	return out, nil
}
