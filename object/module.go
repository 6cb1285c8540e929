// Package object defines the object module: the relocatable output of
// assembling one source file, and its binary container format.
package object

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AreaLayer/aluasm/isa"
	"github.com/AreaLayer/aluasm/libs"
)

// SymbolKind is the kind of an exported or imported symbol
type SymbolKind uint8

// Enumeration of symbol kinds
const (
	// KindRoutine is a routine of an object module
	KindRoutine SymbolKind = iota

	// KindLibRoutine is a routine of a library, named `alias.routine`
	KindLibRoutine
)

func (k SymbolKind) String() string {
	switch k {
	case KindRoutine:
		return "routine"
	case KindLibRoutine:
		return "library routine"
	}

	return fmt.Sprintf("kind(%d)", uint8(k))
}

// RelocKind is the kind of a relocation
type RelocKind uint8

// Enumeration of relocation kinds
const (
	// RelocLocal is a resolved reference to a label of this module.  Its
	// field holds the module-relative offset (the addend) and is rebased when
	// modules are merged.
	RelocLocal RelocKind = iota

	// RelocLibCall is a pending call to `alias.routine`
	RelocLibCall

	// RelocData is a resolved reference into this module's data segment
	RelocData

	// RelocImport is a pending reference to a routine declared `.extern`
	RelocImport
)

func (k RelocKind) String() string {
	switch k {
	case RelocLocal:
		return "local-offset"
	case RelocLibCall:
		return "library-call"
	case RelocData:
		return "data-address"
	case RelocImport:
		return "import"
	}

	return fmt.Sprintf("reloc(%d)", uint8(k))
}

// Pending tells whether the relocation refers outside of its module
func (k RelocKind) Pending() bool {
	return k == RelocLibCall || k == RelocImport
}

// Reloc is a reference to patch in the code segment
type Reloc struct {
	// Offset is the byte offset of the instruction word
	Offset uint32

	// Shift and Width locate the operand field inside the word
	Shift, Width uint8

	Kind RelocKind

	// Target names the referenced symbol
	Target string

	// Addend is the module-relative offset of local and data references
	Addend uint32
}

func (r Reloc) String() string {
	return fmt.Sprintf("0x%04x[%d:%d] %s %s+%d", r.Offset, r.Shift, r.Shift+r.Width, r.Kind, r.Target, r.Addend)
}

// Export is a symbol the module makes visible to the modules it is merged
// with and to callers of the library it ends up in
type Export struct {
	Name   string
	Kind   SymbolKind
	Offset uint32
}

// Import is a symbol the module expects from elsewhere
type Import struct {
	Name string
	Kind SymbolKind
}

// LibRef is a library alias of the module, optionally pinned to an ID
type LibRef struct {
	Alias  string
	ID     libs.ID
	Pinned bool
}

// Module is an assembled, relocatable unit.  Modules are never modified
// after they are produced.
type Module struct {
	Name       string
	Extensions isa.Set

	Code []byte
	Data []byte

	Exports []Export
	Imports []Import

	// Relocs are ordered by offset and then by shift
	Relocs []Reloc

	Libs []LibRef

	Entry    uint32
	HasEntry bool
}

// Export looks up an export by name
func (m *Module) Export(name string) (Export, bool) {
	for _, e := range m.Exports {
		if e.Name == name {
			return e, true
		}
	}

	return Export{}, false
}

// Lib looks up a library alias
func (m *Module) Lib(alias string) (LibRef, bool) {
	for _, l := range m.Libs {
		if l.Alias == alias {
			return l, true
		}
	}

	return LibRef{}, false
}

// SplitLibTarget splits the target of a library call relocation into its
// alias and routine name
func SplitLibTarget(target string) (alias, routine string, ok bool) {
	return strings.Cut(target, ".")
}

// SortRelocs orders relocations by offset and then by shift
func SortRelocs(relocs []Reloc) {
	sort.SliceStable(relocs, func(i, j int) bool {
		if relocs[i].Offset != relocs[j].Offset {
			return relocs[i].Offset < relocs[j].Offset
		}
		return relocs[i].Shift < relocs[j].Shift
	})
}

// Validate checks the internal consistency of the module
func (m *Module) Validate() error {
	if len(m.Code)%isa.WordSize != 0 {
		return fmt.Errorf("code segment length %d is not a multiple of %d", len(m.Code), isa.WordSize)
	}

	if len(m.Code) > libs.MaxSegmentSize || len(m.Data) > libs.MaxSegmentSize {
		return fmt.Errorf("segment exceeds the limit of %d bytes", libs.MaxSegmentSize)
	}

	if unknown := m.Extensions.Unknown(); unknown != 0 {
		return fmt.Errorf("unknown ISA extension bits %#x", uint16(unknown))
	}

	exports := make(map[string]bool)
	for _, e := range m.Exports {
		if exports[e.Name] {
			return fmt.Errorf("`%s` exported twice", e.Name)
		}
		exports[e.Name] = true

		if int(e.Offset) > len(m.Code) {
			return fmt.Errorf("export `%s` points outside of the code segment", e.Name)
		}
	}

	imports := make(map[string]bool)
	for _, imp := range m.Imports {
		imports[imp.Name] = true
	}

	aliases := make(map[string]bool)
	for _, l := range m.Libs {
		if aliases[l.Alias] {
			return fmt.Errorf("library alias `%s` declared twice", l.Alias)
		}
		aliases[l.Alias] = true
	}

	for i, r := range m.Relocs {
		if i > 0 {
			prev := m.Relocs[i-1]
			if prev.Offset > r.Offset || prev.Offset == r.Offset && prev.Shift >= r.Shift {
				return fmt.Errorf("relocation %s is out of order", r)
			}
		}

		if int(r.Offset)+isa.WordSize > len(m.Code) || r.Offset%isa.WordSize != 0 {
			return fmt.Errorf("relocation %s is outside of the code segment", r)
		}

		if r.Shift < isa.OpcodeWidth || int(r.Shift)+int(r.Width) > 64 || r.Width == 0 {
			return fmt.Errorf("relocation %s has an invalid field", r)
		}

		switch r.Kind {
		case RelocLocal:
			if int(r.Addend) > len(m.Code) {
				return fmt.Errorf("relocation %s points outside of the code segment", r)
			}
		case RelocData:
			if int(r.Addend) > len(m.Data) {
				return fmt.Errorf("relocation %s points outside of the data segment", r)
			}
		case RelocLibCall:
			alias, _, ok := SplitLibTarget(r.Target)
			if !ok || !aliases[alias] {
				return fmt.Errorf("relocation %s refers to an undeclared library", r)
			}
		case RelocImport:
			if !imports[r.Target] {
				return fmt.Errorf("relocation %s refers to an undeclared import", r)
			}
		default:
			return fmt.Errorf("relocation %s has an unknown kind", r)
		}
	}

	if m.HasEntry && int(m.Entry) >= len(m.Code) {
		return fmt.Errorf("entry point 0x%04x is outside of the code segment", m.Entry)
	}

	return nil
}
