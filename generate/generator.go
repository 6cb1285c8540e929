package generate

import (
	"fmt"

	"github.com/AreaLayer/aluasm/libs"
	"github.com/AreaLayer/aluasm/object"
	"github.com/AreaLayer/aluasm/sem"
)

// EncodingError is raised when an analyzed instruction cannot be encoded.
// Encoding stops at the first such error.
type EncodingError struct {
	Offset   int
	Mnemonic string
	Message  string
}

func (e *EncodingError) Error() string {
	if e.Mnemonic == "" {
		return e.Message
	}

	return fmt.Sprintf("0x%04x: `%s`: %s", e.Offset, e.Mnemonic, e.Message)
}

// Generator is responsible for converting an analyzed program into an object
// module.  Generators share no state so any number of them can run
// concurrently.
type Generator struct {
	prog *sem.Program
	mod  *object.Module

	// libImports records which library routines were already imported
	libImports map[string]bool
}

// NewGenerator creates a new generator for an analyzed program
func NewGenerator(prog *sem.Program) *Generator {
	return &Generator{
		prog:       prog,
		libImports: make(map[string]bool),
		mod: &object.Module{
			Name:       prog.Name,
			Extensions: prog.Extensions,
		},
	}
}

// Generate encodes an analyzed program into an object module
func Generate(prog *sem.Program) (*object.Module, error) {
	return NewGenerator(prog).Generate()
}

// Generate encodes every instruction and builds the symbol and relocation
// tables of the module
func (g *Generator) Generate() (*object.Module, error) {
	if size := g.prog.CodeSize(); size > libs.MaxSegmentSize {
		return nil, &EncodingError{Message: fmt.Sprintf("code segment of %d bytes exceeds the limit of %d", size, libs.MaxSegmentSize)}
	}

	if len(g.prog.Data) > libs.MaxSegmentSize {
		return nil, &EncodingError{Message: fmt.Sprintf("data segment of %d bytes exceeds the limit of %d", len(g.prog.Data), libs.MaxSegmentSize)}
	}

	g.genHeader()

	g.mod.Code = make([]byte, g.prog.CodeSize())
	for _, instr := range g.prog.Instrs {
		if err := g.genInstr(instr); err != nil {
			return nil, err
		}
	}

	object.SortRelocs(g.mod.Relocs)

	if err := g.mod.Validate(); err != nil {
		return nil, &EncodingError{Message: fmt.Sprintf("produced an inconsistent module: %s", err)}
	}

	return g.mod, nil
}

// genHeader fills in the data segment, the symbol tables and the library
// aliases of the module
func (g *Generator) genHeader() {
	if len(g.prog.Data) > 0 {
		g.mod.Data = append([]byte(nil), g.prog.Data...)
	}

	for _, sym := range g.prog.Symbols.Sorted(sem.ExportedLabel) {
		offset, _ := sym.Value()
		g.mod.Exports = append(g.mod.Exports, object.Export{
			Name:   sym.Name,
			Kind:   object.KindRoutine,
			Offset: uint32(offset),
		})
	}

	for _, sym := range g.prog.Symbols.OfKind(sem.ImportedExternal) {
		g.mod.Imports = append(g.mod.Imports, object.Import{Name: sym.Name, Kind: object.KindRoutine})
	}

	for _, lib := range g.prog.Libs {
		g.mod.Libs = append(g.mod.Libs, object.LibRef{Alias: lib.Alias, ID: lib.ID, Pinned: lib.Pinned})
	}

	if g.prog.Entry != nil {
		offset, _ := g.prog.Entry.Value()
		g.mod.Entry, g.mod.HasEntry = uint32(offset), true
	}
}
