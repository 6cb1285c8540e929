package sem

import (
	"github.com/AreaLayer/aluasm/isa"
	"github.com/AreaLayer/aluasm/libs"
	"github.com/AreaLayer/aluasm/logging"
)

// Program is an analyzed module: every instruction has its template and
// checked operands, every declaration has its symbol, and the data segment
// is laid out.
type Program struct {
	Name string

	// Extensions is the extension manifest of the module
	Extensions isa.Set

	Symbols *SymbolTable

	// Libs are the library aliases in declaration order
	Libs []*LibRef

	// Data is the data segment in declaration order
	Data []byte

	Instrs []*Instr

	// Entry is the symbol of the `.main` routine, if any
	Entry *Symbol

	Warnings []*Warning
}

// CodeSize is the size in bytes of the module's code segment
func (p *Program) CodeSize() int {
	return len(p.Instrs) * isa.WordSize
}

// Lib finds a library alias
func (p *Program) Lib(alias string) (*LibRef, bool) {
	for _, lib := range p.Libs {
		if lib.Alias == alias {
			return lib, true
		}
	}
	return nil, false
}

// LibRef is a library alias declared with `.lib`
type LibRef struct {
	Alias string

	// ID is the content ID the alias is pinned to; only valid if Pinned
	ID     libs.ID
	Pinned bool

	Position *logging.TextPosition
	Used     bool
}

// Instr is an analyzed instruction
type Instr struct {
	Template *isa.Template

	// Offset is the byte offset of the instruction in the code segment
	Offset int

	Operands []*Operand
	Position *logging.TextPosition
}

// OperandKind is the resolved meaning of an operand
type OperandKind int

// Enumeration of operand kinds
const (
	OpReg     OperandKind = iota // register, Field holds the encoded reference
	OpImm                        // immediate or constant, Field holds the encoding
	OpLabel                      // local or exported label in this module
	OpExtern                     // routine imported with `.extern`
	OpData                       // data symbol
	OpLibCall                    // routine of a library
)

// Operand is an analyzed operand
type Operand struct {
	Kind OperandKind
	Slot isa.Slot

	// Field is the encoded field for registers and immediates
	Field uint64

	// Symbol is the referenced label, import or data symbol
	Symbol *Symbol

	// Lib and Routine name the target of library calls
	Lib     *LibRef
	Routine string

	Position *logging.TextPosition
}
