// Package ast defines the typed syntax tree of an assembly source file.
// Names are plain strings; they are resolved by the semantic analyzer
// through its symbol table.
package ast

import (
	"math/big"

	"github.com/AreaLayer/aluasm/logging"
)

// Node is any element of the tree
type Node interface {
	Position() *logging.TextPosition
}

// Ident is a name as written in the source
type Ident struct {
	Name string
	Pos  *logging.TextPosition
}

func (i *Ident) Position() *logging.TextPosition { return i.Pos }

// Program is the root of a source file: its header directives and its
// routines in source order
type Program struct {
	Directives []*Directive
	Routines   []*Routine
}

// DirectiveKind enumerates the declaration directives
type DirectiveKind int

const (
	DirIsae DirectiveKind = iota
	DirLib
	DirExtern
	DirConst
	DirData
)

func (k DirectiveKind) String() string {
	switch k {
	case DirIsae:
		return ".isae"
	case DirLib:
		return ".lib"
	case DirExtern:
		return ".extern"
	case DirConst:
		return ".const"
	case DirData:
		return ".data"
	}
	return "directive"
}

// Directive is a declaration.  Which fields are set depends on the kind:
//
//	.isae   Names (extension names)
//	.lib    Names[0] (alias), LibID (optional)
//	.extern Names (imported routines)
//	.const  Names[0], Values[0] (an *Immediate)
//	.data   Names[0], Type, Values
type Directive struct {
	Kind   DirectiveKind
	Names  []*Ident
	LibID  *StringLit
	Type   *Ident
	Values []DataValue
	Pos    *logging.TextPosition
}

func (d *Directive) Position() *logging.TextPosition { return d.Pos }

// DataValue is a value in a data or constant declaration
type DataValue interface {
	Node
	dataValue()
}

// StringLit is a string literal with its escapes processed
type StringLit struct {
	Value string
	Pos   *logging.TextPosition
}

func (s *StringLit) Position() *logging.TextPosition { return s.Pos }
func (*StringLit) dataValue()                        {}

// Routine is a named sequence of statements
type Routine struct {
	Name *Ident

	// Main marks the entry routine
	Main bool

	Body []Stmt
	Pos  *logging.TextPosition
}

func (r *Routine) Position() *logging.TextPosition { return r.Pos }

// Stmt is a statement inside a routine
type Stmt interface {
	Node
	stmt()
}

// LabelDef defines a local label at the position of the next instruction
type LabelDef struct {
	Name *Ident
}

func (l *LabelDef) Position() *logging.TextPosition { return l.Name.Pos }
func (*LabelDef) stmt()                             {}

// Instruction is a mnemonic and its operands
type Instruction struct {
	Mnemonic *Ident
	Operands []Operand
	Pos      *logging.TextPosition
}

func (i *Instruction) Position() *logging.TextPosition { return i.Pos }
func (*Instruction) stmt()                             {}

// Operand is an instruction operand
type Operand interface {
	Node
	operand()
}

// Register is a register reference such as `a64[3]`
type Register struct {
	Bank string

	// Index is -1 when the written index is too large to represent
	Index int

	// Raw is the index as written
	Raw string

	Pos *logging.TextPosition
}

// Immediate is an integer literal (a rune literal counts as its code point)
type Immediate struct {
	Value *big.Int
	Pos   *logging.TextPosition
}

// DataRef names a data symbol: `@name`
type DataRef struct {
	Name *Ident
	Pos  *logging.TextPosition
}

// LibCall names a routine of another library: `lib.routine`
type LibCall struct {
	Lib     *Ident
	Routine *Ident
	Pos     *logging.TextPosition
}

// LabelRef is a bare name.  It refers to a label in code slots and to a
// constant in immediate slots.
type LabelRef struct {
	Name *Ident
}

func (r *Register) Position() *logging.TextPosition  { return r.Pos }
func (i *Immediate) Position() *logging.TextPosition { return i.Pos }
func (d *DataRef) Position() *logging.TextPosition   { return d.Pos }
func (l *LibCall) Position() *logging.TextPosition   { return l.Pos }
func (l *LabelRef) Position() *logging.TextPosition  { return l.Name.Pos }

func (*Register) operand()  {}
func (*Immediate) operand() {}
func (*DataRef) operand()   {}
func (*LibCall) operand()   {}
func (*LabelRef) operand()  {}

func (*Immediate) dataValue() {}
