package ast

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/AreaLayer/aluasm/logging"
	"github.com/AreaLayer/aluasm/syntax"
)

// builder converts a parse tree into a Program
type builder struct {
	prog    *Program
	routine *Routine
	errors  syntax.ErrorList
}

// Build converts the parse tree of a source file into its typed tree.
// Statements that appear before the first routine are reported.
func Build(tree *syntax.ASTBranch) (*Program, syntax.ErrorList) {
	b := &builder{prog: &Program{}}

	for _, line := range tree.Branches() {
		b.buildLine(line)
	}

	return b.prog, b.errors
}

// Parse parses and builds a source file in one step
func Parse(src []byte) (*Program, syntax.ErrorList) {
	tree, errs := syntax.Parse(src)
	if tree == nil {
		return nil, errs
	}

	prog, buildErrs := Build(tree)

	errs = append(errs, buildErrs...)
	errs.Sort()
	return prog, errs
}

func (b *builder) errorf(pos *logging.TextPosition, format string, args ...interface{}) {
	b.errors = append(b.errors, &syntax.ParseError{
		Line:    pos.StartLn,
		Col:     pos.StartCol,
		Len:     pos.EndCol - pos.StartCol,
		Message: fmt.Sprintf(format, args...),
	})
}

func (b *builder) buildLine(line *syntax.ASTBranch) {
	var label *LabelDef
	for _, item := range line.Branches() {
		switch item.Name {
		case "label":
			label = &LabelDef{Name: identOf(item.LeafAt(0))}
		case "statement":
			stmt := item.BranchAt(0)
			if stmt.Name == "directive" {
				b.buildDirective(stmt.BranchAt(0), label)
			} else {
				b.addLabel(label)
				b.addStmt(b.buildInstruction(stmt))
			}

			// the label has been placed
			label = nil
		}
	}

	b.addLabel(label)
}

func (b *builder) addLabel(label *LabelDef) {
	if label != nil {
		b.addStmt(label)
	}
}

// addStmt appends a statement to the current routine
func (b *builder) addStmt(stmt Stmt) {
	if b.routine == nil {
		if l, ok := stmt.(*LabelDef); ok {
			b.errorf(l.Position(), "label `%s` must be inside a routine", l.Name.Name)
		} else {
			b.errorf(stmt.Position(), "instruction must be inside a routine")
		}
		return
	}

	b.routine.Body = append(b.routine.Body, stmt)
}

func (b *builder) buildDirective(dir *syntax.ASTBranch, label *LabelDef) {
	leaves := dir.Leaves()
	pos := dir.Position()

	switch dir.Name {
	case "routine_dir":
		b.openRoutine(&Routine{Name: identOf(leaves[1]), Pos: pos})
		b.addLabel(label)
		return
	case "main_dir":
		b.openRoutine(&Routine{Name: &Ident{Name: "main", Pos: pos}, Main: true, Pos: pos})
		b.addLabel(label)
		return
	}

	// a label on a declaration line marks the next instruction
	b.addLabel(label)

	d := &Directive{Pos: pos}
	switch dir.Name {
	case "isae_dir":
		d.Kind = DirIsae
		d.Names = identsOf(leaves[1:])
	case "extern_dir":
		d.Kind = DirExtern
		d.Names = identsOf(leaves[1:])
	case "lib_dir":
		d.Kind = DirLib
		d.Names = identsOf(leaves[1:2])
		if len(leaves) > 2 {
			d.LibID = stringOf(leaves[2])
		}
	case "const_dir":
		d.Kind = DirConst
		d.Names = identsOf(leaves[1:2])
		d.Values = []DataValue{b.buildImmediate(dir.LastBranch())}
	case "data_dir":
		d.Kind = DirData
		d.Names = identsOf(leaves[1:2])
		d.Type = identOf(leaves[2])
		for _, value := range dir.Branches() {
			switch v := value.Content[0].(type) {
			case *syntax.ASTBranch:
				d.Values = append(d.Values, b.buildImmediate(v))
			case *syntax.ASTLeaf:
				d.Values = append(d.Values, stringOf(v))
			}
		}
	default:
		b.errorf(pos, "unsupported directive `%s`", dir.Name)
		return
	}

	b.prog.Directives = append(b.prog.Directives, d)
}

func (b *builder) openRoutine(r *Routine) {
	b.prog.Routines = append(b.prog.Routines, r)
	b.routine = r
}

func (b *builder) buildInstruction(instr *syntax.ASTBranch) *Instruction {
	in := &Instruction{Mnemonic: identOf(instr.LeafAt(0)), Pos: instr.Position()}

	for _, opBranch := range instr.Branches() {
		if op := b.buildOperand(opBranch.BranchAt(0)); op != nil {
			in.Operands = append(in.Operands, op)
		}
	}

	return in
}

func (b *builder) buildOperand(op *syntax.ASTBranch) Operand {
	switch op.Name {
	case "register":
		bank, index := op.LeafAt(0), op.LeafAt(2)
		reg := &Register{Bank: bank.Value, Raw: index.Value, Index: -1, Pos: op.Position()}
		if v, ok := parseInt(index.Value); ok && v.IsInt64() && v.Int64() <= 1<<16 {
			reg.Index = int(v.Int64())
		}
		return reg
	case "data_ref":
		return &DataRef{Name: identOf(op.LeafAt(1)), Pos: op.Position()}
	case "lib_call":
		return &LibCall{Lib: identOf(op.LeafAt(0)), Routine: identOf(op.LeafAt(2)), Pos: op.Position()}
	case "immediate":
		return b.buildImmediate(op)
	case "label_ref":
		return &LabelRef{Name: identOf(op.LeafAt(0))}
	}

	b.errorf(op.Position(), "unsupported operand `%s`", op.Name)
	return nil
}

func (b *builder) buildImmediate(imm *syntax.ASTBranch) *Immediate {
	leaves := imm.Leaves()
	lit := leaves[len(leaves)-1]

	var value *big.Int
	switch lit.Kind {
	case syntax.RUNELIT:
		// the scanner only accepts literals holding a single rune
		s, _ := strconv.Unquote(lit.Value)
		value = big.NewInt(int64([]rune(s)[0]))
	default:
		var ok bool
		if value, ok = parseInt(lit.Value); !ok {
			b.errorf(lit.Position(), "malformed integer literal: `%s`", lit.Value)
			value = new(big.Int)
		}
	}

	if leaves[0].Kind == syntax.MINUS {
		value.Neg(value)
	}

	return &Immediate{Value: value, Pos: imm.Position()}
}

// parseInt parses an integer literal with an optional 0x, 0o or 0b prefix and
// underscore separators.  Literals without a prefix are always decimal.
func parseInt(lit string) (*big.Int, bool) {
	digits := strings.ReplaceAll(lit, "_", "")

	base := 10
	if len(digits) > 2 && digits[0] == '0' {
		switch digits[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}

		if base != 10 {
			digits = digits[2:]
		}
	}

	return new(big.Int).SetString(digits, base)
}

func identOf(leaf *syntax.ASTLeaf) *Ident {
	return &Ident{Name: leaf.Value, Pos: leaf.Position()}
}

func identsOf(leaves []*syntax.ASTLeaf) []*Ident {
	var idents []*Ident
	for _, leaf := range leaves {
		if leaf.Kind == syntax.IDENTIFIER {
			idents = append(idents, identOf(leaf))
		}
	}
	return idents
}

func stringOf(leaf *syntax.ASTLeaf) *StringLit {
	// the scanner has already checked the literal
	s, _ := strconv.Unquote(leaf.Value)
	return &StringLit{Value: s, Pos: leaf.Position()}
}
