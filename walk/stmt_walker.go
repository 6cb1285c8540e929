package walk

import (
	"github.com/AreaLayer/aluasm/ast"
	"github.com/AreaLayer/aluasm/isa"
	"github.com/AreaLayer/aluasm/sem"
)

// walkRoutines is the second pass: it checks every instruction against its
// template and resolves its operands
func (w *Walker) walkRoutines(p *ast.Program) {
	offset := 0
	for _, r := range p.Routines {
		for _, stmt := range r.Body {
			if instr, ok := stmt.(*ast.Instruction); ok {
				if si, ok := w.walkInstruction(instr, offset); ok {
					w.prog.Instrs = append(w.prog.Instrs, si)
				}

				offset += isa.WordSize
			}
		}
	}
}

// walkInstruction checks a single instruction
func (w *Walker) walkInstruction(instr *ast.Instruction, offset int) (*sem.Instr, bool) {
	mnemonic := instr.Mnemonic.Name

	t, ok := isa.Lookup(mnemonic)
	if !ok {
		w.logError(sem.ErrUnknownMnemonic, instr.Mnemonic.Pos, "unknown instruction `%s`", mnemonic)
		return nil, false
	}

	ok = true
	if !w.prog.Extensions.Has(t.Ext) {
		w.logError(sem.ErrIsa, instr.Mnemonic.Pos, "`%s` requires ISA extension `%s` which is not declared with `.isae`", mnemonic, t.Ext)
		ok = false
	} else {
		w.isaeUsed[t.Ext] = true
	}

	if len(instr.Operands) != len(t.Slots) {
		w.logError(sem.ErrOperandCount, instr.Pos, "`%s` takes %d operand(s) but %d were given", mnemonic, len(t.Slots), len(instr.Operands))
		return nil, false
	}

	si := &sem.Instr{Template: t, Offset: offset, Position: instr.Pos}
	banks := make([]string, len(t.Slots))
	for i, op := range instr.Operands {
		sop, opOk := w.walkOperand(t, i, op, banks)
		if !opOk {
			ok = false
			continue
		}

		si.Operands = append(si.Operands, sop)
	}

	return si, ok
}
