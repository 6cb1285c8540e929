package generate

import (
	"fmt"

	"github.com/AreaLayer/aluasm/isa"
	"github.com/AreaLayer/aluasm/object"
	"github.com/AreaLayer/aluasm/sem"
)

// genInstr encodes one instruction in place.  Resolved operands are written
// into their field; pending ones get a zero placeholder and a relocation.
func (g *Generator) genInstr(instr *sem.Instr) error {
	t := instr.Template
	fields := make([]uint64, len(t.Slots))

	fail := func(format string, args ...interface{}) error {
		return &EncodingError{Offset: instr.Offset, Mnemonic: t.Mnemonic, Message: fmt.Sprintf(format, args...)}
	}

	if len(instr.Operands) != len(t.Slots) {
		return fail("expected %d operands, got %d", len(t.Slots), len(instr.Operands))
	}

	for i, op := range instr.Operands {
		reloc := object.Reloc{
			Offset: uint32(instr.Offset),
			Shift:  t.Shift(i),
			Width:  t.Slots[i].Width,
		}

		switch op.Kind {
		case sem.OpReg, sem.OpImm:
			fields[i] = op.Field
			continue
		case sem.OpLabel, sem.OpData:
			value, ok := op.Symbol.Value()
			if !ok || value < 0 {
				return fail("operand %d refers to unresolved symbol `%s`", i+1, op.Symbol.Name)
			}

			if op.Kind == sem.OpLabel {
				reloc.Kind = object.RelocLocal
			} else {
				reloc.Kind = object.RelocData
			}

			fields[i] = uint64(value)
			reloc.Target = op.Symbol.Name
			reloc.Addend = uint32(value)
		case sem.OpExtern:
			reloc.Kind = object.RelocImport
			reloc.Target = op.Symbol.Name
		case sem.OpLibCall:
			reloc.Kind = object.RelocLibCall
			reloc.Target = op.Lib.Alias + "." + op.Routine
			g.importLibRoutine(reloc.Target)
		default:
			return fail("operand %d has unknown kind %d", i+1, op.Kind)
		}

		g.mod.Relocs = append(g.mod.Relocs, reloc)
	}

	word, err := t.Encode(fields)
	if err != nil {
		return fail("%s", err)
	}

	isa.WriteWord(g.mod.Code, instr.Offset, word)
	return nil
}

// importLibRoutine records a library routine in the import table once
func (g *Generator) importLibRoutine(target string) {
	if g.libImports[target] {
		return
	}

	g.libImports[target] = true
	g.mod.Imports = append(g.mod.Imports, object.Import{Name: target, Kind: object.KindLibRoutine})
}
