package walk

import (
	"math/big"

	"github.com/AreaLayer/aluasm/ast"
	"github.com/AreaLayer/aluasm/isa"
	"github.com/AreaLayer/aluasm/sem"
)

// walkOperand checks the ndx-th operand of an instruction against its slot.
// banks collects the register banks of the operands walked so far.
func (w *Walker) walkOperand(t *isa.Template, ndx int, op ast.Operand, banks []string) (*sem.Operand, bool) {
	slot := t.Slots[ndx]
	sop := &sem.Operand{Slot: slot, Position: op.Position()}

	var ok bool
	switch slot.Kind {
	case isa.SlotReg:
		ok = w.walkRegister(t, ndx, op, banks, sop)
	case isa.SlotImm:
		ok = w.walkImmediate(t, ndx, op, sop)
	case isa.SlotCode:
		ok = w.walkCodeRef(t, ndx, op, sop)
	case isa.SlotData:
		ok = w.walkDataRef(t, ndx, op, sop)
	case isa.SlotLibCall:
		ok = w.walkLibCall(t, ndx, op, sop)
	}

	return sop, ok
}

// logOperandKind reports an operand of the wrong shape
func (w *Walker) logOperandKind(t *isa.Template, ndx int, op ast.Operand) {
	w.logError(sem.ErrOperandKind, op.Position(), "operand %d of `%s` must be a %s", ndx+1, t.Mnemonic, t.Slots[ndx].Describe())
}

func (w *Walker) walkRegister(t *isa.Template, ndx int, op ast.Operand, banks []string, sop *sem.Operand) bool {
	reg, ok := op.(*ast.Register)
	if !ok {
		w.logOperandKind(t, ndx, op)
		return false
	}

	slot := t.Slots[ndx]

	bank, ok := isa.LookupBank(reg.Bank)
	if !ok {
		w.logError(sem.ErrRegister, reg.Pos, "unknown register bank `%s`", reg.Bank)
		return false
	}

	if reg.Index < 0 || reg.Index >= bank.Size {
		w.logError(sem.ErrRegister, reg.Pos, "register index %s is outside of bank `%s` (0 to %d)", reg.Raw, bank.Name, bank.Size-1)
		return false
	}

	if !slot.AcceptsBank(bank) {
		w.logError(sem.ErrRegister, reg.Pos, "operand %d of `%s` must be a %s, not `%s`", ndx+1, t.Mnemonic, slot.Describe(), bank.Name)
		return false
	}

	banks[ndx] = bank.Name
	if slot.SameAs >= 0 && banks[slot.SameAs] != "" && banks[slot.SameAs] != bank.Name {
		w.logError(sem.ErrRegister, reg.Pos, "operand %d of `%s` must be in the same bank as operand %d (`%s`)", ndx+1, t.Mnemonic, slot.SameAs+1, banks[slot.SameAs])
		return false
	}

	sop.Kind = sem.OpReg
	sop.Field = isa.RegField(bank, reg.Index)
	return true
}

func (w *Walker) walkImmediate(t *isa.Template, ndx int, op ast.Operand, sop *sem.Operand) bool {
	var value *big.Int

	switch v := op.(type) {
	case *ast.Immediate:
		value = v.Value
	case *ast.LabelRef:
		sym, ok := w.lookup(sem.NSConst, v.Name.Name)
		if !ok {
			w.logUndefined(sem.NSConst, "constant", v.Name.Name, v.Name.Pos)
			return false
		}

		n, _ := sym.Value()
		value = big.NewInt(n)
	default:
		w.logOperandKind(t, ndx, op)
		return false
	}

	slot := t.Slots[ndx]
	if !slot.Fits(value) {
		min, max := slot.Bounds()
		w.logError(sem.ErrOutOfRange, op.Position(), "value %s does not fit operand %d of `%s` (%s to %s)", value, ndx+1, t.Mnemonic, min, max)
		return false
	}

	sop.Kind = sem.OpImm
	sop.Field = slot.ImmField(value)
	return true
}

func (w *Walker) walkCodeRef(t *isa.Template, ndx int, op ast.Operand, sop *sem.Operand) bool {
	ref, ok := op.(*ast.LabelRef)
	if !ok {
		w.logOperandKind(t, ndx, op)
		return false
	}

	name := ref.Name.Name
	sym, ok := w.lookup(sem.NSCode, name)
	if !ok {
		w.logUndefined(sem.NSCode, "label", name, ref.Name.Pos)
		return false
	}

	if sym.Kind == sem.ImportedExternal {
		if !t.Slots[ndx].AllowExtern {
			w.logError(sem.ErrKindMismatch, ref.Name.Pos, "imported routine `%s` can only be called with `routine`", name)
			return false
		}

		sop.Kind = sem.OpExtern
	} else {
		sop.Kind = sem.OpLabel
	}

	sop.Symbol = sym
	return true
}

func (w *Walker) walkDataRef(t *isa.Template, ndx int, op ast.Operand, sop *sem.Operand) bool {
	ref, ok := op.(*ast.DataRef)
	if !ok {
		w.logOperandKind(t, ndx, op)
		return false
	}

	sym, ok := w.lookup(sem.NSData, ref.Name.Name)
	if !ok {
		w.logUndefined(sem.NSData, "data symbol", ref.Name.Name, ref.Name.Pos)
		return false
	}

	sop.Kind = sem.OpData
	sop.Symbol = sym
	return true
}

func (w *Walker) walkLibCall(t *isa.Template, ndx int, op ast.Operand, sop *sem.Operand) bool {
	call, ok := op.(*ast.LibCall)
	if !ok {
		w.logOperandKind(t, ndx, op)
		return false
	}

	lib, ok := w.prog.Lib(call.Lib.Name)
	if !ok {
		w.logError(sem.ErrLibrary, call.Lib.Pos, "undefined library alias `%s`", call.Lib.Name)
		return false
	}

	lib.Used = true
	sop.Kind = sem.OpLibCall
	sop.Lib = lib
	sop.Routine = call.Routine.Name
	return true
}
