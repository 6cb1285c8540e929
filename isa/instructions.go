package isa

import (
	"fmt"
	"math/big"
)

// SlotKind is the kind of operand an instruction slot accepts
type SlotKind uint8

// Enumeration of slot kinds
const (
	SlotReg     SlotKind = iota // register reference
	SlotImm                     // immediate integer
	SlotCode                    // code offset (label)
	SlotData                    // data segment offset
	SlotLibCall                 // call table slot + routine offset
)

func (k SlotKind) String() string {
	switch k {
	case SlotReg:
		return "register"
	case SlotImm:
		return "immediate"
	case SlotCode:
		return "code label"
	case SlotData:
		return "data reference"
	case SlotLibCall:
		return "library call"
	}

	return "unknown slot"
}

// Field widths of the non-register slots
const (
	CodeFieldWidth    = 16
	DataFieldWidth    = 16
	LibCallFieldWidth = 24

	// LibCallSlotShift is the position of the call table slot inside a
	// library call field; the routine offset occupies the bits below it
	LibCallSlotShift = 16
)

// Slot describes one operand of an instruction
type Slot struct {
	Kind SlotKind

	// Families restricts register slots to banks of the given families
	Families Family

	// Banks, if not empty, restricts register slots to the named banks
	Banks []string

	// SameAs is the index of an earlier register slot whose bank this slot
	// must match, or -1
	SameAs int

	// Width is the width of the encoded field in bits
	Width uint8

	// Signed marks immediate slots holding two's complement values
	Signed bool

	// AllowExtern lets a code slot refer to an imported routine
	AllowExtern bool
}

// AcceptsBank reports whether a register slot accepts the bank (ignoring any
// same-bank constraint)
func (s Slot) AcceptsBank(b Bank) bool {
	if len(s.Banks) > 0 {
		for _, name := range s.Banks {
			if name == b.Name {
				return true
			}
		}

		return false
	}

	return s.Families&b.Family != 0
}

// Describe returns a short description of what the slot accepts
func (s Slot) Describe() string {
	switch s.Kind {
	case SlotReg:
		if len(s.Banks) > 0 {
			return fmt.Sprintf("register in bank %v", s.Banks)
		}
		if s.Families == AnyFamily {
			return "register"
		}
		return s.Families.String() + " register"
	case SlotImm:
		if s.Signed {
			return fmt.Sprintf("signed %d-bit immediate", s.Width)
		}
		return fmt.Sprintf("unsigned %d-bit immediate", s.Width)
	case SlotCode:
		if s.AllowExtern {
			return "routine label"
		}
		return "code label"
	}

	return s.Kind.String()
}

// Bounds returns the inclusive range of values an immediate slot accepts
func (s Slot) Bounds() (min, max *big.Int) {
	one := big.NewInt(1)
	if s.Signed {
		max = new(big.Int).Lsh(one, uint(s.Width-1))
		min = new(big.Int).Neg(max)
		max.Sub(max, one)
		return
	}

	min = new(big.Int)
	max = new(big.Int).Lsh(one, uint(s.Width))
	max.Sub(max, one)
	return
}

// Fits reports whether an immediate value fits the slot
func (s Slot) Fits(v *big.Int) bool {
	min, max := s.Bounds()
	return v.Cmp(min) >= 0 && v.Cmp(max) <= 0
}

// ImmField converts an immediate that fits the slot into its field encoding
func (s Slot) ImmField(v *big.Int) uint64 {
	mask := new(big.Int).Lsh(big.NewInt(1), uint(s.Width))
	mask.Sub(mask, big.NewInt(1))

	// big.Int.And uses two's complement semantics for negative values
	return new(big.Int).And(v, mask).Uint64()
}

// ImmValue decodes an immediate field of the slot
func (s Slot) ImmValue(field uint64) int64 {
	if s.Signed && s.Width < 64 && field&(1<<(s.Width-1)) != 0 {
		return int64(field) - int64(1)<<s.Width
	}

	return int64(field)
}

// Template is the encoding template of one mnemonic.  Templates are shared,
// immutable data and must not be modified by callers.
type Template struct {
	Mnemonic string
	Opcode   uint8
	Ext      Extension
	Slots    []Slot

	shifts []uint8
}

// Shift returns the bit position of the nth operand field
func (t *Template) Shift(n int) uint8 {
	return t.shifts[n]
}

func reg(f Family) Slot {
	return Slot{Kind: SlotReg, Families: f, SameAs: -1, Width: RegFieldWidth}
}

func regIn(banks ...string) Slot {
	return Slot{Kind: SlotReg, Banks: banks, SameAs: -1, Width: RegFieldWidth}
}

func sameReg(f Family, n int) Slot {
	return Slot{Kind: SlotReg, Families: f, SameAs: n, Width: RegFieldWidth}
}

func imm(width uint8, signed bool) Slot {
	return Slot{Kind: SlotImm, SameAs: -1, Width: width, Signed: signed}
}

func code(allowExtern bool) Slot {
	return Slot{Kind: SlotCode, SameAs: -1, Width: CodeFieldWidth, AllowExtern: allowExtern}
}

func data() Slot {
	return Slot{Kind: SlotData, SameAs: -1, Width: DataFieldWidth}
}

func libCall() Slot {
	return Slot{Kind: SlotLibCall, SameAs: -1, Width: LibCallFieldWidth}
}

func op(mnemonic string, opcode uint8, ext Extension, slots ...Slot) *Template {
	return &Template{Mnemonic: mnemonic, Opcode: opcode, Ext: ext, Slots: slots}
}

var templates = []*Template{
	// control flow
	op("fail", 0x00, ExtALU),
	op("succ", 0x01, ExtALU),
	op("jmp", 0x02, ExtALU, code(false)),
	op("jif", 0x03, ExtALU, code(false)),
	op("routine", 0x04, ExtALU, code(true)),
	op("call", 0x05, ExtALU, libCall()),
	op("exec", 0x06, ExtALU, libCall()),
	op("ret", 0x07, ExtALU),

	// put and move
	op("clr", 0x08, ExtALU, reg(AnyFamily)),
	op("put", 0x09, ExtALU, reg(FamilyA|FamilyF), imm(32, true)),
	op("putd", 0x0A, ExtALU, reg(FamilyA|FamilyR), data()),
	op("mov", 0x0B, ExtALU, reg(AnyFamily), sameReg(AnyFamily, 0)),
	op("swp", 0x0C, ExtALU, reg(AnyFamily), sameReg(AnyFamily, 0)),
	op("dup", 0x0D, ExtALU, reg(AnyFamily), sameReg(AnyFamily, 0)),
	op("cnv", 0x0E, ExtALU, reg(FamilyA|FamilyF), reg(FamilyA|FamilyF)),

	// comparison
	op("gt", 0x10, ExtALU, reg(FamilyA), sameReg(FamilyA, 0)),
	op("lt", 0x11, ExtALU, reg(FamilyA), sameReg(FamilyA, 0)),
	op("eq", 0x12, ExtALU, reg(AnyFamily), sameReg(AnyFamily, 0)),
	op("ifz", 0x13, ExtALU, reg(AnyFamily)),
	op("ifn", 0x14, ExtALU, reg(AnyFamily)),

	// integer arithmetic
	op("add", 0x18, ExtALU, reg(FamilyA), sameReg(FamilyA, 0)),
	op("sub", 0x19, ExtALU, reg(FamilyA), sameReg(FamilyA, 0)),
	op("mul", 0x1A, ExtALU, reg(FamilyA), sameReg(FamilyA, 0)),
	op("div", 0x1B, ExtALU, reg(FamilyA), sameReg(FamilyA, 0)),
	op("rem", 0x1C, ExtALU, reg(FamilyA), sameReg(FamilyA, 0)),
	op("inc", 0x1D, ExtALU, reg(FamilyA), imm(8, false)),
	op("dec", 0x1E, ExtALU, reg(FamilyA), imm(8, false)),
	op("neg", 0x1F, ExtALU, reg(FamilyA|FamilyF)),
	op("abs", 0x20, ExtALU, reg(FamilyA|FamilyF)),

	// bitwise
	op("and", 0x24, ExtALU, reg(FamilyA|FamilyR), sameReg(FamilyA|FamilyR, 0)),
	op("or", 0x25, ExtALU, reg(FamilyA|FamilyR), sameReg(FamilyA|FamilyR, 0)),
	op("xor", 0x26, ExtALU, reg(FamilyA|FamilyR), sameReg(FamilyA|FamilyR, 0)),
	op("not", 0x27, ExtALU, reg(FamilyA|FamilyR)),
	op("shl", 0x28, ExtALU, reg(FamilyA|FamilyR), imm(8, false)),
	op("shr", 0x29, ExtALU, reg(FamilyA|FamilyR), imm(8, false)),
	op("scl", 0x2A, ExtALU, reg(FamilyA|FamilyR), imm(8, false)),
	op("scr", 0x2B, ExtALU, reg(FamilyA|FamilyR), imm(8, false)),

	// float arithmetic
	op("addf", 0x30, ExtALURE, reg(FamilyF), sameReg(FamilyF, 0)),
	op("subf", 0x31, ExtALURE, reg(FamilyF), sameReg(FamilyF, 0)),
	op("mulf", 0x32, ExtALURE, reg(FamilyF), sameReg(FamilyF, 0)),
	op("divf", 0x33, ExtALURE, reg(FamilyF), sameReg(FamilyF, 0)),

	// byte strings
	op("puts", 0x38, ExtALU, reg(FamilyS), data()),
	op("len", 0x39, ExtALU, reg(FamilyA), reg(FamilyS)),
	op("con", 0x3A, ExtALU, reg(FamilyS), reg(FamilyS)),

	// digests
	op("sha256", 0x40, ExtBPDIGEST, reg(FamilyS), regIn("r256")),
	op("ripemd", 0x41, ExtBPDIGEST, reg(FamilyS), regIn("r160")),
	op("sha512", 0x42, ExtBPDIGEST, reg(FamilyS), regIn("r512")),

	// secp256k1
	op("secpgen", 0x48, ExtSECP256K1, regIn("r256"), regIn("r512")),
	op("secpmul", 0x49, ExtSECP256K1, regIn("r512"), regIn("r512")),
	op("secpadd", 0x4A, ExtSECP256K1, regIn("r512"), regIn("r512")),
	op("secpneg", 0x4B, ExtSECP256K1, regIn("r512")),

	// curve25519
	op("edgen", 0x50, ExtED25519, regIn("r256"), regIn("r512")),
	op("edmul", 0x51, ExtED25519, regIn("r512"), regIn("r512")),
	op("edadd", 0x52, ExtED25519, regIn("r512"), regIn("r512")),
	op("edneg", 0x53, ExtED25519, regIn("r512")),

	op("nop", 0xFF, ExtALU),
}

var (
	byMnemonic = make(map[string]*Template, len(templates))
	byOpcode   [256]*Template
)

func init() {
	for _, t := range templates {
		shift := uint8(OpcodeWidth)
		for _, s := range t.Slots {
			t.shifts = append(t.shifts, shift)
			shift += s.Width
		}

		if shift > 64 {
			panic("isa: operands of `" + t.Mnemonic + "` overflow the instruction word")
		}

		if byOpcode[t.Opcode] != nil {
			panic("isa: duplicate opcode for `" + t.Mnemonic + "`")
		}

		byMnemonic[t.Mnemonic] = t
		byOpcode[t.Opcode] = t
	}
}

// Lookup finds the template of a mnemonic
func Lookup(mnemonic string) (*Template, bool) {
	t, ok := byMnemonic[mnemonic]
	return t, ok
}

// ByOpcode finds the template of an opcode
func ByOpcode(opcode uint8) (*Template, bool) {
	t := byOpcode[opcode]
	return t, t != nil
}

// Templates lists every template in opcode order
func Templates() []*Template {
	var ts []*Template
	for _, t := range byOpcode {
		if t != nil {
			ts = append(ts, t)
		}
	}
	return ts
}
