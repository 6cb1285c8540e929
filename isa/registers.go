package isa

// Family groups register banks by the kind of value they hold
type Family uint8

// Enumeration of register families
const (
	FamilyA Family = 1 << iota // integer arithmetic registers
	FamilyF                    // float arithmetic registers
	FamilyR                    // raw (non-arithmetic) registers
	FamilyS                    // byte string registers
)

// AnyFamily matches every register
const AnyFamily = FamilyA | FamilyF | FamilyR | FamilyS

func (f Family) String() string {
	switch f {
	case FamilyA:
		return "A"
	case FamilyF:
		return "F"
	case FamilyR:
		return "R"
	case FamilyS:
		return "S"
	}

	s := ""
	for _, single := range []Family{FamilyA, FamilyF, FamilyR, FamilyS} {
		if f&single != 0 {
			if s != "" {
				s += "/"
			}
			s += single.String()
		}
	}
	return s
}

// Bank is a named bank of registers
type Bank struct {
	Name   string
	Code   uint8
	Family Family
	Size   int
}

// RegFieldWidth is the width of an encoded register reference
const RegFieldWidth = 10

const (
	bankBits  = 5
	indexMask = 1<<bankBits - 1
)

var banks = []Bank{
	{"a8", 0, FamilyA, 32},
	{"a16", 1, FamilyA, 32},
	{"a32", 2, FamilyA, 32},
	{"a64", 3, FamilyA, 32},
	{"a128", 4, FamilyA, 32},
	{"a256", 5, FamilyA, 32},
	{"a512", 6, FamilyA, 32},
	{"a1024", 7, FamilyA, 32},
	{"f16b", 8, FamilyF, 32},
	{"f16", 9, FamilyF, 32},
	{"f32", 10, FamilyF, 32},
	{"f64", 11, FamilyF, 32},
	{"f80", 12, FamilyF, 32},
	{"f128", 13, FamilyF, 32},
	{"f256", 14, FamilyF, 32},
	{"f512", 15, FamilyF, 32},
	{"r128", 16, FamilyR, 32},
	{"r160", 17, FamilyR, 32},
	{"r256", 18, FamilyR, 32},
	{"r512", 19, FamilyR, 32},
	{"r1024", 20, FamilyR, 32},
	{"r2048", 21, FamilyR, 32},
	{"r4096", 22, FamilyR, 32},
	{"r8192", 23, FamilyR, 32},
	{"s16", 24, FamilyS, 16},
}

var banksByName = func() map[string]*Bank {
	m := make(map[string]*Bank, len(banks))
	for i := range banks {
		m[banks[i].Name] = &banks[i]
	}
	return m
}()

// LookupBank finds a register bank by name
func LookupBank(name string) (Bank, bool) {
	if b, ok := banksByName[name]; ok {
		return *b, true
	}

	return Bank{}, false
}

// BankByCode finds a register bank by its encoded code
func BankByCode(code uint8) (Bank, bool) {
	for _, b := range banks {
		if b.Code == code {
			return b, true
		}
	}

	return Bank{}, false
}

// RegField encodes a register reference.  The index must already be checked
// against the bank size.
func RegField(b Bank, index int) uint64 {
	return uint64(b.Code)<<bankBits | uint64(index)
}

// SplitRegField decodes a register reference
func SplitRegField(field uint64) (Bank, int, bool) {
	b, ok := BankByCode(uint8(field >> bankBits))
	if !ok {
		return Bank{}, 0, false
	}

	index := int(field & indexMask)
	if index >= b.Size {
		return Bank{}, 0, false
	}

	return b, index, true
}
