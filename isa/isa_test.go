package isa

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSet(t *testing.T) {
	s, err := ParseSet([]string{"alure", " BPDIGEST", ""})
	require.NoError(t, err)
	assert.True(t, s.Has(ExtALU))
	assert.True(t, s.Has(ExtALURE))
	assert.True(t, s.Has(ExtBPDIGEST))
	assert.False(t, s.Has(ExtED25519))
	assert.Equal(t, "ALU,ALURE,BPDIGEST", s.String())

	_, err = ParseSet([]string{"avx512"})
	assert.Error(t, err)
}

func TestSetContains(t *testing.T) {
	all := AllExtensions
	base := BaseSet
	assert.True(t, all.Contains(base))
	assert.False(t, base.Contains(all))
	assert.Equal(t, all&^base, base.Missing(all))
	assert.Equal(t, Set(0), base.Unknown())
	assert.Equal(t, Set(0x8000), Set(0x8001).Unknown())
}

func TestBanks(t *testing.T) {
	b, ok := LookupBank("a64")
	require.True(t, ok)
	assert.Equal(t, FamilyA, b.Family)
	assert.Equal(t, 32, b.Size)

	s, ok := LookupBank("s16")
	require.True(t, ok)
	assert.Equal(t, 16, s.Size)

	_, ok = LookupBank("x64")
	assert.False(t, ok)

	field := RegField(b, 31)
	got, index, ok := SplitRegField(field)
	require.True(t, ok)
	assert.Equal(t, "a64", got.Name)
	assert.Equal(t, 31, index)

	// index 16 is outside the string bank
	_, _, ok = SplitRegField(RegField(s, 16))
	assert.False(t, ok)
}

func TestImmediateBounds(t *testing.T) {
	u8 := imm(8, false)
	assert.True(t, u8.Fits(big.NewInt(255)))
	assert.False(t, u8.Fits(big.NewInt(256)))
	assert.False(t, u8.Fits(big.NewInt(-1)))

	i32 := imm(32, true)
	assert.True(t, i32.Fits(big.NewInt(-2147483648)))
	assert.True(t, i32.Fits(big.NewInt(2147483647)))
	assert.False(t, i32.Fits(big.NewInt(2147483648)))
	assert.False(t, i32.Fits(big.NewInt(-2147483649)))

	assert.Equal(t, uint64(0xFFFFFFFF), i32.ImmField(big.NewInt(-1)))
	assert.Equal(t, int64(-1), i32.ImmValue(0xFFFFFFFF))
	assert.Equal(t, int64(-2147483648), i32.ImmValue(i32.ImmField(big.NewInt(-2147483648))))
	assert.Equal(t, int64(200), u8.ImmValue(200))
}

func TestTemplateLayout(t *testing.T) {
	put, ok := Lookup("put")
	require.True(t, ok)
	assert.Equal(t, uint8(0x09), put.Opcode)
	assert.Equal(t, uint8(8), put.Shift(0))
	assert.Equal(t, uint8(18), put.Shift(1))

	call, ok := Lookup("call")
	require.True(t, ok)
	assert.Equal(t, SlotLibCall, call.Slots[0].Kind)

	for _, tpl := range Templates() {
		got, ok := ByOpcode(tpl.Opcode)
		require.True(t, ok)
		assert.Equal(t, tpl.Mnemonic, got.Mnemonic)
	}
}

func TestEncodeDecode(t *testing.T) {
	put, _ := Lookup("put")
	a64, _ := LookupBank("a64")

	word, err := put.Encode([]uint64{RegField(a64, 3), put.Slots[1].ImmField(big.NewInt(-5))})
	require.NoError(t, err)

	tpl, fields, err := Decode(word)
	require.NoError(t, err)
	assert.Equal(t, "put", tpl.Mnemonic)
	assert.Equal(t, "put a64[3], -5", Format(tpl, fields))

	_, err = put.Encode([]uint64{RegField(a64, 3)})
	assert.Error(t, err)

	_, err = put.Encode([]uint64{1 << 10, 0})
	assert.Error(t, err)

	// stray bits above the last operand
	_, _, err = Decode(word | 1<<60)
	assert.Error(t, err)

	_, _, err = Decode(0x60)
	assert.Error(t, err)
}

func TestPutField(t *testing.T) {
	w, err := PutField(0x05, 8, 16, 0x1234)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x123405), w)
	assert.Equal(t, uint64(0x1234), GetField(w, 8, 16))

	_, err = PutField(0, 8, 16, 0x10000)
	assert.Error(t, err)
}

func TestDisassemble(t *testing.T) {
	code := make([]byte, 2*WordSize)
	jmp, _ := Lookup("jmp")
	w, err := jmp.Encode([]uint64{8})
	require.NoError(t, err)
	WriteWord(code, 0, w)
	WriteWord(code, 8, 0x07)

	lines, err := Disassemble(code)
	require.NoError(t, err)
	assert.Equal(t, []string{"0x0000: jmp 0x0008", "0x0008: ret"}, lines)

	_, err = Disassemble(code[:5])
	assert.Error(t, err)
}
