package walk

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AreaLayer/aluasm/ast"
	"github.com/AreaLayer/aluasm/isa"
	"github.com/AreaLayer/aluasm/libs"
	"github.com/AreaLayer/aluasm/sem"
)

var stdID = libs.DefaultCodec.Sum([]byte("std"))

var sampleSrc = fmt.Sprintf(`.isae alu
.lib std "%s"
.extern helper
.const LIMIT = 0x10
.data greeting str "hi", "!"
.data table u16 1, 2, 'a'

.routine compute
loop:
	put a64[3], -0b101
	inc a64[3], LIMIT
	putd a8[0], @table
	call std.print
	jif loop
.main
	routine compute
	routine helper
	puts s16[0], @greeting
end: ret
`, stdID)

func analyze(t *testing.T, src string, opts Options) (*sem.Program, sem.ErrorList) {
	p, errs := ast.Parse([]byte(src))
	require.Empty(t, errs)

	return NewWalker("test", opts).WalkProgram(p)
}

func symbolValue(t *testing.T, prog *sem.Program, ns sem.Namespace, name string) int64 {
	sym, ok := prog.Symbols.Lookup(ns, name)
	require.True(t, ok, name)

	v, resolved := sym.Value()
	require.True(t, resolved, name)
	return v
}

func TestAnalyzeSample(t *testing.T) {
	prog, errs := analyze(t, sampleSrc, Options{})
	require.Empty(t, errs)
	assert.Empty(t, prog.Warnings)

	assert.Equal(t, isa.BaseSet, prog.Extensions)
	assert.Equal(t, 72, prog.CodeSize())
	require.Len(t, prog.Instrs, 9)

	assert.Equal(t, int64(0), symbolValue(t, prog, sem.NSCode, "compute"))
	assert.Equal(t, int64(0), symbolValue(t, prog, sem.NSCode, "loop"))
	assert.Equal(t, int64(40), symbolValue(t, prog, sem.NSCode, "main"))
	assert.Equal(t, int64(64), symbolValue(t, prog, sem.NSCode, "end"))
	assert.Equal(t, int64(16), symbolValue(t, prog, sem.NSConst, "LIMIT"))
	assert.Equal(t, int64(3), symbolValue(t, prog, sem.NSData, "table"))

	require.NotNil(t, prog.Entry)
	assert.Equal(t, "main", prog.Entry.Name)

	helper, ok := prog.Symbols.Lookup(sem.NSCode, "helper")
	require.True(t, ok)
	assert.True(t, helper.Pending())

	assert.Equal(t, []byte{'h', 'i', '!', 1, 0, 2, 0, 'a', 0}, prog.Data)

	std, ok := prog.Lib("std")
	require.True(t, ok)
	assert.True(t, std.Pinned)
	assert.Equal(t, stdID, std.ID)

	put := prog.Instrs[0]
	assert.Equal(t, "put", put.Template.Mnemonic)
	assert.Equal(t, sem.OpReg, put.Operands[0].Kind)
	assert.Equal(t, uint64(3<<5|3), put.Operands[0].Field)
	assert.Equal(t, uint64(0xFFFFFFFB), put.Operands[1].Field)

	assert.Equal(t, uint64(16), prog.Instrs[1].Operands[1].Field)

	call := prog.Instrs[3].Operands[0]
	assert.Equal(t, sem.OpLibCall, call.Kind)
	assert.Same(t, std, call.Lib)
	assert.Equal(t, "print", call.Routine)

	jif := prog.Instrs[4]
	assert.Equal(t, 32, jif.Offset)
	assert.Equal(t, sem.OpLabel, jif.Operands[0].Kind)
	assert.Equal(t, "loop", jif.Operands[0].Symbol.Name)

	assert.Equal(t, sem.OpExtern, prog.Instrs[6].Operands[0].Kind)
	assert.Equal(t, sem.OpData, prog.Instrs[7].Operands[1].Kind)
}

func TestForwardReference(t *testing.T) {
	prog, errs := analyze(t, ".main\n\tjmp later\n\tnop\nlater: ret\n", Options{})
	require.Empty(t, errs)

	jmp := prog.Instrs[0].Operands[0]
	v, ok := jmp.Symbol.Value()
	assert.True(t, ok)
	assert.Equal(t, int64(16), v)
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind sem.ErrorKind
	}{
		{"unknown mnemonic", ".main\n\tfoo a8[0]\n", sem.ErrUnknownMnemonic},
		{"operand count", ".main\n\tput a8[0]\n", sem.ErrOperandCount},
		{"index outside bank", ".main\n\tput a8[32], 1\n", sem.ErrRegister},
		{"string bank size", ".main\n\tclr s16[16]\n", sem.ErrRegister},
		{"unknown bank", ".main\n\tput q8[0], 1\n", sem.ErrRegister},
		{"wrong family", ".main\n\tput r128[0], 1\n", sem.ErrRegister},
		{"wrong fixed bank", ".isae bpdigest\n.main\n\tsha256 s16[0], r512[0]\n", sem.ErrRegister},
		{"different banks", ".main\n\tmov a8[0], a16[0]\n", sem.ErrRegister},
		{"i32 overflow", ".main\n\tput a8[0], 2147483648\n", sem.ErrOutOfRange},
		{"i32 underflow", ".main\n\tput a8[0], -2147483649\n", sem.ErrOutOfRange},
		{"u8 overflow", ".main\n\tinc a8[0], 256\n", sem.ErrOutOfRange},
		{"u8 negative", ".main\n\tinc a8[0], -1\n", sem.ErrOutOfRange},
		{"undefined label", ".main\n\tjmp nowhere\n", sem.ErrUndefined},
		{"data as label", ".data d u8 1\n.main\n\tjmp d\n", sem.ErrKindMismatch},
		{"label as constant", ".main\nx:\tput a8[0], x\n", sem.ErrKindMismatch},
		{"extern outside routine", ".extern f\n.main\n\tjmp f\n", sem.ErrKindMismatch},
		{"undefined data", ".main\n\tputs s16[0], @nothing\n", sem.ErrUndefined},
		{"undefined constant", ".main\n\tput a8[0], x\n", sem.ErrUndefined},
		{"undefined library", ".main\n\tcall std.x\n", sem.ErrLibrary},
		{"bad library ID", ".lib a \"alu1bad\"\n", sem.ErrLibrary},
		{"undeclared extension", ".main\n\taddf f32[0], f32[1]\n", sem.ErrIsa},
		{"unknown extension", ".isae bogus\n", sem.ErrIsa},
		{"duplicate constant", ".const A = 1\n.const A = 2\n", sem.ErrDuplicate},
		{"duplicate label", ".main\nx: ret\nx: ret\n", sem.ErrDuplicate},
		{"label shadows routine", ".routine f\nf: ret\n", sem.ErrDuplicate},
		{"duplicate alias", ".lib a\n.lib a\n", sem.ErrDuplicate},
		{"data overflow", ".data d u8 256\n", sem.ErrOutOfRange},
		{"signed data underflow", ".data d i8 -129\n", sem.ErrOutOfRange},
		{"string in integer data", ".data d u8 \"x\"\n", sem.ErrDataType},
		{"integer in string data", ".data d str 1\n", sem.ErrDataType},
		{"unknown data type", ".data d f32 1\n", sem.ErrDataType},
		{"huge constant", ".const BIG = 0x1_0000_0000_0000_0000\n", sem.ErrOutOfRange},
		{"data in code slot", ".data d u8 1\n.main\n\tjmp @d\n", sem.ErrOperandKind},
		{"data in immediate slot", ".data d u8 1\n.main\n\tput a8[0], @d\n", sem.ErrOperandKind},
		{"call in code slot", ".lib std\n.main\n\tjmp std.f\n", sem.ErrOperandKind},
		{"empty main", ".main\n", sem.ErrEmptyCode},
		{"empty routine", ".routine f\nx:\n.main\n\tret\n", sem.ErrEmptyCode},
		{"label at end of code", ".main\n\tjmp end\nend:\n", sem.ErrEmptyCode},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, errs := analyze(t, tc.src, Options{})
			require.Len(t, errs, 1, errs.Error())
			assert.Equal(t, tc.kind, errs[0].Kind, errs[0].Message)
			assert.NotNil(t, errs[0].Position)
		})
	}
}

func TestEmptyCode(t *testing.T) {
	_, errs := analyze(t, ".main\n\tret\n.routine helper\n", Options{})
	require.Len(t, errs, 1, errs.Error())
	assert.Equal(t, sem.ErrEmptyCode, errs[0].Kind)
	assert.Equal(t, "routine `helper` has no instructions", errs[0].Message)
	require.NotNil(t, errs[0].Position)
	assert.Equal(t, 3, errs[0].Position.StartLn)

	// a label closing one routine addresses the first instruction of the next
	prog, errs := analyze(t, ".routine f\n\tjmp next\nnext:\n.main\n\tret\n", Options{})
	require.Empty(t, errs)
	assert.Equal(t, int64(8), symbolValue(t, prog, sem.NSCode, "next"))

	_, errs = analyze(t, ".main\n\tjmp a\na:\nb:\n", Options{})
	assert.Equal(t, []sem.ErrorKind{sem.ErrEmptyCode, sem.ErrEmptyCode}, errs.Kinds())
}

func TestImmediateBoundaries(t *testing.T) {
	src := ".main\n\tput a8[0], -2147483648\n\tput a8[0], 2147483647\n\tinc a8[0], 255\n\tinc a8[0], 0\n\tshl r128[0], 'a'\n"

	prog, errs := analyze(t, src, Options{})
	require.Empty(t, errs)
	assert.Equal(t, uint64(0x80000000), prog.Instrs[0].Operands[1].Field)
	assert.Equal(t, uint64(0x7FFFFFFF), prog.Instrs[1].Operands[1].Field)
	assert.Equal(t, uint64(255), prog.Instrs[2].Operands[1].Field)
	assert.Equal(t, uint64('a'), prog.Instrs[4].Operands[1].Field)
}

func TestErrorsAreExhaustive(t *testing.T) {
	src := ".main\n\tjmp a\n\tput a8[99], 1\n\tinc a8[0], 1000\n\tfoo\n"

	prog, err := Analyze("test", mustParse(t, src), Options{})
	assert.Nil(t, prog)

	errs, ok := err.(sem.ErrorList)
	require.True(t, ok)
	assert.Equal(t, []sem.ErrorKind{sem.ErrUndefined, sem.ErrRegister, sem.ErrOutOfRange, sem.ErrUnknownMnemonic}, errs.Kinds())

	for i, e := range errs {
		assert.Equal(t, i+2, e.Position.StartLn)
	}
}

func TestSelectedExtensions(t *testing.T) {
	src := ".isae alure\n.main\n\taddf f32[0], f32[1]\n"

	_, errs := analyze(t, src, Options{Selected: isa.BaseSet})
	require.Len(t, errs, 2)
	assert.Equal(t, []sem.ErrorKind{sem.ErrIsa, sem.ErrIsa}, errs.Kinds())

	prog, errs := analyze(t, src, Options{Selected: isa.BaseSet.With(isa.ExtALURE)})
	require.Empty(t, errs)
	assert.True(t, prog.Extensions.Has(isa.ExtALURE))
}

func TestWarnings(t *testing.T) {
	src := ".isae bpdigest\n.lib std\n.extern helper\n.const A = 1\n.data d u8 1\n.main\n\tret\n"

	prog, errs := analyze(t, src, Options{})
	require.Empty(t, errs)

	var msgs []string
	for _, w := range prog.Warnings {
		msgs = append(msgs, w.Message)
	}

	assert.ElementsMatch(t, []string{
		"imported routine `helper` is never used",
		"constant `A` is never used",
		"data symbol `d` is never used",
		"library `std` is never called",
		"ISA extension `BPDIGEST` is declared but never used",
	}, msgs)
}

func mustParse(t *testing.T, src string) *ast.Program {
	p, errs := ast.Parse([]byte(src))
	require.Empty(t, errs)
	return p
}
