package generate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AreaLayer/aluasm/ast"
	"github.com/AreaLayer/aluasm/isa"
	"github.com/AreaLayer/aluasm/object"
	"github.com/AreaLayer/aluasm/sem"
	"github.com/AreaLayer/aluasm/walk"
)

func assemble(t *testing.T, src string) *object.Module {
	p, perrs := ast.Parse([]byte(src))
	require.Empty(t, perrs)

	prog, err := walk.Analyze("test", p, walk.Options{})
	require.NoError(t, err)

	mod, err := Generate(prog)
	require.NoError(t, err)
	return mod
}

func TestLocalAndExternalRelocations(t *testing.T) {
	mod := assemble(t, ".lib std\n.main\nstart:\n\tcall std.print\n\tjmp start\n")

	require.Len(t, mod.Code, 16)
	assert.Equal(t, uint64(0x05), isa.ReadWord(mod.Code, 0), "call placeholder is zero")
	assert.Equal(t, uint64(0x02), isa.ReadWord(mod.Code, 8), "jmp holds the module offset of start")

	assert.Equal(t, []object.Reloc{
		{Offset: 0, Shift: 8, Width: 24, Kind: object.RelocLibCall, Target: "std.print"},
		{Offset: 8, Shift: 8, Width: 16, Kind: object.RelocLocal, Target: "start", Addend: 0},
	}, mod.Relocs)

	assert.Equal(t, []object.Import{{Name: "std.print", Kind: object.KindLibRoutine}}, mod.Imports)
	assert.Equal(t, []object.Export{{Name: "main", Kind: object.KindRoutine, Offset: 0}}, mod.Exports)
	assert.Equal(t, []object.LibRef{{Alias: "std"}}, mod.Libs)
	assert.True(t, mod.HasEntry)
	assert.Equal(t, uint32(0), mod.Entry)
}

func TestGenerateProgram(t *testing.T) {
	src := `.lib std
.extern helper
.data msg str "hey"
.data n u8 7

.routine compute
	put a64[3], -5
	putd a8[0], @n
	call std.print
	call std.print
.main
	routine compute
	routine helper
	puts s16[0], @msg
	ret
`
	mod := assemble(t, src)
	require.NoError(t, mod.Validate())

	assert.Equal(t, []byte("hey\x07"), mod.Data)
	assert.Equal(t, 64, len(mod.Code))

	put := isa.ReadWord(mod.Code, 0)
	assert.Equal(t, uint64(0x09)|uint64(3<<5|3)<<8|uint64(0xFFFFFFFB)<<18, put)

	assert.Equal(t, []object.Export{
		{Name: "compute", Kind: object.KindRoutine, Offset: 0},
		{Name: "main", Kind: object.KindRoutine, Offset: 32},
	}, mod.Exports)

	assert.Equal(t, []object.Import{
		{Name: "helper", Kind: object.KindRoutine},
		{Name: "std.print", Kind: object.KindLibRoutine},
	}, mod.Imports)

	var kinds []object.RelocKind
	for _, r := range mod.Relocs {
		kinds = append(kinds, r.Kind)
	}
	assert.Equal(t, []object.RelocKind{
		object.RelocData,
		object.RelocLibCall,
		object.RelocLibCall,
		object.RelocLocal,
		object.RelocImport,
		object.RelocData,
	}, kinds)

	n := mod.Relocs[0]
	assert.Equal(t, uint32(8), n.Offset)
	assert.Equal(t, uint32(3), n.Addend)
	assert.Equal(t, uint64(3), isa.GetField(isa.ReadWord(mod.Code, 8), n.Shift, n.Width))

	assert.Equal(t, uint32(32), mod.Entry)
}

func TestGenerateIsDeterministic(t *testing.T) {
	src := ".lib std\n.data d u16 1, 2\n.main\nl:\tputd a8[0], @d\n\tcall std.f\n\tjmp l\n"

	a, err := assemble(t, src).MarshalBinary()
	require.NoError(t, err)
	b, err := assemble(t, src).MarshalBinary()
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestEncodingErrors(t *testing.T) {
	jmp, _ := isa.Lookup("jmp")

	far := &sem.Symbol{Name: "far", Kind: sem.LocalLabel}
	require.NoError(t, far.Resolve(1<<16))

	prog := &sem.Program{
		Name:       "test",
		Extensions: isa.BaseSet,
		Symbols:    sem.NewSymbolTable(),
		Instrs: []*sem.Instr{{
			Template: jmp,
			Operands: []*sem.Operand{{Kind: sem.OpLabel, Slot: jmp.Slots[0], Symbol: far}},
		}},
	}

	_, err := Generate(prog)
	var encErr *EncodingError
	require.True(t, errors.As(err, &encErr))
	assert.Equal(t, "jmp", encErr.Mnemonic)
	assert.Equal(t, 0, encErr.Offset)

	pending := &sem.Symbol{Name: "later", Kind: sem.LocalLabel}
	prog.Instrs[0].Operands[0].Symbol = pending

	_, err = Generate(prog)
	require.True(t, errors.As(err, &encErr))
	assert.Contains(t, encErr.Message, "unresolved")
}
