package object

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AreaLayer/aluasm/isa"
	"github.com/AreaLayer/aluasm/libs"
)

func sampleModule() *Module {
	return &Module{
		Name:       "sample",
		Extensions: isa.BaseSet.With(isa.ExtBPDIGEST),
		Code:       make([]byte, 3*isa.WordSize),
		Data:       []byte("data"),
		Exports: []Export{
			{Name: "main", Kind: KindRoutine, Offset: 0},
			{Name: "util", Kind: KindRoutine, Offset: 16},
		},
		Imports: []Import{
			{Name: "helper", Kind: KindRoutine},
			{Name: "std.print", Kind: KindLibRoutine},
		},
		Relocs: []Reloc{
			{Offset: 0, Shift: 8, Width: 24, Kind: RelocLibCall, Target: "std.print"},
			{Offset: 8, Shift: 8, Width: 16, Kind: RelocLocal, Target: "util", Addend: 16},
			{Offset: 8, Shift: 24, Width: 16, Kind: RelocData, Target: "d", Addend: 2},
			{Offset: 16, Shift: 8, Width: 16, Kind: RelocImport, Target: "helper"},
		},
		Libs: []LibRef{
			{Alias: "std", ID: libs.DefaultCodec.Sum([]byte("std")), Pinned: true},
			{Alias: "other"},
		},
		Entry:    0,
		HasEntry: true,
	}
}

func TestRoundTrip(t *testing.T) {
	m := sampleModule()
	require.NoError(t, m.Validate())

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	first := append([]byte(nil), buf.Bytes()...)

	assert.Equal(t, Magic, string(first[:4]))
	assert.Equal(t, uint16(Version), binary.LittleEndian.Uint16(first[4:]))
	assert.Equal(t, uint16(m.Extensions), binary.LittleEndian.Uint16(first[6:]))

	back, err := ReadModule(&buf)
	require.NoError(t, err)
	assert.Equal(t, m, back)

	again, err := back.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestRoundTripEmpty(t *testing.T) {
	m := &Module{Name: "empty", Extensions: isa.BaseSet}

	b, err := m.MarshalBinary()
	require.NoError(t, err)

	back, err := ReadModule(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, m, back)
}

func TestReadRejects(t *testing.T) {
	good, err := sampleModule().MarshalBinary()
	require.NoError(t, err)

	tests := map[string][]byte{
		"bad magic":     append([]byte("ALUX"), good[4:]...),
		"bad version":   append(append([]byte(Magic), 9, 0), good[6:]...),
		"short header":  good[:5],
		"truncated":     good[:len(good)-4],
		"trailing byte": append(append([]byte(nil), good...), 0),
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadModule(bytes.NewReader(data))
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := map[string]func(m *Module){
		"unaligned code":      func(m *Module) { m.Code = m.Code[:5] },
		"relocs out of order": func(m *Module) { m.Relocs[0], m.Relocs[1] = m.Relocs[1], m.Relocs[0] },
		"reloc past code":     func(m *Module) { m.Relocs[3].Offset = 24 },
		"field past word":     func(m *Module) { m.Relocs[3].Shift = 56 },
		"undeclared library":  func(m *Module) { m.Relocs[0].Target = "nope.print" },
		"undeclared import":   func(m *Module) { m.Relocs[3].Target = "nope" },
		"data past segment":   func(m *Module) { m.Relocs[2].Addend = 5 },
		"duplicate export":    func(m *Module) { m.Exports[1].Name = "main" },
		"duplicate alias":     func(m *Module) { m.Libs[1].Alias = "std" },
		"entry past code":     func(m *Module) { m.Entry = 24 },
		"unknown extension":   func(m *Module) { m.Extensions |= 0x4000 },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			m := sampleModule()
			mutate(m)
			assert.Error(t, m.Validate())
		})
	}
}

func TestSplitLibTarget(t *testing.T) {
	alias, routine, ok := SplitLibTarget("std.print")
	assert.True(t, ok)
	assert.Equal(t, "std", alias)
	assert.Equal(t, "print", routine)

	_, _, ok = SplitLibTarget("print")
	assert.False(t, ok)
}

func TestSortRelocs(t *testing.T) {
	relocs := []Reloc{{Offset: 8, Shift: 18}, {Offset: 0, Shift: 8}, {Offset: 8, Shift: 8}}
	SortRelocs(relocs)

	assert.Equal(t, []Reloc{{Offset: 0, Shift: 8}, {Offset: 8, Shift: 8}, {Offset: 8, Shift: 18}}, relocs)
}
