package sem

import (
	"testing"

	"github.com/AreaLayer/aluasm/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolResolvesOnce(t *testing.T) {
	sym := &Symbol{Name: "start", Kind: LocalLabel}
	assert.True(t, sym.Pending())

	require.NoError(t, sym.Resolve(16))
	v, ok := sym.Value()
	assert.True(t, ok)
	assert.Equal(t, int64(16), v)

	assert.Error(t, sym.Resolve(24))
	v, _ = sym.Value()
	assert.Equal(t, int64(16), v)
}

func TestSymbolTableNamespaces(t *testing.T) {
	st := NewSymbolTable()

	_, ok := st.Define(&Symbol{Name: "x", Kind: LocalLabel})
	require.True(t, ok)

	// the same name may be reused in another namespace
	_, ok = st.Define(&Symbol{Name: "x", Kind: DataSymbol})
	require.True(t, ok)

	// but not within one: exported labels share the code namespace
	prev, ok := st.Define(&Symbol{Name: "x", Kind: ExportedLabel})
	assert.False(t, ok)
	assert.Equal(t, LocalLabel, prev.Kind)

	sym, ok := st.Lookup(NSData, "x")
	require.True(t, ok)
	assert.Equal(t, DataSymbol, sym.Kind)

	_, ok = st.Lookup(NSConst, "x")
	assert.False(t, ok)

	other, ok := st.LookupOther(NSConst, "x")
	require.True(t, ok)
	assert.Equal(t, "x", other.Name)

	assert.Len(t, st.Symbols(), 2)
}

func TestSymbolTableSorted(t *testing.T) {
	st := NewSymbolTable()
	for _, def := range []struct {
		name  string
		value int64
	}{{"b", 8}, {"a", 8}, {"c", 0}} {
		sym := &Symbol{Name: def.name, Kind: ExportedLabel}
		require.NoError(t, sym.Resolve(def.value))
		st.Define(sym)
	}

	var names []string
	for _, sym := range st.Sorted(ExportedLabel) {
		names = append(names, sym.Name)
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
}

func TestErrorListSort(t *testing.T) {
	el := ErrorList{
		{Kind: ErrUndefined, Message: "b", Position: &logging.TextPosition{StartLn: 3, StartCol: 1}},
		{Kind: ErrDuplicate, Message: "a", Position: &logging.TextPosition{StartLn: 1, StartCol: 5}},
		{Kind: ErrIsa, Message: "c", Position: &logging.TextPosition{StartLn: 1, StartCol: 2}},
	}
	el.Sort()

	assert.Equal(t, []ErrorKind{ErrIsa, ErrDuplicate, ErrUndefined}, el.Kinds())
	assert.Equal(t, "1:2: c\n1:5: a\n3:1: b", el.Error())
}
