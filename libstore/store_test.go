package libstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AreaLayer/aluasm/deps"
	"github.com/AreaLayer/aluasm/isa"
	"github.com/AreaLayer/aluasm/libs"
)

func testLibrary(t *testing.T, name string, data string) *libs.Library {
	ret, _ := isa.Lookup("ret")
	w, err := ret.Encode(nil)
	require.NoError(t, err)

	code := make([]byte, isa.WordSize)
	isa.WriteWord(code, 0, w)

	l := &libs.Library{
		Name:       name,
		Extensions: isa.BaseSet,
		Code:       code,
		Data:       []byte(data),
		Exports:    []libs.Export{{Name: "f", Offset: 0}},
	}
	require.NoError(t, l.Seal(libs.DefaultCodec.Hasher))
	return l
}

func openStore(t *testing.T, path string) *Store {
	s, err := Open(context.Background(), path, libs.DefaultCodec.Hasher)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "libs.db"))

	l := testLibrary(t, "std", "abc")
	require.NoError(t, s.Put(ctx, l))
	require.NoError(t, s.Put(ctx, l))

	got, err := s.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, l, got)

	_, err = s.Get(ctx, libs.ID{})
	assert.Equal(t, ErrNotFound, errors.Cause(err))

	ids, err := s.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []libs.ID{l.ID}, ids)
}

func TestAliases(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "libs.db"))

	a, b := testLibrary(t, "a", "1"), testLibrary(t, "b", "2")
	require.NoError(t, s.Put(ctx, a))
	require.NoError(t, s.Put(ctx, b))

	err := s.SetAlias(ctx, "missing", libs.ID{})
	assert.Equal(t, ErrNotFound, errors.Cause(err))

	require.NoError(t, s.SetAlias(ctx, "std", a.ID))
	require.NoError(t, s.SetAlias(ctx, "std", b.ID))
	require.NoError(t, s.SetAlias(ctx, "first", a.ID))

	aliases, err := s.Aliases(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]libs.ID{"std": b.ID, "first": a.ID}, aliases)
}

func TestLoadInto(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "libs.db"))

	a, b := testLibrary(t, "a", "1"), testLibrary(t, "b", "2")
	require.NoError(t, s.Put(ctx, a))
	require.NoError(t, s.Put(ctx, b))
	require.NoError(t, s.SetAlias(ctx, "std", a.ID))
	require.NoError(t, s.SetAlias(ctx, "other", b.ID))

	env := deps.NewEnvironment(libs.DefaultCodec)
	env.SetAlias("other", a.ID)
	require.NoError(t, s.LoadInto(ctx, env))

	_, ok := env.Library(a.ID)
	assert.True(t, ok)
	_, ok = env.Library(b.ID)
	assert.True(t, ok)

	id, ok := env.Alias("std")
	assert.True(t, ok)
	assert.Equal(t, a.ID, id)

	// bindings made by the caller win
	id, _ = env.Alias("other")
	assert.Equal(t, a.ID, id)
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "libs.db")

	s, err := Open(ctx, path, libs.DefaultCodec.Hasher)
	require.NoError(t, err)

	l := testLibrary(t, "std", "abc")
	require.NoError(t, s.Put(ctx, l))
	require.NoError(t, s.Close())

	s = openStore(t, path)
	got, err := s.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, l.ID, got.ID)
}

func TestWrongHasher(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "libs.db")

	s := openStore(t, path)
	l := testLibrary(t, "std", "abc")
	require.NoError(t, s.Put(ctx, l))

	other, err := Open(ctx, path, libs.SHA3{})
	require.NoError(t, err)
	defer other.Close()

	_, err = other.Get(ctx, l.ID)
	assert.Error(t, err)
}
