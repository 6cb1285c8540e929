package build

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AreaLayer/aluasm/common"
	"github.com/AreaLayer/aluasm/libs"
	"github.com/AreaLayer/aluasm/libstore"
	"github.com/AreaLayer/aluasm/logging"
	"github.com/AreaLayer/aluasm/mods"
	"github.com/AreaLayer/aluasm/object"
)

const (
	stdSource = ".routine print\n\tret\n"
	appSource = ".lib std\n.main\nstart:\n\tcall std.print\n\tjmp start\n"
)

func writeSource(t *testing.T, dir, name, src string) string {
	path := filepath.Join(dir, name+common.SrcFileExtension)
	require.NoError(t, ioutil.WriteFile(path, []byte(src), 0644))
	return path
}

func newTestCompiler(t *testing.T, opts Options) *Compiler {
	logging.Initialize("", "silent")

	c, err := NewCompiler(opts)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func readObject(t *testing.T, path string) *object.Module {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	m, err := object.ReadModule(f)
	require.NoError(t, err)
	return m
}

func TestAssemble(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "objects")

	c := newTestCompiler(t, Options{OutputDir: out})
	ok := c.Assemble([]string{
		writeSource(t, dir, "std", stdSource),
		writeSource(t, dir, "app", appSource),
	})
	require.True(t, ok)

	units := c.Units()
	require.Len(t, units, 2)
	assert.Equal(t, "std", units[0].Name)
	assert.Equal(t, "app", units[1].Name)

	for _, u := range units {
		path := filepath.Join(out, u.Name+common.ObjFileExtension)
		assert.Equal(t, path, c.ObjectPath(u))
		assert.Equal(t, u.Module, readObject(t, path))
	}
}

func TestAssembleSyntaxError(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "objects")

	c := newTestCompiler(t, Options{OutputDir: out})
	assert.False(t, c.Assemble([]string{writeSource(t, dir, "syn", ".routine f\n\tput a64[1] 1\n")}))

	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestAssembleSemanticError(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "objects")

	c := newTestCompiler(t, Options{OutputDir: out})
	assert.False(t, c.Assemble([]string{writeSource(t, dir, "bad", ".routine f\n\tput a64[99], 1\n")}))
	assert.Greater(t, logging.ErrorCount(), 0)

	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestAssembleInputErrors(t *testing.T) {
	dir := t.TempDir()

	c := newTestCompiler(t, Options{OutputDir: filepath.Join(dir, "objects")})
	assert.False(t, c.Assemble(nil))

	c = newTestCompiler(t, Options{OutputDir: filepath.Join(dir, "objects")})
	assert.False(t, c.Assemble([]string{filepath.Join(dir, "missing.aluasm")}))

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))

	c = newTestCompiler(t, Options{OutputDir: filepath.Join(dir, "objects")})
	assert.False(t, c.Assemble([]string{
		writeSource(t, dir, "std", stdSource),
		writeSource(t, sub, "std", stdSource),
	}))
}

func TestAssembleTestLib(t *testing.T) {
	dir := t.TempDir()

	c := newTestCompiler(t, Options{OutputDir: filepath.Join(dir, "objects"), TestLib: true})
	assert.True(t, c.Assemble([]string{writeSource(t, dir, "std", stdSource)}))

	// nothing in an empty environment can satisfy the call to std
	c = newTestCompiler(t, Options{OutputDir: filepath.Join(dir, "objects"), TestLib: true})
	assert.False(t, c.Assemble([]string{writeSource(t, dir, "app", appSource)}))
}

func TestDump(t *testing.T) {
	dir := t.TempDir()
	dumpPath := filepath.Join(dir, "logs", "dump.txt")

	logging.Initialize("", "silent")
	c, err := NewCompiler(Options{OutputDir: filepath.Join(dir, "objects"), DumpPath: dumpPath, TestLib: true})
	require.NoError(t, err)

	require.True(t, c.Assemble([]string{writeSource(t, dir, "std", stdSource)}))
	require.NoError(t, c.Close())

	b, err := ioutil.ReadFile(dumpPath)
	require.NoError(t, err)

	dump := string(b)
	assert.Contains(t, dump, "==== Parsing ====")
	assert.Contains(t, dump, "-- syntax tree of std")
	assert.Contains(t, dump, "-- analyzed program of std")
	assert.Contains(t, dump, "-- object module of std")
	assert.Contains(t, dump, "-- library std")
}

// assembleObjects assembles the std and app sources into dir/objects
func assembleObjects(t *testing.T, dir string) (std, app string) {
	out := filepath.Join(dir, "objects")

	c := newTestCompiler(t, Options{OutputDir: out})
	require.True(t, c.Assemble([]string{
		writeSource(t, dir, "std", stdSource),
		writeSource(t, dir, "app", appSource),
	}))

	return filepath.Join(out, "std"+common.ObjFileExtension), filepath.Join(out, "app"+common.ObjFileExtension)
}

func writeManifest(t *testing.T, dir, content string) *mods.Manifest {
	path := filepath.Join(dir, common.ManifestFileName)
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0644))

	m, err := mods.LoadManifest(path)
	require.NoError(t, err)
	return m
}

func TestLinkInlineModule(t *testing.T) {
	dir := t.TempDir()
	_, app := assembleObjects(t, dir)

	m := writeManifest(t, dir, `
[link]
name = "app"
store = "libs.db"

[[modules]]
alias = "std"
path = "objects/std.ao"
`)

	c := newTestCompiler(t, Options{})
	lib := c.Link(context.Background(), []string{app}, m, "")
	require.NotNil(t, lib)
	assert.Equal(t, "app", lib.Name)
	require.Len(t, lib.Libs, 1)

	f, err := os.Open(filepath.Join(dir, "app"+common.LibFileExtension))
	require.NoError(t, err)
	defer f.Close()

	written, err := libs.ReadLibrary(f, libs.DefaultCodec.Hasher)
	require.NoError(t, err)
	assert.Equal(t, lib.ID, written.ID)

	ctx := context.Background()
	store, err := libstore.Open(ctx, filepath.Join(dir, "libs.db"), libs.DefaultCodec.Hasher)
	require.NoError(t, err)
	defer store.Close()

	aliases, err := store.Aliases(ctx)
	require.NoError(t, err)
	assert.Equal(t, lib.ID, aliases["app"])
	assert.Equal(t, lib.Libs[0], aliases["std"])

	_, err = store.Get(ctx, lib.Libs[0])
	assert.NoError(t, err)
}

func TestLinkLibraryFile(t *testing.T) {
	dir := t.TempDir()
	std, app := assembleObjects(t, dir)

	stdLib := filepath.Join(dir, "std"+common.LibFileExtension)
	c := newTestCompiler(t, Options{})
	std1 := c.Link(context.Background(), []string{std}, nil, stdLib)
	require.NotNil(t, std1)

	m := writeManifest(t, dir, `
[link]
name = "app"
output = "out/app.alulib"

[[libs]]
alias = "std"
path = "std.alulib"
`)

	c = newTestCompiler(t, Options{})
	lib := c.Link(context.Background(), []string{app}, m, "")
	require.NotNil(t, lib)
	assert.Equal(t, []libs.ID{std1.ID}, lib.Libs)

	_, err := os.Stat(filepath.Join(dir, "out", "app"+common.LibFileExtension))
	assert.NoError(t, err)
}

func TestLinkUndefinedExternal(t *testing.T) {
	dir := t.TempDir()
	_, app := assembleObjects(t, dir)

	out := filepath.Join(dir, "app"+common.LibFileExtension)
	c := newTestCompiler(t, Options{})
	assert.Nil(t, c.Link(context.Background(), []string{app}, nil, out))
	assert.Equal(t, 1, logging.ErrorCount())

	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestLinkPinnedIDMismatch(t *testing.T) {
	dir := t.TempDir()
	std, app := assembleObjects(t, dir)

	c := newTestCompiler(t, Options{})
	require.NotNil(t, c.Link(context.Background(), []string{std}, nil, filepath.Join(dir, "std.alulib")))

	var other libs.ID
	other[0] = 1

	m := writeManifest(t, dir, `
[link]
name = "app"

[[libs]]
alias = "std"
path = "std.alulib"
id = "`+libs.DefaultCodec.Format(other)+`"
`)

	c = newTestCompiler(t, Options{})
	assert.Nil(t, c.Link(context.Background(), []string{app}, m, ""))
}

func TestCollectInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.ao", "a.ao", "c.alulib", "notes.txt"} {
		require.NoError(t, ioutil.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.ao"), 0755))

	paths, err := CollectInputs([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.ao"),
		filepath.Join(dir, "b.ao"),
		filepath.Join(dir, "c.alulib"),
	}, paths)

	a, b := filepath.Join(dir, "a.ao"), filepath.Join(dir, "notes.txt")
	paths, err = CollectInputs([]string{a + ", " + b})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, paths)

	_, err = CollectInputs([]string{filepath.Join(dir, "missing.ao")})
	assert.Error(t, err)

	_, err = CollectInputs([]string{filepath.Join(dir, "nested.ao")})
	assert.Error(t, err)
}
