package build

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/AreaLayer/aluasm/common"
	"github.com/AreaLayer/aluasm/deps"
	"github.com/AreaLayer/aluasm/libs"
	"github.com/AreaLayer/aluasm/libstore"
	"github.com/AreaLayer/aluasm/link"
	"github.com/AreaLayer/aluasm/logging"
	"github.com/AreaLayer/aluasm/mods"
	"github.com/AreaLayer/aluasm/object"
)

// linkInput is an object module read from disk
type linkInput struct {
	path string
	mod  *object.Module
	lib  *libs.Library
}

// CollectInputs expands the inputs of a link: each argument may hold several
// comma separated paths, each of which is a file or a directory whose object
// and library files are taken in name order
func CollectInputs(args []string) ([]string, error) {
	var paths []string

	for _, arg := range args {
		for _, path := range strings.Split(arg, ",") {
			path = strings.TrimSpace(path)
			if path == "" {
				continue
			}

			finfo, err := os.Stat(path)
			if err != nil {
				return nil, errors.Wrapf(err, "link input %s", path)
			}

			if !finfo.IsDir() {
				paths = append(paths, path)
				continue
			}

			finfos, err := ioutil.ReadDir(path)
			if err != nil {
				return nil, errors.Wrapf(err, "reading directory %s", path)
			}

			for _, fi := range finfos {
				ext := filepath.Ext(fi.Name())
				if !fi.IsDir() && (ext == common.ObjFileExtension || ext == common.LibFileExtension) {
					paths = append(paths, filepath.Join(path, fi.Name()))
				}
			}
		}
	}

	if len(paths) == 0 {
		return nil, errors.New("no object modules to link")
	}

	return paths, nil
}

// readInputs reads object modules and libraries concurrently
func readInputs(ctx context.Context, paths []string, h libs.Hasher) ([]*linkInput, error) {
	inputs := make([]*linkInput, len(paths))

	g, _ := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			in := &linkInput{path: path}

			var err error
			switch filepath.Ext(path) {
			case common.ObjFileExtension:
				in.mod, err = readModuleFile(path)
			case common.LibFileExtension:
				in.lib, err = readLibraryFile(path, h)
			default:
				err = fmt.Errorf("%s is neither an object module nor a library", path)
			}

			inputs[i] = in
			return err
		})
	}

	return inputs, g.Wait()
}

func readModuleFile(path string) (*object.Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening object module")
	}
	defer f.Close()

	m, err := object.ReadModule(f)
	return m, errors.Wrapf(err, "in %s", path)
}

func readLibraryFile(path string, h libs.Hasher) (*libs.Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening library")
	}
	defer f.Close()

	l, err := libs.ReadLibrary(f, h)
	return l, errors.Wrapf(err, "in %s", path)
}

// linkEnv holds everything a link run needs besides the modules it links
type linkEnv struct {
	env   *deps.Environment
	store *libstore.Store
}

// newLinkEnv builds the environment described by a manifest.  The manifest
// may be nil, in which case the environment only holds what is passed on the
// command line.
func newLinkEnv(ctx context.Context, m *mods.Manifest, codec libs.Codec) (*linkEnv, error) {
	le := &linkEnv{env: deps.NewEnvironment(codec)}
	if m == nil {
		return le, nil
	}

	le.env.Supported = m.Supported

	for _, entry := range m.Libs {
		if entry.Path == "" {
			le.env.SetAlias(entry.Alias, entry.ID)
			continue
		}

		l, err := readLibraryFile(entry.Path, codec.Hasher)
		if err != nil {
			return nil, errors.Wrapf(err, "library `%s`", entry.Alias)
		}

		if entry.HasID && l.ID != entry.ID {
			return nil, fmt.Errorf("library `%s` at %s has ID %s, not %s", entry.Alias, entry.Path, codec.Format(l.ID), codec.Format(entry.ID))
		}

		if err := le.env.AddLibrary(l); err != nil {
			return nil, errors.Wrapf(err, "library `%s`", entry.Alias)
		}
		le.env.SetAlias(entry.Alias, l.ID)
	}

	for _, entry := range m.Modules {
		mod, err := readModuleFile(entry.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "module `%s`", entry.Alias)
		}

		if err := le.env.AddModule(entry.Alias, mod); err != nil {
			return nil, err
		}
	}

	if m.StorePath != "" {
		if err := os.MkdirAll(filepath.Dir(m.StorePath), 0755); err != nil {
			return nil, errors.Wrap(err, "creating store directory")
		}

		store, err := libstore.Open(ctx, m.StorePath, codec.Hasher)
		if err != nil {
			return nil, err
		}

		if err := store.LoadInto(ctx, le.env); err != nil {
			store.Close()
			return nil, err
		}

		le.store = store
	}

	return le, nil
}

// save records linked libraries in the store, each bound to its name
func (le *linkEnv) save(ctx context.Context, produced []*libs.Library, lib *libs.Library) error {
	if le.store == nil {
		return nil
	}

	for _, l := range append(produced, lib) {
		if err := le.store.Put(ctx, l); err != nil {
			return err
		}

		if err := le.store.SetAlias(ctx, l.Name, l.ID); err != nil {
			return err
		}
	}

	return nil
}

func (le *linkEnv) close() {
	if le.store != nil {
		le.store.Close()
	}
}

// Link links object modules into a library.  `args` are the link inputs as
// given on the command line, `m` the manifest (possibly nil) and `output`
// overrides the output path of the manifest.  It returns the produced library
// or nil if linking failed.
func (c *Compiler) Link(ctx context.Context, args []string, m *mods.Manifest, output string) *libs.Library {
	c.events.write(Event{Kind: EventPhase, Message: "Linking"})
	defer func() {
		c.events.sync()
		logging.LogEndPhase()
	}()

	codec := c.opts.Codec
	if m != nil {
		codec = m.Codec
	}

	paths, err := CollectInputs(args)
	if err != nil {
		logging.LogConfigError("Link", err.Error())
		return nil
	}

	inputs, err := readInputs(ctx, paths, codec.Hasher)
	if err != nil {
		logging.LogConfigError("Link", err.Error())
		return nil
	}

	le, err := newLinkEnv(ctx, m, codec)
	if err != nil {
		logging.LogConfigError("Link", err.Error())
		return nil
	}
	defer le.close()

	var modules []*object.Module
	for _, in := range inputs {
		if in.lib != nil {
			if err := le.env.AddLibrary(in.lib); err != nil {
				logging.LogConfigError("Link", fmt.Sprintf("%s: %s", in.path, err))
				return nil
			}
		} else {
			modules = append(modules, in.mod)
		}
	}

	if len(modules) == 0 {
		logging.LogConfigError("Link", "no object modules to link")
		return nil
	}

	name := modules[0].Name
	if m != nil {
		name = m.Name
	}

	linker := link.NewLinker(le.env)
	lib, err := linker.Link(name, modules...)
	if err != nil {
		c.reportLinkError(inputs, err)
		return nil
	}

	for _, l := range linker.Produced() {
		c.events.write(Event{Kind: EventLinked, Name: l.Name, Value: l})
	}
	c.events.write(Event{Kind: EventLinked, Name: lib.Name, Value: lib})

	if output == "" {
		if m != nil {
			output = m.OutputPath
		} else {
			output = lib.Name + common.LibFileExtension
		}
	}

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		logging.LogConfigError("Output", fmt.Sprintf("unable to create output directory: %s", err))
		return nil
	}

	if err := writeFile(output, lib); err != nil {
		logging.LogConfigError("Output", err.Error())
		return nil
	}

	if err := le.save(ctx, linker.Produced(), lib); err != nil {
		logging.LogConfigError("Store", err.Error())
		return nil
	}

	logging.LogInfo("Library", fmt.Sprintf("%s %s", lib.Name, codec.Format(lib.ID)))
	return lib
}

// reportLinkError reports a link error against the object file of the module
// it is about
func (c *Compiler) reportLinkError(inputs []*linkInput, err error) {
	var lctx *logging.LogContext

	if le, ok := err.(*link.LinkError); ok && le.Module != "" {
		for _, in := range inputs {
			if in.mod != nil && in.mod.Name == le.Module {
				lctx = &logging.LogContext{FilePath: in.path}
				break
			}
		}
	}

	c.events.write(Event{
		Kind:    EventError,
		Name:    "link",
		Context: lctx,
		Message: err.Error(),
		LogKind: logging.LMKLink,
	})
}
