package mods

import (
	"fmt"
	"io/ioutil"
	"path/filepath"

	"github.com/AreaLayer/aluasm/common"
	"github.com/AreaLayer/aluasm/isa"
	"github.com/AreaLayer/aluasm/libs"
	"github.com/AreaLayer/aluasm/logging"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"golang.org/x/mod/semver"
)

// tomlManifestFile represents the manifest file as it is encoded in TOML
type tomlManifestFile struct {
	Link    *tomlLink     `toml:"link"`
	Libs    []*tomlLib    `toml:"libs,omitempty"`
	Modules []*tomlModule `toml:"modules,omitempty"`
}

// tomlLink represents the `[link]` table
type tomlLink struct {
	Name       string   `toml:"name"`
	Output     string   `toml:"output,omitempty"`
	Isae       []string `toml:"isae,omitempty"`
	Store      string   `toml:"store,omitempty"`
	Hash       string   `toml:"hash,omitempty"`
	IDEncoding string   `toml:"id-encoding,omitempty"`
	Version    string   `toml:"aluasm-version"`
}

// tomlLib represents a `[[libs]]` entry
type tomlLib struct {
	Alias string `toml:"alias"`
	ID    string `toml:"id,omitempty"`
	Path  string `toml:"path,omitempty"`
}

// tomlModule represents a `[[modules]]` entry
type tomlModule struct {
	Alias string `toml:"alias"`
	Path  string `toml:"path"`
}

// LoadManifest loads and validates the manifest file at `path`.  Relative
// paths inside it are made absolute against the directory enclosing it.
func LoadManifest(path string) (*Manifest, error) {
	abspath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving manifest path %s", path)
	}

	buff, err := ioutil.ReadFile(abspath)
	if err != nil {
		return nil, errors.Wrap(err, "reading manifest")
	}

	tmf := &tomlManifestFile{}
	if err := toml.Unmarshal(buff, tmf); err != nil {
		return nil, errors.Wrapf(err, "decoding manifest %s", abspath)
	}

	m := &Manifest{Root: filepath.Dir(abspath)}

	if err := validateLink(m, tmf.Link); err != nil {
		return nil, err
	}

	if err := loadEntries(m, tmf); err != nil {
		return nil, errors.Wrapf(err, "in manifest of `%s`", m.Name)
	}

	return m, nil
}

// validateLink checks the `[link]` table and moves it onto the manifest
func validateLink(m *Manifest, link *tomlLink) error {
	if link == nil {
		return fmt.Errorf("manifest at %s has no [link] table", m.Root)
	}

	if link.Name == "" {
		return fmt.Errorf("missing library name for manifest at %s", m.Root)
	}

	if !IsValidIdentifier(link.Name) {
		return errors.New("library name must be a valid identifier")
	}

	m.Name = link.Name

	if err := checkVersion(link.Name, link.Version); err != nil {
		return err
	}
	m.Version = link.Version

	if link.Output == "" {
		m.OutputPath = filepath.Join(m.Root, link.Name+common.LibFileExtension)
	} else {
		m.OutputPath = m.Abs(link.Output)
	}

	if len(link.Isae) == 0 {
		m.Supported = isa.AllExtensions
	} else {
		supported, err := isa.ParseSet(link.Isae)
		if err != nil {
			return errors.Wrapf(err, "in manifest of `%s`", link.Name)
		}
		m.Supported = supported
	}

	codec, err := libs.NewCodec(link.Hash, link.IDEncoding)
	if err != nil {
		return errors.Wrapf(err, "in manifest of `%s`", link.Name)
	}
	m.Codec = codec

	m.StorePath = m.Abs(link.Store)
	return nil
}

// checkVersion compares the version the manifest was written for against the
// running tool.  A manifest from a newer tool is only warned about.
func checkVersion(name, version string) error {
	if version == "" {
		return nil
	}

	if !semver.IsValid("v" + version) {
		return fmt.Errorf("`%s` is not a valid aluasm version", version)
	}

	if semver.Compare("v"+version, "v"+common.AluasmVersion) > 0 {
		logging.LogBuildWarning(
			"manifest",
			fmt.Sprintf("manifest of `%s` targets aluasm v%s which is newer than this tool (v%s)", name, version, common.AluasmVersion),
		)
	}

	return nil
}

// loadEntries validates the `[[libs]]` and `[[modules]]` entries.  Aliases
// share one namespace across both.
func loadEntries(m *Manifest, tmf *tomlManifestFile) error {
	aliases := make(map[string]struct{})
	checkAlias := func(alias string) error {
		if !IsValidIdentifier(alias) {
			return fmt.Errorf("`%s` is not a valid alias", alias)
		}

		if _, ok := aliases[alias]; ok {
			return fmt.Errorf("alias `%s` bound multiple times", alias)
		}

		aliases[alias] = struct{}{}
		return nil
	}

	for _, tl := range tmf.Libs {
		if err := checkAlias(tl.Alias); err != nil {
			return err
		}

		if tl.ID == "" && tl.Path == "" {
			return fmt.Errorf("library `%s` must specify an id or a path", tl.Alias)
		}

		entry := &LibEntry{Alias: tl.Alias, Path: m.Abs(tl.Path)}
		if tl.ID != "" {
			id, err := m.Codec.Parse(tl.ID)
			if err != nil {
				return errors.Wrapf(err, "library `%s`", tl.Alias)
			}

			entry.ID = id
			entry.HasID = true
		}

		m.Libs = append(m.Libs, entry)
	}

	for _, tm := range tmf.Modules {
		if err := checkAlias(tm.Alias); err != nil {
			return err
		}

		if tm.Path == "" {
			return fmt.Errorf("module `%s` must specify a path", tm.Alias)
		}

		m.Modules = append(m.Modules, &ModuleEntry{Alias: tm.Alias, Path: m.Abs(tm.Path)})
	}

	return nil
}
