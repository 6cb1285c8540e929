package mods

import (
	"path/filepath"

	"github.com/AreaLayer/aluasm/isa"
	"github.com/AreaLayer/aluasm/libs"
)

// Manifest is the link configuration of a build.  It describes what the
// produced library is called, where it goes and how names used by `.lib`
// directives are resolved.
type Manifest struct {
	// Name is the name of the produced library
	Name string

	// Root is the directory enclosing the manifest file.  Every relative path
	// in the manifest is resolved against it.
	Root string

	// OutputPath is the path of the produced library file
	OutputPath string

	// Supported is the set of ISA extensions the target machine supports.
	// Linking a module that uses anything outside of it fails.
	Supported isa.Set

	// StorePath is the path to the library store database.  It is empty when
	// no store is configured.
	StorePath string

	// Codec is the content ID codec named by the manifest
	Codec libs.Codec

	// Version is the tool version the manifest was written for
	Version string

	// Libs are the libraries known by alias
	Libs []*LibEntry

	// Modules are the inline object modules linked as part of the same build
	Modules []*ModuleEntry
}

// LibEntry binds an alias to a library.  At least one of ID and Path is set;
// when both are, the library read from Path must have the given ID.
type LibEntry struct {
	Alias string
	ID    libs.ID
	HasID bool
	Path  string
}

// ModuleEntry binds an alias to an object module of the same build
type ModuleEntry struct {
	Alias string
	Path  string
}

// Abs resolves a manifest path against the manifest's root directory
func (m *Manifest) Abs(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(m.Root, path)
}

// IsValidIdentifier returns whether or not a given string would be a valid
// identifier (library name, alias, etc.)
func IsValidIdentifier(idstr string) bool {
	if idstr == "" {
		return false
	}

	if idstr[0] == '_' || ('a' <= idstr[0] && idstr[0] <= 'z') || ('A' <= idstr[0] && idstr[0] <= 'Z') {
		for _, c := range idstr[1:] {
			if c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
				continue
			}

			return false
		}

		return true
	}

	return false
}
