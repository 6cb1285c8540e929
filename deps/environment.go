// Package deps holds the inputs of the assembler and the linker: the source
// units of a build and the environment external references resolve against.
package deps

import (
	"fmt"
	"sort"

	"github.com/AreaLayer/aluasm/isa"
	"github.com/AreaLayer/aluasm/libs"
	"github.com/AreaLayer/aluasm/object"
)

// Environment is what a link job resolves library calls against.  It is built
// by the caller and only read while linking.
type Environment struct {
	// modules are object modules of the same build, keyed by the alias other
	// modules call them by
	modules map[string]*object.Module

	// aliases map library aliases to content IDs
	aliases map[string]libs.ID

	// libraries are the known libraries
	libraries *libs.Set

	// Supported is the set of extensions the produced libraries may use.  A
	// zero set supports every extension.
	Supported isa.Set

	// Codec computes and renders library IDs
	Codec libs.Codec
}

// NewEnvironment creates an empty environment
func NewEnvironment(codec libs.Codec) *Environment {
	return &Environment{
		modules:   make(map[string]*object.Module),
		aliases:   make(map[string]libs.ID),
		libraries: libs.NewSet(),
		Codec:     codec,
	}
}

// AddModule makes an object module callable under an alias
func (e *Environment) AddModule(alias string, m *object.Module) error {
	if _, ok := e.modules[alias]; ok {
		return fmt.Errorf("module alias `%s` is defined multiple times", alias)
	}

	e.modules[alias] = m
	return nil
}

// Module looks up an inline module by alias
func (e *Environment) Module(alias string) (*object.Module, bool) {
	m, ok := e.modules[alias]
	return m, ok
}

// ModuleAliases lists the aliases of the inline modules in sorted order
func (e *Environment) ModuleAliases() []string {
	aliases := make([]string, 0, len(e.modules))
	for alias := range e.modules {
		aliases = append(aliases, alias)
	}

	sort.Strings(aliases)
	return aliases
}

// SetAlias binds a library alias to a content ID
func (e *Environment) SetAlias(alias string, id libs.ID) {
	e.aliases[alias] = id
}

// Alias looks up the content ID bound to an alias
func (e *Environment) Alias(alias string) (libs.ID, bool) {
	id, ok := e.aliases[alias]
	return id, ok
}

// AddLibrary makes a library available by ID.  Libraries sharing an ID have
// their export tables merged.
func (e *Environment) AddLibrary(l *libs.Library) error {
	return e.libraries.Add(l)
}

// Library implements libs.Source
func (e *Environment) Library(id libs.ID) (*libs.Library, bool) {
	return e.libraries.Library(id)
}

// Libraries returns every known library
func (e *Environment) Libraries() []*libs.Library {
	return e.libraries.Libraries()
}

// Supports tells whether the environment accepts libraries using the given
// extensions, returning the unsupported ones
func (e *Environment) Supports(exts isa.Set) (isa.Set, bool) {
	if e.Supported == 0 {
		return 0, true
	}

	missing := e.Supported.Missing(exts)
	return missing, missing == 0
}
