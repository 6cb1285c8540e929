package isa

import (
	"fmt"
	"strings"
)

// Extension is a single named ISA extension
type Extension uint16

// Enumeration of the ISA extensions.  ALU is the base instruction set and is
// always part of a module's extension set.
const (
	ExtALU Extension = 1 << iota
	ExtALURE
	ExtBPDIGEST
	ExtSECP256K1
	ExtED25519
)

var extensionNames = []struct {
	ext  Extension
	name string
}{
	{ExtALU, "ALU"},
	{ExtALURE, "ALURE"},
	{ExtBPDIGEST, "BPDIGEST"},
	{ExtSECP256K1, "SECP256K1"},
	{ExtED25519, "ED25519"},
}

func (e Extension) String() string {
	for _, en := range extensionNames {
		if en.ext == e {
			return en.name
		}
	}

	return fmt.Sprintf("EXT(%#x)", uint16(e))
}

// ParseExtension looks up an extension by its case-insensitive name
func ParseExtension(name string) (Extension, bool) {
	for _, en := range extensionNames {
		if strings.EqualFold(en.name, name) {
			return en.ext, true
		}
	}

	return 0, false
}

// Set is a set of extensions stored as a bitmask.  It is the form in which
// extension manifests appear in object modules and libraries.
type Set uint16

// BaseSet contains only the base instruction set
const BaseSet = Set(ExtALU)

// AllExtensions is the set of every extension known to this package
var AllExtensions = func() Set {
	var s Set
	for _, en := range extensionNames {
		s |= Set(en.ext)
	}
	return s
}()

// Has reports whether the extension is part of the set
func (s Set) Has(e Extension) bool {
	return s&Set(e) != 0
}

// With returns the set extended by e
func (s Set) With(e Extension) Set {
	return s | Set(e)
}

// Union returns the union of two sets
func (s Set) Union(o Set) Set {
	return s | o
}

// Contains reports whether every extension of o is part of s
func (s Set) Contains(o Set) bool {
	return o&^s == 0
}

// Missing returns the extensions of o that s lacks
func (s Set) Missing(o Set) Set {
	return o &^ s
}

// Unknown returns the bits of the set that name no known extension
func (s Set) Unknown() Set {
	return s &^ AllExtensions
}

// Extensions lists the members of the set in canonical order
func (s Set) Extensions() []Extension {
	var exts []Extension
	for _, en := range extensionNames {
		if s.Has(en.ext) {
			exts = append(exts, en.ext)
		}
	}
	return exts
}

func (s Set) String() string {
	exts := s.Extensions()
	names := make([]string, len(exts))
	for i, e := range exts {
		names[i] = e.String()
	}

	if u := s.Unknown(); u != 0 {
		names = append(names, fmt.Sprintf("%#x", uint16(u)))
	}

	return strings.Join(names, ",")
}

// ParseSet parses a list of extension names into a set.  The base extension
// is always included.
func ParseSet(names []string) (Set, error) {
	s := BaseSet
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		ext, ok := ParseExtension(name)
		if !ok {
			return 0, fmt.Errorf("unknown ISA extension `%s`", name)
		}

		s = s.With(ext)
	}

	return s, nil
}
