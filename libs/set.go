package libs

import (
	"fmt"
	"sort"
)

// Source looks up libraries by ID
type Source interface {
	Library(id ID) (*Library, bool)
}

// Set is an in-memory collection of libraries keyed by ID
type Set struct {
	byID  map[ID]*Library
	order []ID
}

// NewSet creates an empty set
func NewSet() *Set {
	return &Set{byID: make(map[ID]*Library)}
}

// Add inserts a library.  Exports are not part of the ID, so a library whose
// ID is already in the set is merged with the stored one: the result exports
// the routines of both.  Two exports of the same name at different offsets, or
// two different entry points, are an error and leave the set unchanged.
func (s *Set) Add(l *Library) error {
	prev, ok := s.byID[l.ID]
	if !ok {
		s.byID[l.ID] = l
		s.order = append(s.order, l.ID)
		return nil
	}

	merged, err := mergeExports(prev, l)
	if err != nil {
		return err
	}

	s.byID[l.ID] = merged
	return nil
}

// mergeExports combines the export tables of two libraries sharing an ID.
// Neither input is modified.
func mergeExports(a, b *Library) (*Library, error) {
	if a.HasEntry && b.HasEntry && a.Entry != b.Entry {
		return nil, fmt.Errorf("library %s is known with entry points 0x%04x and 0x%04x", a.ID, a.Entry, b.Entry)
	}

	offsets := make(map[string]uint16, len(a.Exports))
	for _, e := range a.Exports {
		offsets[e.Name] = e.Offset
	}

	exports := append([]Export(nil), a.Exports...)
	for _, e := range b.Exports {
		if offset, ok := offsets[e.Name]; ok {
			if offset != e.Offset {
				return nil, fmt.Errorf("library %s is known with routine `%s` at both 0x%04x and 0x%04x", a.ID, e.Name, offset, e.Offset)
			}
			continue
		}

		exports = append(exports, e)
	}

	if len(exports) == len(a.Exports) && (a.HasEntry || !b.HasEntry) {
		return a, nil
	}

	sort.Slice(exports, func(i, j int) bool {
		return exports[i].Name < exports[j].Name
	})

	merged := *a
	merged.Exports = exports
	if !a.HasEntry {
		merged.Entry, merged.HasEntry = b.Entry, b.HasEntry
	}

	return &merged, nil
}

// Library implements Source
func (s *Set) Library(id ID) (*Library, bool) {
	l, ok := s.byID[id]
	return l, ok
}

// Len returns the number of libraries in the set
func (s *Set) Len() int {
	return len(s.order)
}

// Libraries lists the libraries in insertion order
func (s *Set) Libraries() []*Library {
	ls := make([]*Library, len(s.order))
	for i, id := range s.order {
		ls[i] = s.byID[id]
	}
	return ls
}
