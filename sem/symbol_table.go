package sem

import "sort"

// SymbolTable holds the symbols of a module, keyed by namespace and name
type SymbolTable struct {
	spaces [namespaceCount]map[string]*Symbol

	// order is the definition order of the symbols
	order []*Symbol
}

// NewSymbolTable creates an empty symbol table
func NewSymbolTable() *SymbolTable {
	st := &SymbolTable{}
	for i := range st.spaces {
		st.spaces[i] = make(map[string]*Symbol)
	}
	return st
}

// Define adds a symbol to the table.  If the name is already taken in the
// symbol's namespace, the existing symbol is returned and nothing is added.
func (st *SymbolTable) Define(sym *Symbol) (*Symbol, bool) {
	space := st.spaces[sym.Kind.Namespace()]
	if prev, ok := space[sym.Name]; ok {
		return prev, false
	}

	space[sym.Name] = sym
	st.order = append(st.order, sym)
	return sym, true
}

// Lookup finds a symbol in a namespace
func (st *SymbolTable) Lookup(ns Namespace, name string) (*Symbol, bool) {
	sym, ok := st.spaces[ns][name]
	return sym, ok
}

// LookupOther finds a symbol of the given name in any namespace other than
// ns.  It is used to tell kind mismatches from undefined names.
func (st *SymbolTable) LookupOther(ns Namespace, name string) (*Symbol, bool) {
	for i, space := range st.spaces {
		if Namespace(i) == ns {
			continue
		}

		if sym, ok := space[name]; ok {
			return sym, true
		}
	}

	return nil, false
}

// Symbols returns all symbols in definition order
func (st *SymbolTable) Symbols() []*Symbol {
	return append([]*Symbol(nil), st.order...)
}

// OfKind returns the symbols of a kind in definition order
func (st *SymbolTable) OfKind(kind SymbolKind) []*Symbol {
	var syms []*Symbol
	for _, sym := range st.order {
		if sym.Kind == kind {
			syms = append(syms, sym)
		}
	}
	return syms
}

// Sorted returns the symbols of a kind ordered by value and then name
func (st *SymbolTable) Sorted(kind SymbolKind) []*Symbol {
	syms := st.OfKind(kind)
	sort.SliceStable(syms, func(i, j int) bool {
		vi, _ := syms[i].Value()
		vj, _ := syms[j].Value()
		if vi != vj {
			return vi < vj
		}
		return syms[i].Name < syms[j].Name
	})
	return syms
}
