package walk

import (
	"github.com/AreaLayer/aluasm/sem"
)

// define adds a symbol to the module's table.  It returns false and reports
// the error if the name is already taken in the symbol's namespace.
func (w *Walker) define(sym *sem.Symbol) bool {
	if prev, ok := w.prog.Symbols.Define(sym); !ok {
		w.logRepeatDef(sym.Name, sym.Position, prev.Position)
		return false
	}

	return true
}

// defineResolved defines a symbol whose value is already known
func (w *Walker) defineResolved(sym *sem.Symbol, value int64) bool {
	if !w.define(sym) {
		return false
	}

	// a freshly defined symbol is always pending
	sym.Resolve(value)
	return true
}

// lookup finds a symbol in a namespace and marks it as used
func (w *Walker) lookup(ns sem.Namespace, name string) (*sem.Symbol, bool) {
	sym, ok := w.prog.Symbols.Lookup(ns, name)
	if ok {
		sym.Used = true
	}

	return sym, ok
}
