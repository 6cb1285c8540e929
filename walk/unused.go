package walk

import (
	"github.com/AreaLayer/aluasm/sem"
)

// checkUnused warns about declarations nothing refers to
func (w *Walker) checkUnused() {
	for _, sym := range w.prog.Symbols.Symbols() {
		if sym.Used {
			continue
		}

		switch sym.Kind {
		case sem.Constant, sem.DataSymbol, sem.ImportedExternal:
			w.logWarning(sym.Position, "%s `%s` is never used", sym.Kind, sym.Name)
		}
	}

	for _, lib := range w.prog.Libs {
		if !lib.Used {
			w.logWarning(lib.Position, "library `%s` is never called", lib.Alias)
		}
	}

	for _, ext := range w.prog.Extensions.Extensions() {
		if pos, declared := w.isaeDecls[ext]; declared && !w.isaeUsed[ext] {
			w.logWarning(pos, "ISA extension `%s` is declared but never used", ext)
		}
	}
}
