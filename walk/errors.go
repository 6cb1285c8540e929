package walk

import (
	"fmt"

	"github.com/AreaLayer/aluasm/logging"
	"github.com/AreaLayer/aluasm/sem"
)

// logError records a semantic error in the current module
func (w *Walker) logError(kind sem.ErrorKind, pos *logging.TextPosition, format string, args ...interface{}) {
	w.errors = append(w.errors, &sem.SemanticError{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Position: pos,
	})
}

// logWarning records a warning in the current module
func (w *Walker) logWarning(pos *logging.TextPosition, format string, args ...interface{}) {
	w.prog.Warnings = append(w.prog.Warnings, &sem.Warning{
		Message:  fmt.Sprintf(format, args...),
		Position: pos,
	})
}

// logRepeatDef reports a symbol defined multiple times
func (w *Walker) logRepeatDef(name string, pos, prev *logging.TextPosition) {
	if prev != nil {
		w.logError(sem.ErrDuplicate, pos, "`%s` is already defined on line %d", name, prev.StartLn)
	} else {
		w.logError(sem.ErrDuplicate, pos, "`%s` is already defined", name)
	}
}

// logUndefined reports a reference to a name that does not exist in the
// expected namespace.  If the name exists in another namespace the error is a
// kind mismatch instead.
func (w *Walker) logUndefined(ns sem.Namespace, want, name string, pos *logging.TextPosition) {
	if other, ok := w.prog.Symbols.LookupOther(ns, name); ok {
		w.logError(sem.ErrKindMismatch, pos, "`%s` is a %s, not a %s", name, other.Kind, want)
		return
	}

	w.logError(sem.ErrUndefined, pos, "undefined %s `%s`", want, name)
}
