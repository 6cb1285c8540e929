package sem

import (
	"fmt"

	"github.com/AreaLayer/aluasm/logging"
)

// SymbolKind is the kind of definition that produced a symbol
type SymbolKind int

// Enumeration of symbol kinds
const (
	LocalLabel       SymbolKind = iota // label inside a routine
	ExportedLabel                      // routine entry point, visible to other modules
	ImportedExternal                   // routine declared with `.extern`
	DataSymbol                         // named data segment entry
	Constant                           // named integer constant
)

func (k SymbolKind) String() string {
	switch k {
	case LocalLabel:
		return "local label"
	case ExportedLabel:
		return "routine"
	case ImportedExternal:
		return "imported routine"
	case DataSymbol:
		return "data symbol"
	case Constant:
		return "constant"
	}

	return "symbol"
}

// Namespace is a set of symbol kinds whose names must not collide
type Namespace int

// Enumeration of namespaces
const (
	NSCode Namespace = iota
	NSData
	NSConst

	namespaceCount
)

func (ns Namespace) String() string {
	switch ns {
	case NSCode:
		return "code"
	case NSData:
		return "data"
	}

	return "constant"
}

// Namespace returns the namespace symbols of the kind are defined in
func (k SymbolKind) Namespace() Namespace {
	switch k {
	case DataSymbol:
		return NSData
	case Constant:
		return NSConst
	}

	return NSCode
}

// Symbol represents a named definition of a module
type Symbol struct {
	// Name is the name of the symbol (as it is referenced in source code)
	Name string

	Kind SymbolKind

	// Position is the text position where this symbol is defined
	Position *logging.TextPosition

	// Size is the byte size of data symbols
	Size int

	// Used is set once the symbol has been referenced
	Used bool

	resolved bool
	value    int64
}

// Resolve fixes the value of a pending symbol.  A symbol resolves only once.
func (sym *Symbol) Resolve(value int64) error {
	if sym.resolved {
		return fmt.Errorf("symbol `%s` is already resolved", sym.Name)
	}

	sym.resolved = true
	sym.value = value
	return nil
}

// Value returns the resolved value of the symbol: a byte offset for labels
// and data symbols, the integer value for constants
func (sym *Symbol) Value() (int64, bool) {
	return sym.value, sym.resolved
}

// Pending reports whether the symbol has no value yet
func (sym *Symbol) Pending() bool {
	return !sym.resolved
}
