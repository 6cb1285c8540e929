package link

import (
	"fmt"
	"strings"
)

// ErrorKind classifies link errors
type ErrorKind int

// Enumeration of link error kinds
const (
	// UndefinedExternal is a library, routine or import that cannot be found
	UndefinedExternal ErrorKind = iota

	// DuplicateExport is a name exported by more than one merged module
	DuplicateExport

	// IsaExtensionMismatch is an extension the environment does not support
	IsaExtensionMismatch

	// CyclicDependency is a chain of inline modules calling back into itself
	CyclicDependency

	// Internal is an inconsistency in the linked modules
	Internal
)

func (k ErrorKind) String() string {
	switch k {
	case UndefinedExternal:
		return "undefined external"
	case DuplicateExport:
		return "duplicate export"
	case IsaExtensionMismatch:
		return "ISA extension mismatch"
	case CyclicDependency:
		return "cyclic dependency"
	}

	return "internal error"
}

// LinkError is the reason a link job failed.  Link jobs stop at their first
// error.
type LinkError struct {
	Kind ErrorKind

	// Symbol is the name the error is about, if any
	Symbol string

	// Module is the name of the module the error was found in, if any
	Module string

	// Offset is the byte offset of the instruction involved or -1
	Offset int

	Message string
}

func (e *LinkError) Error() string {
	var sb strings.Builder

	if e.Module != "" {
		sb.WriteString(e.Module)
		sb.WriteString(": ")
	}

	if e.Offset >= 0 {
		fmt.Fprintf(&sb, "0x%04x: ", e.Offset)
	}

	sb.WriteString(e.Kind.String())
	if e.Symbol != "" {
		fmt.Fprintf(&sb, " `%s`", e.Symbol)
	}

	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}

	return sb.String()
}

func newError(kind ErrorKind, module, symbol string, offset int, format string, args ...interface{}) *LinkError {
	return &LinkError{
		Kind:    kind,
		Module:  module,
		Symbol:  symbol,
		Offset:  offset,
		Message: fmt.Sprintf(format, args...),
	}
}
