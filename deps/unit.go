package deps

import (
	"path/filepath"

	"github.com/AreaLayer/aluasm/ast"
	"github.com/AreaLayer/aluasm/common"
	"github.com/AreaLayer/aluasm/logging"
	"github.com/AreaLayer/aluasm/object"
	"github.com/AreaLayer/aluasm/sem"
)

// Unit represents a single source file passing through the assembler.  Each
// stage fills in its result; a unit is only ever touched by one goroutine.
type Unit struct {
	// Name is the module name: the file name without its extension
	Name string

	// FilePath is the absolute path to the file
	FilePath string

	// LogContext is the log context for this file
	LogContext *logging.LogContext

	// AST is the typed syntax tree of the file
	AST *ast.Program

	// Program is the analyzed form of the file
	Program *sem.Program

	// Module is the encoded object module
	Module *object.Module
}

// NewUnit creates a unit for the source file at the given absolute path
func NewUnit(path string, src []byte) *Unit {
	return &Unit{
		Name:       filepath.Base(common.ReplaceExt(path, "")),
		FilePath:   path,
		LogContext: &logging.LogContext{FilePath: path, Source: src},
	}
}
