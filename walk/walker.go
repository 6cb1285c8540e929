package walk

import (
	"github.com/AreaLayer/aluasm/ast"
	"github.com/AreaLayer/aluasm/isa"
	"github.com/AreaLayer/aluasm/libs"
	"github.com/AreaLayer/aluasm/logging"
	"github.com/AreaLayer/aluasm/sem"
)

// Options configure the analysis of a module
type Options struct {
	// Selected is the set of extensions enabled for this build.  A zero set
	// enables every extension.
	Selected isa.Set

	// Codec decodes the library IDs pinned with `.lib`
	Codec libs.Codec
}

// Walker is the construct responsible for performing semantic analysis on a
// single module.  It walks the program twice: once to collect declarations
// and lay out code and data, and once to check every instruction.
type Walker struct {
	opts Options
	prog *sem.Program

	// isaeDecls records where each extension was declared
	isaeDecls map[isa.Extension]*logging.TextPosition

	// isaeUsed records which declared extensions are needed by an instruction
	isaeUsed map[isa.Extension]bool

	errors sem.ErrorList
}

// NewWalker creates a new walker for a module of the given name
func NewWalker(name string, opts Options) *Walker {
	if opts.Codec.Hasher == nil || opts.Codec.Encoding == nil {
		opts.Codec = libs.DefaultCodec
	}

	return &Walker{
		opts: opts,
		prog: &sem.Program{
			Name:       name,
			Extensions: isa.BaseSet,
			Symbols:    sem.NewSymbolTable(),
		},
		isaeDecls: make(map[isa.Extension]*logging.TextPosition),
		isaeUsed:  make(map[isa.Extension]bool),
	}
}

// Analyze checks a parsed module and produces its annotated program.  If any
// error is found, the returned error is a sem.ErrorList holding all of them.
func Analyze(name string, p *ast.Program, opts Options) (*sem.Program, error) {
	prog, errs := NewWalker(name, opts).WalkProgram(p)
	if len(errs) > 0 {
		return nil, errs
	}

	return prog, nil
}

// WalkProgram runs both passes over the program
func (w *Walker) WalkProgram(p *ast.Program) (*sem.Program, sem.ErrorList) {
	w.walkDefs(p)
	w.walkRoutines(p)
	w.checkUnused()

	w.errors.Sort()
	return w.prog, w.errors
}
