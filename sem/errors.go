package sem

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AreaLayer/aluasm/logging"
)

// ErrorKind classifies semantic errors
type ErrorKind int

// Enumeration of semantic error kinds
const (
	ErrUndefined       ErrorKind = iota // reference to an undefined symbol
	ErrDuplicate                        // name defined twice in a namespace
	ErrKindMismatch                     // symbol of the wrong kind
	ErrOutOfRange                       // value does not fit its slot or type
	ErrRegister                         // unknown bank or index outside the bank
	ErrIsa                              // extension unknown, undeclared or not enabled
	ErrUnknownMnemonic                  // no such instruction
	ErrOperandCount                     // wrong number of operands
	ErrOperandKind                      // operand of the wrong shape for its slot
	ErrLibrary                          // unknown library alias or invalid library ID
	ErrDataType                         // unknown data type or value of the wrong kind
	ErrLimit                            // module exceeds a segment limit
	ErrEmptyCode                        // routine or label with no instruction to address
)

var errorKindNames = map[ErrorKind]string{
	ErrUndefined:       "undefined symbol",
	ErrDuplicate:       "duplicate definition",
	ErrKindMismatch:    "kind mismatch",
	ErrOutOfRange:      "out of range",
	ErrRegister:        "bad register",
	ErrIsa:             "ISA extension",
	ErrUnknownMnemonic: "unknown mnemonic",
	ErrOperandCount:    "operand count",
	ErrOperandKind:     "operand kind",
	ErrLibrary:         "library",
	ErrDataType:        "data type",
	ErrLimit:           "limit",
	ErrEmptyCode:       "empty code",
}

func (k ErrorKind) String() string {
	return errorKindNames[k]
}

// LogKind maps the error kind onto a log message kind
func (k ErrorKind) LogKind() int {
	switch k {
	case ErrUndefined:
		return logging.LMKName
	case ErrDuplicate, ErrEmptyCode:
		return logging.LMKDef
	case ErrKindMismatch, ErrOperandKind, ErrOperandCount, ErrUnknownMnemonic:
		return logging.LMKOperand
	case ErrOutOfRange, ErrLimit:
		return logging.LMKRange
	case ErrRegister:
		return logging.LMKRegister
	case ErrIsa:
		return logging.LMKIsa
	case ErrLibrary:
		return logging.LMKLibrary
	}

	return logging.LMKUsage
}

// SemanticError is an error found while analyzing a module
type SemanticError struct {
	Kind     ErrorKind
	Message  string
	Position *logging.TextPosition
}

func (e *SemanticError) Error() string {
	if e.Position == nil {
		return e.Message
	}

	return fmt.Sprintf("%d:%d: %s", e.Position.StartLn, e.Position.StartCol, e.Message)
}

// ErrorList is the list of all semantic errors of a module
type ErrorList []*SemanticError

func (el ErrorList) Error() string {
	msgs := make([]string, len(el))
	for i, e := range el {
		msgs[i] = e.Error()
	}

	return strings.Join(msgs, "\n")
}

// Sort orders the errors by position
func (el ErrorList) Sort() {
	sort.SliceStable(el, func(i, j int) bool {
		pi, pj := el[i].Position, el[j].Position
		if pi == nil || pj == nil {
			return pj != nil
		}
		if pi.StartLn != pj.StartLn {
			return pi.StartLn < pj.StartLn
		}
		return pi.StartCol < pj.StartCol
	})
}

// Kinds returns the kind of each error, in order
func (el ErrorList) Kinds() []ErrorKind {
	kinds := make([]ErrorKind, len(el))
	for i, e := range el {
		kinds[i] = e.Kind
	}
	return kinds
}

// Warning is a diagnostic that does not stop assembly
type Warning struct {
	Message  string
	Position *logging.TextPosition
}

func (w *Warning) String() string {
	if w.Position == nil {
		return w.Message
	}

	return fmt.Sprintf("%d:%d: %s", w.Position.StartLn, w.Position.StartCol, w.Message)
}
