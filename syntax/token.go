package syntax

import "fmt"

// Token represents a token read in by the scanner
type Token struct {
	Kind  int
	Value string

	// Line is line number starting at 1
	Line int

	// Col is the column of the first character of the token starting at 1.
	// Tabs count as a single column.
	Col int
}

// The various kinds of a tokens supported by the scanner
const (
	// whitespace
	NEWLINE = iota

	// directives
	ISAE
	LIB
	EXTERN
	CONST
	DATA
	ROUTINE
	MAIN

	// punctuation
	COLON
	COMMA
	LBRACKET
	RBRACKET
	AT
	DOT
	MINUS
	ASSIGN

	// literals (and identifiers)
	IDENTIFIER
	STRINGLIT
	INTLIT
	RUNELIT

	// produced for malformed input; the scanner has already reported it
	ILLEGAL

	// used in parsing algorithm
	EOF
)

// token patterns for directives
var directivePatterns = map[string]int{
	".isae":    ISAE,
	".lib":     LIB,
	".extern":  EXTERN,
	".const":   CONST,
	".data":    DATA,
	".routine": ROUTINE,
	".main":    MAIN,
}

// token patterns for symbolic items
var symbolPatterns = map[string]int{
	":": COLON,
	",": COMMA,
	"[": LBRACKET,
	"]": RBRACKET,
	"@": AT,
	".": DOT,
	"-": MINUS,
	"=": ASSIGN,
}

var specialNames = map[int]string{
	NEWLINE:    "end of line",
	IDENTIFIER: "identifier",
	STRINGLIT:  "string literal",
	INTLIT:     "integer literal",
	RUNELIT:    "rune literal",
	ILLEGAL:    "malformed token",
	EOF:        "end of file",
}

// TokenName returns a readable name of a token kind
func TokenName(kind int) string {
	if name, ok := specialNames[kind]; ok {
		return name
	}

	for pattern, k := range directivePatterns {
		if k == kind {
			return "`" + pattern + "`"
		}
	}

	for pattern, k := range symbolPatterns {
		if k == kind {
			return "`" + pattern + "`"
		}
	}

	return fmt.Sprintf("token(%d)", kind)
}

// describe returns the text used to refer to a token in errors
func (t *Token) describe() string {
	switch t.Kind {
	case NEWLINE, EOF:
		return specialNames[t.Kind]
	}

	return "`" + t.Value + "`"
}
