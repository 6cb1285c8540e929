package syntax

import (
	_ "embed"
	"strings"
	"sync"
)

//go:embed grammar.ebnf
var grammarSource string

// Names of the productions the parser is driven by
const (
	StartRule = "program"
	LineRule  = "line"
)

var (
	defaultGrammar    Grammar
	defaultGrammarErr error
	loadOnce          sync.Once
)

// DefaultGrammar returns the assembly language grammar.  It is loaded once
// and shared; callers must not modify it.
func DefaultGrammar() (Grammar, error) {
	loadOnce.Do(func() {
		defaultGrammar, defaultGrammarErr = LoadGrammar(strings.NewReader(grammarSource))
	})

	return defaultGrammar, defaultGrammarErr
}

// Parse scans and parses source text with the default grammar.  All syntax
// errors of the file are returned, in source order.
func Parse(src []byte) (*ASTBranch, ErrorList) {
	g, err := DefaultGrammar()
	if err != nil {
		return nil, ErrorList{{Line: 0, Col: 0, Message: "loading grammar: " + err.Error()}}
	}

	toks, scanErrs := ScanAll(src)
	tree, parseErrs := NewParser(g, StartRule, LineRule).Parse(toks)

	errs := append(scanErrs, parseErrs...)
	errs.Sort()
	return tree, errs
}
