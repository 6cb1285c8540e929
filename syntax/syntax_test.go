package syntax

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []*Token) []int {
	ks := make([]int, len(toks))
	for i, tok := range toks {
		ks[i] = tok.Kind
	}
	return ks
}

func TestScanLine(t *testing.T) {
	toks, errs := ScanAll([]byte("start: jmp start ; comment\n"))
	require.Empty(t, errs)
	assert.Equal(t, []int{IDENTIFIER, COLON, IDENTIFIER, IDENTIFIER, NEWLINE, EOF}, kinds(toks))

	assert.Equal(t, 1, toks[0].Col)
	assert.Equal(t, 6, toks[1].Col)
	assert.Equal(t, 8, toks[2].Col)
	assert.Equal(t, 12, toks[3].Col)
	assert.Equal(t, 27, toks[4].Col)
}

func TestScanDirectivesAndCalls(t *testing.T) {
	toks, errs := ScanAll([]byte(".data msg str \"hi\\n\"\n\tcall lib.routine\nput a8[1], -'a'"))
	require.Empty(t, errs)
	assert.Equal(t, []int{
		DATA, IDENTIFIER, IDENTIFIER, STRINGLIT, NEWLINE,
		IDENTIFIER, IDENTIFIER, DOT, IDENTIFIER, NEWLINE,
		IDENTIFIER, IDENTIFIER, LBRACKET, INTLIT, RBRACKET, COMMA, MINUS, RUNELIT, NEWLINE,
		EOF,
	}, kinds(toks))

	assert.Equal(t, `"hi\n"`, toks[3].Value)
	assert.Equal(t, 2, toks[5].Line)
	assert.Equal(t, 2, toks[5].Col)
}

func TestScanNumbers(t *testing.T) {
	for _, lit := range []string{"0", "42", "1_000", "0xFF_ff", "0o17", "0b1010"} {
		toks, errs := ScanAll([]byte(lit))
		require.Empty(t, errs, lit)
		assert.Equal(t, INTLIT, toks[0].Kind, lit)
		assert.Equal(t, lit, toks[0].Value)
	}

	for _, lit := range []string{"0x", "0b102", "12ab", "1__0", "7_"} {
		toks, errs := ScanAll([]byte(lit))
		require.Len(t, errs, 1, lit)
		assert.Equal(t, ILLEGAL, toks[0].Kind, lit)
	}
}

func TestScanMalformed(t *testing.T) {
	toks, errs := ScanAll([]byte("put a8[0], $ 5\n.bogus\n\"open\n'ab'\n"))
	require.Len(t, errs, 4)
	assert.Equal(t, 1, errs[0].Line)
	assert.Equal(t, 12, errs[0].Col)
	assert.Equal(t, "unknown directive `.bogus`", errs[1].Message)
	assert.Equal(t, 3, errs[2].Line)
	assert.Equal(t, 4, errs[3].Line)

	// the rest of a malformed line is discarded
	assert.Equal(t, []int{IDENTIFIER, IDENTIFIER, LBRACKET, INTLIT, RBRACKET, COMMA, ILLEGAL, NEWLINE}, kinds(toks[:8]))
}

func TestLoadGrammar(t *testing.T) {
	g, err := LoadGrammar(strings.NewReader(`
		(* a comment *)
		pair = 'IDENTIFIER' ( ':' | '=' ) value ;
		value = 'INTLIT' | 'STRINGLIT' | '' ;
	`))
	require.NoError(t, err)
	assert.Len(t, g, 2)

	_, err = LoadGrammar(strings.NewReader(`a = b ;`))
	assert.EqualError(t, err, "undefined productions: b")

	_, err = LoadGrammar(strings.NewReader(`a = 'FLOATLIT' ;`))
	assert.Error(t, err)

	_, err = LoadGrammar(strings.NewReader(`a = 'INTLIT' ; a = 'RUNELIT' ;`))
	assert.Error(t, err)

	_, err = LoadGrammar(strings.NewReader(`a = ( 'INTLIT' ;`))
	assert.Error(t, err)
}

func TestDefaultGrammar(t *testing.T) {
	g, err := DefaultGrammar()
	require.NoError(t, err)

	for _, name := range []string{StartRule, LineRule, "directive", "instruction", "operand", "immediate"} {
		assert.Contains(t, g, name)
	}
}

func TestParseProgram(t *testing.T) {
	src := `.isae alu
.lib std "alu1qqq"
.main
start:
	put a64[0], 0x10 ; load
	call std.print
	jmp start
`
	tree, errs := Parse([]byte(src))
	require.Empty(t, errs)
	require.Equal(t, StartRule, tree.Name)
	require.Equal(t, 7, tree.Len())

	// `start:` is a line holding only a label
	labelLine := tree.BranchAt(3)
	assert.Equal(t, "label", labelLine.BranchAt(0).Name)

	// call std.print
	stmt := tree.BranchAt(5).BranchAt(0)
	assert.Equal(t, "statement", stmt.Name)
	instr := stmt.BranchAt(0)
	assert.Equal(t, "instruction", instr.Name)
	assert.Equal(t, "call", instr.LeafAt(0).Value)
	operand := instr.BranchAt(1)
	assert.Equal(t, "lib_call", operand.BranchAt(0).Name)
}

func TestParseRecovery(t *testing.T) {
	src := ".main\n  put a64[3] 5\n  ret\n  mov ,\n"
	tree, errs := Parse([]byte(src))
	require.Len(t, errs, 2)

	assert.Equal(t, 2, errs[0].Line)
	assert.Equal(t, 14, errs[0].Col)
	assert.Contains(t, errs[0].Expected, "end of line")
	assert.Equal(t, "`5`", errs[0].Found)

	assert.Equal(t, 4, errs[1].Line)
	assert.Equal(t, 7, errs[1].Col)
	assert.Contains(t, errs[1].Expected, "identifier")

	// the well formed lines are kept
	assert.Equal(t, 2, tree.Len())
}

func TestParseErrorRule(t *testing.T) {
	_, errs := Parse([]byte("\tret ,\n"))
	require.Len(t, errs, 1)
	assert.Equal(t, "instruction", errs[0].Rule)
	assert.Contains(t, errs[0].Expected, "end of line")
	assert.Contains(t, errs[0].Describe(), "in instruction")

	_, errs = Parse([]byte(".lib\n"))
	require.Len(t, errs, 1)
	assert.Equal(t, "lib_dir", errs[0].Rule)
	assert.Equal(t, []string{"identifier"}, errs[0].Expected)
}

func TestParseDoesNotRepeatScanErrors(t *testing.T) {
	_, errs := Parse([]byte("put a8[0], 0xZZ\n.bogus\nret\n"))
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Message, "malformed integer literal")
	assert.Contains(t, errs[1].Message, "unknown directive")
}

func TestParseEmpty(t *testing.T) {
	tree, errs := Parse(nil)
	assert.Empty(t, errs)
	assert.Equal(t, 0, tree.Len())
}
