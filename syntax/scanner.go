package syntax

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// IsLetter tests if a rune is an ASCII character
func IsLetter(r rune) bool {
	return r > '`' && r < '{' || r > '@' && r < '[' // avoid using <= and >= by checking characters on boundaries (same for IsDigit)
}

// IsDigit tests if a rune is an ASCII digit
func IsDigit(r rune) bool {
	return r > '/' && r < ':'
}

// Scanner works like an io.Reader for source text (outputting tokens)
type Scanner struct {
	file *bufio.Reader

	line int
	col  int

	tokBuilder strings.Builder

	curr rune

	// start position of the token being built
	startLine, startCol int

	// afterWord is set when the previous token was an identifier that ended
	// immediately before the current rune; a `.` in that position is a DOT
	// and not the start of a directive
	afterWord bool

	// lastKind is the kind of the last token produced (-1 for none)
	lastKind int
	done     bool

	errors ErrorList
}

// NewScanner creates a scanner for the given source text
func NewScanner(src []byte) *Scanner {
	return &Scanner{file: bufio.NewReader(bytes.NewReader(src)), line: 1, lastKind: -1}
}

// Errors returns the malformed tokens encountered so far
func (s *Scanner) Errors() ErrorList {
	return s.errors
}

// ScanAll reads every token of the source text.  The final token is always an
// EOF preceded by a NEWLINE.
func ScanAll(src []byte) ([]*Token, ErrorList) {
	s := NewScanner(src)

	var toks []*Token
	for {
		tok := s.ReadToken()
		toks = append(toks, tok)

		if tok.Kind == EOF {
			return toks, s.errors
		}
	}
}

// ReadToken reads a single token from the stream.  Once the input is
// exhausted it returns EOF tokens.
func (s *Scanner) ReadToken() *Token {
	for s.readNext() {
		s.startLine, s.startCol = s.line, s.col
		adjacent := s.afterWord
		s.afterWord = false

		var tok *Token
		switch s.curr {
		// ignore whitespace and non-meaningful characters (eg. BOM, form-feeds)
		case ' ', '\t', '\r', '\f', '\v', 65279:
			s.tokBuilder.Reset()
			continue
		case '\n':
			tok = s.getToken(NEWLINE)
		// comments run to the end of the line
		case ';':
			s.skipLine()
			s.tokBuilder.Reset()
			continue
		case '"':
			tok = s.readQuoted('"', STRINGLIT)
		case '\'':
			tok = s.readQuoted('\'', RUNELIT)
		case '.':
			if ahead, more := s.peek(); more && IsLetter(ahead) && !adjacent {
				tok = s.readDirective()
			} else {
				tok = s.getToken(DOT)
			}
		default:
			if IsLetter(s.curr) || s.curr == '_' {
				tok = s.readWord()
				s.afterWord = true
			} else if IsDigit(s.curr) {
				tok = s.readNumberLiteral()
			} else if kind, ok := symbolPatterns[string(s.curr)]; ok {
				tok = s.getToken(kind)
			} else {
				tok = s.malformed(fmt.Sprintf("malformed token: `%c`", s.curr))
			}
		}

		s.tokBuilder.Reset()
		s.lastKind = tok.Kind
		return tok
	}

	// the last line is always terminated so that every line ends in a NEWLINE
	if !s.done {
		s.done = true

		if s.lastKind != -1 && s.lastKind != NEWLINE {
			s.lastKind = NEWLINE
			return &Token{Kind: NEWLINE, Line: s.line, Col: s.col + 1}
		}
	}

	return &Token{Kind: EOF, Line: s.line, Col: s.col + 1}
}

// create a token at the start position from the provided data
func (s *Scanner) makeToken(kind int, value string) *Token {
	return &Token{Kind: kind, Value: value, Line: s.startLine, Col: s.startCol}
}

// collect the contents of the token builder into a string and create a token at
// the start position with the provided kind and token string as its value
func (s *Scanner) getToken(kind int) *Token {
	return s.makeToken(kind, s.tokBuilder.String())
}

// malformed records an error for the token being built, discards the rest of
// the line and returns an ILLEGAL token in its place
func (s *Scanner) malformed(msg string) *Token {
	s.errors = append(s.errors, &ParseError{
		Line:    s.startLine,
		Col:     s.startCol,
		Len:     utf8.RuneCountInString(s.tokBuilder.String()),
		Message: msg,
	})

	tok := s.getToken(ILLEGAL)
	s.skipLine()
	return tok
}

// reads a rune from the source into the token builder and returns whether or
// not there are more runes to be read (true = no EOF, false = EOF)
func (s *Scanner) readNext() bool {
	r, _, err := s.file.ReadRune()
	if err != nil {
		return false
	}

	// do line and column counting after the newline token
	// as been processed (so as to avoid positioning errors)
	if s.curr == '\n' {
		s.line++
		s.col = 0
	}

	s.tokBuilder.WriteRune(r)
	s.curr = r
	s.col++

	return true
}

// peek a rune ahead on the scanner
func (s *Scanner) peek() (rune, bool) {
	r, _, err := s.file.ReadRune()
	if err != nil {
		return 0, false
	}

	s.file.UnreadRune()
	return r, true
}

// skipLine discards everything up to (but not including) the next newline
func (s *Scanner) skipLine() {
	for ahead, more := s.peek(); more && ahead != '\n'; ahead, more = s.peek() {
		s.readNext()
	}
}

// reads an identifier from the input stream; identifiers may contain letters,
// digits and underscores
func (s *Scanner) readWord() *Token {
	for ahead, more := s.peek(); more && (IsLetter(ahead) || IsDigit(ahead) || ahead == '_'); ahead, more = s.peek() {
		s.readNext()
	}

	return s.getToken(IDENTIFIER)
}

// reads a directive keyword such as `.data`
func (s *Scanner) readDirective() *Token {
	for ahead, more := s.peek(); more && IsLetter(ahead); ahead, more = s.peek() {
		s.readNext()
	}

	if kind, ok := directivePatterns[s.tokBuilder.String()]; ok {
		return s.getToken(kind)
	}

	return s.malformed(fmt.Sprintf("unknown directive `%s`", s.tokBuilder.String()))
}

// reads an integer literal with an optional base prefix (0x, 0o, 0b) and
// underscore digit separators
func (s *Scanner) readNumberLiteral() *Token {
	base := 10
	if s.curr == '0' {
		if ahead, more := s.peek(); more {
			switch ahead {
			case 'x', 'X':
				base = 16
			case 'o', 'O':
				base = 8
			case 'b', 'B':
				base = 2
			}

			if base != 10 {
				s.readNext()
			}
		}
	}

	// read everything that could belong to the literal so that a bad digit
	// is reported as part of it rather than as a separate token
	digits := 0
	lastUnderscore := false
	valid := true
	for ahead, more := s.peek(); more && (IsLetter(ahead) || IsDigit(ahead) || ahead == '_'); ahead, more = s.peek() {
		s.readNext()

		if ahead == '_' {
			if lastUnderscore {
				valid = false
			}
			lastUnderscore = true
			continue
		}

		lastUnderscore = false
		if !isDigitOf(ahead, base) {
			valid = false
		}
		digits++
	}

	if base == 10 {
		// the leading digit was consumed before the loop
		digits++
	}

	if !valid || lastUnderscore || digits == 0 {
		return s.malformed(fmt.Sprintf("malformed integer literal: `%s`", s.tokBuilder.String()))
	}

	return s.getToken(INTLIT)
}

func isDigitOf(r rune, base int) bool {
	switch base {
	case 2:
		return r == '0' || r == '1'
	case 8:
		return r >= '0' && r <= '7'
	case 16:
		return IsDigit(r) || r >= 'a' && r <= 'f' || r >= 'A' && r <= 'F'
	}

	return IsDigit(r)
}

// reads a string or rune literal.  The token value is the literal as written
// (quotes included) and is checked to be a valid Go-style quoted literal.
func (s *Scanner) readQuoted(quote rune, kind int) *Token {
	for {
		ahead, more := s.peek()
		if !more || ahead == '\n' {
			return s.malformed(fmt.Sprintf("unterminated %s", specialNames[kind]))
		}

		s.readNext()

		if ahead == '\\' {
			if next, more := s.peek(); more && next != '\n' {
				s.readNext()
			}
		} else if ahead == quote {
			break
		}
	}

	raw := s.tokBuilder.String()
	value, err := strconv.Unquote(raw)
	if err != nil || kind == RUNELIT && utf8.RuneCountInString(value) != 1 {
		return s.malformed(fmt.Sprintf("malformed %s: %s", specialNames[kind], raw))
	}

	return s.getToken(kind)
}
