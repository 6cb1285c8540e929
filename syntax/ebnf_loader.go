package syntax

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// simple scanner/parser to read in and create grammar
type gramLoader struct {
	file    *bufio.Reader
	grammar Grammar
	curr    rune
	line    uint
	err     error
}

// LoadGrammar reads a grammar written in EBNF.  Productions have the form
// `name = ... ;`, terminals are quoted (`'.data'`, `','`, `'IDENTIFIER'`),
// `( )` groups, `[ ]` is optional, `{ }` repeats, `|` alternates and comments
// are written `(* ... *)`.
func LoadGrammar(r io.Reader) (Grammar, error) {
	gl := &gramLoader{file: bufio.NewReader(r), grammar: make(map[string]Production), line: 1}

	if err := gl.load(); err != nil {
		return nil, err
	}

	if gl.err != nil {
		return nil, gl.err
	}

	if err := gl.checkReferences(); err != nil {
		return nil, err
	}

	return gl.grammar, nil
}

// load the grammar into a grammar struct
func (gl *gramLoader) load() error {
	for gl.next() {
		switch gl.curr {
		// skip whitespace and byte order marks, lines counted in next()
		case ' ', '\t', '\n', '\r', 65279:
			// break
		// read comments (starting with `(*`)
		case '(':
			if b, berr := gl.peek(); berr == nil && b == '*' {
				gl.skipComment()
				break
			}

			fallthrough
		// outer loading algorithm only expects whitespace, comments and
		// productions, so we only look to see if we have a valid beginning to a
		// production here instead of checking more generally
		default:
			if IsLetter(gl.curr) {
				if perr := gl.readProduction(); perr != nil {
					return perr
				}
			} else {
				return gl.unexpectedToken()
			}
		}
	}

	return nil
}

// checkReferences makes sure every nonterminal names a production
func (gl *gramLoader) checkReferences() error {
	var undefined []string
	seen := make(map[Nonterminal]bool)

	for _, prod := range gl.grammar {
		nonterminals(prod, func(nt Nonterminal) {
			if _, ok := gl.grammar[string(nt)]; !ok && !seen[nt] {
				seen[nt] = true
				undefined = append(undefined, string(nt))
			}
		})
	}

	if len(undefined) > 0 {
		sort.Strings(undefined)
		return fmt.Errorf("undefined productions: %s", strings.Join(undefined, ", "))
	}

	return nil
}

// read a rune from the stream and store it
func (gl *gramLoader) next() bool {
	r, _, err := gl.file.ReadRune()

	if err != nil {
		if err != io.EOF {
			gl.err = err
		}

		return false
	}

	if r == '\n' {
		gl.line++
	}

	gl.curr = r
	return true
}

// peek and convert to rune if successful, return error if not (rune is 0 then)
func (gl *gramLoader) peek() (rune, error) {
	b, berr := gl.file.Peek(1)

	if berr != nil {
		return 0, berr
	}

	return rune(b[0]), nil
}

// read a comment to conclusion
func (gl *gramLoader) skipComment() {
	// skip opening '*'
	gl.next()

	for gl.next() {
		if gl.curr == '*' {
			ahead, err := gl.peek()

			if err == nil && ahead == ')' {
				gl.next()
				return
			}
		}
	}
}

// returns an unexpected token error
func (gl *gramLoader) unexpectedToken() error {
	return fmt.Errorf("unexpected token `%c` on line %d", gl.curr, gl.line)
}

// load and parse a production
func (gl *gramLoader) readProduction() error {
	prodNameBuilder := strings.Builder{}

	// know first character is valid so use "do-while" pattern here
	for ok := true; ok; ok = gl.next() {
		if IsLetter(gl.curr) || gl.curr == '_' {
			prodNameBuilder.WriteRune(gl.curr)
		} else if gl.curr == '=' {
			// production is just group ending in ';'
			gelems, err := gl.parseGroupContent(';')
			if err != nil {
				return err
			}

			name := prodNameBuilder.String()
			if _, ok := gl.grammar[name]; ok {
				return fmt.Errorf("production `%s` redefined on line %d", name, gl.line)
			}

			gl.grammar[name] = gelems
			return nil
		} else if gl.curr == ' ' || gl.curr == '\t' {
			// ignore trailing spaces (written for syntactic appeal)
			continue
		} else {
			return gl.unexpectedToken()
		}
	}

	// if we reach here, the loop did not exit properly (ran out of tokens)
	return errors.New("unexpected EOF")
}

// parse a group or production to a closer
func (gl *gramLoader) parseGroupContent(expectedCloser rune) ([]GrammaticalElement, error) {
	var groupContent []GrammaticalElement

	for gl.next() {
		switch gl.curr {
		case ' ', '\t', '\n', '\r':
			// ignore whitespace
			continue
		case '(':
			if b, berr := gl.peek(); berr == nil && b == '*' {
				gl.skipComment()
				continue
			}

			gelems, err := gl.parseGroupContent(')')
			if err != nil {
				return nil, err
			}

			groupContent = append(groupContent, NewGroupingElement(GKindGroup, gelems))
		case '[':
			gelems, err := gl.parseGroupContent(']')
			if err != nil {
				return nil, err
			}

			groupContent = append(groupContent, NewGroupingElement(GKindOptional, gelems))
		case '{':
			gelems, err := gl.parseGroupContent('}')
			if err != nil {
				return nil, err
			}

			groupContent = append(groupContent, NewGroupingElement(GKindRepeat, gelems))
		// alternators interrupt the current parsing group and create a new one
		// to the same closer so that they can combine the tailing elements with
		// the elements before them.  alternators bubble upward so they are
		// always the only element of their group.
		case '|':
			if len(groupContent) == 0 {
				return nil, fmt.Errorf("unable to allow empty alternator branch on line %d", gl.line)
			}

			tailContent, err := gl.parseGroupContent(expectedCloser)
			if err != nil {
				return nil, err
			}

			if alternator, ok := tailContent[0].(*AlternatorElement); ok {
				alternator.PushFront(groupContent)
				return []GrammaticalElement{alternator}, nil
			}

			return []GrammaticalElement{NewAlternatorElement(groupContent, tailContent)}, nil
		case '\'':
			terminal, err := gl.readTerminal()
			if err != nil {
				return nil, err
			}

			groupContent = append(groupContent, Terminal(terminal))
		case expectedCloser:
			// if we encounter an empty production or group than we cannot close
			// on it
			if len(groupContent) == 0 {
				return nil, fmt.Errorf("unable to allow empty grammatical group on line %d", gl.line)
			}

			return groupContent, nil
		default:
			// nonterminals only contain letters and underscores
			if IsLetter(gl.curr) || gl.curr == '_' {
				groupContent = append(groupContent, Nonterminal(gl.readNonterminal()))
			} else {
				return nil, gl.unexpectedToken()
			}
		}
	}

	return nil, errors.New("grammatical group not closed before EOF")
}

var specialTerminals = map[string]int{
	"IDENTIFIER": IDENTIFIER,
	"NEWLINE":    NEWLINE,
	"STRINGLIT":  STRINGLIT,
	"INTLIT":     INTLIT,
	"RUNELIT":    RUNELIT,
}

func (gl *gramLoader) readTerminal() (int, error) {
	// ignore the leading `'` in our terminal (start with empty builder)
	terminalBuilder := strings.Builder{}

	for gl.next() {
		// the ending `'` is skipped implicitly (never included in token,
		// dropped in next loop cycle)
		if gl.curr == '\'' {
			// if the terminal is blank, then we have an epsilon
			if terminalBuilder.Len() == 0 {
				return -1, nil
			}

			terminal := terminalBuilder.String()

			if kind, ok := directivePatterns[terminal]; ok {
				return kind, nil
			} else if kind, ok := symbolPatterns[terminal]; ok {
				return kind, nil
			} else if kind, ok := specialTerminals[terminal]; ok {
				return kind, nil
			}

			return 0, fmt.Errorf("undefined terminal `%s` on line %d", terminal, gl.line)
		}

		terminalBuilder.WriteRune(gl.curr)
	}

	// if the token is not closed before EOF, then it is malformed
	return 0, errors.New("unexpected EOF")
}

func (gl *gramLoader) readNonterminal() string {
	nonterminalBuilder := strings.Builder{}

	// to read a nonterminal, we assume the current character is valid
	// (guaranteed be caller or loop logic) and add it to the nonterminal. Then,
	// we peek the next character: if it is valid, we continue looping. If it is
	// not, we exit and avoid adding it.
	for {
		nonterminalBuilder.WriteRune(gl.curr)

		c, err := gl.peek()
		if err == nil && (IsLetter(c) || c == '_') {
			gl.next()
		} else {
			break
		}
	}

	return nonterminalBuilder.String()
}
