package syntax

import (
	"sort"
)

// Parser is a backtracking parser that interprets a Grammar directly over a
// token stream.  Results of productions are memoized by position so that
// backtracking over ordered alternatives stays linear.
type Parser struct {
	grammar Grammar

	// start is the production parsed for a whole file
	start string

	// sync is the production used for error recovery: when it fails, the
	// failure is reported and parsing resumes after the next NEWLINE
	sync string

	toks []*Token
	pos  int

	memo map[memoKey]memoEntry

	// the furthest failure seen since the last reported error
	farthest   int
	expected   []string
	expectedIn string
	ruleStack  []string

	// completed is the innermost rule that matched up to the furthest
	// failure: the failure follows it rather than being inside another rule
	completed string

	errors ErrorList
}

type memoKey struct {
	rule string
	pos  int
}

type memoEntry struct {
	branch *ASTBranch
	end    int
	ok     bool
}

// NewParser creates a new parser for the given grammar
func NewParser(g Grammar, start, sync string) *Parser {
	return &Parser{grammar: g, start: start, sync: sync}
}

// Parse parses a token stream ending in EOF.  The tree is returned even when
// there are errors; lines that failed to parse are left out of it.
func (p *Parser) Parse(toks []*Token) (*ASTBranch, ErrorList) {
	p.toks = toks
	p.pos = 0
	p.memo = make(map[memoKey]memoEntry)
	p.errors = nil
	p.resetFailure()

	root, ok := p.evalRule(p.start)
	if !ok || p.curr().Kind != EOF {
		p.reportFailure()
	}

	if root == nil {
		root = &ASTBranch{Name: p.start}
	}

	return root, p.errors
}

func (p *Parser) curr() *Token {
	return p.toks[p.pos]
}

// evalRule evaluates a production and wraps its content in a named branch
func (p *Parser) evalRule(name string) (*ASTBranch, bool) {
	key := memoKey{rule: name, pos: p.pos}
	if entry, ok := p.memo[key]; ok {
		if entry.ok {
			p.pos = entry.end
		}
		return entry.branch, entry.ok
	}

	startPos := p.pos

	p.ruleStack = append(p.ruleStack, name)
	content, ok := p.evalElements(p.grammar[name])
	p.ruleStack = p.ruleStack[:len(p.ruleStack)-1]

	var branch *ASTBranch
	if ok {
		branch = &ASTBranch{Name: name, Content: content}

		if p.pos == p.farthest && p.pos > startPos && p.completed == "" {
			p.completed = name
		}
	} else if name == p.sync && p.toks[startPos].Kind != EOF {
		p.reportFailure()
		p.pos = startPos
		p.skipLine()
		branch, ok = &ASTBranch{Name: name}, true
	}

	p.memo[key] = memoEntry{branch: branch, end: p.pos, ok: ok}
	return branch, ok
}

// evalElements evaluates a sequence of elements.  On failure the position is
// restored.
func (p *Parser) evalElements(elems []GrammaticalElement) ([]ASTNode, bool) {
	startPos := p.pos

	var content []ASTNode
	for _, elem := range elems {
		nodes, ok := p.evalElement(elem)
		if !ok {
			p.pos = startPos
			return nil, false
		}

		content = append(content, nodes...)
	}

	return content, true
}

func (p *Parser) evalElement(elem GrammaticalElement) ([]ASTNode, bool) {
	switch v := elem.(type) {
	case Terminal:
		if v == -1 {
			return nil, true
		}

		if tok := p.curr(); tok.Kind == int(v) {
			p.pos++
			return []ASTNode{(*ASTLeaf)(tok)}, true
		}

		p.fail(TokenName(int(v)))
		return nil, false
	case Nonterminal:
		branch, ok := p.evalRule(string(v))
		if !ok {
			return nil, false
		}

		// empty branches are pruned from the tree
		if len(branch.Content) == 0 {
			return nil, true
		}

		return []ASTNode{branch}, true
	case *GroupingElement:
		switch v.kind {
		case GKindGroup:
			return p.evalElements(v.elements)
		case GKindOptional:
			if nodes, ok := p.evalElements(v.elements); ok {
				return nodes, true
			}

			return nil, true
		case GKindRepeat:
			var content []ASTNode
			for {
				startPos := p.pos
				nodes, ok := p.evalElements(v.elements)

				// an iteration that consumes nothing would repeat forever
				if !ok || p.pos == startPos {
					p.pos = startPos
					return content, true
				}

				content = append(content, nodes...)
			}
		}
	case *AlternatorElement:
		for _, group := range v.groups {
			if nodes, ok := p.evalElements(group); ok {
				return nodes, true
			}
		}

		return nil, false
	}

	return nil, false
}

// fail records that the named item was expected at the current position
func (p *Parser) fail(name string) {
	rule := ""
	if len(p.ruleStack) > 0 {
		rule = p.ruleStack[len(p.ruleStack)-1]
	}

	if p.pos > p.farthest {
		p.farthest = p.pos
		p.expected = []string{name}
		p.expectedIn = rule
		p.completed = ""
		return
	}

	if p.pos == p.farthest {
		for _, e := range p.expected {
			if e == name {
				return
			}
		}

		p.expected = append(p.expected, name)
	}
}

// reportFailure turns the furthest recorded failure into an error.  Failures
// on malformed tokens were already reported by the scanner.
func (p *Parser) reportFailure() {
	if p.farthest < 0 {
		p.farthest = p.pos
	}

	tok := p.toks[p.farthest]
	if tok.Kind != ILLEGAL {
		expected := append([]string(nil), p.expected...)
		sort.Strings(expected)

		rule := p.expectedIn
		if p.completed != "" {
			rule = p.completed
		}

		p.errors = append(p.errors, &ParseError{
			Line:     tok.Line,
			Col:      tok.Col,
			Len:      len(tok.Value),
			Rule:     rule,
			Expected: expected,
			Found:    tok.describe(),
		})
	}

	p.resetFailure()
}

func (p *Parser) resetFailure() {
	p.farthest = -1
	p.expected = nil
	p.expectedIn = ""
	p.completed = ""
}

// skipLine moves past the next NEWLINE (or up to EOF)
func (p *Parser) skipLine() {
	for p.curr().Kind != EOF {
		tok := p.curr()
		p.pos++

		if tok.Kind == NEWLINE {
			return
		}
	}
}
