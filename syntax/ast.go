package syntax

import (
	"unicode/utf8"

	"github.com/AreaLayer/aluasm/logging"
)

// ASTNode represents a piece of the parse tree
type ASTNode interface {
	// Position should span the entire ASTNode (meaningfully)
	Position() *logging.TextPosition
}

// ASTLeaf is simply a token in the tree (at the end of branch)
type ASTLeaf Token

// Position of a leaf is just the position of the token it contains
func (a *ASTLeaf) Position() *logging.TextPosition {
	return TextPositionOfToken((*Token)(a))
}

// TextPositionOfToken takes in a token and returns its text position
func TextPositionOfToken(tok *Token) *logging.TextPosition {
	length := utf8.RuneCountInString(tok.Value)
	if length == 0 || tok.Kind == NEWLINE {
		length = 1
	}

	return &logging.TextPosition{StartLn: tok.Line, StartCol: tok.Col, EndLn: tok.Line, EndCol: tok.Col + length}
}

// ASTBranch is a named set of leaves and branches
type ASTBranch struct {
	Name    string
	Content []ASTNode
}

// Position of a branch is the starting position of its first node and the
// ending position of its last node (node can be leaf or branch)
func (a *ASTBranch) Position() *logging.TextPosition {
	switch len(a.Content) {
	case 0:
		// empty branches are pruned by the parser so this only happens for
		// the root of an empty file
		return &logging.TextPosition{StartLn: 1, StartCol: 1, EndLn: 1, EndCol: 1}
	case 1:
		return a.Content[0].Position()
	}

	return TextPositionOfSpan(a.Content[0], a.Content[len(a.Content)-1])
}

// TextPositionOfSpan takes two nodes and returns a text position that spans them
func TextPositionOfSpan(start, end ASTNode) *logging.TextPosition {
	startPos, endPos := start.Position(), end.Position()

	return &logging.TextPosition{
		StartLn:  startPos.StartLn,
		StartCol: startPos.StartCol,
		EndLn:    endPos.EndLn,
		EndCol:   endPos.EndCol,
	}
}

// BranchAt gets and casts the specified element to an AST branch
func (a *ASTBranch) BranchAt(ndx int) *ASTBranch {
	return a.Content[ndx].(*ASTBranch)
}

// LeafAt gets and casts the specified element to an AST leaf
func (a *ASTBranch) LeafAt(ndx int) *ASTLeaf {
	return a.Content[ndx].(*ASTLeaf)
}

// Len returns the length of the branch's content
func (a *ASTBranch) Len() int {
	return len(a.Content)
}

// Last returns the last element of the branch
func (a *ASTBranch) Last() ASTNode {
	return a.Content[len(a.Content)-1]
}

// LastBranch returns the last element of a branch and casts it
// to a branch (assumes it is one)
func (a *ASTBranch) LastBranch() *ASTBranch {
	return a.Content[len(a.Content)-1].(*ASTBranch)
}

// Leaves returns the leaves that are direct children of the branch
func (a *ASTBranch) Leaves() []*ASTLeaf {
	var leaves []*ASTLeaf
	for _, item := range a.Content {
		if leaf, ok := item.(*ASTLeaf); ok {
			leaves = append(leaves, leaf)
		}
	}
	return leaves
}

// Branches returns the branches that are direct children of the branch
func (a *ASTBranch) Branches() []*ASTBranch {
	var branches []*ASTBranch
	for _, item := range a.Content {
		if branch, ok := item.(*ASTBranch); ok {
			branches = append(branches, branch)
		}
	}
	return branches
}
