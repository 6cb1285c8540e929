package syntax

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AreaLayer/aluasm/logging"
)

// ParseError is a syntax error at a specific source position
type ParseError struct {
	Line, Col int

	// Len is the number of columns the offending text spans
	Len int

	// Rule is the grammar rule the error occurred in or directly after
	Rule string

	// Expected lists what would have been accepted at the position
	Expected []string

	// Found describes the token actually present
	Found string

	// Message replaces the generated description when set
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Describe())
}

// Describe returns the error without its position
func (e *ParseError) Describe() string {
	if e.Message != "" {
		return e.Message
	}

	var sb strings.Builder
	sb.WriteString("expected ")
	switch len(e.Expected) {
	case 0:
		sb.WriteString(e.Rule)
	case 1:
		sb.WriteString(e.Expected[0])
	default:
		sb.WriteString("one of ")
		sb.WriteString(strings.Join(e.Expected, ", "))
	}

	if e.Rule != "" && len(e.Expected) > 0 {
		sb.WriteString(" in ")
		sb.WriteString(e.Rule)
	}

	if e.Found != "" {
		sb.WriteString(", found ")
		sb.WriteString(e.Found)
	}

	return sb.String()
}

// Position returns the text span of the error
func (e *ParseError) Position() *logging.TextPosition {
	length := e.Len
	if length < 1 {
		length = 1
	}

	return &logging.TextPosition{StartLn: e.Line, StartCol: e.Col, EndLn: e.Line, EndCol: e.Col + length}
}

// ErrorList is a list of syntax errors in source order
type ErrorList []*ParseError

func (el ErrorList) Error() string {
	msgs := make([]string, len(el))
	for i, e := range el {
		msgs[i] = e.Error()
	}

	return strings.Join(msgs, "\n")
}

// Err returns the list as an error, or nil if it is empty
func (el ErrorList) Err() error {
	if len(el) == 0 {
		return nil
	}
	return el
}

// Sort orders the errors by position
func (el ErrorList) Sort() {
	sort.SliceStable(el, func(i, j int) bool {
		if el[i].Line != el[j].Line {
			return el[i].Line < el[j].Line
		}
		return el[i].Col < el[j].Col
	})
}
