package vdf

import (
	"fmt"
	"os"
)

// ParseError describes malformed VDF text. Line and Col point at the
// offending token, 1-based.
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vdf: line %d, col %d: %s", e.Line, e.Col, e.Msg)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokString
	tokOpen
	tokClose
)

type token struct {
	kind tokenKind
	text string
	line int
	col  int
}

type lexer struct {
	src  []byte
	pos  int
	line int
	col  int
}

func newLexer(src []byte) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

func (l *lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *lexer) errorf(line, col int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

// next returns the next token, skipping whitespace and // comments.
func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.advance()
			}
		case c == '{':
			t := token{kind: tokOpen, line: l.line, col: l.col}
			l.advance()
			return t, nil
		case c == '}':
			t := token{kind: tokClose, line: l.line, col: l.col}
			l.advance()
			return t, nil
		case c == '"':
			return l.quoted()
		default:
			return l.bare()
		}
	}
	return token{kind: tokEOF, line: l.line, col: l.col}, nil
}

// quoted reads a double-quoted string, resolving \", \\, \n and \t escapes.
func (l *lexer) quoted() (token, error) {
	startLine, startCol := l.line, l.col
	l.advance() // opening quote
	var buf []byte
	for l.pos < len(l.src) {
		c := l.advance()
		switch c {
		case '"':
			return token{kind: tokString, text: string(buf), line: startLine, col: startCol}, nil
		case '\\':
			if l.pos >= len(l.src) {
				return token{}, l.errorf(startLine, startCol, "unterminated quoted string")
			}
			e := l.advance()
			switch e {
			case 'n':
				buf = append(buf, '\n')
			case 't':
				buf = append(buf, '\t')
			case '\\', '"':
				buf = append(buf, e)
			default:
				// Unknown escape: keep it verbatim, Steam does the same.
				buf = append(buf, '\\', e)
			}
		case '\n':
			return token{}, l.errorf(startLine, startCol, "unterminated quoted string")
		default:
			buf = append(buf, c)
		}
	}
	return token{}, l.errorf(startLine, startCol, "unterminated quoted string")
}

// bare reads an unquoted token up to whitespace, a brace, or a quote.
func (l *lexer) bare() (token, error) {
	startLine, startCol := l.line, l.col
	var buf []byte
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '{' || c == '}' || c == '"' {
			break
		}
		buf = append(buf, l.advance())
	}
	return token{kind: tokString, text: string(buf), line: startLine, col: startCol}, nil
}

// Parse parses a VDF document into a Node tree. Duplicate keys within one
// block resolve to the last occurrence, keeping the position of the first.
func Parse(src []byte) (*Node, error) {
	l := newLexer(src)
	root := NewNode()
	if err := parseBlock(l, root, true); err != nil {
		return nil, err
	}
	return root, nil
}

// ParseString is Parse for string input.
func ParseString(src string) (*Node, error) {
	return Parse([]byte(src))
}

// ParseFile reads and parses the file at path.
func ParseFile(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	node, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return node, nil
}

// parseBlock consumes key/value pairs until '}' (or EOF when topLevel).
func parseBlock(l *lexer, n *Node, topLevel bool) error {
	for {
		t, err := l.next()
		if err != nil {
			return err
		}
		switch t.kind {
		case tokEOF:
			if !topLevel {
				return l.errorf(t.line, t.col, "unexpected end of input: unclosed block")
			}
			return nil
		case tokClose:
			if topLevel {
				return l.errorf(t.line, t.col, "unexpected %q: no open block", "}")
			}
			return nil
		case tokOpen:
			return l.errorf(t.line, t.col, "unexpected %q: expected key", "{")
		}

		// t is the key; the next token decides scalar vs block.
		key := t
		v, err := l.next()
		if err != nil {
			return err
		}
		switch v.kind {
		case tokString:
			n.Set(key.text, v.text)
		case tokOpen:
			child := NewNode()
			if err := parseBlock(l, child, false); err != nil {
				return err
			}
			if i := n.find(key.text); i >= 0 {
				n.pairs[i] = pair{key: key.text, child: child}
			} else {
				n.pairs = append(n.pairs, pair{key: key.text, child: child})
			}
		case tokClose, tokEOF:
			return l.errorf(key.line, key.col, "key %q has no value", key.text)
		}
	}
}
