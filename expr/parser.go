package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/event4u-app/data-helpers/dotpath"
	"github.com/event4u-app/data-helpers/filters"
)

// ErrExprSyntax reports a malformed expression inside a {{ }} wrapper.
var ErrExprSyntax = errors.New("malformed expression")

// Parse turns raw expression text into an Expression. Text without the
// {{ }} wrapper becomes a verbatim literal; the exact string is preserved.
func Parse(raw string) (*Expression, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{{") || !strings.HasSuffix(trimmed, "}}") || len(trimmed) < 4 {
		return &Expression{raw: raw, root: LiteralNode{Value: raw}, literal: true}, nil
	}
	inner := trimmed[2 : len(trimmed)-2]
	p := &parser{src: inner}
	root, err := p.parseInner()
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrExprSyntax, raw, err)
	}
	return &Expression{raw: raw, root: root}, nil
}

type parser struct {
	src string
	pos int
}

// parseInner implements:
//
//	Inner      := (PathRef | AliasRef | Literal) Default? FilterChain? Default?
//	Default    := "??" Literal
//	FilterChain:= ("|" FilterCall)*
//	FilterCall := Identifier (":" Arg)*
//
// "??" may sit before or after the filter chain; either way the fallback
// applies to the resolved value before the first filter runs.
func (p *parser) parseInner() (Node, error) {
	p.skipSpace()
	head, err := p.parseHead()
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	if p.consume("??") {
		p.skipSpace()
		fallback, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		head = DefaultNode{Inner: head, Fallback: fallback}
	}

	var chain []filters.Call
	for {
		p.skipSpace()
		if !p.consume("|") {
			break
		}
		p.skipSpace()
		call, err := p.parseFilterCall()
		if err != nil {
			return nil, err
		}
		chain = append(chain, call)
	}

	p.skipSpace()
	if p.consume("??") {
		p.skipSpace()
		fallback, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		head = DefaultNode{Inner: head, Fallback: fallback}
	}

	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("unexpected %q at offset %d", p.src[p.pos:], p.pos)
	}
	if len(chain) > 0 {
		head = FilterChainNode{Inner: head, Chain: chain}
	}
	return head, nil
}

func (p *parser) parseHead() (Node, error) {
	switch {
	case p.eof():
		return nil, errors.New("empty expression")
	case p.peek() == '@':
		p.pos++
		name := p.readWhile(isIdentRune)
		if name == "" {
			return nil, errors.New("@ must be followed by an alias name")
		}
		return AliasNode{Name: name}, nil
	case p.peek() == '"' || p.peek() == '\'':
		s, err := p.readQuoted()
		if err != nil {
			return nil, err
		}
		return LiteralNode{Value: s}, nil
	default:
		token := p.readWhile(isPathRune)
		if token == "" {
			return nil, fmt.Errorf("unexpected %q", p.src[p.pos:])
		}
		if v, ok := scalarLiteral(token); ok {
			return LiteralNode{Value: v}, nil
		}
		path, err := dotpath.Parse(token)
		if err != nil {
			return nil, err
		}
		return PathNode{Path: path}, nil
	}
}

// parseLiteral reads the operand of "??": a quoted string, a number,
// true/false/null, or a bare word taken as a string.
func (p *parser) parseLiteral() (any, error) {
	if p.eof() {
		return nil, errors.New("?? needs a fallback value")
	}
	if p.peek() == '"' || p.peek() == '\'' {
		return p.readQuoted()
	}
	token := p.readWhile(isPathRune)
	if token == "" {
		return nil, fmt.Errorf("?? needs a fallback value, got %q", p.src[p.pos:])
	}
	if v, ok := scalarLiteral(token); ok {
		return v, nil
	}
	return token, nil
}

func (p *parser) parseFilterCall() (filters.Call, error) {
	name := p.readWhile(isIdentRune)
	if name == "" {
		return filters.Call{}, fmt.Errorf("expected filter name at offset %d", p.pos)
	}
	call := filters.Call{Name: name}
	for !p.eof() && p.peek() == ':' {
		p.pos++
		if !p.eof() && (p.peek() == '"' || p.peek() == '\'') {
			arg, err := p.readQuoted()
			if err != nil {
				return filters.Call{}, err
			}
			call.Args = append(call.Args, arg)
			continue
		}
		call.Args = append(call.Args, p.readWhile(isArgRune))
	}
	return call, nil
}

func (p *parser) skipSpace() {
	for !p.eof() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte { return p.src[p.pos] }

func (p *parser) consume(tok string) bool {
	if strings.HasPrefix(p.src[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *parser) readWhile(ok func(byte) bool) string {
	start := p.pos
	for !p.eof() && ok(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) readQuoted() (string, error) {
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		switch c {
		case quote:
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if p.eof() {
				return "", errors.New("dangling escape in quoted string")
			}
			b.WriteByte(p.src[p.pos])
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", errors.New("unterminated quoted string")
}

func isIdentRune(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func isPathRune(c byte) bool {
	return isIdentRune(c) || c == '.' || c == '*' || c == '-'
}

// isArgRune reads an unquoted filter argument: anything up to the next
// delimiter. Arguments containing ':', '|', or spaces must be quoted.
func isArgRune(c byte) bool {
	return c != ':' && c != '|' && c != ' ' && c != '\t'
}

// scalarLiteral recognizes numbers, booleans, and null in expression text.
func scalarLiteral(token string) (any, bool) {
	switch token {
	case "true":
		return true, true
	case "false":
		return false, true
	case "null", "nil":
		return nil, true
	}
	if n, err := strconv.Atoi(token); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil {
		return f, true
	}
	return nil, false
}
