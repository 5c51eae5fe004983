package boolexp

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/propdb/lib/prop"
	"strconv"
	"strings"
)

// TrueText is the textual form of the always-true lock
const TrueText = "*UNLOCKED*"

// ErrSyntax is wrapped by every parse error
var ErrSyntax = errors.New("lock syntax error")

// Kind is the node type of an expression
type Kind uint8

const (
	KindTrue Kind = iota // always true
	KindAnd              // left & right
	KindOr               // left | right
	KindNot              // !left
	KindRef              // #N
	KindProp             // name:value
)

// Expr is one node of a compiled lock expression. An expression satisfies
// prop.Lock and can be stored as a property value.
type Expr struct {
	Kind  Kind
	Left  *Expr
	Right *Expr
	Ref   prop.DBRef
	Name  string
	Value string
}

var _ prop.Lock = (*Expr)(nil)
var _ prop.Releaser = (*Expr)(nil)

// True returns a new always-true expression
func True() *Expr {
	return &Expr{Kind: KindTrue}
}

// --------------------------------------------------------------------------
// prop.Lock implementation
// --------------------------------------------------------------------------

// Copy returns a deep copy of the expression
func (e *Expr) Copy() prop.Lock {
	return e.copyExpr()
}

func (e *Expr) copyExpr() *Expr {
	if e == nil {
		return nil
	}
	c := *e
	c.Left = e.Left.copyExpr()
	c.Right = e.Right.copyExpr()
	return &c
}

// exprOverhead approximates the memory footprint of one Expr node
const exprOverhead = 64

// Size returns the approximate memory footprint in bytes
func (e *Expr) Size() int {
	if e == nil {
		return 0
	}
	return exprOverhead + len(e.Name) + len(e.Value) + e.Left.Size() + e.Right.Size()
}

// IsTrue reports whether the expression is the always-true lock
func (e *Expr) IsTrue() bool {
	return e == nil || e.Kind == KindTrue
}

// Release detaches every node of the expression
func (e *Expr) Release() {
	if e == nil {
		return
	}
	e.Left.Release()
	e.Right.Release()
	*e = Expr{Kind: KindTrue}
}

// Unparse renders the expression with the minimal number of parentheses
func (e *Expr) Unparse() string {
	if e.IsTrue() {
		return TrueText
	}
	var b strings.Builder
	e.unparse(&b, KindOr)
	return b.String()
}

// unparse writes e, parenthesized if it binds looser than the context
func (e *Expr) unparse(b *strings.Builder, outer Kind) {
	switch e.Kind {
	case KindOr:
		paren := outer != KindOr
		if paren {
			b.WriteByte('(')
		}
		e.Left.unparse(b, KindOr)
		b.WriteByte('|')
		e.Right.unparseRight(b, KindOr)
		if paren {
			b.WriteByte(')')
		}
	case KindAnd:
		paren := outer == KindNot
		if paren {
			b.WriteByte('(')
		}
		e.Left.unparse(b, KindAnd)
		b.WriteByte('&')
		e.Right.unparseRight(b, KindAnd)
		if paren {
			b.WriteByte(')')
		}
	case KindNot:
		b.WriteByte('!')
		e.Left.unparse(b, KindNot)
	case KindRef:
		b.WriteString(e.Ref.String())
	case KindProp:
		b.WriteString(e.Name)
		b.WriteByte(':')
		b.WriteString(e.Value)
	case KindTrue:
		b.WriteString(TrueText)
	default:
		panic(fmt.Sprintf("impossible lock node kind %d", e.Kind))
	}
}

// unparseRight writes the right operand of a binary node. Operators are
// left associative, so a right operand of the same kind needs parentheses.
func (e *Expr) unparseRight(b *strings.Builder, outer Kind) {
	if e.Kind != outer {
		e.unparse(b, outer)
		return
	}
	b.WriteByte('(')
	e.unparse(b, KindOr)
	b.WriteByte(')')
}

// Equal reports whether two expressions are structurally identical
func Equal(a, b *Expr) bool {
	if a.IsTrue() || b.IsTrue() {
		return a.IsTrue() && b.IsTrue()
	}
	if a.Kind != b.Kind || a.Ref != b.Ref || a.Name != b.Name || a.Value != b.Value {
		return false
	}
	if (a.Left == nil) != (b.Left == nil) || (a.Right == nil) != (b.Right == nil) {
		return false
	}
	if a.Left != nil && !Equal(a.Left, b.Left) {
		return false
	}
	if a.Right != nil && !Equal(a.Right, b.Right) {
		return false
	}
	return true
}

// --------------------------------------------------------------------------
// Parser
// --------------------------------------------------------------------------

// Parse compiles the textual form of a lock. Empty text and TrueText yield
// the always-true expression.
func Parse(text string) (*Expr, error) {
	text = strings.TrimSpace(text)
	if text == "" || text == TrueText {
		return True(), nil
	}
	p := &parser{src: text}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos])
	}
	return e, nil
}

// ParseLock adapts Parse to prop.LockParser
func ParseLock(text string) (prop.Lock, error) {
	e, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return e, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrSyntax, p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

// accept consumes c if it is the next non-blank character
func (p *parser) accept(c byte) bool {
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) parseOr() (*Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept('|') {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Expr{Kind: KindOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (*Expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.accept('&') {
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = &Expr{Kind: KindAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseFactor() (*Expr, error) {
	switch {
	case p.accept('!'):
		inner, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: KindNot, Left: inner}, nil
	case p.accept('('):
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.accept(')') {
			return nil, p.errorf("missing ')'")
		}
		return inner, nil
	default:
		return p.parseAtom()
	}
}

// parseAtom reads "#N" or "name:value"
func (p *parser) parseAtom() (*Expr, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune("&|!()", rune(p.src[p.pos])) {
		p.pos++
	}
	atom := strings.TrimSpace(p.src[start:p.pos])
	if atom == "" {
		return nil, p.errorf("missing operand")
	}
	if strings.ContainsAny(atom, "\r\n") {
		return nil, p.errorf("line break in %q", atom)
	}

	if atom[0] == '#' {
		n, err := strconv.ParseInt(atom[1:], 10, 32)
		if err != nil {
			return nil, p.errorf("invalid object reference %q", atom)
		}
		return &Expr{Kind: KindRef, Ref: prop.DBRef(n)}, nil
	}

	name, value, ok := strings.Cut(atom, ":")
	if !ok || strings.TrimSpace(name) == "" {
		return nil, p.errorf("expected #N or name:value, got %q", atom)
	}
	return &Expr{Kind: KindProp, Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)}, nil
}
