package filter

import (
	"fmt"
	"strings"

	"github.com/n0call/aprsgw/internal/packet"
)

// ParseExpr parses the boolean-algebra filter variant supplementing the
// OR-only wire grammar of Parse: tokens combined with '&', '|', '!' and
// parentheses, standard precedence (| lowest, & next, ! highest).
//
// Grounded directly on doismellburning/samoyed's src/pfilter.go
// (parse_expr/parse_or_expr/parse_and_expr/parse_primary), which layers
// this algebra over the same filter-spec primitives APRS-IS filters use.
// Unlike Parse, this is meant for operator-authored (not client-submitted)
// filters, e.g. combining an ACL predicate with a type predicate.
func ParseExpr(s string) (Expr, error) {
	toks := tokenize(s)
	p := &exprParser{toks: toks}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("filter: unexpected trailing input at %q", p.toks[p.pos])
	}
	return e, nil
}

// Expr evaluates to a boolean over a packet.
type Expr interface {
	Eval(p *packet.Packet) bool
}

func tokenize(s string) []string {
	s = strings.ReplaceAll(s, "(", " ( ")
	s = strings.ReplaceAll(s, ")", " ) ")
	return strings.Fields(s)
}

type exprParser struct {
	toks []string
	pos  int
}

func (p *exprParser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return p.toks[p.pos]
}

func (p *exprParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *exprParser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek() == "|" {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orExpr{left, right}
	}
	return left, nil
}

func (p *exprParser) parseAnd() (Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek() == "&" {
		p.next()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = andExpr{left, right}
	}
	return left, nil
}

func (p *exprParser) parsePrimary() (Expr, error) {
	switch p.peek() {
	case "":
		return nil, fmt.Errorf("filter: unexpected end of expression")
	case "!":
		p.next()
		inner, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return notExpr{inner}, nil
	case "(":
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek() != ")" {
			return nil, fmt.Errorf("filter: expected ')'")
		}
		p.next()
		return inner, nil
	case "0":
		p.next()
		return literalExpr(false), nil
	case "1":
		p.next()
		return literalExpr(true), nil
	default:
		tok := p.next()
		el, ok, err := parseToken(tok)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("filter: unrecognized token %q", tok)
		}
		return elementExpr{el}, nil
	}
}

type literalExpr bool

func (l literalExpr) Eval(*packet.Packet) bool { return bool(l) }

type elementExpr struct{ el Element }

func (e elementExpr) Eval(p *packet.Packet) bool { return e.el.Match(p) }

type andExpr struct{ l, r Expr }

func (e andExpr) Eval(p *packet.Packet) bool { return e.l.Eval(p) && e.r.Eval(p) }

type orExpr struct{ l, r Expr }

func (e orExpr) Eval(p *packet.Packet) bool { return e.l.Eval(p) || e.r.Eval(p) }

type notExpr struct{ e Expr }

func (e notExpr) Eval(p *packet.Packet) bool { return !e.e.Eval(p) }
