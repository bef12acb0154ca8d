/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Gridview Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package expr

import (
	"fmt"
	"strconv"
)

// node is an expression tree node.
type node interface {
	node()
}

type numberLit struct{ value float64 }
type stringLit struct{ value string }
type fieldRef struct{ name string }

type binaryOp struct {
	op          string
	left, right node
}

type unaryOp struct {
	op      string
	operand node
}

type call struct {
	fn   string
	args []node
	pos  int
}

func (*numberLit) node() {}
func (*stringLit) node() {}
func (*fieldRef) node()  {}
func (*binaryOp) node()  {}
func (*unaryOp) node()   {}
func (*call) node()      {}

// Precedence (low to high): or, and, not, comparisons, + -, * / %,
// unary minus, ** (right associative).
const (
	precOr = iota + 1
	precAnd
	precNot
	precCompare
	precAdd
	precMul
	precUnary
	precPower
)

func binaryPrecedence(t token) (string, int) {
	switch t.kind {
	case tokOr:
		return "or", precOr
	case tokAnd:
		return "and", precAnd
	case tokOp:
		switch t.text {
		case "==", "!=", "<", ">", "<=", ">=":
			return t.text, precCompare
		case "+", "-":
			return t.text, precAdd
		case "*", "/", "%":
			return t.text, precMul
		case "**":
			return t.text, precPower
		}
	}
	return "", 0
}

// parser parses tokens into a tree by precedence climbing.
type parser struct {
	lex *lexer
	cur token
}

func parse(src string) (node, error) {
	p := &parser{lex: &lexer{src: src}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	n, err := p.binary(precOr)
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %q at position %d", p.cur.text, p.cur.pos)
	}
	return n, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *parser) binary(minPrec int) (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		op, prec := binaryPrecedence(p.cur)
		if prec == 0 || prec < minPrec {
			return left, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		next := prec + 1
		if prec == precPower {
			next = prec
		}
		right, err := p.binary(next)
		if err != nil {
			return nil, err
		}
		left = &binaryOp{op: op, left: left, right: right}
	}
}

func (p *parser) unary() (node, error) {
	switch {
	case p.cur.kind == tokNot:
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.binary(precCompare)
		if err != nil {
			return nil, err
		}
		return &unaryOp{op: "not", operand: operand}, nil
	case p.cur.kind == tokOp && (p.cur.text == "-" || p.cur.text == "+"):
		op := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.binary(precPower)
		if err != nil {
			return nil, err
		}
		return &unaryOp{op: op, operand: operand}, nil
	}
	return p.primary()
}

func (p *parser) primary() (node, error) {
	tok := p.cur
	switch tok.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q at position %d", tok.text, tok.pos)
		}
		return &numberLit{value: v}, p.advance()
	case tokString:
		return &stringLit{value: tok.text}, p.advance()
	case tokIdent:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind != tokLParen {
			return &fieldRef{name: tok.text}, nil
		}
		return p.call(tok)
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.binary(precOr)
		if err != nil {
			return nil, err
		}
		if p.cur.kind != tokRParen {
			return nil, fmt.Errorf("expected ')' at position %d", p.cur.pos)
		}
		return inner, p.advance()
	case tokEOF:
		return nil, fmt.Errorf("unexpected end of expression")
	}
	return nil, fmt.Errorf("unexpected %q at position %d", tok.text, tok.pos)
}

// call parses the argument list of fn; the current token is '('.
func (p *parser) call(fn token) (node, error) {
	c := &call{fn: fn.text, pos: fn.pos}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.kind == tokRParen {
		return c, p.advance()
	}
	for {
		arg, err := p.binary(precOr)
		if err != nil {
			return nil, err
		}
		c.args = append(c.args, arg)
		switch p.cur.kind {
		case tokComma:
			if err := p.advance(); err != nil {
				return nil, err
			}
		case tokRParen:
			return c, p.advance()
		default:
			return nil, fmt.Errorf("expected ',' or ')' at position %d", p.cur.pos)
		}
	}
}
