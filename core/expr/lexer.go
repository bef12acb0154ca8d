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
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
	tokAnd
	tokOr
	tokNot
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// lexer tokenizes an expression string
type lexer struct {
	src string
	pos int
}

// twoCharOps are matched before their one character prefixes.
var twoCharOps = []string{"**", "==", "!=", "<=", ">="}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) && strings.ContainsRune(" \t\r\n", rune(l.src[l.pos])) {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: l.pos}, nil
	}

	start := l.pos
	rest := l.src[l.pos:]
	r, size := utf8.DecodeRuneInString(rest)

	switch {
	case isDigit(r) || (r == '.' && len(rest) > 1 && isDigit(rune(rest[1]))):
		return l.number(start), nil
	case r == '"' || r == '\'':
		return l.str(start, byte(r))
	case unicode.IsLetter(r) || r == '_':
		return l.ident(start), nil
	}

	for _, op := range twoCharOps {
		if strings.HasPrefix(rest, op) {
			l.pos += 2
			return token{kind: tokOp, text: op, pos: start}, nil
		}
	}
	l.pos += size
	switch r {
	case '+', '-', '*', '/', '%', '<', '>':
		return token{kind: tokOp, text: string(r), pos: start}, nil
	case '(':
		return token{kind: tokLParen, text: "(", pos: start}, nil
	case ')':
		return token{kind: tokRParen, text: ")", pos: start}, nil
	case ',':
		return token{kind: tokComma, text: ",", pos: start}, nil
	case '=':
		return token{}, fmt.Errorf("unexpected '=' at position %d, did you mean '=='?", start)
	}
	return token{}, fmt.Errorf("unexpected character %q at position %d", r, start)
}

func (l *lexer) number(start int) token {
	seenDot := false
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '.' && !seenDot {
			seenDot = true
		} else if !isDigit(rune(c)) {
			break
		}
		l.pos++
	}
	return token{kind: tokNumber, text: l.src[start:l.pos], pos: start}
}

func (l *lexer) str(start int, quote byte) (token, error) {
	l.pos++
	var sb strings.Builder
	for l.pos < len(l.src) && l.src[l.pos] != quote {
		c := l.src[l.pos]
		if c == '\\' && l.pos+1 < len(l.src) {
			l.pos++
			c = l.src[l.pos]
			switch c {
			case 'n':
				c = '\n'
			case 't':
				c = '\t'
			}
		}
		sb.WriteByte(c)
		l.pos++
	}
	if l.pos >= len(l.src) {
		return token{}, fmt.Errorf("unterminated string starting at position %d", start)
	}
	l.pos++
	return token{kind: tokString, text: sb.String(), pos: start}, nil
}

func (l *lexer) ident(start int) token {
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !unicode.IsLetter(r) && !isDigit(r) && r != '_' {
			break
		}
		l.pos += size
	}
	text := l.src[start:l.pos]
	switch text {
	case "and":
		return token{kind: tokAnd, text: text, pos: start}
	case "or":
		return token{kind: tokOr, text: text, pos: start}
	case "not":
		return token{kind: tokNot, text: text, pos: start}
	}
	return token{kind: tokIdent, text: text, pos: start}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
