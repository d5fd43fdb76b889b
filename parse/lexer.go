// Copyright 2022 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parse

import (
	"unicode"
	"unicode/utf8"

	"github.com/mcc-lang/mcc/source"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	span source.Span
}

// lexer tokenizes a slice of a source file's contents, starting at a
// given byte offset, tracking absolute (not slice-relative) spans so
// diagnostics point at the right place in the original file.
type lexer struct {
	src    string
	offset int // absolute offset of src[0] within the original file
	pos    int // index into src
}

func newLexer(src string, offset int) *lexer {
	return &lexer{src: src, offset: offset}
}

var multiCharPuncts = []string{"&&", "||", "==", "!=", "<=", ">=", "<<", ">>"}

func (l *lexer) skipTrivia() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '*':
			l.pos += 2
			for l.pos+1 < len(l.src) && !(l.src[l.pos] == '*' && l.src[l.pos+1] == '/') {
				l.pos++
			}
			l.pos += 2
			if l.pos > len(l.src) {
				l.pos = len(l.src)
			}
		default:
			return
		}
	}
}

// next returns the next token, or a tokEOF token once the input is
// exhausted.
func (l *lexer) next() token {
	l.skipTrivia()

	if l.pos >= len(l.src) {
		return token{kind: tokEOF, span: source.NewSpan(l.offset+l.pos, 0)}
	}

	start := l.pos
	c := l.src[l.pos]

	if isIdentStart(c) {
		for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
			l.pos++
		}
		text := l.src[start:l.pos]
		return token{kind: tokIdent, text: text, span: l.spanFrom(start)}
	}

	if c >= '0' && c <= '9' {
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
		text := l.src[start:l.pos]
		return token{kind: tokNumber, text: text, span: l.spanFrom(start)}
	}

	for _, m := range multiCharPuncts {
		if l.pos+len(m) <= len(l.src) && l.src[l.pos:l.pos+len(m)] == m {
			l.pos += len(m)
			return token{kind: tokPunct, text: m, span: l.spanFrom(start)}
		}
	}

	_, size := utf8.DecodeRuneInString(l.src[l.pos:])
	l.pos += size
	return token{kind: tokPunct, text: l.src[start:l.pos], span: l.spanFrom(start)}
}

func (l *lexer) spanFrom(start int) source.Span {
	return source.NewSpan(l.offset+start, l.pos-start)
}

func isIdentStart(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c))
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
