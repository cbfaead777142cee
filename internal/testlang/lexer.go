// Package testlang is a minimal, hand-written stand-in for spec.md §1's
// "out of scope" PEG grammar and parser: just enough surface syntax to
// drive the engine's own tests against every scenario spec.md §8
// describes (word/variable/tuple facts, multi-block rules, transform and
// guard clauses). It is not a product deliverable (SPEC_FULL.md §13): a
// real caller supplies its own Parser built on an actual PEG library over
// its own grammar; this package exists only under internal/ so the
// engine's integration tests have something concrete to drive.
package testlang

import (
	"fmt"
	"strings"
	"unicode"
)

type tokKind int

const (
	tEOF tokKind = iota
	tWord
	tVar
	tLParen
	tRParen
	tComma
	tColon
	tSep        // conjunction within a block: ';' or '∧'
	tArrow      // '->' or '→'
	tTerminator // '.', '◊', or '<>'
	tTransform  // {={ ... }=}, Text is the clause body
	tGuard      // {?{ ... }?}, Text is the clause body
)

type token struct {
	kind tokKind
	text string
}

// lex tokenizes a full tell/ask payload (spec.md §6's "zero or more facts
// and rules separated by the grammar's terminator").
func lex(src string) ([]token, error) {
	l := &lexer{src: []rune(src)}
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		l.toks = append(l.toks, tok)
		if tok.kind == tEOF {
			return l.toks, nil
		}
	}
}

type lexer struct {
	src  []rune
	pos  int
	toks []token
}

func (l *lexer) peek(n int) rune {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

const structuralChars = "()<>,:;.∧◊{}"

func isWordRune(r rune) bool {
	return !unicode.IsSpace(r) && !strings.ContainsRune(structuralChars, r)
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) && unicode.IsSpace(l.src[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return token{kind: tEOF}, nil
	}
	c := l.src[l.pos]
	switch {
	case c == '<' && l.peek(1) == '>':
		l.pos += 2
		return token{kind: tTerminator, text: "<>"}, nil
	case c == '<':
		return l.lexVar()
	case c == '(':
		l.pos++
		return token{kind: tLParen, text: "("}, nil
	case c == ')':
		l.pos++
		return token{kind: tRParen, text: ")"}, nil
	case c == ',':
		l.pos++
		return token{kind: tComma, text: ","}, nil
	case c == ':':
		l.pos++
		return token{kind: tColon, text: ":"}, nil
	case c == ';' || c == '∧':
		l.pos++
		return token{kind: tSep, text: string(c)}, nil
	case c == '-' && l.peek(1) == '>':
		l.pos += 2
		return token{kind: tArrow, text: "->"}, nil
	case c == '→':
		l.pos++
		return token{kind: tArrow, text: "→"}, nil
	case c == '.' || c == '◊':
		l.pos++
		return token{kind: tTerminator, text: string(c)}, nil
	case c == '{':
		return l.lexBracket()
	default:
		return l.lexWord()
	}
}

func (l *lexer) lexVar() (token, error) {
	start := l.pos
	l.pos++
	for l.pos < len(l.src) && l.src[l.pos] != '>' {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return token{}, fmt.Errorf("testlang: unterminated variable starting at offset %d", start)
	}
	l.pos++
	return token{kind: tVar, text: string(l.src[start:l.pos])}, nil
}

func (l *lexer) lexWord() (token, error) {
	start := l.pos
	for l.pos < len(l.src) && isWordRune(l.src[l.pos]) {
		l.pos++
	}
	if l.pos == start {
		return token{}, fmt.Errorf("testlang: unexpected character %q at offset %d", l.src[start], start)
	}
	return token{kind: tWord, text: string(l.src[start:l.pos])}, nil
}

// lexBracket handles the two clause brackets, {={ ... }=} and {?{ ... }?},
// scanning their raw body text verbatim: the numtransform/strtransform and
// guard sublanguages tokenize that body themselves (spec.md §4.8/§6).
func (l *lexer) lexBracket() (token, error) {
	start := l.pos
	var kind tokKind
	var open, close string
	switch {
	case l.peek(1) == '=' && l.peek(2) == '{':
		kind, open, close = tTransform, "{={", "}=}"
	case l.peek(1) == '?' && l.peek(2) == '{':
		kind, open, close = tGuard, "{?{", "}?}"
	default:
		return token{}, fmt.Errorf("testlang: unexpected '{' at offset %d", start)
	}
	l.pos += len(open)
	bodyStart := l.pos
	for {
		if l.pos+len(close) > len(l.src) {
			return token{}, fmt.Errorf("testlang: unterminated clause starting at offset %d", start)
		}
		if string(l.src[l.pos:l.pos+len(close)]) == close {
			body := string(l.src[bodyStart:l.pos])
			l.pos += len(close)
			return token{kind: kind, text: body}, nil
		}
		l.pos++
	}
}
