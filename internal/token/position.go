// Package token gives the engine's error types a position vocabulary,
// scaled down from cue/token's Pos/Position: this engine's grammar and
// lexer are external collaborators (spec.md §1), so there is no line table
// to maintain, only a place to attach "this offset, this line/column" to a
// parse failure reported by the caller's PEG.
package token

import "fmt"

// Pos is a compact source position: a byte offset plus the line/column it
// was computed at. The zero Pos is invalid.
type Pos struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

// NoPos is the zero value of Pos; it is never a valid position.
var NoPos = Pos{}

// IsValid reports whether the position is meaningful.
func (p Pos) IsValid() bool { return p.Line > 0 }

// Position returns p itself, satisfying the same shape cue/token.Pos uses
// so error types built on top of both feel the same to a caller.
func (p Pos) Position() Pos { return p }

// String formats the position as "file:line:column", omitting the parts
// that are not set.
func (p Pos) String() string {
	s := p.Filename
	if p.IsValid() {
		if s != "" {
			s += ":"
		}
		s += fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	if s == "" {
		return "-"
	}
	return s
}
