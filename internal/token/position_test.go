package token_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"ruleforge.dev/engine/internal/token"
)

func TestNoPosIsInvalid(t *testing.T) {
	qt.Assert(t, qt.IsFalse(token.NoPos.IsValid()))
	qt.Assert(t, qt.Equals(token.NoPos.String(), "-"))
}

func TestPosWithLineIsValid(t *testing.T) {
	p := token.Pos{Line: 1, Column: 1}
	qt.Assert(t, qt.IsTrue(p.IsValid()))
}

func TestStringFormatsFilenameAndLineColumn(t *testing.T) {
	p := token.Pos{Filename: "input.tl", Line: 3, Column: 7}
	qt.Assert(t, qt.Equals(p.String(), "input.tl:3:7"))
}

func TestStringOmitsFilenameWhenUnset(t *testing.T) {
	p := token.Pos{Line: 3, Column: 7}
	qt.Assert(t, qt.Equals(p.String(), "3:7"))
}

func TestStringOmitsLineColumnWhenInvalid(t *testing.T) {
	p := token.Pos{Filename: "input.tl"}
	qt.Assert(t, qt.Equals(p.String(), "input.tl"))
}

func TestPositionReturnsItself(t *testing.T) {
	p := token.Pos{Filename: "input.tl", Line: 1, Column: 1}
	qt.Assert(t, qt.DeepEquals(p.Position(), p))
}
