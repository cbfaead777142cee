package lexutil_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"ruleforge.dev/engine/internal/lang/transform/lexutil"
)

func TestTokenizeCoversEveryTokenKind(t *testing.T) {
	toks, err := lexutil.Tokenize(`<X0> = "hi", 3.5 + (2 >= 1) ** foo`)
	qt.Assert(t, qt.IsNil(err))

	var kinds []lexutil.Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	want := []lexutil.Kind{
		lexutil.Var, lexutil.Assign, lexutil.String, lexutil.Comma,
		lexutil.Number, lexutil.Op, lexutil.LParen, lexutil.Number,
		lexutil.Op, lexutil.Number, lexutil.RParen, lexutil.Op,
		lexutil.Ident, lexutil.EOF,
	}
	qt.Assert(t, qt.DeepEquals(kinds, want))
}

func TestTokenizeDistinguishesEqualsFromEqualsEquals(t *testing.T) {
	toks, err := lexutil.Tokenize("a == b")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(toks[1].Kind, lexutil.Op))
	qt.Assert(t, qt.Equals(toks[1].Text, "=="))

	toks, err = lexutil.Tokenize("a = b")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(toks[1].Kind, lexutil.Assign))
}

func TestTokenizeUnterminatedVarErrors(t *testing.T) {
	_, err := lexutil.Tokenize("<X0")
	qt.Assert(t, qt.IsNotNil(err))
}

func TestTokenizeUnterminatedStringErrors(t *testing.T) {
	_, err := lexutil.Tokenize(`"abc`)
	qt.Assert(t, qt.IsNotNil(err))
}

func TestCursorExpectConsumesMatchingKind(t *testing.T) {
	toks, err := lexutil.Tokenize("<X0>")
	qt.Assert(t, qt.IsNil(err))
	c := lexutil.NewCursor(toks)
	tok, err := c.Expect(lexutil.Var)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(tok.Text, "<X0>"))
	qt.Assert(t, qt.Equals(c.Cur().Kind, lexutil.EOF))
}

func TestCursorExpectErrorsOnMismatch(t *testing.T) {
	toks, _ := lexutil.Tokenize("<X0>")
	c := lexutil.NewCursor(toks)
	_, err := c.Expect(lexutil.Ident)
	qt.Assert(t, qt.IsNotNil(err))
}

func TestCursorAdvancePastEndStaysAtEOF(t *testing.T) {
	toks, _ := lexutil.Tokenize("")
	c := lexutil.NewCursor(toks)
	c.Advance()
	c.Advance()
	qt.Assert(t, qt.Equals(c.Cur().Kind, lexutil.EOF))
}
