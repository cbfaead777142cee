package numtransform_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"ruleforge.dev/engine/internal/lang/match"
	"ruleforge.dev/engine/internal/lang/segment"
	"ruleforge.dev/engine/internal/lang/transform/numtransform"
)

func testLexicon() segment.Lexicon {
	return segment.Lexicon{VarProduction: "var", RangePrefix: "v_"}
}

func TestCompileEvaluatesArithmeticWithPrecedence(t *testing.T) {
	p := segment.NewPool(testLexicon())
	c, err := numtransform.Compile(p, "<Out> = 2 + 3 * 4")
	qt.Assert(t, qt.IsNil(err))

	out, err := c.Apply(match.Matching{})
	qt.Assert(t, qt.IsNil(err))

	target := p.Intern("var", "<Out>", true)
	val, ok := out.Get(target)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(val.Value().Name, "v_decimal"))
	qt.Assert(t, qt.Equals(val.Value().Text, "14"))
}

func TestCompileBindsBoundVariableOperand(t *testing.T) {
	p := segment.NewPool(testLexicon())
	c, err := numtransform.Compile(p, "<Nxt> = <N> + 1")
	qt.Assert(t, qt.IsNil(err))

	n := p.Intern("var", "<N>", true)
	five := p.Intern("v_decimal", "5", true)
	m := match.Matching{n: five}

	out, err := c.Apply(m)
	qt.Assert(t, qt.IsNil(err))
	nxt := p.Intern("var", "<Nxt>", true)
	val, ok := out.Get(nxt)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(val.Value().Text, "6"))
}

func TestApplyErrorsOnUnboundVariable(t *testing.T) {
	p := segment.NewPool(testLexicon())
	c, err := numtransform.Compile(p, "<Out> = <N> + 1")
	qt.Assert(t, qt.IsNil(err))

	_, err = c.Apply(match.Matching{})
	qt.Assert(t, qt.IsNotNil(err))
}

func TestCompileSupportsUnaryMinusAndParens(t *testing.T) {
	p := segment.NewPool(testLexicon())
	c, err := numtransform.Compile(p, "<Out> = -(2 + 3)")
	qt.Assert(t, qt.IsNil(err))

	out, err := c.Apply(match.Matching{})
	qt.Assert(t, qt.IsNil(err))
	target := p.Intern("var", "<Out>", true)
	val, _ := out.Get(target)
	qt.Assert(t, qt.Equals(val.Value().Text, "-5"))
}

func TestCompileRejectsMissingAssignTarget(t *testing.T) {
	p := segment.NewPool(testLexicon())
	_, err := numtransform.Compile(p, "2 + 2")
	qt.Assert(t, qt.IsNotNil(err))
}
