package testlang_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"ruleforge.dev/engine/internal/lang/match"
	"ruleforge.dev/engine/internal/lang/segment"
	"ruleforge.dev/engine/internal/testlang"
)

func TestParseSimpleFact(t *testing.T) {
	pool := segment.NewPool(testlang.Lexicon)
	g := testlang.New(pool)
	facts, rules, err := g.Parse("susan ISA person.")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(len(facts), 1))
	qt.Assert(t, qt.Equals(len(rules), 0))
	qt.Assert(t, qt.Equals(facts[0].Text, "susanISAperson"))
}

func TestParseMultipleStatements(t *testing.T) {
	pool := segment.NewPool(testlang.Lexicon)
	g := testlang.New(pool)
	facts, rules, err := g.Parse("susan ISA person. walrus ISA animal.")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(len(facts), 2))
	qt.Assert(t, qt.Equals(len(rules), 0))
}

func TestParseTupleFact(t *testing.T) {
	pool := segment.NewPool(testlang.Lexicon)
	g := testlang.New(pool)
	facts, _, err := g.Parse("susan HAS (what: person, kind: female).")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(len(facts), 1))
	// susan, HAS, and the tuple's two key/value pairs are all leaves;
	// the tuple and pair wrapper nodes are purely structural and
	// contribute no path entries of their own.
	qt.Assert(t, qt.Equals(len(facts[0].Paths), 6))
	qt.Assert(t, qt.Equals(len(facts[0].LeafPaths()), 6))
}

func TestParseSingleBlockRule(t *testing.T) {
	pool := segment.NewPool(testlang.Lexicon)
	g := testlang.New(pool)
	_, rules, err := g.Parse("<X> ISA person -> <X> ISA animal.")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(len(rules), 1))
	r := rules[0]
	qt.Assert(t, qt.Equals(len(r.Antecedents), 1))
	qt.Assert(t, qt.Equals(len(r.Consequents), 1))
	qt.Assert(t, qt.Equals(len(r.MoreAntecedents), 0))
}

func TestParseConjunctionAntecedents(t *testing.T) {
	pool := segment.NewPool(testlang.Lexicon)
	g := testlang.New(pool)
	_, rules, err := g.Parse("<X> ISA person; <X> ISA walker -> <X> ISA biped.")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(len(rules), 1))
	qt.Assert(t, qt.Equals(len(rules[0].Antecedents), 2))
}

func TestParseMultiBlockRuleWithTransformAndGuard(t *testing.T) {
	pool := segment.NewPool(testlang.Lexicon)
	g := testlang.New(pool)
	_, rules, err := g.Parse("successor <N> {?{ <N> <= 5 }?} -> successor <N> {={ <Nxt> = <N> + 1 }=} -> successor <Nxt>.")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(len(rules), 1))
	r := rules[0]
	qt.Assert(t, qt.IsNotNil(r.Guard))
	qt.Assert(t, qt.Equals(len(r.MoreAntecedents), 1))
	qt.Assert(t, qt.IsNotNil(r.MoreAntecedents[0].Transform))
	qt.Assert(t, qt.Equals(len(r.Consequents), 1))
}

func TestSubstituteFactReplacesBoundLeaf(t *testing.T) {
	pool := segment.NewPool(testlang.Lexicon)
	g := testlang.New(pool)
	facts, _, err := g.Parse("<X> ISA person.")
	qt.Assert(t, qt.IsNil(err))

	x := pool.Intern("var", "<X>", true)
	susan := pool.Intern("v_word", "susan", true)
	substituted, err := g.SubstituteFact(facts[0], match.Matching{x: susan})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(substituted.Text, "susanISAperson"))
}

func TestParseRejectsConjunctionWithoutArrow(t *testing.T) {
	pool := segment.NewPool(testlang.Lexicon)
	g := testlang.New(pool)
	_, _, err := g.Parse("susan ISA person; walrus ISA animal.")
	qt.Assert(t, qt.IsNotNil(err))
}
