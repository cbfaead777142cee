package facttree_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"ruleforge.dev/engine/internal/lang/facttree"
	"ruleforge.dev/engine/internal/lang/match"
	"ruleforge.dev/engine/internal/lang/path"
	"ruleforge.dev/engine/internal/lang/segment"
)

func testLexicon() segment.Lexicon {
	return segment.Lexicon{VarProduction: "var", RangePrefix: "v_"}
}

// triple builds the flat three-leaf fact "subj ISA obj"'s path list.
func triple(p *segment.Pool, subj, obj string) []path.Path {
	isa := p.Intern("word", "ISA", true)
	subjH := p.Intern("v_word", subj, true)
	objH := p.Intern("v_word", obj, true)
	return []path.Path{
		path.New([]segment.Handle{subjH}),
		path.New([]segment.Handle{subjH, isa}),
		path.New([]segment.Handle{subjH, isa, objH}),
	}
}

func TestQueryWithVariableBindsEveryAssertedValue(t *testing.T) {
	p := segment.NewPool(testLexicon())
	root := facttree.NewRoot()
	root.Insert(triple(p, "susan", "person"))
	root.Insert(triple(p, "susan", "walrus"))

	isa := p.Intern("word", "ISA", true)
	susan := p.Intern("v_word", "susan", true)
	x := p.Intern("var", "<X>", true)
	query := []path.Path{
		path.New([]segment.Handle{susan}),
		path.New([]segment.Handle{susan, isa}),
		path.New([]segment.Handle{susan, isa, x}),
	}

	got := root.Query(query, match.Matching{})
	qt.Assert(t, qt.Equals(len(got), 2))

	bound := map[string]bool{}
	for _, m := range got {
		val, ok := m.Get(x)
		qt.Assert(t, qt.IsTrue(ok))
		bound[val.Value().Text] = true
	}
	qt.Assert(t, qt.IsTrue(bound["person"]))
	qt.Assert(t, qt.IsTrue(bound["walrus"]))
}

func TestQueryWithLiteralOnlyMatchesThatFact(t *testing.T) {
	p := segment.NewPool(testLexicon())
	root := facttree.NewRoot()
	root.Insert(triple(p, "susan", "person"))
	root.Insert(triple(p, "susan", "walrus"))

	got := root.Query(triple(p, "susan", "person"), match.Matching{})
	qt.Assert(t, qt.Equals(len(got), 1))
}

func TestContainsReportsGroundFactPresence(t *testing.T) {
	p := segment.NewPool(testLexicon())
	root := facttree.NewRoot()
	root.Insert(triple(p, "susan", "person"))

	qt.Assert(t, qt.IsTrue(root.Contains(triple(p, "susan", "person"))))
	qt.Assert(t, qt.IsFalse(root.Contains(triple(p, "susan", "walrus"))))
}

func TestQueryOnEmptyTreeReturnsNoMatches(t *testing.T) {
	p := segment.NewPool(testLexicon())
	root := facttree.NewRoot()
	got := root.Query(triple(p, "susan", "person"), match.Matching{})
	qt.Assert(t, qt.Equals(len(got), 0))
}
