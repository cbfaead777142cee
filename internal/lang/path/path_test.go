package path_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"ruleforge.dev/engine/internal/lang/match"
	"ruleforge.dev/engine/internal/lang/path"
	"ruleforge.dev/engine/internal/lang/segment"
)

func testLexicon() segment.Lexicon {
	return segment.Lexicon{VarProduction: "var", RangePrefix: "v_"}
}

func TestStartsWith(t *testing.T) {
	p := segment.NewPool(testLexicon())
	a := p.Intern("v_word", "a", false)
	b := p.Intern("v_word", "b", false)
	c := p.Intern("v_word", "c", true)

	prefix := path.New([]segment.Handle{a, b})
	full := path.New([]segment.Handle{a, b, c})
	other := path.New([]segment.Handle{a, c})

	qt.Assert(t, qt.IsTrue(full.StartsWith(prefix)))
	qt.Assert(t, qt.IsTrue(full.StartsWith(full)))
	qt.Assert(t, qt.IsFalse(other.StartsWith(prefix)))
	qt.Assert(t, qt.IsFalse(prefix.StartsWith(full)))
}

func TestValueLenIsLeaf(t *testing.T) {
	p := segment.NewPool(testLexicon())
	a := p.Intern("v_word", "a", false)
	leaf := p.Intern("v_word", "b", true)
	full := path.New([]segment.Handle{a, leaf})

	qt.Assert(t, qt.Equals(full.Len(), 2))
	qt.Assert(t, qt.Equals(full.Value(), leaf))
	qt.Assert(t, qt.IsTrue(full.IsLeaf()))
	qt.Assert(t, qt.IsTrue(full.InVarRange()))
	qt.Assert(t, qt.IsFalse(full.IsVar()))
}

func TestSubstituteReplacesOnlyFinalSegment(t *testing.T) {
	p := segment.NewPool(testLexicon())
	a := p.Intern("v_word", "a", false)
	v := p.Intern("var", "<X0>", true)
	bound := p.Intern("v_word", "replaced", true)

	before := path.New([]segment.Handle{a, v})
	m := match.Matching{}.Bind(v, bound)
	after := before.Substitute(m)

	qt.Assert(t, qt.Equals(after.Len(), 2))
	qt.Assert(t, qt.Equals(after.Segments()[0], a))
	qt.Assert(t, qt.Equals(after.Value(), bound))
}

func TestSubstitutePanicsWithoutBinding(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected Substitute to panic on an unbound variable")
		}
	}()
	p := segment.NewPool(testLexicon())
	v := p.Intern("var", "<X0>", true)
	path.New([]segment.Handle{v}).Substitute(match.Matching{})
}

func TestPathsAfterSkipsOwnSubtreeContinuesSiblings(t *testing.T) {
	p := segment.NewPool(testLexicon())
	root := p.Intern("v_word", "root", false)
	childA := p.Intern("v_word", "a", true)
	childB := p.Intern("v_word", "b", true)
	sibling := p.Intern("v_word", "sibling", true)

	self := path.New([]segment.Handle{root})
	withinA := path.New([]segment.Handle{root, childA})
	withinB := path.New([]segment.Handle{root, childB})
	after := path.New([]segment.Handle{sibling})

	list := []path.Path{withinA, withinB, after}
	got := self.PathsAfter(list, false)
	qt.Assert(t, qt.Equals(len(got), 1))
	qt.Assert(t, qt.Equals(got[0], after))
}

func TestPathsAfterMarkSeenRequiresOwnEntryFirst(t *testing.T) {
	p := segment.NewPool(testLexicon())
	root := p.Intern("v_word", "root", true)
	sibling := p.Intern("v_word", "sibling", true)

	self := path.New([]segment.Handle{root})
	after := path.New([]segment.Handle{sibling})

	// self's own entry appears in the list (as an interior variable-range
	// node alongside its leaf descendants would); markSeen must not treat
	// the first sighting of self as the cutoff.
	list := []path.Path{self, after}
	got := self.PathsAfter(list, true)
	qt.Assert(t, qt.Equals(len(got), 1))
	qt.Assert(t, qt.Equals(got[0], after))
}

func TestSubNYieldsPrefixWithOriginalValue(t *testing.T) {
	p := segment.NewPool(testLexicon())
	a := p.Intern("v_word", "a", false)
	b := p.Intern("v_word", "b", true)
	full := path.New([]segment.Handle{a, b})

	sub := full.Sub(1)
	qt.Assert(t, qt.Equals(sub.Len(), 1))
	qt.Assert(t, qt.Equals(sub.Value(), a))
}

func TestRootIsEmptySentinel(t *testing.T) {
	r := path.Root()
	qt.Assert(t, qt.Equals(r.Len(), 1))
}

func TestNewPanicsOnEmptySequence(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected New to panic on an empty segment sequence")
		}
	}()
	path.New(nil)
}
