package scheduler_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"ruleforge.dev/engine/internal/lang/fact"
	"ruleforge.dev/engine/internal/lang/scheduler"
	"ruleforge.dev/engine/internal/lang/segment"
	"ruleforge.dev/engine/internal/testlang"
)

func newRuntime() (*scheduler.Runtime, *testlang.Grammar) {
	pool := segment.NewPool(testlang.Lexicon)
	g := testlang.New(pool)
	return scheduler.New(pool, fact.NewPool(), g, nil), g
}

func tellAll(t *testing.T, sched *scheduler.Runtime, g *testlang.Grammar, text string) {
	t.Helper()
	facts, rules, err := g.Parse(text)
	qt.Assert(t, qt.IsNil(err))
	for _, f := range facts {
		sched.EnqueueFact(f, true)
	}
	for _, r := range rules {
		sched.EnqueueRule(r, true)
	}
	qt.Assert(t, qt.IsNil(sched.Drain()))
}

func contains(t *testing.T, g *testlang.Grammar, sched *scheduler.Runtime, text string) bool {
	t.Helper()
	facts, rules, err := g.Parse(text)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(len(facts), 1))
	qt.Assert(t, qt.Equals(len(rules), 0))
	return sched.FactTree().Contains(facts[0].Paths)
}

func TestRuleLearnedBeforeFactStillFiresOnTheFact(t *testing.T) {
	sched, g := newRuntime()
	tellAll(t, sched, g, "<X> ISA person -> <X> ISA animal.")
	tellAll(t, sched, g, "susan ISA person.")

	qt.Assert(t, qt.IsTrue(contains(t, g, sched, "susan ISA animal.")))
}

func TestRuleLearnedAfterFactCrossChecksExistingFacts(t *testing.T) {
	sched, g := newRuntime()
	tellAll(t, sched, g, "susan ISA person.")
	tellAll(t, sched, g, "<X> ISA person -> <X> ISA animal.")

	qt.Assert(t, qt.IsTrue(contains(t, g, sched, "susan ISA animal.")))
}

func TestChainedRulesDeriveTransitively(t *testing.T) {
	sched, g := newRuntime()
	tellAll(t, sched, g, "<X> ISA person -> <X> ISA animal.")
	tellAll(t, sched, g, "<X> ISA animal -> <X> ISA thing.")
	tellAll(t, sched, g, "susan ISA person.")

	qt.Assert(t, qt.IsTrue(contains(t, g, sched, "susan ISA animal.")))
	qt.Assert(t, qt.IsTrue(contains(t, g, sched, "susan ISA thing.")))
}

func TestUnrelatedFactsDoNotTriggerUnmatchedRule(t *testing.T) {
	sched, g := newRuntime()
	tellAll(t, sched, g, "<X> ISA person -> <X> ISA animal.")
	tellAll(t, sched, g, "walrus ISA animal.")

	qt.Assert(t, qt.IsFalse(contains(t, g, sched, "walrus ISA thing.")))
}

func TestMultiAntecedentRuleWaitsForBothFacts(t *testing.T) {
	sched, g := newRuntime()
	tellAll(t, sched, g, "<X> ISA person; <X> ISA walker -> <X> ISA biped.")
	tellAll(t, sched, g, "susan ISA person.")

	qt.Assert(t, qt.IsFalse(contains(t, g, sched, "susan ISA biped.")))

	tellAll(t, sched, g, "susan ISA walker.")
	qt.Assert(t, qt.IsTrue(contains(t, g, sched, "susan ISA biped.")))
}
