// Package engine is the module's public entry point: a Runtime wraps the
// segment/fact intern pools, the fact and rule trees, and the activation
// scheduler behind the tell/ask API spec.md §6 describes.
package engine

import (
	"sort"

	"github.com/mpvl/unique"

	"ruleforge.dev/engine/internal/errors"
	"ruleforge.dev/engine/internal/lang/fact"
	"ruleforge.dev/engine/internal/lang/match"
	"ruleforge.dev/engine/internal/lang/scheduler"
	"ruleforge.dev/engine/internal/lang/segment"
	"ruleforge.dev/engine/internal/token"
)

// Parser is the external collaborator spec.md §4.8 describes: a PEG
// grammar reduced to the two operations the engine drives it through.
// Parse turns a tell/ask payload into the facts and rules it contains.
// SubstituteFact re-parses a fact's text with matching applied, since a
// bound variable may stand for a compound subterm.
type Parser = scheduler.Parser

// Config holds the engine's ambient knobs (SPEC_FULL.md §10): an optional
// Logf hook for diagnosing activation processing, following the teacher's
// internal/core/adt debug-flag pattern rather than pulling in a structured
// logging library.
type Config struct {
	Logf func(format string, args ...any)
}

// Runtime is one knowledge base: its segment and fact pools, its fact and
// rule trees (owned by the scheduler), and the parser it was built with.
// The zero Runtime is not usable; construct one with New.
type Runtime struct {
	Segments *segment.Pool
	Facts    *fact.Pool

	sched  *scheduler.Runtime
	parser Parser
}

// New creates an empty knowledge base driven by parser, per cfg.
//
// segPool is supplied by the caller, not constructed here, because a
// Parser must intern every segment it produces through that same pool
// (spec.md I1) and the caller's parser is typically already built around
// a concrete *segment.Pool (e.g. a PEG grammar's Lexicon-driven
// construction) before New runs. Callers that have no such dependency can
// build one with segment.NewPool and hand it to both their parser and New.
func New(segPool *segment.Pool, parser Parser, cfg Config) *Runtime {
	factPool := fact.NewPool()
	return &Runtime{
		Segments: segPool,
		Facts:    factPool,
		sched:    scheduler.New(segPool, factPool, parser, cfg.Logf),
		parser:   parser,
	}
}

// Tell parses text and adds every fact and rule it contains to the
// knowledge base, then drains the activation queue to fixpoint (spec.md
// §4.7/§4.9). A parse failure aborts the whole tell and applies nothing.
// Once parsing succeeds, each activation's own semantic error is
// accumulated rather than stopping the drain, so the returned error (if
// any) reports every activation that failed, not just the first.
func (rt *Runtime) Tell(text string) error {
	facts, rules, err := rt.parser.Parse(text)
	if err != nil {
		return errors.ParseErrorf(token.NoPos, "parsing tell payload: %v", err)
	}
	for _, f := range facts {
		rt.sched.EnqueueFact(f, true)
	}
	for _, r := range rules {
		rt.sched.EnqueueRule(r, true)
	}
	return rt.sched.Drain()
}

// Ask parses text as a single fact pattern and returns every binding
// under which it matches a fact in the knowledge base (spec.md §4.3/§6).
// Ask never mutates the knowledge base and must only be called with the
// activation queue empty (spec.md §5) — true of any Runtime between Tell
// calls, since Tell always drains before returning.
func (rt *Runtime) Ask(text string) ([]match.Matching, error) {
	f, err := rt.parseQuery(text)
	if err != nil {
		return nil, err
	}
	matches := rt.sched.FactTree().Query(f.Paths, match.Matching{})
	return dedupMatchings(matches), nil
}

// AskBool parses text as a single ground (variable-free) fact pattern and
// reports whether it is present in the knowledge base, short-circuiting
// on the first match (SPEC_FULL.md §12's ground-query fast path, grounded
// on original_source/src/knowledge.rs's bool-returning ask). Calling
// AskBool with a query that contains variables returns an error: use Ask
// for those.
func (rt *Runtime) AskBool(text string) (bool, error) {
	f, err := rt.parseQuery(text)
	if err != nil {
		return false, err
	}
	if !isGround(f) {
		return false, errors.SemanticErrorf("AskBool: query %q is not ground", f.Text)
	}
	return rt.sched.FactTree().Contains(f.Paths), nil
}

func (rt *Runtime) parseQuery(text string) (fact.Fact, error) {
	facts, rules, err := rt.parser.Parse(text)
	if err != nil {
		return fact.Fact{}, errors.ParseErrorf(token.NoPos, "parsing ask query: %v", err)
	}
	if len(rules) != 0 || len(facts) != 1 {
		return fact.Fact{}, errors.ParseErrorf(token.NoPos, "ask query %q must parse to exactly one fact, got %d facts and %d rules", text, len(facts), len(rules))
	}
	return rt.Facts.Intern(facts[0].Paths), nil
}

// isGround reports whether f's query, per SPEC_FULL.md §12, is ground: it
// contains no actual variable occurrence. This is a per-occurrence test
// (path.IsVar), not a per-slot one (path.InVarRange): a grammar position
// that is merely *eligible* to hold a variable (e.g. any argument slot) is
// not itself a variable, and most useful ground queries fill exactly such
// slots with literal values.
func isGround(f fact.Fact) bool {
	for _, p := range f.Paths {
		if p.IsVar() {
			return false
		}
	}
	return true
}

// dedupMatchings sorts and deduplicates matches by their rendered binding
// text via mpvl/unique, so a query satisfied by the same binding along
// more than one derivation path surfaces once in Ask's result (SPEC_FULL.md
// §11).
func dedupMatchings(matches []match.Matching) []match.Matching {
	if len(matches) < 2 {
		return matches
	}
	keys := make([]string, len(matches))
	for i, m := range matches {
		keys[i] = matchingKey(m)
	}
	data := &matchingSlice{keys: keys, matchings: matches}
	unique.Sort(data)
	return data.matchings
}

// matchingSlice adapts a []match.Matching, keyed by rendered binding text,
// to mpvl/unique.Interface: sort.Interface plus Truncate, so Sort can
// compact duplicate matchings into a shorter prefix in place.
type matchingSlice struct {
	keys      []string
	matchings []match.Matching
}

func (s *matchingSlice) Len() int { return len(s.matchings) }

func (s *matchingSlice) Less(i, j int) bool { return s.keys[i] < s.keys[j] }

func (s *matchingSlice) Swap(i, j int) {
	s.keys[i], s.keys[j] = s.keys[j], s.keys[i]
	s.matchings[i], s.matchings[j] = s.matchings[j], s.matchings[i]
}

func (s *matchingSlice) Truncate(n int) {
	s.keys = s.keys[:n]
	s.matchings = s.matchings[:n]
}

// matchingKey renders m as a sorted "var=value;" string: two matchings with
// the same bindings produce the same key regardless of map iteration order.
func matchingKey(m match.Matching) string {
	vars := make([]segment.Handle, 0, len(m))
	for v := range m {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool {
		return vars[i].Value().Text < vars[j].Value().Text
	})
	s := ""
	for _, v := range vars {
		val, _ := m.Get(v)
		s += v.Value().Text + "=" + val.Value().Text + ";"
	}
	return s
}
